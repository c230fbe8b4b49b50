package ethbridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestSessionNotifyFirstObservation(t *testing.T) {
	s := &Session{logger: zap.NewNop()}

	var observed []uint64
	s.OnChainChanged(func(chainID uint64) {
		observed = append(observed, chainID)
	})

	// A session whose startup check failed has never observed a chain id;
	// the first successful poll must reach the subscribers.
	s.notify(11155111)
	assert.Equal(t, []uint64{11155111}, observed)

	// A repeat of the same id is not a change.
	s.notify(11155111)
	assert.Equal(t, []uint64{11155111}, observed)

	// A genuine change still notifies.
	s.notify(1)
	assert.Equal(t, []uint64{11155111, 1}, observed)
}
