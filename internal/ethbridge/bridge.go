// Package ethbridge implements the swap collaborator interfaces on top of
// go-ethereum: the adapter contract, the ERC-20 token backend and the
// signing session.
package ethbridge

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

const dialTimeout = 15 * time.Second

// Dial connects to a JSON-RPC endpoint with a bounded timeout.
func Dial(ctx context.Context, url string) (*ethclient.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	return ethclient.DialContext(ctx, url)
}

// Bridge holds the shared client and signer for all contract bindings.
type Bridge struct {
	client  *ethclient.Client
	auth    *bind.TransactOpts
	owner   common.Address
	chainID *big.Int
	logger  *zap.Logger
}

// New dials the endpoint and prepares a keyed transactor for the configured
// private key.
func New(ctx context.Context, rpcURL, privateKeyHex string, logger *zap.Logger) (*Bridge, error) {
	client, err := Dial(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", rpcURL, err)
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to read chain id: %w", err)
	}

	key, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	auth, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to build transactor: %w", err)
	}

	owner := crypto.PubkeyToAddress(key.PublicKey)
	logger.Info("bridge connected",
		zap.String("endpoint", rpcURL),
		zap.String("owner", owner.Hex()),
		zap.String("chain_id", chainID.String()))

	return &Bridge{
		client:  client,
		auth:    auth,
		owner:   owner,
		chainID: chainID,
		logger:  logger,
	}, nil
}

// Owner returns the signing account address.
func (b *Bridge) Owner() common.Address {
	return b.owner
}

// Client exposes the underlying RPC client.
func (b *Bridge) Client() *ethclient.Client {
	return b.client
}

func (b *Bridge) Close() {
	b.client.Close()
}

// transactOpts returns a per-call copy of the signer options bound to ctx.
func (b *Bridge) transactOpts(ctx context.Context) *bind.TransactOpts {
	opts := *b.auth
	opts.Context = ctx
	return &opts
}

// waitMined blocks until the transaction is mined and checks the receipt
// status; a reverted transaction is a failure, not a success with a receipt.
func (b *Bridge) waitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	receipt, err := bind.WaitMined(ctx, b.client, tx)
	if err != nil {
		return nil, fmt.Errorf("waiting for %s: %w", tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("transaction %s reverted", tx.Hash().Hex())
	}
	return receipt, nil
}
