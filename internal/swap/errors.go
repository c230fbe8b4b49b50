// =============================
// File: internal/swap/errors.go
// =============================
package swap

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind classifies an orchestration failure. Local validation kinds never
// reach the network; the remaining kinds translate external-call failures at
// the orchestration boundary.
type Kind string

const (
	KindInvalidAmount       Kind = "invalid_amount"
	KindInvalidTolerance    Kind = "invalid_tolerance"
	KindWrongNetwork        Kind = "wrong_network"
	KindQuoteUnavailable    Kind = "quote_unavailable"
	KindApprovalRejected    Kind = "approval_rejected"
	KindRatioMismatch       Kind = "ratio_mismatch"
	KindSwapCallFailed      Kind = "swap_call_failed"
	KindLiquidityCallFailed Kind = "liquidity_call_failed"
)

// Step names the orchestration step a failure occurred in. The step tells the
// caller whether funds could have moved: nothing before StepExecute mutates
// balances.
type Step string

const (
	StepValidate Step = "validate"
	StepQuote    Step = "quote"
	StepApproval Step = "approval"
	StepExecute  Step = "execute"
)

var (
	// ErrWrongNetwork is the guard's precondition failure for mutating flows.
	ErrWrongNetwork = errors.New("session is not on the expected network")

	// ErrApprovalRejected reports a failed or rejected approval transaction;
	// the dependent action was never attempted.
	ErrApprovalRejected = errors.New("approval rejected")

	// ErrInvalidTolerance reports a slippage tolerance outside policy bounds.
	ErrInvalidTolerance = errors.New("invalid slippage tolerance")

	// ErrNoBootstrapRatio is returned by the ratio advisor when the pool has
	// no liquidity and no bootstrap ratio is configured for the pair.
	ErrNoBootstrapRatio = errors.New("pool has no liquidity and no bootstrap ratio is configured")
)

// FlowError is the structured failure every orchestration returns: the
// classified kind, the step that failed and the computed call parameters, with
// the raw cause preserved for display.
type FlowError struct {
	Kind   Kind
	Step   Step
	Params map[string]string
	Err    error
}

func (e *FlowError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s at step %s", e.Kind, e.Step)
	if len(e.Params) > 0 {
		b.WriteString(" (")
		first := true
		for _, k := range sortedKeys(e.Params) {
			if !first {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%s", k, e.Params[k])
			first = false
		}
		b.WriteString(")")
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *FlowError) Unwrap() error {
	return e.Err
}

func newFlowError(kind Kind, step Step, err error, params map[string]string) *FlowError {
	return &FlowError{Kind: kind, Step: step, Err: err, Params: params}
}

// KindOf extracts the failure kind, or "" for non-flow errors.
func KindOf(err error) Kind {
	var fe *FlowError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// StepOf extracts the failing step, or "" for non-flow errors.
func StepOf(err error) Step {
	var fe *FlowError
	if errors.As(err, &fe) {
		return fe.Step
	}
	return ""
}

// Error signatures the adapter contract emits on an amount-ratio violation
// during addLiquidity.
var ratioMismatchSignatures = []string{
	"INSUFFICIENT_A_AMOUNT",
	"INSUFFICIENT_B_AMOUNT",
}

// IsRatioMismatch reports whether an addLiquidity failure carries a
// recognized amount-ratio violation signature.
func IsRatioMismatch(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, sig := range ratioMismatchSignatures {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}

// RatioMismatchGuidance is attached to RatioMismatch failures so callers can
// show advice distinct from a generic liquidity failure.
const RatioMismatchGuidance = "amount ratio does not match the current pool reserves; re-derive the second amount from reserves and retry"

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
