package model

// ErrorCategory classifies why a mined transaction failed.
type ErrorCategory string

const (
	ErrOutOfGas       ErrorCategory = "OUT_OF_GAS"
	ErrContractRevert ErrorCategory = "CONTRACT_REVERT"
	ErrPanic          ErrorCategory = "PANIC"
	ErrUnknown        ErrorCategory = "UNKNOWN"
)

// FailureInfo is the result of replaying and classifying a failed
// transaction. It is a successful classification of an on-chain failure,
// not an error; it is computed fresh per request and never persisted.
type FailureInfo struct {
	ErrorCategory     ErrorCategory `json:"errorCategory"`
	ErrorCategoryDesc string        `json:"errorCategoryDesc"`
	RevertReason      *string       `json:"revertReason"`
	RevertReasonRaw   *string       `json:"revertReasonRaw"`
	Suggestion        string        `json:"suggestion"`
}
