package model

// Status is the lifecycle state of a transaction as derived from data
// availability: the transaction exists but has no receipt (PENDING), or the
// receipt carries a success/failure status bit.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

// TxRecord is the decorated transaction returned to API clients.
// Block-dependent fields are omitted while the transaction is pending.
type TxRecord struct {
	TxHash    string  `json:"txHash"`
	Chain     string  `json:"chain"`
	ChainName string  `json:"chainName"`
	Status    Status  `json:"status"`
	From      string  `json:"from"`
	To        string  `json:"to,omitempty"`
	Value     string  `json:"value"`
	ValueSymbol string `json:"valueSymbol"`
	ValueRaw  string  `json:"valueRaw"`
	Nonce     uint64  `json:"nonce"`
	InputData string  `json:"inputData"`
	TxType    uint64  `json:"txType"`

	GasLimit     string `json:"gasLimit"`
	GasPrice     string `json:"gasPrice"`
	GasPriceUnit string `json:"gasPriceUnit"`
	GasUsed      string `json:"gasUsed,omitempty"`
	GasFee       string `json:"gasFee,omitempty"`
	GasFeeSymbol string `json:"gasFeeSymbol,omitempty"`

	BlockNumber   uint64  `json:"blockNumber,omitempty"`
	BlockHash     string  `json:"blockHash,omitempty"`
	Timestamp     *uint64 `json:"timestamp,omitempty"`
	Datetime      string  `json:"datetime,omitempty"`
	Confirmations *uint64 `json:"confirmations,omitempty"`

	// EIP-1559 fields, populated only for type-2 transactions on chains
	// that support them.
	BaseFeePerGas        string `json:"baseFeePerGas,omitempty"`
	MaxFeePerGas         string `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas string `json:"maxPriorityFeePerGas,omitempty"`

	// Rollup L1 data fee, populated on chains that publish to a base chain.
	L1Fee     string `json:"l1Fee,omitempty"`
	L1FeeRaw  string `json:"l1FeeRaw,omitempty"`
	L1GasUsed string `json:"l1GasUsed,omitempty"`

	ExplorerURL string      `json:"explorerUrl"`
	MethodInfo  *MethodInfo `json:"methodInfo,omitempty"`

	TokenTransfers []TokenTransfer `json:"tokenTransfers"`
	NftTransfers   []NftTransfer   `json:"nftTransfers,omitempty"`
	Swaps          []SwapEntry     `json:"swaps,omitempty"`
	InternalCalls  []InternalCall  `json:"internalCalls,omitempty"`

	FailureInfo *FailureInfo `json:"failureInfo,omitempty"`
	MevInfo     *MevInfo     `json:"mevInfo,omitempty"`
}

// MethodInfo is the best-effort decoding of the input data's 4-byte selector
// against a public signature database. Advisory only.
type MethodInfo struct {
	Selector  string `json:"selector"`
	Name      string `json:"name,omitempty"`
	Signature string `json:"signature,omitempty"`
	Decoded   bool   `json:"decoded"`
}

// InternalCall is one flattened frame from a callTracer trace.
type InternalCall struct {
	Type  string `json:"type"`
	From  string `json:"from"`
	To    string `json:"to"`
	Value string `json:"value,omitempty"`
	Depth int    `json:"depth"`
	Error string `json:"error,omitempty"`
}
