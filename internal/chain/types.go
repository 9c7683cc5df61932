package chain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Transaction is the raw transaction shape returned by
// eth_getTransactionByHash. BlockNumber is nil while pending; To is nil for
// contract creation.
type Transaction struct {
	Hash                 common.Hash     `json:"hash"`
	From                 common.Address  `json:"from"`
	To                   *common.Address `json:"to"`
	Value                *hexutil.Big    `json:"value"`
	Gas                  hexutil.Uint64  `json:"gas"`
	GasPrice             *hexutil.Big    `json:"gasPrice"`
	MaxFeePerGas         *hexutil.Big    `json:"maxFeePerGas"`
	MaxPriorityFeePerGas *hexutil.Big    `json:"maxPriorityFeePerGas"`
	Input                hexutil.Bytes   `json:"input"`
	Nonce                hexutil.Uint64  `json:"nonce"`
	BlockNumber          *hexutil.Big    `json:"blockNumber"`
	Type                 hexutil.Uint64  `json:"type"`
}

// Log is one receipt log entry.
type Log struct {
	Address  common.Address `json:"address"`
	Topics   []common.Hash  `json:"topics"`
	Data     hexutil.Bytes  `json:"data"`
	LogIndex hexutil.Uint64 `json:"logIndex"`
}

// Receipt is the raw receipt shape returned by eth_getTransactionReceipt,
// including the chain-specific rollup fee fields some chains attach.
type Receipt struct {
	Status            hexutil.Uint64 `json:"status"`
	GasUsed           hexutil.Uint64 `json:"gasUsed"`
	EffectiveGasPrice *hexutil.Big   `json:"effectiveGasPrice"`
	BlockNumber       *hexutil.Big   `json:"blockNumber"`
	BlockHash         common.Hash    `json:"blockHash"`
	Logs              []Log          `json:"logs"`
	L1Fee             *hexutil.Big   `json:"l1Fee"`
	L1GasUsed         *hexutil.Big   `json:"l1GasUsed"`
}

// BlockHeader is the block shape fetched without transaction bodies.
type BlockHeader struct {
	Number        *hexutil.Big   `json:"number"`
	Hash          common.Hash    `json:"hash"`
	Timestamp     hexutil.Uint64 `json:"timestamp"`
	BaseFeePerGas *hexutil.Big   `json:"baseFeePerGas"`
}

// BlockTx is the subset of a transaction body the sandwich detector needs.
type BlockTx struct {
	Hash  common.Hash     `json:"hash"`
	From  common.Address  `json:"from"`
	To    *common.Address `json:"to"`
	Input hexutil.Bytes   `json:"input"`
}

// Block is the block shape fetched with full transaction bodies.
type Block struct {
	Number       *hexutil.Big   `json:"number"`
	Hash         common.Hash    `json:"hash"`
	Timestamp    hexutil.Uint64 `json:"timestamp"`
	Transactions []BlockTx      `json:"transactions"`
}

// CallFrame is one frame of a callTracer trace.
type CallFrame struct {
	Type  string          `json:"type"`
	From  common.Address  `json:"from"`
	To    *common.Address `json:"to"`
	Value *hexutil.Big    `json:"value"`
	Error string          `json:"error"`
	Calls []CallFrame     `json:"calls"`
}
