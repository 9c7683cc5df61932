package assemble

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"txtracer/internal/chain"
	"txtracer/internal/classify"
	"txtracer/internal/extract"
	"txtracer/internal/mev"
	"txtracer/internal/model"
	"txtracer/internal/token"
)

// ErrTxNotFound reports a hash the node has never seen. Distinct from
// PENDING, which is a transaction without a receipt.
var ErrTxNotFound = errors.New("transaction not found")

// ChainReader is the node read surface the assembler consumes.
type ChainReader interface {
	TransactionByHash(ctx context.Context, hash common.Hash) (*chain.Transaction, error)
	TransactionReceipt(ctx context.Context, hash common.Hash) (*chain.Receipt, error)
	BlockNumber(ctx context.Context) (uint64, error)
	BlockHeaderByNumber(ctx context.Context, number *big.Int) (*chain.BlockHeader, error)
	BlockWithTxs(ctx context.Context, number *big.Int) (*chain.Block, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	TraceTransaction(ctx context.Context, hash common.Hash) (*chain.CallFrame, error)
}

// MethodDecoder resolves a 4-byte selector into a best-effort method name.
type MethodDecoder interface {
	Lookup(ctx context.Context, input []byte) *model.MethodInfo
}

// Assembler builds the decorated transaction record for one chain. Only the
// transaction and receipt reads can fail a request; every enrichment
// degrades to an absent field.
type Assembler struct {
	cfg        *chain.Config
	reader     ChainReader
	tokens     *token.Cache
	extractor  *extract.Extractor
	classifier *classify.Classifier
	detector   *mev.Detector
	methods    MethodDecoder
	logger     *zap.Logger
}

func New(cfg *chain.Config, reader ChainReader, cacheTTL time.Duration, logger *zap.Logger) *Assembler {
	if logger == nil {
		logger = zap.NewNop()
	}
	tokens := token.NewCache(reader, cacheTTL, logger)
	return &Assembler{
		cfg:        cfg,
		reader:     reader,
		tokens:     tokens,
		extractor:  extract.New(reader, tokens, logger),
		classifier: classify.New(reader, logger),
		detector:   mev.New(reader, logger),
		methods:    extract.NewSignatureDB(logger),
		logger:     logger,
	}
}

// Assemble decorates the transaction identified by hash. Returns
// ErrTxNotFound when the node does not know the hash.
func (a *Assembler) Assemble(ctx context.Context, hash common.Hash) (*model.TxRecord, error) {
	var (
		tx      *chain.Transaction
		receipt *chain.Receipt
		head    uint64

		txErr, receiptErr, headErr error
	)

	// The three root reads have no data dependency; fetch them together.
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		tx, txErr = a.reader.TransactionByHash(ctx, hash)
	}()
	go func() {
		defer wg.Done()
		receipt, receiptErr = a.reader.TransactionReceipt(ctx, hash)
	}()
	go func() {
		defer wg.Done()
		head, headErr = a.reader.BlockNumber(ctx)
	}()
	wg.Wait()

	if txErr != nil {
		return nil, fmt.Errorf("fetch transaction: %w", txErr)
	}
	if tx == nil {
		return nil, ErrTxNotFound
	}
	if receiptErr != nil {
		return nil, fmt.Errorf("fetch receipt: %w", receiptErr)
	}

	record := a.baseRecord(tx)

	if receipt == nil {
		record.Status = model.StatusPending
		return record, nil
	}

	if receipt.Status == 1 {
		record.Status = model.StatusSuccess
	} else {
		record.Status = model.StatusFailed
	}

	a.applyReceipt(record, tx, receipt)
	if headErr != nil {
		a.logger.Warn("block number read failed, omitting confirmations",
			zap.String("tx_hash", hash.Hex()), zap.Error(headErr))
	} else {
		record.Confirmations = confirmations(head, receipt)
	}

	// Independent enrichments; each degrades on its own.
	var enrich sync.WaitGroup
	enrich.Add(4)
	go func() {
		defer enrich.Done()
		a.applyBlockHeader(ctx, record, tx, receipt)
	}()
	go func() {
		defer enrich.Done()
		record.MethodInfo = a.methods.Lookup(ctx, tx.Input)
	}()
	go func() {
		defer enrich.Done()
		record.InternalCalls = a.internalCalls(ctx, hash)
	}()
	go func() {
		defer enrich.Done()
		record.MevInfo = a.detector.DetectSafe(ctx, tx, receipt)
	}()
	enrich.Wait()

	a.applyL1Fee(ctx, record, tx, receipt)

	record.TokenTransfers = a.extractor.TokenTransfers(ctx, receipt.Logs)
	record.NftTransfers = a.extractor.NftTransfers(ctx, receipt.Logs)
	record.Swaps = a.extractor.Swaps(ctx, receipt.Logs)

	if record.Status == model.StatusFailed {
		failure := a.classifier.Classify(ctx, tx, receipt)
		record.FailureInfo = &failure
	}

	return record, nil
}

// baseRecord fills the fields available from the transaction alone. This is
// the complete PENDING response shape.
func (a *Assembler) baseRecord(tx *chain.Transaction) *model.TxRecord {
	value := (*big.Int)(tx.Value)
	record := &model.TxRecord{
		TxHash:         tx.Hash.Hex(),
		Chain:          a.cfg.ID,
		ChainName:      a.cfg.DisplayName,
		From:           tx.From.Hex(),
		Value:          model.FormatUnits(value, a.cfg.NativeDecimals),
		ValueSymbol:    a.cfg.NativeSymbol,
		ValueRaw:       rawAmount(value),
		Nonce:          uint64(tx.Nonce),
		InputData:      tx.Input.String(),
		TxType:         uint64(tx.Type),
		GasLimit:       strconv.FormatUint(uint64(tx.Gas), 10),
		GasPriceUnit:   "Gwei",
		ExplorerURL:    a.cfg.ExplorerTxURL + tx.Hash.Hex(),
		TokenTransfers: make([]model.TokenTransfer, 0),
	}
	if tx.To != nil {
		record.To = tx.To.Hex()
	}
	if tx.GasPrice != nil {
		record.GasPrice = model.FormatGwei((*big.Int)(tx.GasPrice))
	}
	return record
}

func (a *Assembler) applyReceipt(record *model.TxRecord, tx *chain.Transaction, receipt *chain.Receipt) {
	gasUsed := uint64(receipt.GasUsed)
	record.GasUsed = strconv.FormatUint(gasUsed, 10)

	price := effectiveGasPrice(tx, receipt)
	if price != nil {
		record.GasPrice = model.FormatGwei(price)
		fee := new(big.Int).Mul(price, new(big.Int).SetUint64(gasUsed))
		record.GasFee = model.FormatUnits(fee, a.cfg.NativeDecimals)
		record.GasFeeSymbol = a.cfg.NativeSymbol
	}

	if receipt.BlockNumber != nil {
		record.BlockNumber = (*big.Int)(receipt.BlockNumber).Uint64()
	}
	record.BlockHash = receipt.BlockHash.Hex()
}

// applyBlockHeader attaches the timestamp-derived fields and, for type-2
// transactions on EIP-1559 chains, the fee market fields.
func (a *Assembler) applyBlockHeader(ctx context.Context, record *model.TxRecord, tx *chain.Transaction, receipt *chain.Receipt) {
	if receipt.BlockNumber == nil {
		return
	}
	header, err := a.reader.BlockHeaderByNumber(ctx, (*big.Int)(receipt.BlockNumber))
	if err != nil || header == nil {
		a.logger.Warn("block header read failed, omitting timestamp",
			zap.String("tx_hash", record.TxHash), zap.Error(err))
		return
	}

	timestamp := uint64(header.Timestamp)
	record.Timestamp = &timestamp
	record.Datetime = formatDatetime(timestamp)

	if a.cfg.SupportsEIP1559 && uint64(tx.Type) == 2 {
		if header.BaseFeePerGas != nil {
			record.BaseFeePerGas = model.FormatGwei((*big.Int)(header.BaseFeePerGas))
		}
		if tx.MaxFeePerGas != nil {
			record.MaxFeePerGas = model.FormatGwei((*big.Int)(tx.MaxFeePerGas))
		}
		if tx.MaxPriorityFeePerGas != nil {
			record.MaxPriorityFeePerGas = model.FormatGwei((*big.Int)(tx.MaxPriorityFeePerGas))
		}
	}
}

func (a *Assembler) internalCalls(ctx context.Context, hash common.Hash) []model.InternalCall {
	frame, err := a.reader.TraceTransaction(ctx, hash)
	if err != nil || frame == nil {
		// Public nodes rarely expose the debug namespace.
		a.logger.Debug("call trace unavailable", zap.String("tx_hash", hash.Hex()), zap.Error(err))
		return nil
	}
	var calls []model.InternalCall
	flattenFrame(*frame, 0, &calls)
	return calls
}

func flattenFrame(frame chain.CallFrame, depth int, out *[]model.InternalCall) {
	call := model.InternalCall{
		Type:  frame.Type,
		From:  frame.From.Hex(),
		Depth: depth,
		Error: frame.Error,
	}
	if frame.To != nil {
		call.To = frame.To.Hex()
	}
	if frame.Value != nil {
		call.Value = model.FormatUnits((*big.Int)(frame.Value), 18)
	}
	*out = append(*out, call)
	for _, child := range frame.Calls {
		flattenFrame(child, depth+1, out)
	}
}

func effectiveGasPrice(tx *chain.Transaction, receipt *chain.Receipt) *big.Int {
	if receipt.EffectiveGasPrice != nil {
		return (*big.Int)(receipt.EffectiveGasPrice)
	}
	if tx.GasPrice != nil {
		return (*big.Int)(tx.GasPrice)
	}
	return nil
}

// confirmations clamps at zero: the head read races the receipt read and
// can come back behind the receipt's block.
func confirmations(head uint64, receipt *chain.Receipt) *uint64 {
	if receipt.BlockNumber == nil {
		return nil
	}
	blockNumber := (*big.Int)(receipt.BlockNumber).Uint64()
	var confs uint64
	if head > blockNumber {
		confs = head - blockNumber
	}
	return &confs
}

var cst = time.FixedZone("UTC+8", 8*60*60)

func formatDatetime(timestamp uint64) string {
	return time.Unix(int64(timestamp), 0).In(cst).Format("2006-01-02 15:04:05")
}

func rawAmount(value *big.Int) string {
	if value == nil {
		return "0"
	}
	return value.String()
}
