package mev

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"txtracer/internal/chain"
	"txtracer/internal/extract"
	"txtracer/internal/model"
)

// Known router swap-function selectors: exact-in/exact-out variants across
// V2-style routers plus V3 single/multi-hop calls.
var swapSelectors = map[string]struct{}{
	"0x38ed1739": {}, // swapExactTokensForTokens
	"0x8803dbee": {}, // swapTokensForExactTokens
	"0x7ff36ab5": {}, // swapExactETHForTokens
	"0x4a25d94a": {}, // swapTokensForExactETH
	"0x18cbafe5": {}, // swapExactTokensForETH
	"0xfb3bdb41": {}, // swapETHForExactTokens
	"0x5c11d795": {}, // swapExactTokensForTokensSupportingFeeOnTransferTokens
	"0xb6f9de95": {}, // swapExactETHForTokensSupportingFeeOnTransferTokens
	"0x791ac947": {}, // swapExactTokensForETHSupportingFeeOnTransferTokens
	"0x414bf389": {}, // exactInputSingle
	"0xdb3e2198": {}, // exactOutputSingle
	"0xc04b8d59": {}, // exactInput
	"0xf28c0498": {}, // exactOutput
}

// IsSwapCandidate reports whether the input data starts with a known router
// swap selector.
func IsSwapCandidate(input []byte) bool {
	if len(input) < 4 {
		return false
	}
	_, ok := swapSelectors[hexutil.Encode(input[:4])]
	return ok
}

// BlockFetcher loads a block with full transaction bodies.
type BlockFetcher interface {
	BlockWithTxs(ctx context.Context, number *big.Int) (*chain.Block, error)
}

// Detector looks for sandwich patterns around a target swap transaction.
// Same-router and same-sender matching are proxies, not proof: the result
// is advisory, never authoritative, and false positives are expected.
type Detector struct {
	blocks BlockFetcher
	logger *zap.Logger
}

func New(blocks BlockFetcher, logger *zap.Logger) *Detector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Detector{blocks: blocks, logger: logger}
}

// DetectSafe degrades every internal failure to a nil result so MEV
// analysis can never fail the parent request.
func (d *Detector) DetectSafe(ctx context.Context, tx *chain.Transaction, receipt *chain.Receipt) *model.MevInfo {
	info, err := d.Detect(ctx, tx, receipt)
	if err != nil {
		d.logger.Warn("mev detection failed", zap.String("tx_hash", tx.Hash.Hex()), zap.Error(err))
		return nil
	}
	return info
}

// Detect returns nil when the target is not a recognized swap call. For
// swap targets it scans sibling transactions in the same block for a
// front-run/back-run pair sharing a sender and the target's router.
func (d *Detector) Detect(ctx context.Context, tx *chain.Transaction, receipt *chain.Receipt) (*model.MevInfo, error) {
	if !IsSwapCandidate(tx.Input) {
		return nil, nil
	}

	targetPool := extract.FirstSwapPool(receipt.Logs)

	var blockNumber *big.Int
	if receipt.BlockNumber != nil {
		blockNumber = (*big.Int)(receipt.BlockNumber)
	}
	block, err := d.blocks.BlockWithTxs(ctx, blockNumber)
	if err != nil {
		return nil, err
	}
	if block == nil || len(block.Transactions) == 0 {
		return notSuspicious(), nil
	}

	targetIndex := -1
	for i, sibling := range block.Transactions {
		if sibling.Hash == tx.Hash {
			targetIndex = i
			break
		}
	}
	if targetIndex == -1 {
		// Reorged away between the receipt read and the block read.
		return notSuspicious(), nil
	}

	type candidate struct {
		index int
		tx    chain.BlockTx
	}
	var before, after []candidate
	for i, sibling := range block.Transactions {
		if i == targetIndex {
			continue
		}
		if !IsSwapCandidate(sibling.Input) {
			continue
		}
		if sibling.To == nil || tx.To == nil || *sibling.To != *tx.To {
			continue
		}
		if i < targetIndex {
			before = append(before, candidate{index: i, tx: sibling})
		} else {
			after = append(after, candidate{index: i, tx: sibling})
		}
	}

	// First matching pair in block order wins.
	for _, b := range before {
		for _, a := range after {
			if a.tx.From != b.tx.From {
				continue
			}
			confidence := model.ConfidenceMedium
			if b.tx.From != tx.From || targetPool != nil {
				confidence = model.ConfidenceHigh
			}
			frontRun := b.tx.Hash.Hex()
			backRun := a.tx.Hash.Hex()
			attackType := "sandwich"
			return &model.MevInfo{
				IsSuspicious: true,
				AttackType:   &attackType,
				FrontRunTx:   &frontRun,
				BackRunTx:    &backRun,
				Confidence:   confidence,
			}, nil
		}
	}

	if len(before) > 0 {
		frontRun := before[len(before)-1].tx.Hash.Hex()
		attackType := "frontrun"
		return &model.MevInfo{
			IsSuspicious: true,
			AttackType:   &attackType,
			FrontRunTx:   &frontRun,
			Confidence:   model.ConfidenceLow,
		}, nil
	}

	return notSuspicious(), nil
}

func notSuspicious() *model.MevInfo {
	return &model.MevInfo{IsSuspicious: false, Confidence: model.ConfidenceLow}
}
