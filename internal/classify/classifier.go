package classify

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"regexp"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"txtracer/internal/chain"
	"txtracer/internal/model"
)

// Caller replays transactions as read-only calls.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Classifier explains why a mined transaction failed. Its output feeds
// straight into an HTTP response, so every path resolves to a FailureInfo;
// it never returns an error.
type Classifier struct {
	caller  Caller
	suggest Suggester
	logger  *zap.Logger
}

func New(caller Caller, logger *zap.Logger) *Classifier {
	return NewWithSuggester(caller, NewKeywordSuggester(), logger)
}

func NewWithSuggester(caller Caller, suggest Suggester, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{caller: caller, suggest: suggest, logger: logger}
}

// Classify derives a FailureInfo for a transaction whose receipt status is
// failed. A transaction that burned its whole gas limit is out of gas and is
// not replayed; everything else is replayed against its historical block to
// recover the revert payload.
func (c *Classifier) Classify(ctx context.Context, tx *chain.Transaction, receipt *chain.Receipt) model.FailureInfo {
	gasLimit := uint64(tx.Gas)
	gasUsed := uint64(receipt.GasUsed)

	if gasUsed >= gasLimit {
		return model.FailureInfo{
			ErrorCategory:     model.ErrOutOfGas,
			ErrorCategoryDesc: descOutOfGas,
			Suggestion: fmt.Sprintf(
				"交易Gas耗尽。当前gasLimit为 %d，请将 gasLimit 提高至少 %d 再重试。",
				gasLimit, 2*gasLimit),
		}
	}

	msg := ethereum.CallMsg{
		From:  tx.From,
		To:    tx.To,
		Gas:   gasLimit,
		Value: (*big.Int)(tx.Value),
		Data:  tx.Input,
	}
	if tx.GasPrice != nil {
		msg.GasPrice = (*big.Int)(tx.GasPrice)
	}

	var blockNumber *big.Int
	if receipt.BlockNumber != nil {
		blockNumber = (*big.Int)(receipt.BlockNumber)
	}

	_, err := c.caller.CallContract(ctx, msg, blockNumber)
	if err == nil {
		// The replay succeeding for a failed transaction is unexpected
		// (state drift on non-archive nodes); classify with no revert data.
		c.logger.Debug("replay of failed tx succeeded", zap.String("tx_hash", tx.Hash.Hex()))
		return DecodeRevert(nil, c.suggest)
	}

	return DecodeRevert(extractRevertBytes(err), c.suggest)
}

var hexRunPattern = regexp.MustCompile(`0x[0-9a-fA-F]+`)

// extractRevertBytes pulls the revert payload out of an eth_call error:
// the structured error data when the node provides it, otherwise a
// best-effort hex scan of the message text.
func extractRevertBytes(err error) []byte {
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if hex, ok := dataErr.ErrorData().(string); ok {
			if b, decodeErr := decodeHexRun(hex); decodeErr == nil {
				return b
			}
		}
	}

	if match := hexRunPattern.FindString(err.Error()); match != "" {
		if b, decodeErr := decodeHexRun(match); decodeErr == nil {
			return b
		}
	}
	return nil
}

func decodeHexRun(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		s = s[:len(s)-1]
	}
	return hexutil.Decode(s)
}
