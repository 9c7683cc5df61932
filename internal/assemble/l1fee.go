package assemble

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"txtracer/internal/chain"
	"txtracer/internal/model"
)

// OP stack predeploy exposing L1 data fee quotes.
var gasPriceOracleAddr = common.HexToAddress("0x420000000000000000000000000000000000000F")

const gasPriceOracleABIJSON = `[
  {
    "inputs": [{"internalType": "bytes", "name": "_data", "type": "bytes"}],
    "name": "getL1Fee",
    "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [{"internalType": "bytes", "name": "_data", "type": "bytes"}],
    "name": "getL1GasUsed",
    "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
    "stateMutability": "view",
    "type": "function"
  }
]`

var (
	oracleABI     abi.ABI
	oracleABIOnce sync.Once
	oracleABIErr  error
)

func gasPriceOracleABI() (abi.ABI, error) {
	oracleABIOnce.Do(func() {
		oracleABI, oracleABIErr = abi.JSON(strings.NewReader(gasPriceOracleABIJSON))
	})
	return oracleABI, oracleABIErr
}

// applyL1Fee attaches the rollup data fee. Arbitrum-style chains carry it on
// the receipt; OP stack chains quote it through the gas price oracle
// predeploy. Failures leave the fields absent.
func (a *Assembler) applyL1Fee(ctx context.Context, record *model.TxRecord, tx *chain.Transaction, receipt *chain.Receipt) {
	switch a.cfg.L1Fee {
	case chain.L1FeeReceipt:
		if receipt.L1Fee != nil {
			fee := (*big.Int)(receipt.L1Fee)
			record.L1Fee = model.FormatUnits(fee, a.cfg.NativeDecimals)
			record.L1FeeRaw = fee.String()
		}
		if receipt.L1GasUsed != nil {
			record.L1GasUsed = (*big.Int)(receipt.L1GasUsed).String()
		}

	case chain.L1FeeOracle:
		fee, err := a.callOracle(ctx, "getL1Fee", tx.Input)
		if err != nil {
			a.logger.Debug("l1 fee oracle read failed",
				zap.String("tx_hash", record.TxHash), zap.Error(err))
			return
		}
		record.L1Fee = model.FormatUnits(fee, a.cfg.NativeDecimals)
		record.L1FeeRaw = fee.String()

		if gasUsed, err := a.callOracle(ctx, "getL1GasUsed", tx.Input); err == nil {
			record.L1GasUsed = gasUsed.String()
		}
	}
}

func (a *Assembler) callOracle(ctx context.Context, method string, data []byte) (*big.Int, error) {
	parsed, err := gasPriceOracleABI()
	if err != nil {
		return nil, err
	}
	input, err := parsed.Pack(method, data)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	oracle := gasPriceOracleAddr
	resp, err := a.reader.CallContract(ctx, ethereum.CallMsg{To: &oracle, Data: input}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("unexpected %s values: %d", method, len(values))
	}
	fee, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unsupported fee type %T", values[0])
	}
	return fee, nil
}
