package extract

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"txtracer/internal/chain"
	"txtracer/internal/model"
)

// Swaps decodes V2 and V3 pool Swap logs. The swap direction comes from the
// sign and positivity of the decoded amounts; the pool legs are resolved
// through the pool's token0/token1 reads and the token metadata cache.
func (e *Extractor) Swaps(ctx context.Context, logs []chain.Log) []model.SwapEntry {
	swaps := make([]model.SwapEntry, 0)
	for _, log := range logs {
		entry, err := e.decodeSwapLog(ctx, log)
		if err != nil {
			e.logger.Debug("skipping undecodable swap log",
				zap.String("pool", log.Address.Hex()), zap.Error(err))
			continue
		}
		if entry != nil {
			swaps = append(swaps, *entry)
		}
	}
	return swaps
}

// FirstSwapPool returns the address that emitted the first Swap event in the
// logs, or nil when none did.
func FirstSwapPool(logs []chain.Log) *common.Address {
	for _, log := range logs {
		if len(log.Topics) == 0 {
			continue
		}
		if log.Topics[0] == V2SwapTopic || log.Topics[0] == V3SwapTopic {
			addr := log.Address
			return &addr
		}
	}
	return nil
}

func (e *Extractor) decodeSwapLog(ctx context.Context, log chain.Log) (*model.SwapEntry, error) {
	if len(log.Topics) != 3 {
		return nil, nil
	}

	parsed, err := PoolABI()
	if err != nil {
		return nil, err
	}

	switch log.Topics[0] {
	case V2SwapTopic:
		values, err := parsed.Events["SwapV2"].Inputs.NonIndexed().Unpack(log.Data)
		if err != nil {
			return nil, fmt.Errorf("unpack v2 swap: %w", err)
		}
		if len(values) != 4 {
			return nil, fmt.Errorf("unexpected v2 swap values: %d", len(values))
		}
		amount0In, err := asBigInt(values[0])
		if err != nil {
			return nil, err
		}
		amount1In, err := asBigInt(values[1])
		if err != nil {
			return nil, err
		}
		amount0Out, err := asBigInt(values[2])
		if err != nil {
			return nil, err
		}
		amount1Out, err := asBigInt(values[3])
		if err != nil {
			return nil, err
		}

		token0, token1, err := e.poolLegs(ctx, log.Address)
		if err != nil {
			return nil, err
		}

		switch {
		case amount0In.Sign() > 0:
			return swapEntry("V2", log.Address, token0, amount0In, token1, amount1Out), nil
		case amount1In.Sign() > 0:
			return swapEntry("V2", log.Address, token1, amount1In, token0, amount0Out), nil
		default:
			return nil, nil
		}

	case V3SwapTopic:
		values, err := parsed.Events["SwapV3"].Inputs.NonIndexed().Unpack(log.Data)
		if err != nil {
			return nil, fmt.Errorf("unpack v3 swap: %w", err)
		}
		if len(values) != 5 {
			return nil, fmt.Errorf("unexpected v3 swap values: %d", len(values))
		}
		amount0, err := asBigInt(values[0])
		if err != nil {
			return nil, err
		}
		amount1, err := asBigInt(values[1])
		if err != nil {
			return nil, err
		}

		token0, token1, err := e.poolLegs(ctx, log.Address)
		if err != nil {
			return nil, err
		}

		// A positive amount0 means token0 flowed into the pool: that is the
		// user's tokenIn, and the negated amount1 left the pool.
		switch {
		case amount0.Sign() > 0:
			return swapEntry("V3", log.Address, token0, amount0, token1, new(big.Int).Neg(amount1)), nil
		case amount1.Sign() > 0:
			return swapEntry("V3", log.Address, token1, amount1, token0, new(big.Int).Neg(amount0)), nil
		default:
			return nil, nil
		}

	default:
		return nil, nil
	}
}

func swapEntry(dex string, pool common.Address, inMeta model.TokenMeta, inAmount *big.Int, outMeta model.TokenMeta, outAmount *big.Int) *model.SwapEntry {
	return &model.SwapEntry{
		Dex:         dex,
		PoolAddress: pool.Hex(),
		TokenIn: model.SwapLeg{
			ContractAddress: inMeta.Address,
			Symbol:          inMeta.Symbol,
			Amount:          model.FormatUnits(inAmount, inMeta.Decimals),
		},
		TokenOut: model.SwapLeg{
			ContractAddress: outMeta.Address,
			Symbol:          outMeta.Symbol,
			Amount:          model.FormatUnits(outAmount, outMeta.Decimals),
		},
	}
}

// poolLegs resolves both token addresses held by a two-asset pool and their
// metadata.
func (e *Extractor) poolLegs(ctx context.Context, pool common.Address) (model.TokenMeta, model.TokenMeta, error) {
	token0, err := e.callPoolAddressMethod(ctx, pool, "token0")
	if err != nil {
		return model.TokenMeta{}, model.TokenMeta{}, err
	}
	token1, err := e.callPoolAddressMethod(ctx, pool, "token1")
	if err != nil {
		return model.TokenMeta{}, model.TokenMeta{}, err
	}
	return e.tokens.Get(ctx, token0), e.tokens.Get(ctx, token1), nil
}

func (e *Extractor) callPoolAddressMethod(ctx context.Context, pool common.Address, method string) (common.Address, error) {
	parsed, err := PoolABI()
	if err != nil {
		return common.Address{}, err
	}
	data, err := parsed.Pack(method)
	if err != nil {
		return common.Address{}, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &pool, Data: data}
	resp, err := e.caller.CallContract(ctx, msg, nil)
	if err != nil {
		return common.Address{}, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return common.Address{}, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) != 1 {
		return common.Address{}, fmt.Errorf("unexpected %s values: %d", method, len(values))
	}
	addr, ok := values[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("unsupported address type %T", values[0])
	}
	return addr, nil
}
