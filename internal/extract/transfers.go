package extract

import (
	"context"
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"txtracer/internal/chain"
	"txtracer/internal/model"
	"txtracer/internal/token"
)

// Extractor scans receipt logs for token transfers and DEX swaps. One
// malformed or unverifiable log never aborts extraction of the others.
type Extractor struct {
	caller token.Caller
	tokens *token.Cache
	logger *zap.Logger
}

func New(caller token.Caller, tokens *token.Cache, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{caller: caller, tokens: tokens, logger: logger}
}

// TokenTransfers decodes ERC-20 Transfer logs. The ERC-20 variant carries
// exactly 3 topics (signature plus two indexed addresses); 4-topic Transfer
// logs are ERC-721 and handled by NftTransfers.
func (e *Extractor) TokenTransfers(ctx context.Context, logs []chain.Log) []model.TokenTransfer {
	transfers := make([]model.TokenTransfer, 0)
	for _, log := range logs {
		if len(log.Topics) != 3 || log.Topics[0] != TransferTopic {
			continue
		}
		if len(log.Data) < 32 {
			e.logger.Debug("short erc20 transfer data", zap.String("address", log.Address.Hex()))
			continue
		}

		value := new(big.Int).SetBytes(log.Data[:32])
		meta := e.tokens.Get(ctx, log.Address)

		transfers = append(transfers, model.TokenTransfer{
			ContractAddress: log.Address.Hex(),
			From:            topicAddress(log.Topics[1]).Hex(),
			To:              topicAddress(log.Topics[2]).Hex(),
			Value:           model.FormatUnits(value, meta.Decimals),
			ValueRaw:        value.String(),
			Symbol:          meta.Symbol,
			Decimals:        meta.Decimals,
		})
	}
	return transfers
}

// NftTransfers decodes ERC-721 Transfer (4 topics, tokenId indexed) and
// ERC-1155 TransferSingle/TransferBatch logs. Batch events expand into one
// entry per id/value pair.
func (e *Extractor) NftTransfers(_ context.Context, logs []chain.Log) []model.NftTransfer {
	transfers := make([]model.NftTransfer, 0)
	for _, log := range logs {
		entries, err := decodeNftLog(log)
		if err != nil {
			e.logger.Debug("skipping undecodable nft log",
				zap.String("address", log.Address.Hex()), zap.Error(err))
			continue
		}
		transfers = append(transfers, entries...)
	}
	return transfers
}

func decodeNftLog(log chain.Log) ([]model.NftTransfer, error) {
	if len(log.Topics) != 4 {
		return nil, nil
	}

	switch log.Topics[0] {
	case TransferTopic:
		tokenID := new(big.Int).SetBytes(log.Topics[3].Bytes())
		return []model.NftTransfer{{
			ContractAddress: log.Address.Hex(),
			Standard:        model.StandardERC721,
			From:            topicAddress(log.Topics[1]).Hex(),
			To:              topicAddress(log.Topics[2]).Hex(),
			TokenID:         tokenID.String(),
			Amount:          "1",
		}}, nil

	case TransferSingleTopic:
		parsed, err := PoolABI()
		if err != nil {
			return nil, err
		}
		values, err := parsed.Events["TransferSingle"].Inputs.NonIndexed().Unpack(log.Data)
		if err != nil {
			return nil, fmt.Errorf("unpack TransferSingle: %w", err)
		}
		if len(values) != 2 {
			return nil, fmt.Errorf("unexpected TransferSingle values: %d", len(values))
		}
		id, err := asBigInt(values[0])
		if err != nil {
			return nil, err
		}
		amount, err := asBigInt(values[1])
		if err != nil {
			return nil, err
		}
		return []model.NftTransfer{{
			ContractAddress: log.Address.Hex(),
			Standard:        model.StandardERC1155,
			From:            topicAddress(log.Topics[2]).Hex(),
			To:              topicAddress(log.Topics[3]).Hex(),
			TokenID:         id.String(),
			Amount:          amount.String(),
		}}, nil

	case TransferBatchTopic:
		parsed, err := PoolABI()
		if err != nil {
			return nil, err
		}
		values, err := parsed.Events["TransferBatch"].Inputs.NonIndexed().Unpack(log.Data)
		if err != nil {
			return nil, fmt.Errorf("unpack TransferBatch: %w", err)
		}
		if len(values) != 2 {
			return nil, fmt.Errorf("unexpected TransferBatch values: %d", len(values))
		}
		ids, err := asBigIntSlice(values[0])
		if err != nil {
			return nil, err
		}
		amounts, err := asBigIntSlice(values[1])
		if err != nil {
			return nil, err
		}

		// Pair ids and values index-aligned; a length mismatch truncates
		// to the shorter array rather than failing the log.
		n := len(ids)
		if len(amounts) < n {
			n = len(amounts)
		}
		from := topicAddress(log.Topics[2]).Hex()
		to := topicAddress(log.Topics[3]).Hex()
		entries := make([]model.NftTransfer, 0, n)
		for i := 0; i < n; i++ {
			entries = append(entries, model.NftTransfer{
				ContractAddress: log.Address.Hex(),
				Standard:        model.StandardERC1155,
				From:            from,
				To:              to,
				TokenID:         ids[i].String(),
				Amount:          amounts[i].String(),
			})
		}
		return entries, nil

	default:
		return nil, nil
	}
}

func asBigInt(value interface{}) (*big.Int, error) {
	if v, ok := value.(*big.Int); ok {
		return v, nil
	}
	return nil, fmt.Errorf("unsupported int type %T", value)
}

func asBigIntSlice(value interface{}) ([]*big.Int, error) {
	if v, ok := value.([]*big.Int); ok {
		return v, nil
	}
	return nil, fmt.Errorf("unsupported int slice type %T", value)
}
