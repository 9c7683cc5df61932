package extract

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"txtracer/internal/chain"
)

var (
	poolAddr   = common.HexToAddress("0x2222222222222222222222222222222222222222")
	token0Addr = common.HexToAddress("0x3333333333333333333333333333333333333333")
	token1Addr = common.HexToAddress("0x4444444444444444444444444444444444444444")
)

func newSwapCaller() *fakeChainCaller {
	return &fakeChainCaller{
		tokens: map[common.Address]fakeTokenInfo{
			token0Addr: {symbol: "TKA", decimals: 18},
			token1Addr: {symbol: "TKB", decimals: 6},
		},
		pools: map[common.Address][2]common.Address{
			poolAddr: {token0Addr, token1Addr},
		},
	}
}

func v2SwapLog(t *testing.T, amount0In, amount1In, amount0Out, amount1Out *big.Int) chain.Log {
	t.Helper()
	parsed, err := PoolABI()
	if err != nil {
		t.Fatalf("abi: %v", err)
	}
	data, err := parsed.Events["SwapV2"].Inputs.NonIndexed().Pack(
		amount0In, amount1In, amount0Out, amount1Out)
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	return chain.Log{
		Address: poolAddr,
		Topics:  []common.Hash{V2SwapTopic, common.BytesToHash(relayAddr.Bytes()), common.BytesToHash(aliceAddr.Bytes())},
		Data:    data,
	}
}

func v3SwapLog(t *testing.T, amount0, amount1 *big.Int) chain.Log {
	t.Helper()
	parsed, err := PoolABI()
	if err != nil {
		t.Fatalf("abi: %v", err)
	}
	data, err := parsed.Events["SwapV3"].Inputs.NonIndexed().Pack(
		amount0, amount1, big.NewInt(0), big.NewInt(0), big.NewInt(0))
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	return chain.Log{
		Address: poolAddr,
		Topics:  []common.Hash{V3SwapTopic, common.BytesToHash(relayAddr.Bytes()), common.BytesToHash(aliceAddr.Bytes())},
		Data:    data,
	}
}

func TestSwapsV2ZeroForOne(t *testing.T) {
	extractor := newTestExtractor(newSwapCaller())

	amount0In, _ := new(big.Int).SetString("2000000000000000000", 10)
	log := v2SwapLog(t, amount0In, big.NewInt(0), big.NewInt(0), big.NewInt(3000000))

	swaps := extractor.Swaps(context.Background(), []chain.Log{log})
	if len(swaps) != 1 {
		t.Fatalf("swaps = %d", len(swaps))
	}
	got := swaps[0]
	if got.Dex != "V2" || got.PoolAddress != poolAddr.Hex() {
		t.Fatalf("entry = %+v", got)
	}
	if got.TokenIn.Symbol != "TKA" || got.TokenIn.Amount != "2.00" {
		t.Fatalf("tokenIn = %+v", got.TokenIn)
	}
	if got.TokenOut.Symbol != "TKB" || got.TokenOut.Amount != "3.00" {
		t.Fatalf("tokenOut = %+v", got.TokenOut)
	}
}

func TestSwapsV2OneForZero(t *testing.T) {
	extractor := newTestExtractor(newSwapCaller())

	amount0Out, _ := new(big.Int).SetString("5000000000000000000", 10)
	log := v2SwapLog(t, big.NewInt(0), big.NewInt(4000000), amount0Out, big.NewInt(0))

	swaps := extractor.Swaps(context.Background(), []chain.Log{log})
	if len(swaps) != 1 {
		t.Fatalf("swaps = %d", len(swaps))
	}
	got := swaps[0]
	if got.TokenIn.Symbol != "TKB" || got.TokenIn.Amount != "4.00" {
		t.Fatalf("tokenIn = %+v", got.TokenIn)
	}
	if got.TokenOut.Symbol != "TKA" || got.TokenOut.Amount != "5.00" {
		t.Fatalf("tokenOut = %+v", got.TokenOut)
	}
}

func TestSwapsV3SignedAmounts(t *testing.T) {
	extractor := newTestExtractor(newSwapCaller())

	// Positive amount0 entered the pool, negative amount1 left it.
	amount0, _ := new(big.Int).SetString("5000000000000000000", 10)
	log := v3SwapLog(t, amount0, big.NewInt(-7000000))

	swaps := extractor.Swaps(context.Background(), []chain.Log{log})
	if len(swaps) != 1 {
		t.Fatalf("swaps = %d", len(swaps))
	}
	got := swaps[0]
	if got.Dex != "V3" {
		t.Fatalf("dex = %s", got.Dex)
	}
	if got.TokenIn.Symbol != "TKA" || got.TokenIn.Amount != "5.00" {
		t.Fatalf("tokenIn = %+v", got.TokenIn)
	}
	if got.TokenOut.Symbol != "TKB" || got.TokenOut.Amount != "7.00" {
		t.Fatalf("tokenOut = %+v", got.TokenOut)
	}
}

func TestSwapsSkipsMalformedLog(t *testing.T) {
	extractor := newTestExtractor(newSwapCaller())

	broken := chain.Log{
		Address: poolAddr,
		Topics:  []common.Hash{V2SwapTopic, common.BytesToHash(relayAddr.Bytes()), common.BytesToHash(aliceAddr.Bytes())},
		Data:    []byte{0x01, 0x02},
	}
	amount0In, _ := new(big.Int).SetString("1000000000000000000", 10)
	good := v2SwapLog(t, amount0In, big.NewInt(0), big.NewInt(0), big.NewInt(1000000))

	swaps := extractor.Swaps(context.Background(), []chain.Log{broken, good})
	if len(swaps) != 1 {
		t.Fatalf("swaps = %d", len(swaps))
	}
	if swaps[0].TokenIn.Amount != "1.00" {
		t.Fatalf("surviving entry = %+v", swaps[0])
	}
}

func TestFirstSwapPool(t *testing.T) {
	if got := FirstSwapPool(nil); got != nil {
		t.Fatalf("empty logs returned pool %s", got.Hex())
	}

	logs := []chain.Log{
		{Address: usdtAddr, Topics: []common.Hash{TransferTopic, common.BytesToHash(aliceAddr.Bytes()), common.BytesToHash(bobAddr.Bytes())}},
		v3SwapLog(t, big.NewInt(1), big.NewInt(-1)),
	}
	got := FirstSwapPool(logs)
	if got == nil || *got != poolAddr {
		t.Fatalf("pool = %v", got)
	}
}
