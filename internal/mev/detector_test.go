package mev

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"txtracer/internal/chain"
)

var (
	routerAddr   = common.HexToAddress("0x10ED43C718714eb63d5aA57B78B54704E256024E")
	victimAddr   = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	attackerAddr = common.HexToAddress("0x00000000000000000000000000000000000000bb")
)

// swapExactTokensForTokens selector plus padding.
func swapInput() hexutil.Bytes {
	return hexutil.Bytes{0x38, 0xed, 0x17, 0x39, 0x00, 0x00}
}

func txHash(n byte) common.Hash {
	return common.Hash{31: n}
}

func blockTx(n byte, from common.Address, to common.Address, input hexutil.Bytes) chain.BlockTx {
	toCopy := to
	return chain.BlockTx{Hash: txHash(n), From: from, To: &toCopy, Input: input}
}

type fakeBlockFetcher struct {
	block *chain.Block
	err   error
}

func (f *fakeBlockFetcher) BlockWithTxs(_ context.Context, _ *big.Int) (*chain.Block, error) {
	return f.block, f.err
}

func targetTx() *chain.Transaction {
	to := routerAddr
	return &chain.Transaction{
		Hash:  txHash(2),
		From:  victimAddr,
		To:    &to,
		Input: swapInput(),
	}
}

func targetReceipt() *chain.Receipt {
	return &chain.Receipt{BlockNumber: (*hexutil.Big)(big.NewInt(100))}
}

func TestDetectIgnoresNonSwapTarget(t *testing.T) {
	detector := New(&fakeBlockFetcher{}, zap.NewNop())

	tx := targetTx()
	tx.Input = hexutil.Bytes{0xa9, 0x05, 0x9c, 0xbb, 0x00} // transfer(address,uint256)

	info, err := detector.Detect(context.Background(), tx, targetReceipt())
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if info != nil {
		t.Fatalf("non-swap target analyzed: %+v", info)
	}
}

func TestDetectSandwich(t *testing.T) {
	fetcher := &fakeBlockFetcher{block: &chain.Block{Transactions: []chain.BlockTx{
		blockTx(1, attackerAddr, routerAddr, swapInput()),
		blockTx(2, victimAddr, routerAddr, swapInput()),
		blockTx(3, attackerAddr, routerAddr, swapInput()),
	}}}
	detector := New(fetcher, zap.NewNop())

	info, err := detector.Detect(context.Background(), targetTx(), targetReceipt())
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if info == nil || !info.IsSuspicious {
		t.Fatalf("sandwich missed: %+v", info)
	}
	if info.AttackType == nil || *info.AttackType != "sandwich" {
		t.Fatalf("attackType = %v", info.AttackType)
	}
	if *info.FrontRunTx != txHash(1).Hex() || *info.BackRunTx != txHash(3).Hex() {
		t.Fatalf("pair = %s / %s", *info.FrontRunTx, *info.BackRunTx)
	}
	// The bracketing sender differs from the target sender.
	if info.Confidence != "high" {
		t.Fatalf("confidence = %s", info.Confidence)
	}
}

func TestDetectSelfBracketIsMediumConfidence(t *testing.T) {
	fetcher := &fakeBlockFetcher{block: &chain.Block{Transactions: []chain.BlockTx{
		blockTx(1, victimAddr, routerAddr, swapInput()),
		blockTx(2, victimAddr, routerAddr, swapInput()),
		blockTx(3, victimAddr, routerAddr, swapInput()),
	}}}
	detector := New(fetcher, zap.NewNop())

	info, err := detector.Detect(context.Background(), targetTx(), targetReceipt())
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if info == nil || !info.IsSuspicious {
		t.Fatalf("sandwich missed: %+v", info)
	}
	if info.Confidence != "medium" {
		t.Fatalf("confidence = %s", info.Confidence)
	}
}

func TestDetectFrontrunOnly(t *testing.T) {
	fetcher := &fakeBlockFetcher{block: &chain.Block{Transactions: []chain.BlockTx{
		blockTx(0, attackerAddr, routerAddr, swapInput()),
		blockTx(1, attackerAddr, routerAddr, swapInput()),
		blockTx(2, victimAddr, routerAddr, swapInput()),
	}}}
	detector := New(fetcher, zap.NewNop())

	info, err := detector.Detect(context.Background(), targetTx(), targetReceipt())
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if info == nil || !info.IsSuspicious {
		t.Fatalf("frontrun missed: %+v", info)
	}
	if info.AttackType == nil || *info.AttackType != "frontrun" {
		t.Fatalf("attackType = %v", info.AttackType)
	}
	// The closest preceding candidate is reported.
	if *info.FrontRunTx != txHash(1).Hex() {
		t.Fatalf("frontRunTx = %s", *info.FrontRunTx)
	}
	if info.BackRunTx != nil {
		t.Fatalf("backRunTx = %v", info.BackRunTx)
	}
	if info.Confidence != "low" {
		t.Fatalf("confidence = %s", info.Confidence)
	}
}

func TestDetectDifferentRouterNotCandidate(t *testing.T) {
	otherRouter := common.HexToAddress("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D")
	fetcher := &fakeBlockFetcher{block: &chain.Block{Transactions: []chain.BlockTx{
		blockTx(1, attackerAddr, otherRouter, swapInput()),
		blockTx(2, victimAddr, routerAddr, swapInput()),
		blockTx(3, attackerAddr, otherRouter, swapInput()),
	}}}
	detector := New(fetcher, zap.NewNop())

	info, err := detector.Detect(context.Background(), targetTx(), targetReceipt())
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if info == nil || info.IsSuspicious {
		t.Fatalf("cross-router pair flagged: %+v", info)
	}
}

func TestDetectTargetMissingFromBlock(t *testing.T) {
	fetcher := &fakeBlockFetcher{block: &chain.Block{Transactions: []chain.BlockTx{
		blockTx(9, attackerAddr, routerAddr, swapInput()),
	}}}
	detector := New(fetcher, zap.NewNop())

	info, err := detector.Detect(context.Background(), targetTx(), targetReceipt())
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if info == nil || info.IsSuspicious {
		t.Fatalf("info = %+v", info)
	}
}

func TestDetectSafeSwallowsFetchError(t *testing.T) {
	fetcher := &fakeBlockFetcher{err: errors.New("rpc timeout")}
	detector := New(fetcher, zap.NewNop())

	if info := detector.DetectSafe(context.Background(), targetTx(), targetReceipt()); info != nil {
		t.Fatalf("fetch error leaked: %+v", info)
	}
}

func TestIsSwapCandidate(t *testing.T) {
	if !IsSwapCandidate(swapInput()) {
		t.Fatal("known selector rejected")
	}
	if IsSwapCandidate([]byte{0x38, 0xed}) {
		t.Fatal("short input accepted")
	}
	if IsSwapCandidate([]byte{0xa9, 0x05, 0x9c, 0xbb}) {
		t.Fatal("transfer selector accepted")
	}
}
