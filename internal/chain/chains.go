package chain

import "sort"

// L1FeeMode says how a chain exposes the L1 data fee of a transaction.
type L1FeeMode string

const (
	L1FeeNone    L1FeeMode = ""
	L1FeeOracle  L1FeeMode = "oracle"  // OP stack gas price oracle contract
	L1FeeReceipt L1FeeMode = "receipt" // read straight off the receipt
)

// Config is the static per-chain descriptor. One immutable instance per
// supported chain id, loaded at process start.
type Config struct {
	ID              string
	DisplayName     string
	NativeSymbol    string
	NativeDecimals  uint8
	ExplorerTxURL   string
	RPCPrimary      string
	RPCFallback     string
	L1Fee           L1FeeMode
	SupportsEIP1559 bool
}

// DefaultChains returns the built-in chain registry keyed by chain id.
// RPC URLs can be overridden through configuration.
func DefaultChains() map[string]*Config {
	return map[string]*Config{
		"bsc": {
			ID:             "bsc",
			DisplayName:    "BSC",
			NativeSymbol:   "BNB",
			NativeDecimals: 18,
			ExplorerTxURL:  "https://bscscan.com/tx/",
			RPCPrimary:     "https://bsc-dataseed1.binance.org",
			RPCFallback:    "https://bsc-dataseed2.binance.org",
		},
		"eth": {
			ID:              "eth",
			DisplayName:     "Ethereum",
			NativeSymbol:    "ETH",
			NativeDecimals:  18,
			ExplorerTxURL:   "https://etherscan.io/tx/",
			RPCPrimary:      "https://ethereum-rpc.publicnode.com",
			RPCFallback:     "https://rpc.ankr.com/eth",
			SupportsEIP1559: true,
		},
		"op": {
			ID:              "op",
			DisplayName:     "Optimism",
			NativeSymbol:    "ETH",
			NativeDecimals:  18,
			ExplorerTxURL:   "https://optimistic.etherscan.io/tx/",
			RPCPrimary:      "https://mainnet.optimism.io",
			RPCFallback:     "https://rpc.ankr.com/optimism",
			L1Fee:           L1FeeOracle,
			SupportsEIP1559: true,
		},
		"arb": {
			ID:              "arb",
			DisplayName:     "Arbitrum",
			NativeSymbol:    "ETH",
			NativeDecimals:  18,
			ExplorerTxURL:   "https://arbiscan.io/tx/",
			RPCPrimary:      "https://arb1.arbitrum.io/rpc",
			RPCFallback:     "https://rpc.ankr.com/arbitrum",
			L1Fee:           L1FeeReceipt,
			SupportsEIP1559: true,
		},
		"polygon": {
			ID:              "polygon",
			DisplayName:     "Polygon",
			NativeSymbol:    "POL",
			NativeDecimals:  18,
			ExplorerTxURL:   "https://polygonscan.com/tx/",
			RPCPrimary:      "https://polygon-rpc.com",
			RPCFallback:     "https://rpc.ankr.com/polygon",
			SupportsEIP1559: true,
		},
	}
}

// ChainIDs returns the supported chain ids in stable order.
func ChainIDs(chains map[string]*Config) []string {
	ids := make([]string, 0, len(chains))
	for id := range chains {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
