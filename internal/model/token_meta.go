package model

// TokenMeta captures ERC20 metadata resolved from chain reads.
type TokenMeta struct {
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}
