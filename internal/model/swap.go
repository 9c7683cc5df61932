package model

// SwapLeg is one side of a swap: the token and the amount that crossed the
// pool boundary, formatted with the token's decimals.
type SwapLeg struct {
	ContractAddress string `json:"contractAddress"`
	Symbol          string `json:"symbol"`
	Amount          string `json:"amount"`
}

// SwapEntry is a decoded DEX swap event. Direction is derived from the sign
// and positivity of the decoded amounts, never from transaction intent.
type SwapEntry struct {
	Dex         string  `json:"dex"`
	PoolAddress string  `json:"poolAddress"`
	TokenIn     SwapLeg `json:"tokenIn"`
	TokenOut    SwapLeg `json:"tokenOut"`
}
