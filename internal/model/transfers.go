package model

// TokenTransfer is a decoded ERC-20 Transfer log.
type TokenTransfer struct {
	ContractAddress string `json:"contractAddress"`
	From            string `json:"from"`
	To              string `json:"to"`
	Value           string `json:"value"`
	ValueRaw        string `json:"valueRaw"`
	Symbol          string `json:"symbol"`
	Decimals        uint8  `json:"decimals"`
}

// NftStandard identifies the token standard an NFT transfer came from.
type NftStandard string

const (
	StandardERC721  NftStandard = "ERC-721"
	StandardERC1155 NftStandard = "ERC-1155"
)

// NftTransfer is a decoded ERC-721 Transfer or ERC-1155 TransferSingle/
// TransferBatch log. A batch event expands into one entry per id/value pair.
// ERC-721 entries always carry Amount "1".
type NftTransfer struct {
	ContractAddress string      `json:"contractAddress"`
	Standard        NftStandard `json:"standard"`
	From            string      `json:"from"`
	To              string      `json:"to"`
	TokenID         string      `json:"tokenId"`
	Amount          string      `json:"amount"`
}
