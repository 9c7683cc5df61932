package model

// Confidence grades how strongly the MEV heuristics matched.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// MevInfo is the advisory result of the sandwich-attack heuristic. It never
// blocks or alters the primary response; a nil MevInfo means the target
// transaction is not a recognized swap call.
type MevInfo struct {
	IsSuspicious bool       `json:"isSuspicious"`
	AttackType   *string    `json:"attackType"`
	FrontRunTx   *string    `json:"frontRunTx"`
	BackRunTx    *string    `json:"backRunTx"`
	// EstimatedLoss needs a price oracle and stays unimplemented.
	EstimatedLoss *string    `json:"estimatedLoss"`
	Confidence    Confidence `json:"confidence"`
}
