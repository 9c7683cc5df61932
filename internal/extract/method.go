package extract

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"txtracer/internal/model"
)

const signatureDBURL = "https://www.4byte.directory/api/v1/signatures/"

// SignatureDB resolves 4-byte selectors against a public signature
// database. Lookups are advisory enrichment: every failure degrades to a
// "not decoded" shape instead of failing the request.
type SignatureDB struct {
	client  *http.Client
	baseURL string
	logger  *zap.Logger
}

func NewSignatureDB(logger *zap.Logger) *SignatureDB {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SignatureDB{
		client:  &http.Client{Timeout: 3 * time.Second},
		baseURL: signatureDBURL,
		logger:  logger,
	}
}

type signatureResult struct {
	Results []struct {
		TextSignature string `json:"text_signature"`
	} `json:"results"`
}

// Lookup decodes the selector of the given input data. Returns nil for
// inputs shorter than a selector (plain native transfers).
func (s *SignatureDB) Lookup(ctx context.Context, input []byte) *model.MethodInfo {
	if len(input) < 4 {
		return nil
	}
	selector := hexutil.Encode(input[:4])
	info := &model.MethodInfo{Selector: selector}

	query := url.Values{}
	query.Set("hex_signature", selector)
	query.Set("ordering", "created_at")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return info
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Debug("signature lookup failed", zap.String("selector", selector), zap.Error(err))
		return info
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return info
	}

	var result signatureResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return info
	}
	if len(result.Results) == 0 {
		return info
	}

	signature := result.Results[0].TextSignature
	info.Signature = signature
	if idx := strings.Index(signature, "("); idx > 0 {
		info.Name = signature[:idx]
	}
	info.Decoded = true
	return info
}
