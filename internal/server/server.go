package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"txtracer/internal/assemble"
	"txtracer/internal/history"
	"txtracer/internal/model"
)

// legacyChain is the only chain the v1 endpoint serves.
const legacyChain = "bsc"

var txHashPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)

// Resolver decorates one transaction on one chain.
type Resolver interface {
	Assemble(ctx context.Context, hash common.Hash) (*model.TxRecord, error)
}

// Server exposes the lookup API. One resolver per supported chain id.
type Server struct {
	chains  map[string]Resolver
	history history.Sink
	logger  *zap.Logger
}

func New(chains map[string]Resolver, sink history.Sink, logger *zap.Logger) *Server {
	if sink == nil {
		sink = history.Discard{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{chains: chains, history: sink, logger: logger}
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/tx/{txHash}", s.handleV1Tx).Methods(http.MethodGet)
	router.HandleFunc("/api/v2/tx/{txHash}", s.handleV2Tx).Methods(http.MethodGet)
	return router
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleV1Tx(w http.ResponseWriter, r *http.Request) {
	s.lookup(w, r, legacyChain)
}

func (s *Server) handleV2Tx(w http.ResponseWriter, r *http.Request) {
	chainID := r.URL.Query().Get("chain")
	if chainID == "" {
		chainID = legacyChain
	}
	s.lookup(w, r, strings.ToLower(chainID))
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request, chainID string) {
	requestID := uuid.NewString()
	hash := mux.Vars(r)["txHash"]

	if !txHashPattern.MatchString(hash) {
		s.writeError(w, requestID, http.StatusBadRequest,
			"无效的交易哈希格式，应为 0x 开头的 64 位十六进制字符串")
		return
	}

	resolver, ok := s.chains[chainID]
	if !ok {
		s.writeError(w, requestID, http.StatusBadRequest,
			fmt.Sprintf("不支持的链: %s", chainID))
		return
	}

	record, err := resolver.Assemble(r.Context(), common.HexToHash(hash))
	if err != nil {
		if errors.Is(err, assemble.ErrTxNotFound) {
			s.writeError(w, requestID, http.StatusNotFound, "交易不存在")
			return
		}
		s.logger.Error("lookup failed",
			zap.String("request_id", requestID),
			zap.String("chain", chainID),
			zap.String("tx_hash", hash),
			zap.Error(err))
		s.writeError(w, requestID, http.StatusInternalServerError,
			fmt.Sprintf("节点查询失败: %v", err))
		return
	}

	s.recordLookup(r.Context(), requestID, chainID, record)
	s.writeOK(w, requestID, record)
}

func (s *Server) recordLookup(ctx context.Context, requestID, chainID string, record *model.TxRecord) {
	entry := history.Entry{
		RequestID:  requestID,
		Chain:      chainID,
		TxHash:     record.TxHash,
		Status:     string(record.Status),
		LookedUpAt: time.Now().UTC(),
	}
	if err := s.history.Record(ctx, entry); err != nil {
		s.logger.Warn("history record failed",
			zap.String("request_id", requestID), zap.Error(err))
	}
}
