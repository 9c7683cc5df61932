package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"txtracer/internal/assemble"
	"txtracer/internal/history"
	"txtracer/internal/model"
)

type fakeResolver struct {
	record *model.TxRecord
	err    error
	calls  int
}

func (f *fakeResolver) Assemble(_ context.Context, hash common.Hash) (*model.TxRecord, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.record != nil {
		return f.record, nil
	}
	return &model.TxRecord{
		TxHash: hash.Hex(),
		Chain:  "bsc",
		Status: model.StatusSuccess,
	}, nil
}

type captureSink struct {
	entries []history.Entry
}

func (c *captureSink) Record(_ context.Context, entry history.Entry) error {
	c.entries = append(c.entries, entry)
	return nil
}

func (c *captureSink) Close() error { return nil }

const validHash = "0x1111111111111111111111111111111111111111111111111111111111111111"

func newTestServer(resolver Resolver, sink history.Sink) *Server {
	return New(map[string]Resolver{"bsc": resolver, "eth": resolver}, sink, zap.NewNop())
}

func doRequest(t *testing.T, s *Server, path string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, path, nil)
	s.Router().ServeHTTP(recorder, request)

	var body envelope
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", recorder.Body.String(), err)
	}
	return recorder, body
}

func TestHealth(t *testing.T) {
	s := newTestServer(&fakeResolver{}, nil)

	recorder := httptest.NewRecorder()
	s.Router().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d", recorder.Code)
	}
	if strings.TrimSpace(recorder.Body.String()) != `{"status":"ok"}` {
		t.Fatalf("body = %s", recorder.Body.String())
	}
}

func TestLookupSuccess(t *testing.T) {
	s := newTestServer(&fakeResolver{}, nil)

	recorder, body := doRequest(t, s, "/api/v2/tx/"+validHash+"?chain=bsc")
	if recorder.Code != http.StatusOK || body.Code != http.StatusOK {
		t.Fatalf("status = %d envelope = %d", recorder.Code, body.Code)
	}
	if _, err := uuid.Parse(body.RequestID); err != nil {
		t.Fatalf("requestId = %q: %v", body.RequestID, err)
	}
	if body.Data == nil {
		t.Fatal("data missing")
	}
}

func TestInvalidHashRejected(t *testing.T) {
	s := newTestServer(&fakeResolver{}, nil)

	for _, hash := range []string{"0x123", "nothex", validHash + "ff", "0x" + strings.Repeat("g", 64)} {
		recorder, body := doRequest(t, s, "/api/v2/tx/"+hash+"?chain=bsc")
		if recorder.Code != http.StatusBadRequest || body.Code != http.StatusBadRequest {
			t.Fatalf("hash %q: status = %d envelope = %d", hash, recorder.Code, body.Code)
		}
		if body.Data != nil {
			t.Fatalf("hash %q: data on error response", hash)
		}
	}
}

func TestInvalidHashSkipsResolver(t *testing.T) {
	resolver := &fakeResolver{}
	s := newTestServer(resolver, nil)

	doRequest(t, s, "/api/v2/tx/0xnothex?chain=bsc")
	if resolver.calls != 0 {
		t.Fatalf("resolver called %d times for invalid hash", resolver.calls)
	}
}

func TestUnsupportedChain(t *testing.T) {
	s := newTestServer(&fakeResolver{}, nil)

	recorder, body := doRequest(t, s, "/api/v2/tx/"+validHash+"?chain=dogecoin")
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", recorder.Code)
	}
	if !strings.Contains(body.Message, "dogecoin") {
		t.Fatalf("message = %q", body.Message)
	}
}

func TestNotFound(t *testing.T) {
	s := newTestServer(&fakeResolver{err: assemble.ErrTxNotFound}, nil)

	recorder, body := doRequest(t, s, "/api/v2/tx/"+validHash+"?chain=bsc")
	if recorder.Code != http.StatusNotFound || body.Code != http.StatusNotFound {
		t.Fatalf("status = %d envelope = %d", recorder.Code, body.Code)
	}
}

func TestUpstreamFailureIncludesCause(t *testing.T) {
	s := newTestServer(&fakeResolver{err: errors.New("connection refused")}, nil)

	recorder, body := doRequest(t, s, "/api/v2/tx/"+validHash+"?chain=bsc")
	if recorder.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", recorder.Code)
	}
	if !strings.Contains(body.Message, "connection refused") {
		t.Fatalf("message = %q", body.Message)
	}
}

func TestV1IsLegacyBscOnly(t *testing.T) {
	resolver := &fakeResolver{}
	s := New(map[string]Resolver{"bsc": resolver}, nil, zap.NewNop())

	recorder, _ := doRequest(t, s, "/api/v1/tx/"+validHash)
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d", recorder.Code)
	}
	if resolver.calls != 1 {
		t.Fatalf("resolver calls = %d", resolver.calls)
	}
}

func TestLookupRecordedInHistory(t *testing.T) {
	sink := &captureSink{}
	s := newTestServer(&fakeResolver{}, sink)

	_, body := doRequest(t, s, "/api/v2/tx/"+validHash+"?chain=eth")
	if len(sink.entries) != 1 {
		t.Fatalf("entries = %d", len(sink.entries))
	}
	entry := sink.entries[0]
	if entry.RequestID != body.RequestID {
		t.Fatalf("entry requestId = %q body = %q", entry.RequestID, body.RequestID)
	}
	if entry.Chain != "eth" || entry.Status != "SUCCESS" {
		t.Fatalf("entry = %+v", entry)
	}
}

func TestChainIDCaseInsensitive(t *testing.T) {
	s := newTestServer(&fakeResolver{}, nil)

	recorder, _ := doRequest(t, s, "/api/v2/tx/"+validHash+"?chain=BSC")
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d", recorder.Code)
	}
}
