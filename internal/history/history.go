package history

import (
	"context"
	"time"
)

// Entry is one completed lookup, persisted for audit and debugging.
type Entry struct {
	RequestID  string    `json:"requestId"`
	Chain      string    `json:"chain"`
	TxHash     string    `json:"txHash"`
	Status     string    `json:"status"`
	LookedUpAt time.Time `json:"lookedUpAt"`
}

// Sink persists lookup entries. Sink failures are logged by callers and
// never surface to API clients.
type Sink interface {
	Record(ctx context.Context, entry Entry) error
	Close() error
}

// Discard is the no-op sink used when history is not configured.
type Discard struct{}

func (Discard) Record(context.Context, Entry) error { return nil }
func (Discard) Close() error                        { return nil }
