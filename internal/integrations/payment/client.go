package payment

import (
	"context"
	"time"
)

type AuthResult struct {
	Reference   string
	Approved    bool
	AuthCode    string
	ProcessedAt time.Time
}

// Client authorizes a charge before the order is persisted. Amount is whole
// naira.
type Client interface {
	Authorize(ctx context.Context, reference string, amount int64) (AuthResult, error)
}
