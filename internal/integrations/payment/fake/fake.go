package fake

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/lighthub/lighthub/internal/integrations/payment"
)

// FakeClient simulates a payment gateway in-process. Authorization is
// deterministic on the reference so tests and demo runs are repeatable.
type FakeClient struct {
	// DeclineOver rejects charges above the threshold. Zero approves all.
	DeclineOver int64
}

func New() *FakeClient { return &FakeClient{} }

func (f *FakeClient) Authorize(ctx context.Context, reference string, amount int64) (payment.AuthResult, error) {
	now := time.Now().UTC()

	h := fnv.New32a()
	_, _ = h.Write([]byte(reference))
	v := h.Sum32()

	approved := f.DeclineOver <= 0 || amount <= f.DeclineOver

	return payment.AuthResult{
		Reference:   reference,
		Approved:    approved,
		AuthCode:    fmt.Sprintf("SIM-%08X", v),
		ProcessedAt: now,
	}, nil
}
