package progress

import (
	"context"
	"testing"
	"time"

	"github.com/lighthub/lighthub/internal/models"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	calls int
}

func (r *fakeRepo) ClaimDueOrders(ctx context.Context, now time.Time, limit int, lease time.Duration) ([]*models.Order, error) {
	r.calls++
	return []*models.Order{}, nil
}

func TestRunner_Run_StopsOnContextCancel(t *testing.T) {
	repo := &fakeRepo{}
	r := New(repo, &fakeProducer{}, "t").WithSettings(5*time.Millisecond, 1, 1, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := r.Run(ctx)
	require.Error(t, err)
	require.GreaterOrEqual(t, repo.calls, 1)
}

func TestRunner_Trigger_RecordsStats(t *testing.T) {
	r := New(&fakeRepo{}, &fakeProducer{}, "t")
	r.Trigger()
	st := r.Stats()
	require.NotNil(t, st.LastTriggerAt)
	require.False(t, st.StartedAt.IsZero())
}
