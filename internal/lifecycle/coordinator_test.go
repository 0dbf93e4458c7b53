package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCoordinatorCleanShutdown(t *testing.T) {
	c := New(context.Background(), time.Second, zap.NewNop())

	c.Go("worker", func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	})
	c.Go("second", func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	})

	require.Equal(t, StateRunning, c.State())
	c.Shutdown()
	require.Equal(t, StateShuttingDown, c.State())

	stragglers := c.Wait()
	require.Empty(t, stragglers)
	require.Equal(t, StateStopped, c.State())
}

func TestCoordinatorShutdownIsIdempotent(t *testing.T) {
	c := New(context.Background(), time.Second, zap.NewNop())

	c.Shutdown()
	c.Shutdown()
	c.Shutdown()

	require.Equal(t, StateShuttingDown, c.State())
	select {
	case <-c.Context().Done():
	default:
		t.Fatal("context not cancelled after shutdown")
	}
}

func TestCoordinatorWaitReportsStragglers(t *testing.T) {
	c := New(context.Background(), 50*time.Millisecond, zap.NewNop())

	block := make(chan struct{})
	defer close(block)

	c.Go("stuck", func(ctx context.Context) error {
		<-block
		return nil
	})
	c.Go("prompt", func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	})

	c.Shutdown()

	start := time.Now()
	stragglers := c.Wait()
	require.Less(t, time.Since(start), time.Second)
	require.Equal(t, []string{"stuck"}, stragglers)
	require.Equal(t, StateStopped, c.State())
}

func TestCoordinatorTaskErrorDoesNotBlockWait(t *testing.T) {
	c := New(context.Background(), time.Second, zap.NewNop())

	c.Go("failing", func(ctx context.Context) error {
		return context.Canceled
	})

	c.Shutdown()
	require.Empty(t, c.Wait())
}
