package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type deadLetterCall struct {
	jobType  string
	reason   string
	attempts int
}

func newTestPool() (*Pool, *[]deadLetterCall) {
	var calls []deadLetterCall
	p := &Pool{handlers: make(map[string]Handler)}
	p.deadLetter = func(_ context.Context, _ string, jobType string, _ json.RawMessage, reason string, attempts int) {
		calls = append(calls, deadLetterCall{jobType, reason, attempts})
	}
	return p, &calls
}

func envelope(t *testing.T, jobType string, payload any) string {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	raw, err := json.Marshal(Job{Type: jobType, Payload: data})
	require.NoError(t, err)
	return string(raw)
}

func TestProcessJob_SucceedsAfterRetry(t *testing.T) {
	p, dead := newTestPool()
	calls := 0
	p.Register("flaky", func(context.Context, json.RawMessage) error {
		calls++
		if calls < 2 {
			return errors.New("smtp timeout")
		}
		return nil
	})

	p.processJob(context.Background(), QueueReports, envelope(t, "flaky", map[string]string{}))
	assert.Equal(t, 2, calls)
	assert.Empty(t, *dead)
}

func TestProcessJob_ExhaustedRetriesGoToDLQ(t *testing.T) {
	p, dead := newTestPool()
	p.Register("broken", func(context.Context, json.RawMessage) error { return errors.New("relay down") })

	p.processJob(context.Background(), QueueReports, envelope(t, "broken", nil))
	require.Len(t, *dead, 1)
	assert.Equal(t, "broken", (*dead)[0].jobType)
	assert.Equal(t, maxJobAttempts, (*dead)[0].attempts)
	assert.Equal(t, "relay down", (*dead)[0].reason)
}

func TestProcessJob_PermanentErrorSkipsRetries(t *testing.T) {
	p, dead := newTestPool()
	calls := 0
	p.Register("bad", func(context.Context, json.RawMessage) error {
		calls++
		return fmt.Errorf("%w: no recipients", ErrPermanent)
	})

	p.processJob(context.Background(), QueueReports, envelope(t, "bad", nil))
	assert.Equal(t, 1, calls)
	require.Len(t, *dead, 1)
	assert.Equal(t, 1, (*dead)[0].attempts)
}

func TestProcessJob_UnknownTypeAndMalformed(t *testing.T) {
	p, dead := newTestPool()

	p.processJob(context.Background(), QueueReports, envelope(t, "nobody", nil))
	p.processJob(context.Background(), QueueReports, "{not json")
	require.Len(t, *dead, 2)
	assert.Equal(t, "no handler registered", (*dead)[0].reason)
	assert.Equal(t, "unknown", (*dead)[1].jobType)
}

func TestWithRetry_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := withRetry(ctx, 3, 0, func(int) error { return errors.New("fail") })
	assert.ErrorIs(t, err, context.Canceled)
}

// downHook fails every command as an unreachable Redis would, without dialing.
type downHook struct{ calls atomic.Int32 }

var errRedisDown = errors.New("dial tcp 127.0.0.1:6379: connect: connection refused")

func (h *downHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return nil, errRedisDown
	}
}

func (h *downHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		h.calls.Add(1)
		cmd.SetErr(errRedisDown)
		return errRedisDown
	}
}

func (h *downHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func TestRunWorker_BacksOffWhileRedisIsDown(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:6379"})
	t.Cleanup(func() { _ = rdb.Close() })
	hook := &downHook{}
	rdb.AddHook(hook)

	p := NewPool(rdb)
	p.backoff = 100 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 350*time.Millisecond)
	defer cancel()
	done := make(chan struct{})
	go func() {
		p.runWorker(ctx, 0)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancellation")
	}
	calls := hook.calls.Load()
	assert.GreaterOrEqual(t, calls, int32(1))
	assert.LessOrEqual(t, calls, int32(5), "one dequeue attempt per backoff interval")
}
