package sender

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"
)

func TestDispatcherKeepsOrderWithOneWorker(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 16})
	var (
		mu  sync.Mutex
		got []int
	)
	for i := range 10 {
		if err := d.Enqueue(context.Background(), "send.text", "sendMessage", func() error {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			return nil
		}); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}
	d.Close()
	for i, v := range got {
		if v != i {
			t.Fatalf("out of order: %v", got)
		}
	}
	if len(got) != 10 {
		t.Fatalf("expected 10 jobs, got %d", len(got))
	}
}

func TestDispatcherRetriesNetworkErrors(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 2, RetryBackoff: time.Millisecond})
	calls := 0
	done := make(chan struct{})
	_ = d.Enqueue(context.Background(), "send.text", "sendMessage", func() error {
		calls++
		if calls < 3 {
			return &net.OpError{Op: "dial", Err: errors.New("refused")}
		}
		close(done)
		return nil
	})
	<-done
	d.Close()
	if st := d.Stats(); st.Failed != 0 || st.Sent != 1 || st.Retried != 1 {
		t.Fatalf("unexpected stats %+v", st)
	}
}

func TestDispatcherCountsPermanentFailures(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 3, RetryBackoff: time.Millisecond})
	calls := 0
	_ = d.Enqueue(context.Background(), "send.text", "sendMessage", func() error {
		calls++
		return errors.New("Bad Request: chat not found (400)")
	})
	d.Close()
	if calls != 1 {
		t.Fatalf("permanent error retried %d times", calls)
	}
	if st := d.Stats(); st.Failed != 1 {
		t.Fatalf("expected one failure, got %+v", st)
	}
}

func TestEnqueueAfterClose(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1})
	d.Close()
	if err := d.Enqueue(context.Background(), "a", "b", func() error { return nil }); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("expected ErrQueueClosed, got %v", err)
	}
}

func TestClassifyError(t *testing.T) {
	if got := classifyError(context.DeadlineExceeded); got != "timeout" {
		t.Fatalf("deadline classified as %q", got)
	}
	if got := classifyError(errors.New("Internal Server Error (502)")); got != "http_5xx" {
		t.Fatalf("502 classified as %q", got)
	}
	if got := sanitizeErrorMessage(errors.New("post https://api.telegram.org/bot123:abc-DEF/sendMessage")); got != "post https://api.telegram.org/bot<redacted>/sendMessage" {
		t.Fatalf("token leaked: %q", got)
	}
}
