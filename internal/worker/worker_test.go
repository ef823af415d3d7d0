package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/gtd_shop/internal/mailer"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
	done chan struct{}
}

func (s *recordingSender) Send(_ context.Context, msg mailer.Message) error {
	s.mu.Lock()
	s.sent = append(s.sent, msg)
	s.mu.Unlock()
	s.done <- struct{}{}
	return s.err
}

func (s *recordingSender) messages() []mailer.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]mailer.Message(nil), s.sent...)
}

func TestMailWorkerDelivers(t *testing.T) {
	sender := &recordingSender{done: make(chan struct{}, 2), err: errors.New("sendgrid 500")}
	w := NewMailWorker(sender, 2)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	require.True(t, w.Enqueue(mailer.Message{To: "a@example.com"}))
	require.True(t, w.Enqueue(mailer.Message{To: "b@example.com"}))

	for i := 0; i < 2; i++ {
		select {
		case <-sender.done:
		case <-time.After(time.Second):
			t.Fatal("message not delivered")
		}
	}
	assert.Len(t, sender.messages(), 2, "failures do not stop the worker")
}

func TestMailWorkerDropsWhenFull(t *testing.T) {
	w := NewMailWorker(&recordingSender{done: make(chan struct{}, 1)}, 1)

	assert.True(t, w.Enqueue(mailer.Message{To: "a@example.com"}))
	assert.False(t, w.Enqueue(mailer.Message{To: "b@example.com"}))
}

func TestMailWorkerStopsOnCancel(t *testing.T) {
	w := NewMailWorker(&recordingSender{done: make(chan struct{}, 1)}, 1)
	ctx, cancel := context.WithCancel(context.Background())

	stopped := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(stopped)
	}()
	cancel()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

type countingReindexer struct {
	mu    sync.Mutex
	calls int
}

func (r *countingReindexer) Reindex(context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return 3, nil
}

func (r *countingReindexer) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func TestSearchSyncWorkerRunsImmediatelyAndOnTick(t *testing.T) {
	r := &countingReindexer{}
	w := NewSearchSyncWorker(r, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(stopped)
	}()

	assert.Eventually(t, func() bool { return r.count() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	<-stopped
}
