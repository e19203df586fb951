package broadcast

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Unknown-2829/Hitek-db-api-web/internal/model"
)

type staticRecipients []string

func (s staticRecipients) Recipients(context.Context) ([]string, error) { return s, nil }

type recordingMessenger struct {
	mu       sync.Mutex
	got      []string
	failFor  map[string]bool
	panicFor map[string]bool
	gate     chan struct{}
}

func (m *recordingMessenger) Send(ctx context.Context, to, text string) error {
	if m.gate != nil {
		select {
		case <-m.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if m.panicFor[to] {
		panic("boom")
	}
	m.mu.Lock()
	m.got = append(m.got, to)
	m.mu.Unlock()
	if m.failFor[to] {
		return errors.New("recipient blocked the bot")
	}
	return nil
}

func (m *recordingMessenger) SendDocument(context.Context, string, string, io.Reader) error {
	return nil
}

func (m *recordingMessenger) delivered() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.got...)
}

func callers(n int) staticRecipients {
	out := make(staticRecipients, n)
	for i := range out {
		out[i] = fmt.Sprint(i + 1)
	}
	return out
}

func TestBroadcast_OneFailureDoesNotAbortBatch(t *testing.T) {
	m := &recordingMessenger{failFor: map[string]bool{"37": true}}
	b := New(m, callers(100), Options{}, zerolog.Nop())

	rep, err := b.Broadcast(context.Background(), "maintenance tonight", "1")
	require.NoError(t, err)
	assert.Equal(t, 99, rep.Sent)
	assert.Equal(t, 1, rep.Failed)
	assert.False(t, rep.Canceled)
	assert.NotEmpty(t, rep.ID)

	got := m.delivered()
	assert.Len(t, got, 100)
	assert.Equal(t, "100", got[len(got)-1], "recipients after the failure are still attempted")
}

func TestBroadcast_PanicIsAFailure(t *testing.T) {
	m := &recordingMessenger{panicFor: map[string]bool{"2": true}}
	b := New(m, callers(3), Options{Concurrency: 2}, zerolog.Nop())

	rep, err := b.Broadcast(context.Background(), "hi", "1")
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Sent)
	assert.Equal(t, 1, rep.Failed)
}

func TestBroadcast_PacingSpacesSends(t *testing.T) {
	m := &recordingMessenger{}
	b := New(m, callers(4), Options{Interval: 20 * time.Millisecond}, zerolog.Nop())

	start := time.Now()
	rep, err := b.Broadcast(context.Background(), "hi", "1")
	require.NoError(t, err)
	assert.Equal(t, 4, rep.Sent)
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}

func TestBroadcast_CancelReportsOnlyAttempted(t *testing.T) {
	m := &recordingMessenger{gate: make(chan struct{})}
	b := New(m, callers(50), Options{Interval: 5 * time.Millisecond}, zerolog.Nop())

	done := make(chan model.BroadcastReport, 1)
	id := b.Start(context.Background(), "hi", "1", func(rep model.BroadcastReport, err error) {
		assert.NoError(t, err)
		done <- rep
	})
	assert.Equal(t, []string{id}, b.Active())

	// Let three sends through, then stop the fan-out.
	for i := 0; i < 3; i++ {
		m.gate <- struct{}{}
	}
	require.NoError(t, b.Cancel(id))

	select {
	case rep := <-done:
		assert.True(t, rep.Canceled)
		assert.Equal(t, 3, rep.Sent)
		assert.Less(t, rep.Sent+rep.Failed, 50)
		assert.Len(t, m.delivered(), rep.Sent)
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast did not stop after cancel")
	}

	assert.Empty(t, b.Active())
	assert.ErrorIs(t, b.Cancel(id), ErrNotFound)
}

func TestBroadcast_CancelAll(t *testing.T) {
	m := &recordingMessenger{gate: make(chan struct{})}
	b := New(m, callers(5), Options{}, zerolog.Nop())

	var wg sync.WaitGroup
	wg.Add(2)
	finish := func(model.BroadcastReport, error) { wg.Done() }
	b.Start(context.Background(), "a", "1", finish)
	b.Start(context.Background(), "b", "1", finish)

	require.Eventually(t, func() bool { return len(b.Active()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, b.CancelAll())
	wg.Wait()
	assert.Empty(t, b.Active())
}

type failingRecipients struct{}

func (failingRecipients) Recipients(context.Context) ([]string, error) {
	return nil, errors.New("registry offline")
}

func TestBroadcast_RegistryError(t *testing.T) {
	b := New(&recordingMessenger{}, failingRecipients{}, Options{}, zerolog.Nop())
	_, err := b.Broadcast(context.Background(), "hi", "1")
	assert.ErrorContains(t, err, "registry offline")
}
