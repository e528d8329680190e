package feed

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"Murmur/internal/core/posts"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLister struct {
	results [][]*posts.Post
	err     error
	calls   int
	mu      sync.Mutex
}

func (f *fakeLister) ListRecent(_ context.Context, q posts.ListQuery) ([]*posts.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil && f.calls > 1 {
		return nil, f.err
	}
	if len(f.results) == 0 {
		return []*posts.Post{}, nil
	}
	next := f.results[0]
	if len(f.results) > 1 {
		f.results = f.results[1:]
	}
	return next, nil
}

type fakeNotifier struct {
	ch chan struct{}
}

func (f *fakeNotifier) Changes() <-chan struct{} { return f.ch }

func recv(t *testing.T, ch <-chan Snapshot) Snapshot {
	t.Helper()
	select {
	case s, ok := <-ch:
		require.True(t, ok, "snapshot channel closed")
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return Snapshot{}
	}
}

func TestLiveQuery_InitialThenRefresh(t *testing.T) {
	lister := &fakeLister{results: [][]*posts.Post{
		{post("p1")},
		{post("p2"), post("p1")},
	}}
	notifier := &fakeNotifier{ch: make(chan struct{}, 1)}
	lq := NewLiveQuery(lister, notifier, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	snaps, err := lq.Watch(ctx, posts.ListQuery{})
	require.NoError(t, err)

	assert.Equal(t, []string{"p1"}, ids(recv(t, snaps).Posts))

	notifier.ch <- struct{}{}
	assert.Equal(t, []string{"p2", "p1"}, ids(recv(t, snaps).Posts))

	cancel()
	for range snaps {
	}
}

func TestLiveQuery_InitialFailure(t *testing.T) {
	lq := NewLiveQuery(&failingLister{}, &fakeNotifier{ch: make(chan struct{})}, nil)
	_, err := lq.Watch(context.Background(), posts.ListQuery{})
	require.Error(t, err)
}

type failingLister struct{}

func (failingLister) ListRecent(context.Context, posts.ListQuery) ([]*posts.Post, error) {
	return nil, errors.New("db down")
}

func TestLiveQuery_RefreshFailureIsTerminal(t *testing.T) {
	lister := &fakeLister{err: errors.New("db down")}
	notifier := &fakeNotifier{ch: make(chan struct{}, 1)}
	lq := NewLiveQuery(lister, notifier, nil)

	snaps, err := lq.Watch(context.Background(), posts.ListQuery{})
	require.NoError(t, err)
	recv(t, snaps)

	notifier.ch <- struct{}{}
	s := recv(t, snaps)
	require.Error(t, s.Err)

	_, ok := <-snaps
	assert.False(t, ok)
}

func TestLiveQuery_NotifierClosed(t *testing.T) {
	notifier := &fakeNotifier{ch: make(chan struct{})}
	lq := NewLiveQuery(&fakeLister{}, notifier, nil)

	snaps, err := lq.Watch(context.Background(), posts.ListQuery{})
	require.NoError(t, err)
	recv(t, snaps)

	close(notifier.ch)
	assert.ErrorIs(t, recv(t, snaps).Err, ErrNotifierClosed)
}

func TestLiveQuery_FeedsStore(t *testing.T) {
	lister := &fakeLister{results: [][]*posts.Post{
		{post("p1")},
		{},
	}}
	notifier := &fakeNotifier{ch: make(chan struct{}, 1)}
	store := NewStore(NewLiveQuery(lister, notifier, nil), posts.ListQuery{}, nil)
	views, cancel := store.Listen()
	defer cancel()

	require.NoError(t, store.Start(context.Background()))
	waitFor(t, views, func(v View) bool { return len(v.Posts) == 1 })

	notifier.ch <- struct{}{}
	waitFor(t, views, func(v View) bool { return v.State == StateLive && len(v.Posts) == 0 })

	store.Unsubscribe()
}
