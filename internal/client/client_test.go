package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Murmur/internal/core/feed"
	"Murmur/internal/core/likes"
	"Murmur/internal/core/posts"
	"Murmur/internal/core/session"
)

// fakeServer records every request and answers like a Murmur server would
type fakeServer struct {
	requests  []string
	failPosts int
	lastAuth  string
	lastBody  string
	mu        sync.Mutex
}

func (f *fakeServer) record(r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	f.lastAuth = r.Header.Get("Authorization")
	f.lastBody = string(body)
}

func (f *fakeServer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeServer) last() (auth, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastAuth, f.lastBody
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeServer) handler() http.Handler {
	r := chi.NewRouter()
	r.Post("/auth/signin", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		writeJSON(w, http.StatusOK, map[string]string{"identity": "a@x.com", "accessToken": "tok-a"})
	})
	r.Post("/auth/signout", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		writeJSON(w, http.StatusOK, map[string]interface{}{"identity": nil})
	})
	r.Post("/posts", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		f.mu.Lock()
		fail := f.failPosts > 0
		if fail {
			f.failPosts--
		}
		f.mu.Unlock()
		if fail {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "InternalServerError", "message": "An internal error occurred"})
			return
		}
		writeJSON(w, http.StatusCreated, map[string]interface{}{"id": "p1", "authorEmail": "a@x.com", "likeCount": 0, "viewers": []string{}})
	})
	r.Delete("/posts/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "NotAuthorized", "message": "Only the author can delete this post"})
	})
	r.Put("/posts/{id}/like", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		writeJSON(w, http.StatusOK, map[string]interface{}{"id": chi.URLParam(r, "id"), "likeCount": 1, "viewers": []string{"a@x.com"}})
	})
	r.Post("/posts/{id}/like", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "SignInRequired", "message": "You must sign in to do that"})
	})
	return r
}

func newTestREPL(t *testing.T, input string) (*REPL, *fakeServer, *bytes.Buffer) {
	t.Helper()
	fake := &fakeServer{}
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	var out bytes.Buffer
	repl := NewREPL(New(srv.URL, nil), nil, strings.NewReader(input), &out)
	return repl, fake, &out
}

func TestREPL_SignedOutActionsMakeNoRequests(t *testing.T) {
	repl, fake, out := newTestREPL(t, "")
	ctx := context.Background()

	for _, line := range []string{"like p1", "unlike p1", "toggle p1", "delete p1", "post hello"} {
		out.Reset()
		repl.Execute(ctx, line)
		assert.Equal(t, 1, strings.Count(out.String(), "must sign in"), line)
	}
	assert.Zero(t, fake.count(), "signed-out actions must not reach the server")
}

func TestREPL_SignInThenPostResetsDraft(t *testing.T) {
	repl, fake, out := newTestREPL(t, "")
	ctx := context.Background()

	repl.Execute(ctx, "signin a@x.com hunter22")
	assert.Equal(t, session.Identity("a@x.com"), repl.tracker.Current())

	repl.Execute(ctx, "post hello world --url https://cdn.example/cat.png")
	assert.Contains(t, out.String(), "posted p1")
	auth, raw := fake.last()
	assert.Equal(t, "Bearer tok-a", auth)

	var body map[string]string
	require.NoError(t, json.Unmarshal([]byte(raw), &body))
	assert.Equal(t, "hello world", body["text"])
	assert.Equal(t, "https://cdn.example/cat.png", body["mediaUrl"])
	assert.Equal(t, "image", body["mediaType"])

	draft := repl.composer.Draft()
	assert.True(t, draft.IsEmpty(), "draft must reset after a successful post")
}

func TestREPL_FailedPostKeepsDraftForRetry(t *testing.T) {
	repl, fake, out := newTestREPL(t, "")
	ctx := context.Background()
	fake.mu.Lock()
	fake.failPosts = 1
	fake.mu.Unlock()

	repl.Execute(ctx, "signin a@x.com hunter22")
	repl.Execute(ctx, "post keep me")
	assert.Contains(t, out.String(), "draft kept")
	assert.Equal(t, "keep me", repl.composer.Draft().Text)

	out.Reset()
	repl.Execute(ctx, "post")
	assert.Contains(t, out.String(), "posted p1")
	draft := repl.composer.Draft()
	assert.True(t, draft.IsEmpty())
}

func TestREPL_PostFileUpload(t *testing.T) {
	repl, fake, out := newTestREPL(t, "")
	ctx := context.Background()
	repl.readFile = func(name string) ([]byte, error) {
		assert.Equal(t, "/tmp/cat.png", name)
		return []byte("\x89PNG\r\n\x1a\nrest"), nil
	}

	repl.Execute(ctx, "signin a@x.com hunter22")
	repl.Execute(ctx, "post --file /tmp/cat.png")
	assert.Contains(t, out.String(), "posted p1")
	_, raw := fake.last()
	assert.Contains(t, raw, `filename="cat.png"`)
	assert.Contains(t, raw, "Content-Type: image/png")

	out.Reset()
	repl.Execute(ctx, "post x --file /tmp/cat.png --url https://cdn.example/a.png")
	assert.Contains(t, out.String(), "not both")
}

func TestREPL_SignOutNeedsConfirmation(t *testing.T) {
	repl, fake, out := newTestREPL(t, "n\ny\n")
	ctx := context.Background()

	repl.Execute(ctx, "signin a@x.com hunter22")
	before := fake.count()

	repl.Execute(ctx, "signout")
	assert.Contains(t, out.String(), "still signed in")
	assert.Equal(t, before, fake.count(), "declined sign-out must not call the server")
	assert.True(t, repl.tracker.Current().SignedIn())

	repl.Execute(ctx, "signout")
	assert.False(t, repl.tracker.Current().SignedIn())
	_, raw := fake.last()
	assert.JSONEq(t, `{"confirm":true}`, raw)
}

func TestREPL_ServerErrors(t *testing.T) {
	repl, _, out := newTestREPL(t, "")
	ctx := context.Background()

	repl.Execute(ctx, "signin a@x.com hunter22")

	out.Reset()
	repl.Execute(ctx, "delete p9")
	assert.Contains(t, out.String(), "Only the author can delete this post")

	out.Reset()
	repl.Execute(ctx, "like p9")
	assert.Contains(t, out.String(), "p9: like sent")
	assert.NotContains(t, out.String(), "1 like\n", "like counts come from the live feed, not the response")

	// A server-side SignInRequired drops the local identity as well
	repl.Execute(ctx, "toggle p9")
	assert.False(t, repl.tracker.Current().SignedIn())
}

func TestClient_ReactMapsActionsToMethods(t *testing.T) {
	var (
		got []string
		mu  sync.Mutex
	)
	methods := func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), got...)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		got = append(got, r.Method)
		mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]interface{}{"id": "p1", "viewers": []string{}})
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	ctx := context.Background()
	for _, action := range []likes.Action{likes.ActionToggle, likes.ActionLike, likes.ActionUnlike} {
		_, err := c.React(ctx, "a@x.com", "p1", action)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{http.MethodPost, http.MethodPut, http.MethodDelete}, methods())

	_, err := c.React(ctx, session.Anonymous, "p1", likes.ActionLike)
	assert.ErrorIs(t, err, session.ErrSignInRequired)
	assert.Len(t, methods(), 3)
}

func TestClient_APIErrorFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := New(srv.URL, nil).Feed(context.Background())
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.Status)
	assert.Equal(t, "Too Many Requests", apiErr.Code)
	assert.Contains(t, apiErr.Message, "Rate limit exceeded")
}

func liveServer(t *testing.T, views []feed.View) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer func() { _ = conn.Close() }()
		for _, v := range views {
			if err := conn.WriteJSON(v); err != nil {
				return
			}
		}
		// Hold the connection until the client leaves
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func textPost(id string) *posts.Post {
	text := "post " + id
	return &posts.Post{ID: id, Text: &text, Viewers: []string{}}
}

func TestLiveSource_FeedsStore(t *testing.T) {
	srv := liveServer(t, []feed.View{
		{State: feed.StateConnecting},
		{State: feed.StateLive, Posts: []*posts.Post{textPost("p1")}},
		{State: feed.StateLive, Posts: []*posts.Post{textPost("p2"), textPost("p1")}},
	})

	store := feed.NewStore(NewLiveSource(srv.URL, nil), posts.ListQuery{}, nil)
	require.NoError(t, store.Start(context.Background()))
	defer store.Unsubscribe()

	require.Eventually(t, func() bool {
		return len(store.Posts()) == 2
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, "p2", store.Posts()[0].ID)
	assert.Equal(t, feed.StateLive, store.View().State)
}

func TestLiveSource_ServerDegradedEndsSubscription(t *testing.T) {
	srv := liveServer(t, []feed.View{
		{State: feed.StateLive, Posts: []*posts.Post{textPost("p1")}},
		{State: feed.StateDegraded, Error: "permission revoked", Posts: []*posts.Post{textPost("p1")}},
	})

	store := feed.NewStore(NewLiveSource(srv.URL, nil), posts.ListQuery{}, nil)
	require.NoError(t, store.Start(context.Background()))
	defer store.Unsubscribe()

	require.Eventually(t, func() bool {
		return store.View().State == feed.StateDegraded
	}, 5*time.Second, 10*time.Millisecond)
	assert.EqualError(t, store.Err(), "permission revoked")
	require.Len(t, store.Posts(), 1, "last good snapshot is kept")
}

func TestLiveSource_DialFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := NewLiveSource(srv.URL, nil).Watch(context.Background(), posts.ListQuery{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
