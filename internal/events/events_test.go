package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChange_Subject(t *testing.T) {
	assert.Equal(t, "murmur.posts.created", Change{Kind: KindCreated}.Subject())
	assert.Equal(t, "murmur.posts.reacted", Change{Kind: KindReacted}.Subject())
}

func TestDiscard(t *testing.T) {
	assert.NoError(t, Discard.PublishChange(context.Background(), Change{Kind: KindDeleted}))
}

func TestNATSNotifier_CoalescesBursts(t *testing.T) {
	n := &NATSNotifier{changes: make(chan struct{}, 1), logger: slog.Default()}

	data, err := json.Marshal(Change{Kind: KindCreated, PostID: "p1"})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		n.handle(&nats.Msg{Subject: "murmur.posts.created", Data: data})
	}

	<-n.Changes()
	select {
	case <-n.Changes():
		t.Fatal("burst should collapse into a single signal")
	default:
	}
}

func TestNATSNotifier_IgnoresMalformed(t *testing.T) {
	n := &NATSNotifier{changes: make(chan struct{}, 1), logger: slog.Default()}
	n.handle(&nats.Msg{Subject: "murmur.posts.created", Data: []byte("not json")})

	select {
	case <-n.Changes():
		t.Fatal("malformed message should not wake the live query")
	default:
	}
}
