package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewIdentity_Normalizes(t *testing.T) {
	assert.Equal(t, Identity("a@x.com"), NewIdentity("  A@X.com "))
	assert.False(t, NewIdentity("   ").SignedIn())
}

func TestRequire(t *testing.T) {
	assert.ErrorIs(t, Require(Anonymous), ErrSignInRequired)
	assert.NoError(t, Require("a@x.com"))
}

func TestTracker_OnChange(t *testing.T) {
	tracker := NewTracker()

	var seen []Identity
	cancel := tracker.OnChange(func(id Identity) {
		seen = append(seen, id)
	})

	tracker.Set("a@x.com")
	tracker.Set("a@x.com") // unchanged, no callback
	tracker.Clear()

	assert.Equal(t, []Identity{Anonymous, "a@x.com", Anonymous}, seen)

	cancel()
	cancel()
	tracker.Set("b@x.com")
	assert.Len(t, seen, 3)
	assert.Equal(t, Identity("b@x.com"), tracker.Current())
}
