package likes

import (
	"math/rand"
	"testing"

	"Murmur/internal/core/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply_Toggle(t *testing.T) {
	r, err := Apply(nil, "b@x.com", ActionToggle)
	require.NoError(t, err)
	assert.Equal(t, []string{"b@x.com"}, r.Viewers)
	assert.Equal(t, 1, r.LikeCount)
	assert.True(t, r.Liked)
	assert.True(t, r.Changed)

	r, err = Apply(r.Viewers, "b@x.com", ActionToggle)
	require.NoError(t, err)
	assert.Empty(t, r.Viewers)
	assert.Equal(t, 0, r.LikeCount)
	assert.False(t, r.Liked)
}

func TestApply_LikeAndUnlikeAreIdempotent(t *testing.T) {
	start := []string{"a@x.com", "b@x.com"}

	r, err := Apply(start, "b@x.com", ActionLike)
	require.NoError(t, err)
	assert.Equal(t, start, r.Viewers)
	assert.False(t, r.Changed)

	r, err = Apply(start, "c@x.com", ActionUnlike)
	require.NoError(t, err)
	assert.Equal(t, start, r.Viewers)
	assert.Equal(t, 2, r.LikeCount)
	assert.False(t, r.Changed)

	r, err = Apply(start, "a@x.com", ActionUnlike)
	require.NoError(t, err)
	assert.Equal(t, []string{"b@x.com"}, r.Viewers)
}

func TestApply_CollapsesDuplicates(t *testing.T) {
	r, err := Apply([]string{"a@x.com", "a@x.com", "b@x.com"}, "c@x.com", ActionLike)
	require.NoError(t, err)
	assert.Equal(t, []string{"a@x.com", "b@x.com", "c@x.com"}, r.Viewers)
	assert.Equal(t, 3, r.LikeCount)
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	in := []string{"a@x.com", "b@x.com"}
	_, err := Apply(in, "a@x.com", ActionUnlike)
	require.NoError(t, err)
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, in)
}

func TestApply_Rejections(t *testing.T) {
	_, err := Apply([]string{"a@x.com"}, session.Anonymous, ActionToggle)
	assert.ErrorIs(t, err, session.ErrSignInRequired)

	_, err = Apply(nil, "a@x.com", Action("upvote"))
	assert.ErrorIs(t, err, ErrInvalidAction)
}

func TestApply_CountAlwaysMatchesViewers(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	users := []session.Identity{"a@x.com", "b@x.com", "c@x.com", "d@x.com"}
	actions := []Action{ActionToggle, ActionLike, ActionUnlike}

	var viewers []string
	for i := 0; i < 500; i++ {
		user := users[rng.Intn(len(users))]
		action := actions[rng.Intn(len(actions))]

		r, err := Apply(viewers, user, action)
		require.NoError(t, err)
		require.Equal(t, len(r.Viewers), r.LikeCount)

		seen := map[string]bool{}
		for _, v := range r.Viewers {
			require.False(t, seen[v], "duplicate viewer %s", v)
			seen[v] = true
		}
		viewers = r.Viewers
	}
}

func TestApply_DoubleToggleRestoresMembership(t *testing.T) {
	start := []string{"a@x.com", "c@x.com"}
	for _, user := range []session.Identity{"a@x.com", "b@x.com", "c@x.com"} {
		once, err := Apply(start, user, ActionToggle)
		require.NoError(t, err)
		twice, err := Apply(once.Viewers, user, ActionToggle)
		require.NoError(t, err)
		assert.ElementsMatch(t, start, twice.Viewers, "user %s", user)
	}
}
