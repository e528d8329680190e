package likes

import (
	"Murmur/internal/core/session"
)

// Action is a requested change to the acting user's membership in a post's viewers
type Action string

const (
	// ActionToggle adds the identity when absent and removes it when present
	ActionToggle Action = "toggle"
	// ActionLike adds the identity; liking twice is a no-op
	ActionLike Action = "like"
	// ActionUnlike removes the identity; unliking twice is a no-op
	ActionUnlike Action = "unlike"
)

// Valid reports whether the action is known
func (a Action) Valid() bool {
	return a == ActionToggle || a == ActionLike || a == ActionUnlike
}

// Result is the next viewers set. LikeCount is derived from it, never supplied.
type Result struct {
	Viewers   []string
	LikeCount int
	Liked     bool
	Changed   bool
}

// Apply computes the viewers set after identity performs action.
// Duplicate entries in viewers are collapsed; order of first appearance is kept.
func Apply(viewers []string, identity session.Identity, action Action) (Result, error) {
	if err := session.Require(identity); err != nil {
		return Result{}, err
	}
	if !action.Valid() {
		return Result{}, ErrInvalidAction
	}

	me := identity.String()
	next := make([]string, 0, len(viewers)+1)
	seen := make(map[string]struct{}, len(viewers)+1)
	present := false
	for _, v := range viewers {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		if v == me {
			present = true
		}
		next = append(next, v)
	}

	want := present
	switch action {
	case ActionToggle:
		want = !present
	case ActionLike:
		want = true
	case ActionUnlike:
		want = false
	}

	switch {
	case want && !present:
		next = append(next, me)
	case !want && present:
		next = remove(next, me)
	}

	return Result{
		Viewers:   next,
		LikeCount: len(next),
		Liked:     want,
		Changed:   want != present || len(next) != len(viewers),
	}, nil
}

func remove(viewers []string, identity string) []string {
	out := viewers[:0]
	for _, v := range viewers {
		if v != identity {
			out = append(out, v)
		}
	}
	return out
}
