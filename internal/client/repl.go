package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"Murmur/internal/core/feed"
	"Murmur/internal/core/likes"
	"Murmur/internal/core/posts"
	"Murmur/internal/core/session"
)

const helpText = `commands:
  signup <email> <password>     create an account and sign in
  signin <email> <password>     sign in
  signout                       sign out (asks for confirmation)
  post <text> [--file PATH | --url URL [--type image|video]]
  post                          retry the draft kept after a failed post
  like <id> | unlike <id>       like or unlike a post
  toggle <id>                   flip your like on a post
  delete <id>                   delete one of your posts
  feed                          show the live feed
  help                          show this text
  quit                          exit`

// FeedViewer is the client-side feed store
type FeedViewer interface {
	View() feed.View
	Listen() (<-chan feed.View, func())
}

// REPL is the interactive terminal front end. Every action that needs an
// identity is gated on the tracker: while signed out it prints one notice
// and makes no request.
type REPL struct {
	client   *Client
	tracker  *session.Tracker
	composer *posts.Composer
	feed     FeedViewer
	out      io.Writer
	readFile func(name string) ([]byte, error)
	lines    *bufio.Scanner
	outMu    sync.Mutex
}

// NewREPL creates a REPL. feedView may be nil to run without a live feed.
func NewREPL(client *Client, feedView FeedViewer, in io.Reader, out io.Writer) *REPL {
	return &REPL{
		client:   client,
		tracker:  client.Tracker(),
		composer: posts.NewComposer(client),
		feed:     feedView,
		out:      out,
		readFile: os.ReadFile,
		lines:    bufio.NewScanner(in),
	}
}

// Run reads commands until quit, EOF or ctx cancellation. Feed updates are
// rendered as the store delivers them.
func (r *REPL) Run(ctx context.Context) error {
	if r.feed != nil {
		views, release := r.feed.Listen()
		defer release()
		go r.renderUpdates(ctx, views)
	}

	cancelIdentity := r.tracker.OnChange(func(identity session.Identity) {
		if identity.SignedIn() {
			r.printf("signed in as %s\n", identity)
		} else {
			r.printf("signed out\n")
		}
	})
	defer cancelIdentity()

	r.printf("%s\n", helpText)
	for {
		r.printf("> ")
		if !r.lines.Scan() {
			return r.lines.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		quit := r.Execute(ctx, r.lines.Text())
		if quit {
			return nil
		}
	}
}

// Execute runs one command line and reports whether the REPL should exit
func (r *REPL) Execute(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "quit", "exit":
		return true
	case "help":
		r.printf("%s\n", helpText)
	case "signup", "signin":
		r.authenticate(ctx, cmd, args)
	case "signout":
		r.signOut(ctx)
	case "post":
		r.post(ctx, args)
	case "like":
		r.react(ctx, args, likes.ActionLike)
	case "unlike":
		r.react(ctx, args, likes.ActionUnlike)
	case "toggle":
		r.react(ctx, args, likes.ActionToggle)
	case "delete":
		r.delete(ctx, args)
	case "feed":
		r.showFeed(ctx)
	default:
		r.printf("unknown command %q, type help\n", cmd)
	}
	return false
}

func (r *REPL) authenticate(ctx context.Context, cmd string, args []string) {
	if len(args) != 2 {
		r.printf("usage: %s <email> <password>\n", cmd)
		return
	}

	var err error
	if cmd == "signup" {
		_, err = r.client.SignUp(ctx, args[0], args[1])
	} else {
		_, err = r.client.SignIn(ctx, args[0], args[1])
	}
	if err != nil {
		r.reportError(err)
	}
}

func (r *REPL) signOut(ctx context.Context) {
	identity := r.tracker.Current()
	if !identity.SignedIn() {
		r.printf("not signed in\n")
		return
	}

	r.printf("Sign out of %s? [y/N] ", identity)
	if !r.lines.Scan() {
		return
	}
	answer := strings.ToLower(strings.TrimSpace(r.lines.Text()))
	if answer != "y" && answer != "yes" {
		r.printf("still signed in\n")
		return
	}

	if err := r.client.SignOut(ctx); err != nil {
		r.reportError(err)
	}
}

// requireSignIn prints the single sign-in notice when signed out
func (r *REPL) requireSignIn() (session.Identity, bool) {
	identity := r.tracker.Current()
	if err := session.Require(identity); err != nil {
		r.printf("%v\n", err)
		return identity, false
	}
	return identity, true
}

func (r *REPL) post(ctx context.Context, args []string) {
	identity, ok := r.requireSignIn()
	if !ok {
		return
	}

	if len(args) > 0 {
		if err := r.fillDraft(args); err != nil {
			r.printf("%v\n", err)
			return
		}
	} else if draft := r.composer.Draft(); draft.IsEmpty() {
		r.printf("usage: post <text> [--file PATH | --url URL [--type image|video]]\n")
		return
	}

	post, err := r.composer.Submit(ctx, identity)
	if err != nil {
		r.reportError(err)
		r.printf("draft kept; type post to retry\n")
		return
	}
	r.printf("posted %s\n", post.ID)
}

// fillDraft replaces the draft with the parsed post arguments
func (r *REPL) fillDraft(args []string) error {
	var (
		text      []string
		file      string
		mediaURL  string
		mediaType = posts.MediaImage
	)
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--file", "--url", "--type":
			if i+1 >= len(args) {
				return fmt.Errorf("%s needs a value", args[i])
			}
			value := args[i+1]
			switch args[i] {
			case "--file":
				file = value
			case "--url":
				mediaURL = value
			case "--type":
				mediaType = posts.MediaType(strings.ToLower(value))
			}
			i++
		default:
			text = append(text, args[i])
		}
	}
	if file != "" && mediaURL != "" {
		return errors.New("choose either --file or --url, not both")
	}

	var upload *posts.Upload
	if file != "" {
		data, err := r.readFile(file)
		if err != nil {
			return fmt.Errorf("cannot read %s: %w", file, err)
		}
		upload = &posts.Upload{Filename: filepath.Base(file), Data: data}
	}

	r.composer.Edit(func(d *posts.Draft) {
		d.Reset()
		d.SetText(strings.Join(text, " "))
		switch {
		case upload != nil:
			d.AttachFile(*upload)
		case mediaURL != "":
			d.SetMediaURL(mediaURL, mediaType)
		}
	})
	return nil
}

func (r *REPL) react(ctx context.Context, args []string, action likes.Action) {
	identity, ok := r.requireSignIn()
	if !ok {
		return
	}
	if len(args) != 1 {
		r.printf("usage: %s <id>\n", action)
		return
	}

	// Counts are drawn from the live feed only
	if _, err := r.client.React(ctx, identity, args[0], action); err != nil {
		r.reportError(err)
		return
	}
	r.printf("%s: %s sent\n", args[0], action)
}

func (r *REPL) delete(ctx context.Context, args []string) {
	identity, ok := r.requireSignIn()
	if !ok {
		return
	}
	if len(args) != 1 {
		r.printf("usage: delete <id>\n")
		return
	}

	if err := r.client.DeletePost(ctx, identity, args[0]); err != nil {
		r.reportError(err)
		return
	}
	r.printf("deleted %s\n", args[0])
}

func (r *REPL) showFeed(ctx context.Context) {
	if r.feed != nil {
		r.render(r.feed.View())
		return
	}
	view, err := r.client.Feed(ctx)
	if err != nil {
		r.reportError(err)
		return
	}
	r.render(view)
}

func (r *REPL) renderUpdates(ctx context.Context, views <-chan feed.View) {
	for {
		select {
		case <-ctx.Done():
			return
		case view, ok := <-views:
			if !ok {
				return
			}
			// Nothing useful to draw before the first snapshot
			if view.State == feed.StateConnecting {
				continue
			}
			r.render(view)
		}
	}
}

func (r *REPL) render(view feed.View) {
	var b strings.Builder
	identity := r.tracker.Current()

	fmt.Fprintf(&b, "\n-- feed (%s, %d %s) --\n", view.State, len(view.Posts), plural(len(view.Posts), "post", "posts"))
	if view.Stale() && view.Error != "" {
		fmt.Fprintf(&b, "   live updates stopped: %s\n", view.Error)
	}
	for _, p := range view.Posts {
		fmt.Fprintf(&b, "%s  %s  %s\n", p.ID, p.AuthorEmail, p.CreatedAt.Local().Format(time.DateTime))
		if p.Text != nil {
			fmt.Fprintf(&b, "   %s\n", *p.Text)
		}
		if p.MediaURL != nil {
			mediaType := posts.MediaImage
			if p.MediaType != nil {
				mediaType = *p.MediaType
			}
			fmt.Fprintf(&b, "   [%s] %s\n", mediaType, *p.MediaURL)
		}
		liked := ""
		if identity.SignedIn() && p.LikedBy(identity.String()) {
			liked = " (you like this)"
		}
		fmt.Fprintf(&b, "   %d %s%s\n", p.LikeCount, plural(p.LikeCount, "like", "likes"), liked)
	}
	r.printf("%s", b.String())
}

func (r *REPL) reportError(err error) {
	var apiErr *APIError
	switch {
	case errors.Is(err, session.ErrSignInRequired):
		r.printf("%v\n", err)
	case errors.As(err, &apiErr):
		r.printf("error: %s\n", apiErr.Message)
	default:
		r.printf("error: %v\n", err)
	}
}

func (r *REPL) printf(format string, args ...interface{}) {
	r.outMu.Lock()
	defer r.outMu.Unlock()
	_, _ = fmt.Fprintf(r.out, format, args...)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
