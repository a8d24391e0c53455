package console

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	// ErrBusy is returned when a command is submitted while the previous
	// response is still being revealed.
	ErrBusy = errors.New("console: a command is still running")

	// ErrClosed is returned once the session has unlocked or been closed.
	ErrClosed = errors.New("console: session closed")
)

// Options configures a Session.
type Options struct {
	// Passcode gates the final transition. Compared exactly. Empty means
	// DefaultPasscode.
	Passcode string

	// OnSuccess is invoked once, SuccessDelay after the passcode is accepted.
	OnSuccess func()

	// OnLine receives every transcript line as it is appended. It runs with
	// the session lock held and must not call back into the Session.
	OnLine func(line string)

	// Pace reveals lines with their configured delays. When false all
	// lines of a response are appended at once.
	Pace bool

	SuccessDelay time.Duration
	Logger       zerolog.Logger
}

// Session is one lifetime of the console UI. It is safe for concurrent use,
// but only one command is processed at a time.
type Session struct {
	mu         sync.Mutex
	opts       Options
	state      State
	transcript []string
	busy       bool
	closed     bool

	successOnce  sync.Once
	successTimer *time.Timer
}

// NewSession starts a fresh session showing the welcome banner.
func NewSession(opts Options) *Session {
	// Input is trimmed and empty input ignored, so a blank passcode could
	// never match.
	if opts.Passcode = strings.TrimSpace(opts.Passcode); opts.Passcode == "" {
		opts.Passcode = DefaultPasscode
	}
	if opts.SuccessDelay == 0 {
		opts.SuccessDelay = 1200 * time.Millisecond
	}
	s := &Session{opts: opts, state: StateInit}
	for _, l := range BannerLines {
		s.appendLocked(l)
	}
	return s
}

func (s *Session) appendLocked(line string) {
	s.transcript = append(s.transcript, line)
	if s.opts.OnLine != nil {
		s.opts.OnLine(line)
	}
}

// Submit commits one line of input. Empty input is ignored.
func (s *Session) Submit(ctx context.Context, input string) error {
	raw := strings.TrimSpace(input)

	s.mu.Lock()
	if s.closed || s.state == StateUnlocked {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.busy {
		s.mu.Unlock()
		return ErrBusy
	}
	if raw == "" {
		s.mu.Unlock()
		return nil
	}
	s.busy = true
	from := s.state
	echo := raw
	if from == StateAwaitingAuth {
		echo = strings.Repeat("*", len(raw))
	}
	s.appendLocked("> " + echo)
	s.mu.Unlock()

	t := Step(from, raw, s.opts.Passcode)
	s.reveal(ctx, t.Lines)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
	s.state = t.Next
	if from != t.Next {
		s.opts.Logger.Debug().
			Stringer("from", from).
			Stringer("to", t.Next).
			Msg("console state advanced")
	}
	if t.Unlocked && !s.closed {
		s.successTimer = time.AfterFunc(s.opts.SuccessDelay, s.fireSuccess)
	}
	return nil
}

// reveal appends lines in order, pausing before each one when pacing is on.
// A cancelled context stops the pacing; remaining lines are flushed at once.
func (s *Session) reveal(ctx context.Context, lines []Line) {
	for i, l := range lines {
		if s.opts.Pace && l.Delay > 0 {
			timer := time.NewTimer(l.Delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				s.mu.Lock()
				for _, rest := range lines[i:] {
					s.appendLocked(rest.Text)
				}
				s.mu.Unlock()
				return
			}
		}
		s.mu.Lock()
		s.appendLocked(l.Text)
		s.mu.Unlock()
	}
}

func (s *Session) fireSuccess() {
	s.mu.Lock()
	closed := s.closed
	s.closed = true
	s.mu.Unlock()
	if closed {
		return
	}
	s.successOnce.Do(func() {
		s.opts.Logger.Info().Msg("console unlocked")
		if s.opts.OnSuccess != nil {
			s.opts.OnSuccess()
		}
	})
}

// Close discards the session. A success callback that has not fired yet
// will not fire.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.successTimer != nil {
		s.successTimer.Stop()
	}
}

// State returns the current progress.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Transcript returns a copy of every line shown so far.
func (s *Session) Transcript() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// Busy reports whether a response is still being revealed.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// AwaitingPasscode reports whether input is currently captured as a passcode.
func (s *Session) AwaitingPasscode() bool {
	return s.State() == StateAwaitingAuth
}

// Prompt returns the input prompt for the current mode.
func (s *Session) Prompt() string {
	if s.AwaitingPasscode() {
		return "Enter auth key: "
	}
	return "> "
}
