package console

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T, onSuccess func()) *Session {
	t.Helper()
	s := NewSession(Options{
		Passcode:     "1022",
		OnSuccess:    onSuccess,
		SuccessDelay: time.Millisecond,
	})
	t.Cleanup(s.Close)
	return s
}

func submitAll(t *testing.T, s *Session, inputs ...string) {
	t.Helper()
	for _, in := range inputs {
		require.NoError(t, s.Submit(context.Background(), in))
	}
}

func TestSession_UnlockFiresCallbackOnce(t *testing.T) {
	var calls atomic.Int32
	s := newTestSession(t, func() { calls.Add(1) })

	submitAll(t, s, "run_diagnostics", "repair_wishes", "deploy_wish", "auth")
	assert.True(t, s.AwaitingPasscode())
	assert.Equal(t, "Enter auth key: ", s.Prompt())

	submitAll(t, s, "1234", "1022")
	assert.Equal(t, StateUnlocked, s.State())

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)

	assert.ErrorIs(t, s.Submit(context.Background(), "1022"), ErrClosed)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSession_EmptyPasscodeUsesDefault(t *testing.T) {
	for _, passcode := range []string{"", "   "} {
		s := NewSession(Options{Passcode: passcode, SuccessDelay: time.Millisecond})
		submitAll(t, s, "run_diagnostics", "repair_wishes", "deploy_wish", "auth", DefaultPasscode)
		assert.Equal(t, StateUnlocked, s.State(), "passcode %q", passcode)
		s.Close()
	}
}

func TestSession_TranscriptContent(t *testing.T) {
	s := newTestSession(t, nil)
	submitAll(t, s, "repair_wishes", "bogus", "run_diagnostics")

	got := s.Transcript()
	want := append(append([]string{}, BannerLines...),
		"> repair_wishes",
		"ERR_DEPENDENCY: Please run `run_diagnostics` first.",
		"> bogus",
		"Unknown command: bogus",
		"> run_diagnostics",
		"Initializing system scan...",
		"Scanning memory nodes...",
		"Wishes nodes found: 99/100",
		"Node status: OK (partial)",
		"ERROR: ERR_MISSING_NODE [node: final_wish]",
	)
	assert.Equal(t, want, got)
	assert.Equal(t, StateDiagnosed, s.State())
}

func TestSession_PasscodeEchoIsMasked(t *testing.T) {
	s := newTestSession(t, nil)
	submitAll(t, s, "run_diagnostics", "repair_wishes", "deploy_wish", "auth", "9999")

	tr := s.Transcript()
	assert.Equal(t, "> ****", tr[len(tr)-2])
	assert.Equal(t, "ERR_INVALID_KEY: Authentication failed. Try again.", tr[len(tr)-1])
}

func TestSession_EmptyInputIgnored(t *testing.T) {
	s := newTestSession(t, nil)
	before := len(s.Transcript())
	submitAll(t, s, "", "   ")
	assert.Len(t, s.Transcript(), before)
}

func TestSession_RejectsWhileBusy(t *testing.T) {
	s := NewSession(Options{Passcode: "1022", Pace: true})
	defer s.Close()

	done := make(chan error, 1)
	go func() { done <- s.Submit(context.Background(), "run_diagnostics") }()

	require.Eventually(t, s.Busy, time.Second, time.Millisecond)
	assert.ErrorIs(t, s.Submit(context.Background(), "repair_wishes"), ErrBusy)

	require.NoError(t, <-done)
	assert.False(t, s.Busy())
	assert.Equal(t, StateDiagnosed, s.State())
	assert.NotContains(t, s.Transcript(), "> repair_wishes")
}

func TestSession_CancelFlushesRemainingLines(t *testing.T) {
	s := NewSession(Options{Passcode: "1022", Pace: true})
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, s.Submit(ctx, "repair_wishes"))
	require.NoError(t, s.Submit(ctx, "run_diagnostics"))

	tr := s.Transcript()
	assert.Equal(t, "ERROR: ERR_MISSING_NODE [node: final_wish]", tr[len(tr)-1])
	assert.Equal(t, StateDiagnosed, s.State())
}

func TestSession_CloseDiscardsPendingCallback(t *testing.T) {
	var calls atomic.Int32
	s := NewSession(Options{
		Passcode:     "1022",
		OnSuccess:    func() { calls.Add(1) },
		SuccessDelay: 50 * time.Millisecond,
	})
	submitAll(t, s, "run_diagnostics", "repair_wishes", "deploy_wish", "auth", "1022")
	s.Close()

	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, calls.Load())
}

func TestSession_OnLineSeesEveryLine(t *testing.T) {
	var lines []string
	s := NewSession(Options{Passcode: "1022", OnLine: func(l string) { lines = append(lines, l) }})
	defer s.Close()

	submitAll(t, s, "auth")
	assert.Equal(t, s.Transcript(), lines)
}
