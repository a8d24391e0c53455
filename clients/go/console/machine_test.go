package console

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, inputs ...string) (State, int) {
	t.Helper()
	state := StateInit
	unlocks := 0
	for _, in := range inputs {
		tr := Step(state, in, "1022")
		require.GreaterOrEqual(t, tr.Next, state, "state moved backwards on %q", in)
		if tr.Unlocked {
			unlocks++
		}
		state = tr.Next
	}
	return state, unlocks
}

func TestStep_HappyPath(t *testing.T) {
	state, unlocks := run(t, "run_diagnostics", "repair_wishes", "deploy_wish", "auth", "1022")
	assert.Equal(t, StateUnlocked, state)
	assert.Equal(t, 1, unlocks)
}

func TestStep_CaseInsensitiveCommands(t *testing.T) {
	state, _ := run(t, "RUN_DIAGNOSTICS", "Repair_Wishes", "deploy_wish extra args", "AUTH")
	assert.Equal(t, StateAwaitingAuth, state)
}

func TestStep_OutOfOrderIsNoOp(t *testing.T) {
	tests := []struct {
		name    string
		state   State
		input   string
		wantMsg string
	}{
		{"repair before diagnostics", StateInit, "repair_wishes", "ERR_DEPENDENCY: Please run `run_diagnostics` first."},
		{"deploy before repair", StateDiagnosed, "deploy_wish", "ERR_DEPENDENCY: Please run `repair_wishes` first."},
		{"auth before deploy", StateRepaired, "auth", "ERR_DEPENDENCY: Please run `deploy_wish` first."},
		{"auth from init", StateInit, "auth", "ERR_DEPENDENCY: Please run `deploy_wish` first."},
		{"unknown", StateDiagnosed, "sudo rm -rf", "Unknown command: sudo"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tr := Step(tc.state, tc.input, "1022")
			assert.Equal(t, tc.state, tr.Next)
			assert.False(t, tr.Unlocked)
			require.Len(t, tr.Lines, 1)
			assert.Equal(t, tc.wantMsg, tr.Lines[0].Text)
		})
	}
}

func TestStep_RepeatingCompletedStepKeepsState(t *testing.T) {
	tr := Step(StateDeployed, "run_diagnostics", "1022")
	assert.Equal(t, StateDeployed, tr.Next)
	assert.NotEmpty(t, tr.Lines)

	tr = Step(StateRepaired, "repair_wishes", "1022")
	assert.Equal(t, StateRepaired, tr.Next)
}

func TestStep_WrongPasscodeNeverLocksOut(t *testing.T) {
	state := StateAwaitingAuth
	for i := 0; i < 100; i++ {
		tr := Step(state, "0000", "1022")
		require.Equal(t, StateAwaitingAuth, tr.Next)
		require.False(t, tr.Unlocked)
		require.Equal(t, "ERR_INVALID_KEY: Authentication failed. Try again.", tr.Lines[0].Text)
		state = tr.Next
	}
	tr := Step(state, "1022", "1022")
	assert.True(t, tr.Unlocked)
	assert.Equal(t, StateUnlocked, tr.Next)
}

func TestStep_PasscodeIsExact(t *testing.T) {
	for _, in := range []string{"10220", "1O22", "run_diagnostics", "auth"} {
		tr := Step(StateAwaitingAuth, in, "1022")
		assert.False(t, tr.Unlocked, in)
	}
	assert.True(t, Step(StateAwaitingAuth, "  1022 ", "1022").Unlocked)
}

func TestStep_PasscodeBeforeAuthIsUnknown(t *testing.T) {
	tr := Step(StateDeployed, "1022", "1022")
	assert.False(t, tr.Unlocked)
	assert.Equal(t, StateDeployed, tr.Next)
	assert.Equal(t, "Unknown command: 1022", tr.Lines[0].Text)
}

func TestStep_UnlockOnlyViaOrderedSubsequence(t *testing.T) {
	tests := []struct {
		name   string
		inputs []string
		want   bool
	}{
		{"interleaved noise", []string{"help", "repair_wishes", "run_diagnostics", "auth", "run_diagnostics",
			"repair_wishes", "ls", "deploy_wish", "repair_wishes", "auth", "9999", "1022"}, true},
		{"missing deploy", []string{"run_diagnostics", "repair_wishes", "auth", "1022"}, false},
		{"wrong order", []string{"repair_wishes", "run_diagnostics", "deploy_wish", "auth", "1022"}, false},
		{"no passcode", []string{"run_diagnostics", "repair_wishes", "deploy_wish", "auth"}, false},
		{"passcode repeated after unlock", []string{"run_diagnostics", "repair_wishes", "deploy_wish", "auth", "1022", "1022"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			state, unlocks := run(t, tc.inputs...)
			if tc.want {
				assert.Equal(t, StateUnlocked, state)
				assert.Equal(t, 1, unlocks)
			} else {
				assert.NotEqual(t, StateUnlocked, state)
				assert.Zero(t, unlocks)
			}
		})
	}
}

func TestParseCommand(t *testing.T) {
	cmd, token := ParseCommand("  Deploy_Wish now ")
	assert.Equal(t, CommandDeployWish, cmd)
	assert.Equal(t, "deploy_wish", token)

	cmd, token = ParseCommand("   ")
	assert.Equal(t, CommandUnknown, cmd)
	assert.Empty(t, token)

	assert.Equal(t, "auth", CommandAuth.String())
	assert.Equal(t, "AWAITING_AUTH", StateAwaitingAuth.String())
}
