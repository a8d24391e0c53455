// Package console implements the recovery console: a line-oriented puzzle
// that must be driven through run_diagnostics, repair_wishes, deploy_wish and
// auth, followed by a passcode, before it unlocks.
package console

import (
	"fmt"
	"strings"
	"time"
)

// DefaultPasscode is used when a session is configured without a passcode.
const DefaultPasscode = "1022"

// State is the progress of a console session. It only moves forward.
type State int

const (
	StateInit State = iota
	StateDiagnosed
	StateRepaired
	StateDeployed
	StateAwaitingAuth
	StateUnlocked
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateDiagnosed:
		return "DIAGNOSED"
	case StateRepaired:
		return "REPAIRED"
	case StateDeployed:
		return "DEPLOYED"
	case StateAwaitingAuth:
		return "AWAITING_AUTH"
	case StateUnlocked:
		return "UNLOCKED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Command is the closed set of console commands.
type Command int

const (
	CommandUnknown Command = iota
	CommandRunDiagnostics
	CommandRepairWishes
	CommandDeployWish
	CommandAuth
)

var commandNames = map[string]Command{
	"run_diagnostics": CommandRunDiagnostics,
	"repair_wishes":   CommandRepairWishes,
	"deploy_wish":     CommandDeployWish,
	"auth":            CommandAuth,
}

func (c Command) String() string {
	for name, cmd := range commandNames {
		if cmd == c {
			return name
		}
	}
	return "unknown"
}

// ParseCommand maps the first token of raw to a Command, case-insensitively.
// It also returns the lowercased token for error reporting.
func ParseCommand(raw string) (Command, string) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return CommandUnknown, ""
	}
	token := strings.ToLower(fields[0])
	return commandNames[token], token
}

// Line is a single transcript line with the pause shown before it.
type Line struct {
	Text  string
	Delay time.Duration
}

// Transition is the result of feeding one input to the machine.
type Transition struct {
	Next     State
	Lines    []Line
	Unlocked bool
}

// step describes a named command: the state it requires, the state it
// reaches and the transcript it reveals.
type step struct {
	requires State
	reaches  State
	missing  string // prerequisite command named in the dependency error
	lines    []Line
}

func paced(d time.Duration, texts ...string) []Line {
	lines := make([]Line, len(texts))
	for i, t := range texts {
		lines[i] = Line{Text: t, Delay: d}
	}
	return lines
}

func concat(groups ...[]Line) []Line {
	var out []Line
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

var steps = map[Command]step{
	CommandRunDiagnostics: {
		requires: StateInit,
		reaches:  StateDiagnosed,
		lines: concat(
			paced(300*time.Millisecond, "Initializing system scan...", "Scanning memory nodes..."),
			paced(350*time.Millisecond,
				"Wishes nodes found: 99/100",
				"Node status: OK (partial)",
				"ERROR: ERR_MISSING_NODE [node: final_wish]",
			),
		),
	},
	CommandRepairWishes: {
		requires: StateDiagnosed,
		reaches:  StateRepaired,
		missing:  "run_diagnostics",
		lines: concat(
			paced(300*time.Millisecond, "Attempting automated repairs...", "Rebuilding memory index from backup..."),
			paced(420*time.Millisecond, "Rebuilding... 25%", "Rebuilding... 50%", "Rebuilding... 75%", "Rebuilding... 100%"),
			paced(250*time.Millisecond, "Index rebuild complete. Node: final_wish restored."),
		),
	},
	CommandDeployWish: {
		requires: StateRepaired,
		reaches:  StateDeployed,
		missing:  "repair_wishes",
		lines: concat(
			paced(300*time.Millisecond, "Packaging final wish payload...", "Signing with ephemeral key..."),
			paced(320*time.Millisecond, "Payload signed: UID_0xAB12FF", "Uploading to secure node...", "Upload complete."),
		),
	},
	CommandAuth: {
		requires: StateDeployed,
		reaches:  StateAwaitingAuth,
		missing:  "deploy_wish",
		lines:    paced(220*time.Millisecond, "Enter authentication key: (4 digits)"),
	},
}

var (
	unlockLines = concat(
		paced(450*time.Millisecond, "Auth OK. Decrypting final node...", "Final node unlocked. Preparing redirect..."),
		paced(400*time.Millisecond, "Process complete. Redirecting..."),
	)
	invalidKeyLines = paced(280*time.Millisecond, "ERR_INVALID_KEY: Authentication failed. Try again.")
)

// BannerLines are shown when a session starts.
var BannerLines = []string{
	"Welcome to MemorySys v3.7 — Recovery Console",
	"A critical error was detected in the memory rendering system.",
	"Please run system commands to restore functionality.",
	"Awaiting command input.",
}

// Step feeds one committed input line to the machine in state and returns
// the transition. It has no side effects.
func Step(state State, input, passcode string) Transition {
	switch state {
	case StateUnlocked:
		return Transition{Next: StateUnlocked}
	case StateAwaitingAuth:
		if strings.TrimSpace(input) == passcode {
			return Transition{Next: StateUnlocked, Lines: unlockLines, Unlocked: true}
		}
		return Transition{Next: StateAwaitingAuth, Lines: invalidKeyLines}
	}

	cmd, token := ParseCommand(input)
	st, ok := steps[cmd]
	if !ok {
		return Transition{Next: state, Lines: paced(220*time.Millisecond, "Unknown command: "+token)}
	}
	if state < st.requires {
		msg := fmt.Sprintf("ERR_DEPENDENCY: Please run `%s` first.", st.missing)
		return Transition{Next: state, Lines: paced(220*time.Millisecond, msg)}
	}

	next := state
	if st.reaches > next {
		next = st.reaches
	}
	return Transition{Next: next, Lines: st.lines}
}
