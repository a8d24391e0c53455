package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/eldtechnologies/memorywall/clients/go/console"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// isTerminal is a test seam for term.IsTerminal.
var isTerminal = term.IsTerminal

// ConsoleOptions holds flags for the console command.
type ConsoleOptions struct {
	Passcode     string
	NoPace       bool
	SuccessDelay time.Duration
}

// NewConsoleCommand creates the console command.
func NewConsoleCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ConsoleOptions{}

	cmd := &cobra.Command{
		Use:   "console",
		Short: "Run the Recovery Console",
		Long: `Run the Recovery Console: restore the missing memory node by running
the recovery commands in order, then unlock it with the auth key.

Ctrl-C while a response is printing shows the rest of it at once.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConsole(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Passcode, "passcode", envOr("MEMWALL_PASSCODE", console.DefaultPasscode), "auth key accepted by the console")
	cmd.Flags().BoolVar(&opts.NoPace, "no-pace", false, "print responses without delays")
	cmd.Flags().DurationVar(&opts.SuccessDelay, "success-delay", 1200*time.Millisecond, "pause between unlocking and finishing")
	cmd.Flags().MarkHidden("success-delay")

	return cmd
}

func runConsole(cmd *cobra.Command, rootOpts *RootOptions, opts *ConsoleOptions) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	in := cmd.InOrStdin()
	fd, tty := terminalFD(in)

	unlocked := make(chan struct{})
	sess := console.NewSession(console.Options{
		Passcode: opts.Passcode,
		OnSuccess: func() {
			close(unlocked)
		},
		OnLine: func(line string) {
			// A terminal already shows what was typed.
			if tty && strings.HasPrefix(line, "> ") {
				return
			}
			fmt.Fprintln(out, line)
		},
		Pace:         !opts.NoPace,
		SuccessDelay: opts.SuccessDelay,
		Logger:       rootOpts.logger,
	})
	defer sess.Close()

	reader := bufio.NewReader(in)
	for sess.State() != console.StateUnlocked {
		if tty {
			fmt.Fprint(out, sess.Prompt())
		}

		line, err := readConsoleLine(reader, fd, tty && sess.AwaitingPasscode(), out)
		if errors.Is(err, io.EOF) && line == "" {
			return nil
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}

		// Interrupts only hurry the current response along.
		submitCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
		err = sess.Submit(submitCtx, line)
		stop()
		if err != nil {
			return err
		}
	}

	select {
	case <-unlocked:
		fmt.Fprintln(out, "Final wish unlocked. Run `memwall list` to see the wall.")
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// readConsoleLine reads one line of input. Passcodes on a terminal are read
// without echo.
func readConsoleLine(reader *bufio.Reader, fd int, masked bool, out io.Writer) (string, error) {
	if masked {
		b, err := readPassword(fd)
		fmt.Fprintln(out)
		return string(b), err
	}
	line, err := reader.ReadString('\n')
	return strings.TrimRight(line, "\r\n"), err
}

func terminalFD(in io.Reader) (int, bool) {
	f, ok := in.(*os.File)
	if !ok {
		return 0, false
	}
	fd := int(f.Fd())
	return fd, isTerminal(fd)
}
