package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eldtechnologies/memorywall/clients/go/memwall"
)

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "Show the wall, newest first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			wall, done := rootOpts.openWall(cmd.Context())
			defer done()

			if err := wall.Load(cmd.Context()); err != nil {
				return errors.New(memwall.UserMessage(err))
			}
			return printPosts(cmd.OutOrStdout(), rootOpts.Format, wall.Posts())
		},
	}
}

// PostOptions holds flags for the post command.
type PostOptions struct {
	Message         string
	Author          string
	Photo           string
	SkipStatusCheck bool
}

// NewPostCommand creates the post command.
func NewPostCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PostOptions{}

	cmd := &cobra.Command{
		Use:   "post",
		Short: "Add a memory to the wall",
		Long: `Add a memory to the wall.

--photo takes an http(s) or data: URL, or a local image file of at most 10 MB
which is embedded as a data: URL.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPost(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Message, "message", "m", "", "memory text")
	cmd.Flags().StringVarP(&opts.Author, "author", "a", "", "your name")
	cmd.Flags().StringVarP(&opts.Photo, "photo", "p", "", "photo file or URL")
	cmd.Flags().BoolVar(&opts.SkipStatusCheck, "skip-status-check", false, "post even if the server reports a database problem")

	return cmd
}

func runPost(cmd *cobra.Command, rootOpts *RootOptions, opts *PostOptions) error {
	ctx := cmd.Context()

	if !opts.SkipStatusCheck {
		st := rootOpts.client().CheckStatus(ctx, memwall.DefaultStatusTimeout)
		if !st.OK() {
			return fmt.Errorf("the wall is not accepting posts: %s", st.Message)
		}
	}

	photoURL, err := loadPhoto(opts.Photo)
	if err != nil {
		return err
	}

	wall, done := rootOpts.openWall(ctx)
	defer done()

	// Load first so the cache written after the create holds the whole wall.
	if err := wall.Load(ctx); err != nil {
		rootOpts.logger.Warn().Err(err).Msg("could not load the wall before posting")
	}

	post, err := wall.Create(ctx, memwall.NewPost{
		Message:  opts.Message,
		Author:   opts.Author,
		PhotoURL: photoURL,
	})
	if err != nil {
		return errors.New(memwall.UserMessage(err))
	}

	if rootOpts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), post)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Posted memory #%d\n", post.ID)
	return nil
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <id>",
		Short:         "Remove one memory from the wall",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid id %q", args[0])
			}

			ctx := cmd.Context()
			wall, done := rootOpts.openWall(ctx)
			defer done()

			if err := wall.Load(ctx); err != nil {
				rootOpts.logger.Warn().Err(err).Msg("could not load the wall before deleting")
			}
			if err := wall.Delete(ctx, id); err != nil {
				return errors.New(memwall.UserMessage(err))
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted memory #%d\n", id)
			return nil
		},
	}
}

// NewResetCommand creates the reset command.
func NewResetCommand(rootOpts *RootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:           "reset",
		Short:         "Delete every memory on the wall",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to delete every memory without --yes")
			}

			ctx := cmd.Context()
			wall, done := rootOpts.openWall(ctx)
			defer done()

			if err := wall.Reset(ctx); err != nil {
				return errors.New(memwall.UserMessage(err))
			}

			fmt.Fprintln(cmd.OutOrStdout(), "All memories have been deleted.")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm deleting every memory")

	return cmd
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	var timeout = memwall.DefaultStatusTimeout

	cmd := &cobra.Command{
		Use:           "status",
		Short:         "Check the server's database connection",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			st := rootOpts.client().CheckStatus(cmd.Context(), timeout)

			if rootOpts.Format == "json" {
				if err := writeJSON(cmd.OutOrStdout(), st); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", st.Status, st.Message)
			}

			if !st.OK() {
				return errors.New("database is not reachable")
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", timeout, "give up after this long")

	return cmd
}

func printPosts(w io.Writer, format string, posts []memwall.Post) error {
	if format == "json" {
		return writeJSON(w, posts)
	}
	if len(posts) == 0 {
		fmt.Fprintln(w, "The wall is empty.")
		return nil
	}
	for _, p := range posts {
		fmt.Fprintf(w, "#%d  %s\n", p.ID, p.Author)
		for _, line := range strings.Split(p.Message, "\n") {
			fmt.Fprintf(w, "    %s\n", line)
		}
		fmt.Fprintf(w, "    [%s]\n", describePhoto(p.PhotoURL))
	}
	return nil
}

func describePhoto(photoURL string) string {
	switch {
	case photoURL == "":
		return "no photo"
	case strings.HasPrefix(photoURL, "data:"):
		mediaType, _, _ := strings.Cut(strings.TrimPrefix(photoURL, "data:"), ";")
		return fmt.Sprintf("embedded %s, %d bytes", mediaType, len(photoURL))
	}
	return photoURL
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
