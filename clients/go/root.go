package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/eldtechnologies/memorywall/clients/go/memwall"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	URL       string
	CachePath string
	NoCache   bool
	Verbose   bool
	Format    string // "json" | "text"

	logger zerolog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the memwall CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "memwall",
		Short: "Memory Wall client",
		Long: `Read and write the Memory Wall, check the server's database connection
and run the Recovery Console.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			level := zerolog.WarnLevel
			if opts.Verbose {
				level = zerolog.DebugLevel
			}
			opts.logger = zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.Kitchen}).
				Level(level).
				With().
				Timestamp().
				Logger()
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.URL, "url", envOr("MEMWALL_URL", "http://localhost:8080"), "record store base URL")
	cmd.PersistentFlags().StringVar(&opts.CachePath, "cache", envOr("MEMWALL_CACHE", defaultCachePath()), "local cache database")
	cmd.PersistentFlags().BoolVar(&opts.NoCache, "no-cache", false, "run without the local cache")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	// Add subcommands
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewPostCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewResetCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewConsoleCommand(opts))

	return cmd
}

func (o *RootOptions) client() *memwall.Client {
	c := memwall.NewClient(o.URL)
	c.Logger = o.logger
	return c
}

// openWall builds a Wall over the record store and, unless disabled, the
// local cache. The returned func releases the cache.
func (o *RootOptions) openWall(ctx context.Context) (*memwall.Wall, func()) {
	client := o.client()
	if o.NoCache || o.CachePath == "" {
		return memwall.NewWall(client, nil, memwall.WithLogger(o.logger)), func() {}
	}

	local, err := memwall.NewSQLiteStorage(ctx, o.CachePath)
	if err != nil {
		o.logger.Warn().Err(err).Str("path", o.CachePath).Msg("local cache unavailable, continuing without it")
		return memwall.NewWall(client, nil, memwall.WithLogger(o.logger)), func() {}
	}

	cache := memwall.NewCache(local, memwall.NewMemoryStorage(), memwall.CacheOptions{Logger: o.logger})
	wall := memwall.NewWall(client, cache, memwall.WithLogger(o.logger))
	return wall, func() {
		wall.Close()
		local.Close()
	}
}

func defaultCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".memwall", "cache.db")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
