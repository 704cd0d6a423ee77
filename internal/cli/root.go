package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/GreedyKomodoDragon/s3search/internal/config"
	"github.com/GreedyKomodoDragon/s3search/internal/objectstore"
	"github.com/GreedyKomodoDragon/s3search/internal/search"
)

// ErrUsage is returned for malformed command lines.
var ErrUsage = errors.New("usage error")

// UsageLine is printed to stderr on a usage error.
const UsageLine = "Usage: s3search <bucket-name> <search-term> [prefix]"

// ConfigLoader produces validated configuration
type ConfigLoader func() (*config.Config, error)

// StoreFactory builds the object store from validated configuration
type StoreFactory func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (objectstore.ObjectStore, error)

type options struct {
	stdout     io.Writer
	stderr     io.Writer
	loadConfig ConfigLoader
	newStore   StoreFactory
}

// Option customizes the root command
type Option func(*options)

// WithOutput redirects match reports and diagnostics
func WithOutput(stdout, stderr io.Writer) Option {
	return func(o *options) {
		o.stdout = stdout
		o.stderr = stderr
	}
}

// WithConfigLoader replaces the environment-based configuration loader
func WithConfigLoader(loader ConfigLoader) Option {
	return func(o *options) {
		o.loadConfig = loader
	}
}

// WithStoreFactory replaces the S3 store constructor
func WithStoreFactory(factory StoreFactory) Option {
	return func(o *options) {
		o.newStore = factory
	}
}

func defaultOptions() *options {
	return &options{
		stdout: os.Stdout,
		stderr: os.Stderr,
		loadConfig: func() (*config.Config, error) {
			return config.Load()
		},
		newStore: func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (objectstore.ObjectStore, error) {
			store, err := objectstore.NewS3Store(ctx, cfg, logger)
			if err != nil {
				return nil, err
			}
			return store, nil
		},
	}
}

// NewRootCommand creates the s3search command. Every argument is
// positional; flag parsing is disabled so terms may start with a dash.
func NewRootCommand(opts ...Option) *cobra.Command {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	cmd := &cobra.Command{
		Use:   "s3search <bucket-name> <search-term> [prefix]",
		Short: "Report which objects in an S3 bucket contain a search term",
		Long: `s3search lists the objects in an S3-compatible bucket, optionally
restricted to a key prefix, downloads each one and prints a line for
every object whose content contains the search term.

The endpoint and credentials are read from AWS_URL, AWS_ACCESS_KEY_ID,
AWS_SECRET_ACCESS_KEY and AWS_DEFAULT_REGION, or from a .env file in the
working directory.`,
		Args:               positionalArgs,
		DisableFlagParsing: true,
		SilenceUsage:       true,
		SilenceErrors:      true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), o, args)
		},
	}

	cmd.SetOut(o.stdout)
	cmd.SetErr(o.stderr)

	return cmd
}

func positionalArgs(_ *cobra.Command, args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return fmt.Errorf("%w: expected 2 or 3 arguments, got %d", ErrUsage, len(args))
	}
	return nil
}

func run(ctx context.Context, o *options, args []string) error {
	req := search.Request{
		Bucket: args[0],
		Term:   args[1],
	}
	if len(args) == 3 {
		req.Prefix = args[2]
	}

	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}

	logger := NewLogger(o.stderr, cfg.LogLevel)

	store, err := o.newStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create object store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("Failed to close object store", "error", err)
		}
	}()

	service := search.NewService(store, search.NewLineReporter(o.stdout), logger)
	_, err = service.Run(ctx, req)
	return err
}

// Execute runs the command with args and returns the process exit status.
func Execute(ctx context.Context, args []string, opts ...Option) int {
	if args == nil {
		// cobra falls back to os.Args for a nil slice
		args = []string{}
	}

	cmd := NewRootCommand(opts...)
	cmd.SetArgs(args)

	if err := cmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, ErrUsage) {
			fmt.Fprintln(cmd.ErrOrStderr(), UsageLine)
			return 1
		}

		fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
		return 1
	}

	return 0
}
