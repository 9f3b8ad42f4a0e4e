// Package cli implements the storyctl command-line interface: it loads
// configuration, attaches the configured datastore, and runs record lookups
// and writes through the model repository.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// Output formats for --output.
const (
	outputJSON = "json"
	outputYAML = "yaml"
)

// app carries global flag values and the process logger to subcommands.
type app struct {
	configDir string
	dataDir   string
	output    string
	verbose   bool

	log *zap.Logger
}

// NewRootCmd creates the top-level "storyctl" command with global flags and
// all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{log: zap.NewNop()}

	root := &cobra.Command{
		Use:   "storyctl",
		Short: "Manage authors, universes, series and stories",
		Long: "storyctl reads and writes story-server records in the configured\n" +
			"datastore. Records are addressed by kind and lookup value.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.output != outputJSON && a.output != outputYAML {
				return fmt.Errorf("unknown output format %q (valid: json, yaml)", a.output)
			}
			log, err := newLogger(a.verbose)
			if err != nil {
				return err
			}
			a.log = log
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.log.Sync()
		},
	}

	root.PersistentFlags().StringVar(&a.configDir, "config-dir", "", "configuration directory (env STORY_CONFIG_DIR)")
	root.PersistentFlags().StringVar(&a.dataDir, "data-dir", "", "data directory (env STORY_DATA_DIR, default ./.story-db)")
	root.PersistentFlags().StringVarP(&a.output, "output", "o", outputJSON, "output format: json or yaml")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newKindsCmd(a),
		newGetCmd(a),
		newChildrenCmd(a),
		newCreateCmd(a),
		newSiteCmd(a),
	)
	return root
}

// Execute runs the root command and exits with the matching code.
func Execute() {
	root := NewRootCmd()
	err := root.Execute()
	if err == nil {
		os.Exit(exitSuccess)
	}
	fmt.Fprintln(os.Stderr, "storyctl:", err)
	os.Exit(exitCode(err))
}

// sysError marks failures of the environment (config files, storage) as
// opposed to bad input.
type sysError struct{ err error }

func (e *sysError) Error() string { return e.err.Error() }
func (e *sysError) Unwrap() error { return e.err }

func systemErr(format string, args ...any) error {
	return &sysError{err: fmt.Errorf(format, args...)}
}

// exitCode returns exitSysError for system failures and exitUserError for
// everything else.
func exitCode(err error) int {
	var se *sysError
	if errors.As(err, &se) {
		return exitSysError
	}
	return exitUserError
}

// newLogger builds a production zap logger writing to stderr; verbose lowers
// the level to debug.
func newLogger(verbose bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.OutputPaths = []string{"stderr"}
	config.Encoding = "console"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	log, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return log, nil
}
