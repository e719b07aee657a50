package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Debug   bool
	Verbose bool
	Quiet   bool
}

// NewRootCommand creates the root command for the yamlpath CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "yamlpath",
		Short: "Merge and search YAML documents by path",
		Long: `yamlpath merges YAML and JSON documents under per-path policies and
searches documents for the paths of matching keys and values.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			set := 0
			for _, on := range []bool{opts.Debug, opts.Verbose, opts.Quiet} {
				if on {
					set++
				}
			}
			if set > 1 {
				return NewExitError(ExitFailure, "--debug, --verbose and --quiet are mutually exclusive")
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Debug, "debug", "d", false, "output debugging details")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "increase output verbosity")
	cmd.PersistentFlags().BoolVarP(&opts.Quiet, "quiet", "q", false, "suppress all output except errors")

	cmd.AddCommand(NewMergeCommand(opts))
	cmd.AddCommand(NewPathsCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// Level returns the log level selected by the noise flags. quiet forces
// the error level whatever the flags say.
func (o *RootOptions) Level(quiet bool) slog.Level {
	switch {
	case quiet || o.Quiet:
		return slog.LevelError
	case o.Debug:
		return slog.LevelDebug
	case o.Verbose:
		return slog.LevelInfo
	default:
		return slog.LevelWarn
	}
}

// Logger returns a text logger writing to w at the selected level.
func (o *RootOptions) Logger(w io.Writer, quiet bool) *slog.Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: o.Level(quiet),
	})
	return slog.New(handler)
}

// PrintError writes err to w the way the commands report fatal errors.
func PrintError(w io.Writer, err error) {
	fmt.Fprintf(w, "yamlpath: %v\n", err)
}
