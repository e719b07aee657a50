package cli

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/roach88/yamlpath/internal/config"
	"github.com/roach88/yamlpath/internal/docio"
	"github.com/roach88/yamlpath/internal/engine"
	"github.com/roach88/yamlpath/internal/rules"
	"github.com/roach88/yamlpath/internal/store"
	"github.com/roach88/yamlpath/internal/yamlpath"
)

// MergeOptions holds flags for the merge command.
type MergeOptions struct {
	*RootOptions
	Config         string // rule file
	Anchors        string // anchor conflict policy
	Arrays         string // array policy
	Hashes         string // hash policy
	AoH            string // array-of-hashes policy
	MergeAt        string // merge target in the prime document
	Output         string // output file; must not exist
	DocumentFormat string // auto, json or yaml
	NoStdin        bool   // never read stdin unless named
	Journal        string // SQLite journal path
}

// NewMergeCommand creates the merge command.
func NewMergeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MergeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "merge [flags] YAML_FILE [YAML_FILE...]",
		Short: "Merge documents left to right",
		Long: `Merge two or more YAML or JSON documents, left to right, into the
first (prime) document and write the result.

Use - to read a source from stdin. With a single YAML_FILE, piped stdin
is merged as the second source unless --nostdin is set.

Exit codes:
  0 - Success
  1 - Invalid options, rule file or prime document
  2 - A source cannot be read
  3 - A source failed to parse
  4 - Merge conflict (6 in a multi-document source)
  5 - Path resolution error (7 in a multi-document source)

Examples:
  yamlpath merge base.yaml override.yaml
  yamlpath merge -H left -A unique base.yaml override.yaml
  yamlpath merge -c rules.ini -m /spec base.yaml patch.yaml -o merged.yaml
  cat patch.yaml | yamlpath merge base.yaml`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMerge(cmd, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.Config, "config", "c", "", "rule file (ini, toml, yaml or cue)")
	cmd.Flags().StringVarP(&opts.Anchors, "anchors", "a", "", "anchor conflict policy (stop|left|right|rename)")
	cmd.Flags().StringVarP(&opts.Arrays, "arrays", "A", "", "array policy (all|unique|left|right)")
	cmd.Flags().StringVarP(&opts.Hashes, "hashes", "H", "", "hash policy (deep|shallow|left|right)")
	cmd.Flags().StringVarP(&opts.AoH, "aoh", "O", "", "array-of-hashes policy (all|deep|left|right)")
	cmd.Flags().StringVarP(&opts.MergeAt, "mergeat", "m", "/", "path in the prime document to merge into")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write to this file instead of stdout; it must not exist")
	cmd.Flags().StringVarP(&opts.DocumentFormat, "document-format", "D", "auto", "output format (auto|json|yaml)")
	cmd.Flags().BoolVarP(&opts.NoStdin, "nostdin", "S", false, "do not read stdin unless it is named")
	cmd.Flags().StringVar(&opts.Journal, "journal", "", "record the run in this SQLite journal")

	return cmd
}

func runMerge(cmd *cobra.Command, opts *MergeOptions, args []string) error {
	// stdout carries the document, so diagnostics stay quiet.
	logger := opts.Logger(cmd.ErrOrStderr(), opts.Output == "")

	resolver, err := opts.resolver()
	if err != nil {
		return WrapExitError(ExitFailure, "invalid merge rules", err)
	}

	mergeAt, err := yamlpath.Parse(opts.MergeAt)
	if err != nil {
		return WrapExitError(ExitFailure, "invalid --mergeat", err)
	}

	format, err := docio.ParseFormat(opts.DocumentFormat)
	if err != nil {
		return WrapExitError(ExitFailure, "invalid --document-format", err)
	}

	stdin := cmd.InOrStdin()
	engOpts := []engine.EngineOption{
		engine.WithLogger(logger),
		engine.WithStdin(stdin, isTerminal(stdin)),
		engine.WithStdout(cmd.OutOrStdout()),
	}

	if opts.Journal != "" {
		logger.Info("opening journal", "path", opts.Journal)
		st, err := store.Open(opts.Journal)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to open journal", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing journal", "error", closeErr)
			}
		}()
		engOpts = append(engOpts, engine.WithJournal(st))
	}

	eng := engine.New(resolver, nil, engOpts...)
	res, err := eng.Run(cmd.Context(), engine.Options{
		Sources: args,
		MergeAt: mergeAt,
		Format:  format,
		NoStdin: opts.NoStdin,
		Output:  opts.Output,
	})
	if err != nil {
		return WrapExitError(engine.ExitCode(err), "merge failed", err)
	}

	logger.Info("merge complete", "run", res.RunID, "sources", len(res.Sources), "documents", res.Documents, "changes", len(res.Changes))
	return nil
}

// resolver cascades the built-in defaults, the policy flags and the rule
// file, in that order.
func (o *MergeOptions) resolver() (*rules.Resolver, error) {
	command, err := config.CommandLayer(map[rules.Category]string{
		rules.Anchors: o.Anchors,
		rules.Arrays:  o.Arrays,
		rules.Hashes:  o.Hashes,
		rules.AoH:     o.AoH,
	})
	if err != nil {
		return nil, err
	}

	layers := []rules.Layer{command}
	if o.Config != "" {
		file, err := config.LoadLayer(o.Config)
		if err != nil {
			return nil, err
		}
		layers = append(layers, file)
	}
	return rules.NewResolver(layers...)
}

// isTerminal reports whether r is an interactive terminal. Readers that
// are not files never are.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
