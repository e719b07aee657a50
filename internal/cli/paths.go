package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/yamlpath/internal/docio"
	"github.com/roach88/yamlpath/internal/search"
	"github.com/roach88/yamlpath/internal/yamlpath"
)

// PathsOptions holds flags for the paths command.
type PathsOptions struct {
	*RootOptions
	Searches       []string // search expressions
	PathSep        string   // dot or fslash
	KeyNames       bool     // search keys and values
	OnlyKeyNames   bool     // search keys only
	IgnoreKeyNames bool     // search values only (default)
	Aliases        bool     // report every alias
	OnlyAnchors    bool     // report only the anchor (default)
}

// NewPathsCommand creates the paths command.
func NewPathsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PathsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "paths -s EXPRESSION [flags] YAML_FILE [YAML_FILE...]",
		Short: "Print the paths of matching nodes",
		Long: `Print the YAML Path of every key or value matching a search expression.

An expression is [!]OPERATOR TERM where OPERATOR is one of
  =  equals       ^  starts with   $  ends with     %  contains
  <  less than    >  greater than  <= at most       >= at least
  =~ matches the /regular expression/
A leading ! inverts the match.

Output lines are prefixed with the file and the expression only when more
than one of each is given.

Exit codes:
  0 - Success
  1 - Invalid options, or a source cannot be read
  3 - A source failed to parse (remaining sources are still searched)

Examples:
  yamlpath paths -s =admin users.yaml
  yamlpath paths -t fslash -s '^team' -s '=~/ops$/' a.yaml b.yaml
  yamlpath paths -k -s =port services.yaml`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPaths(cmd, opts, args)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Searches, "search", "s", nil, "the search expression; can be set more than once")
	cmd.Flags().StringVarP(&opts.PathSep, "pathsep", "t", "dot", "path separator for results (dot|fslash)")
	cmd.Flags().BoolVarP(&opts.IgnoreKeyNames, "ignorekeynames", "i", false, "(default) do not search key names")
	cmd.Flags().BoolVarP(&opts.KeyNames, "keynames", "k", false, "search key names in addition to values and array elements")
	cmd.Flags().BoolVarP(&opts.OnlyKeyNames, "onlykeynames", "o", false, "only search key names")
	cmd.Flags().BoolVarP(&opts.OnlyAnchors, "onlyanchors", "c", false, "(default) include only the original anchor in results")
	cmd.Flags().BoolVarP(&opts.Aliases, "aliases", "a", false, "include anchor and duplicate aliases in results")

	_ = cmd.MarkFlagRequired("search")
	cmd.MarkFlagsMutuallyExclusive("ignorekeynames", "keynames", "onlykeynames")
	cmd.MarkFlagsMutuallyExclusive("onlyanchors", "aliases")

	return cmd
}

func runPaths(cmd *cobra.Command, opts *PathsOptions, args []string) error {
	logger := opts.Logger(cmd.ErrOrStderr(), false)

	sep, err := yamlpath.ParseSeparator(opts.PathSep)
	if err != nil || sep == yamlpath.Auto {
		return NewExitError(ExitFailure, fmt.Sprintf("invalid --pathsep %q: must be dot or fslash", opts.PathSep))
	}

	terms := make([]*yamlpath.SearchTerms, len(opts.Searches))
	for i, expr := range opts.Searches {
		t, err := yamlpath.ParseSearch(expr)
		if err != nil {
			return WrapExitError(ExitFailure, "invalid search expression", err)
		}
		terms[i] = t
	}

	searchOpts := search.Options{
		SearchKeys:     opts.KeyNames || opts.OnlyKeyNames,
		SearchValues:   !opts.OnlyKeyNames,
		IncludeAliases: opts.Aliases,
	}
	p := &printer{
		w:         cmd.OutOrStdout(),
		sep:       sep,
		manyFiles: len(args) > 1,
		manyExprs: len(opts.Searches) > 1,
	}

	exit := ExitSuccess
	failed := 0
	for _, file := range args {
		src, err := docio.Load(file, docio.OpenFile, cmd.InOrStdin())
		if err != nil {
			logger.Error("cannot search source", "source", file, "error", err)
			failed++
			if docio.IsParseError(err) {
				exit = ExitParse
			} else {
				exit = ExitFailure
			}
			continue
		}

		for i, t := range terms {
			for _, doc := range src.Documents {
				it := search.Match(doc, t, searchOpts)
				for loc, ok := it.Next(); ok; loc, ok = it.Next() {
					p.print(file, opts.Searches[i], loc)
				}
			}
		}
		logger.Debug("source searched", "source", file, "documents", len(src.Documents))
	}

	if exit != ExitSuccess {
		return NewExitError(exit, fmt.Sprintf("%d source(s) could not be searched", failed))
	}
	return nil
}

// printer writes result lines in the shortest form that stays
// unambiguous for the number of files and expressions searched.
type printer struct {
	w         io.Writer
	sep       yamlpath.Separator
	manyFiles bool
	manyExprs bool
}

func (p *printer) print(file, expr string, loc yamlpath.Locator) {
	path := loc.Render(p.sep)
	switch {
	case p.manyFiles && p.manyExprs:
		fmt.Fprintf(p.w, "%s[%s]: %s\n", file, expr, path)
	case p.manyFiles:
		fmt.Fprintf(p.w, "%s: %s\n", file, path)
	case p.manyExprs:
		fmt.Fprintf(p.w, "[%s]: %s\n", expr, path)
	default:
		fmt.Fprintln(p.w, path)
	}
}
