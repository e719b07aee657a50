package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/roach88/yamlpath/internal/docio"
	"github.com/roach88/yamlpath/internal/ir"
	"github.com/roach88/yamlpath/internal/merge"
	"github.com/roach88/yamlpath/internal/rules"
	"github.com/roach88/yamlpath/internal/store"
	"github.com/roach88/yamlpath/internal/yamlpath"
)

// Journal records successful runs. Implemented by *store.Store.
type Journal interface {
	WriteRun(ctx context.Context, run store.Run, changes []store.Change) error
}

// State is a step of the orchestration state machine.
type State int

const (
	StateInit State = iota
	StateLoadPrime
	StateMergeNextSource
	StateMaybeDrainStdin
	StateEmit
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateLoadPrime:
		return "LOAD_PRIME"
	case StateMergeNextSource:
		return "MERGE_NEXT_SOURCE"
	case StateMaybeDrainStdin:
		return "MAYBE_DRAIN_STDIN"
	case StateEmit:
		return "EMIT"
	case StateDone:
		return "DONE"
	case StateFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Options describes one merge run.
type Options struct {
	// Sources are merged left to right; the first is the prime source.
	// docio.Stdin names standard input.
	Sources []string

	// MergeAt addresses the subtree of the prime that documents merge
	// into. The zero Locator is the root.
	MergeAt yamlpath.Locator

	// Format of the output; empty or docio.FormatAuto uses the format
	// of the prime source.
	Format docio.Format

	// NoStdin disables reading standard input unless it is named.
	NoStdin bool

	// Output names a file to create; it must not exist. Empty writes to
	// the engine's stdout.
	Output string
}

// Result describes a successful run.
type Result struct {
	RunID    string
	Document *ir.Document
	Format   docio.Format

	// Sources lists every source read, in merge order.
	Sources []string

	// Documents counts the right-hand documents merged into the prime.
	Documents int

	// Changes lists every merge decision, ordered by Seq.
	Changes []store.Change
}

// Engine runs merges. An Engine holds no per-run state and may run any
// number of merges, one at a time.
type Engine struct {
	resolver      *rules.Resolver
	runIDs        RunIDGenerator
	logger        *slog.Logger
	open          docio.Opener
	stdin         io.Reader
	stdinTerminal bool
	stdout        io.Writer
	create        func(name string) (io.WriteCloser, error)
	journal       Journal
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithLogger sets the logger for state transitions and merge progress.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithOpener replaces the function that opens named sources.
func WithOpener(open docio.Opener) EngineOption {
	return func(e *Engine) {
		e.open = open
	}
}

// WithStdin sets the standard-input source. terminal reports whether r is
// an interactive terminal, which is never read unless named.
func WithStdin(r io.Reader, terminal bool) EngineOption {
	return func(e *Engine) {
		e.stdin = r
		e.stdinTerminal = terminal
	}
}

// WithStdout sets the sink used when Options.Output is empty.
func WithStdout(w io.Writer) EngineOption {
	return func(e *Engine) {
		e.stdout = w
	}
}

// WithJournal records every successful run in j.
func WithJournal(j Journal) EngineOption {
	return func(e *Engine) {
		e.journal = j
	}
}

// New creates an Engine that merges under resolver's policies.
// A nil runIDs uses UUIDv7Generator.
func New(resolver *rules.Resolver, runIDs RunIDGenerator, opts ...EngineOption) *Engine {
	if runIDs == nil {
		runIDs = UUIDv7Generator{}
	}
	e := &Engine{
		resolver:      resolver,
		runIDs:        runIDs,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		open:          docio.OpenFile,
		stdinTerminal: true,
		stdout:        os.Stdout,
		create:        createExclusive,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run merges opts.Sources and writes the result.
//
// Nothing is written to the output or the journal unless every document
// merged. Errors are *ValidationError, *SourceError or the context's
// error.
func (e *Engine) Run(ctx context.Context, opts Options) (*Result, error) {
	r := &run{
		Engine: e,
		opts:   opts,
		id:     e.runIDs.Generate(),
		state:  StateInit,
		queue:  newDocumentQueue(),
		clock:  NewClock(),
	}

	r.logger = e.logger.With("run", r.id)
	for {
		switch r.state {
		case StateDone:
			return r.result(), nil
		case StateFailed:
			return nil, r.err
		}
		r.step(ctx)
	}
}

// run holds the state of one Engine.Run call.
type run struct {
	*Engine
	opts   Options
	id     string
	state  State
	err    error
	logger *slog.Logger

	prime     string
	remaining []string
	read      []string
	stdinUsed bool
	format    docio.Format

	queue   *documentQueue
	merger  *merge.Merger
	current pending
	merged  int
	clock   *Clock
	changes []store.Change
}

func (r *run) step(ctx context.Context) {
	if err := ctx.Err(); err != nil {
		r.fail(err)
		return
	}

	var next State
	var err error
	switch r.state {
	case StateInit:
		next, err = r.validate()
	case StateLoadPrime:
		next, err = r.loadPrime()
	case StateMergeNextSource:
		next, err = r.mergeNext()
	case StateMaybeDrainStdin:
		next, err = r.drainStdin()
	case StateEmit:
		next, err = r.emit(ctx)
	default:
		err = fmt.Errorf("engine: no step for state %s", r.state)
	}
	if err != nil {
		r.fail(err)
		return
	}
	if next != r.state {
		r.logger.Debug("state transition", "from", r.state, "to", next)
	}
	r.state = next
}

func (r *run) fail(err error) {
	r.logger.Debug("state transition", "from", r.state, "to", StateFailed, "error", err)
	r.state = StateFailed
	r.err = err
}

// validate checks the source list. It opens nothing.
func (r *run) validate() (State, error) {
	sources := r.opts.Sources

	stdins := 0
	for _, s := range sources {
		if s == docio.Stdin {
			stdins++
		}
	}
	if stdins > 1 {
		return StateFailed, &ValidationError{
			Code:    ErrCodeDuplicateStdin,
			Message: "standard input may be named only once",
		}
	}

	switch len(sources) {
	case 0:
		return StateFailed, tooFewSources("at least two sources are required")
	case 1:
		switch {
		case sources[0] == docio.Stdin:
			return StateFailed, tooFewSources("at least two sources are required; standard input cannot be merged with itself")
		case r.opts.NoStdin:
			return StateFailed, tooFewSources("at least two sources are required when standard input is disabled")
		case r.stdinInteractive():
			return StateFailed, tooFewSources("at least two sources are required; pipe a document to standard input or name another source")
		}
		r.logger.Info("reading the right-hand document from standard input")
		sources = []string{sources[0], docio.Stdin}
	}

	if r.opts.Output != "" {
		if _, err := os.Stat(r.opts.Output); err == nil {
			return StateFailed, &ValidationError{
				Code:    ErrCodeOutputExists,
				Message: fmt.Sprintf("output file %s already exists", r.opts.Output),
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return StateFailed, &ValidationError{
				Code:    ErrCodeOutputExists,
				Message: fmt.Sprintf("cannot check output file %s: %v", r.opts.Output, err),
			}
		}
	}

	r.prime = sources[0]
	r.remaining = sources[1:]
	return StateLoadPrime, nil
}

func (r *run) stdinInteractive() bool {
	return r.stdin == nil || r.stdinTerminal
}

func (r *run) load(name string) (*docio.Source, error) {
	if name == docio.Stdin {
		r.stdinUsed = true
	}
	src, err := docio.Load(name, r.open, r.stdin)
	if err != nil {
		return nil, err
	}
	r.read = append(r.read, name)
	return src, nil
}

func (r *run) loadPrime() (State, error) {
	src, err := r.load(r.prime)
	if err != nil {
		return StateFailed, &SourceError{Source: r.prime, Document: -1, Prime: true, Err: err}
	}
	if len(src.Documents) == 0 || docio.IsEmpty(src.Documents[0]) {
		return StateFailed, &ValidationError{
			Code:    ErrCodeEmptyPrime,
			Message: fmt.Sprintf("%s: the prime document is empty", r.prime),
		}
	}

	r.format = r.opts.Format
	if r.format == "" || r.format == docio.FormatAuto {
		r.format = src.Format
	}
	r.merger = merge.New(src.Documents[0], r.resolver,
		merge.WithMergeAt(r.opts.MergeAt),
		merge.WithLogger(r.logger),
		merge.WithObserver(r.observe),
	)

	if n := r.queue.EnqueueSource(src, 1); n > 0 {
		r.logger.Debug("queued remaining prime documents", "source", r.prime, "documents", n)
	}
	r.logger.Info("loaded prime document", "source", r.prime, "format", src.Format)
	return StateMergeNextSource, nil
}

// mergeNext merges one queued document, or loads the next source when the
// queue is empty.
func (r *run) mergeNext() (State, error) {
	if p, ok := r.queue.TryDequeue(); ok {
		return StateMergeNextSource, r.mergeDocument(p)
	}
	if len(r.remaining) == 0 {
		return StateMaybeDrainStdin, nil
	}

	name := r.remaining[0]
	r.remaining = r.remaining[1:]
	src, err := r.load(name)
	if err != nil {
		return StateFailed, &SourceError{Source: name, Document: -1, Err: err}
	}
	r.queue.EnqueueSource(src, 0)
	return StateMergeNextSource, nil
}

func (r *run) mergeDocument(p pending) error {
	doc := p.Document()
	if docio.IsEmpty(doc) {
		r.logger.Debug("skipping empty document", "source", p.Source.Name, "document", p.Index+1)
		return nil
	}

	r.current = p
	r.logger.Info("merging document", "source", p.Source.Name, "document", p.Index+1)
	if err := r.merger.MergeWith(doc); err != nil {
		return &SourceError{
			Source:   p.Source.Name,
			Document: p.Index,
			Multi:    p.Source.MultiDocument(),
			Err:      err,
		}
	}
	r.merged++
	return nil
}

func (r *run) observe(c merge.Change) {
	r.changes = append(r.changes, store.Change{
		RunID:    r.id,
		Seq:      r.clock.Next(),
		Source:   r.current.Source.Name,
		Document: r.current.Index,
		Location: c.Location.Render(yamlpath.Slash),
		Action:   string(c.Action),
		Policy:   string(c.Policy),
		Detail:   c.Detail,
	})
}

// drainStdin queues unread, non-interactive standard input as a final
// source.
func (r *run) drainStdin() (State, error) {
	if r.stdinUsed || r.opts.NoStdin || r.stdinInteractive() {
		return StateEmit, nil
	}
	src, err := r.load(docio.Stdin)
	if err != nil {
		return StateFailed, &SourceError{Source: docio.Stdin, Document: -1, Err: err}
	}
	if r.queue.EnqueueSource(src, 0) == 0 {
		return StateEmit, nil
	}
	r.logger.Debug("merging pending standard input", "documents", len(src.Documents))
	return StateMergeNextSource, nil
}

func (r *run) emit(ctx context.Context) (State, error) {
	var buf bytes.Buffer
	if err := docio.Emit(&buf, r.merger.Document(), r.format); err != nil {
		return StateFailed, err
	}
	if err := r.write(buf.Bytes()); err != nil {
		return StateFailed, err
	}

	if r.journal != nil {
		entry := store.Run{
			ID:        r.id,
			Sources:   r.read,
			Format:    string(r.format),
			MergeAt:   r.opts.MergeAt.Render(yamlpath.Slash),
			Documents: r.merged,
		}
		if err := r.journal.WriteRun(ctx, entry, r.changes); err != nil {
			return StateFailed, fmt.Errorf("journal: %w", err)
		}
		r.logger.Debug("journal written", "changes", len(r.changes))
	}
	return StateDone, nil
}

func (r *run) write(data []byte) error {
	if r.opts.Output == "" {
		_, err := r.stdout.Write(data)
		return err
	}
	w, err := r.create(r.opts.Output)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("write output: %w", err)
	}
	return w.Close()
}

func (r *run) result() *Result {
	changes := r.changes
	if changes == nil {
		changes = []store.Change{}
	}
	return &Result{
		RunID:     r.id,
		Document:  r.merger.Document(),
		Format:    r.format,
		Sources:   r.read,
		Documents: r.merged,
		Changes:   changes,
	}
}

func createExclusive(name string) (io.WriteCloser, error) {
	return os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
}
