// Package nlquery is the public facade over the natural-language query
// understanding core: load a compiled grammar artifact once, then parse any
// number of queries against it. Grounded on engine.go's Engine/New shape —
// a struct built once from on-disk input, exposing the operations callers
// actually need rather than the packages that implement them.
package nlquery

import (
	"io"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/dekarrin/nlquery/internal/automaton"
	"github.com/dekarrin/nlquery/internal/forest"
	"github.com/dekarrin/nlquery/internal/grammar"
	"github.com/dekarrin/nlquery/internal/heuristic"
	"github.com/dekarrin/nlquery/internal/qerrors"
	"github.com/dekarrin/nlquery/internal/result"
	"github.com/dekarrin/nlquery/internal/search"
)

// Engine holds one compiled grammar and its automaton, ready to parse
// queries against it: process-wide immutable data loaded once at startup.
// An Engine is safe for concurrent use by multiple goroutines: Parse
// allocates a fresh per-query arena and never mutates the Engine.
type Engine struct {
	grammar *grammar.Grammar
	table   *automaton.StateTable
	cache   *automaton.Cache
	opts    forest.Options
	k       int
	timeout time.Duration
	log     *log.Logger
}

const defaultK = 7

// Option configures an Engine at Load time.
type Option func(*Engine)

// WithCacheDir enables the compiled-automaton cache, persisting compiled
// StateTables under dir keyed by grammar-artifact content hash so repeat
// Loads of the same artifact skip rebuilding the automaton.
func WithCacheDir(dir string) Option {
	return func(eng *Engine) {
		eng.cache = automaton.NewCache(dir)
	}
}

// WithParserOptions overrides the parser's deletion-cost and placeholder
// knobs; the default is forest.DefaultOptions().
func WithParserOptions(o forest.Options) Option {
	return func(eng *Engine) { eng.opts = o }
}

// WithDefaultK sets the k used by Parse calls that pass k <= 0.
func WithDefaultK(k int) Option {
	return func(eng *Engine) {
		if k > 0 {
			eng.k = k
		}
	}
}

// WithSearchTimeout bounds how long a single Parse call's k-best search may
// run before returning the best trees found so far instead of the full
// requested k. A zero timeout (the default) means no bound.
func WithSearchTimeout(d time.Duration) Option {
	return func(eng *Engine) { eng.timeout = d }
}

// WithLogger directs the Engine's decision-point logging (grammar load,
// cache hits/misses, parse summaries) to l instead of discarding it.
func WithLogger(l *log.Logger) Option {
	return func(eng *Engine) { eng.log = l }
}

// Load reads a grammar artifact from path and compiles it into a ready
// Engine.
func Load(path string, opts ...Option) (*Engine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, qerrors.WrapFatal(err, "grammar load error", "reading artifact file "+path)
	}
	return LoadBytes(data, opts...)
}

// LoadBytes is Load without a filesystem round trip, for artifacts already
// held in memory (e.g. embedded or fetched from the server's config).
func LoadBytes(data []byte, opts ...Option) (*Engine, error) {
	g, err := grammar.LoadBytes(data)
	if err != nil {
		return nil, err
	}

	eng := &Engine{
		grammar: g,
		opts:    forest.DefaultOptions(),
		k:       defaultK,
		log:     log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(eng)
	}

	hash := grammar.ContentHash(data)
	if eng.cache != nil {
		if tbl, ok := eng.cache.Get(hash, g); ok {
			eng.log.Printf("nlquery: loaded compiled automaton for %s from cache", hash)
			eng.table = tbl
		} else {
			eng.log.Printf("nlquery: no cached automaton for %s, building it", hash)
		}
	}

	if eng.table == nil {
		tbl, err := automaton.Build(g)
		if err != nil {
			return nil, err
		}
		eng.table = tbl
		if eng.cache != nil {
			if err := eng.cache.Store(hash, tbl); err != nil {
				eng.log.Printf("nlquery: failed to persist compiled automaton for %s: %v", hash, err)
			}
		}
	}

	eng.log.Printf("nlquery: grammar loaded, start symbol %q, %d terminal(s)", g.Start, len(g.Terminals()))
	return eng, nil
}

// Parse runs the full pipeline — generalized parse, heuristic annotation,
// k-best search, result assembly — against query. k <= 0 uses the Engine's
// configured default.
func (eng *Engine) Parse(query string, k int) result.ParseResults {
	if k <= 0 {
		k = eng.k
	}

	start := time.Now()
	p := forest.NewParser(eng.table, eng.opts)
	res := p.Parse(query)
	if !res.Accepted {
		elapsed := time.Since(start)
		eng.log.Printf("nlquery: %q failed to parse in %s", query, elapsed)
		return result.ParseResults{
			QueryID:   uuid.New(),
			Query:     query,
			ParseTime: elapsed,
			Message:   qerrors.MsgFailedToReachStart,
		}
	}

	heuristic.Annotate(res.Arena)
	var budget search.Budget
	if eng.timeout > 0 {
		budget.Deadline = start.Add(eng.timeout)
	}
	pr := result.AssembleWithBudget(res.Arena, res.Root.ID, query, k, time.Since(start), budget)
	eng.log.Printf("nlquery: %q produced %d tree(s) in %s", query, len(pr.Trees), pr.ParseTime)
	return pr
}

// Grammar exposes the loaded grammar model, for callers (e.g. cmd/nlqi's
// REPL) that want to introspect entity categories or semantic functions
// without re-reading the artifact.
func (eng *Engine) Grammar() *grammar.Grammar {
	return eng.grammar
}
