package automaton

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/dekarrin/rezi"

	"github.com/dekarrin/nlquery/internal/grammar"
	"github.com/dekarrin/nlquery/internal/qerrors"
)

// wireTable is the on-disk/in-memory shape of a compiled StateTable:
// symbols are referenced by name rather than by pointer, since a decoded
// *grammar.Symbol must never be trusted as identical to the live Grammar's
// symbol of the same name (state comparisons like State.ShiftOn rely on
// pointer identity, per grammar.Grammar.SymbolFor's "one Symbol handle per
// name" contract). rehydrate re-resolves every name back against the
// Grammar that is about to own this table.
type wireTable struct {
	States    []wireState
	Terminals []string
}

type wireState struct {
	IsFinal    bool
	Reductions []wireReduction
	Shifts     []wireShift
}

type wireReduction struct {
	LHS       string
	RHS       []string
	IsBinary  bool
	PropsList []grammar.RuleProps
}

type wireShift struct {
	Symbol string
	Target int
}

func toWire(t *StateTable) wireTable {
	wt := wireTable{
		States:    make([]wireState, len(t.States)),
		Terminals: make([]string, len(t.Terminals)),
	}
	for i, sym := range t.Terminals {
		wt.Terminals[i] = sym.Name
	}
	for i, s := range t.States {
		ws := wireState{IsFinal: s.IsFinal}
		for _, r := range s.Reductions {
			wr := wireReduction{LHS: r.LHS.Name, IsBinary: r.IsBinary, PropsList: r.PropsList}
			wr.RHS = make([]string, len(r.RHS))
			for j, sym := range r.RHS {
				wr.RHS[j] = sym.Name
			}
			ws.Reductions = append(ws.Reductions, wr)
		}
		for _, sh := range s.Shifts {
			ws.Shifts = append(ws.Shifts, wireShift{Symbol: sh.Symbol.Name, Target: sh.Target})
		}
		wt.States[i] = ws
	}
	return wt
}

// rehydrate turns a decoded wireTable back into a StateTable whose every
// *grammar.Symbol pointer is shared with g, per grammar.Grammar.SymbolFor's
// identity contract.
func rehydrate(wt wireTable, g *grammar.Grammar) *StateTable {
	t := &StateTable{Grammar: g}
	t.Terminals = make([]*grammar.Symbol, len(wt.Terminals))
	for i, name := range wt.Terminals {
		t.Terminals[i] = g.SymbolFor(name)
	}
	t.States = make([]*State, len(wt.States))
	for i, ws := range wt.States {
		s := &State{IsFinal: ws.IsFinal}
		for _, wr := range ws.Reductions {
			r := Reduction{LHS: g.SymbolFor(wr.LHS), IsBinary: wr.IsBinary, PropsList: wr.PropsList}
			r.RHS = make([]*grammar.Symbol, len(wr.RHS))
			for j, name := range wr.RHS {
				r.RHS[j] = g.SymbolFor(name)
			}
			s.Reductions = append(s.Reductions, r)
		}
		for _, wsh := range ws.Shifts {
			s.Shifts = append(s.Shifts, Shift{Symbol: g.SymbolFor(wsh.Symbol), Target: wsh.Target})
		}
		t.States[i] = s
	}
	return t
}

// Cache holds compiled StateTables keyed by their source grammar artifact's
// content hash (grammar.ContentHash), so a process that reloads the same
// artifact bytes can skip re-running Build. This persists only the result of
// compiling an already-read artifact; it never stores or mutates input.
// Grounded on server/dao/sqlite's rezi.EncBinary/DecBinary round-trip of
// game.State, generalized from a database blob column to a plain on-disk
// file per hash.
type Cache struct {
	dir string
	mu  sync.RWMutex
	mem map[string]*StateTable
}

// NewCache returns a Cache that also persists entries as files under dir (if
// dir is non-empty); dir is created on first Store if missing.
func NewCache(dir string) *Cache {
	return &Cache{dir: dir, mem: make(map[string]*StateTable)}
}

// Get returns the cached table for hash and g, checking memory first and
// falling back to disk. The returned table's symbols are always rehydrated
// against g, even for a memory hit from an earlier load of the same
// artifact bytes under a different *grammar.Grammar instance.
func (c *Cache) Get(hash string, g *grammar.Grammar) (*StateTable, bool) {
	c.mu.RLock()
	_, memHit := c.mem[hash]
	c.mu.RUnlock()

	if !memHit && c.dir != "" {
		data, err := os.ReadFile(filepath.Join(c.dir, hash+".bin"))
		if err != nil {
			return nil, false
		}
		var wt wireTable
		if _, err := rezi.DecBinary(data, &wt); err != nil {
			return nil, false
		}
		return rehydrate(wt, g), true
	}

	if !memHit {
		return nil, false
	}

	c.mu.RLock()
	wt := toWire(c.mem[hash])
	c.mu.RUnlock()
	return rehydrate(wt, g), true
}

// Store records t under hash, in memory and (if configured) on disk.
func (c *Cache) Store(hash string, t *StateTable) error {
	c.mu.Lock()
	c.mem[hash] = t
	c.mu.Unlock()

	if c.dir == "" {
		return nil
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return qerrors.WrapFatal(err, "automaton cache", "creating cache directory "+c.dir)
	}
	wt := toWire(t)
	data := rezi.EncBinary(&wt)
	path := filepath.Join(c.dir, hash+".bin")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return qerrors.WrapFatal(err, "automaton cache", "writing cache file "+path)
	}
	return nil
}
