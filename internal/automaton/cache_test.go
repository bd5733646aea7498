package automaton

import (
	"path/filepath"
	"testing"

	"github.com/dekarrin/nlquery/internal/grammar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cacheTestArtifact = `
start_symbol = "S"

[[grammar.S]]
rhs = ["RI", "like"]
cost = 2

[[grammar.RI]]
rhs = ["repos", "I"]
cost = 3
`

func Test_Cache_memoryRoundTrip(t *testing.T) {
	g, err := grammar.LoadBytes([]byte(cacheTestArtifact))
	require.NoError(t, err)
	tbl, err := Build(g)
	require.NoError(t, err)

	c := NewCache("")
	hash := grammar.ContentHash([]byte(cacheTestArtifact))
	require.NoError(t, c.Store(hash, tbl))

	got, ok := c.Get(hash, g)
	require.True(t, ok)
	require.Len(t, got.States, len(tbl.States))

	for i, s := range got.States {
 assert.Equal(t, tbl.States[i].IsFinal, s.IsFinal)
 assert.Len(t, s.Shifts, len(tbl.States[i].Shifts))
	}
}

func Test_Cache_rehydratedSymbolsShareGrammarIdentity(t *testing.T) {
	g, err := grammar.LoadBytes([]byte(cacheTestArtifact))
	require.NoError(t, err)
	tbl, err := Build(g)
	require.NoError(t, err)

	c := NewCache("")
	hash := grammar.ContentHash([]byte(cacheTestArtifact))
	require.NoError(t, c.Store(hash, tbl))

	got, ok := c.Get(hash, g)
	require.True(t, ok)

	for _, s := range got.States {
 for _, sh := range s.Shifts {
 assert.Same(t, g.SymbolFor(sh.Symbol.Name), sh.Symbol,
 "rehydrated shift symbol must be the exact pointer g.SymbolFor returns, not a decoded copy")
 }
	}
}

func Test_Cache_missReturnsFalse(t *testing.T) {
	c := NewCache("")
	_, ok := c.Get("nonexistent-hash", &grammar.Grammar{})
	assert.False(t, ok)
}

func Test_Cache_diskRoundTrip(t *testing.T) {
	g, err := grammar.LoadBytes([]byte(cacheTestArtifact))
	require.NoError(t, err)
	tbl, err := Build(g)
	require.NoError(t, err)

	dir := t.TempDir()
	c := NewCache(dir)
	hash := grammar.ContentHash([]byte(cacheTestArtifact))
	require.NoError(t, c.Store(hash, tbl))

	diskPath := filepath.Join(dir, hash+".bin")
	assert.FileExists(t, diskPath)

	// a fresh cache instance (simulating a new process) must still be able
	// to read the entry back from disk.
	fresh := NewCache(dir)
	got, ok := fresh.Get(hash, g)
	require.True(t, ok)
	assert.Len(t, got.States, len(tbl.States))
}
