package forest

import (
	"strconv"
	"strings"

	"github.com/dekarrin/nlquery/internal/automaton"
	"github.com/dekarrin/nlquery/internal/grammar"
	"github.com/dekarrin/nlquery/internal/semantic"
)

// IntPlaceholder is the well-known symbol name of the <int> placeholder.
const IntPlaceholder = "<int>"

// Result is the outcome of one Parse call.
type Result struct {
	Root         *Node
	Accepted     bool
	DeletionCost float64 // extra cost charged for skipped unrecognized tokens
	Arena        *Arena
}

// Parser runs the generalized bottom-up parse over a tokenized query,
// producing a shared packed parse forest rooted at the accepting state.
type Parser struct {
	table       *automaton.StateTable
	opts        Options
	literalsByW map[int]map[string][]*grammar.Symbol // width -> normalized phrase -> terminals
	intSymbol   *grammar.Symbol
	entityCats  map[string]*grammar.Symbol // category name -> placeholder symbol
	entityIdx   map[string]*EntityIndex
	maxLitWidth int
}

// NewParser builds the literal/placeholder/entity lookup tables once per
// compiled grammar, so repeated Parse calls share them read-only. A symbol
// counts as a literal terminal if it's never the LHS of any rule; literals
// never need an explicit is_terminal declaration in the artifact (a
// multi-word literal's width defaults to its word count), only placeholders
// and an explicit token_width do.
func NewParser(table *automaton.StateTable, opts Options) *Parser {
	p := &Parser{
		table:       table,
		opts:        opts,
		literalsByW: make(map[int]map[string][]*grammar.Symbol),
		entityCats:  make(map[string]*grammar.Symbol),
		entityIdx:   BuildEntityIndex(table.Grammar),
	}

	g := table.Grammar
	for _, sym := range g.Symbols {
		if sym.Placeholder {
			if sym.Name == IntPlaceholder {
				p.intSymbol = sym
			} else {
				p.entityCats[sym.Name] = sym
			}
			continue
		}
		if len(g.Rules[sym.Name]) > 0 {
			continue // nonterminal
		}

		width := sym.TokenWidth
		if width < 1 {
			width = len(strings.Fields(sym.Name))
		}
		if width < 1 {
			width = 1
		}
		if width > p.maxLitWidth {
			p.maxLitWidth = width
		}
		byPhrase, ok := p.literalsByW[width]
		if !ok {
			byPhrase = make(map[string][]*grammar.Symbol)
			p.literalsByW[width] = byPhrase
		}
		key := normalizePhrase(sym.Name)
		byPhrase[key] = append(byPhrase[key], sym)
	}

	return p
}

func normalizePhrase(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// Parse runs the core shift/reduce loop over query, retrying with
// unrecognized tokens deleted if the strict pass doesn't reach acceptance.
func (p *Parser) Parse(query string) Result {
	tokens := Tokenize(query)

	res := p.parseTokens(tokens)
	if res.Accepted || len(tokens) == 0 {
		return res
	}

	filtered, dropped := p.dropUnrecognized(tokens)
	if dropped == 0 {
		return res
	}
	retry := p.parseTokens(filtered)
	if retry.Accepted {
		retry.DeletionCost = float64(dropped) * p.opts.DeletionCost
		return retry
	}
	return res
}

func (p *Parser) dropUnrecognized(tokens []Token) ([]Token, int) {
	var kept []Token
	dropped := 0
	for i := range tokens {
		if p.recognizedAt(tokens, i) {
			kept = append(kept, tokens[i])
		} else {
			dropped++
		}
	}
	return kept, dropped
}

func (p *Parser) recognizedAt(tokens []Token, pos int) bool {
	if len(p.matchLiterals(tokens, pos)) > 0 {
		return true
	}
	if _, _, ok := p.matchInt(tokens, pos); ok {
		return true
	}
	for cat := range p.entityCats {
		if len(p.entityIdx[cat].Lookup(tokens, pos, p.opts.MaxEntityWindow, p.opts.EntityScoreThreshold, p.opts.EntityCostScale)) > 0 {
			return true
		}
	}
	return false
}

type terminalMatch struct {
	symbol *grammar.Symbol
	width  int
}

func (p *Parser) matchLiterals(tokens []Token, pos int) []terminalMatch {
	var matches []terminalMatch
	for width := p.maxLitWidth; width >= 1; width-- {
		if pos+width > len(tokens) {
			continue
		}
		words := make([]string, width)
		for i := 0; i < width; i++ {
			words[i] = tokens[pos+i].Normalized
		}
		phrase := strings.Join(words, " ")
		for _, sym := range p.literalsByW[width][phrase] {
			matches = append(matches, terminalMatch{symbol: sym, width: width})
		}
	}
	return matches
}

// matchInt matches a numeric literal token against the <int> placeholder.
func (p *Parser) matchInt(tokens []Token, pos int) (string, bool, bool) {
	if p.intSymbol == nil || pos >= len(tokens) {
		return "", false, false
	}
	tok := tokens[pos].Normalized
	candidate := tok
	if strings.HasPrefix(candidate, "-") {
		if !p.opts.AllowNegativeIntegers {
			return "", false, false
		}
		candidate = candidate[1:]
	}
	if candidate == "" {
		return "", false, false
	}
	if _, err := strconv.Atoi(candidate); err != nil {
		return "", false, false
	}
	return tok, true, true
}

// parseTokens runs the core shift/reduce loop once, without retrying.
func (p *Parser) parseTokens(tokens []Token) Result {
	arena := NewArena()
	gss := NewGSS()
	queue := newReductionQueue()

	// The start vertex has no predecessor edges yet, so it has nothing to
	// reduce from; its state's own reductions (if any) only become
	// reachable once a shift links in a real z-edge.
	gss.GetOrCreateVertex(0, 0)

	for pos := 0; pos < len(tokens); pos++ {
		p.drainReductions(gss, arena, queue)
		if !p.shiftPhase(gss, arena, tokens, pos, queue) {
			return Result{Accepted: false, Arena: arena}
		}
	}
	p.drainReductions(gss, arena, queue)

	for _, vid := range gss.VerticesAt(len(tokens)) {
		v := gss.Vertex(vid)
		if !p.table.States[v.State].IsFinal {
			continue
		}
		if len(v.Edges) != 1 {
			continue
		}
		edge := gss.Edge(v.Edges[0])
		return Result{Root: arena.Get(edge.Node), Accepted: true, Arena: arena}
	}
	return Result{Accepted: false, Arena: arena}
}

// shiftPhase matches every terminal possibility at pos and shifts them from
// every currently-active vertex. Returns false if no token at pos matched
// anything at all (a hard failure for a strict, non-deletion-permitting
// pass).
func (p *Parser) shiftPhase(gss *GSS, arena *Arena, tokens []Token, pos int, queue *reductionQueue) bool {
	active := gss.VerticesAt(pos)
	if len(active) == 0 {
		return false
	}

	anyMatch := false

	for _, m := range p.matchLiterals(tokens, pos) {
		anyMatch = true
		surface := make([]string, m.width)
		for i := 0; i < m.width; i++ {
			surface[i] = tokens[pos+i].Surface
		}
		node := arena.GetOrCreate(m.symbol, pos, m.width)
		node.Lexeme = strings.Join(surface, " ")
		p.shiftFromActive(gss, queue, active, m.symbol, node, pos+m.width)
	}

	if lit, _, ok := p.matchInt(tokens, pos); ok {
		anyMatch = true
		node := arena.GetOrCreate(p.intSymbol, pos, 1)
		node.Lexeme = tokens[pos].Surface
		node.leafSemanticName = lit
		node.hasLeafSemantic = true
		p.shiftFromActive(gss, queue, active, p.intSymbol, node, pos+1)
	}

	for cat, sym := range p.entityCats {
		for _, em := range p.entityIdx[cat].Lookup(tokens, pos, p.opts.MaxEntityWindow, p.opts.EntityScoreThreshold, p.opts.EntityCostScale) {
			anyMatch = true
			node := arena.GetOrCreate(sym, pos, em.Width)
			surface := make([]string, em.Width)
			for i := 0; i < em.Width; i++ {
				surface[i] = tokens[pos+i].Surface
			}
			node.Lexeme = strings.Join(surface, " ")
			node.leafSemanticName = em.Canonical
			node.hasLeafSemantic = true
			node.MinCost = em.Cost
			p.shiftFromActive(gss, queue, active, sym, node, pos+em.Width)
		}
	}

	return anyMatch
}

func (p *Parser) shiftFromActive(gss *GSS, queue *reductionQueue, active []VertexID, sym *grammar.Symbol, node *Node, targetPos int) {
	for _, vid := range active {
		v := gss.Vertex(vid)
		target, exists := v.stateShiftTarget(p.table, sym)
		if !exists {
			continue
		}
		to, _ := gss.GetOrCreateVertex(target, targetPos)
		edge, isNew := gss.AddEdge(to, vid, node.ID)
		if isNew {
			p.enqueueStateReductions(queue, target, to.ID, edge.ID)
		}
	}
}

func (v *Vertex) stateShiftTarget(table *automaton.StateTable, sym *grammar.Symbol) (int, bool) {
	return table.States[v.State].ShiftOn(sym)
}

// enqueueStateReductions queues every reduction of state against the exact
// z-edge that was just newly linked into vid, never inferred from vid's
// edge list, since an existing vertex can carry unrelated edges already.
func (p *Parser) enqueueStateReductions(queue *reductionQueue, state int, vid VertexID, edge ZEdgeID) {
	for _, red := range p.table.States[state].Reductions {
		queue.push(pendingReduction{edge: edge, owner: vid, reduction: red})
	}
}

// pendingReduction is a queued action: a z-node plus the reduction it may
// complete.
type pendingReduction struct {
	edge      ZEdgeID
	owner     VertexID
	reduction automaton.Reduction
}

type reductionQueue struct {
	items []pendingReduction
}

func newReductionQueue() *reductionQueue {
	return &reductionQueue{}
}

func (q *reductionQueue) push(pr pendingReduction) {
	q.items = append(q.items, pr)
}

func (q *reductionQueue) pop() (pendingReduction, bool) {
	if len(q.items) == 0 {
		return pendingReduction{}, false
	}
	pr := q.items[0]
	q.items = q.items[1:]
	return pr, true
}

// drainReductions processes the pending-reduction queue in FIFO order until
// empty, which may itself enqueue more entries.
func (p *Parser) drainReductions(gss *GSS, arena *Arena, queue *reductionQueue) {
	for {
		pr, ok := queue.pop()
		if !ok {
			return
		}
		p.completeReduction(gss, arena, queue, pr)
	}
}

type gssPath struct {
	origin VertexID
	nodes  []NodeID
}

// walkPaths enumerates every GSS path of length stepsRemaining+1 ending at
// edge, collecting child nodes in left-to-right order.
func (p *Parser) walkPaths(gss *GSS, edgeID ZEdgeID, stepsRemaining int) []gssPath {
	edge := gss.Edge(edgeID)
	if stepsRemaining == 0 {
		paths := make([]gssPath, len(edge.Predecessors))
		for i, pred := range edge.Predecessors {
			paths[i] = gssPath{origin: pred, nodes: []NodeID{edge.Node}}
		}
		return paths
	}

	var out []gssPath
	for _, pred := range edge.Predecessors {
		predVertex := gss.Vertex(pred)
		for _, e2 := range predVertex.Edges {
			for _, sub := range p.walkPaths(gss, e2, stepsRemaining-1) {
				out = append(out, gssPath{
					origin: sub.origin,
					nodes:  append(append([]NodeID(nil), sub.nodes...), edge.Node),
				})
			}
		}
	}
	return out
}

func (p *Parser) completeReduction(gss *GSS, arena *Arena, queue *reductionQueue, pr pendingReduction) {
	steps := len(pr.reduction.RHS) - 1
	ownerPos := gss.Vertex(pr.owner).Pos

	for _, path := range p.walkPaths(gss, pr.edge, steps) {
		originVertex := gss.Vertex(path.origin)
		lhsNode := arena.GetOrCreate(pr.reduction.LHS, originVertex.Pos, ownerPos-originVertex.Pos)

		sub := SubAlt{First: path.nodes[0], Second: NoNode, Props: pr.reduction.PropsList}
		if len(path.nodes) > 1 {
			sub.Second = path.nodes[1]
		}
		lhsNode.AddSub(sub)

		target, exists := originVertex.stateShiftTarget(p.table, pr.reduction.LHS)
		if !exists {
			continue
		}
		to, _ := gss.GetOrCreateVertex(target, ownerPos)
		edge, isNew := gss.AddEdge(to, path.origin, lhsNode.ID)
		if isNew {
			p.enqueueStateReductions(queue, target, to.ID, edge.ID)
		}
	}
}

// SemanticArgFor exposes a terminal leaf's semantic argument as a
// *semantic.Semantic, used by the search package when expanding a terminal
// sub-alternative whose node carries a placeholder-derived leaf semantic
// rather than a rule-supplied one.
func SemanticArgFor(n *Node) *semantic.Semantic {
	name, ok := n.LeafSemanticName()
	if !ok {
		return nil
	}
	return semantic.Leaf(name)
}
