package forest

import "github.com/dekarrin/nlquery/internal/util"

// VertexID is an arena index identifying a GSS vertex.
type VertexID int

// ZEdgeID is an arena index identifying a GSS z-node (edge).
type ZEdgeID int

// Vertex is a GSS vertex: a state and the input position it was created at,
// plus the z-nodes (edges) leading back to its predecessors. Identity
// within a single position is by state.
type Vertex struct {
	ID    VertexID
	State int
	Pos   int
	Edges []ZEdgeID
}

// ZEdge is an edge in the GSS labelled by an SPPF node: it belongs to one
// owner vertex and holds the set of predecessor vertices reached via that
// (owner, node) label.
type ZEdge struct {
	ID           ZEdgeID
	Owner        VertexID
	Node         NodeID
	Predecessors []VertexID
}

// GSS owns every vertex and z-node created during one parse; both arenas
// are scoped to a single query.
type GSS struct {
	vertices    []*Vertex
	edges       []*ZEdge
	vertexIndex util.VSet[VertexID]              // (state, pos) -> VertexID
	edgeIndex   map[VertexID]util.VSet[ZEdgeID] // owner -> (node key -> ZEdgeID)
}

// NewGSS returns an empty graph-structured stack.
func NewGSS() *GSS {
	return &GSS{
		vertexIndex: util.NewVSet[VertexID](),
		edgeIndex:   make(map[VertexID]util.VSet[ZEdgeID]),
	}
}

// Vertex returns the vertex for id.
func (g *GSS) Vertex(id VertexID) *Vertex {
	return g.vertices[id]
}

// Edge returns the z-node for id.
func (g *GSS) Edge(id ZEdgeID) *ZEdge {
	return g.edges[id]
}

// VerticesAt returns every vertex that exists at the given input position.
func (g *GSS) VerticesAt(pos int) []VertexID {
	var out []VertexID
	for _, v := range g.vertices {
		if v.Pos == pos {
			out = append(out, v.ID)
		}
	}
	return out
}

// GetOrCreateVertex finds-or-creates the vertex at (state, pos); a new
// vertex is merged with an existing one iff same state at same position.
func (g *GSS) GetOrCreateVertex(state, pos int) (*Vertex, bool) {
	key := util.Fingerprint(state, pos)
	if g.vertexIndex.Has(key) {
		return g.vertices[g.vertexIndex.Get(key)], false
	}
	v := &Vertex{ID: VertexID(len(g.vertices)), State: state, Pos: pos}
	g.vertices = append(g.vertices, v)
	g.vertexIndex.Set(key, v.ID)
	return v, true
}

// AddEdge adds an edge from `from` to a new-or-existing `to` vertex, labelled
// by labelNode, merging with any existing (owner, node) edge on `to` rather
// than duplicating it: a new z-node is merged iff same (owner, node); a
// predecessor list on a z-node is a set, not a multiset. Returns the edge
// and whether any reductions newly enqueued by the caller should run (true
// only the first time this predecessor is linked in).
func (g *GSS) AddEdge(to *Vertex, from VertexID, labelNode NodeID) (*ZEdge, bool) {
	byNode, ok := g.edgeIndex[to.ID]
	if !ok {
		byNode = util.NewVSet[ZEdgeID]()
		g.edgeIndex[to.ID] = byNode
	}

	key := util.Fingerprint(int(labelNode))
	var edge *ZEdge
	if byNode.Has(key) {
		edge = g.edges[byNode.Get(key)]
	} else {
		edge = &ZEdge{ID: ZEdgeID(len(g.edges)), Owner: to.ID, Node: labelNode}
		g.edges = append(g.edges, edge)
		byNode.Set(key, edge.ID)
		to.Edges = append(to.Edges, edge.ID)
	}

	for _, p := range edge.Predecessors {
		if p == from {
			return edge, false
		}
	}
	edge.Predecessors = append(edge.Predecessors, from)
	return edge, true
}
