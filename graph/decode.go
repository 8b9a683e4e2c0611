// Package graph decodes the ranking graphs a node serves in Graphviz DOT form.
package graph

import (
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/graph/formats/dot"
	"gonum.org/v1/gonum/graph/formats/dot/ast"

	"plotthread.org/client/model"
)

// Node and edge attribute names used by the node.
const (
	AttrPubkey    = "pubkey"
	AttrLabel     = "label"
	AttrRanking   = "ranking"
	AttrPlusCode  = "plusCode"
	AttrCatchment = "catchment"
	AttrWeight    = "weight"
)

// Decode parses text and keeps the nodes whose pubkey equals focusKey or whose
// ranking is at least rankingThreshold/100, plus the links between kept nodes.
//
// A threshold <= 0 keeps every node. A node whose ranking is missing or not a
// number cannot be compared and is always kept; it is reported with ranking 0.
// Empty or malformed text yields empty, non-nil slices.
func Decode(text, focusKey string, rankingThreshold float64) model.Graph {
	out := model.Graph{Nodes: []model.GraphNode{}, Links: []model.GraphLink{}}
	if strings.TrimSpace(text) == "" {
		return out
	}
	file, err := dot.ParseString(text)
	if err != nil || len(file.Graphs) == 0 {
		return out
	}

	b := newBuilder()
	b.stmts(file.Graphs[0].Stmts)
	ids := b.assignIDs()

	kept := make(map[string]bool, len(b.order))
	for _, name := range b.order {
		attrs := b.nodes[name]
		ranking, ranked := parseNumber(attrs[AttrRanking])
		n := model.GraphNode{
			ID:        ids[name],
			Pubkey:    attrs[AttrPubkey],
			Label:     attrs[AttrLabel],
			Ranking:   ranking,
			PlusCode:  attrs[AttrPlusCode],
			Catchment: attrs[AttrCatchment],
		}
		if rankingThreshold > 0 && ranked && n.Pubkey != focusKey && n.Ranking < rankingThreshold/100 {
			continue
		}
		kept[name] = true
		out.Nodes = append(out.Nodes, n)
	}

	for _, e := range b.edges {
		if !kept[e.from] || !kept[e.to] {
			continue
		}
		out.Links = append(out.Links, model.GraphLink{
			Source: ids[e.from],
			Target: ids[e.to],
			Value:  number(e.attrs[AttrWeight]),
		})
	}
	return out
}

type edge struct {
	from, to string
	attrs    map[string]string
}

// builder flattens the statements of a DOT graph, subgraphs included, into nodes
// in first-appearance order and a list of edges.
type builder struct {
	nodes map[string]map[string]string
	order []string
	edges []edge
}

func newBuilder() *builder {
	return &builder{nodes: make(map[string]map[string]string)}
}

func (b *builder) node(name string) map[string]string {
	attrs, ok := b.nodes[name]
	if !ok {
		attrs = make(map[string]string)
		b.nodes[name] = attrs
		b.order = append(b.order, name)
	}
	return attrs
}

func (b *builder) stmts(stmts []ast.Stmt) {
	for _, stmt := range stmts {
		switch stmt := stmt.(type) {
		case *ast.NodeStmt:
			attrs := b.node(unquote(stmt.Node.ID))
			for _, a := range stmt.Attrs {
				attrs[unquote(a.Key)] = unquote(a.Val)
			}
		case *ast.EdgeStmt:
			b.edgeStmt(stmt)
		case *ast.Subgraph:
			b.stmts(stmt.Stmts)
		}
	}
}

func (b *builder) edgeStmt(stmt *ast.EdgeStmt) {
	attrs := make(map[string]string, len(stmt.Attrs))
	for _, a := range stmt.Attrs {
		attrs[unquote(a.Key)] = unquote(a.Val)
	}
	from := b.vertex(stmt.From)
	for to := stmt.To; to != nil; to = to.To {
		next := b.vertex(to.Vertex)
		for _, f := range from {
			for _, t := range next {
				b.edges = append(b.edges, edge{from: f, to: t, attrs: attrs})
			}
		}
		from = next
	}
}

func (b *builder) vertex(v ast.Vertex) []string {
	switch v := v.(type) {
	case *ast.Node:
		name := unquote(v.ID)
		b.node(name)
		return []string{name}
	case *ast.Subgraph:
		b.stmts(v.Stmts)
		seen := make(map[string]bool)
		var names []string
		for _, name := range subgraphNodes(v.Stmts) {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
		return names
	}
	return nil
}

func subgraphNodes(stmts []ast.Stmt) []string {
	var out []string
	for _, stmt := range stmts {
		switch stmt := stmt.(type) {
		case *ast.NodeStmt:
			out = append(out, unquote(stmt.Node.ID))
		case *ast.EdgeStmt:
			for _, v := range append([]ast.Vertex{stmt.From}, edgeVertices(stmt.To)...) {
				if n, ok := v.(*ast.Node); ok {
					out = append(out, unquote(n.ID))
				}
			}
		case *ast.Subgraph:
			out = append(out, subgraphNodes(stmt.Stmts)...)
		}
	}
	return out
}

func edgeVertices(e *ast.Edge) []ast.Vertex {
	var out []ast.Vertex
	for ; e != nil; e = e.To {
		out = append(out, e.Vertex)
	}
	return out
}

// assignIDs maps node names to integers. Integer names keep their value; the
// rest are numbered after the largest integer name in first-appearance order.
func (b *builder) assignIDs() map[string]int {
	ids := make(map[string]int, len(b.order))
	next := 0
	for _, name := range b.order {
		if n, err := strconv.Atoi(name); err == nil {
			ids[name] = n
			if n >= next {
				next = n + 1
			}
		}
	}
	for _, name := range b.order {
		if _, ok := ids[name]; ok {
			continue
		}
		ids[name] = next
		next++
	}
	return ids
}

func unquote(s string) string {
	if len(s) >= 4 && strings.HasPrefix(s, `"<`) && strings.HasSuffix(s, `>"`) {
		return s
	}
	if t, err := strconv.Unquote(s); err == nil {
		return t
	}
	return s
}

// number reads a numeric attribute; missing or non-numeric values are 0.
func number(s string) float64 {
	f, _ := parseNumber(s)
	return f
}

func parseNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
