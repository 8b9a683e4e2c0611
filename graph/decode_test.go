package graph

import (
	"testing"

	"plotthread.org/client/model"
)

const sample = `digraph G {
	0 [pubkey="A", label="alice", ranking=0.9, plusCode="8FVC9G8F+6X", catchment="1/alice"];
	1 [pubkey="B", label="bob", ranking=0.1];
	2 [pubkey="C", ranking="0.5"];
	0 -> 1 [weight=0.75];
	2 -> 0 [weight=2];
	1 -> 2;
}`

func nodeByPubkey(g model.Graph) map[string]model.GraphNode {
	out := make(map[string]model.GraphNode, len(g.Nodes))
	for _, n := range g.Nodes {
		out[n.Pubkey] = n
	}
	return out
}

func assertLinksSound(t *testing.T, g model.Graph) {
	t.Helper()
	ids := make(map[int]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		ids[n.ID] = true
	}
	for _, l := range g.Links {
		if !ids[l.Source] || !ids[l.Target] {
			t.Fatalf("link %+v references a missing node", l)
		}
	}
}

func TestDecodeFocusOverridesThreshold(t *testing.T) {
	text := `digraph { A [pubkey="A", ranking=0.9]; B [pubkey="B", ranking=0.1]; A -> B; }`
	g := Decode(text, "B", 50)

	nodes := nodeByPubkey(g)
	if len(nodes) != 2 || nodes["A"].Pubkey == "" || nodes["B"].Pubkey == "" {
		t.Fatalf("expected nodes {A, B}, got %+v", g.Nodes)
	}
	if len(g.Links) != 1 {
		t.Fatalf("expected the A->B link to be kept, got %+v", g.Links)
	}
	if l := g.Links[0]; l.Source != nodes["A"].ID || l.Target != nodes["B"].ID {
		t.Fatalf("unexpected link %+v", l)
	}
	assertLinksSound(t, g)
}

func TestDecodeThresholdDropsNodesAndLinks(t *testing.T) {
	g := Decode(sample, "", 50)
	nodes := nodeByPubkey(g)
	if len(nodes) != 2 {
		t.Fatalf("expected A and C, got %+v", g.Nodes)
	}
	if _, ok := nodes["B"]; ok {
		t.Fatalf("expected B to be filtered out")
	}
	if len(g.Links) != 1 || g.Links[0].Source != 2 || g.Links[0].Target != 0 || g.Links[0].Value != 2 {
		t.Fatalf("expected only the C->A link, got %+v", g.Links)
	}
	assertLinksSound(t, g)
}

func TestDecodeZeroThresholdKeepsEverything(t *testing.T) {
	g := Decode(sample, "", 0)
	if len(g.Nodes) != 3 || len(g.Links) != 3 {
		t.Fatalf("expected full graph, got %d nodes %d links", len(g.Nodes), len(g.Links))
	}
	a := nodeByPubkey(g)["A"]
	want := model.GraphNode{ID: 0, Pubkey: "A", Label: "alice", Ranking: 0.9, PlusCode: "8FVC9G8F+6X", Catchment: "1/alice"}
	if a != want {
		t.Fatalf("node A = %+v, want %+v", a, want)
	}
	if g.Links[0].Value != 0.75 {
		t.Fatalf("weight = %v, want 0.75", g.Links[0].Value)
	}
	if g.Links[2].Value != 0 {
		t.Fatalf("missing weight should be 0, got %v", g.Links[2].Value)
	}
	assertLinksSound(t, g)
}

func TestDecodeAssignsIDsToNamedNodes(t *testing.T) {
	text := `digraph { 5 [pubkey="five"]; x [pubkey="x"]; "y z" [pubkey="yz"]; x -> "y z"; w -> 5; }`
	g := Decode(text, "", 0)
	got := map[string]int{}
	for _, n := range g.Nodes {
		got[n.Pubkey] = n.ID
	}
	if got["five"] != 5 || got["x"] != 6 || got["yz"] != 7 {
		t.Fatalf("unexpected ids: %v", got)
	}
	if len(g.Nodes) != 4 {
		t.Fatalf("expected edge-only node w to be included, got %+v", g.Nodes)
	}
	if g.Nodes[3].ID != 8 || g.Nodes[3].Ranking != 0 {
		t.Fatalf("unexpected implied node %+v", g.Nodes[3])
	}
	assertLinksSound(t, g)
}

func TestDecodeSubgraphEdges(t *testing.T) {
	text := `digraph { 1 [ranking=1]; 1 -> { 2 3 } [weight=4]; subgraph s { 4 [ranking=1]; } }`
	g := Decode(text, "", 0)
	if len(g.Nodes) != 4 {
		t.Fatalf("expected 4 nodes, got %+v", g.Nodes)
	}
	if len(g.Links) != 2 {
		t.Fatalf("expected fan-out to two links, got %+v", g.Links)
	}
	for _, l := range g.Links {
		if l.Source != 1 || l.Value != 4 {
			t.Fatalf("unexpected link %+v", l)
		}
	}
}

func TestDecodeMalformedIsEmpty(t *testing.T) {
	for _, text := range []string{"", "   ", "digraph {", "not a graph", "{{{ -> }"} {
		g := Decode(text, "A", 0)
		if g.Nodes == nil || g.Links == nil {
			t.Fatalf("expected non-nil slices for %q", text)
		}
		if len(g.Nodes) != 0 || len(g.Links) != 0 {
			t.Fatalf("expected empty graph for %q, got %+v", text, g)
		}
	}
}

func TestDecodeNonNumericRankingIsZero(t *testing.T) {
	g := Decode(`digraph { 1 [ranking="high"]; 2 [ranking=NaN]; }`, "", 0)
	for _, n := range g.Nodes {
		if n.Ranking != 0 {
			t.Fatalf("expected ranking 0, got %+v", n)
		}
	}
}

func TestDecodeUnrankedNodesSurviveThreshold(t *testing.T) {
	text := `digraph { 1 [ranking="high"]; 2 [ranking=NaN]; 3; 4 [ranking=0.2]; 5 [ranking=0.8]; 3 -> 5; 4 -> 5; }`
	g := Decode(text, "", 50)
	got := map[int]bool{}
	for _, n := range g.Nodes {
		got[n.ID] = true
	}
	if len(got) != 4 || !got[1] || !got[2] || !got[3] || !got[5] {
		t.Fatalf("expected nodes 1, 2, 3 and 5, got %+v", g.Nodes)
	}
	if len(g.Links) != 1 || g.Links[0].Source != 3 || g.Links[0].Target != 5 {
		t.Fatalf("expected only 3 -> 5, got %+v", g.Links)
	}
}
