package viz

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/matsen/citegraph/internal/graph"
)

func sampleResult() *graph.Result {
	return &graph.Result{
		Nodes: []graph.Node{
			{ID: "a1", Level: graph.LevelProject, Status: "selected", Title: "Alpha", Year: 2020, CitedByCount: 12},
			{ID: "pmid:555", Level: graph.LevelReference, Placeholder: true},
			{ID: "a2", Level: graph.LevelCiting, Title: "Beta"},
		},
		Links: []graph.Link{
			{Source: "a1", Target: "pmid:555"},
			{Source: "a2", Target: "a1"},
		},
	}
}

func TestToCytoscapeJSON(t *testing.T) {
	out, err := ToCytoscapeJSON(sampleResult())
	if err != nil {
		t.Fatalf("ToCytoscapeJSON() error = %v", err)
	}

	var elements CytoscapeElements
	if err := json.Unmarshal([]byte(out), &elements); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(elements.Nodes) != 3 {
		t.Errorf("node count = %d, want 3", len(elements.Nodes))
	}
	if len(elements.Edges) != 2 {
		t.Errorf("edge count = %d, want 2", len(elements.Edges))
	}

	// Placeholder label falls back to the bare identifier.
	var found bool
	for _, n := range elements.Nodes {
		if n.Data.ID == "pmid:555" {
			found = true
			if n.Data.Label != "555" {
				t.Errorf("placeholder label = %q, want %q", n.Data.Label, "555")
			}
			if !n.Data.Placeholder {
				t.Error("placeholder flag not set")
			}
		}
	}
	if !found {
		t.Error("placeholder node missing from output")
	}

	// Edge IDs must be unique.
	seen := make(map[string]bool)
	for _, e := range elements.Edges {
		if seen[e.Data.ID] {
			t.Errorf("duplicate edge id %q", e.Data.ID)
		}
		seen[e.Data.ID] = true
	}
}

func TestToCytoscapeJSONClusters(t *testing.T) {
	result := sampleResult()
	result.Clusters = []graph.Cluster{
		{ID: "cluster-0", Label: "2015-2019", MemberIDs: []string{"pmid:555"}},
	}

	out, err := ToCytoscapeJSON(result)
	if err != nil {
		t.Fatalf("ToCytoscapeJSON() error = %v", err)
	}

	var elements CytoscapeElements
	if err := json.Unmarshal([]byte(out), &elements); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(elements.Nodes) != 4 {
		t.Fatalf("node count = %d, want 4 (3 nodes + 1 compound)", len(elements.Nodes))
	}

	var member, compound *CytoscapeNodeData
	for i := range elements.Nodes {
		switch elements.Nodes[i].Data.ID {
		case "pmid:555":
			member = &elements.Nodes[i].Data
		case "cluster-0":
			compound = &elements.Nodes[i].Data
		}
	}
	if compound == nil || !compound.Compound {
		t.Fatal("compound cluster node missing")
	}
	if member == nil || member.Parent != "cluster-0" {
		t.Errorf("member parent = %v, want cluster-0", member)
	}
}

func TestGenerateHTML(t *testing.T) {
	html, err := GenerateHTML(sampleResult(), DefaultOptions())
	if err != nil {
		t.Fatalf("GenerateHTML() error = %v", err)
	}
	for _, want := range []string{"cytoscape", "a1", `"cose"`} {
		if !strings.Contains(html, want) {
			t.Errorf("HTML missing %q", want)
		}
	}
}

func TestGenerateHTMLEmpty(t *testing.T) {
	html, err := GenerateHTML(&graph.Result{}, DefaultOptions())
	if err != nil {
		t.Fatalf("GenerateHTML() error = %v", err)
	}
	if !strings.Contains(html, "No graph data") {
		t.Error("empty-state HTML missing message")
	}
}

func TestGenerateHTMLInvalidLayout(t *testing.T) {
	if _, err := GenerateHTML(sampleResult(), HTMLOptions{Layout: "spiral"}); err == nil {
		t.Error("GenerateHTML() with invalid layout succeeded, want error")
	}
}
