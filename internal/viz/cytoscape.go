// Package viz renders citation graphs as self-contained Cytoscape.js HTML.
package viz

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/matsen/citegraph/internal/graph"
)

// CytoscapeElements is the Cytoscape.js elements payload.
type CytoscapeElements struct {
	Nodes []CytoscapeNode `json:"nodes"`
	Edges []CytoscapeEdge `json:"edges"`
}

// CytoscapeNode wraps node data in Cytoscape.js format.
type CytoscapeNode struct {
	Data CytoscapeNodeData `json:"data"`
}

// CytoscapeNodeData contains the node data fields.
type CytoscapeNodeData struct {
	ID           string `json:"id"`
	Parent       string `json:"parent,omitempty"` // compound parent for clustered nodes
	Level        int    `json:"level"`
	Label        string `json:"label"`
	Title        string `json:"title,omitempty"`
	Authors      string `json:"authors,omitempty"`
	Year         int    `json:"year,omitempty"`
	Journal      string `json:"journal,omitempty"`
	CitedByCount int    `json:"citedByCount,omitempty"`
	Status       string `json:"status,omitempty"`
	Placeholder  bool   `json:"placeholder,omitempty"`
	Compound     bool   `json:"compound,omitempty"`
}

// CytoscapeEdge wraps edge data in Cytoscape.js format.
type CytoscapeEdge struct {
	Data CytoscapeEdgeData `json:"data"`
}

// CytoscapeEdgeData contains the edge data fields.
type CytoscapeEdgeData struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// ToCytoscapeJSON converts a graph build result to Cytoscape.js JSON.
// Clusters become compound parent nodes containing their members.
func ToCytoscapeJSON(result *graph.Result) (string, error) {
	elements := CytoscapeElements{
		Nodes: make([]CytoscapeNode, 0, len(result.Nodes)+len(result.Clusters)),
		Edges: make([]CytoscapeEdge, 0, len(result.Links)),
	}

	parentOf := make(map[string]string)
	for _, c := range result.Clusters {
		elements.Nodes = append(elements.Nodes, CytoscapeNode{
			Data: CytoscapeNodeData{
				ID:       c.ID,
				Label:    c.Label,
				Compound: true,
			},
		})
		for _, id := range c.MemberIDs {
			parentOf[id] = c.ID
		}
	}

	for i := range result.Nodes {
		n := &result.Nodes[i]
		elements.Nodes = append(elements.Nodes, CytoscapeNode{
			Data: CytoscapeNodeData{
				ID:           n.ID,
				Parent:       parentOf[n.ID],
				Level:        n.Level,
				Label:        truncateLabel(n.Label()),
				Title:        n.Title,
				Authors:      strings.Join(n.Authors, ", "),
				Year:         n.Year,
				Journal:      n.Journal,
				CitedByCount: n.CitedByCount,
				Status:       n.Status,
				Placeholder:  n.Placeholder,
			},
		})
	}

	for i, l := range result.Links {
		elements.Edges = append(elements.Edges, CytoscapeEdge{
			Data: CytoscapeEdgeData{
				ID:     edgeID(l.Source, l.Target, i),
				Source: l.Source,
				Target: l.Target,
			},
		})
	}

	jsonBytes, err := json.Marshal(elements)
	if err != nil {
		return "", fmt.Errorf("marshaling Cytoscape elements to JSON: %w", err)
	}
	return string(jsonBytes), nil
}

// edgeID generates a unique edge ID for the current visualization session.
// IDs are based on slice position and are not stable across builds.
func edgeID(source, target string, index int) string {
	return fmt.Sprintf("%s-%s-%d", source, target, index)
}

// truncateLabel keeps node labels readable on the canvas.
func truncateLabel(s string) string {
	const max = 60
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
