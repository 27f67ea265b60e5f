package graph

import (
	"fmt"
	"sort"
)

// Clustering thresholds.
const (
	// ClusterMinNodes is the minimum size of the candidate set (levels 2-3)
	// before clustering activates at all.
	ClusterMinNodes = 50
	// ClusterMinMembers is the minimum group size for a group to become a
	// cluster.
	ClusterMinMembers = 10
	// clusterYearBucket is the width of year buckets.
	clusterYearBucket = 5
)

// Cluster-by modes.
const (
	ClusterByYear  = "year"
	ClusterByVenue = "venue"
)

// Cluster annotates a group of reference/related nodes. Clustering never
// removes nodes from the result; a renderer may draw clusters instead of
// their members.
type Cluster struct {
	ID             string   `json:"id"`
	Label          string   `json:"label"`
	MemberIDs      []string `json:"member_ids"`
	Representative string   `json:"representative"` // member with the highest citation count
	AvgYear        int      `json:"avg_year,omitempty"`
	AvgCitedBy     int      `json:"avg_cited_by,omitempty"`
}

// clusterNodes groups level-2 and level-3 nodes by 5-year bucket or venue.
// Returns nil when the candidate set is below the activation threshold.
func clusterNodes(nodes []Node, by string) []Cluster {
	var candidates []Node
	for _, n := range nodes {
		if n.Level == LevelReference || n.Level == LevelRelated {
			candidates = append(candidates, n)
		}
	}
	if len(candidates) < ClusterMinNodes {
		return nil
	}

	groups := make(map[string][]Node)
	for _, n := range candidates {
		key := groupKey(n, by)
		if key == "" {
			continue
		}
		groups[key] = append(groups[key], n)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var clusters []Cluster
	for _, key := range keys {
		members := groups[key]
		if len(members) < ClusterMinMembers {
			continue
		}

		c := Cluster{
			ID:    fmt.Sprintf("cluster-%s-%s", by, key),
			Label: groupLabel(key, by),
		}
		yearSum, citedSum, yearCount := 0, 0, 0
		best := members[0]
		for _, m := range members {
			c.MemberIDs = append(c.MemberIDs, m.ID)
			if m.Year > 0 {
				yearSum += m.Year
				yearCount++
			}
			citedSum += m.CitedByCount
			if m.CitedByCount > best.CitedByCount {
				best = m
			}
		}
		c.Representative = best.ID
		if yearCount > 0 {
			c.AvgYear = yearSum / yearCount
		}
		if len(members) > 0 {
			c.AvgCitedBy = citedSum / len(members)
		}
		clusters = append(clusters, c)
	}
	return clusters
}

func groupKey(n Node, by string) string {
	switch by {
	case ClusterByVenue:
		return n.Journal
	default:
		if n.Year == 0 {
			return ""
		}
		bucket := (n.Year / clusterYearBucket) * clusterYearBucket
		return fmt.Sprintf("%d", bucket)
	}
}

func groupLabel(key, by string) string {
	if by == ClusterByVenue {
		return key
	}
	var start int
	fmt.Sscanf(key, "%d", &start)
	return fmt.Sprintf("%d-%d", start, start+clusterYearBucket-1)
}
