package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/lumen-edu/lumen/pkg/common"
	"github.com/lumen-edu/lumen/pkg/logger"
	"github.com/lumen-edu/lumen/pkg/store"
)

type edgeAttr struct {
	Type       common.RelationType
	Confidence float64
}

// FileGraphStore implements store.GraphStore on a single JSON snapshot
// file. Every mutation rewrites the whole snapshot, which keeps the format
// trivially inspectable and is cheap at the graph sizes a course produces.
type FileGraphStore struct {
	path string

	mu    sync.Mutex
	nodes map[string]store.ConceptNode
	edges map[string]map[string]edgeAttr
}

type snapshotEdge struct {
	Source     string              `json:"source"`
	Target     string              `json:"target"`
	Type       common.RelationType `json:"relation_type"`
	Confidence float64             `json:"confidence"`
}

type snapshot struct {
	Nodes []store.ConceptNode `json:"nodes"`
	Edges []snapshotEdge      `json:"edges"`
}

// NewFileGraphStore opens the graph snapshot at path. A missing or
// unreadable snapshot starts an empty graph instead of failing, so a
// corrupt file cannot take ingestion down.
func NewFileGraphStore(path string) *FileGraphStore {
	g := &FileGraphStore{
		path:  path,
		nodes: make(map[string]store.ConceptNode),
		edges: make(map[string]map[string]edgeAttr),
	}
	g.load()
	return g
}

func (g *FileGraphStore) load() {
	raw, err := os.ReadFile(g.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("[Graph] could not read snapshot, starting empty", "path", g.path, "err", err)
		}
		return
	}

	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		logger.Warn("[Graph] corrupt snapshot, starting empty", "path", g.path, "err", err)
		return
	}

	for _, n := range snap.Nodes {
		g.nodes[n.Name] = n
	}
	for _, e := range snap.Edges {
		if _, ok := g.nodes[e.Source]; !ok {
			continue
		}
		if _, ok := g.nodes[e.Target]; !ok {
			continue
		}
		if g.edges[e.Source] == nil {
			g.edges[e.Source] = make(map[string]edgeAttr)
		}
		g.edges[e.Source][e.Target] = edgeAttr{Type: e.Type, Confidence: e.Confidence}
	}
}

// save rewrites the full snapshot. Callers must hold g.mu.
func (g *FileGraphStore) save() error {
	snap := snapshot{
		Nodes: make([]store.ConceptNode, 0, len(g.nodes)),
		Edges: make([]snapshotEdge, 0),
	}

	for _, n := range g.nodes {
		snap.Nodes = append(snap.Nodes, n)
	}
	sort.Slice(snap.Nodes, func(i, j int) bool { return snap.Nodes[i].Name < snap.Nodes[j].Name })

	for src, targets := range g.edges {
		for dst, attr := range targets {
			snap.Edges = append(snap.Edges, snapshotEdge{
				Source:     src,
				Target:     dst,
				Type:       attr.Type,
				Confidence: attr.Confidence,
			})
		}
	}
	sort.Slice(snap.Edges, func(i, j int) bool {
		if snap.Edges[i].Source != snap.Edges[j].Source {
			return snap.Edges[i].Source < snap.Edges[j].Source
		}
		return snap.Edges[i].Target < snap.Edges[j].Target
	})

	raw, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(g.path, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write graph snapshot: %w", err)
	}
	return nil
}

// AddConcept inserts or updates a concept node and persists the snapshot.
func (g *FileGraphStore) AddConcept(ctx context.Context, node store.ConceptNode) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.nodes[node.Name] = node
	return g.save()
}

// AddRelation stores a typed edge between two existing concepts. Relations
// referencing a concept the graph does not contain are dropped and reported
// as (false, nil).
func (g *FileGraphStore) AddRelation(ctx context.Context, rel common.Relation) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodes[rel.Source]; !ok {
		return false, nil
	}
	if _, ok := g.nodes[rel.Target]; !ok {
		return false, nil
	}

	if g.edges[rel.Source] == nil {
		g.edges[rel.Source] = make(map[string]edgeAttr)
	}
	g.edges[rel.Source][rel.Target] = edgeAttr{Type: rel.Type, Confidence: rel.Confidence}

	if err := g.save(); err != nil {
		return false, err
	}
	return true, nil
}

// GetConcept returns the stored node for name, or nil when the graph does
// not contain it.
func (g *FileGraphStore) GetConcept(ctx context.Context, name string) (*store.ConceptNode, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	node, ok := g.nodes[name]
	if !ok {
		return nil, nil
	}
	return &node, nil
}

// GetRelated walks the graph breadth-first from name, ignoring edge
// direction, and returns every concept within maxDepth hops. An unknown
// starting concept yields an empty result. maxDepth values below 1 are
// treated as 1.
func (g *FileGraphStore) GetRelated(ctx context.Context, name string, maxDepth int) ([]store.RelatedConcept, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if maxDepth < 1 {
		maxDepth = 1
	}
	if _, ok := g.nodes[name]; !ok {
		return []store.RelatedConcept{}, nil
	}

	neighbors := make(map[string][]string)
	for src, targets := range g.edges {
		for dst := range targets {
			neighbors[src] = append(neighbors[src], dst)
			neighbors[dst] = append(neighbors[dst], src)
		}
	}

	visited := map[string]bool{name: true}
	related := make([]store.RelatedConcept, 0)

	frontier := []string{name}
	for depth := 1; depth <= maxDepth && len(frontier) > 0; depth++ {
		next := make([]string, 0)
		for _, current := range frontier {
			for _, n := range neighbors[current] {
				if visited[n] {
					continue
				}
				visited[n] = true
				related = append(related, store.RelatedConcept{
					ConceptNode: g.nodes[n],
					Depth:       depth,
				})
				next = append(next, n)
			}
		}
		frontier = next
	}

	sort.Slice(related, func(i, j int) bool {
		if related[i].Depth != related[j].Depth {
			return related[i].Depth < related[j].Depth
		}
		return related[i].Name < related[j].Name
	})

	return related, nil
}

// Relations returns every stored relation that has name as its source or
// target.
func (g *FileGraphStore) Relations(ctx context.Context, name string) ([]common.Relation, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	rels := make([]common.Relation, 0)
	for src, targets := range g.edges {
		for dst, attr := range targets {
			if src != name && dst != name {
				continue
			}
			rels = append(rels, common.Relation{
				Source:     src,
				Target:     dst,
				Type:       attr.Type,
				Confidence: attr.Confidence,
			})
		}
	}

	sort.Slice(rels, func(i, j int) bool {
		if rels[i].Source != rels[j].Source {
			return rels[i].Source < rels[j].Source
		}
		return rels[i].Target < rels[j].Target
	})

	return rels, nil
}

// Stats reports node and edge counts plus directed graph density.
func (g *FileGraphStore) Stats(ctx context.Context) (store.GraphStats, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	edgeCount := 0
	for _, targets := range g.edges {
		edgeCount += len(targets)
	}

	stats := store.GraphStats{
		Concepts:  len(g.nodes),
		Relations: edgeCount,
	}
	if n := len(g.nodes); n > 1 {
		stats.Density = float64(edgeCount) / float64(n*(n-1))
	}
	return stats, nil
}
