package store

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
	"sort"
	"sync"

	"github.com/OFFIS-RIT/papergraph/pkg/common"
)

var errMalformedStatement = errors.New("malformed statement")

type edgeKey struct {
	rel  common.RelKind
	from string
	to   string
}

type memoryState struct {
	nodes map[common.Kind]map[string]map[string]any
	edges map[edgeKey]struct{}
}

func newMemoryState() memoryState {
	nodes := make(map[common.Kind]map[string]map[string]any, len(common.Kinds))
	for _, k := range common.Kinds {
		nodes[k] = make(map[string]map[string]any)
	}
	return memoryState{nodes: nodes, edges: make(map[edgeKey]struct{})}
}

func (s memoryState) clone() memoryState {
	out := newMemoryState()
	for k, byID := range s.nodes {
		for id, attrs := range byID {
			out.nodes[k][id] = maps.Clone(attrs)
		}
	}
	maps.Copy(out.edges, s.edges)
	return out
}

func (s memoryState) apply(stmt Statement) error {
	m := stmt.mutation
	if m == nil {
		return fmt.Errorf("%w: %.40q", errMalformedStatement, stmt.Cypher)
	}
	if m.node {
		byID := s.nodes[m.kind]
		attrs, ok := byID[m.id]
		if !ok {
			attrs = map[string]any{"id": m.id}
			byID[m.id] = attrs
		}
		for k, v := range m.attrs {
			// coalesce: a missing value never overwrites a stored one
			if v == nil {
				if _, exists := attrs[k]; exists {
					continue
				}
			}
			attrs[k] = v
		}
		return nil
	}

	fromKind, toKind := m.rel.Endpoints()
	if _, ok := s.nodes[fromKind][m.from]; !ok {
		return nil
	}
	if _, ok := s.nodes[toKind][m.to]; !ok {
		return nil
	}
	s.edges[edgeKey{rel: m.rel, from: m.from, to: m.to}] = struct{}{}
	return nil
}

// MemoryStorage is an in-process GraphStorage with the same merge-on-id and
// match-then-merge edge semantics as the Neo4j statements. It backs dry runs
// and tests.
type MemoryStorage struct {
	mu          sync.RWMutex
	state       memoryState
	provisioned bool
	writes      int
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{state: newMemoryState()}
}

// WriteTx applies statements to a copy of the graph and swaps it in only when
// all of them succeeded.
func (m *MemoryStorage) WriteTx(ctx context.Context, statements []Statement) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	staged := m.state.clone()
	for i, stmt := range statements {
		if err := staged.apply(stmt); err != nil {
			return fmt.Errorf("statement %d: %w", i, err)
		}
	}
	m.state = staged
	m.writes++
	return nil
}

func (m *MemoryStorage) Provision(ctx context.Context, params ProvisionParams) error {
	if _, err := ProvisionStatements(params); err != nil {
		return err
	}
	m.mu.Lock()
	m.provisioned = true
	m.mu.Unlock()
	return nil
}

func (m *MemoryStorage) Reset(ctx context.Context) error {
	m.mu.Lock()
	m.state = newMemoryState()
	m.mu.Unlock()
	return nil
}

func (m *MemoryStorage) Close(ctx context.Context) error {
	return nil
}

// Similar ranks stored work embeddings by cosine similarity.
func (m *MemoryStorage) Similar(ctx context.Context, embedding []float32, k int) ([]SimilarWork, error) {
	if k <= 0 {
		return nil, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]SimilarWork, 0)
	for id, attrs := range m.state.nodes[common.KindWork] {
		vec, ok := attrs["embedding"].([]float64)
		if !ok || len(vec) != len(embedding) {
			continue
		}
		title, _ := attrs["title"].(string)
		out = append(out, SimilarWork{ID: id, Title: title, Score: cosine(embedding, vec)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score == out[j].Score {
			return out[i].ID < out[j].ID
		}
		return out[i].Score > out[j].Score
	})
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

func cosine(a []float32, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		x := float64(a[i])
		dot += x * b[i]
		na += x * x
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Node returns a copy of the stored attributes of a node.
func (m *MemoryStorage) Node(kind common.Kind, id string) (map[string]any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	attrs, ok := m.state.nodes[kind][id]
	if !ok {
		return nil, false
	}
	return maps.Clone(attrs), true
}

func (m *MemoryStorage) NodeCount(kind common.Kind) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.state.nodes[kind])
}

func (m *MemoryStorage) HasEdge(rel common.RelKind, from, to string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.state.edges[edgeKey{rel: rel, from: from, to: to}]
	return ok
}

// Edges returns the endpoints of every stored edge of kind rel, sorted.
func (m *MemoryStorage) Edges(rel common.RelKind) [][2]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([][2]string, 0)
	for e := range m.state.edges {
		if e.rel == rel {
			out = append(out, [2]string{e.from, e.to})
		}
	}
	slices.SortFunc(out, func(a, b [2]string) int {
		if c := cmp.Compare(a[0], b[0]); c != 0 {
			return c
		}
		return cmp.Compare(a[1], b[1])
	})
	return out
}

// Commits returns the number of committed write transactions.
func (m *MemoryStorage) Commits() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}

func (m *MemoryStorage) Provisioned() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.provisioned
}
