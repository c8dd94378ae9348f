package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/OFFIS-RIT/papergraph/pkg/ai"
	"github.com/OFFIS-RIT/papergraph/pkg/common"
	"github.com/OFFIS-RIT/papergraph/pkg/openalex"
	"github.com/OFFIS-RIT/papergraph/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// catalog is an in-memory stand-in for OpenAlex.
type catalog struct {
	works        map[string]common.Work
	authors      map[string]common.Author
	institutions map[string]common.Institution

	workLookups [][]string
}

func newCatalog() *catalog {
	return &catalog{
		works:        map[string]common.Work{},
		authors:      map[string]common.Author{},
		institutions: map[string]common.Institution{},
	}
}

func (c *catalog) addWork(id, title string, authors []string, refs ...string) {
	w := common.Work{ID: common.SourcePrefix + id, Title: title}
	for _, a := range authors {
		w.Authorships = append(w.Authorships, common.Authorship{Author: common.EntityRef{ID: common.SourcePrefix + a}})
	}
	for _, r := range refs {
		w.ReferencedWorks = append(w.ReferencedWorks, common.SourcePrefix+r)
	}
	c.works[id] = w
}

func (c *catalog) addAuthor(id, name string, institutions ...string) {
	a := common.Author{ID: common.SourcePrefix + id, DisplayName: name}
	for _, i := range institutions {
		a.Affiliations = append(a.Affiliations, common.Affiliation{Institution: common.EntityRef{ID: common.SourcePrefix + i}})
	}
	c.authors[id] = a
}

func (c *catalog) addInstitution(id, name string) {
	c.institutions[id] = common.Institution{ID: common.SourcePrefix + id, DisplayName: name}
}

func lookup[T any](m map[string]T, ids []string) []T {
	var out []T
	for _, id := range ids {
		if v, ok := m[id]; ok {
			out = append(out, v)
		}
	}
	return out
}

func (c *catalog) FetchWorks(ctx context.Context, ids []string) []common.Work {
	c.workLookups = append(c.workLookups, ids)
	return lookup(c.works, ids)
}

func (c *catalog) FetchAuthors(ctx context.Context, ids []string) []common.Author {
	return lookup(c.authors, ids)
}

func (c *catalog) FetchInstitutions(ctx context.Context, ids []string) []common.Institution {
	return lookup(c.institutions, ids)
}

func (c *catalog) GetWork(ctx context.Context, ref string) (*common.Work, error) {
	w, ok := c.works[openalex.WorkKey(ref)]
	if !ok {
		return nil, openalex.ErrNotFound
	}
	return &w, nil
}

type failingWriter struct{ calls int }

func (w *failingWriter) WriteTx(ctx context.Context, statements []store.Statement) error {
	w.calls++
	return errors.New("deadlock detected")
}

type fakeEmbedder struct {
	err error
}

func (e *fakeEmbedder) GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	return []float32{float32(len(input)), 1}, nil
}
func (e *fakeEmbedder) ResetMetrics()               {}
func (e *fakeEmbedder) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }

type memoryRecorder struct {
	started  []SeedResult
	finished []SeedResult
}

func (r *memoryRecorder) StartRun(ctx context.Context, run SeedResult) error {
	r.started = append(r.started, run)
	return nil
}

func (r *memoryRecorder) FinishRun(ctx context.Context, run SeedResult) error {
	r.finished = append(r.finished, run)
	return nil
}

func newTestClient(t *testing.T, cat *catalog, writer store.Writer, embedder ai.EmbeddingClient) *GraphClient {
	t.Helper()
	g, err := NewGraphClient(NewGraphClientParams{
		Fetcher:  cat,
		Resolver: cat,
		Writer:   writer,
		Embedder: embedder,
	})
	require.NoError(t, err)
	return g
}

func nodeUpserts(stmts []store.Statement, kind common.Kind) []string {
	var ids []string
	for _, s := range stmts {
		if k, ok := s.Kind(); ok && k == kind {
			ids = append(ids, s.Params["id"].(string))
		}
	}
	return ids
}

func edges(stmts []store.Statement, rel common.RelKind) [][2]string {
	var out [][2]string
	for _, s := range stmts {
		if r, from, to, ok := s.Rel(); ok && r == rel {
			out = append(out, [2]string{from, to})
		}
	}
	return out
}

func TestTraverse_DepthZeroScenario(t *testing.T) {
	cat := newCatalog()
	cat.addWork("D1", "Deep Learning", []string{"A1"}, "D2")
	cat.addWork("D2", "Backpropagation", nil)
	cat.addAuthor("A1", "Yann LeCun", "I1")
	cat.addInstitution("I1", "New York University")

	g := newTestClient(t, cat, store.NewMemoryStorage(), nil)
	batch := store.NewBatch(nil, nil)
	require.NoError(t, g.Traverse(context.Background(), cat.works["D1"], 0, batch))

	stmts := batch.Statements()
	require.Len(t, stmts, 5)

	kind, _ := stmts[0].Kind()
	assert.Equal(t, common.KindWork, kind)
	assert.Equal(t, "D1", stmts[0].Params["id"])
	assert.Equal(t, "Deep Learning", stmts[0].Params["title"])
	assert.Equal(t, []string{"A1"}, nodeUpserts(stmts, common.KindAuthor))
	assert.Equal(t, []string{"I1"}, nodeUpserts(stmts, common.KindInstitution))
	assert.Equal(t, [][2]string{{"A1", "D1"}}, edges(stmts, common.RelAuthored))
	assert.Equal(t, [][2]string{{"A1", "I1"}}, edges(stmts, common.RelAffiliatedWith))
	assert.Empty(t, edges(stmts, common.RelReferenced))

	// depth 0 never looks up references
	assert.Empty(t, cat.workLookups)
}

func TestTraverse_DepthBound(t *testing.T) {
	cat := newCatalog()
	cat.addWork("W1", "Root", []string{"A1"}, "W2", "W3")
	cat.addWork("W2", "Child two", []string{"A2"}, "W4")
	cat.addWork("W3", "Child three", []string{"A3"})
	cat.addWork("W4", "Grandchild", []string{"A4"})
	for _, a := range []string{"A1", "A2", "A3", "A4"} {
		cat.addAuthor(a, "Author "+a)
	}

	g := newTestClient(t, cat, store.NewMemoryStorage(), nil)
	batch := store.NewBatch(nil, nil)
	require.NoError(t, g.Traverse(context.Background(), cat.works["W1"], 1, batch))

	stmts := batch.Statements()
	assert.Equal(t, [][2]string{{"W1", "W2"}, {"W1", "W3"}}, edges(stmts, common.RelReferenced))
	assert.Equal(t, []string{"W1", "W2", "W3"}, nodeUpserts(stmts, common.KindWork))
	assert.ElementsMatch(t, [][2]string{{"A1", "W1"}, {"A2", "W2"}, {"A3", "W3"}}, edges(stmts, common.RelAuthored))
	assert.Len(t, cat.workLookups, 1)
}

func TestTraverse_ChildNodePrecedesCitationEdge(t *testing.T) {
	cat := newCatalog()
	cat.addWork("W1", "Root", nil, "W2")
	cat.addWork("W2", "Child", nil, "W3")
	cat.addWork("W3", "Grandchild", nil)

	g := newTestClient(t, cat, store.NewMemoryStorage(), nil)
	batch := store.NewBatch(nil, nil)
	require.NoError(t, g.Traverse(context.Background(), cat.works["W1"], 2, batch))

	var order []string
	for _, s := range batch.Statements() {
		if _, ok := s.Kind(); ok {
			order = append(order, "node:"+s.Params["id"].(string))
			continue
		}
		order = append(order, "edge:"+s.Params["from"].(string)+">"+s.Params["to"].(string))
	}
	assert.Equal(t, []string{"node:W1", "node:W2", "node:W3", "edge:W2>W3", "edge:W1>W2"}, order)
}

func TestTraverse_CyclesTerminate(t *testing.T) {
	cat := newCatalog()
	cat.addWork("W1", "A", nil, "W2")
	cat.addWork("W2", "B", nil, "W1")

	g := newTestClient(t, cat, store.NewMemoryStorage(), nil)
	batch := store.NewBatch(nil, nil)
	require.NoError(t, g.Traverse(context.Background(), cat.works["W1"], 3, batch))

	stmts := batch.Statements()
	assert.Equal(t, []string{"W1", "W2"}, nodeUpserts(stmts, common.KindWork))
	assert.Len(t, edges(stmts, common.RelReferenced), 3)
}

func TestTraverse_SharedAuthorUpsertedOnce(t *testing.T) {
	cat := newCatalog()
	cat.addWork("W1", "First", []string{"A1"})
	cat.addWork("W2", "Second", []string{"A1"})
	cat.addAuthor("A1", "Shared Author")

	g := newTestClient(t, cat, store.NewMemoryStorage(), nil)
	batch := store.NewBatch(nil, nil)
	ctx := context.Background()
	require.NoError(t, g.Traverse(ctx, cat.works["W1"], 0, batch))
	require.NoError(t, g.Traverse(ctx, cat.works["W2"], 0, batch))

	stmts := batch.Statements()
	assert.Equal(t, []string{"A1"}, nodeUpserts(stmts, common.KindAuthor))
	assert.Equal(t, [][2]string{{"A1", "W1"}, {"A1", "W2"}}, edges(stmts, common.RelAuthored))
}

func TestTraverse_EmbeddingFailureKeepsWork(t *testing.T) {
	cat := newCatalog()
	cat.addWork("W1", "Title", nil)

	g := newTestClient(t, cat, store.NewMemoryStorage(), &fakeEmbedder{err: errors.New("rate limited")})
	batch := store.NewBatch(nil, nil)
	require.NoError(t, g.Traverse(context.Background(), cat.works["W1"], 0, batch))

	stmts := batch.Statements()
	require.Len(t, stmts, 1)
	assert.Nil(t, stmts[0].Params["embedding"])
}

func TestTraverse_EmbedsTitle(t *testing.T) {
	cat := newCatalog()
	cat.addWork("W1", "Title", nil)

	g := newTestClient(t, cat, store.NewMemoryStorage(), &fakeEmbedder{})
	batch := store.NewBatch(nil, nil)
	require.NoError(t, g.Traverse(context.Background(), cat.works["W1"], 0, batch))

	assert.Equal(t, []float64{5, 1}, batch.Statements()[0].Params["embedding"])
}

func TestTraverse_CancelledContext(t *testing.T) {
	cat := newCatalog()
	cat.addWork("W1", "Title", nil)
	g := newTestClient(t, cat, store.NewMemoryStorage(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := g.Traverse(ctx, cat.works["W1"], 1, store.NewBatch(nil, nil))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIngestSeed_EndToEnd(t *testing.T) {
	cat := newCatalog()
	cat.addWork("D1", "Deep Learning", []string{"A1"})
	cat.addAuthor("A1", "Yann LeCun", "I1")
	cat.addInstitution("I1", "New York University")

	mem := store.NewMemoryStorage()
	g := newTestClient(t, cat, mem, nil)

	res, err := g.IngestSeed(context.Background(), "https://openalex.org/D1", 0)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, res.Status)
	assert.Equal(t, "D1", res.WorkID)
	assert.Equal(t, 5, res.Statements)
	assert.NotEmpty(t, res.RunID)

	assert.Equal(t, 1, mem.Commits())
	assert.True(t, mem.HasEdge(common.RelAuthored, "A1", "D1"))
	assert.True(t, mem.HasEdge(common.RelAffiliatedWith, "A1", "I1"))

	// a second run is idempotent
	_, err = g.IngestSeed(context.Background(), "D1", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, mem.NodeCount(common.KindWork))
	assert.Equal(t, 1, mem.NodeCount(common.KindAuthor))
	assert.Len(t, mem.Edges(common.RelAuthored), 1)
}

func TestIngest_SkipsUnknownSeed(t *testing.T) {
	cat := newCatalog()
	cat.addWork("W1", "Known", nil)

	mem := store.NewMemoryStorage()
	rec := &memoryRecorder{}
	g, err := NewGraphClient(NewGraphClientParams{Fetcher: cat, Resolver: cat, Writer: mem, Recorder: rec})
	require.NoError(t, err)

	results, err := g.Ingest(context.Background(), []string{"W404", "W1"}, 0)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, StatusSkipped, results[0].Status)
	assert.Contains(t, results[0].Error, "not found")
	assert.Equal(t, StatusCompleted, results[1].Status)
	assert.Equal(t, 1, mem.NodeCount(common.KindWork))

	assert.Len(t, rec.started, 2)
	require.Len(t, rec.finished, 2)
	assert.Equal(t, StatusRunning, rec.started[0].Status)
	assert.Equal(t, StatusCompleted, rec.finished[1].Status)
}

func TestIngest_StopsAtFirstFlushFailure(t *testing.T) {
	cat := newCatalog()
	cat.addWork("W1", "One", nil)
	cat.addWork("W2", "Two", nil)

	w := &failingWriter{}
	g := newTestClient(t, cat, w, nil)

	results, err := g.Ingest(context.Background(), []string{"W1", "W2"}, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrWriteTransaction)
	require.Len(t, results, 1)
	assert.Equal(t, StatusFailed, results[0].Status)
	assert.Equal(t, 1, w.calls)
}

type countingLocker struct{ locks int }

func (l *countingLocker) Lock(ctx context.Context, fn func(ctx context.Context) error) error {
	l.locks++
	return fn(ctx)
}

func TestIngest_UsesLocker(t *testing.T) {
	cat := newCatalog()
	cat.addWork("W1", "One", nil)
	locker := &countingLocker{}

	g, err := NewGraphClient(NewGraphClientParams{
		Fetcher: cat, Resolver: cat, Writer: store.NewMemoryStorage(), Locker: locker,
	})
	require.NoError(t, err)

	_, err = g.Ingest(context.Background(), []string{"W1"}, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, locker.locks)
}

func TestNewGraphClient_RequiresCollaborators(t *testing.T) {
	_, err := NewGraphClient(NewGraphClientParams{Fetcher: newCatalog(), Resolver: newCatalog()})
	assert.ErrorIs(t, err, ErrNoWriter)
}
