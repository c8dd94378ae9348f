package graph

import (
	"context"
	"errors"

	"github.com/OFFIS-RIT/papergraph/pkg/ai"
	"github.com/OFFIS-RIT/papergraph/pkg/common"
	"github.com/OFFIS-RIT/papergraph/pkg/logger"
	"github.com/OFFIS-RIT/papergraph/pkg/store"
)

// frame is one work on the traversal stack.
type frame struct {
	work   common.Work
	id     string
	depth  int
	parent string

	visited  bool
	children []common.Work
	cursor   int
}

// Traverse buffers the subgraph rooted at work into batch.
//
// Every visited work gets its node, its authors and their institutions. When
// depth is positive the referenced works are expanded with depth-1 and the
// REFERENCED edge to each child is buffered after the child's subtree, so the
// child node always precedes the edge. Traverse never flushes.
func (g *GraphClient) Traverse(ctx context.Context, work common.Work, depth int, batch *store.Batch) error {
	stack := []frame{{work: work, id: work.CanonicalID(), depth: depth}}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		top := &stack[len(stack)-1]
		if !top.visited {
			top.visited = true
			g.bufferWork(ctx, top.id, top.work, batch)
			g.bufferAuthors(ctx, top.id, top.work, batch)
			if top.depth > 0 {
				top.children = g.fetcher.FetchWorks(ctx, top.work.ReferenceIDs())
			}
		}

		if top.cursor < len(top.children) {
			child := top.children[top.cursor]
			top.cursor++
			stack = append(stack, frame{
				work:   child,
				id:     child.CanonicalID(),
				depth:  top.depth - 1,
				parent: top.id,
			})
			continue
		}

		done := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if done.parent != "" {
			batch.Add(store.MergeEdge(common.RelReferenced, done.parent, done.id))
		}
	}
	return nil
}

func (g *GraphClient) bufferWork(ctx context.Context, id string, work common.Work, batch *store.Batch) {
	if batch.Cache().Seen(id) {
		return
	}
	title := work.Name()
	batch.AddNode(id, store.UpsertWork(id, title, g.embed(ctx, id, title)))
}

func (g *GraphClient) bufferAuthors(ctx context.Context, workID string, work common.Work, batch *store.Batch) {
	for _, author := range g.fetcher.FetchAuthors(ctx, work.AuthorIDs()) {
		authorID := author.CanonicalID()
		batch.AddNode(authorID, store.UpsertAuthor(authorID, author.DisplayName))
		batch.Add(store.MergeEdge(common.RelAuthored, authorID, workID))

		for _, inst := range g.fetcher.FetchInstitutions(ctx, author.InstitutionIDs()) {
			instID := inst.CanonicalID()
			batch.AddNode(instID, store.UpsertInstitution(instID, inst.DisplayName))
			batch.Add(store.MergeEdge(common.RelAffiliatedWith, authorID, instID))
		}
	}
}

// embed returns nil when no embedder is configured or embedding fails; the
// work is then stored without touching an existing embedding.
func (g *GraphClient) embed(ctx context.Context, id, title string) []float32 {
	if g.embedder == nil {
		return nil
	}
	vec, err := g.embedder.GenerateEmbedding(ctx, []byte(title))
	switch {
	case errors.Is(err, ai.ErrEmptyInput):
		logger.Debug("[Graph] Work has no title to embed", "work", id)
		return nil
	case err != nil:
		logger.Warn("[Graph] Embedding failed, storing work without embedding", "work", id, "err", err)
		return nil
	}
	return vec
}
