package store

import "github.com/OFFIS-RIT/papergraph/pkg/common"

// Statement is one parameterized Cypher statement. Cypher is always one of the
// constant templates below; values only ever travel in Params.
type Statement struct {
	Cypher string
	Params map[string]any

	mutation *mutation
}

// mutation is the structured form of a statement built by this package. The
// in-memory store applies it directly instead of parsing Cypher.
type mutation struct {
	node  bool
	kind  common.Kind
	rel   common.RelKind
	id    string
	attrs map[string]any
	from  string
	to    string
}

const upsertWorkCypher = `MERGE (n:Work {id: $id})
ON CREATE SET n.title = $title, n.embedding = $embedding
ON MATCH SET n.title = $title, n.embedding = coalesce($embedding, n.embedding)`

const upsertAuthorCypher = `MERGE (n:Author {id: $id})
ON CREATE SET n.display_name = $display_name
ON MATCH SET n.display_name = $display_name`

const upsertInstitutionCypher = `MERGE (n:Institution {id: $id})
ON CREATE SET n.display_name = $display_name
ON MATCH SET n.display_name = $display_name`

const mergeReferencedCypher = `MATCH (a:Work {id: $from}), (b:Work {id: $to})
MERGE (a)-[:REFERENCED]->(b)`

const mergeAuthoredCypher = `MATCH (a:Author {id: $from}), (b:Work {id: $to})
MERGE (a)-[:AUTHORED]->(b)`

const mergeAffiliatedCypher = `MATCH (a:Author {id: $from}), (b:Institution {id: $to})
MERGE (a)-[:AFFILIATED_WITH]->(b)`

var edgeCypher = map[common.RelKind]string{
	common.RelReferenced:     mergeReferencedCypher,
	common.RelAuthored:       mergeAuthoredCypher,
	common.RelAffiliatedWith: mergeAffiliatedCypher,
}

// UpsertWork builds a Work upsert. A nil or empty embedding keeps whatever
// embedding the node already has.
func UpsertWork(id, title string, embedding []float32) Statement {
	var vec any
	if len(embedding) > 0 {
		f := make([]float64, len(embedding))
		for i, v := range embedding {
			f[i] = float64(v)
		}
		vec = f
	}
	return Statement{
		Cypher: upsertWorkCypher,
		Params: map[string]any{
			"id":        id,
			"title":     title,
			"embedding": vec,
		},
		mutation: &mutation{
			node:  true,
			kind:  common.KindWork,
			id:    id,
			attrs: map[string]any{"title": title, "embedding": vec},
		},
	}
}

// UpsertAuthor builds an Author upsert.
func UpsertAuthor(id, displayName string) Statement {
	return upsertNamed(common.KindAuthor, upsertAuthorCypher, id, displayName)
}

// UpsertInstitution builds an Institution upsert.
func UpsertInstitution(id, displayName string) Statement {
	return upsertNamed(common.KindInstitution, upsertInstitutionCypher, id, displayName)
}

func upsertNamed(kind common.Kind, cypher, id, displayName string) Statement {
	return Statement{
		Cypher: cypher,
		Params: map[string]any{"id": id, "display_name": displayName},
		mutation: &mutation{
			node:  true,
			kind:  kind,
			id:    id,
			attrs: map[string]any{"display_name": displayName},
		},
	}
}

// MergeEdge builds an edge statement that matches both endpoints by id and
// merges the relationship between them. Both endpoint upserts must already be
// buffered (or persisted) for the edge to be created.
func MergeEdge(rel common.RelKind, fromID, toID string) Statement {
	return Statement{
		Cypher:   edgeCypher[rel],
		Params:   map[string]any{"from": fromID, "to": toID},
		mutation: &mutation{rel: rel, from: fromID, to: toID},
	}
}

// Kind reports the node kind for node upserts. ok is false for edges and for
// statements not built by this package.
func (s Statement) Kind() (kind common.Kind, ok bool) {
	if s.mutation == nil || !s.mutation.node {
		return 0, false
	}
	return s.mutation.kind, true
}

// Rel reports the edge kind and endpoints for edge statements.
func (s Statement) Rel() (rel common.RelKind, from, to string, ok bool) {
	if s.mutation == nil || s.mutation.node {
		return 0, "", "", false
	}
	return s.mutation.rel, s.mutation.from, s.mutation.to, true
}
