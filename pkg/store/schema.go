package store

import (
	"context"
	"fmt"

	"github.com/OFFIS-RIT/papergraph/pkg/common"
	"github.com/OFFIS-RIT/papergraph/pkg/logger"
)

const (
	VectorIndexName = "work_embedding_index"
	TextIndexName   = "node_text_index_id"

	// Neo4j rejects vector indexes wider than this.
	maxVectorDimensions = 4096
)

// ProvisionParams configures the vector index over Work embeddings.
type ProvisionParams struct {
	Dimensions int
	Similarity string
}

// ProvisionStatements returns the idempotent schema statements in execution
// order. Index options cannot be bound as parameters, so dimensions and
// similarity are validated against a closed range before they are rendered.
func ProvisionStatements(params ProvisionParams) ([]string, error) {
	if params.Dimensions <= 0 || params.Dimensions > maxVectorDimensions {
		return nil, fmt.Errorf("vector dimensions must be within 1..%d, got %d", maxVectorDimensions, params.Dimensions)
	}
	similarity := params.Similarity
	if similarity == "" {
		similarity = "cosine"
	}
	if similarity != "cosine" && similarity != "euclidean" {
		return nil, fmt.Errorf("unsupported similarity function %q", params.Similarity)
	}

	stmts := make([]string, 0, 2+len(common.Kinds))
	for _, kind := range common.Kinds {
		stmts = append(stmts, uniqueConstraintCypher[kind])
	}
	stmts = append(stmts,
		`CREATE TEXT INDEX `+TextIndexName+` IF NOT EXISTS FOR (n:Work) ON (n.id)`,
		fmt.Sprintf(
			"CREATE VECTOR INDEX %s IF NOT EXISTS FOR (n:Work) ON (n.embedding) "+
				"OPTIONS {indexConfig: {`vector.dimensions`: %d, `vector.similarity_function`: '%s'}}",
			VectorIndexName, params.Dimensions, similarity,
		),
	)
	return stmts, nil
}

var uniqueConstraintCypher = map[common.Kind]string{
	common.KindWork:        `CREATE CONSTRAINT work_id_unique IF NOT EXISTS FOR (n:Work) REQUIRE n.id IS UNIQUE`,
	common.KindAuthor:      `CREATE CONSTRAINT author_id_unique IF NOT EXISTS FOR (n:Author) REQUIRE n.id IS UNIQUE`,
	common.KindInstitution: `CREATE CONSTRAINT institution_id_unique IF NOT EXISTS FOR (n:Institution) REQUIRE n.id IS UNIQUE`,
}

// Provision creates the constraints and indexes if they are absent. Running it
// against an already provisioned database changes nothing.
func (s *Neo4jStorage) Provision(ctx context.Context, params ProvisionParams) error {
	stmts, err := ProvisionStatements(params)
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if err := s.runAutoCommit(ctx, stmt, nil); err != nil {
			return fmt.Errorf("provision schema: %w", err)
		}
	}
	logger.Info("[Store] Schema provisioned", "statements", len(stmts), "dimensions", params.Dimensions)
	return nil
}

const resetCypher = `MATCH (n) CALL { WITH n DETACH DELETE n } IN TRANSACTIONS OF 10000 ROWS`

// Reset deletes every node and relationship. This is an administrative
// operation and is never called by ingestion.
func (s *Neo4jStorage) Reset(ctx context.Context) error {
	if err := s.runAutoCommit(ctx, resetCypher, nil); err != nil {
		return fmt.Errorf("reset graph: %w", err)
	}
	logger.Warn("[Store] Graph reset, all nodes deleted")
	return nil
}
