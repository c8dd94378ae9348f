package store

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

const similarCypher = `CALL db.index.vector.queryNodes($index, $k, $embedding)
YIELD node, score
RETURN node.id AS id, node.title AS title, score
ORDER BY score DESC`

// Similar returns the k works whose title embedding is closest to embedding.
func (s *Neo4jStorage) Similar(ctx context.Context, embedding []float32, k int) ([]SimilarWork, error) {
	if k <= 0 {
		return nil, nil
	}
	if len(embedding) == 0 {
		return nil, fmt.Errorf("similarity query needs an embedding")
	}
	vec := make([]float64, len(embedding))
	for i, v := range embedding {
		vec[i] = float64(v)
	}

	res, err := neo4j.ExecuteQuery(ctx, s.driver, similarCypher,
		map[string]any{"index": VectorIndexName, "k": k, "embedding": vec},
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(s.database),
		neo4j.ExecuteQueryWithReadersRouting(),
	)
	if err != nil {
		return nil, fmt.Errorf("similarity query: %w", err)
	}

	out := make([]SimilarWork, 0, len(res.Records))
	for _, rec := range res.Records {
		id, _, err := neo4j.GetRecordValue[string](rec, "id")
		if err != nil {
			return nil, err
		}
		title, _, err := neo4j.GetRecordValue[string](rec, "title")
		if err != nil {
			return nil, err
		}
		score, _, err := neo4j.GetRecordValue[float64](rec, "score")
		if err != nil {
			return nil, err
		}
		out = append(out, SimilarWork{ID: id, Title: title, Score: score})
	}
	return out, nil
}
