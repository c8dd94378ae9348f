package store

import (
	"context"
	"strings"
	"testing"

	"github.com/OFFIS-RIT/papergraph/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvisionStatements(t *testing.T) {
	stmts, err := ProvisionStatements(ProvisionParams{Dimensions: 1536})
	require.NoError(t, err)
	require.Len(t, stmts, 5)

	for _, s := range stmts {
		assert.Contains(t, s, "IF NOT EXISTS")
	}
	assert.Contains(t, stmts[0], "FOR (n:Work) REQUIRE n.id IS UNIQUE")
	assert.Contains(t, stmts[1], "FOR (n:Author) REQUIRE n.id IS UNIQUE")
	assert.Contains(t, stmts[2], "FOR (n:Institution) REQUIRE n.id IS UNIQUE")
	assert.True(t, strings.HasPrefix(stmts[3], "CREATE TEXT INDEX "+TextIndexName))
	assert.Contains(t, stmts[4], "`vector.dimensions`: 1536")
	assert.Contains(t, stmts[4], "'cosine'")
}

func TestProvisionStatements_Validation(t *testing.T) {
	tests := []struct {
		name   string
		params ProvisionParams
	}{
		{name: "zero dimensions", params: ProvisionParams{Dimensions: 0}},
		{name: "too wide", params: ProvisionParams{Dimensions: 5000}},
		{name: "unknown similarity", params: ProvisionParams{Dimensions: 8, Similarity: "cosine'}} //"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ProvisionStatements(tt.params)
			assert.Error(t, err)
		})
	}
}

func TestProvisionStatements_Euclidean(t *testing.T) {
	stmts, err := ProvisionStatements(ProvisionParams{Dimensions: 3, Similarity: "euclidean"})
	require.NoError(t, err)
	assert.Contains(t, stmts[len(stmts)-1], "'euclidean'")
}

func TestMemoryStorage_ProvisionAndReset(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStorage()

	require.Error(t, mem.Provision(ctx, ProvisionParams{Dimensions: 0, Similarity: "cosine"}))
	assert.False(t, mem.Provisioned())

	require.NoError(t, mem.Provision(ctx, ProvisionParams{Dimensions: 8, Similarity: "cosine"}))
	assert.True(t, mem.Provisioned())

	require.NoError(t, mem.WriteTx(ctx, []Statement{UpsertAuthor("A1", "Ada")}))
	require.NoError(t, mem.Reset(ctx))
	assert.Zero(t, mem.NodeCount(common.KindAuthor))
}
