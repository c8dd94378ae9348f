package store

import (
	"context"
	"errors"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelaxedURI(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{in: "neo4j+s://abc.databases.neo4j.io", want: "neo4j+ssc://abc.databases.neo4j.io", ok: true},
		{in: "bolt+s://localhost:7687", want: "bolt+ssc://localhost:7687", ok: true},
		{in: "neo4j://localhost:7687", ok: false},
		{in: "neo4j+ssc://localhost:7687", ok: false},
	}
	for _, tt := range tests {
		got, ok := relaxedURI(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestConnectWithFallback_RetriesOnceWithRelaxedScheme(t *testing.T) {
	var tried []string
	dial := func(ctx context.Context, uri string) (neo4j.DriverWithContext, error) {
		tried = append(tried, uri)
		if uri == "neo4j+s://db:7687" {
			return nil, errors.New("certificate signed by unknown authority")
		}
		return nil, nil
	}

	_, err := connectWithFallback(context.Background(), "neo4j+s://db:7687", dial)
	require.NoError(t, err)
	assert.Equal(t, []string{"neo4j+s://db:7687", "neo4j+ssc://db:7687"}, tried)
}

func TestConnectWithFallback_BothFail(t *testing.T) {
	calls := 0
	dial := func(ctx context.Context, uri string) (neo4j.DriverWithContext, error) {
		calls++
		return nil, errors.New("unreachable")
	}

	_, err := connectWithFallback(context.Background(), "neo4j+s://db:7687", dial)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.Equal(t, 2, calls)
}

func TestConnectWithFallback_NoRelaxedScheme(t *testing.T) {
	calls := 0
	dial := func(ctx context.Context, uri string) (neo4j.DriverWithContext, error) {
		calls++
		return nil, errors.New("unreachable")
	}

	_, err := connectWithFallback(context.Background(), "bolt://db:7687", dial)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.Equal(t, 1, calls)
}
