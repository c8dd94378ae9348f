package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/OFFIS-RIT/papergraph/internal/config"
	"github.com/OFFIS-RIT/papergraph/internal/storage"
	"github.com/OFFIS-RIT/papergraph/pkg/graph"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectSeeds(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seeds.txt")
	require.NoError(t, os.WriteFile(path, []byte("# seeds\nW2\nW3\n\nW1\n"), 0o644))

	t.Cleanup(func() { ingestSeedsFile, ingestSeedsS3Key = "", "" })

	ingestSeedsFile = path
	seeds, err := collectSeeds(context.Background(), &config.Config{}, []string{"W1", "W1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"W1", "W2", "W3"}, seeds)

	ingestSeedsFile = ""
	_, err = collectSeeds(context.Background(), &config.Config{}, nil)
	assert.ErrorIs(t, err, errNoSeeds)

	ingestSeedsS3Key = "seeds.txt"
	_, err = collectSeeds(context.Background(), &config.Config{}, nil)
	assert.ErrorIs(t, err, storage.ErrStorageDisabled)
}

func TestPrintResults(t *testing.T) {
	cmd := &cobra.Command{}
	var buf bytes.Buffer
	cmd.SetOut(&buf)

	printResults(cmd, []graph.SeedResult{
		{Seed: "W1", WorkID: "W1", Status: graph.StatusCompleted, Statements: 7, Duration: 1500 * time.Millisecond},
		{Seed: "W9", Status: graph.StatusSkipped, Error: "not found"},
	})

	assert.Equal(t, "completed\tW1\tW1\t7 statements\t1.5s\nskipped\tW9\t\t0 statements\t0s\tnot found\n", buf.String())
}

func TestResetNeedsConfirmation(t *testing.T) {
	resetYes = false
	err := resetCmd.RunE(resetCmd, nil)
	assert.ErrorIs(t, err, errResetNotConfirmed)
}
