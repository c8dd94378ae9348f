package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/OFFIS-RIT/papergraph/internal/config"
	"github.com/OFFIS-RIT/papergraph/internal/storage"
	"github.com/OFFIS-RIT/papergraph/pkg/common"
	"github.com/OFFIS-RIT/papergraph/pkg/graph"
	"github.com/OFFIS-RIT/papergraph/pkg/logger"
	"github.com/OFFIS-RIT/papergraph/pkg/store"

	"github.com/spf13/cobra"
)

var (
	errNoSeeds      = errors.New("no seeds given")
	errInvalidDepth = errors.New("depth must not be negative")
)

var (
	ingestDepth      int
	ingestSeedsFile  string
	ingestSeedsS3Key string
	ingestDryRun     bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [SEED...]",
	Short: "Ingest seed works and their citation neighbourhood",
	Long: `Ingest resolves each seed (OpenAlex id or DOI) and writes it, its authors,
their institutions and every work it cites up to --depth hops into Neo4j.
Each seed is committed in its own transaction.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().IntVar(&ingestDepth, "depth", 1, "number of citation hops to follow")
	ingestCmd.Flags().StringVar(&ingestSeedsFile, "seeds-file", "", "read seeds from a local file, one per line")
	ingestCmd.Flags().StringVar(&ingestSeedsS3Key, "seeds-s3-key", "", "read seeds from an object in AWS_BUCKET")
	ingestCmd.Flags().BoolVar(&ingestDryRun, "dry-run", false, "traverse without writing to Neo4j")
	ingestCmd.MarkFlagsMutuallyExclusive("seeds-file", "seeds-s3-key")
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ingestDepth < 0 {
		return errInvalidDepth
	}

	seeds, err := collectSeeds(ctx, cfg, args)
	if err != nil {
		return err
	}

	var writer store.Writer
	var memory *store.MemoryStorage
	if ingestDryRun {
		memory = store.NewMemoryStorage()
		writer = memory
	} else {
		graphStorage, err := cfg.NewGraphStorage(ctx)
		if err != nil {
			return err
		}
		defer graphStorage.Close(ctx)
		writer = graphStorage
	}

	var pg *config.Postgres
	if !ingestDryRun {
		pg, err = cfg.OpenPostgres(ctx)
		if err != nil {
			return err
		}
		defer pg.Close()
	}

	embedder, err := cfg.NewEmbeddingClient()
	if err != nil {
		return err
	}
	hostname, _ := os.Hostname()
	client, err := cfg.NewGraphClient(writer, embedder, pg, "cli@"+hostname)
	if err != nil {
		return err
	}

	results, err := client.Ingest(ctx, seeds, ingestDepth)
	printResults(cmd, results)
	if memory != nil {
		logger.Info("Dry run finished",
			"works", memory.NodeCount(common.KindWork),
			"authors", memory.NodeCount(common.KindAuthor),
			"institutions", memory.NodeCount(common.KindInstitution),
		)
	}
	return err
}

// collectSeeds merges positional seeds with the optional seed list. Order is
// kept and duplicates are dropped.
func collectSeeds(ctx context.Context, c *config.Config, args []string) ([]string, error) {
	seeds := append([]string(nil), args...)

	switch {
	case ingestSeedsFile != "":
		fromFile, err := storage.LoadSeedsFile(ingestSeedsFile)
		if err != nil {
			return nil, err
		}
		seeds = append(seeds, fromFile...)
	case ingestSeedsS3Key != "":
		if !c.S3.Enabled() {
			return nil, storage.ErrStorageDisabled
		}
		client, err := storage.NewS3Client(ctx, c.S3)
		if err != nil {
			return nil, err
		}
		fromS3, err := storage.LoadSeedsS3(ctx, client, c.S3.Bucket, ingestSeedsS3Key)
		if err != nil {
			return nil, err
		}
		seeds = append(seeds, fromS3...)
	}

	seeds = dedupSeeds(seeds)
	if len(seeds) == 0 {
		return nil, errNoSeeds
	}
	return seeds, nil
}

func dedupSeeds(seeds []string) []string {
	seen := make(map[string]struct{}, len(seeds))
	out := make([]string, 0, len(seeds))
	for _, s := range seeds {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func printResults(cmd *cobra.Command, results []graph.SeedResult) {
	out := cmd.OutOrStdout()
	for _, r := range results {
		line := fmt.Sprintf("%s\t%s\t%s\t%d statements\t%s", r.Status, r.Seed, r.WorkID, r.Statements, r.Duration.Round(time.Millisecond))
		if r.Error != "" {
			line += "\t" + r.Error
		}
		fmt.Fprintln(out, line)
	}
}
