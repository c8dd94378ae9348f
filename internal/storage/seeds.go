package storage

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// ParseSeeds reads one seed (OpenAlex id or DOI) per line. Blank lines and
// lines starting with # are ignored, as is anything after the first comma so
// single-column CSV exports work too. Duplicates keep their first position.
func ParseSeeds(r io.Reader) ([]string, error) {
	var seeds []string
	seen := make(map[string]struct{})

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if i := strings.IndexByte(line, ','); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		line = strings.Trim(line, `"`)
		if line == "" {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		seeds = append(seeds, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read seed list: %w", err)
	}
	return seeds, nil
}

func LoadSeedsFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed list: %w", err)
	}
	defer f.Close()
	return ParseSeeds(f)
}

func LoadSeedsS3(ctx context.Context, client ObjectGetter, bucket, key string) ([]string, error) {
	if client == nil || bucket == "" {
		return nil, ErrStorageDisabled
	}
	data, err := GetFile(ctx, client, bucket, key)
	if err != nil {
		return nil, err
	}
	return ParseSeeds(bytes.NewReader(data))
}
