package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/oshiete/internal/models"
)

// IngestFile reads a JSON drop file and ingests the articles in it. The file
// holds either a single article object or an array of them. Only .json files
// are accepted; watched directories can hold other things.
func (ig *Ingestor) IngestFile(ctx context.Context, path string) (int, error) {
	if strings.ToLower(filepath.Ext(path)) != ".json" {
		return 0, fmt.Errorf("not an article file: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read article file: %w", err)
	}

	inputs, err := decodeArticleFile(data)
	if err != nil {
		return 0, fmt.Errorf("parse article file %s: %w", filepath.Base(path), err)
	}

	ingested := 0
	for i := range inputs {
		if _, err := ig.IngestArticle(ctx, &inputs[i]); err != nil {
			return ingested, fmt.Errorf("ingest article %d from %s: %w", i, filepath.Base(path), err)
		}
		ingested++
	}
	return ingested, nil
}

// IngestDirectory walks dir and ingests every .json file. Returns the number
// of articles ingested and the first error encountered.
func (ig *Ingestor) IngestDirectory(ctx context.Context, dir string) (int, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return 0, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("not a directory: %s", absDir)
	}
	total := 0
	err = filepath.WalkDir(absDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || strings.ToLower(filepath.Ext(path)) != ".json" {
			return nil
		}
		n, ingestErr := ig.IngestFile(ctx, path)
		total += n
		return ingestErr
	})
	return total, err
}

func decodeArticleFile(data []byte) ([]models.ArticleInput, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var inputs []models.ArticleInput
		if err := json.Unmarshal(data, &inputs); err != nil {
			return nil, err
		}
		return inputs, nil
	}
	var input models.ArticleInput
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, err
	}
	return []models.ArticleInput{input}, nil
}
