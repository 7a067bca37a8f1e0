// Package e2e provides end-to-end tests; this file builds JSON drop files for
// file-based ingestion tests.
package e2e

import (
	"encoding/json"

	"github.com/hyperjump/oshiete/internal/models"
)

// MarshalArticleFile returns the bytes of a JSON drop file holding the given
// articles. With asArray false a single-article slice is written as a bare
// object, matching the other accepted drop-file shape.
func MarshalArticleFile(articles []models.ArticleInput, asArray bool) ([]byte, error) {
	if !asArray && len(articles) == 1 {
		return json.MarshalIndent(&articles[0], "", "  ")
	}
	return json.MarshalIndent(articles, "", "  ")
}
