package retrieval

import (
	"sort"

	"github.com/hyperjump/oshiete/internal/keyword"
	"github.com/hyperjump/oshiete/internal/vector"
)

// fusedHit holds an article ID and fused keyword/semantic scores.
type fusedHit struct {
	ID            string
	Score         float64
	KeywordScore  float64
	SemanticScore float64
}

// normalizeKeywordScores normalizes BM25 scores to [0,1] by max. Cosine scores
// are already in range, so after this both signals are comparable.
func normalizeKeywordScores(results []*keyword.Result) map[string]float64 {
	if len(results) == 0 {
		return make(map[string]float64)
	}
	maxScore := results[0].Score
	for _, r := range results {
		if r.Score > maxScore {
			maxScore = r.Score
		}
	}
	normalized := make(map[string]float64)
	for _, r := range results {
		if maxScore > 0 {
			normalized[r.ID] = r.Score / maxScore
		} else {
			normalized[r.ID] = 0
		}
	}
	return normalized
}

// semanticScores converts vector hits to an ID -> score map.
func semanticScores(results []*vector.Result) map[string]float64 {
	scores := make(map[string]float64)
	for _, r := range results {
		scores[r.ID] = r.Score
	}
	return scores
}

// fuse merges keyword and semantic score maps with weights and returns hits
// sorted by fused score descending. Exact ties order by ID so the ranking is
// stable across calls despite map iteration order.
func fuse(keywordScores, semanticScores map[string]float64, keywordWeight, semanticWeight float64) []*fusedHit {
	hitMap := make(map[string]*fusedHit)
	for id, score := range keywordScores {
		hitMap[id] = &fusedHit{ID: id, KeywordScore: score}
	}
	for id, score := range semanticScores {
		if hit, exists := hitMap[id]; exists {
			hit.SemanticScore = score
		} else {
			hitMap[id] = &fusedHit{ID: id, SemanticScore: score}
		}
	}
	hits := make([]*fusedHit, 0, len(hitMap))
	for _, hit := range hitMap {
		hit.Score = (keywordWeight * hit.KeywordScore) + (semanticWeight * hit.SemanticScore)
		hits = append(hits, hit)
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})
	return hits
}
