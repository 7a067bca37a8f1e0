package ingest

import (
	"crypto/sha256"
	"encoding/hex"
)

const feedIDPrefix = "feed:"

// feedArticleID returns a stable article ID for a feed item link, so refreshes
// of the same feed recognize items they already ingested.
func feedArticleID(link string) string {
	hash := sha256.Sum256([]byte(link))
	return feedIDPrefix + hex.EncodeToString(hash[:])
}
