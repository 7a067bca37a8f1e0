package e2e

import (
	"encoding/json"
	"testing"

	"github.com/hyperjump/oshiete/internal/models"
)

func TestMarshalArticleFile(t *testing.T) {
	articles := []models.ArticleInput{
		{ID: "a1", Title: "First", Body: "body one"},
		{ID: "a2", Title: "Second", Body: "body two"},
	}

	single, err := MarshalArticleFile(articles[:1], false)
	if err != nil {
		t.Fatal(err)
	}
	var one models.ArticleInput
	if err := json.Unmarshal(single, &one); err != nil {
		t.Fatalf("single-article file is not a bare object: %v", err)
	}
	if one.ID != "a1" {
		t.Errorf("decoded ID = %q, want a1", one.ID)
	}

	arr, err := MarshalArticleFile(articles, true)
	if err != nil {
		t.Fatal(err)
	}
	var many []models.ArticleInput
	if err := json.Unmarshal(arr, &many); err != nil {
		t.Fatalf("multi-article file is not an array: %v", err)
	}
	if len(many) != 2 || many[1].ID != "a2" {
		t.Errorf("decoded array = %+v", many)
	}
}
