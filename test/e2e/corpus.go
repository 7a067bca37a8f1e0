// Package e2e provides end-to-end tests with a news corpus and multiple queries.
package e2e

import (
	"fmt"
	"time"

	"github.com/hyperjump/oshiete/internal/models"
)

// QueryTestCase defines a query and the article ID(s) that must appear in
// retrieval results. At least one of ExpectedArticleIDs must be present among
// the primary and related articles.
type QueryTestCase struct {
	Query              string
	ExpectedArticleIDs []string
	Description        string
}

// Corpus holds articles and query test cases for E2E tests.
type Corpus struct {
	Articles     []models.ArticleInput
	TestCases    []QueryTestCase
	TotalDocs    int
	TotalQueries int
}

// newsTopic is one news storyline. Each topic produces several dated articles
// that all carry the topic's signature phrase, so queries can assert that the
// right storyline is retrieved.
type newsTopic struct {
	slug       string
	title      string
	phrase     string
	body       string
	categories []string
}

var newsTopics = []newsTopic{
	{"budget-vote", "Parliament passes budget", "parliament budget vote", "Parliament approved the annual budget late on Thursday. The parliament budget vote followed a marathon session with three opposition amendments rejected.", []string{"politics"}},
	{"rate-cut", "Central bank cuts rates", "central bank interest rate cut", "The central bank lowered its benchmark rate by a quarter point. The central bank interest rate cut is the first easing move in two years.", []string{"economy"}},
	{"chip-plant", "New semiconductor plant announced", "semiconductor plant construction", "A major chipmaker will build a fabrication plant in the northern region. The semiconductor plant construction is expected to create four thousand jobs.", []string{"business", "technology"}},
	{"transit-strike", "Transit workers begin strike", "transit workers strike", "Bus and subway service halted as unions walked out over pay. The transit workers strike is expected to last through the weekend.", []string{"local"}},
	{"wildfire", "Wildfires spread in coastal hills", "coastal wildfire evacuation", "Firefighters battled blazes driven by dry winds. The coastal wildfire evacuation covers three towns and a campground.", []string{"environment"}},
	{"vaccine-trial", "Flu vaccine trial shows promise", "universal flu vaccine trial", "Researchers reported strong immune responses in a phase two study. The universal flu vaccine trial enrolled two thousand volunteers.", []string{"health", "science"}},
	{"port-expansion", "Port expansion approved", "container port expansion", "Regulators cleared the harbor deepening project after environmental review. The container port expansion doubles berth capacity by 2030.", []string{"business"}},
	{"election-debate", "Candidates clash in first debate", "presidential election debate", "The two leading candidates sparred over taxes and housing. The presidential election debate drew a record television audience.", []string{"politics"}},
	{"satellite-launch", "Weather satellite reaches orbit", "weather satellite launch", "The new spacecraft will improve storm forecasting across the hemisphere. The weather satellite launch was the agency's third this year.", []string{"science"}},
	{"museum-reopening", "City museum reopens after renovation", "city museum renovation reopening", "The landmark building welcomed visitors after a three year closure. The city museum renovation reopening features a new antiquities wing.", []string{"culture"}},
	{"data-breach", "Retailer discloses data breach", "retailer customer data breach", "Millions of customer records were exposed through a vendor system. The retailer customer data breach prompted a regulatory inquiry.", []string{"technology"}},
	{"housing-plan", "Council adopts housing plan", "affordable housing construction plan", "The city council approved zoning changes near transit corridors. The affordable housing construction plan targets twenty thousand units.", []string{"local", "politics"}},
	{"drought-farming", "Drought strains farm output", "drought crop yields", "A third dry summer has cut harvests across the plains. The drought crop yields report projects a fifteen percent decline.", []string{"environment", "economy"}},
	{"ai-regulation", "Lawmakers debate AI rules", "artificial intelligence regulation bill", "A draft law would require audits of high-risk automated systems. The artificial intelligence regulation bill faces industry opposition.", []string{"technology", "politics"}},
	{"stadium-deal", "Stadium financing deal reached", "stadium public financing deal", "The club and the city split costs for the new arena. The stadium public financing deal caps the public share at forty percent.", []string{"sports", "local"}},
	{"ferry-service", "Ferry service resumes", "harbor ferry service resumption", "Boats returned to the crossing after engine refits. The harbor ferry service resumption restores the commuter schedule.", []string{"local"}},
}

// articleStages turns each topic into a short storyline of dated articles.
var articleStages = []struct {
	suffix string
	lede   string
	days   int
}{
	{"", "", 0},
	{" - officials respond", "Officials responded to the developments on Friday. ", 1},
	{" - what it means", "Analysts weighed the longer-term implications. ", 3},
}

// BuildCorpus returns a corpus of dated news articles with varied content and
// query test cases. Every article of a topic carries the topic's signature
// phrase, so a query for that phrase must surface at least one of them.
func BuildCorpus() *Corpus {
	base := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
	var articles []models.ArticleInput
	var cases []QueryTestCase
	for ti, topic := range newsTopics {
		ids := make([]string, 0, len(articleStages))
		for si, stage := range articleStages {
			id := fmt.Sprintf("news-%s-%d", topic.slug, si+1)
			ids = append(ids, id)
			articles = append(articles, models.ArticleInput{
				ID:          id,
				Title:       topic.title + stage.suffix,
				Body:        stage.lede + topic.body,
				URL:         fmt.Sprintf("https://example.com/news/%s/%d", topic.slug, si+1),
				Categories:  topic.categories,
				PublishedAt: base.AddDate(0, 0, ti+stage.days),
			})
		}
		cases = append(cases, QueryTestCase{
			Query:              topic.phrase,
			ExpectedArticleIDs: ids,
			Description:        topic.slug,
		})
	}
	return &Corpus{
		Articles:     articles,
		TestCases:    cases,
		TotalDocs:    len(articles),
		TotalQueries: len(cases),
	}
}
