// Package sentiment provides the heuristic sentiment classifier used by the
// scheduled ingestion pipeline. It is a cheap substring heuristic; background
// jobs never call a paid external API per mention.
package sentiment

import "strings"

var positiveWords = []string{
	"good", "great", "excellent", "love", "awesome", "amazing", "fantastic",
	"helpful", "best", "recommend", "happy", "impressed", "works", "solved",
	"reliable", "easy",
}

var negativeWords = []string{
	"bad", "terrible", "awful", "hate", "worst", "broken", "error", "fail",
	"problem", "issue", "bug", "disappointed", "scam", "overpriced", "slow",
	"useless",
}

// topicTags is the fixed taxonomy of topical phrases extracted as tags.
var topicTags = []string{
	"customer service", "pricing", "performance", "support", "alternative",
	"review", "recommendation", "comparison", "bug", "feature",
}

// Result holds the outcome of classifying one piece of text.
type Result struct {
	Sentiment string
	Tags      []string
}

// Classify maps (text, keyword) to a sentiment label plus topical tags.
// Text that does not contain the keyword is always neutral; otherwise word
// counts over the fixed positive/negative sets decide, with equal nonzero
// counts labeled mixed. Matching is case-insensitive substring containment,
// not tokenized, so a word inside a longer word still counts.
func Classify(text, keyword string) Result {
	content := strings.ToLower(text)
	kw := strings.ToLower(keyword)

	result := Result{
		Sentiment: "neutral",
		Tags:      extractTags(content, kw),
	}

	if !strings.Contains(content, kw) {
		return result
	}

	positiveCount := 0
	negativeCount := 0

	for _, word := range positiveWords {
		if strings.Contains(content, word) {
			positiveCount++
		}
	}

	for _, word := range negativeWords {
		if strings.Contains(content, word) {
			negativeCount++
		}
	}

	switch {
	case positiveCount > negativeCount:
		result.Sentiment = "positive"
	case negativeCount > positiveCount:
		result.Sentiment = "negative"
	case positiveCount > 0:
		result.Sentiment = "mixed"
	}

	return result
}

// extractTags returns the lowercased keyword plus any taxonomy phrase found
// in the content, deduplicated.
func extractTags(content, keyword string) []string {
	tags := []string{keyword}
	seen := map[string]bool{keyword: true}

	for _, topic := range topicTags {
		if seen[topic] {
			continue
		}
		if strings.Contains(content, topic) {
			tags = append(tags, topic)
			seen[topic] = true
		}
	}

	return tags
}
