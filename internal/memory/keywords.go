package memory

import (
	"regexp"
	"strings"
)

// stopWords are common articles, pronouns and auxiliaries excluded from
// keyword extraction.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"by": {}, "for": {}, "from": {}, "has": {}, "he": {}, "in": {}, "is": {},
	"it": {}, "its": {}, "of": {}, "on": {}, "that": {}, "the": {}, "to": {},
	"was": {}, "will": {}, "with": {}, "i": {}, "you": {}, "we": {},
	"they": {}, "this": {}, "these": {}, "those": {}, "what": {}, "when": {},
	"where": {}, "how": {}, "why": {}, "can": {}, "could": {}, "would": {},
	"should": {}, "do": {}, "did": {}, "have": {}, "had": {}, "my": {},
	"your": {}, "his": {}, "her": {}, "our": {}, "their": {},
}

var nonAlnumRe = regexp.MustCompile(`[^a-zA-Z0-9\s]`)

// ExtractKeywords returns the deduplicated lowercase keywords of text:
// alphanumeric tokens longer than two characters that are not stop words.
// Non-alphanumeric characters act as separators. Output order carries no
// meaning.
func ExtractKeywords(text string) []string {
	cleaned := nonAlnumRe.ReplaceAllString(strings.ToLower(text), " ")

	seen := make(map[string]struct{})
	var keywords []string
	for _, word := range strings.Fields(cleaned) {
		if len(word) <= 2 {
			continue
		}
		if _, stop := stopWords[word]; stop {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		keywords = append(keywords, word)
	}

	return keywords
}

// Score rates record keywords against query keywords as the fraction of
// query keywords present in the record, in (0, 1] for any intersection and
// 0 otherwise.
func Score(queryKeywords, recordKeywords []string) float64 {
	if len(queryKeywords) == 0 || len(recordKeywords) == 0 {
		return 0
	}

	set := make(map[string]struct{}, len(recordKeywords))
	for _, k := range recordKeywords {
		set[k] = struct{}{}
	}

	matches := 0
	for _, k := range queryKeywords {
		if _, ok := set[k]; ok {
			matches++
		}
	}

	return float64(matches) / float64(len(queryKeywords))
}
