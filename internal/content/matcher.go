package content

import (
	"sort"
	"strings"
	"unicode"
)

// Confidence thresholds.
const (
	// RelevanceThreshold is the score a topic must exceed to be ranked at all.
	RelevanceThreshold = 0.2
	// HighConfidence is the score at which a match is trusted for routing.
	HighConfidence = 0.4

	genericIndustryBoost  = 0.1
	declaredIndustryBoost = 0.15
)

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {}, "you": {}, "your": {},
	"all": {}, "any": {}, "can": {}, "had": {}, "her": {}, "was": {}, "one": {}, "our": {},
	"out": {}, "has": {}, "have": {}, "how": {}, "what": {}, "when": {}, "where": {}, "who": {},
	"why": {}, "which": {}, "with": {}, "this": {}, "that": {}, "these": {}, "those": {},
	"from": {}, "they": {}, "them": {}, "their": {}, "there": {}, "will": {}, "would": {},
	"could": {}, "should": {}, "about": {}, "does": {}, "did": {}, "doing": {}, "into": {},
	"just": {}, "like": {}, "more": {}, "some": {}, "than": {}, "then": {}, "very": {},
	"also": {}, "been": {}, "being": {}, "were": {}, "its": {}, "it's": {}, "his": {},
	"she": {}, "him": {}, "get": {}, "got": {}, "tell": {}, "please": {}, "much": {},
	"want": {}, "need": {}, "know": {},
}

// industry is a fixed industry tag and the phrases that signal it.
type industry struct {
	name     string
	keywords []string
}

var industries = []industry{
	{"healthcare", []string{"healthcare", "health care", "hospital", "clinic", "medical", "patient", "pharma", "biotech"}},
	{"finance", []string{"finance", "financial", "bank", "fintech", "insurance", "lending", "investment", "accounting"}},
	{"retail", []string{"retail", "ecommerce", "e-commerce", "store", "shop", "consumer", "merchandis"}},
	{"manufacturing", []string{"manufactur", "factory", "supply chain", "industrial", "production line", "logistics"}},
	{"technology", []string{"technology", "software", "saas", "tech company", "startup", "platform", "developer"}},
}

// Result is one ranked topic match.
type Result struct {
	TopicID            string   `json:"topicId"`
	Confidence         float64  `json:"confidence"`
	MatchedKeywords    []string `json:"matchedKeywords"`
	RelevantIndustries []string `json:"relevantIndustries,omitempty"`
}

// Matcher scores queries against a topic corpus.
type Matcher struct {
	store Store
}

// NewMatcher creates a matcher over store.
func NewMatcher(store Store) *Matcher {
	return &Matcher{store: store}
}

// Tokenize lower-cases the query, strips punctuation and drops short tokens
// and stop words.
func Tokenize(query string) []string {
	words := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '-' && r != '\''
	})

	tokens := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.Trim(w, "-'")
		if len(w) <= 2 {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		tokens = append(tokens, w)
	}
	return tokens
}

// DetectIndustries returns every industry with at least one keyword in the
// query, in table order.
func DetectIndustries(query string) []string {
	q := strings.ToLower(query)
	var found []string
	for _, ind := range industries {
		for _, kw := range ind.keywords {
			if strings.Contains(q, kw) {
				found = append(found, ind.name)
				break
			}
		}
	}
	return found
}

// Match ranks every topic whose confidence exceeds RelevanceThreshold,
// highest first. Ties keep declaration order.
func (m *Matcher) Match(query string) []Result {
	tokens := Tokenize(query)
	if len(tokens) == 0 {
		return nil
	}
	detected := DetectIndustries(query)

	var results []Result
	for _, t := range m.store.Topics() {
		r := score(t, tokens, detected)
		if r.Confidence > RelevanceThreshold {
			results = append(results, r)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Confidence > results[j].Confidence
	})
	return results
}

// Best returns the top match when it reaches HighConfidence.
func (m *Matcher) Best(query string) (Result, bool) {
	results := m.Match(query)
	if len(results) == 0 || results[0].Confidence < HighConfidence {
		return Result{}, false
	}
	return results[0], true
}

func score(t *Topic, tokens, detected []string) Result {
	var matched []string
	seen := make(map[string]struct{})

	tierScore := func(keywords []string) float64 {
		hits := 0
		for _, tok := range tokens {
			hit := false
			for _, kw := range keywords {
				if kw == "" {
					continue
				}
				if strings.Contains(kw, tok) || strings.Contains(tok, kw) {
					hit = true
					if _, ok := seen[kw]; !ok {
						seen[kw] = struct{}{}
						matched = append(matched, kw)
					}
				}
			}
			if hit {
				hits++
			}
		}
		return float64(hits) / float64(len(tokens))
	}

	confidence := PrimaryWeight*tierScore(t.Keywords.Primary) +
		SecondaryWeight*tierScore(t.Keywords.Secondary) +
		ConceptWeight*tierScore(t.Keywords.Concepts)

	var relevant []string
	if len(detected) > 0 {
		for _, ind := range detected {
			if t.HasIndustry(ind) {
				relevant = append(relevant, ind)
			}
		}
		if len(relevant) > 0 {
			confidence += declaredIndustryBoost
		} else {
			confidence += genericIndustryBoost
		}
	}

	return Result{
		TopicID:            t.ID,
		Confidence:         clamp(confidence),
		MatchedKeywords:    matched,
		RelevantIndustries: relevant,
	}
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
