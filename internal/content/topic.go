package content

import "encoding/json"

// Kind is the collection a topic belongs to.
type Kind string

// Topic kinds, in the order collections are loaded.
const (
	KindArticle   Kind = "article"
	KindCaseStudy Kind = "case_study"
	KindService   Kind = "service"
	KindFAQ       Kind = "faq"
)

// Weights applied to each keyword tier.
const (
	PrimaryWeight   = 1.0
	SecondaryWeight = 0.8
	ConceptWeight   = 0.6
)

// KeywordSets are the three tiers of phrases a topic matches on.
type KeywordSets struct {
	Primary   []string `json:"primary"`
	Secondary []string `json:"secondary"`
	Concepts  []string `json:"concepts"`
}

// Section is a keyed chunk of chat content selected when any of its
// triggers appears in the query.
type Section struct {
	Key      string   `json:"key"`
	Triggers []string `json:"triggers"`
	Content  string   `json:"content"`
}

// Variants holds the pre-written renditions of a topic.
type Variants struct {
	SEO            string          `json:"seo"`
	Schema         json.RawMessage `json:"schema,omitempty"`
	Summary        string          `json:"summary"`
	Sections       []Section       `json:"sections,omitempty"`
	DefaultSection string          `json:"defaultSection,omitempty"`
}

// Topic is one matchable content item. Topics are read-only once loaded.
type Topic struct {
	ID         string      `json:"id"`
	Kind       Kind        `json:"-"`
	Title      string      `json:"title"`
	URL        string      `json:"url,omitempty"`
	Keywords   KeywordSets `json:"keywordSets"`
	Industries []string    `json:"industries,omitempty"`
	Variants   Variants    `json:"variants"`
}

// section returns the section with the given key.
func (t *Topic) section(key string) (Section, bool) {
	for _, s := range t.Variants.Sections {
		if s.Key == key {
			return s, true
		}
	}
	return Section{}, false
}

// HasIndustry reports whether the topic declares the industry.
func (t *Topic) HasIndustry(industry string) bool {
	for _, i := range t.Industries {
		if i == industry {
			return true
		}
	}
	return false
}
