package content

import (
	"strings"

	"concierge/internal/visitor"
)

// Variant identifies which pre-written rendition was served.
type Variant string

// Content variants.
const (
	VariantBot   Variant = "bot"
	VariantHuman Variant = "human"
	VariantChat  Variant = "chat"
)

// Selection is rendered content for one topic and visitor.
type Selection struct {
	TopicID  string            `json:"topicId"`
	Content  string            `json:"content"`
	Variant  Variant           `json:"variant"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Selector renders the right variant of a topic for a visitor.
type Selector struct {
	store        Store
	callToAction string
}

// NewSelector creates a selector. callToAction is appended to newsletter
// variants.
func NewSelector(store Store, callToAction string) *Selector {
	return &Selector{store: store, callToAction: strings.TrimSpace(callToAction)}
}

// Select renders topicID for the visitor category. It only fails with
// ErrContentNotFound when the topic does not exist.
func (s *Selector) Select(topicID string, category visitor.Category, query string) (*Selection, error) {
	t, err := s.store.Topic(topicID)
	if err != nil {
		return nil, err
	}

	sel := &Selection{
		TopicID: t.ID,
		Metadata: map[string]string{
			"title": t.Title,
			"kind":  string(t.Kind),
		},
	}
	if t.URL != "" {
		sel.Metadata["url"] = t.URL
	}

	switch category {
	case visitor.CategoryBot:
		sel.Variant = VariantBot
		sel.Content = firstNonEmpty(t.Variants.SEO, t.Variants.Summary, t.Title)
		if len(t.Variants.Schema) > 0 {
			sel.Content += "\n\n<script type=\"application/ld+json\">" + string(t.Variants.Schema) + "</script>"
			sel.Metadata["schema"] = "true"
		}
	case visitor.CategoryNewsletter:
		sel.Variant = VariantHuman
		sel.Content = firstNonEmpty(t.Variants.Summary, t.Variants.SEO, t.Title)
		if s.callToAction != "" {
			sel.Content += "\n\n" + s.callToAction
		}
	default:
		sel.Variant = VariantChat
		section, ok := pickSection(t, strings.ToLower(query))
		if ok {
			sel.Content = section.Content
			sel.Metadata["section"] = section.Key
		} else {
			sel.Content = firstNonEmpty(t.Variants.Summary, t.Variants.SEO, t.Title)
		}
	}

	return sel, nil
}

// pickSection walks the topic's sections in priority order and returns the
// first whose triggers appear in the query, falling back to the default
// section and then the first section.
func pickSection(t *Topic, query string) (Section, bool) {
	for _, s := range t.Variants.Sections {
		for _, trig := range s.Triggers {
			if trig != "" && strings.Contains(query, strings.ToLower(trig)) {
				return s, true
			}
		}
	}
	if t.Variants.DefaultSection != "" {
		if s, ok := t.section(t.Variants.DefaultSection); ok {
			return s, true
		}
	}
	if len(t.Variants.Sections) > 0 {
		return t.Variants.Sections[0], true
	}
	return Section{}, false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
