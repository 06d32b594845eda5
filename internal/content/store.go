// Package content loads the static topic corpus and decides which canned
// content answers a free-text query.
package content

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

//go:embed data/*.json
var embedded embed.FS

// ErrContentNotFound is returned when a topic id has no backing content.
var ErrContentNotFound = errors.New("content not found")

// Store looks topics up by id.
type Store interface {
	Topic(id string) (*Topic, error)
	Topics() []*Topic
}

// collection maps a corpus file to the kind of topics it holds.
type collection struct {
	file string
	kind Kind
}

// collections are loaded in this order; it is also the tie-break order for
// equally ranked matches.
var collections = []collection{
	{"articles.json", KindArticle},
	{"case_studies.json", KindCaseStudy},
	{"services.json", KindService},
	{"faq.json", KindFAQ},
}

type collectionFile struct {
	Topics []*Topic `json:"topics"`
}

// Corpus is an in-memory Store built from JSON collection files.
type Corpus struct {
	topics []*Topic
	byID   map[string]*Topic
}

// Embedded loads the corpus compiled into the binary.
func Embedded() (*Corpus, error) {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded content: %w", err)
	}
	return Load(sub)
}

// Load reads every collection file from fsys. Missing files are skipped so a
// deployment can ship a partial corpus; malformed files are an error.
func Load(fsys fs.FS) (*Corpus, error) {
	c := &Corpus{byID: make(map[string]*Topic)}

	for _, col := range collections {
		data, err := fs.ReadFile(fsys, col.file)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to read %s: %w", col.file, err)
		}

		var f collectionFile
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", col.file, err)
		}

		for _, t := range f.Topics {
			if t.ID == "" {
				return nil, fmt.Errorf("%s: topic without id", col.file)
			}
			if _, dup := c.byID[t.ID]; dup {
				return nil, fmt.Errorf("%s: duplicate topic id %q", col.file, t.ID)
			}
			t.Kind = col.kind
			normalizeKeywords(&t.Keywords)
			c.topics = append(c.topics, t)
			c.byID[t.ID] = t
		}
	}

	return c, nil
}

// NewCorpus builds a corpus from topics already in memory, keeping their order.
func NewCorpus(topics ...*Topic) (*Corpus, error) {
	c := &Corpus{byID: make(map[string]*Topic, len(topics))}
	for _, t := range topics {
		if _, dup := c.byID[t.ID]; dup {
			return nil, fmt.Errorf("duplicate topic id %q", t.ID)
		}
		normalizeKeywords(&t.Keywords)
		c.topics = append(c.topics, t)
		c.byID[t.ID] = t
	}
	return c, nil
}

// Topic returns the topic with the given id.
func (c *Corpus) Topic(id string) (*Topic, error) {
	t, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("topic %q: %w", id, ErrContentNotFound)
	}
	return t, nil
}

// Topics returns all topics in declaration order.
func (c *Corpus) Topics() []*Topic {
	return c.topics
}

// ByKind returns the topics of one kind in declaration order.
func (c *Corpus) ByKind(kind Kind) []*Topic {
	var out []*Topic
	for _, t := range c.topics {
		if t.Kind == kind {
			out = append(out, t)
		}
	}
	return out
}

func normalizeKeywords(k *KeywordSets) {
	for _, tier := range [][]string{k.Primary, k.Secondary, k.Concepts} {
		for i := range tier {
			tier[i] = strings.ToLower(strings.TrimSpace(tier[i]))
		}
	}
}
