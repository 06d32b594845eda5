package api

import (
	"github.com/gofiber/fiber/v3"

	"concierge/internal/config"
	"concierge/internal/content"
)

// Catalog lists topics by collection.
type Catalog interface {
	ByKind(kind content.Kind) []*content.Topic
}

// KnowledgeMeta identifies the publisher of the AI-facing documents.
type KnowledgeMeta struct {
	Company     string `json:"company"`
	Tagline     string `json:"tagline,omitempty"`
	URL         string `json:"url,omitempty"`
	Contact     string `json:"contact,omitempty"`
	Description string `json:"description"`
}

// KnowledgeEntry is a topic summary.
type KnowledgeEntry struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	URL        string   `json:"url,omitempty"`
	Summary    string   `json:"summary"`
	Industries []string `json:"industries,omitempty"`
}

// KnowledgeBase is the GET /api/knowledge-base document.
type KnowledgeBase struct {
	Meta        KnowledgeMeta    `json:"meta"`
	Services    []KnowledgeEntry `json:"services"`
	CaseStudies []KnowledgeEntry `json:"caseStudies"`
	Articles    []KnowledgeEntry `json:"articles"`
	FAQ         []KnowledgeEntry `json:"faq"`
	Team        []TeamEntry      `json:"team"`
}

// TeamEntry is a public team profile.
type TeamEntry struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
	Role string `json:"role"`
	Bio  string `json:"bio,omitempty"`
}

// SitemapPage is one crawlable page.
type SitemapPage struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Type  string `json:"type"`
}

// SitemapEndpoint is one machine-readable endpoint.
type SitemapEndpoint struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Description string `json:"description"`
}

// Sitemap is the GET /api/sitemap document.
type Sitemap struct {
	Meta      KnowledgeMeta     `json:"meta"`
	Pages     []SitemapPage     `json:"pages"`
	Endpoints []SitemapEndpoint `json:"endpoints"`
}

// KnowledgeHandler serves the static AI-facing documents.
type KnowledgeHandler struct {
	kb      KnowledgeBase
	sitemap Sitemap
}

// NewKnowledgeHandler builds both documents once from the site config and
// the content catalog.
func NewKnowledgeHandler(site *config.Site, catalog Catalog) *KnowledgeHandler {
	meta := KnowledgeMeta{
		Company: site.Company,
		Tagline: site.Tagline,
		URL:     site.URL,
		Contact: site.ContactEmail,
	}

	kbMeta := meta
	kbMeta.Description = "Structured summary of " + site.Company + " services, case studies, articles and FAQ for AI assistants."
	kb := KnowledgeBase{
		Meta:        kbMeta,
		Services:    entries(catalog.ByKind(content.KindService)),
		CaseStudies: entries(catalog.ByKind(content.KindCaseStudy)),
		Articles:    entries(catalog.ByKind(content.KindArticle)),
		FAQ:         entries(catalog.ByKind(content.KindFAQ)),
		Team:        make([]TeamEntry, 0, len(site.Team)),
	}
	for _, m := range site.Team {
		kb.Team = append(kb.Team, TeamEntry{Slug: m.Slug, Name: m.Name, Role: m.Role, Bio: m.Bio})
	}

	smMeta := meta
	smMeta.Description = "Pages and machine-readable endpoints of " + site.Company + "."
	sm := Sitemap{
		Meta:  smMeta,
		Pages: []SitemapPage{{URL: "/", Title: site.Company, Type: "home"}},
		Endpoints: []SitemapEndpoint{
			{Method: "GET", Path: "/api/knowledge-base", Description: "Structured company knowledge"},
			{Method: "GET", Path: "/api/sitemap", Description: "This document"},
			{Method: "GET", Path: "/api/content/:topic", Description: "Content for one topic, tailored to the requester"},
			{Method: "GET", Path: "/api/match", Description: "Topics matching a free-text query"},
			{Method: "POST", Path: "/api/chat", Description: "Ask the site assistant a question"},
		},
	}
	for _, kind := range []content.Kind{content.KindService, content.KindCaseStudy, content.KindArticle, content.KindFAQ} {
		for _, t := range catalog.ByKind(kind) {
			if t.URL == "" {
				continue
			}
			sm.Pages = append(sm.Pages, SitemapPage{URL: t.URL, Title: t.Title, Type: string(kind)})
		}
	}

	return &KnowledgeHandler{kb: kb, sitemap: sm}
}

func entries(topics []*content.Topic) []KnowledgeEntry {
	out := make([]KnowledgeEntry, 0, len(topics))
	for _, t := range topics {
		out = append(out, KnowledgeEntry{
			ID:         t.ID,
			Title:      t.Title,
			URL:        t.URL,
			Summary:    t.Variants.Summary,
			Industries: t.Industries,
		})
	}
	return out
}

// KnowledgeBase handles GET /api/knowledge-base.
func (h *KnowledgeHandler) KnowledgeBase(c fiber.Ctx) error {
	c.Set(fiber.HeaderCacheControl, cacheStatic)
	return c.JSON(h.kb)
}

// Sitemap handles GET /api/sitemap.
func (h *KnowledgeHandler) Sitemap(c fiber.Ctx) error {
	c.Set(fiber.HeaderCacheControl, cacheStatic)
	return c.JSON(h.sitemap)
}
