package server

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"concierge/internal/config"
	"concierge/internal/content"
	"concierge/internal/handlers"
	"concierge/internal/handlers/api"
)

// Corpus is the content store that also lists topics by kind.
type Corpus interface {
	content.Store
	api.Catalog
}

// Deps are the collaborators the routes are wired to. Contacts and Probes
// entries may be nil.
type Deps struct {
	Site     *config.Site
	Corpus   Corpus
	Gateway  api.Gateway
	Notifier api.ContactNotifier
	Contacts api.ContactStore
	Probes   map[string]handlers.Pinger
}

// RegisterRoutes registers all application routes. Every public endpoint is
// served under /api and at the bare path.
func (s *Server) RegisterRoutes(deps Deps) {
	chatHandler := api.NewChatHandler(deps.Gateway)
	contactHandler := api.NewContactHandler(deps.Notifier, deps.Contacts)
	knowledgeHandler := api.NewKnowledgeHandler(deps.Site, deps.Corpus)
	contentHandler := api.NewContentHandler(deps.Corpus, deps.Site.CallToAction)
	probeHandler := handlers.NewProbeHandler(deps.Probes)

	// Health probes and metrics
	s.App.Get("/healthz", probeHandler.Liveness)
	s.App.Get("/readyz", probeHandler.Readiness)
	s.App.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	for _, prefix := range []string{"/api", ""} {
		s.App.Post(prefix+"/chat", chatHandler.Chat)
		s.App.Post(prefix+"/research", chatHandler.Research)
		s.App.Post(prefix+"/contact", contactHandler.Submit)
		s.App.Get(prefix+"/knowledge-base", knowledgeHandler.KnowledgeBase)
		s.App.Get(prefix+"/sitemap", knowledgeHandler.Sitemap)
	}

	apiGroup := s.App.Group("/api")
	apiGroup.Get("/content/:topic", contentHandler.Topic)
	apiGroup.Get("/match", contentHandler.Match)

	s.App.Use(func(c fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "Not Found")
	})
}
