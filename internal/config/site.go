package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"concierge/internal/validation"
)

// Site is the marketing copy the gateway is configured with: company
// details, team inboxes, system prompts and the call to action. It lives in
// YAML because it is long-form text that is awkward in env vars.
type Site struct {
	Company      string       `yaml:"company"`
	Tagline      string       `yaml:"tagline"`
	URL          string       `yaml:"url"`
	ContactEmail string       `yaml:"contact_email"`
	Team         []TeamMember `yaml:"team"`
	ChatPrompt   string       `yaml:"chat_prompt"`
	// ResearchPrompt is the system prompt for web-search research answers.
	ResearchPrompt string `yaml:"research_prompt"`
	CallToAction   string `yaml:"call_to_action"`
}

// TeamMember is a person a contact request can be addressed to.
type TeamMember struct {
	Slug  string `yaml:"slug"`
	Name  string `yaml:"name"`
	Role  string `yaml:"role"`
	Email string `yaml:"email"`
	Bio   string `yaml:"bio"`
}

// DefaultSite returns the built-in site configuration.
func DefaultSite() *Site {
	s := baseSite()
	s.applyDefaults()
	return s
}

func baseSite() *Site {
	return &Site{
		Company:      "Summit Labs",
		Tagline:      "Practical AI for mid-sized organisations",
		URL:          "https://summitlabs.example",
		ContactEmail: "hello@summitlabs.example",
		Team: []TeamMember{
			{Slug: "maya", Name: "Maya Chen", Role: "Founder & Principal", Email: "maya@summitlabs.example",
				Bio: "Led applied ML teams in healthcare and retail before founding Summit Labs."},
			{Slug: "jordan", Name: "Jordan Ellis", Role: "Engineering Lead", Email: "jordan@summitlabs.example",
				Bio: "Builds production agent and retrieval systems; previously platform engineering at a credit union."},
			{Slug: "priya", Name: "Priya Raman", Role: "Data Strategy", Email: "priya@summitlabs.example",
				Bio: "Runs readiness assessments and data foundation work for manufacturing and finance clients."},
		},
		CallToAction: "Want to talk it through? Book a free 30-minute call at https://summitlabs.example/contact",
	}
}

// LoadSite loads the site YAML file at path. A missing file yields the
// built-in defaults. Fields left empty in the file take default values.
func LoadSite(path string) (*Site, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSite(), nil
		}
		return nil, err
	}

	return ParseSite(data)
}

// ParseSite parses site YAML.
func ParseSite(data []byte) (*Site, error) {
	s := baseSite()
	team := s.Team
	s.Team = nil

	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to parse site config: %w", err)
	}
	if len(s.Team) == 0 {
		s.Team = team
	}

	if s.URL != "" {
		if err := validation.ValidateURL(s.URL); err != nil {
			return nil, fmt.Errorf("site url: %w", err)
		}
	}

	seen := make(map[string]struct{}, len(s.Team))
	for _, m := range s.Team {
		if m.Slug == "" {
			return nil, fmt.Errorf("team member %q has no slug", m.Name)
		}
		if _, dup := seen[m.Slug]; dup {
			return nil, fmt.Errorf("duplicate team member slug %q", m.Slug)
		}
		seen[m.Slug] = struct{}{}
	}

	s.applyDefaults()
	return s, nil
}

func (s *Site) applyDefaults() {
	if s.ChatPrompt == "" {
		s.ChatPrompt = s.defaultChatPrompt()
	}
	if s.ResearchPrompt == "" {
		s.ResearchPrompt = fmt.Sprintf(
			"You are a research assistant for %s, an AI consultancy. Use web search to find recent, "+
				"credible developments for the sector and question given. Summarise in under 250 words, "+
				"note how an organisation could act on it, and list sources.", s.Company)
	}
}

func (s *Site) defaultChatPrompt() string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are the website assistant for %s (%s).\n", s.Company, s.Tagline)
	b.WriteString("Answer questions about our services, methodology, pricing and case studies. ")
	b.WriteString("Be warm, concise and concrete; keep answers under 150 words. ")
	b.WriteString("Never invent prices, clients or results that are not given here. ")
	b.WriteString("If unsure, suggest booking a call.\n\nTeam:\n")
	for _, m := range s.Team {
		fmt.Fprintf(&b, "- %s, %s: %s\n", m.Name, m.Role, m.Bio)
	}
	return b.String()
}

// Member finds a team member by slug or by case-insensitive name.
func (s *Site) Member(key string) *TeamMember {
	if s == nil {
		return nil
	}
	key = strings.TrimSpace(key)
	for i := range s.Team {
		if s.Team[i].Slug == key || strings.EqualFold(s.Team[i].Name, key) {
			return &s.Team[i]
		}
	}
	return nil
}
