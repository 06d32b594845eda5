// Package visitor classifies inbound requests by where they came from so the
// content layer can pick the right variant to serve.
package visitor

import "strings"

// Category is the kind of visitor behind a request.
type Category string

// Visitor categories.
const (
	CategoryBot        Category = "bot"
	CategoryNewsletter Category = "newsletter"
	CategoryChat       Category = "chat"
)

// botSignatures are user-agent substrings of crawlers, link unfurlers and AI
// fetchers. Matched against the lower-cased user agent.
var botSignatures = []string{
	// search engines
	"googlebot", "bingbot", "slurp", "duckduckbot", "baiduspider", "yandexbot",
	"applebot", "petalbot", "sogou",
	// social cards and unfurlers
	"facebookexternalhit", "facebot", "twitterbot", "linkedinbot", "slackbot",
	"discordbot", "telegrambot", "whatsapp", "pinterest", "embedly",
	// AI crawlers and assistants
	"gptbot", "chatgpt-user", "oai-searchbot", "claudebot", "claude-web",
	"anthropic-ai", "perplexitybot", "perplexity-user", "ccbot", "google-extended",
	"bytespider", "cohere-ai", "amazonbot", "youbot", "diffbot",
	// generic markers
	"bot", "crawl", "spider", "scraper", "headless", "lighthouse",
}

// emailPlatforms are referrer or utm_source substrings of newsletter and
// email service providers.
var emailPlatforms = []string{
	"mailchimp", "mail.google", "outlook", "convertkit", "substack", "beehiiv",
	"sendgrid", "mailgun", "campaign-archive", "klaviyo", "hubspot", "constantcontact",
	"buttondown", "ghost.io", "revue", "sendinblue", "brevo", "mailerlite",
}

// Context is the raw request metadata a classification is made from.
type Context struct {
	UserAgent string
	Referrer  string
	UTMSource string
}

// Classify returns the visitor category for the given request metadata.
// It is a pure function of its inputs.
func Classify(userAgent, referrer, utmSource string) Category {
	ua := strings.ToLower(userAgent)
	ref := strings.ToLower(referrer)
	utm := strings.ToLower(utmSource)

	if containsAny(ua, botSignatures) {
		return CategoryBot
	}

	if utm == "newsletter" || utm == "email" {
		return CategoryNewsletter
	}
	if containsAny(ref, emailPlatforms) || containsAny(utm, emailPlatforms) {
		return CategoryNewsletter
	}

	return CategoryChat
}

// ClassifyContext is Classify over a Context.
func ClassifyContext(c Context) Category {
	return Classify(c.UserAgent, c.Referrer, c.UTMSource)
}

// Confidence returns a heuristic score between 0.5 and 0.9 describing how
// sure the classification is. It is only used for logging.
func Confidence(category Category, c Context) float64 {
	ua := strings.ToLower(c.UserAgent)
	ref := strings.ToLower(c.Referrer)
	utm := strings.ToLower(c.UTMSource)

	switch category {
	case CategoryBot:
		// A named crawler is a stronger signal than a generic "bot" substring.
		for _, sig := range botSignatures {
			if len(sig) > 6 && strings.Contains(ua, sig) {
				return 0.9
			}
		}
		return 0.7
	case CategoryNewsletter:
		if utm == "newsletter" || utm == "email" {
			return 0.9
		}
		if containsAny(ref, emailPlatforms) {
			return 0.8
		}
		return 0.6
	default:
		if ua == "" {
			return 0.5
		}
		if ref == "" && utm == "" {
			return 0.6
		}
		return 0.7
	}
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryBot, CategoryNewsletter, CategoryChat:
		return true
	}
	return false
}

func (c Category) String() string { return string(c) }

func containsAny(s string, needles []string) bool {
	if s == "" {
		return false
	}
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
