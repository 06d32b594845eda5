package validation

import (
	"errors"
	"fmt"
	"html"
	"net/url"
	"reflect"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

// TopicIDPattern defines the valid topic id format: lowercase alphanumerics and hyphens.
var TopicIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// ValidateTopicID checks if a topic id matches the allowed pattern.
func ValidateTopicID(id string) bool {
	if id == "" || len(id) > 100 {
		return false
	}
	return TopicIDPattern.MatchString(id)
}

// Errors returned by ValidateURL.
var (
	ErrURLEmpty  = errors.New("url is empty")
	ErrURLScheme = errors.New("url scheme must be http or https")
	ErrURLHost   = errors.New("url has no host")
)

// ValidateURL checks that raw is an absolute http(s) URL with a host. It is
// used for the public base URL and the site links rendered into emails and
// the knowledge base.
func ValidateURL(raw string) error {
	if raw == "" {
		return ErrURLEmpty
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", raw, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return fmt.Errorf("%w: %q", ErrURLScheme, raw)
	}
	if u.Hostname() == "" {
		return fmt.Errorf("%w: %q", ErrURLHost, raw)
	}
	return nil
}

// MaxInputLength is the longest user text, in characters, passed downstream.
const MaxInputLength = 500

// scriptBlock matches a script element and its body, including unterminated ones.
var scriptBlock = regexp.MustCompile(`(?is)<script\b[^>]*>.*?(</script\s*>|$)`)

// completeTag matches a closed <...> span. A '<' outside one is plain text.
var completeTag = regexp.MustCompile(`<[^<>]*>`)

// strict removes every tag; bluemonday also drops the contents of script and
// style elements.
var strict = bluemonday.StrictPolicy()

// Sanitize strips script blocks and HTML tags, trims whitespace and truncates
// to MaxInputLength characters.
func Sanitize(input string) string {
	s := input
	// Entity-encoded markup becomes real markup once unescaped, so repeat
	// until the text is stable.
	for i := 0; i < 3; i++ {
		next := stripMarkup(s)
		if next == s {
			break
		}
		s = next
	}
	return Truncate(strings.TrimSpace(s), MaxInputLength)
}

func stripMarkup(s string) string {
	s = scriptBlock.ReplaceAllString(s, "")
	s = strict.Sanitize(escapeStrayAngles(s))
	// bluemonday escapes the text it keeps; downstream consumers want plain text.
	return html.UnescapeString(s)
}

// escapeStrayAngles entity-encodes every '<' that does not open a complete
// tag, so the HTML tokenizer keeps the text after it.
func escapeStrayAngles(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	var b strings.Builder
	last := 0
	for _, loc := range completeTag.FindAllStringIndex(s, -1) {
		b.WriteString(strings.ReplaceAll(s[last:loc[0]], "<", "&lt;"))
		b.WriteString(s[loc[0]:loc[1]])
		last = loc[1]
	}
	b.WriteString(strings.ReplaceAll(s[last:], "<", "&lt;"))
	return b.String()
}

// Truncate shortens s to at most n characters without splitting a rune.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// EmailPattern is a pragmatic address check used for contact forms.
var EmailPattern = regexp.MustCompile(`^[^\s@<>]+@[^\s@<>]+\.[^\s@<>]+$`)

// ValidateEmail checks if an email address looks deliverable.
func ValidateEmail(email string) bool {
	if email == "" || len(email) > 254 {
		return false
	}
	return EmailPattern.MatchString(email)
}

// StructValidator adapts go-playground/validator to Fiber's StructValidator.
type StructValidator struct {
	validate *validator.Validate
}

// NewStructValidator creates a validator using json field names in errors.
func NewStructValidator() *StructValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &StructValidator{validate: v}
}

// Validate runs struct tag validation on out.
func (v *StructValidator) Validate(out any) error {
	return v.validate.Struct(out)
}

// FieldErrors returns the json names of fields that failed validation.
func FieldErrors(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return fields
}

// MissingRequired reports whether err includes a failed required rule.
func MissingRequired(err error) bool {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return false
	}
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			return true
		}
	}
	return false
}
