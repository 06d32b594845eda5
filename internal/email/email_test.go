package email

import (
	"context"
	"errors"
	"strings"
	"testing"

	"concierge/internal/config"
)

func TestNewService(t *testing.T) {
	tests := []struct {
		name        string
		cfg         *config.Config
		wantEnabled bool
	}{
		{
			name:        "enabled when host and sender configured",
			cfg:         &config.Config{SMTPHost: "smtp.example.com", SMTPPort: 587, SMTPFrom: "noreply@example.com"},
			wantEnabled: true,
		},
		{
			name:        "disabled when SMTPHost is empty",
			cfg:         &config.Config{SMTPPort: 587, SMTPFrom: "noreply@example.com"},
			wantEnabled: false,
		},
		{
			name:        "disabled when SMTPFrom is empty",
			cfg:         &config.Config{SMTPHost: "smtp.example.com", SMTPPort: 587},
			wantEnabled: false,
		},
		{
			name:        "disabled with empty config",
			cfg:         &config.Config{},
			wantEnabled: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewService(tt.cfg)
			if s.IsEnabled() != tt.wantEnabled {
				t.Errorf("IsEnabled() = %v, want %v", s.IsEnabled(), tt.wantEnabled)
			}
		})
	}
}

func TestSendDisabled(t *testing.T) {
	s := NewService(&config.Config{})
	err := s.Send(context.Background(), Message{To: []string{"a@example.com"}, Subject: "hi"})
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Send() error = %v, want ErrDisabled", err)
	}
}

func TestBuildMessage(t *testing.T) {
	msg := buildMessage("Summit Labs <noreply@example.com>", Message{
		To:      []string{"maya@example.com", "ops@example.com"},
		ReplyTo: "visitor@example.com",
		Subject: "New enquiry",
		HTML:    "<p>Hello</p>",
		Text:    "Hello",
	})

	wants := []string{
		"From: Summit Labs <noreply@example.com>\r\n",
		"To: maya@example.com, ops@example.com\r\n",
		"Reply-To: visitor@example.com\r\n",
		"Subject: New enquiry\r\n",
		"MIME-Version: 1.0\r\n",
		"Content-Type: text/plain; charset=\"UTF-8\"\r\n\r\nHello\r\n",
		"Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n<p>Hello</p>\r\n",
		"--" + boundary + "--\r\n",
	}
	for _, want := range wants {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q", want)
		}
	}
}

func TestBuildMessage_NoReplyTo(t *testing.T) {
	msg := buildMessage("noreply@example.com", Message{To: []string{"a@example.com"}, Subject: "s", Text: "t"})
	if strings.Contains(msg, "Reply-To:") {
		t.Error("Reply-To header should be omitted when empty")
	}
	if strings.Contains(msg, "text/html") {
		t.Error("HTML part should be omitted when empty")
	}
}

func TestBuildMessage_HeaderInjection(t *testing.T) {
	msg := buildMessage("noreply@example.com", Message{
		To:      []string{"a@example.com"},
		ReplyTo: "evil@example.com\r\nBcc: victim@example.com",
		Subject: "Hi\nBcc: other@example.com",
		Text:    "body",
	})

	if strings.Contains(msg, "\r\nBcc:") || strings.Contains(msg, "\nBcc:") {
		t.Errorf("header injection not neutralised:\n%s", msg)
	}
}

func TestHeaderValue(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"a\r\nb", "a b"},
		{"a\nb\nc", "a b c"},
		{"\r\n", ""},
	}
	for _, tt := range tests {
		if got := headerValue(tt.in); got != tt.want {
			t.Errorf("headerValue(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

type inlinePool struct{}

func (inlinePool) Submit(_ string, task func(ctx context.Context) error) error {
	return task(context.Background())
}

func TestSendAsync(t *testing.T) {
	fs := &fakeSender{}
	SendAsync(inlinePool{}, fs, Message{To: []string{"a@example.com"}, Subject: "s"})
	if len(fs.sent) != 1 {
		t.Errorf("sent %d messages, want 1", len(fs.sent))
	}
}
