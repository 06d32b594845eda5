package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"concierge/internal/models"
)

func TestClassifyCmd(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"crawler", []string{"--ua", "Mozilla/5.0 (compatible; Googlebot/2.1)"}, "bot"},
		{"newsletter", []string{"--utm", "newsletter"}, "newsletter"},
		{"email referrer", []string{"--referrer", "https://mail.google.com/"}, "newsletter"},
		{"default", nil, "chat"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			cmd := newClassifyCmd()
			cmd.SetOut(&out)
			cmd.SetArgs(tt.args)

			require.NoError(t, cmd.Execute())
			assert.True(t, strings.HasPrefix(out.String(), tt.want+" "), out.String())
		})
	}
}

func TestMatchCmd(t *testing.T) {
	t.Setenv("ENV", "test")

	var out bytes.Buffer
	cmd := newMatchCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--json", "what", "do", "you", "charge"})
	require.NoError(t, cmd.Execute())

	var got struct {
		Query   string `json:"query"`
		Results []struct {
			TopicID string `json:"topicId"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "what do you charge", got.Query)
	require.NotEmpty(t, got.Results)
	assert.Equal(t, "pricing", got.Results[0].TopicID)
}

func TestMatchCmd_Table(t *testing.T) {
	t.Setenv("ENV", "test")

	var out bytes.Buffer
	cmd := newMatchCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"xyzzy plugh"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "No topics matched.")
}

func TestMatchCmd_RequiresQuery(t *testing.T) {
	cmd := newMatchCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(nil)
	assert.Error(t, cmd.Execute())
}

type fakeEvents struct {
	events []models.ChatEvent
	err    error
	since  time.Time
	limit  int
}

func (f *fakeEvents) GetChatEventsSince(_ context.Context, since time.Time, limit int) ([]models.ChatEvent, error) {
	f.since, f.limit = since, limit
	return f.events, f.err
}

func TestPrintRecent(t *testing.T) {
	since := time.Date(2026, 3, 13, 9, 0, 0, 0, time.UTC)
	events := &fakeEvents{events: []models.ChatEvent{
		{CreatedAt: since.Add(2 * time.Hour), Endpoint: models.EndpointChat, Visitor: "chat", Outcome: models.OutcomeAnswered, TopicID: "pricing", Query: "what do you charge"},
		{CreatedAt: since.Add(time.Hour), Endpoint: models.EndpointResearch, Visitor: "bot", Outcome: models.OutcomeRateLimited},
	}}

	var out bytes.Buffer
	require.NoError(t, printRecent(context.Background(), &out, events, since, 20))

	assert.Equal(t, since, events.since)
	assert.Equal(t, 20, events.limit)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "OUTCOME")
	assert.Contains(t, lines[1], "2026-03-13T11:00:00Z")
	assert.Contains(t, lines[1], "what do you charge")
	assert.Contains(t, lines[2], "rate_limited")
}

func TestPrintRecent_Empty(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printRecent(context.Background(), &out, &fakeEvents{}, time.Now(), 5))
	assert.Equal(t, "No queries in this period.\n", out.String())
}

func TestPrintRecent_Error(t *testing.T) {
	err := printRecent(context.Background(), &bytes.Buffer{}, &fakeEvents{err: errors.New("conn reset")}, time.Now(), 5)
	assert.ErrorContains(t, err, "conn reset")
}
