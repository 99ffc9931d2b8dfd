package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/co-fun/mapscontacts/models"
)

func TestFormatAnswer(t *testing.T) {
	assert.Equal(t, "Q: Who opens late?\nA: Blue Bottle.", FormatAnswer("Who opens late?", "Blue Bottle."))
}

func TestSend_OK(t *testing.T) {
	var gotPath, gotChat, gotText string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotChat = r.URL.Query().Get("chat_id")
		gotText = r.URL.Query().Get("text")
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1}}`))
	}))
	defer srv.Close()

	c := NewClient(nil, srv.URL, 0)
	text := FormatAnswer("Open & cheap?", "Yes: Bar \"Uno\" #1")
	err := c.Send(context.Background(), Credentials{BotToken: "123:ABC", ChatID: " -1001 "}, text)
	require.NoError(t, err)

	assert.Equal(t, "/bot123:ABC/sendMessage", gotPath)
	assert.Equal(t, "-1001", gotChat)
	assert.Equal(t, text, gotText)
}

func TestSend_APIError(t *testing.T) {
	tests := []struct {
		body    string
		wantMsg string
	}{
		{`{"ok":false,"description":"Bad Request: chat not found"}`, "Telegram error: Bad Request: chat not found"},
		{`{"ok":false}`, "Telegram error: Unknown error"},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(tt.body))
		}))
		c := NewClient(nil, srv.URL, 0)
		err := c.Send(context.Background(), Credentials{BotToken: "t", ChatID: "c"}, "hi")
		srv.Close()

		require.Error(t, err)
		se := models.AsScrapeError(err)
		assert.Equal(t, models.ErrCodeTelegramFailure, se.Code)
		assert.Equal(t, tt.wantMsg, se.Message)
	}
}

func TestSend_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>gateway</html>`))
	}))
	defer srv.Close()

	err := NewClient(nil, srv.URL, 0).Send(context.Background(), Credentials{BotToken: "t", ChatID: "c"}, "hi")
	require.Error(t, err)
	se := models.AsScrapeError(err)
	assert.Equal(t, models.ErrCodeTelegramFailure, se.Code)
	assert.Contains(t, se.Message, "Failed to send to Telegram: ")
}

func TestSend_TimeoutDoesNotLeakToken(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	err := NewClient(nil, srv.URL, 50*time.Millisecond).
		Send(context.Background(), Credentials{BotToken: "SECRET-TOKEN", ChatID: "c"}, "hi")
	require.Error(t, err)
	se := models.AsScrapeError(err)
	assert.Contains(t, se.Message, "Failed to send to Telegram: ")
	assert.NotContains(t, se.Message, "SECRET-TOKEN")
}

func TestSend_ValidatesBeforeNetwork(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()
	c := NewClient(nil, srv.URL, 0)

	tests := []struct {
		creds    Credentials
		text     string
		wantCode string
		wantMsg  string
	}{
		{Credentials{ChatID: "c"}, "hi", models.ErrCodeMissingCredentials, "Please enter your Telegram Bot Token and Chat ID."},
		{Credentials{BotToken: "t", ChatID: "  "}, "hi", models.ErrCodeMissingCredentials, "Please enter your Telegram Bot Token and Chat ID."},
		{Credentials{BotToken: "t", ChatID: "c"}, "", models.ErrCodeInvalidInput, "No answer to send."},
	}
	for _, tt := range tests {
		err := c.Send(context.Background(), tt.creds, tt.text)
		require.Error(t, err)
		se := models.AsScrapeError(err)
		assert.Equal(t, tt.wantCode, se.Code)
		assert.Equal(t, tt.wantMsg, se.Message)
	}
	assert.Zero(t, calls.Load())
}
