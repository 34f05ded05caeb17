package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient("test-token", zerolog.Nop())
	c.BaseURL = srv.URL
	return c
}

func TestSendMessage(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"ok":true,"result":{}}`))
	})

	markup := Keyboard([]Button{Btn("ok", "main_menu")})
	require.NoError(t, c.SendMessage(context.Background(), 42, "hello", markup))

	assert.Equal(t, "/bottest-token/sendMessage", gotPath)
	assert.Equal(t, float64(42), gotBody["chat_id"])
	assert.Equal(t, "hello", gotBody["text"])
	assert.Contains(t, gotBody, "reply_markup")
}

func TestSendMessageWithoutMarkup(t *testing.T) {
	var gotBody map[string]any
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"ok":true,"result":{}}`))
	})

	require.NoError(t, c.SendMessage(context.Background(), 1, "plain", nil))
	assert.NotContains(t, gotBody, "reply_markup")
}

func TestAPIErrorSurfaces(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
	})

	err := c.SendMessage(context.Background(), 1, "x", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestHTTPErrorSurfaces(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	err := c.SendMessage(context.Background(), 1, "x", nil)
	assert.Error(t, err)
}

func TestGetUpdates(t *testing.T) {
	var gotBody map[string]any
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"ok":true,"result":[
			{"update_id":10,"message":{"message_id":1,"from":{"id":5,"username":"u"},"chat":{"id":5},"text":"/start"}},
			{"update_id":11,"callback_query":{"id":"cb1","from":{"id":5},"data":"main_menu","message":{"message_id":2,"chat":{"id":5}}}}
		]}`))
	})

	updates, err := c.GetUpdates(context.Background(), 10, 30*time.Second)
	require.NoError(t, err)
	require.Len(t, updates, 2)

	assert.Equal(t, float64(10), gotBody["offset"])
	assert.Equal(t, float64(30), gotBody["timeout"])

	require.NotNil(t, updates[0].Message)
	assert.Equal(t, "/start", updates[0].Message.Text)
	assert.Equal(t, int64(5), updates[0].Message.From.ID)

	require.NotNil(t, updates[1].CallbackQuery)
	assert.Equal(t, "main_menu", updates[1].CallbackQuery.Data)
}

func TestPollerAdvancesOffset(t *testing.T) {
	var offsets []float64
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		offsets = append(offsets, body["offset"].(float64))
		if len(offsets) == 1 {
			w.Write([]byte(`{"ok":true,"result":[{"update_id":7,"message":{"message_id":1,"chat":{"id":1},"from":{"id":1},"text":"hi"}}]}`))
			return
		}
		w.Write([]byte(`{"ok":true,"result":[]}`))
	})

	handled := 0
	h := handlerFunc(func(ctx context.Context, upd Update) { handled++ })

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	p := NewPoller(c, h, 0, zerolog.Nop())
	_ = p.Run(ctx)

	assert.Equal(t, 1, handled)
	require.GreaterOrEqual(t, len(offsets), 2)
	assert.Equal(t, float64(0), offsets[0])
	assert.Equal(t, float64(8), offsets[1])
}

type handlerFunc func(ctx context.Context, upd Update)

func (f handlerFunc) HandleUpdate(ctx context.Context, upd Update) { f(ctx, upd) }
