package notify

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testToken = "123456789:AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

type recordedCall struct {
	method string
	body   string
}

func newFakeBotAPI(t *testing.T) (*httptest.Server, func() []recordedCall) {
	t.Helper()
	var mu sync.Mutex
	var calls []recordedCall
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		parts := strings.Split(r.URL.Path, "/")
		mu.Lock()
		calls = append(calls, recordedCall{method: parts[len(parts)-1], body: string(body)})
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"}}}`))
	}))
	t.Cleanup(srv.Close)
	return srv, func() []recordedCall {
		mu.Lock()
		defer mu.Unlock()
		return append([]recordedCall(nil), calls...)
	}
}

func TestTelegram_SendMessage(t *testing.T) {
	srv, calls := newFakeBotAPI(t)
	n, err := NewTelegram(testToken, 42, zap.NewNop(), telego.WithAPIServer(srv.URL))
	require.NoError(t, err)

	require.NoError(t, n.SendMessage(context.Background(), "a thought that matured"))

	got := calls()
	require.Len(t, got, 1)
	assert.Equal(t, "sendMessage", got[0].method)
	assert.Contains(t, got[0].body, "a thought that matured")
	assert.Contains(t, got[0].body, "42")
}

func TestTelegram_SendPhoto(t *testing.T) {
	srv, calls := newFakeBotAPI(t)
	n, err := NewTelegram(testToken, 42, zap.NewNop(), telego.WithAPIServer(srv.URL))
	require.NoError(t, err)

	require.NoError(t, n.SendPhoto(context.Background(), "https://image.example/dream.png", "the house without doors"))

	got := calls()
	require.Len(t, got, 1)
	assert.Equal(t, "sendPhoto", got[0].method)
	assert.Contains(t, got[0].body, "https://image.example/dream.png")
}

func TestTelegram_APIErrorIsReturned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":false,"error_code":403,"description":"Forbidden: bot was blocked by the user"}`))
	}))
	defer srv.Close()

	n, err := NewTelegram(testToken, 42, zap.NewNop(), telego.WithAPIServer(srv.URL))
	require.NoError(t, err)
	assert.Error(t, n.SendMessage(context.Background(), "hello"))
}

func TestNew_FallsBackToLogNotifier(t *testing.T) {
	n, err := New("", 0, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &LogNotifier{}, n)
	assert.NoError(t, n.SendMessage(context.Background(), "x"))
	assert.NoError(t, n.SendPhoto(context.Background(), "u", "c"))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "abc", truncateRunes("abc", 5))
	assert.Equal(t, "ab…", truncateRunes("abcdef", 3))
}
