package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(url string, timeout time.Duration) *UpstreamClient {
	return NewUpstreamClient(url, "/chat", timeout, zap.NewNop())
}

func TestChatSuccess(t *testing.T) {
	var got UpstreamRequest
	var gotKey, gotPath, gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-API-KEY")
		gotContentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"reply": "  こんにちは\n"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL+"/", time.Second)
	reply, err := c.Chat(context.Background(), "secret", "hello")
	require.NoError(t, err)

	// reply 原样返回，不做裁剪
	assert.Equal(t, "  こんにちは\n", reply)
	assert.Equal(t, "/chat", gotPath)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "hello", got.Text)
	assert.Equal(t, srv.URL+"/chat", c.URL())
}

func TestChatStatusErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "unauthorized",
			status: http.StatusUnauthorized,
			body:   `{"detail":"invalid api key"}`,
			check: func(t *testing.T, err error) {
				var authErr *AuthError
				require.ErrorAs(t, err, &authErr)
				assert.Equal(t, http.StatusUnauthorized, authErr.StatusCode)
				var statusErr *StatusError
				assert.False(t, errors.As(err, &statusErr))
			},
		},
		{
			name:   "forbidden",
			status: http.StatusForbidden,
			check: func(t *testing.T, err error) {
				var authErr *AuthError
				require.ErrorAs(t, err, &authErr)
			},
		},
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body:   "boom",
			check: func(t *testing.T, err error) {
				var statusErr *StatusError
				require.ErrorAs(t, err, &statusErr)
				assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
				assert.Equal(t, "boom", statusErr.Body)
			},
		},
		{
			name:   "rate limited",
			status: http.StatusTooManyRequests,
			check: func(t *testing.T, err error) {
				var statusErr *StatusError
				require.ErrorAs(t, err, &statusErr)
				assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
			},
		},
		{
			name:   "empty reply",
			status: http.StatusOK,
			body:   `{"reply": ""}`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrEmptyReply)
			},
		},
		{
			name:   "whitespace reply",
			status: http.StatusOK,
			body:   `{"reply": " \n "}`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrEmptyReply)
			},
		},
		{
			name:   "missing reply",
			status: http.StatusOK,
			body:   `{"answer": "hi"}`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrEmptyReply)
			},
		},
		{
			name:   "not json",
			status: http.StatusOK,
			body:   "<html>maintenance</html>",
			check: func(t *testing.T, err error) {
				var statusErr *StatusError
				require.ErrorAs(t, err, &statusErr)
				assert.Equal(t, http.StatusOK, statusErr.StatusCode)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newTestClient(srv.URL, time.Second).Chat(context.Background(), "k", "hi")
			require.Error(t, err)
			assert.True(t, IsUpstream(err))
			tt.check(t, err)
		})
	}
}

func TestChatBodyExcerptBounded(t *testing.T) {
	long := strings.Repeat("あ", 5000)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(long))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, time.Second).Chat(context.Background(), "k", "hi")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, maxExcerptRunes, len([]rune(statusErr.Body)))
	assert.Equal(t, strings.Repeat("あ", maxExcerptRunes), statusErr.Body)
}

func TestChatTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	timeout := 100 * time.Millisecond
	start := time.Now()
	_, err := newTestClient(srv.URL, timeout).Chat(context.Background(), "k", "hi")
	elapsed := time.Since(start)

	var unreachable *UnreachableError
	require.ErrorAs(t, err, &unreachable)
	assert.Less(t, elapsed, 2*time.Second)
	assert.Equal(t, srv.URL+"/chat", unreachable.URL)
	assert.NotNil(t, errors.Unwrap(err))
}

func TestChatConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newTestClient(url, time.Second).Chat(context.Background(), "k", "hi")
	var unreachable *UnreachableError
	require.ErrorAs(t, err, &unreachable)
	assert.True(t, IsUpstream(err))
}

func TestIsUpstream(t *testing.T) {
	assert.False(t, IsUpstream(errors.New("other")))
	assert.False(t, IsUpstream(nil))
	assert.True(t, IsUpstream(&AuthError{StatusCode: 401}))
}
