package apiclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticTokens struct {
	token string
}

func (s *staticTokens) Token(_ context.Context) (string, error) {
	return s.token, nil
}

func newTestClient(serverURL string, tokens TokenSource) *Client {
	return NewClient(Options{
		BaseURL:       serverURL,
		Tokens:        tokens,
		RatePerSecond: 1000,
		RateBurst:     1000,
	})
}

func TestClientAttachesFreshToken(t *testing.T) {
	var seen []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Authorization"))
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	tokens := &staticTokens{token: "first"}
	client := newTestClient(server.URL, tokens)

	_, err := client.Request(context.Background(), http.MethodGet, "/api/learning/personalized", nil, nil)
	require.NoError(t, err)

	// Token rotated mid-session; next request must pick it up.
	tokens.token = "second"
	_, err = client.Request(context.Background(), http.MethodGet, "/api/learning/personalized", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"Bearer first", "Bearer second"}, seen)
}

func TestClientOmitsHeaderWithoutToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, &staticTokens{})
	_, err := client.Request(context.Background(), http.MethodGet, "/", nil, nil)
	require.NoError(t, err)
}

func TestClientStatusMapping(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantKind    Kind
		wantMessage string
	}{
		{"bad request", 400, `{}`, KindBadRequest, "잘못된 요청입니다."},
		{"unauthorized", 401, `{}`, KindUnauthorized, "로그인이 필요합니다."},
		{"forbidden", 403, `{}`, KindForbidden, "접근 권한이 없습니다."},
		{"not found", 404, `{}`, KindNotFound, "요청한 정보를 찾을 수 없습니다."},
		{"server error", 500, `{}`, KindServer, "서버 오류가 발생했습니다."},
		{"other status", 418, `{}`, KindUnknown, "알 수 없는 오류가 발생했습니다."},
		{"message from body", 400, `{"message":"제목을 입력해주세요."}`, KindBadRequest, "제목을 입력해주세요."},
		{"non-json body falls back", 500, `gateway exploded`, KindServer, "서버 오류가 발생했습니다."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := newTestClient(server.URL, nil)
			_, err := client.Request(context.Background(), http.MethodGet, "/", nil, nil)
			require.Error(t, err)

			apiErr, ok := err.(*APIError)
			require.True(t, ok, "expected *APIError, got %T", err)
			assert.Equal(t, tt.wantKind, apiErr.Kind)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.wantMessage, apiErr.Message)
		})
	}
}

func TestClientNetworkError(t *testing.T) {
	// Closed server: the connection is refused, no response arrives.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := newTestClient(server.URL, nil)
	_, err := client.Request(context.Background(), http.MethodGet, "/", nil, nil)
	require.Error(t, err)

	assert.True(t, IsNetworkError(err))
	assert.Equal(t, "네트워크 연결을 확인해주세요.", MessageOf(err))
}

func TestClientQueryAndBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.RawQuery != "" {
			assert.Equal(t, "10", r.URL.Query().Get("limit"))
		}
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Write([]byte(`{"success":true,"contentId":5}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, nil)

	var out struct {
		Success   bool  `json:"success"`
		ContentID int64 `json:"contentId"`
	}
	query := url.Values{"limit": {"10"}}
	body, err := client.Request(context.Background(), http.MethodPost, "/api/learning/content", map[string]string{"title": "X"}, query)
	require.NoError(t, err)
	require.NotEmpty(t, body)

	require.NoError(t, client.PostJSON(context.Background(), "/api/learning/content", map[string]string{"title": "X"}, &out))
	assert.True(t, out.Success)
	assert.Equal(t, int64(5), out.ContentID)
}
