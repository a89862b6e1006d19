package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL+"/api/", append([]Option{WithLogger(zerolog.Nop())}, opts...)...)
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_GetDecodesEnvelope(t *testing.T) {
	var gotPath, gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery = r.URL.Path, r.URL.RawQuery
		writeJSON(w, http.StatusOK, map[string]any{
			"success":    true,
			"data":       []item{{ID: "a1", Name: "Checking"}},
			"pagination": map[string]int{"page": 2, "limit": 1, "total": 3},
		})
	})

	q := url.Values{}
	PageRequest{Page: 2, Limit: 1}.Apply(q)
	var out []item
	p, err := c.Get(context.Background(), PathAccounts, q, &out)
	require.NoError(t, err)
	require.Equal(t, "/api/accounts", gotPath)
	require.Equal(t, "limit=1&page=2", gotQuery)
	require.Equal(t, []item{{ID: "a1", Name: "Checking"}}, out)
	require.Equal(t, &Pagination{Page: 2, Limit: 1, Total: 3}, p)
}

func TestClient_PostSendsJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var in item
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		in.ID = "new-id"
		writeJSON(w, http.StatusCreated, map[string]any{"success": true, "data": in})
	})

	var out item
	require.NoError(t, c.Post(context.Background(), PathAccounts, item{Name: "Savings"}, &out))
	require.Equal(t, item{ID: "new-id", Name: "Savings"}, out)
}

func TestClient_ErrorKinds(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		kind    Kind
		message string
	}{
		{"server failure", http.StatusBadRequest, `{"success":false,"message":"Account name taken"}`, KindServer, "Account name taken"},
		{"success false on 200", http.StatusOK, `{"success":false}`, KindServer, ""},
		{"unauthorized", http.StatusUnauthorized, `{"success":false,"message":"Token expired"}`, KindUnauthorized, "Token expired"},
		{"forbidden html", http.StatusForbidden, `<html>nope</html>`, KindUnauthorized, ""},
		{"gateway html", http.StatusBadGateway, `<html>bad gateway</html>`, KindTransport, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			err := c.Delete(context.Background(), Join(PathAccounts, "a1"))
			require.Error(t, err)
			require.True(t, IsKind(err, tt.kind), "got %v", err)

			var apiErr *Error
			require.True(t, errors.As(err, &apiErr))
			require.Equal(t, tt.status, apiErr.Status)
			require.Equal(t, tt.message, apiErr.Message)
			require.Equal(t, "DELETE /accounts/a1", apiErr.Op)
		})
	}
}

func TestClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	c, err := NewClient(srv.URL)
	require.NoError(t, err)
	srv.Close()

	_, err = c.Get(context.Background(), PathBills, nil, nil)
	require.True(t, IsKind(err, KindTransport))
	require.Equal(t, "Failed to load bills.", UserMessage(err, "Failed to load bills."))
}

func TestClient_Headers(t *testing.T) {
	var auth, reqID []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = append(auth, r.Header.Get("Authorization"))
		reqID = append(reqID, r.Header.Get(RequestIDHeader))
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}, WithToken("tok-1"))

	ctx := WithRequestID(context.Background(), "req-42")
	require.NoError(t, c.Post(ctx, PathUpload, map[string]string{"fileName": "a.pdf"}, nil))
	require.NoError(t, c.Delete(context.Background(), Join(PathDocuments, "d1")))

	require.Equal(t, []string{"Bearer tok-1", "Bearer tok-1"}, auth)
	require.Equal(t, "req-42", reqID[0])
	require.NotEmpty(t, reqID[1])
	require.NotEqual(t, "req-42", reqID[1])
}

func TestNewClient_RejectsBadURL(t *testing.T) {
	_, err := NewClient("ftp://example.com")
	require.Error(t, err)
	_, err = NewClient("://nope")
	require.Error(t, err)
}
