package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ewilliams-labs/moodmix/internal/adapters/spotify"
	"github.com/ewilliams-labs/moodmix/internal/core/domain"
	"github.com/ewilliams-labs/moodmix/internal/core/services"
)

// --- Mocks ---

type mockProvider struct {
	tracks []domain.Track
	err    error
	query  domain.RecommendationQuery
}

func (m *mockProvider) GetRecommendations(ctx context.Context, q domain.RecommendationQuery) ([]domain.Track, error) {
	m.query = q
	if m.err != nil {
		return nil, m.err
	}
	return m.tracks, nil
}

type mockCredentials struct {
	ready        bool
	refreshCalls int
}

func (m *mockCredentials) Ready() bool { return m.ready }

func (m *mockCredentials) Refresh(ctx context.Context) error {
	m.refreshCalls++
	return nil
}

func newTestHandler(t *testing.T, provider *mockProvider, creds *mockCredentials) *Handler {
	t.Helper()
	logger := zaptest.NewLogger(t)
	svc := services.NewOrchestrator(provider, creds, logger)
	return NewHandler(svc, creds, logger)
}

func postMusic(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/random-music", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// --- Tests ---

func TestHandler_RandomMusic(t *testing.T) {
	track := domain.Track{
		ID:          "t1",
		Name:        "Song One",
		Artist:      "Artist A, Artist B",
		Album:       "Album A",
		PreviewURL:  "https://p.scdn.co/t1",
		ExternalURL: "https://open.spotify.com/track/t1",
		ImageURL:    "https://i.scdn.co/t1",
	}

	tests := []struct {
		name           string
		body           string
		ready          bool
		provider       mockProvider
		expectedStatus int
		expectedBody   string
		wantRefresh    int
	}{
		{
			name:           "Success: returns the track",
			body:           `{"mood":"happy","genre":"pop","language":"thai"}`,
			ready:          true,
			provider:       mockProvider{tracks: []domain.Track{track}},
			expectedStatus: http.StatusOK,
			expectedBody:   `"id":"t1"`,
		},
		{
			name:           "Bad Request: empty object",
			body:           `{}`,
			ready:          true,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "At least one parameter (mood, genre, or language) is required.",
		},
		{
			name:           "Bad Request: empty body",
			body:           ``,
			ready:          true,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "At least one parameter",
		},
		{
			name:           "Bad Request: malformed JSON",
			body:           `{"mood":`,
			ready:          true,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "Invalid request body",
		},
		{
			name:           "Service Unavailable: no token yet",
			body:           `{"genre":"pop"}`,
			ready:          false,
			expectedStatus: http.StatusServiceUnavailable,
			expectedBody:   "Spotify API not ready. Try again shortly.",
		},
		{
			name:           "Not Found: no tracks",
			body:           `{"genre":"pop"}`,
			ready:          true,
			provider:       mockProvider{tracks: []domain.Track{}},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"message":"No tracks found. Try different parameters."`,
		},
		{
			name:           "Internal Server Error: token expired",
			body:           `{"mood":"sad"}`,
			ready:          true,
			provider:       mockProvider{err: &domain.UpstreamError{Status: http.StatusUnauthorized, Message: "The access token expired"}},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   "Spotify token expired. Please retry.",
			wantRefresh:    1,
		},
		{
			name:           "Bad Request: upstream rejected parameters",
			body:           `{"genre":"not a genre"}`,
			ready:          true,
			provider:       mockProvider{err: &domain.UpstreamError{Status: http.StatusBadRequest, Message: "invalid request"}},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"Failed to fetch music from Spotify API.","details":"invalid request"}`,
		},
		{
			name:           "Upstream status passes through",
			body:           `{"genre":"pop"}`,
			ready:          true,
			provider:       mockProvider{err: &domain.UpstreamError{Status: http.StatusTooManyRequests, Message: "API rate limit exceeded"}},
			expectedStatus: http.StatusTooManyRequests,
			expectedBody:   `"details":"API rate limit exceeded"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := tt.provider
			creds := &mockCredentials{ready: tt.ready}
			h := newTestHandler(t, &provider, creds)

			rec := postMusic(t, h, tt.body)

			assert.Equal(t, tt.expectedStatus, rec.Code, "body: %s", strings.TrimSpace(rec.Body.String()))
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Equal(t, tt.wantRefresh, creds.refreshCalls)
		})
	}
}

func TestHandler_RandomMusic_ResponseShape(t *testing.T) {
	provider := &mockProvider{tracks: []domain.Track{{
		ID:          "t2",
		Name:        "No Art",
		Artist:      "Solo",
		Album:       "Bare",
		ExternalURL: "https://open.spotify.com/track/t2",
	}}}
	h := newTestHandler(t, provider, &mockCredentials{ready: true})

	rec := postMusic(t, h, `{"genre":"Jazz"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.Equal(t, "t2", body["id"])
	assert.Equal(t, "No Art", body["name"])
	assert.Equal(t, "Solo", body["artist"])
	assert.Equal(t, "Bare", body["album"])
	assert.Equal(t, "https://open.spotify.com/track/t2", body["external_url"])
	assert.Contains(t, body, "image")
	assert.Nil(t, body["image"])
	assert.Contains(t, body, "preview_url")
	assert.Nil(t, body["preview_url"])
	assert.Equal(t, map[string]any{"valence": nil, "energy": nil, "danceability": nil}, body["audio_features"])

	assert.Equal(t, []string{"jazz"}, provider.query.SeedGenres)
}

func TestHandler_RandomMusic_UnsupportedMediaType(t *testing.T) {
	h := newTestHandler(t, &mockProvider{}, &mockCredentials{ready: true})

	req := httptest.NewRequest(http.MethodPost, "/api/random-music", strings.NewReader("mood=happy"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestHandler_HealthAndReady(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		ready      bool
		wantStatus int
		wantBody   string
	}{
		{name: "health", path: "/health", ready: false, wantStatus: http.StatusOK, wantBody: `"status":"ok"`},
		{name: "ready with token", path: "/ready", ready: true, wantStatus: http.StatusOK, wantBody: `"status":"ready"`},
		{name: "not ready", path: "/ready", ready: false, wantStatus: http.StatusServiceUnavailable, wantBody: `"status":"not_ready"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t, &mockProvider{}, &mockCredentials{ready: tt.ready})

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}

func TestHandler_RequestID(t *testing.T) {
	h := newTestHandler(t, &mockProvider{}, &mockCredentials{ready: true})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Len(t, rec.Header().Get(requestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	h := newTestHandler(t, &mockProvider{}, &mockCredentials{ready: true})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/random-music", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

// TestHandler_SpotifyRoundTrip wires the real Spotify adapter and credential
// manager against stub token and recommendation servers.
func TestHandler_SpotifyRoundTrip(t *testing.T) {
	var tokenCalls atomic.Int32
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"live-token","token_type":"bearer","expires_in":3600}`))
	}))
	defer tokenSrv.Close()

	var expired atomic.Bool
	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if expired.Load() {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"status":401,"message":"The access token expired"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"seeds":[],"tracks":[
			{"id":"a","name":"A","artists":[{"name":"X"}],"external_urls":{"spotify":"https://open.spotify.com/track/a"},"album":{"name":"AA","images":[{"url":"https://img/a"}]}},
			{"id":"b","name":"B","artists":[{"name":"Y"}],"external_urls":{"spotify":"https://open.spotify.com/track/b"},"album":{"name":"BB","images":[]}}
		]}`))
	}))
	defer apiSrv.Close()

	logger := zaptest.NewLogger(t)
	creds := spotify.NewCredentials(spotify.CredentialsConfig{
		ClientID:     "id",
		ClientSecret: "secret",
		TokenURL:     tokenSrv.URL,
	}, logger)
	client := spotify.NewClientWithBaseURL(creds, logger, apiSrv.URL+"/")
	h := NewHandler(services.NewOrchestrator(client, creds, logger), creds, logger)

	// before the first token
	rec := postMusic(t, h, `{"genre":"pop"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	require.NoError(t, creds.Refresh(context.Background()))
	require.Equal(t, int32(1), tokenCalls.Load())

	rec = postMusic(t, h, `{"mood":"happy"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var got trackResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Contains(t, []string{"a", "b"}, got.ID)

	// the provider rejects the token: exactly one refresh, client told to retry
	expired.Store(true)
	rec = postMusic(t, h, `{"mood":"happy"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Spotify token expired. Please retry.")
	assert.Equal(t, int32(2), tokenCalls.Load())
}

// TestHandler_SpotifyErrorBodies checks that the provider's HTTP status drives
// the response even when the error body carries no usable status.
func TestHandler_SpotifyErrorBodies(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantStatus  int
		wantBody    string
		wantRefresh int32
	}{
		{name: "401 empty body", status: http.StatusUnauthorized, body: ``, wantStatus: http.StatusInternalServerError, wantBody: "Spotify token expired. Please retry.", wantRefresh: 1},
		{name: "401 envelope without status", status: http.StatusUnauthorized, body: `{"error":{"message":"The access token expired"}}`, wantStatus: http.StatusInternalServerError, wantBody: "Spotify token expired. Please retry.", wantRefresh: 1},
		{name: "401 plain text", status: http.StatusUnauthorized, body: `Unauthorized`, wantStatus: http.StatusInternalServerError, wantBody: "Spotify token expired. Please retry.", wantRefresh: 1},
		{name: "400 empty body", status: http.StatusBadRequest, body: ``, wantStatus: http.StatusBadRequest, wantBody: "Failed to fetch music from Spotify API."},
		{name: "400 envelope without status", status: http.StatusBadRequest, body: `{"error":{"message":"invalid request"}}`, wantStatus: http.StatusBadRequest, wantBody: `"details":"invalid request"`},
		{name: "502 HTML body", status: http.StatusBadGateway, body: `<html>bad gateway</html>`, wantStatus: http.StatusBadGateway, wantBody: "Failed to fetch music from Spotify API."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tokenCalls atomic.Int32
			tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				tokenCalls.Add(1)
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"access_token":"live-token","token_type":"bearer","expires_in":3600}`))
			}))
			defer tokenSrv.Close()

			apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer apiSrv.Close()

			logger := zaptest.NewLogger(t)
			creds := spotify.NewCredentials(spotify.CredentialsConfig{
				ClientID:     "id",
				ClientSecret: "secret",
				TokenURL:     tokenSrv.URL,
			}, logger)
			require.NoError(t, creds.Refresh(context.Background()))

			client := spotify.NewClientWithBaseURL(creds, logger, apiSrv.URL+"/")
			h := NewHandler(services.NewOrchestrator(client, creds, logger), creds, logger)

			rec := postMusic(t, h, `{"genre":"pop"}`)

			assert.Equal(t, tt.wantStatus, rec.Code, "body: %s", strings.TrimSpace(rec.Body.String()))
			assert.Contains(t, rec.Body.String(), tt.wantBody)
			assert.Equal(t, 1+tt.wantRefresh, tokenCalls.Load())
		})
	}
}

func TestIsJSONContentType(t *testing.T) {
	tests := []struct {
		ct   string
		want bool
	}{
		{ct: "", want: true},
		{ct: "application/json", want: true},
		{ct: "application/json; charset=utf-8", want: true},
		{ct: "text/plain", want: false},
		{ct: ";;;", want: false},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(nil))
		if tt.ct != "" {
			req.Header.Set("Content-Type", tt.ct)
		}
		assert.Equal(t, tt.want, isJSONContentType(req), tt.ct)
	}
}
