package rest

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/ewilliams-labs/moodmix/internal/core/domain"
)

const maxBodyBytes = 1 << 20

type randomMusicRequest struct {
	Mood     string `json:"mood"`
	Genre    string `json:"genre"`
	Language string `json:"language"`
}

type audioFeaturesResponse struct {
	Valence      *float64 `json:"valence"`
	Energy       *float64 `json:"energy"`
	Danceability *float64 `json:"danceability"`
}

type trackResponse struct {
	ID            string                `json:"id"`
	Name          string                `json:"name"`
	Artist        string                `json:"artist"`
	Album         string                `json:"album"`
	PreviewURL    *string               `json:"preview_url"`
	ExternalURL   string                `json:"external_url"`
	Image         *string               `json:"image"`
	AudioFeatures audioFeaturesResponse `json:"audio_features"`
}

// RandomMusic handles POST /api/random-music
func (h *Handler) RandomMusic(w http.ResponseWriter, r *http.Request) {
	if !isJSONContentType(r) {
		writeError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}

	// 1. Decode the Request Body; an empty body is an empty request
	var req randomMusicRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// 2. Call the Service
	track, err := h.svc.RandomTrack(r.Context(), domain.MusicRequest{
		Mood:     req.Mood,
		Genre:    req.Genre,
		Language: req.Language,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	// 3. Return the Response
	writeJSON(w, http.StatusOK, toTrackResponse(track))
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var upErr *domain.UpstreamError

	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "At least one parameter (mood, genre, or language) is required.")
	case errors.Is(err, domain.ErrServiceNotReady):
		writeError(w, http.StatusServiceUnavailable, "Spotify API not ready. Try again shortly.")
	case errors.Is(err, domain.ErrNoResultsFound):
		writeJSON(w, http.StatusNotFound, messageResponse{Message: "No tracks found. Try different parameters."})
	case errors.Is(err, domain.ErrTokenExpiredRetry):
		writeError(w, http.StatusInternalServerError, "Spotify token expired. Please retry.")
	case errors.Is(err, domain.ErrInvalidUpstreamParameters):
		details := err.Error()
		if errors.As(err, &upErr) {
			details = upErr.Message
		}
		writeErrorWithDetails(w, http.StatusBadRequest, "Failed to fetch music from Spotify API.", details)
	case errors.As(err, &upErr):
		status := upErr.Status
		if status < http.StatusBadRequest || status > 599 {
			status = http.StatusInternalServerError
		}
		writeErrorWithDetails(w, status, "Failed to fetch music from Spotify API.", upErr.Message)
	default:
		h.logger.Error("unhandled service error", zap.Error(err))
		writeErrorWithDetails(w, http.StatusInternalServerError, "Failed to fetch music from Spotify API.", err.Error())
	}
}

func toTrackResponse(t domain.Track) trackResponse {
	return trackResponse{
		ID:          t.ID,
		Name:        t.Name,
		Artist:      t.Artist,
		Album:       t.Album,
		PreviewURL:  optionalString(t.PreviewURL),
		ExternalURL: t.ExternalURL,
		Image:       optionalString(t.ImageURL),
		AudioFeatures: audioFeaturesResponse{
			Valence:      t.Features.Valence,
			Energy:       t.Features.Energy,
			Danceability: t.Features.Danceability,
		},
	}
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
