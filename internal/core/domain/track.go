package domain

// Track represents a recommended track returned to the client.
type Track struct {
	ID          string
	Name        string
	Artist      string // comma separated artist names
	Album       string
	PreviewURL  string // empty when the provider has no preview
	ExternalURL string
	ImageURL    string // empty when the album has no images
	Features    AudioFeatures
}

// AudioFeatures holds the per-track audio analysis values.
// A nil field means the value is unknown.
type AudioFeatures struct {
	Valence      *float64
	Energy       *float64
	Danceability *float64
}

// MusicRequest is the client's mood/genre/language input.
type MusicRequest struct {
	Mood     string
	Genre    string
	Language string
}

// RecommendationQuery is the provider-facing form of a MusicRequest.
type RecommendationQuery struct {
	SeedGenres []string
	Features   *MoodFeatures // nil when no mood was requested
	Market     string        // empty when no market applies
	Limit      int
}
