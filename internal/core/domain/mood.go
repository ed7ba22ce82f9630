package domain

import "strings"

// MoodFeatures is a target triple of audio features, each in [0,1].
type MoodFeatures struct {
	Valence      float64
	Energy       float64
	Danceability float64
}

var neutralMood = MoodFeatures{Valence: 0.5, Energy: 0.5, Danceability: 0.5}

var moodFeatures = map[string]MoodFeatures{
	"happy":     {Valence: 0.9, Energy: 0.8, Danceability: 0.7},
	"relaxed":   {Valence: 0.7, Energy: 0.3, Danceability: 0.4},
	"sad":       {Valence: 0.2, Energy: 0.3, Danceability: 0.3},
	"energetic": {Valence: 0.8, Energy: 0.9, Danceability: 0.8},
	"calm":      {Valence: 0.6, Energy: 0.2, Danceability: 0.3},
	"party":     {Valence: 0.9, Energy: 0.9, Danceability: 0.9},
}

// ISO 3166-1 alpha-2 market per language keyword.
var languageMarkets = map[string]string{
	"thai":       "TH",
	"english":    "US",
	"japanese":   "JP",
	"korean":     "KR",
	"chinese":    "TW",
	"french":     "FR",
	"german":     "DE",
	"spanish":    "ES",
	"vietnamese": "VN",
	"indonesian": "ID",
}

// MoodToFeatures maps a mood keyword to its feature targets.
// Matching is case-insensitive; unknown moods get the neutral triple.
func MoodToFeatures(mood string) MoodFeatures {
	if f, ok := moodFeatures[normalizeKeyword(mood)]; ok {
		return f
	}
	return neutralMood
}

// LanguageToMarket maps a language keyword to a market code.
// The boolean is false when the language has no mapping.
func LanguageToMarket(language string) (string, bool) {
	market, ok := languageMarkets[normalizeKeyword(language)]
	return market, ok
}

func normalizeKeyword(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
