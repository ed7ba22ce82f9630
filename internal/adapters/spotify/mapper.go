package spotify

import (
	"strings"

	spotifyapi "github.com/zmb3/spotify/v2"

	"github.com/ewilliams-labs/moodmix/internal/core/domain"
)

// mapTrackToDomain converts a raw Spotify track to a domain track.
// Audio features are left unknown; recommendations do not carry them.
func mapTrackToDomain(st spotifyapi.SimpleTrack) domain.Track {
	// 1. Flatten Artists (List -> String)
	artistNames := make([]string, 0, len(st.Artists))
	for _, a := range st.Artists {
		artistNames = append(artistNames, a.Name)
	}

	// 2. Extract Album Cover
	imageURL := ""
	if len(st.Album.Images) > 0 {
		imageURL = st.Album.Images[0].URL
	}

	return domain.Track{
		ID:          st.ID.String(),
		Name:        st.Name,
		Artist:      strings.Join(artistNames, ", "),
		Album:       st.Album.Name,
		PreviewURL:  st.PreviewURL,
		ExternalURL: st.ExternalURLs["spotify"],
		ImageURL:    imageURL,
	}
}
