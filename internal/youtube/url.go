package youtube

import (
	"fmt"
	"regexp"
)

// videoIDRes are the URL shapes we accept, tried in order.
var videoIDRes = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com/watch\?(?:[^&\s]*&)*v=|youtu\.be/)([^&\n?#/]+)`),
	regexp.MustCompile(`youtube\.com/embed/([^&\n?#/]+)`),
	regexp.MustCompile(`youtube\.com/v/([^&\n?#/]+)`),
	regexp.MustCompile(`youtube\.com/shorts/([^&\n?#/]+)`),
}

// playlistIDRe matches the list= query parameter.
var playlistIDRe = regexp.MustCompile(`[?&]list=([^&\s]+)`)

// playlistPathRe matches the bare /playlist? form.
var playlistPathRe = regexp.MustCompile(`/playlist\?`)

// ExtractVideoID pulls the 11-character video ID out of a YouTube URL.
// Recognized forms: watch?v=, youtu.be/, /embed/, /v/, /shorts/.
func ExtractVideoID(rawURL string) (string, error) {
	for _, re := range videoIDRes {
		if m := re.FindStringSubmatch(rawURL); m != nil {
			return m[1], nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
}

// IsPlaylistURL reports whether the URL references a playlist, either
// through a list= parameter or the /playlist? path.
func IsPlaylistURL(rawURL string) bool {
	return playlistIDRe.MatchString(rawURL) || playlistPathRe.MatchString(rawURL)
}

// ExtractPlaylistID pulls the playlist ID out of a list= parameter.
func ExtractPlaylistID(rawURL string) (string, error) {
	if m := playlistIDRe.FindStringSubmatch(rawURL); m != nil {
		return m[1], nil
	}
	return "", fmt.Errorf("%w: %q", ErrNotPlaylist, rawURL)
}

// WatchURL builds the canonical watch URL for a video ID.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

// FormatTimestamp converts seconds to "MM:SS", or "HH:MM:SS" for
// durations of an hour or more.
func FormatTimestamp(seconds float64) string {
	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
