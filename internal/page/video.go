package page

import "regexp"

var (
	youtubeIDPattern = regexp.MustCompile(`(?:youtube\.com/(?:watch\?v=|embed/)|youtu\.be/)([a-zA-Z0-9_-]{11})`)
	vimeoIDPattern   = regexp.MustCompile(`(?:player\.vimeo\.com/video/|vimeo\.com/)(\d+)`)
)

// VideoProvider names the host of an embeddable video.
type VideoProvider string

const (
	ProviderYouTube VideoProvider = "youtube"
	ProviderVimeo   VideoProvider = "vimeo"
)

// VideoEmbed is a resolved embeddable video.
type VideoEmbed struct {
	Provider VideoProvider
	ID       string
	URL      string
}

// ParseVideoURL extracts the embeddable id from a YouTube or Vimeo link.
func ParseVideoURL(raw string) (VideoEmbed, bool) {
	if m := youtubeIDPattern.FindStringSubmatch(raw); m != nil {
		return VideoEmbed{Provider: ProviderYouTube, ID: m[1], URL: "https://www.youtube.com/embed/" + m[1]}, true
	}
	if m := vimeoIDPattern.FindStringSubmatch(raw); m != nil {
		return VideoEmbed{Provider: ProviderVimeo, ID: m[1], URL: "https://player.vimeo.com/video/" + m[1]}, true
	}
	return VideoEmbed{}, false
}
