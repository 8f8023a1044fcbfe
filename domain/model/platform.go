package model

import "strings"

// Platform identifies a supported social network.
type Platform string

const (
	PlatformLinkedIn  Platform = "linkedin"
	PlatformTwitter   Platform = "twitter"
	PlatformTikTok    Platform = "tiktok"
	PlatformPinterest Platform = "pinterest"
	PlatformReddit    Platform = "reddit"
	PlatformInstagram Platform = "instagram"
	PlatformYouTube   Platform = "youtube"
)

// AllPlatforms returns every platform the service can publish to, in stable order.
func AllPlatforms() []Platform {
	return []Platform{
		PlatformLinkedIn,
		PlatformTwitter,
		PlatformTikTok,
		PlatformPinterest,
		PlatformReddit,
		PlatformInstagram,
		PlatformYouTube,
	}
}

// ParsePlatform normalizes a user-supplied platform name.
func ParsePlatform(s string) (Platform, bool) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case PlatformLinkedIn, PlatformTwitter, PlatformTikTok, PlatformPinterest,
		PlatformReddit, PlatformInstagram, PlatformYouTube:
		return p, true
	}
	return "", false
}

func (p Platform) String() string { return string(p) }
