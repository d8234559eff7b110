package sources

import (
	"net/url"
	"strings"

	"github.com/jonathan/job-ingest/internal/types"
)

// DetectPlatform identifies the ATS platform from a board URL. Returns the
// empty platform when the host is not a known ATS.
func DetectPlatform(urlStr string) types.Platform {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}

	host := strings.ToLower(parsed.Host)

	switch {
	case strings.Contains(host, "greenhouse.io"):
		return types.PlatformGreenhouse
	case strings.Contains(host, "lever.co"):
		return types.PlatformLever
	case strings.Contains(host, "ashbyhq.com"):
		return types.PlatformAshby
	}
	return ""
}

// ParseBoardURL extracts the platform and board slug from a public board URL,
// e.g. https://boards.greenhouse.io/acme or https://jobs.lever.co/acme/123.
// API hosts carry the slug deeper in the path and are handled too.
func ParseBoardURL(urlStr string) (types.Platform, string) {
	platform := DetectPlatform(urlStr)
	if platform == "" {
		return "", ""
	}

	parsed, err := url.Parse(urlStr)
	if err != nil {
		return "", ""
	}

	segments := strings.FieldsFunc(parsed.Path, func(r rune) bool { return r == '/' })
	host := strings.ToLower(parsed.Host)

	var slug string
	switch {
	case strings.HasPrefix(host, "boards-api.") && len(segments) >= 3:
		// /v1/boards/{slug}/jobs
		slug = segments[2]
	case strings.HasPrefix(host, "api.") && len(segments) >= 3:
		// /v0/postings/{slug} or /posting-api/job-board/{slug}
		slug = segments[2]
	case len(segments) >= 1:
		slug = segments[0]
	}

	return platform, slug
}
