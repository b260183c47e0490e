package domain

import (
	"net/url"
	"unicode/utf8"

	"github.com/embedkit/embedkit/internal/apperr"
)

// Input validation for untrusted caller data. Everything here runs before a
// single store round trip happens.

const (
	maxURLLen     = 2048
	minTokenLen   = 8
	maxTokenLen   = 64
	maxNameLen    = 64
	maxAuthorLen  = 64
	maxBodyLen    = 1024
	maxTitleLen   = 100
	maxViewerHash = 64
)

// ValidateURL checks that raw is an absolute http(s) URL of sane length.
func ValidateURL(raw string) error {
	if raw == "" {
		return apperr.Validation("url is required")
	}
	if len(raw) > maxURLLen {
		return apperr.Validationf("url exceeds %d characters", maxURLLen)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return apperr.Validationf("url is not parseable: %v", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return apperr.Validation("url must be absolute http or https")
	}
	return nil
}

// ValidateToken checks owner token shape. The token itself is opaque; only
// length matters.
func ValidateToken(token string) error {
	if len(token) < minTokenLen || len(token) > maxTokenLen {
		return apperr.Validationf("token must be %d-%d characters", minTokenLen, maxTokenLen)
	}
	return nil
}

// ValidateName checks a ranking entry name.
func ValidateName(name string) error {
	if name == "" {
		return apperr.Validation("name is required")
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return apperr.Validationf("name exceeds %d characters", maxNameLen)
	}
	return nil
}

// ValidateAuthor checks a message author. Empty is allowed; boards show
// anonymous posts.
func ValidateAuthor(author string) error {
	if utf8.RuneCountInString(author) > maxAuthorLen {
		return apperr.Validationf("author exceeds %d characters", maxAuthorLen)
	}
	return nil
}

// ValidateMessageBody checks a message body.
func ValidateMessageBody(body string) error {
	if body == "" {
		return apperr.Validation("message is required")
	}
	if utf8.RuneCountInString(body) > maxBodyLen {
		return apperr.Validationf("message exceeds %d characters", maxBodyLen)
	}
	return nil
}

// ValidateTitle checks a board title. Empty is allowed.
func ValidateTitle(title string) error {
	if utf8.RuneCountInString(title) > maxTitleLen {
		return apperr.Validationf("title exceeds %d characters", maxTitleLen)
	}
	return nil
}

// ValidateViewerHash checks a viewer fingerprint shape. Empty means the
// caller supplied none, which disables per-viewer dedup and cooldowns.
func ValidateViewerHash(hash string) error {
	if len(hash) > maxViewerHash {
		return apperr.Validationf("viewer hash exceeds %d characters", maxViewerHash)
	}
	return nil
}
