package domain

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/url"
	"strings"
)

const (
	idHashLen     = 7
	viewerHashLen = 16
)

// DeriveID computes the public id for a widget URL: the first DNS label of
// the host, lowercased and reduced to [a-z0-9], joined with the first 7 hex
// characters of the URL's SHA-1. The same URL always derives the same id,
// which is what makes creation idempotent.
func DeriveID(rawURL string) string {
	label := "site"
	if u, err := url.Parse(rawURL); err == nil {
		if host := u.Hostname(); host != "" {
			if frag := sanitizeLabel(strings.SplitN(host, ".", 2)[0]); frag != "" {
				label = frag
			}
		}
	}

	sum := sha1.Sum([]byte(rawURL))
	return label + "-" + hex.EncodeToString(sum[:])[:idHashLen]
}

func sanitizeLabel(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// HashToken returns the one-way hash persisted in place of an owner token.
// The original token is never stored.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// VerifyToken compares a supplied token against a stored owner hash in
// constant time.
func VerifyToken(token, ownerHash string) bool {
	if token == "" || ownerHash == "" {
		return false
	}
	h := HashToken(token)
	return subtle.ConstantTimeCompare([]byte(h), []byte(ownerHash)) == 1
}

// ViewerHash derives the anonymous viewer fingerprint used for dedup,
// cooldown and like markers. Only the hash ever reaches the service layer.
func ViewerHash(ip, userAgent string) string {
	sum := sha256.Sum256([]byte(ip + "|" + userAgent))
	return hex.EncodeToString(sum[:])[:viewerHashLen]
}
