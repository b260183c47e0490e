package domain

import (
	"strings"
	"testing"
)

func TestDeriveID(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		wantPrefix string
	}{
		{
			name:       "plain host",
			url:        "https://blog.example.com/",
			wantPrefix: "blog-",
		},
		{
			name:       "bare domain",
			url:        "https://example.com/page",
			wantPrefix: "example-",
		},
		{
			name:       "host with port",
			url:        "http://dev.example.com:8080/",
			wantPrefix: "dev-",
		},
		{
			name:       "label with unusual characters",
			url:        "https://My-Blog.example.com/",
			wantPrefix: "myblog-",
		},
		{
			name:       "unparseable host falls back",
			url:        "https:///nohost",
			wantPrefix: "site-",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := DeriveID(tt.url)
			if !strings.HasPrefix(id, tt.wantPrefix) {
				t.Errorf("DeriveID(%q) = %q, want prefix %q", tt.url, id, tt.wantPrefix)
			}
			if len(id) != len(tt.wantPrefix)+idHashLen {
				t.Errorf("DeriveID(%q) = %q, unexpected hash length", tt.url, id)
			}
		})
	}
}

func TestDeriveIDDeterministic(t *testing.T) {
	a := DeriveID("https://a.example/page")
	b := DeriveID("https://a.example/page")
	if a != b {
		t.Errorf("same url derived different ids: %q vs %q", a, b)
	}

	c := DeriveID("https://a.example/other")
	if a == c {
		t.Errorf("different urls derived the same id: %q", a)
	}
}

func TestTokenHashRoundTrip(t *testing.T) {
	hash := HashToken("my-secret-token")

	if hash == "my-secret-token" {
		t.Fatal("token must never be stored in the clear")
	}
	if !VerifyToken("my-secret-token", hash) {
		t.Error("correct token should verify")
	}
	if VerifyToken("wrong-token", hash) {
		t.Error("wrong token should not verify")
	}
	if VerifyToken("", hash) {
		t.Error("empty token should not verify")
	}
	if VerifyToken("my-secret-token", "") {
		t.Error("empty hash should not verify")
	}
}

func TestViewerHash(t *testing.T) {
	a := ViewerHash("192.0.2.1", "Mozilla/5.0")
	b := ViewerHash("192.0.2.1", "Mozilla/5.0")
	c := ViewerHash("192.0.2.2", "Mozilla/5.0")

	if a != b {
		t.Error("same fingerprint inputs should hash identically")
	}
	if a == c {
		t.Error("different IPs should hash differently")
	}
	if len(a) != viewerHashLen {
		t.Errorf("viewer hash length = %d, want %d", len(a), viewerHashLen)
	}
}
