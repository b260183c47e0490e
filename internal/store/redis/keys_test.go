package redis

import (
	"testing"
	"time"

	"github.com/embedkit/embedkit/internal/domain"
)

func TestKeyShapes(t *testing.T) {
	k := NewKeys(domain.KindCounter)

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"entity", k.Entity("blog-abc1234"), "counter:blog-abc1234"},
		{"owner", k.Owner("blog-abc1234"), "counter:blog-abc1234:owner"},
		{"total", k.Total("blog-abc1234"), "counter:blog-abc1234:total"},
		{
			"daily",
			k.Daily("blog-abc1234", time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)),
			"counter:blog-abc1234:daily:2026-08-31",
		},
		{"visitor", k.Visitor("blog-abc1234", "deadbeef"), "counter:blog-abc1234:visitors:deadbeef"},
		{
			"url index escapes the url",
			k.URL("https://a.example/page?x=1"),
			"url:counter:https%3A%2F%2Fa.example%2Fpage%3Fx%3D1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestKeyShapesPerKind(t *testing.T) {
	if got := NewKeys(domain.KindLike).LikeUser("id1", "h1"); got != "like:id1:users:h1" {
		t.Errorf("like user key = %q", got)
	}
	if got := NewKeys(domain.KindRanking).Scores("id1"); got != "ranking:id1:scores" {
		t.Errorf("scores key = %q", got)
	}
	if got := NewKeys(domain.KindBBS).Messages("id1"); got != "bbs:id1:messages" {
		t.Errorf("messages key = %q", got)
	}
	if got := NewKeys(domain.KindBBS).Cooldown("id1", "h1"); got != "bbs:id1:cooldown:h1" {
		t.Errorf("cooldown key = %q", got)
	}
}

func TestIDFromEntityKey(t *testing.T) {
	k := NewKeys(domain.KindRanking)

	tests := []struct {
		key    string
		wantID string
		wantOK bool
	}{
		{"ranking:blog-abc1234", "blog-abc1234", true},
		{"ranking:blog-abc1234:owner", "", false},
		{"ranking:blog-abc1234:scores", "", false},
		{"counter:blog-abc1234", "", false},
		{"ranking:", "", false},
	}

	for _, tt := range tests {
		id, ok := k.IDFromEntityKey(tt.key)
		if id != tt.wantID || ok != tt.wantOK {
			t.Errorf("IDFromEntityKey(%q) = (%q, %v), want (%q, %v)", tt.key, id, ok, tt.wantID, tt.wantOK)
		}
	}
}

func TestDayOfDailyKey(t *testing.T) {
	k := NewKeys(domain.KindCounter)

	day, ok := k.DayOfDailyKey("counter:blog-abc1234:daily:2026-08-30")
	if !ok {
		t.Fatal("expected a parseable daily key")
	}
	if day.Format(DayFormat) != "2026-08-30" {
		t.Errorf("parsed day = %s", day.Format(DayFormat))
	}

	if _, ok := k.DayOfDailyKey("counter:blog-abc1234:total"); ok {
		t.Error("total key should not parse as a daily bucket")
	}
	if _, ok := k.DayOfDailyKey("counter:blog-abc1234:daily:not-a-date"); ok {
		t.Error("malformed date should not parse")
	}
}
