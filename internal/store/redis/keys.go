package redis

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/embedkit/embedkit/internal/domain"
)

// DayFormat is the bucket format for per-day counters.
const DayFormat = "2006-01-02"

// Keys is the single source of truth for every key shape one widget kind
// persists under. Services never concatenate key strings themselves; the
// cascade on delete and the url index stay easy to audit this way.
//
// Layout:
//
//	{kind}:{id}                     entity record (JSON)
//	{kind}:{id}:owner               owner-token hash
//	url:{kind}:{escaped-url}        url -> id index
//	{kind}:{id}:total               running total
//	counter:{id}:daily:{date}       per-day visit bucket
//	counter:{id}:visitors:{hash}    24h visit dedup claim
//	like:{id}:users:{hash}          per-viewer like marker
//	ranking:{id}:scores             ranked (name, score) sorted set
//	bbs:{id}:messages               message log, newest first
//	{kind}:{id}:cooldown:{hash}     post/submit cooldown claim
type Keys struct {
	kind domain.Kind
}

func NewKeys(kind domain.Kind) Keys {
	return Keys{kind: kind}
}

func (k Keys) Kind() domain.Kind { return k.kind }

// Entity returns the key of the entity record.
func (k Keys) Entity(id string) string {
	return fmt.Sprintf("%s:%s", k.kind, id)
}

// Owner returns the key of the owner-hash record. It is independent of the
// entity record so ownership checks never touch entity data.
func (k Keys) Owner(id string) string {
	return fmt.Sprintf("%s:%s:owner", k.kind, id)
}

// URL returns the url-index key for a widget URL.
func (k Keys) URL(rawURL string) string {
	return fmt.Sprintf("url:%s:%s", k.kind, url.QueryEscape(rawURL))
}

// Total returns the key of the running total counter.
func (k Keys) Total(id string) string {
	return fmt.Sprintf("%s:%s:total", k.kind, id)
}

// Daily returns the per-day bucket key for a counter widget.
func (k Keys) Daily(id string, day time.Time) string {
	return fmt.Sprintf("%s:%s:daily:%s", k.kind, id, day.Format(DayFormat))
}

// DailyPattern matches every per-day bucket of one counter widget.
func (k Keys) DailyPattern(id string) string {
	return fmt.Sprintf("%s:%s:daily:*", k.kind, id)
}

// Visitor returns the dedup-claim key for one viewer of a counter widget.
func (k Keys) Visitor(id, viewerHash string) string {
	return fmt.Sprintf("%s:%s:visitors:%s", k.kind, id, viewerHash)
}

// VisitorPattern matches every dedup claim of one counter widget.
func (k Keys) VisitorPattern(id string) string {
	return fmt.Sprintf("%s:%s:visitors:*", k.kind, id)
}

// LikeUser returns the has-liked marker key for one viewer.
func (k Keys) LikeUser(id, viewerHash string) string {
	return fmt.Sprintf("%s:%s:users:%s", k.kind, id, viewerHash)
}

// LikeUserPattern matches every has-liked marker of one like widget.
func (k Keys) LikeUserPattern(id string) string {
	return fmt.Sprintf("%s:%s:users:*", k.kind, id)
}

// Scores returns the sorted-set key of a ranking widget.
func (k Keys) Scores(id string) string {
	return fmt.Sprintf("%s:%s:scores", k.kind, id)
}

// Messages returns the list key of a message board.
func (k Keys) Messages(id string) string {
	return fmt.Sprintf("%s:%s:messages", k.kind, id)
}

// Cooldown returns the repost/resubmit cooldown-claim key for one viewer.
func (k Keys) Cooldown(id, viewerHash string) string {
	return fmt.Sprintf("%s:%s:cooldown:%s", k.kind, id, viewerHash)
}

// CooldownPattern matches every cooldown claim of one widget.
func (k Keys) CooldownPattern(id string) string {
	return fmt.Sprintf("%s:%s:cooldown:*", k.kind, id)
}

// EntityPattern matches every key of this kind, entity records and
// sub-resources alike. Pair it with IDFromEntityKey to enumerate entities.
func (k Keys) EntityPattern() string {
	return fmt.Sprintf("%s:*", k.kind)
}

// IDFromEntityKey extracts the id from an entity-record key. Sub-resource
// keys (owner, total, collections) return ok=false.
func (k Keys) IDFromEntityKey(key string) (string, bool) {
	prefix := string(k.kind) + ":"
	if !strings.HasPrefix(key, prefix) {
		return "", false
	}
	id := key[len(prefix):]
	if id == "" || strings.Contains(id, ":") {
		return "", false
	}
	return id, true
}

// DayOfDailyKey extracts the bucket date from a per-day counter key.
func (k Keys) DayOfDailyKey(key string) (time.Time, bool) {
	i := strings.LastIndex(key, ":daily:")
	if i < 0 {
		return time.Time{}, false
	}
	day, err := time.Parse(DayFormat, key[i+len(":daily:"):])
	if err != nil {
		return time.Time{}, false
	}
	return day, true
}
