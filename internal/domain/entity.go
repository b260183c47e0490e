package domain

import (
	"time"

	"github.com/embedkit/embedkit/internal/apperr"
)

// Kind identifies one of the four widget services.
type Kind string

const (
	KindCounter Kind = "counter"
	KindLike    Kind = "like"
	KindRanking Kind = "ranking"
	KindBBS     Kind = "bbs"
)

// Kinds lists every widget kind, in sweep order.
func Kinds() []Kind {
	return []Kind{KindCounter, KindLike, KindRanking, KindBBS}
}

func (k Kind) Valid() bool {
	switch k {
	case KindCounter, KindLike, KindRanking, KindBBS:
		return true
	}
	return false
}

func (k Kind) String() string { return string(k) }

// Record is a persisted entity record. Every record validates itself after a
// storage round trip; a record that fails validation on read is treated as
// not found, never served.
type Record interface {
	Validate() error
	Ref() Base
}

// Base holds the identity shared by every widget entity.
//
// ID is a pure function of URL (see DeriveID), which makes creation
// idempotent per URL: the URL index and the entity's own URL field can
// never disagree.
type Base struct {
	ID      string    `json:"id"`
	URL     string    `json:"url"`
	Created time.Time `json:"created"`
}

// Ref returns the base identity. It lets generic code reach ID and URL on
// any entity through the Record interface.
func (b Base) Ref() Base { return b }

func (b Base) Validate() error {
	if b.ID == "" || b.URL == "" {
		return apperr.Validation("entity record missing id or url")
	}
	if b.ID != DeriveID(b.URL) {
		return apperr.Validationf("entity id %q does not match its url", b.ID)
	}
	if b.Created.IsZero() {
		return apperr.Validation("entity record missing created timestamp")
	}
	return nil
}

// Counter is the visit-counter entity. Its totals live in dedicated counter
// keys, not in the record.
type Counter struct {
	Base
}

// Like is the like-button entity.
type Like struct {
	Base
}

// Ranking is the score-ranking entity. MaxEntries bounds the ranked
// collection; surplus entries are evicted after every insert.
type Ranking struct {
	Base
	MaxEntries int `json:"maxEntries"`
}

func (r Ranking) Validate() error {
	if err := r.Base.Validate(); err != nil {
		return err
	}
	if r.MaxEntries <= 0 {
		return apperr.Validation("ranking record has no maxEntries")
	}
	return nil
}

// BBSSettings is the owner-configurable part of a message board.
type BBSSettings struct {
	Title           string   `json:"title,omitempty"`
	MessagesPerPage int      `json:"messagesPerPage"`
	MaxMessages     int      `json:"maxMessages"`
	Tags            []string `json:"tags,omitempty"`
	Icons           []string `json:"icons,omitempty"`
}

// BBS is the message-board entity. LastMessageAt is bumped on every post.
type BBS struct {
	Base
	Settings      BBSSettings `json:"settings"`
	LastMessageAt time.Time   `json:"lastMessageAt,omitzero"`
}

func (b BBS) Validate() error {
	if err := b.Base.Validate(); err != nil {
		return err
	}
	if b.Settings.MessagesPerPage <= 0 || b.Settings.MaxMessages <= 0 {
		return apperr.Validation("bbs record has invalid settings")
	}
	return nil
}

// Message is one entry in a message board log. AuthorHash is the poster's
// viewer fingerprint; it authorizes self-edit and self-delete without
// accounts.
type Message struct {
	ID         string    `json:"id"`
	Author     string    `json:"author"`
	Body       string    `json:"body"`
	Tag        string    `json:"tag,omitempty"`
	Icon       string    `json:"icon,omitempty"`
	AuthorHash string    `json:"authorHash,omitempty"`
	Created    time.Time `json:"created"`
}

func (m Message) Validate() error {
	if m.ID == "" || m.Body == "" {
		return apperr.Validation("message record missing id or body")
	}
	return nil
}
