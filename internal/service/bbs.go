package service

import (
	"context"
	"encoding/json"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/embedkit/embedkit/internal/apperr"
	"github.com/embedkit/embedkit/internal/domain"
	"github.com/embedkit/embedkit/internal/logger"
	"github.com/embedkit/embedkit/internal/metrics"
)

// BBSConfig bounds a message board's behavior.
type BBSConfig struct {
	DefaultPageSize    int
	PageSizeCap        int
	DefaultMaxMessages int
	MaxMessagesCap     int
	// CooldownTTL is the per-viewer repost window. Zero disables it.
	CooldownTTL time.Duration
}

// BBSSettingsParams carries owner-supplied settings. Nil fields mean "use
// the default" on create and "keep the current value" on update.
type BBSSettingsParams struct {
	Title           *string   `json:"title,omitempty"`
	MessagesPerPage *int      `json:"messagesPerPage,omitempty"`
	MaxMessages     *int      `json:"maxMessages,omitempty"`
	Tags            *[]string `json:"tags,omitempty"`
	Icons           *[]string `json:"icons,omitempty"`
}

// BBS is the message-board service. The log is newest-first: posts prepend,
// and the oldest excess past maxMessages is evicted from the tail in one
// bulk trim. Each message stores its author's viewer fingerprint so the
// author can edit or delete their own post without an account; the owner
// token overrides either way.
type BBS struct {
	base     *Base[domain.BBS]
	counters CounterStore
	lists    ListStore
	markers  MarkerStore
	scanner  KeyScanner
	cfg      BBSConfig
	log      logger.Logger
}

func NewBBS(
	base *Base[domain.BBS],
	counters CounterStore,
	lists ListStore,
	markers MarkerStore,
	scanner KeyScanner,
	cfg BBSConfig,
	log logger.Logger,
) *BBS {
	return &BBS{
		base:     base,
		counters: counters,
		lists:    lists,
		markers:  markers,
		scanner:  scanner,
		cfg:      cfg,
		log:      log,
	}
}

func (s *BBS) Kind() domain.Kind { return s.base.Kind() }

// Create makes a message board for url with the supplied settings, falling
// back to configured defaults.
func (s *BBS) Create(ctx context.Context, url, token string, params BBSSettingsParams) (domain.BBSData, bool, error) {
	settings, err := s.buildSettings(domain.BBSSettings{
		MessagesPerPage: s.cfg.DefaultPageSize,
		MaxMessages:     s.cfg.DefaultMaxMessages,
	}, params)
	if err != nil {
		return domain.BBSData{}, false, err
	}

	entity, created, err := s.base.Create(ctx, url, token, func(b domain.Base) domain.BBS {
		return domain.BBS{Base: b, Settings: settings}
	})
	if err != nil {
		return domain.BBSData{}, false, err
	}
	metrics.OperationsTotal.WithLabelValues("bbs", "create").Inc()

	data, err := s.page(ctx, entity, 1)
	return data, created, err
}

// Get returns the first page of the board.
func (s *BBS) Get(ctx context.Context, id string) (domain.BBSData, error) {
	return s.Messages(ctx, id, 1)
}

// Messages returns one page of the log, newest first. Page numbers start
// at 1; totalPages derives from totalMessages and the page size.
func (s *BBS) Messages(ctx context.Context, id string, page int) (domain.BBSData, error) {
	entity, err := s.base.GetByID(ctx, id)
	if err != nil {
		return domain.BBSData{}, err
	}
	return s.page(ctx, entity, page)
}

// PostMessage appends a message. With a viewer hash supplied, the cooldown
// claim is taken first; hitting the cooldown returns the current first page
// unchanged. After the post the log is trimmed back to maxMessages and the
// entity's lastMessageAt is bumped.
func (s *BBS) PostMessage(ctx context.Context, url, token, author, body, tag, icon, viewerHash string) (domain.BBSData, error) {
	if err := domain.ValidateAuthor(author); err != nil {
		return domain.BBSData{}, err
	}
	if err := domain.ValidateMessageBody(body); err != nil {
		return domain.BBSData{}, err
	}
	if err := domain.ValidateViewerHash(viewerHash); err != nil {
		return domain.BBSData{}, err
	}

	entity, err := s.base.requireOwner(ctx, url, token)
	if err != nil {
		return domain.BBSData{}, err
	}
	if err := s.checkChoice(tag, entity.Settings.Tags, "tag"); err != nil {
		return domain.BBSData{}, err
	}
	if err := s.checkChoice(icon, entity.Settings.Icons, "icon"); err != nil {
		return domain.BBSData{}, err
	}
	metrics.OperationsTotal.WithLabelValues("bbs", "post").Inc()

	keys := s.base.Keys()
	id := entity.ID

	if viewerHash != "" && s.cfg.CooldownTTL > 0 {
		claimed, err := s.markers.SetIfNotExists(ctx, keys.Cooldown(id, viewerHash), s.cfg.CooldownTTL)
		if err != nil {
			return domain.BBSData{}, err
		}
		if !claimed {
			metrics.ClaimConflictsTotal.WithLabelValues("bbs").Inc()
			return s.page(ctx, entity, 1)
		}
	}
	releaseCooldown := func() {
		if viewerHash == "" || s.cfg.CooldownTTL <= 0 {
			return
		}
		metrics.RollbacksTotal.WithLabelValues("bbs").Inc()
		if rerr := s.markers.Release(ctx, keys.Cooldown(id, viewerHash)); rerr != nil {
			s.log.Warn("failed to release post cooldown after error",
				logger.String("id", id), logger.Error(rerr))
		}
	}

	msg := domain.Message{
		ID:         uuid.NewString(),
		Author:     author,
		Body:       body,
		Tag:        tag,
		Icon:       icon,
		AuthorHash: viewerHash,
		Created:    s.base.now().UTC(),
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		releaseCooldown()
		return domain.BBSData{}, apperr.Storage("marshal message", err)
	}

	if err := s.lists.Push(ctx, keys.Messages(id), string(raw)); err != nil {
		releaseCooldown()
		return domain.BBSData{}, err
	}

	total, err := s.counters.Increment(ctx, keys.Total(id))
	if err != nil {
		return domain.BBSData{}, err
	}
	maxMessages := int64(entity.Settings.MaxMessages)
	if total > maxMessages {
		// Oldest excess goes first, in one bulk trim from the tail.
		if err := s.lists.Trim(ctx, keys.Messages(id), 0, maxMessages-1); err != nil {
			return domain.BBSData{}, err
		}
		if err := s.counters.Set(ctx, keys.Total(id), maxMessages); err != nil {
			return domain.BBSData{}, err
		}
	}

	entity.LastMessageAt = msg.Created
	if err := s.base.entities.Save(ctx, keys.Entity(id), entity); err != nil {
		return domain.BBSData{}, err
	}

	return s.page(ctx, entity, 1)
}

// UpdateMessage edits a message's body (and author line, when supplied).
// Authorized for the original author's fingerprint or the owner token,
// whichever the caller can produce.
func (s *BBS) UpdateMessage(ctx context.Context, id, messageID, author, body, viewerHash, token string) (domain.BBSData, error) {
	if err := domain.ValidateMessageBody(body); err != nil {
		return domain.BBSData{}, err
	}
	if err := domain.ValidateAuthor(author); err != nil {
		return domain.BBSData{}, err
	}

	entity, err := s.base.GetByID(ctx, id)
	if err != nil {
		return domain.BBSData{}, err
	}

	index, msg, _, err := s.findMessage(ctx, id, messageID)
	if err != nil {
		return domain.BBSData{}, err
	}
	if err := s.authorizeMessage(ctx, id, msg, viewerHash, token); err != nil {
		return domain.BBSData{}, err
	}
	metrics.OperationsTotal.WithLabelValues("bbs", "update_message").Inc()

	msg.Body = body
	if author != "" {
		msg.Author = author
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return domain.BBSData{}, apperr.Storage("marshal message", err)
	}
	if err := s.lists.SetAt(ctx, s.base.Keys().Messages(id), index, string(raw)); err != nil {
		return domain.BBSData{}, err
	}

	return s.page(ctx, entity, 1)
}

// RemoveMessage deletes a message. Same authorization as UpdateMessage.
func (s *BBS) RemoveMessage(ctx context.Context, id, messageID, viewerHash, token string) (domain.BBSData, error) {
	entity, err := s.base.GetByID(ctx, id)
	if err != nil {
		return domain.BBSData{}, err
	}

	_, msg, raw, err := s.findMessage(ctx, id, messageID)
	if err != nil {
		return domain.BBSData{}, err
	}
	if err := s.authorizeMessage(ctx, id, msg, viewerHash, token); err != nil {
		return domain.BBSData{}, err
	}
	metrics.OperationsTotal.WithLabelValues("bbs", "remove_message").Inc()

	keys := s.base.Keys()
	removed, err := s.lists.RemoveValue(ctx, keys.Messages(id), raw)
	if err != nil {
		return domain.BBSData{}, err
	}
	if removed {
		if _, err := NewNumeric(s.counters, int64(s.cfg.MaxMessagesCap)).Decrement(ctx, keys.Total(id)); err != nil {
			return domain.BBSData{}, err
		}
	}

	return s.page(ctx, entity, 1)
}

// UpdateSettings is the owner-gated settings change. Omitted fields keep
// their current values; the page-size and retention caps still apply.
func (s *BBS) UpdateSettings(ctx context.Context, url, token string, params BBSSettingsParams) (domain.BBSData, error) {
	entity, err := s.base.requireOwner(ctx, url, token)
	if err != nil {
		return domain.BBSData{}, err
	}
	metrics.OperationsTotal.WithLabelValues("bbs", "update_settings").Inc()

	settings, err := s.buildSettings(entity.Settings, params)
	if err != nil {
		return domain.BBSData{}, err
	}
	entity.Settings = settings

	keys := s.base.Keys()
	if err := s.base.entities.Save(ctx, keys.Entity(entity.ID), entity); err != nil {
		return domain.BBSData{}, err
	}

	// A lowered retention applies immediately.
	total, err := s.counters.Get(ctx, keys.Total(entity.ID))
	if err != nil {
		return domain.BBSData{}, err
	}
	if maxMessages := int64(settings.MaxMessages); total > maxMessages {
		if err := s.lists.Trim(ctx, keys.Messages(entity.ID), 0, maxMessages-1); err != nil {
			return domain.BBSData{}, err
		}
		if err := s.counters.Set(ctx, keys.Total(entity.ID), maxMessages); err != nil {
			return domain.BBSData{}, err
		}
	}

	return s.page(ctx, entity, 1)
}

func (s *BBS) Delete(ctx context.Context, url, token string) error {
	metrics.OperationsTotal.WithLabelValues("bbs", "delete").Inc()
	return s.base.Delete(ctx, url, token, s.cleanup)
}

func (s *BBS) Purge(ctx context.Context, id string) error {
	return s.base.Purge(ctx, id, s.cleanup)
}

func (s *BBS) IDs(ctx context.Context) ([]string, error) {
	return s.base.IDs(ctx, s.scanner)
}

// LastActivity is the last post, or created for a board nobody wrote to.
func (s *BBS) LastActivity(ctx context.Context, id string) (time.Time, error) {
	entity, err := s.base.GetByID(ctx, id)
	if err != nil {
		return time.Time{}, err
	}
	if !entity.LastMessageAt.IsZero() {
		return entity.LastMessageAt, nil
	}
	return entity.Created, nil
}

func (s *BBS) cleanup(ctx context.Context, id string) error {
	keys := s.base.Keys()
	if err := s.lists.Clear(ctx, keys.Messages(id)); err != nil {
		return err
	}
	if err := s.counters.Delete(ctx, keys.Total(id)); err != nil {
		return err
	}
	if _, err := s.scanner.DeleteKeys(ctx, keys.CooldownPattern(id)); err != nil {
		return err
	}
	return nil
}

func (s *BBS) buildSettings(current domain.BBSSettings, params BBSSettingsParams) (domain.BBSSettings, error) {
	out := current

	if params.Title != nil {
		if err := domain.ValidateTitle(*params.Title); err != nil {
			return domain.BBSSettings{}, err
		}
		out.Title = *params.Title
	}
	if params.MessagesPerPage != nil {
		out.MessagesPerPage = *params.MessagesPerPage
	}
	if params.MaxMessages != nil {
		out.MaxMessages = *params.MaxMessages
	}
	if params.Tags != nil {
		out.Tags = *params.Tags
	}
	if params.Icons != nil {
		out.Icons = *params.Icons
	}

	if out.MessagesPerPage <= 0 {
		return domain.BBSSettings{}, apperr.Validation("messagesPerPage must be positive")
	}
	if out.MessagesPerPage > s.cfg.PageSizeCap {
		out.MessagesPerPage = s.cfg.PageSizeCap
	}
	if out.MaxMessages <= 0 {
		return domain.BBSSettings{}, apperr.Validation("maxMessages must be positive")
	}
	if out.MaxMessages > s.cfg.MaxMessagesCap {
		out.MaxMessages = s.cfg.MaxMessagesCap
	}
	return out, nil
}

func (s *BBS) checkChoice(value string, allowed []string, field string) error {
	if value == "" || len(allowed) == 0 {
		return nil
	}
	if !slices.Contains(allowed, value) {
		return apperr.Validationf("%s %q is not offered by this board", field, value)
	}
	return nil
}

// authorizeMessage admits the original author's fingerprint or a valid
// owner token, whichever is supplied.
func (s *BBS) authorizeMessage(ctx context.Context, id string, msg domain.Message, viewerHash, token string) error {
	if viewerHash != "" && msg.AuthorHash != "" && viewerHash == msg.AuthorHash {
		return nil
	}
	isOwner, err := s.base.IsOwnerByID(ctx, id, token)
	if err != nil {
		return err
	}
	if !isOwner {
		return apperr.Unauthorized("caller is neither the message author nor the board owner")
	}
	return nil
}

// findMessage locates a message by id in the log, returning its index and
// raw payload. Corrupt entries are skipped, not served.
func (s *BBS) findMessage(ctx context.Context, id, messageID string) (int64, domain.Message, string, error) {
	values, err := s.lists.Range(ctx, s.base.Keys().Messages(id), 0, -1)
	if err != nil {
		return 0, domain.Message{}, "", err
	}

	for i, raw := range values {
		var msg domain.Message
		if err := json.Unmarshal([]byte(raw), &msg); err != nil {
			continue
		}
		if msg.ID == messageID {
			return int64(i), msg, raw, nil
		}
	}
	return 0, domain.Message{}, "", apperr.NotFoundf("message %s not found", messageID)
}

// page assembles one page of the public view.
func (s *BBS) page(ctx context.Context, entity domain.BBS, page int) (domain.BBSData, error) {
	if page < 1 {
		page = 1
	}
	perPage := entity.Settings.MessagesPerPage
	keys := s.base.Keys()

	total, err := s.counters.Get(ctx, keys.Total(entity.ID))
	if err != nil {
		return domain.BBSData{}, err
	}

	start := int64(page-1) * int64(perPage)
	stop := start + int64(perPage) - 1
	values, err := s.lists.Range(ctx, keys.Messages(entity.ID), start, stop)
	if err != nil {
		return domain.BBSData{}, err
	}

	messages := make([]domain.Message, 0, len(values))
	for _, raw := range values {
		var msg domain.Message
		if err := json.Unmarshal([]byte(raw), &msg); err != nil {
			continue
		}
		if msg.Validate() != nil {
			continue
		}
		msg.AuthorHash = "" // fingerprints never leave the service layer
		messages = append(messages, msg)
	}

	totalPages := int(total) / perPage
	if int(total)%perPage != 0 {
		totalPages++
	}

	return domain.BBSData{
		ID:            entity.ID,
		URL:           entity.URL,
		Settings:      entity.Settings,
		TotalMessages: total,
		TotalPages:    totalPages,
		Page:          page,
		Messages:      messages,
		LastMessageAt: entity.LastMessageAt,
	}, nil
}
