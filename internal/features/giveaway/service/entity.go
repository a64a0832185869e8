package service

import (
	"context"
	"errors"
	"time"

	apperrors "discord-giveaways/internal/common/errors"
	"discord-giveaways/internal/common/logger"
	"discord-giveaways/internal/features/giveaway/models"
)

// Entity is a transient, hydrated view over one stored giveaway record.
// Entities are rebuilt fresh on every lookup; the durable truth lives in the
// database. Every mutating method re-reads the stored record under the
// record's lock before touching it, and writes the whole record back to the
// array slot it occupied.
type Entity struct {
	raw   *models.Giveaway
	index int
	mgr   *Manager
}

// Raw exposes the record the entity currently mirrors.
func (e *Entity) Raw() *models.Giveaway {
	return e.raw
}

// sync re-reads the stored record, refreshing the local mirror and its array
// index. Callers must hold the record lock.
func (e *Entity) sync() error {
	record, index, err := e.mgr.store.find(e.raw.GuildID, e.raw.ID)
	if err != nil {
		return err
	}
	e.raw = record
	e.index = index
	return nil
}

func (e *Entity) save(ctx context.Context) error {
	return e.mgr.store.saveAt(ctx, e.raw, e.index)
}

// ensureResolvable verifies the guild, channel and host still exist. When one
// is gone the record can never be processed again, so the default policy logs
// the identifiers and deletes it. The bool reports whether cleanup ran.
func (e *Entity) ensureResolvable(ctx context.Context) (bool, error) {
	err := e.mgr.platform.ResolveGuild(ctx, e.raw.GuildID)
	if err == nil {
		err = e.mgr.platform.ResolveChannel(ctx, e.raw.ChannelID)
	}
	if err == nil {
		_, err = e.mgr.platform.ResolveMember(ctx, e.raw.GuildID, e.raw.HostMemberID)
	}
	if err == nil {
		return false, nil
	}

	if !errors.Is(err, ErrNotResolvable) {
		return false, apperrors.Wrap(err, apperrors.ErrCodeInternal, "platform lookup failed")
	}

	if e.mgr.cfg.Giveaways.KeepUnresolvable {
		return false, apperrors.Wrap(err, apperrors.ErrCodeUserNotFound, "giveaway references unresolvable platform entities")
	}

	logger.Warn().
		Str("guild_id", e.raw.GuildID).
		Str("channel_id", e.raw.ChannelID).
		Str("host_member_id", e.raw.HostMemberID).
		Int("id", e.raw.ID).
		Msg("giveaway references unresolvable platform entities, deleting")

	if derr := e.mgr.store.deleteAt(ctx, e.raw.GuildID, e.index); derr != nil {
		return false, derr
	}
	if derr := e.mgr.platform.DeleteGiveawayMessage(ctx, e.raw); derr != nil {
		logger.Debug().Err(derr).Str("message_id", e.raw.MessageID).Msg("failed to delete announcement of removed giveaway")
	}
	return true, nil
}

// AddEntry registers userID as an entrant. Re-joining is a no-op; the entry
// list never holds duplicates and entriesCount mirrors its length.
func (e *Entity) AddEntry(ctx context.Context, userID string) error {
	if userID == "" {
		return apperrors.NewMissingArgument("userID", "Entity.AddEntry")
	}

	unlock := e.mgr.locks.lock(e.raw.GuildID, e.raw.ID)
	defer unlock()

	if err := e.sync(); err != nil {
		return err
	}
	if e.raw.Ended() {
		return apperrors.New(apperrors.ErrCodeGiveawayEnded, "giveaway has already ended")
	}
	if e.raw.Paused() {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "giveaway is paused")
	}
	if e.raw.HasEntry(userID) {
		return nil
	}

	e.raw.Entries = append(e.raw.Entries, userID)
	e.raw.EntriesCount = len(e.raw.Entries)
	return e.save(ctx)
}

// RemoveEntry withdraws userID's entry. Removing an absent entry is a no-op.
func (e *Entity) RemoveEntry(ctx context.Context, userID string) error {
	if userID == "" {
		return apperrors.NewMissingArgument("userID", "Entity.RemoveEntry")
	}

	unlock := e.mgr.locks.lock(e.raw.GuildID, e.raw.ID)
	defer unlock()

	if err := e.sync(); err != nil {
		return err
	}
	if !e.raw.HasEntry(userID) {
		return nil
	}

	entries := make([]string, 0, len(e.raw.Entries)-1)
	for _, id := range e.raw.Entries {
		if id != userID {
			entries = append(entries, id)
		}
	}
	e.raw.Entries = entries
	e.raw.EntriesCount = len(entries)
	return e.save(ctx)
}

// emitAfter defers the emission of one event until the surrounding lock is
// released, so On handlers can safely call back into the same record. The
// returned setter arms the event; an unarmed emit is a no-op.
func (e *Entity) emitAfter() (func(Event), func()) {
	var pending *Event
	arm := func(event Event) { pending = &event }
	fire := func() {
		if pending != nil {
			e.mgr.events.emit(*pending)
		}
	}
	return arm, fire
}

// Restart clears the ended state and recomputes the deadline from the
// original time string against now.
func (e *Entity) Restart(ctx context.Context) error {
	emit, fire := e.emitAfter()
	defer fire()
	unlock := e.mgr.locks.lock(e.raw.GuildID, e.raw.ID)
	defer unlock()

	if err := e.sync(); err != nil {
		return err
	}
	if cleaned, err := e.ensureResolvable(ctx); cleaned || err != nil {
		return err
	}

	duration, err := models.ParseDuration(e.raw.Time)
	if err != nil {
		return err
	}

	e.raw.State = models.GiveawayStateStarted
	e.raw.Winners = []string{}
	e.raw.EndedTimestamp = 0
	e.raw.EndTimestamp = time.Now().Add(duration).Unix()
	if err := e.save(ctx); err != nil {
		return err
	}

	if err := e.mgr.platform.EditGiveawayMessage(ctx, e.raw); err != nil {
		logger.Error().Err(err).Str("message_id", e.raw.MessageID).Msg("failed to re-render restarted giveaway")
	}

	emit(Event{Type: EventGiveawayRestarted, Giveaway: e.raw})
	return nil
}

// Extend pushes the deadline later by the given duration string.
func (e *Entity) Extend(ctx context.Context, duration string) error {
	return e.shiftDeadline(ctx, duration, 1)
}

// Reduce pulls the deadline earlier by the given duration string.
func (e *Entity) Reduce(ctx context.Context, duration string) error {
	return e.shiftDeadline(ctx, duration, -1)
}

// shiftDeadline applies the extend/reduce delta. The legacy behavior
// shifts by HALF the parsed duration; RawDeltas switches to the full value.
func (e *Entity) shiftDeadline(ctx context.Context, duration string, sign int64) error {
	parsed, err := models.ParseDuration(duration)
	if err != nil {
		return err
	}

	emit, fire := e.emitAfter()
	defer fire()
	unlock := e.mgr.locks.lock(e.raw.GuildID, e.raw.ID)
	defer unlock()

	if err := e.sync(); err != nil {
		return err
	}
	if e.raw.Ended() {
		return apperrors.New(apperrors.ErrCodeGiveawayEnded, "giveaway has already ended")
	}
	if cleaned, err := e.ensureResolvable(ctx); cleaned || err != nil {
		return err
	}

	delta := parsed
	if !e.mgr.cfg.Giveaways.RawDeltas {
		delta = parsed / 2
	}

	e.raw.EndTimestamp += sign * int64(delta.Seconds())
	if err := e.save(ctx); err != nil {
		return err
	}

	if err := e.mgr.platform.EditGiveawayMessage(ctx, e.raw); err != nil {
		logger.Error().Err(err).Str("message_id", e.raw.MessageID).Msg("failed to re-render giveaway after deadline change")
	}

	emit(Event{Type: EventGiveawayLengthChanged, Giveaway: e.raw})
	return nil
}

// End finalizes the giveaway: draws winners, marks it ended and re-renders
// the announcement. Ending twice fails with GIVEAWAY_ALREADY_ENDED and leaves
// the first result untouched.
func (e *Entity) End(ctx context.Context) ([]string, error) {
	emit, fire := e.emitAfter()
	defer fire()
	unlock := e.mgr.locks.lock(e.raw.GuildID, e.raw.ID)
	defer unlock()

	if err := e.sync(); err != nil {
		return nil, err
	}
	if e.raw.Ended() {
		return nil, apperrors.New(apperrors.ErrCodeGiveawayEnded, "giveaway has already ended")
	}
	if cleaned, err := e.ensureResolvable(ctx); cleaned || err != nil {
		return nil, err
	}

	winners := []string{}
	if len(e.raw.Entries) >= e.mgr.cfg.Giveaways.MinEntries {
		winners = drawWinners(e.raw.Entries, e.raw.WinnersCount)
	}

	e.raw.State = models.GiveawayStateEnded
	e.raw.Winners = winners
	e.raw.EndedTimestamp = time.Now().UnixMilli()
	if err := e.save(ctx); err != nil {
		return nil, err
	}

	if err := e.mgr.platform.FinishGiveawayMessage(ctx, e.raw); err != nil {
		logger.Error().Err(err).Str("message_id", e.raw.MessageID).Msg("failed to render finished giveaway")
	}

	emit(Event{Type: EventGiveawayEnded, Giveaway: e.raw, Winners: winners})
	return winners, nil
}

// Reroll redraws winners. It deliberately skips the ended check: rerolling a
// finished giveaway is the normal case. An empty entry pool yields an empty
// winner list without error.
func (e *Entity) Reroll(ctx context.Context) ([]string, error) {
	emit, fire := e.emitAfter()
	defer fire()
	unlock := e.mgr.locks.lock(e.raw.GuildID, e.raw.ID)
	defer unlock()

	if err := e.sync(); err != nil {
		return nil, err
	}
	if len(e.raw.Entries) == 0 {
		return []string{}, nil
	}

	winners := drawWinners(e.raw.Entries, e.raw.WinnersCount)
	e.raw.Winners = winners
	if err := e.save(ctx); err != nil {
		return nil, err
	}

	if err := e.mgr.platform.SendRerollReply(ctx, e.raw, winners); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "cannot reroll the giveaway")
	}

	emit(Event{Type: EventGiveawayRerolled, Giveaway: e.raw, Winners: winners})
	return winners, nil
}

// SetPrize updates the prize text.
func (e *Entity) SetPrize(ctx context.Context, prize string) error {
	return e.Edit(ctx, "prize", prize)
}

// SetWinnersCount updates the number of winners drawn at the end.
func (e *Entity) SetWinnersCount(ctx context.Context, count int) error {
	return e.Edit(ctx, "winnersCount", count)
}

// SetHostMemberID transfers the giveaway to another host.
func (e *Entity) SetHostMemberID(ctx context.Context, hostMemberID string) error {
	return e.Edit(ctx, "hostMemberID", hostMemberID)
}

// SetTime replaces the duration string and recomputes the deadline from the
// original start.
func (e *Entity) SetTime(ctx context.Context, duration string) error {
	return e.Edit(ctx, "time", duration)
}

// Edit mutates a single editable field, type-checking the value first. The
// change is persisted, the announcement re-rendered, and an edited event
// emitted with the old and new values.
func (e *Entity) Edit(ctx context.Context, key string, value interface{}) error {
	emit, fire := e.emitAfter()
	defer fire()
	unlock := e.mgr.locks.lock(e.raw.GuildID, e.raw.ID)
	defer unlock()

	if err := e.sync(); err != nil {
		return err
	}
	if e.raw.Ended() {
		return apperrors.New(apperrors.ErrCodeGiveawayEnded, "giveaway has already ended")
	}

	var old interface{}
	switch key {
	case "prize":
		prize, ok := value.(string)
		if !ok {
			return apperrors.NewInvalidArgumentType("prize", "string", typeName(value))
		}
		if prize == "" {
			return apperrors.NewMissingArgument("prize", "Entity.Edit")
		}
		old, e.raw.Prize = e.raw.Prize, prize

	case "winnersCount":
		count, ok := toInt(value)
		if !ok {
			return apperrors.NewInvalidArgumentType("winnersCount", "number", typeName(value))
		}
		if count <= 0 {
			return apperrors.New(apperrors.ErrCodeInvalidInput, "winnersCount must be positive")
		}
		old, e.raw.WinnersCount = e.raw.WinnersCount, count

	case "hostMemberID":
		hostID, ok := value.(string)
		if !ok {
			return apperrors.NewInvalidArgumentType("hostMemberID", "string", typeName(value))
		}
		if hostID == "" {
			return apperrors.NewMissingArgument("hostMemberID", "Entity.Edit")
		}
		if _, err := e.mgr.platform.ResolveMember(ctx, e.raw.GuildID, hostID); err != nil {
			return apperrors.Wrapf(err, apperrors.ErrCodeUserNotFound, "member %s not found", hostID)
		}
		old, e.raw.HostMemberID = e.raw.HostMemberID, hostID

	case "time":
		duration, ok := value.(string)
		if !ok {
			return apperrors.NewInvalidArgumentType("time", "string", typeName(value))
		}
		parsed, err := models.ParseDuration(duration)
		if err != nil {
			return err
		}
		old = e.raw.Time
		e.raw.Time = duration
		e.raw.EndTimestamp = e.raw.StartTimestamp + int64(parsed.Seconds())

	default:
		return apperrors.Newf(apperrors.ErrCodeInvalidInput, "field %q is not editable", key)
	}

	if err := e.save(ctx); err != nil {
		return err
	}

	if err := e.mgr.platform.EditGiveawayMessage(ctx, e.raw); err != nil {
		logger.Error().Err(err).Str("message_id", e.raw.MessageID).Msg("failed to re-render edited giveaway")
	}

	emit(Event{
		Type:     EventGiveawayEdited,
		Giveaway: e.raw,
		Key:      key,
		OldValue: old,
		NewValue: value,
	})
	return nil
}

// Pause suspends entries and the sweep for this giveaway, remembering the
// remaining time. unpauseAfter of zero means manual unpause only.
func (e *Entity) Pause(ctx context.Context, unpauseAfter int64) error {
	emit, fire := e.emitAfter()
	defer fire()
	unlock := e.mgr.locks.lock(e.raw.GuildID, e.raw.ID)
	defer unlock()

	if err := e.sync(); err != nil {
		return err
	}
	if e.raw.Ended() {
		return apperrors.New(apperrors.ErrCodeGiveawayEnded, "giveaway has already ended")
	}
	if e.raw.Paused() {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "giveaway is already paused")
	}

	remaining := (e.raw.EndTimestamp - time.Now().Unix()) * 1000
	if remaining < 0 {
		remaining = 0
	}
	e.raw.PauseOptions = &models.PauseOptions{
		IsPaused:      true,
		UnpauseAfter:  unpauseAfter,
		RemainingTime: remaining,
	}
	if err := e.save(ctx); err != nil {
		return err
	}

	if err := e.mgr.platform.EditGiveawayMessage(ctx, e.raw); err != nil {
		logger.Error().Err(err).Str("message_id", e.raw.MessageID).Msg("failed to re-render paused giveaway")
	}

	emit(Event{Type: EventGiveawayPaused, Giveaway: e.raw})
	return nil
}

// Unpause resumes the giveaway, restoring the remaining time onto the clock.
func (e *Entity) Unpause(ctx context.Context) error {
	emit, fire := e.emitAfter()
	defer fire()
	unlock := e.mgr.locks.lock(e.raw.GuildID, e.raw.ID)
	defer unlock()

	if err := e.sync(); err != nil {
		return err
	}
	if !e.raw.Paused() {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "giveaway is not paused")
	}

	e.raw.EndTimestamp = time.Now().Unix() + e.raw.PauseOptions.RemainingTime/1000
	e.raw.PauseOptions = nil
	if err := e.save(ctx); err != nil {
		return err
	}

	if err := e.mgr.platform.EditGiveawayMessage(ctx, e.raw); err != nil {
		logger.Error().Err(err).Str("message_id", e.raw.MessageID).Msg("failed to re-render unpaused giveaway")
	}

	emit(Event{Type: EventGiveawayUnpaused, Giveaway: e.raw})
	return nil
}

// Delete removes the record from its guild's array and best-effort deletes
// the announcement message. Message deletion failures are swallowed.
func (e *Entity) Delete(ctx context.Context) error {
	unlock := e.mgr.locks.lock(e.raw.GuildID, e.raw.ID)
	defer unlock()

	if err := e.sync(); err != nil {
		return err
	}
	if err := e.mgr.store.deleteAt(ctx, e.raw.GuildID, e.index); err != nil {
		return err
	}

	if err := e.mgr.platform.DeleteGiveawayMessage(ctx, e.raw); err != nil {
		logger.Debug().Err(err).Str("message_id", e.raw.MessageID).Msg("failed to delete giveaway announcement")
	}
	return nil
}

func toInt(value interface{}) (int, bool) {
	switch n := value.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

func typeName(value interface{}) string {
	switch value.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case int, int64, float64:
		return "number"
	case nil:
		return "null"
	default:
		return "object"
	}
}
