package service

import (
	"context"
	"time"

	"discord-giveaways/internal/common/config"
	apperrors "discord-giveaways/internal/common/errors"
	"discord-giveaways/internal/common/logger"
	"discord-giveaways/internal/database"
	"discord-giveaways/internal/features/giveaway/models"
)

// Manager owns the giveaway collection: it creates records, hands out
// entities, runs the expiration sweep and fans out lifecycle events.
type Manager struct {
	platform Platform
	db       *database.Manager
	cfg      *config.Config
	store    *store
	locks    *recordLocks
	events   *emitter
	sweeper  *sweeper
}

// StartOptions carries everything needed to launch a giveaway.
type StartOptions struct {
	GuildID            string
	ChannelID          string
	HostMemberID       string
	Prize              string
	Time               string
	WinnersCount       int
	ParticipantsFilter *models.ParticipantsFilter
	MessageProps       *models.MessageProps
}

// New wires a Manager over a platform client and a connected database.
func New(platform Platform, db *database.Manager, cfg *config.Config) (*Manager, error) {
	if platform == nil {
		return nil, apperrors.New(apperrors.ErrCodeNoClientSupplied, "no platform client supplied")
	}
	if db == nil {
		return nil, apperrors.NewMissingArgument("db", "service.New")
	}
	if cfg == nil {
		return nil, apperrors.NewMissingArgument("cfg", "service.New")
	}
	if err := platform.CheckIntents(); err != nil {
		return nil, err
	}

	m := &Manager{
		platform: platform,
		db:       db,
		cfg:      cfg,
		store:    &store{db: db},
		locks:    newRecordLocks(),
		events:   newEmitter(),
	}
	m.sweeper = newSweeper(m, cfg.Giveaways.SweepInterval)
	return m, nil
}

// On registers a handler for the given lifecycle event type.
func (m *Manager) On(eventType EventType, handler func(Event)) {
	m.events.on(eventType, handler)
}

// Run warms the database cache, starts the background sweep and blocks until
// ctx is canceled. Handlers registered with On before Run see the
// database-connected and ready events in that order.
func (m *Manager) Run(ctx context.Context) error {
	if err := m.db.Connect(ctx); err != nil {
		return err
	}
	m.events.emit(Event{Type: EventDatabaseConnected})
	m.events.emit(Event{Type: EventReady})

	m.sweeper.start()
	<-ctx.Done()
	m.sweeper.stop()
	return nil
}

// StartSweep launches the expiration sweep without blocking.
func (m *Manager) StartSweep() {
	m.sweeper.start()
}

// StopSweep halts the expiration sweep and waits for in-flight passes.
func (m *Manager) StopSweep() {
	m.sweeper.stop()
}

// Start validates the options, posts the announcement message, persists the
// record and returns a live entity for it. The message is posted before the
// record is stored so a failed post leaves no orphaned record behind.
func (m *Manager) Start(ctx context.Context, opts StartOptions) (*Entity, error) {
	if err := validateStartOptions(opts); err != nil {
		return nil, err
	}
	if _, err := m.platform.ResolveMember(ctx, opts.GuildID, opts.HostMemberID); err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrCodeUserNotFound, "member %s not found", opts.HostMemberID)
	}

	duration, err := models.ParseDuration(opts.Time)
	if err != nil {
		return nil, err
	}

	props := opts.MessageProps
	if props == nil {
		props = models.DefaultMessageProps()
	}
	filter := opts.ParticipantsFilter
	if filter == nil {
		filter = &models.ParticipantsFilter{}
	}

	id, err := m.store.nextID(opts.GuildID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	record := &models.Giveaway{
		ID:                 id,
		GuildID:            opts.GuildID,
		ChannelID:          opts.ChannelID,
		HostMemberID:       opts.HostMemberID,
		Prize:              opts.Prize,
		Time:               opts.Time,
		StartTimestamp:     now.Unix(),
		EndTimestamp:       now.Add(duration).Unix(),
		WinnersCount:       opts.WinnersCount,
		State:              models.GiveawayStateStarted,
		Entries:            []string{},
		Winners:            []string{},
		ParticipantsFilter: filter,
		MessageProps:       props,
	}

	messageID, err := m.platform.SendGiveawayMessage(ctx, record)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "cannot post the giveaway message")
	}
	record.MessageID = messageID
	record.MessageURL = models.BuildMessageURL(record.GuildID, record.ChannelID, messageID)

	index, err := m.store.push(ctx, record)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("guild_id", record.GuildID).
		Int("id", record.ID).
		Str("prize", record.Prize).
		Msg("giveaway started")

	m.events.emit(Event{Type: EventGiveawayStarted, Giveaway: record})
	return &Entity{raw: record, index: index, mgr: m}, nil
}

func validateStartOptions(opts StartOptions) error {
	if opts.GuildID == "" {
		return apperrors.NewMissingArgument("GuildID", "Manager.Start")
	}
	if opts.ChannelID == "" {
		return apperrors.NewMissingArgument("ChannelID", "Manager.Start")
	}
	if opts.HostMemberID == "" {
		return apperrors.NewMissingArgument("HostMemberID", "Manager.Start")
	}
	if opts.Prize == "" {
		return apperrors.NewMissingArgument("Prize", "Manager.Start")
	}
	if opts.Time == "" {
		return apperrors.NewMissingArgument("Time", "Manager.Start")
	}
	if opts.WinnersCount <= 0 {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "WinnersCount must be positive")
	}
	return nil
}

// Get finds a giveaway in guildID by its numeric id.
func (m *Manager) Get(guildID string, id int) (*Entity, error) {
	record, index, err := m.store.find(guildID, id)
	if err != nil {
		return nil, err
	}
	return &Entity{raw: record, index: index, mgr: m}, nil
}

// GetByMessageID finds the giveaway attached to an announcement message.
func (m *Manager) GetByMessageID(messageID string) (*Entity, error) {
	var found *Entity
	err := m.forEach(func(record *models.Giveaway, index int) bool {
		if record.MessageID == messageID {
			found = &Entity{raw: record, index: index, mgr: m}
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, apperrors.NewUnknownGiveaway(messageID)
	}
	return found, nil
}

// Find returns the first giveaway matching the predicate, or nil.
func (m *Manager) Find(predicate func(*models.Giveaway) bool) (*Entity, error) {
	var found *Entity
	err := m.forEach(func(record *models.Giveaway, index int) bool {
		if predicate(record) {
			found = &Entity{raw: record, index: index, mgr: m}
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// Map applies transform to every stored giveaway and collects the results.
func (m *Manager) Map(transform func(*models.Giveaway) interface{}) ([]interface{}, error) {
	var results []interface{}
	err := m.forEach(func(record *models.Giveaway, _ int) bool {
		results = append(results, transform(record))
		return true
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// GetAll returns fresh entities for every stored giveaway across all guilds.
func (m *Manager) GetAll() ([]*Entity, error) {
	var all []*Entity
	err := m.forEach(func(record *models.Giveaway, index int) bool {
		all = append(all, &Entity{raw: record, index: index, mgr: m})
		return true
	})
	if err != nil {
		return nil, err
	}
	return all, nil
}

// GetGuildGiveaways returns fresh entities for one guild's giveaways.
func (m *Manager) GetGuildGiveaways(guildID string) ([]*Entity, error) {
	records, err := m.store.guildGiveaways(guildID)
	if err != nil {
		return nil, err
	}
	entities := make([]*Entity, 0, len(records))
	for i, record := range records {
		entities = append(entities, &Entity{raw: record, index: i, mgr: m})
	}
	return entities, nil
}

// forEach walks every stored giveaway, guild by guild, stopping early when
// fn returns false. The index passed to fn is the record's slot within its
// guild's array.
func (m *Manager) forEach(fn func(record *models.Giveaway, index int) bool) error {
	guilds, err := m.store.allGuildIDs()
	if err != nil {
		return err
	}
	for _, guildID := range guilds {
		records, err := m.store.guildGiveaways(guildID)
		if err != nil {
			return err
		}
		for i, record := range records {
			if !fn(record, i) {
				return nil
			}
		}
	}
	return nil
}
