package service

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"discord-giveaways/internal/common/config"
	apperrors "discord-giveaways/internal/common/errors"
	"discord-giveaways/internal/database"
	"discord-giveaways/internal/database/backend"
	"discord-giveaways/internal/features/giveaway/models"
)

// fakePlatform records every outbound call and serves member lookups from an
// in-memory roster.
type fakePlatform struct {
	mu            sync.Mutex
	members       map[string]*Member
	missingGuilds map[string]bool

	nextMessageID int
	sent          int
	edits         int
	finishes      int
	rerolls       [][]string
	deleted       []string
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		members:       make(map[string]*Member),
		missingGuilds: make(map[string]bool),
	}
}

func (f *fakePlatform) addMember(userID string, roleIDs ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.members[userID] = &Member{ID: userID, RoleIDs: roleIDs}
}

func (f *fakePlatform) CheckIntents() error { return nil }

func (f *fakePlatform) ResolveGuild(_ context.Context, guildID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.missingGuilds[guildID] {
		return ErrNotResolvable
	}
	return nil
}

func (f *fakePlatform) ResolveChannel(context.Context, string) error { return nil }

func (f *fakePlatform) ResolveMember(_ context.Context, _, userID string) (*Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	member, ok := f.members[userID]
	if !ok {
		return nil, ErrNotResolvable
	}
	return member, nil
}

func (f *fakePlatform) SendGiveawayMessage(_ context.Context, _ *models.Giveaway) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent++
	f.nextMessageID++
	return fmt.Sprintf("msg-%d", f.nextMessageID), nil
}

func (f *fakePlatform) EditGiveawayMessage(context.Context, *models.Giveaway) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits++
	return nil
}

func (f *fakePlatform) FinishGiveawayMessage(context.Context, *models.Giveaway) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finishes++
	return nil
}

func (f *fakePlatform) SendRerollReply(_ context.Context, _ *models.Giveaway, winners []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rerolls = append(f.rerolls, winners)
	return nil
}

func (f *fakePlatform) DeleteGiveawayMessage(_ context.Context, g *models.Giveaway) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, g.MessageID)
	return nil
}

type fakeInteraction struct {
	userID    string
	messageID string
	replies   []string
}

func (f *fakeInteraction) UserID() string    { return f.userID }
func (f *fakeInteraction) MessageID() string { return f.messageID }
func (f *fakeInteraction) ReplyEphemeral(_ context.Context, content string) error {
	f.replies = append(f.replies, content)
	return nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Giveaways.SweepInterval = 10 * time.Millisecond
	cfg.Giveaways.MinEntries = 1
	return cfg
}

func newTestManager(t *testing.T) (*Manager, *fakePlatform, *config.Config) {
	t.Helper()

	adapter, err := backend.OpenFile(backend.FileOptions{
		Path: filepath.Join(t.TempDir(), "giveaways.json"),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = adapter.Close(context.Background())
	})

	db := database.NewManager(adapter)
	require.NoError(t, db.Connect(context.Background()))

	platform := newFakePlatform()
	cfg := testConfig()
	m, err := New(platform, db, cfg)
	require.NoError(t, err)
	return m, platform, cfg
}

func startOptions() StartOptions {
	return StartOptions{
		GuildID:      "guild1",
		ChannelID:    "chan1",
		HostMemberID: "host",
		Prize:        "Nitro",
		Time:         "1h",
		WinnersCount: 1,
	}
}

func TestNewRequiresPlatform(t *testing.T) {
	_, err := New(nil, nil, testConfig())
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNoClientSupplied))
}

func TestNewRequiresConfig(t *testing.T) {
	m, _, _ := newTestManager(t)

	_, err := New(newFakePlatform(), m.db, nil)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeMissingArgument))
}

func TestStartValidation(t *testing.T) {
	m, platform, _ := newTestManager(t)
	platform.addMember("host")

	tests := []struct {
		name   string
		mutate func(*StartOptions)
		code   apperrors.ErrorCode
	}{
		{name: "missing guild", mutate: func(o *StartOptions) { o.GuildID = "" }, code: apperrors.ErrCodeMissingArgument},
		{name: "missing channel", mutate: func(o *StartOptions) { o.ChannelID = "" }, code: apperrors.ErrCodeMissingArgument},
		{name: "missing host", mutate: func(o *StartOptions) { o.HostMemberID = "" }, code: apperrors.ErrCodeMissingArgument},
		{name: "missing prize", mutate: func(o *StartOptions) { o.Prize = "" }, code: apperrors.ErrCodeMissingArgument},
		{name: "missing time", mutate: func(o *StartOptions) { o.Time = "" }, code: apperrors.ErrCodeMissingArgument},
		{name: "zero winners", mutate: func(o *StartOptions) { o.WinnersCount = 0 }, code: apperrors.ErrCodeInvalidInput},
		{name: "bad duration", mutate: func(o *StartOptions) { o.Time = "soon" }, code: apperrors.ErrCodeInvalidDuration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := startOptions()
			tt.mutate(&opts)
			_, err := m.Start(context.Background(), opts)
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestStartUnknownHost(t *testing.T) {
	m, _, _ := newTestManager(t)

	_, err := m.Start(context.Background(), startOptions())
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeUserNotFound))
}

func TestStartCreatesRecord(t *testing.T) {
	m, platform, _ := newTestManager(t)
	platform.addMember("host")

	var started []Event
	m.On(EventGiveawayStarted, func(e Event) { started = append(started, e) })

	entity, err := m.Start(context.Background(), startOptions())
	require.NoError(t, err)

	g := entity.Raw()
	assert.Equal(t, 1, g.ID)
	assert.Equal(t, "msg-1", g.MessageID)
	assert.Equal(t, models.GiveawayStateStarted, g.State)
	assert.Empty(t, g.Entries)
	assert.Greater(t, g.EndTimestamp, g.StartTimestamp)
	assert.NotNil(t, g.MessageProps)
	require.Len(t, started, 1)

	second, err := m.Start(context.Background(), startOptions())
	require.NoError(t, err)
	assert.Equal(t, 2, second.Raw().ID)

	all, err := m.GetGuildGiveaways("guild1")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestJoinLeaveToggle(t *testing.T) {
	m, platform, _ := newTestManager(t)
	platform.addMember("host")
	platform.addMember("u1")
	ctx := context.Background()

	entity, err := m.Start(ctx, startOptions())
	require.NoError(t, err)
	messageID := entity.Raw().MessageID

	join := &fakeInteraction{userID: "u1", messageID: messageID}
	require.NoError(t, m.HandleJoin(ctx, join))
	require.Len(t, join.replies, 1)

	fresh, err := m.Get("guild1", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, fresh.Raw().Entries)
	assert.Equal(t, 1, fresh.Raw().EntriesCount)

	// Joining again is idempotent on the entry list: the toggle leaves.
	leave := &fakeInteraction{userID: "u1", messageID: messageID}
	require.NoError(t, m.HandleJoin(ctx, leave))

	fresh, err = m.Get("guild1", 1)
	require.NoError(t, err)
	assert.Empty(t, fresh.Raw().Entries)
	assert.Equal(t, 0, fresh.Raw().EntriesCount)
}

func TestJoinReplyShowsUpdatedCount(t *testing.T) {
	m, platform, _ := newTestManager(t)
	platform.addMember("host")
	platform.addMember("u1")
	ctx := context.Background()

	opts := startOptions()
	opts.MessageProps = models.DefaultMessageProps()
	opts.MessageProps.JoinReply = "In! Entries: {entriesCount}"
	opts.MessageProps.LeaveReply = "Out. Entries: {entriesCount}"

	entity, err := m.Start(ctx, opts)
	require.NoError(t, err)
	messageID := entity.Raw().MessageID

	// The reply renders from the record after the entry lands, so the
	// count includes the joining member.
	join := &fakeInteraction{userID: "u1", messageID: messageID}
	require.NoError(t, m.HandleJoin(ctx, join))
	require.Len(t, join.replies, 1)
	assert.Equal(t, "In! Entries: 1", join.replies[0])

	leave := &fakeInteraction{userID: "u1", messageID: messageID}
	require.NoError(t, m.HandleJoin(ctx, leave))
	require.Len(t, leave.replies, 1)
	assert.Equal(t, "Out. Entries: 0", leave.replies[0])
}

func TestJoinUnknownMessage(t *testing.T) {
	m, platform, _ := newTestManager(t)
	platform.addMember("host")

	err := m.HandleJoin(context.Background(), &fakeInteraction{userID: "u1", messageID: "nope"})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeUnknownGiveaway))
}

func TestFilterDenialOrdering(t *testing.T) {
	m, platform, _ := newTestManager(t)
	platform.addMember("host")
	ctx := context.Background()

	opts := startOptions()
	opts.ParticipantsFilter = &models.ParticipantsFilter{
		RequiredRoles:     []string{"required", "required-alt"},
		RestrictedRoles:   []string{"banned-role"},
		RestrictedMembers: []string{"blocked"},
	}
	entity, err := m.Start(ctx, opts)
	require.NoError(t, err)
	messageID := entity.Raw().MessageID
	props := entity.Raw().MessageProps

	tests := []struct {
		name   string
		userID string
		roles  []string
		reply  string
	}{
		// A blocked member missing the required role still gets the member
		// restriction reply: member checks run first.
		{name: "restricted member wins", userID: "blocked", roles: nil, reply: props.RestrictedMemberReply},
		{name: "missing required role", userID: "u1", roles: nil, reply: props.MissingRolesReply},
		{name: "restricted role", userID: "u2", roles: []string{"required", "banned-role"}, reply: props.RestrictedRoleReply},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			platform.addMember(tt.userID, tt.roles...)
			interaction := &fakeInteraction{userID: tt.userID, messageID: messageID}
			require.NoError(t, m.HandleJoin(ctx, interaction))
			require.Len(t, interaction.replies, 1)
			assert.Equal(t, tt.reply, interaction.replies[0])

			fresh, err := m.Get("guild1", 1)
			require.NoError(t, err)
			assert.False(t, fresh.Raw().HasEntry(tt.userID))
		})
	}

	// Required roles are any-of: holding just one of the two listed roles
	// passes all filters and enters normally.
	platform.addMember("ok", "required")
	interaction := &fakeInteraction{userID: "ok", messageID: messageID}
	require.NoError(t, m.HandleJoin(ctx, interaction))
	fresh, err := m.Get("guild1", 1)
	require.NoError(t, err)
	assert.True(t, fresh.Raw().HasEntry("ok"))

	platform.addMember("ok2", "required-alt")
	interaction = &fakeInteraction{userID: "ok2", messageID: messageID}
	require.NoError(t, m.HandleJoin(ctx, interaction))
	fresh, err = m.Get("guild1", 1)
	require.NoError(t, err)
	assert.True(t, fresh.Raw().HasEntry("ok2"))
}

func TestEndDrawsWinnersOnce(t *testing.T) {
	m, platform, _ := newTestManager(t)
	platform.addMember("host")
	platform.addMember("u1")
	ctx := context.Background()

	var endedEvents []Event
	m.On(EventGiveawayEnded, func(e Event) { endedEvents = append(endedEvents, e) })

	entity, err := m.Start(ctx, startOptions())
	require.NoError(t, err)
	require.NoError(t, entity.AddEntry(ctx, "u1"))

	winners, err := entity.End(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, winners)
	assert.True(t, entity.Raw().Ended())
	assert.NotZero(t, entity.Raw().EndedTimestamp)
	assert.Equal(t, 1, platform.finishes)
	require.Len(t, endedEvents, 1)
	assert.Equal(t, []string{"u1"}, endedEvents[0].Winners)

	// A second end fails and leaves the first draw untouched.
	_, err = entity.End(ctx)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeGiveawayEnded))

	fresh, err := m.Get("guild1", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, fresh.Raw().Winners)
	require.Len(t, endedEvents, 1)
}

func TestEndBelowMinEntries(t *testing.T) {
	m, platform, _ := newTestManager(t)
	platform.addMember("host")
	ctx := context.Background()

	entity, err := m.Start(ctx, startOptions())
	require.NoError(t, err)

	winners, err := entity.End(ctx)
	require.NoError(t, err)
	assert.Empty(t, winners)
	assert.True(t, entity.Raw().Ended())
}

func TestEntryMutationsAfterEnd(t *testing.T) {
	m, platform, _ := newTestManager(t)
	platform.addMember("host")
	platform.addMember("u1")
	ctx := context.Background()

	entity, err := m.Start(ctx, startOptions())
	require.NoError(t, err)
	_, err = entity.End(ctx)
	require.NoError(t, err)

	err = entity.AddEntry(ctx, "u1")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeGiveawayEnded))

	err = entity.Edit(ctx, "prize", "Other")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeGiveawayEnded))
}

func TestRerollAfterEnd(t *testing.T) {
	m, platform, _ := newTestManager(t)
	platform.addMember("host")
	platform.addMember("u1")
	ctx := context.Background()

	entity, err := m.Start(ctx, startOptions())
	require.NoError(t, err)
	require.NoError(t, entity.AddEntry(ctx, "u1"))
	_, err = entity.End(ctx)
	require.NoError(t, err)

	winners, err := entity.Reroll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, winners)
	require.Len(t, platform.rerolls, 1)
}

func TestRerollEmptyPool(t *testing.T) {
	m, platform, _ := newTestManager(t)
	platform.addMember("host")
	ctx := context.Background()

	entity, err := m.Start(ctx, startOptions())
	require.NoError(t, err)
	_, err = entity.End(ctx)
	require.NoError(t, err)

	winners, err := entity.Reroll(ctx)
	require.NoError(t, err)
	assert.Empty(t, winners)
	assert.Empty(t, platform.rerolls)
}

func TestHandleRerollHostOnly(t *testing.T) {
	m, platform, _ := newTestManager(t)
	platform.addMember("host")
	platform.addMember("u1")
	ctx := context.Background()

	entity, err := m.Start(ctx, startOptions())
	require.NoError(t, err)
	require.NoError(t, entity.AddEntry(ctx, "u1"))
	_, err = entity.End(ctx)
	require.NoError(t, err)

	stranger := &fakeInteraction{userID: "u1", messageID: entity.Raw().MessageID}
	require.NoError(t, m.HandleReroll(ctx, stranger))
	require.Len(t, stranger.replies, 1)
	assert.Empty(t, platform.rerolls)

	host := &fakeInteraction{userID: "host", messageID: entity.Raw().MessageID}
	require.NoError(t, m.HandleReroll(ctx, host))
	require.Len(t, platform.rerolls, 1)
}

func TestExtendHalvesDeltaByDefault(t *testing.T) {
	m, platform, _ := newTestManager(t)
	platform.addMember("host")
	ctx := context.Background()

	entity, err := m.Start(ctx, startOptions())
	require.NoError(t, err)
	before := entity.Raw().EndTimestamp

	require.NoError(t, entity.Extend(ctx, "1h"))
	assert.Equal(t, before+1800, entity.Raw().EndTimestamp)

	require.NoError(t, entity.Reduce(ctx, "1h"))
	assert.Equal(t, before, entity.Raw().EndTimestamp)
}

func TestExtendRawDeltas(t *testing.T) {
	m, platform, cfg := newTestManager(t)
	cfg.Giveaways.RawDeltas = true
	platform.addMember("host")
	ctx := context.Background()

	entity, err := m.Start(ctx, startOptions())
	require.NoError(t, err)
	before := entity.Raw().EndTimestamp

	require.NoError(t, entity.Extend(ctx, "1h"))
	assert.Equal(t, before+3600, entity.Raw().EndTimestamp)
}

func TestRestartClearsEndedState(t *testing.T) {
	m, platform, _ := newTestManager(t)
	platform.addMember("host")
	ctx := context.Background()

	entity, err := m.Start(ctx, startOptions())
	require.NoError(t, err)
	require.NoError(t, entity.AddEntry(ctx, "host"))
	_, err = entity.End(ctx)
	require.NoError(t, err)

	require.NoError(t, entity.Restart(ctx))

	g := entity.Raw()
	assert.False(t, g.Ended())
	assert.Empty(t, g.Winners)
	assert.Zero(t, g.EndedTimestamp)
	assert.Greater(t, g.EndTimestamp, time.Now().Unix())
}

func TestEditPrizeEmitsEvent(t *testing.T) {
	m, platform, _ := newTestManager(t)
	platform.addMember("host")
	ctx := context.Background()

	var edits []Event
	m.On(EventGiveawayEdited, func(e Event) { edits = append(edits, e) })

	entity, err := m.Start(ctx, startOptions())
	require.NoError(t, err)

	require.NoError(t, entity.SetPrize(ctx, "Steam key"))
	assert.Equal(t, "Steam key", entity.Raw().Prize)

	require.Len(t, edits, 1)
	assert.Equal(t, "prize", edits[0].Key)
	assert.Equal(t, "Nitro", edits[0].OldValue)
	assert.Equal(t, "Steam key", edits[0].NewValue)
}

func TestEditValidation(t *testing.T) {
	m, platform, _ := newTestManager(t)
	platform.addMember("host")
	ctx := context.Background()

	entity, err := m.Start(ctx, startOptions())
	require.NoError(t, err)

	err = entity.Edit(ctx, "prize", 42)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidArgumentType))

	err = entity.Edit(ctx, "winnersCount", -1)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))

	err = entity.Edit(ctx, "hostMemberID", "ghost")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeUserNotFound))

	err = entity.Edit(ctx, "unknownField", "x")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))
}

func TestSetTimeRecomputesDeadline(t *testing.T) {
	m, platform, _ := newTestManager(t)
	platform.addMember("host")
	ctx := context.Background()

	entity, err := m.Start(ctx, startOptions())
	require.NoError(t, err)

	require.NoError(t, entity.SetTime(ctx, "2h"))
	g := entity.Raw()
	assert.Equal(t, "2h", g.Time)
	assert.Equal(t, g.StartTimestamp+7200, g.EndTimestamp)
}

func TestPauseBlocksEntries(t *testing.T) {
	m, platform, _ := newTestManager(t)
	platform.addMember("host")
	platform.addMember("u1")
	ctx := context.Background()

	entity, err := m.Start(ctx, startOptions())
	require.NoError(t, err)
	require.NoError(t, entity.Pause(ctx, 0))
	assert.True(t, entity.Raw().Paused())

	err = entity.AddEntry(ctx, "u1")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))

	// Pausing twice is rejected.
	err = entity.Pause(ctx, 0)
	require.Error(t, err)

	require.NoError(t, entity.Unpause(ctx))
	assert.False(t, entity.Raw().Paused())
	require.NoError(t, entity.AddEntry(ctx, "u1"))
}

func TestDeleteRemovesRecordAndMessage(t *testing.T) {
	m, platform, _ := newTestManager(t)
	platform.addMember("host")
	ctx := context.Background()

	entity, err := m.Start(ctx, startOptions())
	require.NoError(t, err)
	messageID := entity.Raw().MessageID

	require.NoError(t, entity.Delete(ctx))
	assert.Equal(t, []string{messageID}, platform.deleted)

	_, err = m.Get("guild1", 1)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeUnknownGiveaway))
}

func TestUnresolvableGuildTriggersCleanup(t *testing.T) {
	m, platform, _ := newTestManager(t)
	platform.addMember("host")
	ctx := context.Background()

	entity, err := m.Start(ctx, startOptions())
	require.NoError(t, err)

	platform.mu.Lock()
	platform.missingGuilds["guild1"] = true
	platform.mu.Unlock()

	winners, err := entity.End(ctx)
	require.NoError(t, err)
	assert.Nil(t, winners)

	_, err = m.Get("guild1", 1)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeUnknownGiveaway))
}

func TestKeepUnresolvableDisablesCleanup(t *testing.T) {
	m, platform, cfg := newTestManager(t)
	cfg.Giveaways.KeepUnresolvable = true
	platform.addMember("host")
	ctx := context.Background()

	entity, err := m.Start(ctx, startOptions())
	require.NoError(t, err)

	platform.mu.Lock()
	platform.missingGuilds["guild1"] = true
	platform.mu.Unlock()

	_, err = entity.End(ctx)
	require.Error(t, err)

	_, err = m.Get("guild1", 1)
	require.NoError(t, err)
}

func TestSweepEndsExpiredGiveaways(t *testing.T) {
	m, platform, _ := newTestManager(t)
	platform.addMember("host")
	platform.addMember("u1")
	ctx := context.Background()

	entity, err := m.Start(ctx, startOptions())
	require.NoError(t, err)
	require.NoError(t, entity.AddEntry(ctx, "u1"))

	// Force the deadline into the past, then run one sweep pass.
	entity.Raw().EndTimestamp = time.Now().Unix() - 10
	require.NoError(t, m.store.saveAt(ctx, entity.Raw(), 0))

	require.NoError(t, m.sweeper.sweep(ctx))

	fresh, err := m.Get("guild1", 1)
	require.NoError(t, err)
	assert.True(t, fresh.Raw().Ended())
	assert.Equal(t, []string{"u1"}, fresh.Raw().Winners)
}

func TestSweepSkipsPausedAndAutoUnpauses(t *testing.T) {
	m, platform, _ := newTestManager(t)
	platform.addMember("host")
	ctx := context.Background()

	entity, err := m.Start(ctx, startOptions())
	require.NoError(t, err)
	require.NoError(t, entity.Pause(ctx, 0))

	entity.Raw().EndTimestamp = time.Now().Unix() - 10
	require.NoError(t, m.store.saveAt(ctx, entity.Raw(), 0))

	require.NoError(t, m.sweeper.sweep(ctx))
	fresh, err := m.Get("guild1", 1)
	require.NoError(t, err)
	assert.False(t, fresh.Raw().Ended())

	// An elapsed unpauseAfter resumes the giveaway on the next pass.
	fresh.Raw().PauseOptions.UnpauseAfter = time.Now().UnixMilli() - 1
	require.NoError(t, m.store.saveAt(ctx, fresh.Raw(), 0))

	require.NoError(t, m.sweeper.sweep(ctx))
	fresh, err = m.Get("guild1", 1)
	require.NoError(t, err)
	assert.False(t, fresh.Raw().Paused())
}

func TestSweepResumesAfterStop(t *testing.T) {
	m, platform, _ := newTestManager(t)
	platform.addMember("host")
	platform.addMember("u1")
	ctx := context.Background()

	// A stopped sweeper must come back to life on the next start.
	m.StartSweep()
	m.StopSweep()
	m.StartSweep()
	defer m.StopSweep()

	entity, err := m.Start(ctx, startOptions())
	require.NoError(t, err)
	require.NoError(t, entity.AddEntry(ctx, "u1"))

	entity.Raw().EndTimestamp = time.Now().Unix() - 10
	require.NoError(t, m.store.saveAt(ctx, entity.Raw(), 0))

	require.Eventually(t, func() bool {
		fresh, err := m.Get("guild1", 1)
		if err != nil {
			return false
		}
		return fresh.Raw().Ended()
	}, time.Second, 10*time.Millisecond)
}

func TestEndHandlerCanReenterRecord(t *testing.T) {
	m, platform, _ := newTestManager(t)
	platform.addMember("host")
	platform.addMember("u1")
	ctx := context.Background()

	// Handlers run after the record lock is released, so one may call
	// straight back into the same giveaway.
	var handlerErr error
	m.On(EventGiveawayEnded, func(e Event) {
		fresh, err := m.Get(e.Giveaway.GuildID, e.Giveaway.ID)
		if err != nil {
			handlerErr = err
			return
		}
		_, handlerErr = fresh.Reroll(ctx)
	})

	entity, err := m.Start(ctx, startOptions())
	require.NoError(t, err)
	require.NoError(t, entity.AddEntry(ctx, "u1"))

	done := make(chan error, 1)
	go func() {
		_, err := entity.End(ctx)
		done <- err
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("End did not return, handler blocked on the record lock")
	}
	require.NoError(t, handlerErr)
	require.Len(t, platform.rerolls, 1)
}

func TestFindAndGetAll(t *testing.T) {
	m, platform, _ := newTestManager(t)
	platform.addMember("host")
	ctx := context.Background()

	_, err := m.Start(ctx, startOptions())
	require.NoError(t, err)
	second := startOptions()
	second.Prize = "Steam key"
	_, err = m.Start(ctx, second)
	require.NoError(t, err)

	found, err := m.Find(func(g *models.Giveaway) bool { return g.Prize == "Steam key" })
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, 2, found.Raw().ID)

	missing, err := m.Find(func(g *models.Giveaway) bool { return g.Prize == "nope" })
	require.NoError(t, err)
	assert.Nil(t, missing)

	all, err := m.GetAll()
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byMessage, err := m.GetByMessageID(found.Raw().MessageID)
	require.NoError(t, err)
	assert.Equal(t, 2, byMessage.Raw().ID)

	prizes, err := m.Map(func(g *models.Giveaway) interface{} { return g.Prize })
	require.NoError(t, err)
	assert.ElementsMatch(t, []interface{}{"Nitro", "Steam key"}, prizes)
}
