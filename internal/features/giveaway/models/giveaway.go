package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// GiveawayState is the lifecycle state of a giveaway. The legacy format
// carried a state enum plus a separate isEnded flag; this implementation
// collapses them into one state and maps the old pair on (un)marshal.
type GiveawayState string

const (
	GiveawayStateStarted GiveawayState = "started"
	GiveawayStateEnded   GiveawayState = "ended"
)

// Giveaway is the persisted unit: one timed event in one guild. IDs are
// unique only within a guild's giveaway list.
type Giveaway struct {
	ID           int    `json:"id"`
	GuildID      string `json:"guildID"`
	ChannelID    string `json:"channelID"`
	HostMemberID string `json:"hostMemberID"`
	MessageID    string `json:"messageID"`
	MessageURL   string `json:"messageURL"`

	Prize string `json:"prize"`
	// Time is the original duration string; restart re-parses it verbatim.
	Time string `json:"time"`

	// StartTimestamp and EndTimestamp are unix seconds; EndedTimestamp is
	// unix milliseconds because it is taken from the finer-grained end event.
	// The asymmetry is a deliberate carry-over from the legacy format.
	StartTimestamp int64 `json:"startTimestamp"`
	EndTimestamp   int64 `json:"endTimestamp"`
	EndedTimestamp int64 `json:"endedTimestamp,omitempty"`

	WinnersCount int           `json:"winnersCount"`
	State        GiveawayState `json:"state"`

	Entries      []string `json:"entries"`
	EntriesCount int      `json:"entriesCount"`
	Winners      []string `json:"winners"`

	ParticipantsFilter *ParticipantsFilter `json:"participantsFilter,omitempty"`
	PauseOptions       *PauseOptions       `json:"pauseOptions,omitempty"`
	MessageProps       *MessageProps       `json:"messageProps,omitempty"`
}

// ParticipantsFilter gates who may join. Checks run in a fixed order:
// restricted members, then required roles, then restricted roles.
type ParticipantsFilter struct {
	RequiredRoles     []string `json:"requiredRoles,omitempty"`
	RestrictedRoles   []string `json:"restrictedRoles,omitempty"`
	RestrictedMembers []string `json:"restrictedMembers,omitempty"`
}

// PauseOptions tracks a paused giveaway. A paused giveaway accepts no entries
// and is skipped by the sweep until unpaused.
type PauseOptions struct {
	IsPaused bool `json:"isPaused"`
	// UnpauseAfter is a unix-milliseconds deadline for automatic unpause;
	// zero means manual unpause only.
	UnpauseAfter int64 `json:"unpauseAfter,omitempty"`
	// RemainingTime is the milliseconds that were left on the clock when the
	// giveaway was paused; restored on unpause.
	RemainingTime int64 `json:"remainingTime,omitempty"`
}

// Ended reports whether the giveaway has been finalized.
func (g *Giveaway) Ended() bool {
	return g.State == GiveawayStateEnded
}

// Paused reports whether entries are currently suspended.
func (g *Giveaway) Paused() bool {
	return g.PauseOptions != nil && g.PauseOptions.IsPaused
}

// IsFinished reports whether the sweep should finalize this giveaway.
func (g *Giveaway) IsFinished(now time.Time) bool {
	if g.Paused() {
		return false
	}
	return g.State != GiveawayStateStarted || now.Unix() > g.EndTimestamp
}

// HasEntry reports whether userID already joined.
func (g *Giveaway) HasEntry(userID string) bool {
	for _, id := range g.Entries {
		if id == userID {
			return true
		}
	}
	return false
}

// BuildMessageURL derives the jump link for the announcement message.
func BuildMessageURL(guildID, channelID, messageID string) string {
	return fmt.Sprintf("https://discord.com/channels/%s/%s/%s", guildID, channelID, messageID)
}

// giveawayJSON is the wire shape. It carries the legacy isEnded flag next to
// state so files written by the legacy implementation stay readable, and
// files written here stay readable by it.
type giveawayJSON struct {
	ID                 int                 `json:"id"`
	GuildID            string              `json:"guildID"`
	ChannelID          string              `json:"channelID"`
	HostMemberID       string              `json:"hostMemberID"`
	MessageID          string              `json:"messageID"`
	MessageURL         string              `json:"messageURL"`
	Prize              string              `json:"prize"`
	Time               string              `json:"time"`
	StartTimestamp     int64               `json:"startTimestamp"`
	EndTimestamp       int64               `json:"endTimestamp"`
	EndedTimestamp     int64               `json:"endedTimestamp,omitempty"`
	WinnersCount       int                 `json:"winnersCount"`
	State              GiveawayState       `json:"state"`
	IsEnded            bool                `json:"isEnded"`
	Entries            []string            `json:"entries"`
	EntriesCount       int                 `json:"entriesCount"`
	Winners            []string            `json:"winners"`
	ParticipantsFilter *ParticipantsFilter `json:"participantsFilter,omitempty"`
	PauseOptions       *PauseOptions       `json:"pauseOptions,omitempty"`
	MessageProps       *MessageProps       `json:"messageProps,omitempty"`
}

func (g *Giveaway) MarshalJSON() ([]byte, error) {
	return json.Marshal(giveawayJSON{
		ID:                 g.ID,
		GuildID:            g.GuildID,
		ChannelID:          g.ChannelID,
		HostMemberID:       g.HostMemberID,
		MessageID:          g.MessageID,
		MessageURL:         g.MessageURL,
		Prize:              g.Prize,
		Time:               g.Time,
		StartTimestamp:     g.StartTimestamp,
		EndTimestamp:       g.EndTimestamp,
		EndedTimestamp:     g.EndedTimestamp,
		WinnersCount:       g.WinnersCount,
		State:              g.State,
		IsEnded:            g.State == GiveawayStateEnded,
		Entries:            g.Entries,
		EntriesCount:       g.EntriesCount,
		Winners:            g.Winners,
		ParticipantsFilter: g.ParticipantsFilter,
		PauseOptions:       g.PauseOptions,
		MessageProps:       g.MessageProps,
	})
}

func (g *Giveaway) UnmarshalJSON(data []byte) error {
	var raw giveawayJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	g.ID = raw.ID
	g.GuildID = raw.GuildID
	g.ChannelID = raw.ChannelID
	g.HostMemberID = raw.HostMemberID
	g.MessageID = raw.MessageID
	g.MessageURL = raw.MessageURL
	g.Prize = raw.Prize
	g.Time = raw.Time
	g.StartTimestamp = raw.StartTimestamp
	g.EndTimestamp = raw.EndTimestamp
	g.EndedTimestamp = raw.EndedTimestamp
	g.WinnersCount = raw.WinnersCount
	g.Entries = raw.Entries
	g.EntriesCount = raw.EntriesCount
	g.Winners = raw.Winners
	g.ParticipantsFilter = raw.ParticipantsFilter
	g.PauseOptions = raw.PauseOptions
	g.MessageProps = raw.MessageProps

	// Either half of the legacy pair marks it ended.
	if raw.State == GiveawayStateEnded || raw.IsEnded {
		g.State = GiveawayStateEnded
	} else {
		g.State = GiveawayStateStarted
	}

	if g.Entries == nil {
		g.Entries = []string{}
	}
	if g.Winners == nil {
		g.Winners = []string{}
	}

	return nil
}
