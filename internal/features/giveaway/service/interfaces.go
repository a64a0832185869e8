package service

import (
	"context"
	"errors"

	"discord-giveaways/internal/features/giveaway/models"
)

// Member is the slice of a platform member the filter checks need.
type Member struct {
	ID      string
	RoleIDs []string
}

// Platform is the chat-platform boundary. The discord adapter implements it;
// tests substitute a fake. Resolution failures for missing entities must
// return ErrNotResolvable so the cleanup policy can distinguish "gone" from
// transient transport errors.
type Platform interface {
	// CheckIntents verifies the gateway scopes the giveaway flows need and
	// fails fast when one is missing.
	CheckIntents() error

	ResolveGuild(ctx context.Context, guildID string) error
	ResolveChannel(ctx context.Context, channelID string) error
	ResolveMember(ctx context.Context, guildID, userID string) (*Member, error)

	// SendGiveawayMessage posts the announcement with the join button and
	// returns the new message ID.
	SendGiveawayMessage(ctx context.Context, giveaway *models.Giveaway) (string, error)
	// EditGiveawayMessage re-renders the announcement in its running state.
	EditGiveawayMessage(ctx context.Context, giveaway *models.Giveaway) error
	// FinishGiveawayMessage re-renders the announcement in its finished state.
	FinishGiveawayMessage(ctx context.Context, giveaway *models.Giveaway) error
	// SendRerollReply posts the reroll result as a reply to the announcement.
	SendRerollReply(ctx context.Context, giveaway *models.Giveaway, winners []string) error
	// DeleteGiveawayMessage removes the announcement message.
	DeleteGiveawayMessage(ctx context.Context, giveaway *models.Giveaway) error
}

// Interaction is one button click. ReplyEphemeral delivers a private reply to
// the clicking user; an expired response window must surface as
// ErrInteractionExpired.
type Interaction interface {
	UserID() string
	MessageID() string
	ReplyEphemeral(ctx context.Context, content string) error
}

// ErrNotResolvable marks a guild, channel or member that no longer exists on
// the platform.
var ErrNotResolvable = errors.New("platform entity not resolvable")

// ErrInteractionExpired marks a reply attempted after the platform's response
// window closed. It is the only reply failure that is swallowed.
var ErrInteractionExpired = errors.New("interaction response window expired")
