package discord

import (
	"context"
	"errors"

	"github.com/bwmarrin/discordgo"

	apperrors "discord-giveaways/internal/common/errors"
	"discord-giveaways/internal/common/logger"
	"discord-giveaways/internal/features/giveaway/service"
)

// AttachInteractions registers the component dispatcher on the session. It
// routes clicks on the join and reroll buttons to the giveaway manager and
// ignores every other interaction.
func AttachInteractions(session *discordgo.Session, manager *service.Manager) {
	session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		if i.Type != discordgo.InteractionMessageComponent {
			return
		}

		interaction := &componentInteraction{session: s, event: i}
		ctx := context.Background()

		var err error
		switch i.MessageComponentData().CustomID {
		case JoinButtonID:
			err = manager.HandleJoin(ctx, interaction)
		case RerollButtonID:
			err = manager.HandleReroll(ctx, interaction)
		default:
			return
		}

		if err != nil {
			logger.Error().Err(err).
				Str("custom_id", i.MessageComponentData().CustomID).
				Str("user_id", interaction.UserID()).
				Msg("giveaway interaction failed")
			if apperrors.HasCode(err, apperrors.ErrCodeUnknownGiveaway) {
				_ = interaction.ReplyEphemeral(ctx, "This giveaway no longer exists.")
			}
		}
	})
}

// componentInteraction adapts one discordgo component event to the service
// interaction boundary.
type componentInteraction struct {
	session *discordgo.Session
	event   *discordgo.InteractionCreate
}

func (c *componentInteraction) UserID() string {
	if c.event.Member != nil && c.event.Member.User != nil {
		return c.event.Member.User.ID
	}
	if c.event.User != nil {
		return c.event.User.ID
	}
	return ""
}

func (c *componentInteraction) MessageID() string {
	if c.event.Message == nil {
		return ""
	}
	return c.event.Message.ID
}

func (c *componentInteraction) ReplyEphemeral(ctx context.Context, content string) error {
	err := c.session.InteractionRespond(c.event.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}, discordgo.WithContext(ctx))
	if err == nil {
		return nil
	}

	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Message != nil &&
		restErr.Message.Code == discordgo.ErrCodeUnknownInteraction {
		return service.ErrInteractionExpired
	}
	return err
}
