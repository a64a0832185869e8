package service

import (
	"context"
	"errors"

	apperrors "discord-giveaways/internal/common/errors"
	"discord-giveaways/internal/common/logger"
	"discord-giveaways/internal/features/giveaway/models"
)

// HandleJoin processes one click on the join button. The member passes the
// participant filters in a fixed order: explicit member restrictions first,
// then required roles, then restricted roles. A denied member gets the
// matching ephemeral reply and nothing else happens. Passing members toggle:
// not entered joins, already entered leaves.
func (m *Manager) HandleJoin(ctx context.Context, interaction Interaction) error {
	entity, err := m.GetByMessageID(interaction.MessageID())
	if err != nil {
		return err
	}
	record := entity.Raw()

	member, err := m.platform.ResolveMember(ctx, record.GuildID, interaction.UserID())
	if err != nil {
		return apperrors.Wrapf(err, apperrors.ErrCodeUserNotFound, "member %s not found", interaction.UserID())
	}

	if denial := filterDenial(record, member); denial != "" {
		return m.reply(ctx, interaction, denial)
	}

	if record.HasEntry(member.ID) {
		if err := entity.RemoveEntry(ctx, member.ID); err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeInternal, "cannot leave the giveaway")
		}
		if err := m.rerender(ctx, entity); err != nil {
			return err
		}
		// Render from the post-mutation record so placeholders like
		// {entriesCount} reflect the entry change.
		fresh := entity.Raw()
		return m.reply(ctx, interaction, models.RenderTemplate(fresh.MessageProps.LeaveReply, fresh, nil))
	}

	if err := entity.AddEntry(ctx, member.ID); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "cannot join the giveaway")
	}
	if err := m.rerender(ctx, entity); err != nil {
		return err
	}
	fresh := entity.Raw()
	return m.reply(ctx, interaction, models.RenderTemplate(fresh.MessageProps.JoinReply, fresh, nil))
}

// HandleReroll processes one click on the reroll button. Only the host may
// reroll; anyone else gets an ephemeral denial. An empty entry pool answers
// with the no-entries reply instead of drawing.
func (m *Manager) HandleReroll(ctx context.Context, interaction Interaction) error {
	entity, err := m.GetByMessageID(interaction.MessageID())
	if err != nil {
		return err
	}
	record := entity.Raw()

	if interaction.UserID() != record.HostMemberID {
		return m.reply(ctx, interaction, "Only the giveaway host can reroll.")
	}

	winners, err := entity.Reroll(ctx)
	if err != nil {
		return err
	}
	if len(winners) == 0 {
		return m.reply(ctx, interaction, models.RenderTemplate(record.MessageProps.RerollNoEntries, record, nil))
	}
	return nil
}

// filterDenial returns the denial reply for the first filter the member
// fails, or "" when the member may enter. The order is fixed: member
// restrictions, then required roles, then restricted roles.
func filterDenial(g *models.Giveaway, member *Member) string {
	filter := g.ParticipantsFilter
	if filter == nil {
		return ""
	}

	for _, id := range filter.RestrictedMembers {
		if id == member.ID {
			return models.RenderTemplate(g.MessageProps.RestrictedMemberReply, g, nil)
		}
	}

	// Required roles are any-of: holding one of the listed roles is enough.
	if len(filter.RequiredRoles) > 0 {
		held := make(map[string]bool, len(member.RoleIDs))
		for _, id := range member.RoleIDs {
			held[id] = true
		}
		holdsOne := false
		for _, required := range filter.RequiredRoles {
			if held[required] {
				holdsOne = true
				break
			}
		}
		if !holdsOne {
			return models.RenderTemplate(g.MessageProps.MissingRolesReply, g, nil)
		}
	}

	for _, restricted := range filter.RestrictedRoles {
		for _, id := range member.RoleIDs {
			if id == restricted {
				return models.RenderTemplate(g.MessageProps.RestrictedRoleReply, g, nil)
			}
		}
	}
	return ""
}

// reply sends an ephemeral reply, swallowing only the expired-window error.
func (m *Manager) reply(ctx context.Context, interaction Interaction, content string) error {
	err := interaction.ReplyEphemeral(ctx, content)
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrInteractionExpired) {
		logger.Debug().Str("user_id", interaction.UserID()).Msg("interaction expired before reply")
		return nil
	}
	return apperrors.Wrap(err, apperrors.ErrCodeInternal, "cannot reply to the interaction")
}

func (m *Manager) rerender(ctx context.Context, entity *Entity) error {
	if err := m.platform.EditGiveawayMessage(ctx, entity.Raw()); err != nil {
		logger.Error().Err(err).Str("message_id", entity.Raw().MessageID).Msg("failed to re-render giveaway after entry change")
	}
	return nil
}
