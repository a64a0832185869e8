package discord

import (
	"context"
	"errors"

	"github.com/bwmarrin/discordgo"

	apperrors "discord-giveaways/internal/common/errors"
	"discord-giveaways/internal/features/giveaway/models"
	"discord-giveaways/internal/features/giveaway/service"
)

// Client implements the giveaway platform boundary over a discordgo session.
// The session must be created and configured by the host application; the
// client only borrows it.
type Client struct {
	session *discordgo.Session
}

func NewClient(session *discordgo.Session) *Client {
	return &Client{session: session}
}

// requiredIntents are the gateway intents the giveaway flows depend on.
const requiredIntents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMembers |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsGuildMessageReactions

// CheckIntents fails fast when the session was identified without a gateway
// intent the giveaway flows need.
func (c *Client) CheckIntents() error {
	if c.session == nil {
		return apperrors.New(apperrors.ErrCodeNoClientSupplied, "no discord session supplied")
	}
	missing := requiredIntents &^ c.session.Identify.Intents
	if missing != 0 {
		return apperrors.Newf(apperrors.ErrCodeMissingIntent, "session is missing gateway intents %d", missing)
	}
	return nil
}

func (c *Client) ResolveGuild(ctx context.Context, guildID string) error {
	if _, err := c.session.State.Guild(guildID); err == nil {
		return nil
	}
	_, err := c.session.Guild(guildID, discordgo.WithContext(ctx))
	return mapNotFound(err)
}

func (c *Client) ResolveChannel(ctx context.Context, channelID string) error {
	if _, err := c.session.State.Channel(channelID); err == nil {
		return nil
	}
	_, err := c.session.Channel(channelID, discordgo.WithContext(ctx))
	return mapNotFound(err)
}

func (c *Client) ResolveMember(ctx context.Context, guildID, userID string) (*service.Member, error) {
	member, err := c.session.State.Member(guildID, userID)
	if err != nil {
		member, err = c.session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
		if err != nil {
			return nil, mapNotFound(err)
		}
	}
	return &service.Member{ID: member.User.ID, RoleIDs: member.Roles}, nil
}

func (c *Client) SendGiveawayMessage(ctx context.Context, g *models.Giveaway) (string, error) {
	message, err := c.session.ChannelMessageSendComplex(g.ChannelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{startEmbed(g)},
		Components: runningComponents(g),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", mapNotFound(err)
	}
	return message.ID, nil
}

func (c *Client) EditGiveawayMessage(ctx context.Context, g *models.Giveaway) error {
	embeds := []*discordgo.MessageEmbed{startEmbed(g)}
	components := runningComponents(g)
	_, err := c.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    g.ChannelID,
		ID:         g.MessageID,
		Embeds:     &embeds,
		Components: &components,
	}, discordgo.WithContext(ctx))
	return mapNotFound(err)
}

func (c *Client) FinishGiveawayMessage(ctx context.Context, g *models.Giveaway) error {
	embeds := []*discordgo.MessageEmbed{finishEmbed(g)}
	components := finishedComponents(g)
	_, err := c.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    g.ChannelID,
		ID:         g.MessageID,
		Embeds:     &embeds,
		Components: &components,
	}, discordgo.WithContext(ctx))
	return mapNotFound(err)
}

func (c *Client) SendRerollReply(ctx context.Context, g *models.Giveaway, winners []string) error {
	content := models.RenderTemplate(g.MessageProps.Reroll.Description, g, winners)
	if content == "" {
		content = models.RenderTemplate("New winners: {winners}", g, winners)
	}
	_, err := c.session.ChannelMessageSendReply(g.ChannelID, content, &discordgo.MessageReference{
		MessageID: g.MessageID,
		ChannelID: g.ChannelID,
		GuildID:   g.GuildID,
	}, discordgo.WithContext(ctx))
	return mapNotFound(err)
}

func (c *Client) DeleteGiveawayMessage(ctx context.Context, g *models.Giveaway) error {
	err := c.session.ChannelMessageDelete(g.ChannelID, g.MessageID, discordgo.WithContext(ctx))
	return mapNotFound(err)
}

// mapNotFound converts Discord "unknown entity" REST errors into the
// sentinel the service layer's cleanup policy keys on.
func mapNotFound(err error) error {
	if err == nil {
		return nil
	}
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Message != nil {
		switch restErr.Message.Code {
		case discordgo.ErrCodeUnknownGuild,
			discordgo.ErrCodeUnknownChannel,
			discordgo.ErrCodeUnknownMember,
			discordgo.ErrCodeUnknownUser,
			discordgo.ErrCodeUnknownMessage:
			return service.ErrNotResolvable
		}
	}
	return err
}
