package discord

import (
	"github.com/bwmarrin/discordgo"

	"discord-giveaways/internal/features/giveaway/models"
)

// Component custom IDs routed by the interaction dispatcher.
const (
	JoinButtonID   = "giveaway:join"
	RerollButtonID = "giveaway:reroll"
)

func startEmbed(g *models.Giveaway) *discordgo.MessageEmbed {
	return buildEmbed(g.MessageProps.Start, g, nil)
}

func finishEmbed(g *models.Giveaway) *discordgo.MessageEmbed {
	props := g.MessageProps.Finish
	if len(g.Winners) == 0 && g.MessageProps.FinishNoEntries != "" {
		props.Description = g.MessageProps.FinishNoEntries
	}
	return buildEmbed(props, g, g.Winners)
}

func buildEmbed(props models.EmbedProps, g *models.Giveaway, winners []string) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       models.RenderTemplate(props.Title, g, winners),
		Description: models.RenderTemplate(props.Description, g, winners),
		Color:       props.Color,
	}
	if props.Footer != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{
			Text: models.RenderTemplate(props.Footer, g, winners),
		}
	}
	if props.Thumbnail != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: props.Thumbnail}
	}
	if props.Image != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: props.Image}
	}
	return embed
}

// runningComponents builds the join button row shown while entries are open.
// The button is disabled while the giveaway is paused.
func runningComponents(g *models.Giveaway) []discordgo.MessageComponent {
	button := discordgo.Button{
		Label:    g.MessageProps.JoinButton.Label,
		Style:    buttonStyle(g.MessageProps.JoinButton.Style, discordgo.PrimaryButton),
		CustomID: JoinButtonID,
		Disabled: g.Paused(),
	}
	if g.MessageProps.JoinButton.Emoji != "" {
		button.Emoji = &discordgo.ComponentEmoji{Name: g.MessageProps.JoinButton.Emoji}
	}
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{button}},
	}
}

// finishedComponents replaces the join button with the host's reroll button.
func finishedComponents(g *models.Giveaway) []discordgo.MessageComponent {
	button := discordgo.Button{
		Label:    g.MessageProps.RerollButton.Label,
		Style:    buttonStyle(g.MessageProps.RerollButton.Style, discordgo.SecondaryButton),
		CustomID: RerollButtonID,
	}
	if g.MessageProps.RerollButton.Emoji != "" {
		button.Emoji = &discordgo.ComponentEmoji{Name: g.MessageProps.RerollButton.Emoji}
	}
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{button}},
	}
}

func buttonStyle(style int, fallback discordgo.ButtonStyle) discordgo.ButtonStyle {
	if style <= 0 {
		return fallback
	}
	return discordgo.ButtonStyle(style)
}
