package models

// MessageProps is the per-phase display bag attached to a giveaway. The
// lifecycle code never inspects it; only the message renderer does.
// Placeholders like {prize}, {winners} and {hostMemberID} are substituted at
// render time.
type MessageProps struct {
	Start  EmbedProps `json:"start,omitempty"`
	Finish EmbedProps `json:"finish,omitempty"`
	Reroll EmbedProps `json:"reroll,omitempty"`

	JoinReply  string `json:"joinGiveawayMessage,omitempty"`
	LeaveReply string `json:"leaveGiveawayMessage,omitempty"`

	FinishNoEntries string `json:"finishNoEntriesMessage,omitempty"`
	RerollNoEntries string `json:"rerollNoEntriesMessage,omitempty"`

	RestrictedMemberReply string `json:"restrictedMemberMessage,omitempty"`
	MissingRolesReply     string `json:"missingRolesMessage,omitempty"`
	RestrictedRoleReply   string `json:"restrictedRoleMessage,omitempty"`

	JoinButton   ButtonProps `json:"joinButton,omitempty"`
	RerollButton ButtonProps `json:"rerollButton,omitempty"`
}

// EmbedProps is the subset of embed fields the default renderer understands.
type EmbedProps struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Color       int    `json:"color,omitempty"`
	Footer      string `json:"footer,omitempty"`
	Thumbnail   string `json:"thumbnailURL,omitempty"`
	Image       string `json:"imageURL,omitempty"`
}

// ButtonProps configures one message button.
type ButtonProps struct {
	Label string `json:"label,omitempty"`
	Emoji string `json:"emoji,omitempty"`
	Style int    `json:"style,omitempty"`
}

// DefaultMessageProps fills the display bag with the stock texts used when
// the caller does not customize messages.
func DefaultMessageProps() *MessageProps {
	return &MessageProps{
		Start: EmbedProps{
			Title:       "🎉 Giveaway: {prize}",
			Description: "Press the button below to join!\nWinners: {winnersCount}\nHosted by: <@{hostMemberID}>\nEnds: <t:{endTimestamp}:R>",
			Color:       0x77b255,
		},
		Finish: EmbedProps{
			Title:       "🎉 Giveaway finished: {prize}",
			Description: "Winners: {winners}\nHosted by: <@{hostMemberID}>",
			Color:       0x2f3136,
		},
		Reroll: EmbedProps{
			Title:       "🎉 Giveaway rerolled: {prize}",
			Description: "New winners: {winners}",
			Color:       0x2f3136,
		},
		JoinReply:             "You joined the giveaway!",
		LeaveReply:            "You left the giveaway.",
		FinishNoEntries:       "Nobody joined, no winners drawn.",
		RerollNoEntries:       "Nobody joined, nothing to reroll.",
		RestrictedMemberReply: "You are restricted from joining this giveaway.",
		MissingRolesReply:     "You are missing a role required to join this giveaway.",
		RestrictedRoleReply:   "One of your roles is restricted from joining this giveaway.",
		JoinButton:            ButtonProps{Label: "Join", Emoji: "🎉"},
		RerollButton:          ButtonProps{Label: "Reroll"},
	}
}
