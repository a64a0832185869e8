package models

import (
	"strconv"
	"strings"
)

// RenderTemplate substitutes the display placeholders of one giveaway into a
// message template. Winners are mentioned and comma-separated; an empty
// winner list renders as "nobody".
func RenderTemplate(template string, g *Giveaway, winners []string) string {
	mentions := "nobody"
	if len(winners) > 0 {
		parts := make([]string, 0, len(winners))
		for _, id := range winners {
			parts = append(parts, "<@"+id+">")
		}
		mentions = strings.Join(parts, ", ")
	}

	replacer := strings.NewReplacer(
		"{prize}", g.Prize,
		"{winners}", mentions,
		"{winnersCount}", strconv.Itoa(g.WinnersCount),
		"{hostMemberID}", g.HostMemberID,
		"{endTimestamp}", strconv.FormatInt(g.EndTimestamp, 10),
		"{entriesCount}", strconv.Itoa(g.EntriesCount),
	)
	return replacer.Replace(template)
}
