package notify

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// embedColors maps severities to Discord embed colors.
var embedColors = map[string]int{
	"success": 0x36a64f,
	"warning": 0xf2c744,
	"error":   0xd00000,
	"info":    0x439fe0,
}

// discordSender abstracts the discordgo.Session method we use, enabling
// test mocks.
type discordSender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Discord posts events to a Discord channel as embeds.
type Discord struct {
	session discordSender
	channel string
}

// NewDiscord builds a Discord notifier from a bot token and channel ID.
func NewDiscord(token, channel string) (*Discord, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("notify: discord session: %w", err)
	}
	return &Discord{session: session, channel: channel}, nil
}

func (d *Discord) Post(_ context.Context, ev Event) error {
	color, ok := embedColors[ev.Severity]
	if !ok {
		color = embedColors["info"]
	}
	embed := &discordgo.MessageEmbed{
		Title:       ev.Title,
		Description: ev.Body,
		Color:       color,
	}
	if _, err := d.session.ChannelMessageSendEmbed(d.channel, embed); err != nil {
		return fmt.Errorf("notify: discord post: %w", err)
	}
	return nil
}
