package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"
)

// API is the part of *discordgo.Session the bot talks to.
type API interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// ChannelNotifier posts study session updates to the channel the session
// was started from.
type ChannelNotifier struct {
	api       API
	channelID string
}

func NewChannelNotifier(api API, channelID string) *ChannelNotifier {
	return &ChannelNotifier{api: api, channelID: channelID}
}

func (n *ChannelNotifier) Send(ctx context.Context, text string) error {
	_, err := n.api.ChannelMessageSend(n.channelID, text, discordgo.WithContext(ctx))
	return err
}
