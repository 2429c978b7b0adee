package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
)

// Broadcaster posts announcements to the community chat.
type Broadcaster interface {
	Broadcast(ctx context.Context, text string) error
}

// MessageSender is the part of the Discord REST client used for sending.
type MessageSender interface {
	CreateMessage(channelID snowflake.ID, messageCreate discord.MessageCreate, opts ...rest.RequestOpt) (*discord.Message, error)
}

// ChatBroadcaster sends to one configured channel. Mentions in the text are
// not pinged.
type ChatBroadcaster struct {
	sender    MessageSender
	channelID snowflake.ID
}

func NewChatBroadcaster(sender MessageSender, channelID snowflake.ID) *ChatBroadcaster {
	return &ChatBroadcaster{sender: sender, channelID: channelID}
}

func (b *ChatBroadcaster) Broadcast(ctx context.Context, text string) error {
	if b.channelID == 0 {
		return fmt.Errorf("chat channel is not configured")
	}

	msg, err := b.sender.CreateMessage(b.channelID, discord.MessageCreate{
		Content:         text,
		AllowedMentions: &discord.AllowedMentions{},
	}, rest.WithCtx(ctx))
	if err != nil {
		return fmt.Errorf("failed to broadcast to %s: %w", b.channelID, err)
	}

	slog.Debug("Broadcast sent",
		slog.String("type", "sys"),
		slog.String("channel_id", b.channelID.String()),
		slog.String("message_id", msg.ID.String()),
	)
	return nil
}
