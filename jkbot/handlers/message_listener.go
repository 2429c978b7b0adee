package handlers

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"

	"github.com/jkcommunity/jkbot/internal/domain/activity"
	"github.com/jkcommunity/jkbot/internal/domain/errs"
	"github.com/jkcommunity/jkbot/jkbot/config"
	"github.com/jkcommunity/jkbot/jkbot/services"
	"github.com/jkcommunity/jkbot/jkbot/utils"
)

// MessageListener feeds guild chat messages into the activity pipeline.
type MessageListener struct {
	pipeline    *activity.Pipeline
	broadcaster services.Broadcaster
	channelID   snowflake.ID
}

// NewMessageListener listens on channelID only, or on every channel when it
// is zero.
func NewMessageListener(p *activity.Pipeline, b services.Broadcaster, channelID snowflake.ID) *MessageListener {
	return &MessageListener{pipeline: p, broadcaster: b, channelID: channelID}
}

func (l *MessageListener) OnGuildMessageCreate(e *events.GuildMessageCreate) {
	msg := e.Message
	if msg.Author.Bot || msg.Author.System {
		return
	}
	if l.channelID != 0 && e.ChannelID != l.channelID {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.DefaultQueryTimeout)
	defer cancel()

	notice := l.Process(ctx, activity.Message{
		UserID:      int64(msg.Author.ID),
		Handle:      msg.Author.Username,
		DisplayName: msg.Author.EffectiveName(),
		Text:        msg.Content,
		At:          msg.CreatedAt,
	})
	if notice == "" {
		return
	}

	_, err := e.Client().Rest().CreateMessage(e.ChannelID, discord.MessageCreate{
		Content:          notice,
		MessageReference: &discord.MessageReference{MessageID: &msg.ID},
		AllowedMentions:  &discord.AllowedMentions{},
	}, rest.WithCtx(ctx))
	if err != nil {
		slog.Error("Failed to send muted notice",
			slog.String("type", "sys"),
			slog.String("user_id", msg.Author.ID.String()),
			slog.Any("error", err),
		)
	}
}

// Process runs one message through the pipeline and broadcasts any
// achievement it unlocks. It returns the reply owed to the sender, if any.
func (l *MessageListener) Process(ctx context.Context, msg activity.Message) string {
	if strings.HasPrefix(strings.TrimSpace(msg.Text), "/") {
		return ""
	}

	out, err := l.pipeline.Handle(ctx, msg)
	var skip *errs.ScoringSkip
	switch {
	case errors.As(err, &skip):
		slog.Debug("Message skipped",
			slog.String("type", "sys"),
			slog.Int64("user_id", msg.UserID),
			slog.String("status", "skipped"),
			slog.String("reason", skip.Reason),
			slog.String("category", string(out.Verdict.Category)),
		)
		if out.NotifyMuted {
			return utils.MutedNotice(out.MutedFor)
		}
		return ""
	case err != nil:
		slog.Error("Failed to process message",
			slog.String("type", "sys"),
			slog.Int64("user_id", msg.UserID),
			slog.String("user_name", msg.Handle),
			slog.Any("error", err),
		)
		return ""
	}

	slog.Info("Points awarded",
		slog.String("type", "sys"),
		slog.Int64("user_id", msg.UserID),
		slog.String("user_name", msg.Handle),
		slog.Int64("points", out.Points),
		slog.Int64("day_total", out.DailyTotal),
		slog.String("category", string(out.Verdict.Category)),
	)

	if out.Event != nil {
		if err = l.broadcaster.Broadcast(ctx, out.Event.Text); err != nil {
			slog.Error("Failed to announce achievement",
				slog.String("type", "sys"),
				slog.Int64("user_id", msg.UserID),
				slog.Int64("threshold", out.Event.Threshold),
				slog.String("event_id", out.Event.ID.String()),
				slog.Any("error", err),
			)
		}
	}
	return ""
}
