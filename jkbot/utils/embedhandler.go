package utils

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"

	"github.com/jkcommunity/jkbot/internal/domain/errs"
	"github.com/jkcommunity/jkbot/jkbot/config"
)

// ResponseHandler provides standardized response methods for commands
type ResponseHandler struct{}

var EH = &ResponseHandler{}

// ErrorType represents different categories of errors for consistent handling
type ErrorType int

const (
	// UserError - malformed arguments, non-positive amounts
	UserError ErrorType = iota
	// SystemError - storage failures and everything unexpected
	SystemError
	// NotFoundError - unknown users
	NotFoundError
	// BusinessLogicError - insufficient balance
	BusinessLogicError
)

func getErrorPrefix(errorType ErrorType) string {
	switch errorType {
	case UserError:
		return "⚠️"
	case SystemError:
		return "🔧"
	case NotFoundError:
		return "🔍"
	case BusinessLogicError:
		return "💸"
	default:
		return "❌"
	}
}

func getErrorColor(errorType ErrorType) int {
	switch errorType {
	case UserError, BusinessLogicError:
		return config.WarningColor
	case NotFoundError:
		return config.InfoColor
	default:
		return config.ErrorColor
	}
}

const genericFailure = "Произошла ошибка, попробуйте позже."

// ClassifyError maps a domain error to the reply shown to the invoking user.
// Only user-facing errors reveal their details.
func ClassifyError(err error) (ErrorType, string) {
	var (
		validation   *errs.ValidationError
		insufficient *errs.InsufficientBalanceError
		notFound     *errs.NotFoundError
	)
	switch {
	case errors.As(err, &validation):
		return UserError, validationMessage(validation)
	case errors.As(err, &insufficient):
		return BusinessLogicError, fmt.Sprintf("Недостаточно очков: у вас %s, нужно %s.",
			FormatNumber(insufficient.Balance), FormatNumber(insufficient.Required))
	case errors.As(err, &notFound):
		msg := fmt.Sprintf("Пользователь %v не найден.", notFound.Key)
		if len(notFound.Suggestions) > 0 {
			msg += " Возможно, вы имели в виду: " + strings.Join(notFound.Suggestions, ", ")
		}
		return NotFoundError, msg
	default:
		return SystemError, genericFailure
	}
}

const multiplePrefix = "must be a positive multiple of "

func validationMessage(e *errs.ValidationError) string {
	switch {
	case e.Field == "amount" && strings.HasPrefix(e.Reason, multiplePrefix):
		return "Сумма должна быть положительной и кратной " + strings.TrimPrefix(e.Reason, multiplePrefix) + "."
	case e.Field == "amount":
		return "Сумма должна быть положительной."
	case e.Field == "target":
		return "Нельзя выбрать самого себя."
	case e.Field == "user":
		return "Укажите пользователя."
	default:
		return "Некорректные параметры команды."
	}
}

// ReplyError answers a command with the classified error. System errors are
// logged since the user only sees a generic message.
func (h *ResponseHandler) ReplyError(event *handler.CommandEvent, err error) error {
	errorType, message := ClassifyError(err)
	if errorType == SystemError {
		slog.Error("Command error",
			slog.String("type", "cmd"),
			slog.String("name", event.Data.CommandName()),
			slog.String("user_name", event.User().Username),
			slog.Any("error", err),
		)
	}
	return h.CreateClassifiedError(event, errorType, message)
}

// CreateClassifiedError creates an error response with automatic categorization
func (h *ResponseHandler) CreateClassifiedError(event *handler.CommandEvent, errorType ErrorType, message string) error {
	return event.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{{
			Description: getErrorPrefix(errorType) + " " + message,
			Color:       getErrorColor(errorType),
		}},
	})
}

// CreateErrorEmbed creates a standard error embed for command events
func (h *ResponseHandler) CreateErrorEmbed(event *handler.CommandEvent, message string) error {
	return event.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{{
			Description: message,
			Color:       config.ErrorColor,
		}},
	})
}

// CreateSuccessEmbed creates a standard success embed for command events
func (h *ResponseHandler) CreateSuccessEmbed(event *handler.CommandEvent, message string) error {
	return event.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{{
			Description: message,
			Color:       config.SuccessColor,
		}},
	})
}

// CreateInfoEmbed creates a standard info embed for command events
func (h *ResponseHandler) CreateInfoEmbed(event *handler.CommandEvent, title, message string) error {
	return event.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{{
			Title:       title,
			Description: message,
			Color:       config.InfoColor,
		}},
	})
}
