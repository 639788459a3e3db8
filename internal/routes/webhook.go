package routes

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/gooddeedstech/billy-main-service/internal/messaging"
	"github.com/gooddeedstech/billy-main-service/internal/middleware"
	"github.com/gooddeedstech/billy-main-service/internal/rubies"
	"github.com/gooddeedstech/billy-main-service/internal/transfer"
	"github.com/gooddeedstech/billy-main-service/internal/user"
)

type inboundMessage struct {
	From string `json:"from"`
	Text string `json:"text"`
}

// RegisterWebhookRoutes wires the inbound message entry point. The transport
// delivers one message per request; the flow decides everything else.
func RegisterWebhookRoutes(app *fiber.App, flow *transfer.Flow, sender messaging.Sender, log *slog.Logger) {
	app.Post("/webhook/messages", func(c *fiber.Ctx) error {
		var msg inboundMessage
		if err := c.BodyParser(&msg); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		if msg.From == "" || msg.Text == "" {
			return fiber.NewError(http.StatusBadRequest, "from and text are required")
		}

		reqLog := log.With("request_id", middleware.CtxRequestID(c))

		reply, err := flow.HandleMessage(c.UserContext(), msg.From, msg.Text)
		if err != nil {
			reply = translateFailure(err, reqLog)
		}

		if reply != "" {
			if sendErr := sender.Send(c.UserContext(), msg.From, reply); sendErr != nil {
				reqLog.Warn("outbound send failed", "to", msg.From, "error", sendErr)
			}
		}

		return c.Status(http.StatusOK).JSON(fiber.Map{"reply": reply})
	})
}

// translateFailure maps typed core failures to user-facing text. Internal
// details and raw provider payloads never reach the user.
func translateFailure(err error, log *slog.Logger) string {
	var insufficient *transfer.InsufficientBalanceError

	switch {
	case errors.Is(err, transfer.ErrIncorrectPin):
		return "Incorrect PIN. The transfer was cancelled, please start again."
	case errors.Is(err, transfer.ErrPinNotSet):
		return "You haven't set a transaction PIN yet. Please set one before transferring."
	case errors.As(err, &insufficient):
		return fmt.Sprintf("Insufficient balance: you have ₦%d but the transfer needs ₦%d. The transfer was cancelled.",
			insufficient.Balance, insufficient.Amount)
	case errors.Is(err, transfer.ErrNoFundingAccount):
		return "Your account isn't fully set up for transfers yet. Please contact support."
	case errors.Is(err, transfer.ErrTransferDeclined):
		return "The transfer was declined by the bank. No money was moved, please start again."
	case errors.Is(err, rubies.ErrUnavailable):
		return "Service is temporarily unavailable. Please try again shortly."
	case errors.Is(err, user.ErrNotFound):
		return "Welcome! Please complete onboarding first so we can enable transfers."
	default:
		log.Error("message handling failed", "error", err)
		return "Something went wrong on our side. Please try again."
	}
}
