package handler

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"docvault/internal/logging"
	"docvault/internal/model"
	"docvault/internal/notify"
	"docvault/internal/service"
)

// NotificationStream hands out live notification subscriptions.
type NotificationStream interface {
	Subscribe(userID int64) *notify.Subscription
	Unsubscribe(sub *notify.Subscription)
}

// ListNotifications returns the caller's notifications, newest first.
//
//	@Summary	List my notifications
//	@Tags		notifications
//	@Produce	json
//	@Success	200	{object}	map[string]any
//	@Security	BearerAuth
//	@Router		/documents/notifications [get]
func ListNotifications(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := principal(c)
		if err != nil {
			return respondError(c, err)
		}
		items, err := svc.ListNotifications(c.UserContext(), p.UserID)
		if err != nil {
			return respondError(c, err)
		}
		if items == nil {
			items = []model.Notification{}
		}
		return c.JSON(fiber.Map{
			"message":       "Notificaciones obtenidas correctamente",
			"notifications": items,
		})
	}
}

// DeleteNotification removes one of the caller's notifications.
//
//	@Summary	Delete a notification
//	@Tags		notifications
//	@Produce	json
//	@Param		notificationId	path	string	true	"Notification id"
//	@Success	200	{object}	map[string]any
//	@Failure	404	{object}	errorPayload
//	@Security	BearerAuth
//	@Router		/documents/notifications/{notificationId} [delete]
func DeleteNotification(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := principal(c)
		if err != nil {
			return respondError(c, err)
		}
		if err := svc.DeleteNotification(c.UserContext(), p.UserID, c.Params("notificationId")); err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"message": "Notificación eliminada correctamente"})
	}
}

// StreamNotifications pushes the caller's new notifications as server-sent
// events until the client disconnects or the stream is closed.
//
//	@Summary	Stream my notifications
//	@Tags		notifications
//	@Produce	text/event-stream
//	@Success	200
//	@Security	BearerAuth
//	@Router		/documents/notifications/stream [get]
func StreamNotifications(stream NotificationStream, keepAlive time.Duration) fiber.Handler {
	if keepAlive <= 0 {
		keepAlive = 15 * time.Second
	}
	return func(c *fiber.Ctx) error {
		p, err := principal(c)
		if err != nil {
			return respondError(c, err)
		}

		c.Set("Content-Type", "text/event-stream")
		c.Set("Cache-Control", "no-cache")
		c.Set("Connection", "keep-alive")
		c.Set("Transfer-Encoding", "chunked")
		c.Set("X-Accel-Buffering", "no")

		log := logging.From(c.UserContext()).With(
			zap.String("component", "sse"),
			zap.Int64("user_id", p.UserID),
		)
		sub := stream.Subscribe(p.UserID)
		log.Debug("stream_opened", zap.String("subscription_id", sub.ID()))

		c.Status(fiber.StatusOK).Context().SetBodyStreamWriter(func(w *bufio.Writer) {
			defer func() {
				stream.Unsubscribe(sub)
				log.Debug("stream_closed", zap.String("subscription_id", sub.ID()))
			}()

			ticker := time.NewTicker(keepAlive)
			defer ticker.Stop()

			if !writeEvent(w, ": connected\n\n") {
				return
			}
			for {
				select {
				case n, ok := <-sub.Events():
					if !ok {
						return
					}
					data, err := json.Marshal(n)
					if err != nil {
						log.Error("stream_encode_failed", zap.Error(err))
						continue
					}
					if !writeEvent(w, fmt.Sprintf("event: notification\nid: %s\ndata: %s\n\n", n.ID, data)) {
						return
					}
				case <-ticker.C:
					if !writeEvent(w, ": keepalive\n\n") {
						return
					}
				}
			}
		})
		return nil
	}
}

// writeEvent reports false once the client is gone.
func writeEvent(w *bufio.Writer, s string) bool {
	if _, err := w.WriteString(s); err != nil {
		return false
	}
	return w.Flush() == nil
}
