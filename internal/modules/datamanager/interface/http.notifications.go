package transport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"pharmadash/internal/modules/datamanager/domain"
	"pharmadash/internal/modules/datamanager/infrastructure"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// NewNotificationsWebsocketHandler streams mutation toasts of the session and listing
// invalidations to the dashboard. It runs behind SessionMiddleware.
func NewNotificationsWebsocketHandler(hub *infrastructure.Hub, sendBuffer int) echo.HandlerFunc {
	topics := []string{domain.TopicNotification, domain.TopicListingInvalidated}
	return func(c echo.Context) error {
		session, ok := sessionFrom(c)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing token")
		}
		requestID := c.Response().Header().Get(echo.HeaderXRequestID)
		peerIP := c.RealIP()

		conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			slog.Error("notifications ws upgrade failed", slog.String("ip", peerIP), slog.String("reqID", requestID), slog.Any("error", err))
			return err
		}

		client := infrastructure.NewClient(hub, conn, session.UserID, session.SessionID, sendBuffer)
		hub.AttachClient(client, topics)

		go client.WritePump()
		go client.ReadPump()

		client.SendDomainMessage(&domain.Message{
			Topic:  domain.TopicSystemConnected,
			Entity: domain.SystemEntity,
			Action: domain.ActionConnected,
			Metadata: map[string]string{
				"sessionId": session.SessionID,
				"userId":    session.UserID,
			},
			Data:      map[string]any{"topics": topics},
			Timestamp: time.Now().UTC(),
		})

		slog.Info("notifications ws connected", slog.String("userId", session.UserID), slog.String("sessionId", session.SessionID), slog.String("ip", peerIP), slog.String("reqID", requestID))
		return nil
	}
}
