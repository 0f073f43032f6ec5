package transport

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"pharmadash/internal/modules/datamanager/application/usecase"
	"pharmadash/internal/modules/datamanager/infrastructure"
	"pharmadash/internal/shared/auth"
)

// RouterDeps are the collaborators the HTTP surface needs.
type RouterDeps struct {
	Registry   *usecase.ManagerRegistry
	Hub        *infrastructure.Hub
	Validator  auth.TokenValidator
	Handler    *DataManagerHandler
	SendBuffer int
}

// RegisterRoutes mounts /api and /ws on e.
func RegisterRoutes(e *echo.Echo, deps RouterDeps) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{"status": "ok", "clients": deps.Hub.ClientCount()})
	})

	sessionAuth := SessionMiddleware(deps.Validator)
	handler := deps.Handler
	if handler == nil {
		handler = NewDataManagerHandler(deps.Registry, 0)
	}
	handler.Register(e.Group("/api", sessionAuth))
	e.GET("/ws/notifications", NewNotificationsWebsocketHandler(deps.Hub, deps.SendBuffer), sessionAuth)
}
