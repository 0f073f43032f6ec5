package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"pharmadash/internal/modules/datamanager/application/port"
	"pharmadash/internal/modules/datamanager/application/usecase"
	"pharmadash/internal/modules/datamanager/domain"
	"pharmadash/internal/shared/httputil"
	"pharmadash/internal/shared/normalization"
)

// DataManagerHandler exposes one DataManager per (session, screen) over REST.
type DataManagerHandler struct {
	registry *usecase.ManagerRegistry
	mapper   *httputil.ErrorMapper
	timeout  time.Duration
}

func NewDataManagerHandler(registry *usecase.ManagerRegistry, timeout time.Duration) *DataManagerHandler {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &DataManagerHandler{registry: registry, mapper: NewErrorMapper(), timeout: timeout}
}

// stateRequest patches the listing state. Absent fields are left alone; Reset is applied first.
type stateRequest struct {
	Reset          bool              `json:"reset"`
	Search         *string           `json:"search"`
	Filters        map[string]string `json:"filters"`
	SortBy         string            `json:"sortBy"`
	OrderBy        string            `json:"orderBy"`
	Direction      string            `json:"orderByDirection"`
	Page           *int              `json:"page"`
	ShowingDeleted *bool             `json:"showingDeleted"`
}

type toggleRequest struct {
	ID int64 `json:"id"`
}

type activeRequest struct {
	Active bool `json:"active"`
}

type screenSummary struct {
	Endpoint string `json:"endpoint"`
	Title    string `json:"title"`
	PerPage  int    `json:"perPage"`
}

type mutationResponse struct {
	Result domain.MutationResult `json:"result"`
	Reason string                `json:"reason,omitempty"`
	View   *usecase.View         `json:"view,omitempty"`
}

// Register mounts the screen routes on g (already behind SessionMiddleware).
func (h *DataManagerHandler) Register(g *echo.Group) {
	g.GET("/screens", h.ListScreens)
	g.DELETE("/session", h.ReleaseSession)

	screen := g.Group("/screens/:endpoint")
	screen.GET("/view", h.GetView)
	screen.PATCH("/state", h.PatchState)
	screen.POST("/selection/toggle", h.ToggleSelection)
	screen.POST("/selection/page", h.ToggleSelectionPage)
	screen.DELETE("/selection", h.ClearSelection)
	screen.POST("/edit", h.BeginEdit)
	screen.DELETE("/edit", h.CancelEdit)
	screen.POST("/save", h.Save)
	screen.DELETE("/items/:id", h.Delete)
	screen.POST("/items/:id/restore", h.Restore)
	screen.DELETE("/items/:id/force", h.ForceDelete)
	screen.PUT("/items/:id/active", h.SetActive)
	screen.POST("/bulk-delete", h.BulkDelete)
	screen.POST("/bulk-restore", h.BulkRestore)
}

func (h *DataManagerHandler) ListScreens(c echo.Context) error {
	session, _ := sessionFrom(c)
	screens := h.registry.Catalog().ForRoles(session.Roles)
	summaries := make([]screenSummary, 0, len(screens))
	for _, screen := range screens {
		summaries = append(summaries, screenSummary{Endpoint: screen.Endpoint, Title: screen.Title, PerPage: screen.PerPage})
	}
	return c.JSON(http.StatusOK, map[string]any{"data": summaries})
}

func (h *DataManagerHandler) ReleaseSession(c echo.Context) error {
	session, _ := sessionFrom(c)
	h.registry.Release(session)
	return c.NoContent(http.StatusNoContent)
}

func (h *DataManagerHandler) GetView(c echo.Context) error {
	manager, err := h.manager(c)
	if err != nil {
		return writeError(c, h.mapper, err)
	}
	ctx, cancel := h.context(c)
	defer cancel()

	if err := manager.Open(ctx); err != nil {
		return writeError(c, h.mapper, err)
	}
	if normalization.AsBool(c.QueryParam("refresh")) {
		if err := manager.Load(ctx); err != nil {
			return writeError(c, h.mapper, err)
		}
	}
	return c.JSON(http.StatusOK, manager.View())
}

func (h *DataManagerHandler) PatchState(c echo.Context) error {
	manager, err := h.manager(c)
	if err != nil {
		return writeError(c, h.mapper, err)
	}
	var req stateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid state body")
	}

	if req.Reset {
		manager.ResetFilters()
	}
	if req.Search != nil {
		manager.SetSearch(*req.Search)
	}
	for key, value := range req.Filters {
		manager.SetFilter(key, value)
	}
	switch {
	case strings.TrimSpace(req.SortBy) != "":
		manager.SortBy(req.SortBy)
	case strings.TrimSpace(req.OrderBy) != "":
		manager.SetSort(req.OrderBy, domain.ParseSortDirection(req.Direction))
	}
	if req.ShowingDeleted != nil {
		manager.SetShowingDeleted(*req.ShowingDeleted)
	}
	if req.Page != nil {
		manager.SetPage(*req.Page)
	}

	ctx, cancel := h.context(c)
	defer cancel()
	if err := manager.Load(ctx); err != nil {
		return writeError(c, h.mapper, err)
	}
	return c.JSON(http.StatusOK, manager.View())
}

func (h *DataManagerHandler) ToggleSelection(c echo.Context) error {
	manager, err := h.manager(c)
	if err != nil {
		return writeError(c, h.mapper, err)
	}
	var req toggleRequest
	if err := c.Bind(&req); err != nil || req.ID <= 0 {
		return writeError(c, h.mapper, port.ErrEntityMissing)
	}
	manager.ToggleOne(req.ID)
	return c.JSON(http.StatusOK, manager.View())
}

func (h *DataManagerHandler) ToggleSelectionPage(c echo.Context) error {
	manager, err := h.manager(c)
	if err != nil {
		return writeError(c, h.mapper, err)
	}
	manager.ToggleAllOnPage()
	return c.JSON(http.StatusOK, manager.View())
}

func (h *DataManagerHandler) ClearSelection(c echo.Context) error {
	manager, err := h.manager(c)
	if err != nil {
		return writeError(c, h.mapper, err)
	}
	manager.ClearSelection()
	return c.JSON(http.StatusOK, manager.View())
}

// BeginEdit opens the edit buffer with the posted entity; an empty body starts a new row.
func (h *DataManagerHandler) BeginEdit(c echo.Context) error {
	manager, err := h.manager(c)
	if err != nil {
		return writeError(c, h.mapper, err)
	}
	entity, err := decodeEntity(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid entity body")
	}
	manager.BeginEdit(entity)
	return c.JSON(http.StatusOK, manager.View())
}

func (h *DataManagerHandler) CancelEdit(c echo.Context) error {
	manager, err := h.manager(c)
	if err != nil {
		return writeError(c, h.mapper, err)
	}
	manager.CancelEdit()
	return c.JSON(http.StatusOK, manager.View())
}

func (h *DataManagerHandler) Save(c echo.Context) error {
	manager, err := h.manager(c)
	if err != nil {
		return writeError(c, h.mapper, err)
	}
	entity, err := decodeEntity(c)
	if err != nil || entity == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid entity body")
	}
	return h.runMutation(c, manager, func(ctx context.Context) domain.MutationResult {
		return manager.Save(ctx, entity)
	})
}

func (h *DataManagerHandler) Delete(c echo.Context) error {
	return h.itemMutation(c, func(ctx context.Context, manager *usecase.DataManager, id int64) domain.MutationResult {
		return manager.Delete(ctx, id, c.QueryParam("label"))
	})
}

func (h *DataManagerHandler) Restore(c echo.Context) error {
	return h.itemMutation(c, func(ctx context.Context, manager *usecase.DataManager, id int64) domain.MutationResult {
		return manager.Restore(ctx, id, c.QueryParam("label"))
	})
}

func (h *DataManagerHandler) ForceDelete(c echo.Context) error {
	return h.itemMutation(c, func(ctx context.Context, manager *usecase.DataManager, id int64) domain.MutationResult {
		return manager.ForceDelete(ctx, id, c.QueryParam("label"))
	})
}

func (h *DataManagerHandler) SetActive(c echo.Context) error {
	var req activeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid active body")
	}
	return h.itemMutation(c, func(ctx context.Context, manager *usecase.DataManager, id int64) domain.MutationResult {
		return manager.ToggleActive(ctx, id, req.Active)
	})
}

func (h *DataManagerHandler) BulkDelete(c echo.Context) error {
	manager, err := h.manager(c)
	if err != nil {
		return writeError(c, h.mapper, err)
	}
	return h.runMutation(c, manager, manager.BulkDelete)
}

func (h *DataManagerHandler) BulkRestore(c echo.Context) error {
	manager, err := h.manager(c)
	if err != nil {
		return writeError(c, h.mapper, err)
	}
	return h.runMutation(c, manager, manager.BulkRestore)
}

func (h *DataManagerHandler) itemMutation(c echo.Context, run func(context.Context, *usecase.DataManager, int64) domain.MutationResult) error {
	manager, err := h.manager(c)
	if err != nil {
		return writeError(c, h.mapper, err)
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return writeError(c, h.mapper, fmt.Errorf("id %q: %w", c.Param("id"), port.ErrEntityMissing))
	}
	return h.runMutation(c, manager, func(ctx context.Context) domain.MutationResult {
		return run(ctx, manager, id)
	})
}

// runMutation executes a mutation with the ?confirm flag as the confirmation answer. A
// cancelled destructive mutation answers 428 with the prompt so the client can ask and retry.
func (h *DataManagerHandler) runMutation(c echo.Context, manager *usecase.DataManager, run func(context.Context) domain.MutationResult) error {
	ctx, cancel := h.context(c)
	defer cancel()
	confirmed := normalization.AsBool(c.QueryParam("confirm"))
	result := run(usecase.WithConfirmation(ctx, confirmed))

	response := mutationResponse{Result: result, Reason: result.Reason()}
	switch result.Outcome {
	case domain.OutcomeSucceeded:
		view := manager.View()
		response.View = &view
		return c.JSON(http.StatusOK, response)
	case domain.OutcomeCancelled:
		return c.JSON(http.StatusPreconditionRequired, response)
	default:
		status, _ := h.mapper.Body(result.Err)
		slog.Debug("data-manager http mutation failed", slog.String("endpoint", result.Endpoint), slog.String("kind", string(result.Kind)), slog.Int("status", status))
		return c.JSON(status, response)
	}
}

func (h *DataManagerHandler) manager(c echo.Context) (*usecase.DataManager, error) {
	session, ok := sessionFrom(c)
	if !ok {
		return nil, port.ErrListingUnauthorized
	}
	return h.registry.Manager(session, c.Param("endpoint"))
}

// decodeEntity reads a JSON object body. echo's Bind would merge path and query params into a
// map destination, so the body is decoded directly. An empty body yields a nil entity.
func decodeEntity(c echo.Context) (domain.Entity, error) {
	var entity domain.Entity
	if err := json.NewDecoder(c.Request().Body).Decode(&entity); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return entity, nil
}

func (h *DataManagerHandler) context(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), h.timeout)
}
