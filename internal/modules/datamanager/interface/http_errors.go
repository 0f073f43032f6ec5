package transport

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"pharmadash/internal/modules/datamanager/application/port"
	"pharmadash/internal/shared/httputil"
)

// NewErrorMapper maps the data manager port errors onto HTTP statuses.
func NewErrorMapper() *httputil.ErrorMapper {
	return httputil.NewErrorMapper().
		WithMapping(port.ErrEndpointUnsupported, http.StatusNotFound, "screen not found").
		WithMapping(port.ErrScreenForbidden, http.StatusForbidden, "screen not allowed for this session").
		WithMapping(port.ErrListingUnauthorized, http.StatusUnauthorized, "backend rejected the session").
		WithMapping(port.ErrListingForbidden, http.StatusForbidden, "forbidden").
		WithMapping(port.ErrListingNotFound, http.StatusNotFound, "resource not found").
		WithMapping(port.ErrConfirmationDeclined, http.StatusPreconditionRequired, "confirmation required").
		WithMapping(port.ErrEmptySelection, http.StatusBadRequest, "nothing selected").
		WithMapping(port.ErrStaleSelection, http.StatusConflict, "selection contains rows that are no longer listed").
		WithMapping(port.ErrNotInDeletedBucket, http.StatusConflict, "only deleted rows can be removed permanently").
		WithMapping(port.ErrEntityMissing, http.StatusBadRequest, "entity id missing").
		WithMapping(port.ErrMutationRejected, http.StatusUnprocessableEntity, "backend rejected the change").
		WithDefault(http.StatusBadGateway, "backend unavailable").
		WithDetail()
}

func writeError(c echo.Context, mapper *httputil.ErrorMapper, err error) error {
	status, body := mapper.Body(err)
	return c.JSON(status, body)
}
