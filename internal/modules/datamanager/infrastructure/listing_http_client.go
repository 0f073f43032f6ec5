package infrastructure

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pharmadash/internal/modules/datamanager/application/port"
	"pharmadash/internal/modules/datamanager/domain"
)

// ListingHTTPClient implements ListingFetcher and LookupFetcher against the dashboard REST API.
type ListingHTTPClient struct {
	rest     *RESTClient
	timeout  time.Duration
	pageSize int
}

// listingRequest is the body of POST /{endpoint}/index.
type listingRequest struct {
	Filters          map[string]string `json:"filters"`
	OrderBy          string            `json:"orderBy"`
	OrderByDirection string            `json:"orderByDirection"`
	PerPage          int               `json:"perPage"`
	Page             int               `json:"page"`
	Paginate         bool              `json:"paginate"`
	Deleted          bool              `json:"deleted,omitempty"`
}

func NewListingHTTPClient(rest *RESTClient, timeout time.Duration, pageSize int) *ListingHTTPClient {
	if pageSize <= 0 {
		pageSize = domain.ListingPageSize
	}
	return &ListingHTTPClient{rest: rest, timeout: timeoutOrDefault(timeout), pageSize: pageSize}
}

func (c *ListingHTTPClient) FetchListing(ctx context.Context, token string, query domain.ListingQuery) (*domain.Listing, error) {
	normalized := query.Normalize()
	endpoint, err := endpointPath(normalized.Endpoint)
	if err != nil {
		return nil, err
	}
	slog.Info("listing fetch start", slog.String("endpoint", normalized.Endpoint), slog.Bool("deleted", normalized.ShowingDeleted))

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	filters := normalized.Filters
	if filters == nil {
		filters = map[string]string{}
	}
	// the whole collection comes back in one page; the visible page is derived locally
	body := listingRequest{
		Filters:          filters,
		OrderBy:          normalized.OrderBy,
		OrderByDirection: string(normalized.OrderByDirection),
		PerPage:          c.pageSize,
		Page:             1,
		Paginate:         true,
		Deleted:          normalized.ShowingDeleted,
	}

	res, err := c.rest.SendJSON(ctx, http.MethodPost, endpoint+"/index", token, body)
	if err != nil {
		slog.Error("listing request error", slog.String("endpoint", normalized.Endpoint), slog.Any("error", err))
		return nil, err
	}
	defer res.Body.Close()
	if err := checkStatus(res, nil); err != nil {
		return nil, err
	}

	listing := decodeListing(res.Body)
	slog.Debug("listing fetch done", slog.String("endpoint", normalized.Endpoint), slog.Int("rows", len(listing.Data)), slog.Int("total", listing.Meta.Total))
	return listing, nil
}

// FetchLookup GETs an additional-data source. Any listing shape is accepted.
func (c *ListingHTTPClient) FetchLookup(ctx context.Context, token, path string) ([]domain.Entity, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" || trimmed == "/" {
		return nil, port.ErrEndpointUnsupported
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	res, err := c.rest.SendJSON(ctx, http.MethodGet, trimmed, token, nil)
	if err != nil {
		slog.Error("lookup request error", slog.String("path", trimmed), slog.Any("error", err))
		return nil, err
	}
	defer res.Body.Close()
	if err := checkStatus(res, nil); err != nil {
		return nil, err
	}
	return decodeListing(res.Body).Data, nil
}

// endpointPath escapes every segment of an endpoint such as "admin/products".
func endpointPath(endpoint string) (string, error) {
	trimmed := strings.Trim(strings.TrimSpace(endpoint), "/")
	if trimmed == "" {
		return "", port.ErrEndpointUnsupported
	}
	segments := strings.Split(trimmed, "/")
	for index, segment := range segments {
		if segment == "" || segment == "." || segment == ".." {
			return "", errors.Join(port.ErrEndpointUnsupported, errors.New("invalid endpoint segment"))
		}
		segments[index] = url.PathEscape(segment)
	}
	return "/" + strings.Join(segments, "/"), nil
}

var (
	_ port.ListingFetcher = (*ListingHTTPClient)(nil)
	_ port.LookupFetcher  = (*ListingHTTPClient)(nil)
)
