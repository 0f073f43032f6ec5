package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"pharmadash/internal/modules/datamanager/application/port"
	"pharmadash/internal/modules/datamanager/domain"
	"pharmadash/internal/shared/normalization"
)

// MutationHTTPClient implements EntityMutator.
type MutationHTTPClient struct {
	rest    *RESTClient
	timeout time.Duration
}

type itemsRequest struct {
	Items []int64 `json:"items"`
}

type activeRequest struct {
	Active bool `json:"active"`
}

func NewMutationHTTPClient(rest *RESTClient, timeout time.Duration) *MutationHTTPClient {
	return &MutationHTTPClient{rest: rest, timeout: timeoutOrDefault(timeout)}
}

func (c *MutationHTTPClient) Create(ctx context.Context, token, endpoint string, body domain.Entity) (domain.Entity, error) {
	path, err := endpointPath(endpoint)
	if err != nil {
		return nil, err
	}
	return c.sendEntity(ctx, http.MethodPost, path, token, body)
}

func (c *MutationHTTPClient) Update(ctx context.Context, token, endpoint string, id int64, body domain.Entity) (domain.Entity, error) {
	path, err := endpointPath(endpoint)
	if err != nil {
		return nil, err
	}
	return c.sendEntity(ctx, http.MethodPut, path+"/"+strconv.FormatInt(id, 10), token, body)
}

func (c *MutationHTTPClient) SoftDelete(ctx context.Context, token, endpoint string, ids []int64) error {
	return c.sendItems(ctx, http.MethodDelete, endpoint, "delete", token, ids)
}

func (c *MutationHTTPClient) Restore(ctx context.Context, token, endpoint string, ids []int64) error {
	return c.sendItems(ctx, http.MethodPost, endpoint, "restore", token, ids)
}

func (c *MutationHTTPClient) ForceDelete(ctx context.Context, token, endpoint string, ids []int64) error {
	return c.sendItems(ctx, http.MethodDelete, endpoint, "forceDelete", token, ids)
}

func (c *MutationHTTPClient) SetActive(ctx context.Context, token, endpoint string, id int64, active bool) error {
	path, err := endpointPath(endpoint)
	if err != nil {
		return err
	}
	_, err = c.sendEntity(ctx, http.MethodPut, path+"/"+strconv.FormatInt(id, 10)+"/active", token, activeRequest{Active: active})
	return err
}

func (c *MutationHTTPClient) sendItems(ctx context.Context, method, endpoint, action, token string, ids []int64) error {
	path, err := endpointPath(endpoint)
	if err != nil {
		return err
	}
	if ids == nil {
		ids = []int64{}
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	res, err := c.rest.SendJSON(ctx, method, path+"/"+action, token, itemsRequest{Items: ids})
	if err != nil {
		slog.Error("mutation request error", slog.String("path", path), slog.String("action", action), slog.Any("error", err))
		return err
	}
	defer res.Body.Close()
	if err := checkStatus(res, port.ErrMutationRejected); err != nil {
		return fmt.Errorf("%s %s: %w", action, endpoint, err)
	}
	slog.Info("mutation applied", slog.String("path", path), slog.String("action", action), slog.Int("items", len(ids)))
	return nil
}

// sendEntity issues a write and decodes the returned entity, unwrapping a {"data": {...}} envelope.
// A body that is not an object yields a nil entity.
func (c *MutationHTTPClient) sendEntity(ctx context.Context, method, path, token string, payload any) (domain.Entity, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	res, err := c.rest.SendJSON(ctx, method, path, token, payload)
	if err != nil {
		slog.Error("mutation request error", slog.String("method", method), slog.String("path", path), slog.Any("error", err))
		return nil, err
	}
	defer res.Body.Close()
	if err := checkStatus(res, port.ErrMutationRejected); err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	var decoded any
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		slog.Debug("mutation response without body", slog.String("path", path), slog.Any("error", err))
		return nil, nil
	}
	entity := normalization.MapFromPayload(decoded)
	if entity == nil {
		return nil, nil
	}
	return domain.Entity(entity), nil
}

var _ port.EntityMutator = (*MutationHTTPClient)(nil)
