// Package connectors pulls bulk inventory snapshots out of the supported
// e-commerce platforms. Each connector authenticates with the opaque
// credentials the ingestion request carries, pages through the platform's
// inventory API and normalizes the rows into snapshot inputs. Retry and
// backoff policy live with the caller, not here.
package connectors

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dmferrer/stockpilot-backend/internal/inventory"
	"github.com/dmferrer/stockpilot-backend/pkg/config"
	"github.com/dmferrer/stockpilot-backend/pkg/enums"
	pkgerrors "github.com/dmferrer/stockpilot-backend/pkg/errors"
)

// Credentials is the opaque credential blob from the ingestion request.
// Each connector picks out and validates the keys it needs.
type Credentials map[string]string

func (c Credentials) required(key string) (string, error) {
	value := strings.TrimSpace(c[key])
	if value == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("credentials: %s is required", key))
	}
	return value, nil
}

// Connector fetches the current inventory state of one platform.
type Connector interface {
	Platform() enums.CommercePlatform
	FetchSnapshots(ctx context.Context, creds Credentials) ([]inventory.SnapshotInput, error)
}

// Registry holds one connector per supported platform, all sharing a single
// bounded HTTP client.
type Registry struct {
	byPlatform map[enums.CommercePlatform]Connector
}

// NewRegistry wires the built-in connectors from config.
func NewRegistry(cfg config.ConnectorsConfig) *Registry {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	httpClient := &http.Client{Timeout: timeout}

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 200
	}

	registry := &Registry{byPlatform: map[enums.CommercePlatform]Connector{}}
	registry.register(newTiendanubeConnector(httpClient, cfg.TiendanubeBaseURL, pageSize))
	registry.register(newShopifyConnector(httpClient, cfg.ShopifyBaseURL, pageSize))
	registry.register(newWooCommerceConnector(httpClient, cfg.WooCommerceBaseURL, pageSize))
	return registry
}

func (r *Registry) register(conn Connector) {
	r.byPlatform[conn.Platform()] = conn
}

// Get returns the connector for a platform.
func (r *Registry) Get(platform enums.CommercePlatform) (Connector, error) {
	conn, ok := r.byPlatform[platform]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("no connector for platform %q", platform))
	}
	return conn, nil
}

func decodeFailure(platform enums.CommercePlatform, resp *http.Response) error {
	return pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("%s api returned %d", platform, resp.StatusCode)).
		WithDetails(map[string]any{"status": resp.StatusCode, "url": resp.Request.URL.Redacted()})
}
