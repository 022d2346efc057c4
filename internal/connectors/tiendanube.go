package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmferrer/stockpilot-backend/internal/inventory"
	"github.com/dmferrer/stockpilot-backend/pkg/enums"
	pkgerrors "github.com/dmferrer/stockpilot-backend/pkg/errors"
)

const tiendanubeDefaultBaseURL = "https://api.tiendanube.com"

// tiendanubeConnector pages through the store's product variants.
// Credentials: store_id, access_token.
type tiendanubeConnector struct {
	http     *http.Client
	baseURL  string
	pageSize int
}

func newTiendanubeConnector(httpClient *http.Client, baseURL string, pageSize int) *tiendanubeConnector {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = tiendanubeDefaultBaseURL
	}
	return &tiendanubeConnector{
		http:     httpClient,
		baseURL:  strings.TrimRight(baseURL, "/"),
		pageSize: pageSize,
	}
}

func (c *tiendanubeConnector) Platform() enums.CommercePlatform {
	return enums.PlatformTiendanube
}

type tiendanubeProduct struct {
	Variants []struct {
		SKU   string `json:"sku"`
		Stock int    `json:"stock"`
	} `json:"variants"`
}

func (c *tiendanubeConnector) FetchSnapshots(ctx context.Context, creds Credentials) ([]inventory.SnapshotInput, error) {
	storeID, err := creds.required("store_id")
	if err != nil {
		return nil, err
	}
	accessToken, err := creds.required("access_token")
	if err != nil {
		return nil, err
	}

	capturedAt := time.Now().UTC()
	var out []inventory.SnapshotInput

	for page := 1; ; page++ {
		endpoint := fmt.Sprintf("%s/v1/%s/products?page=%d&per_page=%d",
			c.baseURL, url.PathEscape(storeID), page, c.pageSize)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build tiendanube request")
		}
		req.Header.Set("Authentication", "bearer "+accessToken)
		req.Header.Set("User-Agent", "stockpilot")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "tiendanube request failed")
		}

		var products []tiendanubeProduct
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, decodeFailure(c.Platform(), resp)
		}
		if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
			resp.Body.Close()
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode tiendanube products")
		}
		resp.Body.Close()

		for _, product := range products {
			for _, variant := range product.Variants {
				if strings.TrimSpace(variant.SKU) == "" {
					continue
				}
				out = append(out, inventory.SnapshotInput{
					SKU:            variant.SKU,
					Platform:       c.Platform(),
					UnitsAvailable: max(variant.Stock, 0),
					CapturedAt:     capturedAt,
				})
			}
		}

		if len(products) < c.pageSize {
			return out, nil
		}
	}
}
