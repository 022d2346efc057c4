package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dmferrer/stockpilot-backend/internal/inventory"
	"github.com/dmferrer/stockpilot-backend/pkg/enums"
	pkgerrors "github.com/dmferrer/stockpilot-backend/pkg/errors"
)

const shopifyAPIVersion = "2024-07"

// shopifyConnector pages products.json with since_id cursors.
// Credentials: shop_domain, access_token. A base URL override replaces the
// https://{shop_domain} origin, which is how tests point it at a local server.
type shopifyConnector struct {
	http     *http.Client
	baseURL  string
	pageSize int
}

func newShopifyConnector(httpClient *http.Client, baseURL string, pageSize int) *shopifyConnector {
	return &shopifyConnector{
		http:     httpClient,
		baseURL:  strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		pageSize: pageSize,
	}
}

func (c *shopifyConnector) Platform() enums.CommercePlatform {
	return enums.PlatformShopify
}

type shopifyProductsPage struct {
	Products []struct {
		ID       int64 `json:"id"`
		Variants []struct {
			SKU               string `json:"sku"`
			InventoryQuantity int    `json:"inventory_quantity"`
		} `json:"variants"`
	} `json:"products"`
}

func (c *shopifyConnector) origin(shopDomain string) string {
	if c.baseURL != "" {
		return c.baseURL
	}
	return "https://" + shopDomain
}

func (c *shopifyConnector) FetchSnapshots(ctx context.Context, creds Credentials) ([]inventory.SnapshotInput, error) {
	shopDomain, err := creds.required("shop_domain")
	if err != nil {
		return nil, err
	}
	accessToken, err := creds.required("access_token")
	if err != nil {
		return nil, err
	}

	capturedAt := time.Now().UTC()
	var out []inventory.SnapshotInput
	var sinceID int64

	for {
		endpoint := fmt.Sprintf("%s/admin/api/%s/products.json?limit=%d&since_id=%d",
			c.origin(shopDomain), shopifyAPIVersion, c.pageSize, sinceID)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build shopify request")
		}
		req.Header.Set("X-Shopify-Access-Token", accessToken)

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "shopify request failed")
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, decodeFailure(c.Platform(), resp)
		}

		var page shopifyProductsPage
		if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
			resp.Body.Close()
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode shopify products")
		}
		resp.Body.Close()

		for _, product := range page.Products {
			sinceID = product.ID
			for _, variant := range product.Variants {
				if strings.TrimSpace(variant.SKU) == "" {
					continue
				}
				out = append(out, inventory.SnapshotInput{
					SKU:            variant.SKU,
					Platform:       c.Platform(),
					UnitsAvailable: max(variant.InventoryQuantity, 0),
					CapturedAt:     capturedAt,
				})
			}
		}

		if len(page.Products) < c.pageSize {
			return out, nil
		}
	}
}
