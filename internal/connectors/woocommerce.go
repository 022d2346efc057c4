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

// wooCommerceConnector pages the WooCommerce REST products endpoint.
// Credentials: site_url, consumer_key, consumer_secret (sent as basic auth,
// which WooCommerce accepts over HTTPS).
type wooCommerceConnector struct {
	http     *http.Client
	baseURL  string
	pageSize int
}

func newWooCommerceConnector(httpClient *http.Client, baseURL string, pageSize int) *wooCommerceConnector {
	return &wooCommerceConnector{
		http:     httpClient,
		baseURL:  strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		pageSize: pageSize,
	}
}

func (c *wooCommerceConnector) Platform() enums.CommercePlatform {
	return enums.PlatformWooCommerce
}

type wooCommerceProduct struct {
	SKU           string `json:"sku"`
	StockQuantity *int   `json:"stock_quantity"`
}

func (c *wooCommerceConnector) origin(siteURL string) string {
	if c.baseURL != "" {
		return c.baseURL
	}
	return strings.TrimRight(siteURL, "/")
}

func (c *wooCommerceConnector) FetchSnapshots(ctx context.Context, creds Credentials) ([]inventory.SnapshotInput, error) {
	siteURL, err := creds.required("site_url")
	if err != nil {
		return nil, err
	}
	consumerKey, err := creds.required("consumer_key")
	if err != nil {
		return nil, err
	}
	consumerSecret, err := creds.required("consumer_secret")
	if err != nil {
		return nil, err
	}

	capturedAt := time.Now().UTC()
	var out []inventory.SnapshotInput

	for page := 1; ; page++ {
		endpoint := fmt.Sprintf("%s/wp-json/wc/v3/products?page=%d&per_page=%d",
			c.origin(siteURL), page, c.pageSize)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build woocommerce request")
		}
		req.SetBasicAuth(consumerKey, consumerSecret)

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "woocommerce request failed")
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, decodeFailure(c.Platform(), resp)
		}

		var products []wooCommerceProduct
		if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
			resp.Body.Close()
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode woocommerce products")
		}
		resp.Body.Close()

		for _, product := range products {
			if strings.TrimSpace(product.SKU) == "" || product.StockQuantity == nil {
				continue
			}
			out = append(out, inventory.SnapshotInput{
				SKU:            product.SKU,
				Platform:       c.Platform(),
				UnitsAvailable: max(*product.StockQuantity, 0),
				CapturedAt:     capturedAt,
			})
		}

		if len(products) < c.pageSize {
			return out, nil
		}
	}
}
