package connectors

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmferrer/stockpilot-backend/pkg/config"
	"github.com/dmferrer/stockpilot-backend/pkg/enums"
	pkgerrors "github.com/dmferrer/stockpilot-backend/pkg/errors"
)

func TestRegistryCoversEveryPlatform(t *testing.T) {
	registry := NewRegistry(config.ConnectorsConfig{})
	for _, platform := range enums.Platforms() {
		conn, err := registry.Get(platform)
		if err != nil {
			t.Fatalf("no connector for %s: %v", platform, err)
		}
		if conn.Platform() != platform {
			t.Errorf("connector for %s reports %s", platform, conn.Platform())
		}
	}

	if _, err := registry.Get("ebay"); err == nil {
		t.Error("unknown platform must not resolve")
	}
}

func TestCredentialsRequired(t *testing.T) {
	registry := NewRegistry(config.ConnectorsConfig{})

	// Key names are the dashboard's credential contract; the error must name
	// the missing one.
	tests := []struct {
		platform enums.CommercePlatform
		creds    Credentials
		missing  string
	}{
		{enums.PlatformTiendanube, Credentials{"store_id": "123"}, "access_token"},
		{enums.PlatformShopify, Credentials{"access_token": "shp"}, "shop_domain"},
		{enums.PlatformShopify, Credentials{"shop_domain": "demo.myshopify.com"}, "access_token"},
		{enums.PlatformWooCommerce, Credentials{"site_url": "https://shop.test", "consumer_key": "ck"}, "consumer_secret"},
	}
	for _, tc := range tests {
		t.Run(string(tc.platform)+" missing "+tc.missing, func(t *testing.T) {
			conn, err := registry.Get(tc.platform)
			if err != nil {
				t.Fatal(err)
			}
			_, err = conn.FetchSnapshots(context.Background(), tc.creds)
			appErr := pkgerrors.As(err)
			if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
			if !strings.Contains(appErr.Message(), tc.missing) {
				t.Errorf("error %q must name the missing key %q", appErr.Message(), tc.missing)
			}
		})
	}
}

func TestTiendanubeFetchSnapshots(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authentication")
		if r.URL.Query().Get("page") != "1" {
			json.NewEncoder(w).Encode([]any{})
			return
		}
		json.NewEncoder(w).Encode([]map[string]any{
			{"variants": []map[string]any{
				{"sku": "VESTIDO-001", "stock": 10},
				{"sku": "", "stock": 4},
			}},
		})
	}))
	defer server.Close()

	registry := NewRegistry(config.ConnectorsConfig{TiendanubeBaseURL: server.URL, HTTPTimeout: 5 * time.Second})
	conn, err := registry.Get(enums.PlatformTiendanube)
	if err != nil {
		t.Fatal(err)
	}

	snaps, err := conn.FetchSnapshots(context.Background(), Credentials{
		"store_id":     "123",
		"access_token": "tok",
	})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if gotAuth != "bearer tok" {
		t.Errorf("Authentication header = %q", gotAuth)
	}
	if len(snaps) != 1 {
		t.Fatalf("want 1 snapshot (blank skus dropped), got %d", len(snaps))
	}
	if snaps[0].SKU != "VESTIDO-001" || snaps[0].UnitsAvailable != 10 {
		t.Errorf("unexpected snapshot: %+v", snaps[0])
	}
	if snaps[0].Platform != enums.PlatformTiendanube {
		t.Errorf("platform = %s", snaps[0].Platform)
	}
	if snaps[0].CapturedAt.IsZero() {
		t.Error("captured_at must be stamped")
	}
}

func TestShopifyFetchSnapshotsPaging(t *testing.T) {
	pageSize := 2
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.Header.Get("X-Shopify-Access-Token") != "shpat" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Query().Get("since_id") == "0" {
			json.NewEncoder(w).Encode(map[string]any{"products": []map[string]any{
				{"id": 1, "variants": []map[string]any{{"sku": "A", "inventory_quantity": 3}}},
				{"id": 2, "variants": []map[string]any{{"sku": "B", "inventory_quantity": 5}}},
			}})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"products": []map[string]any{
			{"id": 3, "variants": []map[string]any{{"sku": "C", "inventory_quantity": 1}}},
		}})
	}))
	defer server.Close()

	registry := NewRegistry(config.ConnectorsConfig{ShopifyBaseURL: server.URL, PageSize: pageSize})
	conn, err := registry.Get(enums.PlatformShopify)
	if err != nil {
		t.Fatal(err)
	}

	snaps, err := conn.FetchSnapshots(context.Background(), Credentials{
		"shop_domain": "demo.myshopify.com",
		"access_token": "shpat",
	})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if requests != 2 {
		t.Errorf("expected 2 pages, got %d requests", requests)
	}
	if len(snaps) != 3 {
		t.Fatalf("want 3 snapshots, got %d", len(snaps))
	}
}

func TestWooCommerceFetchSnapshots(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "ck" || pass != "cs" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		stock := 6
		json.NewEncoder(w).Encode([]map[string]any{
			{"sku": "MUG-01", "stock_quantity": stock},
			{"sku": "UNTRACKED", "stock_quantity": nil},
		})
	}))
	defer server.Close()

	registry := NewRegistry(config.ConnectorsConfig{WooCommerceBaseURL: server.URL})
	conn, err := registry.Get(enums.PlatformWooCommerce)
	if err != nil {
		t.Fatal(err)
	}

	snaps, err := conn.FetchSnapshots(context.Background(), Credentials{
		"site_url":        "https://shop.test",
		"consumer_key":    "ck",
		"consumer_secret": "cs",
	})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(snaps) != 1 {
		t.Fatalf("want 1 snapshot (untracked stock dropped), got %d", len(snaps))
	}
	if snaps[0].SKU != "MUG-01" || snaps[0].UnitsAvailable != 6 {
		t.Errorf("unexpected snapshot: %+v", snaps[0])
	}
}

func TestFetchSnapshotsUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	registry := NewRegistry(config.ConnectorsConfig{TiendanubeBaseURL: server.URL})
	conn, err := registry.Get(enums.PlatformTiendanube)
	if err != nil {
		t.Fatal(err)
	}

	_, err = conn.FetchSnapshots(context.Background(), Credentials{
		"store_id":     "123",
		"access_token": "tok",
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}
