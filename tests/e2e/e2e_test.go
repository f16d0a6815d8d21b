//go:build integration

package e2e

// e2e_test.go
// End-to-end integration tests for the promotions service using real
// Postgres + Redis via testcontainers.
// Run with: go test -tags integration ./tests/e2e/... -v
//
// These tests:
//   T-E2E-1: Full promotion lifecycle (create → get → update → cancel → delete)
//   T-E2E-2: Query filtering over HTTP, including the malformed-value rejection
//   T-E2E-3: Best-offer apply with cache invalidation after a catalog change
//   T-E2E-4: Batch apply rejects invalid prices with per-product field errors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"promotions/internal/config"
	"promotions/internal/infra"
	"promotions/internal/router"
	"promotions/internal/worker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
)

// ── Helpers ──────────────────────────────────────────────────────────────────

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func do(t *testing.T, srv *httptest.Server, method, path string, body *bytes.Buffer) *http.Response {
	t.Helper()
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequest(method, srv.URL+path, body)
	} else {
		req, err = http.NewRequest(method, srv.URL+path, nil)
	}
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

func promotionBody(title, promoType, code string, amount int, siteWide bool, products []uint) map[string]any {
	now := time.Now()
	return map[string]any{
		"title":        title,
		"promo_code":   code,
		"promo_type":   promoType,
		"amount":       amount,
		"start_date":   now.AddDate(0, 0, -1).Format(time.RFC3339),
		"end_date":     now.AddDate(0, 0, 7).Format(time.RFC3339),
		"is_site_wide": siteWide,
		"products":     products,
	}
}

// ── Test Suite Setup ─────────────────────────────────────────────────────────

func setupTestEnv(t *testing.T) *httptest.Server {
	t.Helper()
	ctx := context.Background()

	// Start Postgres container
	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("promotions_test"),
		tcPostgres.WithUsername("promotions"),
		tcPostgres.WithPassword("promotions"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	// Start Redis container
	rdC, err := tcRedis.RunContainer(ctx,
		testcontainers.WithImage("redis:7-alpine"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Port:                 8080,
		Env:                  "test",
		JWTSecret:            "", // open writes for the test run
		DatabaseURL:          pgURL,
		RedisURL:             rdURL,
		WorkerPoolSize:       1,
		OfferCacheTTLMinutes: 5,
		ExpirySweepMinutes:   10,
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)

	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)

	workerCtx, cancel := context.WithCancel(ctx)
	t.Cleanup(cancel)

	dispatcher := worker.NewDispatcher(rdb)
	invalidateW := worker.NewInvalidateWorker(rdb)
	worker.StartWorkerPool(workerCtx, rdb, cfg.WorkerPoolSize, map[string]worker.Handler{
		"offer_invalidate": func(ctx context.Context, payload json.RawMessage) {
			invalidateW.Process(ctx, payload)
		},
	})

	srv := httptest.NewServer(router.New(cfg, db, rdb, dispatcher))
	t.Cleanup(srv.Close)
	return srv
}

// ── Tests ────────────────────────────────────────────────────────────────────

// T-E2E-1: Full promotion lifecycle
func TestE2E_PromotionLifecycle(t *testing.T) {
	srv := setupTestEnv(t)

	// Create
	createResp := do(t, srv, "POST", "/v1/promotions",
		jsonBody(t, promotionBody("Launch Sale", "DISCOUNT", "LAUNCH25", 25, false, []uint{101, 102})))
	require.Equal(t, http.StatusCreated, createResp.StatusCode)
	var created struct {
		ID       uint   `json:"id"`
		Title    string `json:"title"`
		Products []uint `json:"products"`
	}
	location := createResp.Header.Get("Location")
	decodeJSON(t, createResp, &created)
	assert.Equal(t, fmt.Sprintf("/v1/promotions/%d", created.ID), location)
	assert.ElementsMatch(t, []uint{101, 102}, created.Products)

	// Get
	getResp := do(t, srv, "GET", location, nil)
	require.Equal(t, http.StatusOK, getResp.StatusCode)
	var fetched struct {
		Title string `json:"title"`
	}
	decodeJSON(t, getResp, &fetched)
	assert.Equal(t, "Launch Sale", fetched.Title)

	// Update replaces the product set
	update := promotionBody("Launch Sale v2", "DISCOUNT", "LAUNCH30", 30, false, []uint{102, 103})
	updateResp := do(t, srv, "PUT", location, jsonBody(t, update))
	require.Equal(t, http.StatusOK, updateResp.StatusCode)
	var updated struct {
		ID       uint   `json:"id"`
		Amount   int    `json:"amount"`
		Products []uint `json:"products"`
	}
	decodeJSON(t, updateResp, &updated)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, 30, updated.Amount)
	assert.ElementsMatch(t, []uint{102, 103}, updated.Products)

	// Products referenced by promotions become visible
	prodResp := do(t, srv, "GET", "/v1/products", nil)
	require.Equal(t, http.StatusOK, prodResp.StatusCode)
	var products []struct {
		ID uint `json:"id"`
	}
	decodeJSON(t, prodResp, &products)
	assert.GreaterOrEqual(t, len(products), 3)

	// Cancel ends the active window without deleting
	cancelResp := do(t, srv, "POST", location+"/cancel", nil)
	require.Equal(t, http.StatusOK, cancelResp.StatusCode)
	cancelResp.Body.Close()

	activeResp := do(t, srv, "GET", "/v1/promotions?active=1", nil)
	require.Equal(t, http.StatusOK, activeResp.StatusCode)
	var active []struct {
		ID uint `json:"id"`
	}
	decodeJSON(t, activeResp, &active)
	for _, p := range active {
		assert.NotEqual(t, created.ID, p.ID)
	}

	// Delete is idempotent
	delResp := do(t, srv, "DELETE", location, nil)
	assert.Equal(t, http.StatusNoContent, delResp.StatusCode)
	delResp.Body.Close()
	delResp = do(t, srv, "DELETE", location, nil)
	assert.Equal(t, http.StatusNoContent, delResp.StatusCode)
	delResp.Body.Close()

	getResp = do(t, srv, "GET", location, nil)
	assert.Equal(t, http.StatusNotFound, getResp.StatusCode)
	getResp.Body.Close()
}

// T-E2E-2: Query filtering over HTTP
func TestE2E_QueryFilters(t *testing.T) {
	srv := setupTestEnv(t)

	resp := do(t, srv, "POST", "/v1/promotions",
		jsonBody(t, promotionBody("Everything Sale", "DISCOUNT", "ALL20", 20, true, nil)))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, srv, "POST", "/v1/promotions",
		jsonBody(t, promotionBody("Widget BOGO", "BOGO", "BOGOW", 1, false, []uint{101})))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// The site-wide promotion matches any product filter
	listResp := do(t, srv, "GET", "/v1/promotions?product=999", nil)
	require.Equal(t, http.StatusOK, listResp.StatusCode)
	var matched []struct {
		Title string `json:"title"`
	}
	decodeJSON(t, listResp, &matched)
	require.Len(t, matched, 1)
	assert.Equal(t, "Everything Sale", matched[0].Title)

	// Unknown names are ignored
	listResp = do(t, srv, "GET", "/v1/promotions?colour=red", nil)
	require.Equal(t, http.StatusOK, listResp.StatusCode)
	decodeJSON(t, listResp, &matched)
	assert.Len(t, matched, 2)

	// Malformed values reject the whole query
	badResp := do(t, srv, "GET", "/v1/promotions?amount=lots", nil)
	assert.Equal(t, http.StatusBadRequest, badResp.StatusCode)
	badResp.Body.Close()
}

// T-E2E-3: Best-offer apply, cached then invalidated after a catalog change
func TestE2E_ApplyWithCacheInvalidation(t *testing.T) {
	srv := setupTestEnv(t)

	resp := do(t, srv, "POST", "/v1/promotions",
		jsonBody(t, promotionBody("Everything Sale", "DISCOUNT", "ALL20", 20, true, nil)))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	applyResp := do(t, srv, "GET", "/v1/promotions/apply?101=1000", nil)
	require.Equal(t, http.StatusOK, applyResp.StatusCode)
	var offers []map[string]string
	decodeJSON(t, applyResp, &offers)
	require.Len(t, offers, 1)
	assert.Equal(t, "ALL20", offers[0]["101"])

	// A better promotion lands; the mutation queues a cache flush, so the
	// apply result converges to the new winner.
	resp = do(t, srv, "POST", "/v1/promotions",
		jsonBody(t, promotionBody("Widget BOGO", "BOGO", "BOGOW", 1, false, []uint{101})))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	require.Eventually(t, func() bool {
		applyResp := do(t, srv, "GET", "/v1/promotions/apply?101=1000", nil)
		if applyResp.StatusCode != http.StatusOK {
			applyResp.Body.Close()
			return false
		}
		var offers []map[string]string
		decodeJSON(t, applyResp, &offers)
		return len(offers) == 1 && offers[0]["101"] == "BOGOW"
	}, 10*time.Second, 200*time.Millisecond)
}

// T-E2E-4: Batch apply with invalid prices
func TestE2E_ApplyRejectsInvalidPrices(t *testing.T) {
	srv := setupTestEnv(t)

	resp := do(t, srv, "POST", "/v1/promotions",
		jsonBody(t, promotionBody("Everything Sale", "DISCOUNT", "ALL20", 20, true, nil)))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	badResp := do(t, srv, "GET", "/v1/promotions/apply?101=0&102=oops&103=500", nil)
	require.Equal(t, http.StatusBadRequest, badResp.StatusCode)
	var body struct {
		Detail string            `json:"detail"`
		Fields map[string]string `json:"fields"`
	}
	decodeJSON(t, badResp, &body)
	assert.Len(t, body.Fields, 2)
	assert.Contains(t, body.Fields, "101")
	assert.Contains(t, body.Fields, "102")
}
