//go:build integration

package handler_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/nuv-canteen/api/internal/config"
	"github.com/nuv-canteen/api/internal/database"
	"github.com/nuv-canteen/api/internal/enum"
	"github.com/nuv-canteen/api/internal/router"
	"github.com/nuv-canteen/api/internal/service"
	"github.com/nuv-canteen/api/internal/ws"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/bcrypt"
)

// TestIntegrationFlow exercises the full order lifecycle against a real
// PostgreSQL database: signup, login, cart, checkout, cash payment, finalize,
// then history and admin stats.
func TestIntegrationFlow(t *testing.T) {
	ctx := context.Background()

	connStr, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	runMigrations(t, connStr)

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	defer pool.Close()

	cfg := &config.Config{
		Port:           "8083",
		DatabaseURL:    connStr,
		JWTSecret:      "integration-test-secret",
		PaymentTimeout: 5 * time.Second,
	}
	queries := database.New(pool)
	sessions := service.NewSessionManager(service.UPIAdapter{}, queries, cfg.PaymentTimeout)
	hub := ws.NewHub()
	// NOTE: hub.Run() goroutine leaks on test exit — Hub has no shutdown
	// mechanism. Acceptable for tests.
	go hub.Run()

	r := router.New(cfg, queries, sessions, hub)
	server := httptest.NewServer(r)
	defer server.Close()

	// --- 1. Seed the catalog directly ---
	seedMenuItem(t, ctx, pool, "Tea", "15.00", "Beverage")
	seedMenuItem(t, ctx, pool, "Samosa", "20.00", "Fast Food")
	seedThaliSchedule(t, ctx, pool, queries)

	schedule := httpGetJSON(t, server, "/menu/schedule", "")
	days := schedule["schedule"].(map[string]interface{})
	if days["Monday"].(string) != "Rice, Dal Fry, Aloo Gobi, Roti, Salad, Pickle" {
		t.Fatalf("schedule = %+v", days)
	}

	// --- 2. Student signup + login through the API ---
	httpPostJSON(t, server, "/auth/signup", map[string]interface{}{
		"name":       "Asha Patel",
		"student_id": "21BCA042",
		"password":   "password123",
	}, "")
	token := login(t, server, "21BCA042", "password123")

	// --- 3. Build the cart: Tea + Full Thali ---
	httpPostJSON(t, server, "/session/cart/items", map[string]interface{}{"name": "Tea"}, token)
	httpPostJSON(t, server, "/session/cart/thali", map[string]interface{}{"option": enum.ThaliOptionFull}, token)

	// --- 4. Checkout freezes the total at 15 + 70 ---
	sess := httpPostJSON(t, server, "/session/checkout", nil, token)
	pending, ok := sess["pending"].(map[string]interface{})
	if !ok || pending["total"].(string) != "85.00" {
		t.Fatalf("checkout pending = %v, want total 85.00", sess["pending"])
	}

	// --- 5. Cash payment is satisfied immediately ---
	pay := httpPostJSON(t, server, "/session/payment", map[string]interface{}{"method": enum.PaymentMethodCash}, token)
	if pay["state"].(string) != enum.SessionStateReadyToFinalize {
		t.Fatalf("state after cash = %v, want READY_TO_FINALIZE", pay["state"])
	}

	// --- 6. Finalize persists the order and renders the receipt ---
	fin := httpPostJSON(t, server, "/session/finalize", nil, token)
	order := fin["order"].(map[string]interface{})
	if order["total"].(string) != "85.00" || order["persisted"].(bool) != true {
		t.Fatalf("finalized order = %+v", order)
	}
	if fin["receipt"].(string) == "" {
		t.Fatal("receipt missing from finalize response")
	}

	// --- 7. History shows the persisted order ---
	history := httpGetJSONList(t, server, "/orders/history", token)
	if len(history) != 1 {
		t.Fatalf("history entries = %d, want 1", len(history))
	}
	entry := history[0].(map[string]interface{})
	if entry["items"].(string) != "Tea, Full Thali" || entry["total"].(string) != "85.00" {
		t.Fatalf("history entry = %+v", entry)
	}

	// --- 8. Admin stats reflect the order ---
	createAdminUser(t, ctx, pool)
	adminToken := login(t, server, "ADMIN001", "admin123")

	stats := httpGetJSON(t, server, "/admin/orders/stats", adminToken)
	if stats["total_orders"].(float64) != 1 || stats["total_revenue"].(string) != "85.00" {
		t.Fatalf("stats = %+v", stats)
	}

	// --- 9. Admin can manage the menu through the API ---
	httpPostJSON(t, server, "/admin/menu/", map[string]interface{}{
		"name":     "Kachori",
		"price":    "25",
		"category": "Fast Food",
	}, adminToken)

	menu := httpGetJSON(t, server, "/menu/", "")
	items := menu["items"].([]interface{})
	if len(items) != 3 {
		t.Fatalf("menu items = %d, want 3 after admin create", len(items))
	}
}

// --- Setup helpers ---

func setupPostgresContainer(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("canteen_test"),
		tcpostgres.WithUsername("canteen"),
		tcpostgres.WithPassword("canteen"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("get connection string: %v", err)
	}

	cleanup := func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	}

	return connStr, cleanup
}

func runMigrations(t *testing.T, connStr string) {
	t.Helper()

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("open db for migrations: %v", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		t.Fatalf("create migrate driver: %v", err)
	}

	// Path relative to this package directory; go test sets cwd there.
	m, err := migrate.NewWithDatabaseInstance(
		"file://../../migrations",
		"postgres", driver)
	if err != nil {
		t.Fatalf("create migrate instance: %v", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		t.Fatalf("run migrations: %v", err)
	}
}

func seedMenuItem(t *testing.T, ctx context.Context, pool *pgxpool.Pool, name, price, category string) {
	t.Helper()
	_, err := pool.Exec(ctx,
		`INSERT INTO menu_items (name, price, category) VALUES ($1, $2, $3)`,
		name, price, category,
	)
	if err != nil {
		t.Fatalf("seed menu item %s: %v", name, err)
	}
}

// seedThaliSchedule loads the week inside one transaction, the way the
// seeder binary does.
func seedThaliSchedule(t *testing.T, ctx context.Context, pool *pgxpool.Pool, queries *database.Queries) {
	t.Helper()
	tx, err := pool.Begin(ctx)
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	defer tx.Rollback(ctx)

	qtx := queries.WithTx(tx)
	for _, d := range []database.ThaliDay{
		{Weekday: "Monday", Description: "Rice, Dal Fry, Aloo Gobi, Roti, Salad, Pickle"},
		{Weekday: "Tuesday", Description: "Rajma Chawal, Roti, Bhindi, Salad, Pickle"},
	} {
		if err := qtx.UpsertThaliDay(ctx, d); err != nil {
			t.Fatalf("seed schedule %s: %v", d.Weekday, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("commit schedule: %v", err)
	}
}

func createAdminUser(t *testing.T, ctx context.Context, pool *pgxpool.Pool) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	_, err = pool.Exec(ctx,
		`INSERT INTO users (name, student_id, password_hash, role)
		 VALUES ($1, $2, $3, $4)`,
		"Canteen Staff", "ADMIN001", string(hash), enum.UserRoleAdmin,
	)
	if err != nil {
		t.Fatalf("create admin user: %v", err)
	}
}

func login(t *testing.T, server *httptest.Server, studentID, password string) string {
	t.Helper()
	resp := httpPostJSON(t, server, "/auth/login", map[string]interface{}{
		"student_id": studentID,
		"password":   password,
	}, "")
	token, ok := resp["access_token"].(string)
	if !ok || token == "" {
		t.Fatalf("login failed: no access_token in response: %+v", resp)
	}
	return token
}

// --- HTTP helpers ---

func httpPostJSON(t *testing.T, server *httptest.Server, path string, body map[string]interface{}, token string) map[string]interface{} {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest("POST", server.URL+path, reader)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		t.Fatalf("POST %s: status %d, body: %v", path, resp.StatusCode, errResp)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return result
}

func httpGetJSON(t *testing.T, server *httptest.Server, path string, token string) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	httpGetInto(t, server, path, token, &result)
	return result
}

func httpGetJSONList(t *testing.T, server *httptest.Server, path string, token string) []interface{} {
	t.Helper()
	var result []interface{}
	httpGetInto(t, server, path, token, &result)
	return result
}

func httpGetInto(t *testing.T, server *httptest.Server, path, token string, out interface{}) {
	t.Helper()
	req, err := http.NewRequest("GET", server.URL+path, nil)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		t.Fatalf("GET %s: status %d, body: %v", path, resp.StatusCode, errResp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}
