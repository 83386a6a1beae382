package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Sternrassler/ontap-client/internal/config"
	"github.com/Sternrassler/ontap-client/internal/testutil"
	"github.com/Sternrassler/ontap-client/pkg/cache"
	"github.com/Sternrassler/ontap-client/pkg/query"
	"github.com/alicebob/miniredis/v2"
)

// setupEnv points the CLI at a seeded mock catalog with no durable tiers.
func setupEnv(t *testing.T) *testutil.MockCatalog {
	t.Helper()

	mock := testutil.NewMockCatalog()
	t.Cleanup(mock.Close)
	testutil.SeedKrakow(mock)

	t.Setenv(config.EnvConfigPath, "")
	t.Setenv(config.EnvAPIKey, "test-key")
	t.Setenv(config.EnvBaseURL, mock.URL())
	t.Setenv(config.EnvRedisURL, "")
	t.Setenv(config.EnvCacheDB, "")
	t.Setenv(config.EnvLogLevel, "error")
	t.Setenv(config.EnvPort, "")

	return mock
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)

	err := root.Execute()
	return out.String(), err
}

func TestCitiesCommand(t *testing.T) {
	setupEnv(t)

	out, err := execute(t, "cities")
	if err != nil {
		t.Fatalf("cities error = %v", err)
	}
	if out != "Kraków\nWarszawa\n" {
		t.Errorf("cities output = %q", out)
	}
}

func TestPubsCommand(t *testing.T) {
	setupEnv(t)

	out, err := execute(t, "pubs", "Kraków")
	if err != nil {
		t.Fatalf("pubs error = %v", err)
	}
	if out != "Multi Qlti\nWeźże Krafta\nTap House\nEmpty\n" {
		t.Errorf("pubs output = %q", out)
	}

	if _, err := execute(t, "pubs", "Gdynia"); err == nil || !strings.Contains(err.Error(), "city not found") {
		t.Errorf("pubs Gdynia error = %v, want city not found", err)
	}
}

func TestPubCommand(t *testing.T) {
	setupEnv(t)

	out, err := execute(t, "pub", "Kraków", "Tap House")
	if err != nil {
		t.Fatalf("pub error = %v", err)
	}
	want := "Pub:Tap House\nname style abv\nStout X Stout 8%\nHazy Dream New England IPA 6,5\n"
	if out != want {
		t.Errorf("pub output = %q, want %q", out, want)
	}
}

func TestMapsCommand(t *testing.T) {
	setupEnv(t)

	out, err := execute(t, "maps", "Kraków", "Multi Qlti")
	if err != nil {
		t.Fatalf("maps error = %v", err)
	}
	if out != "https://www.google.com/maps/search/?api=1&query=50.0614%2C19.9366\n" {
		t.Errorf("maps output = %q", out)
	}
}

func TestBeersCommand(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		contains []string
		absent   []string
	}{
		{
			name: "csv",
			args: []string{"beers", "Kraków", "--style", "ipa", "--format", "csv"},
			contains: []string{
				"beerId;beerName;beerStyle;abv;pubs\n",
				"100;Session IPA;IPA;5;pubName: Multi Qlti, price: 12|pubName: Weźże Krafta, price: 14\n",
				"300;Hazy Dream;New England IPA;6,5;pubName: Tap House, price: 18\n",
			},
			absent: []string{"Stout X"},
		},
		{
			name:     "text",
			args:     []string{"beers", "Kraków", "--limit", "1"},
			contains: []string{"name style abv pubs-price zł\n", "Session IPA IPA 5 Multi Qlti-12,Weźże Krafta-14\n"},
			absent:   []string{"Hazy Dream"},
		},
		{
			name:     "abv bounds",
			args:     []string{"beers", "Kraków", "--abv-from", "6", "--abv-to", "7"},
			contains: []string{"Hazy Dream"},
			absent:   []string{"Stout X", "Session IPA"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupEnv(t)

			out, err := execute(t, tt.args...)
			if err != nil {
				t.Fatalf("beers error = %v", err)
			}
			for _, s := range tt.contains {
				if !strings.Contains(out, s) {
					t.Errorf("output missing %q:\n%s", s, out)
				}
			}
			for _, s := range tt.absent {
				if strings.Contains(out, s) {
					t.Errorf("output should not contain %q:\n%s", s, out)
				}
			}
		})
	}
}

func TestBeersCommand_JSON(t *testing.T) {
	setupEnv(t)

	out, err := execute(t, "beers", "Kraków", "--price-to", "15", "--format", "json")
	if err != nil {
		t.Fatalf("beers error = %v", err)
	}

	var result query.Result
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if result.Total != 2 || len(result.Beers) != 2 {
		t.Fatalf("result = %+v, want 2 beers", result)
	}
	if result.Beers[0].Name != "Session IPA" || result.Beers[1].Name != "Stout X" {
		t.Errorf("order = %s, %s", result.Beers[0].Name, result.Beers[1].Name)
	}
}

func TestBeersCommand_Errors(t *testing.T) {
	setupEnv(t)

	for _, args := range [][]string{
		{"beers", "Kraków", "--format", "xml"},
		{"beers", "Kraków", "--sort", "cheapest"},
		{"beers", "Kraków", "--style", "("},
		{"beers"},
	} {
		if _, err := execute(t, args...); err == nil {
			t.Errorf("%v should fail", args)
		}
	}
}

func TestBeerCommand(t *testing.T) {
	setupEnv(t)

	out, err := execute(t, "beer", "Kraków", "300")
	if err != nil {
		t.Fatalf("beer error = %v", err)
	}
	if !strings.Contains(out, `"name": "Hazy Dream"`) {
		t.Errorf("beer output = %s", out)
	}

	if _, err := execute(t, "beer", "Kraków", "999"); err == nil {
		t.Error("unknown beer should fail")
	}
}

func TestMissingAPIKey(t *testing.T) {
	setupEnv(t)
	t.Setenv(config.EnvAPIKey, "")

	if _, err := execute(t, "cities"); err == nil || !strings.Contains(err.Error(), "api key is required") {
		t.Errorf("cities error = %v, want api key error", err)
	}
}

func TestConfigFlag(t *testing.T) {
	setupEnv(t)

	path := filepath.Join(t.TempDir(), "ontap.yaml")
	if err := os.WriteFile(path, []byte("fanout:\n  max_concurrency: 0\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := execute(t, "--config", path, "cities"); err == nil || !strings.Contains(err.Error(), "max_concurrency") {
		t.Errorf("error = %v, want config validation error", err)
	}
	if _, err := execute(t, "--log-level", "loud", "cities"); err == nil {
		t.Error("invalid --log-level should fail")
	}
}

func TestCacheKeys_SQLite(t *testing.T) {
	mock := setupEnv(t)
	t.Setenv(config.EnvCacheDB, filepath.Join(t.TempDir(), "cache.db"))

	if _, err := execute(t, "pubs", "Kraków"); err != nil {
		t.Fatalf("pubs error = %v", err)
	}
	requests := mock.GetRequestCount()

	out, err := execute(t, "cache", "keys")
	if err != nil {
		t.Fatalf("cache keys error = %v", err)
	}
	if out != "/cities\n/cities/1/pubs\n" {
		t.Errorf("cache keys output = %q", out)
	}

	// A fresh process is served from the SQLite tier.
	if _, err := execute(t, "pubs", "Kraków"); err != nil {
		t.Fatalf("pubs error = %v", err)
	}
	if got := mock.GetRequestCount(); got != requests {
		t.Errorf("request count = %d, want %d", got, requests)
	}
}

func TestRedisTier(t *testing.T) {
	setupEnv(t)

	mr := miniredis.RunT(t)
	t.Setenv(config.EnvRedisURL, "redis://"+mr.Addr())

	if _, err := execute(t, "pubs", "Kraków"); err != nil {
		t.Fatalf("pubs error = %v", err)
	}
	if !mr.Exists("ontap:/cities/1/pubs") {
		t.Errorf("redis keys = %v, want ontap:/cities/1/pubs", mr.Keys())
	}
}

func TestOpenApp_TierTTL(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := config.Default()
	cfg.Cache.TTL = 90 * time.Minute
	cfg.Cache.RedisURL = "redis://" + mr.Addr()

	a, err := openApp(context.Background(), cfg)
	if err != nil {
		t.Fatalf("openApp() error = %v", err)
	}
	defer a.Close()

	tiers := a.cache.Tiers()
	if len(tiers) != 2 {
		t.Fatalf("tiers = %d, want memory and redis", len(tiers))
	}
	memory, ok := tiers[0].(*cache.MemoryStore)
	if !ok {
		t.Fatalf("first tier = %T, want *cache.MemoryStore", tiers[0])
	}
	if memory.TTL() != cfg.Cache.TTL {
		t.Errorf("memory TTL = %v, want %v", memory.TTL(), cfg.Cache.TTL)
	}
	if redis := tiers[1].(*cache.RedisStore); redis.TTL() != cfg.Cache.TTL {
		t.Errorf("redis TTL = %v, want %v", redis.TTL(), cfg.Cache.TTL)
	}
}

func TestHTTPServer(t *testing.T) {
	mock := setupEnv(t)

	cfg := config.Default()
	cfg.APIKey = "test-key"
	cfg.BaseURL = mock.URL()
	cfg.Server.Port = "0"

	a, err := openApp(context.Background(), cfg)
	if err != nil {
		t.Fatalf("openApp() error = %v", err)
	}
	defer a.Close()

	srv, err := newHTTPServer(a)
	if err != nil {
		t.Fatalf("newHTTPServer() error = %v", err)
	}
	if srv.Addr != ":0" {
		t.Errorf("Addr = %q, want :0", srv.Addr)
	}

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cities", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/v1/cities status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Kraków") {
		t.Errorf("body = %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("GET /health status = %d", rec.Code)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := serve(ctx, a, srv, cfg.Server.ShutdownTimeout); err != nil {
		t.Errorf("serve() after cancel error = %v", err)
	}
}
