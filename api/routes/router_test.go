package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	cartsvc "github.com/demoforge/demoforge-backend/internal/cartsync"
	quotesvc "github.com/demoforge/demoforge-backend/internal/quote"
	"github.com/demoforge/demoforge-backend/pkg/config"
	"github.com/demoforge/demoforge-backend/pkg/logger"
	"github.com/demoforge/demoforge-backend/pkg/redis"
	"github.com/google/uuid"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubCartService struct {
	fetched []cartsvc.Key
	saved   []cartsvc.Key
	merged  [][2]string
	cleared []cartsvc.Key
}

func (s *stubCartService) Fetch(ctx context.Context, key cartsvc.Key) (*cartsvc.CartDTO, error) {
	s.fetched = append(s.fetched, key)
	return nil, nil
}

func (s *stubCartService) Save(ctx context.Context, key cartsvc.Key, items []cartsvc.ItemInput) (*cartsvc.CartDTO, error) {
	s.saved = append(s.saved, key)
	return &cartsvc.CartDTO{ID: uuid.New(), Items: []cartsvc.ItemDTO{}}, nil
}

func (s *stubCartService) Merge(ctx context.Context, sessionID, userID string) (*cartsvc.CartDTO, error) {
	s.merged = append(s.merged, [2]string{sessionID, userID})
	return nil, nil
}

func (s *stubCartService) Clear(ctx context.Context, key cartsvc.Key) error {
	s.cleared = append(s.cleared, key)
	return nil
}

type stubQuoteService struct {
	submitted []quotesvc.Submission
}

func (s *stubQuoteService) Submit(ctx context.Context, sub quotesvc.Submission) (*quotesvc.Estimate, error) {
	s.submitted = append(s.submitted, sub)
	return &quotesvc.Estimate{ID: uuid.New(), CreatedAt: time.Now()}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		Session: config.SessionConfig{
			CookieName: "df_session_id",
			CookieTTL:  365,
		},
		CORS: config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
	}
}

func newTestRouter(cfg *config.Config, carts *stubCartService, quotes *stubQuoteService) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(
		cfg,
		logg,
		stubPinger{},
		(*redis.Client)(nil),
		nil,
		carts,
		quotes,
	)
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(testConfig(), &stubCartService{}, &stubQuoteService{})
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}
	if got := resp.Header().Get("X-DemoForge-Env"); got != "test" {
		t.Fatalf("expected env header test got %q", got)
	}
}

func TestHealthReadySkipsAbsentPubSub(t *testing.T) {
	router := newTestRouter(testConfig(), &stubCartService{}, &stubQuoteService{})
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for readiness without pubsub got %d", resp.Code)
	}
}

func TestCartSyncFetchRoute(t *testing.T) {
	carts := &stubCartService{}
	router := newTestRouter(testConfig(), carts, &stubQuoteService{})

	req := httptest.NewRequest(http.MethodGet, "/cart-sync/?session_id=session_1_abc", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for fetch got %d: %s", resp.Code, resp.Body.String())
	}
	if len(carts.fetched) != 1 || carts.fetched[0].SessionID != "session_1_abc" {
		t.Fatalf("unexpected fetch keys %+v", carts.fetched)
	}
}

func TestCartSyncRouteSetsSessionCookie(t *testing.T) {
	router := newTestRouter(testConfig(), &stubCartService{}, &stubQuoteService{})

	req := httptest.NewRequest(http.MethodGet, "/cart-sync/?session_id=session_1_abc", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	var cookie *http.Cookie
	for _, c := range resp.Result().Cookies() {
		if c.Name == "df_session_id" {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("expected df_session_id cookie to be set")
	}
	if cookie.Value != "session_1_abc" {
		t.Fatalf("unexpected cookie value %q", cookie.Value)
	}
}

func TestCartSyncSaveRoute(t *testing.T) {
	carts := &stubCartService{}
	router := newTestRouter(testConfig(), carts, &stubQuoteService{})

	body := `{"items":[{"id":"sku-1","name":"Widget","price":9.5,"quantity":2}]}`
	req := httptest.NewRequest(http.MethodPost, "/cart-sync/?session_id=session_1_abc", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for save got %d: %s", resp.Code, resp.Body.String())
	}
	if len(carts.saved) != 1 {
		t.Fatalf("expected one save call got %d", len(carts.saved))
	}
}

func TestCartSyncMergeRoute(t *testing.T) {
	carts := &stubCartService{}
	router := newTestRouter(testConfig(), carts, &stubQuoteService{})

	body := `{"session_id":"session_1_abc","user_id":"user-7"}`
	req := httptest.NewRequest(http.MethodPatch, "/cart-sync/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for merge got %d: %s", resp.Code, resp.Body.String())
	}
	if len(carts.merged) != 1 || carts.merged[0] != [2]string{"session_1_abc", "user-7"} {
		t.Fatalf("unexpected merge calls %+v", carts.merged)
	}
}

func TestCartSyncClearRoute(t *testing.T) {
	carts := &stubCartService{}
	router := newTestRouter(testConfig(), carts, &stubQuoteService{})

	req := httptest.NewRequest(http.MethodDelete, "/cart-sync/?user_id=user-7", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for clear got %d: %s", resp.Code, resp.Body.String())
	}
	if len(carts.cleared) != 1 || carts.cleared[0].UserID != "user-7" {
		t.Fatalf("unexpected clear keys %+v", carts.cleared)
	}
}

func TestQuoteSubmitRoute(t *testing.T) {
	quotes := &stubQuoteService{}
	router := newTestRouter(testConfig(), &stubCartService{}, quotes)

	body := `{"email":"lead@example.com","company":"Acme","portal_kind":"business","modules":["blog"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/quote/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 for quote got %d: %s", resp.Code, resp.Body.String())
	}
	if len(quotes.submitted) != 1 || quotes.submitted[0].Email != "lead@example.com" {
		t.Fatalf("unexpected submissions %+v", quotes.submitted)
	}
}

func TestQuoteSubmitRejectsBadJSON(t *testing.T) {
	quotes := &stubQuoteService{}
	router := newTestRouter(testConfig(), &stubCartService{}, quotes)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/quote/", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid payload got %d", resp.Code)
	}
	if len(quotes.submitted) != 0 {
		t.Fatalf("expected no submissions got %+v", quotes.submitted)
	}
}

func TestMetricsEndpointExposed(t *testing.T) {
	router := newTestRouter(testConfig(), &stubCartService{}, &stubQuoteService{})
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for metrics got %d", resp.Code)
	}
}
