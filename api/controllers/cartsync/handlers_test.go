package cartsync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	cartsvc "github.com/demoforge/demoforge-backend/internal/cartsync"
	pkgerrors "github.com/demoforge/demoforge-backend/pkg/errors"
)

type stubService struct {
	fetchDTO *cartsvc.CartDTO
	fetchKey cartsvc.Key
	saveDTO  *cartsvc.CartDTO
	saveKey  cartsvc.Key
	items    []cartsvc.ItemInput
	merged   [][2]string
	cleared  []cartsvc.Key
	err      error
}

func (s *stubService) Fetch(_ context.Context, key cartsvc.Key) (*cartsvc.CartDTO, error) {
	s.fetchKey = key
	return s.fetchDTO, s.err
}

func (s *stubService) Save(_ context.Context, key cartsvc.Key, items []cartsvc.ItemInput) (*cartsvc.CartDTO, error) {
	s.saveKey = key
	s.items = items
	return s.saveDTO, s.err
}

func (s *stubService) Merge(_ context.Context, sessionID, userID string) (*cartsvc.CartDTO, error) {
	s.merged = append(s.merged, [2]string{sessionID, userID})
	return s.saveDTO, s.err
}

func (s *stubService) Clear(_ context.Context, key cartsvc.Key) error {
	s.cleared = append(s.cleared, key)
	return s.err
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body.Data
}

func TestFetch_ReturnsCart(t *testing.T) {
	svc := &stubService{fetchDTO: &cartsvc.CartDTO{
		ID:    uuid.New(),
		Items: []cartsvc.ItemDTO{{ID: "sku-1", Quantity: 2}},
	}}

	req := httptest.NewRequest(http.MethodGet, "/cart-sync?session_id=session_1_abc", nil)
	rec := httptest.NewRecorder()
	Fetch(svc, nil)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if svc.fetchKey.SessionID != "session_1_abc" {
		t.Fatalf("key = %+v", svc.fetchKey)
	}
	data := decodeEnvelope(t, rec)
	cart, ok := data["cart"].(map[string]any)
	if !ok {
		t.Fatalf("expected cart in payload, got %v", data)
	}
	if items := cart["items"].([]any); len(items) != 1 {
		t.Fatalf("items = %v", items)
	}
}

func TestFetch_AbsentCartIsEmptyObject(t *testing.T) {
	svc := &stubService{}

	req := httptest.NewRequest(http.MethodGet, "/cart-sync?user_id=user-9", nil)
	rec := httptest.NewRecorder()
	Fetch(svc, nil)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if data := decodeEnvelope(t, rec); len(data) != 0 {
		t.Fatalf("absent cart should serialize as empty object, got %v", data)
	}
}

func TestFetch_RequiresAddressing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/cart-sync", nil)
	rec := httptest.NewRecorder()
	Fetch(&stubService{}, nil)(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSave_PassesKeyAndItems(t *testing.T) {
	svc := &stubService{saveDTO: &cartsvc.CartDTO{ID: uuid.New()}}

	body := `{"items":[{"id":"sku-1","name":"Starter portal","price":49,"quantity":2}]}`
	req := httptest.NewRequest(http.MethodPost, "/cart-sync?session_id=session_1_abc&user_id=user-9", strings.NewReader(body))
	rec := httptest.NewRecorder()
	Save(svc, nil)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if svc.saveKey.SessionID != "session_1_abc" || svc.saveKey.UserID != "user-9" {
		t.Fatalf("key = %+v", svc.saveKey)
	}
	if len(svc.items) != 1 || svc.items[0].ID != "sku-1" {
		t.Fatalf("items = %+v", svc.items)
	}
}

func TestSave_RequiresSessionID(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/cart-sync?user_id=user-9", strings.NewReader(`{"items":[]}`))
	rec := httptest.NewRecorder()
	Save(&stubService{}, nil)(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSave_RequiresItemsField(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/cart-sync?session_id=s", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	Save(&stubService{}, nil)(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestMerge_PassesBothIDs(t *testing.T) {
	svc := &stubService{}

	body := `{"session_id":"session_1_abc","user_id":"user-9"}`
	req := httptest.NewRequest(http.MethodPatch, "/cart-sync", strings.NewReader(body))
	rec := httptest.NewRecorder()
	Merge(svc, nil)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if len(svc.merged) != 1 || svc.merged[0] != [2]string{"session_1_abc", "user-9"} {
		t.Fatalf("merged = %v", svc.merged)
	}
}

func TestMerge_RequiresBothIDs(t *testing.T) {
	req := httptest.NewRequest(http.MethodPatch, "/cart-sync", strings.NewReader(`{"session_id":"s"}`))
	rec := httptest.NewRecorder()
	Merge(&stubService{}, nil)(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestClear_UsesActiveKey(t *testing.T) {
	svc := &stubService{}

	req := httptest.NewRequest(http.MethodDelete, "/cart-sync?user_id=user-9", nil)
	rec := httptest.NewRecorder()
	Clear(svc, nil)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(svc.cleared) != 1 || svc.cleared[0].UserID != "user-9" {
		t.Fatalf("cleared = %+v", svc.cleared)
	}
}

func TestHandlers_ServiceErrorsMapToStatus(t *testing.T) {
	svc := &stubService{err: pkgerrors.New(pkgerrors.CodeDependency, "db down")}

	req := httptest.NewRequest(http.MethodGet, "/cart-sync?session_id=s", nil)
	rec := httptest.NewRecorder()
	Fetch(svc, nil)(rec, req)

	if rec.Code != http.StatusBadGateway && rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("dependency errors should map to 5xx, got %d", rec.Code)
	}
}
