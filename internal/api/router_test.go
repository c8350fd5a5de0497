package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fabworks/orderapi/internal/admission"
	"github.com/fabworks/orderapi/internal/api/middleware"
	"github.com/fabworks/orderapi/internal/config"
	"github.com/fabworks/orderapi/internal/domain"
	"github.com/fabworks/orderapi/internal/repository/memory"
	"github.com/fabworks/orderapi/internal/service"
)

const testSecret = "test-secret"

type nopNotifier struct{}

func (nopNotifier) NotifyOrderCreated(*domain.Order)    {}
func (nopNotifier) NotifyStatusChanged(*domain.Order)   {}
func (nopNotifier) NotifyTrackingUpdated(*domain.Order) {}

type testServer struct {
	t        *testing.T
	router   *gin.Engine
	adminKey string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	adminKey := "operator-key"
	hash, err := middleware.HashAPIKey(adminKey)
	require.NoError(t, err)

	cfg := &config.Config{
		Environment: "test",
		Auth:        config.AuthConfig{JWTSecret: testSecret, AdminAPIKeyHash: hash},
	}
	svc := service.NewOrderService(memory.NewRepositories(zap.NewNop()), nopNotifier{},
		admission.NewLocalLocker(), nil, service.Options{}, zap.NewNop())

	return &testServer{t: t, router: NewRouter(cfg, svc, zap.NewNop()), adminKey: adminKey}
}

func token(t *testing.T, email, role string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": email,
		"role":  role,
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func (s *testServer) do(method, path, bearer string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) admin(method, path string, body interface{}) *httptest.ResponseRecorder {
	return s.do(method, path, "", body, middleware.AdminKeyHeader, s.adminKey)
}

func orderBody(email string) map[string]interface{} {
	return map[string]interface{}{
		"customer_email": email,
		"business_name":  "Acme",
		"phone_number":   "5551234567",
		"items": []map[string]interface{}{
			{"item_code": "BR-1", "product_name": "Bracket", "quantity": 2},
		},
	}
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	customer := token(t, "buyer@acme.io", middleware.RoleCustomer)

	w := s.do(http.MethodPost, "/v1/orders", customer, orderBody("Buyer@Acme.io"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	assert.Equal(t, "Pending", created["status"])
	assert.Equal(t, "buyer@acme.io", created["customer_email"])
	id := created["id"].(string)

	w = s.admin(http.MethodPatch, "/v1/admin/orders/"+id+"/status", map[string]string{"status": "Accepted"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	accepted := decode(t, w)
	assert.Len(t, accepted["tracking"], 6)
	assert.Equal(t, float64(1), accepted["current_stage"])

	w = s.admin(http.MethodPatch, "/v1/admin/orders/"+id+"/status", map[string]string{"status": "Accepted"})
	assert.Equal(t, http.StatusConflict, w.Code)

	tracking := make([]map[string]interface{}, 0, 6)
	for _, stage := range domain.PipelineStages() {
		tracking = append(tracking, map[string]interface{}{"stage": stage, "actual_date": "2026-06-20"})
	}
	w = s.admin(http.MethodPut, "/v1/admin/orders/"+id+"/tracking", map[string]interface{}{"tracking": tracking})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Completed", decode(t, w)["status"])

	w = s.do(http.MethodGet, "/v1/orders/"+id, customer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w)["allowed_next"])

	w = s.admin(http.MethodGet, "/v1/admin/orders/"+id+"/events", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["events"], 4)

	w = s.admin(http.MethodDelete, "/v1/admin/orders/"+id, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.admin(http.MethodDelete, "/v1/admin/orders/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPlaceOrder_AdmissionLimitReturns429(t *testing.T) {
	s := newTestServer(t)
	customer := token(t, "busy@acme.io", middleware.RoleCustomer)

	for i := 0; i < 3; i++ {
		w := s.do(http.MethodPost, "/v1/orders", customer, orderBody("busy@acme.io"))
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := s.do(http.MethodPost, "/v1/orders", customer, orderBody("busy@acme.io"))
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(3), body["active"])
	assert.Equal(t, float64(3), body["limit"])
}

func TestPlaceOrder_ValidationReturnsFields(t *testing.T) {
	s := newTestServer(t)
	customer := token(t, "v@acme.io", middleware.RoleCustomer)

	body := orderBody("v@acme.io")
	body["items"] = []interface{}{}
	body["phone_number"] = "123"

	w := s.do(http.MethodPost, "/v1/orders", customer, body)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	fields := decode(t, w)["fields"].(map[string]interface{})
	assert.Contains(t, fields, "items")
	assert.Contains(t, fields, "phone_number")
}

func TestPlaceOrder_CustomerCannotOrderForOthers(t *testing.T) {
	s := newTestServer(t)
	customer := token(t, "me@acme.io", middleware.RoleCustomer)

	w := s.do(http.MethodPost, "/v1/orders", customer, orderBody("someone@else.io"))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPlaceOrder_NoterPlacesAndListsOwnPlacements(t *testing.T) {
	s := newTestServer(t)
	noter := token(t, "noter@fab.io", middleware.RoleNoter)

	w := s.do(http.MethodPost, "/v1/orders", noter, orderBody("client@acme.io"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "noter@fab.io", decode(t, w)["placed_by"])

	w = s.do(http.MethodGet, "/v1/orders", noter, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["count"])

	other := token(t, "other@acme.io", middleware.RoleCustomer)
	w = s.do(http.MethodGet, "/v1/orders", other, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decode(t, w)["count"])
}

func TestPlaceOrder_IdempotencyKey(t *testing.T) {
	s := newTestServer(t)
	customer := token(t, "idem@acme.io", middleware.RoleCustomer)

	first := s.do(http.MethodPost, "/v1/orders", customer, orderBody("idem@acme.io"), middleware.IdempotencyKeyHeader, "abc")
	require.Equal(t, http.StatusCreated, first.Code)
	second := s.do(http.MethodPost, "/v1/orders", customer, orderBody("idem@acme.io"), middleware.IdempotencyKeyHeader, "abc")
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, decode(t, first)["id"], decode(t, second)["id"])

	changed := orderBody("idem@acme.io")
	changed["business_name"] = "Different"
	w := s.do(http.MethodPost, "/v1/orders", customer, changed, middleware.IdempotencyKeyHeader, "abc")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestPlaceOrder_IdempotencyKeyOfDeletedOrderConflicts(t *testing.T) {
	s := newTestServer(t)
	customer := token(t, "gone@acme.io", middleware.RoleCustomer)

	first := s.do(http.MethodPost, "/v1/orders", customer, orderBody("gone@acme.io"), middleware.IdempotencyKeyHeader, "k-gone")
	require.Equal(t, http.StatusCreated, first.Code)
	id := decode(t, first)["id"].(string)
	require.Equal(t, http.StatusNoContent, s.admin(http.MethodDelete, "/v1/admin/orders/"+id, nil).Code)

	w := s.do(http.MethodPost, "/v1/orders", customer, orderBody("gone@acme.io"), middleware.IdempotencyKeyHeader, "k-gone")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGetOrder_AccessControl(t *testing.T) {
	s := newTestServer(t)
	owner := token(t, "owner@acme.io", middleware.RoleCustomer)

	w := s.do(http.MethodPost, "/v1/orders", owner, orderBody("owner@acme.io"))
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode(t, w)["id"].(string)

	stranger := token(t, "stranger@acme.io", middleware.RoleCustomer)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/v1/orders/"+id, stranger, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/v1/orders/"+id, token(t, "root@fab.io", middleware.RoleAdmin), nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/v1/orders/not-a-uuid", owner, nil).Code)
}

func TestAdminRoutes_RequireAdmin(t *testing.T) {
	s := newTestServer(t)
	customer := token(t, "c@acme.io", middleware.RoleCustomer)

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/v1/admin/orders", customer, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/v1/admin/orders", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized,
		s.do(http.MethodGet, "/v1/admin/orders", "", nil, middleware.AdminKeyHeader, "wrong").Code)
	assert.Equal(t, http.StatusOK, s.admin(http.MethodGet, "/v1/admin/orders", nil).Code)
}

func TestAdminListOrders_Filters(t *testing.T) {
	s := newTestServer(t)
	customer := token(t, "f@acme.io", middleware.RoleCustomer)
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/v1/orders", customer, orderBody("f@acme.io")).Code)

	w := s.admin(http.MethodGet, "/v1/admin/orders?status=Pending&limit=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(1), body["count"])
	assert.Equal(t, float64(10), body["limit"])

	assert.Equal(t, http.StatusUnprocessableEntity, s.admin(http.MethodGet, "/v1/admin/orders?status=Shipped", nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.admin(http.MethodGet, "/v1/admin/orders?limit=abc", nil).Code)
}

func TestSetTracking_PendingOrderIsInvalidState(t *testing.T) {
	s := newTestServer(t)
	customer := token(t, "p@acme.io", middleware.RoleCustomer)
	w := s.do(http.MethodPost, "/v1/orders", customer, orderBody("p@acme.io"))
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode(t, w)["id"].(string)

	w = s.admin(http.MethodPut, "/v1/admin/orders/"+id+"/tracking", map[string]interface{}{
		"tracking": []map[string]interface{}{{"stage": "Order Placed"}, {"stage": "Delivered"}},
	})
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Pending", decode(t, w)["status"])
}
