package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aleixjf/ms-orders-management-sub000/internal/domain"
)

type serviceCall struct {
	op     string
	id     domain.OrderID
	ids    []domain.OrderID
	reason string
}

type fakeOrderService struct {
	calls  []serviceCall
	orders map[domain.OrderID]*domain.Order
	err    error
}

func newFakeOrderService() *fakeOrderService {
	return &fakeOrderService{orders: map[domain.OrderID]*domain.Order{}}
}

func (f *fakeOrderService) CreateOrder(_ context.Context, customerID domain.CustomerID, products []domain.Product) (*domain.Order, error) {
	f.calls = append(f.calls, serviceCall{op: "create"})
	if f.err != nil {
		return nil, f.err
	}
	date, err := domain.NewOrderDate(1700000000000)
	if err != nil {
		return nil, err
	}
	order, err := domain.CreateOrder(customerID, products, date, date.AddDays(7))
	if err != nil {
		return nil, err
	}
	f.orders[order.ID()] = order
	return order, nil
}

func (f *fakeOrderService) GetOrder(_ context.Context, id domain.OrderID) (*domain.Order, error) {
	f.calls = append(f.calls, serviceCall{op: "get", id: id})
	if f.err != nil {
		return nil, f.err
	}
	order, ok := f.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return order, nil
}

func (f *fakeOrderService) GetOrders(_ context.Context, ids []domain.OrderID) ([]*domain.Order, error) {
	f.calls = append(f.calls, serviceCall{op: "list", ids: ids})
	if f.err != nil {
		return nil, f.err
	}
	var out []*domain.Order
	for _, order := range f.orders {
		out = append(out, order)
	}
	return out, nil
}

func (f *fakeOrderService) record(op string, id domain.OrderID, reason string) error {
	f.calls = append(f.calls, serviceCall{op: op, id: id, reason: reason})
	return f.err
}

func (f *fakeOrderService) ReserveOrder(_ context.Context, id domain.OrderID) error {
	return f.record("reserve", id, "")
}

func (f *fakeOrderService) CancelOrder(_ context.Context, id domain.OrderID, reason string) error {
	return f.record("cancel", id, reason)
}

func (f *fakeOrderService) ShipOrder(_ context.Context, id domain.OrderID) error {
	return f.record("ship", id, "")
}

func (f *fakeOrderService) DeliverOrder(_ context.Context, id domain.OrderID) error {
	return f.record("deliver", id, "")
}

func (f *fakeOrderService) DeleteOrder(_ context.Context, id domain.OrderID) error {
	return f.record("delete", id, "")
}

func setupRouter(service OrderService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewOrderHandler(service, 5*time.Second, zap.NewNop())
	h.Register(router.Group("/api/v1"))
	return router
}

func performJSON(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateOrderReturns201WithBody(t *testing.T) {
	service := newFakeOrderService()
	router := setupRouter(service)

	w := performJSON(router, http.MethodPost, "/api/v1/orders", map[string]any{
		"customerId": "customer-1",
		"products": []map[string]any{
			{"id": "prod-1", "quantity": 2, "price": 9.5, "name": "Widget"},
		},
	})

	require.Equal(t, http.StatusCreated, w.Code)

	var resp OrderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "customer-1", resp.CustomerID)
	assert.Equal(t, string(domain.StatusPending), resp.Status)
	require.Len(t, resp.Products, 1)
	assert.Equal(t, 19.0, resp.Products[0].Subtotal)
	assert.Equal(t, 19.0, resp.Price)
	require.NotNil(t, resp.Products[0].Name)
	assert.Equal(t, "Widget", *resp.Products[0].Name)
}

func TestCreateOrderMissingCustomerReturns400(t *testing.T) {
	service := newFakeOrderService()
	router := setupRouter(service)

	w := performJSON(router, http.MethodPost, "/api/v1/orders", map[string]any{
		"products": []map[string]any{{"id": "prod-1", "quantity": 1}},
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, service.calls, "binding failures never reach the service")

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, KindValidation, resp.Error.Code)
	assert.Equal(t, http.StatusBadRequest, resp.Error.Status)
	assert.Equal(t, "/api/v1/orders", resp.Error.Path)
	assert.Equal(t, http.MethodPost, resp.Error.Method)
	assert.NotEmpty(t, resp.Error.Timestamp)
}

func TestCreateOrderMalformedBodyReturns400(t *testing.T) {
	service := newFakeOrderService()
	router := setupRouter(service)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders",
		bytes.NewReader([]byte("{not valid json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, service.calls)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, KindValidation, resp.Error.Code)
}

func TestCreateOrderEmptyBodyReturns400(t *testing.T) {
	service := newFakeOrderService()
	router := setupRouter(service)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewReader(nil))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, service.calls)
}

func TestCreateOrderZeroQuantityReturns400(t *testing.T) {
	service := newFakeOrderService()
	router := setupRouter(service)

	w := performJSON(router, http.MethodPost, "/api/v1/orders", map[string]any{
		"customerId": "customer-1",
		"products":   []map[string]any{{"id": "prod-1", "quantity": 0}},
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, service.calls)
}

func TestGetOrderNotFoundReturns404(t *testing.T) {
	service := newFakeOrderService()
	router := setupRouter(service)

	w := performJSON(router, http.MethodGet, "/api/v1/orders/"+domain.NewOrderID().String(), nil)

	require.Equal(t, http.StatusNotFound, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, KindNotFound, resp.Error.Code)
}

func TestGetOrderReturnsOrder(t *testing.T) {
	service := newFakeOrderService()
	router := setupRouter(service)

	created := performJSON(router, http.MethodPost, "/api/v1/orders", map[string]any{
		"customerId": "customer-1",
		"products":   []map[string]any{{"id": "prod-1", "quantity": 3}},
	})
	require.Equal(t, http.StatusCreated, created.Code)
	var createdResp OrderResponse
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &createdResp))

	w := performJSON(router, http.MethodGet, "/api/v1/orders/"+createdResp.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp OrderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, createdResp.ID, resp.ID)
	assert.Nil(t, resp.Products[0].Price, "orders without a price expose no subtotal source")
	assert.Equal(t, 0.0, resp.Price)
}

func TestListOrdersEmptyReturnsEmptyArray(t *testing.T) {
	service := newFakeOrderService()
	router := setupRouter(service)

	w := performJSON(router, http.MethodGet, "/api/v1/orders", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestListOrdersForwardsIDFilter(t *testing.T) {
	service := newFakeOrderService()
	router := setupRouter(service)
	first, second := domain.NewOrderID(), domain.NewOrderID()

	w := performJSON(router, http.MethodGet,
		"/api/v1/orders?ids="+first.String()+","+second.String(), nil)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, service.calls, 1)
	assert.Equal(t, []domain.OrderID{first, second}, service.calls[0].ids)
}

func TestListOrdersBlankIDReturns400(t *testing.T) {
	service := newFakeOrderService()
	router := setupRouter(service)

	w := performJSON(router, http.MethodGet, "/api/v1/orders?ids=%20,", nil)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, service.calls)
}

func TestConfirmRequestsReservationAndReturns204(t *testing.T) {
	service := newFakeOrderService()
	router := setupRouter(service)
	id := domain.NewOrderID()

	w := performJSON(router, http.MethodPost, "/api/v1/orders/"+id.String()+"/confirm", nil)

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.Bytes())
	require.Len(t, service.calls, 1)
	assert.Equal(t, "reserve", service.calls[0].op, "the confirm route requests the saga step")
	assert.Equal(t, id, service.calls[0].id)
}

func TestCancelPassesOptionalReason(t *testing.T) {
	service := newFakeOrderService()
	router := setupRouter(service)
	id := domain.NewOrderID()

	w := performJSON(router, http.MethodPost, "/api/v1/orders/"+id.String()+"/cancel",
		map[string]any{"reason": "changed my mind"})

	require.Equal(t, http.StatusNoContent, w.Code)
	require.Len(t, service.calls, 1)
	assert.Equal(t, "cancel", service.calls[0].op)
	assert.Equal(t, "changed my mind", service.calls[0].reason)
}

func TestCancelWithoutBody(t *testing.T) {
	service := newFakeOrderService()
	router := setupRouter(service)
	id := domain.NewOrderID()

	w := performJSON(router, http.MethodPost, "/api/v1/orders/"+id.String()+"/cancel", nil)

	require.Equal(t, http.StatusNoContent, w.Code)
	require.Len(t, service.calls, 1)
	assert.Empty(t, service.calls[0].reason)
}

func TestShipOnDeliveredReturns409(t *testing.T) {
	service := newFakeOrderService()
	service.err = invalidTransition(t)
	router := setupRouter(service)
	id := domain.NewOrderID()

	w := performJSON(router, http.MethodPost, "/api/v1/orders/"+id.String()+"/ship", nil)

	require.Equal(t, http.StatusConflict, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, KindInvalidTransition, resp.Error.Code)
	assert.Contains(t, resp.Error.Cause, "already delivered")
}

func TestDeleteReturns204(t *testing.T) {
	service := newFakeOrderService()
	router := setupRouter(service)
	id := domain.NewOrderID()

	w := performJSON(router, http.MethodDelete, "/api/v1/orders/"+id.String(), nil)

	require.Equal(t, http.StatusNoContent, w.Code)
	require.Len(t, service.calls, 1)
	assert.Equal(t, "delete", service.calls[0].op)
}

func TestUnknownServiceErrorReturns500(t *testing.T) {
	service := newFakeOrderService()
	service.err = errors.New("dynamo unavailable")
	router := setupRouter(service)
	id := domain.NewOrderID()

	w := performJSON(router, http.MethodPost, "/api/v1/orders/"+id.String()+"/deliver", nil)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, KindUnknown, resp.Error.Code)
}
