package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"keebstore/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testOrder() *model.Order {
	id := uuid.New()
	now := time.Date(2026, time.January, 17, 10, 30, 0, 0, time.UTC)
	return &model.Order{
		ID:            id,
		OrderNumber:   "ORD-20260117-0001",
		CustomerName:  "Budi Santoso",
		CustomerEmail: "budi@example.com",
		Subtotal:      decimal.NewFromInt(2090000),
		ShippingCost:  decimal.Zero,
		Tax:           decimal.NewFromInt(229900),
		Discount:      decimal.Zero,
		Total:         decimal.NewFromInt(2339900),
		PaymentMethod: model.PaymentMethodBankTransfer,
		PaymentStatus: model.PaymentStatusPending,
		Status:        model.OrderStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
		Items: []model.OrderItem{
			{ID: uuid.New(), OrderID: id, ProductID: 1, ProductName: "GMMK Pro", Quantity: 1,
				Price: decimal.NewFromInt(1850000), Subtotal: decimal.NewFromInt(1850000),
				ProductDetails: json.RawMessage(`{}`)},
		},
	}
}

func placeBody(t *testing.T, promo *string) []byte {
	t.Helper()
	body, err := json.Marshal(model.PlaceOrderRequest{
		CustomerName:    "Budi Santoso",
		CustomerEmail:   "budi@example.com",
		CustomerPhone:   "081234567890",
		ShippingAddress: "Jl. Sudirman No. 1",
		City:            "Jakarta",
		Province:        "DKI Jakarta",
		PostalCode:      "10220",
		PaymentMethod:   model.PaymentMethodBankTransfer,
		Items:           []model.OrderItemRequest{{ProductID: 1, Quantity: 1}},
		PromoCode:       promo,
	})
	require.NoError(t, err)
	return body
}

func TestOrderHandler_Place(t *testing.T) {
	promo := "NOPE"

	tests := []struct {
		name           string
		body           []byte
		mockError      error
		expectService  bool
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "Success",
			body:           placeBody(t, nil),
			expectService:  true,
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Invalid JSON",
			body:           []byte(`{"customer_name":`),
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeInvalidJSON,
		},
		{
			name:           "Validation failure",
			body:           []byte(`{"items":[]}`),
			mockError:      model.NewValidationError("items", "must contain at least 1 item"),
			expectService:  true,
			expectedStatus: http.StatusUnprocessableEntity,
			expectedCode:   model.ErrCodeValidationFailed,
		},
		{
			name:           "Invalid promo code",
			body:           placeBody(t, &promo),
			mockError:      model.ErrInvalidPromoCode,
			expectService:  true,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeInvalidPromoCode,
		},
		{
			name:           "Unknown product",
			body:           placeBody(t, nil),
			mockError:      model.NewProductNotFoundError(1),
			expectService:  true,
			expectedStatus: http.StatusNotFound,
			expectedCode:   model.ErrCodeProductNotFound,
		},
		{
			name:           "Insufficient stock",
			body:           placeBody(t, nil),
			mockError:      model.NewInsufficientStockError(1, "GMMK Pro", 1, 0),
			expectService:  true,
			expectedStatus: http.StatusConflict,
			expectedCode:   model.ErrCodeInsufficientStock,
		},
		{
			name:           "Database failure",
			body:           placeBody(t, nil),
			mockError:      errors.New("failed to create order: conn closed"),
			expectService:  true,
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   model.ErrCodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockOrderService)
			h := NewOrderHandler(svc, zerolog.Nop())

			if tt.expectService {
				if tt.mockError != nil {
					svc.On("PlaceOrder", mock.Anything, mock.AnythingOfType("*model.PlaceOrderRequest")).Return(nil, tt.mockError)
				} else {
					svc.On("PlaceOrder", mock.Anything, mock.AnythingOfType("*model.PlaceOrderRequest")).Return(testOrder(), nil)
				}
			}

			req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewReader(tt.body))
			w := serve("POST /api/orders", h.Place, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			var body envelope
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			if tt.expectedCode == "" {
				assert.True(t, body.Success)
				assert.Equal(t, "ORD-20260117-0001", body.Data["order_number"])
				assert.Equal(t, "2339900", body.Data["total"])
				assert.Len(t, body.Data["items"], 1)
			} else {
				assert.False(t, body.Success)
				assert.Equal(t, tt.expectedCode, body.Error.Code)
			}

			if tt.expectService {
				svc.AssertExpectations(t)
			} else {
				svc.AssertNotCalled(t, "PlaceOrder", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestOrderHandler_Place_PassesRequest(t *testing.T) {
	svc := new(MockOrderService)
	h := NewOrderHandler(svc, zerolog.Nop())

	promo := "THOCK2026"
	svc.On("PlaceOrder", mock.Anything, mock.MatchedBy(func(req *model.PlaceOrderRequest) bool {
		return req.CustomerEmail == "budi@example.com" &&
			req.PromoCode != nil && *req.PromoCode == "THOCK2026" &&
			len(req.Items) == 1 && req.Items[0].ProductID == 1
	})).Return(testOrder(), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewReader(placeBody(t, &promo)))
	w := serve("POST /api/orders", h.Place, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	svc.AssertExpectations(t)
}

func TestOrderHandler_Get(t *testing.T) {
	tests := []struct {
		name           string
		orderNumber    string
		mockReturn     *model.Order
		mockError      error
		expectedStatus int
	}{
		{"Found", "ORD-20260117-0001", testOrder(), nil, http.StatusOK},
		{"Not found", "ORD-20260117-9999", nil, model.ErrOrderNotFound, http.StatusNotFound},
		{"Service error", "ORD-20260117-0001", nil, errors.New("db down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockOrderService)
			h := NewOrderHandler(svc, zerolog.Nop())

			if tt.mockReturn != nil {
				svc.On("GetByNumber", mock.Anything, tt.orderNumber).Return(tt.mockReturn, nil)
			} else {
				svc.On("GetByNumber", mock.Anything, tt.orderNumber).Return(nil, tt.mockError)
			}

			req := httptest.NewRequest(http.MethodGet, "/api/orders/"+tt.orderNumber, nil)
			w := serve("GET /api/orders/{orderNumber}", h.Get, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestOrderHandler_Cancel(t *testing.T) {
	cancelled := testOrder()
	cancelled.Status = model.OrderStatusCancelled

	tests := []struct {
		name           string
		mockReturn     *model.Order
		mockError      error
		expectedStatus int
		expectedBody   string
	}{
		{"Cancelled", cancelled, nil, http.StatusOK, `"status":"cancelled"`},
		{"Already shipped", nil, model.ErrNotCancellable, http.StatusBadRequest, model.ErrCodeNotCancellable},
		{"Not found", nil, model.ErrOrderNotFound, http.StatusNotFound, model.ErrCodeOrderNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockOrderService)
			h := NewOrderHandler(svc, zerolog.Nop())

			if tt.mockReturn != nil {
				svc.On("Cancel", mock.Anything, "ORD-20260117-0001").Return(tt.mockReturn, nil)
			} else {
				svc.On("Cancel", mock.Anything, "ORD-20260117-0001").Return(nil, tt.mockError)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/orders/ORD-20260117-0001/cancel", nil)
			w := serve("POST /api/orders/{orderNumber}/cancel", h.Cancel, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody), w.Body.String())
			svc.AssertExpectations(t)
		})
	}
}
