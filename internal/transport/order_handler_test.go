package transport

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"marketplace/internal/domain"
	"marketplace/internal/middleware"
	"marketplace/internal/service"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func serve(t *testing.T, h http.Handler, method, path string, body interface{}, auth string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) middleware.ErrorResponse {
	t.Helper()
	var body middleware.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body
}

func TestPlaceOrderRoles(t *testing.T) {
	orders := &stubOrderService{
		place: func(buyer service.Actor, items []service.OrderItemInput) (*service.PlaceOrderResult, error) {
			return &service.PlaceOrderResult{
				Order:        &domain.Order{ID: primitive.NewObjectID(), BuyerID: buyer.UserID, Status: domain.OrderStatusUnconfirmed},
				EmailSent:    false,
				CheckoutCode: "123456",
			}, nil
		},
	}
	router := newTestRouter(NewOrderHandler(orders, zap.NewNop()))
	body := PlaceOrderRequest{Items: []OrderItemRequest{{ProductID: primitive.NewObjectID().Hex(), Quantity: 2}}}

	t.Run("anonymous", func(t *testing.T) {
		rec := serve(t, router, http.MethodPost, "/orders", body, "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("seller", func(t *testing.T) {
		rec := serve(t, router, http.MethodPost, "/orders", body, bearer(t, uuid.NewString(), domain.RoleSeller))
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("buyer", func(t *testing.T) {
		buyerID := uuid.NewString()
		rec := serve(t, router, http.MethodPost, "/orders", body, bearer(t, buyerID, domain.RoleBuyer))
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}

		var resp struct {
			Order        domain.Order `json:"order"`
			EmailSent    bool         `json:"emailSent"`
			CheckoutCode string       `json:"checkoutCode"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatal(err)
		}
		if resp.Order.BuyerID != buyerID || resp.EmailSent || resp.CheckoutCode != "123456" {
			t.Fatalf("unexpected placement response %+v", resp)
		}
	})
}

func TestPlaceOrderRequiresItems(t *testing.T) {
	router := newTestRouter(NewOrderHandler(&stubOrderService{}, zap.NewNop()))

	rec := serve(t, router, http.MethodPost, "/orders", PlaceOrderRequest{}, bearer(t, uuid.NewString(), domain.RoleBuyer))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestConfirmOrderErrorsKeepPlainMessage(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"wrong code", domain.Mismatch(domain.MsgInvalidCode), http.StatusBadRequest},
		{"expired", domain.Expired(domain.MsgCheckoutCodeExpired), http.StatusBadRequest},
		{"already confirmed", domain.InvalidRequest(domain.MsgNoCheckoutCode), http.StatusBadRequest},
		{"someone else's order", domain.Forbidden("Not your order"), http.StatusForbidden},
		{"missing", domain.NotFound("Order not found"), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders := &stubOrderService{
				confirm: func(buyer service.Actor, orderID, code string) (*domain.Order, error) {
					return nil, tt.err
				},
			}
			router := newTestRouter(NewOrderHandler(orders, zap.NewNop()))

			rec := serve(t, router, http.MethodPost, "/orders/confirm", ConfirmOrderRequest{
				OrderID: primitive.NewObjectID().Hex(),
				Code:    "000000",
			}, bearer(t, uuid.NewString(), domain.RoleBuyer))

			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
			if body := decodeError(t, rec); body.Error != tt.err.Error() {
				t.Fatalf("expected error %q, got %q", tt.err.Error(), body.Error)
			}
		})
	}
}

func TestConfirmOrderRejectsMalformedOrderID(t *testing.T) {
	router := newTestRouter(NewOrderHandler(&stubOrderService{}, zap.NewNop()))

	rec := serve(t, router, http.MethodPost, "/orders/confirm", ConfirmOrderRequest{OrderID: "nope", Code: "123456"},
		bearer(t, uuid.NewString(), domain.RoleBuyer))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	var gotStatus domain.OrderStatus
	var gotID string
	orders := &stubOrderService{
		update: func(actor service.Actor, orderID string, status domain.OrderStatus) (*domain.Order, error) {
			gotID, gotStatus = orderID, status
			if status == domain.OrderStatusCanceled {
				return nil, domain.Conflict("Order changed concurrently, please retry")
			}
			return &domain.Order{Status: status}, nil
		},
	}
	router := newTestRouter(NewOrderHandler(orders, zap.NewNop()))
	id := primitive.NewObjectID().Hex()
	seller := bearer(t, uuid.NewString(), domain.RoleSeller)

	rec := serve(t, router, http.MethodPatch, "/orders/"+id+"/status", UpdateOrderStatusRequest{Status: "delivered"}, seller)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotID != id || gotStatus != domain.OrderStatusDelivered {
		t.Fatalf("service got (%s, %s)", gotID, gotStatus)
	}

	rec = serve(t, router, http.MethodPatch, "/orders/"+id+"/status", UpdateOrderStatusRequest{Status: "canceled"}, seller)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}

	rec = serve(t, router, http.MethodPatch, "/orders/"+id+"/status", UpdateOrderStatusRequest{Status: "delivered"},
		bearer(t, uuid.NewString(), domain.RoleBuyer))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("buyer should be forbidden, got %d", rec.Code)
	}
}

func TestBuyerOrdersEmptyListIsArray(t *testing.T) {
	orders := &stubOrderService{
		buyer: func(buyer service.Actor) ([]*service.OrderView, error) { return nil, nil },
	}
	router := newTestRouter(NewOrderHandler(orders, zap.NewNop()))

	rec := serve(t, router, http.MethodGet, "/orders/buyer", nil, bearer(t, uuid.NewString(), domain.RoleBuyer))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := bytes.TrimSpace(rec.Body.Bytes()); string(got) != "[]" {
		t.Fatalf("expected [], got %s", got)
	}
}

func TestUnexpectedErrorsAreNotLeaked(t *testing.T) {
	orders := &stubOrderService{
		buyer: func(buyer service.Actor) ([]*service.OrderView, error) {
			return nil, errDatabaseDown
		},
	}
	router := newTestRouter(NewOrderHandler(orders, zap.NewNop()))

	rec := serve(t, router, http.MethodGet, "/orders/buyer", nil, bearer(t, uuid.NewString(), domain.RoleBuyer))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if body := decodeError(t, rec); body.Error != "Internal server error" {
		t.Fatalf("expected generic message, got %q", body.Error)
	}
}
