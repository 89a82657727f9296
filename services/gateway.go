package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"lodgekeeper-backend/utils"

	"go.uber.org/zap"
)

// Gateway order statuses as the external payment provider reports them.
const (
	GatewayStatusPaid       = "PAID"
	GatewayStatusExpired    = "EXPIRED"
	GatewayStatusTerminated = "TERMINATED"
	GatewayStatusActive     = "ACTIVE"
)

type GatewayOrderRequest struct {
	OrderID       string  `json:"order_id"`
	Amount        float64 `json:"order_amount"`
	Currency      string  `json:"order_currency"`
	CustomerID    string  `json:"customer_id"`
	CustomerName  string  `json:"customer_name"`
	CustomerEmail string  `json:"customer_email"`
	CustomerPhone string  `json:"customer_phone"`
	ReturnURL     string  `json:"return_url"`
}

type GatewayOrder struct {
	OrderID        string `json:"order_id"`
	GatewayOrderID string `json:"gateway_order_id"`
	SessionToken   string `json:"payment_session_id"`
	Status         string `json:"order_status"`
}

// PaymentGateway is the outbound interface to the external provider.
// Implementations must respect the request context's deadline.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, req GatewayOrderRequest) (*GatewayOrder, error)
	FetchOrderStatus(ctx context.Context, gatewayOrderID string) (string, error)
}

// HTTPPaymentGateway talks to the provider's REST API. Every call is
// bounded by the client timeout; timeouts and non-2xx responses come
// back as GatewayError, never as an assumed success.
type HTTPPaymentGateway struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Client       *http.Client
	Logger       *zap.Logger
}

func NewHTTPPaymentGateway() *HTTPPaymentGateway {
	timeout := time.Duration(utils.EnvIntOrDefault("GATEWAY_TIMEOUT_SECONDS", 10)) * time.Second
	return &HTTPPaymentGateway{
		BaseURL:      utils.EnvOrDefault("GATEWAY_BASE_URL", "https://sandbox.gateway.local/pg"),
		ClientID:     utils.EnvOrDefault("GATEWAY_CLIENT_ID", ""),
		ClientSecret: utils.EnvOrDefault("GATEWAY_CLIENT_SECRET", ""),
		Client:       &http.Client{Timeout: timeout},
		Logger:       utils.GetLogger(),
	}
}

func (g *HTTPPaymentGateway) CreateOrder(ctx context.Context, req GatewayOrderRequest) (*GatewayOrder, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, &utils.GatewayError{Op: "create_order", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return nil, &utils.GatewayError{Op: "create_order", Err: err}
	}
	g.setHeaders(httpReq)

	resp, err := g.Client.Do(httpReq)
	if err != nil {
		return nil, &utils.GatewayError{Op: "create_order", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		g.drain(resp)
		return nil, &utils.GatewayError{Op: "create_order", Status: resp.StatusCode}
	}

	var order GatewayOrder
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, &utils.GatewayError{Op: "create_order", Err: fmt.Errorf("malformed response: %w", err)}
	}
	if order.GatewayOrderID == "" || order.SessionToken == "" {
		return nil, &utils.GatewayError{Op: "create_order", Err: fmt.Errorf("response missing order id or session token")}
	}

	g.Logger.Info("gateway order created",
		zap.String("orderId", req.OrderID),
		zap.String("gatewayOrderId", order.GatewayOrderID))
	return &order, nil
}

func (g *HTTPPaymentGateway) FetchOrderStatus(ctx context.Context, gatewayOrderID string) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, g.BaseURL+"/orders/"+gatewayOrderID, nil)
	if err != nil {
		return "", &utils.GatewayError{Op: "fetch_status", Err: err}
	}
	g.setHeaders(httpReq)

	resp, err := g.Client.Do(httpReq)
	if err != nil {
		return "", &utils.GatewayError{Op: "fetch_status", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		g.drain(resp)
		return "", &utils.GatewayError{Op: "fetch_status", Status: resp.StatusCode}
	}

	var order GatewayOrder
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return "", &utils.GatewayError{Op: "fetch_status", Err: fmt.Errorf("malformed response: %w", err)}
	}
	return order.Status, nil
}

func (g *HTTPPaymentGateway) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-client-id", g.ClientID)
	req.Header.Set("x-client-secret", g.ClientSecret)
}

func (g *HTTPPaymentGateway) drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
}
