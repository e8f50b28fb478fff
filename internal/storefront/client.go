package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// UserPayload is the account summary returned on login
type UserPayload struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Session is the login response
type Session struct {
	Token        string      `json:"token"`
	RefreshToken string      `json:"refreshToken"`
	User         UserPayload `json:"user"`
}

// Client talks to the marketplace REST API, sending the bearer token held by its Credentials
type Client struct {
	baseURL    string
	httpClient *http.Client
	creds      Credentials
}

type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func NewClient(baseURL string, creds Credentials, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		creds:      creds,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login authenticates and stores the bearer token in the client's Credentials
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var session Session
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &session); err != nil {
		return nil, err
	}
	c.creds.SetToken(session.Token)
	return &session, nil
}

func (c *Client) GetCart(ctx context.Context) (*CartPayload, error) {
	var cart CartPayload
	if err := c.do(ctx, http.MethodGet, "/cart", nil, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (c *Client) AddToCart(ctx context.Context, productID string, quantity int) (*CartPayload, error) {
	var cart CartPayload
	body := OrderItemRequest{ProductID: productID, Quantity: quantity}
	if err := c.do(ctx, http.MethodPost, "/cart/add", body, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (c *Client) UpdateCartItem(ctx context.Context, productID string, quantity int) (*CartPayload, error) {
	var cart CartPayload
	body := OrderItemRequest{ProductID: productID, Quantity: quantity}
	if err := c.do(ctx, http.MethodPatch, "/cart/update", body, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (c *Client) RemoveCartItem(ctx context.Context, productID string) (*CartPayload, error) {
	var cart CartPayload
	if err := c.do(ctx, http.MethodDelete, "/cart/remove/"+url.PathEscape(productID), nil, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (c *Client) PlaceOrder(ctx context.Context, items []OrderItemRequest) (*PlaceOrderPayload, error) {
	var result PlaceOrderPayload
	body := map[string][]OrderItemRequest{"items": items}
	if err := c.do(ctx, http.MethodPost, "/orders", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ConfirmOrder(ctx context.Context, orderID, code string) (*OrderPayload, error) {
	var order OrderPayload
	body := map[string]string{"orderId": orderID, "code": code}
	if err := c.do(ctx, http.MethodPost, "/orders/confirm", body, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) BuyerOrders(ctx context.Context) ([]OrderPayload, error) {
	var orders []OrderPayload
	if err := c.do(ctx, http.MethodGet, "/orders/buyer", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *Client) Favorites(ctx context.Context) ([]ProductPayload, error) {
	var products []ProductPayload
	if err := c.do(ctx, http.MethodGet, "/favorites", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *Client) ToggleFavorite(ctx context.Context, productID string) (bool, error) {
	var resp struct {
		Favorited bool `json:"favorited"`
	}
	if err := c.do(ctx, http.MethodPost, "/favorites/"+url.PathEscape(productID), nil, &resp); err != nil {
		return false, err
	}
	return resp.Favorited, nil
}

func (c *Client) Products(ctx context.Context, q ProductQuery) (*ProductPagePayload, error) {
	params := url.Values{}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Page > 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}
	if q.StoreID != "" {
		params.Set("storeId", q.StoreID)
	}
	if q.Category != "" {
		params.Set("category", q.Category)
	}
	if q.Query != "" {
		params.Set("q", q.Query)
	}

	path := "/products"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var page ProductPagePayload
	if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) Product(ctx context.Context, id string) (*ProductPayload, error) {
	var product ProductPayload
	if err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(id), nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.creds != nil {
		if token, ok := c.creds.Token(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, &body); err != nil || body.Error == "" {
		body.Error = http.StatusText(resp.StatusCode)
	}
	return &APIError{Status: resp.StatusCode, Message: body.Error, Code: body.Code}
}

var (
	_ CartAPI     = (*Client)(nil)
	_ OrderAPI    = (*Client)(nil)
	_ FavoriteAPI = (*Client)(nil)
	_ CatalogAPI  = (*Client)(nil)
)
