package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/agroreach/storefront/internal/domain/cart"
	"github.com/agroreach/storefront/internal/domain/order"
	"github.com/agroreach/storefront/internal/domain/product"
	"github.com/agroreach/storefront/internal/domain/user"
)

// Login exchanges credentials for an access token and stores it
func (c *Client) Login(ctx context.Context, email, password string) (*user.AuthResponse, error) {
	var resp user.AuthResponse
	body := user.LoginRequest{Email: email, Password: password}
	if _, err := c.call(ctx, http.MethodPost, "/auth/login", body, &resp, nil); err != nil {
		return nil, err
	}
	c.SetToken(resp.AccessToken)
	return &resp, nil
}

// Register creates an account and stores the returned token
func (c *Client) Register(ctx context.Context, req *user.RegisterRequest) (*user.AuthResponse, error) {
	var resp user.AuthResponse
	if _, err := c.call(ctx, http.MethodPost, "/auth/register", req, &resp, nil); err != nil {
		return nil, err
	}
	c.SetToken(resp.AccessToken)
	return &resp, nil
}

// Me returns the profile behind the current token
func (c *Client) Me(ctx context.Context) (*user.User, error) {
	var data struct {
		User *user.User `json:"user"`
	}
	if _, err := c.call(ctx, http.MethodGet, "/auth/me", nil, &data, nil); err != nil {
		return nil, err
	}
	return data.User, nil
}

// Products lists one page of the catalog
func (c *Client) Products(ctx context.Context, page, limit int) (*product.ListResponse, error) {
	var resp product.ListResponse
	path := fmt.Sprintf("/products?page=%d&limit=%d", page, limit)
	if _, err := c.call(ctx, http.MethodGet, path, nil, &resp, nil); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Product fetches a single catalog entry
func (c *Client) Product(ctx context.Context, id uint) (*product.Product, error) {
	var data struct {
		Product *product.Product `json:"product"`
	}
	if _, err := c.call(ctx, http.MethodGet, fmt.Sprintf("/products/%d", id), nil, &data, nil); err != nil {
		return nil, err
	}
	return data.Product, nil
}

type cartItemBody struct {
	ProductID uint `json:"productId"`
	Quantity  int  `json:"quantity,omitempty"`
}

// GetCart returns the lines of the server cart
func (c *Client) GetCart(ctx context.Context) ([]cart.Line, error) {
	var data struct {
		Cart cart.Cart `json:"cart"`
	}
	if _, err := c.call(ctx, http.MethodGet, "/cart", nil, &data, nil); err != nil {
		return nil, err
	}
	return data.Cart.Items, nil
}

// AddToCart adds quantity units of a product
func (c *Client) AddToCart(ctx context.Context, productID uint, quantity int) error {
	_, err := c.call(ctx, http.MethodPost, "/cart/add", cartItemBody{ProductID: productID, Quantity: quantity}, nil, nil)
	return err
}

// UpdateCartItem sets the quantity of a line
func (c *Client) UpdateCartItem(ctx context.Context, productID uint, quantity int) error {
	_, err := c.call(ctx, http.MethodPatch, "/cart/item", cartItemBody{ProductID: productID, Quantity: quantity}, nil, nil)
	return err
}

// RemoveCartItem deletes a line
func (c *Client) RemoveCartItem(ctx context.Context, productID uint) error {
	_, err := c.call(ctx, http.MethodDelete, "/cart/item", cartItemBody{ProductID: productID}, nil, nil)
	return err
}

// ClearCart empties the server cart
func (c *Client) ClearCart(ctx context.Context) error {
	_, err := c.call(ctx, http.MethodDelete, "/cart", nil, nil, nil)
	return err
}

type billingData struct {
	Address       user.Address `json:"address"`
	MissingFields []string     `json:"missingFields"`
}

// GetBilling returns the stored billing address
func (c *Client) GetBilling(ctx context.Context) (user.Address, error) {
	var data billingData
	if _, err := c.call(ctx, http.MethodGet, "/users/billing", nil, &data, nil); err != nil {
		return user.Address{}, err
	}
	return data.Address, nil
}

// SaveBilling stores addr as the billing address
func (c *Client) SaveBilling(ctx context.Context, addr user.Address) (user.Address, error) {
	var data billingData
	if _, err := c.call(ctx, http.MethodPut, "/users/billing", addr, &data, nil); err != nil {
		return user.Address{}, err
	}
	return data.Address, nil
}

// PlaceOrder submits an order. The result is never nil.
func (c *Client) PlaceOrder(ctx context.Context, req *order.CreateOrderRequest) OrderResult {
	var data struct {
		Order *order.Order `json:"order"`
	}

	var headers map[string]string
	if req.IdempotencyKey != "" {
		headers = map[string]string{"Idempotency-Key": req.IdempotencyKey}
	}

	status, err := c.call(ctx, http.MethodPost, "/orders", req, &data, headers)
	if err != nil {
		return orderResultFromError(err)
	}
	if data.Order == nil {
		return Rejected{StatusCode: status, Message: "The store did not return the placed order"}
	}
	return Placed{Order: data.Order, Replayed: status == http.StatusOK}
}

// Orders lists the user's order history
func (c *Client) Orders(ctx context.Context, page, limit int) (*order.ListResponse, error) {
	var resp order.ListResponse
	path := fmt.Sprintf("/orders?page=%d&limit=%d", page, limit)
	if _, err := c.call(ctx, http.MethodGet, path, nil, &resp, nil); err != nil {
		return nil, err
	}
	return &resp, nil
}
