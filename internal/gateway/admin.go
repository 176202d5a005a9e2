package gateway

import (
	"context"
	"net/http"

	"github.com/yukikurage/taskboard-web/internal/models"
)

// Users lists every account. Requires an admin token.
func (c *Client) Users(ctx context.Context) ([]models.User, error) {
	const op = "gateway.Users"

	var out struct {
		Users *[]models.User `json:"users"`
	}
	if err := c.do(ctx, request{op: op, method: http.MethodGet, path: "/admin/users"}, &out); err != nil {
		return nil, err
	}
	if out.Users == nil {
		return nil, invalidPayload(op, "response carries no users")
	}
	return *out.Users, nil
}

// Products lists the catalogue shown on the admin dashboard.
func (c *Client) Products(ctx context.Context) ([]models.Product, error) {
	const op = "gateway.Products"

	var out struct {
		Products *[]models.Product `json:"products"`
	}
	if err := c.do(ctx, request{op: op, method: http.MethodGet, path: "/admin/products"}, &out); err != nil {
		return nil, err
	}
	if out.Products == nil {
		return nil, invalidPayload(op, "response carries no products")
	}
	return *out.Products, nil
}
