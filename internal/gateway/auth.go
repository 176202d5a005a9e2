package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	apperrors "github.com/yukikurage/taskboard-web/internal/errors"
	"github.com/yukikurage/taskboard-web/internal/models"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type userResponse struct {
	User *models.User `json:"user"`
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	const op = "gateway.Login"

	body, err := encodeJSON(op, loginRequest{Email: email, Password: password})
	if err != nil {
		return "", err
	}
	var out tokenResponse
	err = c.do(ctx, request{op: op, method: http.MethodPost, path: "/auth/login", body: body, contentType: contentTypeJSON}, &out)
	if err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", invalidPayload(op, "login response carries no token")
	}
	return out.Token, nil
}

// Signup registers an account. The form is sent as multipart so the optional
// profile image travels with it.
func (c *Client) Signup(ctx context.Context, in models.Signup) error {
	const op = "gateway.Signup"

	body, contentType, err := signupForm(in)
	if err != nil {
		return apperrors.Wrap(apperrors.KindInternal, op, err)
	}
	return c.do(ctx, request{op: op, method: http.MethodPost, path: "/auth/signup", body: body, contentType: contentType}, nil)
}

// CurrentUser returns the profile of the token's owner.
func (c *Client) CurrentUser(ctx context.Context) (models.User, error) {
	const op = "gateway.CurrentUser"
	return c.userCall(ctx, request{op: op, method: http.MethodGet, path: "/auth/current-user"})
}

// UpdateProfile saves the editable profile fields and returns the new profile.
func (c *Client) UpdateProfile(ctx context.Context, in models.ProfileUpdate) (models.User, error) {
	const op = "gateway.UpdateProfile"

	body, err := encodeJSON(op, in)
	if err != nil {
		return models.User{}, err
	}
	return c.userCall(ctx, request{op: op, method: http.MethodPut, path: "/auth/update-profile", body: body, contentType: contentTypeJSON})
}

// Logout tells the API to end the token's session.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, request{op: "gateway.Logout", method: http.MethodPost, path: "/auth/logout"}, nil)
}

func (c *Client) userCall(ctx context.Context, r request) (models.User, error) {
	var out userResponse
	if err := c.do(ctx, r, &out); err != nil {
		return models.User{}, err
	}
	if out.User == nil {
		return models.User{}, invalidPayload(r.op, "response carries no user")
	}
	return *out.User, nil
}

func signupForm(in models.Signup) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := []struct{ name, value string }{
		{"username", in.Username},
		{"email", in.Email},
		{"password", in.Password},
		{"address", in.Address},
		{"country", in.Country},
		{"city", in.City},
	}
	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", err
		}
	}

	if in.Image != nil {
		src, err := in.Image.Open()
		if err != nil {
			return nil, "", fmt.Errorf("open image: %w", err)
		}
		defer src.Close()

		part, err := w.CreateFormFile("image", in.Image.Filename)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, src); err != nil {
			return nil, "", fmt.Errorf("copy image: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
