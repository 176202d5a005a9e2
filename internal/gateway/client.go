// Package gateway issues the HTTP requests of the board client against the
// remote REST API and normalizes their outcomes into typed errors. It never
// touches client-side state; callers decide what to do with the results.
package gateway

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/valyala/fasthttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/yukikurage/taskboard-web/internal/errors"
)

const tracerName = "github.com/yukikurage/taskboard-web/internal/gateway"

const (
	contentTypeJSON = "application/json"
	defaultTimeout  = 10 * time.Second
)

// Config configures a Client.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client talks to one remote API. A Client is safe for concurrent use; the
// copies returned by WithToken share the underlying connection pool.
type Client struct {
	baseURL string
	token   string
	timeout time.Duration
	http    *fasthttp.Client
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: cfg.BaseURL,
		timeout: timeout,
		http: &fasthttp.Client{
			Name:                "taskboard-web",
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: time.Minute,
		},
	}
}

// WithToken returns a client that sends token as a bearer credential.
func (c *Client) WithToken(token string) *Client {
	scoped := *c
	scoped.token = token
	return &scoped
}

// BaseURL returns the API root requests are issued against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type request struct {
	op          string
	method      string
	path        string
	body        []byte
	contentType string
}

type messageBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// do sends r and decodes a 2xx body into out when out is non-nil.
func (c *Client) do(ctx context.Context, r request, out any) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, r.op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", r.method),
			attribute.String("url.path", r.path),
		),
	)
	defer span.End()

	err := c.roundTrip(ctx, r, out, span)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, r request, out any, span trace.Span) error {
	if err := ctx.Err(); err != nil {
		return apperrors.Wrap(apperrors.KindNetwork, r.op, err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + r.path)
	req.Header.SetMethod(r.method)
	req.Header.Set("Accept", contentTypeJSON)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if r.body != nil {
		req.Header.SetContentType(r.contentType)
		req.SetBody(r.body)
	}

	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = c.http.DoDeadline(req, resp, deadline)
	} else {
		err = c.http.DoTimeout(req, resp, c.timeout)
	}
	if err != nil {
		return &apperrors.Error{
			Kind:    apperrors.KindNetwork,
			Op:      r.op,
			Message: "request did not complete",
			Err:     err,
		}
	}

	status := resp.StatusCode()
	span.SetAttributes(attribute.Int("http.response.status_code", status))
	body := resp.Body()
	if status < 200 || status > 299 {
		return statusError(r.op, status, body)
	}
	if out == nil {
		return nil
	}
	// resp is released on return, so raw bodies must be copied out.
	if raw, ok := out.(*[]byte); ok {
		*raw = append((*raw)[:0], body...)
		return nil
	}
	if err := sonic.Unmarshal(body, out); err != nil {
		return &apperrors.Error{
			Kind:    apperrors.KindInvalidPayload,
			Op:      r.op,
			Status:  status,
			Message: "response body is not the expected shape",
			Err:     err,
		}
	}
	return nil
}

func statusError(op string, status int, body []byte) error {
	var kind apperrors.Kind
	switch {
	case status == http.StatusBadRequest || status == http.StatusConflict || status == http.StatusUnprocessableEntity:
		kind = apperrors.KindValidation
	case status == http.StatusNotFound:
		kind = apperrors.KindNotFound
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = apperrors.KindUnauthorized
	default:
		kind = apperrors.KindNetwork
	}

	message := fmt.Sprintf("unexpected status %d", status)
	var mb messageBody
	if len(body) > 0 && sonic.Unmarshal(body, &mb) == nil {
		switch {
		case mb.Message != "":
			message = mb.Message
		case mb.Error != "":
			message = mb.Error
		}
	}
	return &apperrors.Error{Kind: kind, Op: op, Status: status, Message: message}
}

func encodeJSON(op string, v any) ([]byte, error) {
	b, err := sonic.Marshal(v)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, op, err)
	}
	return b, nil
}

func invalidPayload(op, message string) error {
	return &apperrors.Error{Kind: apperrors.KindInvalidPayload, Op: op, Message: message}
}

// isJSONArray reports whether body holds a JSON array rather than any other value.
func isJSONArray(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) > 0 && trimmed[0] == '['
}
