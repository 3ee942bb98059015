package client

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"paysync/internal/domain/payment"
	"paysync/internal/provider/stripe"

	"github.com/go-resty/resty/v2"
)

// Client talks to the paysync HTTP surfaces
type Client struct {
	http *resty.Client
}

// New creates a client for baseURL, e.g. http://localhost:8080
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "paysync-cli")
	return &Client{http: rc}
}

// APIError is a non-2xx answer from the server
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("paysync: HTTP %d: %s", e.StatusCode, e.Message)
}

type errorBody struct {
	Error string `json:"error"`
}

type CreatePaymentReq struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Amount string `json:"amount"`
}

type CreatePaymentResp struct {
	ClientSecret string `json:"clientSecret"`
	AttemptID    string `json:"attemptId"`
}

// CreatePayment posts a payment request; amount is sent as a JSON string so
// that no float conversion happens on the way.
func (c *Client) CreatePayment(ctx context.Context, req CreatePaymentReq) (*CreatePaymentResp, error) {
	var out CreatePaymentResp
	var eb errorBody
	res, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		SetError(&eb).
		Post("/api/v1/payments")
	if err != nil {
		return nil, err
	}
	if res.IsError() {
		return nil, &APIError{StatusCode: res.StatusCode(), Message: eb.Error}
	}
	return &out, nil
}

// Status implements poller.StatusSource
func (c *Client) Status(ctx context.Context, attemptID string) (payment.Status, error) {
	var out struct {
		Status payment.Status `json:"status"`
	}
	var eb errorBody
	res, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&eb).
		Get("/api/v1/payments/" + url.PathEscape(attemptID) + "/status")
	if err != nil {
		return "", err
	}
	if res.IsError() {
		return "", &APIError{StatusCode: res.StatusCode(), Message: eb.Error}
	}
	if !out.Status.IsValid() {
		return "", fmt.Errorf("paysync: unexpected status %q", out.Status)
	}
	return out.Status, nil
}

// Notify delivers a raw webhook body with a signature header
func (c *Client) Notify(ctx context.Context, body []byte, signature string) error {
	var eb errorBody
	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader(stripe.SignatureHeader, signature).
		SetBody(body).
		SetError(&eb).
		Post("/webhooks/stripe")
	if err != nil {
		return err
	}
	if res.IsError() {
		return &APIError{StatusCode: res.StatusCode(), Message: eb.Error}
	}
	return nil
}
