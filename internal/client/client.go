// Package client talks to the record service over its REST API.
package client

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

	"github.com/gagliardetto/solana-go"

	"github.com/baharkarakas/qrpay-backend/internal/auth"
	"github.com/baharkarakas/qrpay-backend/internal/models"
	"github.com/baharkarakas/qrpay-backend/internal/payflow"
	"github.com/baharkarakas/qrpay-backend/internal/services"
)

const defaultTimeout = 10 * time.Second

// APIError is a non-2xx response from the record service.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("record service: %d %s", e.Status, e.Message)
	}
	return fmt.Sprintf("record service: %d %s: %s", e.Status, e.Code, e.Message)
}

// Is lets callers test for models.ErrNotFound on a 404.
func (e *APIError) Is(target error) bool {
	return target == models.ErrNotFound && e.Status == http.StatusNotFound
}

var _ payflow.StoreDirectory = (*Client)(nil)

type Client struct {
	base string
	hc   *http.Client
}

func New(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{base: strings.TrimRight(baseURL, "/") + "/api/v1", hc: hc}
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&payload); err == nil {
			apiErr.Code, apiErr.Message = payload.Code, payload.Error
		} else {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func walletQuery(wallet string) string {
	return "?" + url.Values{"walletAddress": {wallet}}.Encode()
}

func (c *Client) GetStoreByUniqueID(ctx context.Context, uniqueID string) (models.Store, error) {
	var s models.Store
	err := c.do(ctx, http.MethodGet, "/stores/"+url.PathEscape(uniqueID), "", nil, &s)
	return s, err
}

// Identity resolves the role registered for wallet.
func (c *Client) Identity(ctx context.Context, wallet string) (models.Identity, error) {
	var resp struct {
		Role    models.Role     `json:"role"`
		Profile json.RawMessage `json:"profile"`
	}
	if err := c.do(ctx, http.MethodGet, "/identity"+walletQuery(wallet), "", nil, &resp); err != nil {
		return models.Identity{}, err
	}
	id := models.Identity{Role: resp.Role}
	var err error
	switch resp.Role {
	case models.RoleConsumer:
		id.Consumer = &models.Consumer{}
		err = json.Unmarshal(resp.Profile, id.Consumer)
	case models.RoleStore:
		id.Store = &models.Store{}
		err = json.Unmarshal(resp.Profile, id.Store)
	}
	return id, err
}

func (c *Client) RegisterConsumer(ctx context.Context, in services.RegisterConsumerInput) (models.Consumer, error) {
	var out models.Consumer
	err := c.do(ctx, http.MethodPost, "/consumers", "", in, &out)
	return out, err
}

func (c *Client) RegisterStore(ctx context.Context, in services.RegisterStoreInput) (models.Store, error) {
	var out models.Store
	err := c.do(ctx, http.MethodPost, "/stores", "", in, &out)
	return out, err
}

func (c *Client) CreateTransaction(ctx context.Context, in services.CreateTransactionInput) (models.Transaction, error) {
	var out models.Transaction
	err := c.do(ctx, http.MethodPost, "/transactions", "", in, &out)
	return out, err
}

func (c *Client) ListTransactions(ctx context.Context, wallet string, role models.Role, limit, offset int) ([]models.Transaction, error) {
	q := url.Values{
		"walletAddress": {wallet},
		"role":          {string(role)},
		"limit":         {strconv.Itoa(limit)},
		"offset":        {strconv.Itoa(offset)},
	}
	var out struct {
		Items []models.Transaction `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, "/transactions?"+q.Encode(), "", nil, &out)
	return out.Items, err
}

// Session is an authenticated wallet.
type Session struct {
	auth.Pair
	Role string `json:"role"`
}

// Login signs a fresh login message with key.
func (c *Client) Login(ctx context.Context, key solana.PrivateKey) (Session, error) {
	msg := auth.LoginMessage(time.Now())
	sig, err := key.Sign([]byte(msg))
	if err != nil {
		return Session{}, err
	}
	in := map[string]string{
		"walletAddress": key.PublicKey().String(),
		"message":       msg,
		"signature":     sig.String(),
	}
	var s Session
	err = c.do(ctx, http.MethodPost, "/auth/login", "", in, &s)
	return s, err
}

func (c *Client) UpdateStatus(ctx context.Context, token, id string, status models.TransactionStatus) (models.Transaction, error) {
	var out models.Transaction
	err := c.do(ctx, http.MethodPatch, "/transactions/"+url.PathEscape(id), token, map[string]string{"status": string(status)}, &out)
	return out, err
}

func (c *Client) RecordRefund(ctx context.Context, token, id, refundTxHash string) (models.Transaction, error) {
	var out models.Transaction
	in := map[string]string{"transactionId": id, "refundTxHash": refundTxHash}
	err := c.do(ctx, http.MethodPost, "/transactions/refund", token, in, &out)
	return out, err
}
