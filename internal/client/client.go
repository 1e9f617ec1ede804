// Package client redeems handshake tokens against a running unlockd.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Hussein-Mazeh/cybervision-unlock/internal/handshake"
)

// ErrUnexpectedStatus is returned for responses the client does not map.
var ErrUnexpectedStatus = errors.New("unexpected response status")

// Client signs and submits redeem requests.
type Client struct {
	BaseURL string
	Secret  []byte
	HTTP    *http.Client
	Now     func() time.Time
}

func New(baseURL string, secret []byte) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Secret:  secret,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
		Now:     time.Now,
	}
}

type redeemRequest struct {
	Token     string `json:"token"`
	Timestamp int64  `json:"timestamp"`
	Signature string `json:"signature"`
}

type redeemResponse struct {
	Success bool   `json:"success"`
	API     string `json:"api"`
	Name    string `json:"name"`
	Error   string `json:"error"`
}

// Redeem signs token with the current time and exchanges it for the owner's
// API key. Server rejections come back as the handshake sentinel errors.
func (c *Client) Redeem(ctx context.Context, token string) (handshake.Redemption, error) {
	ts := c.Now().Unix()
	body, err := json.Marshal(redeemRequest{
		Token:     token,
		Timestamp: ts,
		Signature: handshake.Sign(c.Secret, token, ts),
	})
	if err != nil {
		return handshake.Redemption{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/handshake/redeem", bytes.NewReader(body))
	if err != nil {
		return handshake.Redemption{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return handshake.Redemption{}, fmt.Errorf("redeem request: %w", err)
	}
	defer resp.Body.Close()

	var out redeemResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64*1024)).Decode(&out); err != nil {
		return handshake.Redemption{}, fmt.Errorf("%w: %d (unreadable body)", ErrUnexpectedStatus, resp.StatusCode)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		if !out.Success {
			return handshake.Redemption{}, fmt.Errorf("%w: success=false", ErrUnexpectedStatus)
		}
		return handshake.Redemption{User: out.Name, Secret: out.API}, nil
	case http.StatusBadRequest:
		return handshake.Redemption{}, fmt.Errorf("%w: %s", handshake.ErrInvalidSignature, out.Error)
	case http.StatusNotFound:
		return handshake.Redemption{}, handshake.ErrUnknownToken
	case http.StatusUnauthorized:
		return handshake.Redemption{}, handshake.ErrTokenExpired
	case http.StatusInternalServerError:
		return handshake.Redemption{}, fmt.Errorf("%w: %s", handshake.ErrSecretUnavailable, out.Error)
	default:
		return handshake.Redemption{}, fmt.Errorf("%w: %d %s", ErrUnexpectedStatus, resp.StatusCode, out.Error)
	}
}
