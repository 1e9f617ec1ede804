package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/Hussein-Mazeh/cybervision-unlock/internal/handshake"
	"github.com/Hussein-Mazeh/cybervision-unlock/internal/platform/ratelimiter"
)

// maxBodySize bounds redeem request bodies.
const maxBodySize = 16 * 1024

// DefaultUserHeader carries the identity established by the authenticating
// front end.
const DefaultUserHeader = "X-Authenticated-User"

// Handshaker is the core the handler drives.
type Handshaker interface {
	Issue(ctx context.Context, user string) (handshake.Grant, error)
	Redeem(ctx context.Context, token string, timestamp int64, signature string) (handshake.Redemption, error)
}

// Handler serves the handshake endpoints.
type Handler struct {
	core       Handshaker
	userHeader string
	limiter    *ratelimiter.MapLimiter
	metrics    *Metrics
	log        *slog.Logger
	now        func() time.Time
}

type HandlerOpts struct {
	UserHeader string
	Limiter    *ratelimiter.MapLimiter
	Metrics    *Metrics
	Log        *slog.Logger
}

func NewHandler(core Handshaker, opts HandlerOpts) *Handler {
	if opts.UserHeader == "" {
		opts.UserHeader = DefaultUserHeader
	}
	if opts.Log == nil {
		opts.Log = slog.New(slog.DiscardHandler)
	}
	return &Handler{
		core:       core,
		userHeader: opts.UserHeader,
		limiter:    opts.Limiter,
		metrics:    opts.Metrics,
		log:        opts.Log,
		now:        time.Now,
	}
}

// IssueResponse is returned by the issue endpoint.
type IssueResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

// RedeemRequest is the redeem body. Timestamp may be a JSON number or a
// numeric string; fractional seconds are truncated.
type RedeemRequest struct {
	Token     string      `json:"token"`
	Timestamp json.Number `json:"timestamp"`
	Signature string      `json:"signature"`
}

// RedeemResponse mirrors the web client's expected shape.
type RedeemResponse struct {
	Success bool   `json:"success"`
	API     string `json:"api,omitempty"`
	Name    string `json:"name,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HandleIssue issues a token for the identity in the user header.
func (h *Handler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	user := strings.TrimSpace(r.Header.Get(h.userHeader))
	if user == "" {
		writeJSON(w, http.StatusUnauthorized, RedeemResponse{Error: "Authentication required"})
		return
	}

	grant, err := h.core.Issue(r.Context(), user)
	if err != nil {
		h.log.Error("issue handshake token", "user", user, "err", err)
		writeJSON(w, http.StatusInternalServerError, RedeemResponse{Error: "Internal error"})
		return
	}
	h.metrics.observeIssue()

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, IssueResponse{Token: grant.Token, ExpiresAt: grant.ExpiresAt.Unix()})
}

// HandleRedeem redeems a signed token for the owner's API key.
func (h *Handler) HandleRedeem(w http.ResponseWriter, r *http.Request) {
	if !h.limiter.Allow(clientKey(r), h.now()) {
		h.metrics.observeLimited()
		writeJSON(w, http.StatusTooManyRequests, RedeemResponse{Error: "Too many requests"})
		return
	}

	req, ts, err := decodeRedeem(r)
	if err != nil {
		h.metrics.observeRedeem("bad_request")
		writeJSON(w, http.StatusBadRequest, RedeemResponse{Error: "Invalid request"})
		return
	}

	res, err := h.core.Redeem(r.Context(), req.Token, ts, req.Signature)
	if err != nil {
		status, msg, label := redeemError(err)
		if status == http.StatusInternalServerError {
			h.log.Error("redeem handshake token", "token", handshake.Fingerprint(req.Token), "err", err)
		}
		h.metrics.observeRedeem(label)
		writeJSON(w, status, RedeemResponse{Error: msg})
		return
	}

	h.metrics.observeRedeem("ok")
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, RedeemResponse{Success: true, API: res.Secret, Name: res.User})
}

func decodeRedeem(r *http.Request) (RedeemRequest, int64, error) {
	var req RedeemRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	if err := dec.Decode(&req); err != nil {
		return req, 0, err
	}
	if req.Token == "" || req.Signature == "" || req.Timestamp == "" {
		return req, 0, errors.New("missing field")
	}
	ts, err := parseTimestamp(req.Timestamp)
	return req, ts, err
}

// parseTimestamp accepts integer or fractional seconds and truncates toward zero.
func parseTimestamp(n json.Number) (int64, error) {
	if i, err := n.Int64(); err == nil {
		return i, nil
	}
	f, err := n.Float64()
	if err != nil {
		return 0, err
	}
	// float64(math.MaxInt64) rounds up to 2^63, so the bounds are spelled out.
	if math.IsNaN(f) || f >= 0x1p63 || f < -0x1p63 {
		return 0, errors.New("timestamp out of range")
	}
	return int64(f), nil
}

// redeemError maps core errors to status, client message and metric label.
func redeemError(err error) (int, string, string) {
	switch {
	case errors.Is(err, handshake.ErrInvalidSignature):
		return http.StatusBadRequest, "Invalid signature", "invalid_signature"
	case errors.Is(err, handshake.ErrUnknownToken):
		return http.StatusNotFound, "Token not found", "unknown_token"
	case errors.Is(err, handshake.ErrTokenExpired):
		return http.StatusUnauthorized, "Token expired", "expired"
	default:
		return http.StatusInternalServerError, "Internal error", "error"
	}
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
