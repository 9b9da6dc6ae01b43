package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"verisite/internal/analytics"
	"verisite/internal/presale"
	"verisite/internal/subscribe"
	"verisite/pkg/realtime"
)

const maxBodyBytes = 16 << 10

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type APIHandler struct {
	subs  *subscribe.Service
	sink  analytics.Sink
	sale  *presale.Service
	db    Pinger
	clock realtime.Clock
	log   *zap.Logger
}

func NewAPIHandler(subs *subscribe.Service, sink analytics.Sink, sale *presale.Service, db Pinger, clock realtime.Clock, logger *zap.Logger) *APIHandler {
	if clock == nil {
		clock = realtime.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIHandler{subs: subs, sink: sink, sale: sale, db: db, clock: clock, log: logger}
}

// RegisterRoutes mounts the JSON endpoints on r, which is expected to be the
// /api sub-router.
func (h *APIHandler) RegisterRoutes(r chi.Router) {
	r.Post("/subscribe", h.subscribe)
	r.Post("/track", h.track)
	r.Get("/presale/status", h.presaleStatus)
	r.Get("/health", h.health)
}

type subscribeResponse struct {
	Status string `json:"status"`
	Email  string `json:"email"`
}

func (h *APIHandler) subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribe.Request
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sub, err := h.subs.Subscribe(r.Context(), req, clientIP(r))
	var rl *subscribe.RateLimitError
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, subscribeResponse{Status: "subscribed", Email: sub.Email})
	case errors.Is(err, subscribe.ErrInvalidEmail):
		writeError(w, http.StatusBadRequest, "please enter a valid email address")
	case errors.Is(err, subscribe.ErrAlreadySubscribed):
		writeError(w, http.StatusConflict, "this address is already subscribed")
	case errors.As(err, &rl):
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(rl.RetryAfter.Seconds()))))
		writeError(w, http.StatusTooManyRequests, "too many attempts, please try again later")
	case errors.Is(err, subscribe.ErrProvider):
		writeError(w, http.StatusBadGateway, "could not reach the mailing list, please try again")
	default:
		h.log.Error("subscribe failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *APIHandler) track(w http.ResponseWriter, r *http.Request) {
	var ev analytics.Event
	if err := decodeJSON(w, r, &ev); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ev.Time = h.clock.Now()
	if ev.Referrer == "" {
		ev.Referrer = r.Referer()
	}
	if err := ev.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.sink.Send(r.Context(), ev); err != nil {
		h.log.Warn("forward event", zap.String("name", ev.Name), zap.Error(err))
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *APIHandler) presaleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sale.Status())
}

func (h *APIHandler) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.db.PingContext(ctx); err != nil {
		h.log.Warn("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return dec.Decode(dst)
}

// clientIP is the rate-limit identity. RealIP has already replaced RemoteAddr
// when a proxy header was present.
func clientIP(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
