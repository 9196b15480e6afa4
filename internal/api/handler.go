package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/eugenenazirov/sut-config/internal/configstore"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// Handler exposes a ConfigStore over HTTP.
type Handler struct {
	store configstore.ConfigStore

	clock func() time.Time

	// writeMu serialises read-modify-write cycles issued through this process.
	writeMu sync.Mutex
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(store configstore.ConfigStore, opts ...HandlerOption) *Handler {
	h := &Handler{
		store: store,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleSource(w http.ResponseWriter, r *http.Request) {
	_ = r
	writeJSON(w, http.StatusOK, sourceResponse{Path: h.store.ResolvePath()})
}

func (h *Handler) handleGetValue(w http.ResponseWriter, r *http.Request) {
	section := r.PathValue("section")
	option := r.PathValue("option")

	value, err := h.store.GetValue(section, option)
	if err != nil {
		writeStoreError(w, http.StatusNotFound, "Option not found", err)
		return
	}

	writeJSON(w, http.StatusOK, valueResponse{
		Section: section,
		Option:  option,
		Value:   value,
	})
}

func (h *Handler) handlePutValue(w http.ResponseWriter, r *http.Request) {
	section := r.PathValue("section")
	option := r.PathValue("option")

	var req setValueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload", configstore.InvalidInput)
		return
	}

	h.writeMu.Lock()
	err := h.store.SetValue(section, option, req.Value)
	h.writeMu.Unlock()

	if err != nil {
		if configstore.CodeOf(err) == configstore.InvalidInput {
			writeStoreError(w, http.StatusBadRequest, "Invalid input", err)
			return
		}
		writeStoreError(w, http.StatusInternalServerError, "Environment failure", err)
		return
	}

	writeJSON(w, http.StatusOK, valueResponse{
		Section: section,
		Option:  option,
		Value:   req.Value,
		Message: "Option updated successfully",
	})
}

func (h *Handler) handlePlatform(w http.ResponseWriter, r *http.Request) {
	_ = r
	writeJSON(w, http.StatusOK, platformResponse{Platform: h.store.Platform()})
}

func (h *Handler) handlePlatformItem(w http.ResponseWriter, r *http.Request) {
	item := r.PathValue("item")

	platform, value, err := h.store.PlatformItem(item)
	if err != nil {
		writeStoreError(w, http.StatusNotFound, "Platform item not found", err)
		return
	}

	writeJSON(w, http.StatusOK, platformItemResponse{
		Platform: platform,
		Item:     item,
		Value:    value,
	})
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type setValueRequest struct {
	Value string `json:"value"`
}

type valueResponse struct {
	Section string `json:"section"`
	Option  string `json:"option"`
	Value   string `json:"value"`
	Message string `json:"message,omitempty"`
}

type sourceResponse struct {
	Path string `json:"path"`
}

type platformResponse struct {
	Platform string `json:"platform"`
}

type platformItemResponse struct {
	Platform string `json:"platform"`
	Item     string `json:"item"`
	Value    string `json:"value"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Code    string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, code ...configstore.ResultCode) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(code) > 0 {
		resp.Code = code[0].String()
	}
	writeJSON(w, status, resp)
}

func writeStoreError(w http.ResponseWriter, status int, message string, err error) {
	writeError(w, status, message, err.Error(), configstore.CodeOf(err))
}
