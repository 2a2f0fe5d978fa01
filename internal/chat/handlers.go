package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/qnkhuat/deepread/internal/conversation"
	"github.com/qnkhuat/deepread/internal/document"
	"github.com/qnkhuat/deepread/internal/llm"
	"github.com/qnkhuat/deepread/internal/logger"
	"github.com/qnkhuat/deepread/internal/provider"
)

// maxUploadBytes bounds multipart document uploads.
const maxUploadBytes = 64 << 20

// Handler exposes a Controller over HTTP.
type Handler struct {
	controller *Controller
	log        logger.Logger
}

// NewHandler returns a Handler for controller.
func NewHandler(controller *Controller, log logger.Logger) *Handler {
	if log == nil {
		log = logger.Discard
	}
	return &Handler{controller: controller, log: log}
}

// Routes mounts every API route on r.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/providers", h.HandleListProviders())
		r.Put("/providers/{name}", h.HandleConfigureProvider())
		r.Post("/providers/{name}/enable", h.HandleEnableProvider())
		r.Post("/providers/{name}/disable", h.HandleDisableProvider())
		r.Post("/providers/{name}/refresh", h.HandleRefreshModels())
		r.Get("/models", h.HandleListModels())
		r.Get("/selection", h.HandleGetSelection())
		r.Put("/selection", h.HandleSelect())
		r.Post("/document", h.HandleUploadDocument())
		r.Post("/chat/stream", h.HandleChatStreamRequest())
		r.Post("/chat/cancel", h.HandleCancel())
		r.Get("/conversation", h.HandleConversation())
		r.Put("/conversation/{index}", h.HandleEditMessage())
		r.Get("/cost", h.HandleCost())
	})
}

// ProviderView is the public shape of a provider. Secrets are never returned.
type ProviderView struct {
	Name        string   `json:"name"`
	Kind        llm.Kind `json:"kind"`
	DisplayName string   `json:"display_name"`
	BaseURL     string   `json:"base_url,omitempty"`
	HasAPIKey   bool     `json:"has_api_key"`
	Configured  bool     `json:"configured"`
	Enabled     bool     `json:"enabled"`
	Models      []string `json:"models"`
	LastError   string   `json:"last_error,omitempty"`
}

// ProviderModels groups the models of one provider.
type ProviderModels struct {
	Provider string   `json:"provider"`
	Models   []string `json:"models"`
}

type streamRequest struct {
	Message string `json:"message"`
}

type editRequest struct {
	Content string `json:"content"`
}

type documentResponse struct {
	Title    string `json:"title"`
	Markdown string `json:"markdown"`
}

func (h *Handler) providerViews() []ProviderView {
	reg := h.controller.Registry()
	providers := reg.Providers()

	views := make([]ProviderView, 0, len(providers))
	for _, p := range providers {
		spec, err := reg.Spec(p.Name)
		if err != nil {
			continue
		}
		views = append(views, ProviderView{
			Name:        p.Name,
			Kind:        p.Kind,
			DisplayName: spec.DisplayName(),
			BaseURL:     p.Credentials.BaseURL,
			HasAPIKey:   strings.TrimSpace(p.Credentials.APIKey) != "",
			Configured:  spec.IsConfigured(p.Credentials),
			Enabled:     p.Enabled,
			Models:      p.Models,
			LastError:   p.LastError,
		})
	}
	return views
}

// HandleListProviders lists every provider in display order.
func (h *Handler) HandleListProviders() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, h.providerViews())
	}
}

// HandleConfigureProvider stores credentials for a provider.
func (h *Handler) HandleConfigureProvider() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var creds provider.Credentials
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("failed to decode request: %w", err))
			return
		}

		name := chi.URLParam(r, "name")
		if err := h.controller.ConfigureProvider(r.Context(), name, creds); err != nil {
			h.fail(w, err)
			return
		}
		h.writeProvider(w, name)
	}
}

// HandleEnableProvider validates credentials with one discovery call.
func (h *Handler) HandleEnableProvider() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		if _, err := h.controller.EnableProvider(r.Context(), name); err != nil {
			h.fail(w, err)
			return
		}
		h.writeProvider(w, name)
	}
}

// HandleDisableProvider disables a provider.
func (h *Handler) HandleDisableProvider() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		if err := h.controller.DisableProvider(r.Context(), name); err != nil {
			h.fail(w, err)
			return
		}
		h.writeProvider(w, name)
	}
}

// HandleRefreshModels re-fetches the model list of an enabled provider.
func (h *Handler) HandleRefreshModels() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		if _, err := h.controller.RefreshModels(r.Context(), name); err != nil {
			h.fail(w, err)
			return
		}
		h.writeProvider(w, name)
	}
}

// HandleListModels returns the cached models of enabled providers, optionally
// filtered by the "filter" query parameter.
func (h *Handler) HandleListModels() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := r.URL.Query().Get("filter")

		out := []ProviderModels{}
		for _, p := range h.controller.Registry().Providers() {
			if !p.Enabled {
				continue
			}
			models := provider.FilterModels(p.Models, filter)
			if len(models) == 0 {
				continue
			}
			out = append(out, ProviderModels{Provider: p.Name, Models: models})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// HandleGetSelection returns the current selection or 204 when unset.
func (h *Handler) HandleGetSelection() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sel, ok := h.controller.Registry().Selection()
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, sel)
	}
}

// HandleSelect sets the current provider and model.
func (h *Handler) HandleSelect() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var sel provider.Selection
		if err := json.NewDecoder(r.Body).Decode(&sel); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("failed to decode request: %w", err))
			return
		}
		if err := h.controller.Select(r.Context(), sel.Provider, sel.Model); err != nil {
			h.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sel)
	}
}

// HandleUploadDocument extracts a PDF and starts a new document session.
func (h *Handler) HandleUploadDocument() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("file is required: %w", err))
			return
		}
		defer file.Close()

		if !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
			writeError(w, http.StatusBadRequest, document.ErrNotPDF)
			return
		}

		markdown, err := document.ExtractText(file, header.Size)
		if err != nil {
			h.fail(w, err)
			return
		}

		if err := h.controller.LoadDocument(header.Filename, markdown); err != nil {
			h.fail(w, err)
			return
		}

		h.log.Info("Document loaded", map[string]interface{}{
			"title": header.Filename,
			"bytes": header.Size,
		})
		writeJSON(w, http.StatusOK, documentResponse{Title: header.Filename, Markdown: markdown})
	}
}

// HandleChatStreamRequest sends a message and streams the reply as
// server-sent events.
func (h *Handler) HandleChatStreamRequest() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req streamRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("failed to decode request: %w", err))
			return
		}
		if strings.TrimSpace(req.Message) == "" {
			writeError(w, http.StatusBadRequest, ErrEmptyMessage)
			return
		}

		h.stream(w, r, func(ctx context.Context, onDelta DeltaFunc) error {
			_, err := h.controller.Send(ctx, req.Message, onDelta)
			return err
		})
	}
}

// HandleEditMessage edits a message and streams the regenerated reply when
// the edited message was a user message.
func (h *Handler) HandleEditMessage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, err := strconv.Atoi(chi.URLParam(r, "index"))
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid index: %w", err))
			return
		}

		var req editRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("failed to decode request: %w", err))
			return
		}

		msg, err := h.controller.Conversation().At(index)
		if err != nil {
			h.fail(w, err)
			return
		}
		if msg.Role != conversation.RoleUser {
			if _, err := h.controller.Edit(r.Context(), index, req.Content, nil); err != nil {
				h.fail(w, err)
				return
			}
			writeJSON(w, http.StatusOK, h.controller.Conversation().Visible())
			return
		}

		h.stream(w, r, func(ctx context.Context, onDelta DeltaFunc) error {
			_, err := h.controller.Edit(ctx, index, req.Content, onDelta)
			return err
		})
	}
}

// HandleCancel stops the in-flight reply.
func (h *Handler) HandleCancel() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.controller.Cancel()
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleConversation returns the visible transcript.
func (h *Handler) HandleConversation() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, h.controller.Conversation().Visible())
	}
}

// HandleCost returns the running session cost.
func (h *Handler) HandleCost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, h.controller.Costs().Snapshot())
	}
}

// stream runs send and relays its deltas as server-sent events. Errors that
// happen before the first event are returned as plain JSON errors.
func (h *Handler) stream(w http.ResponseWriter, r *http.Request, send func(context.Context, DeltaFunc) error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errors.New("streaming not supported"))
		return
	}

	started := false
	startSSE := func() {
		if started {
			return
		}
		started = true
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)
	}

	var writeErr error
	err := send(r.Context(), func(d Delta) {
		startSSE()
		if writeErr != nil {
			return
		}
		writeErr = writeEvent(w, flusher, d)
	})

	if writeErr != nil {
		h.log.Warn("Failed to write stream event", map[string]interface{}{logger.ErrorKey: writeErr.Error()})
	}
	if err == nil {
		return
	}
	if !started {
		h.fail(w, err)
		return
	}

	if errors.Is(err, context.Canceled) {
		_ = writeEvent(w, flusher, map[string]interface{}{"cancelled": true})
		return
	}
	_ = writeEvent(w, flusher, map[string]string{"error": err.Error()})
}

func writeEvent(w io.Writer, flusher http.Flusher, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal stream chunk: %w", err)
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("error writing response: %w", err)
	}
	flusher.Flush()
	return nil
}

func (h *Handler) writeProvider(w http.ResponseWriter, name string) {
	for _, v := range h.providerViews() {
		if v.Name == name {
			writeJSON(w, http.StatusOK, v)
			return
		}
	}
	writeError(w, http.StatusNotFound, fmt.Errorf("%w: %s", provider.ErrUnknownProvider, name))
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("Request failed", map[string]interface{}{logger.ErrorKey: err.Error(), "status": status})
	}

	body := map[string]string{"error": err.Error()}
	var rejected *llm.RejectedError
	if errors.As(err, &rejected) {
		if p, perr := h.controller.Registry().Get(rejected.Provider); perr == nil {
			body["guidance"] = llm.Guidance(p.Kind)
		}
	}
	writeJSON(w, status, body)
}

// StatusFor maps domain errors to HTTP status codes.
func StatusFor(err error) int {
	var interrupted *llm.StreamInterruptedError
	switch {
	case errors.Is(err, provider.ErrUnknownProvider):
		return http.StatusNotFound
	case errors.Is(err, ErrBusy),
		errors.Is(err, provider.ErrCredentialsChanged),
		errors.Is(err, conversation.ErrStreamActive),
		errors.Is(err, conversation.ErrEditWhileStreaming):
		return http.StatusConflict
	case errors.Is(err, conversation.ErrOutOfRange),
		errors.Is(err, document.ErrNotPDF),
		errors.Is(err, ErrEmptyMessage),
		errors.Is(err, ErrNoSelection),
		errors.Is(err, provider.ErrNotEnabled),
		llm.IsConfiguration(err):
		return http.StatusBadRequest
	case errors.As(err, &interrupted):
		return http.StatusBadGateway
	case llm.IsRejected(err):
		return http.StatusBadGateway
	case llm.IsUnreachable(err):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled):
		return 499
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
