package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ayusman/signlink/internal/app"
	"github.com/ayusman/signlink/internal/clips"
	"github.com/ayusman/signlink/internal/gesture"
	"github.com/ayusman/signlink/internal/server/api"
	"github.com/ayusman/signlink/internal/store"
)

type sessionHandler struct {
	app *app.App
	log *slog.Logger
}

type messageResponse struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Sender    string `json:"sender"`
	Source    string `json:"source"`
	CreatedAt string `json:"created_at"`
}

func toMessage(m *store.Message) messageResponse {
	return messageResponse{
		ID:        m.ID,
		Text:      m.Text,
		Sender:    string(m.Sender),
		Source:    string(m.Source),
		CreatedAt: m.CreatedAt.Format(time.RFC3339),
	}
}

type triggerResponse struct {
	Applied bool         `json:"applied"`
	Session app.Snapshot `json:"session"`
}

func (h *sessionHandler) get(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, h.app.Snapshot())
}

func (h *sessionHandler) commit(w http.ResponseWriter, r *http.Request) {
	ok := h.app.Commit()
	api.WriteJSON(w, http.StatusOK, triggerResponse{Applied: ok, Session: h.app.Snapshot()})
}

func (h *sessionHandler) reset(w http.ResponseWriter, r *http.Request) {
	ok := h.app.Reset()
	api.WriteJSON(w, http.StatusOK, triggerResponse{Applied: ok, Session: h.app.Snapshot()})
}

func (h *sessionHandler) speak(w http.ResponseWriter, r *http.Request) {
	msg, ok := h.app.Speak()
	resp := struct {
		triggerResponse
		Message *messageResponse `json:"message,omitempty"`
	}{triggerResponse: triggerResponse{Applied: ok, Session: h.app.Snapshot()}}
	if ok {
		m := toMessage(msg)
		resp.Message = &m
	}
	api.WriteJSON(w, http.StatusOK, resp)
}

type cameraRequest struct {
	On *bool `json:"on"`
}

// camera toggles without a body, or sets {"on": bool}.
func (h *sessionHandler) camera(w http.ResponseWriter, r *http.Request) {
	var req cameraRequest
	if r.ContentLength != 0 {
		if err := api.DecodeJSON(w, r, &req); err != nil {
			api.WriteError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
	}

	var err error
	if req.On != nil {
		err = h.app.SetCamera(*req.On)
	} else {
		_, err = h.app.ToggleCamera()
	}
	if err != nil {
		h.log.Error("camera toggle failed", "error", err)
		api.WriteError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	api.WriteJSON(w, http.StatusOK, h.app.Snapshot())
}

type tableRequest struct {
	Name string `json:"name"`
}

func (h *sessionHandler) table(w http.ResponseWriter, r *http.Request) {
	var req tableRequest
	if err := api.DecodeJSON(w, r, &req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := h.app.SetTable(req.Name); err != nil {
		if errors.Is(err, gesture.ErrUnknownTable) {
			api.WriteError(w, http.StatusNotFound, "Table not found")
			return
		}
		api.WriteError(w, http.StatusInternalServerError, "Failed to switch table")
		return
	}
	api.WriteJSON(w, http.StatusOK, h.app.Snapshot())
}

type listMessagesResponse struct {
	Messages []messageResponse `json:"messages"`
}

func (h *sessionHandler) listMessages(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			api.WriteError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	msgs, err := h.app.Messages(limit)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "Failed to list messages")
		return
	}
	resp := listMessagesResponse{Messages: make([]messageResponse, 0, len(msgs))}
	for _, m := range msgs {
		resp.Messages = append(resp.Messages, toMessage(m))
	}
	api.WriteJSON(w, http.StatusOK, resp)
}

type submitRequest struct {
	Text string `json:"text"`
}

type submitResponse struct {
	Message messageResponse `json:"message"`
	Session app.Snapshot    `json:"session"`
}

func (h *sessionHandler) submitMessage(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := api.DecodeJSON(w, r, &req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	msg, err := h.app.SubmitText(r.Context(), req.Text)
	if err != nil {
		if errors.Is(err, app.ErrEmptyText) {
			api.WriteError(w, http.StatusBadRequest, "Text is required")
			return
		}
		api.WriteError(w, http.StatusInternalServerError, "Failed to submit message")
		return
	}
	api.WriteJSON(w, http.StatusCreated, submitResponse{Message: toMessage(msg), Session: h.app.Snapshot()})
}

type clipResponse struct {
	ID      string         `json:"id"`
	Sources []clips.Source `json:"sources"`
}

func (h *sessionHandler) clipEnded(w http.ResponseWriter, r *http.Request) {
	next, ok := h.app.ClipEnded()
	resp := struct {
		Next    *clipResponse `json:"next"`
		Session app.Snapshot  `json:"session"`
	}{}
	if ok {
		srcs, _ := h.app.Clips().Sources(next)
		resp.Next = &clipResponse{ID: string(next), Sources: srcs}
	}
	resp.Session = h.app.Snapshot()
	api.WriteJSON(w, http.StatusOK, resp)
}

func (h *sessionHandler) clipSources(w http.ResponseWriter, r *http.Request) {
	id := clips.ID(chi.URLParam(r, "id"))
	srcs, err := h.app.Clips().Sources(id)
	if err != nil {
		api.WriteError(w, http.StatusNotFound, "Clip not found")
		return
	}
	api.WriteJSON(w, http.StatusOK, clipResponse{ID: string(id), Sources: srcs})
}
