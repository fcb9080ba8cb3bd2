package todoapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/todolite/service/internal/app/items"
)

type Handler struct {
	Service *Service
	Logger  zerolog.Logger
}

func NewHandler(service *Service, logger zerolog.Logger) *Handler {
	return &Handler{Service: service, Logger: logger}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	r.Post("/todos", h.handleCreate)
	r.Get("/todos", h.handleList)
	r.Put("/todos", h.handleUpdate)
	r.Get("/todos/{itemID}", h.handleGet)
	r.Delete("/todos/{itemID}", h.handleMarkDelete)
	r.Post("/todos/{itemID}/complete", h.handleComplete)
	r.Post("/todos/{itemID}/archive", h.handleArchive)
	r.Get("/archives", h.handleListArchives)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.writeError(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}

type createRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type updateRequest struct {
	ItemID  string `json:"item_id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	item, err := h.Service.Create(r.Context(), req.Title, req.Content)
	if err != nil {
		h.Logger.Error().Err(err).Msg("failed to create item")
		h.writeError(w, http.StatusInternalServerError, "failed to create item")
		return
	}
	h.Logger.Info().Str("item_id", item.ItemID).Msg("item created")
	h.writeJSON(w, http.StatusCreated, map[string]string{
		"message": "Todo created successfully",
		"item_id": item.ItemID,
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")
	item, err := h.Service.Get(r.Context(), itemID)
	if err != nil {
		switch {
		case errors.Is(err, ErrItemIDRequired):
			h.writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, items.ErrNotFound):
			h.Logger.Debug().Str("item_id", itemID).Msg("item not found")
			h.writeError(w, http.StatusNotFound, "item not found")
		default:
			h.Logger.Error().Err(err).Str("item_id", itemID).Msg("failed to fetch item")
			h.writeError(w, http.StatusBadGateway, "failed to fetch item")
		}
		return
	}
	h.writeJSON(w, http.StatusOK, item.View())
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if err := h.Service.Update(r.Context(), req.ItemID, req.Title, req.Content); err != nil {
		if errors.Is(err, ErrFieldsRequired) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.Logger.Error().Err(err).Str("item_id", req.ItemID).Msg("failed to update item")
		h.writeError(w, http.StatusInternalServerError, "failed to update item")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")
	if err := h.Service.Complete(r.Context(), itemID); err != nil {
		if errors.Is(err, ErrItemIDRequired) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.Logger.Error().Err(err).Str("item_id", itemID).Msg("failed to complete item")
		h.writeError(w, http.StatusInternalServerError, "failed to complete item")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleArchive(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")
	if err := h.Service.Archive(r.Context(), itemID); err != nil {
		if errors.Is(err, ErrItemIDRequired) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.Logger.Error().Err(err).Str("item_id", itemID).Msg("failed to archive item")
		h.writeError(w, http.StatusBadGateway, "failed to archive item")
		return
	}
	h.Logger.Info().Str("item_id", itemID).Msg("item archived")
	h.writeJSON(w, http.StatusOK, map[string]string{
		"message": "Item " + itemID + " archived successfully",
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	all, err := h.Service.List(r.Context())
	if err != nil {
		h.Logger.Error().Err(err).Msg("failed to list items")
		h.writeError(w, http.StatusBadGateway, "failed to list items")
		return
	}
	views := make([]items.View, 0, len(all))
	for _, item := range all {
		views = append(views, item.View())
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"items": views,
		"count": len(views),
	})
}

func (h *Handler) handleListArchives(w http.ResponseWriter, r *http.Request) {
	keys, err := h.Service.ListArchives(r.Context())
	if err != nil {
		h.Logger.Error().Err(err).Msg("failed to list archives")
		h.writeError(w, http.StatusBadGateway, "failed to list archives")
		return
	}
	h.writeJSON(w, http.StatusOK, keys)
}

func (h *Handler) handleMarkDelete(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")
	if err := h.Service.RequestDelete(r.Context(), itemID); err != nil {
		switch {
		case errors.Is(err, ErrItemIDRequired):
			h.writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrQueueAddressMissing):
			h.Logger.Error().Str("item_id", itemID).Msg("delete queue subject missing from parameter store")
			h.writeError(w, http.StatusInternalServerError, "failed to resolve delete queue address")
		default:
			h.Logger.Error().Err(err).Str("item_id", itemID).Msg("failed to enqueue delete request")
			h.writeError(w, http.StatusInternalServerError, "failed to send delete request")
		}
		return
	}
	h.Logger.Info().Str("item_id", itemID).Msg("delete requested")
	h.writeJSON(w, http.StatusAccepted, map[string]string{
		"message": "Delete requested successfully",
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}
