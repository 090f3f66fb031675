package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/pliu/attention-tracker/internal/models"
	"github.com/pliu/attention-tracker/internal/store"
)

// Publisher receives an event after every successful mutation.
type Publisher interface {
	Publish(event models.Event)
}

type ItemHandler struct {
	Store store.Store
	Hub   Publisher
}

// CreateItemRequest leaves Priority nil when the field is omitted.
type CreateItemRequest struct {
	Title    string `json:"title"`
	Notes    string `json:"notes"`
	Priority *int   `json:"priority"`
}

// UpdateItemRequest uses pointers so omitted fields are left alone.
type UpdateItemRequest struct {
	Title    *string `json:"title"`
	Notes    *string `json:"notes"`
	Priority *int    `json:"priority"`
	Status   *string `json:"status"`
}

func (h *ItemHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && !models.ValidStatus(status) {
		http.Error(w, "invalid status", http.StatusBadRequest)
		return
	}

	items, err := h.Store.ListItems(status)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, items)
}

func (h *ItemHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req CreateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	item := &models.Item{
		Title:    strings.TrimSpace(req.Title),
		Notes:    req.Notes,
		Priority: models.DefaultPriority,
		Status:   models.StatusOpen,
	}
	if req.Priority != nil {
		item.Priority = *req.Priority
	}
	if msg := validate(item); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	if err := h.Store.CreateItem(item); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.publish(models.EventItemCreated, *item)
	writeJSON(w, http.StatusCreated, item)
}

func (h *ItemHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	item, err := h.Store.GetItem(id)
	if err != nil {
		storeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, item)
}

func (h *ItemHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	var req UpdateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	item, err := h.Store.GetItem(id)
	if err != nil {
		storeError(w, err)
		return
	}

	if req.Title != nil {
		item.Title = strings.TrimSpace(*req.Title)
	}
	if req.Notes != nil {
		item.Notes = *req.Notes
	}
	if req.Priority != nil {
		item.Priority = *req.Priority
	}
	if req.Status != nil {
		item.Status = *req.Status
	}
	if msg := validate(item); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	if err := h.Store.UpdateItem(item); err != nil {
		storeError(w, err)
		return
	}

	h.publish(models.EventItemUpdated, *item)
	writeJSON(w, http.StatusOK, item)
}

func (h *ItemHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	item, err := h.Store.GetItem(id)
	if err != nil {
		storeError(w, err)
		return
	}
	if err := h.Store.DeleteItem(id); err != nil {
		storeError(w, err)
		return
	}

	h.publish(models.EventItemDeleted, *item)
	w.WriteHeader(http.StatusNoContent)
}

func (h *ItemHandler) publish(eventType string, item models.Item) {
	if h.Hub == nil {
		return
	}
	h.Hub.Publish(models.Event{Type: eventType, Item: item, At: time.Now().UTC()})
}

func validate(item *models.Item) string {
	switch {
	case item.Title == "":
		return "title is required"
	case item.Priority < models.MinPriority || item.Priority > models.MaxPriority:
		return "priority must be between 1 and 5"
	case !models.ValidStatus(item.Status):
		return "invalid status"
	}
	return ""
}

func itemID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid item id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func storeError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "Item not found", http.StatusNotFound)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
