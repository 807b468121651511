package handler

import (
	"log/slog"
	"net/http"

	"docwindow/internal/dictionary"
	"docwindow/internal/httputil"
	"docwindow/internal/window/datatypes"
	"docwindow/internal/window/model"
)

func fieldNames(descriptor *model.EntityDescriptor) []string {
	fields := descriptor.Binding().Fields()
	out := make([]string, len(fields))
	for i, field := range fields {
		out[i] = field.FieldName()
	}
	return out
}

// DictionaryHandler serves the window dictionary endpoints.
type DictionaryHandler struct {
	provider *dictionary.Provider
	logger   *slog.Logger
}

func NewDictionaryHandler(provider *dictionary.Provider, logger *slog.Logger) *DictionaryHandler {
	return &DictionaryHandler{provider: provider, logger: logger}
}

// WindowLayoutResponse describes one window's tabs and fields to clients.
type WindowLayoutResponse struct {
	WindowID string              `json:"windowId"`
	Caption  string              `json:"caption"`
	Fields   []string            `json:"fields"`
	Tabs     []TabLayoutResponse `json:"tabs"`
}

type TabLayoutResponse struct {
	TabID   string   `json:"tabId"`
	Caption string   `json:"caption"`
	Fields  []string `json:"fields"`
}

// ListWindows lists the defined window ids.
// GET /api/dictionary/windows
func (h *DictionaryHandler) ListWindows(w http.ResponseWriter, r *http.Request) {
	ids, err := h.provider.ListWindowIDs()
	if err != nil {
		handleError(w, err)
		return
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]any{"windows": out})
}

// GetWindowLayout returns one window's compiled layout.
// GET /api/dictionary/windows/{windowId}
func (h *DictionaryHandler) GetWindowLayout(w http.ResponseWriter, r *http.Request) {
	windowID := datatypes.WindowID(r.PathValue("windowId"))

	descriptor, err := h.provider.WindowDescriptor(windowID)
	if err != nil {
		handleError(w, err)
		return
	}

	resp := WindowLayoutResponse{
		WindowID: descriptor.WindowID().String(),
		Caption:  descriptor.Caption(),
		Fields:   fieldNames(descriptor),
	}
	for _, detail := range descriptor.Details() {
		resp.Tabs = append(resp.Tabs, TabLayoutResponse{
			TabID:   detail.DetailID().String(),
			Caption: detail.Caption(),
			Fields:  fieldNames(detail),
		})
	}
	httputil.RespondJSON(w, http.StatusOK, resp)
}

// InvalidateWindow drops one window's compiled descriptor.
// POST /api/dictionary/windows/{windowId}/invalidate
func (h *DictionaryHandler) InvalidateWindow(w http.ResponseWriter, r *http.Request) {
	windowID := datatypes.WindowID(r.PathValue("windowId"))
	h.provider.InvalidateWindow(windowID)
	h.logger.Info("window descriptor invalidated", "window_id", windowID)
	w.WriteHeader(http.StatusNoContent)
}

// InvalidateAll drops every compiled descriptor.
// POST /api/dictionary/invalidate
func (h *DictionaryHandler) InvalidateAll(w http.ResponseWriter, r *http.Request) {
	h.provider.InvalidateAll()
	h.logger.Info("all window descriptors invalidated")
	w.WriteHeader(http.StatusNoContent)
}
