package handler

import (
	"log/slog"
	"net/http"

	"docwindow/internal/httputil"
	"docwindow/internal/service"
	"docwindow/internal/window/datatypes"
)

// WindowHandler serves the document window endpoints.
type WindowHandler struct {
	windows *service.WindowService
	logger  *slog.Logger
}

func NewWindowHandler(windows *service.WindowService, logger *slog.Logger) *WindowHandler {
	return &WindowHandler{windows: windows, logger: logger}
}

// HealthCheck reports liveness.
// GET /health
func (h *WindowHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListDocuments lists root documents with filters, sorting and paging.
// POST /api/window/{windowId}/documents
func (h *WindowHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	windowID := datatypes.WindowID(r.PathValue("windowId"))

	var req DocumentListRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	filters, err := toFilterList(req.Filters)
	if err != nil {
		handleError(w, err)
		return
	}
	limit, err := toPageLimit(req.Limit)
	if err != nil {
		handleError(w, err)
		return
	}

	docs, err := h.windows.GetRootDocuments(r.Context(), service.DocumentsPageRequest{
		WindowID: windowID,
		Filters:  filters,
		OrderBys: toOrderBys(req.OrderBys),
		Limit:    limit,
		Offset:   req.Offset,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, newDocumentListResponse(docs))
}

// GetDocument returns one root document.
// GET /api/window/{windowId}/{documentId}
func (h *WindowHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	windowID := datatypes.WindowID(r.PathValue("windowId"))
	documentID := datatypes.NewDocumentID(r.PathValue("documentId"))

	doc, err := h.windows.GetRootDocument(r.Context(), windowID, documentID)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, newDocumentResponse(doc))
}

// UpdateDocument applies field values to a root document.
// PATCH /api/window/{windowId}/{documentId}
func (h *WindowHandler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	windowID := datatypes.WindowID(r.PathValue("windowId"))
	documentID := datatypes.NewDocumentID(r.PathValue("documentId"))

	var req UpdateDocumentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	fieldValues, err := toFieldValues(req.FieldValues)
	if err != nil {
		handleError(w, err)
		return
	}

	result, err := h.windows.UpdateRootDocument(r.Context(), windowID, documentID, fieldValues)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, newMutationResponse(result))
}

// GetDocumentVersion returns the document's stored version string.
// GET /api/window/{windowId}/{documentId}/version
func (h *WindowHandler) GetDocumentVersion(w http.ResponseWriter, r *http.Request) {
	windowID := datatypes.WindowID(r.PathValue("windowId"))
	documentID := datatypes.NewDocumentID(r.PathValue("documentId"))

	version, err := h.windows.CheckVersion(r.Context(), windowID, documentID)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, VersionResponse{Version: version})
}

// ListTabRows returns all rows of a detail tab.
// GET /api/window/{windowId}/{documentId}/{tabId}
func (h *WindowHandler) ListTabRows(w http.ResponseWriter, r *http.Request) {
	windowID := datatypes.WindowID(r.PathValue("windowId"))
	documentID := datatypes.NewDocumentID(r.PathValue("documentId"))
	tabID := datatypes.DetailID(r.PathValue("tabId"))

	rows, err := h.windows.GetTabRows(r.Context(), windowID, documentID, tabID)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, newDocumentListResponse(rows))
}

// GetTabRow returns one row of a detail tab.
// GET /api/window/{windowId}/{documentId}/{tabId}/{rowId}
func (h *WindowHandler) GetTabRow(w http.ResponseWriter, r *http.Request) {
	windowID := datatypes.WindowID(r.PathValue("windowId"))
	documentID := datatypes.NewDocumentID(r.PathValue("documentId"))
	tabID := datatypes.DetailID(r.PathValue("tabId"))
	rowID := datatypes.NewDocumentID(r.PathValue("rowId"))

	row, err := h.windows.GetTabRow(r.Context(), windowID, documentID, tabID, rowID)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, newDocumentResponse(row))
}

// CreateTabRow creates a new row in a detail tab.
// POST /api/window/{windowId}/{documentId}/{tabId}
func (h *WindowHandler) CreateTabRow(w http.ResponseWriter, r *http.Request) {
	windowID := datatypes.WindowID(r.PathValue("windowId"))
	documentID := datatypes.NewDocumentID(r.PathValue("documentId"))
	tabID := datatypes.DetailID(r.PathValue("tabId"))

	var req UpdateDocumentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	fieldValues, err := toFieldValues(req.FieldValues)
	if err != nil {
		handleError(w, err)
		return
	}

	result, err := h.windows.CreateTabRow(r.Context(), windowID, documentID, tabID, fieldValues)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, newMutationResponse(result))
}

// UpdateTabRow applies field values to one tab row.
// PATCH /api/window/{windowId}/{documentId}/{tabId}/{rowId}
func (h *WindowHandler) UpdateTabRow(w http.ResponseWriter, r *http.Request) {
	windowID := datatypes.WindowID(r.PathValue("windowId"))
	documentID := datatypes.NewDocumentID(r.PathValue("documentId"))
	tabID := datatypes.DetailID(r.PathValue("tabId"))
	rowID := datatypes.NewDocumentID(r.PathValue("rowId"))

	var req UpdateDocumentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	fieldValues, err := toFieldValues(req.FieldValues)
	if err != nil {
		handleError(w, err)
		return
	}

	result, err := h.windows.UpdateTabRow(r.Context(), windowID, documentID, tabID, rowID, fieldValues)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, newMutationResponse(result))
}

// DeleteTabRows deletes rows from a detail tab.
// DELETE /api/window/{windowId}/{documentId}/{tabId}
func (h *WindowHandler) DeleteTabRows(w http.ResponseWriter, r *http.Request) {
	windowID := datatypes.WindowID(r.PathValue("windowId"))
	documentID := datatypes.NewDocumentID(r.PathValue("documentId"))
	tabID := datatypes.DetailID(r.PathValue("tabId"))

	var req DeleteRowsRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	rowIDs, err := toRowIDs(req.RowIDs)
	if err != nil {
		handleError(w, err)
		return
	}

	result, err := h.windows.DeleteTabRows(r.Context(), windowID, documentID, tabID, rowIDs)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, newMutationResponse(result))
}
