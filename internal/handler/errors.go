package handler

import (
	"errors"
	"net/http"

	"docwindow/internal/domain"
	"docwindow/internal/httputil"
	"docwindow/internal/window/model"
)

// handleError converts domain errors to HTTP responses. Errors implementing
// domain.HTTPError pick their own status; sentinels map to the usual codes.
func handleError(w http.ResponseWriter, err error) {
	var notFound *model.DocumentNotFoundError
	if errors.As(err, &notFound) {
		httputil.RespondProblem(w, http.StatusNotFound, notFound.Error(),
			map[string]any{"path": notFound.Path.String()})
		return
	}

	var httpErr domain.HTTPError
	if errors.As(err, &httpErr) {
		httputil.RespondError(w, httpErr.StatusCode(), httpErr.Error())
		return
	}

	switch {
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		httputil.RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInvalidState):
		httputil.RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrUnsupported):
		httputil.RespondError(w, http.StatusNotImplemented, err.Error())
	default:
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}
