package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"

	"docwindow/internal/config"
)

// ParseJSON decodes the request body into dest. The body is capped;
// MaxBytesReader needs the writer so oversized bodies get a 413.
func ParseJSON(w http.ResponseWriter, r *http.Request, dest any) error {
	r.Body = http.MaxBytesReader(w, r.Body, config.MaxRequestBodyBytes)

	decoder := json.NewDecoder(r.Body)
	// Unknown fields pass through on purpose: filter parameters and field
	// value maps are window specific and get validated against the window's
	// dictionary downstream.
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}
