package model

import (
	"errors"
	"fmt"
	"net/http"

	"docwindow/internal/domain"
	"docwindow/internal/window/datatypes"
)

// DocumentNotFoundError reports that a document addressed by a path does not
// exist. It carries the path so callers that tolerate missing documents can
// verify the error is about the document they asked for and not about some
// other document hit along the way.
type DocumentNotFoundError struct {
	Path datatypes.DocumentPath
}

func NewDocumentNotFoundError(path datatypes.DocumentPath) *DocumentNotFoundError {
	return &DocumentNotFoundError{Path: path}
}

func (e *DocumentNotFoundError) Error() string {
	return fmt.Sprintf("document not found: %s", e.Path)
}

func (e *DocumentNotFoundError) StatusCode() int { return http.StatusNotFound }

func (e *DocumentNotFoundError) Is(target error) bool {
	return target == domain.ErrNotFound
}

// MatchesPath reports whether the error is about exactly the given path.
func (e *DocumentNotFoundError) MatchesPath(path datatypes.DocumentPath) bool {
	return e.Path == path
}

// IsDocumentNotFound reports whether err is a DocumentNotFoundError for the
// given path. Errors about other documents do not match.
func IsDocumentNotFound(err error, path datatypes.DocumentPath) bool {
	var notFound *DocumentNotFoundError
	return errors.As(err, &notFound) && notFound.MatchesPath(path)
}
