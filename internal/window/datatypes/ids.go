package datatypes

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// newIDPrefix marks document ids that exist only in memory and were never
// pushed to the repository.
const newIDPrefix = "NEW_"

// DocumentID identifies one document row within an entity.
type DocumentID string

// NewDocumentID creates a DocumentID from its string form.
func NewDocumentID(value string) DocumentID {
	return DocumentID(value)
}

// NewDocumentIDFromInt creates a DocumentID from a numeric key value.
func NewDocumentIDFromInt(value int) DocumentID {
	return DocumentID(strconv.Itoa(value))
}

// NewTemporaryDocumentID creates an id for a document that was created in
// memory but not yet persisted.
func NewTemporaryDocumentID() DocumentID {
	return DocumentID(newIDPrefix + uuid.NewString())
}

// IsNew reports whether this id denotes a not-yet-persisted document.
func (id DocumentID) IsNew() bool {
	return strings.HasPrefix(string(id), newIDPrefix)
}

func (id DocumentID) IsEmpty() bool {
	return id == ""
}

func (id DocumentID) String() string {
	return string(id)
}

// ToInt converts the id to its numeric key value.
func (id DocumentID) ToInt() (int, error) {
	return strconv.Atoi(string(id))
}

// WindowID identifies a document window definition.
type WindowID string

func (id WindowID) IsEmpty() bool { return id == "" }

func (id WindowID) String() string { return string(id) }

// DetailID identifies one detail tab (included-documents relation) within a
// window.
type DetailID string

func (id DetailID) IsEmpty() bool { return id == "" }

func (id DetailID) String() string { return string(id) }
