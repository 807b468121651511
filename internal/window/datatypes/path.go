package datatypes

import "strings"

// DocumentPath is the hierarchical address of a document: window, root
// document and, for included rows, the detail tab and the row id.
type DocumentPath struct {
	WindowID   WindowID
	DocumentID DocumentID
	DetailID   DetailID
	RowID      DocumentID
}

// RootDocumentPath builds the path of a root document.
func RootDocumentPath(windowID WindowID, documentID DocumentID) DocumentPath {
	return DocumentPath{WindowID: windowID, DocumentID: documentID}
}

// ChildPath returns the path of an included row underneath this document.
func (p DocumentPath) ChildPath(detailID DetailID, rowID DocumentID) DocumentPath {
	return DocumentPath{
		WindowID:   p.WindowID,
		DocumentID: p.DocumentID,
		DetailID:   detailID,
		RowID:      rowID,
	}
}

// IsRoot reports whether this path addresses a root document (no detail
// component).
func (p DocumentPath) IsRoot() bool {
	return p.DetailID.IsEmpty() && p.RowID.IsEmpty()
}

func (p DocumentPath) String() string {
	var sb strings.Builder
	sb.WriteString(p.WindowID.String())
	sb.WriteString("/")
	sb.WriteString(p.DocumentID.String())
	if !p.DetailID.IsEmpty() {
		sb.WriteString("/")
		sb.WriteString(p.DetailID.String())
	}
	if !p.RowID.IsEmpty() {
		sb.WriteString("/")
		sb.WriteString(p.RowID.String())
	}
	return sb.String()
}
