package handler

import (
	"fmt"
	"strings"

	"docwindow/internal/config"
	"docwindow/internal/domain"
	"docwindow/internal/service"
	"docwindow/internal/window/datatypes"
	"docwindow/internal/window/filter"
	"docwindow/internal/window/model"
	"docwindow/internal/window/sqlbind"
)

// DocumentResponse is the wire shape of one document or tab row.
type DocumentResponse struct {
	ID          string         `json:"id"`
	WindowID    string         `json:"windowId"`
	TabID       string         `json:"tabId,omitempty"`
	FieldValues map[string]any `json:"fieldValues"`
}

func newDocumentResponse(doc *model.Document) DocumentResponse {
	path := doc.Path()
	return DocumentResponse{
		ID:          doc.ID().String(),
		WindowID:    path.WindowID.String(),
		TabID:       path.DetailID.String(),
		FieldValues: doc.FieldValues(),
	}
}

func newDocumentListResponse(docs []*model.Document) []DocumentResponse {
	out := make([]DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		out = append(out, newDocumentResponse(doc))
	}
	return out
}

// ChangeEventResponse notifies clients of one applied change.
type ChangeEventResponse struct {
	Type      string `json:"type"`
	Path      string `json:"path"`
	TabID     string `json:"tabId,omitempty"`
	FieldName string `json:"fieldName,omitempty"`
	Value     any    `json:"value,omitempty"`
}

// MutationResponse is the outcome of a mutating request.
type MutationResponse struct {
	Document *DocumentResponse     `json:"document,omitempty"`
	Events   []ChangeEventResponse `json:"events"`
}

func newMutationResponse(result *service.MutationResult) MutationResponse {
	resp := MutationResponse{Events: make([]ChangeEventResponse, 0, len(result.Events))}
	if result.Document != nil {
		doc := newDocumentResponse(result.Document)
		resp.Document = &doc
	}
	for _, event := range result.Events {
		resp.Events = append(resp.Events, ChangeEventResponse{
			Type:      string(event.Type),
			Path:      event.Path.String(),
			TabID:     event.DetailID.String(),
			FieldName: event.FieldName,
			Value:     event.Value,
		})
	}
	return resp
}

// DocumentListRequest filters and pages a root documents listing.
type DocumentListRequest struct {
	Filters  []FilterRequest  `json:"filters"`
	OrderBys []OrderByRequest `json:"orderBys"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
}

type FilterRequest struct {
	FilterID   string               `json:"filterId"`
	Parameters []FilterParamRequest `json:"parameters"`
}

type FilterParamRequest struct {
	ParameterName string `json:"parameterName"`
	Operator      string `json:"operator"`
	Value         any    `json:"value"`
	ValueTo       any    `json:"valueTo,omitempty"`
}

type OrderByRequest struct {
	FieldName  string `json:"fieldName"`
	Descending bool   `json:"descending"`
}

// UpdateDocumentRequest applies field values to a document or row.
type UpdateDocumentRequest struct {
	FieldValues map[string]any `json:"fieldValues"`
}

// DeleteRowsRequest names the tab rows to delete.
type DeleteRowsRequest struct {
	RowIDs []string `json:"rowIds"`
}

// VersionResponse carries a document's stored version string.
type VersionResponse struct {
	Version string `json:"version"`
}

func toFilterList(requests []FilterRequest) (*filter.List, error) {
	if len(requests) == 0 {
		return filter.Empty, nil
	}
	filters := make([]*filter.Filter, 0, len(requests))
	for _, req := range requests {
		if len(req.Parameters) > config.MaxFilterParameters {
			return nil, fmt.Errorf("%w: filter %s has %d parameters, at most %d are allowed",
				domain.ErrValidation, req.FilterID, len(req.Parameters), config.MaxFilterParameters)
		}
		builder := filter.NewBuilder().FilterID(req.FilterID)
		for _, paramReq := range req.Parameters {
			param, err := toFilterParam(paramReq)
			if err != nil {
				return nil, fmt.Errorf("filter %s: %w", req.FilterID, err)
			}
			builder.AddParameter(param)
		}
		built, err := builder.Build()
		if err != nil {
			return nil, err
		}
		filters = append(filters, built)
	}
	return filter.NewList(filters...)
}

func toFilterParam(req FilterParamRequest) (filter.Param, error) {
	builder := filter.NewParam().
		FieldName(req.ParameterName).
		Value(req.Value).
		ValueTo(req.ValueTo)
	if req.Operator != "" {
		builder.Operator(filter.Operator(strings.ToUpper(req.Operator)))
	}
	return builder.Build()
}

func toOrderBys(requests []OrderByRequest) []sqlbind.OrderBy {
	out := make([]sqlbind.OrderBy, 0, len(requests))
	for _, req := range requests {
		out = append(out, sqlbind.OrderBy{
			FieldName: req.FieldName,
			Ascending: !req.Descending,
			NullsLast: true,
		})
	}
	return out
}

// toPageLimit rejects page sizes beyond the hard cap. Zero means the
// service default.
func toPageLimit(limit int) (int, error) {
	if limit < 0 || limit > config.MaxPageLength {
		return 0, fmt.Errorf("%w: limit must be between 0 and %d", domain.ErrValidation, config.MaxPageLength)
	}
	return limit, nil
}

func toFieldValues(raw map[string]any) (map[string]any, error) {
	if len(raw) > config.MaxFieldValuesPerUpdate {
		return nil, fmt.Errorf("%w: at most %d field values per update", domain.ErrValidation, config.MaxFieldValuesPerUpdate)
	}
	return raw, nil
}

func toRowIDs(raw []string) ([]datatypes.DocumentID, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: rowIds is empty", domain.ErrValidation)
	}
	ids := make([]datatypes.DocumentID, len(raw))
	for i, s := range raw {
		if s == "" {
			return nil, fmt.Errorf("%w: empty row id", domain.ErrValidation)
		}
		ids[i] = datatypes.NewDocumentID(s)
	}
	return ids, nil
}
