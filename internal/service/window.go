package service

import (
	"context"
	"fmt"
	"log/slog"

	"docwindow/internal/dictionary"
	"docwindow/internal/domain"
	"docwindow/internal/domain/repositories"
	"docwindow/internal/window/datatypes"
	"docwindow/internal/window/filter"
	"docwindow/internal/window/model"
	"docwindow/internal/window/sqlbind"
)

// DocumentsPageRequest describes one root-documents listing.
type DocumentsPageRequest struct {
	WindowID datatypes.WindowID
	Filters  *filter.List
	OrderBys []sqlbind.OrderBy
	Limit    int
	Offset   int
}

// MutationResult carries the outcome of a mutating operation: the affected
// document (nil for deletions) and the change events clients need to apply.
type MutationResult struct {
	Document *model.Document
	Events   []model.ChangeEvent
}

// WindowService is the engine behind the window endpoints: it resolves
// descriptors, loads documents and runs mutations inside transactions.
type WindowService struct {
	dictionary *dictionary.Provider
	documents  model.DocumentsRepository
	txManager  repositories.TransactionManager
	logger     *slog.Logger
}

func NewWindowService(
	dict *dictionary.Provider,
	documents model.DocumentsRepository,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) *WindowService {
	return &WindowService{
		dictionary: dict,
		documents:  documents,
		txManager:  txManager,
		logger:     logger,
	}
}

// GetRootDocument loads one root document read-only.
func (s *WindowService) GetRootDocument(ctx context.Context, windowID datatypes.WindowID, documentID datatypes.DocumentID) (*model.Document, error) {
	descriptor, err := s.dictionary.WindowDescriptor(windowID)
	if err != nil {
		return nil, err
	}
	return s.documents.RetrieveDocument(ctx, model.DocumentQuery{
		Descriptor: descriptor,
		RecordID:   documentID,
	})
}

// GetRootDocuments lists root documents matching the request's filters.
func (s *WindowService) GetRootDocuments(ctx context.Context, req DocumentsPageRequest) ([]*model.Document, error) {
	descriptor, err := s.dictionary.WindowDescriptor(req.WindowID)
	if err != nil {
		return nil, err
	}
	return s.documents.RetrieveDocuments(ctx, model.DocumentQuery{
		Descriptor: descriptor,
		Filters:    req.Filters,
		OrderBys:   req.OrderBys,
		Limit:      req.Limit,
		Offset:     req.Offset,
	})
}

// GetTabRows returns all rows of one detail tab of a root document.
func (s *WindowService) GetTabRows(ctx context.Context, windowID datatypes.WindowID, documentID datatypes.DocumentID, detailID datatypes.DetailID) ([]*model.Document, error) {
	root, err := s.GetRootDocument(ctx, windowID, documentID)
	if err != nil {
		return nil, err
	}
	collection, err := root.IncludedCollection(detailID)
	if err != nil {
		return nil, err
	}
	return collection.GetDocuments(ctx)
}

// GetTabRow returns one row of a detail tab.
func (s *WindowService) GetTabRow(ctx context.Context, windowID datatypes.WindowID, documentID datatypes.DocumentID, detailID datatypes.DetailID, rowID datatypes.DocumentID) (*model.Document, error) {
	root, err := s.GetRootDocument(ctx, windowID, documentID)
	if err != nil {
		return nil, err
	}
	collection, err := root.IncludedCollection(detailID)
	if err != nil {
		return nil, err
	}
	return collection.GetDocumentByID(ctx, rowID)
}

// CreateTabRow creates a new row in a detail tab, applies the given field
// values and saves everything in one transaction.
func (s *WindowService) CreateTabRow(ctx context.Context, windowID datatypes.WindowID, documentID datatypes.DocumentID, detailID datatypes.DetailID, fieldValues map[string]any) (*MutationResult, error) {
	root, err := s.checkoutWritableRoot(ctx, windowID, documentID)
	if err != nil {
		return nil, err
	}
	collection, err := root.IncludedCollection(detailID)
	if err != nil {
		return nil, err
	}

	collector := model.NewChangeCollector()
	var created *model.Document
	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		doc, err := collection.CreateNewDocument(txCtx, collector)
		if err != nil {
			return err
		}
		for fieldName, value := range fieldValues {
			if err := doc.SetFieldValue(fieldName, value, collector); err != nil {
				return err
			}
		}
		if err := s.documents.Save(txCtx, doc); err != nil {
			return fmt.Errorf("saving new row in %s/%s/%s: %w", windowID, documentID, detailID, err)
		}
		created = doc
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("tab row created",
		"window_id", windowID, "document_id", documentID,
		"detail_id", detailID, "row_id", created.ID())
	return &MutationResult{Document: created, Events: collector.Events()}, nil
}

// UpdateTabRow applies field values to one row and saves it.
func (s *WindowService) UpdateTabRow(ctx context.Context, windowID datatypes.WindowID, documentID datatypes.DocumentID, detailID datatypes.DetailID, rowID datatypes.DocumentID, fieldValues map[string]any) (*MutationResult, error) {
	if len(fieldValues) == 0 {
		return nil, fmt.Errorf("%w: no field values to apply", domain.ErrValidation)
	}

	root, err := s.checkoutWritableRoot(ctx, windowID, documentID)
	if err != nil {
		return nil, err
	}
	collection, err := root.IncludedCollection(detailID)
	if err != nil {
		return nil, err
	}

	collector := model.NewChangeCollector()
	var updated *model.Document
	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		doc, err := collection.GetDocumentByID(txCtx, rowID)
		if err != nil {
			return err
		}
		for fieldName, value := range fieldValues {
			if err := doc.SetFieldValue(fieldName, value, collector); err != nil {
				return err
			}
		}
		if err := s.documents.Save(txCtx, doc); err != nil {
			return fmt.Errorf("saving row %s: %w", doc.Path(), err)
		}
		updated = doc
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &MutationResult{Document: updated, Events: collector.Events()}, nil
}

// UpdateRootDocument applies field values to a root document and saves it.
func (s *WindowService) UpdateRootDocument(ctx context.Context, windowID datatypes.WindowID, documentID datatypes.DocumentID, fieldValues map[string]any) (*MutationResult, error) {
	if len(fieldValues) == 0 {
		return nil, fmt.Errorf("%w: no field values to apply", domain.ErrValidation)
	}

	root, err := s.checkoutWritableRoot(ctx, windowID, documentID)
	if err != nil {
		return nil, err
	}

	collector := model.NewChangeCollector()
	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		for fieldName, value := range fieldValues {
			if err := root.SetFieldValue(fieldName, value, collector); err != nil {
				return err
			}
		}
		if err := s.documents.Save(txCtx, root); err != nil {
			return fmt.Errorf("saving document %s: %w", root.Path(), err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &MutationResult{Document: root, Events: collector.Events()}, nil
}

// DeleteTabRows removes rows from a detail tab in one transaction.
func (s *WindowService) DeleteTabRows(ctx context.Context, windowID datatypes.WindowID, documentID datatypes.DocumentID, detailID datatypes.DetailID, rowIDs []datatypes.DocumentID) (*MutationResult, error) {
	root, err := s.checkoutWritableRoot(ctx, windowID, documentID)
	if err != nil {
		return nil, err
	}
	collection, err := root.IncludedCollection(detailID)
	if err != nil {
		return nil, err
	}

	collector := model.NewChangeCollector()
	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		return collection.DeleteDocuments(txCtx, rowIDs, collector)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("tab rows deleted",
		"window_id", windowID, "document_id", documentID,
		"detail_id", detailID, "count", len(rowIDs))
	return &MutationResult{Events: collector.Events()}, nil
}

// CheckVersion returns the document's stored version string for staleness
// checks.
func (s *WindowService) CheckVersion(ctx context.Context, windowID datatypes.WindowID, documentID datatypes.DocumentID) (string, error) {
	descriptor, err := s.dictionary.WindowDescriptor(windowID)
	if err != nil {
		return "", err
	}
	return s.documents.RetrieveVersion(ctx, descriptor, documentID)
}

// checkoutWritableRoot loads a root document and checks out a writable copy,
// leaving the loaded snapshot untouched.
func (s *WindowService) checkoutWritableRoot(ctx context.Context, windowID datatypes.WindowID, documentID datatypes.DocumentID) (*model.Document, error) {
	root, err := s.GetRootDocument(ctx, windowID, documentID)
	if err != nil {
		return nil, err
	}
	return root.Copy(nil, model.CopyWritable), nil
}
