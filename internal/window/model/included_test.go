package model

import (
	"context"
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docwindow/internal/domain"
	"docwindow/internal/window/datatypes"
	"docwindow/internal/window/logicexpr"
)

// fakeRepository keeps detail rows in memory and counts loads so tests can
// observe the collection's caching behavior.
type fakeRepository struct {
	rowOrder []datatypes.DocumentID
	rows     map[datatypes.DocumentID]map[string]any

	nextID    int
	loadCalls int
	deleted   []datatypes.DocumentID
}

var _ DocumentsRepository = (*fakeRepository)(nil)

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		rows:   map[datatypes.DocumentID]map[string]any{},
		nextID: 100,
	}
}

func (r *fakeRepository) addRow(id datatypes.DocumentID, values map[string]any) {
	if _, exists := r.rows[id]; !exists {
		r.rowOrder = append(r.rowOrder, id)
	}
	r.rows[id] = values
}

func (r *fakeRepository) cloneValues(id datatypes.DocumentID) map[string]any {
	out := map[string]any{}
	for k, v := range r.rows[id] {
		out[k] = v
	}
	return out
}

func (r *fakeRepository) queryPath(query DocumentQuery) datatypes.DocumentPath {
	if query.Parent != nil {
		return query.Parent.Path().ChildPath(query.Descriptor.DetailID(), query.RecordID)
	}
	return datatypes.RootDocumentPath(query.Descriptor.WindowID(), query.RecordID)
}

func (r *fakeRepository) RetrieveDocuments(_ context.Context, query DocumentQuery) ([]*Document, error) {
	r.loadCalls++
	docs := make([]*Document, 0, len(r.rowOrder))
	for _, id := range r.rowOrder {
		docs = append(docs, NewDocument(DocumentConfig{
			Descriptor: query.Descriptor,
			Repository: r,
			ID:         id,
			Parent:     query.Parent,
			Values:     r.cloneValues(id),
		}))
	}
	return docs, nil
}

func (r *fakeRepository) RetrieveDocument(_ context.Context, query DocumentQuery) (*Document, error) {
	if _, ok := r.rows[query.RecordID]; !ok {
		return nil, NewDocumentNotFoundError(r.queryPath(query))
	}
	return NewDocument(DocumentConfig{
		Descriptor: query.Descriptor,
		Repository: r,
		ID:         query.RecordID,
		Parent:     query.Parent,
		Values:     r.cloneValues(query.RecordID),
	}), nil
}

func (r *fakeRepository) CreateNewDocument(descriptor *EntityDescriptor, parent *Document) (*Document, error) {
	return NewDocument(DocumentConfig{
		Descriptor: descriptor,
		Repository: r,
		ID:         datatypes.NewTemporaryDocumentID(),
		Parent:     parent,
		IsNew:      true,
		Writable:   true,
	}), nil
}

func (r *fakeRepository) Save(_ context.Context, doc *Document) error {
	id := doc.ID()
	if doc.IsNew() {
		r.nextID++
		id = datatypes.NewDocumentID(strconv.Itoa(r.nextID))
		doc.AssignID(id)
	}
	r.addRow(id, doc.FieldValues())
	doc.ReplaceFieldValues(r.cloneValues(id))
	return nil
}

func (r *fakeRepository) Delete(_ context.Context, doc *Document) error {
	id := doc.ID()
	if _, ok := r.rows[id]; !ok {
		return NewDocumentNotFoundError(doc.Path())
	}
	delete(r.rows, id)
	for i, existing := range r.rowOrder {
		if existing == id {
			r.rowOrder = append(r.rowOrder[:i], r.rowOrder[i+1:]...)
			break
		}
	}
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *fakeRepository) Refresh(_ context.Context, doc *Document) error {
	if _, ok := r.rows[doc.ID()]; !ok {
		return NewDocumentNotFoundError(doc.Path())
	}
	doc.ReplaceFieldValues(r.cloneValues(doc.ID()))
	return nil
}

func (r *fakeRepository) RetrieveVersion(_ context.Context, descriptor *EntityDescriptor, recordID datatypes.DocumentID) (string, error) {
	if _, ok := r.rows[recordID]; !ok {
		return "", NewDocumentNotFoundError(datatypes.RootDocumentPath(descriptor.WindowID(), recordID))
	}
	return fmt.Sprintf("%v", r.rows[recordID]["Updated"]), nil
}

func newTestCollection(t *testing.T, repo *fakeRepository, lineCfg EntityDescriptorConfig, parentValues map[string]any) *IncludedDocumentsCollection {
	t.Helper()
	lines := testLineDescriptor(t, lineCfg)
	parent := NewDocument(DocumentConfig{
		Descriptor: testRootDescriptor(t, lines),
		Repository: repo,
		ID:         "1000",
		Values:     parentValues,
		Writable:   true,
	})
	collection, err := parent.IncludedCollection("lines")
	require.NoError(t, err)
	return collection
}

func TestGetDocumentsLoadsOnceAndCaches(t *testing.T) {
	repo := newFakeRepository()
	repo.addRow("1", map[string]any{FieldNameLine: 10})
	repo.addRow("2", map[string]any{FieldNameLine: 20})
	collection := newTestCollection(t, repo, EntityDescriptorConfig{}, nil)

	docs, err := collection.GetDocuments(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, datatypes.DocumentID("1"), docs[0].ID())
	assert.Equal(t, datatypes.DocumentID("2"), docs[1].ID())
	assert.Equal(t, 1, repo.loadCalls)

	// second call serves from memory
	_, err = collection.GetDocuments(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, repo.loadCalls)
}

func TestReloadKeepsUnsavedRows(t *testing.T) {
	repo := newFakeRepository()
	repo.addRow("1", map[string]any{FieldNameLine: 10})
	collection := newTestCollection(t, repo, EntityDescriptorConfig{}, nil)
	collector := NewChangeCollector()

	created, err := collection.CreateNewDocument(context.Background(), collector)
	require.NoError(t, err)
	require.True(t, created.IsNew())

	collection.MarkStaleAll(collector)

	docs, err := collection.GetDocuments(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, datatypes.DocumentID("1"), docs[0].ID())
	assert.Equal(t, created.ID(), docs[1].ID())
}

func TestCreateNewDocumentAssignsLineNo(t *testing.T) {
	repo := newFakeRepository()
	repo.addRow("1", map[string]any{FieldNameLine: 10})
	repo.addRow("2", map[string]any{FieldNameLine: 35})
	repo.addRow("3", map[string]any{FieldNameLine: 20})
	collection := newTestCollection(t, repo, EntityDescriptorConfig{}, nil)
	collector := NewChangeCollector()

	created, err := collection.CreateNewDocument(context.Background(), collector)
	require.NoError(t, err)
	assert.True(t, created.ID().IsNew())
	assert.Equal(t, 40, created.FieldValueAsInt(FieldNameLine, 0))

	events := collector.Events()
	require.Len(t, events, 2)
	assert.Equal(t, ChangeEventFieldChanged, events[0].Type)
	assert.Equal(t, FieldNameLine, events[0].FieldName)
	assert.Equal(t, ChangeEventDocumentCreated, events[1].Type)
	assert.Equal(t, created.Path(), events[1].Path)
}

func TestNextLineNoEmptyCollection(t *testing.T) {
	repo := newFakeRepository()
	collection := newTestCollection(t, repo, EntityDescriptorConfig{}, nil)

	lineNo, err := collection.NextLineNo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, lineNo)
}

func TestCreateNewDocumentBlockedOnProcessedParent(t *testing.T) {
	repo := newFakeRepository()
	collection := newTestCollection(t, repo, EntityDescriptorConfig{}, map[string]any{FieldNameProcessed: true})

	_, err := collection.CreateNewDocument(context.Background(), nil)
	require.Error(t, err)

	var invalidState *domain.InvalidStateError
	require.ErrorAs(t, err, &invalidState)
	assert.Equal(t, "ParentDocumentProcessed", invalidState.Reason)
}

func TestCreateNewDocumentBlockedOnReadonlyParent(t *testing.T) {
	repo := newFakeRepository()
	lines := testLineDescriptor(t, EntityDescriptorConfig{})
	parent := NewDocument(DocumentConfig{
		Descriptor: testRootDescriptor(t, lines),
		Repository: repo,
		ID:         "1000",
	})
	collection, err := parent.IncludedCollection("lines")
	require.NoError(t, err)

	_, err = collection.CreateNewDocument(context.Background(), nil)
	require.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestCreateNewDocumentBlockedByLogic(t *testing.T) {
	repo := newFakeRepository()
	collection := newTestCollection(t, repo, EntityDescriptorConfig{
		AllowCreateNewLogic: logicexpr.False,
	}, nil)

	_, err := collection.CreateNewDocument(context.Background(), nil)
	require.Error(t, err)

	var invalidState *domain.InvalidStateError
	require.ErrorAs(t, err, &invalidState)
	assert.Contains(t, invalidState.Reason, "not allowed by")
}

func TestDeleteDocuments(t *testing.T) {
	repo := newFakeRepository()
	repo.addRow("1", map[string]any{FieldNameLine: 10})
	repo.addRow("2", map[string]any{FieldNameLine: 20})
	collection := newTestCollection(t, repo, EntityDescriptorConfig{}, nil)
	collector := NewChangeCollector()

	created, err := collection.CreateNewDocument(context.Background(), collector)
	require.NoError(t, err)

	err = collection.DeleteDocuments(context.Background(), []datatypes.DocumentID{"2", created.ID()}, collector)
	require.NoError(t, err)

	// the saved row hits the database, the unsaved one does not
	assert.Equal(t, []datatypes.DocumentID{"2"}, repo.deleted)

	docs, err := collection.GetDocuments(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, datatypes.DocumentID("1"), docs[0].ID())
}

func TestDeleteDocumentsEmptyIDs(t *testing.T) {
	repo := newFakeRepository()
	collection := newTestCollection(t, repo, EntityDescriptorConfig{}, nil)

	err := collection.DeleteDocuments(context.Background(), nil, nil)
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestDeleteDocumentsBlockedByLogic(t *testing.T) {
	repo := newFakeRepository()
	repo.addRow("1", map[string]any{FieldNameLine: 10})
	collection := newTestCollection(t, repo, EntityDescriptorConfig{
		AllowDeleteLogic: logicexpr.False,
	}, nil)

	err := collection.DeleteDocuments(context.Background(), []datatypes.DocumentID{"1"}, nil)
	require.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestGetDocumentByID(t *testing.T) {
	repo := newFakeRepository()
	repo.addRow("1", map[string]any{FieldNameLine: 10})
	collection := newTestCollection(t, repo, EntityDescriptorConfig{}, nil)

	doc, err := collection.GetDocumentByID(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, 10, doc.FieldValueAsInt(FieldNameLine, 0))

	// cached now, a second lookup does not hit the repository again
	loadCalls := repo.loadCalls
	again, err := collection.GetDocumentByID(context.Background(), "1")
	require.NoError(t, err)
	assert.Same(t, doc, again)
	assert.Equal(t, loadCalls, repo.loadCalls)
}

func TestGetDocumentByIDEmptyID(t *testing.T) {
	repo := newFakeRepository()
	collection := newTestCollection(t, repo, EntityDescriptorConfig{}, nil)

	_, err := collection.GetDocumentByID(context.Background(), "")
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestGetDocumentByIDUnknownTemporaryID(t *testing.T) {
	repo := newFakeRepository()
	collection := newTestCollection(t, repo, EntityDescriptorConfig{}, nil)

	missingID := datatypes.NewTemporaryDocumentID()
	_, err := collection.GetDocumentByID(context.Background(), missingID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	var notFound *DocumentNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, missingID, notFound.Path.RowID)
}

func TestGetDocumentByIDUnknownPersistedID(t *testing.T) {
	repo := newFakeRepository()
	collection := newTestCollection(t, repo, EntityDescriptorConfig{}, nil)

	_, err := collection.GetDocumentByID(context.Background(), "999")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStaleDocumentIsRefreshed(t *testing.T) {
	repo := newFakeRepository()
	repo.addRow("1", map[string]any{FieldNameLine: 10})
	collection := newTestCollection(t, repo, EntityDescriptorConfig{}, nil)

	doc, err := collection.GetDocumentByID(context.Background(), "1")
	require.NoError(t, err)

	repo.addRow("1", map[string]any{FieldNameLine: 15})
	doc.MarkStaled()

	refreshed, err := collection.GetDocumentByID(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, 15, refreshed.FieldValueAsInt(FieldNameLine, 0))
	assert.False(t, refreshed.IsStaled())
}

func TestStaleVanishedDocumentIsDropped(t *testing.T) {
	repo := newFakeRepository()
	repo.addRow("1", map[string]any{FieldNameLine: 10})
	collection := newTestCollection(t, repo, EntityDescriptorConfig{}, nil)

	doc, err := collection.GetDocumentByID(context.Background(), "1")
	require.NoError(t, err)

	// deleted behind the collection's back
	require.NoError(t, repo.Delete(context.Background(), doc))
	doc.MarkStaled()

	_, err = collection.GetDocumentByID(context.Background(), "1")
	require.ErrorIs(t, err, domain.ErrNotFound)

	// the dead row must not linger in the cache
	docs, err := collection.GetDocuments(context.Background())
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestGetDocumentsRefreshesIndividuallyStaleRows(t *testing.T) {
	repo := newFakeRepository()
	repo.addRow("1", map[string]any{FieldNameLine: 10})
	repo.addRow("2", map[string]any{FieldNameLine: 20})
	collection := newTestCollection(t, repo, EntityDescriptorConfig{}, nil)

	docs, err := collection.GetDocuments(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2)
	require.Equal(t, 1, repo.loadCalls)

	repo.addRow("1", map[string]any{FieldNameLine: 15})
	docs[0].MarkStaled()

	// the stale row is refreshed one by one, without a full reload
	docs, err = collection.GetDocuments(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, 15, docs[0].FieldValueAsInt(FieldNameLine, 0))
	assert.False(t, docs[0].IsStaled())
	assert.Equal(t, 1, repo.loadCalls)
}

func TestGetDocumentsDropsStaleVanishedRows(t *testing.T) {
	repo := newFakeRepository()
	repo.addRow("1", map[string]any{FieldNameLine: 10})
	repo.addRow("2", map[string]any{FieldNameLine: 20})
	collection := newTestCollection(t, repo, EntityDescriptorConfig{}, nil)

	docs, err := collection.GetDocuments(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2)

	// deleted behind the collection's back
	require.NoError(t, repo.Delete(context.Background(), docs[1]))
	docs[1].MarkStaled()

	docs, err = collection.GetDocuments(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, datatypes.DocumentID("1"), docs[0].ID())
}

func TestTargetedFetchInvalidatesFullLoad(t *testing.T) {
	repo := newFakeRepository()
	repo.addRow("1", map[string]any{FieldNameLine: 10})
	collection := newTestCollection(t, repo, EntityDescriptorConfig{}, nil)

	_, err := collection.GetDocuments(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, repo.loadCalls)

	// new rows appear externally; one of them gets fetched by id
	repo.addRow("2", map[string]any{FieldNameLine: 20})
	repo.addRow("3", map[string]any{FieldNameLine: 30})
	_, err = collection.GetDocumentByID(context.Background(), "2")
	require.NoError(t, err)

	// the targeted fetch proved the cached set incomplete
	docs, err := collection.GetDocuments(context.Background())
	require.NoError(t, err)
	assert.Len(t, docs, 3)
	assert.Equal(t, 2, repo.loadCalls)
}

func TestMarkStaleAllEmitsEventAndForcesReload(t *testing.T) {
	repo := newFakeRepository()
	repo.addRow("1", map[string]any{FieldNameLine: 10})
	collection := newTestCollection(t, repo, EntityDescriptorConfig{}, nil)

	_, err := collection.GetDocuments(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, repo.loadCalls)

	collector := NewChangeCollector()
	collection.MarkStaleAll(collector)

	events := collector.Events()
	require.Len(t, events, 1)
	assert.Equal(t, ChangeEventDetailStale, events[0].Type)
	assert.Equal(t, datatypes.DetailID("lines"), events[0].DetailID)

	_, err = collection.GetDocuments(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, repo.loadCalls)
}
