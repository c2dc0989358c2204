package docstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore guarda documentos em memória. Usado em testes e execuções locais.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]any
}

// NewMemoryStore cria store vazio.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]map[string]map[string]any)}
}

// Get devolve cópia do documento.
func (m *MemoryStore) Get(ctx context.Context, collection, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	fields, ok := m.collections[collection][id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return Document{ID: id, Fields: fields}.Clone(), nil
}

// Query aplica filtros, ordena por (campo, id) e pagina após o cursor.
func (m *MemoryStore) Query(ctx context.Context, q Query) ([]Document, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	docs := make([]Document, 0, len(m.collections[q.Collection]))
	for id, fields := range m.collections[q.Collection] {
		doc := Document{ID: id, Fields: fields}
		if !matches(doc, q.Filters) {
			continue
		}
		docs = append(docs, doc.Clone())
	}
	m.mu.RUnlock()

	desc := q.Direction == Descending
	sort.Slice(docs, func(i, j int) bool {
		return less(docs[i], docs[j], q.OrderBy, desc)
	})

	if q.StartAfter != nil {
		start := len(docs)
		for i, doc := range docs {
			if after(doc, *q.StartAfter, q.OrderBy, desc) {
				start = i
				break
			}
		}
		docs = docs[start:]
	}

	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}
	return docs, nil
}

// Create insere documento com id gerado.
func (m *MemoryStore) Create(ctx context.Context, collection string, fields map[string]any) (Document, error) {
	id := uuid.NewString()
	if err := m.Set(ctx, collection, id, fields); err != nil {
		return Document{}, err
	}
	return Document{ID: id, Fields: fields}.Clone(), nil
}

// Set grava (ou substitui) o documento.
func (m *MemoryStore) Set(ctx context.Context, collection, id string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	coll, ok := m.collections[collection]
	if !ok {
		coll = make(map[string]map[string]any)
		m.collections[collection] = coll
	}
	coll[id] = Document{ID: id, Fields: fields}.Clone().Fields
	return nil
}

// Insert grava o documento apenas se o id estiver livre.
func (m *MemoryStore) Insert(ctx context.Context, collection, id string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	coll, ok := m.collections[collection]
	if !ok {
		coll = make(map[string]map[string]any)
		m.collections[collection] = coll
	}
	if _, exists := coll[id]; exists {
		return ErrAlreadyExists
	}
	coll[id] = Document{ID: id, Fields: fields}.Clone().Fields
	return nil
}

// Update mescla campos em documento existente.
func (m *MemoryStore) Update(ctx context.Context, collection, id string, patch map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	fields, ok := m.collections[collection][id]
	if !ok {
		return ErrNotFound
	}
	for k, v := range patch {
		fields[k] = v
	}
	return nil
}

// Delete remove o documento.
func (m *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.collections[collection][id]; !ok {
		return ErrNotFound
	}
	delete(m.collections[collection], id)
	return nil
}

func matches(doc Document, filters []Filter) bool {
	for _, f := range filters {
		if !doc.Has(f.Field) || doc.String(f.Field) != Text(f.Value) {
			return false
		}
	}
	return true
}

func less(a, b Document, orderBy string, desc bool) bool {
	c := compare(a.String(orderBy), a.ID, b.String(orderBy), b.ID)
	if desc {
		return c > 0
	}
	return c < 0
}

func after(doc Document, cur Cursor, orderBy string, desc bool) bool {
	c := compare(doc.String(orderBy), doc.ID, cur.Value, cur.ID)
	if desc {
		return c < 0
	}
	return c > 0
}

func compare(aVal, aID, bVal, bID string) int {
	if c := strings.Compare(aVal, bVal); c != 0 {
		return c
	}
	return strings.Compare(aID, bID)
}
