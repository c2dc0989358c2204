package docstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrNotFound é retornado quando o documento não existe na coleção.
	ErrNotFound = errors.New("documento não encontrado")
	// ErrAlreadyExists é retornado por Insert quando o id já está ocupado.
	ErrAlreadyExists = errors.New("documento já existe")
	// ErrInvalidQuery indica consulta malformada (coleção ou ordenação ausentes).
	ErrInvalidQuery = errors.New("consulta inválida")
)

// Direction define o sentido da ordenação.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// Document representa um documento de uma coleção: id opaco e campos escalares.
type Document struct {
	ID     string
	Fields map[string]any
}

// String devolve o campo como texto; campos ausentes viram string vazia.
func (d Document) String(field string) string {
	if d.Fields == nil {
		return ""
	}
	val, ok := d.Fields[field]
	if !ok || val == nil {
		return ""
	}
	return Text(val)
}

// Has indica se o campo existe e não é nulo.
func (d Document) Has(field string) bool {
	if d.Fields == nil {
		return false
	}
	val, ok := d.Fields[field]
	return ok && val != nil
}

// Clone copia o mapa de campos para evitar aliasing entre chamadores.
func (d Document) Clone() Document {
	fields := make(map[string]any, len(d.Fields))
	for k, v := range d.Fields {
		fields[k] = v
	}
	return Document{ID: d.ID, Fields: fields}
}

// Filter restringe a consulta por igualdade em um campo.
type Filter struct {
	Field string
	Value any
}

// Eq cria filtro de igualdade.
func Eq(field string, value any) Filter {
	return Filter{Field: field, Value: value}
}

// Cursor aponta para a última linha lida: valor do campo de ordenação e id.
type Cursor struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

// CursorOf monta cursor a partir de um documento e do campo de ordenação.
func CursorOf(doc Document, orderBy string) Cursor {
	return Cursor{ID: doc.ID, Value: doc.String(orderBy)}
}

// Query descreve uma leitura ordenada, opcionalmente filtrada e paginada.
type Query struct {
	Collection string
	Filters    []Filter
	OrderBy    string
	Direction  Direction
	Limit      int
	StartAfter *Cursor
}

// Validate verifica campos obrigatórios da consulta.
func (q Query) Validate() error {
	if strings.TrimSpace(q.Collection) == "" {
		return fmt.Errorf("%w: coleção obrigatória", ErrInvalidQuery)
	}
	if strings.TrimSpace(q.OrderBy) == "" && q.StartAfter != nil {
		return fmt.Errorf("%w: cursor exige ordenação", ErrInvalidQuery)
	}
	if q.Limit < 0 {
		return fmt.Errorf("%w: limite negativo", ErrInvalidQuery)
	}
	switch q.Direction {
	case "", Ascending, Descending:
	default:
		return fmt.Errorf("%w: direção %q", ErrInvalidQuery, q.Direction)
	}
	return nil
}

// Getter lê um documento pelo id.
type Getter interface {
	Get(ctx context.Context, collection, id string) (Document, error)
}

// Querier executa consultas ordenadas.
type Querier interface {
	Query(ctx context.Context, q Query) ([]Document, error)
}

// Writer persiste documentos.
type Writer interface {
	Create(ctx context.Context, collection string, fields map[string]any) (Document, error)
	Set(ctx context.Context, collection, id string, fields map[string]any) error
	Insert(ctx context.Context, collection, id string, fields map[string]any) error
	Update(ctx context.Context, collection, id string, patch map[string]any) error
	Delete(ctx context.Context, collection, id string) error
}

// Store agrega leitura e escrita.
type Store interface {
	Getter
	Querier
	Writer
}

// Text converte um valor escalar para a forma textual usada em filtros e ordenação
// (a mesma que o operador ->> do Postgres devolve para JSONB).
func Text(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
