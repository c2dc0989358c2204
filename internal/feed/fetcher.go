package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/TTTT0803/VKUMentor-App/internal/docstore"
	"github.com/TTTT0803/VKUMentor-App/internal/metrics"
)

var (
	// ErrQueryFailed indica falha na leitura de uma página; o estado anterior é mantido.
	ErrQueryFailed = errors.New("falha ao carregar página")
	// ErrFetchInFlight indica que já existe leitura pendente neste fetcher.
	ErrFetchInFlight = errors.New("leitura de página em andamento")
	// ErrInvalidPageSize indica tamanho de página não positivo.
	ErrInvalidPageSize = errors.New("tamanho de página deve ser positivo")
	// ErrClosed indica fetcher encerrado.
	ErrClosed = errors.New("fetcher encerrado")
)

// Spec fixa coleção, filtro e ordenação de um fetcher.
type Spec struct {
	Collection string
	Filter     *docstore.Filter
	OrderBy    string
	Direction  docstore.Direction
}

func (s Spec) query(limit int, after *docstore.Cursor) docstore.Query {
	q := docstore.Query{
		Collection: s.Collection,
		OrderBy:    s.OrderBy,
		Direction:  s.Direction,
		Limit:      limit,
		StartAfter: after,
	}
	if s.Filter != nil {
		q.Filters = []docstore.Filter{*s.Filter}
	}
	return q
}

// QueryPage lê uma página com uma linha a mais para saber se há continuação.
// next é nil quando não há mais dados.
func QueryPage(ctx context.Context, store docstore.Querier, spec Spec, pageSize int, after *docstore.Cursor) (items []docstore.Document, next *docstore.Cursor, err error) {
	if pageSize <= 0 {
		return nil, nil, ErrInvalidPageSize
	}
	docs, err := store.Query(ctx, spec.query(pageSize+1, after))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	if len(docs) > pageSize {
		docs = docs[:pageSize]
		cur := docstore.CursorOf(docs[len(docs)-1], spec.OrderBy)
		next = &cur
	}
	return docs, next, nil
}

// Page é o estado carregado de um fetcher.
type Page struct {
	Items   []docstore.Document
	Cursor  *docstore.Document
	HasMore bool
	Err     error
}

// Option ajusta o Fetcher.
type Option func(*Fetcher)

// WithMetrics registra leituras.
func WithMetrics(m *metrics.Metrics) Option {
	return func(f *Fetcher) { f.metrics = m }
}

// Fetcher mantém páginas de uma coleção para uma tela. Não é compartilhado.
type Fetcher struct {
	store   docstore.Querier
	spec    Spec
	metrics *metrics.Metrics
	logger  zerolog.Logger

	mu          sync.Mutex
	items       []docstore.Document
	cursor      *docstore.Document
	hasMore     bool
	err         error
	inFlight    bool
	generation  uint64
	closed      bool
	filterText  string
	filterField string
	view        []docstore.Document
}

// NewFetcher cria fetcher vazio.
func NewFetcher(store docstore.Querier, spec Spec, opts ...Option) *Fetcher {
	f := &Fetcher{
		store:  store,
		spec:   spec,
		logger: log.With().Str("component", "feed").Str("collection", spec.Collection).Logger(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// LoadFirstPage descarta o estado e carrega a primeira página.
func (f *Fetcher) LoadFirstPage(ctx context.Context, pageSize int) (Page, error) {
	return f.load(ctx, pageSize, true)
}

// LoadMorePage anexa a próxima página. Sem cursor, devolve o estado atual.
func (f *Fetcher) LoadMorePage(ctx context.Context, pageSize int) (Page, error) {
	return f.load(ctx, pageSize, false)
}

func (f *Fetcher) load(ctx context.Context, pageSize int, first bool) (Page, error) {
	if pageSize <= 0 {
		return f.Current(), ErrInvalidPageSize
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return Page{}, ErrClosed
	}
	if f.inFlight {
		snap := f.snapshotLocked()
		f.mu.Unlock()
		return snap, ErrFetchInFlight
	}
	var after *docstore.Cursor
	if !first {
		if f.cursor == nil {
			snap := f.snapshotLocked()
			f.mu.Unlock()
			return snap, nil
		}
		cur := docstore.CursorOf(*f.cursor, f.spec.OrderBy)
		after = &cur
	}
	f.inFlight = true
	gen := f.generation
	f.mu.Unlock()

	start := time.Now()
	batch, next, err := QueryPage(ctx, f.store, f.spec, pageSize, after)
	dur := time.Since(start)

	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.generation || f.closed {
		f.logger.Debug().Msg("página descartada: fetcher reiniciado")
		f.metrics.StaleResult("feed")
		return f.snapshotLocked(), nil
	}
	f.inFlight = false

	if err != nil {
		f.err = err
		f.metrics.PageFetched(f.spec.Collection, "error", dur)
		f.logger.Error().Err(err).Bool("first", first).Msg("erro ao carregar página")
		return f.snapshotLocked(), err
	}

	f.metrics.PageFetched(f.spec.Collection, "ok", dur)
	f.err = nil
	if first {
		f.items = append([]docstore.Document(nil), batch...)
	} else {
		f.items = append(f.items, batch...)
	}
	f.hasMore = next != nil
	f.cursor = nil
	if f.hasMore {
		last := batch[len(batch)-1]
		f.cursor = &last
	}
	f.refreshViewLocked()

	f.logger.Debug().Int("batch", len(batch)).Int("total", len(f.items)).Bool("has_more", f.hasMore).Msg("página carregada")
	return f.snapshotLocked(), nil
}

// Reset limpa o estado sem consultar o store. Leituras pendentes são descartadas.
func (f *Fetcher) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generation++
	f.inFlight = false
	f.items = nil
	f.cursor = nil
	f.hasMore = false
	f.err = nil
	f.refreshViewLocked()
}

// Close descarta resultados pendentes; chamadas futuras falham com ErrClosed.
func (f *Fetcher) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.generation++
}

// ApplyTextFilter recalcula a visão filtrada sobre os itens carregados.
// Não altera cursor, hasMore nem o store.
func (f *Fetcher) ApplyTextFilter(substring, field string) []docstore.Document {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filterText = substring
	f.filterField = field
	f.refreshViewLocked()
	return append([]docstore.Document(nil), f.view...)
}

// Visible devolve a visão filtrada atual.
func (f *Fetcher) Visible() []docstore.Document {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]docstore.Document(nil), f.view...)
}

// Current devolve cópia do estado carregado.
func (f *Fetcher) Current() Page {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

// Loading indica leitura pendente.
func (f *Fetcher) Loading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inFlight
}

func (f *Fetcher) refreshViewLocked() {
	f.view = FilterText(f.items, f.filterText, f.filterField)
}

func (f *Fetcher) snapshotLocked() Page {
	p := Page{
		Items:   append([]docstore.Document(nil), f.items...),
		HasMore: f.hasMore,
		Err:     f.err,
	}
	if f.cursor != nil {
		cur := *f.cursor
		p.Cursor = &cur
	}
	return p
}
