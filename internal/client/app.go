// Package client compõe sessão, navegação e listagens paginadas para
// clientes locais (terminal) sobre o banco de documentos.
package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/TTTT0803/VKUMentor-App/internal/auth"
	"github.com/TTTT0803/VKUMentor-App/internal/config"
	"github.com/TTTT0803/VKUMentor-App/internal/docstore"
	"github.com/TTTT0803/VKUMentor-App/internal/feed"
	"github.com/TTTT0803/VKUMentor-App/internal/metrics"
	"github.com/TTTT0803/VKUMentor-App/internal/nav"
	"github.com/TTTT0803/VKUMentor-App/internal/repo"
	"github.com/TTTT0803/VKUMentor-App/internal/service"
	"github.com/TTTT0803/VKUMentor-App/internal/session"
)

var (
	// ErrNotSignedIn indica tela que exige sessão resolvida.
	ErrNotSignedIn = errors.New("faça login primeiro")
	// ErrAdminOnly indica tela exclusiva de administradores.
	ErrAdminOnly = errors.New("acesso restrito a administradores")
)

// Navigation é uma decisão do gate de navegação.
type Navigation struct {
	Destination nav.Destination
	State       session.RoleAssignment
}

// Options ajusta o app.
type Options struct {
	Pages         config.PageSizes
	LookupTimeout time.Duration
	Metrics       *metrics.Metrics
}

// App é o núcleo do cliente: um provedor, um resolver, um gate e fetchers por tela.
type App struct {
	store    docstore.Store
	provider *auth.LocalProvider
	resolver *session.Resolver
	pages    config.PageSizes
	metrics  *metrics.Metrics

	mu      sync.Mutex
	history []Navigation
	changed chan struct{}
	unbind  func()
}

// New cria o app sem iniciar o resolver.
func New(store docstore.Store, opts Options) *App {
	provider := auth.NewLocalProvider(repo.New(store))
	resolverOpts := []session.Option{
		session.WithMetrics(opts.Metrics),
		session.WithLogger(log.With().Str("component", "client").Logger()),
	}
	if opts.LookupTimeout > 0 {
		resolverOpts = append(resolverOpts, session.WithLookupTimeout(opts.LookupTimeout))
	}
	return &App{
		store:    store,
		provider: provider,
		resolver: session.NewResolver(provider, session.NewDocumentRoleLookup(store), resolverOpts...),
		pages:    opts.Pages,
		metrics:  opts.Metrics,
		changed:  make(chan struct{}),
	}
}

// Start liga o gate e assina o provedor.
func (a *App) Start(ctx context.Context) {
	gate := nav.NewGate(func(dest nav.Destination, state session.RoleAssignment) {
		a.mu.Lock()
		a.history = append(a.history, Navigation{Destination: dest, State: state})
		close(a.changed)
		a.changed = make(chan struct{})
		a.mu.Unlock()
	})
	a.unbind = gate.Bind(a.resolver)
	a.resolver.Start(ctx)
}

// Close encerra o resolver.
func (a *App) Close() {
	if a.unbind != nil {
		a.unbind()
	}
	a.resolver.Close()
}

// History devolve as navegações realizadas.
func (a *App) History() []Navigation {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Navigation(nil), a.history...)
}

// Login autentica e espera o gate decidir o destino do usuário.
// Uma sessão ativa é encerrada antes da troca de conta.
func (a *App) Login(ctx context.Context, email, password string) (Navigation, error) {
	if state := a.Whoami(); state.UserID != "" && state.Status != session.StatusSignedOut {
		if _, err := a.Logout(ctx); err != nil {
			return Navigation{}, err
		}
	}
	from := len(a.History())
	s, err := a.provider.SignIn(ctx, email, password)
	if err != nil {
		return Navigation{}, err
	}
	return a.waitFor(ctx, from, func(n Navigation) bool {
		return n.State.UserID == s.UserID && n.State.Status != session.StatusSignedOut
	})
}

// Logout encerra a sessão e espera a navegação para login.
func (a *App) Logout(ctx context.Context) (Navigation, error) {
	if state := a.Whoami(); state.Status == session.StatusSignedOut {
		return Navigation{Destination: nav.DestinationLogin, State: state}, nil
	}
	from := len(a.History())
	if err := a.resolver.SignOut(ctx); err != nil {
		return Navigation{}, err
	}
	return a.waitFor(ctx, from, func(n Navigation) bool {
		return n.Destination == nav.DestinationLogin
	})
}

// Whoami devolve o papel atual.
func (a *App) Whoami() session.RoleAssignment {
	return a.resolver.CurrentRoleState()
}

func (a *App) waitFor(ctx context.Context, seen int, match func(Navigation) bool) (Navigation, error) {
	for {
		a.mu.Lock()
		history := a.history
		changed := a.changed
		a.mu.Unlock()

		for ; seen < len(history); seen++ {
			if match(history[seen]) {
				return history[seen], nil
			}
		}

		select {
		case <-ctx.Done():
			return Navigation{}, ctx.Err()
		case <-changed:
		}
	}
}

// Listing é o resultado de uma tela paginada.
type Listing[T any] struct {
	Items   []T
	Loaded  int
	HasMore bool
}

// Mentors carrega a tela de mentores aprovados: a primeira página e mais
// (pages-1) páginas de "carregar mais", aplicando o filtro por nome.
func (a *App) Mentors(ctx context.Context, pages int, filter string) (Listing[repo.MentorInfo], error) {
	if err := a.requireSignedIn(); err != nil {
		return Listing[repo.MentorInfo]{}, err
	}
	return load(ctx, a, service.ApprovedMentorsSpec(), a.pages.MentorsFirst, a.pages.MentorsMore, pages, filter, "name",
		func(m *repo.MentorInfo, id string) { m.ID = id })
}

// PendingMentors carrega a fila de aprovação (administradores).
func (a *App) PendingMentors(ctx context.Context, pages int, filter string) (Listing[repo.MentorInfo], error) {
	if err := a.requireSignedIn(); err != nil {
		return Listing[repo.MentorInfo]{}, err
	}
	if !a.Whoami().Is(repo.RoleAdmin) {
		return Listing[repo.MentorInfo]{}, ErrAdminOnly
	}
	return load(ctx, a, service.PendingMentorsSpec(), a.pages.MentorsFirst, a.pages.MentorsMore, pages, filter, "name",
		func(m *repo.MentorInfo, id string) { m.ID = id })
}

// Posts carrega a tela da comunidade, filtrando por título.
func (a *App) Posts(ctx context.Context, pages int, filter string) (Listing[repo.CommunityDocument], error) {
	if err := a.requireSignedIn(); err != nil {
		return Listing[repo.CommunityDocument]{}, err
	}
	return load(ctx, a, service.PostsSpec(), a.pages.Posts, a.pages.Posts, pages, filter, "title",
		func(p *repo.CommunityDocument, id string) { p.ID = id })
}

func (a *App) requireSignedIn() error {
	state := a.Whoami()
	if !state.Settled() || state.Status == session.StatusSignedOut {
		return ErrNotSignedIn
	}
	return nil
}

func load[T any](ctx context.Context, a *App, spec feed.Spec, firstSize, moreSize, pages int, filter, field string, setID func(*T, string)) (Listing[T], error) {
	f := feed.NewFetcher(a.store, spec, feed.WithMetrics(a.metrics))
	defer f.Close()

	page, err := f.LoadFirstPage(ctx, firstSize)
	if err != nil {
		return Listing[T]{}, err
	}
	for i := 1; i < pages && page.HasMore; i++ {
		if page, err = f.LoadMorePage(ctx, moreSize); err != nil {
			return Listing[T]{}, err
		}
	}

	items, err := repo.DecodeAll(f.ApplyTextFilter(filter, field), setID)
	if err != nil {
		return Listing[T]{}, err
	}
	return Listing[T]{Items: items, Loaded: len(page.Items), HasMore: page.HasMore}, nil
}
