package auth

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/TTTT0803/VKUMentor-App/internal/repo"
)

// ErrAccountDisabled indica conta desativada.
var ErrAccountDisabled = errors.New("conta desativada")

// Session é o estado de autenticação observado pelo app.
type Session struct {
	UserID   string
	Email    string
	SignedIn bool
}

// SignedOut é a sessão vazia.
var SignedOut = Session{}

// Provider é a fronteira com o provedor de autenticação.
type Provider interface {
	CurrentSession() Session
	// OnSessionChange registra listener; a sessão atual é entregue logo no registro.
	OnSessionChange(fn func(Session)) (unsubscribe func())
	SignOut(ctx context.Context) error
}

// CredentialStore lê perfis com hash de senha.
type CredentialStore interface {
	GetUserByEmail(ctx context.Context, email string) (repo.User, error)
	GetUserByID(ctx context.Context, uid string) (repo.User, error)
}

// Authenticate confere e-mail e senha contra a coleção users.
func Authenticate(ctx context.Context, users CredentialStore, email, password string) (repo.User, error) {
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return repo.User{}, ErrInvalidCredentials
	}

	user, err := users.GetUserByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			log.Warn().Msg("login: usuário não encontrado")
			return repo.User{}, ErrInvalidCredentials
		}
		return repo.User{}, err
	}
	if !Verify(password, user.PasswordHash) {
		log.Warn().Str("uid", user.UID).Msg("login: senha inválida")
		return repo.User{}, ErrInvalidCredentials
	}
	if user.Disabled {
		return repo.User{}, ErrAccountDisabled
	}
	return user, nil
}

// LocalProvider autentica contra a coleção users e notifica mudanças de sessão
// na ordem em que acontecem.
type LocalProvider struct {
	users CredentialStore

	mu        sync.Mutex
	session   Session
	listeners map[int]func(Session)
	nextID    int

	// serializa entregas para preservar a ordem entre transições
	notifyMu sync.Mutex
}

// NewLocalProvider cria provedor sem sessão ativa.
func NewLocalProvider(users CredentialStore) *LocalProvider {
	return &LocalProvider{users: users, listeners: make(map[int]func(Session))}
}

// CurrentSession devolve a sessão atual.
func (p *LocalProvider) CurrentSession() Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session
}

// OnSessionChange registra listener e entrega a sessão atual.
func (p *LocalProvider) OnSessionChange(fn func(Session)) func() {
	p.notifyMu.Lock()
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	current := p.session
	p.mu.Unlock()
	fn(current)
	p.notifyMu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

// SignIn valida credenciais e publica sessão autenticada.
func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (Session, error) {
	user, err := Authenticate(ctx, p.users, email, password)
	if err != nil {
		return SignedOut, err
	}

	s := Session{UserID: user.UID, Email: user.Email, SignedIn: true}
	p.publish(s)
	return s, nil
}

// Refresh revalida a sessão atual; conta removida ou desativada encerra a sessão.
// Uma sessão válida é republicada, como numa renovação de token.
func (p *LocalProvider) Refresh(ctx context.Context) error {
	current := p.CurrentSession()
	if !current.SignedIn {
		return nil
	}

	user, err := p.users.GetUserByID(ctx, current.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			p.publish(SignedOut)
			return nil
		}
		return err
	}
	if user.Disabled {
		p.publish(SignedOut)
		return ErrAccountDisabled
	}

	p.publish(Session{UserID: user.UID, Email: user.Email, SignedIn: true})
	return nil
}

// SignOut encerra a sessão. Os listeners recebem a transição.
func (p *LocalProvider) SignOut(ctx context.Context) error {
	p.publish(SignedOut)
	return nil
}

func (p *LocalProvider) publish(s Session) {
	p.notifyMu.Lock()
	defer p.notifyMu.Unlock()

	p.mu.Lock()
	p.session = s
	listeners := make([]func(Session), 0, len(p.listeners))
	for id := 0; id < p.nextID; id++ {
		if fn, ok := p.listeners[id]; ok {
			listeners = append(listeners, fn)
		}
	}
	p.mu.Unlock()

	for _, fn := range listeners {
		fn(s)
	}
}
