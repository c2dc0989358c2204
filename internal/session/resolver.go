package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/TTTT0803/VKUMentor-App/internal/auth"
	"github.com/TTTT0803/VKUMentor-App/internal/metrics"
)

// DefaultLookupTimeout limita cada resolução de papel.
const DefaultLookupTimeout = 10 * time.Second

// Option ajusta o Resolver.
type Option func(*Resolver)

// WithLookupTimeout altera o timeout do lookup; valores <= 0 são ignorados.
func WithLookupTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithMetrics registra resoluções e descartes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) { r.metrics = m }
}

// WithLogger troca o logger do componente.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

type delivery struct {
	state  RoleAssignment
	target int // -1 = todos os listeners
}

// Resolver é o único assinante do provedor de autenticação e publica o papel
// resolvido para o app inteiro.
type Resolver struct {
	provider auth.Provider
	lookup   RoleLookup
	timeout  time.Duration
	metrics  *metrics.Metrics
	logger   zerolog.Logger

	mu          sync.Mutex
	baseCtx     context.Context
	session     auth.Session
	state       RoleAssignment
	generation  uint64
	cancel      context.CancelFunc
	listeners   map[int]func(RoleAssignment)
	nextID      int
	queue       []delivery
	wake        chan struct{}
	done        chan struct{}
	started     bool
	closed      bool
	unsubscribe func()
}

// NewResolver cria resolver no estado Unresolved.
func NewResolver(provider auth.Provider, lookup RoleLookup, opts ...Option) *Resolver {
	r := &Resolver{
		provider:  provider,
		lookup:    lookup,
		timeout:   DefaultLookupTimeout,
		logger:    log.With().Str("component", "session").Logger(),
		baseCtx:   context.Background(),
		state:     RoleAssignment{Status: StatusUnresolved},
		listeners: make(map[int]func(RoleAssignment)),
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start assina o provedor. Lookups herdam ctx; cancelar ctx encerra os pendentes.
func (r *Resolver) Start(ctx context.Context) {
	r.mu.Lock()
	if r.started || r.closed {
		r.mu.Unlock()
		return
	}
	r.started = true
	r.baseCtx = ctx
	r.mu.Unlock()

	go r.dispatch()

	unsubscribe := r.provider.OnSessionChange(r.handleSession)

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		unsubscribe()
		return
	}
	r.unsubscribe = unsubscribe
	r.mu.Unlock()
}

// CurrentSession devolve a última sessão observada.
func (r *Resolver) CurrentSession() auth.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session
}

// CurrentRoleState devolve o estado atual sem efeitos colaterais.
func (r *Resolver) CurrentRoleState() RoleAssignment {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// OnChange registra listener. Ele recebe o estado atual e depois cada
// transição, na ordem, a partir de uma única goroutine.
func (r *Resolver) OnChange(fn func(RoleAssignment)) (unsubscribe func()) {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.listeners[id] = fn
	r.enqueueLocked(delivery{state: r.state, target: id})
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.listeners, id)
		r.mu.Unlock()
	}
}

// SignOut delega ao provedor; a transição chega pelo listener de sessão.
func (r *Resolver) SignOut(ctx context.Context) error {
	return r.provider.SignOut(ctx)
}

// Close encerra o dispatcher e descarta lookups pendentes.
func (r *Resolver) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.generation++
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	unsubscribe := r.unsubscribe
	r.unsubscribe = nil
	r.queue = nil
	close(r.done)
	r.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

func (r *Resolver) handleSession(s auth.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}

	r.generation++
	gen := r.generation
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.session = s

	if !s.SignedIn {
		r.logger.Debug().Msg("sessão encerrada")
		r.setLocked(RoleAssignment{Status: StatusSignedOut})
		return
	}

	ctx, cancel := context.WithTimeout(r.baseCtx, r.timeout)
	r.cancel = cancel
	r.setLocked(RoleAssignment{UserID: s.UserID, Status: StatusLoading})
	r.logger.Debug().Str("uid", s.UserID).Msg("resolvendo papel")

	go r.resolve(ctx, cancel, gen, s.UserID)
}

func (r *Resolver) resolve(ctx context.Context, cancel context.CancelFunc, gen uint64, uid string) {
	defer cancel()

	next, err := Resolve(ctx, r.lookup, uid)

	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.generation || r.closed {
		r.logger.Debug().Str("uid", uid).Msg("resultado de papel descartado: sessão mudou")
		r.metrics.StaleResult("session")
		return
	}
	r.cancel = nil

	if err != nil {
		r.logger.Warn().Err(err).Str("uid", uid).Msg("papel desconhecido")
	} else {
		r.logger.Debug().Str("uid", uid).Str("role", next.RoleName).Msg("papel resolvido")
	}
	r.metrics.RoleResolved(string(next.Status))
	r.setLocked(next)
}

func (r *Resolver) setLocked(state RoleAssignment) {
	r.state = state
	r.enqueueLocked(delivery{state: state, target: -1})
}

func (r *Resolver) enqueueLocked(d delivery) {
	if r.closed {
		return
	}
	r.queue = append(r.queue, d)
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

func (r *Resolver) dispatch() {
	for {
		select {
		case <-r.done:
			return
		case <-r.wake:
		}

		for {
			r.mu.Lock()
			if r.closed || len(r.queue) == 0 {
				r.mu.Unlock()
				break
			}
			d := r.queue[0]
			r.queue = r.queue[1:]
			var targets []func(RoleAssignment)
			if d.target >= 0 {
				if fn, ok := r.listeners[d.target]; ok {
					targets = append(targets, fn)
				}
			} else {
				for id := 0; id < r.nextID; id++ {
					if fn, ok := r.listeners[id]; ok {
						targets = append(targets, fn)
					}
				}
			}
			r.mu.Unlock()

			for _, fn := range targets {
				fn(d.state)
			}
		}
	}
}
