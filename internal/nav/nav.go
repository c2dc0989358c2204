package nav

import (
	"sync"

	"github.com/TTTT0803/VKUMentor-App/internal/repo"
	"github.com/TTTT0803/VKUMentor-App/internal/session"
)

// Destination é a tela inicial escolhida após a resolução da sessão.
type Destination string

const (
	DestinationLogin           Destination = "login"
	DestinationHome            Destination = "home"
	DestinationPendingApproval Destination = "pending_approval"
)

// Route escolhe o destino. Devolve false enquanto a resolução está pendente.
func Route(state session.RoleAssignment) (Destination, bool) {
	switch state.Status {
	case session.StatusSignedOut:
		return DestinationLogin, true
	case session.StatusResolved, session.StatusUnknown:
		if state.RoleName == repo.RoleAdmin {
			return DestinationPendingApproval, true
		}
		return DestinationHome, true
	default:
		return "", false
	}
}

type stateKey struct {
	status session.Status
	userID string
	role   string
}

// Gate chama navigate uma única vez por estado resolvido distinto.
type Gate struct {
	navigate func(Destination, session.RoleAssignment)

	mu   sync.Mutex
	last *stateKey
}

// NewGate cria gate com a função de navegação.
func NewGate(navigate func(Destination, session.RoleAssignment)) *Gate {
	return &Gate{navigate: navigate}
}

// Observe avalia o estado; repetições do mesmo estado não navegam de novo.
func (g *Gate) Observe(state session.RoleAssignment) bool {
	dest, ok := Route(state)
	if !ok {
		return false
	}

	key := stateKey{status: state.Status, userID: state.UserID, role: state.RoleName}
	g.mu.Lock()
	if g.last != nil && *g.last == key {
		g.mu.Unlock()
		return false
	}
	g.last = &key
	g.mu.Unlock()

	g.navigate(dest, state)
	return true
}

// Bind liga o gate às transições do resolver.
func (g *Gate) Bind(r *session.Resolver) (unsubscribe func()) {
	return r.OnChange(func(state session.RoleAssignment) {
		g.Observe(state)
	})
}
