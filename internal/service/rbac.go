package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/TTTT0803/VKUMentor-App/internal/policy"
	"github.com/TTTT0803/VKUMentor-App/internal/session"
)

// ErrForbidden indica ausência de permissão.
var ErrForbidden = policy.ErrForbidden

// RBACService resolve o papel atual do usuário e aplica a política.
type RBACService struct {
	lookup  session.RoleLookup
	policy  *policy.Enforcer
	timeout time.Duration
}

// NewRBACService cria nova instância.
func NewRBACService(lookup session.RoleLookup, p *policy.Enforcer) *RBACService {
	return &RBACService{lookup: lookup, policy: p, timeout: session.DefaultLookupTimeout}
}

// WithLookupTimeout ajusta o prazo da resolução de papel; zero desativa.
func (s *RBACService) WithLookupTimeout(d time.Duration) *RBACService {
	s.timeout = d
	return s
}

// Role resolve o papel sem cache; falhas viram papel desconhecido.
func (s *RBACService) Role(ctx context.Context, userID string) session.RoleAssignment {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	state, err := session.Resolve(ctx, s.lookup, userID)
	if err != nil {
		log.Warn().Err(err).Str("uid", userID).Msg("rbac: papel desconhecido")
	}
	return state
}

// Require resolve o papel e exige permissão para object/action.
func (s *RBACService) Require(ctx context.Context, userID, object, action string) (session.RoleAssignment, error) {
	state := s.Role(ctx, userID)
	if err := s.policy.Authorize(state.RoleName, object, action); err != nil {
		log.Info().Str("uid", userID).Str("role", state.RoleName).Str("object", object).Str("action", action).Msg("rbac: acesso negado")
		return state, err
	}
	return state, nil
}

// Permissions lista permissões efetivas do papel.
func (s *RBACService) Permissions(role string) []string {
	return s.policy.Permissions(role)
}
