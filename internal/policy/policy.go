package policy

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/TTTT0803/VKUMentor-App/internal/repo"
	"github.com/TTTT0803/VKUMentor-App/internal/session"
)

//go:embed model.conf
var modelText string

// ErrForbidden indica papel sem permissão para a ação.
var ErrForbidden = errors.New("acesso negado")

const (
	ObjectMentor      = "mentor"
	ObjectMentorQueue = "mentor_queue"
	ObjectPost        = "post"
	ObjectRating      = "rating"
	ObjectHire        = "hire"
	ObjectUpload      = "upload"
	ObjectHome        = "home"
)

const (
	ActionRead     = "read"
	ActionCreate   = "create"
	ActionRegister = "register"
	ActionApprove  = "approve"
	ActionReject   = "reject"
	ActionUpdate   = "update"
	ActionDelete   = "delete"
)

// memberRole agrupa todo usuário autenticado, inclusive papel desconhecido.
const memberRole = "member"

var groupings = [][]string{
	{repo.RoleAdmin, memberRole},
	{repo.RoleMentor, memberRole},
	{repo.RoleMentee, memberRole},
	{session.UnknownRole, memberRole},
}

var policies = [][]string{
	{memberRole, ObjectMentor, ActionRead},
	{memberRole, ObjectPost, ActionRead},
	{memberRole, ObjectUpload, ActionCreate},
	{memberRole, ObjectHome, ActionRead},

	{repo.RoleMentee, ObjectMentor, ActionRegister},
	{repo.RoleMentee, ObjectHire, ActionCreate},
	{repo.RoleMentee, ObjectRating, ActionCreate},

	{repo.RoleMentor, ObjectPost, ActionCreate},

	{repo.RoleAdmin, ObjectMentorQueue, ActionRead},
	{repo.RoleAdmin, ObjectMentor, ActionApprove},
	{repo.RoleAdmin, ObjectMentor, ActionReject},
	{repo.RoleAdmin, ObjectMentor, ActionUpdate},
	{repo.RoleAdmin, ObjectMentor, ActionDelete},
}

// Enforcer decide permissões por papel resolvido.
type Enforcer struct {
	enforcer *casbin.SyncedEnforcer
}

// New monta o enforcer com o modelo embutido e as políticas fixas do app.
func New() (*Enforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("policy: model: %w", err)
	}
	e, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("policy: enforcer: %w", err)
	}
	if _, err := e.AddGroupingPolicies(groupings); err != nil {
		return nil, fmt.Errorf("policy: groupings: %w", err)
	}
	if _, err := e.AddPolicies(policies); err != nil {
		return nil, fmt.Errorf("policy: policies: %w", err)
	}
	return &Enforcer{enforcer: e}, nil
}

// Allowed indica se o papel pode executar action sobre object.
func (p *Enforcer) Allowed(role, object, action string) bool {
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		return false
	}
	ok, err := p.enforcer.Enforce(role, object, action)
	return err == nil && ok
}

// Authorize devolve ErrForbidden quando a ação não é permitida.
func (p *Enforcer) Authorize(role, object, action string) error {
	if !p.Allowed(role, object, action) {
		return ErrForbidden
	}
	return nil
}

// Permissions lista "objeto.ação" permitidos ao papel, em ordem.
func (p *Enforcer) Permissions(role string) []string {
	role = strings.ToLower(strings.TrimSpace(role))
	rules, err := p.enforcer.GetImplicitPermissionsForUser(role)
	if err != nil {
		return nil
	}
	seen := make(map[string]struct{}, len(rules))
	out := make([]string, 0, len(rules))
	for _, rule := range rules {
		if len(rule) < 3 {
			continue
		}
		perm := rule[1] + "." + rule[2]
		if _, ok := seen[perm]; ok {
			continue
		}
		seen[perm] = struct{}{}
		out = append(out, perm)
	}
	sort.Strings(out)
	return out
}
