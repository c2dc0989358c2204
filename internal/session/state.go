package session

// Status é o estado da resolução de papel.
type Status string

const (
	StatusUnresolved Status = "unresolved"
	StatusLoading    Status = "loading"
	StatusResolved   Status = "resolved"
	StatusUnknown    Status = "unknown"
	StatusSignedOut  Status = "signed_out"
)

// UnknownRole é o único sentinela para "papel não determinado".
const UnknownRole = "unknown"

// RoleAssignment é o valor derivado e imutável publicado pelo Resolver.
type RoleAssignment struct {
	UserID          string `json:"userId,omitempty"`
	RoleReferenceID string `json:"roleReferenceId,omitempty"`
	RoleName        string `json:"roleName,omitempty"`
	Status          Status `json:"status"`
}

// Settled indica que a resolução terminou (Resolved, Unknown ou SignedOut).
func (a RoleAssignment) Settled() bool {
	switch a.Status {
	case StatusResolved, StatusUnknown, StatusSignedOut:
		return true
	default:
		return false
	}
}

// Pending indica que telas devem aguardar antes de decidir navegação.
func (a RoleAssignment) Pending() bool {
	return a.Status == StatusUnresolved || a.Status == StatusLoading
}

// Is compara o papel resolvido.
func (a RoleAssignment) Is(role string) bool {
	return a.Settled() && a.Status != StatusSignedOut && a.RoleName == role
}
