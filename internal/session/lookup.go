package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/TTTT0803/VKUMentor-App/internal/docstore"
	"github.com/TTTT0803/VKUMentor-App/internal/repo"
)

// ErrLookupFailed cobre perfil ausente, referência vazia, papel ausente e falhas de leitura.
var ErrLookupFailed = errors.New("falha ao resolver papel")

// RoleLookup resolve o papel de um usuário.
type RoleLookup interface {
	LookupRole(ctx context.Context, userID string) (roleRefID, roleName string, err error)
}

// DocumentRoleLookup segue users/<uid>.idRole até roles/<idRole>.roleName.
type DocumentRoleLookup struct {
	store docstore.Getter
}

// NewDocumentRoleLookup cria lookup sobre o store.
func NewDocumentRoleLookup(store docstore.Getter) *DocumentRoleLookup {
	return &DocumentRoleLookup{store: store}
}

// LookupRole executa as duas leituras dependentes. O nome volta em minúsculas.
func (l *DocumentRoleLookup) LookupRole(ctx context.Context, userID string) (string, string, error) {
	profile, err := l.store.Get(ctx, repo.UsersCollection, userID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return "", "", fmt.Errorf("%w: perfil %s não encontrado", ErrLookupFailed, userID)
		}
		return "", "", fmt.Errorf("%w: perfil: %v", ErrLookupFailed, err)
	}

	ref := strings.TrimSpace(profile.String("idRole"))
	if ref == "" {
		return "", "", fmt.Errorf("%w: idRole vazio", ErrLookupFailed)
	}

	role, err := l.store.Get(ctx, repo.RolesCollection, ref)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return ref, "", fmt.Errorf("%w: papel %s não encontrado", ErrLookupFailed, ref)
		}
		return ref, "", fmt.Errorf("%w: papel: %v", ErrLookupFailed, err)
	}

	name := strings.ToLower(strings.TrimSpace(role.String("roleName")))
	if name == "" {
		return ref, "", fmt.Errorf("%w: roleName vazio", ErrLookupFailed)
	}
	return ref, name, nil
}

// Resolve executa o lookup e dobra qualquer falha em Unknown.
func Resolve(ctx context.Context, lookup RoleLookup, userID string) (RoleAssignment, error) {
	ref, name, err := lookup.LookupRole(ctx, userID)
	if err == nil && strings.TrimSpace(name) == "" {
		err = fmt.Errorf("%w: nome vazio", ErrLookupFailed)
	}
	if err != nil {
		return RoleAssignment{
			UserID:          userID,
			RoleReferenceID: ref,
			RoleName:        UnknownRole,
			Status:          StatusUnknown,
		}, err
	}
	return RoleAssignment{
		UserID:          userID,
		RoleReferenceID: ref,
		RoleName:        strings.ToLower(strings.TrimSpace(name)),
		Status:          StatusResolved,
	}, nil
}
