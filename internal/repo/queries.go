package repo

import (
	"context"
	"errors"
	"strings"

	"github.com/TTTT0803/VKUMentor-App/internal/docstore"
)

// Queries concentra operações tipadas sobre o banco de documentos.
type Queries struct {
	store docstore.Store
}

// New cria Queries sobre o store informado.
func New(store docstore.Store) *Queries {
	return &Queries{store: store}
}

// Store expõe o store subjacente (usado pelos fetchers paginados).
func (q *Queries) Store() docstore.Store {
	return q.store
}

func mapErr(err error) error {
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, docstore.ErrAlreadyExists):
		return ErrDuplicate
	}
	return err
}

// HireID é o id da contratação: uma por par mentee/mentor.
func HireID(menteeID, mentorID string) string {
	return menteeID + "_" + mentorID
}

// RatingID é o id da avaliação: uma por par autor/mentor.
func RatingID(userID, mentorID string) string {
	return userID + "_" + mentorID
}

// GetUserByID busca perfil pelo uid.
func (q *Queries) GetUserByID(ctx context.Context, uid string) (User, error) {
	doc, err := q.store.Get(ctx, UsersCollection, uid)
	if err != nil {
		return User{}, mapErr(err)
	}
	var u User
	if err := Decode(doc, &u); err != nil {
		return User{}, err
	}
	u.UID = doc.ID
	return u, nil
}

// GetUserByEmail busca perfil pelo e-mail (já normalizado em minúsculas).
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	docs, err := q.store.Query(ctx, docstore.Query{
		Collection: UsersCollection,
		Filters:    []docstore.Filter{docstore.Eq("email", strings.ToLower(strings.TrimSpace(email)))},
		Limit:      1,
	})
	if err != nil {
		return User{}, err
	}
	if len(docs) == 0 {
		return User{}, ErrNotFound
	}
	var u User
	if err := Decode(docs[0], &u); err != nil {
		return User{}, err
	}
	u.UID = docs[0].ID
	return u, nil
}

// InsertUser grava perfil usando o uid como id do documento.
func (q *Queries) InsertUser(ctx context.Context, u User) error {
	if _, err := q.GetUserByEmail(ctx, u.Email); err == nil {
		return ErrEmailInUse
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	fields, err := Encode(u)
	if err != nil {
		return err
	}
	return q.store.Set(ctx, UsersCollection, u.UID, fields)
}

// UpdateUserFields aplica patch parcial no perfil.
func (q *Queries) UpdateUserFields(ctx context.Context, uid string, patch map[string]any) error {
	return mapErr(q.store.Update(ctx, UsersCollection, uid, patch))
}

// GetRole busca papel pelo id.
func (q *Queries) GetRole(ctx context.Context, id string) (Role, error) {
	doc, err := q.store.Get(ctx, RolesCollection, id)
	if err != nil {
		return Role{}, mapErr(err)
	}
	var r Role
	if err := Decode(doc, &r); err != nil {
		return Role{}, err
	}
	r.ID = doc.ID
	return r, nil
}

// GetRoleByName busca papel pelo nome, sem diferenciar caixa.
func (q *Queries) GetRoleByName(ctx context.Context, name string) (Role, error) {
	roles, err := q.ListRoles(ctx)
	if err != nil {
		return Role{}, err
	}
	for _, r := range roles {
		if strings.EqualFold(strings.TrimSpace(r.RoleName), strings.TrimSpace(name)) {
			return r, nil
		}
	}
	return Role{}, ErrNotFound
}

// ListRoles lista todos os papéis.
func (q *Queries) ListRoles(ctx context.Context) ([]Role, error) {
	docs, err := q.store.Query(ctx, docstore.Query{Collection: RolesCollection, OrderBy: "roleName"})
	if err != nil {
		return nil, err
	}
	return DecodeAll(docs, func(r *Role, id string) { r.ID = id })
}

// InsertRole cria papel.
func (q *Queries) InsertRole(ctx context.Context, name string) (Role, error) {
	doc, err := q.store.Create(ctx, RolesCollection, map[string]any{"roleName": name})
	if err != nil {
		return Role{}, err
	}
	return Role{ID: doc.ID, RoleName: name}, nil
}

// GetMentor busca cadastro de mentor.
func (q *Queries) GetMentor(ctx context.Context, id string) (MentorInfo, error) {
	doc, err := q.store.Get(ctx, MentorInfoCollection, id)
	if err != nil {
		return MentorInfo{}, mapErr(err)
	}
	var m MentorInfo
	if err := Decode(doc, &m); err != nil {
		return MentorInfo{}, err
	}
	m.ID = doc.ID
	return m, nil
}

// GetMentorByUserID busca cadastro vinculado ao usuário.
func (q *Queries) GetMentorByUserID(ctx context.Context, userID string) (MentorInfo, error) {
	docs, err := q.store.Query(ctx, docstore.Query{
		Collection: MentorInfoCollection,
		Filters:    []docstore.Filter{docstore.Eq("userId", userID)},
		Limit:      1,
	})
	if err != nil {
		return MentorInfo{}, err
	}
	if len(docs) == 0 {
		return MentorInfo{}, ErrNotFound
	}
	var m MentorInfo
	if err := Decode(docs[0], &m); err != nil {
		return MentorInfo{}, err
	}
	m.ID = docs[0].ID
	return m, nil
}

// ListMentorsByStatus lista mentores com o status informado, por nome.
func (q *Queries) ListMentorsByStatus(ctx context.Context, status string) ([]MentorInfo, error) {
	docs, err := q.store.Query(ctx, docstore.Query{
		Collection: MentorInfoCollection,
		Filters:    []docstore.Filter{docstore.Eq("status", status)},
		OrderBy:    "name",
		Direction:  docstore.Ascending,
	})
	if err != nil {
		return nil, err
	}
	return DecodeAll(docs, func(m *MentorInfo, id string) { m.ID = id })
}

// InsertMentor cria cadastro de mentor. Com ID informado, falha com
// ErrDuplicate se o id já existir.
func (q *Queries) InsertMentor(ctx context.Context, m MentorInfo) (MentorInfo, error) {
	fields, err := Encode(m)
	if err != nil {
		return MentorInfo{}, err
	}
	if m.ID != "" {
		return m, mapErr(q.store.Insert(ctx, MentorInfoCollection, m.ID, fields))
	}
	doc, err := q.store.Create(ctx, MentorInfoCollection, fields)
	if err != nil {
		return MentorInfo{}, err
	}
	m.ID = doc.ID
	return m, nil
}

// SaveMentor substitui cadastro existente.
func (q *Queries) SaveMentor(ctx context.Context, m MentorInfo) error {
	if _, err := q.store.Get(ctx, MentorInfoCollection, m.ID); err != nil {
		return mapErr(err)
	}
	fields, err := Encode(m)
	if err != nil {
		return err
	}
	return q.store.Set(ctx, MentorInfoCollection, m.ID, fields)
}

// PutMentor grava cadastro com id definido pelo chamador (uid do mentor).
func (q *Queries) PutMentor(ctx context.Context, m MentorInfo) error {
	fields, err := Encode(m)
	if err != nil {
		return err
	}
	return q.store.Set(ctx, MentorInfoCollection, m.ID, fields)
}

// UpdateMentorFields aplica patch parcial (status, image...).
func (q *Queries) UpdateMentorFields(ctx context.Context, id string, patch map[string]any) error {
	return mapErr(q.store.Update(ctx, MentorInfoCollection, id, patch))
}

// DeleteMentor remove cadastro.
func (q *Queries) DeleteMentor(ctx context.Context, id string) error {
	return mapErr(q.store.Delete(ctx, MentorInfoCollection, id))
}

// InsertPost cria post da comunidade.
func (q *Queries) InsertPost(ctx context.Context, p CommunityDocument) (CommunityDocument, error) {
	fields, err := Encode(p)
	if err != nil {
		return CommunityDocument{}, err
	}
	doc, err := q.store.Create(ctx, CommunityDocumentsCollection, fields)
	if err != nil {
		return CommunityDocument{}, err
	}
	p.ID = doc.ID
	return p, nil
}

// ListRatingsByMentor lista avaliações de um mentor, mais recentes primeiro.
func (q *Queries) ListRatingsByMentor(ctx context.Context, mentorID string) ([]MentorRating, error) {
	docs, err := q.store.Query(ctx, docstore.Query{
		Collection: MentorRatingCollection,
		Filters:    []docstore.Filter{docstore.Eq("mentorId", mentorID)},
		OrderBy:    "date",
		Direction:  docstore.Descending,
	})
	if err != nil {
		return nil, err
	}
	return DecodeAll(docs, func(r *MentorRating, id string) { r.ID = id })
}

// InsertRating grava avaliação com id RatingID; repetir o par devolve ErrDuplicate.
func (q *Queries) InsertRating(ctx context.Context, r MentorRating) (MentorRating, error) {
	fields, err := Encode(r)
	if err != nil {
		return MentorRating{}, err
	}
	r.ID = RatingID(r.UserID, r.MentorID)
	if err := q.store.Insert(ctx, MentorRatingCollection, r.ID, fields); err != nil {
		return MentorRating{}, mapErr(err)
	}
	return r, nil
}

// FindHire busca contratação entre mentee e mentor.
func (q *Queries) FindHire(ctx context.Context, menteeID, mentorID string) (MentorHire, error) {
	docs, err := q.store.Query(ctx, docstore.Query{
		Collection: MentorHiresCollection,
		Filters: []docstore.Filter{
			docstore.Eq("menteeId", menteeID),
			docstore.Eq("mentorId", mentorID),
		},
		Limit: 1,
	})
	if err != nil {
		return MentorHire{}, err
	}
	if len(docs) == 0 {
		return MentorHire{}, ErrNotFound
	}
	var h MentorHire
	if err := Decode(docs[0], &h); err != nil {
		return MentorHire{}, err
	}
	h.ID = docs[0].ID
	return h, nil
}

// ListHiresByMentee lista mentores contratados pelo mentee.
func (q *Queries) ListHiresByMentee(ctx context.Context, menteeID string) ([]MentorHire, error) {
	docs, err := q.store.Query(ctx, docstore.Query{
		Collection: MentorHiresCollection,
		Filters:    []docstore.Filter{docstore.Eq("menteeId", menteeID)},
		OrderBy:    "hireDate",
		Direction:  docstore.Descending,
	})
	if err != nil {
		return nil, err
	}
	return DecodeAll(docs, func(h *MentorHire, id string) { h.ID = id })
}

// InsertHire grava contratação com id HireID; repetir o par devolve ErrDuplicate.
func (q *Queries) InsertHire(ctx context.Context, h MentorHire) (MentorHire, error) {
	fields, err := Encode(h)
	if err != nil {
		return MentorHire{}, err
	}
	h.ID = HireID(h.MenteeID, h.MentorID)
	if err := q.store.Insert(ctx, MentorHiresCollection, h.ID, fields); err != nil {
		return MentorHire{}, mapErr(err)
	}
	return h, nil
}

// IsEmpty indica se a coleção não possui documentos.
func (q *Queries) IsEmpty(ctx context.Context, collection string) (bool, error) {
	docs, err := q.store.Query(ctx, docstore.Query{Collection: collection, Limit: 1})
	if err != nil {
		return false, err
	}
	return len(docs) == 0, nil
}
