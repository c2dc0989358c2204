package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/TTTT0803/VKUMentor-App/internal/docstore"
	"github.com/TTTT0803/VKUMentor-App/internal/feed"
	"github.com/TTTT0803/VKUMentor-App/internal/notify"
	"github.com/TTTT0803/VKUMentor-App/internal/policy"
	"github.com/TTTT0803/VKUMentor-App/internal/repo"
	"github.com/TTTT0803/VKUMentor-App/internal/util"
)

var (
	// ErrAlreadyRegistered indica cadastro de mentor pendente ou aprovado.
	ErrAlreadyRegistered = errors.New("cadastro de mentor já existe")
	// ErrMentorNotPending indica decisão sobre cadastro que não está pendente.
	ErrMentorNotPending = errors.New("cadastro não está pendente")
	// ErrMentorUnavailable indica mentor não aprovado.
	ErrMentorUnavailable = errors.New("mentor indisponível")
	// ErrAlreadyHired indica contratação repetida.
	ErrAlreadyHired = errors.New("mentor já contratado")
	// ErrNotHired indica avaliação sem contratação prévia.
	ErrNotHired = errors.New("avalie apenas mentores contratados")
	// ErrAlreadyRated indica segunda avaliação do mesmo mentor.
	ErrAlreadyRated = errors.New("mentor já avaliado")
	// ErrInvalidPageToken indica page token malformado.
	ErrInvalidPageToken = feed.ErrInvalidToken
	// ErrValidation indica entrada inválida; a mensagem detalha o campo.
	ErrValidation = errors.New("dados inválidos")
)

// MaxPageSize limita listagens paginadas.
const MaxPageSize = 50

// PageResult é uma página de listagem com token de continuação.
type PageResult[T any] struct {
	Items         []T    `json:"items"`
	NextPageToken string `json:"nextPageToken,omitempty"`
	HasMore       bool   `json:"hasMore"`
}

// ApprovedMentorsSpec lista mentores aprovados por nome.
func ApprovedMentorsSpec() feed.Spec {
	f := docstore.Eq("status", repo.MentorApproved)
	return feed.Spec{Collection: repo.MentorInfoCollection, Filter: &f, OrderBy: "name", Direction: docstore.Ascending}
}

// PendingMentorsSpec lista a fila de aprovação por nome.
func PendingMentorsSpec() feed.Spec {
	f := docstore.Eq("status", repo.MentorPending)
	return feed.Spec{Collection: repo.MentorInfoCollection, Filter: &f, OrderBy: "name", Direction: docstore.Ascending}
}

func clampPageSize(size, def int) int {
	if size <= 0 {
		return def
	}
	if size > MaxPageSize {
		return MaxPageSize
	}
	return size
}

func loadPage[T any](ctx context.Context, store docstore.Querier, spec feed.Spec, token string, size int, setID func(*T, string)) (PageResult[T], error) {
	after, err := feed.DecodeToken(token)
	if err != nil {
		return PageResult[T]{}, err
	}
	docs, next, err := feed.QueryPage(ctx, store, spec, size, after)
	if err != nil {
		return PageResult[T]{}, err
	}
	items, err := repo.DecodeAll(docs, setID)
	if err != nil {
		return PageResult[T]{}, err
	}
	return PageResult[T]{Items: items, NextPageToken: feed.EncodeToken(next), HasMore: next != nil}, nil
}

// MentorService cobre listagem, cadastro, aprovação, contratação e avaliação.
type MentorService struct {
	repo     *repo.Queries
	rbac     *RBACService
	notifier notify.Notifier
	pageSize int
}

// NewMentorService cria serviço com o tamanho padrão de página.
func NewMentorService(r *repo.Queries, rbac *RBACService, pageSize int) *MentorService {
	return &MentorService{repo: r, rbac: rbac, pageSize: pageSize}
}

// WithNotifier avisa administradores a cada novo cadastro pendente.
func (s *MentorService) WithNotifier(n notify.Notifier) *MentorService {
	s.notifier = n
	return s
}

// ListApproved devolve uma página de mentores aprovados.
func (s *MentorService) ListApproved(ctx context.Context, uid, token string, size int) (PageResult[repo.MentorInfo], error) {
	if _, err := s.rbac.Require(ctx, uid, policy.ObjectMentor, policy.ActionRead); err != nil {
		return PageResult[repo.MentorInfo]{}, err
	}
	return loadPage(ctx, s.repo.Store(), ApprovedMentorsSpec(), token, clampPageSize(size, s.pageSize),
		func(m *repo.MentorInfo, id string) { m.ID = id })
}

// ListPending devolve uma página da fila de aprovação (admin).
func (s *MentorService) ListPending(ctx context.Context, uid, token string, size int) (PageResult[repo.MentorInfo], error) {
	if _, err := s.rbac.Require(ctx, uid, policy.ObjectMentorQueue, policy.ActionRead); err != nil {
		return PageResult[repo.MentorInfo]{}, err
	}
	return loadPage(ctx, s.repo.Store(), PendingMentorsSpec(), token, clampPageSize(size, s.pageSize),
		func(m *repo.MentorInfo, id string) { m.ID = id })
}

// RatingView é uma avaliação com o nome do autor.
type RatingView struct {
	repo.MentorRating
	Username string `json:"username"`
}

// MentorDetail agrega mentor, avaliações e média.
type MentorDetail struct {
	Mentor  repo.MentorInfo `json:"mentor"`
	Ratings []RatingView    `json:"ratings"`
	Average float64         `json:"average"`
	Hired   bool            `json:"hired"`
}

// Detail carrega mentor com avaliações. Autores removidos aparecem sem nome.
func (s *MentorService) Detail(ctx context.Context, uid, mentorID string) (*MentorDetail, error) {
	state, err := s.rbac.Require(ctx, uid, policy.ObjectMentor, policy.ActionRead)
	if err != nil {
		return nil, err
	}
	mentor, err := s.repo.GetMentor(ctx, mentorID)
	if err != nil {
		return nil, err
	}
	if mentor.Status != repo.MentorApproved && !state.Is(repo.RoleAdmin) && mentor.UserID != uid {
		return nil, repo.ErrNotFound
	}

	ratings, err := s.repo.ListRatingsByMentor(ctx, mentorID)
	if err != nil {
		return nil, err
	}

	detail := &MentorDetail{Mentor: mentor, Ratings: make([]RatingView, 0, len(ratings))}
	names := map[string]string{}
	total := 0
	for _, r := range ratings {
		name, ok := names[r.UserID]
		if !ok {
			if u, err := s.repo.GetUserByID(ctx, r.UserID); err == nil {
				name = u.Username
			} else if !errors.Is(err, repo.ErrNotFound) {
				return nil, err
			}
			names[r.UserID] = name
		}
		detail.Ratings = append(detail.Ratings, RatingView{MentorRating: r, Username: name})
		total += r.Rating
	}
	if len(ratings) > 0 {
		detail.Average = float64(total) / float64(len(ratings))
	}

	if _, err := s.repo.FindHire(ctx, uid, mentorID); err == nil {
		detail.Hired = true
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}
	return detail, nil
}

// MentorInput carrega campos editáveis do cadastro.
type MentorInput struct {
	Name                 string `json:"name"`
	Expertise            string `json:"expertise"`
	Organization         string `json:"organization"`
	Achievements         string `json:"achievements"`
	ReferralSource       string `json:"referralSource"`
	SuggestionsQuestions string `json:"suggestionsQuestions"`
	Image                string `json:"image"`
}

func (in MentorInput) validate() error {
	for _, f := range [][2]string{
		{"expertise", in.Expertise},
		{"organization", in.Organization},
		{"achievements", in.Achievements},
	} {
		if err := util.RequireString(f[1], f[0]); err != nil {
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}
	return nil
}

// Register cria cadastro pendente para o mentee autenticado.
// Um cadastro rejeitado pode ser reenviado.
func (s *MentorService) Register(ctx context.Context, uid string, in MentorInput) (repo.MentorInfo, error) {
	if _, err := s.rbac.Require(ctx, uid, policy.ObjectMentor, policy.ActionRegister); err != nil {
		return repo.MentorInfo{}, err
	}
	if err := in.validate(); err != nil {
		return repo.MentorInfo{}, err
	}

	existing, err := s.repo.GetMentorByUserID(ctx, uid)
	switch {
	case err == nil && existing.Status != repo.MentorRejected:
		return repo.MentorInfo{}, ErrAlreadyRegistered
	case err != nil && !errors.Is(err, repo.ErrNotFound):
		return repo.MentorInfo{}, err
	}

	user, err := s.repo.GetUserByID(ctx, uid)
	if err != nil {
		return repo.MentorInfo{}, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = user.Username
	}

	m := repo.MentorInfo{
		ID:                   uid,
		Name:                 name,
		Expertise:            strings.TrimSpace(in.Expertise),
		Organization:         strings.TrimSpace(in.Organization),
		Achievements:         strings.TrimSpace(in.Achievements),
		ReferralSource:       strings.TrimSpace(in.ReferralSource),
		SuggestionsQuestions: strings.TrimSpace(in.SuggestionsQuestions),
		Image:                strings.TrimSpace(in.Image),
		Status:               repo.MentorPending,
		UserID:               uid,
	}
	if existing.ID != "" {
		m.ID = existing.ID
		err = s.repo.PutMentor(ctx, m)
	} else {
		_, err = s.repo.InsertMentor(ctx, m)
	}
	if errors.Is(err, repo.ErrDuplicate) {
		return repo.MentorInfo{}, ErrAlreadyRegistered
	}
	if err != nil {
		return repo.MentorInfo{}, err
	}
	log.Info().Str("uid", uid).Str("mentor_id", m.ID).Msg("mentor: cadastro pendente")

	if s.notifier != nil {
		msg := notify.Message{Title: "Novo cadastro de mentor", Text: fmt.Sprintf("%s (%s) aguarda aprovação", m.Name, m.Expertise)}
		if err := s.notifier.Notify(ctx, msg); err != nil {
			log.Warn().Err(err).Str("mentor_id", m.ID).Msg("mentor: falha ao avisar administradores")
		}
	}
	return m, nil
}

// Approve aprova cadastro pendente e promove o usuário ao papel mentor.
func (s *MentorService) Approve(ctx context.Context, uid, mentorID string) (repo.MentorInfo, error) {
	if _, err := s.rbac.Require(ctx, uid, policy.ObjectMentor, policy.ActionApprove); err != nil {
		return repo.MentorInfo{}, err
	}
	m, err := s.pending(ctx, mentorID)
	if err != nil {
		return repo.MentorInfo{}, err
	}

	role, err := s.repo.GetRoleByName(ctx, repo.RoleMentor)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return repo.MentorInfo{}, ErrRoleNotSeeded
		}
		return repo.MentorInfo{}, err
	}
	if m.UserID != "" {
		if err := s.repo.UpdateUserFields(ctx, m.UserID, map[string]any{"idRole": role.ID}); err != nil && !errors.Is(err, repo.ErrNotFound) {
			return repo.MentorInfo{}, err
		}
	}
	if err := s.repo.UpdateMentorFields(ctx, mentorID, map[string]any{"status": repo.MentorApproved}); err != nil {
		return repo.MentorInfo{}, err
	}
	m.Status = repo.MentorApproved
	log.Info().Str("admin", uid).Str("mentor_id", mentorID).Msg("mentor: aprovado")
	return m, nil
}

// Reject marca cadastro pendente como rejeitado.
func (s *MentorService) Reject(ctx context.Context, uid, mentorID string) (repo.MentorInfo, error) {
	if _, err := s.rbac.Require(ctx, uid, policy.ObjectMentor, policy.ActionReject); err != nil {
		return repo.MentorInfo{}, err
	}
	m, err := s.pending(ctx, mentorID)
	if err != nil {
		return repo.MentorInfo{}, err
	}
	if err := s.repo.UpdateMentorFields(ctx, mentorID, map[string]any{"status": repo.MentorRejected}); err != nil {
		return repo.MentorInfo{}, err
	}
	m.Status = repo.MentorRejected
	log.Info().Str("admin", uid).Str("mentor_id", mentorID).Msg("mentor: rejeitado")
	return m, nil
}

// Update edita os campos do cadastro (admin); status não muda.
func (s *MentorService) Update(ctx context.Context, uid, mentorID string, in MentorInput) (repo.MentorInfo, error) {
	if _, err := s.rbac.Require(ctx, uid, policy.ObjectMentor, policy.ActionUpdate); err != nil {
		return repo.MentorInfo{}, err
	}
	if err := util.RequireString(in.Name, "name"); err != nil {
		return repo.MentorInfo{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := in.validate(); err != nil {
		return repo.MentorInfo{}, err
	}
	m, err := s.repo.GetMentor(ctx, mentorID)
	if err != nil {
		return repo.MentorInfo{}, err
	}
	m.Name = strings.TrimSpace(in.Name)
	m.Expertise = strings.TrimSpace(in.Expertise)
	m.Organization = strings.TrimSpace(in.Organization)
	m.Achievements = strings.TrimSpace(in.Achievements)
	m.ReferralSource = strings.TrimSpace(in.ReferralSource)
	m.SuggestionsQuestions = strings.TrimSpace(in.SuggestionsQuestions)
	if img := strings.TrimSpace(in.Image); img != "" {
		m.Image = img
	}
	if err := s.repo.SaveMentor(ctx, m); err != nil {
		return repo.MentorInfo{}, err
	}
	return m, nil
}

// Delete remove o cadastro.
func (s *MentorService) Delete(ctx context.Context, uid, mentorID string) error {
	if _, err := s.rbac.Require(ctx, uid, policy.ObjectMentor, policy.ActionDelete); err != nil {
		return err
	}
	if err := s.repo.DeleteMentor(ctx, mentorID); err != nil {
		return err
	}
	log.Info().Str("admin", uid).Str("mentor_id", mentorID).Msg("mentor: removido")
	return nil
}

// Hire registra contratação de mentor aprovado pelo mentee.
func (s *MentorService) Hire(ctx context.Context, uid, mentorID string) (repo.MentorHire, error) {
	if _, err := s.rbac.Require(ctx, uid, policy.ObjectHire, policy.ActionCreate); err != nil {
		return repo.MentorHire{}, err
	}
	m, err := s.repo.GetMentor(ctx, mentorID)
	if err != nil {
		return repo.MentorHire{}, err
	}
	if m.Status != repo.MentorApproved {
		return repo.MentorHire{}, ErrMentorUnavailable
	}
	if _, err := s.repo.FindHire(ctx, uid, mentorID); err == nil {
		return repo.MentorHire{}, ErrAlreadyHired
	} else if !errors.Is(err, repo.ErrNotFound) {
		return repo.MentorHire{}, err
	}
	hire, err := s.repo.InsertHire(ctx, repo.MentorHire{
		MenteeID: uid,
		MentorID: mentorID,
		HireDate: util.Timestamp(util.Now()),
	})
	if errors.Is(err, repo.ErrDuplicate) {
		return repo.MentorHire{}, ErrAlreadyHired
	}
	return hire, err
}

// RatingInput carrega nota e comentário.
type RatingInput struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// Rate grava avaliação de mentor contratado, uma por mentee.
func (s *MentorService) Rate(ctx context.Context, uid, mentorID string, in RatingInput) (repo.MentorRating, error) {
	if _, err := s.rbac.Require(ctx, uid, policy.ObjectRating, policy.ActionCreate); err != nil {
		return repo.MentorRating{}, err
	}
	if err := util.ValidateRating(in.Rating); err != nil {
		return repo.MentorRating{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if _, err := s.repo.FindHire(ctx, uid, mentorID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return repo.MentorRating{}, ErrNotHired
		}
		return repo.MentorRating{}, err
	}

	ratings, err := s.repo.ListRatingsByMentor(ctx, mentorID)
	if err != nil {
		return repo.MentorRating{}, err
	}
	for _, r := range ratings {
		if r.UserID == uid {
			return repo.MentorRating{}, ErrAlreadyRated
		}
	}

	rating, err := s.repo.InsertRating(ctx, repo.MentorRating{
		MentorID: mentorID,
		UserID:   uid,
		Rating:   in.Rating,
		Comment:  strings.TrimSpace(in.Comment),
		Date:     util.DateStamp(util.Now()),
	})
	if errors.Is(err, repo.ErrDuplicate) {
		return repo.MentorRating{}, ErrAlreadyRated
	}
	return rating, err
}

func (s *MentorService) pending(ctx context.Context, mentorID string) (repo.MentorInfo, error) {
	m, err := s.repo.GetMentor(ctx, mentorID)
	if err != nil {
		return repo.MentorInfo{}, err
	}
	if m.Status != repo.MentorPending {
		return repo.MentorInfo{}, ErrMentorNotPending
	}
	return m, nil
}
