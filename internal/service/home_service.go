package service

import (
	"context"
	"errors"

	"github.com/TTTT0803/VKUMentor-App/internal/docstore"
	"github.com/TTTT0803/VKUMentor-App/internal/feed"
	"github.com/TTTT0803/VKUMentor-App/internal/policy"
	"github.com/TTTT0803/VKUMentor-App/internal/repo"
)

// ErrUnknownSection indica seção da home inexistente.
var ErrUnknownSection = errors.New("seção desconhecida")

// Seções da home.
const (
	SectionCompetitions = "competitions"
	SectionPartners     = "partners"
	SectionSliders      = "sliders"
)

// HomeSpecs mapeia cada seção à sua leitura ordenada.
var HomeSpecs = map[string]feed.Spec{
	SectionCompetitions: {Collection: repo.CompetitionsCollection, OrderBy: "date", Direction: docstore.Descending},
	SectionPartners:     {Collection: repo.UniversityPartnersCollection, OrderBy: "name", Direction: docstore.Ascending},
	SectionSliders:      {Collection: repo.SliderImagesCollection, OrderBy: "caption", Direction: docstore.Ascending},
}

// HomeFeed traz a primeira página de cada seção.
type HomeFeed struct {
	Sliders      PageResult[repo.SliderImage]       `json:"sliders"`
	Competitions PageResult[repo.Competition]       `json:"competitions"`
	Partners     PageResult[repo.UniversityPartner] `json:"partners"`
}

// HomeService lê o conteúdo institucional da home. Somente leitura.
type HomeService struct {
	store    docstore.Querier
	rbac     *RBACService
	pageSize int
}

// NewHomeService cria serviço.
func NewHomeService(r *repo.Queries, rbac *RBACService, pageSize int) *HomeService {
	return &HomeService{store: r.Store(), rbac: rbac, pageSize: pageSize}
}

// Home carrega a primeira página das três seções.
func (s *HomeService) Home(ctx context.Context, uid string, size int) (*HomeFeed, error) {
	if _, err := s.rbac.Require(ctx, uid, policy.ObjectHome, policy.ActionRead); err != nil {
		return nil, err
	}
	size = clampPageSize(size, s.pageSize)

	var (
		out HomeFeed
		err error
	)
	if out.Sliders, err = loadPage(ctx, s.store, HomeSpecs[SectionSliders], "", size, setSliderID); err != nil {
		return nil, err
	}
	if out.Competitions, err = loadPage(ctx, s.store, HomeSpecs[SectionCompetitions], "", size, setCompetitionID); err != nil {
		return nil, err
	}
	if out.Partners, err = loadPage(ctx, s.store, HomeSpecs[SectionPartners], "", size, setPartnerID); err != nil {
		return nil, err
	}
	return &out, nil
}

// Section pagina uma seção a partir do token devolvido pela página anterior.
func (s *HomeService) Section(ctx context.Context, uid, section, token string, size int) (any, error) {
	if _, err := s.rbac.Require(ctx, uid, policy.ObjectHome, policy.ActionRead); err != nil {
		return nil, err
	}
	spec, ok := HomeSpecs[section]
	if !ok {
		return nil, ErrUnknownSection
	}
	size = clampPageSize(size, s.pageSize)

	switch section {
	case SectionCompetitions:
		return loadPage(ctx, s.store, spec, token, size, setCompetitionID)
	case SectionPartners:
		return loadPage(ctx, s.store, spec, token, size, setPartnerID)
	default:
		return loadPage(ctx, s.store, spec, token, size, setSliderID)
	}
}

func setCompetitionID(c *repo.Competition, id string) { c.ID = id }
func setPartnerID(p *repo.UniversityPartner, id string) { p.ID = id }
func setSliderID(img *repo.SliderImage, id string) { img.ID = id }
