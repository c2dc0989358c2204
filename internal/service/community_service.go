package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/TTTT0803/VKUMentor-App/internal/docstore"
	"github.com/TTTT0803/VKUMentor-App/internal/feed"
	"github.com/TTTT0803/VKUMentor-App/internal/policy"
	"github.com/TTTT0803/VKUMentor-App/internal/repo"
	"github.com/TTTT0803/VKUMentor-App/internal/storage"
	"github.com/TTTT0803/VKUMentor-App/internal/util"
)

// PostsSpec lista posts da comunidade, mais recentes primeiro.
func PostsSpec() feed.Spec {
	return feed.Spec{Collection: repo.CommunityDocumentsCollection, OrderBy: "date", Direction: docstore.Descending}
}

// CommunityService cobre posts e uploads de imagens.
type CommunityService struct {
	repo     *repo.Queries
	rbac     *RBACService
	uploader storage.Uploader
	pageSize int
}

// NewCommunityService cria serviço.
func NewCommunityService(r *repo.Queries, rbac *RBACService, uploader storage.Uploader, pageSize int) *CommunityService {
	if uploader == nil {
		uploader = storage.NoopUploader{}
	}
	return &CommunityService{repo: r, rbac: rbac, uploader: uploader, pageSize: pageSize}
}

// AnonymousAuthor rotula posts cujo autor não existe mais.
const AnonymousAuthor = "Usuário anônimo"

// unknownAuthor é o mentorId gravado quando o post não teve autor conhecido.
const unknownAuthor = "Unknown"

// PostView é um post com o nome do autor.
type PostView struct {
	repo.CommunityDocument
	Username string `json:"username"`
}

// ListPosts devolve uma página de posts com o nome de cada autor.
func (s *CommunityService) ListPosts(ctx context.Context, uid, token string, size int) (PageResult[PostView], error) {
	if _, err := s.rbac.Require(ctx, uid, policy.ObjectPost, policy.ActionRead); err != nil {
		return PageResult[PostView]{}, err
	}
	page, err := loadPage(ctx, s.repo.Store(), PostsSpec(), token, clampPageSize(size, s.pageSize),
		func(p *repo.CommunityDocument, id string) { p.ID = id })
	if err != nil {
		return PageResult[PostView]{}, err
	}

	out := PageResult[PostView]{Items: make([]PostView, 0, len(page.Items)), NextPageToken: page.NextPageToken, HasMore: page.HasMore}
	names := map[string]string{}
	for _, p := range page.Items {
		name, ok := names[p.MentorID]
		if !ok {
			if name, err = s.authorName(ctx, p.MentorID); err != nil {
				return PageResult[PostView]{}, err
			}
			names[p.MentorID] = name
		}
		out.Items = append(out.Items, PostView{CommunityDocument: p, Username: name})
	}
	return out, nil
}

func (s *CommunityService) authorName(ctx context.Context, mentorID string) (string, error) {
	if mentorID == "" || mentorID == unknownAuthor {
		return AnonymousAuthor, nil
	}
	u, err := s.repo.GetUserByID(ctx, mentorID)
	if errors.Is(err, repo.ErrNotFound) {
		return AnonymousAuthor, nil
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(u.Username) == "" {
		return AnonymousAuthor, nil
	}
	return u.Username, nil
}

// PostInput carrega dados do novo post.
type PostInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Image   string `json:"image"`
	FileURL string `json:"fileUrl"`
}

// CreatePost publica post; apenas mentores.
func (s *CommunityService) CreatePost(ctx context.Context, uid string, in PostInput) (repo.CommunityDocument, error) {
	if _, err := s.rbac.Require(ctx, uid, policy.ObjectPost, policy.ActionCreate); err != nil {
		return repo.CommunityDocument{}, err
	}
	if err := util.RequireString(in.Title, "title"); err != nil {
		return repo.CommunityDocument{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := util.RequireString(in.Content, "content"); err != nil {
		return repo.CommunityDocument{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	post, err := s.repo.InsertPost(ctx, repo.CommunityDocument{
		Title:    strings.TrimSpace(in.Title),
		Content:  strings.TrimSpace(in.Content),
		Date:     util.Timestamp(util.Now()),
		Image:    strings.TrimSpace(in.Image),
		FileURL:  strings.TrimSpace(in.FileURL),
		MentorID: uid,
	})
	if err != nil {
		return repo.CommunityDocument{}, err
	}
	log.Info().Str("uid", uid).Str("post_id", post.ID).Msg("community: post publicado")
	return post, nil
}

// Upload grava imagem e, para avatar e foto de mentor, atualiza o documento do dono.
func (s *CommunityService) Upload(ctx context.Context, uid string, kind storage.Kind, body []byte) (*storage.UploadResult, error) {
	if _, err := s.rbac.Require(ctx, uid, policy.ObjectUpload, policy.ActionCreate); err != nil {
		return nil, err
	}
	input, err := storage.ImageInput(kind, uid, body)
	if err != nil {
		return nil, err
	}
	res, err := s.uploader.Upload(ctx, input)
	if err != nil {
		return nil, err
	}

	switch kind {
	case storage.KindAvatar:
		if err := s.repo.UpdateUserFields(ctx, uid, map[string]any{"avatar": res.URL}); err != nil {
			return nil, err
		}
	case storage.KindMentor:
		m, err := s.repo.GetMentorByUserID(ctx, uid)
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return nil, err
		}
		if err == nil {
			if err := s.repo.UpdateMentorFields(ctx, m.ID, map[string]any{"image": res.URL}); err != nil {
				return nil, err
			}
		}
	}
	log.Info().Str("uid", uid).Str("kind", string(kind)).Str("key", input.Key).Msg("upload concluído")
	return res, nil
}
