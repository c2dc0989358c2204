package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/TTTT0803/VKUMentor-App/internal/auth"
	"github.com/TTTT0803/VKUMentor-App/internal/nav"
	"github.com/TTTT0803/VKUMentor-App/internal/repo"
	"github.com/TTTT0803/VKUMentor-App/internal/session"
	"github.com/TTTT0803/VKUMentor-App/internal/util"
)

var (
	// ErrInvalidCredentials indica falha na autenticação.
	ErrInvalidCredentials = auth.ErrInvalidCredentials
	// ErrAccountDisabled indica conta desativada.
	ErrAccountDisabled = auth.ErrAccountDisabled
	// ErrRefreshInvalid indica refresh token inválido ou expirado.
	ErrRefreshInvalid = errors.New("refresh token inválido")
	// ErrEmailInUse indica e-mail já cadastrado.
	ErrEmailInUse = repo.ErrEmailInUse
	// ErrRoleNotSeeded indica coleção roles sem o papel padrão.
	ErrRoleNotSeeded = errors.New("papel padrão não cadastrado")
)

type authRepository interface {
	GetUserByEmail(ctx context.Context, email string) (repo.User, error)
	GetUserByID(ctx context.Context, uid string) (repo.User, error)
	GetRoleByName(ctx context.Context, name string) (repo.Role, error)
	GetMentorByUserID(ctx context.Context, userID string) (repo.MentorInfo, error)
	InsertUser(ctx context.Context, u repo.User) error
	ListHiresByMentee(ctx context.Context, menteeID string) ([]repo.MentorHire, error)
}

// RedisCommander é o subconjunto do cliente Redis usado para refresh tokens.
type RedisCommander interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// AuthService concentra regras de autenticação e sessões.
type AuthService struct {
	repo          authRepository
	redis         RedisCommander
	jwt           *auth.JWTManager
	rbac          *RBACService
	refreshTTL    time.Duration
	defaultAvatar string
}

// NewAuthService cria novo serviço.
func NewAuthService(r *repo.Queries, redisClient RedisCommander, jwtMgr *auth.JWTManager, rbac *RBACService, refreshTTL time.Duration, defaultAvatar string) *AuthService {
	return &AuthService{
		repo:          r,
		redis:         redisClient,
		jwt:           jwtMgr,
		rbac:          rbac,
		refreshTTL:    refreshTTL,
		defaultAvatar: defaultAvatar,
	}
}

// JWT expõe gerenciador de JWT (útil em middlewares).
func (s *AuthService) JWT() *auth.JWTManager {
	return s.jwt
}

// UserProfile é a visão pública do perfil.
type UserProfile struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Avatar    string `json:"avatar,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

func profileOf(u repo.User) UserProfile {
	return UserProfile{ID: u.UID, Username: u.Username, Email: u.Email, Avatar: u.Avatar, CreatedAt: u.CreatedAt}
}

// LoginResult representa retorno padrão de autenticações.
type LoginResult struct {
	AccessToken   string
	RefreshToken  string
	RefreshExpiry time.Time
	Role          session.RoleAssignment
	Destination   nav.Destination
	Profile       UserProfile
}

// SignupInput agrupa dados do cadastro de mentee.
type SignupInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

// Signup cria perfil com papel mentee e já autentica.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*LoginResult, error) {
	email, err := auth.NormalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	hash, err := auth.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	role, err := s.repo.GetRoleByName(ctx, repo.RoleMentee)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRoleNotSeeded
		}
		return nil, err
	}

	username := strings.TrimSpace(in.Username)
	if username == "" {
		username = auth.UsernameFromEmail(email)
	}

	user := repo.User{
		UID:          util.NewID(),
		Username:     username,
		Email:        email,
		IDRole:       role.ID,
		Avatar:       s.defaultAvatar,
		CreatedAt:    util.Timestamp(util.Now()),
		PasswordHash: hash,
	}
	if err := s.repo.InsertUser(ctx, user); err != nil {
		return nil, err
	}
	log.Info().Str("uid", user.UID).Msg("signup: mentee cadastrado")

	return s.issue(ctx, user)
}

// Login autentica por e-mail e senha.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := auth.Authenticate(ctx, s.repo, email, password)
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, user)
}

// Refresh troca refresh token por novos tokens. O papel é resolvido de novo.
func (s *AuthService) Refresh(ctx context.Context, rawToken string) (*LoginResult, error) {
	if rawToken == "" {
		return nil, ErrRefreshInvalid
	}

	redisKey := auth.RefreshRedisKey(auth.HashRefreshToken(rawToken))
	uid, err := s.redis.Get(ctx, redisKey).Result()
	if err == redis.Nil {
		return nil, ErrRefreshInvalid
	}
	if err != nil {
		return nil, err
	}

	// Revoga token anterior antes de emitir o novo.
	if err := s.redis.Del(ctx, redisKey).Err(); err != nil && err != redis.Nil {
		return nil, err
	}

	user, err := s.repo.GetUserByID(ctx, uid)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRefreshInvalid
		}
		return nil, err
	}
	if user.Disabled {
		return nil, ErrAccountDisabled
	}

	return s.issue(ctx, user)
}

// Logout revoga refresh token atual.
func (s *AuthService) Logout(ctx context.Context, rawToken string) error {
	if rawToken == "" {
		return nil
	}
	redisKey := auth.RefreshRedisKey(auth.HashRefreshToken(rawToken))
	if err := s.redis.Del(ctx, redisKey).Err(); err != nil && err != redis.Nil {
		return err
	}
	return nil
}

// Me descreve o usuário autenticado com papel, destino e permissões.
type Me struct {
	User        UserProfile            `json:"user"`
	Role        session.RoleAssignment `json:"role"`
	Destination nav.Destination        `json:"destination"`
	Permissions []string               `json:"permissions"`
	Mentor      *repo.MentorInfo       `json:"mentor,omitempty"`
	Hires       []repo.MentorHire      `json:"hires,omitempty"`
}

// GetMe retorna perfil completo do subject.
func (s *AuthService) GetMe(ctx context.Context, uid string) (*Me, error) {
	user, err := s.repo.GetUserByID(ctx, uid)
	if err != nil {
		return nil, err
	}

	state := s.rbac.Role(ctx, uid)
	dest, _ := nav.Route(state)
	me := &Me{
		User:        profileOf(user),
		Role:        state,
		Destination: dest,
		Permissions: s.rbac.Permissions(state.RoleName),
	}

	mentor, err := s.repo.GetMentorByUserID(ctx, uid)
	switch {
	case err == nil:
		me.Mentor = &mentor
	case !errors.Is(err, repo.ErrNotFound):
		return nil, err
	}

	if state.Is(repo.RoleMentee) {
		if me.Hires, err = s.repo.ListHiresByMentee(ctx, uid); err != nil {
			return nil, err
		}
	}
	return me, nil
}

func (s *AuthService) issue(ctx context.Context, user repo.User) (*LoginResult, error) {
	state := s.rbac.Role(ctx, user.UID)

	token, _, err := s.jwt.GenerateAccessToken(user.UID, user.Email, state.RoleName)
	if err != nil {
		return nil, err
	}

	rawRefresh, refreshHash, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}
	expires := util.Now().Add(s.refreshTTL)
	if err := s.redis.Set(ctx, auth.RefreshRedisKey(refreshHash), user.UID, s.refreshTTL).Err(); err != nil {
		return nil, err
	}

	dest, _ := nav.Route(state)
	return &LoginResult{
		AccessToken:   token,
		RefreshToken:  rawRefresh,
		RefreshExpiry: expires,
		Role:          state,
		Destination:   dest,
		Profile:       profileOf(user),
	}, nil
}
