package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/TTTT0803/VKUMentor-App/internal/config"
	httpmiddleware "github.com/TTTT0803/VKUMentor-App/internal/http/middleware"
	"github.com/TTTT0803/VKUMentor-App/internal/metrics"
	"github.com/TTTT0803/VKUMentor-App/internal/service"
)

// HealthCheck testa uma dependência externa (banco, redis).
type HealthCheck func(ctx context.Context) error

// Deps agrupa os serviços expostos pela API.
type Deps struct {
	Auth      *service.AuthService
	Mentors   *service.MentorService
	Community *service.CommunityService
	Home      *service.HomeService
	Metrics   *metrics.Metrics
	Checks    map[string]HealthCheck
}

type Handler struct {
	cfg           *config.Config
	auth          *service.AuthService
	mentors       *service.MentorService
	community     *service.CommunityService
	home          *service.HomeService
	metrics       *metrics.Metrics
	checks        map[string]HealthCheck
	publicLimiter *httpmiddleware.RateLimiter
	authLimiter   *httpmiddleware.RateLimiter
	devCookies    bool
}

// NewRouter devolve roteador configurado.
func NewRouter(cfg *config.Config, deps Deps) http.Handler {
	devCookies := false
	for _, origin := range cfg.AllowOrigins {
		if strings.Contains(origin, "localhost") {
			devCookies = true
			break
		}
	}

	h := &Handler{
		cfg:           cfg,
		auth:          deps.Auth,
		mentors:       deps.Mentors,
		community:     deps.Community,
		home:          deps.Home,
		metrics:       deps.Metrics,
		checks:        deps.Checks,
		publicLimiter: httpmiddleware.NewRateLimiter(cfg.RateLimitPublic.RequestsPerSecond, cfg.RateLimitPublic.Burst),
		authLimiter:   httpmiddleware.NewRateLimiter(cfg.RateLimitAuth.RequestsPerSecond, cfg.RateLimitAuth.Burst),
		devCookies:    devCookies,
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(httpmiddleware.Logging(deps.Metrics))
	r.Use(httpmiddleware.Recover)
	r.Use(httpmiddleware.CORS(cfg.AllowOrigins))

	r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())

	r.Group(func(public chi.Router) {
		public.Use(httpmiddleware.IPRateLimit(h.publicLimiter))

		public.Get("/health", h.Health)
		public.Get("/ready", h.Ready)

		public.Route("/auth", func(auth chi.Router) {
			auth.Post("/signup", h.Signup)
			auth.Post("/login", h.Login)
			auth.Post("/refresh", h.Refresh)
			auth.Post("/logout", h.Logout)
		})
	})

	r.Group(func(private chi.Router) {
		private.Use(httpmiddleware.Auth(deps.Auth.JWT()))
		private.Use(httpmiddleware.UserRateLimit(h.authLimiter))

		private.Get("/me", h.Me)

		private.Route("/home", func(hm chi.Router) {
			hm.Get("/", h.Home)
			hm.Get("/{section}", h.HomeSection)
		})

		private.Route("/mentors", func(m chi.Router) {
			m.Get("/", h.ListMentors)
			m.Post("/register", h.RegisterMentor)
			m.Get("/{id}", h.GetMentor)
			m.Post("/{id}/hire", h.HireMentor)
			m.Post("/{id}/ratings", h.RateMentor)
		})

		private.Route("/posts", func(p chi.Router) {
			p.Get("/", h.ListPosts)
			p.Post("/", h.CreatePost)
		})
		private.Post("/uploads", h.Upload)

		private.Route("/admin/mentors", func(a chi.Router) {
			a.Get("/pending", h.ListPendingMentors)
			a.Post("/{id}/approve", h.ApproveMentor)
			a.Post("/{id}/reject", h.RejectMentor)
			a.Put("/{id}", h.UpdateMentor)
			a.Delete("/{id}", h.DeleteMentor)
		})
	})

	return r
}

// Health responde status simples.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready executa as verificações de dependências.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	failed := map[string]any{}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			failed[name] = err.Error()
		}
	}

	if len(failed) > 0 {
		WriteError(w, http.StatusServiceUnavailable, "INTERNAL", "dependências indisponíveis", failed)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"ready": true})
}
