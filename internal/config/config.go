package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config centraliza a configuração carregada do ambiente.
type Config struct {
	Port              int
	DBDSN             string
	RedisURL          string
	JWTAccessTTL      time.Duration
	JWTRefreshTTL     time.Duration
	JWTSecret         string
	AllowOrigins      []string
	RateLimitPublic   RateLimitConfig
	RateLimitAuth     RateLimitConfig
	RoleLookupTimeout time.Duration
	Pages             PageSizes
	Storage           StorageConfig
	DefaultAvatarURL  string
	NotifyWebhookURL  string
}

// RateLimitConfig representa limites simples para throttling.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// PageSizes agrupa os tamanhos de página das listagens.
type PageSizes struct {
	MentorsFirst int
	MentorsMore  int
	Posts        int
}

// StorageConfig escolhe o backend de upload.
type StorageConfig struct {
	Provider     string
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	PublicDomain string
}

const defaultAvatar = "https://www.gravatar.com/avatar/?d=mp"

// Load carrega variáveis de ambiente e aplica defaults seguros.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 {
		return nil, errors.New("PORT inválida")
	}
	cfg.Port = port

	cfg.DBDSN = getEnv("DB_DSN", "")
	if cfg.DBDSN == "" {
		return nil, errors.New("DB_DSN obrigatório")
	}

	cfg.RedisURL = getEnv("REDIS_URL", "")
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL obrigatório")
	}

	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", ""))
	if len(cfg.JWTSecret) < 32 {
		return nil, errors.New("JWT_SECRET deve ter pelo menos 32 caracteres")
	}

	accessTTL, err := parseDurationEnv("JWT_ACCESS_TTL", 15*time.Minute)
	if err != nil {
		return nil, err
	}
	cfg.JWTAccessTTL = accessTTL

	refreshTTL, err := parseDurationEnv("JWT_REFRESH_TTL", 30*24*time.Hour)
	if err != nil {
		return nil, err
	}
	cfg.JWTRefreshTTL = refreshTTL

	cfg.AllowOrigins = splitList(getEnv("ALLOW_ORIGINS", ""))

	cfg.RateLimitPublic = RateLimitConfig{RequestsPerSecond: 10, Burst: 20}
	cfg.RateLimitAuth = RateLimitConfig{RequestsPerSecond: 10, Burst: 40}

	lookupTimeout, err := parseDurationEnv("ROLE_LOOKUP_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.RoleLookupTimeout = lookupTimeout

	if cfg.Pages, err = LoadPageSizes(); err != nil {
		return nil, err
	}

	cfg.Storage = StorageConfig{
		Provider:     strings.ToLower(strings.TrimSpace(getEnv("STORAGE_PROVIDER", "none"))),
		Endpoint:     strings.TrimSpace(getEnv("S3_ENDPOINT", "")),
		Region:       strings.TrimSpace(getEnv("S3_REGION", "auto")),
		Bucket:       strings.TrimSpace(getEnv("S3_BUCKET", "")),
		AccessKey:    strings.TrimSpace(getEnv("S3_ACCESS_KEY", "")),
		SecretKey:    strings.TrimSpace(getEnv("S3_SECRET_KEY", "")),
		PublicDomain: strings.TrimSpace(getEnv("S3_PUBLIC_DOMAIN", "")),
	}
	switch cfg.Storage.Provider {
	case "none", "s3":
	default:
		return nil, errors.New("STORAGE_PROVIDER deve ser none ou s3")
	}

	cfg.DefaultAvatarURL = strings.TrimSpace(getEnv("DEFAULT_AVATAR_URL", defaultAvatar))
	if cfg.DefaultAvatarURL == "" {
		cfg.DefaultAvatarURL = defaultAvatar
	}

	cfg.NotifyWebhookURL = strings.TrimSpace(getEnv("NOTIFY_WEBHOOK_URL", ""))

	return cfg, nil
}

// ClientConfig é o subconjunto usado pelo cliente de terminal.
type ClientConfig struct {
	Pages             PageSizes
	RoleLookupTimeout time.Duration
}

// LoadClient não exige segredos do servidor.
func LoadClient() (ClientConfig, error) {
	var (
		cfg ClientConfig
		err error
	)
	if cfg.RoleLookupTimeout, err = parseDurationEnv("ROLE_LOOKUP_TIMEOUT", 10*time.Second); err != nil {
		return ClientConfig{}, err
	}
	if cfg.Pages, err = LoadPageSizes(); err != nil {
		return ClientConfig{}, err
	}
	return cfg, nil
}

// LoadPageSizes lê apenas os tamanhos de página (usado também pelo cliente de terminal).
func LoadPageSizes() (PageSizes, error) {
	var (
		p   PageSizes
		err error
	)
	if p.MentorsFirst, err = parseIntEnv("MENTORS_PAGE_SIZE", 9); err != nil {
		return PageSizes{}, err
	}
	if p.MentorsMore, err = parseIntEnv("MENTORS_MORE_SIZE", 6); err != nil {
		return PageSizes{}, err
	}
	if p.Posts, err = parseIntEnv("POSTS_PAGE_SIZE", 5); err != nil {
		return PageSizes{}, err
	}
	return p, nil
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnv(key, def string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	val := getEnv(key, "")
	if val == "" {
		return def, nil
	}
	dur, err := time.ParseDuration(val)
	if err != nil || dur <= 0 {
		return 0, errors.New(key + " inválido")
	}
	return dur, nil
}

func parseIntEnv(key string, def int) (int, error) {
	val := strings.TrimSpace(getEnv(key, ""))
	if val == "" {
		return def, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil || n <= 0 {
		return 0, errors.New(key + " inválido")
	}
	return n, nil
}
