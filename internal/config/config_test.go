package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DB_DSN", "postgres://localhost/vku")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("JWT_SECRET", strings.Repeat("s", 32))
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, 10*time.Second, cfg.RoleLookupTimeout)
	require.Equal(t, PageSizes{MentorsFirst: 9, MentorsMore: 6, Posts: 5}, cfg.Pages)
	require.Equal(t, "none", cfg.Storage.Provider)
	require.NotEmpty(t, cfg.DefaultAvatarURL)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("ROLE_LOOKUP_TIMEOUT", "3s")
	t.Setenv("POSTS_PAGE_SIZE", "10")
	t.Setenv("ALLOW_ORIGINS", " http://a.test , ,http://b.test")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 3*time.Second, cfg.RoleLookupTimeout)
	require.Equal(t, 10, cfg.Pages.Posts)
	require.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowOrigins)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"MENTORS_PAGE_SIZE":   "0",
		"ROLE_LOOKUP_TIMEOUT": "depois",
		"STORAGE_PROVIDER":    "ftp",
		"JWT_SECRET":          "curto",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			setRequired(t)
			t.Setenv(key, val)
			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestLoadClientIgnoresServerSecrets(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("MENTORS_MORE_SIZE", "3")

	cfg, err := LoadClient()
	require.NoError(t, err)
	require.Equal(t, 3, cfg.Pages.MentorsMore)
	require.Equal(t, 10*time.Second, cfg.RoleLookupTimeout)
}
