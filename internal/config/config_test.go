package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, SourceFile, cfg.Routes.Source)
	assert.Equal(t, "configs/routes.yaml", cfg.Routes.File)
	assert.True(t, cfg.Routes.IncludeDefaultTag)
	assert.Equal(t, 5432, cfg.Postgres.Port)
	assert.Equal(t, "disable", cfg.Postgres.SSLMode)
	assert.Equal(t, 5, cfg.Listener.ReconnectSeconds)
}

func TestLoadFrom_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yml := `
server:
  addr: ":9090"
  log_level: debug
routes:
  source: file
  file: /etc/links/routes.yaml
  include_default_tag: false
static:
  template: /srv/static/deeplink.html
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "application.yaml"), []byte(yml), 0o644))
	t.Setenv("APP_SERVER_ADDR", ":7070")

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Addr, "env wins over file")
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, "/etc/links/routes.yaml", cfg.Routes.File)
	assert.False(t, cfg.Routes.IncludeDefaultTag)
	assert.Equal(t, "/srv/static/deeplink.html", cfg.Static.Template)
}

func TestLoadFrom_SourceChecks(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
	}{
		{"inline without document", map[string]string{"APP_ROUTES_SOURCE": "inline"}, true},
		{"inline with document", map[string]string{"APP_ROUTES_SOURCE": "inline", "APP_ROUTES_INLINE": `[{"path":"/a","targets":{"default":"https://a"}}]`}, false},
		{"postgres without db", map[string]string{"APP_ROUTES_SOURCE": "postgres"}, true},
		{"postgres with db", map[string]string{"APP_ROUTES_SOURCE": "postgres", "APP_POSTGRES_DB_NAME": "links"}, false},
		{"redis", map[string]string{"APP_ROUTES_SOURCE": "REDIS"}, false},
		{"unknown source", map[string]string{"APP_ROUTES_SOURCE": "s3"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadFrom(t.TempDir())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestDSN(t *testing.T) {
	var cfg Config
	cfg.Postgres.User = "u"
	cfg.Postgres.Password = "p"
	cfg.Postgres.Host = "db"
	cfg.Postgres.Port = 5433
	cfg.Postgres.DBName = "links"
	cfg.Postgres.SSLMode = "require"

	assert.Equal(t, "postgres://u:p@db:5433/links?sslmode=require", cfg.DSN())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, zerolog.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("verbose"))
}
