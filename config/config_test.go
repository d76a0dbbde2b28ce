package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/petal-labs/appcore/bus"
	"github.com/petal-labs/appcore/di"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "appcore.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeConfig(t, `
mode: test
bus:
  buffer: 32
  overflow: drop_newest
journal:
  backend: sqlite
  dsn: /tmp/journal.db
prefs:
  backend: redis
  redis:
    addr: localhost:6379
    db: 2
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Mode != "test" {
		t.Errorf("mode = %q, want %q", cfg.Mode, "test")
	}
	if cfg.Bus.Buffer != 32 {
		t.Errorf("bus buffer = %d, want 32", cfg.Bus.Buffer)
	}
	if cfg.Journal.Backend != "sqlite" || cfg.Journal.DSN != "/tmp/journal.db" {
		t.Errorf("journal = %+v", cfg.Journal)
	}
	if cfg.Prefs.Redis.Addr != "localhost:6379" || cfg.Prefs.Redis.DB != 2 {
		t.Errorf("redis = %+v", cfg.Prefs.Redis)
	}
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("APPCORE_TEST_DSN", "/data/j.db")
	path := writeConfig(t, `
journal:
  backend: sqlite
  dsn: ${APPCORE_TEST_DSN}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Journal.DSN != "/data/j.db" {
		t.Errorf("dsn = %q, want %q", cfg.Journal.DSN, "/data/j.db")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("Load on a missing file should error")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"default is valid", func(*Config) {}, ""},
		{"bad mode", func(c *Config) { c.Mode = "staging" }, "unsupported mode"},
		{"negative buffer", func(c *Config) { c.Bus.Buffer = -1 }, "must not be negative"},
		{"bad overflow", func(c *Config) { c.Bus.Overflow = "block" }, "unsupported bus overflow"},
		{"sqlite without dsn", func(c *Config) { c.Journal = JournalConfig{Backend: "sqlite"} }, "requires a dsn"},
		{"bad journal backend", func(c *Config) { c.Journal.Backend = "postgres" }, "unsupported journal backend"},
		{"redis without addr", func(c *Config) { c.Prefs = PrefsConfig{Backend: "redis"} }, "require an addr"},
		{"bad prefs backend", func(c *Config) { c.Prefs.Backend = "etcd" }, "unsupported prefs backend"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)

			err := Validate(cfg)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("got error %v, want substring %q", err, tc.wantErr)
			}
		})
	}
}

func TestConfig_DIMode(t *testing.T) {
	if got := (Config{Mode: "test"}).DIMode(); got != di.ModeTest {
		t.Errorf("DIMode = %v, want ModeTest", got)
	}
	if got := (Config{}).DIMode(); got != di.ModeLive {
		t.Errorf("DIMode = %v, want ModeLive", got)
	}
}

func TestBusConfig_RegistryConfig(t *testing.T) {
	got := BusConfig{Buffer: 5, Overflow: "drop_newest"}.RegistryConfig()
	if got.Buffer != 5 {
		t.Errorf("buffer = %d, want 5", got.Buffer)
	}
	if got.Overflow != bus.DropNewest {
		t.Errorf("overflow = %v, want DropNewest", got.Overflow)
	}

	if def := (BusConfig{}).RegistryConfig(); def.Overflow != bus.DropOldest {
		t.Errorf("default overflow = %v, want DropOldest", def.Overflow)
	}
}

func TestDiscoverFrom(t *testing.T) {
	t.Run("explicit path found", func(t *testing.T) {
		path := writeConfig(t, "mode: live\n")
		got, found, err := DiscoverFrom(path, "/nowhere", "/nowhere")
		if err != nil {
			t.Fatalf("DiscoverFrom: %v", err)
		}
		if !found || got != path {
			t.Errorf("got (%q, %v), want (%q, true)", got, found, path)
		}
	})

	t.Run("explicit path missing is an error", func(t *testing.T) {
		if _, _, err := DiscoverFrom(filepath.Join(t.TempDir(), "absent.yaml"), "/nowhere", "/nowhere"); err == nil {
			t.Fatal("missing explicit path should error")
		}
	})

	t.Run("project file", func(t *testing.T) {
		cwd := t.TempDir()
		path := filepath.Join(cwd, projectConfigName)
		if err := os.WriteFile(path, []byte("mode: live\n"), 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}

		got, found, err := DiscoverFrom("", cwd, t.TempDir())
		if err != nil {
			t.Fatalf("DiscoverFrom: %v", err)
		}
		if !found || got != path {
			t.Errorf("got (%q, %v), want (%q, true)", got, found, path)
		}
	})

	t.Run("home file", func(t *testing.T) {
		home := t.TempDir()
		dir := filepath.Join(home, homeConfigDir)
		if err := os.MkdirAll(dir, 0o700); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		path := filepath.Join(dir, homeConfigName)
		if err := os.WriteFile(path, []byte("mode: live\n"), 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}

		got, found, err := DiscoverFrom("", t.TempDir(), home)
		if err != nil {
			t.Fatalf("DiscoverFrom: %v", err)
		}
		if !found || got != path {
			t.Errorf("got (%q, %v), want (%q, true)", got, found, path)
		}
	})

	t.Run("nothing found", func(t *testing.T) {
		_, found, err := DiscoverFrom("", t.TempDir(), t.TempDir())
		if err != nil {
			t.Fatalf("DiscoverFrom: %v", err)
		}
		if found {
			t.Error("found should be false with no candidates present")
		}
	})
}
