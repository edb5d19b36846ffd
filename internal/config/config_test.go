package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PRHUB_ORG_URL", "PRHUB_TOKEN", "AZURE_DEVOPS_EXT_PAT", "PRHUB_PROJECTS",
		"PRHUB_LOG_LEVEL", "PRHUB_STORAGE", "PRHUB_REFRESH_INTERVAL",
		"PRHUB_REQUESTS_PER_SECOND", "PRHUB_TRACK_VISITS",
	} {
		t.Setenv(k, "")
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(cwd)
	})
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadPrecedence(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	clearEnv(t)

	writeFile(t, filepath.Join(home, ".config", "prhub", "config.yaml"),
		"org_url: https://dev.azure.com/global/\ntoken: global-token\nprojects: [one]\nrefresh_interval: 30s\n")

	repo := t.TempDir()
	writeFile(t, filepath.Join(repo, ".prhub", "config.yaml"),
		"organization: repoorg\nprojects: [two, three]\nstorage_path: state/storage.json\ntrack_visits: false\n")
	chdir(t, repo)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.OrgURL != "https://dev.azure.com/repoorg" {
		t.Errorf("OrgURL = %q", cfg.OrgURL)
	}
	if cfg.Token != "global-token" {
		t.Errorf("Token = %q", cfg.Token)
	}
	if len(cfg.Projects) != 2 || cfg.Projects[0] != "two" {
		t.Errorf("Projects = %v", cfg.Projects)
	}
	if cfg.RefreshInterval != 30*time.Second {
		t.Errorf("RefreshInterval = %v", cfg.RefreshInterval)
	}
	if cfg.TrackVisits {
		t.Errorf("TrackVisits should be false from repo config")
	}
	resolvedRepo, _ := filepath.EvalSymlinks(repo)
	gotStorage, _ := filepath.EvalSymlinks(filepath.Dir(filepath.Dir(cfg.StoragePath)))
	if gotStorage != resolvedRepo {
		t.Errorf("StoragePath %q not resolved against repo root %q", cfg.StoragePath, repo)
	}

	t.Setenv("PRHUB_ORG_URL", "https://dev.azure.com/envorg")
	t.Setenv("PRHUB_PROJECTS", "a, b,,c")
	t.Setenv("PRHUB_TRACK_VISITS", "1")
	cfgEnv, err := Load()
	if err != nil {
		t.Fatalf("Load env error: %v", err)
	}
	if cfgEnv.OrgURL != "https://dev.azure.com/envorg" {
		t.Errorf("env OrgURL = %q", cfgEnv.OrgURL)
	}
	if len(cfgEnv.Projects) != 3 || cfgEnv.Projects[2] != "c" {
		t.Errorf("env Projects = %v", cfgEnv.Projects)
	}
	if !cfgEnv.TrackVisits {
		t.Errorf("env TrackVisits should be true")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	clearEnv(t)
	chdir(t, t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.RefreshInterval != DefaultRefreshInterval {
		t.Errorf("RefreshInterval = %v", cfg.RefreshInterval)
	}
	if cfg.RequestsPerSecond != DefaultRequestsPerSecond || cfg.Burst != DefaultBurst {
		t.Errorf("rate defaults = %v/%d", cfg.RequestsPerSecond, cfg.Burst)
	}
	if !cfg.TrackVisits {
		t.Errorf("TrackVisits should default to true")
	}
}

func TestLoadDotEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".env"), "PRHUB_TOKEN=from-dotenv\n")
	chdir(t, dir)

	// t.Setenv above registered cleanup for PRHUB_TOKEN; unset it so .env can fill it.
	os.Unsetenv("PRHUB_TOKEN")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Token != "from-dotenv" {
		t.Errorf("Token = %q, want value from .env", cfg.Token)
	}
}

func TestLoadInvalidFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	clearEnv(t)
	repo := t.TempDir()
	writeFile(t, filepath.Join(repo, ".prhub", "config.yaml"), "refresh_interval: soon\n")
	chdir(t, repo)

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid refresh_interval")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "ok", cfg: Config{OrgURL: "https://dev.azure.com/x", Token: "t", RequestsPerSecond: 1, Burst: 1}},
		{name: "no org", cfg: Config{Token: "t", RequestsPerSecond: 1, Burst: 1}, wantErr: true},
		{name: "bad scheme", cfg: Config{OrgURL: "dev.azure.com/x", Token: "t", RequestsPerSecond: 1, Burst: 1}, wantErr: true},
		{name: "no token", cfg: Config{OrgURL: "https://dev.azure.com/x", RequestsPerSecond: 1, Burst: 1}, wantErr: true},
		{name: "no rate", cfg: Config{OrgURL: "https://dev.azure.com/x", Token: "t", Burst: 1}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()
	if got := ExpandPath("~/x", ""); got != filepath.Join(home, "x") {
		t.Errorf("ExpandPath(~/x) = %q", got)
	}
	if got := ExpandPath("rel", "/base"); got != filepath.Join("/base", "rel") {
		t.Errorf("ExpandPath(rel) = %q", got)
	}
	if got := ExpandPath("/abs", "/base"); got != "/abs" {
		t.Errorf("ExpandPath(/abs) = %q", got)
	}
	if got := ExpandPath("", "/base"); got != "" {
		t.Errorf("ExpandPath(\"\") = %q", got)
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList(" a,,b , c ")
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("SplitList = %v", got)
	}
	if SplitList("") != nil {
		t.Errorf("SplitList(\"\") should be nil")
	}
}
