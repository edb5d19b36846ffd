package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultRefreshInterval   = 2 * time.Minute
	DefaultRequestsPerSecond = 10.0
	DefaultBurst             = 20
)

// MonitorConfig holds configuration for the hub dashboard.
type MonitorConfig struct {
	// Columns defines which columns to show and in what order.
	// Available columns: index, id, repo, title, author, branches, status,
	// votes, comments, new, draft, created
	Columns []string `yaml:"columns,omitempty"`
}

// Config holds prhub configuration
type Config struct {
	OrgURL            string        `yaml:"org_url"`
	Token             string        `yaml:"token"`
	Projects          []string      `yaml:"projects"`
	LogLevel          string        `yaml:"log_level"`
	StoragePath       string        `yaml:"storage_path"`
	RefreshInterval   time.Duration `yaml:"refresh_interval"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	TrackVisits       bool          `yaml:"track_visits"`
	Monitor           MonitorConfig `yaml:"monitor"`
}

type fileConfig struct {
	OrgURL            string        `yaml:"org_url"`
	Organization      string        `yaml:"organization"`
	Token             string        `yaml:"token"`
	Projects          []string      `yaml:"projects"`
	LogLevel          string        `yaml:"log_level"`
	StoragePath       string        `yaml:"storage_path"`
	RefreshInterval   string        `yaml:"refresh_interval"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	TrackVisits       *bool         `yaml:"track_visits"`
	Monitor           MonitorConfig `yaml:"monitor"`
}

// configFile is the name of the config file
const configFile = "config.yaml"

// repoDir is the per-repository config directory
const repoDir = ".prhub"

// defaults returns a config populated with built-in defaults.
func defaults() *Config {
	return &Config{
		RefreshInterval:   DefaultRefreshInterval,
		RequestsPerSecond: DefaultRequestsPerSecond,
		Burst:             DefaultBurst,
		TrackVisits:       true,
	}
}

// Load loads configuration with the following precedence (highest first):
// 1. Environment variables (a .env file in cwd fills unset ones)
// 2. Repo-local .prhub/config.yaml in the current directory
// 3. Parent .prhub/config.yaml files (searched upward from cwd)
// 4. Global ~/.config/prhub/config.yaml
func Load() (*Config, error) {
	cfg := defaults()

	// Load global config first (lowest precedence)
	globalPath := globalConfigPath()
	if globalPath != "" {
		if err := loadFromFile(globalPath, cfg); err != nil && !os.IsNotExist(err) {
			return nil, err
		}
	}

	repoPaths, err := findRepoConfigs()
	if err != nil {
		return nil, err
	}
	for _, repoPath := range repoPaths {
		if err := loadFromFile(repoPath, cfg); err != nil && !os.IsNotExist(err) {
			return nil, err
		}
	}

	// godotenv.Load never overrides variables that are already set.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the settings needed to talk to Azure DevOps.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.OrgURL) == "" {
		return fmt.Errorf("organization URL not specified (use --org, set PRHUB_ORG_URL, or add org_url to .prhub/config.yaml)")
	}
	if !strings.HasPrefix(c.OrgURL, "http://") && !strings.HasPrefix(c.OrgURL, "https://") {
		return fmt.Errorf("organization URL must start with http:// or https://: %s", c.OrgURL)
	}
	if strings.TrimSpace(c.Token) == "" {
		return fmt.Errorf("access token not specified (set PRHUB_TOKEN or add token to config)")
	}
	if c.RequestsPerSecond <= 0 {
		return fmt.Errorf("requests_per_second must be positive")
	}
	if c.Burst <= 0 {
		return fmt.Errorf("burst must be positive")
	}
	return nil
}

// RepoConfigDir returns the path to .prhub directory if found, empty string otherwise
func RepoConfigDir() string {
	paths, _ := findRepoConfigs()
	if len(paths) == 0 {
		return ""
	}
	return filepath.Dir(paths[len(paths)-1])
}

// findRepoConfigs searches upward from cwd for .prhub/config.yaml files.
// Returned paths are ordered from furthest ancestor to closest (highest precedence last).
func findRepoConfigs() ([]string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	dir := cwd
	var paths []string
	for {
		configPath := filepath.Join(dir, repoDir, configFile)
		if _, err := os.Stat(configPath); err == nil {
			paths = append(paths, configPath)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	for i, j := 0, len(paths)-1; i < j; i, j = i+1, j-1 {
		paths[i], paths[j] = paths[j], paths[i]
	}

	return paths, nil
}

// globalConfigPath returns the path to global config
func globalConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "prhub", configFile)
}

// loadFromFile loads config from a YAML file, merging non-empty values into cfg.
// A relative storage_path is resolved against the directory holding .prhub
// (or the global config dir).
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var fileCfg fileConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	configDir := filepath.Dir(path)
	baseDir := configDir
	if filepath.Base(configDir) == repoDir {
		baseDir = filepath.Dir(configDir)
	}

	orgURL := fileCfg.OrgURL
	if orgURL == "" && fileCfg.Organization != "" {
		orgURL = "https://dev.azure.com/" + fileCfg.Organization
	}
	if orgURL != "" {
		cfg.OrgURL = NormalizeOrgURL(orgURL)
	}
	if fileCfg.Token != "" {
		cfg.Token = fileCfg.Token
	}
	if len(fileCfg.Projects) > 0 {
		cfg.Projects = fileCfg.Projects
	}
	if fileCfg.LogLevel != "" {
		cfg.LogLevel = fileCfg.LogLevel
	}
	if fileCfg.StoragePath != "" {
		cfg.StoragePath = ExpandPath(fileCfg.StoragePath, baseDir)
	}
	if fileCfg.RefreshInterval != "" {
		d, err := time.ParseDuration(fileCfg.RefreshInterval)
		if err != nil || d <= 0 {
			return fmt.Errorf("%s: invalid refresh_interval %q", path, fileCfg.RefreshInterval)
		}
		cfg.RefreshInterval = d
	}
	if fileCfg.RequestsPerSecond > 0 {
		cfg.RequestsPerSecond = fileCfg.RequestsPerSecond
	}
	if fileCfg.Burst > 0 {
		cfg.Burst = fileCfg.Burst
	}
	if fileCfg.TrackVisits != nil {
		cfg.TrackVisits = *fileCfg.TrackVisits
	}
	if len(fileCfg.Monitor.Columns) > 0 {
		cfg.Monitor.Columns = fileCfg.Monitor.Columns
	}

	return nil
}

// applyEnv applies environment variables to config
func applyEnv(cfg *Config) error {
	if v := os.Getenv("PRHUB_ORG_URL"); v != "" {
		cfg.OrgURL = NormalizeOrgURL(v)
	}
	if v := os.Getenv("PRHUB_TOKEN"); v != "" {
		cfg.Token = v
	} else if v := os.Getenv("AZURE_DEVOPS_EXT_PAT"); v != "" {
		cfg.Token = v
	}
	if v := os.Getenv("PRHUB_PROJECTS"); v != "" {
		cfg.Projects = SplitList(v)
	}
	if v := os.Getenv("PRHUB_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("PRHUB_STORAGE"); v != "" {
		cfg.StoragePath = ExpandPath(v, "")
	}
	if v := os.Getenv("PRHUB_REFRESH_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return fmt.Errorf("PRHUB_REFRESH_INTERVAL: invalid duration %q", v)
		}
		cfg.RefreshInterval = d
	}
	if v := os.Getenv("PRHUB_REQUESTS_PER_SECOND"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil || rps <= 0 {
			return fmt.Errorf("PRHUB_REQUESTS_PER_SECOND: invalid value %q", v)
		}
		cfg.RequestsPerSecond = rps
	}
	if v := os.Getenv("PRHUB_TRACK_VISITS"); v != "" {
		cfg.TrackVisits = v == "true" || v == "1" || v == "yes"
	}
	return nil
}

// NormalizeOrgURL trims whitespace and trailing slashes from an organization URL.
func NormalizeOrgURL(raw string) string {
	return strings.TrimRight(strings.TrimSpace(raw), "/")
}

// SplitList splits a comma-separated list, dropping empty entries.
func SplitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ExpandPath expands ~ and makes path absolute relative to base
func ExpandPath(path, base string) string {
	if path == "" {
		return ""
	}

	if path[0] == '~' {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[1:])
	}

	if !filepath.IsAbs(path) && base != "" {
		path = filepath.Join(base, path)
	}

	return path
}

// StateDir returns the per-user directory for logs.
func StateDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "prhub")
	}
	return filepath.Join(os.TempDir(), "prhub")
}
