package config

import "fmt"

// Repository locates the project's source on GitHub.
type Repository struct {
	Owner string
	Repo  string
}

func (r Repository) URL() string {
	return fmt.Sprintf("https://github.com/%s/%s", r.Owner, r.Repo)
}

// Version is the build stamp injected through ldflags.
type Version struct {
	Version string
	Commit  string
	Date    string
}

// VersionText formats the stamp as "v<version> : <commit> (<date>)".
func (v *Version) VersionText() string {
	return fmt.Sprintf("v%s : %s (%s)", v.Version, v.Commit, v.Date)
}

// AppConfig holds what is fixed at build time. User settings live in Config.
type AppConfig struct {
	Name       string
	Repository Repository
	Version    Version
}

type Option func(*AppConfig)

func WithVersion(v Version) Option {
	return func(c *AppConfig) { c.Version = v }
}

func NewAppConfig(opts ...Option) *AppConfig {
	cfg := &AppConfig{
		Name:       "DeepRead",
		Repository: Repository{Owner: "qnkhuat", Repo: "deepread"},
		Version:    Version{Version: "0.0.0", Commit: "none", Date: "unknown"},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
