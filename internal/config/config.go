// Package config handles citesearch settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Settings is the immutable configuration record passed into every
// component. It is constructed once per request and never mutated by the
// core.
type Settings struct {
	Mode                 string   `yaml:"mode"`
	BibtexFile           string   `yaml:"bibtex_file,omitempty"`
	ZoteroPath           string   `yaml:"zotero_path,omitempty"`
	ZoteroAttachmentPath string   `yaml:"zotero_attachment_path,omitempty"`
	CachePath            string   `yaml:"cache_path,omitempty"`
	Collection           string   `yaml:"collection,omitempty"`
	ReverseOrder         bool     `yaml:"reverse_order"`
	EtAlLimit            int      `yaml:"et_al_limit,omitempty"`
	KeyOuterPrefix       string   `yaml:"key_outer_prefix,omitempty"`
	KeyInnerPrefix       string   `yaml:"key_inner_prefix,omitempty"`
	KeySuffix            string   `yaml:"key_suffix,omitempty"`
	DescFormat           string   `yaml:"desc_format,omitempty"`
	DescFields           []string `yaml:"desc_fields,omitempty"`
	WrapChars            string   `yaml:"wrap_chars,omitempty"`
	PDFReader            string   `yaml:"pdf_reader,omitempty"` // system, skim, zathura, evince, okular
}

const (
	// ConfigDir is the directory name under XDG_CONFIG_HOME.
	ConfigDir = "citesearch"
	// ConfigFile is the config file name.
	ConfigFile = "config.yml"
	// CacheFile is the cache file name inside CachePath.
	CacheFile = "citesearch_cache"
)

// Configuration errors. Callers discriminate with errors.Is.
var (
	ErrNotConfigured = errors.New("not configured")
	ErrSourceMissing = errors.New("source file does not exist")
)

// Default returns settings with every defaultable field populated.
func Default() Settings {
	return Settings{
		Mode:           "bibtex",
		ReverseOrder:   true,
		EtAlLimit:      5,
		KeyOuterPrefix: "[",
		KeyInnerPrefix: "@",
		KeySuffix:      "]",
		DescFormat:     "{}: {} “{}” -{}- ({})",
		DescFields:     []string{"type", "key", "title", "author", "date"},
		WrapChars:      "||",
	}
}

// Path returns the default config file path. Respects XDG_CONFIG_HOME,
// falls back to ~/.config/citesearch/config.yml.
func Path() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, ConfigDir, ConfigFile)
}

// Load reads settings from a YAML file, layering the file's values over
// Default(). A missing file yields the defaults (not an error) so the CLI
// can run entirely from flags and environment.
func Load(path string) (Settings, error) {
	cfg := Default()
	if path == "" {
		path = Path()
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	cfg.BibtexFile = ExpandTilde(cfg.BibtexFile)
	cfg.ZoteroPath = ExpandTilde(cfg.ZoteroPath)
	cfg.ZoteroAttachmentPath = ExpandTilde(cfg.ZoteroAttachmentPath)
	cfg.CachePath = ExpandTilde(cfg.CachePath)
	if cfg.EtAlLimit < 1 {
		cfg.EtAlLimit = Default().EtAlLimit
	}
	if len(cfg.DescFields) == 0 {
		cfg.DescFields = Default().DescFields
	}
	return cfg, nil
}

// FromEnv overlays CITESEARCH_* environment variables onto cfg and
// returns the result. The cmd layer loads .env files first, so these
// cover both shell exports and dotenv entries.
func FromEnv(cfg Settings) Settings {
	if v := os.Getenv("CITESEARCH_MODE"); v != "" {
		cfg.Mode = v
	}
	if v := os.Getenv("CITESEARCH_BIBTEX_FILE"); v != "" {
		cfg.BibtexFile = ExpandTilde(v)
	}
	if v := os.Getenv("CITESEARCH_ZOTERO_PATH"); v != "" {
		cfg.ZoteroPath = ExpandTilde(v)
	}
	if v := os.Getenv("CITESEARCH_CACHE_PATH"); v != "" {
		cfg.CachePath = ExpandTilde(v)
	}
	if v := os.Getenv("CITESEARCH_COLLECTION"); v != "" {
		cfg.Collection = v
	}
	return cfg
}

// Validate checks that the settings name a usable source.
func (s Settings) Validate() error {
	switch s.Mode {
	case "bibtex":
		if s.BibtexFile == "" {
			return fmt.Errorf("%w: bibtex_file", ErrNotConfigured)
		}
	case "zotero":
		if s.ZoteroPath == "" {
			return fmt.Errorf("%w: zotero_path", ErrNotConfigured)
		}
	default:
		return fmt.Errorf("%w: mode must be \"bibtex\" or \"zotero\", got %q", ErrNotConfigured, s.Mode)
	}
	if s.EtAlLimit < 1 {
		return fmt.Errorf("%w: et_al_limit must be >= 1", ErrNotConfigured)
	}
	return nil
}

// SourcePath returns the backing store file the active mode reads.
func (s Settings) SourcePath() string {
	if s.Mode == "zotero" {
		return filepath.Join(s.ZoteroPath, "zotero.sqlite")
	}
	return s.BibtexFile
}

// CacheFilePath returns the full path of the item cache file, or "" when
// no cache path is configured.
func (s Settings) CacheFilePath() string {
	if s.CachePath == "" {
		return ""
	}
	return filepath.Join(s.CachePath, CacheFile)
}

// ExpandTilde expands a leading ~ to the user's home directory. Returns
// the path unchanged if it has no tilde or the home dir is unknown.
func ExpandTilde(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
