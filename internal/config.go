package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const appName = "mediasort"

// LogFileOff disables the log file.
const LogFileOff = "off"

type Config struct {
	PhotoExt     []string      `mapstructure:"photo_extensions"`
	VideoExt     []string      `mapstructure:"video_extensions"`
	SkipPrefixes string        `mapstructure:"skip_prefixes"`
	Exclude      []string      `mapstructure:"exclude"`
	StateDir     string        `mapstructure:"state_dir"`
	Ledger       string        `mapstructure:"ledger"`
	LogFile      string        `mapstructure:"log_file"`
	LogLevel     string        `mapstructure:"log_level"`
	Metadata     string        `mapstructure:"metadata"`
	ExiftoolPath string        `mapstructure:"exiftool_path"`
	Manifest     bool          `mapstructure:"manifest"`
	Prune        bool          `mapstructure:"prune"`
	DryRun       bool          `mapstructure:"dry_run"`
	WatchSettle  time.Duration `mapstructure:"watch_settle"`
}

// DefaultStateDir is where the ledger, log and run manifests live unless configured.
func DefaultStateDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "."+appName)
	}
	return filepath.Join(configDir, appName)
}

// SetDefaults registers every known key so that env overrides apply to all of them.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("photo_extensions", []string{".png", ".jpg", ".jpeg", ".tiff", ".bmp", ".gif"})
	v.SetDefault("video_extensions", []string{".m4v", ".mov", ".mp4", ".avi", ".mkv", ".wmv", ".flv", ".webm"})
	v.SetDefault("skip_prefixes", "@.$~")
	v.SetDefault("exclude", []string{})
	v.SetDefault("state_dir", DefaultStateDir())
	v.SetDefault("ledger", "")
	v.SetDefault("log_file", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("metadata", MetadataAuto)
	v.SetDefault("exiftool_path", "")
	v.SetDefault("manifest", true)
	v.SetDefault("prune", true)
	v.SetDefault("dry_run", false)
	v.SetDefault("watch_settle", 2*time.Second)
}

// LoadConfig reads configFile, or mediasort.toml from the user config
// directory when configFile is empty, on top of defaults and MEDIASORT_*
// environment variables. A missing default config file is not an error.
func LoadConfig(v *viper.Viper, configFile string) (*Config, error) {
	SetDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(appName)
		v.SetConfigType("toml")
		if configDir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(configDir, appName))
		}
	}

	v.SetEnvPrefix(strings.ToUpper(appName))
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	for i, e := range c.PhotoExt {
		c.PhotoExt[i] = normalizeExt(e)
	}
	for i, e := range c.VideoExt {
		c.VideoExt[i] = normalizeExt(e)
	}
	c.Metadata = strings.ToLower(strings.TrimSpace(c.Metadata))
	if c.StateDir == "" {
		c.StateDir = DefaultStateDir()
	}
	if c.Ledger == "" {
		c.Ledger = filepath.Join(c.StateDir, "ledger.db")
	}
	if c.LogFile == "" {
		c.LogFile = filepath.Join(c.StateDir, appName+".log")
	}
	if c.WatchSettle <= 0 {
		c.WatchSettle = 2 * time.Second
	}
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if len(c.PhotoExt)+len(c.VideoExt) == 0 {
		return errors.New("no media extensions configured")
	}
	photo := make(map[string]bool, len(c.PhotoExt))
	for _, e := range c.PhotoExt {
		if e == "" {
			return errors.New("empty photo extension")
		}
		photo[e] = true
	}
	for _, e := range c.VideoExt {
		if e == "" {
			return errors.New("empty video extension")
		}
		if photo[e] {
			return fmt.Errorf("extension %s is listed as both photo and video", e)
		}
	}

	switch c.Metadata {
	case MetadataAuto, MetadataExiftool, MetadataNative:
	default:
		return fmt.Errorf("metadata must be one of %s, %s, %s; got %q", MetadataAuto, MetadataExiftool, MetadataNative, c.Metadata)
	}

	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	for _, p := range c.Exclude {
		if !validPattern(p) {
			return fmt.Errorf("invalid exclude pattern %q", p)
		}
	}
	return nil
}

// PathFilter builds the traversal filter for this configuration.
func (c *Config) PathFilter() *PathFilter {
	return &PathFilter{
		Classifier:   NewClassifier(c.PhotoExt, c.VideoExt),
		SkipPrefixes: c.SkipPrefixes,
		Exclude:      c.Exclude,
	}
}

// RunsDir holds one manifest per run.
func (c *Config) RunsDir() string {
	return filepath.Join(c.StateDir, "runs")
}
