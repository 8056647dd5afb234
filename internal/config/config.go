// Package config loads autosend settings from file, environment and flags.
package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/v0xg/autosend/internal/dom"
)

// Config is the full application configuration.
type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	Browser  BrowserConfig  `mapstructure:"browser" yaml:"browser"`
	Timing   TimingConfig   `mapstructure:"timing" yaml:"timing"`
	Submit   SubmitConfig   `mapstructure:"submit" yaml:"submit"`
	Snapshot SnapshotConfig `mapstructure:"snapshot" yaml:"snapshot"`
	Payload  string         `mapstructure:"payload" yaml:"payload"`
	Sites    []SiteRule     `mapstructure:"sites" yaml:"sites"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig maps log levels to color names for the console encoder.
type ColorConfig struct {
	Debug string `mapstructure:"debug" yaml:"debug"`
	Info  string `mapstructure:"info" yaml:"info"`
	Warn  string `mapstructure:"warn" yaml:"warn"`
	Error string `mapstructure:"error" yaml:"error"`
	Fatal string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig controls how the browser is launched or attached.
type BrowserConfig struct {
	Headless    bool          `mapstructure:"headless" yaml:"headless"`
	Bin         string        `mapstructure:"bin" yaml:"bin"`
	ProfileDir  string        `mapstructure:"profile_dir" yaml:"profile_dir"`
	ControlURL  string        `mapstructure:"control_url" yaml:"control_url"`
	Width       int           `mapstructure:"width" yaml:"width"`
	Height      int           `mapstructure:"height" yaml:"height"`
	LoadTimeout time.Duration `mapstructure:"load_timeout" yaml:"load_timeout"`
}

// TimingConfig holds the poll periods.
type TimingConfig struct {
	ResolveInterval time.Duration `mapstructure:"resolve_interval" yaml:"resolve_interval"`
	ButtonInterval  time.Duration `mapstructure:"button_interval" yaml:"button_interval"`
	ButtonTimeout   time.Duration `mapstructure:"button_timeout" yaml:"button_timeout"`
	// Linger keeps the page open after submission so the send can complete.
	Linger time.Duration `mapstructure:"linger" yaml:"linger"`
	// Timeout bounds the whole run. Zero waits for the input forever.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// SubmitConfig selects the Enter fallback delivery.
type SubmitConfig struct {
	KeyMode string `mapstructure:"key_mode" yaml:"key_mode"`
}

// SnapshotConfig enables the post-run screenshot.
type SnapshotConfig struct {
	Path     string `mapstructure:"path" yaml:"path"`
	MaxWidth uint   `mapstructure:"max_width" yaml:"max_width"`
}

// SiteRule attaches selectors to pages whose URL matches Match. Match is a
// glob in which * stands for any run of characters.
type SiteRule struct {
	Match              string `mapstructure:"match" yaml:"match"`
	InputBoxSelector   string `mapstructure:"input_box_selector" yaml:"input_box_selector"`
	SendButtonSelector string `mapstructure:"send_button_selector" yaml:"send_button_selector"`
}

// DefaultSites are the chat and dictionary pages the tool was first used on.
// None carry selectors; the resolver's fallback chain handles them.
var DefaultSites = []string{
	"https://chatgpt.com/*",
	"https://gemini.google.com/*",
	"https://copilot.microsoft.com/*",
	"https://grok.com/*",
	"https://poe.com/*",
	"https://x.com/i/grok*",
	"https://bot.n.cn/chathome*",
	"https://www.deepl.com/translator*",
	"https://fanyi.baidu.com/*",
	"https://dict.eudic.net/liju/en/*",
	"https://dictionary.cambridge.org/*",
	"https://www.collinsdictionary.com/*",
	"https://www.ldoceonline.com/*",
	"https://www.oxfordlearnersdictionaries.com/*",
}

// SetDefaults initializes default values for every configuration key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "autosend")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 10)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 7)
	v.SetDefault("logger.compress", false)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.fatal", "magenta")

	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.width", 1280)
	v.SetDefault("browser.height", 800)
	v.SetDefault("browser.load_timeout", "30s")

	v.SetDefault("timing.resolve_interval", "500ms")
	v.SetDefault("timing.button_interval", "50ms")
	v.SetDefault("timing.button_timeout", "1s")
	v.SetDefault("timing.linger", "2s")
	v.SetDefault("timing.timeout", "0s")

	v.SetDefault("submit.key_mode", "synthetic")
	v.SetDefault("snapshot.max_width", 800)

	sites := make([]map[string]string, 0, len(DefaultSites))
	for _, m := range DefaultSites {
		sites = append(sites, map[string]string{"match": m})
	}
	v.SetDefault("sites", sites)
}

// NewDefaultConfig returns the configuration produced by the defaults alone.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// NewConfigFromViper unmarshals and validates v.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for sane values.
func (c *Config) Validate() error {
	var errs []error
	if c.Timing.ResolveInterval <= 0 {
		errs = append(errs, errors.New("timing.resolve_interval must be positive"))
	}
	if c.Timing.ButtonInterval <= 0 {
		errs = append(errs, errors.New("timing.button_interval must be positive"))
	}
	if c.Timing.ButtonTimeout <= 0 {
		errs = append(errs, errors.New("timing.button_timeout must be positive"))
	}
	if c.Timing.Linger < 0 || c.Timing.Timeout < 0 {
		errs = append(errs, errors.New("timing.linger and timing.timeout must not be negative"))
	}
	switch c.Submit.KeyMode {
	case "synthetic", "native":
	default:
		errs = append(errs, fmt.Errorf("submit.key_mode %q is not one of synthetic, native", c.Submit.KeyMode))
	}
	switch c.Logger.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("logger.format %q is not one of console, json", c.Logger.Format))
	}
	for i, s := range c.Sites {
		if strings.TrimSpace(s.Match) == "" {
			errs = append(errs, fmt.Errorf("sites[%d].match is empty", i))
		}
	}
	return errors.Join(errs...)
}

// SelectorsFor returns the selectors of the first site rule matching url, and
// whether any rule matched.
func (c *Config) SelectorsFor(url string) (dom.SelectorConfig, bool) {
	for _, s := range c.Sites {
		if MatchURL(s.Match, url) {
			return dom.SelectorConfig{
				InputBoxSelector:   s.InputBoxSelector,
				SendButtonSelector: s.SendButtonSelector,
			}, true
		}
	}
	return dom.SelectorConfig{}, false
}

// MatchURL reports whether url matches the glob pattern.
func MatchURL(pattern, url string) bool {
	parts := strings.Split(pattern, "*")
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	re, err := regexp.Compile("^" + strings.Join(parts, ".*") + "$")
	if err != nil {
		return false
	}
	return re.MatchString(url)
}
