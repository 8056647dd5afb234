package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/v0xg/autosend/internal/dom"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, 500*time.Millisecond, cfg.Timing.ResolveInterval)
	assert.Equal(t, 50*time.Millisecond, cfg.Timing.ButtonInterval)
	assert.Equal(t, time.Second, cfg.Timing.ButtonTimeout)
	assert.Zero(t, cfg.Timing.Timeout)
	assert.Equal(t, "synthetic", cfg.Submit.KeyMode)
	assert.Equal(t, "console", cfg.Logger.Format)
	assert.Len(t, cfg.Sites, len(DefaultSites))
	assert.NoError(t, cfg.Validate())
}

func TestNewConfigFromViperReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "autosend.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
payload: "hello there"
timing:
  button_timeout: 2s
submit:
  key_mode: native
sites:
  - match: "https://chat.example.com/*"
    input_box_selector: "#prompt-textarea"
    send_button_selector: "button[data-testid='send-button']"
`), 0o600))

	v := viper.New()
	SetDefaults(v)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := NewConfigFromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "hello there", cfg.Payload)
	assert.Equal(t, 2*time.Second, cfg.Timing.ButtonTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.Timing.ResolveInterval, "unset keys keep defaults")
	assert.Equal(t, "native", cfg.Submit.KeyMode)
	require.Len(t, cfg.Sites, 1)

	sel, ok := cfg.SelectorsFor("https://chat.example.com/c/123")
	require.True(t, ok)
	assert.Equal(t, dom.SelectorConfig{
		InputBoxSelector:   "#prompt-textarea",
		SendButtonSelector: "button[data-testid='send-button']",
	}, sel)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"zero resolve interval", func(c *Config) { c.Timing.ResolveInterval = 0 }, false},
		{"zero button interval", func(c *Config) { c.Timing.ButtonInterval = 0 }, false},
		{"negative button timeout", func(c *Config) { c.Timing.ButtonTimeout = -time.Second }, false},
		{"negative linger", func(c *Config) { c.Timing.Linger = -1 }, false},
		{"bad key mode", func(c *Config) { c.Submit.KeyMode = "telepathy" }, false},
		{"bad log format", func(c *Config) { c.Logger.Format = "xml" }, false},
		{"empty site match", func(c *Config) { c.Sites = []SiteRule{{Match: " "}} }, false},
		{"no sites", func(c *Config) { c.Sites = nil }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestMatchURL(t *testing.T) {
	tests := []struct {
		pattern, url string
		want         bool
	}{
		{"https://chatgpt.com/*", "https://chatgpt.com/", true},
		{"https://chatgpt.com/*", "https://chatgpt.com/c/abc?model=x", true},
		{"https://chatgpt.com/*", "https://chatgpt.com", false},
		{"https://x.com/i/grok*", "https://x.com/i/grok?conversation=1", true},
		{"https://x.com/i/grok*", "https://x.com/home", false},
		{"https://www.deepl.com/translator*", "https://www.deepl.com/translator#en/zh/hi", true},
		{"https://poe.com/*", "https://poe.com.evil.net/", false},
		{"http://127.0.0.1:*/chat", "http://127.0.0.1:8080/chat", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MatchURL(tt.pattern, tt.url), "%s ~ %s", tt.pattern, tt.url)
	}
}

func TestSelectorsForFirstMatchWins(t *testing.T) {
	cfg := &Config{Sites: []SiteRule{
		{Match: "https://a.example/*", InputBoxSelector: "#first"},
		{Match: "https://a.example/chat*", InputBoxSelector: "#second"},
	}}
	sel, ok := cfg.SelectorsFor("https://a.example/chat")
	require.True(t, ok)
	assert.Equal(t, "#first", sel.InputBoxSelector)

	_, ok = cfg.SelectorsFor("https://b.example/")
	assert.False(t, ok)
}
