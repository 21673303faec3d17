package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var providers = []string{"cloudflare", "dyndns", "route53"}

func load(t *testing.T, args ...string) *Config {
	t.Helper()

	fs := NewFlagSet()
	require.NoError(t, fs.Parse(args))
	v, err := New(fs)
	require.NoError(t, err)
	c, err := Load(v, fs.Args())
	require.NoError(t, err)
	return c
}

func TestDefaults(t *testing.T) {
	c := load(t)

	assert.Equal(t, DefaultProvider, c.DDNS.Provider)
	assert.Equal(t, DefaultIPResolver, c.IPResolver)
	assert.Equal(t, DefaultTimeout, c.Timeout)
	assert.Empty(t, c.Names)
	assert.False(t, c.Force)
	assert.Equal(t, log.WarnLevel, c.LogLevel())
	assert.NoError(t, c.Validate(providers))
}

func TestFlags(t *testing.T) {
	c := load(t, "-f", "-d", "dyndns", "--ddns-email", "me@example.com", "--ddns-token", "tok",
		"--ip", "1.2.3.4", "--timeout", "5s", "--notify-chat-id", "42", "a.example.com", "b.example.com")

	assert.True(t, c.Force)
	assert.Equal(t, "dyndns", c.DDNS.Provider)
	assert.Equal(t, "me@example.com", c.DDNS.Email)
	assert.Equal(t, "tok", c.DDNS.Token)
	assert.Equal(t, "1.2.3.4", c.IP)
	assert.Equal(t, 5*time.Second, c.Timeout)
	assert.Equal(t, int64(42), c.Notify.ChatID)
	assert.Equal(t, []string{"a.example.com", "b.example.com"}, c.Names)
}

func TestEnvironment(t *testing.T) {
	t.Setenv("UPDATE_DDNS_DDNS_TOKEN", "from-env")
	c := load(t)
	assert.Equal(t, "from-env", c.DDNS.Token)

	c = load(t, "--ddns-token", "from-flag")
	assert.Equal(t, "from-flag", c.DDNS.Token)
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ddns.yml")
	content := `ddns-provider: route53
ddns-api: AKID
names:
  - home.example.com
every: 5m
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	c := load(t, "--config", path)
	assert.Equal(t, "route53", c.DDNS.Provider)
	assert.Equal(t, "AKID", c.DDNS.APIKey)
	assert.Equal(t, []string{"home.example.com"}, c.Names)
	assert.Equal(t, 5*time.Minute, c.Every)

	c = load(t, "--config", path, "other.example.com")
	assert.Equal(t, []string{"other.example.com"}, c.Names)
}

func TestMissingConfigFile(t *testing.T) {
	fs := NewFlagSet()
	require.NoError(t, fs.Parse([]string{"--config", "/nonexistent/ddns.yml"}))
	_, err := New(fs)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown provider", []string{"-d", "godaddy"}},
		{"two levels", []string{"--verbose", "--debug"}},
		{"zero timeout", []string{"--timeout", "0s"}},
		{"negative interval", []string{"--every", "-1m"}},
		{"sub-second interval", []string{"--every", "200ms"}},
		{"no ip source", []string{"--ip-resolver", ""}},
		{"unknown notify", []string{"--notify-provider", "smoke-signal"}},
		{"empty name", []string{"a.example.com", " "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := load(t, tt.args...)
			assert.ErrorIs(t, c.Validate(providers), ErrConfiguration)
		})
	}
}

func TestValidateInterval(t *testing.T) {
	assert.NoError(t, load(t, "--every", "1s").Validate(providers))
	assert.NoError(t, load(t, "--every", "0").Validate(providers))
}

func TestLogLevel(t *testing.T) {
	tests := []struct {
		args  []string
		level log.Level
	}{
		{nil, log.WarnLevel},
		{[]string{"--verbose"}, log.InfoLevel},
		{[]string{"--debug"}, log.DebugLevel},
		{[]string{"--taciturn"}, log.ErrorLevel},
		{[]string{"--dryrun"}, log.InfoLevel},
		{[]string{"--dryrun", "--taciturn"}, log.InfoLevel},
		{[]string{"--dryrun", "--debug"}, log.DebugLevel},
	}

	for _, tt := range tests {
		c := load(t, tt.args...)
		assert.Equal(t, tt.level, c.LogLevel(), tt.args)
	}
}
