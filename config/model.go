package config

import (
	"time"
)

type Config struct {
	Names      []string      `mapstructure:"names"`
	Force      bool          `mapstructure:"force"`
	DryRun     bool          `mapstructure:"dryrun"`
	IP         string        `mapstructure:"ip"`
	IPResolver string        `mapstructure:"ip-resolver"`
	Nameserver string        `mapstructure:"nameserver"`
	Timeout    time.Duration `mapstructure:"timeout"`
	Every      time.Duration `mapstructure:"every"`

	Verbose  bool   `mapstructure:"verbose"`
	Debug    bool   `mapstructure:"debug"`
	Taciturn bool   `mapstructure:"taciturn"`
	LogFile  string `mapstructure:"log"`

	DDNS   DDNS   `mapstructure:",squash"`
	Notify Notify `mapstructure:",squash"`
}

type DDNS struct {
	Provider string `mapstructure:"ddns-provider"`
	Email    string `mapstructure:"ddns-email"`
	APIKey   string `mapstructure:"ddns-api"`
	Token    string `mapstructure:"ddns-token"`
	Server   string `mapstructure:"ddns-server"`
	TTL      int    `mapstructure:"ddns-ttl"`
}

type Notify struct {
	Provider string `mapstructure:"notify-provider"`
	Token    string `mapstructure:"notify-token"`
	ChatID   int64  `mapstructure:"notify-chat-id"`
}
