package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvPrefix         = "UPDATE_DDNS"
	DefaultProvider   = "cloudflare"
	DefaultIPResolver = "http://ipinfo.io/ip"
	DefaultTimeout    = 30 * time.Second
	// MinInterval is the finest schedule cron's @every honors.
	MinInterval       = time.Second
)

var ErrConfiguration = errors.New("configuration error")

// NotifyProviders lists the accepted --notify-provider values.
var NotifyProviders = []string{"telegram", "pushplus"}

// NewFlagSet defines the command line of the updater. Positional arguments are DNS names.
func NewFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet(AppName, pflag.ContinueOnError)
	fs.SortFlags = false

	fs.BoolP("force", "f", false, "force updates even if seemingly unnecessary")
	fs.StringP("ddns-provider", "d", DefaultProvider, "DNS provider whose record to update")
	fs.String("ddns-email", "", "DNS provider's registered email")
	fs.String("ddns-api", "", "DNS provider's API key with appropriate permissions")
	fs.String("ddns-token", "", "DNS provider's user service token")
	fs.String("ddns-server", "", "DNS provider's API base URL (required by dyndns)")
	fs.Int("ddns-ttl", 0, "TTL of updated records, 0 keeps the current one")
	fs.Bool("dryrun", false, "do not perform operations, but only print them")
	fs.Bool("version", false, "print version and exit")
	fs.Bool("verbose", false, "print informational (or higher) log messages")
	fs.Bool("debug", false, "print debugging (or higher) log messages")
	fs.Bool("taciturn", false, "only print error level (or higher) log messages")
	fs.String("log", "", "location of alternate log file")
	fs.String("ip-resolver", DefaultIPResolver, "URL to fetch to get current public IP address")
	fs.String("ip", "", "new IP address, defaults to current public IP address")
	fs.String("nameserver", "", "DoH URL or host:port used to look up published addresses, defaults to the system resolver")
	fs.Duration("timeout", DefaultTimeout, "timeout of every network operation")
	fs.Duration("every", 0, "keep running and update on this interval")
	fs.String("config", "", "config file, defaults to config.yml in ., /etc/"+AppName+" or $HOME/."+AppName)
	fs.String("notify-provider", "", "send a message after an update: "+strings.Join(NotifyProviders, ", "))
	fs.String("notify-token", "", "notification token")
	fs.Int64("notify-chat-id", 0, "telegram chat id")

	return fs
}

// New layers flags over environment (UPDATE_DDNS_*) over an optional config file.
func New(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", ErrConfiguration, file, err)
		}
		return v, nil
	}

	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/" + AppName)
	v.AddConfigPath("$HOME/." + AppName)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
		}
	}
	return v, nil
}

// Load decodes v. Positional arguments win over the config file's names.
func Load(v *viper.Viper, args []string) (*Config, error) {
	c := new(Config)
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	if len(args) > 0 {
		c.Names = args
	}
	return c, nil
}

// Validate checks c before anything touches the network.
func (c *Config) Validate(providers []string) error {
	if !contains(providers, c.DDNS.Provider) {
		return fmt.Errorf("%w: unknown DDNS provider %q (choose from %s)", ErrConfiguration, c.DDNS.Provider, strings.Join(providers, ", "))
	}

	selected := 0
	for _, b := range []bool{c.Verbose, c.Debug, c.Taciturn} {
		if b {
			selected++
		}
	}
	if selected > 1 {
		return fmt.Errorf("%w: --verbose, --debug and --taciturn are mutually exclusive", ErrConfiguration)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", ErrConfiguration)
	}
	if c.Every < 0 {
		return fmt.Errorf("%w: interval must not be negative", ErrConfiguration)
	}
	if c.Every > 0 && c.Every < MinInterval {
		return fmt.Errorf("%w: interval %s is shorter than %s", ErrConfiguration, c.Every, MinInterval)
	}
	if c.IP == "" && c.IPResolver == "" {
		return fmt.Errorf("%w: either --ip or --ip-resolver is required", ErrConfiguration)
	}
	if c.Notify.Provider != "" && !contains(NotifyProviders, c.Notify.Provider) {
		return fmt.Errorf("%w: unknown notify provider %q", ErrConfiguration, c.Notify.Provider)
	}
	for _, name := range c.Names {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: empty DNS name", ErrConfiguration)
		}
	}
	return nil
}

// LogLevel is the console level: warn unless a selector is set, at least info in dry run.
func (c *Config) LogLevel() log.Level {
	level := log.WarnLevel
	switch {
	case c.Verbose:
		level = log.InfoLevel
	case c.Debug:
		level = log.DebugLevel
	case c.Taciturn:
		level = log.ErrorLevel
	}
	if c.DryRun && level < log.InfoLevel {
		level = log.InfoLevel
	}
	return level
}

func contains(list []string, s string) bool {
	for i := range list {
		if list[i] == s {
			return true
		}
	}
	return false
}
