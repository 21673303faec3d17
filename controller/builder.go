package controller

import (
	"fmt"
	"sort"

	"github.com/Septrum101/update-ddns/common/ddns"
	"github.com/Septrum101/update-ddns/common/ddns/cloudflare"
	"github.com/Septrum101/update-ddns/common/ddns/dyndns"
	"github.com/Septrum101/update-ddns/common/ddns/route53"
	"github.com/Septrum101/update-ddns/common/notify"
	"github.com/Septrum101/update-ddns/common/notify/pushplus"
	"github.com/Septrum101/update-ddns/common/notify/telegram"
	"github.com/Septrum101/update-ddns/config"
)

// providers maps a --ddns-provider id to its constructor.
var providers = map[string]ddns.Factory{
	"cloudflare": func(o ddns.Options) (ddns.Provider, error) {
		p, err := cloudflare.New(o)
		if err != nil {
			return nil, err
		}
		return p, nil
	},
	"dyndns": func(o ddns.Options) (ddns.Provider, error) {
		p, err := dyndns.New(o)
		if err != nil {
			return nil, err
		}
		return p, nil
	},
	"route53": func(o ddns.Options) (ddns.Provider, error) {
		p, err := route53.New(o)
		if err != nil {
			return nil, err
		}
		return p, nil
	},
}

// Providers lists the registered provider ids.
func Providers() []string {
	ids := make([]string, 0, len(providers))
	for id := range providers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// NewProvider builds the provider registered as id.
func NewProvider(id string, o ddns.Options) (ddns.Provider, error) {
	f, ok := providers[id]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported DDNS provider %q (registered: %v)", config.ErrConfiguration, id, Providers())
	}
	p, err := f(o)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", config.ErrConfiguration, id, err)
	}
	return p, nil
}

func (s *Server) buildNotifier() notify.Notify {
	c := s.conf.Notify
	switch c.Provider {
	case "pushplus":
		return &pushplus.PushPlus{Token: c.Token, Timeout: s.conf.Timeout}
	case "telegram":
		return &telegram.Telegram{ChatID: c.ChatID, Token: c.Token, Timeout: s.conf.Timeout}
	default:
		return nil
	}
}
