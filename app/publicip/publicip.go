package publicip

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"

	"github.com/Septrum101/update-ddns/common/ipset"
)

var (
	ErrInvalidAddress    = errors.New("invalid IP address")
	ErrAddressResolution = errors.New("public IP address resolution failed")
)

// Resolver finds the address DNS should publish: an explicit override, or
// whatever an IP echo service reports for this host.
type Resolver struct {
	url    string
	client *resty.Client
	log    log.FieldLogger
}

func New(url string, timeout time.Duration, logger log.FieldLogger) *Resolver {
	cli := resty.New().SetHeader("Cache-Control", "no-cache")
	if timeout > 0 {
		cli.SetTimeout(timeout)
	}
	return &Resolver{
		url:    url,
		client: cli,
		log:    logger,
	}
}

// Resolve returns a single address set. A non-empty override is parsed and
// no request is made.
func (r *Resolver) Resolve(ctx context.Context, override string) (ipset.Set, error) {
	if override != "" {
		addr, err := Parse(override)
		if err != nil {
			return nil, err
		}
		r.log.Debugf("Using IP address override %s", addr)
		return ipset.New(addr), nil
	}

	r.log.Debugf("Fetching public IP address from %s", r.url)
	resp, err := r.client.R().SetContext(ctx).Get(r.url)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %v", ErrAddressResolution, r.url, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: GET %s returned %s", ErrAddressResolution, r.url, resp.Status())
	}

	addr, err := Parse(resp.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrAddressResolution, r.url, err)
	}
	return ipset.New(addr), nil
}

// Parse reads a single textual IPv4 or IPv6 address, surrounding white space allowed.
func Parse(s string) (netip.Addr, error) {
	s = strings.TrimSpace(s)
	addr, err := netip.ParseAddr(s)
	if err != nil || addr.Zone() != "" {
		return netip.Addr{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	return addr, nil
}
