package dns

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Septrum101/update-ddns/common/ipset"
)

var ErrNameResolution = errors.New("name resolution failed")

// HostResolver looks up the A and AAAA addresses of a host. *net.Resolver implements it.
type HostResolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// Resolver collects the addresses currently published for a list of names.
type Resolver struct {
	hosts    HostResolver
	hostname func() (string, error)
	timeout  time.Duration
	log      log.FieldLogger
}

func New(hosts HostResolver, timeout time.Duration, logger log.FieldLogger) *Resolver {
	if hosts == nil {
		hosts = net.DefaultResolver
	}
	return &Resolver{
		hosts:    hosts,
		hostname: os.Hostname,
		timeout:  timeout,
		log:      logger,
	}
}

// NewHostResolver picks the lookup backend for nameserver: the system resolver
// when empty, DNS over HTTPS for an https URL, plain DNS for host[:port].
func NewHostResolver(nameserver string, timeout time.Duration) HostResolver {
	switch {
	case nameserver == "":
		return net.DefaultResolver
	case strings.HasPrefix(nameserver, "https://"), strings.HasPrefix(nameserver, "http://"):
		return NewDoH(nameserver, timeout)
	default:
		return NewWire(nameserver, timeout)
	}
}

// Resolve looks up every name and merges the results. No names means the
// local host. The first name that fails to resolve fails the whole lookup.
func (r *Resolver) Resolve(ctx context.Context, names []string) (ipset.Set, error) {
	if len(names) == 0 {
		names = []string{""}
	}

	ips := ipset.New()
	for _, name := range names {
		addrs, err := r.lookup(ctx, name)
		if err != nil {
			return nil, err
		}
		r.log.Debugf("%s resolves to %s", displayName(name), addrs)
		ips.Merge(addrs)
	}
	return ips, nil
}

func (r *Resolver) lookup(ctx context.Context, name string) (ipset.Set, error) {
	host := strings.TrimSuffix(name, ".")
	if host == "" {
		h, err := r.hostname()
		if err != nil {
			return nil, fmt.Errorf("%w: local host name: %v", ErrNameResolution, err)
		}
		host = h
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	found, err := r.hosts.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNameResolution, host, err)
	}

	addrs := ipset.New()
	for i := range found {
		if a, ok := netip.AddrFromSlice(found[i].IP); ok {
			// ::ffff:a.b.c.d is reported as a.b.c.d
			addrs.Add(a.Unmap())
		}
	}
	if addrs.Len() == 0 {
		return nil, fmt.Errorf("%w: %s: no addresses", ErrNameResolution, host)
	}
	return addrs, nil
}

func displayName(name string) string {
	if name == "" {
		return "local host"
	}
	return name
}

func notFound(host string) error {
	return &net.DNSError{Err: "no such host", Name: host, IsNotFound: true}
}
