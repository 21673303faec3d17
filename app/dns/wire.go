package dns

import (
	"context"
	"fmt"
	"net"
	"time"

	mdns "github.com/miekg/dns"
)

// WireClient queries a nameserver directly with A and AAAA questions over UDP.
type WireClient struct {
	server string
	client *mdns.Client
}

func NewWire(server string, timeout time.Duration) *WireClient {
	if _, _, err := net.SplitHostPort(server); err != nil {
		server = net.JoinHostPort(server, "53")
	}
	return &WireClient{
		server: server,
		client: &mdns.Client{Timeout: timeout},
	}
}

func (w *WireClient) LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error) {
	var addrs []net.IPAddr
	for _, qtype := range []uint16{mdns.TypeA, mdns.TypeAAAA} {
		m := new(mdns.Msg)
		m.SetQuestion(mdns.Fqdn(host), qtype)

		r, _, err := w.client.ExchangeContext(ctx, m, w.server)
		if err != nil {
			return nil, err
		}
		switch r.Rcode {
		case mdns.RcodeSuccess:
		case mdns.RcodeNameError:
			return nil, notFound(host)
		default:
			return nil, fmt.Errorf("%s answered %s for %s", w.server, mdns.RcodeToString[r.Rcode], host)
		}

		for _, rr := range r.Answer {
			switch rr := rr.(type) {
			case *mdns.A:
				addrs = append(addrs, net.IPAddr{IP: rr.A})
			case *mdns.AAAA:
				addrs = append(addrs, net.IPAddr{IP: rr.AAAA})
			}
		}
	}
	if len(addrs) == 0 {
		return nil, notFound(host)
	}
	return addrs, nil
}
