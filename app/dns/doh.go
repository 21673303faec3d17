package dns

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/go-resty/resty/v2"
	mdns "github.com/miekg/dns"
)

// DoHClient resolves names through the JSON API of a DNS over HTTPS server
// such as https://cloudflare-dns.com/dns-query or https://dns.google/resolve.
type DoHClient struct {
	nameserver string
	client     *resty.Client
}

type dohResponse struct {
	Status int `json:"Status"`
	Answer []struct {
		Name string `json:"name"`
		Type uint16 `json:"type"`
		TTL  int    `json:"TTL"`
		Data string `json:"data"`
	} `json:"Answer"`
}

func NewDoH(server string, timeout time.Duration) *DoHClient {
	cli := resty.New().SetHeader("accept", "application/dns-json")
	if timeout > 0 {
		cli.SetTimeout(timeout)
	}
	return &DoHClient{
		nameserver: server,
		client:     cli,
	}
}

func (d *DoHClient) LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error) {
	var addrs []net.IPAddr
	for _, qtype := range []uint16{mdns.TypeA, mdns.TypeAAAA} {
		ips, err := d.query(ctx, host, qtype)
		if err != nil {
			return nil, err
		}
		addrs = append(addrs, ips...)
	}
	if len(addrs) == 0 {
		return nil, notFound(host)
	}
	return addrs, nil
}

func (d *DoHClient) query(ctx context.Context, host string, qtype uint16) ([]net.IPAddr, error) {
	result := &dohResponse{}
	resp, err := d.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"name": host, "type": fmt.Sprint(qtype)}).
		SetResult(result).
		ForceContentType("application/json").
		Get(d.nameserver)
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%s returned %s", d.nameserver, resp.Status())
	}

	switch result.Status {
	case mdns.RcodeSuccess:
	case mdns.RcodeNameError:
		return nil, notFound(host)
	default:
		return nil, fmt.Errorf("%s answered %s for %s", d.nameserver, mdns.RcodeToString[result.Status], host)
	}

	var ips []net.IPAddr
	for _, a := range result.Answer {
		if a.Type != qtype {
			continue
		}
		if ip := net.ParseIP(a.Data); ip != nil {
			ips = append(ips, net.IPAddr{IP: ip})
		}
	}
	return ips, nil
}
