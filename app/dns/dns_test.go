package dns

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"
	"time"

	mdns "github.com/miekg/dns"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Septrum101/update-ddns/common/ipset"
)

type mockHosts struct {
	addrs   map[string][]string
	queries []string
}

func (m *mockHosts) LookupIPAddr(_ context.Context, host string) ([]net.IPAddr, error) {
	m.queries = append(m.queries, host)
	a, ok := m.addrs[host]
	if !ok {
		return nil, notFound(host)
	}
	var out []net.IPAddr
	for i := range a {
		out = append(out, net.IPAddr{IP: net.ParseIP(a[i])})
	}
	return out, nil
}

func newResolver(m *mockHosts) *Resolver {
	logger, _ := test.NewNullLogger()
	r := New(m, time.Second, logger)
	r.hostname = func() (string, error) { return "myhost", nil }
	return r
}

func set(addrs ...string) ipset.Set {
	s := ipset.New()
	for _, a := range addrs {
		s.Add(netip.MustParseAddr(a))
	}
	return s
}

func TestResolveMerges(t *testing.T) {
	m := &mockHosts{addrs: map[string][]string{
		"a.example.com": {"1.2.3.4", "2001:db8::1"},
		"b.example.com": {"1.2.3.4", "5.6.7.8"},
	}}

	got, err := newResolver(m).Resolve(context.Background(), []string{"a.example.com", "b.example.com."})
	require.NoError(t, err)
	assert.True(t, got.Equal(set("1.2.3.4", "5.6.7.8", "2001:db8::1")), got.String())
	assert.Equal(t, []string{"a.example.com", "b.example.com"}, m.queries)
}

func TestResolveUnmapsIPv4(t *testing.T) {
	m := &mockHosts{addrs: map[string][]string{"sub.example.com": {"::ffff:203.0.113.5"}}}

	got, err := newResolver(m).Resolve(context.Background(), []string{"sub.example.com"})
	require.NoError(t, err)
	assert.True(t, got.Equal(set("203.0.113.5")))
	assert.False(t, got.Has(netip.MustParseAddr("::ffff:203.0.113.5")))
}

func TestResolveLocalHost(t *testing.T) {
	m := &mockHosts{addrs: map[string][]string{"myhost": {"192.0.2.1"}}}
	r := newResolver(m)

	empty, err := r.Resolve(context.Background(), nil)
	require.NoError(t, err)
	blank, err := r.Resolve(context.Background(), []string{""})
	require.NoError(t, err)

	assert.True(t, empty.Equal(blank))
	assert.True(t, empty.Equal(set("192.0.2.1")))
	assert.Equal(t, []string{"myhost", "myhost"}, m.queries)
}

func TestResolveFailsFast(t *testing.T) {
	m := &mockHosts{addrs: map[string][]string{"good.example.com": {"1.2.3.4"}}}

	_, err := newResolver(m).Resolve(context.Background(), []string{"bad.example.com", "good.example.com"})
	assert.ErrorIs(t, err, ErrNameResolution)
	assert.ErrorContains(t, err, "bad.example.com")
	assert.Equal(t, []string{"bad.example.com"}, m.queries)
}

func TestResolveHostnameError(t *testing.T) {
	r := newResolver(&mockHosts{})
	r.hostname = func() (string, error) { return "", errors.New("no hostname") }

	_, err := r.Resolve(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNameResolution)
}

func TestNewHostResolver(t *testing.T) {
	assert.Equal(t, net.DefaultResolver, NewHostResolver("", time.Second))
	assert.IsType(t, &DoHClient{}, NewHostResolver("https://dns.google/resolve", time.Second))

	w, ok := NewHostResolver("1.1.1.1", time.Second).(*WireClient)
	require.True(t, ok)
	assert.Equal(t, "1.1.1.1:53", w.server)
}

func TestDoHLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/dns-json", r.Header.Get("accept"))
		if r.URL.Query().Get("name") != "home.example.com" {
			io.WriteString(w, `{"Status":3}`)
			return
		}
		switch r.URL.Query().Get("type") {
		case "1":
			io.WriteString(w, `{"Status":0,"Answer":[{"name":"home.example.com.","type":5,"TTL":60,"data":"edge.example.net."},`+
				`{"name":"edge.example.net.","type":1,"TTL":60,"data":"198.51.100.7"}]}`)
		case "28":
			io.WriteString(w, `{"Status":0,"Answer":[{"name":"home.example.com.","type":28,"TTL":60,"data":"2001:db8::7"}]}`)
		}
	}))
	defer srv.Close()

	d := NewDoH(srv.URL, time.Second)
	addrs, err := d.LookupIPAddr(context.Background(), "home.example.com")
	require.NoError(t, err)
	require.Len(t, addrs, 2)
	assert.Equal(t, "198.51.100.7", addrs[0].IP.String())
	assert.Equal(t, "2001:db8::7", addrs[1].IP.String())

	_, err = d.LookupIPAddr(context.Background(), "missing.example.com")
	var dnsErr *net.DNSError
	require.ErrorAs(t, err, &dnsErr)
	assert.True(t, dnsErr.IsNotFound)
}

func startWireServer(t *testing.T) string {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	started := make(chan struct{})
	srv := &mdns.Server{
		PacketConn:        pc,
		NotifyStartedFunc: func() { close(started) },
		Handler: mdns.HandlerFunc(func(w mdns.ResponseWriter, req *mdns.Msg) {
			m := new(mdns.Msg)
			m.SetReply(req)
			q := req.Question[0]
			if q.Name != "home.example.com." {
				m.Rcode = mdns.RcodeNameError
				w.WriteMsg(m)
				return
			}
			switch q.Qtype {
			case mdns.TypeA:
				rr, _ := mdns.NewRR(fmt.Sprintf("%s 60 IN A 203.0.113.9", q.Name))
				m.Answer = append(m.Answer, rr)
			case mdns.TypeAAAA:
				rr, _ := mdns.NewRR(fmt.Sprintf("%s 60 IN AAAA ::ffff:203.0.113.9", q.Name))
				m.Answer = append(m.Answer, rr)
			}
			w.WriteMsg(m)
		}),
	}
	go srv.ActivateAndServe()
	t.Cleanup(func() { srv.Shutdown() })
	<-started
	return pc.LocalAddr().String()
}

func TestWireLookup(t *testing.T) {
	addr := startWireServer(t)
	logger, _ := test.NewNullLogger()
	r := New(NewWire(addr, time.Second), time.Second, logger)

	got, err := r.Resolve(context.Background(), []string{"home.example.com"})
	require.NoError(t, err)
	assert.True(t, got.Equal(set("203.0.113.9")), got.String())

	_, err = r.Resolve(context.Background(), []string{"missing.example.com"})
	assert.ErrorIs(t, err, ErrNameResolution)
}
