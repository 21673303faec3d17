package publicip

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Septrum101/update-ddns/common/ipset"
)

func echoServer(t *testing.T, status int, body string, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newResolver(url string) *Resolver {
	logger, _ := test.NewNullLogger()
	return New(url, 5*time.Second, logger)
}

func TestResolveOverride(t *testing.T) {
	var hits int32
	srv := echoServer(t, http.StatusOK, "9.9.9.9", &hits)
	r := newResolver(srv.URL)

	tests := []struct {
		in   string
		want string
	}{
		{"1.2.3.4", "1.2.3.4"},
		{"2001:db8::1", "2001:db8::1"},
		{" 203.0.113.7\n", "203.0.113.7"},
		{"::ffff:1.2.3.4", "::ffff:1.2.3.4"},
	}
	for _, tt := range tests {
		got, err := r.Resolve(context.Background(), tt.in)
		require.NoError(t, err, tt.in)
		assert.True(t, got.Equal(ipset.New(netip.MustParseAddr(tt.want))), tt.in)
		assert.Equal(t, 1, got.Len())
	}
	assert.Zero(t, atomic.LoadInt32(&hits))
}

func TestResolveInvalidOverride(t *testing.T) {
	var hits int32
	srv := echoServer(t, http.StatusOK, "9.9.9.9", &hits)
	r := newResolver(srv.URL)

	for _, s := range []string{"1.2.3", "example.com", "1.2.3.4.5", "fe80::1%eth0", "::g"} {
		_, err := r.Resolve(context.Background(), s)
		assert.ErrorIs(t, err, ErrInvalidAddress, s)
	}
	assert.Zero(t, atomic.LoadInt32(&hits))
}

func TestResolveFetch(t *testing.T) {
	var hits int32
	srv := echoServer(t, http.StatusOK, "198.51.100.20\n", &hits)

	got, err := newResolver(srv.URL).Resolve(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, got.Equal(ipset.New(netip.MustParseAddr("198.51.100.20"))))
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestResolveFetchErrors(t *testing.T) {
	var hits int32
	bad := echoServer(t, http.StatusOK, "<html>rate limited</html>", &hits)
	down := echoServer(t, http.StatusServiceUnavailable, "1.2.3.4", &hits)

	_, err := newResolver(bad.URL).Resolve(context.Background(), "")
	assert.ErrorIs(t, err, ErrAddressResolution)
	assert.ErrorIs(t, err, ErrInvalidAddress)

	_, err = newResolver(down.URL).Resolve(context.Background(), "")
	assert.ErrorIs(t, err, ErrAddressResolution)

	_, err = newResolver("http://127.0.0.1:1/ip").Resolve(context.Background(), "")
	assert.ErrorIs(t, err, ErrAddressResolution)
}
