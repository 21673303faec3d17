package ddns

import (
	"context"
	"errors"
	"io"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Septrum101/update-ddns/common/ipset"
)

var (
	ErrNoZoneFound    = errors.New("no zone found")
	ErrAmbiguousZone  = errors.New("multiple zones found")
	ErrRecordNotFound = errors.New("record not found")
)

// Credentials is the provider specific authentication material.
// It is passed through untouched; the provider API decides whether it is valid.
type Credentials struct {
	Email  string
	APIKey string
	Token  string
}

// UpdateRequest asks a provider to point Name at Addrs.
type UpdateRequest struct {
	Name        string
	Addrs       ipset.Set
	Credentials Credentials
}

// Provider pushes the desired addresses of one DNS name to a DNS provider.
type Provider interface {
	Update(ctx context.Context, req UpdateRequest) error
}

// Options are shared by every provider constructor.
type Options struct {
	Logger log.FieldLogger
	// DryRun providers read but never write.
	DryRun  bool
	Timeout time.Duration
	// TTL of updated records, 0 keeps the provider default.
	TTL int
	// Server is the API base URL for providers that need one.
	Server string
}

type Factory func(o Options) (Provider, error)

// Log returns o.Logger or a logger writing nowhere.
func (o Options) Log() log.FieldLogger {
	if o.Logger != nil {
		return o.Logger
	}
	l := log.New()
	l.SetOutput(io.Discard)
	return l
}
