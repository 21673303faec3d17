package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"github.com/Septrum101/update-ddns/app/dns"
	"github.com/Septrum101/update-ddns/app/publicip"
	"github.com/Septrum101/update-ddns/common/ddns"
	"github.com/Septrum101/update-ddns/common/ipset"
	"github.com/Septrum101/update-ddns/config"
)

// New wires resolvers, provider and notifier from c. Nothing touches the
// network until Run or Start.
func New(c *config.Config, logger log.FieldLogger) (*Server, error) {
	s := &Server{
		conf: c,
		log:  logger,
	}

	provider, err := NewProvider(c.DDNS.Provider, ddns.Options{
		Logger:  logger.WithField("provider", c.DDNS.Provider),
		DryRun:  c.DryRun,
		Timeout: c.Timeout,
		TTL:     c.DDNS.TTL,
		Server:  c.DDNS.Server,
	})
	if err != nil {
		return nil, err
	}

	s.address = publicip.New(c.IPResolver, c.Timeout, logger)
	s.published = dns.New(dns.NewHostResolver(c.Nameserver, c.Timeout), c.Timeout, logger)
	s.reconciler = &Reconciler{
		Provider: provider,
		Credentials: ddns.Credentials{
			Email:  c.DDNS.Email,
			APIKey: c.DDNS.APIKey,
			Token:  c.DDNS.Token,
		},
		Force:    c.Force,
		DryRun:   c.DryRun,
		Notifier: s.buildNotifier(),
		Logger:   logger.WithField("provider", c.DDNS.Provider),
	}
	return s, nil
}

// Run performs one update pass. Failing to learn either address set is
// returned, per-name provider failures are only logged.
func (s *Server) Run(ctx context.Context) error {
	if s.conf.DryRun {
		s.log.Info("Dry run, no changes will be made")
	}

	desired, err := s.address.Resolve(ctx, s.conf.IP)
	if err != nil {
		return err
	}
	s.log.Infof("Retrieved public IP addresses: %s", desired)

	published, err := s.published.Resolve(ctx, s.conf.Names)
	if err != nil {
		return err
	}
	s.log.Infof("Retrieved DNS IP addresses: %s", published)

	res := s.reconciler.Reconcile(ctx, desired, published, s.conf.Names)
	if len(res.Failed) > 0 {
		s.log.Warnf("%d of %d names failed to update", len(res.Failed), len(s.conf.Names))
	}
	return nil
}

// Reconcile updates every name when desired differs from published, or
// always when forced. Names are attempted in order and one failure never
// prevents the next attempt.
func (r *Reconciler) Reconcile(ctx context.Context, desired ipset.Set, published ipset.Set, names []string) Result {
	if !r.Force && desired.Equal(published) {
		r.Logger.Info("Public and DNS IP addresses match, skipping update")
		return Result{Skipped: true}
	}
	if r.Force {
		r.Logger.Info("Forcing update")
	} else {
		r.Logger.Infof("IP addresses changed from %s to %s", published, desired)
	}

	if len(names) == 0 {
		r.Logger.Warn("No DNS names given, nothing to update")
		return Result{}
	}

	changed := !desired.Equal(published)
	var res Result
	for _, name := range names {
		if err := r.updateName(ctx, name, desired, changed); err != nil {
			res.Failed = append(res.Failed, name)
			continue
		}
		res.Updated = append(res.Updated, name)
	}
	return res
}

// Start runs one pass now and then every conf.Every until ctx ends or Close
// is called. A tick that fires while the previous pass is running is dropped.
func (s *Server) Start(ctx context.Context) error {
	pool, err := ants.NewPool(1, ants.WithNonblocking(true), ants.WithLogger(s.log))
	if err != nil {
		return err
	}
	s.pool = pool
	s.cron = cron.New()

	task := func() { s.task(ctx) }
	if _, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.conf.Every), task); err != nil {
		pool.Release()
		return fmt.Errorf("%w: schedule: %v", config.ErrConfiguration, err)
	}

	s.cron.Start()
	s.log.Warnf("%s started, updating every %s", config.AppName, s.conf.Every)
	task()
	return nil
}

func (s *Server) task(ctx context.Context) {
	err := s.pool.Submit(func() {
		if err := s.Run(ctx); err != nil {
			s.log.Error(err)
		}
	})
	if errors.Is(err, ants.ErrPoolOverload) {
		s.log.Warn("Previous update still running, skipping this one")
	} else if err != nil {
		s.log.Error(err)
	}
}

// Close stops the schedule and waits up to the configured timeout for a
// running pass.
func (s *Server) Close() {
	s.log.Infoln(config.AppName, "Closing..")
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	if s.pool != nil {
		timeout := s.conf.Timeout
		if timeout <= 0 {
			timeout = time.Second
		}
		if err := s.pool.ReleaseTimeout(timeout); err != nil {
			s.log.Warn(err)
		}
	}
}
