package controller

import (
	"github.com/panjf2000/ants/v2"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"github.com/Septrum101/update-ddns/app/dns"
	"github.com/Septrum101/update-ddns/app/publicip"
	"github.com/Septrum101/update-ddns/common/ddns"
	"github.com/Septrum101/update-ddns/common/notify"
	"github.com/Septrum101/update-ddns/config"
)

type Server struct {
	conf       *config.Config
	log        log.FieldLogger
	address    *publicip.Resolver
	published  *dns.Resolver
	reconciler *Reconciler
	cron       *cron.Cron
	pool       *ants.Pool
}

// Reconciler pushes the desired addresses to the provider when they differ
// from the published ones.
type Reconciler struct {
	Provider    ddns.Provider
	Credentials ddns.Credentials
	Force       bool
	// DryRun only suppresses notifications, providers gate their own writes.
	DryRun   bool
	Notifier notify.Notify
	Logger   log.FieldLogger
}

// Result summarizes one reconciliation.
type Result struct {
	// Skipped is set when desired and published addresses matched.
	Skipped bool
	Updated []string
	Failed  []string
}
