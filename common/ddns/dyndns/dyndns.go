package dyndns

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"

	"github.com/Septrum101/update-ddns/common/ddns"
)

// DynDNS speaks the dyndns2 update protocol (GET /nic/update) used by
// dyn.com, no-ip, dynv6, Google Domains and many routers.
type DynDNS struct {
	opts   ddns.Options
	log    log.FieldLogger
	client *resty.Client
}

func New(o ddns.Options) (*DynDNS, error) {
	if o.Server == "" {
		return nil, errors.New("dyndns: server URL is required")
	}

	cli := resty.New().SetBaseURL(strings.TrimRight(o.Server, "/"))
	if o.Timeout > 0 {
		cli.SetTimeout(o.Timeout)
	}

	return &DynDNS{
		opts:   o,
		log:    o.Log().WithField("provider", "dyndns"),
		client: cli,
	}, nil
}

// Update sends one request per desired address. The server only updates
// hosts it already knows, "nohost" is reported as ddns.ErrRecordNotFound.
func (d *DynDNS) Update(ctx context.Context, req ddns.UpdateRequest) error {
	name := strings.TrimSuffix(req.Name, ".")
	logger := d.log.WithField("name", name)

	user, pass := req.Credentials.Email, req.Credentials.APIKey
	if req.Credentials.Token != "" {
		pass = req.Credentials.Token
	}

	var errs []error
	for _, addr := range req.Addrs.Slice() {
		if d.opts.DryRun {
			logger.Infof("Dry run, not updating %s to %s", name, addr)
			continue
		}

		if err := d.doRequest(ctx, user, pass, name, addr.String()); err != nil {
			errs = append(errs, err)
			continue
		}
		logger.Infof("[%s] update record success, IP: %s", name, addr)
	}
	return errors.Join(errs...)
}

func (d *DynDNS) doRequest(ctx context.Context, user string, pass string, name string, ipAddr string) error {
	resp, err := d.client.R().
		SetContext(ctx).
		SetBasicAuth(user, pass).
		SetQueryParams(map[string]string{"hostname": name, "myip": ipAddr}).
		Get("/nic/update")
	if err != nil {
		return fmt.Errorf("[%s] update record failure: %w", name, err)
	}

	respStr := strings.TrimSpace(resp.String())
	switch {
	case strings.HasPrefix(respStr, "good"), strings.HasPrefix(respStr, "nochg"):
		return nil
	case strings.HasPrefix(respStr, "nohost"):
		return fmt.Errorf("%w: %s", ddns.ErrRecordNotFound, name)
	default:
		return fmt.Errorf("[%s] update record failure, status: %s, response: %s", name, resp.Status(), respStr)
	}
}
