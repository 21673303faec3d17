package cloudflare

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/netip"
	"strings"

	"github.com/cloudflare/cloudflare-go"
	log "github.com/sirupsen/logrus"

	"github.com/Septrum101/update-ddns/common/ddns"
	"github.com/Septrum101/update-ddns/common/ipset"
)

const bearerPrefix = "Bearer "

// api is the part of *cloudflare.API used to update records.
type api interface {
	ListZones(ctx context.Context, z ...string) ([]cloudflare.Zone, error)
	ListDNSRecords(ctx context.Context, rc *cloudflare.ResourceContainer, params cloudflare.ListDNSRecordsParams) ([]cloudflare.DNSRecord, *cloudflare.ResultInfo, error)
	UpdateDNSRecord(ctx context.Context, rc *cloudflare.ResourceContainer, params cloudflare.UpdateDNSRecordParams) (cloudflare.DNSRecord, error)
}

// Cloudflare Implementation
type Cloudflare struct {
	opts   ddns.Options
	log    log.FieldLogger
	client func(c ddns.Credentials) (api, error)
}

func New(o ddns.Options) (*Cloudflare, error) {
	cf := &Cloudflare{
		opts: o,
		log:  o.Log().WithField("provider", "cloudflare"),
	}
	cf.client = cf.newAPI
	return cf, nil
}

// newAPI builds a client for one update. A token wins over email and key.
func (cf *Cloudflare) newAPI(c ddns.Credentials) (api, error) {
	opts := []cloudflare.Option{cloudflare.UsingRetryPolicy(0, 0, 0)}
	if cf.opts.Timeout > 0 {
		opts = append(opts, cloudflare.HTTPClient(&http.Client{Timeout: cf.opts.Timeout}))
	}
	if cf.opts.Server != "" {
		opts = append(opts, cloudflare.BaseURL(cf.opts.Server))
	}

	if c.Token != "" {
		return cloudflare.NewWithAPIToken(apiToken(c.Token), opts...)
	}
	return cloudflare.New(c.APIKey, c.Email, opts...)
}

// apiToken accepts a token with or without its "Bearer " prefix.
// cloudflare-go writes the prefix into the Authorization header itself.
func apiToken(token string) string {
	token = strings.TrimSpace(token)
	if strings.HasPrefix(token, bearerPrefix) {
		return strings.TrimSpace(token[len(bearerPrefix):])
	}
	return token
}

// Update points the A/AAAA records of req.Name at req.Addrs.
// Records are only updated, never created.
func (cf *Cloudflare) Update(ctx context.Context, req ddns.UpdateRequest) error {
	sub, domain, err := ddns.SplitName(req.Name)
	if err != nil {
		return err
	}
	logger := cf.log.WithFields(log.Fields{"zone": domain, "name": req.Name})
	if sub == "" {
		logger.Infof("Updating base domain to %s", req.Addrs)
	} else {
		logger.Infof("Updating %s to %s", sub, req.Addrs)
	}

	if cf.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cf.opts.Timeout)
		defer cancel()
	}

	client, err := cf.client(req.Credentials)
	if err != nil {
		return fmt.Errorf("cloudflare client: %w", err)
	}

	zoneID, err := cf.zoneID(ctx, client, domain)
	if err != nil {
		return err
	}
	logger = logger.WithField("zone_id", zoneID)

	rc := cloudflare.ZoneIdentifier(zoneID)
	records, _, err := client.ListDNSRecords(ctx, rc, cloudflare.ListDNSRecordsParams{})
	if err != nil {
		return fmt.Errorf("list records of zone %s: %w", domain, err)
	}
	logger.Debugf("Found %d records in zone", len(records))

	target := ddns.RecordName(sub, domain)
	var errs []error
	for _, is4 := range []bool{true, false} {
		want := req.Addrs.Family(is4).Slice()
		if len(want) == 0 {
			continue
		}
		recordType := ipset.RecordType(want[0])
		current := filter(records, target, recordType)

		changes, missing, surplus := assign(current, want)
		for _, ch := range changes {
			if err := cf.apply(ctx, client, rc, ch, logger); err != nil {
				errs = append(errs, err)
			}
		}
		for _, a := range missing {
			errs = append(errs, fmt.Errorf("%w: %s %s for %s", ddns.ErrRecordNotFound, recordType, target, a))
		}
		if len(surplus) > 0 {
			logger.Warnf("Leaving %d surplus %s records of %s untouched", len(surplus), recordType, target)
		}
		if len(changes) == 0 && len(missing) == 0 {
			logger.Infof("%s record already points to %s", recordType, ipset.New(want...))
		}
	}

	return errors.Join(errs...)
}

func (cf *Cloudflare) zoneID(ctx context.Context, client api, domain string) (string, error) {
	zones, err := client.ListZones(ctx, domain)
	if err != nil {
		return "", fmt.Errorf("list zones for %s: %w", domain, err)
	}

	switch len(zones) {
	case 0:
		return "", fmt.Errorf("%w for %s", ddns.ErrNoZoneFound, domain)
	case 1:
		return zones[0].ID, nil
	default:
		return "", fmt.Errorf("%w for %s (%d)", ddns.ErrAmbiguousZone, domain, len(zones))
	}
}

func (cf *Cloudflare) apply(ctx context.Context, client api, rc *cloudflare.ResourceContainer, ch change, logger log.FieldLogger) error {
	r := ch.record
	entry := logger.WithFields(log.Fields{"record_id": r.ID, "type": r.Type})
	if cf.opts.DryRun {
		entry.Infof("Dry run, not updating %s from %s to %s", r.Name, r.Content, ch.addr)
		return nil
	}

	ttl := r.TTL
	if cf.opts.TTL > 0 {
		ttl = cf.opts.TTL
	}
	_, err := client.UpdateDNSRecord(ctx, rc, cloudflare.UpdateDNSRecordParams{
		ID:      r.ID,
		Type:    r.Type,
		Name:    r.Name,
		Content: ch.addr.String(),
		TTL:     ttl,
		Proxied: r.Proxied,
	})
	if err != nil {
		return fmt.Errorf("update %s record %s: %w", r.Type, r.Name, err)
	}
	entry.Infof("Updated %s from %s to %s", r.Name, r.Content, ch.addr)
	return nil
}

func filter(records []cloudflare.DNSRecord, name string, recordType string) []cloudflare.DNSRecord {
	var out []cloudflare.DNSRecord
	for i := range records {
		if records[i].Type == recordType && strings.EqualFold(strings.TrimSuffix(records[i].Name, "."), name) {
			out = append(out, records[i])
		}
	}
	return out
}

type change struct {
	record cloudflare.DNSRecord
	addr   netip.Addr
}

// assign pairs desired addresses with records. Records already holding a
// desired address are kept; the rest receive the remaining addresses in order.
// Addresses left once records run out are returned as missing, records left
// once addresses run out as surplus.
func assign(records []cloudflare.DNSRecord, want []netip.Addr) (changes []change, missing []netip.Addr, surplus []cloudflare.DNSRecord) {
	wanted := ipset.New(want...)
	held := ipset.New()
	var free []cloudflare.DNSRecord
	for i := range records {
		a, err := netip.ParseAddr(records[i].Content)
		if err == nil && wanted.Has(a) && !held.Has(a) {
			held.Add(a)
			continue
		}
		free = append(free, records[i])
	}

	for _, a := range want {
		if held.Has(a) {
			continue
		}
		if len(free) == 0 {
			missing = append(missing, a)
			continue
		}
		changes = append(changes, change{record: free[0], addr: a})
		free = free[1:]
	}
	return changes, missing, free
}
