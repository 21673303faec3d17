package route53

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/netip"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/route53"
	"github.com/aws/aws-sdk-go/service/route53/route53iface"
	log "github.com/sirupsen/logrus"

	"github.com/Septrum101/update-ddns/common/ddns"
	"github.com/Septrum101/update-ddns/common/ipset"
)

// Route53 updates records in AWS Route 53 hosted zones.
// Credentials.APIKey is the access key id and Credentials.Token the secret key;
// without them the default AWS credential chain is used.
type Route53 struct {
	opts   ddns.Options
	log    log.FieldLogger
	client func(c ddns.Credentials) (route53iface.Route53API, error)
}

func New(o ddns.Options) (*Route53, error) {
	r := &Route53{
		opts: o,
		log:  o.Log().WithField("provider", "route53"),
	}
	r.client = r.newAPI
	return r, nil
}

func (r *Route53) newAPI(c ddns.Credentials) (route53iface.Route53API, error) {
	cfg := aws.NewConfig().WithRegion("us-east-1").WithMaxRetries(0)
	if c.APIKey != "" {
		cfg = cfg.WithCredentials(credentials.NewStaticCredentials(c.APIKey, c.Token, ""))
	}
	if r.opts.Timeout > 0 {
		cfg = cfg.WithHTTPClient(&http.Client{Timeout: r.opts.Timeout})
	}
	if r.opts.Server != "" {
		cfg = cfg.WithEndpoint(r.opts.Server)
	}

	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, err
	}
	return route53.New(sess), nil
}

func (r *Route53) Update(ctx context.Context, req ddns.UpdateRequest) error {
	sub, domain, err := ddns.SplitName(req.Name)
	if err != nil {
		return err
	}
	logger := r.log.WithFields(log.Fields{"zone": domain, "name": req.Name})
	logger.Infof("Updating %s to %s", ddns.RecordName(sub, domain), req.Addrs)

	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	client, err := r.client(req.Credentials)
	if err != nil {
		return fmt.Errorf("route53 client: %w", err)
	}

	zoneID, err := hostedZone(ctx, client, domain)
	if err != nil {
		return err
	}
	logger = logger.WithField("zone_id", zoneID)

	target := fqdn(ddns.RecordName(sub, domain))
	var errs []error
	for _, is4 := range []bool{true, false} {
		want := req.Addrs.Family(is4)
		if want.Len() == 0 {
			continue
		}
		recordType := ipset.RecordType(want.Slice()[0])

		rrs, err := recordSet(ctx, client, zoneID, target, recordType)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if rrs.AliasTarget != nil {
			errs = append(errs, fmt.Errorf("%s %s is an alias record", recordType, target))
			continue
		}
		if values(rrs).Equal(want) {
			logger.Infof("%s record already points to %s", recordType, want)
			continue
		}
		if r.opts.DryRun {
			logger.Infof("Dry run, not updating %s %s from %s to %s", recordType, target, values(rrs), want)
			continue
		}

		if err := r.upsert(ctx, client, zoneID, rrs, want); err != nil {
			errs = append(errs, err)
			continue
		}
		logger.Infof("Updated %s %s to %s", recordType, target, want)
	}
	return errors.Join(errs...)
}

func (r *Route53) upsert(ctx context.Context, client route53iface.Route53API, zoneID string, rrs *route53.ResourceRecordSet, want ipset.Set) error {
	ttl := rrs.TTL
	if r.opts.TTL > 0 {
		ttl = aws.Int64(int64(r.opts.TTL))
	}
	var records []*route53.ResourceRecord
	for _, a := range want.Slice() {
		records = append(records, &route53.ResourceRecord{Value: aws.String(a.String())})
	}

	_, err := client.ChangeResourceRecordSetsWithContext(ctx, &route53.ChangeResourceRecordSetsInput{
		HostedZoneId: aws.String(zoneID),
		ChangeBatch: &route53.ChangeBatch{
			Comment: aws.String("update-ddns"),
			Changes: []*route53.Change{{
				Action: aws.String(route53.ChangeActionUpsert),
				ResourceRecordSet: &route53.ResourceRecordSet{
					Name:            rrs.Name,
					Type:            rrs.Type,
					TTL:             ttl,
					SetIdentifier:   rrs.SetIdentifier,
					Weight:          rrs.Weight,
					Region:          rrs.Region,
					ResourceRecords: records,
				},
			}},
		},
	})
	if err != nil {
		return fmt.Errorf("update %s %s: %w", aws.StringValue(rrs.Type), aws.StringValue(rrs.Name), err)
	}
	return nil
}

func hostedZone(ctx context.Context, client route53iface.Route53API, domain string) (string, error) {
	out, err := client.ListHostedZonesByNameWithContext(ctx, &route53.ListHostedZonesByNameInput{
		DNSName: aws.String(domain),
	})
	if err != nil {
		return "", fmt.Errorf("list hosted zones for %s: %w", domain, err)
	}

	var ids []string
	for _, z := range out.HostedZones {
		if strings.EqualFold(aws.StringValue(z.Name), fqdn(domain)) {
			ids = append(ids, strings.TrimPrefix(aws.StringValue(z.Id), "/hostedzone/"))
		}
	}
	switch len(ids) {
	case 0:
		return "", fmt.Errorf("%w for %s", ddns.ErrNoZoneFound, domain)
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("%w for %s (%d)", ddns.ErrAmbiguousZone, domain, len(ids))
	}
}

func recordSet(ctx context.Context, client route53iface.Route53API, zoneID string, name string, recordType string) (*route53.ResourceRecordSet, error) {
	out, err := client.ListResourceRecordSetsWithContext(ctx, &route53.ListResourceRecordSetsInput{
		HostedZoneId:    aws.String(zoneID),
		StartRecordName: aws.String(name),
		StartRecordType: aws.String(recordType),
		MaxItems:        aws.String("10"),
	})
	if err != nil {
		return nil, fmt.Errorf("list records of %s: %w", name, err)
	}

	for _, rrs := range out.ResourceRecordSets {
		if strings.EqualFold(aws.StringValue(rrs.Name), name) && aws.StringValue(rrs.Type) == recordType {
			return rrs, nil
		}
	}
	return nil, fmt.Errorf("%w: %s %s", ddns.ErrRecordNotFound, recordType, name)
}

func values(rrs *route53.ResourceRecordSet) ipset.Set {
	s := ipset.New()
	for _, rr := range rrs.ResourceRecords {
		if a, err := netip.ParseAddr(aws.StringValue(rr.Value)); err == nil {
			s.Add(a)
		}
	}
	return s
}

func fqdn(name string) string {
	if strings.HasSuffix(name, ".") {
		return name
	}
	return name + "."
}
