package controller

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/Septrum101/update-ddns/common/ddns"
	"github.com/Septrum101/update-ddns/common/ipset"
)

// updateName runs the provider for one name. Its errors are logged here and
// never stop the other names. A notification is only sent when the published
// addresses differed from desired.
func (r *Reconciler) updateName(ctx context.Context, name string, desired ipset.Set, changed bool) error {
	logger := r.Logger.WithField("name", name)

	err := r.Provider.Update(ctx, ddns.UpdateRequest{
		Name:        name,
		Addrs:       desired,
		Credentials: r.Credentials,
	})
	if err != nil {
		logger.WithError(err).Errorf("Updating %s failed", name)
		return err
	}

	if changed {
		r.pushMessage(name, desired, logger)
	}
	return nil
}

func (r *Reconciler) pushMessage(name string, desired ipset.Set, logger log.FieldLogger) {
	if r.Notifier == nil || r.DryRun {
		return
	}
	if err := r.Notifier.Webhook(name, fmt.Sprintf("IP changed: %s", desired)); err != nil {
		logger.WithError(err).Error("Push message failure")
		return
	}
	logger.Infof("Push message success")
}
