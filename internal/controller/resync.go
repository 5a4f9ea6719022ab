package controller

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"confd/internal/logs"
	"confd/internal/provd"
)

// Options tunes bulk reconciliation.
type Options struct {
	Workers    int
	MaxRetries uint
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = 200 * time.Millisecond
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = 5 * time.Second
	}
	return o
}

const (
	OutcomeUpdated   = "updated"
	OutcomeUnchanged = "unchanged"
	OutcomeFailed    = "failed"
)

type Result struct {
	DeviceID string `json:"device_id"`
	Outcome  string `json:"outcome"`
	Checksum string `json:"checksum,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Report summarizes a bulk run. Results keep the order of the requested ids.
type Report struct {
	Updated   int      `json:"updated"`
	Unchanged int      `json:"unchanged"`
	Failed    int      `json:"failed"`
	Results   []Result `json:"results"`
}

// ReconcileAll reconciles the given devices, or every device when ids is empty.
// A failing device does not stop the others.
func (r *Reconciler) ReconcileAll(ctx context.Context, ids []string) (*Report, error) {
	if len(ids) == 0 {
		all, err := r.Devices.ListIDs(ctx)
		if err != nil {
			return nil, err
		}
		ids = all
	}
	return r.reconcileMany(ctx, ids), nil
}

// ReconcileRegistrar reconciles every device with a line on the registrar,
// typically after the registrar was edited.
func (r *Reconciler) ReconcileRegistrar(ctx context.Context, registrarID string) (*Report, error) {
	ids, err := r.Devices.IDsForRegistrar(ctx, registrarID)
	if err != nil {
		return nil, err
	}
	return r.reconcileMany(ctx, ids), nil
}

func (r *Reconciler) reconcileMany(ctx context.Context, ids []string) *Report {
	results := make([]Result, len(ids))

	var g errgroup.Group
	g.SetLimit(r.Opts.Workers)
	for i, id := range ids {
		g.Go(func() error {
			results[i] = r.reconcileWithRetry(ctx, id)
			return nil
		})
	}
	_ = g.Wait()

	rep := &Report{Results: results}
	for _, res := range results {
		switch res.Outcome {
		case OutcomeUpdated:
			rep.Updated++
		case OutcomeUnchanged:
			rep.Unchanged++
		default:
			rep.Failed++
		}
	}
	logs.Logger.WithFields(logrus.Fields{
		"devices":   len(ids),
		"updated":   rep.Updated,
		"unchanged": rep.Unchanged,
		"failed":    rep.Failed,
	}).Info("bulk reconcile done")
	return rep
}

type outcome struct {
	checksum string
	updated  bool
}

func (r *Reconciler) reconcileWithRetry(ctx context.Context, id string) Result {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = r.Opts.BaseDelay
	exp.MaxInterval = r.Opts.MaxDelay

	op := func() (outcome, error) {
		sum, updated, err := r.Reconcile(ctx, id)
		if err == nil {
			return outcome{checksum: sum, updated: updated}, nil
		}
		if provd.IsRetryable(err) {
			logs.Logger.WithFields(logrus.Fields{"device_id": id, "error": err}).Debug("retrying reconcile")
			return outcome{}, err
		}
		return outcome{}, backoff.Permanent(err)
	}

	out, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(exp),
		backoff.WithMaxTries(r.Opts.MaxRetries+1),
	)
	if err != nil {
		logs.Logger.WithFields(logrus.Fields{"device_id": id, "error": err}).Warn("device reconcile failed")
		return Result{DeviceID: id, Outcome: OutcomeFailed, Error: err.Error()}
	}
	res := Result{DeviceID: id, Outcome: OutcomeUnchanged, Checksum: out.checksum}
	if out.updated {
		res.Outcome = OutcomeUpdated
	}
	return res
}
