// Package controller keeps the configs stored in provd in line with what the
// database says each device should run.
package controller

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"confd/internal/devicecfg"
	"confd/internal/metrics"
	"confd/internal/models"
	"confd/internal/repo"
)

type DeviceRepo interface {
	Get(ctx context.Context, id string) (*models.Device, error)
	SaveConfig(ctx context.Context, id, configID, checksum string, version int) error
	ListIDs(ctx context.Context) ([]string, error)
	IDsForRegistrar(ctx context.Context, registrarID string) ([]string, error)
}

type ConfigGenerator interface {
	Generate(ctx context.Context, dev *models.Device) (*devicecfg.Envelope, error)
}

// ConfigStore is where generated configs are pushed.
type ConfigStore interface {
	GetConfig(ctx context.Context, id string) (map[string]any, error)
	UpsertConfig(ctx context.Context, env *devicecfg.Envelope) error
}

type Reconciler struct {
	Devices   DeviceRepo
	Generator ConfigGenerator
	Provd     ConfigStore
	Opts      Options
}

func NewReconciler(ds DeviceRepo, gen ConfigGenerator, pd ConfigStore, opts Options) *Reconciler {
	return &Reconciler{Devices: ds, Generator: gen, Provd: pd, Opts: opts.withDefaults()}
}

// Preview generates the config of a device without pushing it.
func (r *Reconciler) Preview(ctx context.Context, deviceID string) (*devicecfg.Envelope, error) {
	dev, err := r.device(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	return r.generate(ctx, dev)
}

// Reconcile regenerates the config of a device and pushes it to provd unless
// it matches the checksum of the last push and provd still holds it.
func (r *Reconciler) Reconcile(ctx context.Context, deviceID string) (checksum string, updated bool, err error) {
	return r.reconcile(ctx, deviceID, false)
}

// Synchronize is Reconcile without the checksum shortcut.
func (r *Reconciler) Synchronize(ctx context.Context, deviceID string) (checksum string, err error) {
	checksum, _, err = r.reconcile(ctx, deviceID, true)
	return checksum, err
}

func (r *Reconciler) reconcile(ctx context.Context, deviceID string, force bool) (string, bool, error) {
	dev, err := r.device(ctx, deviceID)
	if err != nil {
		return "", false, err
	}
	env, err := r.generate(ctx, dev)
	if err != nil {
		return "", false, err
	}
	sum, err := Checksum(env)
	if err != nil {
		return "", false, err
	}
	if !force && sum == dev.ConfigChecksum {
		stored, err := r.Provd.GetConfig(ctx, env.ID)
		if err != nil {
			return "", false, fmt.Errorf("read config of device %s: %w", dev.ID, err)
		}
		if stored != nil {
			return sum, false, nil
		}
	}

	if err := r.Provd.UpsertConfig(ctx, env); err != nil {
		return "", false, fmt.Errorf("push config of device %s: %w", dev.ID, err)
	}
	ver := dev.ConfigVersion + 1
	if ver <= 0 {
		ver = 1
	}
	if err := r.Devices.SaveConfig(ctx, dev.ID, env.ID, sum, ver); err != nil {
		return "", false, err
	}
	return sum, true, nil
}

func (r *Reconciler) device(ctx context.Context, id string) (*models.Device, error) {
	dev, err := r.Devices.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if dev == nil {
		return nil, fmt.Errorf("device %s: %w", id, repo.ErrNotFound)
	}
	return dev, nil
}

func (r *Reconciler) generate(ctx context.Context, dev *models.Device) (*devicecfg.Envelope, error) {
	env, err := r.Generator.Generate(ctx, dev)
	metrics.ConfigGenerations.WithLabelValues(metrics.Result(err)).Inc()
	return env, err
}

// Checksum hashes the JSON form of env. encoding/json sorts map keys, so equal
// configs hash equal.
func Checksum(env *devicecfg.Envelope) (string, error) {
	data, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("encode config %s: %w", env.ID, err)
	}
	h := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(h[:]), nil
}
