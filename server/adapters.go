package server

import (
	"gorm.io/gorm"

	"confd/config"
	"confd/internal/controller"
	"confd/internal/devicecfg"
	"confd/internal/funckey"
	"confd/internal/provd"
	"confd/internal/repo"
)

// newGenerator builds the device config pipeline on top of the gorm stores.
func newGenerator(db *gorm.DB) *devicecfg.Generator {
	extensions := repo.NewExtensionStore(db)
	return devicecfg.New(devicecfg.Deps{
		Profiles:   repo.NewDeviceStore(db),
		Features:   extensions,
		Lines:      repo.NewLineStore(db),
		Registrars: repo.NewRegistrarStore(db),
		Users:      repo.NewUserStore(db),
		Templates:  repo.NewTemplateStore(db),
		FuncKeys:   funckey.NewRegistry(extensions),
	})
}

func newProvdClient(cfg *config.Config) *provd.Client {
	b := cfg.Provd.Breaker
	return provd.New(provd.Config{
		URL:     cfg.Provd.URL,
		Token:   cfg.Provd.Token,
		Timeout: cfg.Provd.Timeout,
		Breaker: provd.BreakerConfig{
			Enabled:          b.Enabled,
			MaxRequests:      b.MaxRequests,
			Interval:         b.Interval,
			Timeout:          b.Timeout,
			FailureThreshold: b.FailureThreshold,
		},
	})
}

func reconcilerOptions(cfg *config.Config) controller.Options {
	return controller.Options{
		Workers:    cfg.Resync.Workers,
		MaxRetries: cfg.Resync.MaxRetries,
		BaseDelay:  cfg.Resync.BaseDelay,
		MaxDelay:   cfg.Resync.MaxDelay,
	}
}
