package config

import (
	"fmt"
	"net"

	"github.com/spf13/viper"
)

// ApplyConfig controls how a block file is admitted into the ledger.
type ApplyConfig struct {
	MaxConcurrency   uint
	SkipInvalid      bool
	Seal             bool
	ApplyGenesis     bool
	EnablePrometheus bool
	PrometheusAddr   string
}

func (c ApplyConfig) Validate() error {
	if c.MaxConcurrency == 0 {
		return fmt.Errorf("max concurrency must be greater than 0")
	}
	if c.EnablePrometheus {
		if _, _, err := net.SplitHostPort(c.PrometheusAddr); err != nil {
			return fmt.Errorf("invalid Prometheus address %q: %w", c.PrometheusAddr, err)
		}
	}
	return nil
}

func LoadApplyConfigFromCLI() ApplyConfig {
	return ApplyConfig{
		MaxConcurrency:   viper.GetUint("max-concurrency"),
		SkipInvalid:      viper.GetBool("skip-invalid"),
		Seal:             viper.GetBool("seal"),
		ApplyGenesis:     viper.GetBool("apply-genesis"),
		EnablePrometheus: viper.GetBool("enable-prometheus"),
		PrometheusAddr:   viper.GetString("prometheus-addr"),
	}
}
