package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing url", func(c *Config) { c.URL = "" }, "url"},
		{"missing out file", func(c *Config) { c.OutFile = "" }, "out_file"},
		{"negative cap", func(c *Config) { c.MaxRecords = -1 }, "max_records"},
		{"threshold of one", func(c *Config) { c.StabilityThreshold = 1 }, "stability_threshold"},
		{"zero settle timeout", func(c *Config) { c.SettleTimeout = 0 }, "settle_timeout"},
		{"zero nav timeout", func(c *Config) { c.NavTimeout = 0 }, "nav_timeout"},
		{"zero harvest timeout", func(c *Config) { c.HarvestTimeout = 0 }, "harvest_timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateAllowsUnboundedHarvest(t *testing.T) {
	cfg := Default()
	cfg.MaxRecords = 0
	assert.NoError(t, cfg.Validate())
}
