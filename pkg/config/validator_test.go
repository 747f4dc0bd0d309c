package config

import (
	"errors"
	"testing"

	"github.com/hashicorp/go-multierror"
)

func fieldErrors(t *testing.T, err error) map[string]bool {
	t.Helper()
	var merr *multierror.Error
	if !errors.As(err, &merr) {
		t.Fatalf("expected *multierror.Error, got %T (%v)", err, err)
	}
	fields := make(map[string]bool)
	for _, e := range merr.Errors {
		var verr *ValidationError
		if errors.As(e, &verr) {
			fields[verr.Field] = true
		}
	}
	return fields
}

func TestValidateConfig_DefaultsAreValid(t *testing.T) {
	if err := ValidateConfig(DefaultConfig()); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
}

func TestValidateConfig_CollectsAllErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Discord.Enabled = true
	cfg.Interactions.TTLSeconds = 0
	cfg.Interactions.BusyPolicy = "queue"
	cfg.Interactions.SweepSchedule = "every now and then"
	cfg.APIs.MochiBaseURL = "not a url"
	cfg.Cache.Backend = "redis"

	fields := fieldErrors(t, ValidateConfig(cfg))
	for _, want := range []string{
		"discord.token",
		"interactions.ttl_seconds",
		"interactions.busy_policy",
		"interactions.sweep_schedule",
		"apis.mochi_base_url",
		"redis.addr",
	} {
		if !fields[want] {
			t.Errorf("expected validation error for %s, got %v", want, fields)
		}
	}
}

func TestValidateConfig_RejectsTinyChart(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Chart.Width = 10

	fields := fieldErrors(t, ValidateConfig(cfg))
	if !fields["chart"] {
		t.Fatalf("expected chart validation error, got %v", fields)
	}
}
