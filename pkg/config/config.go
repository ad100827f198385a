// Package config is the host-side configuration loader: `pkg/arguments`
// from the teacher, renamed and retargeted at loading `simconfig.SimConfig`
// (spec.md §6) instead of an HTTP server's listen port (SPEC_FULL.md §2).
// The teacher's AWS cloud-metadata lookup (`pkg/arguments/cloud`) has no
// fit here — a headless simulation core never needs to self-report a
// public hostname — and is dropped (see DESIGN.md).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"

	"nebulacore/internal/simconfig"
	"nebulacore/pkg/duration"
)

// StoreConfig :
// Tunables for the optional `pkg/store` autosave wiring. Kept out of
// `simconfig.SimConfig` since it governs host behavior (how often to
// persist), not simulation behavior.
type StoreConfig struct {
	// AutosaveInterval paces SaveGameRepository.Autosave (SPEC_FULL.md §3).
	// Uses pkg/duration's Duration (the teacher's JSON-friendly wrapper
	// around time.Duration) so this value round-trips through the same
	// config file as every other setting here instead of needing its own
	// ad-hoc "seconds" field.
	AutosaveInterval duration.Duration
}

// RunMetadata :
// Identifies one run of `cmd/simcore` the way the teacher's `AppMetadata`
// identifies one server instance: useful for tagging log lines and
// correlating an autosave with the process that produced it.
//
// The `InstanceID` is generated fresh for every run.
//
// The `Environment` mirrors the config file name used to start the run
// ("development", "production", ...), the same convention the teacher
// uses.
type RunMetadata struct {
	InstanceID  string
	Environment string
}

// Load :
// Reads `configFile` (if non-empty) through viper, falling back to
// environment variables under the `ENV_` prefix either way (the same
// `viper.AutomaticEnv` + `.`→`_` replacer setup the teacher's
// `arguments.Parse` uses), and returns the run metadata plus a
// `SimConfig` seeded from `simconfig.Default()` and overridden by whatever
// the `Sim.*` section of the config sets.
//
// Unlike the teacher's `ParseConfig` (which panics if the named file can't
// be read, since an HTTP server without its port/DB settings can't start
// meaningfully), a named file that cannot be read is returned as an error,
// and an empty `configFile` just means "run with every SimConfig default" —
// a legitimate, common mode for `cmd/simcore` invoked with no config at all.
func Load(configFile string) (RunMetadata, simconfig.SimConfig, StoreConfig, error) {
	viper.SetEnvPrefix("ENV")
	replacer := strings.NewReplacer(".", "_")
	viper.SetEnvKeyReplacer(replacer)
	viper.AutomaticEnv()

	environment := "unknown"
	if configFile != "" {
		viper.SetConfigName(configFile)
		viper.AddConfigPath(".")
		viper.AddConfigPath("data/config")

		if err := viper.ReadInConfig(); err != nil {
			return RunMetadata{}, simconfig.SimConfig{}, StoreConfig{}, fmt.Errorf("config: could not parse %q: %w", configFile, err)
		}
		environment = configFile
	}

	meta := RunMetadata{
		InstanceID:  uuid.New().String(),
		Environment: environment,
	}

	cfg := simconfig.Default()
	if viper.IsSet("Sim") {
		if err := viper.UnmarshalKey("Sim", &cfg); err != nil {
			return RunMetadata{}, simconfig.SimConfig{}, StoreConfig{}, fmt.Errorf("config: could not unmarshal Sim section: %w", err)
		}
	}

	store := StoreConfig{AutosaveInterval: duration.NewDuration(5 * time.Minute)}
	if viper.IsSet("Store.AutosaveInterval") {
		parsed, err := time.ParseDuration(viper.GetString("Store.AutosaveInterval"))
		if err != nil {
			return RunMetadata{}, simconfig.SimConfig{}, StoreConfig{}, fmt.Errorf("config: invalid Store.AutosaveInterval: %w", err)
		}
		store.AutosaveInterval = duration.NewDuration(parsed)
	}

	return meta, cfg, store, nil
}
