package bootstrap

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

const logPrefix = "bootstrap:loader"

// LoadBootstrapConfig loads bootstrap config from file paths or environment.
// It tries paths in order: first any paths passed in, then CLASSANALYSER_BOOTSTRAP_FILE env, then defaults.
// So an explicit path (e.g. from a CLI flag) is tried before the env var.
func LoadBootstrapConfig(paths ...string) (*BootstrapConfig, error) {
	all := make([]string, 0, len(paths)+3)
	for _, p := range paths {
		if p != "" {
			all = append(all, p)
		}
	}
	if envPath := os.Getenv("CLASSANALYSER_BOOTSTRAP_FILE"); envPath != "" {
		all = append(all, envPath)
	}
	all = append(all, "config/bootstrap.json", "bootstrap.json")
	paths = all

	for _, p := range paths {
		if p == "" {
			continue
		}

		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}

		var cfg BootstrapConfig
		if err := json.Unmarshal(data, &cfg); err != nil {
			slog.Warn(fmt.Sprintf("%s - Failed to parse bootstrap file %s: %v", logPrefix, p, err))
			continue
		}

		slog.Info(fmt.Sprintf("%s - Loaded bootstrap config from %s", logPrefix, p))
		return &cfg, nil
	}

	slog.Info(fmt.Sprintf("%s - Using default bootstrap config", logPrefix))
	return GetDefaultBootstrapConfig(), nil
}

// GetDefaultBootstrapConfig returns the embedded fallback bootstrap configuration.
func GetDefaultBootstrapConfig() *BootstrapConfig {
	return &BootstrapConfig{
		Name:          "classanalyser-bootstrap",
		Version:       "1.0.0",
		Description:   "Default library/locale/environment bootstrap configuration",
		DefaultLocale: "en",
		Locales:       []string{"en"},
		Libraries: []LibraryEntry{
			{Namespace: "qx", Path: "framework"},
		},
		Environment: []EnvironmentCheck{
			{Key: "qx.debug", Value: false},
			{Key: "qx.compiler.outputTarget", Value: "build"},
		},
	}
}

// CreateResolvedBootstrap builds a ResolvedBootstrap for fast lookups.
func CreateResolvedBootstrap(cfg *BootstrapConfig) *ResolvedBootstrap {
	libs := make([]LibraryEntry, len(cfg.Libraries))
	copy(libs, cfg.Libraries)

	byNS := make(map[string]*LibraryEntry, len(libs))
	for i := range libs {
		byNS[libs[i].Namespace] = &libs[i]
	}

	locales := make([]string, len(cfg.Locales))
	copy(locales, cfg.Locales)

	env := make(map[string]interface{}, len(cfg.Environment))
	for _, check := range cfg.Environment {
		env[check.Key] = check.Value
	}

	return &ResolvedBootstrap{
		name:          cfg.Name,
		version:       cfg.Version,
		libraries:     libs,
		byNamespace:   byNS,
		defaultLocale: cfg.DefaultLocale,
		locales:       locales,
		environment:   env,
	}
}

// MergeBootstrapConfigs merges an override config into a base config.
// Libraries and environment checks from override are appended after
// base's (a later entry for the same namespace/key wins when consumed
// through CreateResolvedBootstrap); locales are unioned.
func MergeBootstrapConfigs(base, override *BootstrapConfig) *BootstrapConfig {
	merged := *base

	merged.Libraries = append(append([]LibraryEntry{}, base.Libraries...), override.Libraries...)
	merged.Environment = append(append([]EnvironmentCheck{}, base.Environment...), override.Environment...)

	seen := make(map[string]struct{}, len(base.Locales))
	locales := append([]string{}, base.Locales...)
	for _, l := range base.Locales {
		seen[l] = struct{}{}
	}
	for _, l := range override.Locales {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		locales = append(locales, l)
	}
	merged.Locales = locales

	if override.DefaultLocale != "" {
		merged.DefaultLocale = override.DefaultLocale
	}

	return &merged
}
