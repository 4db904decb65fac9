package config

import "fmt"

// upgrades[i] turns a version i+1 config into version i+2.
var upgrades = []func(*Config){
	addSyncAndLog,
}

// migrate brings cfg up to CurrentVersion in place.
func migrate(cfg *Config) error {
	switch {
	case cfg.Version < 1:
		return fmt.Errorf("%w: config version %d is invalid", ErrInvalid, cfg.Version)
	case cfg.Version > CurrentVersion:
		return fmt.Errorf("%w: config version %d is newer than supported version %d (upgrade protodo)",
			ErrInvalid, cfg.Version, CurrentVersion)
	}
	for cfg.Version < CurrentVersion {
		step := cfg.Version - 1
		if step >= len(upgrades) {
			return fmt.Errorf("%w: no migration path from version %d", ErrInvalid, cfg.Version)
		}
		upgrades[step](cfg)
		cfg.Version++
	}
	return nil
}

// addSyncAndLog fills the sections introduced in version 2. Version 1
// configs predate move rollback, so it is switched on explicitly.
func addSyncAndLog(cfg *Config) {
	if cfg.Sync.RollbackOnMoveFailure == nil {
		cfg.Sync.RollbackOnMoveFailure = boolPtr(true)
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}
