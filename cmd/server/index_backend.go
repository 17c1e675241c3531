package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"heist.gg/internal/persistence/indexdb"
	"heist.gg/internal/sim/maps"
	"heist.gg/internal/sim/tuning"
	"heist.gg/internal/sim/world"
)

type runtimeIndex interface {
	world.EventLogger
	world.RoundLogger
	Close() error
	UpsertConfig(tune tuning.Tuning, reg *maps.Registry) error
	Stats() indexdb.Stats
}

func indexPath(dataDir string) string {
	return filepath.Join(dataDir, "index", "heist.sqlite")
}

func openRuntimeIndex(dataDir string, disableDB bool) (runtimeIndex, error) {
	if disableDB {
		return nil, nil
	}

	backend := strings.ToLower(strings.TrimSpace(os.Getenv("HEIST_INDEX_BACKEND")))
	if backend == "" {
		backend = "sqlite"
	}

	switch backend {
	case "none", "off", "disabled":
		return nil, nil
	case "sqlite":
		return indexdb.OpenSQLite(indexPath(dataDir))
	default:
		return nil, fmt.Errorf("unsupported HEIST_INDEX_BACKEND: %s", backend)
	}
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func defaultEnableAdminHTTP() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DEPLOY_ENV"))) {
	case "staging", "production":
		return false
	default:
		return true
	}
}
