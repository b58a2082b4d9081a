package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
)

type Config struct {
	DatabaseBusyTimeout       time.Duration
	DatabaseConnectRetryCount int
	DatabaseConnectRetryDelay time.Duration
	DatabaseDebug             bool
	DatabaseFilePath          string
	DatabaseMaxRetries        int
	EnrichmentTimeout         time.Duration
	Hostname                  string
	PrefetchQueueSize         int
	PrefetchWorkers           int
	ServerHost                string
	ServerPort                int
	TrashDir                  string
	WorkerProcesses           int
}

const environmentENV = "ENVIRONMENT"

func New() (*Config, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	cfg := &Config{
		DatabaseBusyTimeout:       5 * time.Second,
		DatabaseConnectRetryCount: 5,
		DatabaseConnectRetryDelay: 2 * time.Second,
		DatabaseMaxRetries:        5,
		EnrichmentTimeout:         30 * time.Second,
		Hostname:                  hostname,
		PrefetchQueueSize:         64,
		PrefetchWorkers:           3,
		ServerPort:                4400,
		// Scan runs are single-writer; one process goroutine keeps folder
		// processing sequential within a run.
		WorkerProcesses: 1,
	}

	switch os.Getenv(environmentENV) {
	case "development", "":
		loadDevelopmentConfig(cfg)
	case "test":
		loadTestConfig(cfg)
	case "production":
		loadProductionConfig(cfg)
	}

	if err := applyOverrides(cfg); err != nil {
		return nil, errors.WithStack(err)
	}

	return cfg, nil
}
