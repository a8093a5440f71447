package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jrsteele09/go-sqlite-browser/internal/errors"
)

const (
	portEnvVar     = "PORT"
	appNameVar     = "APP_NAME"
	folderEnvVar   = "FOLDER"
	envEnvVar      = "ENV"
	logLevelVar    = "LOG_LEVEL"
	metricsAddrVar = "METRICS_ADDR"
)

type EnvVars struct {
	Port        string
	AppName     string
	DataFolder  string
	Env         string
	LogLevel    string
	MetricsAddr string // empty disables the metrics listener
}

func loadEnvVars() (EnvVars, error) {
	port := GetEnv(portEnvVar, "8000")
	if _, err := strconv.Atoi(strings.TrimPrefix(port, ":")); err != nil {
		return EnvVars{}, fmt.Errorf("%w: %s=%q is not a port number", errors.ErrInvalidConfig, portEnvVar, port)
	}
	return EnvVars{
		Port:        port,
		AppName:     GetEnv(appNameVar, "SQLite Browser"),
		DataFolder:  GetEnv(folderEnvVar, "."),
		Env:         strings.ToUpper(GetEnv(envEnvVar, "DEV")),
		LogLevel:    strings.ToLower(GetEnv(logLevelVar, "info")),
		MetricsAddr: GetEnv(metricsAddrVar, ""),
	}, nil
}

// GetPort returns the listen address in ":port" form
func (e EnvVars) GetPort() string {
	if strings.HasPrefix(e.Port, ":") {
		return e.Port
	}
	return ":" + e.Port
}

func (e EnvVars) GetAppName() string {
	return e.AppName
}

func (e EnvVars) GetDataFolder() string {
	return e.DataFolder
}

func (e EnvVars) GetEnv() string {
	return e.Env
}

func (e EnvVars) IsDev() bool {
	return e.Env == "DEV"
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvDuration(envVar string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q: %v", errors.ErrInvalidConfig, envVar, value, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: %s must be positive", errors.ErrInvalidConfig, envVar)
	}
	return d, nil
}

func getEnvInt(envVar string, defaultValue int) (int, error) {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue, nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q: %v", errors.ErrInvalidConfig, envVar, value, err)
	}
	return i, nil
}

func getEnvFloat(envVar string, defaultValue float64) (float64, error) {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q: %v", errors.ErrInvalidConfig, envVar, value, err)
	}
	return f, nil
}
