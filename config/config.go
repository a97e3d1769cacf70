// Package config reads the settings of the gymkit command from the
// environment, optionally populated from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

const (
	ManifestVar    = "GYMKIT_MANIFEST"
	RedisAddrVar   = "GYMKIT_REDIS_ADDR"
	RedisPrefixVar = "GYMKIT_REDIS_PREFIX"
	ServerAddrVar  = "GYMKIT_ADDR"
	ResultsVar     = "GYMKIT_RESULTS"
)

type Config struct {
	// Manifest is a yaml file of extra environment registrations
	Manifest    string
	RedisAddr   string
	RedisPrefix string
	ServerAddr  string
	// Results is the folder receiving traces and plots
	Results string
}

func Default() *Config {
	return &Config{
		RedisAddr:   "127.0.0.1:6379",
		RedisPrefix: "gymkit",
		ServerAddr:  "localhost:8080",
		Results:     "results",
	}
}

// Load loads envFile into the process environment when it exists and reads
// the configuration from it. Variables already set take precedence over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error loading %s: %s", envFile, err)
		}
	}
	c := Default()
	for name, field := range map[string]*string{
		ManifestVar:    &c.Manifest,
		RedisAddrVar:   &c.RedisAddr,
		RedisPrefixVar: &c.RedisPrefix,
		ServerAddrVar:  &c.ServerAddr,
		ResultsVar:     &c.Results,
	} {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			*field = v
		}
	}
	return c, nil
}
