package main

import (
	"crypto/tls"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type config struct {
	MongoURI       string
	MongoDatabase  string
	JWTSecret      string
	TokenTTL       time.Duration
	ListenAddr     string
	StorageTimeout time.Duration
	CORSOrigins    []string
	Debug          bool

	RedisConn     string
	BoardCacheTTL time.Duration
	JoinLimit     int
	JoinWindow    time.Duration

	ActivityConn           string
	ActivityQueue          string
	ActivityWorkers        int
	ActivityBuffer         int
	ActivityHandoffTimeout time.Duration
}

// loadConfig reads the service configuration through getenv. An empty
// MONGODB_URI selects the in-memory store.
func loadConfig(getenv func(string) string) (config, error) {
	cfg := config{
		MongoURI:      getenv("MONGODB_URI"),
		MongoDatabase: orDefault(getenv("MONGODB_DATABASE"), "taskboard"),
		JWTSecret:     getenv("JWT_SECRET"),
		ListenAddr:    orDefault(getenv("LISTEN_ADDR"), ":8080"),
		RedisConn:     getenv("REDIS_CONNECTION_STRING"),
		ActivityConn:  getenv("ACTIVITY_QUEUE_CONNECTION_STRING"),
		ActivityQueue: getenv("ACTIVITY_QUEUE"),
	}
	if cfg.JWTSecret == "" {
		return cfg, errors.New("missing JWT_SECRET")
	}
	if (cfg.ActivityConn == "") != (cfg.ActivityQueue == "") {
		return cfg, errors.New("ACTIVITY_QUEUE_CONNECTION_STRING and ACTIVITY_QUEUE must be set together")
	}

	var err error
	if cfg.Debug, err = parseBool(getenv, "DEBUG", false); err != nil {
		return cfg, err
	}
	if cfg.TokenTTL, err = parseDuration(getenv, "TOKEN_TTL", 7*24*time.Hour); err != nil {
		return cfg, err
	}
	if cfg.StorageTimeout, err = parseDuration(getenv, "STORAGE_TIMEOUT", 5*time.Second); err != nil {
		return cfg, err
	}
	if cfg.BoardCacheTTL, err = parseDuration(getenv, "BOARD_CACHE_TTL", 5*time.Minute); err != nil {
		return cfg, err
	}
	if cfg.JoinWindow, err = parseDuration(getenv, "JOIN_RATE_WINDOW", time.Minute); err != nil {
		return cfg, err
	}
	if cfg.ActivityHandoffTimeout, err = parseDuration(getenv, "ACTIVITY_HANDOFF_TIMEOUT", 10*time.Millisecond); err != nil {
		return cfg, err
	}
	if cfg.JoinLimit, err = parsePositiveInt(getenv, "JOIN_RATE_LIMIT", 10); err != nil {
		return cfg, err
	}
	if cfg.ActivityWorkers, err = parsePositiveInt(getenv, "ACTIVITY_WORKERS", 4); err != nil {
		return cfg, err
	}
	if cfg.ActivityBuffer, err = parsePositiveInt(getenv, "ACTIVITY_BUFFER", 1024); err != nil {
		return cfg, err
	}

	cfg.CORSOrigins = []string{"*"}
	if v := getenv("CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = cfg.CORSOrigins[:0]
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, o)
			}
		}
	}
	return cfg, nil
}

// redisOptions accepts a redis:// URL or the Azure style
// "host:port,password=...,ssl=True" connection string.
func redisOptions(conn string) *redis.Options {
	opts, err := redis.ParseURL(conn)
	if err == nil {
		return opts
	}
	parts := strings.Split(conn, ",")
	opts = &redis.Options{Addr: parts[0]}
	for _, p := range parts[1:] {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(kv[0])) {
		case "password":
			opts.Password = kv[1]
		case "ssl":
			if strings.EqualFold(kv[1], "true") {
				opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
			}
		}
	}
	return opts
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func parseDuration(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return d, nil
}

func parsePositiveInt(getenv func(string) string, key string, def int) (int, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be greater than zero", key)
	}
	return n, nil
}

func parseBool(getenv func(string) string, key string, def bool) (bool, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %q", key, v)
	}
	return b, nil
}
