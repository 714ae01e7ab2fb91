// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package config

import (
	"errors"
	"strings"
	"time"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/AccelByte/octanescore-matchmaker/pkg/constants"
)

type Config struct {
	MatchmakingTick   time.Duration `env:"MATCHMAKING_TICK"     envDefault:"30s"                    envDocs:"period of the matchmaking scan"`
	SweepInterval     time.Duration `env:"SWEEP_INTERVAL"       envDefault:"1m"                     envDocs:"period of the stale match sweep"`
	MatchStaleAfter   time.Duration `env:"MATCH_STALE_AFTER"    envDefault:"20m"                    envDocs:"a non-terminal match older than this is cancelled by the sweep"`
	SnapshotInterval  time.Duration `env:"SNAPSHOT_INTERVAL"    envDefault:"60m"                    envDocs:"period of the persistence snapshot"`
	MaxMatchesPerPool int           `env:"MAX_MATCHES_PER_POOL" envDefault:"1"                      envDocs:"matches formed per pool per tick (0 means as many as the pool allows)"`
	KFactor           float64       `env:"RATING_K_FACTOR"      envDefault:"32"                     envDocs:"Elo K-factor"`
	InitialMMR        int           `env:"INITIAL_MMR"          envDefault:"0"                      envDocs:"MMR of a newly linked player"`
	LeaderboardSize   int           `env:"LEADERBOARD_SIZE"     envDefault:"10"                     envDocs:"number of players returned by the leaderboard"`
	EventBufferSize   int           `env:"EVENT_BUFFER_SIZE"    envDefault:"256"                    envDocs:"capacity of the outbound event channel"`
	PersistEnabled    bool          `env:"PERSIST_ENABLED"      envDefault:"true"                   envDocs:"load and snapshot players and matches"`
	DBPath            string        `env:"DB_PATH"              envDefault:"octanescore.db"         envDocs:"sqlite database file"`
	HTTPAddr          string        `env:"HTTP_ADDR"            envDefault:":8080"                  envDocs:"listen address of the http api"`
	ZipkinEndpoint    string        `env:"ZIPKIN_ENDPOINT"      envDefault:""                       envDocs:"zipkin collector url (empty disables trace export)"`
	ServiceName       string        `env:"SERVICE_NAME"         envDefault:"octanescore-matchmaker" envDocs:"service name reported in traces"`
	LogLevel          string        `env:"LOG_LEVEL"            envDefault:"info"                   envDocs:"logrus level"`
	LogFormat         string        `env:"LOG_FORMAT"           envDefault:"text"                   envDocs:"text or json"`
}

// Default returns the configuration with every default applied and nothing read from the environment.
func Default() *Config {
	return &Config{
		MatchmakingTick:   constants.DefaultMatchmakingTick,
		SweepInterval:     constants.DefaultSweepInterval,
		MatchStaleAfter:   constants.DefaultMatchStaleAfter,
		SnapshotInterval:  constants.DefaultSnapshotInterval,
		MaxMatchesPerPool: 1,
		KFactor:           constants.DefaultKFactor,
		InitialMMR:        constants.DefaultInitialMMR,
		LeaderboardSize:   constants.DefaultLeaderboardSize,
		EventBufferSize:   constants.DefaultEventBufferSize,
		PersistEnabled:    true,
		DBPath:            "octanescore.db",
		HTTPAddr:          ":8080",
		ServiceName:       "octanescore-matchmaker",
		LogLevel:          "info",
		LogFormat:         "text",
	}
}

// Load reads an optional .env file, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.MatchmakingTick <= 0 {
		return errors.New("matchmaking tick must be positive")
	}
	if c.SweepInterval <= 0 {
		return errors.New("sweep interval must be positive")
	}
	if c.MatchStaleAfter <= 0 {
		return errors.New("match stale threshold must be positive")
	}
	if c.PersistEnabled && c.SnapshotInterval <= 0 {
		return errors.New("snapshot interval must be positive")
	}
	if c.KFactor <= 0 {
		return errors.New("rating k-factor must be positive")
	}
	if c.InitialMMR < 0 {
		return errors.New("initial mmr cannot be negative")
	}
	if c.MaxMatchesPerPool < 0 {
		return errors.New("max matches per pool cannot be negative")
	}
	if c.LeaderboardSize <= 0 {
		return errors.New("leaderboard size must be positive")
	}
	if c.EventBufferSize <= 0 {
		return errors.New("event buffer size must be positive")
	}
	return nil
}

// ConfigureLogger applies level and format to the logger.
func (c *Config) ConfigureLogger(logger *logrus.Logger) error {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return err
	}
	logger.SetLevel(level)

	if strings.EqualFold(c.LogFormat, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{PrettyPrint: false})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}
