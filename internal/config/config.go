package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/piwi3910/CargoLoad/internal/model"
)

// EnvPrefix is prepended to every variable read by LoadConfig.
const EnvPrefix = "CARGOLOAD_"

// Storage backends accepted by Storage.Backend.
const (
	StorageLocal = "local"
	StorageS3    = "s3"
	StorageRedis = "redis"
)

// Config is the service configuration for the API server and the solve worker.
// Timeouts are in seconds. An empty DSN or host disables that collaborator.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Server      struct {
		Port            string `env:"PORT" envDefault:"8080"`
		ReadTimeout     int    `env:"READ_TIMEOUT" envDefault:"10"`
		WriteTimeout    int    `env:"WRITE_TIMEOUT" envDefault:"120"`
		IdleTimeout     int    `env:"IDLE_TIMEOUT" envDefault:"60"`
		ShutdownTimeout int    `env:"SHUTDOWN_TIMEOUT" envDefault:"10"`
		MaxBodyBytes    int64  `env:"MAX_BODY_BYTES" envDefault:"1048576"`
	} `envPrefix:"SERVER_"`
	Solver struct {
		PopulationSize int     `env:"POPULATION_SIZE" envDefault:"100"`
		TournamentSize int     `env:"TOURNAMENT_SIZE" envDefault:"2"`
		CrossoverRate  float64 `env:"CROSSOVER_RATE" envDefault:"0.8"`
		MutationRate   float64 `env:"MUTATION_RATE" envDefault:"0.05"`
		MaxGenerations int     `env:"MAX_GENERATIONS" envDefault:"200"`
		StopUnimproved int     `env:"STOP_UNIMPROVED" envDefault:"50"`
		MaxDuration    int     `env:"MAX_DURATION" envDefault:"60"`
		Improvement    string  `env:"IMPROVEMENT" envDefault:"none"`
		Workers        int     `env:"WORKERS" envDefault:"1"`
		Seed           int64   `env:"SEED" envDefault:"42"`
	} `envPrefix:"SOLVER_"`
	Database struct {
		DSN            string `env:"DSN"`
		ConnectTimeout int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		QueryTimeout   int    `env:"QUERY_TIMEOUT" envDefault:"10"`
		MaxOpenConns   int    `env:"MAX_OPEN_CONNS" envDefault:"10"`
		MaxIdleConns   int    `env:"MAX_IDLE_CONNS" envDefault:"10"`
		MaxIdleTime    int    `env:"MAX_IDLE_TIME" envDefault:"60"`
	} `envPrefix:"DATABASE_"`
	RabbitMQ struct {
		DSN            string `env:"DSN"`
		Queue          string `env:"QUEUE" envDefault:"cargoload_solve_jobs"`
		PublishTimeout int    `env:"PUBLISH_TIMEOUT" envDefault:"10"`
		Prefetch       int    `env:"PREFETCH" envDefault:"1"`
	} `envPrefix:"RABBITMQ_"`
	Redis struct {
		Host           string `env:"HOST"`
		Port           int    `env:"PORT" envDefault:"6379"`
		Password       string `env:"PASSWORD"`
		DB             int    `env:"DB" envDefault:"0"`
		ConnectTimeout int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		Expiration     int    `env:"EXPIRATION" envDefault:"0"`
	} `envPrefix:"REDIS_"`
	Storage struct {
		Backend string `env:"BACKEND" envDefault:"local"`
		Root    string `env:"ROOT" envDefault:"data"`
		Bucket  string `env:"BUCKET"`
		Region  string `env:"REGION" envDefault:"us-east-1"`
	} `envPrefix:"STORAGE_"`
	SMTP struct {
		Host        string `env:"HOST"`
		Port        int    `env:"PORT" envDefault:"465"`
		Username    string `env:"USERNAME"`
		Password    string `env:"PASSWORD"`
		From        string `env:"FROM" envDefault:"cargoload@localhost"`
		DialTimeout int    `env:"DIAL_TIMEOUT" envDefault:"10"`
	} `envPrefix:"SMTP_"`
	Auth struct {
		Secret string `env:"SECRET"`
	} `envPrefix:"AUTH_"`
	Telemetry struct {
		ServiceName string `env:"SERVICE_NAME" envDefault:"cargoload"`
		Endpoint    string `env:"ENDPOINT"`
	} `envPrefix:"TELEMETRY_"`
}

// LoadConfig reads the configuration from CARGOLOAD_* environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		aggErr := env.AggregateError{}
		if ok := errors.As(err, &aggErr); ok && len(aggErr.Errors) > 0 {
			// the first error keeps the log line readable
			return nil, aggErr.Errors[0]
		}
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that the environment parser cannot.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case StorageLocal:
	case StorageS3:
		if c.Storage.Bucket == "" {
			return errors.New("storage backend s3 requires CARGOLOAD_STORAGE_BUCKET")
		}
	case StorageRedis:
		if c.Redis.Host == "" {
			return errors.New("storage backend redis requires CARGOLOAD_REDIS_HOST")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if _, err := model.ParseGroupImprovement(c.Solver.Improvement); err != nil {
		return err
	}
	return nil
}

// SolveSettings builds the default run settings for API and worker solves.
func (c *Config) SolveSettings() model.SolveSettings {
	s := model.DefaultSettings()
	s.PopulationSize = c.Solver.PopulationSize
	s.TournamentSize = c.Solver.TournamentSize
	s.CrossoverRate = c.Solver.CrossoverRate
	s.MutationRate = c.Solver.MutationRate
	s.MaxGenerations = c.Solver.MaxGenerations
	s.StopUnimproved = c.Solver.StopUnimproved
	s.MaxDuration = Seconds(c.Solver.MaxDuration)
	s.Workers = c.Solver.Workers
	s.Seed = c.Solver.Seed
	// Validate already rejected unknown names.
	s.Improvement, _ = model.ParseGroupImprovement(c.Solver.Improvement)
	return s
}

// RedisAddr returns host:port, or "" when redis is not configured.
func (c *Config) RedisAddr() string {
	if c.Redis.Host == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// Seconds converts a configured number of seconds to a duration.
func Seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
