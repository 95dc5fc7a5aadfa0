package config

import (
	"strings"

	"github.com/caarlos0/env/v6"
	"github.com/google/uuid"
)

type Environment string

const (
	EnvLocal      Environment = "local"
	EnvDev        Environment = "dev"
	EnvStage      Environment = "stage"
	EnvProduction Environment = "production"
)

type ConfigBasicClient struct {
	Username string
	Password string
}

type Config struct {
	App struct {
		Version  string      `env:"APP_VERSION" envDefault:"local"`
		Env      Environment `env:"APP_ENV" envDefault:"local"`
		Timezone string      `env:"APP_TIMEZONE" envDefault:"America/Mexico_City"`
	}

	HTTP struct {
		Port string `env:"HTTP_SERVER_PORT" envDefault:"8080"`
		Host string `env:"HTTP_SERVER_HOST" envDefault:"localhost"`
	}

	Postgres struct {
		URL string `env:"POSTGRES_URL"`
	}

	Cache struct {
		Path    string `env:"CACHE_PATH" envDefault:"agenda-cache.db"`
		HotSize int    `env:"CACHE_HOT_SIZE" envDefault:"64"`
	}

	RabbitMQ struct {
		Enabled    bool   `env:"RABBITMQ_ENABLED"`
		URL        string `env:"RABBITMQ_URL"`
		Queue      string `env:"RABBITMQ_QUEUE" envDefault:"agenda.changes"`
		DebounceMs int    `env:"RABBITMQ_DEBOUNCE_MS" envDefault:"300"`
	}

	Grid struct {
		// Resize drags convert pixels to minutes at this rate before
		// snapping to the 15-minute boundary.
		PixelsPerMinute  int       `env:"GRID_PIXELS_PER_MINUTE" envDefault:"4"`
		DiagnosticRoomID uuid.UUID `env:"GRID_DIAGNOSTIC_ROOM_ID"`
		SurgeryRoomID    uuid.UUID `env:"GRID_SURGERY_ROOM_ID"`
	}

	Connectivity struct {
		Mode string `env:"CONNECTIVITY_MODE" envDefault:"online"`
	}

	Auth struct {
		BasicClientsString string `env:"AUTH_BASIC_CLIENTS" envDefault:"agenda:agenda"`
		BasicClients       []ConfigBasicClient
	}
}

func NewConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	cfg.App.Env = Environment(strings.ToLower(string(cfg.App.Env)))

	if cfg.Auth.BasicClients == nil {
		cfg.Auth.BasicClients = []ConfigBasicClient{}
	}
	clientPairs := strings.Split(cfg.Auth.BasicClientsString, ",")
	for _, pair := range clientPairs {
		parts := strings.Split(pair, ":")
		if len(parts) == 2 {
			cfg.Auth.BasicClients = append(cfg.Auth.BasicClients, ConfigBasicClient{
				Username: parts[0],
				Password: parts[1],
			})
		}
	}

	return cfg, nil
}

func (c *Config) IsLocal() bool {
	return c.App.Env == EnvLocal
}

func (c *Config) IsNotLocal() bool {
	return c.App.Env == EnvDev || c.App.Env == EnvStage || c.App.Env == EnvProduction
}
