package config

import (
	"errors"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type HTTPConfig struct {
	Address      string        `yaml:"address" env:"HTTP_ADDRESS" env-default:":3000"`
	Timeout      time.Duration `yaml:"timeout" env:"HTTP_TIMEOUT" env-default:"5s"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" env:"HTTP_MAX_BODY_BYTES" env-default:"1048576"`
}

type AuthConfig struct {
	Secret       string `yaml:"secret" env:"JWT_SECRET" env-required:"true"`
	Strict       bool   `yaml:"strict" env:"AUTH_STRICT" env-default:"false"`
	DefaultActor string `yaml:"default_actor" env:"DEFAULT_ACTOR" env-default:"anonymous"`
}

type StoreConfig struct {
	IDStrategy string `yaml:"id_strategy" env:"ID_STRATEGY" env-default:"monotonic"`
}

type Config struct {
	LogLevel string      `yaml:"log_level" env:"LOG_LEVEL" env-default:"INFO"`
	HTTP     HTTPConfig  `yaml:"http"`
	Auth     AuthConfig  `yaml:"auth"`
	Store    StoreConfig `yaml:"store"`
}

// Load reads configPath, falling back to the environment alone when the file
// does not exist. An empty path means environment only.
func Load(configPath string) (Config, error) {
	var cfg Config

	if configPath == "" {
		err := cleanenv.ReadEnv(&cfg)
		return cfg, err
	}

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		var pe *os.PathError
		if errors.As(err, &pe) {
			cfg = Config{}
			err := cleanenv.ReadEnv(&cfg)
			return cfg, err
		}
		return cfg, err
	}

	return cfg, nil
}

func MustLoad(configPath string) Config {
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config %q: %s", configPath, err)
	}
	return cfg
}
