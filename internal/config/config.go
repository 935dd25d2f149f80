package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel          string      `yaml:"log-level" env-default:"info"`
	HTTPPort          string      `yaml:"http-port" env-default:"9090"`
	SocketPort        string      `yaml:"socket-port" env-default:"8080"`
	Redis             Redis       `yaml:"redis"`
	Game              Game        `yaml:"game"`
	GoogleOAuth       GoogleOAuth `yaml:"google-oauth"`
	SQLiteStoragePath string      `yaml:"sqlite-storage-path" env-default:"arcade.db"`
	JWTSecretKey      string      `yaml:"jwt-secret-key"`
	SessionSecretKey  string      `yaml:"session-secret-key"`
}

type Redis struct {
	Host string `yaml:"host" env-default:"localhost"`
	Port string `yaml:"port" env-default:"6379"`
}

// Game holds the per-room timing policy.
type Game struct {
	TurnSeconds     int `yaml:"turn-seconds" env-default:"10"`
	GraceSeconds    int `yaml:"grace-seconds" env-default:"60"`
	AnnounceSeconds int `yaml:"announce-seconds" env-default:"3"`
	IdleSeconds     int `yaml:"idle-seconds" env-default:"120"`
}

type GoogleOAuth struct {
	ClientID     string   `yaml:"client-id" env-default:""`
	ClientSecret string   `yaml:"client-secret" env-default:""`
	RedirectURL  string   `yaml:"redirect-url" env-default:""`
	Scopes       []string `yaml:"scopes" env-default:""`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}

func (that *Game) TurnDuration() time.Duration {
	return time.Duration(that.TurnSeconds) * time.Second
}

func (that *Game) GraceDuration() time.Duration {
	return time.Duration(that.GraceSeconds) * time.Second
}

func (that *Game) AnnounceDuration() time.Duration {
	return time.Duration(that.AnnounceSeconds) * time.Second
}

func (that *Game) IdleDuration() time.Duration {
	return time.Duration(that.IdleSeconds) * time.Second
}
