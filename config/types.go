package config

import "time"

type AppConfig struct {
	DBDriver    string         `yaml:"db_driver" env:"VIGIA_DB_DRIVER" env-default:"sqlite"`
	DBURL       string         `yaml:"db_url" env:"VIGIA_DB_URL"`
	DBPath      string         `yaml:"db_path" env:"VIGIA_DB_PATH" env-default:"data/vigia.db"`
	ListenAddr  string         `yaml:"listen_addr" env:"VIGIA_LISTEN_ADDR" env-default:"0.0.0.0:8080"`
	AppEnv      string         `yaml:"app_env" env:"VIGIA_APP_ENV"`
	Auth        AuthConfig     `yaml:"auth"`
	Users       UsersConfig    `yaml:"users"`
	HTTPTimeout time.Duration  `yaml:"http_timeout" env:"VIGIA_HTTP_TIMEOUT" env-default:"30s"`
	Shutdown    ShutdownConfig `yaml:"shutdown"`
}

type AuthConfig struct {
	TokenSecret string `yaml:"token_secret" env:"VIGIA_AUTH_TOKEN_SECRET"`
	TokenIssuer string `yaml:"token_issuer" env:"VIGIA_AUTH_TOKEN_ISSUER"`
}

type UsersConfig struct {
	ProviderURL    string `yaml:"provider_url" env:"VIGIA_USERS_PROVIDER_URL"`
	ProviderKey    string `yaml:"provider_key" env:"VIGIA_USERS_PROVIDER_KEY"`
	RequestTimeout int    `yaml:"request_timeout_sec" env:"VIGIA_USERS_REQUEST_TIMEOUT" env-default:"10"`
}

type ShutdownConfig struct {
	GraceSeconds int `yaml:"grace_seconds" env:"VIGIA_SHUTDOWN_GRACE_SECONDS" env-default:"15"`
}

func (c *AppConfig) ProviderTimeout() time.Duration {
	sec := 10
	if c != nil && c.Users.RequestTimeout > 0 {
		sec = c.Users.RequestTimeout
	}
	return time.Duration(sec) * time.Second
}
