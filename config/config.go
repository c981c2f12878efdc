package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Database struct {
		Host     string `mapstructure:"host"`
		Port     string `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
	} `mapstructure:"database"`
	Redis struct {
		Host     string `mapstructure:"host"`
		Port     string `mapstructure:"port"`
		Password string `mapstructure:"password"`
	} `mapstructure:"redis"`
	Server struct {
		Port string `mapstructure:"port"`
	} `mapstructure:"server"`
	JWT struct {
		SecretKey        string        `mapstructure:"secret_key"`
		AccessTokenTTL   time.Duration `mapstructure:"access_token_ttl"`
		RefreshSecretKey string        `mapstructure:"refresh_secret_key"`
		RefreshTokenTTL  time.Duration `mapstructure:"refresh_token_ttl"`
	} `mapstructure:"jwt"`
	SMTP struct {
		Host     string `mapstructure:"host"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		From     string `mapstructure:"from"`
		FromName string `mapstructure:"from_name"`
		Disabled bool   `mapstructure:"disabled"`
	} `mapstructure:"smtp"`
	ClientURL string `mapstructure:"client_url"`
}

var AppConfig Config

func LoadConfig(path string) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yml")

	viper.SetDefault("jwt.access_token_ttl", 15*time.Minute)
	viper.SetDefault("jwt.refresh_token_ttl", 7*24*time.Hour)

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("Error reading config file, %s", err)
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}

	// A deployment that only sets jwt.secret_key still ends up with distinct
	// signing keys for the two token types.
	if AppConfig.JWT.RefreshSecretKey == "" {
		AppConfig.JWT.RefreshSecretKey = AppConfig.JWT.SecretKey + "_refresh"
	}
}
