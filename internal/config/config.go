package config

import (
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DBURL              string `mapstructure:"DB_URL"`
	RedisAddr          string `mapstructure:"REDIS_ADDR"`
	MQTTBroker         string `mapstructure:"MQTT_BROKER"`
	MQTTClientID       string `mapstructure:"MQTT_CLIENT_ID"`
	SensorTopic        string `mapstructure:"SENSOR_TOPIC"`
	StatusTopic        string `mapstructure:"STATUS_TOPIC"`
	CommandTopicPrefix string `mapstructure:"COMMAND_TOPIC_PREFIX"`
	NotifyChannel      string `mapstructure:"NOTIFY_CHANNEL"`
	HTTPAddr           string `mapstructure:"HTTP_ADDR"`
	LogLevel           string `mapstructure:"LOG_LEVEL"`
	SchedulerInterval  int    `mapstructure:"SCHEDULER_INTERVAL_SECONDS"`
	PublishMaxRetries  int    `mapstructure:"PUBLISH_MAX_RETRIES"`
}

// LoadConfig reads configuration from .env or environment variables.
func LoadConfig() (*Config, error) {
	// Missing .env is fine, plain env vars still apply.
	_ = godotenv.Load()

	viper.AutomaticEnv()

	viper.SetDefault("MQTT_CLIENT_ID", "homeauto-engine")
	viper.SetDefault("SENSOR_TOPIC", "home/sensors")
	viper.SetDefault("STATUS_TOPIC", "home/status")
	viper.SetDefault("COMMAND_TOPIC_PREFIX", "cmd/")
	viper.SetDefault("NOTIFY_CHANNEL", "automation:events")
	viper.SetDefault("HTTP_ADDR", ":5069")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("SCHEDULER_INTERVAL_SECONDS", 30)
	viper.SetDefault("PUBLISH_MAX_RETRIES", 3)

	cfg := &Config{
		DBURL:              viper.GetString("DB_URL"),
		RedisAddr:          viper.GetString("REDIS_ADDR"),
		MQTTBroker:         viper.GetString("MQTT_BROKER"),
		MQTTClientID:       viper.GetString("MQTT_CLIENT_ID"),
		SensorTopic:        viper.GetString("SENSOR_TOPIC"),
		StatusTopic:        viper.GetString("STATUS_TOPIC"),
		CommandTopicPrefix: viper.GetString("COMMAND_TOPIC_PREFIX"),
		NotifyChannel:      viper.GetString("NOTIFY_CHANNEL"),
		HTTPAddr:           viper.GetString("HTTP_ADDR"),
		LogLevel:           viper.GetString("LOG_LEVEL"),
		SchedulerInterval:  viper.GetInt("SCHEDULER_INTERVAL_SECONDS"),
		PublishMaxRetries:  viper.GetInt("PUBLISH_MAX_RETRIES"),
	}
	return cfg, nil
}
