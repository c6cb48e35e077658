package config

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v4"
)

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Redis    RedisConfig    `yaml:"redis"`
	LightHub LightHubConfig `yaml:"lighthub"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

type KafkaConfig struct {
	Host                        string `yaml:"host"`
	Port                        int    `yaml:"port"`
	OrderStatusChangedTopicName string `yaml:"order_status_changed_topic_name"`
}

type RedisConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type LightHubConfig struct {
	HTTPAddr           string `yaml:"http_addr"`
	KafkaConsumerGroup string `yaml:"kafka_consumer_group"`
	AdminAuthSecret    string `yaml:"admin_auth_secret"`

	CurrentOrderTTLSeconds int `yaml:"current_order_ttl_seconds"`

	// Public promo validation endpoint, per client address.
	PromoRateLimitPerMinute int `yaml:"promo_rate_limit_per_minute"`

	WorkerPollIntervalSeconds int `yaml:"worker_poll_interval_seconds"`
	WorkerBatchSize           int `yaml:"worker_batch_size"`
	WorkerConcurrency         int `yaml:"worker_concurrency"`
	WorkerLeaseSeconds        int `yaml:"worker_lease_seconds"`

	WorkerHTTPAddr string `yaml:"worker_http_addr"`

	// Automatic progression step delay. If not set: 5..10 seconds.
	ProgressStepMinSeconds int `yaml:"progress_step_min_seconds"`
	ProgressStepMaxSeconds int `yaml:"progress_step_max_seconds"`

	PaymentGatewayBaseURL string `yaml:"payment_gateway_base_url"`
	PaymentGatewayMode    string `yaml:"payment_gateway_mode"` // "opay" | "fake"
	PaymentGatewayAPIKey  string `yaml:"payment_gateway_api_key"`
	PaymentDeclineOver    int64  `yaml:"payment_decline_over"`
}

func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	return &config, nil
}
