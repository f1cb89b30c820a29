/*
Copyright 2025 SafeSend Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package config

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
	"sync/atomic"

	"github.com/kelseyhightower/envconfig"

	"github.com/sirupsen/logrus"
)

const (
	DEFAULT_PORT = "5001"

	// DefaultWebhookQueue is the asynq queue webhook deliveries land on.
	DefaultWebhookQueue = "webhook_queue"
)

var ConfigStore atomic.Value

type ServerConfig struct {
	SSL       bool   `json:"ssl" envconfig:"SAFESEND_SERVER_SSL"`
	Secure    bool   `json:"secure" envconfig:"SAFESEND_SERVER_SECURE"`
	SecretKey string `json:"secret_key" envconfig:"SAFESEND_SERVER_SECRET_KEY"`
	Domain    string `json:"domain" envconfig:"SAFESEND_SERVER_SSL_DOMAIN"`
	Email     string `json:"ssl_email" envconfig:"SAFESEND_SERVER_SSL_EMAIL"`
	Port      string `json:"port" envconfig:"SAFESEND_SERVER_PORT"`
}

type DataSourceConfig struct {
	Dns string `json:"dns" envconfig:"SAFESEND_DATA_SOURCE_DNS"`
}

type RedisConfig struct {
	Dns string `json:"dns" envconfig:"SAFESEND_REDIS_DNS"`
}

// AuthorityConfig seeds the singleton authority record on first boot. The
// owner is required; the fraud oracle may be set later through the API.
type AuthorityConfig struct {
	Owner       string `json:"owner" envconfig:"SAFESEND_AUTHORITY_OWNER"`
	FraudOracle string `json:"fraud_oracle" envconfig:"SAFESEND_AUTHORITY_FRAUD_ORACLE"`
}

// ChainConfig enables the optional on-chain PYUSD mirror. Empty private key
// leaves the mirror disabled and custody purely ledger-side.
type ChainConfig struct {
	RPCURL       string `json:"rpc_url" envconfig:"SAFESEND_CHAIN_RPC_URL"`
	PrivateKey   string `json:"private_key" envconfig:"SAFESEND_CHAIN_PRIVATE_KEY"`
	TokenAddress string `json:"token_address" envconfig:"SAFESEND_CHAIN_TOKEN_ADDRESS"`
}

type QueueConfig struct {
	WebhookQueue     string `json:"webhook_queue" envconfig:"SAFESEND_QUEUE_WEBHOOK_QUEUE"`
	NumberOfQueues   int    `json:"number_of_queues" envconfig:"SAFESEND_QUEUE_NUMBER_OF_QUEUES"`
	MaxRetryAttempts int    `json:"max_retry_attempts" envconfig:"SAFESEND_QUEUE_MAX_RETRY_ATTEMPTS"`
}

type RateLimitConfig struct {
	RequestsPerSecond  *float64 `json:"requests_per_second" envconfig:"SAFESEND_RATE_LIMIT_RPS"`
	Burst              *int     `json:"burst" envconfig:"SAFESEND_RATE_LIMIT_BURST"`
	CleanupIntervalSec *int     `json:"cleanup_interval_sec" envconfig:"SAFESEND_RATE_LIMIT_CLEANUP_INTERVAL_SEC"`
}

type SlackWebhook struct {
	WebhookUrl string `json:"webhook_url"`
}

type Notification struct {
	Slack   SlackWebhook `json:"slack"`
	Webhook struct {
		Url     string            `json:"url"`
		Headers map[string]string `json:"headers"`
	} `json:"webhook"`
}

type Configuration struct {
	ProjectName     string           `json:"project_name" envconfig:"SAFESEND_PROJECT_NAME"`
	EnableTelemetry bool             `json:"enable_telemetry" envconfig:"SAFESEND_ENABLE_TELEMETRY"`
	Server          ServerConfig     `json:"server"`
	DataSource      DataSourceConfig `json:"data_source"`
	Redis           RedisConfig      `json:"redis"`
	Authority       AuthorityConfig  `json:"authority"`
	Chain           ChainConfig      `json:"chain"`
	Queue           QueueConfig      `json:"queue"`
	Notification    Notification     `json:"notification"`
	RateLimit       RateLimitConfig  `json:"rate_limit"`
}

func loadConfigFromFile(file string) error {
	var cnf Configuration
	_, err := os.Stat(file)
	if err == nil {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		err = json.NewDecoder(f).Decode(&cnf)
		if err != nil {
			return err
		}

	} else if errors.Is(err, os.ErrNotExist) {
		log.Println("config json not passed, will use env variables")
	}

	// override config from environment variables
	err = envconfig.Process("safesend", &cnf)
	if err != nil {
		return err
	}

	err = cnf.validateAndAddDefaults()
	if err != nil {
		return err
	}

	ConfigStore.Store(&cnf)
	return err
}

func InitConfig(configFile string) error {
	logger()
	return loadConfigFromFile(configFile)
}

func Fetch() (*Configuration, error) {
	config := ConfigStore.Load()
	c, ok := config.(*Configuration)
	if !ok {
		return nil, errors.New("config not loaded from file. Create a json file called safesend.json with your config")
	}
	return c, nil
}

func (cnf *Configuration) validateAndAddDefaults() error {
	if cnf.ProjectName == "" {
		log.Println("Warning: Project name is empty. Setting a default name.")
		cnf.ProjectName = "SafeSend Server"
	}

	if cnf.DataSource.Dns == "" {
		log.Println("Error: Data source DNS is empty. It's a required field.")
		return errors.New("data source DNS is required")
	}

	if cnf.Redis.Dns == "" {
		log.Println("Error: Redis DNS is empty. It's a required field.")
		return errors.New("redis DNS is required")
	}

	if cnf.Authority.Owner == "" {
		log.Println("Error: Authority owner is empty. It's a required field.")
		return errors.New("authority owner address is required")
	}

	// Trim white spaces from fields
	cnf.ProjectName = strings.TrimSpace(cnf.ProjectName)
	cnf.Server.Port = strings.TrimSpace(cnf.Server.Port)
	cnf.DataSource.Dns = strings.TrimSpace(cnf.DataSource.Dns)
	cnf.Redis.Dns = strings.TrimSpace(cnf.Redis.Dns)
	cnf.Authority.Owner = strings.TrimSpace(cnf.Authority.Owner)
	cnf.Authority.FraudOracle = strings.TrimSpace(cnf.Authority.FraudOracle)

	// Set default value for Port if it's empty
	if cnf.Server.Port == "" {
		cnf.Server.Port = DEFAULT_PORT
		log.Printf("Warning: Port not specified in config. Setting default port: %s", DEFAULT_PORT)
	}

	if cnf.Queue.WebhookQueue == "" {
		cnf.Queue.WebhookQueue = DefaultWebhookQueue
	}
	if cnf.Queue.NumberOfQueues <= 0 {
		cnf.Queue.NumberOfQueues = 1
	}
	if cnf.Queue.MaxRetryAttempts <= 0 {
		cnf.Queue.MaxRetryAttempts = 5
	}

	// Rate limiting is disabled by default (when both RPS and Burst are nil)
	if cnf.RateLimit.RequestsPerSecond != nil && cnf.RateLimit.Burst == nil {
		defaultBurst := 2 * int(*cnf.RateLimit.RequestsPerSecond)
		cnf.RateLimit.Burst = &defaultBurst
		log.Printf("Warning: Rate limit burst not specified. Setting default value: %d", defaultBurst)
	}
	if cnf.RateLimit.RequestsPerSecond == nil && cnf.RateLimit.Burst != nil {
		defaultRPS := float64(*cnf.RateLimit.Burst) / 2
		cnf.RateLimit.RequestsPerSecond = &defaultRPS
		log.Printf("Warning: Rate limit RPS not specified. Setting default value: %.2f", defaultRPS)
	}
	if cnf.RateLimit.CleanupIntervalSec == nil {
		defaultCleanup := 10800 // 3 hours in seconds
		cnf.RateLimit.CleanupIntervalSec = &defaultCleanup
	}

	return nil
}

// MockConfig sets a mock configuration for testing purposes.
func MockConfig(mockConfig *Configuration) {
	ConfigStore.Store(mockConfig)
}

func logger() {
	logger := logrus.New()
	log.SetOutput(logger.Writer())
}
