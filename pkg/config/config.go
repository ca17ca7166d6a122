package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port             string        `envconfig:"PORT" default:"8080"`
	AWSRegion        string        `envconfig:"AWS_REGION" default:"eu-west-1"`
	OrderTableName   string        `envconfig:"ORDER_TABLE_NAME" default:"orders"`
	DynamoDBEndpoint string        `envconfig:"DYNAMODB_ENDPOINT" default:""` // DynamoDB Local endpoint
	KafkaBrokers     string        `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	KafkaGroupID     string        `envconfig:"KAFKA_GROUP_ID" default:"orders-service"`
	RequestTimeout   time.Duration `envconfig:"REQUEST_TIMEOUT" default:"5s"`
	LogLevel         string        `envconfig:"LOG_LEVEL" default:"info"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
