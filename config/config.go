package config

import (
	"flag"
	"os"
	"strconv"
)

// Config holds all configuration for the snapbin service
type Config struct {
	Port        int    `json:"port"`
	Backend     string `json:"backend"`
	RedisURL    string `json:"redis_url"`
	MongoURL    string `json:"mongo_url"`
	MongoDB     string `json:"mongo_db"`
	DynamoTable string `json:"dynamo_table"`
	AWSRegion   string `json:"aws_region"`
	ClientURL   string `json:"client_url"`
	TestMode    bool   `json:"test_mode"`
	Version     string `json:"version"`
	BuildTime   string `json:"build_time"`
	CommitHash  string `json:"commit_hash"`
}

// LoadConfig loads configuration from environment variables and CLI flags.
// Environment variables win over flags, matching container deployments where
// flags come from the image and env from the orchestrator.
func LoadConfig() *Config {
	config := &Config{
		Port:        5000,
		Backend:     "redis",
		RedisURL:    "redis://localhost:6379",
		MongoURL:    "mongodb://localhost:27017",
		MongoDB:     "snapbin",
		DynamoTable: "snapbin-pastes",
		AWSRegion:   "us-east-1",
		ClientURL:   "",
		TestMode:    false,
	}

	// Parse CLI flags
	flag.IntVar(&config.Port, "port", config.Port, "Port to listen on")
	flag.StringVar(&config.Backend, "backend", config.Backend, "Storage backend: redis, mongodb, dynamodb, memory")
	flag.StringVar(&config.RedisURL, "redis-url", config.RedisURL, "Redis connection URL")
	flag.StringVar(&config.MongoURL, "mongo-url", config.MongoURL, "MongoDB connection URL")
	flag.StringVar(&config.MongoDB, "mongo-db", config.MongoDB, "MongoDB database name")
	flag.StringVar(&config.DynamoTable, "dynamo-table", config.DynamoTable, "DynamoDB table name")
	flag.StringVar(&config.AWSRegion, "aws-region", config.AWSRegion, "AWS region for DynamoDB")
	flag.StringVar(&config.ClientURL, "client-url", config.ClientURL, "Allowed browser origin for CORS (empty allows none)")
	flag.BoolVar(&config.TestMode, "test-mode", config.TestMode, "Honor the X-Test-Now-Ms clock override header")
	flag.Parse()

	ApplyEnv(config)

	return config
}

// ApplyEnv overrides config fields from SNAPBIN_* environment variables.
func ApplyEnv(config *Config) {
	if val := os.Getenv("SNAPBIN_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			config.Port = port
		}
	}
	if val := os.Getenv("SNAPBIN_BACKEND"); val != "" {
		config.Backend = val
	}
	if val := os.Getenv("SNAPBIN_REDIS_URL"); val != "" {
		config.RedisURL = val
	}
	if val := os.Getenv("SNAPBIN_MONGO_URL"); val != "" {
		config.MongoURL = val
	}
	if val := os.Getenv("SNAPBIN_MONGO_DB"); val != "" {
		config.MongoDB = val
	}
	if val := os.Getenv("SNAPBIN_DYNAMO_TABLE"); val != "" {
		config.DynamoTable = val
	}
	if val := os.Getenv("SNAPBIN_AWS_REGION"); val != "" {
		config.AWSRegion = val
	}
	if val := os.Getenv("SNAPBIN_CLIENT_URL"); val != "" {
		config.ClientURL = val
	}
	if val := os.Getenv("SNAPBIN_TEST_MODE"); val != "" {
		config.TestMode = val == "1" || val == "true"
	}
}
