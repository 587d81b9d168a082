package storage

import (
	"fmt"
	"log"

	"github.com/snapbin/snapbin/config"
)

// NewStore creates a storage backend based on the configuration.
func NewStore(cfg *config.Config) (PasteStore, error) {
	switch cfg.Backend {
	case "redis":
		log.Printf("Using Redis storage at %s", cfg.RedisURL)
		return NewRedisStore(cfg.RedisURL)

	case "mongodb":
		log.Printf("Using MongoDB storage at %s (db %s)", cfg.MongoURL, cfg.MongoDB)
		return NewMongoStore(cfg.MongoURL, cfg.MongoDB)

	case "dynamodb":
		log.Printf("Using DynamoDB storage (table %s, region %s)", cfg.DynamoTable, cfg.AWSRegion)
		return NewDynamoStore(cfg.DynamoTable, cfg.AWSRegion)

	case "memory":
		log.Printf("Using in-memory storage (data is lost on restart)")
		return NewMemoryStore(), nil

	default:
		return nil, fmt.Errorf("unsupported backend: %s (supported: redis, mongodb, dynamodb, memory)", cfg.Backend)
	}
}
