package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI               string
	MongoDB                string
	RedisURL               string
	ServerPort             string
	JWTSecret              string
	AuthServiceURL         string
	NotificationServiceURL string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		return nil, err
	}

	return &Config{
		MongoURI:               os.Getenv("MONGO_URI"),
		MongoDB:                os.Getenv("MONGO_DB"),
		RedisURL:               os.Getenv("REDIS_URL"),
		ServerPort:             os.Getenv("SERVER_PORT"),
		JWTSecret:              os.Getenv("JWT_SECRET"),
		AuthServiceURL:         os.Getenv("AUTH_SERVICE_URL"),
		NotificationServiceURL: os.Getenv("NOTIFICATION_SERVICE_URL"),
	}, nil
}
