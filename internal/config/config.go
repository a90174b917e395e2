package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DB       *DBconfig
	RabbitMq *RabbitMqconfig
	Srv      *Serviceconfig
	App      *Appconfig
	Log      *Loggerconfig
}

type DBconfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

type RabbitMqconfig struct {
	Host     string
	Port     int
	User     string
	Password string
	VHost    string
}

type Serviceconfig struct {
	SchedulingServicePort string
	TicketingServicePort  string
	MetricsAddr           string
}

type Appconfig struct {
	JwtSecret string

	// TurnaroundMinutes is the minimum buffer a bus or driver needs
	// between arrival and the next departure.
	TurnaroundMinutes int

	// SeatHoldTTLMinutes bounds the lifetime of an advisory seat hold.
	SeatHoldTTLMinutes int
}

type Loggerconfig struct {
	Level string
}

func New() (*Config, error) {
	// .env is optional, real deployments pass plain env vars
	_ = godotenv.Load()

	getEnv := func(key, def string) string {
		val := os.Getenv(key)
		if val == "" {
			return def
		}
		return val
	}

	getEnvInt := func(key string, def int) int {
		valStr := os.Getenv(key)
		if valStr == "" {
			return def
		}
		val, err := strconv.Atoi(valStr)
		if err != nil {
			fmt.Printf("invalid %s=%q, using default %d\n", key, valStr, def)
			return def
		}
		return val
	}

	cnf := &Config{
		DB: &DBconfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "busline_user"),
			Password: getEnv("DB_PASSWORD", "busline_pass"),
			Database: getEnv("DB_NAME", "busline_db"),
		},
		RabbitMq: &RabbitMqconfig{
			Host:     getEnv("RABBITMQ_HOST", "localhost"),
			Port:     getEnvInt("RABBITMQ_PORT", 5672),
			User:     getEnv("RABBITMQ_USER", "guest"),
			Password: getEnv("RABBITMQ_PASSWORD", "guest"),
			VHost:    getEnv("RABBITMQ_VHOST", ""),
		},
		Srv: &Serviceconfig{
			SchedulingServicePort: getEnv("SCHEDULING_SERVICE_PORT", "3000"),
			TicketingServicePort:  getEnv("TICKETING_SERVICE_PORT", "3001"),
			MetricsAddr:           getEnv("METRICS_ADDR", ":9091"),
		},
		App: &Appconfig{
			JwtSecret:          getEnv("JWT_SECRET", "secret"),
			TurnaroundMinutes:  getEnvInt("FREQUENCY_TURNAROUND_MINUTES", 30),
			SeatHoldTTLMinutes: getEnvInt("SEAT_HOLD_TTL_MINUTES", 5),
		},
		Log: &Loggerconfig{
			Level: getEnv("LOG_LEVEL", "INFO"),
		},
	}

	return cnf, nil
}
