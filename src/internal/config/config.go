package config

import (
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Configuration struct {
	Logs       LogsSettings     `mapstructure:"logs"`
	App        Application      `mapstructure:"app"`
	Database   Database         `mapstructure:"database"`
	Queue      QueueConfig      `mapstructure:"queue"`
	Redis      Redis            `mapstructure:"redis"`
	Security   SecuritySettings `mapstructure:"security"`
	Server     ServerSettings   `mapstructure:"server"`
	Attendance AttendanceConfig `mapstructure:"attendance"`
	Employee   EmployeeService  `mapstructure:"employee-service"`
	Cache      CacheConfig      `mapstructure:"cache"`
}

type LogsSettings struct {
	Level            string `mapstructure:"level"`
	Path             string `mapstructure:"log-path"`
	EnableJSONOutput bool   `mapstructure:"enable-json-output"`
}

type Application struct {
	Name     string `mapstructure:"name"`
	Timeout  int    `mapstructure:"timeout"`
	Version  string `mapstructure:"version"`
	HostLink string `mapstructure:"host-link"`
}

type Database struct {
	Url                  string `mapstructure:"url"`
	DbName               string `mapstructure:"dbname"`
	CredentialCollection string `mapstructure:"credential-collection"`
	SessionCollection    string `mapstructure:"session-collection"`
	Timeout              int    `mapstructure:"timeout"`
}

type AttendanceConfig struct {
	// ReportingOffsetHours is the fixed UTC offset used to compute calendar
	// day boundaries for history queries and daily stats.
	ReportingOffsetHours int `mapstructure:"reporting-offset-hours"`
	SweepIntervalMinutes int `mapstructure:"sweep-interval-minutes"`
	RecentSessionsLimit  int `mapstructure:"recent-sessions-limit"`
}

type EmployeeService struct {
	Url     string `mapstructure:"url"`
	Timeout int    `mapstructure:"timeout"`
}

type QueueConfig struct {
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
}

type RabbitMQConfig struct {
	Url          string `mapstructure:"url"`
	Exchange     string `mapstructure:"exchange"`
	ExchangeType string `mapstructure:"exchange-type"`
	RoutingKey   string `mapstructure:"routing-key"`
	Timeout      int    `mapstructure:"timeout"`
	Durable      bool   `mapstructure:"durable"`
	AutoDelete   bool   `mapstructure:"auto-delete"`
	Internal     bool   `mapstructure:"internal"`
	NoWait       bool   `mapstructure:"no-wait"`
}

type Redis struct {
	Url      string `mapstructure:"url"`
	Password string `mapstructure:"password"`
	Db       int    `mapstructure:"db"`
}

type SecuritySettings struct {
	JwtKey string `mapstructure:"jwt-key"`
}

type ServerSettings struct {
	Port         string `mapstructure:"port"`
	Mode         string `mapstructure:"mode"`
	ReadTimeout  int    `mapstructure:"read-timeout"`
	WriteTimeout int    `mapstructure:"write-timeout"`
	IdleTimeout  int    `mapstructure:"idle-timeout"`
}

type CacheConfig struct {
	EmployeeExpirationMinutes int    `mapstructure:"employee-expiration-minutes"`
	StatsKey                  string `mapstructure:"stats-key"`
	StatsExpirationMinutes    int    `mapstructure:"stats-expiration-minutes"`
}

func Load() *Configuration {
	cfg := read()
	logrus.Info("Configuration loaded")

	// Override with environment variables
	mongoUri := os.Getenv("MONGODB_URL")
	if mongoUri != "" {
		cfg.Database.Url = mongoUri
	}

	dbName := os.Getenv("DB_NAME")
	if dbName != "" {
		cfg.Database.DbName = dbName
	}

	redisUrl := os.Getenv("REDIS_URL")
	if redisUrl != "" {
		cfg.Redis.Url = redisUrl
	}

	redisDB := os.Getenv("REDIS_DB")
	if redisDB != "" {
		if db, err := strconv.Atoi(redisDB); err == nil {
			cfg.Redis.Db = db
		}
	}

	rabbitmqUrl := os.Getenv("RABBITMQ_URL")
	if rabbitmqUrl != "" {
		cfg.Queue.RabbitMQ.Url = rabbitmqUrl
	}

	jwtKey := os.Getenv("JWT_KEY")
	if jwtKey != "" {
		cfg.Security.JwtKey = jwtKey
	}

	employeeSvc := os.Getenv("EMPLOYEE_SVC_URL")
	if employeeSvc != "" {
		cfg.Employee.Url = employeeSvc
	}

	offset := os.Getenv("REPORTING_OFFSET_HOURS")
	if offset != "" {
		if hours, err := strconv.Atoi(offset); err == nil {
			cfg.Attendance.ReportingOffsetHours = hours
		}
	}

	return cfg
}

func read() *Configuration {
	viper.SetConfigFile("src/internal/config/cfg.yml")
	viper.AutomaticEnv()
	viper.SetConfigType("yml")

	var config Configuration

	err := viper.ReadInConfig()
	if err != nil {
		logrus.Panicf("Error reading config file, %s", err)
	}

	err = viper.Unmarshal(&config)
	if err != nil {
		logrus.Panicf("Error unmarshalling config file, %s", err)
	}

	return &config
}
