package config

import (
	"time"

	"github.com/caarlos0/env/v9"
)

type Config struct {
	Port                   string `env:"PORT" envDefault:"8080"`
	DBDriver               string `env:"DB_DRIVER" envDefault:"mysql"`
	DBUser                 string `env:"DB_USER,required"`
	DBPassword             string `env:"DB_PASSWORD,required"`
	DBHost                 string `env:"DB_HOST,required"` // e.g. tcp(host:3306) or unix(/cloudsql/instance)
	DBName                 string `env:"DB_NAME,required"`
	DBPort                 string `env:"DB_PORT" envDefault:"3306"`
	InstanceConnectionName string `env:"INSTANCE_CONNECTION_NAME"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// AuthMode is "firebase" (verify ID tokens) or "header" (trust X-User-ID/X-User-Role set by the gateway).
	AuthMode                string `env:"AUTH_MODE" envDefault:"firebase"`
	FirebaseProjectID       string `env:"FIREBASE_PROJECT_ID"`
	FirebaseCredentialsFile string `env:"FIREBASE_CREDENTIALS_FILE"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	StoreTimezone       string        `env:"STORE_TIMEZONE" envDefault:"Asia/Tokyo"`
	PointsEarnRateBP    int64         `env:"POINTS_EARN_RATE_BP" envDefault:"200"`
	PointsExpiryDays    int           `env:"POINTS_EXPIRY_DAYS" envDefault:"365"`
	ClickDedupWindow    time.Duration `env:"CLICK_DEDUP_WINDOW" envDefault:"1h"`
	SchedulerEnabled    bool          `env:"SCHEDULER_ENABLED" envDefault:"true"`
	RankingInterval     time.Duration `env:"RANKING_INTERVAL" envDefault:"1h"`
	ExpiryInterval      time.Duration `env:"EXPIRY_INTERVAL" envDefault:"24h"`
	CORSAllowedSuffixes []string      `env:"CORS_ALLOWED_SUFFIXES" envSeparator:"," envDefault:"vercel.app"`
	SnowflakeNode       int64         `env:"SNOWFLAKE_NODE" envDefault:"1"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Location resolves StoreTimezone, falling back to UTC when the zone database lacks it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.StoreTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
