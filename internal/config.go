package internal

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"nextext/errors"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/samber/lo"
)

const (
	DriverBadger = "badger"
	DriverSQLite = "sqlite"
)

type Config struct {
	Host     string `env:"HOST,default=0.0.0.0"`
	Port     int    `env:"PORT,default=8000"`
	LogLevel string `env:"LOG_LEVEL,default=INFO"`

	StoreDriver    string `env:"STORE_DRIVER,default=badger"`
	BadgerFilepath string `env:"BADGER_FILEPATH,default=./data/badger"`
	SQLiteDSN      string `env:"SQLITE_DSN,default=./data/chat.db"`

	JWTSecret           string        `env:"JWT_SECRET,required=true"`
	AccessTokenDuration time.Duration `env:"ACCESS_TOKEN_DURATION,default=60m"`

	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=64"`
	DeliveryTimeout      time.Duration `env:"DELIVERY_TIMEOUT,default=2s"`
	PersistTimeout       time.Duration `env:"PERSIST_TIMEOUT,default=5s"`
	WriteTimeout         time.Duration `env:"WRITE_TIMEOUT,default=10s"`
	PongWait             time.Duration `env:"PONG_WAIT,default=60s"`
	PingPeriod           time.Duration `env:"PING_PERIOD,default=54s"`
	MaxFrameBytes        int64         `env:"MAX_FRAME_BYTES,default=65536"`
	MaxContentLength     int           `env:"MAX_CONTENT_LENGTH,default=4000"`
	FrontendOrigins      string        `env:"FRONTEND_ORIGINS,default=*"`

	CensoredWords   string `env:"CENSORED_WORDS"`
	CharReplacement string `env:"CHARACTER_REPLACEMENT,default=*"`

	MetricInterval  time.Duration `env:"METRIC_INTERVAL,default=30s"`
	RestartInterval time.Duration `env:"RESTART_INTERVAL,default=5s"`
	GrpcHealthPort  int           `env:"GRPC_HEALTH_PORT,default=0"`
	DebugStats      bool          `env:"DEBUG_STATS,default=false"`
}

// Load reads an optional .env file, then the process environment, then validates the result.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("%w: .env: %v", errors.ErrInvalidConfig, err)
	}
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return Config{}, fmt.Errorf("%w: %v", errors.ErrInvalidConfig, err)
	}
	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

// Validate checks the rules a single field tag cannot express.
func (c Config) Validate() error {
	if c.StoreDriver != DriverBadger && c.StoreDriver != DriverSQLite {
		return fmt.Errorf("%w: STORE_DRIVER must be %q or %q, got %q", errors.ErrInvalidConfig, DriverBadger, DriverSQLite, c.StoreDriver)
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("%w: JWT_SECRET must not be blank", errors.ErrInvalidConfig)
	}
	if c.ConnectionBufferSize < 1 {
		return fmt.Errorf("%w: CONNECTION_BUFFER_SIZE must be positive", errors.ErrInvalidConfig)
	}
	if c.PongWait > 0 && c.PingPeriod >= c.PongWait {
		return fmt.Errorf("%w: PING_PERIOD (%s) must be shorter than PONG_WAIT (%s)", errors.ErrInvalidConfig, c.PingPeriod, c.PongWait)
	}
	if _, err := CharacterRune(c.CharReplacement); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidConfig, err)
	}
	return nil
}

func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c Config) AllowedOrigins() []string {
	return splitList(c.FrontendOrigins)
}

func (c Config) CensoredWordList() []string {
	return splitList(c.CensoredWords)
}

func splitList(s string) []string {
	items := lo.Map(strings.Split(s, ","), func(item string, _ int) string {
		return strings.TrimSpace(item)
	})
	return lo.Compact(items)
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
