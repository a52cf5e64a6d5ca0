package internal

import (
	"nextext/errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	req := require.New(t)
	// Given only the required secret
	t.Setenv("JWT_SECRET", "s3cret")

	// When the configuration is loaded
	config, err := Load()

	// Then every other field falls back to its default
	req.NoError(err)
	req.Equal(8000, config.Port)
	req.Equal(DriverBadger, config.StoreDriver)
	req.Equal(60*time.Minute, config.AccessTokenDuration)
	req.Equal(64, config.ConnectionBufferSize)
	req.Equal([]string{"*"}, config.AllowedOrigins())
	req.Empty(config.CensoredWordList())
	req.Equal("0.0.0.0:8000", config.Address())
}

func TestLoad_Requires_Secret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := Load()
	require.ErrorIs(t, err, errors.ErrInvalidConfig)
}

func TestLoad_Overrides(t *testing.T) {
	req := require.New(t)
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("DELIVERY_TIMEOUT", "250ms")
	t.Setenv("CENSORED_WORDS", "foo, bar,,")
	t.Setenv("FRONTEND_ORIGINS", "http://a.example,http://b.example")

	config, err := Load()

	req.NoError(err)
	req.Equal(DriverSQLite, config.StoreDriver)
	req.Equal(250*time.Millisecond, config.DeliveryTimeout)
	req.Equal([]string{"foo", "bar"}, config.CensoredWordList())
	req.Equal([]string{"http://a.example", "http://b.example"}, config.AllowedOrigins())
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{
		StoreDriver:          DriverBadger,
		JWTSecret:            "s3cret",
		ConnectionBufferSize: 1,
		PongWait:             time.Minute,
		PingPeriod:           30 * time.Second,
		CharReplacement:      "*",
	}
	require.NoError(t, valid.Validate())

	cases := map[string]func(c *Config){
		"unknown driver":       func(c *Config) { c.StoreDriver = "postgres" },
		"blank secret":         func(c *Config) { c.JWTSecret = "  " },
		"empty buffer":         func(c *Config) { c.ConnectionBufferSize = 0 },
		"ping after pong":      func(c *Config) { c.PingPeriod = 2 * time.Minute },
		"multi rune character": func(c *Config) { c.CharReplacement = "##" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			config := valid
			mutate(&config)
			require.ErrorIs(t, config.Validate(), errors.ErrInvalidConfig)
		})
	}
}

func TestCharacterRune(t *testing.T) {
	req := require.New(t)
	r, err := CharacterRune("€")
	req.NoError(err)
	req.Equal('€', r)

	_, err = CharacterRune("")
	req.Error(err)
}
