package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"bitebuddy-be/internal/gesture"
	"bitebuddy-be/internal/order"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	AppPort    string
	AppEnv     string
	JWTSecret  string
	NATSURL    string

	CORSOrigins []string

	OTPLength      int
	OTPTTL         time.Duration
	OTPMaxAttempts int

	// Last status (inclusive) at which a customer may still cancel.
	CancelCustomerUntil string

	GestureHold         time.Duration
	GestureTaps         int
	GestureArmedTimeout time.Duration
	AdminLoginPath      string

	// First admin, created at startup when AdminEmail is set.
	AdminEmail    string
	AdminPassword string
	AdminName     string
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBPort:     os.Getenv("DB_PORT"),
		AppPort:    envOr("APP_PORT", "8080"),
		AppEnv:     os.Getenv("APP_ENV"),
		JWTSecret:  os.Getenv("JWT_SECRET"),
		NATSURL:    os.Getenv("NATS_URL"),

		CORSOrigins: envList("CORS_ORIGINS"),

		OTPLength:      envInt("OTP_LENGTH", 6),
		OTPTTL:         time.Duration(envInt("OTP_TTL_MINUTES", 10)) * time.Minute,
		OTPMaxAttempts: envInt("OTP_MAX_ATTEMPTS", 3),

		CancelCustomerUntil: envOr("CANCEL_CUSTOMER_UNTIL", "placed"),

		GestureHold:         time.Duration(envInt("GESTURE_HOLD_MS", 15000)) * time.Millisecond,
		GestureTaps:         envInt("GESTURE_TAPS", 5),
		GestureArmedTimeout: time.Duration(envInt("GESTURE_ARMED_TIMEOUT_MS", 0)) * time.Millisecond,
		AdminLoginPath:      envOr("ADMIN_LOGIN_PATH", "/admin-login"),

		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		AdminName:     envOr("ADMIN_NAME", "Administrator"),
	}

	if cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	return cfg
}

func (c *Config) OTPPolicy() order.OTPPolicy {
	return order.OTPPolicy{
		Length:      c.OTPLength,
		TTL:         c.OTPTTL,
		MaxAttempts: c.OTPMaxAttempts,
	}
}

// CustomerCancelUntil falls back to placed when the setting is not a
// cancellable status.
func (c *Config) CustomerCancelUntil() order.Status {
	s := order.Status(c.CancelCustomerUntil)
	if !s.Valid() || s.Terminal() {
		log.Printf("config: invalid CANCEL_CUSTOMER_UNTIL=%q, using %q", c.CancelCustomerUntil, order.StatusPlaced)
		return order.StatusPlaced
	}
	return s
}

func (c *Config) GestureConfig() gesture.Config {
	g := gesture.DefaultConfig()
	g.HoldDuration = c.GestureHold
	g.TapThreshold = c.GestureTaps
	g.ArmedTimeout = c.GestureArmedTimeout
	g.PrivilegedPath = c.AdminLoginPath
	return g
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envList splits a comma-separated value, dropping blanks.
func envList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// envInt reads a non-negative integer, falling back to def when unset or malformed.
func envInt(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		log.Printf("config: invalid %s=%q, using default %d", key, raw, def)
		return def
	}
	return n
}
