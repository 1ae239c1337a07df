package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr            string
	JWTSigningKey   string
	OwnerSecretHash string
	OwnerAccount    string
	EscrowAccount   string
	InitialFee      uint64
	RewardPolicy    string
	PaymentStrict   bool
	TopLevelOnly    bool
	PostgresDSN     string
	Redis           RedisConfig
	Kafka           KafkaConfig
	ShutdownTimeout time.Duration
}

// RedisConfig holds connection settings for the reward leaderboard cache.
// An empty URL disables redis entirely.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds settings for the event fan-out. Empty brokers disable it.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("NAMEGATE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	rewardPolicy := os.Getenv("NAMEGATE_REWARD_POLICY")
	if rewardPolicy == "" {
		rewardPolicy = "flat:10"
	}

	topic := os.Getenv("KAFKA_TOPIC")
	if topic == "" {
		topic = "namegate.events"
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		brokers = splitAndTrim(raw)
	}

	return Server{
		Addr:            addr,
		JWTSigningKey:   jwtSigningKey,
		OwnerSecretHash: os.Getenv("NAMEGATE_OWNER_SECRET_HASH"),
		OwnerAccount:    os.Getenv("NAMEGATE_OWNER_ACCOUNT"),
		EscrowAccount:   os.Getenv("NAMEGATE_ESCROW_ACCOUNT"),
		InitialFee:      envUint("NAMEGATE_INITIAL_FEE", 100),
		RewardPolicy:    rewardPolicy,
		PaymentStrict:   os.Getenv("NAMEGATE_PAYMENT_STRICT") == "true",
		TopLevelOnly:    os.Getenv("NAMEGATE_TOP_LEVEL_ONLY") == "true",
		PostgresDSN:     os.Getenv("POSTGRES_DSN"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     int(envUint("REDIS_POOL_SIZE", 10)),
			MinIdleConns: int(envUint("REDIS_MIN_IDLE_CONNS", 2)),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers: brokers,
			Topic:   topic,
		},
		ShutdownTimeout: 10 * time.Second,
	}
}

func envUint(key string, fallback uint64) uint64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return fallback
	}
	return v
}

func splitAndTrim(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
