package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds shared runtime configuration for the generation service.
type Config struct {
	Env      string
	HTTPPort string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JobTTL             time.Duration
	PopTimeout         time.Duration
	WorkerErrorBackoff time.Duration

	MQTTBrokerURL   string
	MQTTUsername    string
	MQTTPassword    string
	MQTTTopicPrefix string
	MQTTSendTimeout time.Duration

	EventBusName string
	EventSource  string
	AWSRegion    string

	BackendURL     string
	WebhookTimeout time.Duration

	GeneratorURL     string
	GeneratorTimeout time.Duration

	ArtifactS3Bucket    string
	ArtifactS3Region    string
	ArtifactS3Endpoint  string
	ArtifactS3PathStyle bool
	ArtifactOutputDir   string

	MetadataEndpoint    string
	HealthURL           string
	MonitorInterval     time.Duration
	MonitorErrorBackoff time.Duration
	InstanceID          string
	InstanceType        string

	RateLimitCapacity int
	RateLimitRefill   float64

	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment variables with sane defaults for local development.
func Load() Config {
	return Config{
		Env:      getEnv("APP_ENV", "dev"),
		HTTPPort: getEnv("HTTP_PORT", "8000"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		JobTTL:             getEnvDuration("JOB_TTL", 24*time.Hour),
		PopTimeout:         getEnvDuration("POP_TIMEOUT", 5*time.Second),
		WorkerErrorBackoff: getEnvDuration("WORKER_ERROR_BACKOFF", time.Second),

		MQTTBrokerURL:   getEnv("MQTT_BROKER_URL", ""),
		MQTTUsername:    getEnv("MQTT_USERNAME", ""),
		MQTTPassword:    getEnv("MQTT_PASSWORD", ""),
		MQTTTopicPrefix: getEnv("MQTT_TOPIC_PREFIX", "fluxer"),
		MQTTSendTimeout: getEnvDuration("MQTT_SEND_TIMEOUT", 2*time.Second),

		EventBusName: getEnv("EVENTBRIDGE_BUS_NAME", ""),
		EventSource:  getEnv("EVENT_SOURCE", "fluxer.ai-service"),
		AWSRegion:    getEnv("AWS_REGION", "eu-west-1"),

		BackendURL:     getEnv("BACKEND_URL", ""),
		WebhookTimeout: getEnvDuration("WEBHOOK_TIMEOUT", time.Second),

		GeneratorURL:     getEnv("GENERATOR_URL", ""),
		GeneratorTimeout: getEnvDuration("GENERATOR_TIMEOUT", 10*time.Minute),

		ArtifactS3Bucket:    getEnv("ARTIFACT_S3_BUCKET", ""),
		ArtifactS3Region:    getEnv("ARTIFACT_S3_REGION", getEnv("AWS_REGION", "eu-west-1")),
		ArtifactS3Endpoint:  getEnv("ARTIFACT_S3_ENDPOINT", ""),
		ArtifactS3PathStyle: getEnvBool("ARTIFACT_S3_PATH_STYLE", false),
		ArtifactOutputDir:   getEnv("ARTIFACT_OUTPUT_DIR", "./output"),

		MetadataEndpoint:    getEnv("METADATA_ENDPOINT", "http://169.254.169.254/latest/meta-data"),
		HealthURL:           getEnv("HEALTH_URL", "http://localhost:8000/healthz"),
		MonitorInterval:     getEnvDuration("MONITOR_INTERVAL", 30*time.Second),
		MonitorErrorBackoff: getEnvDuration("MONITOR_ERROR_BACKOFF", time.Minute),
		InstanceID:          getEnv("EC2_INSTANCE_ID", "unknown"),
		InstanceType:        getEnv("EC2_INSTANCE_TYPE", "unknown"),

		RateLimitCapacity: getEnvInt("RATE_LIMIT_CAPACITY", 50),
		RateLimitRefill:   getEnvFloat("RATE_LIMIT_REFILL_PER_SEC", 20),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
