package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables
	S3BucketName   string

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiryDays     int
	RefreshTokenDays  int

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	// Verification and lifecycle policies. Policy knobs, not algorithm
	// parameters, so they stay tunable per deployment.
	OtpTTL             time.Duration // how long an issued code stays valid
	GateWindow         time.Duration // rolling validity of a verified session
	DuplicateWindow    time.Duration // lookback for duplicate submissions
	TrackingPrefix     string        // e.g. "BNHS" -> BNHS-XXXXXXXX
	TrackingMaxRetries int

	RetentionSchedule string // cron expression for the pruner
	OtpRetentionDays  int    // prune consumed/expired OTP rows after this
	LogRetentionDays  int    // prune audit and email logs after this

	AllowedOrigins []string
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Otps                 string
	DocumentRequests     string
	RequestLogs          string
	AuditLogs            string
	EmailLogs            string
	VerificationSessions string
	DocumentTypes        string
	Users                string
	Sessions             string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Otps:                 getEnv("DYNAMO_TABLE_OTPS", "otps"),
			DocumentRequests:     getEnv("DYNAMO_TABLE_DOCUMENT_REQUESTS", "document_requests"),
			RequestLogs:          getEnv("DYNAMO_TABLE_REQUEST_LOGS", "request_logs"),
			AuditLogs:            getEnv("DYNAMO_TABLE_AUDIT_LOGS", "audit_logs"),
			EmailLogs:            getEnv("DYNAMO_TABLE_EMAIL_LOGS", "email_logs"),
			VerificationSessions: getEnv("DYNAMO_TABLE_VERIFICATION_SESSIONS", "verification_sessions"),
			DocumentTypes:        getEnv("DYNAMO_TABLE_DOCUMENT_TYPES", "document_types"),
			Users:                getEnv("DYNAMO_TABLE_USERS", "users"),
			Sessions:             getEnv("DYNAMO_TABLE_SESSIONS", "sessions"),
		},
		S3BucketName: getEnv("S3_BUCKET_NAME", "registrar-portal-uploads"),

		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiryDays:     getEnvInt("JWT_EXPIRY_DAYS", 7),
		RefreshTokenDays:  getEnvInt("REFRESH_TOKEN_EXPIRY_DAYS", 30),

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPFrom:     getEnv("SMTP_FROM", "registrar@example.com"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		OtpTTL:             getEnvDuration("OTP_TTL", 10*time.Minute),
		GateWindow:         getEnvDuration("VERIFICATION_WINDOW", 30*time.Minute),
		DuplicateWindow:    getEnvDuration("DUPLICATE_WINDOW", 24*time.Hour),
		TrackingPrefix:     getEnv("TRACKING_PREFIX", "BNHS"),
		TrackingMaxRetries: getEnvInt("TRACKING_MAX_RETRIES", 100),

		RetentionSchedule: getEnv("RETENTION_SCHEDULE", "0 3 * * *"),
		OtpRetentionDays:  getEnvInt("OTP_RETENTION_DAYS", 30),
		LogRetentionDays:  getEnvInt("LOG_RETENTION_DAYS", 365),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
