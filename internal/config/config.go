package config // package config loads application configuration from environment variables

import (
	"log" // log is used to report configuration errors and halt execution
	"os"  // os provides access to environment variables
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env       string // application environment (e.g. "dev", "prod")
	Port      string // HTTP port to listen on
	DBUser    string // database username
	DBPass    string // database password (optional)
	DBHost    string // database host address
	DBPort    string // database port number
	DBName    string // database name
	JWTSecret string // secret shared with the identity service that issues tokens

	Timezone *time.Location // zone used for check-in dates and times

	OwnershipURL string // remote ownership directory; empty means use the cinemas table
	S3Bucket     string // bucket for banner images; empty disables uploads
	S3PublicURL  string // optional CDN base in front of the bucket
	RabbitURL    string // AMQP url; empty disables event publishing
	EventLogPath string // file the event consumer appends to

	UploadMaxBytes int64 // maximum accepted banner image size
}

// Load reads a .env file when one is present, then builds Config from the
// environment.  Required variables are enforced by must() and missing
// values cause the program to exit with a fatal log message.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: .env not loaded: %v", err)
	}
	return Config{
		Env:       must("APP_ENV"),
		Port:      must("APP_PORT"),
		DBUser:    must("DB_USER"),
		DBPass:    os.Getenv("DB_PASS"), // empty allowed
		DBHost:    must("DB_HOST"),
		DBPort:    must("DB_PORT"),
		DBName:    must("DB_NAME"),
		JWTSecret: must("JWT_SECRET"),

		Timezone: mustLocation(getenv("APP_TIMEZONE", "Asia/Ho_Chi_Minh")),

		OwnershipURL: os.Getenv("OWNERSHIP_DIRECTORY_URL"),
		S3Bucket:     os.Getenv("S3_BUCKET"),
		S3PublicURL:  os.Getenv("S3_PUBLIC_BASE_URL"),
		RabbitURL:    os.Getenv("RABBITMQ_URL"),
		EventLogPath: getenv("EVENT_LOG_PATH", "logs/backoffice.log"),

		UploadMaxBytes: int64(envInt("UPLOAD_MAX_BYTES", 5<<20)),
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func mustLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Fatalf("invalid APP_TIMEZONE %q: %v", name, err)
	}
	return loc
}
