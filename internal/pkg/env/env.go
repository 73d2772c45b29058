package env

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/joho/godotenv"
)

var Env map[string]string

func GetEnv(key, def string) string {
	// First check our loaded Env map
	if val, ok := Env[key]; ok {
		return val
	}
	// Fallback to OS environment variables (for Docker/tests)
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// GetBool reads a "true"/"false" style flag.
func GetBool(key string, def bool) bool {
	v := strings.TrimSpace(GetEnv(key, ""))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Warnf("[Env] %s=%q is not a boolean, using %v", key, v, def)
		return def
	}
	return b
}

// GetInt reads an integer value.
func GetInt(key string, def int) int {
	v := strings.TrimSpace(GetEnv(key, ""))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		log.Warnf("[Env] %s=%q is not an integer, using %d", key, v, def)
		return def
	}
	return i
}

// GetDuration reads a Go duration string such as "5m" or "30s".
func GetDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(GetEnv(key, ""))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Warnf("[Env] %s=%q is not a duration, using %s", key, v, def)
		return def
	}
	return d
}

func SetupEnvFile() {
	// Look for .env file in project root
	envFiles := []string{
		".env",          // Current directory
		"../../.env",    // From cmd/onlyone to project root
		"../../../.env", // Fallback for deeper nesting
	}

	var err error
	for _, envFile := range envFiles {
		Env, err = godotenv.Read(envFile)
		if err == nil {
			return
		}
	}

	// Containers inject configuration through the process environment.
	Env = map[string]string{}
	log.Warn("[Env] No .env file found, using process environment only")
}

func IsDev() bool {
	return GetEnv("APP_ENV", "prod") == "dev"
}
