package cache

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	redisstorage "github.com/gofiber/storage/redis"
)

// NewLimiterStorage returns a fiber.Storage on the cache server for the rate
// limiter, in its own database so limiter keys never mix with cached data.
// The storage pings on creation and panics when the server is unreachable,
// so only call it after NewClient connected.
func NewLimiterStorage(cfg Config, database int) fiber.Storage {
	port, err := strconv.Atoi(cfg.Port)
	if err != nil {
		port = 6379
	}
	return redisstorage.New(redisstorage.Config{
		Host:     cfg.Host,
		Port:     port,
		Password: cfg.Password,
		Database: database,
		Reset:    false,
	})
}
