package infra

import (
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/hera-erp/tilestats/internal/constant"
	"github.com/hera-erp/tilestats/internal/pkg/fiberstore"
)

// FiberStorage backs fiber middlewares that keep state, such as the limiter and idempotency keys.
func FiberStorage(client *redis.Client) fiber.Storage {
	return fiberstore.NewRedis(client, constant.FiberStoragePrefix)
}
