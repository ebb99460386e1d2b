package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func LogMiddleware(skipPath ...string) fiber.Handler {
	return logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		Format:     "${time} | ${status} | ${latency} | ${method} | ${path} | Query: ${queryParams}\n",
		Next: func(c *fiber.Ctx) bool {
			// SSE 같은 장수명 스트림은 로그에서 제외
			for _, p := range skipPath {
				if c.Path() == p {
					return true
				}
			}
			return false
		},
	})
}
