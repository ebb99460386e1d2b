package fiberhelpers

import (
	"runtime/debug"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"otter/utils/log"
)

func NewRecover() fiber.Handler {
	return recover.New(
		recover.Config{
			StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
				log.Errorf("panic recovered: %v\n%s", e, debug.Stack())
			},
			EnableStackTrace: true,
		},
	)
}
