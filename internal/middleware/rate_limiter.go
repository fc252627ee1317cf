package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// ============================================================================
// RATE LIMITING MIDDLEWARE
// ============================================================================
// Protege el backend contra abuso. Niveles distintos según el costo del
// endpoint: la planificación llama a TomTom y Gemini y es cara.

// GlobalRateLimiter - Limitador general para todos los endpoints
// 1000 requests por minuto por IP
func GlobalRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        1000,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "Rate limit exceeded",
				"retry_after": 60,
				"message":     "Too many requests. Please try again in 1 minute.",
			})
		},
		SkipFailedRequests:     false,
		SkipSuccessfulRequests: false,
		LimiterMiddleware:      limiter.SlidingWindow{},
	})
}

// APIRateLimiter - Limitador para endpoints de API general
// 200 requests por minuto
func APIRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        200,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "API rate limit exceeded",
				"retry_after": 60,
				"limit":       200,
				"window":      "1 minute",
			})
		},
		LimiterMiddleware: limiter.SlidingWindow{},
	})
}

// PlanRateLimiter - Limitador del endpoint de planificación
// 20 requests por minuto por IP: cada plan dispara routing, flujo de
// tráfico y potencialmente IA
func PlanRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        20,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + ":" + c.Path()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "Planning rate limit exceeded",
				"retry_after": 60,
				"message":     "Trip planning is limited to 20 requests per minute.",
			})
		},
		LimiterMiddleware: limiter.SlidingWindow{},
	})
}
