package middleware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/sahilchouksey/campus-api/config"
	"github.com/sahilchouksey/campus-api/utils/response"
	"go.uber.org/zap"
)

// SecurityConfig holds security middleware configuration
type SecurityConfig struct {
	AllowedOrigins    []string
	RateLimitRequests int
	RateLimitWindow   time.Duration
	Logger            *zap.Logger
}

// SetupSecurity applies request ids, request logging, panic recovery,
// secure headers, CORS and rate limiting
func SetupSecurity(app *fiber.App, cfg SecurityConfig) {
	app.Use(requestid.New())

	if cfg.Logger != nil {
		app.Use(RequestLogger(cfg.Logger))
	}

	app.Use(recover.New(recover.Config{EnableStackTrace: true}))

	app.Use(helmet.New(helmet.Config{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "SAMEORIGIN",
		HSTSMaxAge:         31536000,
		ReferrerPolicy:     "no-referrer",
	}))

	// Credentials are only sent back to an explicit origin list
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{config.DefaultAllowedOrigin}
	}
	wildcard := len(origins) == 1 && origins[0] == "*"
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(origins, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization,X-Request-ID",
		AllowCredentials: !wildcard,
		MaxAge:           86400,
	}))

	if cfg.RateLimitRequests > 0 {
		window := cfg.RateLimitWindow
		if window <= 0 {
			window = time.Minute
		}
		app.Use(limiter.New(limiter.Config{
			Max:        cfg.RateLimitRequests,
			Expiration: window,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return response.TooManyRequests(c, "Too many requests. Please try again later.")
			},
		}))
	}
}

// RequestLogger logs one line per request with zap, at warn level for
// client errors and error level for server errors
func RequestLogger(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		} else if err != nil {
			status = fiber.StatusInternalServerError
		}

		fields := []zap.Field{
			zap.Int("status", status),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("ip", c.IP()),
			zap.Duration("latency", time.Since(start)),
		}
		if rid, ok := c.Locals(requestid.ConfigDefault.ContextKey).(string); ok {
			fields = append(fields, zap.String("request_id", rid))
		}

		switch {
		case status >= fiber.StatusInternalServerError:
			logger.Error("request failed", fields...)
		case status >= fiber.StatusBadRequest:
			logger.Warn("request rejected", fields...)
		default:
			logger.Info("request completed", fields...)
		}
		return err
	}
}
