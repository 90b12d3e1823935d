package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/campus-api/utils/response"
	"go.uber.org/zap"
)

type APIServer struct {
	app           *fiber.App
	listenAddress string
	logger        *zap.Logger
}

func NewAPIServer(listenAddress string, logger *zap.Logger) *APIServer {
	return &APIServer{
		app: fiber.New(fiber.Config{
			AppName:      "campus-api",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			ErrorHandler: errorHandler(logger),
		}),
		listenAddress: listenAddress,
		logger:        logger,
	}
}

// errorHandler renders errors that escape the handlers in the response envelope
func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		if fe, ok := err.(*fiber.Error); ok {
			return response.Error(c, fe.Code, fe.Message, "HTTP_ERROR")
		}
		logger.Error("unhandled request error", zap.String("path", c.Path()), zap.Error(err))
		return response.InternalServerError(c, "")
	}
}

func (s *APIServer) GetEngine() *fiber.App {
	return s.app
}

func (s *APIServer) Run() error {
	s.logger.Info("starting API server", zap.String("listen", s.listenAddress))
	return s.app.Listen(s.listenAddress)
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *APIServer) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
