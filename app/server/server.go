package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"eyestock/app/config"
	"eyestock/app/service/capture"
	"eyestock/app/service/display"
	"eyestock/app/service/preview"
	"eyestock/app/service/rotation"
	"eyestock/app/util/urlx"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/samber/do"
)

const shutdownTimeout = 5 * time.Second

type Previewer interface {
	Resolve(ctx context.Context, url string) (preview.LinkPreviewMeta, error)
}

type Listener interface {
	Start(ctx context.Context) error
	HandleResult(text string)
	OnForeground(ctx context.Context) error
	OnBackground()
}

type Viewer interface {
	Snapshot() display.Snapshot
}

type Carousel interface {
	Open()
}

type utteranceRequest struct {
	Text string `json:"text" validate:"required"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server is the local HTTP surface used to drive and inspect the running assistant.
type Server struct {
	listen   string
	ctx      context.Context
	app      *fiber.App
	validate *validator.Validate

	previewer Previewer
	listener  Listener
	viewer    Viewer
	carousel  Carousel
}

func New(di *do.Injector) (*Server, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return NewServer(
		do.MustInvoke[context.Context](di),
		cfg.Server,
		do.MustInvoke[*preview.Resolver](di),
		do.MustInvoke[*capture.Controller](di),
		do.MustInvoke[*display.State](di),
		do.MustInvoke[*rotation.Controller](di),
	), nil
}

// NewServer builds the routes. ctx bounds the work started by requests that outlive them, such as listening.
func NewServer(ctx context.Context, cfg config.Server, previewer Previewer, listener Listener, viewer Viewer, carousel Carousel) *Server {
	s := &Server{
		listen:    cfg.Listen,
		ctx:       ctx,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		previewer: previewer,
		listener:  listener,
		viewer:    viewer,
		carousel:  carousel,
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "eyestock",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	s.app.Get("/state", s.handleState)
	s.app.Get("/preview", s.handlePreview)
	s.app.Post("/utterance", s.handleUtterance)
	s.app.Post("/listen", s.handleListen)
	s.app.Post("/lifecycle/:state", s.handleLifecycle)
	s.app.Post("/carousel/open", s.handleCarouselOpen)

	return s
}

func (s *Server) App() *fiber.App {
	return s.app
}

// Run serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()

		if err := s.app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			slog.Warn("Server shutdown failed", slog.Any("error", err))
		}
	}()

	slog.Info("HTTP server listening", slog.String("addr", s.listen))

	if err := s.app.Listen(s.listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) handleState(c *fiber.Ctx) error {
	return c.JSON(s.viewer.Snapshot())
}

func (s *Server) handlePreview(c *fiber.Ctx) error {
	pageURL := c.Query("url")
	if !urlx.IsValid(pageURL) {
		return fiber.NewError(fiber.StatusBadRequest, "url must be an absolute http(s) URL")
	}

	meta, err := s.previewer.Resolve(c.UserContext(), pageURL)
	switch {
	case errors.Is(err, preview.ErrFetchTimeout):
		return fiber.NewError(fiber.StatusGatewayTimeout, err.Error())
	case err != nil:
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}

	return c.JSON(meta)
}

func (s *Server) handleUtterance(c *fiber.Ctx) error {
	var req utteranceRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}

	if err := s.validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "text is required")
	}

	s.listener.HandleResult(req.Text)

	return c.SendStatus(fiber.StatusAccepted)
}

func (s *Server) handleListen(c *fiber.Ctx) error {
	err := s.listener.Start(s.ctx)
	switch {
	case errors.Is(err, capture.ErrPermissionDenied):
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	case errors.Is(err, capture.ErrStartCancelled):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case err != nil:
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleLifecycle(c *fiber.Ctx) error {
	switch c.Params("state") {
	case "foreground":
		if err := s.listener.OnForeground(s.ctx); err != nil {
			slog.Warn("Failed to resume listening", slog.Any("error", err))
		}
	case "background":
		s.listener.OnBackground()
	default:
		return fiber.NewError(fiber.StatusBadRequest, "state must be foreground or background")
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleCarouselOpen(c *fiber.Ctx) error {
	s.carousel.Open()

	return c.SendStatus(fiber.StatusNoContent)
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}

	if code >= fiber.StatusInternalServerError {
		slog.Error("Request failed",
			slog.String("path", c.Path()),
			slog.Int("status", code),
			slog.Any("error", err),
		)
	}

	return c.Status(code).JSON(errorResponse{Error: err.Error()})
}
