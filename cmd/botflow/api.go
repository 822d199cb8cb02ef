package main

import (
	"log/slog"
	"strconv"

	"github.com/dukex/botflow/pkg/eventbus"
	"github.com/dukex/botflow/pkg/persistence"
	"github.com/dukex/botflow/pkg/registry"
	"github.com/dukex/botflow/pkg/services"
	"github.com/dukex/botflow/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/language"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventBus
	tracer      trace.Tracer
	locale      language.Tag
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	registry *registry.Registry,
	eventBus eventbus.EventBus,
	tracer trace.Tracer,
	locale language.Tag,
) *API {
	return &API{
		persistence: persistence,
		logger:      logger,
		registry:    registry,
		eventBus:    eventBus,
		tracer:      tracer,
		locale:      locale,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	opts := []services.WorkflowOption{
		services.WithLogger(a.logger),
		services.WithTracer(a.tracer),
	}
	if a.eventBus != nil {
		opts = append(opts, services.WithPublisher(a.eventBus))
	}

	workflowService := services.NewWorkflow(a.persistence, opts...)
	editorService := services.NewEditor(workflowService, a.registry, services.EditorConfig{
		Locale: a.locale,
		Tracer: a.tracer,
		Logger: a.logger,
	})

	handlers := web.NewAPIHandlers(workflowService, editorService, a.validate, a.registry)

	app := fiber.New(fiber.Config{
		AppName:     "botflow",
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,
	})
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Botflow API")
	})

	handlers.Register(app)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}
