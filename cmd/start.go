package cmd

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"file-storage/core/loader"
	"file-storage/core/logger"
	"file-storage/core/middleware/auth"
	"file-storage/core/middleware/rayid"
	"file-storage/feature/objects"
	"file-storage/feature/profiles"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "file-storage/docs/swagger"
)

// @title File Storage API
// @version 1.0
// @description S3 compatible object storage gateway with per-bucket connection profiles.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the file storage server",
	Long:  `Starts the HTTP server and initializes all enabled features.`,
	Run: func(cmd *cobra.Command, args []string) {
		rt, err := bootstrap(cmd.Context())
		if err != nil {
			log.Fatalf("Failed to start: %v", err)
		}
		defer rt.close()
		logg := rt.logger
		zap.ReplaceGlobals(logg)

		app := newApp(rt)

		go func() {
			logg.Info("Starting server", zap.String("port", rt.cfg.Server.Port))
			if err := app.Listen(":" + rt.cfg.Server.Port); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logg.Warn("Server shutdown incomplete", zap.Error(err))
		}
	},
}

// newApp wires middleware and features into a Fiber app.
func newApp(rt *services) *fiber.App {
	logg := rt.logger

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             rt.cfg.Server.BodyLimit(),
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
	})

	// RayID first so every log line of the request carries it
	app.Use(rayid.New())

	app.Use(func(c *fiber.Ctx) error {
		l := logger.WithRayID(logg, c)
		start := time.Now()
		err := c.Next()
		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("ip", c.IP()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("latency", time.Since(start)),
		}
		if err != nil {
			l.Error("Request error", append(fields, zap.Error(err))...)
			return err
		}
		l.Info("Request completed", fields...)
		return nil
	})

	// Public endpoints
	app.Get("/swagger/*", swagger.HandlerDefault)
	if rt.cfg.Server.MetricsEnabled {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(rt.metrics, promhttp.HandlerOpts{})))
	}

	app.Use(auth.New(auth.Config{ApiKey: rt.cfg.Server.ApiKey}))

	mgr := loader.NewManager()
	mgr.Register(objects.NewFeature(rt.objects, logg))
	mgr.Register(profiles.NewFeature(rt.store, rt.builder, logg))

	loaded, err := mgr.LoadAll(app)
	if err != nil {
		logg.Fatal("Failed to load features", zap.Error(err))
	}
	logg.Info("Features loaded", zap.Strings("features", loaded))

	return app
}

func init() {
	RootCmd.AddCommand(startCmd)
}
