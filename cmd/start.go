package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"inventory-reconciler/core/loader"
	"inventory-reconciler/core/logger"
	"inventory-reconciler/core/middleware/auth"
	"inventory-reconciler/core/middleware/rayid"
	"inventory-reconciler/feature/ingest"
	"inventory-reconciler/feature/integrity"
	"inventory-reconciler/feature/poller"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the ingest server",
	Long:  `Starts the HTTP server that accepts facts documents and commits them to the inventory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := bootstrap()
		if err != nil {
			return err
		}
		defer env.Close()
		logg := env.log
		zap.ReplaceGlobals(logg)

		engine, err := env.engine()
		if err != nil {
			return err
		}

		opts := []poller.Option{poller.WithLogger(logg)}
		var history ingest.History
		arch, err := env.archive(cmd.Context())
		if err != nil {
			return err
		}
		if arch != nil {
			opts = append(opts, poller.WithArchiver(arch))
			history = arch
			logg.Info("Archiving run reports", zap.String("bucket", env.cfg.Storage.Bucket))
		}
		pool := poller.New(engine, env.db, env.cfg.Poller, opts...)

		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
			BodyLimit:             env.cfg.Server.BodyLimit(),
		})

		svc, err := env.integrity()
		if err != nil {
			return err
		}

		mgr := loader.NewManager(logg)
		mgr.Register(ingest.NewFeature(pool, env.registry, history, logg))
		mgr.Register(integrity.NewFeature(svc))

		// RayID first so every later log line carries it
		app.Use(rayid.New())

		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		app.Use(auth.New(auth.Config{ApiKey: env.cfg.Server.ApiKey, Skip: []string{"/health"}}))

		if err := mgr.LoadAll(app); err != nil {
			return err
		}

		go func() {
			logg.Info("Starting server", zap.String("port", env.cfg.Server.Port))
			if err := app.Listen(env.cfg.Server.Addr()); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		return app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
