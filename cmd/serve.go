package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/user/foodlog/internal/config"
	"github.com/user/foodlog/internal/handlers"
	"github.com/user/foodlog/internal/logging"
	"github.com/user/foodlog/internal/server"
)

var (
	servePort     int
	serveItemized bool
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the nutrition HTTP API",
	Long: `Serve the nutrition API:

  POST /macros-from-text   {"text": "..."}
  POST /calculate-macros   {"responses": {...}}
  POST /vision             multipart field "photo"

Routes are also mounted under server.api_prefix (default /api). The server
shuts down gracefully on SIGINT or SIGTERM.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on (default 3000, or $PORT)")
	serveCmd.Flags().BoolVar(&serveItemized, "itemized", false, "Return one record per food item")
}

func runServe(cmd *cobra.Command, args []string) error {
	cliOverrides := baseOverrides()
	if cmd.Flags().Changed("port") {
		cliOverrides["server.port"] = servePort
	}
	if cmd.Flags().Changed("itemized") {
		cliOverrides["nutrition.itemized"] = serveItemized
	}

	cfg, err := config.Load(configFile, cliOverrides)
	if err != nil {
		return err
	}

	logger, err := InitLogger(cfg.Logging, cfg.Debug)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	estimator, err := BuildEstimator(cfg, logger)
	if err != nil {
		return err
	}

	uploader, err := BuildUploader(ctx, cfg.Storage, logger)
	if err != nil {
		return err
	}

	logger.Info("starting foodlog",
		logging.Int("port", cfg.Server.Port),
		logging.String("provider", cfg.LLM.Provider),
		logging.String("model", cfg.LLM.Model),
		logging.Bool("itemized", cfg.Nutrition.Itemized),
		logging.Bool("storage", cfg.Storage.Enabled),
	)

	nutritionHandler := handlers.NewNutritionHandler(estimator, uploader, cfg.Server.GetMaxUploadBytes(), logger)
	return server.New(cfg.Server, nutritionHandler, logger).Start(ctx)
}
