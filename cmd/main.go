package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"leaf-vision/config"
	"leaf-vision/internal/api"
	"leaf-vision/internal/container"
	"leaf-vision/internal/domain/entity"
	"leaf-vision/internal/infrastructure/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(cfg).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	var c *container.Container

	root := &cobra.Command{
		Use:          "leaf-vision",
		Short:        "Plant leaf disease classifier: training, HTTP API, Telegram bot",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.New(cfg.LogLevel)
			if err != nil {
				return err
			}
			c = container.New(cfg, logger)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = c.Logger.Sync()
		},
	}
	root.PersistentFlags().StringVar(&cfg.DataDir, "data", cfg.DataDir, "dataset root with one folder per class")
	root.PersistentFlags().StringVar(&cfg.ModelPath, "model", cfg.ModelPath, "model artifact path")
	root.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			server := api.NewServer(c.Classifier(cmd.Context()), c.Logger)
			return server.Run(cmd.Context(), cfg.HTTPAddr)
		},
	}
	serve.Flags().StringVar(&cfg.HTTPAddr, "addr", cfg.HTTPAddr, "listen address")

	train := &cobra.Command{
		Use:   "train",
		Short: "Train the model on the dataset and save the artifact",
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := c.Trainer().Run(cmd.Context())
			if errors.Is(err, entity.ErrDatasetNotFound) {
				c.Logger.Fatal("Dataset directory not found. Please download the PlantVillage dataset.",
					zap.String("data_dir", cfg.DataDir))
			}
			if err != nil {
				c.Logger.Error("Training failed", zap.Error(err))
				return err
			}
			c.Logger.Info("Training complete",
				zap.String("artifact", report.ArtifactID),
				zap.String("model", cfg.ModelPath),
				zap.Int("samples", report.Samples))
			return nil
		},
	}
	train.Flags().IntVar(&cfg.Epochs, "epochs", cfg.Epochs, "training epochs")
	train.Flags().IntVar(&cfg.BatchSize, "batch-size", cfg.BatchSize, "mini-batch size")
	train.Flags().Float64Var(&cfg.LearningRate, "lr", cfg.LearningRate, "Adam learning rate")
	train.Flags().IntVar(&cfg.MaxSamplesPerClass, "max-per-class", cfg.MaxSamplesPerClass, "images sampled per class")
	train.Flags().Float64Var(&cfg.AugmentProbability, "augment-prob", cfg.AugmentProbability, "spectral stress probability for diseased classes")
	train.Flags().IntVar(&cfg.Workers, "workers", cfg.Workers, "parallel image loaders")
	train.Flags().Int64Var(&cfg.Seed, "seed", cfg.Seed, "sampling and initialisation seed")

	predict := &cobra.Command{
		Use:   "predict <image>",
		Short: "Classify one image and print JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}
			pred, err := c.Classifier(cmd.Context()).Predict(cmd.Context(), data)
			if err != nil {
				c.Logger.Error("Prediction failed", zap.String("image", args[0]), zap.Error(err))
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(pred)
		},
	}

	bot := &cobra.Command{
		Use:   "bot",
		Short: "Run the Telegram bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.TelegramToken == "" {
				return errors.New("TELEGRAM_TOKEN is required")
			}
			b, err := api.NewBot(cfg.TelegramToken, c.Classifier(cmd.Context()), c.History, c.Logger)
			if err != nil {
				c.Logger.Error("Failed to create bot", zap.Error(err))
				return err
			}
			c.Logger.Info("Bot is running...")
			return b.Run(cmd.Context())
		},
	}

	camera := &cobra.Command{
		Use:   "camera",
		Short: "Classify frames from a capture device",
		RunE: func(cmd *cobra.Command, args []string) error {
			return api.NewCamera(cfg.CameraDevice, c.Classifier(cmd.Context()), c.Logger).Run(cmd.Context())
		},
	}
	camera.Flags().IntVar(&cfg.CameraDevice, "device", cfg.CameraDevice, "capture device index")

	root.AddCommand(serve, train, predict, bot, camera)
	return root
}
