package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DataDir   string
	ModelPath string
	HTTPAddr  string
	LogLevel  string

	Epochs             int
	BatchSize          int
	LearningRate       float64
	MaxSamplesPerClass int
	AugmentProbability float64
	Workers            int
	Seed               int64

	CameraDevice  int
	TelegramToken string
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	cfg := &Config{
		DataDir:       getString("LEAF_DATA_DIR", "data/PlantVillage"),
		ModelPath:     getString("LEAF_MODEL_PATH", "hybrid_model.gob"),
		HTTPAddr:      getString("LEAF_HTTP_ADDR", ":5000"),
		LogLevel:      getString("LEAF_LOG_LEVEL", "info"),
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
	}

	var err error
	if cfg.Epochs, err = getInt("LEAF_EPOCHS", 10); err != nil {
		return nil, err
	}
	if cfg.BatchSize, err = getInt("LEAF_BATCH_SIZE", 16); err != nil {
		return nil, err
	}
	if cfg.LearningRate, err = getFloat("LEAF_LEARNING_RATE", 1e-4); err != nil {
		return nil, err
	}
	if cfg.MaxSamplesPerClass, err = getInt("LEAF_MAX_SAMPLES_PER_CLASS", 250); err != nil {
		return nil, err
	}
	if cfg.AugmentProbability, err = getFloat("LEAF_AUGMENT_PROB", 0.25); err != nil {
		return nil, err
	}
	if cfg.Workers, err = getInt("LEAF_WORKERS", 4); err != nil {
		return nil, err
	}
	if cfg.CameraDevice, err = getInt("LEAF_CAMERA_DEVICE", 0); err != nil {
		return nil, err
	}

	// Без LEAF_SEED каждый запуск обучения берёт новую выборку
	seed, err := getInt("LEAF_SEED", -1)
	if err != nil {
		return nil, err
	}
	cfg.Seed = int64(seed)
	if seed < 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	return cfg, nil
}

func getString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getFloat(key string, def float64) (float64, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}
