package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"leaf-vision/internal/domain/entity"
	"leaf-vision/internal/domain/port"
)

const (
	msgStart = `👋 Привет! Я бот для диагностики болезней растений по фото листа.

📸 Отправьте мне фото листа, и я определю, здоров ли он.

📋 Команды:
/classes — список распознаваемых классов
/history — последние диагнозы
/health — состояние модели
/help — справка`

	msgHelp = `ℹ️ Как пользоваться ботом:

1️⃣ Отправьте фото листа (как фото или как файл)
2️⃣ Бот классифицирует изображение
3️⃣ Вы получите диагноз и три наиболее вероятных класса

💡 Рекомендации:
• Один лист в кадре
• Хорошее дневное освещение
• Фото должно быть чётким

📋 Команды:
/classes — классы
/history — история
/health — состояние модели`

	msgSendPhoto       = "📸 Пожалуйста, отправьте фото листа для диагностики."
	msgUnknownCommand  = "❓ Неизвестная команда. Используйте /help для справки."
	msgProcessing      = "⏳ Обрабатываю изображение..."
	msgModelNotLoaded  = "⚠️ Модель ещё не обучена. Диагностика временно недоступна."
	msgProcessingError = "⚠️ Не удалось обработать изображение. Попробуйте сделать другое фото."
	msgNoHistory       = "📭 История пуста. Отправьте фото листа."
)

// Bot представляет Telegram-бота
type Bot struct {
	api       *tgbotapi.BotAPI
	predictor Predictor
	history   port.DiagnosisRepository
	client    *http.Client
	logger    *zap.Logger
}

// NewBot создаёт нового бота
func NewBot(token string, predictor Predictor, history port.DiagnosisRepository, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}

	logger.Info("Authorized on account", zap.String("username", api.Self.UserName))

	return &Bot{
		api:       api,
		predictor: predictor,
		history:   history,
		client:    &http.Client{Timeout: 30 * time.Second},
		logger:    logger,
	}, nil
}

// Run запускает основной цикл обработки сообщений до отмены ctx
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		b.sendMessage(chatID, b.commandReply(ctx, msg.Command(), chatID))
		return
	}

	fileID := imageFileID(msg)
	if fileID == "" {
		b.sendMessage(chatID, msgSendPhoto)
		return
	}

	b.sendMessage(chatID, msgProcessing)

	imageData, err := b.downloadFile(ctx, fileID)
	if err != nil {
		b.logger.Error("Error downloading photo", zap.Int64("chat_id", chatID), zap.Error(err))
		b.sendMessage(chatID, msgProcessingError)
		return
	}

	b.sendMessage(chatID, b.diagnose(ctx, chatID, imageData))
}

// commandReply текст ответа на команду
func (b *Bot) commandReply(ctx context.Context, command string, chatID int64) string {
	switch command {
	case "start":
		return msgStart
	case "help":
		return msgHelp
	case "classes":
		return formatClasses(b.predictor.Classes())
	case "health":
		return formatHealth(b.predictor.Health())
	case "history":
		items, err := b.history.Recent(ctx, chatID, 0)
		if err != nil {
			b.logger.Error("Error reading history", zap.Int64("chat_id", chatID), zap.Error(err))
			return msgProcessingError
		}
		return formatHistory(items)
	default:
		return msgUnknownCommand
	}
}

// diagnose классифицирует изображение и записывает диагноз в историю чата
func (b *Bot) diagnose(ctx context.Context, chatID int64, imageData []byte) string {
	pred, err := b.predictor.Predict(ctx, imageData)
	if err != nil {
		b.logger.Warn("Prediction failed", zap.Int64("chat_id", chatID), zap.Error(err))
		if errors.Is(err, entity.ErrModelNotLoaded) {
			return msgModelNotLoaded
		}
		return msgProcessingError
	}

	d := entity.Diagnosis{ChatID: chatID, Label: pred.Label, Confidence: pred.Confidence, At: time.Now()}
	if err := b.history.Append(ctx, d); err != nil {
		b.logger.Error("Error saving diagnosis", zap.Int64("chat_id", chatID), zap.Error(err))
	}

	return formatPrediction(pred)
}

// imageFileID выбирает фото максимального разрешения или документ-изображение
func imageFileID(msg *tgbotapi.Message) string {
	if len(msg.Photo) > 0 {
		return msg.Photo[len(msg.Photo)-1].FileID
	}
	if msg.Document != nil && strings.HasPrefix(msg.Document.MimeType, "image/") {
		return msg.Document.FileID
	}
	return ""
}

// downloadFile скачивает файл из Telegram
func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(b.api.Token), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxUploadSize))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Error sending message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
