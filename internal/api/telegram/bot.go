package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	app "damage-vision/internal/application"
	"damage-vision/internal/domain/entity"
)

const (
	msgStart = `👋 Привет! Я бот для оценки повреждений автомобиля по фото.

📸 Отправьте мне фото автомобиля, и я найду и опишу повреждения.

📋 Команды:
/check — начать проверку автомобиля
/help — справка
/cancel — отменить текущую операцию`

	msgHelp = `ℹ️ Как пользоваться ботом:

1️⃣ Отправьте фото автомобиля
2️⃣ Бот проанализирует изображение
3️⃣ Вы получите отчёт и фото с подсветкой повреждений

💡 Рекомендации:
• Снимайте при хорошем освещении
• Повреждение должно быть в кадре целиком
• Фото должно быть чётким

📋 Команды:
/check — начать проверку
/cancel — отменить операцию`

	msgAwaitingPhoto   = "📸 Отправьте фото автомобиля для оценки повреждений."
	msgCancelled       = "❌ Операция отменена. Отправьте /check для новой проверки."
	msgSendPhoto       = "📸 Пожалуйста, отправьте фото автомобиля для оценки повреждений."
	msgUnknownCommand  = "❓ Неизвестная команда. Используйте /help для справки."
	msgProcessing      = "⏳ Анализирую изображение..."
	msgNoDamages       = "✅ Повреждения не обнаружены."
	msgProcessingError = "⚠️ Не удалось обработать изображение. Попробуйте сделать другое фото."
)

// Bot представляет Telegram-бота
type Bot struct {
	api         *tgbotapi.BotAPI
	users       *app.UserService
	assessments *app.AssessmentService
	log         *zap.Logger
}

// NewBot создаёт нового бота
func NewBot(token string, users *app.UserService, assessments *app.AssessmentService, log *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log.Info("telegram bot authorized", zap.String("account", api.Self.UserName))

	return &Bot{
		api:         api,
		users:       users,
		assessments: assessments,
		log:         log,
	}, nil
}

// Run запускает основной цикл обработки сообщений
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
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
	user, err := b.users.Get(ctx, msg.From.ID, msg.Chat.ID)
	if err != nil {
		b.log.Error("failed to get user", zap.Error(err))
		return
	}

	// Обработка команд
	if msg.IsCommand() {
		b.handleCommand(ctx, msg, user)
		return
	}

	// Обработка фото
	if len(msg.Photo) > 0 {
		b.handlePhoto(ctx, msg, user)
		return
	}

	// Текстовое сообщение (не команда)
	b.sendMessage(msg.Chat.ID, msgSendPhoto)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, user *entity.User) {
	switch msg.Command() {
	case "start":
		b.users.Cancel(ctx, user.ID, user.ChatID)
		b.sendMessage(msg.Chat.ID, msgStart)

	case "help":
		b.sendMessage(msg.Chat.ID, msgHelp)

	case "check":
		b.users.BeginCheck(ctx, user.ID, user.ChatID)
		b.sendMessage(msg.Chat.ID, msgAwaitingPhoto)

	case "cancel":
		b.users.Cancel(ctx, user.ID, user.ChatID)
		b.sendMessage(msg.Chat.ID, msgCancelled)

	default:
		b.sendMessage(msg.Chat.ID, msgUnknownCommand)
	}
}

// handlePhoto обрабатывает входящее фото
func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message, user *entity.User) {
	b.users.SetState(ctx, user.ID, user.ChatID, entity.StateProcessing)
	b.sendMessage(msg.Chat.ID, msgProcessing)

	// Получаем файл с максимальным разрешением
	photo := msg.Photo[len(msg.Photo)-1]

	imageData, err := b.downloadFile(photo.FileID)
	if err != nil {
		b.log.Error("failed to download photo", zap.Error(err))
		b.sendMessage(msg.Chat.ID, msgProcessingError)
		b.users.Cancel(ctx, user.ID, user.ChatID)
		return
	}

	a, err := b.assessments.AnalyzeImage(ctx, "telegram_photo.jpg", imageData, app.AnalyzeOptions{
		Annotate: true,
	})
	if err != nil {
		b.log.Error("failed to analyze photo", zap.Error(err))
		b.sendMessage(msg.Chat.ID, msgProcessingError)
		b.users.Cancel(ctx, user.ID, user.ChatID)
		return
	}

	if !a.HasDamages() {
		b.sendMessage(msg.Chat.ID, msgNoDamages)
	}
	b.sendMessage(msg.Chat.ID, a.Report)

	if len(a.Annotated) > 0 {
		b.sendPhoto(msg.Chat.ID, a.Annotated, fmt.Sprintf("Найдено повреждений: %d", len(a.Damages)))
	}

	b.users.Cancel(ctx, user.ID, user.ChatID)
}

// downloadFile скачивает файл из Telegram
func (b *Bot) downloadFile(fileID string) ([]byte, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	fileURL := file.Link(b.api.Token)

	resp, err := http.Get(fileURL)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("failed to send message", zap.Error(err))
	}
}

// sendPhoto отправляет изображение с подписью
func (b *Bot) sendPhoto(chatID int64, data []byte, caption string) {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "annotated.jpg", Bytes: data})
	photo.Caption = caption
	if _, err := b.api.Send(photo); err != nil {
		b.log.Error("failed to send photo", zap.Error(err))
	}
}
