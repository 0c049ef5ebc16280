package bot

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/blackhouse/concursobot/config"
	"github.com/blackhouse/concursobot/database"
	"github.com/blackhouse/concursobot/models"
	"github.com/blackhouse/concursobot/quiz"
)

const (
	cmdStart = "start"
	cmdHelp  = "help"
	cmdStat  = "stat"

	topicCallbackPrefix = "topic|"

	// Telegram rejects poll explanations longer than 200 characters.
	maxExplanationRunes = 200
)

// Bot represents the Telegram bot
type Bot struct {
	api     *tgbotapi.BotAPI
	db      *database.DB
	service *quiz.Service
	topics  []string

	batchSize       int
	channelChatID   int64
	channelUsername string
}

// New creates a new bot instance
func New(cfg *config.Config, db *database.DB, service *quiz.Service, topics []string) (*Bot, error) {
	botAPI, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}

	// Set bot debugging mode
	botAPI.Debug = os.Getenv("DEBUG") == "true"

	b := &Bot{
		api:       botAPI,
		db:        db,
		service:   service,
		topics:    topics,
		batchSize: cfg.BatchSize,
	}

	// The channel is addressed either by @username or by numeric chat ID.
	if strings.HasPrefix(cfg.ChannelID, "@") {
		b.channelUsername = cfg.ChannelID
	} else {
		chatID, err := strconv.ParseInt(cfg.ChannelID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("CHANNEL_ID must be @username or a numeric chat ID: %w", err)
		}
		b.channelChatID = chatID
	}

	return b, nil
}

// Start starts the bot and listens for updates
func (b *Bot) Start() {
	log.Println("Starting bot polling...")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for update := range updates {
		if update.CallbackQuery != nil {
			b.handleCallback(update.CallbackQuery)
		} else if update.Message != nil {
			b.handleMessage(update.Message)
		}
	}
}

// Dispatch assembles a batch for the topic and publishes it to the channel.
// It is the single entry point shared by the scheduler and manual triggers.
func (b *Bot) Dispatch(topic, origin string) {
	log.Printf("Dispatching batch (%s) for topic %q", origin, topic)

	batch := b.service.AssembleBatch(context.Background(), topic, b.batchSize)
	if len(batch) == 0 {
		log.Printf("No questions obtained for topic %q", topic)
		b.sendToChannel(fmt.Sprintf("⚠️ Não consegui carregar questões de %s agora. Tente novamente mais tarde.", topic))
		return
	}

	sent := 0
	for _, q := range batch {
		if err := b.sendQuizPoll(q); err != nil {
			log.Printf("Error sending poll to channel: %v", err)
			continue
		}
		sent++
	}

	if err := b.db.RecordDelivery(topic, origin, sent); err != nil {
		log.Printf("Error recording delivery: %v", err)
	}

	log.Printf("Batch dispatch finished (%s) topic=%q sent=%d/%d", origin, topic, sent, len(batch))
}

// sendQuizPoll publishes one question as a quiz poll on the channel
func (b *Bot) sendQuizPoll(q models.Question) error {
	poll := tgbotapi.NewPoll(b.channelChatID, fmt.Sprintf("[%s] %s", q.Topic, q.Text), q.Options...)
	poll.ChannelUsername = b.channelUsername
	poll.Type = "quiz"
	poll.CorrectOptionID = int64(q.CorrectIndex)
	poll.Explanation = truncate(q.Explanation, maxExplanationRunes)

	_, err := b.api.Send(poll)
	return err
}

// sendToChannel sends a plain text message to the channel
func (b *Bot) sendToChannel(text string) {
	msg := tgbotapi.NewMessage(b.channelChatID, text)
	msg.ChannelUsername = b.channelUsername
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Error sending message to channel: %v", err)
	}
}

// handleMessage processes incoming messages
func (b *Bot) handleMessage(message *tgbotapi.Message) {
	log.Printf("Received message from %s (ID: %d): %s", message.From.UserName, message.From.ID, message.Text)

	switch {
	case strings.HasPrefix(message.Text, "/"+cmdStart):
		b.handleStartCommand(message)
	case strings.HasPrefix(message.Text, "/"+cmdHelp):
		b.handleHelpCommand(message)
	case strings.HasPrefix(message.Text, "/"+cmdStat):
		b.handleStatCommand(message)
	default:
		b.sendMessage(message.Chat.ID, "Comando desconhecido. Use /start para escolher uma matéria ou /help para ajuda.")
	}
}

// handleStartCommand shows the topic picker
func (b *Bot) handleStartCommand(message *tgbotapi.Message) {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, topic := range b.topics {
		button := tgbotapi.NewInlineKeyboardButtonData(topic, topicCallbackPrefix+topic)
		keyboard = append(keyboard, []tgbotapi.InlineKeyboardButton{button})
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, "👊 Black House Bot\n\nEscolha a matéria para mandar um lote de questões no canal.")
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(keyboard...)
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Error sending topic picker: %v", err)
	}
}

// handleHelpCommand handles the /help command
func (b *Bot) handleHelpCommand(message *tgbotapi.Message) {
	helpText := `ℹ️ Comandos disponíveis

/start – escolher matéria e enviar questões no canal
/stat – estatísticas de envio
/help – exibe esta ajuda

O envio automático é feito direto no canal nos horários configurados.`

	b.sendMessage(message.Chat.ID, helpText)
}

// handleStatCommand handles the /stat command
func (b *Bot) handleStatCommand(message *tgbotapi.Message) {
	stats, err := b.db.GetDeliveryStats()
	if err != nil {
		log.Printf("Error getting delivery stats: %v", err)
		b.sendMessage(message.Chat.ID, "Não consegui recuperar as estatísticas agora. Tente novamente mais tarde.")
		return
	}

	statMessage := fmt.Sprintf(`📊 Estatísticas de envio

Lotes enviados: %d
Questões publicadas: %d
Automáticos: %d ⏰
Manuais: %d 👊`,
		stats.TotalBatches, stats.TotalQuestions, stats.Scheduled, stats.Manual)

	topTopics, err := b.db.GetTopDeliveredTopics(3)
	if err != nil {
		log.Printf("Error getting topic breakdown: %v", err)
	}
	if len(topTopics) > 0 {
		statMessage += "\n\nMatérias mais enviadas:\n"
		for i, tc := range topTopics {
			statMessage += fmt.Sprintf("%d. %s (%d lotes)\n", i+1, tc.Topic, tc.Batches)
		}
	}

	b.sendMessage(message.Chat.ID, statMessage)
}

// handleCallback processes callback queries from inline buttons
func (b *Bot) handleCallback(callback *tgbotapi.CallbackQuery) {
	log.Printf("Handling callback from user %s (ID: %d) with data: %s",
		callback.From.UserName, callback.From.ID, callback.Data)

	if !strings.HasPrefix(callback.Data, topicCallbackPrefix) {
		b.sendCallbackResponse(callback.ID, "Ação desconhecida.")
		return
	}

	topic := strings.TrimPrefix(callback.Data, topicCallbackPrefix)
	if !b.knownTopic(topic) {
		b.sendCallbackResponse(callback.ID, "Matéria inválida.")
		return
	}

	// Acknowledge immediately to prevent "query is too old" errors; the
	// batch is assembled and published in the background.
	b.sendCallbackResponse(callback.ID, fmt.Sprintf("Enviando questões de %s no canal...", topic))
	go b.Dispatch(topic, models.OriginManual)
}

func (b *Bot) knownTopic(topic string) bool {
	for _, t := range b.topics {
		if t == topic {
			return true
		}
	}
	return false
}

// sendMessage sends a text message to a chat
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Error sending message: %v", err)
	}
}

// sendCallbackResponse sends a response to a callback query
func (b *Bot) sendCallbackResponse(callbackID, text string) {
	callback := tgbotapi.NewCallback(callbackID, text)
	if _, err := b.api.Request(callback); err != nil {
		log.Printf("Error sending callback response: %v", err)
	}
}

// truncate cuts text to at most max runes, marking the cut with an ellipsis.
func truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max-1]) + "…"
}
