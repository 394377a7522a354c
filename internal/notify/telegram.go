package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/workscout/go-marketplace-backend/internal/config"
	"github.com/workscout/go-marketplace-backend/internal/domain"
)

// Telegram sends messages through the Bot API sendMessage method and builds
// Mini App deep links for inline keyboards.
type Telegram struct {
	baseURL     string
	fileBaseURL string
	botUsername string
	webAppBase  string
	client      *http.Client
}

// NewTelegram builds a Notifier from the Telegram configuration. When the
// bot token is unset it returns Noop so callers never need a nil check.
func NewTelegram(cfg config.TelegramConfig) Notifier {
	if cfg.BotToken == "" {
		return Noop{}
	}
	return &Telegram{
		baseURL:     "https://api.telegram.org/bot" + cfg.BotToken,
		fileBaseURL: "https://api.telegram.org/file/bot" + cfg.BotToken,
		botUsername: cfg.BotUsername,
		webAppBase:  cfg.WebAppBase,
		client:      &http.Client{Timeout: 5 * time.Second},
	}
}

type inlineButton struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

type replyMarkup struct {
	InlineKeyboard [][]inlineButton `json:"inline_keyboard"`
}

type sendMessageReq struct {
	ChatID                int64        `json:"chat_id"`
	Text                  string       `json:"text"`
	ParseMode             string       `json:"parse_mode"`
	DisableWebPagePreview bool         `json:"disable_web_page_preview"`
	ReplyMarkup           *replyMarkup `json:"reply_markup,omitempty"`
}

// NewResponse implements Notifier.
func (t *Telegram) NewResponse(ctx context.Context, order *domain.Order, customer, executor *domain.User) {
	if customer == nil || customer.TelegramID == 0 {
		return
	}
	city := executor.City
	if city == "" {
		city = "—"
	}
	text := fmt.Sprintf(
		"🛠 Новый отклик на ваш заказ «%s»\n\nИсполнитель: %s\nГород: %s",
		order.Title, displayName(executor), city,
	)

	var row []inlineButton
	if link := t.orderLink(order.ID); link != "" {
		row = append(row, inlineButton{Text: "Открыть заказ", URL: link})
	}
	if link := t.startAppLink("my_orders"); link != "" {
		row = append(row, inlineButton{Text: "Мои заказы", URL: link})
	}
	t.send(ctx, customer.TelegramID, text, rows(row))
}

// ExecutorChosen implements Notifier.
func (t *Telegram) ExecutorChosen(ctx context.Context, order *domain.Order, customer, executor *domain.User) {
	if executor == nil || executor.TelegramID == 0 {
		return
	}
	text := fmt.Sprintf(
		"✅ Вас выбрали исполнителем по заказу «%s»\n\nЗаказчик: %s\nГород: %s",
		order.Title, displayName(customer), order.City,
	)

	var keyboard [][]inlineButton
	if link := t.orderLink(order.ID); link != "" {
		keyboard = append(keyboard, []inlineButton{{Text: "Открыть заказ", URL: link}})
	}
	if customer != nil && customer.TelegramID != 0 {
		keyboard = append(keyboard, []inlineButton{{
			Text: "Написать заказчику",
			URL:  fmt.Sprintf("tg://user?id=%d", customer.TelegramID),
		}})
	}
	var markup *replyMarkup
	if len(keyboard) > 0 {
		markup = &replyMarkup{InlineKeyboard: keyboard}
	}
	t.send(ctx, executor.TelegramID, text, markup)
}

// send posts a single sendMessage call. Errors are logged and dropped.
func (t *Telegram) send(ctx context.Context, chatID int64, text string, markup *replyMarkup) {
	body, err := json.Marshal(sendMessageReq{
		ChatID:                chatID,
		Text:                  text,
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
		ReplyMarkup:           markup,
	})
	if err != nil {
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/sendMessage", bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		log.Warn().Err(err).Int64("chat_id", chatID).Msg("telegram notification failed")
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		log.Warn().Int("status", resp.StatusCode).Int64("chat_id", chatID).Msg("telegram notification rejected")
	}
}

type profilePhotosResp struct {
	OK     bool `json:"ok"`
	Result struct {
		TotalCount int `json:"total_count"`
		Photos     [][]struct {
			FileID string `json:"file_id"`
		} `json:"photos"`
	} `json:"result"`
}

type getFileResp struct {
	OK     bool `json:"ok"`
	Result struct {
		FilePath string `json:"file_path"`
	} `json:"result"`
}

// FetchUserPhoto downloads the user's current profile photo via
// getUserProfilePhotos + getFile. A user without a photo yields empty data
// and no error, so callers can record the attempt.
func (t *Telegram) FetchUserPhoto(ctx context.Context, telegramID int64) ([]byte, string, error) {
	var photos profilePhotosResp
	url := fmt.Sprintf("%s/getUserProfilePhotos?user_id=%d&limit=1", t.baseURL, telegramID)
	if err := t.getJSON(ctx, url, &photos); err != nil {
		return nil, "", err
	}
	if !photos.OK || photos.Result.TotalCount == 0 || len(photos.Result.Photos) == 0 {
		return nil, "", nil
	}
	// The last size variant is the largest.
	sizes := photos.Result.Photos[0]
	if len(sizes) == 0 {
		return nil, "", nil
	}
	fileID := sizes[len(sizes)-1].FileID

	var file getFileResp
	if err := t.getJSON(ctx, t.baseURL+"/getFile?file_id="+fileID, &file); err != nil {
		return nil, "", err
	}
	if !file.OK || file.Result.FilePath == "" {
		return nil, "", nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.fileBaseURL+"/"+file.Result.FilePath, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("telegram file download: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAvatarBytes))
	if err != nil {
		return nil, "", err
	}
	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "image/jpeg"
	}
	return data, ct, nil
}

// maxAvatarBytes caps a downloaded profile photo.
const maxAvatarBytes = 4 << 20

func (t *Telegram) getJSON(ctx context.Context, url string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram api: status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}

// orderLink builds a deep link that opens the Mini App on a given order.
func (t *Telegram) orderLink(orderID int64) string {
	return t.startAppLink(fmt.Sprintf("order_%d", orderID))
}

// startAppLink prefers an explicit WEBAPP_BASE_URL, then falls back to the
// t.me/<bot>/app format. Returns "" when neither is configured.
func (t *Telegram) startAppLink(payload string) string {
	if t.webAppBase != "" {
		sep := "?"
		if strings.Contains(t.webAppBase, "?") {
			sep = "&"
		}
		return t.webAppBase + sep + "startapp=" + payload
	}
	if t.botUsername != "" {
		return fmt.Sprintf("https://t.me/%s/app?startapp=%s", t.botUsername, payload)
	}
	return ""
}

func rows(row []inlineButton) *replyMarkup {
	if len(row) == 0 {
		return nil
	}
	return &replyMarkup{InlineKeyboard: [][]inlineButton{row}}
}

func displayName(u *domain.User) string {
	if u == nil {
		return "Пользователь"
	}
	if u.LastName != "" {
		return u.FirstName + " " + u.LastName
	}
	return u.FirstName
}
