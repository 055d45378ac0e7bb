// Package telegram adapts the Bot API transport to the narrow delivery
// surface the pipeline needs. The upstream client is kept behind the Sender
// interface so deliveries can be tested without a live bot.
package telegram

import (
	"fmt"
	"io"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram albums (media groups) carry between 2 and 10 items.
const (
	AlbumMin = 2
	AlbumMax = 10
)

// MediaItem is one deliverable: either a remote URL the transport passes
// through in the request payload, or an in-memory stream uploaded as a
// multipart file part.
type MediaItem struct {
	URL     string
	Data    io.ReadSeeker
	Name    string
	Caption string
}

// Sender is the delivery surface the pipeline depends on.
type Sender interface {
	SendText(chatID int64, text string) error
	SendPhoto(chatID int64, item MediaItem) error
	SendAlbum(chatID int64, items []MediaItem) error
	SendDocument(chatID int64, item MediaItem) error
}

// BotSender implements Sender over the Bot API client.
type BotSender struct {
	api *tgbotapi.BotAPI
}

var _ Sender = (*BotSender)(nil)

func NewSender(api *tgbotapi.BotAPI) *BotSender {
	return &BotSender{api: api}
}

func (s *BotSender) SendText(chatID int64, text string) error {
	_, err := s.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

func (s *BotSender) SendPhoto(chatID int64, item MediaItem) error {
	photo := tgbotapi.NewPhoto(chatID, item.fileData("photo.jpg"))
	photo.Caption = item.Caption
	_, err := s.api.Send(photo)
	return err
}

// SendAlbum sends 2-10 items as one media group. Size is a caller contract:
// the pipeline chunks before calling, so anything else is a bug here, not a
// recoverable condition.
func (s *BotSender) SendAlbum(chatID int64, items []MediaItem) error {
	if len(items) < AlbumMin || len(items) > AlbumMax {
		panic(fmt.Sprintf("telegram: album must hold %d-%d items, got %d", AlbumMin, AlbumMax, len(items)))
	}

	media := make([]interface{}, len(items))
	for i, item := range items {
		photo := tgbotapi.NewInputMediaPhoto(item.fileData(fmt.Sprintf("photo_%d.jpg", i+1)))
		photo.Caption = item.Caption
		media[i] = photo
	}

	_, err := s.api.SendMediaGroup(tgbotapi.NewMediaGroup(chatID, media))
	return err
}

func (s *BotSender) SendDocument(chatID int64, item MediaItem) error {
	doc := tgbotapi.NewDocument(chatID, item.fileData("archive.zip"))
	doc.Caption = item.Caption
	_, err := s.api.Send(doc)
	return err
}

// fileData unfolds an item to its wire representation. Streams are rewound
// first so a buffer can be retried or measured upstream without surprising
// the transport.
func (m MediaItem) fileData(fallback string) tgbotapi.RequestFileData {
	if m.Data != nil {
		_, _ = m.Data.Seek(0, io.SeekStart)

		name := m.Name
		if name == "" {
			name = fallback
		}
		return tgbotapi.FileReader{Name: name, Reader: m.Data}
	}

	return tgbotapi.FileURL(m.URL)
}
