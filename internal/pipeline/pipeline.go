// Package pipeline orchestrates one chapter delivery per command
// invocation: validate, scrape, announce, then relay the pages as photo
// albums or as a single ZIP document. All failures stop at this boundary.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/brogergvhs/pocketbot/internal/scraper"
	"github.com/brogergvhs/pocketbot/internal/telegram"
	"github.com/brogergvhs/pocketbot/internal/ui"
	"github.com/brogergvhs/pocketbot/internal/util"
)

// Mode selects how a chapter reaches the chat.
type Mode int

const (
	ModeAlbum Mode = iota
	ModeArchive
)

// Chapter ids on the site are 20 decimal digits, always.
var chapterIDRe = regexp.MustCompile(`^[0-9]{20}$`)

const (
	msgInvalidID   = "Invalid chapter id. It must be a 20-digit number."
	msgZipStarting = "Creating ZIP archive, please wait..."
	msgBadData     = "Failed to parse chapter data."
	msgNetwork     = "Network error. Please try again later."
	msgGeneric     = "An error occurred. Please try again."
)

type Pipeline struct {
	sender   telegram.Sender
	fetcher  scraper.Fetcher
	log      *zap.SugaredLogger
	progress *ui.MPBProgressManager
	stats    *ui.Stats

	// newClient builds the per-invocation image session for archive mode.
	newClient func() (*http.Client, error)
}

type Options struct {
	Sender   telegram.Sender
	Fetcher  scraper.Fetcher
	Logger   *zap.SugaredLogger
	Progress *ui.MPBProgressManager
	Stats    *ui.Stats

	Timeout   time.Duration
	Transport http.RoundTripper
}

func New(opts Options) *Pipeline {
	p := &Pipeline{
		sender:   opts.Sender,
		fetcher:  opts.Fetcher,
		log:      opts.Logger,
		progress: opts.Progress,
		stats:    opts.Stats,
	}

	p.newClient = func() (*http.Client, error) {
		return util.NewHTTPClient(util.HTTPClientOptions{
			Timeout:          opts.Timeout,
			BypassCloudflare: opts.Transport == nil,
			Transport:        opts.Transport,
		})
	}

	return p
}

// Deliver runs one complete fetch-and-deliver flow. It never returns an
// error: every failure is logged for the operator and relayed to the chat as
// a user-facing message.
func (p *Pipeline) Deliver(ctx context.Context, chatID int64, id string, mode Mode) {
	if !chapterIDRe.MatchString(id) {
		p.log.Errorw("invalid chapter id", "id", id)
		p.say(chatID, msgInvalidID)
		return
	}

	p.log.Infow("fetching chapter", "id", id)

	ch, err := p.fetcher.Fetch(ctx, id)
	if err != nil {
		p.report(chatID, id, err)
		return
	}

	p.say(chatID, ch.Title+" - "+ch.Label)

	switch mode {
	case ModeArchive:
		err = p.deliverArchive(ctx, chatID, ch)
	default:
		err = p.deliverAlbum(chatID, ch)
	}
	if err != nil {
		p.report(chatID, id, err)
		return
	}

	if p.stats != nil {
		p.stats.TotalChapters.Add(1)
		p.stats.TotalImages.Add(int64(len(ch.Pages)))
	}
	p.log.Infow("chapter delivered", "id", id, "pages", len(ch.Pages))
}

// deliverAlbum sends pages in order as albums of at most ten. A trailing
// group of one goes out as a plain photo, since albums need two items.
func (p *Pipeline) deliverAlbum(chatID int64, ch *scraper.Chapter) error {
	items := make([]telegram.MediaItem, len(ch.Pages))
	for i, src := range ch.Pages {
		items[i] = telegram.MediaItem{URL: src, Caption: strconv.Itoa(i + 1)}
	}

	for start := 0; start < len(items); start += telegram.AlbumMax {
		end := min(start+telegram.AlbumMax, len(items))

		var err error
		if end-start == 1 {
			err = p.sender.SendPhoto(chatID, items[start])
		} else {
			err = p.sender.SendAlbum(chatID, items[start:end])
		}
		if err != nil {
			return err
		}
	}

	return nil
}

func (p *Pipeline) deliverArchive(ctx context.Context, chatID int64, ch *scraper.Chapter) error {
	p.say(chatID, msgZipStarting)

	client, err := p.newClient()
	if err != nil {
		return err
	}

	handle := p.progress.Register("Ch." + ch.Label)
	data, stored, size, err := buildArchive(ctx, client, ch.Pages, handle, p.log)
	if err != nil {
		return err
	}

	p.log.Infow("archive built", "pages", stored, "of", len(ch.Pages), "bytes", len(data))
	if p.stats != nil {
		p.stats.TotalBytes.Add(size)
	}

	item := telegram.MediaItem{
		Data: bytes.NewReader(data),
		Name: ch.Title + "_" + ch.Label + ".zip",
	}
	return p.sender.SendDocument(chatID, item)
}

// report maps a delivery failure to its chat-facing message. The full cause
// goes to the log in every branch.
func (p *Pipeline) report(chatID int64, id string, err error) {
	var scErr *scraper.Error

	switch {
	case errors.As(err, &scErr):
		p.log.Errorw("failed to get chapter", "id", id, "error", err)
		if scErr.Kind == scraper.KindBadData {
			p.say(chatID, msgBadData)
			return
		}
		p.say(chatID, scErr.Message)

	case isNetworkError(err):
		p.log.Errorw("network error while fetching chapter", "id", id, "error", err)
		p.say(chatID, msgNetwork)

	default:
		p.log.Errorw("failed to get chapter", "id", id, "error", err)
		p.say(chatID, msgGeneric)
	}
}

func isNetworkError(err error) bool {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded)
}

func (p *Pipeline) say(chatID int64, text string) {
	if err := p.sender.SendText(chatID, text); err != nil {
		p.log.Errorw("failed to send message", "chat", chatID, "error", err)
	}
}
