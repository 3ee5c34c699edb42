// Package notifier delivers monitoring reports and blocked-domain alerts
// to Telegram chats.
//
// Destinations are the opaque identifiers stored on users; this package
// owns their validation (Telegram chat IDs: optional minus, digits).
// Delivery failure is an error for the caller to record, never a panic,
// and one failed send does not poison the service.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"

	"nawalabot/internal/model"
	"nawalabot/pkg/logx"
)

var ErrInvalidDestination = errors.New("invalid destination chat id")

const defaultRatePerSec = 3

type Config struct {
	Token      string
	RatePerSec int // outbound message cap; Telegram throttles bots hard
}

// sender is the slice of *tele.Bot the service needs; tests install fakes.
type sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

type Service struct {
	bot      sender
	username string
	limiter  *rate.Limiter
	log      logx.Logger
}

func New(cfg Config, log logx.Logger) (*Service, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	b, err := tele.NewBot(tele.Settings{Token: cfg.Token, Offline: false})
	if err != nil {
		return nil, err
	}
	username := ""
	if b.Me != nil {
		username = b.Me.Username
	}
	return &Service{
		bot:      b,
		username: username,
		limiter:  newLimiter(cfg.RatePerSec),
		log:      log,
	}, nil
}

func newLimiter(ratePerSec int) *rate.Limiter {
	if ratePerSec <= 0 {
		ratePerSec = defaultRatePerSec
	}
	return rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec)
}

// ParseDestination validates the opaque destination identifier.
// Telegram chat IDs are integers: negative for groups, positive for users.
func ParseDestination(dest string) (int64, error) {
	s := strings.TrimSpace(dest)
	if s == "" {
		return 0, ErrInvalidDestination
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDestination, dest)
	}
	return id, nil
}

// SendReport delivers the aggregate report. On success it records the
// delivery outcome on the report itself (Sent, SentAt); on failure the
// report is left unsent and the error is returned for the caller to log.
func (s *Service) SendReport(ctx context.Context, dest string, r *model.Report, interval time.Duration) error {
	msg := FormatReport(r, s.username, interval)
	if err := s.sendHTML(ctx, dest, msg); err != nil {
		return err
	}
	r.Sent = true
	r.SentAt = time.Now()
	return nil
}

// SendBlockedAlert delivers the immediate alert for one newly blocked
// domain. Called once per SAFE→BLOCKED transition, before the user's
// aggregate report.
func (s *Service) SendBlockedAlert(ctx context.Context, dest, domain string) error {
	return s.sendHTML(ctx, dest, FormatBlockedAlert(domain, s.username, time.Now()))
}

// TestConnection sends a short probe message so an operator can verify the
// bot actually reaches the configured chat.
func (s *Service) TestConnection(ctx context.Context, dest string) error {
	msg := "✅ Koneksi berhasil!\n\nBot terhubung dengan chat ini."
	if s.username != "" {
		msg = fmt.Sprintf("✅ Koneksi berhasil!\n\nBot @%s terhubung dengan chat ini.", s.username)
	}
	return s.sendHTML(ctx, dest, msg)
}

func (s *Service) sendHTML(ctx context.Context, dest, html string) error {
	chatID, err := ParseDestination(dest)
	if err != nil {
		return err
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	_, err = s.bot.Send(&tele.Chat{ID: chatID}, html, &tele.SendOptions{
		ParseMode:             tele.ModeHTML,
		DisableWebPagePreview: true,
	})
	if err != nil {
		s.log.Warn("telegram send failed", logx.Int64("chat_id", chatID), logx.Err(err))
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
