package notifier

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"

	"nawalabot/internal/model"
	"nawalabot/pkg/logx"
)

type fakeSender struct {
	sent []string
	err  error
}

func (f *fakeSender) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	text, _ := what.(string)
	f.sent = append(f.sent, text)
	return &tele.Message{ID: len(f.sent)}, nil
}

func testService(f *fakeSender) *Service {
	return &Service{bot: f, username: "crozxy_ceknawala_bot", limiter: newLimiter(100), log: logx.Nop()}
}

func TestParseDestination(t *testing.T) {
	t.Parallel()
	for _, tt := range []struct {
		dest string
		want int64
		ok   bool
	}{
		{dest: "123456", want: 123456, ok: true},
		{dest: "-1001234567890", want: -1001234567890, ok: true},
		{dest: " 42 ", want: 42, ok: true},
		{dest: "", ok: false},
		{dest: "abc", ok: false},
		{dest: "12a3", ok: false},
	} {
		got, err := ParseDestination(tt.dest)
		if tt.ok && (err != nil || got != tt.want) {
			t.Fatalf("ParseDestination(%q) = %d, %v", tt.dest, got, err)
		}
		if !tt.ok && !errors.Is(err, ErrInvalidDestination) {
			t.Fatalf("ParseDestination(%q) err = %v, want ErrInvalidDestination", tt.dest, err)
		}
	}
}

func TestFormatReport(t *testing.T) {
	t.Parallel()
	r := &model.Report{
		RunAt:        time.Date(2026, 9, 1, 10, 30, 0, 0, time.UTC),
		TotalDomains: 3,
		SafeCount:    1,
		BlockedCount: 1,
		ErrorCount:   1,
		Entries: []model.ReportEntry{
			{Domain: "safe.com", Status: model.StatusSafe},
			{Domain: "blocked.id", Status: model.StatusBlocked, Changed: true},
			{Domain: "weird.net", Status: model.StatusError},
		},
	}
	msg := FormatReport(r, "crozxy_ceknawala_bot", 5*time.Minute)

	for _, want := range []string{
		"LAPORAN MONITORING - 01/09/2026 10:30",
		"<b>Total Domain:</b> 3",
		"<b>Domain Aman:</b> 1",
		"<b>Domain Diblokir:</b> 1",
		"<b>Domain Error:</b> 1",
		"<code>blocked.id</code>",
		"⚠️ BERUBAH",
		"@crozxy_ceknawala_bot",
		"Update setiap 5 menit",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("report missing %q:\n%s", want, msg)
		}
	}
	// Unchanged domains must not carry the change marker.
	if strings.Count(msg, "BERUBAH") != 1 {
		t.Fatalf("expected exactly one change marker:\n%s", msg)
	}
}

func TestFormatBlockedAlert(t *testing.T) {
	t.Parallel()
	msg := FormatBlockedAlert("blocked.id", "bot", time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC))
	for _, want := range []string{
		"ALERT: DOMAIN DIBLOKIR",
		"<code>blocked.id</code>",
		"01/09/2026 08:00",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("alert missing %q:\n%s", want, msg)
		}
	}
}

func TestFormatReportEscapesHTML(t *testing.T) {
	t.Parallel()
	r := &model.Report{
		RunAt:        time.Now(),
		TotalDomains: 1,
		ErrorCount:   1,
		Entries:      []model.ReportEntry{{Domain: "<script>.com", Status: model.StatusError}},
	}
	msg := FormatReport(r, "", time.Minute)
	if strings.Contains(msg, "<script>") {
		t.Fatalf("unescaped HTML in report:\n%s", msg)
	}
}

func TestSendReportRecordsDeliveryOutcome(t *testing.T) {
	t.Parallel()
	f := &fakeSender{}
	s := testService(f)

	r := &model.Report{RunAt: time.Now(), TotalDomains: 1, SafeCount: 1,
		Entries: []model.ReportEntry{{Domain: "a.com", Status: model.StatusSafe}}}
	if err := s.SendReport(context.Background(), "-100123", r, 5*time.Minute); err != nil {
		t.Fatalf("SendReport: %v", err)
	}
	if !r.Sent || r.SentAt.IsZero() {
		t.Fatalf("delivery outcome not recorded: %+v", r)
	}
	if len(f.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(f.sent))
	}
}

func TestSendReportFailureLeavesReportUnsent(t *testing.T) {
	t.Parallel()
	f := &fakeSender{err: errors.New("endpoint down")}
	s := testService(f)

	r := &model.Report{RunAt: time.Now(), TotalDomains: 2, SafeCount: 2,
		Entries: []model.ReportEntry{
			{Domain: "a.com", Status: model.StatusSafe},
			{Domain: "b.com", Status: model.StatusSafe},
		}}
	if err := s.SendReport(context.Background(), "-100123", r, time.Minute); err == nil {
		t.Fatal("expected delivery error")
	}
	if r.Sent || !r.SentAt.IsZero() {
		t.Fatalf("failed delivery must leave report unsent: %+v", r)
	}
	// Counts and entries are untouched by the failure.
	if r.TotalDomains != 2 || len(r.Entries) != 2 {
		t.Fatalf("report mutated by failed delivery: %+v", r)
	}
}

func TestSendBlockedAlertInvalidDestination(t *testing.T) {
	t.Parallel()
	s := testService(&fakeSender{})
	if err := s.SendBlockedAlert(context.Background(), "not-a-chat", "a.com"); !errors.Is(err, ErrInvalidDestination) {
		t.Fatalf("err = %v, want ErrInvalidDestination", err)
	}
}
