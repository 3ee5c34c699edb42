package notifier

import (
	"fmt"
	"strings"
	"time"

	"nawalabot/internal/model"
	"nawalabot/pkg/tgui"
)

const divider = "━━━━━━━━━━━━━━━━━━━━"

// Report timestamps are rendered in the Indonesian dd/mm/yyyy convention.
const reportTimeFormat = "02/01/2006 15:04"

func statusEmoji(s model.Status) string {
	switch s {
	case model.StatusSafe:
		return "✅"
	case model.StatusBlocked:
		return "🚫"
	default:
		return "⚠️"
	}
}

func statusLabel(s model.Status) string {
	switch s {
	case model.StatusSafe:
		return "AMAN"
	case model.StatusBlocked:
		return "DIBLOKIR"
	default:
		return string(s)
	}
}

// FormatReport renders the per-user aggregate report as Telegram HTML.
func FormatReport(r *model.Report, botUsername string, interval time.Duration) string {
	var b strings.Builder

	b.WriteString(tgui.Bf("📊 LAPORAN MONITORING - %s", r.RunAt.Format(reportTimeFormat)).String())
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "%s %d\n", tgui.B("Total Domain:"), r.TotalDomains)
	fmt.Fprintf(&b, "✅ %s %d\n", tgui.B("Domain Aman:"), r.SafeCount)
	fmt.Fprintf(&b, "🚫 %s %d\n", tgui.B("Domain Diblokir:"), r.BlockedCount)
	if r.ErrorCount > 0 {
		fmt.Fprintf(&b, "⚠️ %s %d\n", tgui.B("Domain Error:"), r.ErrorCount)
	}

	if len(r.Entries) > 0 {
		b.WriteString("\n")
		b.WriteString(tgui.B("Detail Status:").String())
		b.WriteString("\n" + divider + "\n")
		for _, e := range r.Entries {
			changed := ""
			if e.Changed {
				changed = " ⚠️ BERUBAH"
			}
			fmt.Fprintf(&b, "%s %s - %s%s\n",
				statusEmoji(e.Status), tgui.Code(e.Domain), tgui.B(statusLabel(e.Status)), changed)
		}
	}

	b.WriteString("\n" + divider + "\n")
	if botUsername != "" {
		fmt.Fprintf(&b, "🤖 Bot: @%s\n", strings.TrimPrefix(botUsername, "@"))
	}
	fmt.Fprintf(&b, "⏰ Update setiap %s", formatInterval(interval))
	return b.String()
}

// FormatBlockedAlert renders the immediate alert for one newly blocked
// domain as Telegram HTML.
func FormatBlockedAlert(domain, botUsername string, at time.Time) string {
	var b strings.Builder
	b.WriteString("🚨 " + tgui.B("ALERT: DOMAIN DIBLOKIR").String() + "\n\n")
	fmt.Fprintf(&b, "Domain %s telah terdeteksi DIBLOKIR oleh TrustPositif!\n\n", tgui.Code(domain))
	fmt.Fprintf(&b, "⏰ %s", at.Format(reportTimeFormat))
	if botUsername != "" {
		fmt.Fprintf(&b, "\n🤖 Bot: @%s", strings.TrimPrefix(botUsername, "@"))
	}
	return b.String()
}

func formatInterval(d time.Duration) string {
	if d <= 0 {
		d = 5 * time.Minute
	}
	if d < time.Hour {
		return fmt.Sprintf("%d menit", int(d.Round(time.Minute)/time.Minute))
	}
	return fmt.Sprintf("%.1f jam", d.Hours())
}
