package bot

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/Unknown-2829/Hitek-db-api-web/internal/format"
	"github.com/Unknown-2829/Hitek-db-api-web/internal/model"
	"github.com/Unknown-2829/Hitek-db-api-web/internal/services"
)

const rule = "───────────────────────────────"

var kindLabels = map[model.FieldKind]string{
	model.KindIdentifier: "MOBILE",
	model.KindName:       "NAME",
	model.KindEmail:      "EMAIL",
	model.KindAddress:    "ADDRESS",
	model.KindFatherName: "FATHER NAME",
}

func kindLabel(k model.FieldKind) string {
	if l, ok := kindLabels[k]; ok {
		return l
	}
	return strings.ToUpper(string(k))
}

func renderResult(res model.SearchResult) string {
	var b strings.Builder
	if !res.Found {
		fmt.Fprintf(&b, "❌ TARGET NOT FOUND\n\n")
		fmt.Fprintf(&b, "Target : %s\n", res.Query)
		fmt.Fprintf(&b, "Method : %s  %.0fms\n\n", kindLabel(res.Kind), res.ResponseTimeMS)
		b.WriteString("Verify the query and try again.")
		return b.String()
	}

	hits := "HIT"
	if res.TotalRecords > 1 {
		hits = "HITS"
	}
	fmt.Fprintf(&b, "🎯 TARGET LOCATED, %d %s\n\n", res.TotalRecords, hits)
	fmt.Fprintf(&b, "Query  : %s\n", res.Query)
	fmt.Fprintf(&b, "Method : %s  %.0fms\n", kindLabel(res.Kind), res.ResponseTimeMS)
	b.WriteString(rule + "\n")
	section(&b, "📱 Phones", res.Phones)
	section(&b, "👤 Names", res.Names)
	section(&b, "👨 Father names", res.FatherNames)
	section(&b, "📧 Emails", res.Emails)
	section(&b, "📍 Addresses", res.Addresses)
	section(&b, "📡 Regions", res.Regions)
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "📊 %d records, %d phones", res.TotalRecords, res.TotalPhones)
	return b.String()
}

func section(b *strings.Builder, title string, values []string) {
	if len(values) == 0 {
		return
	}
	fmt.Fprintf(b, "%s:\n", title)
	for _, v := range values {
		fmt.Fprintf(b, "  • %s\n", v)
	}
}

func renderStats(st services.Stats) string {
	icon := "🔒"
	if st.Mode == model.ModePublic {
		icon = "🌐"
	}
	return fmt.Sprintf("📊 Statistics\n\n"+
		"🔍 Searches : %s\n"+
		"👥 Users    : %s\n"+
		"%s Mode     : %s\n"+
		"⏱ Uptime   : %s",
		humanize.Comma(int64(st.TotalSearches)),
		humanize.Comma(int64(st.Population.Total)),
		icon, strings.ToUpper(string(st.Mode)),
		format.Uptime(st.Uptime))
}

func renderDatasetStats(ds model.DatasetStats) string {
	return fmt.Sprintf("💾 Database\n\n"+
		"📊 Rows (approx) : %s\n"+
		"💽 Size          : %s\n"+
		"🔧 Driver        : %s",
		humanize.Comma(ds.ApproxRows), humanize.IBytes(uint64(max(ds.SizeBytes, 0))), ds.Driver)
}

func renderMode(m model.AccessMode) string {
	icon := "🔒"
	if m == model.ModePublic {
		icon = "🌐"
	}
	return fmt.Sprintf("%s Current mode: %s", icon, strings.ToUpper(string(m)))
}

func renderReport(rep model.BroadcastReport) string {
	head := "✅ Broadcast complete"
	if rep.Canceled {
		head = "🛑 Broadcast stopped"
	}
	return fmt.Sprintf("%s\n📨 Sent: %d\n❌ Failed: %d", head, rep.Sent, rep.Failed)
}

const welcomeText = `⚡ HiTek OSINT ⚡

📊 1.78B records indexed
⚡ Instant mobile lookup

📱 Quick start:
  ▸ Send any 10-digit mobile
  ▸ /search 9876543210

📋 Commands:
  /help  - Command list
  /stats - Statistics`

const helpText = `📖 Command list

🔍 Search:
  /search <mobile or name>
  /email <address>
  /addr <address text>
  /fname <father name>
  Or just send a 10-digit number

📊 Info:
  /stats - Bot statistics
  /help  - This menu

📱 Input:
  ✅ 9876543210
  🔄 +91 98765 43210 → auto-fix
  🔄 09876543210 → auto-fix`

const adminText = `🔐 Admin panel

⚙️ System:
  /setmode <public|private>
  /getmode - Current mode

📝 Logs:
  /logs     - Download log
  /clearlog - Clear log

📊 Stats:
  /dbstats - Database info
  /users   - User count

📡 Broadcast:
  /alert <msg>
  /stopalert [id]

🚫 Moderation:
  /ban <id> · /unban <id> · /banlist`
