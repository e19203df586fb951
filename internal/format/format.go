// Package format turns raw dataset rows into the result envelope.
package format

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/Unknown-2829/Hitek-db-api-web/internal/model"
)

// NotAvailable is what an address cleans to when nothing is left.
const NotAvailable = "N/A"

var separatorRun = regexp.MustCompile(`[,\s]{2,}`)

// CleanAddress converts '!' field markers to ", ", collapses separator runs
// and trims separators from both ends. It is idempotent.
func CleanAddress(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, "!!", ", ")
	s = strings.ReplaceAll(s, "!", ", ")
	s = separatorRun.ReplaceAllString(s, ", ")
	s = strings.TrimFunc(s, func(r rune) bool { return r == ',' || unicode.IsSpace(r) })
	if s == "" {
		return NotAvailable
	}
	return s
}

// orderedSet keeps first-seen order and drops placeholders.
type orderedSet struct {
	seen  map[string]struct{}
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: map[string]struct{}{}, items: []string{}}
}

func (s *orderedSet) add(v string) {
	v = strings.TrimSpace(v)
	if isPlaceholder(v) {
		return
	}
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.items = append(s.items, v)
}

func isPlaceholder(v string) bool {
	switch v {
	case "", "None", "none", "null", "NULL", NotAvailable:
		return true
	}
	return false
}

// Build merges records into a SearchResult. Every list is deduplicated in
// first-seen order, so building the same records twice yields equal output.
func Build(records []model.Record, q model.SearchQuery, elapsed time.Duration) model.SearchResult {
	phones, names, fnames := newOrderedSet(), newOrderedSet(), newOrderedSet()
	emails, addrs, regions := newOrderedSet(), newOrderedSet(), newOrderedSet()

	for _, r := range records {
		phones.add(r.Phone)
		phones.add(r.AltPhone)
		names.add(r.Name)
		fnames.add(r.FatherName)
		emails.add(r.Email)
		addrs.add(CleanAddress(r.Address))
		regions.add(r.Region)
	}

	query := q.Normalized
	if query == "" {
		query = strings.TrimSpace(q.Raw)
	}
	return model.SearchResult{
		Found:          len(records) > 0,
		Query:          query,
		Kind:           q.Kind,
		ResponseTimeMS: Millis(elapsed),
		TotalRecords:   len(records),
		TotalPhones:    len(phones.items),
		Phones:         phones.items,
		Names:          names.items,
		FatherNames:    fnames.items,
		Emails:         emails.items,
		Addresses:      addrs.items,
		Regions:        regions.items,
	}
}

// Millis renders d in milliseconds with two decimals.
func Millis(d time.Duration) float64 {
	return math.Round(float64(d)/float64(time.Millisecond)*100) / 100
}

// Uptime renders d as "1d 2h 3m 4s", omitting leading zero units.
func Uptime(d time.Duration) string {
	total := int64(d / time.Second)
	if total < 0 {
		total = 0
	}
	days := total / 86400
	hours := total % 86400 / 3600
	mins := total % 3600 / 60
	secs := total % 60

	var b strings.Builder
	write := func(v int64, unit string) {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.FormatInt(v, 10))
		b.WriteString(unit)
	}
	if days > 0 {
		write(days, "d")
	}
	if days > 0 || hours > 0 {
		write(hours, "h")
	}
	if days > 0 || hours > 0 || mins > 0 {
		write(mins, "m")
	}
	write(secs, "s")
	return b.String()
}
