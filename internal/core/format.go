package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatCurrency formats an amount as US dollars, e.g. "$1,234.56".
func FormatCurrency(m Money) string {
	cents := m.Cents
	neg := cents < 0
	if neg {
		cents = -cents
	}
	s := "$" + groupThousands(cents/100) + "." + fmt.Sprintf("%02d", cents%100)
	if neg {
		return "-" + s
	}
	return s
}

// FormatTransactionAmount prefixes the unsigned amount with the direction,
// e.g. "+ 460.00" for a credit and "- 40.99" for a debit.
func FormatTransactionAmount(m Money, credit bool) string {
	sign := "- "
	if credit {
		sign = "+ "
	}
	return sign + strings.Replace(FormatCurrency(m), "$", "", 1)
}

// FormatRelativeTime renders a timestamp relative to now:
// "Just now", "5 hours ago", "Yesterday", "3 days ago", or "Jan 15".
func FormatRelativeTime(t, now time.Time) string {
	diff := now.Sub(t)
	hours := int64(diff / time.Hour)
	days := int64(diff / (24 * time.Hour))
	switch {
	case hours < 1:
		return "Just now"
	case hours < 24:
		return fmt.Sprintf("%d hours ago", hours)
	case days == 1:
		return "Yesterday"
	case days < 7:
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.Format("Jan 02")
	}
}

// FormatDate renders a timestamp like "Jan 15, 2025".
func FormatDate(t time.Time) string {
	return t.Format("Jan 02, 2006")
}

func groupThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
	}
	for i := pre; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
