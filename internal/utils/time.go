package utils

import (
	"fmt"
	"strings"
	"time"
)

func pluralize(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// FormatRemaining – "2 dias 3 horas", "45 minutos"; minutes are dropped once days are shown
func FormatRemaining(d time.Duration) string {
	if d < time.Minute {
		return "menos de 1 minuto"
	}
	totalMinutes := int(d / time.Minute)
	days := totalMinutes / (24 * 60)
	hours := (totalMinutes % (24 * 60)) / 60
	minutes := totalMinutes % 60

	var parts []string
	if days != 0 {
		parts = append(parts, fmt.Sprintf("%d %s", days, pluralize(days, "dia", "dias")))
	}
	if hours != 0 {
		parts = append(parts, fmt.Sprintf("%d %s", hours, pluralize(hours, "hora", "horas")))
	}
	if minutes != 0 && days == 0 {
		parts = append(parts, fmt.Sprintf("%d %s", minutes, pluralize(minutes, "minuto", "minutos")))
	}
	return strings.Join(parts, " ")
}

var months = []string{
	"jan", "fev", "mar", "abr", "mai", "jun",
	"jul", "ago", "set", "out", "nov", "dez",
}

// FormatDate – brings a timestamp to the "03 dez 01:31" format
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%02d %s %02d:%02d",
		t.Day(), months[t.Month()-1], t.Hour(), t.Minute())
}
