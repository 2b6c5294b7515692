package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatRemaining(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{30 * time.Second, "menos de 1 minuto"},
		{time.Minute, "1 minuto"},
		{45 * time.Minute, "45 minutos"},
		{time.Hour + 5*time.Minute, "1 hora 5 minutos"},
		{26*time.Hour + 10*time.Minute, "1 dia 2 horas"},
		{72 * time.Hour, "3 dias"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, FormatRemaining(c.in), c.in.String())
	}
}

func TestFormatDate(t *testing.T) {
	ts := time.Date(2025, time.December, 3, 1, 31, 0, 0, time.UTC)
	assert.Equal(t, "03 dez 01:31", FormatDate(ts))
}
