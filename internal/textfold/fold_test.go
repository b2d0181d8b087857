package textfold

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFold(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"ascii", "Outdoor Seating", "outdoor seating"},
		{"vietnamese precomposed", "Đóng Cửa", "đóng cửa"},
		// "Cà" with a combining grave accent on the "a".
		{"vietnamese decomposed", "Ca\u0300 Phe\u0302", "cà phê"},
		{"narrow no-break space", "7:00\u202fAM", "7:00 am"},
		{"no-break space", "Thứ\u00a0Hai", "thứ hai"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Fold(tt.input))
		})
	}
}

func TestContainsAny(t *testing.T) {
	assert.True(t, ContainsAny("quán cà phê sân vườn", []string{"bar", "cà phê"}))
	assert.False(t, ContainsAny("nhà hàng", []string{"cafe", ""}))
	assert.False(t, ContainsAny("anything", nil))
}

func TestFoldAll(t *testing.T) {
	got := FoldAll([]string{" Wi-Fi ", "", "   ", "CHILL"})
	assert.Equal(t, []string{"wi-fi", "chill"}, got)
}
