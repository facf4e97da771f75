package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"", 0},
		{"12", 12},
		{" 5 ", 5},
		{"1,234", 1234},
		{"１２", 12},
		{"３個", 3},
		{"2.5", 2.5},
		{"１．５", 1.5},
		{"-3", 0},
		{"abc", 0},
		{"-", 0},
		{"NaN", 0},
		{"10本", 10},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseQuantity(tt.in))
		})
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"300", 300, true},
		{"０", 0, true},
		{"1,200", 1200, true},
		{"", 0, false},
		{"要見積", 0, false},
		{"-5", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseNumber(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}
