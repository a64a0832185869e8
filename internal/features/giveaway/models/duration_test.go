package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "discord-giveaways/internal/common/errors"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input string
		want  time.Duration
	}{
		{input: "10s", want: 10 * time.Second},
		{input: "5m", want: 5 * time.Minute},
		{input: "2h", want: 2 * time.Hour},
		{input: "1d", want: 24 * time.Hour},
		{input: "1d 2h 3m", want: 26*time.Hour + 3*time.Minute},
		{input: "1d 2h 3m 4s", want: 26*time.Hour + 3*time.Minute + 4*time.Second},
		{input: "1d 30s", want: 24*time.Hour + 30*time.Second},
		{input: "2h 45m", want: 2*time.Hour + 45*time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDuration(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDurationRejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "free text", input: "tomorrow"},
		{name: "unknown unit", input: "5x"},
		{name: "unit without value", input: "d"},
		{name: "negative", input: "-5m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDuration(tt.input)
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidDuration))
		})
	}
}
