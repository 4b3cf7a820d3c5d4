package uploader

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGateVerify(t *testing.T) {
	tests := []struct {
		name     string
		secret   string
		provided string
		want     bool
	}{
		{"exact match", "s3cret", "s3cret", true},
		{"mismatch", "s3cret", "guess", false},
		{"empty provided", "s3cret", "", false},
		{"empty configured", "", "", false},
		{"case sensitive", "s3cret", "S3cret", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewGate(tt.secret).Verify(tt.provided))
		})
	}
}
