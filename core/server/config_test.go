package server_test

import (
	"testing"

	"file-storage/core/server"

	"github.com/stretchr/testify/assert"
)

func TestConfig_BodyLimit(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"Default", 0, 64 * 1024 * 1024},
		{"Negative", -1, 64 * 1024 * 1024},
		{"Custom", 8, 8 * 1024 * 1024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := server.Config{BodyLimitMB: tt.limit}
			assert.Equal(t, tt.want, c.BodyLimit())
		})
	}
}
