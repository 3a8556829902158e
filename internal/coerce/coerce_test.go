package coerce

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNumber(t *testing.T) {
	tests := []struct {
		name  string
		raw   interface{}
		want  float64
		valid bool
	}{
		{"decimal text", "12.5", 12.5, true},
		{"padded text", "  180.16 ", 180.16, true},
		{"negative", "-0.07", -0.07, true},
		{"exponent", "1e3", 1000, true},
		{"driver bytes", []byte("194.19"), 194.19, true},
		{"float", 42.0, 42, true},
		{"int64", int64(7), 7, true},
		{"letters", "abc", 0, false},
		{"nil", nil, 0, false},
		{"empty", "", 0, false},
		{"nan text", "NaN", 0, false},
		{"inf", math.Inf(1), 0, false},
		{"bool", true, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Number(tt.raw)
			assert.Equal(t, tt.valid, ok)
			if tt.valid {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestText(t *testing.T) {
	assert.Equal(t, "", Text(nil))
	assert.Equal(t, "C8H10N4O2", Text([]byte("C8H10N4O2")))
	assert.Equal(t, "180.16", Text(180.16))
	assert.Equal(t, "12", Text(int64(12)))
	assert.Equal(t, "true", Text(true))
	assert.Equal(t, "2024-01-02T03:04:05Z", Text(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)))
}
