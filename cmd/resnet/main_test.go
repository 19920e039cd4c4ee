package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsValidate(t *testing.T) {
	valid := options{batch: 1, height: 224, width: 224}
	require.NoError(t, valid.validate())

	tests := []struct {
		name string
		opts options
	}{
		{"zero batch", options{batch: 0, height: 224, width: 224}},
		{"negative height", options{batch: 1, height: -1, width: 224}},
		{"zero width", options{batch: 1, height: 224, width: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "must be positive")
		})
	}
}

func TestInputShape(t *testing.T) {
	opts := options{batch: 2, height: 32, width: 48}
	assert.Equal(t, []int{2, 3, 32, 48}, []int(opts.inputShape()))
}
