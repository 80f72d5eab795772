package main

import (
	"testing"

	"github.com/banshee-data/vessel.analysis/internal/config"
	"github.com/banshee-data/vessel.analysis/internal/scalebar"
	"github.com/stretchr/testify/assert"
)

func TestFlagDefaults(t *testing.T) {
	assert.Equal(t, "resources/images", *inputFolder)
	assert.Equal(t, "resources/scaled", *outputFolder)
	assert.Zero(t, *pixelSize)
	assert.Zero(t, *scaleBarLength)
}

func TestBarFor(t *testing.T) {
	cfg := config.EmptyAnalysisConfig()

	tests := []struct {
		name      string
		pixelSize float64
		length    float64
		want      scalebar.Bar
	}{
		{"config defaults", 0, 0, scalebar.Bar{PixelSize: 5, Length: 50}},
		{"flags win", 2, 20, scalebar.Bar{PixelSize: 2, Length: 20}},
		{"mixed", 0, 100, scalebar.Bar{PixelSize: 5, Length: 100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, barFor(cfg, tt.pixelSize, tt.length))
		})
	}

	px, err := barFor(cfg, 0, 0).Pixels()
	assert.NoError(t, err)
	assert.Equal(t, 10, px)
}
