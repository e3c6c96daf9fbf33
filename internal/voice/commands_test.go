package voice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		transcript string
		want       []Command
	}{
		{"start camera", []Command{StartCamera}},
		{"  Please START Camera now ", []Command{StartCamera}},
		{"save picture", []Command{SavePicture}},
		{"zoom", []Command{Zoom}},
		{"zoom in a bit", []Command{Zoom}},
		{"save picture and zoom", []Command{SavePicture, Zoom}},
		{"zoom then start camera", []Command{StartCamera, Zoom}},
		{"hello there", nil},
		{"", nil},
		{"take a photo", nil},
	}

	for _, tt := range tests {
		t.Run(tt.transcript, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.transcript))
		})
	}
}
