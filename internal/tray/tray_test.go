package tray

import (
	"testing"

	"github.com/ayusman/abhinaya/internal/app"
	"github.com/ayusman/abhinaya/internal/interaction"
	"github.com/ayusman/abhinaya/internal/store"
)

func TestTitles(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"camera on", cameraTitle(true), "● Camera on"},
		{"camera off", cameraTitle(false), "○ Camera off"},
		{"recording", recordingTitle(true), "● Recording"},
		{"idle", recordingTitle(false), "Not recording"},
		{"no artifact", lastTitle(""), "Last: none"},
		{"artifact", lastTitle("snapshot_1.png"), "Last: snapshot_1.png"},
		{"status", statusTitle(interaction.New().View()), "Zoom 1.0x  😐 Neutral"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestApply_WithoutMenu(t *testing.T) {
	tr := New()

	tr.Apply(app.Notification{Kind: app.NotifyCamera, Camera: true})
	if !tr.Camera() {
		t.Error("camera state not applied")
	}

	view := interaction.New().View()
	view.Recording = true
	tr.Apply(app.Notification{Kind: app.NotifyView, View: view})
	tr.Apply(app.Notification{Kind: app.NotifyArtifact, Artifact: &store.Artifact{Filename: "recording_5.webm"}})

	tr.mu.RLock()
	defer tr.mu.RUnlock()
	if !tr.view.Recording {
		t.Error("view not applied")
	}
	if tr.last != "recording_5.webm" {
		t.Errorf("last = %q", tr.last)
	}
}

func TestHandleCamera_RequestsOpposite(t *testing.T) {
	tr := New()

	var got []bool
	tr.OnCamera(func(on bool) { got = append(got, on) })

	tr.handleCamera()
	tr.Apply(app.Notification{Kind: app.NotifyCamera, Camera: true})
	tr.handleCamera()

	if len(got) != 2 || !got[0] || got[1] {
		t.Errorf("requests = %v, want [true false]", got)
	}
}

func TestWatch_StopsOnClose(t *testing.T) {
	tr := New()
	ch := make(chan app.Notification, 1)
	ch <- app.Notification{Kind: app.NotifyCamera, Camera: true}
	close(ch)

	tr.Watch(ch)
	if !tr.Camera() {
		t.Error("notification before close not applied")
	}
}
