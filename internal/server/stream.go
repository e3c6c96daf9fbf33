package server

import (
	"fmt"
	"image"
	"net/http"
	"time"

	"github.com/ayusman/abhinaya/internal/capture"
	"github.com/ayusman/abhinaya/internal/logger"
)

// DefaultStreamInterval paces the MJPEG stream at about 15 FPS.
const DefaultStreamInterval = 66 * time.Millisecond

// OverlayRenderer produces the frame the stream sends.
type OverlayRenderer interface {
	RenderOverlay() (*image.RGBA, bool)
}

// StreamHandler serves the rendered overlay as MJPEG.
type StreamHandler struct {
	source   OverlayRenderer
	interval time.Duration
}

// NewStreamHandler creates a StreamHandler over source.
func NewStreamHandler(source OverlayRenderer) *StreamHandler {
	return &StreamHandler{source: source, interval: DefaultStreamInterval}
}

// ServeHTTP streams frames until the client goes away. Ticks without a
// camera frame send nothing.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		img, ok := h.source.RenderOverlay()
		if !ok {
			continue
		}
		buf, err := capture.EncodeJPEG(img)
		if err != nil {
			logger.Debug("Stream", "encode frame: %v", err)
			continue
		}

		fmt.Fprintf(w, "--frame\r\n")
		fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
		fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(buf))
		if _, err := w.Write(buf); err != nil {
			return
		}
		fmt.Fprintf(w, "\r\n")

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}
