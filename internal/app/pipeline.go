package app

import (
	"context"
	"errors"
	"time"

	"github.com/ayusman/abhinaya/internal/capture"
	"github.com/ayusman/abhinaya/internal/detector"
	"github.com/ayusman/abhinaya/internal/interaction"
	"github.com/ayusman/abhinaya/internal/logger"
)

// runPipeline reads frames at the camera FPS, keeps the latest one for
// rendering, runs the detector on frames the activity gate lets through and
// posts the results to the event loop tagged with epoch.
//
// The detector call has no timeout. A hung detector stalls this goroutine
// only; the event loop keeps serving clients.
func (a *App) runPipeline(epoch uint64, cam capture.Camera, det detector.Detector, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	fps := cam.FPS()
	if fps <= 0 {
		fps = capture.DefaultFPS
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-stop:
		case <-a.done:
		}
		cancel()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.processFrame(ctx, epoch, cam, det); err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, ErrClosed) {
					return
				}
				logger.Debug("Pipeline", "%v", err)
			}
		}
	}
}

func (a *App) processFrame(ctx context.Context, epoch uint64, cam capture.Camera, det detector.Detector) error {
	frame, err := cam.ReadFrame()
	if err != nil {
		return err
	}
	defer frame.Close()
	a.metrics.FramesRead.Add(1)

	if img, err := capture.MatToImage(frame); err == nil {
		a.setFrame(img)
	}

	now := time.Now()
	if ok, _ := a.gate.Allow(frame, now); !ok {
		a.metrics.FramesDropped.Add(1)
		return nil
	}

	start := time.Now()
	res, err := det.Detect(frame)
	a.metrics.UpdateDetectLatency(time.Since(start))
	if err != nil {
		a.metrics.DetectErrors.Add(1)
		logger.Warn("Pipeline", "Detection failed: %v", err)
		return nil
	}
	a.metrics.FramesProcessed.Add(1)

	at := time.Now()
	events := []interaction.Event{
		interaction.HandFrameResult{Hands: res.Hands, Width: frame.Cols(), Height: frame.Rows(), At: at},
		interaction.FaceFrameResult{Face: res.Face, At: at},
	}
	if res.Expressions != nil {
		events = append(events, interaction.ExpressionResult{Scores: res.Expressions})
	}

	for _, ev := range events {
		if err := a.post(ctx, queued{ev: ev, epoch: epoch}); err != nil {
			return err
		}
	}
	return nil
}
