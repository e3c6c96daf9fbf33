// Package app wires the camera, the landmark detector and the interaction
// machine together and carries out the effects the machine produces.
package app

import (
	"context"
	"errors"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ayusman/abhinaya/internal/artifact"
	"github.com/ayusman/abhinaya/internal/capture"
	"github.com/ayusman/abhinaya/internal/detector"
	"github.com/ayusman/abhinaya/internal/hook"
	"github.com/ayusman/abhinaya/internal/interaction"
	"github.com/ayusman/abhinaya/internal/landmark"
	"github.com/ayusman/abhinaya/internal/logger"
	"github.com/ayusman/abhinaya/internal/metrics"
	"github.com/ayusman/abhinaya/internal/overlay"
	"github.com/ayusman/abhinaya/internal/store"
	"github.com/ayusman/abhinaya/internal/voice"
)

const (
	// DefaultQueueSize bounds the number of events waiting for the loop.
	DefaultQueueSize = 64
	// subscriberBuffer is the per-subscriber notification backlog; a slow
	// subscriber misses notifications instead of stalling the loop.
	subscriberBuffer = 32
)

var (
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("app is closed")
	// ErrNotStarted is returned by Dispatch before Start.
	ErrNotStarted = errors.New("app is not started")
	// ErrNoCamera is returned by StartCamera when the server runs without one.
	ErrNoCamera = errors.New("no camera configured")
)

// Config holds configuration options for the application.
type Config struct {
	Artifacts *artifact.Writer
	Metrics   *metrics.Metrics
	// Hooks run after each saved artifact; nil disables them.
	Hooks   *hook.Manager
	DataDir string
	// CameraID selects the capture device; negative runs without a server camera.
	CameraID int
	// MotionThresh is the activity gate threshold in percent of pixels; 0 disables it.
	MotionThresh float64
	QueueSize    int
}

// NotificationKind tells subscribers what changed.
type NotificationKind string

const (
	NotifyView     NotificationKind = "view"
	NotifyEffect   NotificationKind = "effect"
	NotifyArtifact NotificationKind = "artifact"
	NotifyCamera   NotificationKind = "camera"
)

// Notification is delivered to subscribers after the loop applies an event.
type Notification struct {
	Kind   NotificationKind
	View   interaction.View
	Effect interaction.Effect
	// Handled is set on snapshot effects the server already saved.
	Handled  bool
	Artifact *store.Artifact
	Camera   bool
}

type queued struct {
	ev interaction.Event
	// epoch is the camera generation a pipeline event came from; 0 for
	// events from clients.
	epoch uint64
}

// App is the overlay service.
type App struct {
	config   Config
	metrics  *metrics.Metrics
	machine  *interaction.Machine
	events   chan queued
	detector detector.Detector
	camera   capture.Camera
	gate     *capture.ActivityGate

	hookRunner *hook.Runner
	hooks      sync.WaitGroup

	// epoch increments every time the camera stops so that in-flight
	// pipeline results can be recognized and discarded.
	epoch atomic.Uint64

	stateMu sync.RWMutex
	view    interaction.View
	hands   []landmark.HandLandmarks
	frame   image.Image

	subMu  sync.Mutex
	subs   map[int]chan Notification
	nextID int

	mu          sync.Mutex
	started     bool
	closed      bool
	hooksClosed bool
	done        chan struct{}
	loopDone    chan struct{}
	cameraStop  chan struct{}
	pipeDone    chan struct{}
}

// New creates an App. The MediaPipe detector is used when its script can be
// found; otherwise a detector that finds nothing is installed.
func New(config Config) *App {
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultQueueSize
	}
	m := config.Metrics
	if m == nil {
		m = metrics.New()
	}

	a := &App{
		config:     config,
		metrics:    m,
		machine:    interaction.New(),
		events:     make(chan queued, config.QueueSize),
		gate:       capture.NewActivityGate(config.MotionThresh, capture.DefaultHold),
		hookRunner: hook.NewRunner(hook.DefaultTimeout),
		subs:       make(map[int]chan Notification),
		done:       make(chan struct{}),
	}
	a.view = a.machine.View()
	// Client events carry epoch 0, so camera runs start at 1.
	a.epoch.Store(1)

	if config.CameraID >= 0 {
		a.camera = capture.NewCamera(config.CameraID)
	}

	if mp, err := detector.NewMediaPipeDetector(detector.DefaultConfig(), config.DataDir); err == nil {
		a.detector = mp
		logger.Info("App", "Using MediaPipe landmark detection")
	} else {
		logger.Warn("App", "MediaPipe not available (%v), landmarks come from clients only", err)
		a.detector = detector.NewMockDetector()
	}

	return a
}

// SetDetector replaces the landmark detector. Call before StartCamera.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// SetCamera replaces the camera. Call before StartCamera.
func (a *App) SetCamera(c capture.Camera) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.camera = c
}

// Metrics returns the counters the app updates.
func (a *App) Metrics() *metrics.Metrics { return a.metrics }

// Start launches the event loop.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrClosed
	}
	if a.started {
		return nil
	}

	a.started = true
	a.loopDone = make(chan struct{})
	go a.runLoop()

	logger.Info("App", "Event loop started")
	return nil
}

// Close stops the camera and the loop and releases the detector. A
// recording still in progress is finalized and saved first.
func (a *App) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.mu.Unlock()

	if err := a.StopCamera(); err != nil && !errors.Is(err, ErrNoCamera) {
		logger.Warn("App", "Error stopping camera: %v", err)
	}
	a.stopRecording()

	a.mu.Lock()
	a.closed = true
	started := a.started
	close(a.done)
	det := a.detector
	a.mu.Unlock()

	if started {
		<-a.loopDone
	}

	a.gate.Close()

	a.mu.Lock()
	a.hooksClosed = true
	a.mu.Unlock()
	a.hooks.Wait()

	a.subMu.Lock()
	for id, ch := range a.subs {
		close(ch)
		delete(a.subs, id)
	}
	a.subMu.Unlock()

	var err error
	if det != nil {
		err = det.Close()
	}
	logger.Info("App", "Stopped")
	return err
}

// Dispatch queues an event for the loop. It blocks only while the queue is
// full, until ctx is done.
func (a *App) Dispatch(ctx context.Context, ev interaction.Event) error {
	return a.post(ctx, queued{ev: ev})
}

func (a *App) post(ctx context.Context, q queued) error {
	a.mu.Lock()
	started, closed := a.started, a.closed
	a.mu.Unlock()

	if closed {
		return ErrClosed
	}
	if !started {
		return ErrNotStarted
	}

	select {
	case a.events <- q:
		return nil
	case <-a.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// View returns the latest visible state.
func (a *App) View() interaction.View {
	a.stateMu.RLock()
	defer a.stateMu.RUnlock()
	return a.view
}

// Subscribe returns a channel of notifications and a function that
// unsubscribes. The channel is closed on unsubscribe or Close.
func (a *App) Subscribe() (<-chan Notification, func()) {
	ch := make(chan Notification, subscriberBuffer)

	a.subMu.Lock()
	id := a.nextID
	a.nextID++
	a.subs[id] = ch
	a.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			a.subMu.Lock()
			defer a.subMu.Unlock()
			if c, ok := a.subs[id]; ok {
				close(c)
				delete(a.subs, id)
			}
		})
	}
}

func (a *App) publish(n Notification) {
	a.subMu.Lock()
	defer a.subMu.Unlock()
	for _, ch := range a.subs {
		select {
		case ch <- n:
		default:
		}
	}
}

// RenderOverlay draws the current view over the latest camera frame. It
// returns false when no frame has been captured.
func (a *App) RenderOverlay() (*image.RGBA, bool) {
	a.stateMu.RLock()
	frame, hands, view := a.frame, a.hands, a.view
	a.stateMu.RUnlock()

	if frame == nil {
		return nil, false
	}
	return overlay.Render(frame, hands, view), true
}

func (a *App) setFrame(img image.Image) {
	a.stateMu.Lock()
	a.frame = img
	a.stateMu.Unlock()
}

// runLoop is the only goroutine that touches the machine.
func (a *App) runLoop() {
	defer close(a.loopDone)

	for {
		select {
		case <-a.done:
			a.drain()
			return
		case q := <-a.events:
			a.apply(q)
		}
	}
}

// drain applies what is already queued so that a stop requested just
// before Close still finalizes the recording.
func (a *App) drain() {
	for {
		select {
		case q := <-a.events:
			a.apply(q)
		default:
			return
		}
	}
}

func (a *App) apply(q queued) {
	if q.epoch != 0 && q.epoch != a.epoch.Load() {
		// Result of a frame captured before the camera stopped.
		return
	}

	if hf, ok := q.ev.(interaction.HandFrameResult); ok {
		a.metrics.ObserveHands(len(hf.Hands))
		a.stateMu.Lock()
		a.hands = hf.Hands
		a.stateMu.Unlock()
	}
	if chunk, ok := q.ev.(interaction.RecordingChunk); ok {
		a.metrics.RecordingBytes.Add(uint64(len(chunk.Data)))
	}
	if tr, ok := q.ev.(interaction.TranscriptResult); ok {
		logger.Debug("App", "Transcript: %q", tr.Text)
		for _, cmd := range voice.Parse(tr.Text) {
			a.metrics.ObserveVoice(string(cmd))
		}
	}

	effects := a.machine.Apply(q.ev)
	a.metrics.EventsApplied.Add(1)

	view := a.machine.View()
	a.stateMu.Lock()
	changed := view != a.view
	a.view = view
	a.stateMu.Unlock()

	if changed {
		a.metrics.SetZoom(view.Scale)
		a.metrics.RecordingActive.Store(view.Recording)
		a.publish(Notification{Kind: NotifyView, View: view})
	}

	for _, e := range effects {
		a.execute(e)
	}
}

// CameraRunning reports whether the server camera pipeline is active.
func (a *App) CameraRunning() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cameraStop != nil
}

// StartCamera opens the camera and starts the detection pipeline. Starting
// a running camera is a no-op.
func (a *App) StartCamera() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrClosed
	}
	if a.camera == nil {
		return ErrNoCamera
	}
	if a.cameraStop != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return err
	}
	a.gate.Reset()

	a.cameraStop = make(chan struct{})
	a.pipeDone = make(chan struct{})
	go a.runPipeline(a.epoch.Load(), a.camera, a.detector, a.cameraStop, a.pipeDone)

	a.metrics.CameraRunning.Store(true)
	a.publish(Notification{Kind: NotifyCamera, Camera: true})
	logger.Info("App", "Camera started")
	return nil
}

// StopCamera stops the pipeline, discards results still in flight and
// stops an active recording.
func (a *App) StopCamera() error {
	a.mu.Lock()
	if a.camera == nil {
		a.mu.Unlock()
		return ErrNoCamera
	}
	if a.cameraStop == nil {
		a.mu.Unlock()
		return nil
	}

	a.epoch.Add(1)
	close(a.cameraStop)
	pipeDone := a.pipeDone
	a.cameraStop = nil
	a.pipeDone = nil
	a.mu.Unlock()

	<-pipeDone

	err := a.camera.Close()
	a.setFrame(nil)
	a.metrics.CameraRunning.Store(false)
	a.publish(Notification{Kind: NotifyCamera, Camera: false})

	a.stopRecording()

	logger.Info("App", "Camera stopped")
	return err
}

func (a *App) stopRecording() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := a.Dispatch(ctx, interaction.RecordingCommand{Start: false, At: time.Now()})
	if err != nil && !errors.Is(err, ErrNotStarted) && !errors.Is(err, ErrClosed) {
		logger.Warn("App", "Could not stop recording: %v", err)
	}
}
