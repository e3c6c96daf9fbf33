package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/abhinaya/internal/capture"
	"github.com/ayusman/abhinaya/internal/landmark"
)

// IdleTimeout is how long the Python process may sit unused before it is stopped.
const IdleTimeout = 30 * time.Second

const scriptName = "mediapipe_service.py"

// ErrScriptNotFound is returned when the tracker script cannot be located.
var ErrScriptNotFound = errors.New(scriptName + " not found")

// MediaPipeDetector implements Detector using a Python MediaPipe subprocess.
// Frames go to stdin as a 4-byte big-endian length followed by a JPEG;
// each reply is one JSON line.
type MediaPipeDetector struct {
	config     Config
	scriptPath string
	cmd        *exec.Cmd
	stdin      io.WriteCloser
	stdout     *bufio.Reader
	mu         sync.Mutex
	started    bool
	idleTimer  *time.Timer
}

// NewMediaPipeDetector locates the tracker script. The Python process is
// started lazily on first detection.
func NewMediaPipeDetector(config Config, dataDir string) (*MediaPipeDetector, error) {
	scriptPath := findMediaPipeScript(dataDir)
	if scriptPath == "" {
		return nil, ErrScriptNotFound
	}

	return &MediaPipeDetector{
		config:     config,
		scriptPath: scriptPath,
	}, nil
}

// Detect sends a frame to the trackers and waits for the reply.
func (d *MediaPipeDetector) Detect(frame *gocv.Mat) (*Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureStarted(); err != nil {
		return nil, err
	}

	data, err := capture.EncodeMatJPEG(frame)
	if err != nil {
		return nil, err
	}

	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))

	if _, err := d.stdin.Write(length); err != nil {
		return nil, fmt.Errorf("write length: %w", err)
	}
	if _, err := d.stdin.Write(data); err != nil {
		return nil, fmt.Errorf("write data: %w", err)
	}

	line, err := d.stdout.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	result, err := parseResponse(line)
	if err != nil {
		return nil, err
	}

	d.resetIdleTimer()
	return result, nil
}

// Close shuts down the Python process.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown()
}

func (d *MediaPipeDetector) args() []string {
	args := []string{
		d.scriptPath,
		"--max-hands", strconv.Itoa(d.config.MaxHands),
		"--min-detection", strconv.FormatFloat(d.config.MinConfidence, 'f', -1, 64),
		"--min-tracking", strconv.FormatFloat(d.config.MinTrackingConf, 'f', -1, 64),
	}
	if d.config.Face {
		args = append(args, "--face")
	}
	if d.config.Expressions {
		args = append(args, "--expressions")
	}
	return args
}

func (d *MediaPipeDetector) ensureStarted() error {
	if d.started {
		return nil
	}

	pythonPath := findVenvPython()
	if pythonPath == "" {
		pythonPath = "python3"
	}

	d.cmd = exec.Command(pythonPath, d.args()...)

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	d.cmd.Stderr = os.Stderr

	if err := d.cmd.Start(); err != nil {
		return fmt.Errorf("start mediapipe service: %w", err)
	}

	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	d.started = true

	return nil
}

func (d *MediaPipeDetector) shutdown() error {
	if !d.started {
		return nil
	}

	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}

	if d.stdin != nil {
		d.stdin.Close()
	}

	err := d.cmd.Wait()
	d.started = false
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil

	return err
}

func (d *MediaPipeDetector) resetIdleTimer() {
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(IdleTimeout, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.shutdown()
	})
}

func findMediaPipeScript(dataDir string) string {
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		filepath.Join("scripts", scriptName),
		filepath.Join("..", "scripts", scriptName),
		filepath.Join(execDir, "scripts", scriptName),
	}
	if dataDir != "" {
		candidates = append(candidates, filepath.Join(dataDir, "scripts", scriptName))
	}

	return firstExisting(candidates)
}

// findVenvPython looks for a Python interpreter in a virtual environment
// next to the working directory or the executable.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	return firstExisting([]string{
		"venv/bin/python",
		"../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
	})
}

func firstExisting(paths []string) string {
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if abs, err := filepath.Abs(path); err == nil {
				return abs
			}
			return path
		}
	}
	return ""
}

// jsonResponse is one reply line from the Python service.
type jsonResponse struct {
	Hands       []jsonHand         `json:"hands"`
	Face        *jsonFace          `json:"face"`
	Expressions map[string]float64 `json:"expressions"`
	Error       string             `json:"error"`
}

type jsonHand struct {
	Points     []landmark.Point3D `json:"points"`
	Handedness string             `json:"handedness"`
	Score      float64            `json:"score"`
}

type jsonFace struct {
	Points []landmark.Point3D `json:"points"`
}

// parseResponse converts a reply line. Hands NewHand rejects are dropped;
// a short face mesh is reported as no face.
func parseResponse(line []byte) (*Result, error) {
	var resp jsonResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("mediapipe service: %s", resp.Error)
	}

	result := &Result{
		Hands:       make([]landmark.HandLandmarks, 0, len(resp.Hands)),
		Expressions: resp.Expressions,
	}
	for _, h := range resp.Hands {
		hand, err := landmark.NewHand(h.Points, h.Handedness, h.Score)
		if err != nil {
			continue
		}
		result.Hands = append(result.Hands, hand)
	}

	if resp.Face != nil {
		face := &landmark.FaceLandmarks{Points: resp.Face.Points}
		if face.Validate() == nil {
			result.Face = face
		}
	}

	return result, nil
}
