// Package hook runs user executables after artifacts are saved.
package hook

import (
	"encoding/json"
	"slices"

	"github.com/ayusman/abhinaya/internal/store"
)

// EventArtifactSaved is the only event hooks receive today.
const EventArtifactSaved = "artifact_saved"

// Manifest describes a hook and the artifacts it wants.
type Manifest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Executable  string `json:"executable"`
	// Kinds limits the hook to some artifact kinds; empty means every kind.
	Kinds []store.ArtifactKind `json:"kinds,omitempty"`
}

// Request is written to the hook's stdin.
type Request struct {
	Event    string          `json:"event"`
	Artifact *store.Artifact `json:"artifact"`
	Path     string          `json:"path"`
}

// Response is read from the hook's stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Hook is a discovered hook with its manifest and location.
type Hook struct {
	Manifest   Manifest
	Dir        string
	Executable string
}

// Accepts reports whether the hook runs for artifacts of kind.
func (h *Hook) Accepts(kind store.ArtifactKind) bool {
	return len(h.Manifest.Kinds) == 0 || slices.Contains(h.Manifest.Kinds, kind)
}
