// Package testdata holds recorded interaction sequences for replay tests.
package testdata

import (
	"bufio"
	"bytes"
	"embed"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/ayusman/abhinaya/internal/interaction"
)

//go:embed sequences/*.jsonl
var sequencesFS embed.FS

// Sequence is a recorded list of events, one JSON envelope per line.
type Sequence struct {
	Name  string
	Lines [][]byte
}

// Events decodes every line. Lines without a timestamp are stamped with now.
func (s *Sequence) Events(now time.Time) ([]interaction.Event, error) {
	events := make([]interaction.Event, 0, len(s.Lines))
	for i, line := range s.Lines {
		ev, err := interaction.DecodeEvent(line, now)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", s.Name, i+1, err)
		}
		events = append(events, ev)
	}
	return events, nil
}

// LoadSequence loads a sequence by name, without the .jsonl extension.
func LoadSequence(name string) (*Sequence, error) {
	data, err := sequencesFS.ReadFile(path.Join("sequences", name+".jsonl"))
	if err != nil {
		return nil, fmt.Errorf("load sequence %s: %w", name, err)
	}

	seq := &Sequence{Name: name}
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		seq.Lines = append(seq.Lines, append([]byte(nil), line...))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read sequence %s: %w", name, err)
	}
	return seq, nil
}

// SequenceNames lists the embedded sequences.
func SequenceNames() ([]string, error) {
	entries, err := sequencesFS.ReadDir("sequences")
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".jsonl"))
	}
	return names, nil
}
