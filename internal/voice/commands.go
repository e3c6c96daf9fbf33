// Package voice interprets speech transcripts as overlay commands.
package voice

import "strings"

// Command is an action requested by voice.
type Command string

const (
	StartCamera Command = "start camera"
	SavePicture Command = "save picture"
	Zoom        Command = "zoom"
)

// Vocabulary lists the recognized commands in the order they are checked.
var Vocabulary = []Command{StartCamera, SavePicture, Zoom}

// Parse returns every command whose phrase occurs anywhere in the
// transcript, case-insensitively, in Vocabulary order. A transcript that
// matches nothing yields nil.
func Parse(transcript string) []Command {
	text := strings.ToLower(strings.TrimSpace(transcript))
	if text == "" {
		return nil
	}

	var cmds []Command
	for _, c := range Vocabulary {
		if strings.Contains(text, string(c)) {
			cmds = append(cmds, c)
		}
	}
	return cmds
}
