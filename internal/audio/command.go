package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// DefaultTagCommand is the external tool used by CommandTagger.
const DefaultTagCommand = "id3v2"

// ErrTaggerUnavailable is returned by ResolveTagger when the requested
// tagger cannot be used on this system.
var ErrTaggerUnavailable = errors.New("tagger unavailable")

// Tagger kinds accepted by ResolveTagger.
const (
	TaggerAuto    = "auto"
	TaggerID3     = "id3"
	TaggerCommand = "command"
	TaggerNone    = "none"
)

// CommandTagger tags files by running an external tool as
//
//	<command> -A <album> <path>
//
// Only the album is written; other Metadata fields are ignored.
type CommandTagger struct {
	command string
}

// NewCommandTagger creates a CommandTagger for the given executable.
func NewCommandTagger(command string) *CommandTagger {
	if command == "" {
		command = DefaultTagCommand
	}
	return &CommandTagger{command: command}
}

// Tag runs the external tool. The tool's output is included in the error.
func (t *CommandTagger) Tag(ctx context.Context, path string, meta Metadata) error {
	if meta.Album == "" {
		return nil
	}

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, t.command, "-A", meta.Album, path)
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		if detail := strings.TrimSpace(out.String()); detail != "" {
			return fmt.Errorf("%s: %w: %s", t.command, err, detail)
		}
		return fmt.Errorf("%s: %w", t.command, err)
	}
	return nil
}

// ResolveTagger returns the tagger for a settings value.
//
//   - "auto", "id3", "": the in-process ID3 tagger
//   - "command": CommandTagger, if command is found on PATH
//   - "none": no tagger
//
// A nil Tagger with a nil error means tagging is disabled. When the
// external tool is missing the error wraps ErrTaggerUnavailable.
func ResolveTagger(kind, command string) (Tagger, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", TaggerAuto, TaggerID3:
		return NewID3Tagger(DefaultTagConfig()), nil
	case TaggerCommand:
		if command == "" {
			command = DefaultTagCommand
		}
		resolved, err := exec.LookPath(command)
		if err != nil {
			return nil, fmt.Errorf("%w: binary %q not found", ErrTaggerUnavailable, command)
		}
		return NewCommandTagger(resolved), nil
	case TaggerNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown tagger %q", kind)
	}
}
