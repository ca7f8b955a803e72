package speech

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
)

// Command templates understood by CommandSynthesizer.
const (
	// CommandEspeak drives espeak-ng; rate 1.0 maps to 175 words per minute.
	CommandEspeak = "espeak-ng"
	// CommandSay drives the macOS say utility.
	CommandSay = "say"
)

// CommandSynthesizer speaks by running a local text-to-speech executable,
// one process per utterance.
type CommandSynthesizer struct {
	binary string
	voices []Voice

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewCommandSynthesizer creates a synthesizer for binary, which must be
// CommandEspeak or CommandSay, optionally given as a full path.
func NewCommandSynthesizer(binary string, voices []Voice) (*CommandSynthesizer, error) {
	if _, err := exec.LookPath(binary); err != nil {
		return nil, fmt.Errorf("speech command %q: %w", binary, err)
	}
	switch flavor(binary) {
	case CommandEspeak, CommandSay:
	default:
		return nil, fmt.Errorf("speech command %q is not supported", binary)
	}
	return &CommandSynthesizer{binary: binary, voices: voices}, nil
}

// Voices returns the configured voices.
func (s *CommandSynthesizer) Voices() []Voice {
	return append([]Voice(nil), s.voices...)
}

// Speak starts the command for u.
func (s *CommandSynthesizer) Speak(u Utterance) (<-chan error, error) {
	ctx, cancel := context.WithCancel(context.Background())

	cmd := exec.CommandContext(ctx, s.binary, commandArgs(flavor(s.binary), u)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("start %s: %w", s.binary, err)
	}

	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		defer close(done)
		defer cancel()

		err := cmd.Wait()
		if ctx.Err() != nil {
			done <- ctx.Err()
			return
		}
		if err != nil {
			if msg := strings.TrimSpace(stderr.String()); msg != "" {
				err = fmt.Errorf("%s failed: %w, stderr: %s", s.binary, err, msg)
			} else {
				err = fmt.Errorf("%s failed: %w", s.binary, err)
			}
		}
		done <- err
	}()

	return done, nil
}

// Cancel kills the running command, if any.
func (s *CommandSynthesizer) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func flavor(binary string) string {
	base := binary
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	return strings.TrimSuffix(base, ".exe")
}

// commandArgs builds the argument list for the given command flavor.
func commandArgs(cmd string, u Utterance) []string {
	var args []string
	switch cmd {
	case CommandEspeak:
		if u.Voice != nil {
			args = append(args, "-v", u.Voice.Name)
		} else if u.Locale != "" {
			args = append(args, "-v", strings.ToLower(strings.SplitN(normalizeLocale(u.Locale), "-", 2)[0]))
		}
		args = append(args,
			"-s", strconv.Itoa(int(175*u.Rate)),
			"-p", strconv.Itoa(int(50*u.Pitch)),
		)
	case CommandSay:
		if u.Voice != nil {
			args = append(args, "-v", u.Voice.Name)
		}
		args = append(args, "-r", strconv.Itoa(int(175*u.Rate)))
	}
	// "--" keeps text starting with a dash from being read as a flag.
	return append(args, "--", u.Text)
}
