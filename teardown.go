package compute

import "log/slog"

// releaseStack records acquisitions in order and releases them in reverse.
// The Context pushes the device first, so it is always released last.
type releaseStack struct {
	entries []releaseEntry
}

type releaseEntry struct {
	name    string
	release func()
}

// push records an acquisition.
func (s *releaseStack) push(name string, release func()) {
	s.entries = append(s.entries, releaseEntry{name: name, release: release})
}

// names returns the acquisition order.
func (s *releaseStack) names() []string {
	out := make([]string, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.name
	}
	return out
}

// unwind releases every entry, newest first, and empties the stack.
func (s *releaseStack) unwind(logger *slog.Logger) {
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		logger.Debug("compute: releasing", "subsystem", e.name)
		e.release()
	}
	s.entries = nil
}
