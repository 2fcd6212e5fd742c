package risk

import (
	"sort"
	"strings"
	"sync"
)

// PatternForCommand derives the pattern remembered when a human approves
// the command. Destructive and privileged commands get the exact command
// string, verbatim; everything else is generalized to the executable
// ("<exe> *"), with one leading flag preserved for write commands so that
// approving "chmod -R ..." does not approve every chmod form.
func PatternForCommand(command string) string {
	level := Classify(command)
	if level >= LevelDestructive {
		return command
	}
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return command
	}
	exe := executableName(command)
	if level == LevelWrite && len(fields) > 1 && strings.HasPrefix(fields[1], "-") {
		return exe + " " + fields[1] + " *"
	}
	return exe + " *"
}

// PatternStore remembers the command patterns a human approved during one
// session. It is never persisted.
type PatternStore struct {
	mu       sync.RWMutex
	patterns map[string]struct{}
}

func NewPatternStore() *PatternStore {
	return &PatternStore{patterns: make(map[string]struct{})}
}

// Approve remembers a pattern for the rest of the session.
func (s *PatternStore) Approve(pattern string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patterns[pattern] = struct{}{}
}

// Patterns returns the remembered patterns, sorted.
func (s *PatternStore) Patterns() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.patterns))
	for p := range s.patterns {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// IsApproved decides whether the command may run without a fresh human
// confirmation. Privileged commands are never approved. Destructive
// commands and commands carrying shell-control operators accept only an
// exact match against a stored pattern; a wildcard, however permissive,
// never authorizes them, including when the command text itself is
// wildcard-shaped. All other commands accept an exact match or a
// wildcard pattern bound to the same executable base name,
// case-sensitively.
func (s *PatternStore) IsApproved(command string) bool {
	level := Classify(command)
	if level == LevelPrivileged {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exact := s.patterns[command]
	if level == LevelDestructive || len(findOperators(command)) > 0 {
		// A wildcard-shaped entry never authorizes these commands, even
		// when the command text equals the stored pattern: "rm *" is a
		// command the shell will expand, not a safe literal.
		return exact && !isWildcardShaped(command)
	}
	if exact {
		return true
	}
	for pattern := range s.patterns {
		if wildcardMatches(pattern, command) {
			return true
		}
	}
	return false
}

// isWildcardShaped reports whether the string has the "<prefix> *" form
// that Approve stores for generalized patterns.
func isWildcardShaped(s string) bool {
	return strings.HasSuffix(s, " *")
}

// wildcardMatches reports whether a stored "<exe> [flag] *" pattern covers
// the command. The executable is compared by base name; any remaining
// pattern tokens before the "*" must match the command's leading arguments
// literally.
func wildcardMatches(pattern, command string) bool {
	pfields := strings.Fields(pattern)
	if len(pfields) < 2 || pfields[len(pfields)-1] != "*" {
		return false
	}
	prefix := pfields[:len(pfields)-1]

	cfields := strings.Fields(command)
	if len(cfields) < len(prefix) {
		return false
	}
	if executableName(pattern) != executableName(command) {
		return false
	}
	for i := 1; i < len(prefix); i++ {
		if cfields[i] != prefix[i] {
			return false
		}
	}
	return true
}
