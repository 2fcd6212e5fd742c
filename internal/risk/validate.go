package risk

import (
	"errors"
	"fmt"
	"strings"
)

// MaxCommandLength bounds the accepted command size.
const MaxCommandLength = 4096

var (
	ErrEmptyCommand      = errors.New("command is empty")
	ErrCommandTooLong    = errors.New("command exceeds maximum length")
	ErrNullByte          = errors.New("command contains a null byte")
	ErrPrivilegedCommand = errors.New("privileged command is not permitted")
)

// shellOperators are flagged during validation but never cause rejection on
// their own; their presence forces a fresh human approval instead. Longer
// operators shadow their prefixes (">>" is not also ">").
var shellOperators = []string{"&&", "||", ">>", "<<", "$(", ")", ";", "|", "`", ">", "<", "&"}

// ValidateCommand performs structural validation, independent of risk
// classification. It returns the shell-control operators found in the
// command; a non-empty list is not an error. Privileged executables fail
// validation outright.
func ValidateCommand(command string) ([]string, error) {
	if strings.TrimSpace(command) == "" {
		return nil, ErrEmptyCommand
	}
	if len(command) > MaxCommandLength {
		return nil, fmt.Errorf("%w (%d > %d bytes)", ErrCommandTooLong, len(command), MaxCommandLength)
	}
	if strings.ContainsRune(command, 0) {
		return nil, ErrNullByte
	}
	if Classify(command) == LevelPrivileged {
		return nil, fmt.Errorf("%w: %s", ErrPrivilegedCommand, executableName(command))
	}
	return findOperators(command), nil
}

// findOperators scans left to right, preferring the longest operator at
// each position, and reports each distinct operator once.
func findOperators(command string) []string {
	var found []string
	seen := map[string]struct{}{}
	for i := 0; i < len(command); {
		matched := false
		for _, op := range shellOperators {
			if strings.HasPrefix(command[i:], op) {
				if _, dup := seen[op]; !dup {
					seen[op] = struct{}{}
					found = append(found, op)
				}
				i += len(op)
				matched = true
				break
			}
		}
		if !matched {
			i++
		}
	}
	return found
}

// RequiresExplicitApproval reports whether the command must always be
// confirmed by a human, regardless of remembered approvals: destructive or
// privileged executables, and any command carrying a shell-control
// operator.
func RequiresExplicitApproval(command string) bool {
	if Classify(command) >= LevelDestructive {
		return true
	}
	return len(findOperators(command)) > 0
}
