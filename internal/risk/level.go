// Package risk classifies shell commands by the damage their executable can
// do and remembers session-scoped approvals so a human is not re-prompted
// for commands shaped like ones they already allowed. Classification and
// pattern matching are pure functions over fixed membership sets; the only
// state is the per-session pattern store.
package risk

import (
	"path/filepath"
	"strings"
)

// Level orders commands from harmless to never-runnable.
type Level int

const (
	LevelSafe Level = iota
	LevelRead
	LevelWrite
	LevelDestructive
	LevelPrivileged
)

func (l Level) String() string {
	switch l {
	case LevelSafe:
		return "safe"
	case LevelRead:
		return "read"
	case LevelWrite:
		return "write"
	case LevelDestructive:
		return "destructive"
	case LevelPrivileged:
		return "privileged"
	default:
		return "unknown"
	}
}

// ShouldSandbox reports whether the command can run without approval under
// sandbox confinement. Only safe and read qualify.
func (l Level) ShouldSandbox() bool {
	return l <= LevelRead
}

// IsAllowed reports whether the command may execute at all. Privileged
// commands never run, approved or not.
func (l Level) IsAllowed() bool {
	return l != LevelPrivileged
}

var privilegedCommands = map[string]struct{}{
	"sudo": {}, "su": {}, "doas": {}, "pkexec": {},
}

var destructiveCommands = map[string]struct{}{
	"rm": {}, "rmdir": {}, "dd": {}, "mkfs": {}, "shred": {},
	"truncate": {}, "fdisk": {}, "parted": {},
	"kill": {}, "killall": {}, "pkill": {},
	"reboot": {}, "shutdown": {}, "halt": {}, "poweroff": {},
}

var writeCommands = map[string]struct{}{
	"mv": {}, "cp": {}, "chmod": {}, "chown": {}, "chgrp": {},
	"mkdir": {}, "touch": {}, "ln": {}, "tee": {}, "sed": {},
	"patch": {}, "tar": {}, "zip": {}, "unzip": {},
	"git": {}, "curl": {}, "wget": {},
}

var readCommands = map[string]struct{}{
	"cat": {}, "ls": {}, "head": {}, "tail": {}, "less": {}, "more": {},
	"grep": {}, "find": {}, "stat": {}, "file": {}, "wc": {}, "diff": {},
	"du": {}, "df": {}, "ps": {}, "env": {}, "printenv": {}, "which": {},
	"tree": {}, "uname": {}, "id": {}, "whoami": {}, "date": {}, "uptime": {},
}

var safeCommands = map[string]struct{}{
	"echo": {}, "printf": {}, "true": {}, "false": {}, "pwd": {},
	"test": {}, "sleep": {},
}

// Classify assigns a risk level from the command's executable name: the
// first whitespace-delimited token, stripped to its base name. Unrecognized
// executables default to read: conservative, but not blocked.
func Classify(command string) Level {
	exe := executableName(command)
	if exe == "" {
		return LevelRead
	}
	if _, ok := privilegedCommands[exe]; ok {
		return LevelPrivileged
	}
	if _, ok := destructiveCommands[exe]; ok {
		return LevelDestructive
	}
	if _, ok := writeCommands[exe]; ok {
		return LevelWrite
	}
	if _, ok := readCommands[exe]; ok {
		return LevelRead
	}
	if _, ok := safeCommands[exe]; ok {
		return LevelSafe
	}
	return LevelRead
}

// executableName extracts the base name of a command's first token.
// Comparison is case-sensitive throughout the package.
func executableName(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return ""
	}
	return filepath.Base(fields[0])
}
