package cli

import "github.com/calvinalkan/habitsync/internal/taskwarrior"

// Mode tells hooks whether they run on their own or inside a sync.
type Mode int

const (
	// ModeStandalone is a hook fired by a user command.
	ModeStandalone Mode = iota

	// ModeSync is a hook fired by an import issued during sync. Hooks pass
	// records through unchanged.
	ModeSync
)

// ModeFromEnv derives the mode from the process environment.
func ModeFromEnv(env map[string]string) Mode {
	if env[taskwarrior.RunningEnv] != "" {
		return ModeSync
	}

	return ModeStandalone
}

func (m Mode) String() string {
	if m == ModeSync {
		return "sync"
	}

	return "standalone"
}
