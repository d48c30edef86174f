package reconcile

import "github.com/calvinalkan/habitsync/internal/task"

// Lines renders o for the sync log, followed by its indented stats diff.
// Unchanged pairs render nothing unless verbose.
func (o PairOutcome) Lines(verbose bool) []string {
	var lines []string

	switch o.Pattern {
	case LocalOnly:
		lines = []string{
			"Task: " + o.LocalDescription,
			"    Status: Created locally.",
			"    Action: Pushed to Habitica and stored the Habitica id locally.",
		}

	case RemoteOnly:
		lines = []string{
			"Task: " + o.RemoteText,
			"    Status: Created on Habitica.",
			"    Action: Imported locally.",
		}

	case RemoteVanished:
		action := "    Action: Marked deleted locally and cleared the Habitica id."
		if o.Result.Status == task.StatusCompleted {
			action = "    Action: Already completed locally. Cleared the Habitica id."
		}

		lines = []string{
			"Task: " + o.LocalDescription,
			"    Status: Deleted on Habitica.",
			action,
		}

	case Paired:
		if o.Action == NoChange && !verbose {
			return nil
		}

		lines = []string{
			"Habitica task: " + o.RemoteText,
			"Local task:    " + o.LocalDescription,
			"    Status: Exists on both sides.",
		}

		switch o.Action {
		case UseRemote:
			lines = append(lines, "    Action: Habitica task is newer. Updated locally.")
		case UseLocal:
			lines = append(lines, "    Action: Local task is newer. Updated on Habitica.")
		default:
			lines = append(lines, "    Action: Tasks are equal. Nothing to do.")
		}
	}

	for _, d := range o.Diff {
		lines = append(lines, "    "+d)
	}

	return lines
}
