package agent

import "fmt"

// DefaultOutputBudget bounds capability output when no per-capability budget
// is registered. The budgets are implementation-defined constants, not
// configuration.
const DefaultOutputBudget = 30000

// outputBudgets holds per-capability character budgets.
var outputBudgets = map[string]int{
	"bash":       30000,
	"read_file":  50000,
	"write_file": 1000,
	"edit_file":  10000,
	"Task":       20000,
	"Skill":      50000,
}

// OutputBudget returns the character budget for a capability's output.
func OutputBudget(name string) int {
	if b, ok := outputBudgets[name]; ok {
		return b
	}
	return DefaultOutputBudget
}

// Truncate bounds s to maxChars using a head/tail split with an explicit
// marker. The second return value reports whether anything was removed;
// output is never silently dropped.
func Truncate(s string, maxChars int) (string, bool) {
	if len(s) <= maxChars {
		return s, false
	}

	half := maxChars / 2
	removed := len(s) - maxChars
	marker := fmt.Sprintf(
		"\n\n[... output truncated: %d characters removed from the middle. Re-run with more targeted parameters to see specific parts ...]\n\n",
		removed)
	return s[:half] + marker + s[len(s)-half:], true
}
