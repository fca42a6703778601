package agent

// DefaultReminderThreshold is the number of consecutive loop iterations
// without a tracked invocation before the reminder fires.
const DefaultReminderThreshold = 10

// ReminderText is the fixed advisory note injected into an observation.
const ReminderText = "Reminder: the task list has not been updated recently. " +
	"If you are doing multi-step work, use TodoWrite to record what is done and what remains."

// Reminder is the cadence side channel attached to top-level loops only. It
// counts iterations since the tracked capability was last invoked and, past
// the threshold, asks for one note to be injected into the next observation.
// It never blocks or alters capability execution.
type Reminder struct {
	tracked   string
	threshold int
	counter   int
	fired     bool
}

// NewReminder creates a Reminder tracking invocations of the named
// capability with the default threshold.
func NewReminder(tracked string) *Reminder {
	return &Reminder{tracked: tracked, threshold: DefaultReminderThreshold}
}

// Observe records one loop iteration's invocation names and returns the
// reminder text to inject, or "". The counter resets when the tracked
// capability appears; otherwise it increments, and the reminder fires once
// per staleness period.
func (r *Reminder) Observe(invoked []string) string {
	for _, name := range invoked {
		if name == r.tracked {
			r.counter = 0
			r.fired = false
			return ""
		}
	}

	r.counter++
	if r.counter > r.threshold && !r.fired {
		r.fired = true
		return ReminderText
	}
	return ""
}

// Count returns iterations since the last tracked invocation.
func (r *Reminder) Count() int { return r.counter }
