package agent

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
)

// LoopDetectionWindow is how many recent invocations are examined for a
// repeating pattern.
const LoopDetectionWindow = 6

// loopWarning is injected when the model keeps issuing the same invocations.
const loopWarning = "Notice: your recent tool calls repeat the same pattern. " +
	"Step back, reconsider the approach, and try something different."

// invocationSignature fingerprints one invocation by name plus an argument
// hash, so identical retries collapse to the same signature.
func invocationSignature(name string, arguments json.RawMessage) string {
	h := sha256.Sum256(arguments)
	return fmt.Sprintf("%s:%x", name, h[:8])
}

// recentSignatures collects the last count invocation signatures from the
// conversation, oldest first.
func recentSignatures(turns []Turn, count int) []string {
	var sigs []string
	for i := len(turns) - 1; i >= 0 && len(sigs) < count; i-- {
		turn := turns[i]
		if turn.Kind != TurnUtterance || turn.Utterance == nil {
			continue
		}
		calls := turn.Utterance.Invocations
		for j := len(calls) - 1; j >= 0 && len(sigs) < count; j-- {
			sigs = append(sigs, invocationSignature(calls[j].Name, calls[j].Arguments))
		}
	}
	for i, j := 0, len(sigs)-1; i < j; i, j = i+1, j-1 {
		sigs[i], sigs[j] = sigs[j], sigs[i]
	}
	return sigs
}

// DetectInvocationLoop reports whether the last windowSize invocations in the
// conversation form a repeating pattern of length 1, 2, or 3.
func DetectInvocationLoop(turns []Turn, windowSize int) bool {
	sigs := recentSignatures(turns, windowSize)
	if len(sigs) < windowSize {
		return false
	}

	for patternLen := 1; patternLen <= 3; patternLen++ {
		if windowSize%patternLen != 0 {
			continue
		}
		pattern := sigs[:patternLen]
		match := true
		for i := patternLen; i < windowSize && match; i += patternLen {
			for j := 0; j < patternLen; j++ {
				if sigs[i+j] != pattern[j] {
					match = false
					break
				}
			}
		}
		if match {
			return true
		}
	}
	return false
}
