package standup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNeedsDecision(t *testing.T) {
	for _, text := range []string{
		"Waiting on PO approval for scope change",
		"Need a decision on the caching layer",
		"product owner has not replied",
		"Product-Owner sign off pending",
		"can't decide between vendors",
		"needs sign-off from legal",
	} {
		assert.True(t, NeedsDecision(text), text)
	}
	for _, text := range []string{
		"CI is flaky",
		"waiting on the pool cleaner", // "po" must be a whole word
		"telescope rental",
	} {
		assert.False(t, NeedsDecision(text), text)
	}
}

func TestMentionsScope(t *testing.T) {
	assert.True(t, MentionsScope("Scope unclear"))
	assert.False(t, MentionsScope("telescope"))
}

func TestIsUrgent(t *testing.T) {
	for _, text := range []string{"Blocked by infra", "stuck on auth", "URGENT fix", "critical path", "please escalate", "escalation needed"} {
		assert.True(t, IsUrgent(text), text)
	}
	for _, text := range []string{"blocker on infra", "blockers: CI flaky", "unblocked after the infra fix", "waiting on PO approval for scope change"} {
		assert.False(t, IsUrgent(text), text)
	}
}

func TestIsNoBlocker(t *testing.T) {
	for _, text := range []string{"none", "None.", "  n/a ", "NA", "-", "nothing", "no", "No blockers", "no blocker today", "nothing blocking", "not blocked!"} {
		assert.True(t, IsNoBlocker(text), text)
	}
	for _, text := range []string{"", "none of the test envs are up", "no access to staging", "waiting on PO approval", "n/a until infra replies"} {
		assert.False(t, IsNoBlocker(text), text)
	}
}
