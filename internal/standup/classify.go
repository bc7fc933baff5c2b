package standup

import "regexp"

// Keyword tables used to classify blocker text. All matches are case-insensitive.
var (
	DecisionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bdecisions?\b`),
		regexp.MustCompile(`(?i)\bdecid`),
		regexp.MustCompile(`(?i)\bapprov`),
		regexp.MustCompile(`(?i)\bpo\b`),
		regexp.MustCompile(`(?i)\bproduct[\s_-]*owner\b`),
		regexp.MustCompile(`(?i)\bscope\b`),
		regexp.MustCompile(`(?i)\bsign[\s-]*off\b`),
	}
	ScopePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bscope\b`),
	}
	UrgencyPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bblocked\b`),
		regexp.MustCompile(`(?i)\bstuck\b`),
		regexp.MustCompile(`(?i)\burgent`),
		regexp.MustCompile(`(?i)\bcritical\b`),
		regexp.MustCompile(`(?i)\bescalat`),
	}
	// NoBlockerPatterns match answers to "any blockers?" that mean there are none.
	// They are anchored so real blockers mentioning "none" still count.
	NoBlockerPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^(none|nil|nothing|nope|no|n/?a|-+)[.!]*$`),
		regexp.MustCompile(`(?i)^no (blockers?|blocks|issues|impediments)( (today|currently|so far|right now|at the moment))?[.!]*$`),
		regexp.MustCompile(`(?i)^(none|nothing) (blocking|so far|today|at the moment)[.!]*$`),
		regexp.MustCompile(`(?i)^not blocked[.!]*$`),
	}
)

func matchesAny(patterns []*regexp.Regexp, text string) bool {
	for _, p := range patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// NeedsDecision reports whether blocker text is waiting on a decision, approval, or scope call.
func NeedsDecision(text string) bool { return matchesAny(DecisionPatterns, text) }

// MentionsScope reports whether the text talks about scope.
func MentionsScope(text string) bool { return matchesAny(ScopePatterns, text) }

// IsNoBlocker reports whether a blockers answer is a placeholder for "no blockers".
func IsNoBlocker(text string) bool { return matchesAny(NoBlockerPatterns, Collapse(text)) }

// IsUrgent reports whether the text carries urgency language that warrants escalation.
func IsUrgent(text string) bool { return matchesAny(UrgencyPatterns, text) }
