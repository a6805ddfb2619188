// Package classifier scores free-form utterances against the closed intent
// taxonomy. Classification is pure pattern matching: no LLM call, no state,
// and it never fails — unrecognizable input falls back to smalltalk.
package classifier

import (
	"regexp"
	"sort"
	"strings"

	"github.com/yourusername/revenue-copilot/models"
)

// signal is one trigger for an intent: a compiled pattern plus a weight.
// Exact multi-word phrases weigh more than single keyword hits.
type signal struct {
	label  string
	regex  *regexp.Regexp
	weight float64
}

// Classifier holds the per-intent signal tables.
type Classifier struct {
	signals map[models.Intent][]signal
}

// New builds a classifier with the built-in signal tables.
func New() *Classifier {
	c := &Classifier{signals: make(map[models.Intent][]signal)}
	c.initSignals()
	return c
}

func (c *Classifier) initSignals() {
	c.signals[models.IntentKnowledgeQA] = []signal{
		{"question_word", regexp.MustCompile(`(?i)\b(what|how|when|where|why|explain|describe|tell me)\b`), 1.0},
		{"policy_docs", regexp.MustCompile(`(?i)\b(policy|procedure|guideline|documentation|docs)\b`), 1.0},
		{"support", regexp.MustCompile(`(?i)\b(refund|return|support|help|question|information)\b`), 1.0},
	}
	c.signals[models.IntentLeadCapture] = []signal{
		{"interest_verb", regexp.MustCompile(`(?i)\b(wants?|needs?|looking for|interested in)\b`), 1.0},
		{"trial_ask", regexp.MustCompile(`(?i)\b(poc|proof of concept|demo|trial|pilot)\b`), 1.0},
		{"money_talk", regexp.MustCompile(`(?i)\b(budget|price|pricing|cost)\b`), 1.0},
		{"person_from_company", regexp.MustCompile(`\b[A-Z][a-z]+\s+from\s+[A-Z]\w+`), 2.0},
		{"contact_email", regexp.MustCompile(`(?i)\b[\w.+-]+@[\w-]+\.[\w.]+\b`), 1.0},
		{"contact_phone", regexp.MustCompile(`\b\d{3}[-. ]?\d{3}[-. ]?\d{4}\b`), 1.0},
	}
	c.signals[models.IntentProposalRequest] = []signal{
		{"proposal_noun", regexp.MustCompile(`(?i)\b(proposal|quote|estimate)\b`), 1.0},
		{"draft_proposal", regexp.MustCompile(`(?i)\b(draft|create|generate|write|prepare|send)\b.*\b(proposal|quote|estimate)\b`), 2.0},
	}
	c.signals[models.IntentNextStep] = []signal{
		{"schedule_verb", regexp.MustCompile(`(?i)\b(schedule|book|set up|arrange|let's)\b.*\b(meeting|call|demo|follow[- ]?up)\b`), 2.0},
		{"schedule_word", regexp.MustCompile(`(?i)\b(schedule|reschedule|calendar|meeting|call)\b`), 1.0},
		{"day_word", regexp.MustCompile(`(?i)\b(today|tomorrow|monday|tuesday|wednesday|thursday|friday|saturday|sunday|next week)\b`), 1.0},
		{"clock_time", regexp.MustCompile(`(?i)\b(\d{1,2}:\d{2}|\d{1,2}\s*(am|pm))\b`), 1.0},
		{"at_hour", regexp.MustCompile(`(?i)\bat\s+\d{1,2}\b`), 1.0},
	}
	c.signals[models.IntentStatusUpdate] = []signal{
		{"deal_outcome", regexp.MustCompile(`(?i)\b(won|lost|closed|signed|cancelled|on hold)\b`), 1.5},
		{"progress_word", regexp.MustCompile(`(?i)\b(update|status|progress)\b`), 1.0},
		{"decision_word", regexp.MustCompile(`(?i)\b(decided|chose|selected|approved|rejected|postponed|budget cut)\b`), 1.0},
	}
	c.signals[models.IntentSmalltalk] = []signal{
		{"greeting", regexp.MustCompile(`(?i)\b(hello|hi|hey|good morning|good afternoon|good evening)\b`), 1.0},
		{"thanks_bye", regexp.MustCompile(`(?i)\b(thanks|thank you|appreciate|bye|goodbye)\b`), 1.0},
		{"pleasantry", regexp.MustCompile(`(?i)\b(how are you|nice|great|awesome|cool)\b`), 1.0},
	}
}

// Classify scores text against every intent and returns the winner with a
// normalized confidence. Empty or whitespace-only input yields smalltalk with
// confidence 0. Ties resolve by intent priority, business intents first.
func (c *Classifier) Classify(text string) models.ClassificationResult {
	if strings.TrimSpace(text) == "" {
		return models.ClassificationResult{Intent: models.IntentSmalltalk, Confidence: 0}
	}

	scores := make(map[models.Intent]float64, len(models.AllIntents))
	matched := make(map[models.Intent][]string, len(models.AllIntents))
	total := 0.0

	for intent, signals := range c.signals {
		for _, sig := range signals {
			if sig.regex.MatchString(text) {
				scores[intent] += sig.weight
				matched[intent] = append(matched[intent], sig.label)
			}
		}
		total += scores[intent]
	}

	if total == 0 {
		return models.ClassificationResult{Intent: models.IntentSmalltalk, Confidence: 0}
	}

	best := models.IntentSmalltalk
	bestScore := 0.0
	for intent, score := range scores {
		if score > bestScore ||
			(score == bestScore && score > 0 && intent.Priority() < best.Priority()) {
			best = intent
			bestScore = score
		}
	}

	labels := matched[best]
	sort.Strings(labels)

	return models.ClassificationResult{
		Intent:          best,
		Confidence:      bestScore / total,
		MatchedPatterns: labels,
	}
}

// TopCandidates returns up to n intents ordered by score, for building the
// clarification prompt when confidence is below threshold.
func (c *Classifier) TopCandidates(text string, n int) []models.Intent {
	scores := make(map[models.Intent]float64, len(models.AllIntents))
	for intent, signals := range c.signals {
		for _, sig := range signals {
			if sig.regex.MatchString(text) {
				scores[intent] += sig.weight
			}
		}
	}

	candidates := make([]models.Intent, 0, len(models.AllIntents))
	for _, intent := range models.AllIntents {
		if scores[intent] > 0 {
			candidates = append(candidates, intent)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return scores[candidates[i]] > scores[candidates[j]]
	})

	if len(candidates) == 0 {
		candidates = []models.Intent{models.IntentKnowledgeQA, models.IntentSmalltalk}
	}
	if len(candidates) > n {
		candidates = candidates[:n]
	}
	return candidates
}
