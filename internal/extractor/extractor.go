// Package extractor pulls structured entities out of raw text. Extraction is
// stateless and order-independent: each entity kind is matched on its own,
// the leftmost match wins, and a missing kind is simply a zero field.
package extractor

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/yourusername/revenue-copilot/models"
)

var (
	// "John from Acme", "message by Sarah", "named Alex"
	nameCueRe = regexp.MustCompile(`\b([A-Z][a-z]+)(?:\s+[A-Z][a-z]+)?\s+(?:from|at)\s+[A-Z]`)
	namedRe   = regexp.MustCompile(`\b(?:named|by)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?)\b`)

	// "from Acme Corp", "at Globex"; suffix cue catches "Initech Inc" on its own
	companyCueRe    = regexp.MustCompile(`\b(?:from|at)\s+([A-Z]\w+(?:\s+(?:[A-Z]\w+|Inc\.?|Corp\.?|LLC|Ltd\.?))*)`)
	companySuffixRe = regexp.MustCompile(`\b([A-Z]\w+(?:\s+[A-Z]\w+)*\s+(?:Inc\.?|Corp\.?|LLC|Ltd\.?|Company))\b`)

	// "$10,000", "10k", "budget around 10k", "price 5000"
	budgetSymbolRe = regexp.MustCompile(`\$\s?([\d,]+(?:\.\d+)?)\s*([kKmM]?)`)
	budgetCueRe    = regexp.MustCompile(`(?i)\b(?:budget|price|pricing|cost|quote)\b[^\d$]{0,20}([\d,]+(?:\.\d+)?)\s*([kKmM]?)`)
	budgetShortRe  = regexp.MustCompile(`\b([\d,]+(?:\.\d+)?)([kKmM])\b`)

	timelineRe = regexp.MustCompile(`(?i)\b(today|tomorrow|(?:next|this)\s+(?:week|month|quarter|year|monday|tuesday|wednesday|thursday|friday|saturday|sunday|mon|tue|tues|wed|thu|thur|thurs|fri|sat|sun)|in\s+(?:january|february|march|april|may|june|july|august|september|october|november|december)|(?:january|february|march|april|may|june|july|august|september|october|november|december)|\d{4}-\d{2}-\d{2})\b`)

	emailRe = regexp.MustCompile(`\b[\w.+-]+@[\w-]+(?:\.[\w-]+)+\b`)

	// digit runs of plausible phone length with optional separators
	phoneRe = regexp.MustCompile(`(?:\+?\d{1,3}[-. ]?)?(?:\(\d{3}\)[-. ]?|\d{3}[-. ]?)\d{3}[-. ]?\d{4}\b`)

	digitsRe = regexp.MustCompile(`\D`)
)

// Extract returns the entities recognized in text. At most one value per
// kind; different kinds never interfere with each other.
func Extract(text string) models.ExtractionResult {
	result := models.ExtractionResult{}
	if strings.TrimSpace(text) == "" {
		return result
	}

	result.Name = extractName(text)
	result.Company = extractCompany(text)
	result.BudgetRaw, result.Budget = extractBudget(text)
	result.Timeline = extractTimeline(text)
	result.Email = extractEmail(text)
	result.Phone = extractPhone(text)
	return result
}

func extractName(text string) string {
	if m := nameCueRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := namedRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func extractCompany(text string) string {
	cueIdx := companyCueRe.FindStringSubmatchIndex(text)
	sufIdx := companySuffixRe.FindStringSubmatchIndex(text)

	// leftmost match wins when both rules fire
	switch {
	case cueIdx != nil && (sufIdx == nil || cueIdx[0] <= sufIdx[0]):
		return strings.TrimSpace(text[cueIdx[2]:cueIdx[3]])
	case sufIdx != nil:
		return strings.TrimSpace(text[sufIdx[2]:sufIdx[3]])
	}
	return ""
}

func extractBudget(text string) (string, int64) {
	type hit struct {
		pos    int
		raw    string
		amount string
		suffix string
	}
	var hits []hit

	for _, re := range []*regexp.Regexp{budgetSymbolRe, budgetCueRe, budgetShortRe} {
		if idx := re.FindStringSubmatchIndex(text); idx != nil {
			amount := text[idx[2]:idx[3]]
			suffix := text[idx[4]:idx[5]]
			hits = append(hits, hit{
				pos:    idx[0],
				raw:    amount + suffix,
				amount: amount,
				suffix: suffix,
			})
		}
	}
	if len(hits) == 0 {
		return "", 0
	}

	best := hits[0]
	for _, h := range hits[1:] {
		if h.pos < best.pos {
			best = h
		}
	}

	amount, err := strconv.ParseFloat(strings.ReplaceAll(best.amount, ",", ""), 64)
	if err != nil {
		return "", 0
	}
	switch strings.ToLower(best.suffix) {
	case "k":
		amount *= 1_000
	case "m":
		amount *= 1_000_000
	}
	return strings.TrimSpace(best.raw), int64(amount)
}

func extractTimeline(text string) string {
	if m := timelineRe.FindString(text); m != "" {
		return strings.TrimPrefix(strings.TrimPrefix(m, "in "), "In ")
	}
	return ""
}

func extractEmail(text string) string {
	return strings.ToLower(emailRe.FindString(text))
}

func extractPhone(text string) string {
	m := phoneRe.FindString(text)
	if m == "" {
		return ""
	}
	digits := digitsRe.ReplaceAllString(m, "")
	if len(digits) < 7 || len(digits) > 15 {
		return ""
	}
	return digits
}
