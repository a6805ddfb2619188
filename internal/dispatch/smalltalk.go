package dispatch

import "strings"

// smalltalkReply picks a canned response for chit-chat. This path bypasses
// both agents entirely.
func smalltalkReply(text string) string {
	lower := strings.ToLower(text)

	switch {
	case strings.TrimSpace(lower) == "":
		return "Hi! Tell me about a lead, ask a question, or say \"help\" to see what I can do."
	case containsAny(lower, "help", "what can you do"):
		return "I can help with:\n" +
			"• Document Q&A with citations\n" +
			"• Lead capture & qualification\n" +
			"• Proposal drafting\n" +
			"• Meeting scheduling\n" +
			"• Deal status tracking\n\n" +
			"Just talk to me naturally — no commands needed!"
	case containsAny(lower, "thanks", "thank you", "appreciate"):
		return "You're welcome! Anything else I can help with?"
	case containsAny(lower, "bye", "goodbye", "see you"):
		return "Talk soon! I'll keep the pipeline warm."
	case containsAny(lower, "hello", "hi", "hey", "good morning", "good afternoon", "good evening"):
		return "Hey there! What's on the agenda — a new lead, a question, or a meeting to book?"
	default:
		return "Got it! If you want, tell me about a lead, ask a question about your documents, or book a meeting."
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
