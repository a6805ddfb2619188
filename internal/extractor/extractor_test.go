package extractor

import (
	"testing"

	"github.com/yourusername/revenue-copilot/models"
)

func TestExtract_LeadPitch(t *testing.T) {
	got := Extract("John from Acme wants a PoC in September, budget around 10k")

	if got.Name != "John" {
		t.Errorf("Name = %q, want John", got.Name)
	}
	if got.Company != "Acme" {
		t.Errorf("Company = %q, want Acme", got.Company)
	}
	if got.Budget != 10000 {
		t.Errorf("Budget = %d, want 10000", got.Budget)
	}
	if got.Timeline != "September" {
		t.Errorf("Timeline = %q, want September", got.Timeline)
	}
	if got.Email != "" || got.Phone != "" {
		t.Errorf("unexpected contact info: email=%q phone=%q", got.Email, got.Phone)
	}
}

func TestExtract_BudgetNormalization(t *testing.T) {
	tests := []struct {
		text string
		want int64
	}{
		{"budget around 10k", 10000},
		{"the price is $5,000", 5000},
		{"cost: 2.5k", 2500},
		{"about 1m for the year", 1000000},
		{"budget is 750", 750},
		{"no numbers here", 0},
	}

	for _, tt := range tests {
		got := Extract(tt.text)
		if got.Budget != tt.want {
			t.Errorf("Extract(%q).Budget = %d, want %d", tt.text, got.Budget, tt.want)
		}
	}
}

func TestExtract_BudgetLeftmostWins(t *testing.T) {
	got := Extract("$5,000 now or budget 10k later")
	if got.Budget != 5000 {
		t.Errorf("Budget = %d, want leftmost 5000", got.Budget)
	}
}

func TestExtract_ContactInfo(t *testing.T) {
	got := Extract("Reach me at John.Doe@Example.COM or (555) 123-4567")

	if got.Email != "john.doe@example.com" {
		t.Errorf("Email = %q, want lower-cased john.doe@example.com", got.Email)
	}
	if got.Phone != "5551234567" {
		t.Errorf("Phone = %q, want digits-only 5551234567", got.Phone)
	}
}

func TestExtract_CompanySuffix(t *testing.T) {
	got := Extract("We talked to Initech Inc about the rollout")
	if got.Company != "Initech Inc" {
		t.Errorf("Company = %q, want Initech Inc", got.Company)
	}
}

func TestExtract_EmptyAndNoise(t *testing.T) {
	for _, text := range []string{"", "   ", "lowercase only, nothing here"} {
		got := Extract(text)
		if !got.Empty() {
			t.Errorf("Extract(%q) = %+v, want empty result", text, got)
		}
	}
}

func TestExtract_Idempotent(t *testing.T) {
	text := "Sarah from Globex Corp, budget 20k, sarah@globex.com, next week"
	if Extract(text) != Extract(text) {
		t.Error("extraction is not deterministic")
	}
}

func TestMerge_MonotonicAccumulation(t *testing.T) {
	acc := models.ExtractionResult{}
	acc.Merge(Extract("Jane from Acme is interested"))

	if acc.Company != "Acme" {
		t.Fatalf("Company = %q after turn 1, want Acme", acc.Company)
	}

	// A turn that extracts nothing must leave prior values intact.
	acc.Merge(Extract("sounds good, let me check"))
	if acc.Company != "Acme" || acc.Name != "Jane" {
		t.Errorf("accumulated entities lost after empty extraction: %+v", acc)
	}

	// A new non-empty value overwrites.
	acc.Merge(Extract("actually she moved to Globex Inc"))
	if acc.Company == "Acme" {
		t.Errorf("Company not overwritten by newer value: %+v", acc)
	}
}
