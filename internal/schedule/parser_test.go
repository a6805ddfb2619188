package schedule

import (
	"testing"
	"time"
)

// ref is a Monday morning; weekday math below is relative to it.
var ref = time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

func TestParse_Resolved(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    time.Time
		hasDate bool
		hasTime bool
	}{
		{
			"weekday with hour",
			"Schedule a demo next Wed at 11",
			time.Date(2024, 1, 17, 11, 0, 0, 0, time.UTC),
			true, true,
		},
		{
			"tomorrow with clock time",
			"let's talk tomorrow at 2:30pm",
			time.Date(2024, 1, 16, 14, 30, 0, 0, time.UTC),
			true, true,
		},
		{
			"today with meridiem hour",
			"call today at 5pm",
			time.Date(2024, 1, 15, 17, 0, 0, 0, time.UTC),
			true, true,
		},
		{
			"this weekday can be the reference day",
			"this monday works",
			time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			true, false,
		},
		{
			"bare weekday is always in the future",
			"monday works",
			time.Date(2024, 1, 22, 0, 0, 0, 0, time.UTC),
			true, false,
		},
		{
			"spelled-out span",
			"follow up in two weeks",
			time.Date(2024, 1, 29, 0, 0, 0, 0, time.UTC),
			true, false,
		},
		{
			"numeric span",
			"ping me in 3 days",
			time.Date(2024, 1, 18, 0, 0, 0, 0, time.UTC),
			true, false,
		},
		{
			"next week without a weekday",
			"sometime next week",
			time.Date(2024, 1, 22, 0, 0, 0, 0, time.UTC),
			true, false,
		},
		{
			"iso date with clock time",
			"book it for 2024-03-05 at 14:00",
			time.Date(2024, 3, 5, 14, 0, 0, 0, time.UTC),
			true, true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.text, ref)
			if got.Kind != Resolved {
				t.Fatalf("Parse(%q).Kind = %v, want Resolved (reason %q)", tt.text, got.Kind, got.Reason)
			}
			if !got.Start.Equal(tt.want) {
				t.Errorf("Parse(%q).Start = %v, want %v", tt.text, got.Start, tt.want)
			}
			if got.HasDate != tt.hasDate || got.HasTime != tt.hasTime {
				t.Errorf("Parse(%q) HasDate/HasTime = %v/%v, want %v/%v",
					tt.text, got.HasDate, got.HasTime, tt.hasDate, tt.hasTime)
			}
		})
	}
}

func TestParse_BareTimeRollsForward(t *testing.T) {
	// 11:00 is still ahead of the 09:00 reference, 8:00 is not.
	got := Parse("at 11", ref)
	if got.Kind != Resolved || !got.Start.Equal(time.Date(2024, 1, 15, 11, 0, 0, 0, time.UTC)) {
		t.Errorf("bare future time: got %v/%v, want today 11:00", got.Kind, got.Start)
	}
	if got.HasDate {
		t.Error("bare time should not report a date")
	}

	got = Parse("at 8", ref)
	if got.Kind != Resolved || !got.Start.Equal(time.Date(2024, 1, 16, 8, 0, 0, 0, time.UTC)) {
		t.Errorf("bare past time: got %v/%v, want tomorrow 08:00", got.Kind, got.Start)
	}
}

func TestParse_Ambiguous(t *testing.T) {
	tests := []string{
		"monday or tuesday works for me",
		"either at 9 or at 10",
		"tomorrow or in two weeks",
	}
	for _, text := range tests {
		got := Parse(text, ref)
		if got.Kind != Ambiguous {
			t.Errorf("Parse(%q).Kind = %v, want Ambiguous", text, got.Kind)
		}
		if got.Reason == "" {
			t.Errorf("Parse(%q) has no reason for ambiguity", text)
		}
	}
}

func TestParse_NotFound(t *testing.T) {
	for _, text := range []string{"", "let's sync soon", "whenever you're free"} {
		got := Parse(text, ref)
		if got.Kind != NotFound {
			t.Errorf("Parse(%q).Kind = %v, want NotFound", text, got.Kind)
		}
	}
}

func TestParse_RepeatedMentionIsNotAmbiguous(t *testing.T) {
	got := Parse("tomorrow, yes tomorrow at 10", ref)
	if got.Kind != Resolved {
		t.Fatalf("Kind = %v, want Resolved (reason %q)", got.Kind, got.Reason)
	}
	want := time.Date(2024, 1, 16, 10, 0, 0, 0, time.UTC)
	if !got.Start.Equal(want) {
		t.Errorf("Start = %v, want %v", got.Start, want)
	}
}

func TestNormalizeHour(t *testing.T) {
	tests := []struct {
		hour     int
		meridiem string
		want     int
		ok       bool
	}{
		{12, "am", 0, true},
		{12, "pm", 12, true},
		{1, "pm", 13, true},
		{11, "am", 11, true},
		{0, "", 0, true},
		{23, "", 23, true},
		{24, "", 0, false},
		{13, "pm", 0, false},
	}
	for _, tt := range tests {
		got, ok := normalizeHour(tt.hour, tt.meridiem)
		if got != tt.want || ok != tt.ok {
			t.Errorf("normalizeHour(%d, %q) = (%d, %v), want (%d, %v)",
				tt.hour, tt.meridiem, got, ok, tt.want, tt.ok)
		}
	}
}
