package ident

import (
	"regexp"
	"strings"
	"testing"
)

func TestDerivePrefix(t *testing.T) {
	tests := []struct {
		ticketType string
		want       Category
	}{
		{"Bug", Bugfix},
		{"bug", Bugfix},
		{"Critical BUG", Bugfix},
		{"Bugfix", Bugfix},
		{"Documentation", Doc},
		{"Dokumentation", Doc},
		{"user documentation", Doc},
		{"Feature", Feature},
		{"Task", Feature},
		{"", Feature},
		{"Bug in documentation", Feature}, // ambiguous
	}

	for _, tt := range tests {
		t.Run(tt.ticketType, func(t *testing.T) {
			if got := DerivePrefix(tt.ticketType); got != tt.want {
				t.Errorf("DerivePrefix(%q) = %q, want %q", tt.ticketType, got, tt.want)
			}
		})
	}
}

func TestDerivePrefixIsTotal(t *testing.T) {
	inputs := []string{"", " ", "???", "ÄÖÜ", "bugbug", "DOCUMENTATION", strings.Repeat("x", 1000)}
	for _, in := range inputs {
		switch got := DerivePrefix(in); got {
		case Feature, Bugfix, Doc:
		default:
			t.Errorf("DerivePrefix(%q) = %q, not a known category", in, got)
		}
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"punctuation stripped", "Fix Login!!", MaxDescriptionLen, "fix_login"},
		{"whitespace runs", "  add   new\tendpoint  ", MaxDescriptionLen, "add_new_endpoint"},
		{"underscores collapse", "a__b___c", MaxDescriptionLen, "a_b_c"},
		{"leading and trailing", "__x__", MaxDescriptionLen, "x"},
		{"non-ascii dropped", "Größe ändern", MaxDescriptionLen, "gre_ndern"},
		{"separator next to stripped char", "fix - login", MaxDescriptionLen, "fix_login"},
		{"empty", "", MaxDescriptionLen, ""},
		{"only symbols", "!!!", MaxDescriptionLen, ""},
		{"truncated", "abcdefghij klmnop", 10, "abcdefghij"},
		{"truncation trims underscore", "abcd efgh", 5, "abcd"},
		{"suggestion limit", strings.Repeat("word ", 20), MaxSuggestionLen, "word_word_word_word_word_word"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.in, tt.max); got != tt.want {
				t.Errorf("Sanitize(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}

func TestSanitizeProperties(t *testing.T) {
	valid := regexp.MustCompile(`^[a-z0-9_]*$`)
	inputs := []string{
		"Fix Login!!",
		"  Hello   World  ",
		"__already_clean__",
		"MiXeD CaSe 123",
		"tabs\tand\nnewlines",
		"emoji 🎉 party",
		"a_ _b",
		strings.Repeat("long title ", 30),
		"x y",
	}

	for _, in := range inputs {
		for _, max := range []int{MaxSuggestionLen, MaxDescriptionLen} {
			once := Sanitize(in, max)
			if twice := Sanitize(once, max); twice != once {
				t.Errorf("Sanitize not idempotent for %q: %q -> %q", in, once, twice)
			}
			if !valid.MatchString(once) {
				t.Errorf("Sanitize(%q) = %q contains invalid characters", in, once)
			}
			if strings.HasPrefix(once, "_") || strings.HasSuffix(once, "_") || strings.Contains(once, "__") {
				t.Errorf("Sanitize(%q) = %q has stray underscores", in, once)
			}
			if len(once) > max {
				t.Errorf("Sanitize(%q) = %q exceeds %d", in, once, max)
			}
		}
	}
}

func TestExtractTicketID(t *testing.T) {
	tests := []struct {
		branch string
		want   string
		ok     bool
	}{
		{"feature/ABC-12_fix_login", "ABC-12", true},
		{"bugfix/abc-7_x", "abc-7", true},
		{"doc/PROJ-1234_readme", "PROJ-1234", true},
		{"user/feature/ABC-12_fix", "ABC-12", true},
		{"feature/ABC-12", "", false},
		{"ABC-12_fix", "", false},
		{"feature/fix_login", "", false},
		{"feature/ABC12_fix", "", false},
		{"feature/ABC-_fix", "", false},
		{"feature/-12_fix", "", false},
		{"feature/A1-12_fix", "", false},
		{"main", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.branch, func(t *testing.T) {
			got, ok := ExtractTicketID(tt.branch)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ExtractTicketID(%q) = (%q, %v), want (%q, %v)", tt.branch, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestExtractRoundTrip(t *testing.T) {
	for _, id := range []string{"ABC-12", "x-1", "LONGPREFIX-99999"} {
		for _, cat := range []Category{Feature, Bugfix, Doc} {
			name := BranchName(cat, id, "some_desc")
			got, ok := ExtractTicketID(name)
			if !ok || got != id {
				t.Errorf("ExtractTicketID(%q) = (%q, %v), want %q", name, got, ok, id)
			}
		}
	}
}

// TestBugBranchScenario walks a bug ticket from type and free-text
// description to the final branch name.
func TestBugBranchScenario(t *testing.T) {
	cat := DerivePrefix("Bug")
	if cat != Bugfix {
		t.Fatalf("DerivePrefix(Bug) = %q, want bugfix", cat)
	}
	desc := Sanitize("Fix Login!!", MaxDescriptionLen)
	if desc != "fix_login" {
		t.Fatalf("Sanitize = %q, want fix_login", desc)
	}
	if got := BranchName(cat, "ABC-12", desc); got != "bugfix/ABC-12_fix_login" {
		t.Errorf("BranchName = %q, want bugfix/ABC-12_fix_login", got)
	}
}

func TestSuggest(t *testing.T) {
	got := Suggest("Login page crashes when the password contains umlauts")
	if len(got) > MaxSuggestionLen {
		t.Errorf("Suggest length = %d, want <= %d", len(got), MaxSuggestionLen)
	}
	if !strings.HasPrefix(got, "login_page_crashes") {
		t.Errorf("Suggest = %q, want login_page_crashes prefix", got)
	}
}

func TestIsTicketID(t *testing.T) {
	for in, want := range map[string]bool{
		"ABC-12": true,
		"a-1":    true,
		"ABC12":  false,
		"ABC-":   false,
		"1-2":    false,
		"":       false,
	} {
		if got := IsTicketID(in); got != want {
			t.Errorf("IsTicketID(%q) = %v, want %v", in, got, want)
		}
	}
}
