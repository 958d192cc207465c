package locale

import "testing"

func TestParse(t *testing.T) {
	cases := map[string]Language{
		"en":      English,
		" EN-us ": English,
		"bn":      Bengali,
		"":        Bengali,
		"fr":      Bengali,
	}
	for in, want := range cases {
		if got := Parse(in); got != want {
			t.Errorf("Parse(%q): expected %s, got %s", in, want, got)
		}
	}
}

func TestLabelsFallback(t *testing.T) {
	unknown := Language("xx")
	if unknown.Labels() != Bengali.Labels() {
		t.Error("Expected unknown language to fall back to Bengali labels")
	}
	if English.Labels().Age != "Age" {
		t.Errorf("Expected English age label, got %q", English.Labels().Age)
	}
	if unknown.Name() != "Bengali" {
		t.Errorf("Expected Bengali name fallback, got %q", unknown.Name())
	}
}
