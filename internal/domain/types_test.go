package domain

import "testing"

func TestValidateSections(t *testing.T) {
	if err := ValidateSections(SeedSections()); err != nil {
		t.Fatalf("seed sections should be valid: %v", err)
	}
	if err := ValidateSections(nil); err != nil {
		t.Fatalf("empty list should be valid: %v", err)
	}
	if err := ValidateSections([]Section{{ID: 1}, {ID: 1}}); err == nil {
		t.Fatal("expected duplicate id error")
	}
	if err := ValidateSections([]Section{{ID: 0}}); err == nil {
		t.Fatal("expected non-positive id error")
	}
}

func TestCloneSectionsIsIndependent(t *testing.T) {
	original := []Section{{ID: 1, HTML: "a"}}
	clone := CloneSections(original)
	clone[0].HTML = "b"
	if original[0].HTML != "a" {
		t.Fatalf("clone shares storage with original")
	}
	if CloneSections(nil) != nil {
		t.Fatal("expected nil clone for nil input")
	}
}

func TestJoinSectionHTML(t *testing.T) {
	got := JoinSectionHTML([]Section{{ID: 1, HTML: "<p>a</p>"}, {ID: 2, HTML: "<p>b</p>"}})
	if got != "<p>a</p><br/><p>b</p>" {
		t.Fatalf("unexpected join %q", got)
	}
	if JoinSectionHTML(nil) != "" {
		t.Fatal("expected empty string")
	}
}
