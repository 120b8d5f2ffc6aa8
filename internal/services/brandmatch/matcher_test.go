package brandmatch

import (
	"testing"

	"BrandPulse/pkg/config"
)

func TestMatchWordBoundary(t *testing.T) {
	m := New("Acme", []string{"acme"}, nil)
	if !m.Match("ACME - Shopping - AU") {
		t.Fatalf("expected match on campaign name")
	}
	if !m.Match("buy acme online") {
		t.Fatalf("expected match on query")
	}
	if m.Match("acmeco clearance") {
		t.Fatalf("substring inside a longer word must not match")
	}
}

func TestMatchDenyWins(t *testing.T) {
	m := New("Delta", []string{"delta"}, []string{"delta airlines"})
	if !m.Match("delta power tools") {
		t.Fatalf("expected allow match")
	}
	if m.Match("delta airlines baggage") {
		t.Fatalf("deny term must suppress the match")
	}
}

func TestMatchFallsBackToBrandName(t *testing.T) {
	m := New("Acme", nil, nil)
	if !m.Match("acme brand store") {
		t.Fatalf("expected fallback term from brand name")
	}
}

func TestRegistryFor(t *testing.T) {
	r := NewRegistry([]config.BrandTerms{
		{Name: "Acme", MatchTerms: []string{"acme", "acme tools"}},
	})
	if !r.For("acme").Match("acme tools sale") {
		t.Fatalf("expected configured matcher")
	}
	// unknown brand still gets a name-based matcher
	if !r.For("Globex").Match("globex promo") {
		t.Fatalf("expected fallback matcher")
	}
}
