package dedup

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Алілуя!", "алілуя"},
		{"  Пісня   Миру  ", "пісня миру"},
		{"Great Is Thy Faithfulness", "great is thy faithfulness"},
		{"«Свят, Свят, Свят»", "свят свят свят"},
		{"", ""},
		{"...", ""},
	}
	for _, c := range cases {
		if got := Normalize(c.in); got != c.want {
			t.Errorf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"Алілуя!", "Пісня Миру", "  A  B  C  ", "123 - пісня", "вже нормалізовано"}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestResolveExactMatch(t *testing.T) {
	candidates := []Candidate{
		{Key: "Інша Пісня", Title: "Інша Пісня", Regent: "Марія"},
		{Key: "Алілуя", Title: "Алілуя", Regent: "Іван", Link: "https://example.com/a"},
	}
	m := Resolve("алілуя", candidates)
	if m.Verdict != ExactMatch {
		t.Fatalf("expected ExactMatch, got %v", m.Verdict)
	}
	if m.Title != "Алілуя" || m.Regent != "Іван" || m.Link != "https://example.com/a" {
		t.Errorf("unexpected match details: %+v", m)
	}
}

func TestResolveFuzzyMatch(t *testing.T) {
	candidates := []Candidate{
		{Key: "пісня миру і добра", Title: "Пісня Миру і Добра", Regent: "Іван"},
	}
	m := Resolve("пісня миру і дора", candidates)
	if m.Verdict != FuzzyMatch {
		t.Fatalf("expected FuzzyMatch, got %v", m.Verdict)
	}
	if m.Title != "Пісня Миру і Добра" {
		t.Errorf("unexpected matched title: %q", m.Title)
	}
}

func TestResolveNoMatch(t *testing.T) {
	candidates := []Candidate{
		{Key: "алілуя", Title: "Алілуя"},
		{Key: "свят свят свят", Title: "Свят, Свят, Свят"},
	}
	if m := Resolve("зовсім інша назва", candidates); m.Verdict != NoMatch {
		t.Errorf("expected NoMatch, got %+v", m)
	}
}

func TestResolveBoundaryRatioMatches(t *testing.T) {
	// "abcd" vs "abcx": 2*3/(4+4) = 0.75, exactly at the threshold.
	if r := Ratio("abcd", "abcx"); r != 0.75 {
		t.Fatalf("expected ratio 0.75, got %v", r)
	}
	m := Resolve("abcd", []Candidate{{Key: "abcx", Title: "abcx"}})
	if m.Verdict != FuzzyMatch {
		t.Errorf("similarity exactly at threshold must match, got %v", m.Verdict)
	}
}

func TestResolveFirstMatchWins(t *testing.T) {
	candidates := []Candidate{
		{Key: "пісня миру х", Title: "перший-фаззі"},
		{Key: "пісня миру", Title: "точний"},
	}
	m := Resolve("пісня миру", candidates)
	if m.Title != "перший-фаззі" {
		t.Errorf("scan must stop at first sufficiently similar row, got %q", m.Title)
	}
}

func TestResolveSkipsBlankRows(t *testing.T) {
	candidates := []Candidate{
		{Key: ""},
		{Key: "алілуя", Title: "Алілуя"},
	}
	if m := Resolve("алілуя", candidates); m.Verdict != ExactMatch {
		t.Errorf("blank rows must be skipped, got %+v", m)
	}
}
