package facet

import "testing"

func TestParseKindAcceptsTagsAndDirs(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{in: "persona", want: KindPersona},
		{in: "personas", want: KindPersona},
		{in: " Policies ", want: KindPolicy},
		{in: "knowledge", want: KindKnowledge},
		{in: "instructions", want: KindInstruction},
		{in: "additional-instruction", want: KindAdditionalInstruction},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			if err != nil {
				t.Fatalf("ParseKind(%q) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Fatalf("ParseKind(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}

	if _, err := ParseKind("mood"); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}

func TestSetCounts(t *testing.T) {
	s := Set{
		Persona:  &Content{Body: "p"},
		Policies: []Content{{Body: "a"}, {Body: "b"}},
	}
	counts := s.Counts()
	if counts[KindPersona] != 1 || counts[KindPolicy] != 2 || counts[KindInstruction] != 0 {
		t.Fatalf("unexpected counts: %#v", counts)
	}
}
