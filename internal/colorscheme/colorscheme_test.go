package colorscheme

import (
	"slices"
	"testing"
)

const table = `
red:
  colorA: "#555"
  colorB: "#e05d44"
green:
  colorA: "#555"
  colorB: "#97CA00"
`

func TestResolve(t *testing.T) {
	r, err := Parse([]byte(table))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	red := Scheme{ColorA: "#555", ColorB: "#e05d44"}

	tests := []struct {
		name  string
		input string
		want  Scheme
	}{
		{name: "known scheme", input: "green", want: Scheme{ColorA: "#555", ColorB: "#97CA00"}},
		{name: "unknown falls back to red", input: "nonexistent-scheme", want: red},
		{name: "empty falls back to red", input: "", want: red},
		{name: "names are case sensitive", input: "GREEN", want: red},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Resolve(tt.input); got != tt.want {
				t.Errorf("Resolve(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestResolve_UnknownMatchesEmpty(t *testing.T) {
	r, err := Parse([]byte(table))
	if err != nil {
		t.Fatal(err)
	}
	if r.Resolve("nonexistent-scheme") != r.Resolve("") {
		t.Error("unknown and absent names should resolve to the same scheme")
	}
}

func TestParse_RequiresFallback(t *testing.T) {
	_, err := Parse([]byte("green:\n  colorA: \"#555\"\n  colorB: \"#97CA00\"\n"))
	if err == nil {
		t.Fatal("Parse() without red should return error")
	}
}

func TestParse_RejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("red:\n  colorC: \"#000\"\n"))
	if err == nil {
		t.Fatal("Parse() with unknown field should return error")
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	if _, err := Parse([]byte("{{invalid")); err == nil {
		t.Fatal("Parse(invalid YAML) should return error")
	}
}

func TestNames_Sorted(t *testing.T) {
	r, err := Parse([]byte(table))
	if err != nil {
		t.Fatal(err)
	}
	if got, want := r.Names(), []string{"green", "red"}; !slices.Equal(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}

func TestNew_CopiesTable(t *testing.T) {
	src := map[string]Scheme{"red": {ColorA: "#555", ColorB: "#e05d44"}}
	r, err := New(src)
	if err != nil {
		t.Fatal(err)
	}
	src["red"] = Scheme{ColorA: "#000", ColorB: "#000"}

	if got := r.Resolve("red").ColorB; got != "#e05d44" {
		t.Errorf("Resolve(red).ColorB = %q after source mutation, want %q", got, "#e05d44")
	}
}
