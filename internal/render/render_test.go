package render

import (
	"errors"
	"slices"
	"strings"
	"testing"
	"testing/fstest"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"default-template.svg":  &fstest.MapFile{Data: []byte(`<svg>default {{index .Text 0}} {{index .Widths 0}}</svg>`)},
		"flat-template.svg":     &fstest.MapFile{Data: []byte(`<svg>flat {{index .Text 0}}|{{index .Text 1}} {{add (index .Widths 0) (index .Widths 1)}}</svg>`)},
		"default-template.json": &fstest.MapFile{Data: []byte(`{"name":"{{index .Text 0}}"}`)},
		".hidden-template.svg":  &fstest.MapFile{Data: []byte(`{{broken`)},
		"notes.txt":             &fstest.MapFile{Data: []byte(`ignored`)},
	}
}

func TestNew_CompilesTemplates(t *testing.T) {
	r, err := New(testFS())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	for _, tt := range []struct {
		style, format string
		want          bool
	}{
		{"default", "svg", true},
		{"flat", "svg", true},
		{"default", "json", true},
		{"flat", "json", false},
		{".hidden", "svg", false},
	} {
		if got := r.Has(tt.style, tt.format); got != tt.want {
			t.Errorf("Has(%q, %q) = %v, want %v", tt.style, tt.format, got, tt.want)
		}
	}
	if got, want := r.Styles("svg"), []string{"default", "flat"}; !slices.Equal(got, want) {
		t.Errorf("Styles(svg) = %v, want %v", got, want)
	}
}

func TestNew_ParseError(t *testing.T) {
	fsys := fstest.MapFS{"bad-template.svg": &fstest.MapFile{Data: []byte(`{{if}}`)}}
	_, err := New(fsys)
	if err == nil {
		t.Fatal("New() with malformed template should return error")
	}
	if !strings.Contains(err.Error(), "bad-template.svg") {
		t.Errorf("error should name the file, got: %v", err)
	}
}

func TestRender_SelectsStyle(t *testing.T) {
	r, err := New(testFS())
	if err != nil {
		t.Fatal(err)
	}
	data := Data{Text: [2]string{"build", "passing"}, Widths: [2]int{40, 50}}

	got, err := r.Render("flat", "svg", data)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if want := "<svg>flat build|passing 90</svg>"; got != want {
		t.Errorf("Render(flat) = %q, want %q", got, want)
	}
}

func TestRender_FallsBackToDefaultStyle(t *testing.T) {
	// Given: a style with no template for the format
	r, err := New(testFS())
	if err != nil {
		t.Fatal(err)
	}

	// When: rendering with that style
	got, err := r.Render("nonexistent-style", "svg", Data{Text: [2]string{"a", "b"}, Widths: [2]int{7, 8}})

	// Then: the default style renders instead of failing
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if want := "<svg>default a 7</svg>"; got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
	if got := r.Resolve("nonexistent-style", "svg"); got != DefaultStyle {
		t.Errorf("Resolve() = %q, want %q", got, DefaultStyle)
	}
}

func TestRender_NoTemplateForFormat(t *testing.T) {
	r, err := New(testFS())
	if err != nil {
		t.Fatal(err)
	}

	_, err = r.Render("flat", "png", Data{})

	var renderErr *RenderError
	if !errors.As(err, &renderErr) {
		t.Fatalf("Render() error = %v, want *RenderError", err)
	}
	if !errors.Is(err, ErrNoTemplate) {
		t.Errorf("Render() error = %v, want ErrNoTemplate", err)
	}
}

func TestRender_ExecutionFault(t *testing.T) {
	// Given: a template that indexes past the end of the widths
	fsys := fstest.MapFS{"default-template.svg": &fstest.MapFile{Data: []byte(`<svg>{{index .Widths 5}}</svg>`)}}
	r, err := New(fsys)
	if err != nil {
		t.Fatal(err)
	}

	// When: it is executed
	got, err := r.Render("default", "svg", Data{})

	// Then: a render error is returned with no partial output
	var renderErr *RenderError
	if !errors.As(err, &renderErr) {
		t.Fatalf("Render() error = %v, want *RenderError", err)
	}
	if got != "" {
		t.Errorf("Render() output = %q, want empty", got)
	}
	if renderErr.Style != "default" || renderErr.Format != "svg" {
		t.Errorf("RenderError = %+v, want default/svg", renderErr)
	}
}

func TestFuncs(t *testing.T) {
	add := funcs["add"].(func(...int) int)
	if got := add(1, 2, 3); got != 6 {
		t.Errorf("add(1,2,3) = %d, want 6", got)
	}
	half := funcs["half"].(func(int) float64)
	if got := half(7); got != 3.5 {
		t.Errorf("half(7) = %v, want 3.5", got)
	}
	center := funcs["center"].(func(int, int) float64)
	if got := center(40, 9); got != 44.5 {
		t.Errorf("center(40, 9) = %v, want 44.5", got)
	}
	sub := funcs["sub"].(func(int, int) int)
	if got := sub(5, 2); got != 3 {
		t.Errorf("sub(5, 2) = %d, want 3", got)
	}
}
