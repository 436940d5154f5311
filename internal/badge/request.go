package badge

import (
	"fmt"
	"strconv"
)

// Output formats.
const (
	FormatSVG  = "svg"
	FormatJSON = "json"
)

const (
	// DefaultTemplate is the style used when a request names none.
	DefaultTemplate = "default"
	// DefaultLogoColor fills logos when a request names no color.
	DefaultLogoColor = "#fff"
	// DefaultLogoWidth is the logo width used when a logo is requested without one.
	DefaultLogoWidth = 14
	// LogoPadding separates a logo from the label text.
	LogoPadding = 3
)

// Request is a badge request as received from a client. Text values may be any
// JSON scalar; they are coerced to strings by Normalize.
type Request struct {
	Text        []any    `json:"text"`
	Colorscheme string   `json:"colorscheme,omitempty"`
	ColorA      string   `json:"colorA,omitempty"`
	ColorB      string   `json:"colorB,omitempty"`
	Logo        string   `json:"logo,omitempty"`
	LogoColor   string   `json:"logoColor,omitempty"`
	LogoWidth   int      `json:"logoWidth,omitempty"`
	Template    string   `json:"template,omitempty"`
	Format      string   `json:"format,omitempty"`
	Links       []string `json:"links,omitempty"`
}

// Badge is a validated request with every default applied.
type Badge struct {
	Text        [2]string
	Colorscheme string
	ColorA      string
	ColorB      string
	Logo        string
	LogoColor   string
	LogoWidth   int
	Template    string
	Format      string
	Links       [2]string
}

// ValidationError indicates a request that cannot be normalized.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("badge: invalid %s: %s", e.Field, e.Reason)
}

// Normalize validates req and applies defaults: the format falls back to svg,
// the template to the default style, the logo color to white and links to an
// empty pair.
func Normalize(req Request) (Badge, error) {
	if len(req.Text) != 2 {
		return Badge{}, &ValidationError{Field: "text", Reason: fmt.Sprintf("want 2 values, got %d", len(req.Text))}
	}
	if len(req.Links) > 2 {
		return Badge{}, &ValidationError{Field: "links", Reason: fmt.Sprintf("want at most 2 values, got %d", len(req.Links))}
	}
	if req.LogoWidth < 0 {
		return Badge{}, &ValidationError{Field: "logoWidth", Reason: fmt.Sprintf("must be non-negative, got %d", req.LogoWidth)}
	}

	b := Badge{
		Colorscheme: req.Colorscheme,
		ColorA:      req.ColorA,
		ColorB:      req.ColorB,
		Logo:        req.Logo,
		LogoColor:   req.LogoColor,
		LogoWidth:   req.LogoWidth,
		Template:    req.Template,
		Format:      req.Format,
	}
	for i, v := range req.Text {
		s, err := coerce(v)
		if err != nil {
			return Badge{}, &ValidationError{Field: fmt.Sprintf("text[%d]", i), Reason: err.Error()}
		}
		b.Text[i] = s
	}
	copy(b.Links[:], req.Links)

	if b.Format != FormatJSON {
		b.Format = FormatSVG
	}
	if b.Template == "" {
		b.Template = DefaultTemplate
	}
	if b.LogoColor == "" {
		b.LogoColor = DefaultLogoColor
	}
	return b, nil
}

// coerce converts a decoded JSON scalar to its text form.
func coerce(v any) (string, error) {
	switch v := v.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return "", fmt.Errorf("unsupported value of type %T", v)
	}
}
