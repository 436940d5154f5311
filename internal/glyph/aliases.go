package glyph

// defaultAliases maps short icon names to glyph ids.
var defaultAliases = map[string]string{
	"linux":          "f17c",
	"windows":        "f17a",
	"apple":          "f179",
	"android":        "f17b",
	"dollar":         "f155",
	"euro":           "f153",
	"bug":            "f188",
	"diamond":        "f219",
	"book":           "f02d",
	"code":           "f121",
	"eye":            "f06e",
	"check":          "f00c",
	"cloud":          "f0c2",
	"cloud-download": "f0ed",
	"github":         "f09b",
	"html5":          "f13b",
	"smile-o":        "f118",
	"frown-o":        "f119",
	"user":           "f007",
	"users":          "f0c0",
	"info":           "f129",
	"heart":          "f004",
}

// DefaultAliases returns a copy of the built-in alias table.
func DefaultAliases() map[string]string {
	out := make(map[string]string, len(defaultAliases))
	for k, v := range defaultAliases {
		out[k] = v
	}
	return out
}
