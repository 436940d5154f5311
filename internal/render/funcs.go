package render

import "text/template"

var funcs = template.FuncMap{
	"add": func(nums ...int) int {
		total := 0
		for _, n := range nums {
			total += n
		}
		return total
	},
	"sub": func(a, b int) int { return a - b },
	// half returns n/2 as a float so centered text lands on half pixels.
	"half": func(n int) float64 { return float64(n) / 2 },
	// center returns the midpoint of a box of width n starting at offset.
	"center": func(offset, n int) float64 { return float64(offset) + float64(n)/2 },
}
