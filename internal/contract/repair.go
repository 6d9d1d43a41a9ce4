package contract

import (
	"regexp"
	"strings"
)

// Repair steps fix malformations language models commonly introduce
// into JSON output. Each step is a pure string transformation and the
// pipeline order matters: fences are removed before key quoting so the
// quoting regex sees the payload itself, and trailing commas are
// dropped last.

var (
	bareKeyPattern          = regexp.MustCompile(`([{,]\s*)([A-Za-z0-9_]+)\s*:`)
	trailingCommaObjPattern = regexp.MustCompile(`,\s*}`)
	trailingCommaArrPattern = regexp.MustCompile(`,\s*]`)
)

// RepairStep is one named transformation of the repair pipeline.
type RepairStep struct {
	Name  string
	Apply func(string) string
}

// RepairSteps is the ordered pipeline applied when a strict parse fails.
var RepairSteps = []RepairStep{
	{Name: "strip_code_fences", Apply: StripCodeFences},
	{Name: "quote_bare_keys", Apply: QuoteBareKeys},
	{Name: "strip_trailing_commas", Apply: StripTrailingCommas},
}

// StripCodeFences removes Markdown code fence markers. Models wrap JSON
// in ```json blocks even when told not to.
func StripCodeFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	return strings.ReplaceAll(s, "```", "")
}

// QuoteBareKeys quotes unquoted identifier-style object keys before a
// colon, turning {name: "x"} into {"name": "x"}.
func QuoteBareKeys(s string) string {
	return bareKeyPattern.ReplaceAllString(s, `$1"$2":`)
}

// StripTrailingCommas removes commas that directly precede a closing
// brace or bracket.
func StripTrailingCommas(s string) string {
	s = trailingCommaObjPattern.ReplaceAllString(s, "}")
	return trailingCommaArrPattern.ReplaceAllString(s, "]")
}

// Repair runs the full pipeline over the input.
func Repair(s string) string {
	for _, step := range RepairSteps {
		s = step.Apply(s)
	}
	return s
}
