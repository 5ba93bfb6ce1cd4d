package tsmeta

import (
	"strings"

	"github.com/fatih/color"

	"github.com/Shaima-Alhaddad/pymol-ts-info/internal/tsfile"
)

// displayOrder is the fixed field order of the trimmed view.
var displayOrder = []string{
	tsfile.KeyStoich,
	tsfile.KeyAuthor,
	tsfile.KeyMethod,
	tsfile.KeyScore,
	tsfile.KeyModel,
}

// friendlyLabels maps canonical fields to their display labels.
var friendlyLabels = map[string]string{
	tsfile.KeyStoich: "Stoichiometry",
	tsfile.KeyAuthor: "Author",
	tsfile.KeyMethod: "Method",
	tsfile.KeyScore:  "Score(s)",
	tsfile.KeyModel:  "Model",
}

// RenderOptions configures Render output.
type RenderOptions struct {
	NoColor bool
}

// Render formats the trimmed metadata view for key. A nil record renders
// the no-metadata notice; a record whose displayed fields are all empty
// renders the no-fields notice. Everything outside the fixed display order
// (remarks, format, title, compound, unrecognized captures) stays in the
// record but is never shown here.
func Render(key string, rec *tsfile.Record, opts *RenderOptions) string {
	noColor := false
	if opts != nil {
		noColor = opts.NoColor
	}

	header := color.New(color.Bold, color.FgCyan)
	label := color.New(color.FgCyan)

	if noColor {
		header.DisableColor()
		label.DisableColor()
	}

	var b strings.Builder

	b.WriteString(header.Sprintf("=== TS metadata for: %s ===", key))

	if rec == nil {
		b.WriteString("\n  (no TS metadata available)")

		return b.String()
	}

	printed := false

	for _, canon := range displayOrder {
		val := rec.Field(canon)
		if val == "" {
			continue
		}

		b.WriteString("\n")
		b.WriteString(label.Sprint(friendlyLabels[canon]))
		b.WriteString(": ")
		b.WriteString(val)

		printed = true
	}

	if !printed {
		b.WriteString("\n  (no recognized metadata fields found)")
	}

	return b.String()
}
