// Package bankfile encodes and decodes fixed-width bank transfer files.
// Column widths and offsets are a per-bank contract: the receiving bank's
// importer matches bytes, not fields, so every layout is reproduced exactly
// and the decoder is the strict inverse of the encoder.
package bankfile

import "time"

// Layout describes one bank's fixed-width encoding.
type Layout struct {
	Variant     string
	DetailCode  string // transaction code opening every detail line
	TrailerCode string // empty when the batch ends at EOF
	DateFormat  string // Go reference layout, always 8 characters wide
	RefWidth    int    // payer reference, left-justified, space-padded
	AmountWidth int    // minor units, right-justified, zero-padded
	RIBWidth    int    // beneficiary account field, left-justified, space-padded
	NameWidth   int    // beneficiary name, truncated then space-padded
	DescWidth   int    // free text, truncated then space-padded
	LineEnding  string
}

// payerRIBWidth is identical across known layouts: the routing block is the
// 20-digit RIB of the ordering account.
const payerRIBWidth = 20

const dateWidth = 8

// Record is one beneficiary payment line in its decoded form.
type Record struct {
	Reference       string
	ValueDate       time.Time
	Amount          int64 // minor units
	PayerRIB        string
	BeneficiaryRIB  string
	BeneficiaryName string
	Description     string
}

var layouts = map[string]Layout{
	"stb": {
		Variant:     "stb",
		DetailCode:  "11",
		TrailerCode: "19",
		DateFormat:  "02012006",
		RefWidth:    16,
		AmountWidth: 15,
		RIBWidth:    24,
		NameWidth:   30,
		DescWidth:   30,
		LineEnding:  "\r\n",
	},
	"biat": {
		Variant:     "biat",
		DetailCode:  "110",
		TrailerCode: "",
		DateFormat:  "20060102",
		RefWidth:    12,
		AmountWidth: 13,
		RIBWidth:    20,
		NameWidth:   35,
		DescWidth:   25,
		LineEnding:  "\n",
	},
}

// LayoutByVariant resolves a layout by its variant name.
func LayoutByVariant(variant string) (Layout, bool) {
	layout, ok := layouts[variant]
	return layout, ok
}

// Variants lists the known layout variant names.
func Variants() []string {
	names := make([]string, 0, len(layouts))
	for name := range layouts {
		names = append(names, name)
	}
	return names
}

// lineWidth is the fixed byte width of every line in the file.
func (l Layout) lineWidth() int {
	return len(l.DetailCode) + dateWidth + l.RefWidth + l.AmountWidth + payerRIBWidth + l.RIBWidth + l.NameWidth + l.DescWidth
}
