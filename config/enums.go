package config

//go:generate go tool go-enum --marshal --names --values

// Requested output variant.
// ENUM(pdf, pdfa)
type OutputFmt int

// Archival reports whether output must follow archival (PDF/A) rules.
func (o OutputFmt) Archival() bool {
	return o == OutputFmtPdfa
}

func (o OutputFmt) Ext() string {
	switch o {
	case OutputFmtPdf, OutputFmtPdfa:
		return ".pdf"
	default:
		// this should never happen
		panic("unsupported format requested")
	}
}

// What to do when content references a style which is not defined anywhere.
// ENUM(fail, fallback)
type UnknownStyleMode int
