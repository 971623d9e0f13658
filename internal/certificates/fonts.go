package certificates

import (
	_ "embed"
	"fmt"
	"unicode"

	"github.com/go-pdf/fpdf"

	"github.com/zedemy/zedemy/backend/go-services/internal/apperr"
)

// DejaVu Sans Condensed, as shipped with fpdf. Learner names and categories
// are drawn with it so they keep their original script.
var (
	//go:embed fonts/DejaVuSansCondensed.ttf
	dejaVuRegular []byte
	//go:embed fonts/DejaVuSansCondensed-Bold.ttf
	dejaVuBold []byte
	//go:embed fonts/DejaVuSansCondensed-BoldOblique.ttf
	dejaVuBoldOblique []byte
)

const textFont = "DejaVu"

func addTextFonts(pdf *fpdf.Fpdf) {
	pdf.AddUTF8FontFromBytes(textFont, "", dejaVuRegular)
	pdf.AddUTF8FontFromBytes(textFont, "B", dejaVuBold)
	pdf.AddUTF8FontFromBytes(textFont, "BI", dejaVuBoldOblique)
}

// scripts the embedded font has glyphs for.
var drawable = []*unicode.RangeTable{unicode.Latin, unicode.Greek, unicode.Cyrillic, unicode.Common, unicode.Inherited}

// checkDrawable rejects text the embedded font would render as empty boxes.
func checkDrawable(field, s string) error {
	for _, r := range s {
		if !unicode.In(r, drawable...) {
			return apperr.Encoding("certificate "+field, fmt.Errorf("no glyph for %q (U+%04X)", r, r))
		}
	}
	return nil
}
