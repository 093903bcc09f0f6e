package summary

import (
	"fmt"
	"strings"

	"github.com/mark3labs/dealflow/internal/form"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Placeholder shown for empty values.
const Placeholder = "-"

var printer = message.NewPrinter(language.English)

// FormatValue renders a field value for display using its format hint.
// Values that do not parse are shown as entered.
func FormatValue(fld form.Field, value any) string {
	if form.IsEmpty(value) {
		return Placeholder
	}

	switch fld.Kind {
	case form.KindFiles:
		files := form.AsFiles(value)
		return fmt.Sprintf("%s (%d)", strings.Join(files, ", "), len(files))
	case form.KindNumber, form.KindDerived:
		n, err := form.ParseNumber(value)
		if err != nil {
			return form.AsString(value)
		}
		return formatNumber(fld.Format, n)
	default:
		return form.AsString(value)
	}
}

func formatNumber(f form.Format, n float64) string {
	switch f {
	case form.FormatCurrency:
		if n == float64(int64(n)) {
			return printer.Sprintf("$%d", int64(n))
		}
		return printer.Sprintf("$%.2f", n)
	case form.FormatPercent:
		return printer.Sprintf("%v%%", n)
	case form.FormatMonths:
		if n == 1 {
			return "1 month"
		}
		return printer.Sprintf("%v months", n)
	case form.FormatScore:
		return printer.Sprintf("%v / 100", n)
	default:
		return printer.Sprintf("%v", n)
	}
}
