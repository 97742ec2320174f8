package bill

import (
	"fmt"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// isoDate is the layout bills are stored with
const isoDate = "2006-01-02"

// frenchShortMonths are the abbreviated month names of the fr locale
var frenchShortMonths = [...]string{
	"janv.", "févr.", "mars", "avr.", "mai", "juin",
	"juil.", "août", "sept.", "oct.", "nov.", "déc.",
}

// FormatDate turns a YYYY-MM-DD date into the list display form,
// e.g. "2004-04-04" becomes "4 Avr. 04".
func FormatDate(raw string) (string, error) {
	d, err := time.Parse(isoDate, raw)
	if err != nil {
		return "", fmt.Errorf("parsing date %q: %w", raw, err)
	}

	// A Caser keeps state between calls, so one is built per call.
	month := []rune(cases.Title(language.French).String(frenchShortMonths[d.Month()-1]))
	if len(month) > 3 {
		month = month[:3]
	}

	return fmt.Sprintf("%d %s. %02d", d.Day(), string(month), d.Year()%100), nil
}

// FormatStatus returns the label shown for a status code.
// Unknown codes are returned unchanged.
func FormatStatus(s Status) string {
	switch s {
	case StatusPending:
		return "En attente"
	case StatusAccepted:
		return "Accepté"
	case StatusRefused:
		return "Refusé"
	default:
		return string(s)
	}
}

// FormatAmount returns the amount with its currency sign
func FormatAmount(amount int) string {
	return fmt.Sprintf("%d €", amount)
}
