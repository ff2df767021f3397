package runtime

import (
	"time"

	"github.com/lestrrat-go/strftime"
)

// formatDiagnosticTime renders the current time with a strftime pattern,
// backing Config.DiagnosticTimeFormat the way tanema-luaf's `os.date`
// binding uses github.com/lestrrat-go/strftime.
func formatDiagnosticTime(pattern string) (string, error) {
	f, err := strftime.New(pattern)
	if err != nil {
		return "", err
	}
	return f.FormatString(time.Now()), nil
}
