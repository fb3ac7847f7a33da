package export

import (
	"io"
	"strings"
	"unicode"

	"github.com/ridgelinevc/portfolio-backend/internal/dto"
	"github.com/ridgelinevc/portfolio-backend/internal/errs"
	"github.com/ridgelinevc/portfolio-backend/internal/metrics"
)

// Write renders a generated report in the named format.
func Write(w io.Writer, format string, data dto.ReportData) error {
	switch format {
	case dto.FormatCSV:
		return WriteCSV(w, data)
	case dto.FormatXLSX:
		return WriteXLSX(w, data)
	default:
		return errs.NewUnsupportedFormatError(format)
	}
}

// ContentType maps a format to its download MIME type.
func ContentType(format string) (string, error) {
	switch format {
	case dto.FormatCSV:
		return "text/csv; charset=utf-8", nil
	case dto.FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", nil
	default:
		return "", errs.NewUnsupportedFormatError(format)
	}
}

// Filename slugs the report name into a safe attachment filename.
func Filename(name, format string) string {
	slug := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return unicode.ToLower(r)
		case r == ' ' || r == '-' || r == '_':
			return '-'
		default:
			return -1
		}
	}, name)
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "report"
	}
	return slug + "." + format
}

func periodLabels(periods []metrics.PeriodKey) []string {
	labels := make([]string, len(periods))
	for i, p := range periods {
		labels[i] = string(p)
	}
	return labels
}
