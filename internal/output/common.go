package output

import (
	"io"
	"os"
	"time"
)

const (
	reportDateLayout     = "2006-01-02 15:04"
	reportDateTimeLayout = "2006-01-02T15:04:05"
)

func limitTop[T any](items []T, top int) []T {
	if top <= 0 || top >= len(items) {
		return items
	}
	return items[:top]
}

func formatTimestamp(t time.Time, layout string) string {
	if layout == "" {
		layout = reportDateLayout
	}
	return t.Format(layout)
}

func bugfixMark(isBugfix bool) string {
	if isBugfix {
		return "yes"
	}
	return ""
}

func openOutputWriter(outputPath string) (io.Writer, *os.File, error) {
	if outputPath == "" {
		return os.Stdout, nil, nil
	}
	file, err := os.Create(outputPath)
	if err != nil {
		return nil, nil, err
	}
	return file, file, nil
}
