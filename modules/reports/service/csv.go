package service

import (
	"bytes"
	"encoding/csv"

	"github.com/andreypavlenko/offertrack/internal/platform/runerr"
)

// WriteCSVBytes renders a header and rows as UTF-8 CSV bytes, per §6's "all
// CSVs are UTF-8 with a header row" rule. Exported for the run-level
// artifact writers in the pipeline orchestrator.
func WriteCSVBytes(header []string, rows [][]string) ([]byte, error) {
	return writeCSVBytes(header, rows)
}

func writeCSVBytes(header []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, runerr.New(runerr.KindArtifactWrite, err, "write csv header")
	}
	for _, r := range rows {
		if err := w.Write(r); err != nil {
			return nil, runerr.New(runerr.KindArtifactWrite, err, "write csv row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, runerr.New(runerr.KindArtifactWrite, err, "flush csv")
	}
	return buf.Bytes(), nil
}
