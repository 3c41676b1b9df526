package forecast

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

// CSVHeader is the column layout of the combined export.
var CSVHeader = []string{"feature", "date", "predicted", "lower", "upper"}

// WriteCSV writes points, in order, as a CSV table with CSVHeader.
func WriteCSV(w io.Writer, points []Point) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, p := range points {
		row := []string{
			string(p.Feature),
			p.Date.Format(time.DateOnly),
			formatFloat(p.Predicted),
			formatFloat(p.Lower),
			formatFloat(p.Upper),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
