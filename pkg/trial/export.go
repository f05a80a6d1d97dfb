package trial

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// WriteCSV writes all trials to w in the long-established lab format:
// a START row, one row per counted trigger, and an END row per trial.
// names are the sensor display names in channel order; they label the
// event rows and the per-sensor count column headers.
func WriteCSV(w io.Writer, trials []*Trial, names []string) error {
	cw := csv.NewWriter(w)

	header := []string{"Trial", "Trial_Start_Time", "Trial_Duration", "Sensor", "Event_Time"}
	for _, name := range names {
		header = append(header, countHeader(name))
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, t := range trials {
		start := t.StartedAt.Format("2006-01-02 15:04:05")
		duration := fmt.Sprintf("%.2f", t.Duration().Seconds())

		counts := make([]string, len(names))
		for i := range names {
			c := 0
			if i < len(t.Counts) {
				c = t.Counts[i]
			}
			counts[i] = fmt.Sprintf("%d", c)
		}

		row := func(sensor, eventTime string) []string {
			r := []string{fmt.Sprintf("%d", t.Number), start, duration, sensor, eventTime}
			return append(r, counts...)
		}

		if err := cw.Write(row("START", "0.00")); err != nil {
			return fmt.Errorf("failed to write trial %d: %w", t.Number, err)
		}

		for _, ev := range t.Events {
			if !ev.Counted {
				continue
			}
			name := fmt.Sprintf("Sensor %d", ev.Channel)
			if ev.Channel < len(names) {
				name = names[ev.Channel]
			}
			offset := fmt.Sprintf("%.4f", ev.Offset.Seconds())
			if err := cw.Write(row(name, offset)); err != nil {
				return fmt.Errorf("failed to write trial %d: %w", t.Number, err)
			}
		}

		if err := cw.Write(row("END", duration)); err != nil {
			return fmt.Errorf("failed to write trial %d: %w", t.Number, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// countHeader turns a sensor display name into its count column header,
// e.g. "Interface Sensor" -> "Interface_Sensor_Count".
func countHeader(name string) string {
	return strings.ReplaceAll(name, " ", "_") + "_Count"
}
