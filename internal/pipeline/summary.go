package pipeline

import (
	"fmt"
	"strings"
	"time"
)

type SinkOutcome struct {
	Name string
	Err  error
}

// Summary describes a single run, whether it succeeded or not.
type Summary struct {
	RunId      string
	Day        string
	Stamp      string
	RowCount   int
	Records    int
	Sinks      []SinkOutcome
	StartedAt  time.Time
	FinishedAt time.Time
	Err        error
}

func (s Summary) Succeeded() bool {
	return s.Err == nil
}

func (s Summary) Subject() string {
	if s.Succeeded() {
		return fmt.Sprintf("analytics export %s: %d records", s.Day, s.Records)
	}
	return fmt.Sprintf("analytics export %s: failed", s.Day)
}

// Body is the plain text report mailed after a run.
func (s Summary) Body() string {
	var out strings.Builder
	fmt.Fprintf(&out, "run id: %s\n", s.RunId)
	fmt.Fprintf(&out, "queried day: %s\n", s.Day)
	if s.Stamp != "" {
		fmt.Fprintf(&out, "date stamp: %s\n", s.Stamp)
	}
	fmt.Fprintf(&out, "rows reported: %d\n", s.RowCount)
	fmt.Fprintf(&out, "records: %d\n", s.Records)
	for _, sink := range s.Sinks {
		if sink.Err != nil {
			fmt.Fprintf(&out, "sink %s: failed: %s\n", sink.Name, sink.Err.Error())
			continue
		}
		fmt.Fprintf(&out, "sink %s: ok\n", sink.Name)
	}
	if !s.FinishedAt.IsZero() {
		fmt.Fprintf(&out, "duration: %s\n", s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond))
	}
	if s.Err != nil {
		fmt.Fprintf(&out, "error: %s\n", s.Err.Error())
	}
	return out.String()
}

// Message is the single line printed when the process exits.
func (s Summary) Message(csvPath, store string) string {
	if s.Err != nil {
		return fmt.Sprintf("An error occurred: %s", s.Err.Error())
	}
	return fmt.Sprintf("Data saved to %s and inserted into %s", csvPath, store)
}
