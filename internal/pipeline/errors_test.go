package pipeline

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"analytics-export/internal/config"

	"github.com/stretchr/testify/require"
)

func TestExitCode(t *testing.T) {
	require.Equal(t, 0, ExitCode(nil, config.ExitStageCodes))
	require.Equal(t, 0, ExitCode(&StageError{Stage: StageStore, Err: errors.New("x")}, config.ExitAlwaysZero))

	cases := map[Stage]int{
		StageConfig:  1,
		StageAuth:    2,
		StageFetch:   3,
		StageFlatten: 4,
		StageCsv:     5,
		StageStore:   6,
	}
	for stage, code := range cases {
		err := fmt.Errorf("wrapped: %w", &StageError{Stage: stage, Err: errors.New("x")})
		require.Equal(t, code, ExitCode(err, config.ExitStageCodes), stage)
	}

	require.Equal(t, 1, ExitCode(errors.New("unclassified"), config.ExitStageCodes))
	require.Equal(t, 1, ExitCode(&StageError{Stage: "other", Err: errors.New("x")}, config.ExitStageCodes))

	joined := errors.Join(
		&StageError{Stage: StageStore, Err: errors.New("store")},
		&StageError{Stage: StageCsv, Err: errors.New("csv")},
	)
	require.Equal(t, 6, ExitCode(joined, config.ExitStageCodes))
}

func TestStageError(t *testing.T) {
	inner := errors.New("connection refused")
	err := stageError(StageStore, inner)
	require.EqualError(t, err, "store: connection refused")
	require.ErrorIs(t, err, inner)
	require.Nil(t, stageError(StageStore, nil))
}

func TestSummaryMessage(t *testing.T) {
	started := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	summary := Summary{
		RunId:      "run",
		Day:        "2024-03-14",
		Records:    2,
		Sinks:      []SinkOutcome{{Name: "csv"}, {Name: "store", Err: errors.New("locked")}},
		StartedAt:  started,
		FinishedAt: started.Add(1500 * time.Millisecond),
	}
	require.Equal(t,
		"Data saved to analytics_data.csv and inserted into state.db",
		summary.Message("analytics_data.csv", "state.db"),
	)
	body := summary.Body()
	require.Contains(t, body, "run id: run\n")
	require.Contains(t, body, "sink store: failed: locked\n")
	require.Contains(t, body, "duration: 1.5s\n")

	summary.Err = errors.New("boom")
	require.Equal(t, "An error occurred: boom", summary.Message("a", "b"))
}
