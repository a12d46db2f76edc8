package record

import (
	"fmt"
	"testing"
	"time"

	"analytics-export/internal/analyticsdata"
	"analytics-export/internal/components/chrono"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func row(dimensions []string, metrics []string) analyticsdata.Row {
	out := analyticsdata.Row{}
	for _, d := range dimensions {
		out.DimensionValues = append(out.DimensionValues, analyticsdata.DimensionValue{Value: d})
	}
	for _, m := range metrics {
		out.MetricValues = append(out.MetricValues, analyticsdata.MetricValue{Value: m})
	}
	return out
}

func TestFlattenExample(t *testing.T) {
	clock := chrono.FixedImpl{At: time.Now()}
	today := chrono.Date(clock.Now())

	stamp, err := Stamp(StampRun, clock, chrono.Yesterday(clock))
	require.NoError(t, err)

	records, err := Flatten(analyticsdata.RunReportResponse{
		Rows: []analyticsdata.Row{
			row([]string{"US", "Seattle"}, []string{"120", "150", "300"}),
		},
	}, stamp)
	require.NoError(t, err)

	expected := []MetricRecord{{
		Country:         "US",
		City:            "Seattle",
		ActiveUsers:     "120",
		Sessions:        "150",
		ScreenPageViews: "300",
		Date:            today,
	}}
	if diff := cmp.Diff(expected, records); diff != "" {
		t.Fatalf("unexpected records (-want +got):\n%s", diff)
	}
}

func TestFlattenPreservesCountAndOrder(t *testing.T) {
	res := analyticsdata.RunReportResponse{}
	for i := 0; i < 25; i++ {
		res.Rows = append(res.Rows, row(
			[]string{fmt.Sprintf("country-%d", i), fmt.Sprintf("city-%d", i)},
			[]string{fmt.Sprint(i), fmt.Sprint(i * 2), fmt.Sprint(i * 3), "extra"},
		))
	}

	records, err := Flatten(res, "2024-07-14")
	require.NoError(t, err)
	require.Len(t, records, len(res.Rows))
	for i, r := range records {
		require.Equal(t, fmt.Sprintf("city-%d", i), r.City)
		require.Equal(t, fmt.Sprint(i*3), r.ScreenPageViews)
		require.Equal(t, "2024-07-14", r.Date)
	}
}

func TestFlattenEmpty(t *testing.T) {
	records, err := Flatten(analyticsdata.RunReportResponse{}, "2024-07-14")
	require.NoError(t, err)
	require.NotNil(t, records)
	require.Empty(t, records)
}

func TestFlattenMalformed(t *testing.T) {
	cases := []struct {
		name string
		row  analyticsdata.Row
	}{
		{name: "one dimension", row: row([]string{"US"}, []string{"1", "2", "3"})},
		{name: "two metrics", row: row([]string{"US", "Seattle"}, []string{"1", "2"})},
		{name: "empty", row: analyticsdata.Row{}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Flatten(analyticsdata.RunReportResponse{
				Rows: []analyticsdata.Row{
					row([]string{"US", "Seattle"}, []string{"1", "2", "3"}),
					c.row,
				},
			}, "2024-07-14")
			require.ErrorIs(t, err, ErrMalformedRow)
			require.ErrorContains(t, err, "row 1")
		})
	}
}

func TestStamp(t *testing.T) {
	clock := chrono.FixedImpl{At: time.Date(2024, 7, 15, 9, 0, 0, 0, time.UTC)}
	queried := chrono.Yesterday(clock)

	stamp, err := Stamp(StampQuery, clock, queried)
	require.NoError(t, err)
	require.Equal(t, "2024-07-14", stamp)

	stamp, err = Stamp(StampRun, clock, queried)
	require.NoError(t, err)
	require.Equal(t, "2024-07-15", stamp)

	_, err = Stamp("bogus", clock, queried)
	require.Error(t, err)
}

func TestValuesRoundTrip(t *testing.T) {
	r := MetricRecord{Country: "US", City: "Seattle", ActiveUsers: "1", Sessions: "2", ScreenPageViews: "3", Date: "2024-07-14"}
	back, err := FromValues(r.Values())
	require.NoError(t, err)
	require.Equal(t, r, back)

	_, err = FromValues([]string{"too", "few"})
	require.Error(t, err)
}
