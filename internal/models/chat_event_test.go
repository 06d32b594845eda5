package models

import "testing"

func TestDailyReportAnswered(t *testing.T) {
	tests := []struct {
		name      string
		byOutcome map[string]int64
		want      int64
	}{
		{"empty", map[string]int64{}, 0},
		{"nil map", nil, 0},
		{"answered only", map[string]int64{OutcomeAnswered: 4}, 4},
		{"answered and canned", map[string]int64{OutcomeAnswered: 4, OutcomeCanned: 2, OutcomeRateLimited: 9}, 6},
		{"errors only", map[string]int64{OutcomeUpstreamError: 3, OutcomeInvalid: 1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &DailyReport{ByOutcome: tt.byOutcome}
			if got := r.Answered(); got != tt.want {
				t.Errorf("Answered() = %d, want %d", got, tt.want)
			}
		})
	}
}
