package ledger

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeIntegritySource struct {
	missing    []int64
	mismatches []IntegrityIssue
}

func (f fakeIntegritySource) PostedWithoutEntries(ctx context.Context) ([]int64, error) {
	return f.missing, nil
}

func (f fakeIntegritySource) EntryTotalMismatches(ctx context.Context) ([]IntegrityIssue, error) {
	return f.mismatches, nil
}

func TestIntegrityCheckerHealthy(t *testing.T) {
	checker := NewIntegrityChecker(fakeIntegritySource{}, slog.Default())

	report, err := checker.Run(context.Background())
	require.NoError(t, err)
	require.True(t, report.Healthy)
	require.Empty(t, report.Issues)
	require.False(t, report.CheckedAt.IsZero())
}

func TestIntegrityCheckerCollectsIssues(t *testing.T) {
	checker := NewIntegrityChecker(fakeIntegritySource{
		missing: []int64{7},
		mismatches: []IntegrityIssue{
			{Kind: IssueTotalMismatch, VoucherID: 9, LineTotal: 500, Posted: 300},
		},
	}, slog.Default())

	report, err := checker.Run(context.Background())
	require.NoError(t, err)
	require.False(t, report.Healthy)
	require.Len(t, report.Issues, 2)
	require.Equal(t, IssueMissingEntries, report.Issues[0].Kind)
	require.Equal(t, int64(7), report.Issues[0].VoucherID)
	require.Equal(t, IssueTotalMismatch, report.Issues[1].Kind)
}
