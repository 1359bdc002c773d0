package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/newsroom-workflow/internal/domain/entity"
	"github.com/garyjia/newsroom-workflow/internal/domain/workflow"
)

func TestXLSXRenderer_Render(t *testing.T) {
	report := &entity.StatusReport{
		GeneratedAt: time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC),
		Total:       5,
		ByStatus: []entity.StatusCount{
			{Status: workflow.StateDraft, Count: 2},
			{Status: workflow.StateUnderReview, Count: 3},
		},
		ByBucket: map[entity.Bucket]int{
			entity.BucketInWorkflow: 3,
			entity.BucketReviewable: 3,
		},
	}

	label := func(s workflow.State) string { return strings.ToLower(s.String()) }
	r := NewXLSXRenderer(label, zap.NewNop())

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, report))
	assert.Equal(t, ContentTypeXLSX, r.ContentType())

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{statusSheet, bucketSheet}, f.GetSheetList())

	rows, err := f.GetRows(statusSheet)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 4)
	assert.Equal(t, "Status", rows[0][0])
	assert.Equal(t, []string{"UNDER_REVIEW", "under_review", "3", "yes", "yes", "no", "no", "no"}, rows[2])
	assert.Equal(t, "TOTAL", rows[3][0])
	assert.Equal(t, "5", rows[3][2])

	buckets, err := f.GetRows(bucketSheet)
	require.NoError(t, err)
	require.Len(t, buckets, 5)
	assert.Equal(t, []string{"in_workflow", "3"}, buckets[1])
	assert.Equal(t, []string{"needs_attention", "0"}, buckets[2])
}

func TestXLSXRenderer_DefaultLabel(t *testing.T) {
	r := NewXLSXRenderer(nil, zap.NewNop())

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, &entity.StatusReport{
		ByStatus: []entity.StatusCount{{Status: workflow.StateApproved, Count: 1}},
		Total:    1,
	}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	v, err := f.GetCellValue(statusSheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, "APPROVED", v)
}
