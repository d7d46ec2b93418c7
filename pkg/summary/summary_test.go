package summary

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"p9e.in/sitebook/models"
)

func TestStockStatus(t *testing.T) {
	tests := []struct {
		name             string
		remaining, total float64
		want             Status
	}{
		{"empty", 0, 100, StatusOut},
		{"overdrawn", -5, 100, StatusOut},
		{"critical boundary", 10, 100, StatusCritical},
		{"just above critical", 10.01, 100, StatusLow},
		{"low boundary", 30, 100, StatusLow},
		{"just above low", 30.01, 100, StatusSufficient},
		{"full", 100, 100, StatusSufficient},
		{"no total", 5, 0, StatusUnknown},
		{"no total no stock", 0, 0, StatusOut},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StockStatus(tt.remaining, tt.total))
		})
	}
}

func TestWindow(t *testing.T) {
	days := Window(time.Date(2024, 2, 15, 13, 0, 0, 0, time.UTC))

	require.Len(t, days, WindowDays)
	assert.Equal(t, "2024-02-01", days[0].Key)
	assert.Equal(t, "2024-02-29", days[28].Key)
	assert.Equal(t, "2024-03-01", days[29].Key)
	assert.Equal(t, "01/02/67", days[0].Label)
	assert.Equal(t, "01/03/67", days[29].Label)
}

func approved(project uuid.UUID, code, requester, date string, items ...models.MaterialItem) models.MaterialRequest {
	return models.MaterialRequest{
		ID:            uuid.New(),
		RequestCode:   code,
		ProjectID:     project,
		RequesterName: requester,
		RequestDate:   models.MustDate(date),
		Status:        models.RequestApproved,
		Items:         items,
	}
}

func TestBuild(t *testing.T) {
	project := uuid.New()
	other := uuid.New()
	tracking := []models.MaterialTracking{
		{ID: uuid.New(), ProjectID: project, Description: "Steel Bar", TotalQuantity: 100},
		{ID: uuid.New(), ProjectID: project, Description: "Steel Bar", TotalQuantity: 20},
		{ID: uuid.New(), ProjectID: other, Description: "Sand", TotalQuantity: 50},
	}
	requests := []models.MaterialRequest{
		approved(project, "MR-1", "Somchai", "2024-03-05", models.MaterialItem{ItemName: "Steel Bar", Quantity: 10, Unit: "15"}),
		approved(project, "MR-2", "Malee", "2024-03-05", models.MaterialItem{ItemName: "Steel Bar", Quantity: 5, Unit: "3"}),
		approved(project, "MR-3", "Malee", "2024-03-06", models.MaterialItem{ItemName: "Cement", Quantity: 8, Unit: "bags"}),
		approved(other, "MR-4", "Anan", "2024-03-05", models.MaterialItem{ItemName: "Sand", Quantity: 1, Unit: "1"}),
	}
	pending := approved(project, "MR-5", "Anan", "2024-03-05", models.MaterialItem{ItemName: "Steel Bar", Quantity: 50, Unit: "50"})
	pending.Status = models.RequestPending
	requests = append(requests, pending)

	s := Build(Input{Tracking: tracking, Requests: requests, ProjectID: project, Anchor: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)})

	require.Len(t, s.Rows, 2)
	steel := s.Rows[0]
	assert.Equal(t, "Steel Bar", steel.Description)
	assert.Equal(t, tracking[0].ID, *steel.TrackingID)
	assert.Equal(t, 135.0, steel.Total)
	assert.Equal(t, 18.0, steel.Used)
	assert.Equal(t, 117.0, steel.Remaining)
	assert.Equal(t, StatusSufficient, steel.Status)
	assert.Equal(t, []Withdrawal{
		{Amount: 15, Requester: "Somchai", RequestCode: "MR-1"},
		{Amount: 3, Requester: "Malee", RequestCode: "MR-2"},
	}, steel.Cell("2024-03-05"))

	cement := s.Rows[1]
	assert.Equal(t, "Cement", cement.Description)
	assert.Nil(t, cement.TrackingID)
	assert.Equal(t, 8.0, cement.Total)
	assert.Equal(t, 0.0, cement.Used)
	assert.Empty(t, cement.Cell("2024-03-06"))

	assert.Equal(t, "2024-03-01", s.Days[0].Key)
}

func TestBuildAllProjects(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	s := Build(Input{
		Tracking: []models.MaterialTracking{
			{ID: uuid.New(), ProjectID: a, Description: "Sand", TotalQuantity: 10},
			{ID: uuid.New(), ProjectID: b, Description: "Sand", TotalQuantity: 10},
		},
		Requests: []models.MaterialRequest{
			approved(b, "MR-1", "Anan", "2024-03-05", models.MaterialItem{ItemName: "Sand", Quantity: 2, Unit: "19"}),
		},
		Anchor: time.Now(),
	})
	require.Len(t, s.Rows, 1)
	assert.Equal(t, 22.0, s.Rows[0].Total)
	assert.Equal(t, 3.0, s.Rows[0].Remaining)
	assert.Equal(t, StatusLow, s.Rows[0].Status)
}

func TestBuildIsIdempotent(t *testing.T) {
	project := uuid.New()
	in := Input{
		Tracking: []models.MaterialTracking{{ID: uuid.New(), ProjectID: project, Description: "Pipe", TotalQuantity: 10}},
		Requests: []models.MaterialRequest{
			approved(project, "MR-1", "Anan", "2024-03-05", models.MaterialItem{ItemName: "Pipe", Quantity: 1, Unit: "9"}),
		},
		ProjectID: project,
		Anchor:    time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, Build(in), Build(in))
	assert.Equal(t, 10.0, in.Tracking[0].TotalQuantity)
}

func TestFilterAndCounts(t *testing.T) {
	s := Summary{Rows: []Row{
		{Description: "Steel Bar", Status: StatusSufficient},
		{Description: "Steel Wire", Status: StatusOut},
		{Description: "Cement", Status: StatusLow},
	}}

	assert.Len(t, s.Filter("steel", "").Rows, 2)
	assert.Len(t, s.Filter("STEEL", "out").Rows, 1)
	assert.Len(t, s.Filter("", "all").Rows, 3)
	assert.Empty(t, s.Filter("brick", "all").Rows)

	counts := s.Counts()
	assert.Equal(t, 1, counts[StatusSufficient])
	assert.Equal(t, 1, counts[StatusOut])
	assert.Equal(t, 1, counts[StatusLow])
	assert.Equal(t, 0, counts[StatusCritical])
}

func TestWriteExcel(t *testing.T) {
	project := uuid.New()
	s := Build(Input{
		Tracking: []models.MaterialTracking{{ID: uuid.New(), ProjectID: project, Description: "Steel Bar", TotalQuantity: 100}},
		Requests: []models.MaterialRequest{
			approved(project, "MR-1", "Somchai", "2024-03-05", models.MaterialItem{ItemName: "Steel Bar", Quantity: 1, Unit: "15"}),
			approved(project, "MR-2", "Malee", "2024-03-05", models.MaterialItem{ItemName: "Steel Bar", Quantity: 1, Unit: "5"}),
		},
		ProjectID: project,
		Anchor:    time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	})

	var buf bytes.Buffer
	require.NoError(t, WriteExcel(&buf, s, "Site A"))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	title, err := f.GetCellValue(sheetName, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Site A", title)

	header, err := f.GetCellValue(sheetName, "F3")
	require.NoError(t, err)
	assert.Equal(t, "01/03/67", header)

	// 2024-03-05 is the fifth date column, after five fixed columns.
	cell, err := f.GetCellValue(sheetName, "J4")
	require.NoError(t, err)
	assert.Equal(t, "15 (Somchai)\n5 (Malee)", cell)
}
