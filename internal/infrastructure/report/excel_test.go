package report

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/paraplan-hub/paraplan-report-hub/internal/domain/attendance"
	"github.com/paraplan-hub/paraplan-report-hub/internal/service/classifier"
)

func newTestWriter(t *testing.T) (*ExcelWriter, string) {
	t.Helper()
	dir := t.TempDir()
	return NewExcelWriter(dir, slog.New(slog.NewTextHandler(io.Discard, nil))), dir
}

func cellValue(t *testing.T, path, cell string) string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	v, err := f.GetCellValue(f.GetSheetName(0), cell)
	require.NoError(t, err)
	return v
}

func TestWriteRenewalStatus(t *testing.T) {
	w, dir := newTestWriter(t)

	path, err := w.WriteRenewalStatus([]classifier.RenewalStatusRow{
		{
			StudentName: "Анна",
			SubsEndDate: "20 Января 2024",
			CardLink:    "https://paraplancrm.ru/crm/#/students/s1/groups",
			GroupType:   "Вокал",
			Teacher:     "Иванова А.",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, FileNonRenewedMonth), path)

	assert.Equal(t, "Имя ученика", cellValue(t, path, "A1"))
	assert.Equal(t, "Дата окончания абонемента", cellValue(t, path, "B1"))
	assert.Equal(t, "Ссылка на карточку ученика", cellValue(t, path, "C1"))
	assert.Equal(t, "Тип группы", cellValue(t, path, "D1"))
	assert.Equal(t, "Педагог", cellValue(t, path, "E1"))

	assert.Equal(t, "Анна", cellValue(t, path, "A2"))
	assert.Equal(t, "20 Января 2024", cellValue(t, path, "B2"))
	assert.Equal(t, "Иванова А.", cellValue(t, path, "E2"))
}

func TestWriteWeekSummary(t *testing.T) {
	w, _ := newTestWriter(t)

	path, err := w.WriteWeekSummary(&classifier.WeekReport{
		Renewed: []classifier.WeekEntry{
			{CardLink: "link-renewed-1"},
			{CardLink: "link-renewed-2"},
		},
		NonRenewed: []classifier.WeekEntry{
			{CardLink: "link-lapsed-1"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Всего", cellValue(t, path, "A1"))
	assert.Equal(t, "3", cellValue(t, path, "A2"))
	assert.Equal(t, "Непродлившие", cellValue(t, path, "B1"))
	assert.Equal(t, "1", cellValue(t, path, "B2"))
	assert.Equal(t, "Продлившие", cellValue(t, path, "C1"))
	assert.Equal(t, "2", cellValue(t, path, "C2"))

	// Card links start on row 3 below their bucket column.
	assert.Equal(t, "link-lapsed-1", cellValue(t, path, "B3"))
	assert.Equal(t, "link-renewed-1", cellValue(t, path, "C3"))
	assert.Equal(t, "link-renewed-2", cellValue(t, path, "C4"))
}

func TestWriteEndingSoon(t *testing.T) {
	w, _ := newTestWriter(t)

	path, err := w.WriteEndingSoon([]classifier.EndingSoonRow{
		{TotalPrice: 5600.50, SubsEndDate: "25 Февраля 2024", CardLink: "link-1"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Сумма", cellValue(t, path, "A1"))
	assert.Equal(t, "Дата окончания абонемента", cellValue(t, path, "B1"))
	assert.Equal(t, "Ссылка на карточку ученика", cellValue(t, path, "C1"))
	assert.Equal(t, "5600.5", cellValue(t, path, "A2"))
	assert.Equal(t, "25 Февраля 2024", cellValue(t, path, "B2"))
}

func TestWriteTrialConversion(t *testing.T) {
	w, _ := newTestWriter(t)

	path, err := w.WriteTrialConversion([]classifier.TrialConversionRow{
		{StudentName: "Анна", CardLink: "link-1", Date: "2024-01-10 10:30", Subscribed: true, Teachers: "Иванова А."},
		{StudentName: "Вера", CardLink: "link-2", Date: "2024-01-11 18:00", Subscribed: false, Teachers: "Сидорова Г."},
	})
	require.NoError(t, err)

	assert.Equal(t, "Имя ученика", cellValue(t, path, "A1"))
	assert.Equal(t, "Статус абонемента", cellValue(t, path, "D1"))

	assert.Equal(t, "Куплен", cellValue(t, path, "D2"))
	assert.Equal(t, "Не куплен", cellValue(t, path, "D3"))
}

func TestWriteTeacherStats(t *testing.T) {
	w, _ := newTestWriter(t)

	path, err := w.WriteTeacherStats(map[string]attendance.TeacherStats{
		"Иванова А.": {
			AttendancesCount: 12,
			Statuses: attendance.StatusCounts{
				AttendedTrial: 2,
				WorkedOut:     1,
				Skip:          3,
				Attend:        20,
			},
		},
		"Борисов Б.": {
			AttendancesCount: 4,
			Statuses:         attendance.StatusCounts{Attend: 6},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Педагог", cellValue(t, path, "A1"))
	assert.Equal(t, "Занятий", cellValue(t, path, "B1"))

	// Teachers sorted by name: Борисов precedes Иванова.
	assert.Equal(t, "Борисов Б.", cellValue(t, path, "A2"))
	assert.Equal(t, "4", cellValue(t, path, "B2"))
	assert.Equal(t, "Иванова А.", cellValue(t, path, "A3"))
	assert.Equal(t, "12", cellValue(t, path, "B3"))
	assert.Equal(t, "2", cellValue(t, path, "C3"))
	assert.Equal(t, "20", cellValue(t, path, "F3"))
}

func TestWriteRenewalStatusEmpty(t *testing.T) {
	w, _ := newTestWriter(t)

	path, err := w.WriteRenewalStatus(nil)
	require.NoError(t, err)

	// Header survives even with no data rows.
	assert.Equal(t, "Имя ученика", cellValue(t, path, "A1"))
	assert.Equal(t, "", cellValue(t, path, "A2"))
}
