// Package report renders classifier output into XLSX workbooks. The column
// layouts and Russian headers follow the files the administrators already
// receive, so the sheets must stay byte-for-byte familiar even as the data
// behind them changes.
package report

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/paraplan-hub/paraplan-report-hub/internal/domain/attendance"
	"github.com/paraplan-hub/paraplan-report-hub/internal/domain/shared"
	"github.com/paraplan-hub/paraplan-report-hub/internal/service/classifier"
)

// Default report file names, one per report kind.
const (
	FileNonRenewedMonth = "students-month.xlsx"
	FileWeekSummary     = "students-week-info.xlsx"
	FileEndingSoon      = "students-predicts.xlsx"
	FileTrialConversion = "conversion-of-trial-sessions.xlsx"
	FileTeacherStats    = "teachers-stats.xlsx"
)

// Subscription purchase labels of the trial conversion sheet.
const (
	labelSubscribed    = "Куплен"
	labelNotSubscribed = "Не куплен"
)

// ExcelWriter renders report rows into XLSX files under a base directory.
type ExcelWriter struct {
	outputDir string
	logger    *slog.Logger
}

// NewExcelWriter creates an ExcelWriter. An empty outputDir writes into the
// working directory.
func NewExcelWriter(outputDir string, logger *slog.Logger) *ExcelWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExcelWriter{outputDir: outputDir, logger: logger}
}

func (w *ExcelWriter) path(filename string) string {
	if w.outputDir == "" {
		return filename
	}
	return filepath.Join(w.outputDir, filename)
}

func (w *ExcelWriter) save(f *excelize.File, filename string) (string, error) {
	path := w.path(filename)
	if err := f.SaveAs(path); err != nil {
		return "", shared.WrapError("report", "Write", shared.ErrExternalService,
			fmt.Sprintf("save %s", filename), err)
	}
	return path, nil
}

// setRow writes a row of string cells starting at column A.
func setRow(f *excelize.File, sheet string, rowIndex int, cells []interface{}) error {
	for i, value := range cells {
		cell, err := excelize.CoordinatesToCellName(i+1, rowIndex)
		if err != nil {
			return fmt.Errorf("cell coordinates: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return fmt.Errorf("set cell %s: %w", cell, err)
		}
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// RENEWAL STATUS (MONTH)
// ══════════════════════════════════════════════════════════════════════════════

// WriteRenewalStatus renders the monthly non-renewed report and returns the
// written file path.
func (w *ExcelWriter) WriteRenewalStatus(rows []classifier.RenewalStatusRow) (string, error) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	header := []interface{}{
		"Имя ученика",
		"Дата окончания абонемента",
		"Ссылка на карточку ученика",
		"Тип группы",
		"Педагог",
	}
	if err := setRow(f, sheet, 1, header); err != nil {
		return "", err
	}

	for i, row := range rows {
		cells := []interface{}{row.StudentName, row.SubsEndDate, row.CardLink, row.GroupType, row.Teacher}
		if err := setRow(f, sheet, i+2, cells); err != nil {
			return "", err
		}
	}

	path, err := w.save(f, FileNonRenewedMonth)
	if err != nil {
		return "", err
	}
	w.logger.Info("excel file with non-renewed subs in month was created", "rows", len(rows))
	return path, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// WEEK SUMMARY
// ══════════════════════════════════════════════════════════════════════════════

// WriteWeekSummary renders the weekly renewal summary: totals in the first
// two rows, card links below their bucket column.
func (w *ExcelWriter) WriteWeekSummary(report *classifier.WeekReport) (string, error) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	if err := setRow(f, sheet, 1, []interface{}{"Всего", "Непродлившие", "Продлившие"}); err != nil {
		return "", err
	}
	counts := []interface{}{
		strconv.Itoa(report.Total()),
		strconv.Itoa(len(report.NonRenewed)),
		strconv.Itoa(len(report.Renewed)),
	}
	if err := setRow(f, sheet, 2, counts); err != nil {
		return "", err
	}

	for i, entry := range report.NonRenewed {
		cell := fmt.Sprintf("B%d", i+3)
		if err := f.SetCellValue(sheet, cell, entry.CardLink); err != nil {
			return "", fmt.Errorf("set cell %s: %w", cell, err)
		}
	}
	for i, entry := range report.Renewed {
		cell := fmt.Sprintf("C%d", i+3)
		if err := f.SetCellValue(sheet, cell, entry.CardLink); err != nil {
			return "", fmt.Errorf("set cell %s: %w", cell, err)
		}
	}

	path, err := w.save(f, FileWeekSummary)
	if err != nil {
		return "", err
	}
	w.logger.Info("excel file with students week subs info was created",
		"total", report.Total(), "non_renewed", len(report.NonRenewed), "renewed", len(report.Renewed))
	return path, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ENDING SOON
// ══════════════════════════════════════════════════════════════════════════════

// WriteEndingSoon renders the next-month revenue forecast.
func (w *ExcelWriter) WriteEndingSoon(rows []classifier.EndingSoonRow) (string, error) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	header := []interface{}{"Сумма", "Дата окончания абонемента", "Ссылка на карточку ученика"}
	if err := setRow(f, sheet, 1, header); err != nil {
		return "", err
	}

	for i, row := range rows {
		cells := []interface{}{row.TotalPrice, row.SubsEndDate, row.CardLink}
		if err := setRow(f, sheet, i+2, cells); err != nil {
			return "", err
		}
	}

	path, err := w.save(f, FileEndingSoon)
	if err != nil {
		return "", err
	}
	w.logger.Info("excel file with students ending subs in next month was created", "rows", len(rows))
	return path, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// TRIAL CONVERSION
// ══════════════════════════════════════════════════════════════════════════════

// WriteTrialConversion renders the trial attendance conversion report.
func (w *ExcelWriter) WriteTrialConversion(rows []classifier.TrialConversionRow) (string, error) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	header := []interface{}{
		"Имя ученика",
		"Ссылка на карточку ученика",
		"Дата пробного занятия",
		"Статус абонемента",
		"Педагог",
	}
	if err := setRow(f, sheet, 1, header); err != nil {
		return "", err
	}

	for i, row := range rows {
		status := labelNotSubscribed
		if row.Subscribed {
			status = labelSubscribed
		}
		cells := []interface{}{row.StudentName, row.CardLink, row.Date, status, row.Teachers}
		if err := setRow(f, sheet, i+2, cells); err != nil {
			return "", err
		}
	}

	path, err := w.save(f, FileTrialConversion)
	if err != nil {
		return "", err
	}
	w.logger.Info("excel file with students attended trial was created", "rows", len(rows))
	return path, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// TEACHER STATS
// ══════════════════════════════════════════════════════════════════════════════

// WriteTeacherStats renders per-teacher attendance statistics. Teachers are
// sorted by name so repeated runs produce identical sheets.
func (w *ExcelWriter) WriteTeacherStats(stats map[string]attendance.TeacherStats) (string, error) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	header := []interface{}{
		"Педагог",
		"Занятий",
		"Пробных",
		"Отработок",
		"Пропусков",
		"Посещений",
	}
	if err := setRow(f, sheet, 1, header); err != nil {
		return "", err
	}

	teachers := make([]string, 0, len(stats))
	for teacher := range stats {
		teachers = append(teachers, teacher)
	}
	sort.Strings(teachers)

	for i, teacher := range teachers {
		s := stats[teacher]
		cells := []interface{}{
			teacher,
			s.AttendancesCount,
			s.Statuses.AttendedTrial,
			s.Statuses.WorkedOut,
			s.Statuses.Skip,
			s.Statuses.Attend,
		}
		if err := setRow(f, sheet, i+2, cells); err != nil {
			return "", err
		}
	}

	path, err := w.save(f, FileTeacherStats)
	if err != nil {
		return "", err
	}
	w.logger.Info("excel file with teacher stats was created", "teachers", len(teachers))
	return path, nil
}
