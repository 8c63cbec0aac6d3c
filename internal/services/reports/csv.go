package reports

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/tbchen/factwatch/internal/models"
)

// utf8BOM prefixes every report so spreadsheet tools pick up the CJK
// headers correctly.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var portfolioHeader = []string{
	"代號", "名稱", "股票代號", "MD最舊日期", "MD最新日期", "MD資料筆數",
	"分析師數量", "目標價", "2025EPS平均值", "2026EPS平均值", "2027EPS平均值",
	"品質評分", "狀態", "更新日期",
}

var detailedHeader = []string{
	"代號", "名稱", "MD日期", "分析師數量", "目標價",
	"2025EPS最高值", "2025EPS最低值", "2025EPS平均值",
	"2026EPS最高值", "2026EPS最低值", "2026EPS平均值",
	"2027EPS最高值", "2027EPS最低值", "2027EPS平均值",
	"品質評分", "狀態", "驗證狀態", "檔案名稱", "檔案連結", "更新日期",
}

var patternHeader = []string{
	"Query pattern", "使用次數", "平均品質評分", "最高品質評分", "最低品質評分",
	"相關公司數量", "品質狀態", "分類", "效果評級", "更新日期",
}

var coverageHeader = []string{
	"代號", "名稱", "處理狀態", "檔案數量", "最佳品質評分", "MD最舊日期",
	"MD最新日期", "分析師數量", "目標價", "關鍵字", "備註", "更新日期",
}

func writePortfolioCSV(path string, rows []models.PortfolioRow) error {
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, []string{
			row.Code,
			row.Name,
			row.Code + ".TW",
			row.OldestMDDate,
			row.LatestMDDate,
			strconv.Itoa(row.FileCount),
			strconv.Itoa(row.AnalystCount),
			formatFloatPtr(row.TargetPrice),
			formatFloatPtr(row.EPSAvg[2025]),
			formatFloatPtr(row.EPSAvg[2026]),
			formatFloatPtr(row.EPSAvg[2027]),
			formatScore(row.QualityScore),
			row.Status,
			row.UpdatedAt,
		})
	}
	return writeCSV(path, portfolioHeader, records)
}

func writeDetailedCSV(path string, rows []models.DetailedRow) error {
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		record := []string{
			row.Code,
			row.Name,
			row.MDDate,
			strconv.Itoa(row.AnalystCount),
			formatFloatPtr(row.TargetPrice),
		}
		for _, year := range models.ForecastYears {
			r := row.EPS[year]
			if r == nil {
				record = append(record, "", "", "")
				continue
			}
			record = append(record, formatFloatPtr(r.High), formatFloatPtr(r.Low), formatFloatPtr(r.Avg))
		}
		record = append(record,
			formatScore(row.QualityScore),
			row.Status,
			row.Validation,
			row.Filename,
			row.ArtifactURL,
			row.UpdatedAt,
		)
		records = append(records, record)
	}
	return writeCSV(path, detailedHeader, records)
}

func writePatternCSV(path string, rows []models.PatternRow) error {
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, []string{
			row.Pattern,
			strconv.Itoa(row.UsageCount),
			formatScore(row.AvgScore),
			formatScore(row.MaxScore),
			formatScore(row.MinScore),
			strconv.Itoa(row.CompanyCount),
			row.Status,
			row.Category,
			row.Rating,
			row.UpdatedAt,
		})
	}
	return writeCSV(path, patternHeader, records)
}

func writeCoverageCSV(path string, rows []models.CoverageRow) error {
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		score := ""
		analysts := ""
		if row.FileCount > 0 {
			score = formatScore(row.BestScore)
			analysts = strconv.Itoa(row.AnalystCount)
		}
		records = append(records, []string{
			row.Code,
			row.Name,
			string(row.Status),
			strconv.Itoa(row.FileCount),
			score,
			row.OldestMDDate,
			row.LatestMDDate,
			analysts,
			formatFloatPtr(row.TargetPrice),
			row.Keywords,
			row.Note,
			row.UpdatedAt,
		})
	}
	return writeCSV(path, coverageHeader, records)
}

// writeCSV writes a BOM-prefixed CSV atomically.
func writeCSV(path string, header []string, records [][]string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create reports directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "report-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create report temp file: %w", err)
	}

	write := func() error {
		if _, err := tmp.Write(utf8BOM); err != nil {
			return err
		}
		w := csv.NewWriter(tmp)
		if err := w.Write(header); err != nil {
			return err
		}
		if err := w.WriteAll(records); err != nil {
			return err
		}
		w.Flush()
		return w.Error()
	}

	if err := write(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write report %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close report temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to finalize report %s: %w", path, err)
	}
	return nil
}

// formatScore renders a quality score with two fixed decimals.
func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', 2, 64)
}

// formatFloatPtr renders an optional value, empty when absent.
func formatFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}
