package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tsmcArticle = `台積電 (2330-TW) 最新 FactSet 調查:
2025 EPS 平均值 46.00 最高 50.00 最低 42.00 中位數 46.00
市場預估持續上修, 共 30 位分析師 給予評價, 目標價 850 元
鉅亨網新聞中心 2025-06-20 14:00`

func TestExtract_TsmcArticle(t *testing.T) {
	fields := Extract(tsmcArticle)

	assert.Equal(t, "2025/06/20", fields.MDDate)
	assert.Equal(t, 30, fields.AnalystCount)
	require.NotNil(t, fields.TargetPrice)
	assert.Equal(t, 850.0, *fields.TargetPrice)

	eps := fields.EPS[2025]
	require.NotNil(t, eps)
	assert.True(t, eps.Complete())
	assert.Equal(t, 46.0, *eps.Avg)
	assert.Equal(t, 50.0, *eps.High)
	assert.Equal(t, 42.0, *eps.Low)
	assert.Equal(t, 46.0, *eps.Median)
}

func TestExtract_ConsensusTable(t *testing.T) {
	body := `FactSet 最新調查 EPS 預估:
| 預估 | 2025年 | 2026年 | 2027年 |
| 最高值 | 50.00 | 58.00 | 66.00 |
| 最低值 | 42.00 | 48.00 | 55.00 |
| 平均值 | 46.00 | 53.00 | 60.00 |
| 中位數 | 46.00 | 53.50 | 61.00 |

共 28 位分析師`

	fields := Extract(body)

	for _, year := range []int{2025, 2026, 2027} {
		require.NotNil(t, fields.EPS[year], "year %d", year)
		assert.True(t, fields.EPS[year].Complete(), "year %d", year)
	}
	assert.Equal(t, 53.0, *fields.EPS[2026].Avg)
	assert.Equal(t, 66.0, *fields.EPS[2027].High)
	assert.Empty(t, fields.Revenue)
}

func TestExtract_RevenueTable(t *testing.T) {
	body := `FactSet 營收 預估 (億元):
| 預估 | 2025年 | 2026年 | 2027年 |
| 最高值 | 980.0 | 999.0 | 999.5 |
| 平均值 | 900.0 | 950.0 | 980.0 |`

	fields := Extract(body)

	require.NotNil(t, fields.Revenue[2025])
	assert.Equal(t, 900.0, *fields.Revenue[2025].Avg)
	assert.Empty(t, fields.EPS)
}

func TestExtract_DiscardsOutOfRangeValues(t *testing.T) {
	body := `2025 年 EPS 平均值 1500.0 最高 0 最低 42.00`

	fields := Extract(body)

	eps := fields.EPS[2025]
	require.NotNil(t, eps)
	assert.Nil(t, eps.Avg)  // >= 1000
	assert.Nil(t, eps.High) // <= 0
	require.NotNil(t, eps.Low)
	assert.Equal(t, 42.0, *eps.Low)
}

func TestExtract_NoFields(t *testing.T) {
	fields := Extract("這篇文章沒有任何財務數據。")

	assert.Empty(t, fields.EPS)
	assert.Empty(t, fields.Revenue)
	assert.Nil(t, fields.TargetPrice)
	assert.Zero(t, fields.AnalystCount)
	assert.Empty(t, fields.MDDate)
}

func TestExtractDate_Priorities(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "cnyes byline outranks generic date",
			body: "發布於 2024/01/05 鉅亨網新聞中心 2025-06-20 14:00",
			want: "2025/06/20",
		},
		{
			name: "starred timestamp",
			body: "* 2025-3-7 09:30 市場快訊",
			want: "2025/03/07",
		},
		{
			name: "chinese date form",
			body: "本文發表於 2025年6月5日",
			want: "2025/06/05",
		},
		{
			name: "slash date form",
			body: "更新: 2025/6/20",
			want: "2025/06/20",
		},
		{
			name: "year out of window",
			body: "資料截至 2019/12/31",
			want: "",
		},
		{
			name: "invalid calendar date",
			body: "日期 2025年2月31日",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractDate(tt.body))
		})
	}
}

func TestExtractDate_SkipsHeaderBlock(t *testing.T) {
	body := `---
url: https://example.com/a
extracted_date: 2026-01-02T03:04:05Z
---
鉅亨網新聞中心 2025-06-20 14:00`

	assert.Equal(t, "2025/06/20", ExtractDate(body))
}

func TestStripHeaderBlock(t *testing.T) {
	assert.Equal(t, "body\n", StripHeaderBlock("---\nk: v\n---\nbody\n"))
	assert.Equal(t, "no header", StripHeaderBlock("no header"))
	assert.Equal(t, "---\nunclosed", StripHeaderBlock("---\nunclosed"))
}

func TestExtract_AnalystCountEnglish(t *testing.T) {
	fields := Extract("Based on estimates from 25 analysts surveyed by FactSet.")
	assert.Equal(t, 25, fields.AnalystCount)
}
