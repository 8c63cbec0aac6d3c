package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tbchen/factwatch/internal/common"
)

func TestValidate_TitleHardReject(t *testing.T) {
	v := NewValidator(common.GetLogger())

	body := `<html><head><title>聯發科 (2454-TW) 財報分析</title></head><body>台積電 2330 也被提及</body></html>`
	result := v.Validate(body, "聯發科 (2454-TW) 財報分析", "2330", "台積電")

	assert.False(t, result.IsValid)
	assert.Equal(t, 1, result.Layer)
	assert.GreaterOrEqual(t, result.Confidence, 0.9)
}

func TestValidate_TitleMatchingCodePasses(t *testing.T) {
	v := NewValidator(common.GetLogger())

	body := `<html><head><title>台積電 (2330-TW) FactSet 調查</title></head><body>台積電 (2330-TW) 分析師預估</body></html>`
	result := v.Validate(body, "台積電 (2330-TW) FactSet 調查", "2330", "台積電")

	assert.True(t, result.IsValid)
}

func TestValidate_PriceOnlyFalsePositive(t *testing.T) {
	v := NewValidator(common.GetLogger())

	// The article is about company 1234; 2330 appears only as a price,
	// with or without whitespace before 元.
	bodies := map[string]string{
		"unspaced": `某某 (1234-TW) 獲分析師看好，目標價升至 2330元，維持買進評等。`,
		"spaced":   `某某 (1234-TW) 獲分析師看好，目標價升至 2330 元，維持買進評等。`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			result := v.Validate(body, "", "2330", "台積電")

			assert.False(t, result.IsValid)
			assert.Equal(t, 2, result.Layer)
		})
	}
}

func TestValidate_PriceAndRealCodeContext(t *testing.T) {
	v := NewValidator(common.GetLogger())

	// 2330 appears both as a price and as a code; layer 2 must not fire.
	body := `台積電 (2330-TW) 分析師目標價升至 2330元。`
	result := v.Validate(body, "", "2330", "台積電")

	assert.True(t, result.IsValid)
	assert.Equal(t, 3, result.Layer)
}

func TestValidate_CoOccurrence(t *testing.T) {
	v := NewValidator(common.GetLogger())

	tests := []struct {
		name      string
		body      string
		wantValid bool
	}{
		{
			name:      "code context with full name",
			body:      `根據 FactSet 調查，台積電 2330-TW 的 EPS 預估上修。`,
			wantValid: true,
		},
		{
			name:      "code context via 代號",
			body:      `代號: 2330 台積電 分析師共識`,
			wantValid: true,
		},
		{
			name:      "code context without name",
			body:      `2330-TW 上漲 3% 😀😀😀😀😀😀`,
			wantValid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := v.Validate(tt.body, "", "2330", "台積電")
			assert.Equal(t, tt.wantValid, result.IsValid)
		})
	}
}

func TestValidate_ProximityFallback(t *testing.T) {
	v := NewValidator(common.GetLogger())

	// No formal code context, but code and name are adjacent.
	body := `外資報告指出 台積電 2330 明年展望樂觀。`
	result := v.Validate(body, "", "2330", "台積電")

	assert.True(t, result.IsValid)
}

func TestValidate_NoMatchRejected(t *testing.T) {
	v := NewValidator(common.GetLogger())

	result := v.Validate("這篇文章與股票無關。", "", "2330", "台積電")

	assert.False(t, result.IsValid)
	assert.NotEmpty(t, result.Reason)
}

func TestRuneIndexes(t *testing.T) {
	idx := runeIndexes("台積電abc台積電", "台積電")
	assert.Equal(t, []int{0, 6}, idx)
}
