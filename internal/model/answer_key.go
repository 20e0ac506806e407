package model

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// AnswerKey 按题型区分的正确答案表示。
// multiple_choice 以选项的 is_correct 标记为准（CorrectAnswer 里的
// 选项标签作为兜底）；其余题型从 CorrectAnswer 解析 JSON 结构。
type AnswerKey struct {
	Type QuestionType

	// multiple_choice
	Choice string

	// short_answer
	Accept []string `json:"accept"`

	// numeric
	Value     float64 `json:"value"`
	Tolerance float64 `json:"tolerance"`

	// grid（按行优先展开的单元格）
	Cells []string `json:"cells"`
}

// AnswerKeyFor 解析题目的正确答案。解析失败返回 ok=false，
// 调用方按“答错”处理，不作为错误向上抛。
func AnswerKeyFor(q *Question) (AnswerKey, bool) {
	key := AnswerKey{Type: q.QuestionType}

	switch q.QuestionType {
	case MultipleChoice:
		for _, opt := range q.Options {
			if opt.IsCorrect {
				key.Choice = opt.Label
				return key, true
			}
		}
		if label := strings.TrimSpace(q.CorrectAnswer); label != "" {
			key.Choice = label
			return key, true
		}
		return key, false
	case ShortAnswer, Numeric, Grid:
		if err := json.Unmarshal([]byte(q.CorrectAnswer), &key); err != nil {
			return key, false
		}
		key.Type = q.QuestionType
		switch q.QuestionType {
		case ShortAnswer:
			return key, len(key.Accept) > 0
		case Grid:
			return key, len(key.Cells) > 0
		}
		return key, true
	}
	return key, false
}

// Matches 判断提交的答案是否命中正确答案
func (k AnswerKey) Matches(selected string) bool {
	switch k.Type {
	case MultipleChoice:
		return strings.TrimSpace(selected) == k.Choice
	case ShortAnswer:
		got := strings.ToLower(strings.TrimSpace(selected))
		for _, accept := range k.Accept {
			if got == strings.ToLower(strings.TrimSpace(accept)) {
				return true
			}
		}
		return false
	case Numeric:
		got, err := strconv.ParseFloat(strings.TrimSpace(selected), 64)
		if err != nil {
			return false
		}
		return math.Abs(got-k.Value) <= k.Tolerance
	case Grid:
		var cells []string
		if err := json.Unmarshal([]byte(selected), &cells); err != nil {
			return false
		}
		if len(cells) != len(k.Cells) {
			return false
		}
		for i := range cells {
			if strings.TrimSpace(cells[i]) != strings.TrimSpace(k.Cells[i]) {
				return false
			}
		}
		return true
	}
	return false
}
