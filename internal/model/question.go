package model

// QuestionType 题目类型：除单选题外，正确答案以 JSON 结构存储
type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	ShortAnswer    QuestionType = "short_answer"
	Numeric        QuestionType = "numeric"
	Grid           QuestionType = "grid"
)

// swagger:model Question
type Question struct {
	BaseModel
	QuestionText  string       `gorm:"type:text;not null" json:"questionText"`
	ImageURL      string       `gorm:"size:255" json:"imageUrl"`
	QuestionType  QuestionType `gorm:"size:50;not null;default:'multiple_choice'" json:"questionType"`
	CorrectAnswer string       `gorm:"type:text" json:"-"`
	Options       []Option     `gorm:"foreignKey:QuestionID" json:"options,omitempty"`
}

func (Question) TableName() string {
	return "questions"
}

// swagger:model Option
type Option struct {
	BaseModel
	QuestionID uint   `gorm:"index;type:bigint unsigned;uniqueIndex:idx_question_label,priority:1" json:"questionId"`
	Label      string `gorm:"size:5;not null;uniqueIndex:idx_question_label,priority:2" json:"label"`
	OptionText string `gorm:"type:text;not null" json:"optionText"`
	IsCorrect  bool   `gorm:"default:false" json:"-"`
}

func (Option) TableName() string {
	return "question_options"
}
