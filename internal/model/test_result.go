package model

import "time"

// TestResult 一次已完成测试的评分结果，创建后不再修改
// swagger:model TestResult
type TestResult struct {
	BaseModel
	UserID         uint      `gorm:"index;type:bigint unsigned" json:"userId"`
	User           *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Score          int       `gorm:"not null" json:"score"`
	TotalQuestions int       `gorm:"not null" json:"totalQuestions"`
	IQScore        int       `gorm:"not null" json:"iqScore"`
	CompletedAt    time.Time `json:"completedAt"`

	Answers []UserAnswer `gorm:"foreignKey:TestResultID" json:"answers,omitempty"`
}

func (TestResult) TableName() string {
	return "test_results"
}

// UserAnswer 结果中的单题作答，正确性在提交时计算并固化
// swagger:model UserAnswer
type UserAnswer struct {
	BaseModel
	TestResultID   uint   `gorm:"index;type:bigint unsigned" json:"testResultId"`
	QuestionID     uint   `gorm:"index;type:bigint unsigned" json:"questionId"`
	SelectedAnswer string `gorm:"size:255" json:"selectedAnswer"`
	IsCorrect      bool   `gorm:"default:false" json:"isCorrect"`
}

func (UserAnswer) TableName() string {
	return "user_answers"
}
