package repository

import (
	"errors"
	"iqtest_backend/internal/model"
	"iqtest_backend/internal/util"

	"gorm.io/gorm"
)

type TestResultRepository struct {
	DB *gorm.DB
}

func NewTestResultRepository(db *gorm.DB) *TestResultRepository {
	return &TestResultRepository{DB: db}
}

// CreateWithAnswers 在同一事务内写入结果行和全部答题行，
// 不会出现结果可见而答题缺失的中间状态
func (r *TestResultRepository) CreateWithAnswers(result *model.TestResult, answers []model.UserAnswer) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(result).Error; err != nil {
			return err
		}
		if len(answers) == 0 {
			return nil
		}
		for i := range answers {
			answers[i].TestResultID = result.ID
		}
		return tx.Create(&answers).Error
	})
}

func (r *TestResultRepository) ListByUser(userID uint) ([]model.TestResult, error) {
	var results []model.TestResult
	err := r.DB.Where("user_id = ?", userID).
		Order("completed_at desc").
		Find(&results).Error
	return results, err
}

func (r *TestResultRepository) FindByID(id uint) (*model.TestResult, error) {
	var result model.TestResult
	err := r.DB.Preload("Answers").First(&result, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrResultNotFound
	}
	return &result, err
}
