package repository

import (
	"context"
	"encoding/json"
	"iqtest_backend/internal/model"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

const (
	questionPoolKey = "iqtest:questions:pool"
	questionPoolTTL = 10 * time.Minute
)

type QuestionRepository struct {
	DB    *gorm.DB
	Redis *redis.Client
	ctx   context.Context
}

func NewQuestionRepository(db *gorm.DB, rdb *redis.Client) *QuestionRepository {
	return &QuestionRepository{
		DB:    db,
		Redis: rdb,
		ctx:   context.Background(),
	}
}

// 缓存镜像：模型上的 CorrectAnswer/IsCorrect 不参与 JSON 序列化，
// 缓存需要完整字段，评分依赖正确答案
type cachedOption struct {
	ID         uint   `json:"id"`
	QuestionID uint   `json:"questionId"`
	Label      string `json:"label"`
	OptionText string `json:"optionText"`
	IsCorrect  bool   `json:"isCorrect"`
}

type cachedQuestion struct {
	ID            uint               `json:"id"`
	QuestionText  string             `json:"questionText"`
	ImageURL      string             `json:"imageUrl"`
	QuestionType  model.QuestionType `json:"questionType"`
	CorrectAnswer string             `json:"correctAnswer"`
	Options       []cachedOption     `json:"options"`
}

// ListAll 读取全部题目（含选项）。题库只读，按 TTL 走 Redis 旁路缓存。
func (r *QuestionRepository) ListAll() ([]model.Question, error) {
	if r.Redis != nil {
		if cached, err := r.Redis.Get(r.ctx, questionPoolKey).Result(); err == nil {
			var rows []cachedQuestion
			if err := json.Unmarshal([]byte(cached), &rows); err == nil {
				return fromCache(rows), nil
			}
		}
	}

	var questions []model.Question
	err := r.DB.Preload("Options", func(db *gorm.DB) *gorm.DB {
		return db.Order("label asc")
	}).Find(&questions).Error
	if err != nil {
		return nil, err
	}

	if r.Redis != nil {
		if payload, err := json.Marshal(toCache(questions)); err == nil {
			r.Redis.Set(r.ctx, questionPoolKey, payload, questionPoolTTL)
		}
	}

	return questions, nil
}

func (r *QuestionRepository) FindByIDs(ids []uint) ([]model.Question, error) {
	var questions []model.Question
	err := r.DB.Preload("Options", func(db *gorm.DB) *gorm.DB {
		return db.Order("label asc")
	}).Where("id IN ?", ids).Find(&questions).Error
	return questions, err
}

func toCache(questions []model.Question) []cachedQuestion {
	rows := make([]cachedQuestion, len(questions))
	for i, q := range questions {
		row := cachedQuestion{
			ID:            q.ID,
			QuestionText:  q.QuestionText,
			ImageURL:      q.ImageURL,
			QuestionType:  q.QuestionType,
			CorrectAnswer: q.CorrectAnswer,
			Options:       make([]cachedOption, len(q.Options)),
		}
		for j, opt := range q.Options {
			row.Options[j] = cachedOption{
				ID:         opt.ID,
				QuestionID: opt.QuestionID,
				Label:      opt.Label,
				OptionText: opt.OptionText,
				IsCorrect:  opt.IsCorrect,
			}
		}
		rows[i] = row
	}
	return rows
}

func fromCache(rows []cachedQuestion) []model.Question {
	questions := make([]model.Question, len(rows))
	for i, row := range rows {
		q := model.Question{
			QuestionText:  row.QuestionText,
			ImageURL:      row.ImageURL,
			QuestionType:  row.QuestionType,
			CorrectAnswer: row.CorrectAnswer,
			Options:       make([]model.Option, len(row.Options)),
		}
		q.ID = row.ID
		for j, opt := range row.Options {
			o := model.Option{
				QuestionID: opt.QuestionID,
				Label:      opt.Label,
				OptionText: opt.OptionText,
				IsCorrect:  opt.IsCorrect,
			}
			o.ID = opt.ID
			q.Options[j] = o
		}
		questions[i] = q
	}
	return questions
}
