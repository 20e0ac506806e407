package database

import (
	"fmt"
	"iqtest_backend/internal/config"
	"iqtest_backend/internal/model"
	"log"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ShouldMigrate release 模式默认跳过自动迁移，需通过 -migrate 显式开启；
// 其余模式每次启动都迁移
func ShouldMigrate(mode string, force bool) bool {
	return force || mode != "release"
}

func InitDB(cfg *config.DatabaseConfig, migrate bool) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	if !migrate {
		return db, nil
	}

	err = db.AutoMigrate(
		&model.User{},
		&model.Question{},
		&model.Option{},
		&model.TestResult{},
		&model.UserAnswer{},
		&model.Transaction{},
	)

	if err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	seedQuestions(db)

	return db, nil
}

// seedQuestions 题库为空时注入默认题目。题目内容通常由外部内容
// 管理端维护，这里只保证新环境起得来。
func seedQuestions(db *gorm.DB) {
	var count int64
	db.Model(&model.Question{}).Count(&count)
	if count > 0 {
		return
	}

	type seedOption struct {
		label   string
		text    string
		correct bool
	}
	type seedQuestion struct {
		text    string
		qtype   model.QuestionType
		answer  string
		options []seedOption
	}

	seeds := []seedQuestion{
		{
			text:  "Which number comes next in the sequence: 2, 4, 8, 16, ...?",
			qtype: model.MultipleChoice,
			options: []seedOption{
				{"A", "18", false},
				{"B", "24", false},
				{"C", "30", false},
				{"D", "32", true},
			},
		},
		{
			text:  "Book is to Reading as Fork is to ...?",
			qtype: model.MultipleChoice,
			options: []seedOption{
				{"A", "Drawing", false},
				{"B", "Eating", true},
				{"C", "Writing", false},
				{"D", "Stirring", false},
			},
		},
		{
			text:  "Which word does NOT belong: apple, banana, rose, cherry?",
			qtype: model.MultipleChoice,
			options: []seedOption{
				{"A", "Apple", false},
				{"B", "Banana", false},
				{"C", "Rose", true},
				{"D", "Cherry", false},
			},
		},
		{
			text:  "If all Bloops are Razzies and all Razzies are Lazzies, are all Bloops definitely Lazzies?",
			qtype: model.MultipleChoice,
			options: []seedOption{
				{"A", "Yes", true},
				{"B", "No", false},
				{"C", "Cannot be determined", false},
			},
		},
		{
			text:  "Which number is one half of one quarter of one tenth of 800?",
			qtype: model.MultipleChoice,
			options: []seedOption{
				{"A", "2", false},
				{"B", "5", false},
				{"C", "10", true},
				{"D", "25", false},
			},
		},
		{
			text:   "A farmer has 17 sheep. All but 9 run away. How many sheep are left?",
			qtype:  model.Numeric,
			answer: `{"value": 9}`,
		},
		{
			text:   "Unscramble the letters to form a common English word: TCA",
			qtype:  model.ShortAnswer,
			answer: `{"accept": ["cat", "act"]}`,
		},
		{
			text:   "Fill in the 2x2 grid so each row doubles: first row is 1, 2. What is the second row (left, right)?",
			qtype:  model.Grid,
			answer: `{"cells": ["2", "4"]}`,
		},
	}

	for _, seed := range seeds {
		q := model.Question{
			QuestionText:  seed.text,
			QuestionType:  seed.qtype,
			CorrectAnswer: seed.answer,
		}
		for _, opt := range seed.options {
			q.Options = append(q.Options, model.Option{
				Label:      opt.label,
				OptionText: opt.text,
				IsCorrect:  opt.correct,
			})
		}
		db.Create(&q)
	}

	log.Printf("Seeded %d default questions", len(seeds))
}
