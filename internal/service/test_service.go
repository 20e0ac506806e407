package service

import (
	"iqtest_backend/internal/config"
	"iqtest_backend/internal/model"
	"iqtest_backend/internal/util"
	"math"
	"math/rand"
	"time"
)

type QuestionStore interface {
	ListAll() ([]model.Question, error)
	FindByIDs(ids []uint) ([]model.Question, error)
}

type TestResultStore interface {
	CreateWithAnswers(result *model.TestResult, answers []model.UserAnswer) error
	ListByUser(userID uint) ([]model.TestResult, error)
	FindByID(id uint) (*model.TestResult, error)
}

type TestService struct {
	Questions QuestionStore
	Results   TestResultStore
	Cfg       *config.Config
}

func NewTestService(questions QuestionStore, results TestResultStore, cfg *config.Config) *TestService {
	return &TestService{
		Questions: questions,
		Results:   results,
		Cfg:       cfg,
	}
}

type SessionOption struct {
	Label      string `json:"label"`
	OptionText string `json:"optionText"`
}

type SessionQuestion struct {
	ID           uint            `json:"id"`
	QuestionText string          `json:"questionText"`
	ImageURL     string          `json:"imageUrl"`
	Options      []SessionOption `json:"options"`
}

type TestSessionResponse struct {
	DurationMinutes int               `json:"durationMinutes"`
	TotalQuestions  int               `json:"totalQuestions"`
	Questions       []SessionQuestion `json:"questions"`
}

// StartSession 从题库等概率不放回抽取 min(N, poolSize) 道题。
// 不落库：客户端提交时回传 questionId + 所选答案。
// 返回给答题端的选项不携带任何正确性信息。
func (s *TestService) StartSession() (*TestSessionResponse, error) {
	pool, err := s.Questions.ListAll()
	if err != nil {
		return nil, err
	}

	policy := s.Cfg.TestPolicy()
	count := policy.QuestionCount
	if count > len(pool) {
		count = len(pool)
	}

	sampled := make([]model.Question, len(pool))
	copy(sampled, pool)
	rand.Shuffle(len(sampled), func(i, j int) {
		sampled[i], sampled[j] = sampled[j], sampled[i]
	})
	sampled = sampled[:count]

	questions := make([]SessionQuestion, len(sampled))
	for i, q := range sampled {
		opts := make([]SessionOption, len(q.Options))
		for j, opt := range q.Options {
			opts[j] = SessionOption{Label: opt.Label, OptionText: opt.OptionText}
		}
		questions[i] = SessionQuestion{
			ID:           q.ID,
			QuestionText: q.QuestionText,
			ImageURL:     q.ImageURL,
			Options:      opts,
		}
	}

	return &TestSessionResponse{
		DurationMinutes: policy.DurationMinutes,
		TotalQuestions:  len(questions),
		Questions:       questions,
	}, nil
}

type SubmittedAnswer struct {
	QuestionID     uint   `json:"questionId"`
	SelectedAnswer string `json:"selectedAnswer"`
}

type ResultSummary struct {
	ID             uint      `json:"id"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"totalQuestions"`
	IQScore        int       `json:"iqScore"`
	Percentage     int       `json:"percentage"`
	CompletedAt    time.Time `json:"completedAt"`
}

// Submit 对提交的答卷评分并持久化。只对提交了的题目评分：
// totalQuestions 取提交条数而非抽题数，无法解析正确答案的题按答错计。
func (s *TestService) Submit(userID uint, answers []SubmittedAnswer) (*ResultSummary, error) {
	if len(answers) == 0 {
		return nil, util.ErrEmptyAnswers
	}
	for _, a := range answers {
		if a.QuestionID == 0 || a.SelectedAnswer == "" {
			return nil, util.ErrMalformedAnswer
		}
	}

	pool, err := s.Questions.ListAll()
	if err != nil {
		return nil, err
	}
	keys := make(map[uint]model.AnswerKey, len(pool))
	for i := range pool {
		if key, ok := model.AnswerKeyFor(&pool[i]); ok {
			keys[pool[i].ID] = key
		}
	}

	score := 0
	rows := make([]model.UserAnswer, len(answers))
	for i, a := range answers {
		correct := false
		if key, ok := keys[a.QuestionID]; ok {
			correct = key.Matches(a.SelectedAnswer)
		}
		if correct {
			score++
		}
		rows[i] = model.UserAnswer{
			QuestionID:     a.QuestionID,
			SelectedAnswer: a.SelectedAnswer,
			IsCorrect:      correct,
		}
	}

	total := len(answers)
	percentage := 100 * float64(score) / float64(total)

	result := &model.TestResult{
		UserID:         userID,
		Score:          score,
		TotalQuestions: total,
		IQScore:        IQScoreFor(percentage),
		CompletedAt:    time.Now(),
	}
	if err := s.Results.CreateWithAnswers(result, rows); err != nil {
		return nil, err
	}

	return &ResultSummary{
		ID:             result.ID,
		Score:          result.Score,
		TotalQuestions: result.TotalQuestions,
		IQScore:        result.IQScore,
		Percentage:     int(math.Round(percentage)),
		CompletedAt:    result.CompletedAt,
	}, nil
}

// IQScoreFor 把正确率映射为 IQ 分值。分段折线是固定的评分策略，
// 历史结果依赖逐位一致，不要改动系数。
func IQScoreFor(percentage float64) int {
	switch {
	case percentage >= 90:
		return 130 + int(math.Floor((percentage-90)*2))
	case percentage >= 75:
		return 115 + int(math.Floor(percentage-75))
	case percentage >= 50:
		return 100 + int(math.Floor((percentage-50)*0.6))
	case percentage >= 25:
		return 85 + int(math.Floor((percentage-25)*0.6))
	default:
		return 70 + int(math.Floor(percentage*0.6))
	}
}

// History 用户的历史成绩，最近的在前
func (s *TestService) History(userID uint) ([]ResultSummary, error) {
	results, err := s.Results.ListByUser(userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]ResultSummary, len(results))
	for i, r := range results {
		summaries[i] = toSummary(&r)
	}
	return summaries, nil
}

type ResultOption struct {
	Label      string `json:"label"`
	OptionText string `json:"optionText"`
}

type AnswerDetail struct {
	QuestionID     uint           `json:"questionId"`
	QuestionText   string         `json:"questionText"`
	ImageURL       string         `json:"imageUrl"`
	Options        []ResultOption `json:"options"`
	SelectedAnswer string         `json:"selectedAnswer"`
	CorrectAnswer  string         `json:"correctAnswer"`
	IsCorrect      bool           `json:"isCorrect"`
}

type ResultDetailResponse struct {
	Result  ResultSummary  `json:"result"`
	Answers []AnswerDetail `json:"answers"`
}

// ResultDetail 单次结果的逐题明细，事后展示正确答案。
// 仅结果归属者或管理员可见。
func (s *TestService) ResultDetail(resultID uint, requester *util.Claims) (*ResultDetailResponse, error) {
	result, err := s.Results.FindByID(resultID)
	if err != nil {
		return nil, err
	}
	if requester == nil || (requester.UserID != result.UserID && !requester.IsAdmin()) {
		return nil, util.ErrPermissionDenied
	}

	ids := make([]uint, len(result.Answers))
	for i, a := range result.Answers {
		ids[i] = a.QuestionID
	}
	questions, err := s.Questions.FindByIDs(ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]*model.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}

	details := make([]AnswerDetail, len(result.Answers))
	for i, a := range result.Answers {
		detail := AnswerDetail{
			QuestionID:     a.QuestionID,
			SelectedAnswer: a.SelectedAnswer,
			IsCorrect:      a.IsCorrect,
		}
		if q, ok := byID[a.QuestionID]; ok {
			detail.QuestionText = q.QuestionText
			detail.ImageURL = q.ImageURL
			detail.Options = make([]ResultOption, len(q.Options))
			for j, opt := range q.Options {
				detail.Options[j] = ResultOption{Label: opt.Label, OptionText: opt.OptionText}
			}
			detail.CorrectAnswer = correctAnswerDisplay(q)
		}
		details[i] = detail
	}

	summary := toSummary(result)
	return &ResultDetailResponse{Result: summary, Answers: details}, nil
}

func correctAnswerDisplay(q *model.Question) string {
	if q.QuestionType == model.MultipleChoice {
		if key, ok := model.AnswerKeyFor(q); ok {
			return key.Choice
		}
		return ""
	}
	return q.CorrectAnswer
}

func toSummary(r *model.TestResult) ResultSummary {
	percentage := 0.0
	if r.TotalQuestions > 0 {
		percentage = 100 * float64(r.Score) / float64(r.TotalQuestions)
	}
	return ResultSummary{
		ID:             r.ID,
		Score:          r.Score,
		TotalQuestions: r.TotalQuestions,
		IQScore:        r.IQScore,
		Percentage:     int(math.Round(percentage)),
		CompletedAt:    r.CompletedAt,
	}
}
