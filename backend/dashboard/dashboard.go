// Package dashboard computes the learner progress summary and the
// heuristic pass prediction shown on the dashboard.
package dashboard

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"aitutor/backend/quiz"
)

const (
	// pointsPerLesson is one point for starting a lesson plus one per level.
	pointsPerLesson = 5
	// fallbackPerformance is assumed for learners who started lessons but
	// have not scored in any quiz yet.
	fallbackPerformance = 30.0
	// regularization is the inverse L2 strength used when fitting.
	regularization = 1.0
)

type Store interface {
	CountLessons(ctx context.Context) (int64, error)
	CountStartedLessons(ctx context.Context, userID uint) (int64, error)
	CountCompletedLevels(ctx context.Context, userID uint) (int64, error)
	AverageCorrectCount(ctx context.Context, userID uint) (float64, bool, error)
}

type Prediction struct {
	ProgressPercentage float64 `json:"progress_percentage"`
	ProgressText       string  `json:"progress_text"`
	AIPrediction       string  `json:"ai_prediction"`
	PassProbability    float64 `json:"pass_probability"`
}

type Service struct {
	Store Store
}

func NewService(store Store) *Service {
	return &Service{Store: store}
}

// PredictOutcome summarises a learner's progress and estimates the chance
// of passing from their quiz performance and the lessons they started.
func (s *Service) PredictOutcome(ctx context.Context, userID uint) (Prediction, error) {
	total, err := s.Store.CountLessons(ctx)
	if err != nil {
		return Prediction{}, fmt.Errorf("count lessons: %w", err)
	}
	started, err := s.Store.CountStartedLessons(ctx, userID)
	if err != nil {
		return Prediction{}, fmt.Errorf("count started lessons: %w", err)
	}
	completed, err := s.Store.CountCompletedLevels(ctx, userID)
	if err != nil {
		return Prediction{}, fmt.Errorf("count completed levels: %w", err)
	}
	avg, scored, err := s.Store.AverageCorrectCount(ctx, userID)
	if err != nil {
		return Prediction{}, fmt.Errorf("average score: %w", err)
	}

	out := Prediction{
		ProgressPercentage: Progress(started, completed, total),
		ProgressText:       progressText(started, completed),
	}

	performance := 0.0
	switch {
	case scored:
		performance = avg / quiz.TotalQuestions * 100
	case started > 0:
		performance = fallbackPerformance
	}

	out.PassProbability, out.AIPrediction, err = Predict(performance, float64(started))
	if err != nil {
		return Prediction{}, err
	}
	return out, nil
}

// Progress is (started lessons + completed levels) over the points
// available across all lessons, as a percentage with one decimal. It is
// not clamped.
func Progress(started, completedLevels, totalLessons int64) float64 {
	if totalLessons < 1 {
		totalLessons = 1
	}
	pct := float64(started+completedLevels) / float64(totalLessons*pointsPerLesson) * 100
	return round1(pct)
}

func progressText(started, completedLevels int64) string {
	if started+completedLevels == 0 {
		return "Start your learning journey by viewing a course!"
	}
	return fmt.Sprintf("Great! You've explored %d lessons and mastered %d quiz levels.", started, completedLevels)
}

// Predict fits the classifier on TrainingSet and returns the pass chance
// as a percentage with one decimal, together with the dashboard message.
func Predict(performance, lessons float64) (float64, string, error) {
	if performance == 0 && lessons == 0 {
		return 0, "AI Status: No data yet. Start learning to get a prediction!", nil
	}

	model, err := Fit(TrainingSet, regularization)
	if err != nil {
		return 0, "", err
	}
	chance := round1(model.Probability(performance, lessons) * 100)
	pct := strconv.FormatFloat(chance, 'f', 1, 64)

	switch {
	case chance >= 80:
		return chance, "🌟 Excellent! AI predicts a " + pct + "% chance of success based on your performance.", nil
	case chance >= 50:
		return chance, "📈 Good Track! AI predicts a " + pct + "% chance. Keep improving your scores.", nil
	default:
		return chance, "⚠️ Needs Focus. AI predicts a " + pct + "% chance. Review the lessons and retry quizzes.", nil
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
