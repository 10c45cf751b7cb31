package quiz

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"aitutor/backend/models"
)

type Engine struct {
	Store  Store
	Logger *log.Logger
	// Now is overridable in tests.
	Now func() time.Time
}

func NewEngine(store Store, logger *log.Logger) *Engine {
	return &Engine{Store: store, Logger: logger, Now: time.Now}
}

func (e *Engine) lesson(ctx context.Context, lessonID uint) (models.Lesson, error) {
	lesson, err := e.Store.FindLesson(ctx, lessonID)
	if errors.Is(err, models.ErrNotFound) {
		return lesson, ErrLessonNotFound
	}
	if err != nil {
		return lesson, fmt.Errorf("find lesson %d: %w", lessonID, err)
	}
	return lesson, nil
}

func parseLevel(key string) (models.Level, error) {
	level, ok := models.ParseLevel(key)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidLevel, key)
	}
	return level, nil
}

// ListLevels reports every level of the lesson in unlock order. The first
// level is always unlocked; each later one unlocks once its predecessor is
// completed. Missing progress rows are created at zero.
func (e *Engine) ListLevels(ctx context.Context, userID, lessonID uint) ([]LevelStatus, error) {
	if _, err := e.lesson(ctx, lessonID); err != nil {
		return nil, err
	}

	out := make([]LevelStatus, 0, len(models.Levels))
	prevCompleted := false
	for i, level := range models.Levels {
		p, err := e.Store.GetOrCreateProgress(ctx, userID, lessonID, level)
		if err != nil {
			return nil, fmt.Errorf("progress %s: %w", level, err)
		}
		out = append(out, LevelStatus{
			Level:         level,
			DisplayName:   level.DisplayName(),
			IsUnlocked:    i == 0 || prevCompleted,
			IsCompleted:   p.IsCompleted,
			CorrectCount:  p.CorrectCount,
			RequiredCount: TotalQuestions,
		})
		prevCompleted = p.IsCompleted
	}
	return out, nil
}

// FetchQuestionBatch starts a new attempt: the level's correct count is
// reset to zero and up to BatchSize random questions are returned. An
// empty batch is not an error. Completed levels cannot be restarted.
func (e *Engine) FetchQuestionBatch(ctx context.Context, userID, lessonID uint, levelKey string) (Batch, error) {
	lesson, err := e.lesson(ctx, lessonID)
	if err != nil {
		return Batch{}, err
	}
	level, err := parseLevel(levelKey)
	if err != nil {
		return Batch{}, err
	}

	p, err := e.Store.GetOrCreateProgress(ctx, userID, lessonID, level)
	if err != nil {
		return Batch{}, fmt.Errorf("progress %s: %w", level, err)
	}
	if p.IsCompleted {
		return Batch{}, ErrLevelCompleted
	}
	p, err = e.Store.ResetProgress(ctx, p.ID)
	if err != nil {
		return Batch{}, fmt.Errorf("reset progress: %w", err)
	}

	questions, err := e.Store.RandomQuestions(ctx, lessonID, level, BatchSize)
	if err != nil {
		return Batch{}, fmt.Errorf("draw questions: %w", err)
	}
	ids := make([]uint, 0, len(questions))
	for _, q := range questions {
		ids = append(ids, q.ID)
	}
	if err := e.Store.ServeQuestions(ctx, p, ids, e.Now()); err != nil {
		return Batch{}, fmt.Errorf("serve questions: %w", err)
	}

	batch := Batch{
		LessonTitle:    lesson.Title,
		LessonCategory: lesson.Category,
		Level:          level,
		Attempt:        p.Attempts,
		Questions:      make([]QuestionView, 0, len(questions)),
	}
	for _, q := range questions {
		qv := QuestionView{ID: q.ID, Text: q.Text, Choices: make([]ChoiceView, 0, len(q.Choices))}
		for _, c := range q.Choices {
			qv.Choices = append(qv.Choices, ChoiceView{ID: c.ID, Text: c.Text})
		}
		batch.Questions = append(batch.Questions, qv)
	}
	return batch, nil
}

// SubmitAnswer grades one answer of the current attempt. Only questions
// served in that attempt are accepted. A correct answer adds one to the
// level's correct count; a wrong one changes nothing but is still recorded.
func (e *Engine) SubmitAnswer(ctx context.Context, userID, lessonID uint, levelKey string, questionID, choiceID uint) (Grade, error) {
	if _, err := e.lesson(ctx, lessonID); err != nil {
		return Grade{}, err
	}
	level, err := parseLevel(levelKey)
	if err != nil {
		return Grade{}, err
	}

	question, err := e.Store.FindQuestion(ctx, lessonID, level, questionID)
	if errors.Is(err, models.ErrNotFound) {
		return Grade{}, ErrQuestionNotFound
	}
	if err != nil {
		return Grade{}, fmt.Errorf("find question %d: %w", questionID, err)
	}

	choice, err := e.Store.FindChoice(ctx, questionID, choiceID)
	if errors.Is(err, models.ErrNotFound) {
		return Grade{}, ErrChoiceMismatch
	}
	if err != nil {
		return Grade{}, fmt.Errorf("find choice %d: %w", choiceID, err)
	}

	p, err := e.Store.FindProgress(ctx, userID, lessonID, level)
	if errors.Is(err, models.ErrNotFound) {
		return Grade{}, ErrNoActiveAttempt
	}
	if err != nil {
		return Grade{}, fmt.Errorf("find progress: %w", err)
	}
	if p.Attempts == 0 {
		return Grade{}, ErrNoActiveAttempt
	}
	if p.IsCompleted {
		return Grade{}, ErrLevelCompleted
	}
	served, err := e.Store.IsServed(ctx, p, question.ID)
	if err != nil {
		return Grade{}, fmt.Errorf("served question %d: %w", question.ID, err)
	}
	if !served {
		return Grade{}, ErrQuestionNotFound
	}

	audit := &models.UserQuizAttempt{
		UserID:      userID,
		LessonID:    lessonID,
		Level:       level,
		Attempt:     p.Attempts,
		QuestionID:  question.ID,
		ChoiceID:    choice.ID,
		IsCorrect:   choice.IsCorrect,
		AttemptedAt: e.Now(),
	}
	p, err = e.Store.RecordAnswer(ctx, audit, p.ID, TotalQuestions)
	if errors.Is(err, models.ErrDuplicate) {
		return Grade{}, ErrAlreadyAnswered
	}
	if err != nil {
		return Grade{}, fmt.Errorf("record answer: %w", err)
	}

	grade := Grade{
		IsCorrect:   choice.IsCorrect,
		Message:     "Correct answer!",
		Explanation: question.Explanation,
		NewScore:    p.CorrectCount,
	}
	if !choice.IsCorrect {
		grade.Message = "Incorrect."
		correct, err := e.Store.CorrectChoice(ctx, question.ID)
		switch {
		case err == nil:
			grade.CorrectAnswerText = correct.Text
		case errors.Is(err, models.ErrNotFound):
			e.Logger.Printf("quiz: question %d has no correct choice", question.ID)
		default:
			return Grade{}, fmt.Errorf("correct choice: %w", err)
		}
	}
	return grade, nil
}

// ComputeResult finalises the current attempt against TotalQuestions.
// Passing marks the level completed, which is never undone.
func (e *Engine) ComputeResult(ctx context.Context, userID, lessonID uint, levelKey string) (Result, error) {
	if _, err := e.lesson(ctx, lessonID); err != nil {
		return Result{}, err
	}
	level, err := parseLevel(levelKey)
	if err != nil {
		return Result{}, err
	}

	p, err := e.Store.GetOrCreateProgress(ctx, userID, lessonID, level)
	if err != nil {
		return Result{}, fmt.Errorf("progress %s: %w", level, err)
	}

	score := p.CorrectCount
	percentage := Percentage(score)
	passed := score >= PassScore
	if passed && !p.IsCompleted {
		if err := e.Store.MarkCompleted(ctx, p.ID); err != nil {
			return Result{}, fmt.Errorf("mark completed: %w", err)
		}
		e.Logger.Printf("quiz: user %d completed lesson %d level %s with %d/%d", userID, lessonID, level, score, TotalQuestions)
	}

	tier := TierFor(percentage)
	return Result{
		FinalScore:     score,
		TotalQuestions: TotalQuestions,
		Percentage:     percentage,
		Passed:         passed,
		Feedback:       tier.Feedback,
		StatusMsg:      tier.Status,
		StatusColor:    tier.Color,
		LevelUnlocked:  passed,
	}, nil
}
