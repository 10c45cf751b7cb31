// Package seed loads lessons and their quiz questions from a JSON file.
package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"aitutor/backend/models"
	"aitutor/backend/repository"

	"gorm.io/gorm"
)

type ChoiceInput struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

type QuestionInput struct {
	Level       string        `json:"level"`
	Text        string        `json:"text"`
	Explanation string        `json:"explanation"`
	Choices     []ChoiceInput `json:"choices"`
}

type LessonInput struct {
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	Category         string          `json:"category"`
	IsTrending       bool            `json:"is_trending"`
	ImageURL         string          `json:"image_url"`
	ExternalURL      string          `json:"external_url"`
	VideoURL         string          `json:"video_url"`
	PDFURL           string          `json:"pdf_url"`
	Content          string          `json:"content"`
	Duration         string          `json:"duration"`
	WhatYouWillLearn string          `json:"what_you_will_learn"`
	CourseIncludes   string          `json:"course_includes"`
	Curriculum       string          `json:"curriculum"`
	Questions        []QuestionInput `json:"questions"`
}

// Summary counts what a run inserted.
type Summary struct {
	Lessons   int
	Questions int
	// Skipped lists titles that already existed.
	Skipped []string
}

func SeedFromJSON(ctx context.Context, db *gorm.DB, path string) (Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return Summary{}, err
	}
	defer f.Close()
	return Seed(ctx, db, f)
}

// Seed accepts either [ ... ] or { "lessons": [ ... ] }. Lessons whose title
// already exists are skipped, so running it twice is harmless. Everything
// is validated before anything is written.
func Seed(ctx context.Context, db *gorm.DB, r io.Reader) (Summary, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Summary{}, err
	}

	var wrapper struct {
		Lessons []LessonInput `json:"lessons"`
	}
	var lessons []LessonInput
	if err := json.Unmarshal(raw, &wrapper); err == nil && len(wrapper.Lessons) > 0 {
		lessons = wrapper.Lessons
	} else if err := json.Unmarshal(raw, &lessons); err != nil {
		return Summary{}, fmt.Errorf("json parse: %w", err)
	}

	built := make([]models.Lesson, 0, len(lessons))
	seen := map[string]bool{}
	for i, in := range lessons {
		lesson, err := in.build()
		if err != nil {
			return Summary{}, fmt.Errorf("lesson %d (%q): %w", i+1, in.Title, err)
		}
		key := strings.ToLower(lesson.Title)
		if seen[key] {
			return Summary{}, fmt.Errorf("duplicate lesson title in JSON: %q", lesson.Title)
		}
		seen[key] = true
		built = append(built, lesson)
	}

	var sum Summary
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		store := repository.New(tx)
		for i := range built {
			lesson := &built[i]

			var existing int64
			if err := tx.Model(&models.Lesson{}).Where("LOWER(title) = ?", strings.ToLower(lesson.Title)).Count(&existing).Error; err != nil {
				return err
			}
			if existing > 0 {
				sum.Skipped = append(sum.Skipped, lesson.Title)
				continue
			}

			questions := lesson.Questions
			lesson.Questions = nil
			if err := store.CreateLesson(ctx, lesson); err != nil {
				return fmt.Errorf("create lesson %q: %w", lesson.Title, err)
			}
			for j := range questions {
				questions[j].LessonID = lesson.ID
				if err := store.CreateQuestion(ctx, &questions[j]); err != nil {
					return fmt.Errorf("create question %q: %w", questions[j].Text, err)
				}
			}
			sum.Lessons++
			sum.Questions += len(questions)
		}
		return nil
	})
	if err != nil {
		return Summary{}, err
	}
	return sum, nil
}

func (in LessonInput) build() (models.Lesson, error) {
	lesson := models.Lesson{
		Title:            strings.TrimSpace(in.Title),
		Description:      in.Description,
		Category:         strings.TrimSpace(in.Category),
		IsTrending:       in.IsTrending,
		ImageURL:         in.ImageURL,
		ExternalURL:      in.ExternalURL,
		VideoURL:         in.VideoURL,
		PDFURL:           in.PDFURL,
		Content:          in.Content,
		Duration:         in.Duration,
		WhatYouWillLearn: in.WhatYouWillLearn,
		CourseIncludes:   in.CourseIncludes,
		Curriculum:       in.Curriculum,
	}
	if lesson.Title == "" {
		return lesson, errors.New("title is required")
	}

	for i, qin := range in.Questions {
		level := models.LevelEasy
		if qin.Level != "" {
			level = models.Level(strings.ToUpper(strings.TrimSpace(qin.Level)))
		}
		q := models.Question{
			Level:       level,
			Text:        strings.TrimSpace(qin.Text),
			Explanation: strings.TrimSpace(qin.Explanation),
		}
		for _, c := range qin.Choices {
			q.Choices = append(q.Choices, models.Choice{Text: strings.TrimSpace(c.Text), IsCorrect: c.IsCorrect})
		}
		if err := q.Validate(); err != nil {
			return lesson, fmt.Errorf("question %d: %w", i+1, err)
		}
		lesson.Questions = append(lesson.Questions, q)
	}
	return lesson, nil
}
