package models

import (
	"time"

	"gorm.io/gorm"
)

type Lesson struct {
	gorm.Model
	Title            string `gorm:"size:255;not null"`
	Description      string
	Category         string `gorm:"size:100;default:General"`
	IsTrending       bool   `gorm:"default:false;index"`
	ImageURL         string `gorm:"size:500"`
	ExternalURL      string `gorm:"size:500"`
	VideoURL         string `gorm:"size:500"`
	PDFURL           string `gorm:"size:500"`
	Content          string
	Duration         string `gorm:"size:50"`
	WhatYouWillLearn string
	CourseIncludes   string
	Curriculum       string
	Questions        []Question
}

// Default texts used when an admin leaves the long-form fields empty.
const (
	DefaultDuration         = "2 hours"
	DefaultWhatYouWillLearn = "Basics of the subject\nCore concepts\nPractical examples"
	DefaultCourseIncludes   = "Access on mobile\nCertificate of completion"
	DefaultCurriculum       = "Introduction - 10 mins\nGetting Started - 15 mins"
)

// ApplyDefaults fills empty descriptive fields with the platform defaults.
func (l *Lesson) ApplyDefaults() {
	if l.Category == "" {
		l.Category = "General"
	}
	if l.Duration == "" {
		l.Duration = DefaultDuration
	}
	if l.WhatYouWillLearn == "" {
		l.WhatYouWillLearn = DefaultWhatYouWillLearn
	}
	if l.CourseIncludes == "" {
		l.CourseIncludes = DefaultCourseIncludes
	}
	if l.Curriculum == "" {
		l.Curriculum = DefaultCurriculum
	}
}

type LessonStatus string

const (
	LessonInProgress LessonStatus = "IN_PROGRESS"
	LessonCompleted  LessonStatus = "COMPLETED"
)

type UserLesson struct {
	gorm.Model
	UserID      uint         `gorm:"not null;uniqueIndex:idx_user_lesson"`
	LessonID    uint         `gorm:"not null;uniqueIndex:idx_user_lesson"`
	Status      LessonStatus `gorm:"size:20;default:IN_PROGRESS"`
	CompletedAt *time.Time
	Lesson      Lesson
}
