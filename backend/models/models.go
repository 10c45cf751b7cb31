package models

import "errors"

var (
	// ErrNotFound is returned by repositories when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("record already exists")
)

// All returns every model managed by migrations.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Profile{},
		&SocialAccount{},
		&Lesson{},
		&UserLesson{},
		&Question{},
		&Choice{},
		&UserLevelProgress{},
		&ServedQuestion{},
		&UserQuizAttempt{},
		&ContactSubmission{},
	}
}
