package controllers

import (
	"errors"
	"strconv"

	"aitutor/backend/identity"
	"aitutor/backend/models"

	"github.com/gofiber/fiber/v2"
)

const dateLayout = "2006-01-02"

func lessonJSON(l models.Lesson) fiber.Map {
	return fiber.Map{
		"id":                  l.ID,
		"title":               l.Title,
		"description":         l.Description,
		"category":            l.Category,
		"is_trending":         l.IsTrending,
		"image_url":           l.ImageURL,
		"external_url":        l.ExternalURL,
		"video_url":           l.VideoURL,
		"pdf_url":             l.PDFURL,
		"content":             l.Content,
		"duration":            l.Duration,
		"what_you_will_learn": l.WhatYouWillLearn,
		"course_includes":     l.CourseIncludes,
		"curriculum":          l.Curriculum,
		"created_at":          l.CreatedAt,
	}
}

func lessonsJSON(lessons []models.Lesson) []fiber.Map {
	out := make([]fiber.Map, 0, len(lessons))
	for _, l := range lessons {
		out = append(out, lessonJSON(l))
	}
	return out
}

func userLessonJSON(ul models.UserLesson) fiber.Map {
	return fiber.Map{
		"id":           ul.ID,
		"status":       ul.Status,
		"started_at":   ul.CreatedAt,
		"completed_at": ul.CompletedAt,
		"lesson":       lessonJSON(ul.Lesson),
	}
}

func profileJSON(p models.Profile) fiber.Map {
	var dob interface{}
	if p.DOB != nil {
		dob = p.DOB.Format(dateLayout)
	}
	return fiber.Map{
		"dob":           dob,
		"college":       p.College,
		"qualification": p.Qualification,
		"roll_number":   p.RollNumber,
		"year":          p.Year,
		"course":        p.Course,
	}
}

// userJSON expects Profile and SocialAccounts to be loaded.
func userJSON(u models.User) fiber.Map {
	var picture interface{}
	for _, acc := range u.SocialAccounts {
		if acc.Provider == identity.ProviderGoogle && acc.AvatarURL != "" {
			picture = acc.AvatarURL
			break
		}
	}
	return fiber.Map{
		"id":              u.ID,
		"username":        u.Username,
		"email":           u.Email,
		"profile_picture": picture,
		"profile":         profileJSON(u.Profile),
	}
}

var errBadID = errors.New("invalid id")

func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errBadID
	}
	return uint(id), nil
}
