package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"aitutor/backend/config"
	"aitutor/backend/identity"
	"aitutor/backend/llm"
	"aitutor/backend/mail"
	"aitutor/backend/models"
	"aitutor/backend/testutil"
	"aitutor/backend/tutor"
	"aitutor/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeGoogle struct {
	ident identity.Identity
	err   error
}

func (f fakeGoogle) Verify(_ context.Context, creds identity.Credentials) (identity.Identity, error) {
	if creds.Code == "" && creds.AccessToken == "" {
		return identity.Identity{}, identity.ErrMissingCredentials
	}
	return f.ident, f.err
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}

type harness struct {
	t      *testing.T
	app    *fiber.App
	db     *gorm.DB
	cfg    *config.Config
	llm    *llm.MockProvider
	mailer *recordingMailer
}

func newHarness(t *testing.T, google identity.Verifier) *harness {
	t.Helper()
	db := testutil.NewDB(t)
	cfg := &config.Config{
		JWTSecret:      "test-secret",
		CORSOrigins:    "http://localhost:5173",
		ContactInbox:   "team@example.com",
		TutorRateLimit: 2,
	}
	logger := utils.DiscardLogger()
	mock := llm.NewMockProvider()
	mailer := &recordingMailer{}

	app := NewApp(cfg, logger)
	SetupRoutes(app, db, cfg, Services{
		Logger: logger,
		Tutor:  tutor.NewService(mock, 256),
		Google: google,
		Mailer: mailer,
	})
	return &harness{t: t, app: app, db: db, cfg: cfg, llm: mock, mailer: mailer}
}

func (h *harness) do(method, path, token string, body interface{}) (int, map[string]interface{}) {
	h.t.Helper()
	status, raw := h.doRaw(method, path, token, body)
	var out map[string]interface{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(h.t, json.Unmarshal(raw, &out), string(raw))
	}
	return status, out
}

func (h *harness) doRaw(method, path, token string, body interface{}) (int, []byte) {
	h.t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(h.t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := h.app.Test(req, -1)
	require.NoError(h.t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(h.t, err)
	return resp.StatusCode, raw
}

func (h *harness) register(username string) string {
	h.t.Helper()
	status, body := h.do("POST", "/api/auth/registration", "", fiber.Map{
		"username":  username,
		"email":     username + "@example.com",
		"password1": "s3cret-pass",
		"password2": "s3cret-pass",
	})
	require.Equal(h.t, fiber.StatusCreated, status, body)
	return body["access"].(string)
}

func TestHealthz(t *testing.T) {
	h := newHarness(t, fakeGoogle{})
	status, body := h.do("GET", "/healthz", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestRegisterLoginAndProfile(t *testing.T) {
	h := newHarness(t, fakeGoogle{})
	token := h.register("ada")

	var profiles int64
	require.NoError(t, h.db.Model(&models.Profile{}).Count(&profiles).Error)
	assert.EqualValues(t, 1, profiles)

	status, body := h.do("POST", "/api/auth/login", "", fiber.Map{"email": "ADA@example.com", "password": "s3cret-pass"})
	require.Equal(t, fiber.StatusOK, status)
	assert.NotEmpty(t, body["access"])

	status, _ = h.do("POST", "/api/auth/login", "", fiber.Map{"username": "ada", "password": "wrong-pass"})
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, body = h.do("PATCH", "/api/auth/user", token, fiber.Map{
		"username": "ada_l",
		"profile":  fiber.Map{"college": "Analytical Engine U", "dob": "1815-12-10"},
	})
	require.Equal(t, fiber.StatusOK, status, body)

	status, body = h.do("GET", "/api/auth/user", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ada_l", body["username"])
	assert.Nil(t, body["profile_picture"])
	profile := body["profile"].(map[string]interface{})
	assert.Equal(t, "Analytical Engine U", profile["college"])
	assert.Equal(t, "1815-12-10", profile["dob"])

	status, _ = h.do("GET", "/api/auth/user", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestRegisterValidation(t *testing.T) {
	h := newHarness(t, fakeGoogle{})
	h.register("taken")

	tests := []struct {
		name  string
		body  fiber.Map
		field string
	}{
		{"short password", fiber.Map{"username": "a", "email": "a@example.com", "password1": "short", "password2": "short"}, "password1"},
		{"mismatch", fiber.Map{"username": "b", "email": "b@example.com", "password1": "long-enough", "password2": "long-enougH"}, "password2"},
		{"bad email", fiber.Map{"username": "c", "email": "not-an-email", "password1": "long-enough", "password2": "long-enough"}, "email"},
		{"duplicate username", fiber.Map{"username": "taken", "email": "d@example.com", "password1": "long-enough", "password2": "long-enough"}, "username"},
		{"duplicate email", fiber.Map{"username": "e", "email": "taken@example.com", "password1": "long-enough", "password2": "long-enough"}, "email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := h.do("POST", "/api/auth/registration", "", tt.body)
			assert.Equal(t, fiber.StatusBadRequest, status)
			assert.Contains(t, body["details"], tt.field)
		})
	}
}

func TestGoogleLogin(t *testing.T) {
	google := fakeGoogle{ident: identity.Identity{
		Provider:      identity.ProviderGoogle,
		Subject:       "g-1",
		Email:         "grace@example.com",
		VerifiedEmail: true,
		Name:          "Grace Hopper",
		AvatarURL:     "https://example.com/grace.png",
	}}
	h := newHarness(t, google)

	// An existing account holding the username forces a suffix.
	require.NoError(t, h.db.Create(&models.User{Username: "grace", Email: "other@example.com"}).Error)

	status, body := h.do("POST", "/api/auth/google", "", fiber.Map{"access_token": "tok"})
	require.Equal(t, fiber.StatusOK, status, body)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "https://example.com/grace.png", user["profile_picture"])
	assert.NotEqual(t, "grace", user["username"])
	firstID := user["id"]

	status, body = h.do("POST", "/api/auth/google", "", fiber.Map{"code": "again"})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, firstID, body["user"].(map[string]interface{})["id"])

	var accounts int64
	require.NoError(t, h.db.Model(&models.SocialAccount{}).Count(&accounts).Error)
	assert.EqualValues(t, 1, accounts)

	status, _ = h.do("POST", "/api/auth/google", "", fiber.Map{})
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestGoogleLoginNeverTakesOverByEmail(t *testing.T) {
	victim := identity.Identity{
		Provider:  identity.ProviderGoogle,
		Subject:   "g-999",
		Email:     "victim@example.com",
		Name:      "Not The Victim",
		AvatarURL: "https://example.com/x.png",
	}

	t.Run("unverified email", func(t *testing.T) {
		h := newHarness(t, fakeGoogle{ident: victim})
		h.register("victim")

		status, body := h.do("POST", "/api/auth/google", "", fiber.Map{"access_token": "tok"})
		assert.Equal(t, fiber.StatusForbidden, status, body)
		assert.Nil(t, body["access"])

		var users, accounts int64
		require.NoError(t, h.db.Model(&models.User{}).Count(&users).Error)
		require.NoError(t, h.db.Model(&models.SocialAccount{}).Count(&accounts).Error)
		assert.EqualValues(t, 1, users)
		assert.Zero(t, accounts)
	})

	t.Run("unverified email of a new user", func(t *testing.T) {
		h := newHarness(t, fakeGoogle{ident: victim})

		status, _ := h.do("POST", "/api/auth/google", "", fiber.Map{"access_token": "tok"})
		assert.Equal(t, fiber.StatusForbidden, status)
	})

	t.Run("verified email of a password account", func(t *testing.T) {
		verified := victim
		verified.VerifiedEmail = true
		h := newHarness(t, fakeGoogle{ident: verified})
		h.register("victim")

		status, body := h.do("POST", "/api/auth/google", "", fiber.Map{"code": "c"})
		assert.Equal(t, fiber.StatusConflict, status, body)
		assert.Nil(t, body["access"])
	})

	t.Run("token of another client", func(t *testing.T) {
		h := newHarness(t, fakeGoogle{err: fmt.Errorf("%w: %w", identity.ErrExchangeFailed, identity.ErrForeignToken)})

		status, body := h.do("POST", "/api/auth/google", "", fiber.Map{"access_token": "from-another-app"})
		assert.Equal(t, fiber.StatusBadRequest, status, body)
		assert.Nil(t, body["access"])
	})
}

func TestGoogleLoginUpstreamFailure(t *testing.T) {
	h := newHarness(t, fakeGoogle{err: errors.New("dial tcp: timeout")})
	status, _ := h.do("POST", "/api/auth/google", "", fiber.Map{"code": "x"})
	assert.Equal(t, fiber.StatusBadGateway, status)
}

func TestLessonsAndStart(t *testing.T) {
	h := newHarness(t, fakeGoogle{})
	token := h.register("learner")
	lesson := testutil.CreateLesson(t, h.db, "Cells", models.LevelEasy, 0)
	trending := models.Lesson{Title: "Atoms", Category: "Physics", IsTrending: true}
	require.NoError(t, h.db.Create(&trending).Error)

	status, raw := h.doRaw("GET", "/api/lessons?category=physics", "", nil)
	require.Equal(t, fiber.StatusOK, status)
	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Atoms", list[0]["title"])

	status, raw = h.doRaw("GET", "/api/lessons/trending", "", nil)
	require.Equal(t, fiber.StatusOK, status)
	require.NoError(t, json.Unmarshal(raw, &list))
	require.Len(t, list, 1)

	status, _ = h.do("GET", "/api/lessons/999", "", nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	for i := 0; i < 2; i++ {
		status, body := h.do("POST", "/api/lessons/start/"+itoa(lesson.ID), token, nil)
		require.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, "Lesson started", body["status"])
	}
	status, _ = h.do("POST", "/api/lessons/start/999", token, nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, raw = h.doRaw("GET", "/api/my-lessons", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	require.NoError(t, json.Unmarshal(raw, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "IN_PROGRESS", list[0]["status"])
	assert.Equal(t, "Cells", list[0]["lesson"].(map[string]interface{})["title"])
}

func TestQuizFlow(t *testing.T) {
	h := newHarness(t, fakeGoogle{})
	token := h.register("quizzer")
	lesson := testutil.CreateLesson(t, h.db, "Cells", models.LevelEasy, 20)
	base := "/api/quiz/"
	id := itoa(lesson.ID)

	status, raw := h.doRaw("GET", base+"levels/"+id, token, nil)
	require.Equal(t, fiber.StatusOK, status)
	var levels []quizLevel
	require.NoError(t, json.Unmarshal(raw, &levels))
	require.Len(t, levels, 4)
	assert.True(t, levels[0].IsUnlocked)
	assert.False(t, levels[1].IsUnlocked)

	status, body := h.do("POST", base+"submit-answer/"+id, token, fiber.Map{"level": "EASY", "question_id": 1, "choice_id": 1})
	assert.Equal(t, fiber.StatusNotFound, status, body)

	status, body = h.do("GET", base+"questions/"+id+"/easy", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	questions := body["questions"].([]interface{})
	require.Len(t, questions, 20)

	answered := map[uint]uint{}
	for i, q := range questions {
		qid := uint(q.(map[string]interface{})["id"].(float64))
		var question models.Question
		require.NoError(t, h.db.Preload("Choices").First(&question, qid).Error)
		correct, wrong := testutil.Choices(question)
		choice := correct
		if i >= 16 {
			choice = wrong
		}
		answered[qid] = choice.ID
		status, body = h.do("POST", base+"submit-answer/"+id, token, fiber.Map{"level": "EASY", "question_id": qid, "choice_id": choice.ID})
		require.Equal(t, fiber.StatusOK, status, body)
		assert.Equal(t, i < 16, body["is_correct"])
	}

	// Answering the same question again is rejected.
	first := uint(questions[0].(map[string]interface{})["id"].(float64))
	status, _ = h.do("POST", base+"submit-answer/"+id, token, fiber.Map{"level": "EASY", "question_id": first, "choice_id": answered[first]})
	assert.Equal(t, fiber.StatusConflict, status)

	status, body = h.do("GET", base+"result/"+id+"/EASY", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 16, body["final_score"])
	assert.EqualValues(t, 80, body["percentage"])
	assert.Equal(t, true, body["passed"])
	assert.Equal(t, "Good", body["status_msg"])

	status, raw = h.doRaw("GET", base+"levels/"+id, token, nil)
	require.Equal(t, fiber.StatusOK, status)
	require.NoError(t, json.Unmarshal(raw, &levels))
	assert.True(t, levels[0].IsCompleted)
	assert.True(t, levels[1].IsUnlocked)

	status, _ = h.do("GET", base+"questions/"+id+"/EASY", token, nil)
	assert.Equal(t, fiber.StatusConflict, status)

	status, body = h.do("GET", base+"questions/"+id+"/MEDIUM", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "No questions found for this level.", body["message"])

	status, _ = h.do("GET", base+"questions/"+id+"/LEGENDARY", token, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = h.do("GET", "/api/dashboard/progress", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body["ai_prediction"], "chance")
	assert.EqualValues(t, 20, body["progress_percentage"])
}

type quizLevel struct {
	Level       string `json:"level"`
	IsUnlocked  bool   `json:"is_unlocked"`
	IsCompleted bool   `json:"is_completed"`
}

func TestAskTutor(t *testing.T) {
	h := newHarness(t, fakeGoogle{})
	token := h.register("curious")
	h.llm.AddResponse(llm.MockResponse{Text: "Photosynthesis turns light into sugar."})

	status, body := h.do("POST", "/api/ask-tutor-ai", token, fiber.Map{"question": "What is photosynthesis?"})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Photosynthesis turns light into sugar.", body["answer"])

	status, body = h.do("POST", "/api/ask-tutor-ai", token, fiber.Map{"question": "  "})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "No question provided", body["error"])

	// The limit of two requests per minute is now exhausted.
	status, _ = h.do("POST", "/api/ask-tutor-ai", token, fiber.Map{"question": "Again?"})
	assert.Equal(t, fiber.StatusTooManyRequests, status)

	status, _ = h.do("POST", "/api/ask-tutor-ai", "", fiber.Map{"question": "Anyone?"})
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestAskTutorProviderFailure(t *testing.T) {
	h := newHarness(t, fakeGoogle{})
	token := h.register("curious")
	h.llm.AddResponse(llm.MockResponse{Err: errors.New("quota exceeded")})

	status, body := h.do("POST", "/api/ask-tutor-ai", token, fiber.Map{"question": "Why?"})
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "AI Error: quota exceeded", body["error"])
}

func TestContact(t *testing.T) {
	h := newHarness(t, fakeGoogle{})

	status, body := h.do("POST", "/api/contact", "", fiber.Map{"name": "Ada", "email": "ada@example.com", "message": "Hello"})
	require.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, "Message saved successfully!", body["success"])
	require.Len(t, h.mailer.sent, 1)
	assert.Equal(t, []string{"team@example.com"}, h.mailer.sent[0].To)

	h.mailer.err = errors.New("smtp down")
	status, _ = h.do("POST", "/api/contact", "", fiber.Map{"name": "Bob", "email": "bob@example.com", "message": "Hi"})
	assert.Equal(t, fiber.StatusCreated, status)

	status, _ = h.do("POST", "/api/contact", "", fiber.Map{"name": "", "email": "nope", "message": ""})
	assert.Equal(t, fiber.StatusBadRequest, status)

	// The name limit counts characters, not bytes.
	status, body = h.do("POST", "/api/contact", "", fiber.Map{"name": strings.Repeat("é", 100), "email": "e@example.com", "message": "Salut"})
	assert.Equal(t, fiber.StatusCreated, status, body)
	status, _ = h.do("POST", "/api/contact", "", fiber.Map{"name": strings.Repeat("é", 101), "email": "e@example.com", "message": "Salut"})
	assert.Equal(t, fiber.StatusBadRequest, status)

	var stored int64
	require.NoError(t, h.db.Model(&models.ContactSubmission{}).Count(&stored).Error)
	assert.EqualValues(t, 3, stored)
}

func TestAdminRoutes(t *testing.T) {
	h := newHarness(t, fakeGoogle{})
	learner := h.register("learner")
	adminToken := h.register("admin")
	require.NoError(t, h.db.Model(&models.User{}).Where("username = ?", "admin").Update("role", models.RoleAdmin).Error)

	status, _ := h.do("POST", "/api/admin/lessons", learner, fiber.Map{"title": "Nope"})
	assert.Equal(t, fiber.StatusForbidden, status)

	status, body := h.do("POST", "/api/admin/lessons", adminToken, fiber.Map{"title": "Genetics", "category": "Biology"})
	require.Equal(t, fiber.StatusCreated, status, body)
	lesson := body["data"].(map[string]interface{})
	id := itoa(uint(lesson["id"].(float64)))
	assert.Equal(t, models.DefaultDuration, lesson["duration"])

	status, _ = h.do("PATCH", "/api/admin/lessons/"+id, adminToken, fiber.Map{"is_trending": true})
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = h.do("POST", "/api/admin/lessons/"+id+"/questions", adminToken, fiber.Map{
		"level": "EASY", "text": "DNA stands for?",
		"choices": []fiber.Map{{"text": "Deoxyribonucleic acid", "is_correct": true}, {"text": "Dynamic acid", "is_correct": true}},
	})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = h.do("POST", "/api/admin/lessons/"+id+"/questions", adminToken, fiber.Map{
		"level": "easy", "text": "DNA stands for?",
		"choices": []fiber.Map{{"text": "Deoxyribonucleic acid", "is_correct": true}, {"text": "Dynamic acid"}},
	})
	require.Equal(t, fiber.StatusCreated, status, body)

	status, body = h.do("GET", "/api/admin/lessons/"+id+"/analytics", adminToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	data := body["data"].(map[string]interface{})
	assert.Len(t, data["levels"], 4)
	assert.EqualValues(t, 1, data["questions"].(map[string]interface{})["EASY"])

	h.do("POST", "/api/contact", "", fiber.Map{"name": "Ada", "email": "ada@example.com", "message": "Hello"})
	status, body = h.do("GET", "/api/admin/contacts", adminToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 1, body["total"])
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
