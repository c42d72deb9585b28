package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/cognisync/cognisync-api/internal/analysis"
	"github.com/cognisync/cognisync-api/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserBuilder creates test users with a builder pattern
type UserBuilder struct {
	email    string
	password string
	fullName string
	role     string
	status   string
}

// NewUserBuilder creates a new UserBuilder with an active clinician account
func NewUserBuilder() *UserBuilder {
	return &UserBuilder{
		email:    fmt.Sprintf("clinician_%s@example.com", uuid.New().String()[:8]),
		password: "testpassword123",
		fullName: "Test Clinician",
		role:     domain.RoleClinician,
		status:   domain.StatusActive,
	}
}

func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.email = email
	return b
}

func (b *UserBuilder) WithPassword(password string) *UserBuilder {
	b.password = password
	return b
}

func (b *UserBuilder) AsAdmin() *UserBuilder {
	b.role = domain.RoleAdmin
	return b
}

func (b *UserBuilder) WithStatus(status string) *UserBuilder {
	b.status = status
	return b
}

// Build creates the user in the database and returns the user with the raw password
func (b *UserBuilder) Build(t *testing.T, db *gorm.DB) (*domain.User, string) {
	t.Helper()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(b.password), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Email:        b.email,
		PasswordHash: string(hashedPassword),
		FullName:     b.fullName,
		Role:         b.role,
		Status:       b.status,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user, b.password
}

// LoginResponse matches the API login response shape used by tests.
type LoginResponse struct {
	AccessToken string `json:"accessToken"`
}

// BuildAndAuthenticate creates an active user in the database and logs in
// through the API, returning the user and a bearer token.
func (b *UserBuilder) BuildAndAuthenticate(t *testing.T, ts *TestServer) (*domain.User, string) {
	t.Helper()

	user, password := b.Build(t, ts.DB.DB)

	reqBody := map[string]string{
		"email":    b.email,
		"password": password,
	}
	body, _ := json.Marshal(reqBody)

	resp, err := http.Post(ts.APIURL("/auth/login"), "application/json", bytes.NewBuffer(body))
	if err != nil {
		t.Fatalf("failed to log in: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected login status code: %d", resp.StatusCode)
	}

	var loginResp LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&loginResp); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}

	return user, loginResp.AccessToken
}

// FakeAnalyzer returns a scripted result without any network call.
type FakeAnalyzer struct {
	Result *analysis.Result
	Err    error
	Calls  int
}

func (f *FakeAnalyzer) Analyze(ctx context.Context, audio []byte, req analysis.Request) (*analysis.Result, error) {
	f.Calls++
	if f.Err != nil {
		return nil, f.Err
	}
	if f.Result != nil {
		return f.Result, nil
	}
	return &analysis.Result{
		Transcript:      "Patient described the week as difficult but manageable.",
		Note:            "Subjective: patient reports stress.\nAssessment: coping improved.",
		ConfidenceScore: 0.9,
		Model:           "fake",
		Sentiment: &analysis.SentimentScores{
			Mood:       "neutral",
			Confidence: 0.8,
			Indicators: []string{"stress", "coping"},
		},
	}, nil
}
