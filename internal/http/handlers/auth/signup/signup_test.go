package signup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/learnify-backend/internal/lib/apperr"
	"github.com/magabrotheeeer/learnify-backend/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Signup(ctx context.Context, req models.SignupRequest) (*models.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestSignupHandler_ServeHTTP(t *testing.T) {
	valid := models.SignupRequest{Name: "Ann Lee", Email: "ann@example.com", Password: "Passw0rd!"}

	tests := []struct {
		name           string
		body           string
		setupMock      func(m *MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "success",
			body: `{"name":"Ann Lee","email":"ann@example.com","password":"Passw0rd!"}`,
			setupMock: func(m *MockService) {
				m.On("Signup", mock.Anything, valid).
					Return(&models.User{UUID: "uid-1", Name: "Ann Lee", Email: "ann@example.com", Role: "student"}, nil).Once()
			},
			expectedStatus: http.StatusCreated,
			expectedBody:   `"id":"uid-1"`,
		},
		{
			name:           "malformed json",
			body:           `{"name":`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"message":"invalid request body"`,
		},
		{
			name:           "weak password",
			body:           `{"name":"Ann Lee","email":"ann@example.com","password":"password"}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"path":"password"`,
		},
		{
			name:           "name with digits",
			body:           `{"name":"Ann 2","email":"ann@example.com","password":"Passw0rd!"}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"message":"name can only contain letters and spaces"`,
		},
		{
			name:           "unknown role",
			body:           `{"name":"Ann Lee","email":"ann@example.com","password":"Passw0rd!","role":"admin"}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"path":"role"`,
		},
		{
			name: "email taken",
			body: `{"name":"Ann Lee","email":"ann@example.com","password":"Passw0rd!"}`,
			setupMock: func(m *MockService) {
				m.On("Signup", mock.Anything, valid).
					Return(nil, fmt.Errorf("op: %w", apperr.New(apperr.ErrAlreadyExists, "user already exists with this email"))).Once()
			},
			expectedStatus: http.StatusConflict,
			expectedBody:   `"message":"user already exists with this email"`,
		},
		{
			name: "storage failure",
			body: `{"name":"Ann Lee","email":"ann@example.com","password":"Passw0rd!"}`,
			setupMock: func(m *MockService) {
				m.On("Signup", mock.Anything, valid).Return(nil, errors.New("db down")).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"message":"internal error"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			if tt.setupMock != nil {
				tt.setupMock(svc)
			}
			h := New(newNoopLogger(), svc)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/user/signup", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
