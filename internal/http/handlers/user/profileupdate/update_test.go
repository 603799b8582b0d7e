package profileupdate

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/learnify-backend/internal/http/middlewarectx"
	"github.com/magabrotheeeer/learnify-backend/internal/lib/jwt"
	"github.com/magabrotheeeer/learnify-backend/internal/models"
	"github.com/magabrotheeeer/learnify-backend/internal/services/auth"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) UpdateProfile(ctx context.Context, userUID string, req models.UpdateProfileRequest, avatar *auth.Avatar) (*models.User, error) {
	var content string
	if avatar != nil {
		b, _ := io.ReadAll(avatar.Body)
		content = avatar.Filename + "|" + avatar.ContentType + "|" + string(b)
	}
	args := m.Called(ctx, userUID, req, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func withUser(r *http.Request) *http.Request {
	return r.WithContext(middlewarectx.WithClaims(r.Context(), &jwt.CustomClaims{UserUID: "uid-1", Role: "student"}))
}

func TestProfileUpdate_WithAvatar(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("name", "Ann Lee"))
	require.NoError(t, mw.WriteField("bio", "Gopher"))
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="avatar"; filename="me.png"`)
	hdr.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, _ = part.Write([]byte("PNGDATA"))
	require.NoError(t, mw.Close())

	svc := new(MockService)
	svc.On("UpdateProfile", mock.Anything, "uid-1", models.UpdateProfileRequest{Name: "Ann Lee", Bio: "Gopher"}, "me.png|image/png|PNGDATA").
		Return(&models.User{UUID: "uid-1", Name: "Ann Lee", Avatar: "https://cdn/avatars/x.png"}, nil).Once()

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/user/profile", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	New(newNoopLogger(), svc).ServeHTTP(rec, withUser(req))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"avatar":"https://cdn/avatars/x.png"`)
	svc.AssertExpectations(t)
}

func TestProfileUpdate_FieldsOnly(t *testing.T) {
	svc := new(MockService)
	svc.On("UpdateProfile", mock.Anything, "uid-1", models.UpdateProfileRequest{Bio: "Hi"}, "").
		Return(&models.User{UUID: "uid-1"}, nil).Once()

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/user/profile", strings.NewReader("bio=Hi"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	New(newNoopLogger(), svc).ServeHTTP(rec, withUser(req))

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestProfileUpdate_InvalidName(t *testing.T) {
	svc := new(MockService)

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/user/profile", strings.NewReader("name=R2D2"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	New(newNoopLogger(), svc).ServeHTTP(rec, withUser(req))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"path":"name"`)
	svc.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
