package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/learnify-backend/internal/media"
)

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Upload(ctx context.Context, folder media.Folder, filename, contentType string, r io.Reader) (*media.File, error) {
	data, _ := io.ReadAll(r)
	args := m.Called(ctx, folder, filename, contentType, string(data))
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*media.File), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func multipartBody(t *testing.T, field, filename, contentType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return buf, mw.FormDataContentType()
}

func TestUploadHandler(t *testing.T) {
	webm := append([]byte{0x1A, 0x45, 0xDF, 0xA3}, bytes.Repeat([]byte{0}, 16)...)

	tests := []struct {
		name           string
		field          string
		contentType    string
		content        []byte
		setupMock      func(m *MockStorage)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:        "declared content type",
			field:       "file",
			contentType: "video/mp4",
			content:     []byte("mp4-bytes"),
			setupMock: func(m *MockStorage) {
				m.On("Upload", mock.Anything, media.FolderLectures, "intro.mp4", "video/mp4", "mp4-bytes").
					Return(&media.File{PublicID: "lectures/abc.mp4", URL: "https://cdn/lectures/abc.mp4"}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"publicId":"lectures/abc.mp4"`,
		},
		{
			name:    "sniffed content type keeps the whole body",
			field:   "file",
			content: webm,
			setupMock: func(m *MockStorage) {
				m.On("Upload", mock.Anything, media.FolderLectures, "intro.mp4", "video/webm", string(webm)).
					Return(&media.File{PublicID: "lectures/abc.webm"}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"message":"video uploaded successfully"`,
		},
		{
			name:        "unsupported type",
			field:       "file",
			contentType: "text/plain",
			content:     []byte("hello"),
			setupMock: func(m *MockStorage) {
				m.On("Upload", mock.Anything, media.FolderLectures, "intro.mp4", "text/plain", "hello").
					Return(nil, media.ErrUnsupportedType).Once()
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"message":"unsupported file type"`,
		},
		{
			name:           "wrong field",
			field:          "video",
			contentType:    "video/mp4",
			content:        []byte("x"),
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"message":"file is required"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := new(MockStorage)
			if tt.setupMock != nil {
				tt.setupMock(st)
			}

			body, ct := multipartBody(t, tt.field, "intro.mp4", tt.contentType, tt.content)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/media/upload-video", body)
			req.Header.Set("Content-Type", ct)
			rec := httptest.NewRecorder()

			New(newNoopLogger(), st).ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			st.AssertExpectations(t)
		})
	}
}
