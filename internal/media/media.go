// Package media загружает файлы пользователей (аватары, обложки курсов,
// видео лекций) в Google Cloud Storage.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"github.com/magabrotheeeer/learnify-backend/internal/config"
	"github.com/magabrotheeeer/learnify-backend/internal/lib/apperr"
	"github.com/magabrotheeeer/learnify-backend/internal/lib/sl"
)

// Folder каталог бакета для своего вида файлов.
type Folder string

// Каталоги бакета.
const (
	FolderAvatars    Folder = "avatars"
	FolderThumbnails Folder = "thumbnails"
	FolderLectures   Folder = "lectures"
)

var imageTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}

var allowedTypes = map[Folder][]string{
	FolderAvatars:    imageTypes,
	FolderThumbnails: imageTypes,
	FolderLectures:   {"video/mp4", "video/webm", "video/quicktime", "video/x-matroska"},
}

// ErrUnsupportedType тип файла не разрешён для каталога.
var ErrUnsupportedType = apperr.New(apperr.ErrInvalidInput, "unsupported file type")

// File загруженный объект.
type File struct {
	PublicID string `json:"publicId"`
	URL      string `json:"url"`
}

// Storage загрузчик файлов в один бакет.
type Storage struct {
	client        *storage.Client
	bucket        string
	publicBaseURL string
	log           *slog.Logger
}

// New создаёт клиент GCS. Без credentials_file используются учётные данные окружения
// (или эмулятор из STORAGE_EMULATOR_HOST).
func New(ctx context.Context, cfg config.GCS, log *slog.Logger) (*Storage, error) {
	const op = "media.New"
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("%s: bucket is not set", op)
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		client:        client,
		bucket:        cfg.Bucket,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		log:           log.With(slog.String("component", "media"), slog.String("bucket", cfg.Bucket)),
	}, nil
}

// Upload сохраняет содержимое r в каталог folder под новым именем и возвращает публичный адрес.
func (s *Storage) Upload(ctx context.Context, folder Folder, filename, contentType string, r io.Reader) (*File, error) {
	const op = "media.Upload"
	if !Allowed(folder, contentType) {
		return nil, fmt.Errorf("%s: %w", op, ErrUnsupportedType)
	}

	key := ObjectKey(folder, filename)
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout(folder))
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=86400"
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("%s: write: %w", op, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("%s: close: %w", op, err)
	}

	s.log.Debug("object uploaded", slog.String("key", key), slog.String("content_type", contentType))
	return &File{PublicID: key, URL: s.PublicURL(key)}, nil
}

// Delete удаляет объект. Отсутствующий объект не считается ошибкой.
func (s *Storage) Delete(ctx context.Context, publicID string) error {
	const op = "media.Delete"
	if publicID == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	err := s.client.Bucket(s.bucket).Object(publicID).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		s.log.Error("failed to delete object", slog.String("key", publicID), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// PublicURL адрес объекта для клиента.
func (s *Storage) PublicURL(publicID string) string {
	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + publicID
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, publicID)
}

// PublicIDFromURL возвращает ключ объекта, если url указывает в этот бакет.
func (s *Storage) PublicIDFromURL(url string) (string, bool) {
	prefix := s.PublicURL("")
	if url == "" || !strings.HasPrefix(url, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(url, prefix)
	return key, key != ""
}

// Close закрывает клиент GCS.
func (s *Storage) Close() error {
	return s.client.Close()
}

// Allowed проверяет, можно ли хранить файл типа contentType в каталоге folder.
func Allowed(folder Folder, contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	for _, t := range allowedTypes[folder] {
		if ct == t {
			return true
		}
	}
	return false
}

// ObjectKey строит уникальный ключ объекта с расширением исходного файла.
func ObjectKey(folder Folder, filename string) string {
	ext := strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(filename, "\\", "/"))))
	if len(ext) > 10 {
		ext = ""
	}
	return fmt.Sprintf("%s/%s%s", folder, uuid.NewString(), ext)
}

func uploadTimeout(folder Folder) time.Duration {
	if folder == FolderLectures {
		return 15 * time.Minute
	}
	return 2 * time.Minute
}
