package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/h2non/filetype"

	"github.com/ignatzorin/grantwriter-backend/internal/domain/repository"
	"github.com/ignatzorin/grantwriter-backend/internal/pkg/apperror"
)

// sniffLen: filetype смотрит не дальше первых 262 байт.
const sniffLen = 262

// Разрешённые типы вложений
var allowedMimeTypes = map[string]bool{
	"application/pdf": true,
	"image/png":       true,
	"image/jpeg":      true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       true,
}

var (
	ErrUnsupportedType = errors.New("storage: unsupported file type")
	ErrFileTooLarge    = errors.New("storage: file too large")
)

// AttachmentStorage хранит вложения на диске в каталоге владельца.
type AttachmentStorage struct {
	rootPath       string
	maxUploadBytes int64
}

// NewAttachmentStorage создаёт файловое хранилище.
func NewAttachmentStorage(rootPath string, maxUploadMB int64) (*AttachmentStorage, error) {
	if err := os.MkdirAll(rootPath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: не удалось создать каталог %s: %w", rootPath, err)
	}

	return &AttachmentStorage{
		rootPath:       rootPath,
		maxUploadBytes: maxUploadMB * 1024 * 1024,
	}, nil
}

func (s *AttachmentStorage) MaxUploadBytes() int64 {
	return s.maxUploadBytes
}

// Save определяет тип по магическим байтам, сохраняет файл и возвращает относительный путь.
func (s *AttachmentStorage) Save(ctx context.Context, ownerID uuid.UUID, originalName string, r io.Reader) (*repository.StoredFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("storage: ошибка чтения файла: %w", err)
	}
	head = head[:n]

	kind, err := filetype.Match(head)
	if err != nil || kind == filetype.Unknown || !allowedMimeTypes[kind.MIME.Value] {
		return nil, apperror.Wrap(ErrUnsupportedType, apperror.ErrCodeValidation,
			"unsupported file type: allowed are pdf, png, jpg, docx, xlsx")
	}

	fileName := fmt.Sprintf("%d_%s.%s", time.Now().UnixNano(), uuid.NewString()[:8], kind.Extension)

	ownerDir := filepath.Join(s.rootPath, ownerID.String())
	if err := os.MkdirAll(ownerDir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: не удалось создать каталог владельца: %w", err)
	}

	targetPath := filepath.Join(ownerDir, fileName)
	tempPath := targetPath + ".tmp"

	f, err := os.Create(tempPath)
	if err != nil {
		return nil, fmt.Errorf("storage: не удалось создать файл: %w", err)
	}
	defer f.Close()

	limited := io.LimitedReader{R: io.MultiReader(bytes.NewReader(head), r), N: s.maxUploadBytes + 1}
	written, err := io.Copy(f, &limited)
	if err != nil {
		_ = os.Remove(tempPath)
		return nil, fmt.Errorf("storage: ошибка записи файла: %w", err)
	}

	if written > s.maxUploadBytes {
		_ = os.Remove(tempPath)
		return nil, apperror.Wrap(ErrFileTooLarge, apperror.ErrCodeValidation,
			fmt.Sprintf("file exceeds the %d MB limit", s.maxUploadBytes/(1024*1024)))
	}

	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("storage: ошибка закрытия файла: %w", err)
	}

	if err := os.Rename(tempPath, targetPath); err != nil {
		return nil, fmt.Errorf("storage: не удалось переименовать файл: %w", err)
	}

	return &repository.StoredFile{
		Path:     filepath.Join(ownerID.String(), fileName),
		Size:     written,
		MimeType: kind.MIME.Value,
	}, nil
}

// Delete удаляет файл; отсутствие файла не ошибка.
func (s *AttachmentStorage) Delete(ctx context.Context, relativePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target, err := s.resolve(relativePath)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: не удалось удалить файл: %w", err)
	}
	return nil
}

// DeleteAll удаляет все файлы и возвращает объединённую ошибку.
func (s *AttachmentStorage) DeleteAll(ctx context.Context, paths []string) error {
	var errs []error
	for _, p := range paths {
		if err := s.Delete(ctx, p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// resolve не даёт выйти за пределы корня хранилища.
func (s *AttachmentStorage) resolve(relativePath string) (string, error) {
	target := filepath.Join(s.rootPath, filepath.Clean("/"+relativePath))
	root := filepath.Clean(s.rootPath) + string(filepath.Separator)
	if !strings.HasPrefix(target, root) {
		return "", fmt.Errorf("storage: недопустимый путь %q", relativePath)
	}
	return target, nil
}

// DisplayName очищает исходное имя файла для показа пользователю.
func DisplayName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "..", "")
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == "/" {
		name = "attachment"
	}
	if len(name) > 200 {
		name = name[:200]
	}
	return name
}
