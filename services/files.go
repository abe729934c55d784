package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/code19m/errx"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"github.com/pawanx64/File-Sharing-Backend/metrics"
	"github.com/pawanx64/File-Sharing-Backend/models"
	"github.com/pawanx64/File-Sharing-Backend/repository"
	"github.com/pawanx64/File-Sharing-Backend/storage"
)

const (
	DefaultMaxUploadBytes = 5 * 1024 * 1024
	DefaultFolder         = "file-sharing"

	qrSize = 256
)

type FileRepository interface {
	Create(ctx context.Context, f *models.File) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.File, error)
	FindOwned(ctx context.Context, id, owner uuid.UUID) (*models.File, error)
	ListByOwner(ctx context.Context, owner uuid.UUID) ([]models.File, error)
	DeleteOwned(ctx context.Context, id, owner uuid.UUID) error
	RecordDownload(ctx context.Context, ev *models.DownloadEvent) error
	CountDownloads(ctx context.Context, fileID uuid.UUID) (int64, error)
}

type FileConfig struct {
	// Folder is the key prefix every upload is stored under.
	Folder string
	// ShareBaseURL is the front-end page that a file id is appended to.
	ShareBaseURL   string
	MaxUploadBytes int64
}

// FileService keeps file records and stored objects in step: records are
// written only after the object exists and removed only after the object is
// gone.
type FileService struct {
	files FileRepository
	store storage.ObjectStore
	cfg   FileConfig
	now   func() time.Time
	log   *zap.SugaredLogger
}

func NewFileService(files FileRepository, store storage.ObjectStore, cfg FileConfig, log *zap.SugaredLogger) *FileService {
	if cfg.Folder == "" {
		cfg.Folder = DefaultFolder
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	return &FileService{
		files: files,
		store: store,
		cfg:   cfg,
		now:   time.Now,
		log:   log.Named("files"),
	}
}

func (s *FileService) MaxUploadBytes() int64 { return s.cfg.MaxUploadBytes }

type UploadInput struct {
	// OwnerID is nil for anonymous uploads.
	OwnerID *uuid.UUID
	Name    string
	Size    int64
	Body    io.Reader
}

type DownloadInfo struct {
	ID            uuid.UUID
	Filename      string
	SizeInBytes   int64
	SecureURL     string
	ShareableLink string
	Downloads     int64
}

// DownloadMeta describes who asked for a download link.
type DownloadMeta struct {
	IPAddress string
	UserAgent string
}

func (s *FileService) tooLarge() error {
	metrics.UploadsTotal.WithLabelValues("too_large").Inc()
	limit := fmt.Sprintf("File size exceeds %dMB limit.", s.cfg.MaxUploadBytes/(1024*1024))
	return newError(CodePayloadTooLarge, errx.T_Validation, limit)
}

func (s *FileService) Upload(ctx context.Context, in UploadInput) (*models.File, error) {
	if in.Size > s.cfg.MaxUploadBytes {
		return nil, s.tooLarge()
	}
	if in.Body == nil || strings.TrimSpace(in.Name) == "" {
		return nil, validationError("We Need The File")
	}

	data, err := io.ReadAll(io.LimitReader(in.Body, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, validationError("Could not read the uploaded file")
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, s.tooLarge()
	}

	contentType := mimetype.Detect(data).String()
	key := storage.NewKey(s.cfg.Folder, in.Name)

	obj, err := s.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("store_failed").Inc()
		s.log.Errorw("object store upload failed", "key", key, "error", err)
		return nil, wrapError(err, CodeUploadFailed, errx.T_Internal)
	}

	record := &models.File{
		UserID:      in.OwnerID,
		Filename:    in.Name,
		SecureURL:   obj.URL,
		PublicID:    obj.Key,
		SizeInBytes: obj.Size,
		ContentType: contentType,
		UploadTime:  s.now().UTC(),
	}
	if err := s.files.Create(ctx, record); err != nil {
		metrics.UploadsTotal.WithLabelValues("record_failed").Inc()
		s.log.Errorw("saving file record failed", "key", obj.Key, "error", err)
		s.discardObject(ctx, obj.Key)
		return nil, wrapError(err, CodeRecordWriteFailed, errx.T_Internal)
	}

	metrics.UploadsTotal.WithLabelValues("ok").Inc()
	s.log.Infow("file uploaded", "file_id", record.ID, "key", record.PublicID, "size", record.SizeInBytes)
	return record, nil
}

// discardObject removes an object whose record could not be written. When
// that fails too the object stays behind for the reconciler.
func (s *FileService) discardObject(ctx context.Context, key string) {
	err := s.store.Delete(context.WithoutCancel(ctx), key)
	if err == nil || errors.Is(err, storage.ErrObjectNotFound) {
		return
	}
	metrics.OrphansTotal.WithLabelValues("blob").Inc()
	s.log.Errorw("orphaned object left in store", "key", key, "error", err)
}

func (s *FileService) ShareableLink(id uuid.UUID) string {
	return strings.TrimRight(s.cfg.ShareBaseURL, "/") + "/" + id.String()
}

func (s *FileService) find(ctx context.Context, id uuid.UUID) (*models.File, error) {
	file, err := s.files.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundError("File not found")
		}
		return nil, internalError(err)
	}
	return file, nil
}

// DownloadInfo returns what a client needs to fetch a file and records the
// request.
func (s *FileService) DownloadInfo(ctx context.Context, id uuid.UUID, meta DownloadMeta) (*DownloadInfo, error) {
	file, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	ev := &models.DownloadEvent{FileID: file.ID, IPAddress: meta.IPAddress, UserAgent: meta.UserAgent, CreatedAt: s.now().UTC()}
	if err := s.files.RecordDownload(ctx, ev); err != nil {
		s.log.Warnw("recording download failed", "file_id", file.ID, "error", err)
	}
	downloads, err := s.files.CountDownloads(ctx, file.ID)
	if err != nil {
		s.log.Warnw("counting downloads failed", "file_id", file.ID, "error", err)
	}

	return &DownloadInfo{
		ID:            file.ID,
		Filename:      file.Filename,
		SizeInBytes:   file.SizeInBytes,
		SecureURL:     file.SecureURL,
		ShareableLink: s.ShareableLink(file.ID),
		Downloads:     downloads,
	}, nil
}

// ShareQRCode renders the shareable link of a file as a PNG.
func (s *FileService) ShareQRCode(ctx context.Context, id uuid.UUID) ([]byte, error) {
	file, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(s.ShareableLink(file.ID), qrcode.Medium, qrSize)
	if err != nil {
		return nil, internalError(err)
	}
	return png, nil
}

func (s *FileService) ListMine(ctx context.Context, owner uuid.UUID) ([]models.File, error) {
	files, err := s.files.ListByOwner(ctx, owner)
	if err != nil {
		return nil, internalError(err)
	}
	return files, nil
}

// Delete removes the owner's file from the store first and then drops the
// record. A store failure leaves the record untouched.
func (s *FileService) Delete(ctx context.Context, owner, id uuid.UUID) error {
	file, err := s.files.FindOwned(ctx, id, owner)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.DeletionsTotal.WithLabelValues("not_found").Inc()
			return notFoundError("File not found or not authorized")
		}
		return internalError(err)
	}

	if err := s.store.Delete(ctx, file.PublicID); err != nil {
		if !errors.Is(err, storage.ErrObjectNotFound) {
			metrics.DeletionsTotal.WithLabelValues("store_failed").Inc()
			s.log.Errorw("object store deletion failed", "file_id", file.ID, "key", file.PublicID, "error", err)
			return wrapError(err, CodeDeletionFailed, errx.T_Internal)
		}
		s.log.Infow("object already absent", "file_id", file.ID, "key", file.PublicID)
	}

	if err := s.files.DeleteOwned(ctx, id, owner); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.DeletionsTotal.WithLabelValues("not_found").Inc()
			return notFoundError("File not found or not authorized")
		}
		metrics.DeletionsTotal.WithLabelValues("record_failed").Inc()
		metrics.OrphansTotal.WithLabelValues("record").Inc()
		s.log.Errorw("record left without object", "file_id", file.ID, "key", file.PublicID, "error", err)
		return internalError(err)
	}

	metrics.DeletionsTotal.WithLabelValues("ok").Inc()
	s.log.Infow("file deleted", "file_id", file.ID, "key", file.PublicID)
	return nil
}
