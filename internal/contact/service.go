package contact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/abduss/contactbook/internal/config"
	"github.com/abduss/contactbook/internal/logger"
	"github.com/abduss/contactbook/internal/metrics"
	"github.com/abduss/contactbook/internal/validation"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

const (
	DefaultLimit = 100
	MaxLimit     = 1000

	defaultMaxAvatarSize = 5 * 1024 * 1024 // 5MB
	defaultPresignTTL    = 15 * time.Minute
)

type contactStore interface {
	Create(ctx context.Context, ownerID uuid.UUID, fields Fields) (Contact, error)
	Get(ctx context.Context, ownerID, contactID uuid.UUID) (Contact, error)
	List(ctx context.Context, ownerID uuid.UUID, skip, limit int) ([]Contact, error)
	Update(ctx context.Context, ownerID, contactID uuid.UUID, fields Fields) (Contact, error)
	Delete(ctx context.Context, ownerID, contactID uuid.UUID) (Contact, error)
	Search(ctx context.Context, ownerID uuid.UUID, term string) ([]Contact, error)
	ListByBirthdayKeys(ctx context.Context, ownerID uuid.UUID, keys []string) ([]Contact, error)
	SetAvatar(ctx context.Context, ownerID, contactID uuid.UUID, objectName, contentType *string) (Contact, error)
}

type objectStore interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, params url.Values) (*url.URL, error)
}

// Service applies validation and ownership rules on top of the contact store.
type Service struct {
	repo          contactStore
	objects       objectStore
	objectBucket  string
	presignTTL    time.Duration
	maxAvatarSize int64
	log           *zap.Logger
	nowFunc       func() time.Time
}

// NewService constructs a contact service. Avatars are kept in cfg.Bucket.
func NewService(repo contactStore, objects objectStore, cfg config.MinIOConfig, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	ttl := cfg.PresignTTL
	if ttl <= 0 {
		ttl = defaultPresignTTL
	}
	return &Service{
		repo:          repo,
		objects:       objects,
		objectBucket:  cfg.Bucket,
		presignTTL:    ttl,
		maxAvatarSize: defaultMaxAvatarSize,
		log:           log,
		nowFunc:       time.Now,
	}
}

// Today is the current calendar date in UTC.
func (s *Service) Today() time.Time {
	return dateOf(s.nowFunc().UTC())
}

// Create validates fields and stores a new contact for the owner.
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, fields Fields) (Contact, error) {
	fields = normalize(fields)
	if verr := s.validate(fields); verr != nil {
		metrics.ObserveContact("create", verr)
		return Contact{}, verr
	}

	contact, err := s.repo.Create(ctx, ownerID, fields)
	metrics.ObserveContact("create", err)
	return contact, err
}

// Get returns one of the owner's contacts.
func (s *Service) Get(ctx context.Context, ownerID, contactID uuid.UUID) (Contact, error) {
	contact, err := s.repo.Get(ctx, ownerID, contactID)
	metrics.ObserveContact("get", err)
	return contact, err
}

// List returns a page of the owner's contacts ordered by creation.
func (s *Service) List(ctx context.Context, ownerID uuid.UUID, skip, limit int) ([]Contact, error) {
	var verr *validation.Error
	if skip < 0 {
		verr = validation.Merge(verr, validation.NewError("skip", "min", "must be at least 0"))
	}
	if limit < 0 || limit > MaxLimit {
		verr = validation.Merge(verr, validation.NewError("limit", "range",
			fmt.Sprintf("must be between 0 and %d", MaxLimit)))
	}
	if verr != nil {
		metrics.ObserveContact("list", verr)
		return nil, verr
	}

	contacts, err := s.repo.List(ctx, ownerID, skip, limit)
	metrics.ObserveContact("list", err)
	return contacts, err
}

// Update replaces every editable field of one of the owner's contacts.
func (s *Service) Update(ctx context.Context, ownerID, contactID uuid.UUID, fields Fields) (Contact, error) {
	fields = normalize(fields)
	if verr := s.validate(fields); verr != nil {
		metrics.ObserveContact("update", verr)
		return Contact{}, verr
	}

	contact, err := s.repo.Update(ctx, ownerID, contactID, fields)
	metrics.ObserveContact("update", err)
	return contact, err
}

// Delete removes one of the owner's contacts and returns it. The avatar object
// is removed on a best-effort basis.
func (s *Service) Delete(ctx context.Context, ownerID, contactID uuid.UUID) (Contact, error) {
	contact, err := s.repo.Delete(ctx, ownerID, contactID)
	metrics.ObserveContact("delete", err)
	if err != nil {
		return Contact{}, err
	}

	if contact.HasAvatar() {
		if err := s.objects.RemoveObject(ctx, s.objectBucket, *contact.AvatarObject, minio.RemoveObjectOptions{}); err != nil {
			logger.FromContext(ctx, s.log).Warn("remove avatar of deleted contact",
				zap.String("contact_id", contact.ID.String()), zap.Error(err))
		}
	}
	return contact, nil
}

// Search finds the owner's contacts whose first name, last name or email
// contains term, ignoring case.
func (s *Service) Search(ctx context.Context, ownerID uuid.UUID, term string) ([]Contact, error) {
	term = strings.TrimSpace(term)
	if verr := validation.Var("query", term, "required,max=254"); verr != nil {
		metrics.ObserveContact("search", verr)
		return nil, verr
	}

	contacts, err := s.repo.Search(ctx, ownerID, term)
	metrics.ObserveContact("search", err)
	return contacts, err
}

// UpcomingBirthdays returns the owner's contacts whose birthday falls within
// the seven days starting today, soonest first.
func (s *Service) UpcomingBirthdays(ctx context.Context, ownerID uuid.UUID, today time.Time) ([]Contact, error) {
	today = dateOf(today)
	candidates, err := s.repo.ListByBirthdayKeys(ctx, ownerID, birthdayKeys(today, birthdayWindowDays))
	metrics.ObserveContact("birthdays", err)
	if err != nil {
		return nil, err
	}

	upcoming := make([]Contact, 0, len(candidates))
	for _, c := range candidates {
		if daysUntilBirthday(c.Birthday, today) < birthdayWindowDays {
			upcoming = append(upcoming, c)
		}
	}
	slices.SortStableFunc(upcoming, func(a, b Contact) int {
		return daysUntilBirthday(a.Birthday, today) - daysUntilBirthday(b.Birthday, today)
	})
	return upcoming, nil
}

// SetAvatar stores an image for one of the owner's contacts, replacing any
// previous avatar.
func (s *Service) SetAvatar(ctx context.Context, ownerID, contactID uuid.UUID, fileHeader *multipart.FileHeader) (Contact, error) {
	if fileHeader == nil {
		return Contact{}, validation.NewError("file", "required", "is required")
	}
	if fileHeader.Size > s.maxAvatarSize {
		return Contact{}, ErrAvatarTooLarge
	}
	contentType := fileHeader.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return Contact{}, ErrAvatarType
	}

	if _, err := s.repo.Get(ctx, ownerID, contactID); err != nil {
		return Contact{}, err
	}

	file, err := fileHeader.Open()
	if err != nil {
		return Contact{}, fmt.Errorf("open avatar upload: %w", err)
	}
	defer file.Close()

	objectName := avatarObjectName(ownerID, contactID)
	if _, err := s.objects.PutObject(ctx, s.objectBucket, objectName, file, fileHeader.Size,
		minio.PutObjectOptions{ContentType: contentType}); err != nil {
		metrics.ObserveContact("set_avatar", err)
		return Contact{}, fmt.Errorf("store avatar: %w", err)
	}

	contact, err := s.repo.SetAvatar(ctx, ownerID, contactID, &objectName, &contentType)
	metrics.ObserveContact("set_avatar", err)
	if err != nil {
		_ = s.objects.RemoveObject(ctx, s.objectBucket, objectName, minio.RemoveObjectOptions{})
		return Contact{}, err
	}
	return contact, nil
}

// Avatar opens the avatar of one of the owner's contacts. The caller closes the reader.
func (s *Service) Avatar(ctx context.Context, ownerID, contactID uuid.UUID) (Contact, io.ReadCloser, error) {
	contact, err := s.repo.Get(ctx, ownerID, contactID)
	if err != nil {
		return Contact{}, nil, err
	}
	if !contact.HasAvatar() {
		return Contact{}, nil, ErrAvatarNotFound
	}

	object, err := s.objects.GetObject(ctx, s.objectBucket, *contact.AvatarObject, minio.GetObjectOptions{})
	if err != nil {
		if errors.Is(err, ErrAvatarNotFound) {
			return Contact{}, nil, ErrAvatarNotFound
		}
		return Contact{}, nil, fmt.Errorf("fetch avatar: %w", err)
	}
	return contact, object, nil
}

// AvatarURL returns a presigned download URL for the avatar and its expiry.
func (s *Service) AvatarURL(ctx context.Context, ownerID, contactID uuid.UUID) (string, time.Time, error) {
	contact, err := s.repo.Get(ctx, ownerID, contactID)
	if err != nil {
		return "", time.Time{}, err
	}
	if !contact.HasAvatar() {
		return "", time.Time{}, ErrAvatarNotFound
	}

	expiresAt := s.nowFunc().Add(s.presignTTL)
	u, err := s.objects.PresignedGetObject(ctx, s.objectBucket, *contact.AvatarObject, s.presignTTL, nil)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("presign avatar: %w", err)
	}
	return u.String(), expiresAt, nil
}

// DeleteAvatar removes the avatar object and detaches it from the contact.
func (s *Service) DeleteAvatar(ctx context.Context, ownerID, contactID uuid.UUID) error {
	contact, err := s.repo.Get(ctx, ownerID, contactID)
	if err != nil {
		return err
	}
	if !contact.HasAvatar() {
		return ErrAvatarNotFound
	}

	if err := s.objects.RemoveObject(ctx, s.objectBucket, *contact.AvatarObject, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove avatar: %w", err)
	}
	_, err = s.repo.SetAvatar(ctx, ownerID, contactID, nil, nil)
	metrics.ObserveContact("delete_avatar", err)
	return err
}

func (s *Service) validate(fields Fields) *validation.Error {
	verr := validation.Struct(fields)
	if fields.Birthday.IsZero() {
		verr = validation.Merge(verr, validation.NewError("birthday", "required", "is required"))
	}
	return verr
}

func normalize(fields Fields) Fields {
	fields.FirstName = strings.TrimSpace(fields.FirstName)
	fields.LastName = strings.TrimSpace(fields.LastName)
	fields.Email = strings.TrimSpace(fields.Email)
	fields.PhoneNumber = strings.TrimSpace(fields.PhoneNumber)
	if !fields.Birthday.IsZero() {
		fields.Birthday = dateOf(fields.Birthday)
	}
	if fields.Note != nil {
		note := strings.TrimSpace(*fields.Note)
		if note == "" {
			fields.Note = nil
		} else {
			fields.Note = &note
		}
	}
	return fields
}

func avatarObjectName(ownerID, contactID uuid.UUID) string {
	return fmt.Sprintf("avatars/%s/%s", ownerID, contactID)
}
