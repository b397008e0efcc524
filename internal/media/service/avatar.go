// Package service manages profile pictures.
package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"

	accountdomain "github.com/leadhub/leadhub-backend/internal/account/domain"
	"github.com/leadhub/leadhub-backend/internal/media/store"
	"github.com/leadhub/leadhub-backend/pkg/actor"
	"github.com/leadhub/leadhub-backend/pkg/errors"
	"github.com/leadhub/leadhub-backend/pkg/logger"
)

// DefaultMaxBytes is the upload limit when none is configured.
const DefaultMaxBytes = 5 << 20

// image types accepted for avatars and their file extensions
var imageTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Transactor runs fn in a database transaction carried by ctx.
type Transactor interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ObjectStore is implemented by store.BoltStore.
type ObjectStore interface {
	Put(ctx context.Context, bucket, key, contentType string, data []byte) error
	Get(ctx context.Context, bucket, key string) (*store.Object, error)
	Delete(ctx context.Context, bucket, key string) error
}

// ProfileStore is the part of the profile repository avatars need.
type ProfileStore interface {
	GetByID(ctx context.Context, id string) (*accountdomain.Profile, error)
	SetAvatar(ctx context.Context, tenantID, id string, url, key *string) (*accountdomain.Profile, error)
}

// Auditor is implemented by the account audit service.
type Auditor interface {
	Record(ctx context.Context, e accountdomain.AuditEntry) error
}

// Options configures the avatar service.
type Options struct {
	Bucket    string
	PublicURL string
	MaxBytes  int64
}

// AvatarService stores avatars and keeps profile.avatar_url in sync.
type AvatarService struct {
	tx       Transactor
	objects  ObjectStore
	profiles ProfileStore
	audit    Auditor
	clock    clock.Clock
	opts     Options
	logger   *logger.Logger
}

// NewAvatarService creates a new avatar service
func NewAvatarService(tx Transactor, objects ObjectStore, profiles ProfileStore, audit Auditor, clk clock.Clock, opts Options, log *logger.Logger) *AvatarService {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	opts.PublicURL = strings.TrimRight(opts.PublicURL, "/")
	return &AvatarService{tx: tx, objects: objects, profiles: profiles, audit: audit, clock: clk, opts: opts, logger: log}
}

// MaxBytes is the upload limit.
func (s *AvatarService) MaxBytes() int64 {
	return s.opts.MaxBytes
}

// Bucket is the storage bucket avatars live in.
func (s *AvatarService) Bucket() string {
	return s.opts.Bucket
}

// ObjectURL is the public URL of key.
func (s *AvatarService) ObjectURL(key string) string {
	return s.opts.PublicURL + "/storage/v1/object/public/" + s.opts.Bucket + "/" + key
}

func (s *AvatarService) caller(ctx context.Context) (*accountdomain.Profile, error) {
	a := actor.FromContext(ctx)
	if a == nil || a.ID == "" {
		return nil, errors.Unauthorized("")
	}
	p, err := s.profiles.GetByID(ctx, a.ID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.ProfileNotFound()
		}
		return nil, err
	}
	return p, nil
}

// Upload replaces the caller's avatar with data. The content type is sniffed
// from the bytes; only images are accepted.
func (s *AvatarService) Upload(ctx context.Context, data []byte) (*accountdomain.Profile, error) {
	if int64(len(data)) > s.opts.MaxBytes {
		return nil, errors.PayloadTooLarge(humanBytes(s.opts.MaxBytes))
	}
	if len(data) == 0 {
		return nil, errors.BadRequest("empty upload")
	}
	contentType := http.DetectContentType(data)
	ext, ok := imageTypes[contentType]
	if !ok {
		return nil, errors.UnsupportedMediaType()
	}

	p, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("avatars/%s/%d%s", p.ID, s.clock.Now().UnixNano(), ext)
	if err := s.objects.Put(ctx, s.opts.Bucket, key, contentType, data); err != nil {
		return nil, errors.InternalWrap(err, "failed to store avatar")
	}

	url := s.ObjectURL(key)
	updated, err := s.setAvatar(ctx, p, &url, &key)
	if err != nil {
		// The profile still points at the old object; drop the new one.
		return nil, multierr.Append(err, s.objects.Delete(context.WithoutCancel(ctx), s.opts.Bucket, key))
	}

	s.removeObject(ctx, p.AvatarKey)
	s.logger.Info().Str("profile_id", p.ID).Str("key", key).Int("bytes", len(data)).Msg("avatar uploaded")
	return updated, nil
}

// Delete clears the caller's avatar.
func (s *AvatarService) Delete(ctx context.Context) (*accountdomain.Profile, error) {
	p, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	if p.AvatarKey == nil && p.AvatarURL == nil {
		return p, nil
	}

	updated, err := s.setAvatar(ctx, p, nil, nil)
	if err != nil {
		return nil, err
	}
	s.removeObject(ctx, p.AvatarKey)
	return updated, nil
}

func (s *AvatarService) setAvatar(ctx context.Context, p *accountdomain.Profile, url, key *string) (*accountdomain.Profile, error) {
	var updated *accountdomain.Profile
	err := s.tx.Transaction(ctx, func(ctx context.Context) error {
		var err error
		if updated, err = s.profiles.SetAvatar(ctx, p.TenantID, p.ID, url, key); err != nil {
			return err
		}
		details := map[string]any{"removed": url == nil}
		if key != nil {
			details["key"] = *key
		}
		return s.audit.Record(ctx, accountdomain.AuditEntry{
			TenantID:     p.TenantID,
			Action:       accountdomain.ActionAvatarUpdated,
			ResourceType: "profile",
			ResourceID:   p.ID,
			Details:      details,
		})
	})
	return updated, err
}

// removeObject deletes a replaced object. Failure leaves an orphan, which is logged.
func (s *AvatarService) removeObject(ctx context.Context, key *string) {
	if key == nil || *key == "" {
		return
	}
	if err := s.objects.Delete(context.WithoutCancel(ctx), s.opts.Bucket, *key); err != nil {
		s.logger.Warn().Err(err).Str("key", *key).Msg("failed to remove previous avatar")
	}
}

// Open returns a public object. Only keys under avatars/ are served.
func (s *AvatarService) Open(ctx context.Context, bucket, key string) (*store.Object, error) {
	if bucket != s.opts.Bucket || !strings.HasPrefix(key, "avatars/") || strings.Contains(key, "..") {
		return nil, errors.NotFound("object")
	}
	return s.objects.Get(ctx, bucket, key)
}

func humanBytes(n int64) string {
	if n >= 1<<20 && n%(1<<20) == 0 {
		return fmt.Sprintf("%d MiB", n>>20)
	}
	return fmt.Sprintf("%d bytes", n)
}
