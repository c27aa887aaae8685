package usecase

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"matchmate/internal/domain/entity"
	"matchmate/internal/domain/repository"
	"matchmate/internal/domain/service"
	"matchmate/pkg/errors"
	"matchmate/pkg/logger"
	"matchmate/pkg/utils"
)

const (
	MaxPhotoSize  = 5 << 20
	MaxPhotos     = 6
	MinNickname   = 3
	MaxNickname   = 30
	MinAge        = 18
	MaxAge        = 120
	MaxBioLength  = 500
	defaultMaxInt = 30
)

type UserUseCase struct {
	userRepo     repository.UserRepository
	interests    *InterestUseCase
	queue        *QueueUseCase
	photos       service.PhotoStorage
	maxInterests int

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewUserUseCase builds the profile use case. photos may be nil, in which
// case uploads are rejected.
func NewUserUseCase(
	userRepo repository.UserRepository,
	interests *InterestUseCase,
	queue *QueueUseCase,
	photos service.PhotoStorage,
	maxInterests int,
) *UserUseCase {
	if maxInterests <= 0 {
		maxInterests = defaultMaxInt
	}
	return &UserUseCase{
		userRepo:     userRepo,
		interests:    interests,
		queue:        queue,
		photos:       photos,
		maxInterests: maxInterests,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

type UpdateProfileInput struct {
	Nickname *string
	Age      *int
	Bio      *string
}

// GetProfile returns the user's profile, creating it with a generated
// nickname and avatar the first time.
func (uc *UserUseCase) GetProfile(ctx context.Context, uid string) (*entity.User, error) {
	if uid == "" {
		return nil, errors.Validation("user id is required")
	}

	user, err := uc.userRepo.GetByID(ctx, uid)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, errors.CodeNotFound) {
		return nil, err
	}

	uc.rngMu.Lock()
	nickname := utils.RandomNickname(uc.rng)
	uc.rngMu.Unlock()

	now := time.Now().UTC()
	user = &entity.User{
		ID:        uid,
		Nickname:  nickname,
		Avatar:    utils.AvatarURL(nickname),
		Interests: []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	logger.Info("Created profile for %s as %s", uid, nickname)
	return user, nil
}

func (uc *UserUseCase) UpdateProfile(ctx context.Context, uid string, input UpdateProfileInput) (*entity.User, error) {
	if input.Nickname != nil {
		nickname := strings.TrimSpace(*input.Nickname)
		if n := utf8.RuneCountInString(nickname); n < MinNickname || n > MaxNickname {
			return nil, errors.Validation(fmt.Sprintf("nickname must be between %d and %d characters", MinNickname, MaxNickname))
		}
		input.Nickname = &nickname
	}
	if input.Age != nil && (*input.Age < MinAge || *input.Age > MaxAge) {
		return nil, errors.Validation(fmt.Sprintf("age must be between %d and %d", MinAge, MaxAge))
	}
	if input.Bio != nil {
		bio := strings.TrimSpace(*input.Bio)
		if utf8.RuneCountInString(bio) > MaxBioLength {
			return nil, errors.Validation(fmt.Sprintf("bio must be at most %d characters", MaxBioLength))
		}
		input.Bio = &bio
	}

	user, err := uc.GetProfile(ctx, uid)
	if err != nil {
		return nil, err
	}

	if input.Nickname != nil {
		// Keep the generated avatar in sync until a custom one exists.
		if user.Avatar == utils.AvatarURL(user.Nickname) {
			user.Avatar = utils.AvatarURL(*input.Nickname)
		}
		user.Nickname = *input.Nickname
	}
	if input.Age != nil {
		user.Age = *input.Age
	}
	if input.Bio != nil {
		user.Bio = *input.Bio
	}
	user.UpdatedAt = time.Now().UTC()

	if err := uc.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SetInterests replaces the user's interests and republishes the queue entry.
func (uc *UserUseCase) SetInterests(ctx context.Context, uid string, ids []string) (*entity.User, error) {
	ids = entity.NormalizeInterests(ids)
	if len(ids) == 0 {
		return nil, errors.Validation("select at least one interest")
	}
	if len(ids) > uc.maxInterests {
		return nil, errors.Validation(fmt.Sprintf("select at most %d interests", uc.maxInterests))
	}

	unknown, err := uc.interests.Unknown(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(unknown) > 0 {
		return nil, errors.Validation("unknown interests: " + strings.Join(unknown, ", "))
	}

	user, err := uc.GetProfile(ctx, uid)
	if err != nil {
		return nil, err
	}
	user.Interests = ids
	user.UpdatedAt = time.Now().UTC()
	if err := uc.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	if _, err := uc.queue.SyncInterests(ctx, uid, ids); err != nil {
		logger.Warn("Queue sync after interest change of %s failed: %v", uid, err)
	}
	return user, nil
}

// UploadPhoto stores a jpeg or png of at most MaxPhotoSize bytes and adds it
// to the profile.
func (uc *UserUseCase) UploadPhoto(ctx context.Context, uid string, file io.Reader, size int64, contentType string) (*entity.User, error) {
	if uc.photos == nil {
		return nil, errors.BadRequest("Photo uploads are not configured", nil)
	}
	if contentType != "image/jpeg" && contentType != "image/png" {
		return nil, errors.Validation("photo must be a jpeg or png image")
	}
	if size <= 0 || size > MaxPhotoSize {
		return nil, errors.Validation("photo must be at most 5 MiB")
	}

	user, err := uc.GetProfile(ctx, uid)
	if err != nil {
		return nil, err
	}
	if len(user.PhotoURLs) >= MaxPhotos {
		return nil, errors.Validation(fmt.Sprintf("at most %d photos are allowed", MaxPhotos))
	}

	url, err := uc.photos.UploadPhoto(ctx, uid, io.LimitReader(file, MaxPhotoSize), contentType)
	if err != nil {
		return nil, errors.Internal("Failed to upload photo", err)
	}

	user.PhotoURLs = append(user.PhotoURLs, url)
	user.UpdatedAt = time.Now().UTC()
	if err := uc.userRepo.Update(ctx, user); err != nil {
		if delErr := uc.photos.DeletePhoto(ctx, url); delErr != nil {
			logger.Warn("Failed to remove orphaned photo %s: %v", url, delErr)
		}
		return nil, err
	}
	return user, nil
}
