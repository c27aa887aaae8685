package usecase

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchmate/internal/domain/entity"
	"matchmate/internal/domain/repository"
	"matchmate/pkg/errors"
	"matchmate/pkg/utils"
)

type fakePhotoStorage struct {
	uploaded  []string
	deleted   []string
	uploadErr error
}

func (s *fakePhotoStorage) UploadPhoto(ctx context.Context, uid string, file io.Reader, contentType string) (string, error) {
	if s.uploadErr != nil {
		return "", s.uploadErr
	}
	if _, err := io.ReadAll(file); err != nil {
		return "", err
	}
	url := fmt.Sprintf("https://storage.example.com/%s/%d.jpg", uid, len(s.uploaded))
	s.uploaded = append(s.uploaded, url)
	return url, nil
}

func (s *fakePhotoStorage) DeletePhoto(ctx context.Context, url string) error {
	s.deleted = append(s.deleted, url)
	return nil
}

func (s *fakePhotoStorage) Close() error { return nil }

type failingUpdateRepository struct {
	repository.UserRepository
}

func (r *failingUpdateRepository) Update(ctx context.Context, user *entity.User) error {
	return errors.Internal("Failed to update user", stderrors.New("write rejected"))
}

func TestGetProfileCreatesOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, err := f.profiles.GetProfile(ctx, "alice")
	require.NoError(t, err)
	assert.Regexp(t, `^[A-Z][a-z]+[A-Z][a-z]+[1-9][0-9]$`, first.Nickname)
	assert.Equal(t, utils.AvatarURL(first.Nickname), first.Avatar)
	assert.Empty(t, first.Interests)

	second, err := f.profiles.GetProfile(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, first.Nickname, second.Nickname)

	_, err = f.profiles.GetProfile(ctx, "")
	assert.True(t, errors.Is(err, errors.CodeValidation))
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	nick := "  Night Owl  "
	age := 29
	bio := "likes long walks"
	user, err := f.profiles.UpdateProfile(ctx, "alice", UpdateProfileInput{Nickname: &nick, Age: &age, Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, "Night Owl", user.Nickname)
	assert.Equal(t, utils.AvatarURL("Night Owl"), user.Avatar)
	assert.Equal(t, 29, user.Age)
	assert.Equal(t, bio, user.Bio)

	stored, err := f.users.GetByID(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Night Owl", stored.Nickname)
}

func TestUpdateProfileValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	short, long := "ab", strings.Repeat("x", MaxNickname+1)
	young, old := MinAge-1, MaxAge+1
	longBio := strings.Repeat("b", MaxBioLength+1)

	tests := []struct {
		name  string
		input UpdateProfileInput
	}{
		{"nickname too short", UpdateProfileInput{Nickname: &short}},
		{"nickname too long", UpdateProfileInput{Nickname: &long}},
		{"too young", UpdateProfileInput{Age: &young}},
		{"too old", UpdateProfileInput{Age: &old}},
		{"bio too long", UpdateProfileInput{Bio: &longBio}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.profiles.UpdateProfile(ctx, "alice", tt.input)
			assert.True(t, errors.Is(err, errors.CodeValidation), "got %v", err)
		})
	}

	_, err := f.users.GetByID(ctx, "alice")
	assert.True(t, errors.Is(err, errors.CodeNotFound), "invalid input never creates a profile")
}

func TestSetInterests(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	user, err := f.profiles.SetInterests(ctx, "alice", []string{"music", "hiking", "music"})
	require.NoError(t, err)
	assert.Equal(t, []string{"hiking", "music"}, user.Interests)

	entry, err := f.queue.GetEntry(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"hiking", "music"}, entry.Interests)
	assert.True(t, entry.IsWaiting())
}

func TestSetInterestsValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tests := []struct {
		name string
		ids  []string
	}{
		{"empty", nil},
		{"too many", []string{"music", "hiking", "cooking", "gaming", "yoga", "coffee"}},
		{"unknown", []string{"music", "underwater-basket"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.profiles.SetInterests(ctx, "alice", tt.ids)
			assert.True(t, errors.Is(err, errors.CodeValidation), "got %v", err)
		})
	}

	_, err := f.queue.GetEntry(ctx, "alice")
	assert.True(t, errors.Is(err, errors.CodeNotFound))
}

func TestUploadPhoto(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	photos := &fakePhotoStorage{}
	uc := NewUserUseCase(f.users, f.interests, f.queue, photos, 5)

	user, err := uc.UploadPhoto(ctx, "alice", bytes.NewReader([]byte("jpeg")), 4, "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, photos.uploaded, user.PhotoURLs)

	tests := []struct {
		name        string
		size        int64
		contentType string
	}{
		{"gif", 4, "image/gif"},
		{"too large", MaxPhotoSize + 1, "image/png"},
		{"empty", 0, "image/png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.UploadPhoto(ctx, "alice", bytes.NewReader(nil), tt.size, tt.contentType)
			assert.True(t, errors.Is(err, errors.CodeValidation), "got %v", err)
		})
	}

	for len(user.PhotoURLs) < MaxPhotos {
		user, err = uc.UploadPhoto(ctx, "alice", bytes.NewReader([]byte("png")), 3, "image/png")
		require.NoError(t, err)
	}
	_, err = uc.UploadPhoto(ctx, "alice", bytes.NewReader([]byte("png")), 3, "image/png")
	assert.True(t, errors.Is(err, errors.CodeValidation))
	assert.Len(t, photos.uploaded, MaxPhotos)
}

func TestUploadPhotoFailures(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.profiles.UploadPhoto(ctx, "alice", bytes.NewReader([]byte("x")), 1, "image/png")
	assert.True(t, errors.Is(err, errors.CodeBadRequest), "uploads need a photo store")

	broken := &fakePhotoStorage{uploadErr: stderrors.New("bucket gone")}
	uc := NewUserUseCase(f.users, f.interests, f.queue, broken, 5)
	_, err = uc.UploadPhoto(ctx, "alice", bytes.NewReader([]byte("x")), 1, "image/png")
	assert.True(t, errors.Is(err, errors.CodeInternal))

	photos := &fakePhotoStorage{}
	_, err = f.profiles.GetProfile(ctx, "bob")
	require.NoError(t, err)
	uc = NewUserUseCase(&failingUpdateRepository{UserRepository: f.users}, f.interests, f.queue, photos, 5)
	_, err = uc.UploadPhoto(ctx, "bob", bytes.NewReader([]byte("x")), 1, "image/png")
	assert.True(t, errors.Is(err, errors.CodeInternal))
	assert.Equal(t, photos.uploaded, photos.deleted, "orphaned upload is removed")
}
