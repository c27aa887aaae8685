package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"

	"matchmate/internal/domain/entity"
	"matchmate/internal/domain/repository"
	"matchmate/pkg/errors"
	"matchmate/pkg/logger"
)

type firestoreUserRepository struct {
	client *firestore.Client
}

func NewFirestoreUserRepository(client *firestore.Client) repository.UserRepository {
	return &firestoreUserRepository{
		client: client,
	}
}

func (r *firestoreUserRepository) Create(ctx context.Context, user *entity.User) error {
	_, err := r.client.Collection(usersCollection).Doc(user.ID).Set(ctx, user)
	if err != nil {
		return errors.Internal("Failed to create user", err)
	}
	return nil
}

func (r *firestoreUserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	doc, err := r.client.Collection(usersCollection).Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, errors.NotFound("User", err)
		}
		return nil, errors.Retrieval("Failed to load user", err)
	}

	var user entity.User
	if err := doc.DataTo(&user); err != nil {
		return nil, errors.Internal("Failed to decode user", err)
	}
	user.ID = doc.Ref.ID

	return &user, nil
}

func (r *firestoreUserRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*entity.User, error) {
	users := make(map[string]*entity.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	refs := make([]*firestore.DocumentRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, r.client.Collection(usersCollection).Doc(id))
	}

	docs, err := r.client.GetAll(ctx, refs)
	if err != nil {
		return nil, errors.Retrieval("Failed to load users", err)
	}

	for _, doc := range docs {
		if !doc.Exists() {
			continue
		}
		var user entity.User
		if err := doc.DataTo(&user); err != nil {
			logger.Warn("Skipping undecodable user %s: %v", doc.Ref.ID, err)
			continue
		}
		user.ID = doc.Ref.ID
		users[user.ID] = &user
	}

	return users, nil
}

func (r *firestoreUserRepository) Update(ctx context.Context, user *entity.User) error {
	logger.Debug("Updating user in Firestore, ID: %s", user.ID)

	_, err := r.client.Collection(usersCollection).Doc(user.ID).Update(ctx, []firestore.Update{
		{Path: "nickname", Value: user.Nickname},
		{Path: "age", Value: user.Age},
		{Path: "bio", Value: user.Bio},
		{Path: "avatar", Value: user.Avatar},
		{Path: "photoUrls", Value: user.PhotoURLs},
		{Path: "interests", Value: user.Interests},
		{Path: "updatedAt", Value: time.Now().UTC()},
	})
	if err != nil {
		if isNotFound(err) {
			return errors.NotFound("User", err)
		}
		return errors.Internal("Failed to update user", err)
	}

	return nil
}
