package repository

import (
	"context"

	"cloud.google.com/go/firestore"

	"matchmate/internal/domain/entity"
	"matchmate/internal/domain/repository"
	"matchmate/pkg/errors"
)

type firestoreInterestRepository struct {
	client *firestore.Client
}

func NewFirestoreInterestRepository(client *firestore.Client) repository.InterestRepository {
	return &firestoreInterestRepository{
		client: client,
	}
}

func (r *firestoreInterestRepository) List(ctx context.Context) ([]*entity.Interest, error) {
	docs, err := r.client.Collection(interestsCollection).Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Retrieval("Failed to load interests", err)
	}

	interests := make([]*entity.Interest, 0, len(docs))
	for _, doc := range docs {
		var interest entity.Interest
		if err := doc.DataTo(&interest); err != nil {
			return nil, errors.Internal("Failed to decode interest", err)
		}
		interest.ID = doc.Ref.ID
		interests = append(interests, &interest)
	}
	sortInterests(interests)
	return interests, nil
}

func (r *firestoreInterestRepository) SaveAll(ctx context.Context, interests []*entity.Interest) error {
	bw := r.client.BulkWriter(ctx)

	jobs := make([]*firestore.BulkWriterJob, 0, len(interests))
	for _, interest := range interests {
		job, err := bw.Set(r.client.Collection(interestsCollection).Doc(interest.ID), interest)
		if err != nil {
			bw.End()
			return errors.Internal("Failed to queue interest write", err)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			return errors.Internal("Failed to save interests", err)
		}
	}
	return nil
}
