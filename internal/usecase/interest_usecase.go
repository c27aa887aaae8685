package usecase

import (
	"context"
	"sync"

	"github.com/gosimple/slug"

	"matchmate/internal/domain/entity"
	"matchmate/internal/domain/repository"
	"matchmate/pkg/logger"
)

var defaultCatalog = []struct {
	name     string
	category string
}{
	{"Music", "Culture"}, {"Movies", "Culture"}, {"Series", "Culture"}, {"Books", "Culture"},
	{"Theatre", "Culture"}, {"Museums", "Culture"}, {"Anime", "Culture"}, {"Podcasts", "Culture"},
	{"Hiking", "Outdoors"}, {"Camping", "Outdoors"}, {"Surfing", "Outdoors"}, {"Climbing", "Outdoors"},
	{"Cycling", "Outdoors"}, {"Travel", "Outdoors"}, {"Beach", "Outdoors"}, {"Photography", "Creative"},
	{"Drawing", "Creative"}, {"Writing", "Creative"}, {"Dance", "Creative"}, {"Design", "Creative"},
	{"Gaming", "Tech"}, {"Programming", "Tech"}, {"Gadgets", "Tech"}, {"Science", "Tech"},
	{"Football", "Sports"}, {"Basketball", "Sports"}, {"Running", "Sports"}, {"Gym", "Sports"},
	{"Yoga", "Sports"}, {"Swimming", "Sports"}, {"Cooking", "Food"}, {"Baking", "Food"},
	{"Coffee", "Food"}, {"Wine", "Food"}, {"Vegan Food", "Food"}, {"Board Games", "Social"},
	{"Volunteering", "Social"}, {"Languages", "Social"}, {"Pets", "Social"}, {"Meditation", "Wellbeing"},
}

// DefaultInterests is the catalog written when the collection is empty.
func DefaultInterests() []*entity.Interest {
	interests := make([]*entity.Interest, 0, len(defaultCatalog))
	for _, item := range defaultCatalog {
		interests = append(interests, &entity.Interest{
			ID:       slug.Make(item.name),
			Name:     item.name,
			Category: item.category,
		})
	}
	return interests
}

type InterestUseCase struct {
	interestRepo repository.InterestRepository
	seedMu       sync.Mutex
}

func NewInterestUseCase(interestRepo repository.InterestRepository) *InterestUseCase {
	return &InterestUseCase{interestRepo: interestRepo}
}

// ListInterests returns the catalog ordered by name, seeding it on first use.
func (uc *InterestUseCase) ListInterests(ctx context.Context) ([]*entity.Interest, error) {
	interests, err := uc.interestRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(interests) > 0 {
		return interests, nil
	}

	uc.seedMu.Lock()
	defer uc.seedMu.Unlock()

	interests, err = uc.interestRepo.List(ctx)
	if err != nil || len(interests) > 0 {
		return interests, err
	}

	seed := DefaultInterests()
	if err := uc.interestRepo.SaveAll(ctx, seed); err != nil {
		return nil, err
	}
	logger.Info("Seeded interest catalog with %d entries", len(seed))
	return uc.interestRepo.List(ctx)
}

// Unknown returns the ids missing from the catalog.
func (uc *InterestUseCase) Unknown(ctx context.Context, ids []string) ([]string, error) {
	catalog, err := uc.ListInterests(ctx)
	if err != nil {
		return nil, err
	}

	known := make(map[string]struct{}, len(catalog))
	for _, i := range catalog {
		known[i.ID] = struct{}{}
	}

	var unknown []string
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			unknown = append(unknown, id)
		}
	}
	return unknown, nil
}
