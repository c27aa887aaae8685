package usecase

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"matchmate/internal/domain/entity"
	"matchmate/internal/domain/repository"
	"matchmate/internal/domain/service"
	"matchmate/internal/infrastructure/ratelimit"
	"matchmate/internal/infrastructure/telemetry"
	"matchmate/pkg/errors"
	"matchmate/pkg/logger"
)

type OutcomeKind string

const (
	OutcomeCreated       OutcomeKind = "created"
	OutcomeAlreadyExists OutcomeKind = "already_exists"
	OutcomeUnavailable   OutcomeKind = "unavailable"
)

// MatchOutcome is the result of a match attempt. Unavailable is a normal
// outcome, not an error: the caller searches again.
type MatchOutcome struct {
	Kind    OutcomeKind `json:"kind"`
	MatchID string      `json:"match_id"`
	Reason  string      `json:"reason,omitempty"`
}

type SearchState string

const (
	SearchSearching SearchState = "searching"
	SearchNoMatch   SearchState = "no-match"
	SearchReady     SearchState = "ready"
)

const (
	ReasonRetrievalFailed       = "retrieval_failed"
	ReasonRateLimited           = "rate_limited"
	ReasonAlreadyMatched        = "already_matched"
	ReasonNoCandidates          = "no_candidates"
	ReasonCandidatesUnavailable = "candidates_unavailable"
	ReasonTransactionConflict   = "transaction_conflict"
)

// SearchResult is what the client shows: still searching (retry later),
// nobody to match with, or a ready candidate or match.
type SearchResult struct {
	State     SearchState    `json:"state"`
	Candidate *CandidateView `json:"candidate,omitempty"`
	Outcome   *MatchOutcome  `json:"outcome,omitempty"`
	Match     *entity.Match  `json:"match,omitempty"`
	Reason    string         `json:"reason,omitempty"`
	Retryable bool           `json:"retryable"`
}

type CandidateView struct {
	UserID          string   `json:"user_id"`
	Nickname        string   `json:"nickname,omitempty"`
	Avatar          string   `json:"avatar,omitempty"`
	Age             int      `json:"age,omitempty"`
	Bio             string   `json:"bio,omitempty"`
	SharedInterests []string `json:"shared_interests"`
	Score           int      `json:"score"`
}

type MatchConfig struct {
	MaxQueryInterests   int
	CandidateFetchLimit int
	AutoMatchAttempts   int
}

type MatchUseCase struct {
	matchRepo   repository.MatchRepository
	queueRepo   repository.QueueRepository
	userRepo    repository.UserRepository
	queue       *QueueUseCase
	rateLimiter *ratelimit.RateLimiter
	cfg         MatchConfig
}

func NewMatchUseCase(
	matchRepo repository.MatchRepository,
	queueRepo repository.QueueRepository,
	userRepo repository.UserRepository,
	queue *QueueUseCase,
	rateLimiter *ratelimit.RateLimiter,
	cfg MatchConfig,
) *MatchUseCase {
	if cfg.MaxQueryInterests <= 0 {
		cfg.MaxQueryInterests = 10
	}
	if cfg.CandidateFetchLimit <= 0 {
		cfg.CandidateFetchLimit = 40
	}
	if cfg.AutoMatchAttempts <= 0 {
		cfg.AutoMatchAttempts = 3
	}
	return &MatchUseCase{
		matchRepo:   matchRepo,
		queueRepo:   queueRepo,
		userRepo:    userRepo,
		queue:       queue,
		rateLimiter: rateLimiter,
		cfg:         cfg,
	}
}

// FetchWaitingCandidates returns waiting queue entries sharing at least one
// interest with myInterests, oldest first, never including uid. Only the
// first MaxQueryInterests interests are queried, so very broad profiles may
// miss some candidates.
func (uc *MatchUseCase) FetchWaitingCandidates(ctx context.Context, uid string, myInterests []string, limit int) ([]*entity.QueueEntry, error) {
	if uid == "" {
		return nil, errors.Validation("user id is required")
	}
	interests := entity.NormalizeInterests(myInterests)
	if len(interests) == 0 {
		return nil, errors.Validation("interests must not be empty")
	}
	if len(interests) > uc.cfg.MaxQueryInterests {
		interests = interests[:uc.cfg.MaxQueryInterests]
	}
	if limit <= 0 {
		limit = uc.cfg.CandidateFetchLimit
	}

	// One extra so dropping ourselves still fills the page.
	entries, err := uc.queueRepo.FindWaiting(ctx, interests, limit+1)
	if err != nil {
		if errors.Is(err, errors.CodeRetrieval) {
			return nil, err
		}
		return nil, errors.Retrieval("Failed to fetch candidates", err)
	}

	candidates := make([]*entity.QueueEntry, 0, len(entries))
	for _, e := range entries {
		if e.UserID == uid {
			continue
		}
		candidates = append(candidates, e)
	}
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// CreateMatchIfAvailable pairs uidA and uidB in one transaction. Both queue
// entries must be waiting; they flip to matched together with the write of
// the match document, or nothing is written.
func (uc *MatchUseCase) CreateMatchIfAvailable(ctx context.Context, uidA, uidB string) (*MatchOutcome, error) {
	if uidA == "" || uidB == "" {
		return nil, errors.Validation("both user ids are required")
	}
	if uidA == uidB {
		return nil, errors.Validation("cannot match a user with themselves")
	}

	ctx, span := telemetry.Tracer().Start(ctx, "match.create")
	defer span.End()

	matchID := entity.MatchID(uidA, uidB)
	span.SetAttributes(attribute.String("match.id", matchID))

	var outcome *MatchOutcome
	err := uc.matchRepo.RunInTransaction(ctx, func(ctx context.Context, tx repository.MatchTx) error {
		outcome = nil

		existing, err := tx.GetMatch(matchID)
		if err != nil {
			return err
		}
		entryA, err := tx.GetQueueEntry(uidA)
		if err != nil {
			return err
		}
		entryB, err := tx.GetQueueEntry(uidB)
		if err != nil {
			return err
		}

		if existing != nil {
			outcome = &MatchOutcome{Kind: OutcomeAlreadyExists, MatchID: matchID}
			return nil
		}
		if reason := unavailableReason(uidA, entryA); reason != "" {
			outcome = &MatchOutcome{Kind: OutcomeUnavailable, MatchID: matchID, Reason: reason}
			return nil
		}
		if reason := unavailableReason(uidB, entryB); reason != "" {
			outcome = &MatchOutcome{Kind: OutcomeUnavailable, MatchID: matchID, Reason: reason}
			return nil
		}

		shared := entity.SharedInterests(entryA.Interests, entryB.Interests)
		if len(shared) == 0 {
			outcome = &MatchOutcome{Kind: OutcomeUnavailable, MatchID: matchID, Reason: "no shared interests"}
			return nil
		}

		now := tx.Now()
		if err := tx.CreateMatch(entity.NewMatch(uidA, uidB, shared, now)); err != nil {
			return err
		}
		if err := tx.SetQueueStatus(uidA, entity.QueueStatusMatched, now); err != nil {
			return err
		}
		if err := tx.SetQueueStatus(uidB, entity.QueueStatusMatched, now); err != nil {
			return err
		}

		outcome = &MatchOutcome{Kind: OutcomeCreated, MatchID: matchID}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "match transaction failed")
		telemetry.IncMatchOutcome("error")
		if _, ok := errors.As(err); ok {
			return nil, err
		}
		return nil, errors.Internal("Failed to create match", err)
	}

	span.SetAttributes(attribute.String("match.outcome", string(outcome.Kind)))
	telemetry.IncMatchOutcome(string(outcome.Kind))
	if outcome.Kind == OutcomeCreated {
		logger.Info("Match %s created", matchID)
	} else {
		logger.Debug("Match %s not created: %s %s", matchID, outcome.Kind, outcome.Reason)
	}
	return outcome, nil
}

// RequestMatch is CreateMatchIfAvailable on behalf of uid, rate limited per user.
func (uc *MatchUseCase) RequestMatch(ctx context.Context, uid, candidateID string) (*MatchOutcome, error) {
	if allowed, wait := uc.rateLimiter.Allow(uid, ratelimit.ActionCreateMatch); !allowed {
		return nil, errors.TooManyRequests(fmt.Sprintf("Too many match attempts, retry in %s", wait.Round(time.Second)))
	}
	return uc.CreateMatchIfAvailable(ctx, uid, candidateID)
}

func unavailableReason(uid string, entry *entity.QueueEntry) string {
	if entry == nil {
		return fmt.Sprintf("user %s is not in the queue", uid)
	}
	if !entry.IsWaiting() {
		return fmt.Sprintf("user %s is already matched", uid)
	}
	return ""
}

// FindCandidate returns the best waiting candidate for uid without claiming it.
func (uc *MatchUseCase) FindCandidate(ctx context.Context, uid string) (*SearchResult, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "match.find_candidate")
	defer span.End()

	result, err := uc.search(ctx, uid, ratelimit.ActionSearch, func(ctx context.Context, scored []service.ScoredCandidate, profiles map[string]*entity.User) *SearchResult {
		return &SearchResult{State: SearchReady, Candidate: candidateView(scored[0], profiles)}
	})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("search.state", string(result.State)))
	return result, nil
}

// AutoMatch tries the best AutoMatchAttempts candidates in order and stops at
// the first that yields a match.
func (uc *MatchUseCase) AutoMatch(ctx context.Context, uid string) (*SearchResult, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "match.auto")
	defer span.End()

	result, err := uc.search(ctx, uid, ratelimit.ActionCreateMatch, func(ctx context.Context, scored []service.ScoredCandidate, profiles map[string]*entity.User) *SearchResult {
		attempts := uc.cfg.AutoMatchAttempts
		if attempts > len(scored) {
			attempts = len(scored)
		}

		reason := ReasonCandidatesUnavailable
		for _, c := range scored[:attempts] {
			outcome, err := uc.CreateMatchIfAvailable(ctx, uid, c.UserID)
			if err != nil {
				logger.Warn("Auto match %s with %s failed: %v", uid, c.UserID, err)
				if errors.Is(err, errors.CodeTransactionConflict) {
					reason = ReasonTransactionConflict
				}
				continue
			}
			if outcome.Kind == OutcomeUnavailable {
				continue
			}

			result := &SearchResult{State: SearchReady, Candidate: candidateView(c, profiles), Outcome: outcome}
			if m, err := uc.matchRepo.GetByID(ctx, outcome.MatchID); err == nil {
				result.Match = m
			} else {
				logger.Warn("Failed to load match %s after creation: %v", outcome.MatchID, err)
			}
			return result
		}
		return &SearchResult{State: SearchSearching, Reason: reason, Retryable: true}
	})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("search.state", string(result.State)))
	return result, nil
}

type pickFunc func(ctx context.Context, scored []service.ScoredCandidate, profiles map[string]*entity.User) *SearchResult

// search runs the shared part of candidate lookups. Only validation problems
// are returned as errors; every other failure becomes a retryable result.
func (uc *MatchUseCase) search(ctx context.Context, uid, action string, pick pickFunc) (*SearchResult, error) {
	if uid == "" {
		return nil, errors.Validation("user id is required")
	}

	result, err := uc.runSearch(ctx, uid, action, pick)
	if err != nil {
		return nil, err
	}
	telemetry.IncSearchResult(string(result.State))
	return result, nil
}

func (uc *MatchUseCase) runSearch(ctx context.Context, uid, action string, pick pickFunc) (*SearchResult, error) {
	if allowed, _ := uc.rateLimiter.Allow(uid, action); !allowed {
		return &SearchResult{State: SearchSearching, Reason: ReasonRateLimited, Retryable: true}, nil
	}

	me, err := uc.userRepo.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, errors.CodeNotFound) {
			return nil, errors.Validation("select at least one interest before searching")
		}
		logger.Warn("Search for %s could not load profile: %v", uid, err)
		return retrievalFailed(), nil
	}
	if len(entity.NormalizeInterests(me.Interests)) == 0 {
		return nil, errors.Validation("select at least one interest before searching")
	}

	if _, err := uc.queue.SyncInterests(ctx, uid, me.Interests); err != nil {
		logger.Warn("Queue sync for %s failed: %v", uid, err)
	}
	if entry, err := uc.queueRepo.GetByUserID(ctx, uid); err == nil && !entry.IsWaiting() {
		return &SearchResult{State: SearchNoMatch, Reason: ReasonAlreadyMatched}, nil
	}

	entries, err := uc.FetchWaitingCandidates(ctx, uid, me.Interests, uc.cfg.CandidateFetchLimit)
	if err != nil {
		if errors.Is(err, errors.CodeValidation) {
			return nil, err
		}
		logger.Warn("Candidate retrieval for %s failed: %v", uid, err)
		return retrievalFailed(), nil
	}

	entries, err = uc.withoutPreviousPartners(ctx, uid, entries)
	if err != nil {
		logger.Warn("Previous matches of %s unavailable: %v", uid, err)
		return retrievalFailed(), nil
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.UserID)
	}
	profiles, err := uc.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		logger.Warn("Candidate profiles for %s unavailable, scoring without ages: %v", uid, err)
		profiles = map[string]*entity.User{}
	}

	pool := make([]service.Candidate, 0, len(entries))
	for _, e := range entries {
		c := service.Candidate{UserID: e.UserID, Interests: e.Interests}
		if p, ok := profiles[e.UserID]; ok {
			c.Age = p.Age
		}
		pool = append(pool, c)
	}

	scored := service.ScoreCandidates(me.Interests, me.Age, pool)
	if len(scored) == 0 {
		return &SearchResult{State: SearchNoMatch, Reason: ReasonNoCandidates}, nil
	}
	return pick(ctx, scored, profiles), nil
}

// withoutPreviousPartners drops entries uid already has a match with. After a
// rejoin those pairs would only ever yield already_exists.
func (uc *MatchUseCase) withoutPreviousPartners(ctx context.Context, uid string, entries []*entity.QueueEntry) ([]*entity.QueueEntry, error) {
	if len(entries) == 0 {
		return entries, nil
	}

	matches, err := uc.matchRepo.ListByParticipant(ctx, uid, 0)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return entries, nil
	}

	partners := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		partners[m.Peer(uid)] = struct{}{}
	}

	kept := make([]*entity.QueueEntry, 0, len(entries))
	for _, e := range entries {
		if _, ok := partners[e.UserID]; !ok {
			kept = append(kept, e)
		}
	}
	return kept, nil
}

func retrievalFailed() *SearchResult {
	return &SearchResult{State: SearchSearching, Reason: ReasonRetrievalFailed, Retryable: true}
}

func candidateView(c service.ScoredCandidate, profiles map[string]*entity.User) *CandidateView {
	view := &CandidateView{
		UserID:          c.UserID,
		SharedInterests: c.SharedInterests,
		Score:           c.Score,
	}
	if p, ok := profiles[c.UserID]; ok {
		view.Nickname = p.Nickname
		view.Avatar = p.Avatar
		view.Age = p.Age
		view.Bio = p.Bio
	}
	return view
}

// GetMatch returns the match if uid takes part in it.
func (uc *MatchUseCase) GetMatch(ctx context.Context, uid, matchID string) (*entity.Match, error) {
	m, err := uc.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !m.HasParticipant(uid) {
		return nil, errors.Forbidden("You are not a participant of this match", nil)
	}
	return m, nil
}
