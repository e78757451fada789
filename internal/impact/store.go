// Package impact tracks meals logged, xp, coins, streaks and the forest stage
// of each user.
package impact

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"sproutchef/internal/docstore"
)

// ErrNegativeXP is returned when asked to take xp away.
var ErrNegativeXP = errors.New("xp cannot decrease")

// Schema is the user impacts collection, keyed one-to-one by user.
var Schema = docstore.Schema{
	Name:         "user_impacts",
	OwnerField:   "user_id",
	CreatedField: "created_at",
	SaveKey:      "user_id",
}

// Store reads and writes impacts.
type Store struct {
	c   *docstore.Collection
	loc *time.Location

	// createMu keeps FindOrCreate from creating two impacts for one user.
	createMu sync.Mutex
}

// NewStore creates a Store over the impacts collection of db. Streak days
// are counted in loc.
func NewStore(db *docstore.DB, loc *time.Location) *Store {
	if loc == nil {
		loc = time.UTC
	}
	return &Store{c: db.Collection(Schema), loc: loc}
}

// FindByUser returns the impact of a user, or nil.
func (s *Store) FindByUser(ctx context.Context, userID string) (*Impact, error) {
	doc, err := s.c.FindOne(ctx, docstore.Filter{"user_id": userID})
	if err != nil || doc == nil {
		return nil, err
	}
	return docstore.Decode[Impact](doc)
}

// FindOrCreate returns the impact of a user, creating a fresh one if the user
// has none.
func (s *Store) FindOrCreate(ctx context.Context, userID string) (*Impact, error) {
	s.createMu.Lock()
	defer s.createMu.Unlock()

	i, err := s.FindByUser(ctx, userID)
	if err != nil || i != nil {
		return i, err
	}
	doc, err := s.c.Create(ctx, docstore.Document{
		"user_id":            userID,
		"total_meals":        0,
		"xp":                 0,
		"coins":              0,
		"forest_stage":       string(Seed),
		"streak_days":        0,
		"last_activity_date": nil,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create impact for user %s: %w", userID, err)
	}
	return docstore.Decode[Impact](doc)
}

// AddXP grants delta xp to a user and moves the forest stage along.
func (s *Store) AddXP(ctx context.Context, userID string, delta int) (*Impact, error) {
	if delta < 0 {
		return nil, ErrNegativeXP
	}
	return s.modify(ctx, userID, func(i *Impact) {
		i.XP += delta
		i.ForestStage = StageFor(i.XP)
	})
}

// RecordMeal logs one meal at now: rewards xp and coins and updates the
// streak.
func (s *Store) RecordMeal(ctx context.Context, userID string, now time.Time) (*Impact, error) {
	return s.modify(ctx, userID, func(i *Impact) {
		i.TotalMeals++
		i.XP += XPPerMeal
		i.Coins += CoinsPerMeal
		i.ForestStage = StageFor(i.XP)
		i.StreakDays = NextStreak(i.StreakDays, i.LastActivityDate, now, s.loc)
		day := now.In(s.loc)
		i.LastActivityDate = &day
	})
}

// Save writes i over the stored impact of the same user, or adds it. The
// forest stage is derived from xp; the one on i is ignored.
func (s *Store) Save(ctx context.Context, i *Impact) (*Impact, error) {
	staged := *i
	staged.ForestStage = StageFor(i.XP)
	doc, err := docstore.Encode(&staged)
	if err != nil {
		return nil, err
	}
	if i.CreatedAt.IsZero() {
		delete(doc, "created_at")
	}
	saved, err := s.c.Save(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to save impact for user %s: %w", i.UserID, err)
	}
	return docstore.Decode[Impact](saved)
}

// modify applies fn to the user's impact under the collection lock.
func (s *Store) modify(ctx context.Context, userID string, fn func(*Impact)) (*Impact, error) {
	current, err := s.FindOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	doc, err := s.c.Apply(ctx, current.ID, func(cur docstore.Document) (docstore.Document, error) {
		i, err := docstore.Decode[Impact](cur)
		if err != nil {
			return nil, err
		}
		fn(i)
		return docstore.Document{
			"total_meals":        i.TotalMeals,
			"xp":                 i.XP,
			"coins":              i.Coins,
			"forest_stage":       string(i.ForestStage),
			"streak_days":        i.StreakDays,
			"last_activity_date": i.LastActivityDate,
		}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update impact for user %s: %w", userID, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("impact %s disappeared during update", current.ID)
	}
	return docstore.Decode[Impact](doc)
}
