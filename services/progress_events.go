package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"pilot-progress-system/logger"
	"pilot-progress-system/models"
	"pilot-progress-system/progression"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrEventNotFound = errors.New("progress event not found")

// ProgressEventService is the notification sink: it stores the rank-ups and
// reward summaries the engine reports so the UI can present them later.
type ProgressEventService struct {
	DB  *gorm.DB
	log *logger.Logger
}

func NewProgressEventService(db *gorm.DB, log *logger.Logger) *ProgressEventService {
	return &ProgressEventService{DB: db, log: log.With("component", "progress_events")}
}

func newEvent(login string, kind models.ProgressEventKind, title string, payload interface{}) (models.ProgressEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return models.ProgressEvent{}, fmt.Errorf("encode %s event: %w", kind, err)
	}
	return models.ProgressEvent{
		ID:         uuid.NewString(),
		PilotLogin: login,
		Kind:       kind,
		Title:      title,
		Payload:    string(raw),
	}, nil
}

// outcomeEvents turns an engine outcome into the notices a pilot should see.
func outcomeEvents(login string, kind models.ProgressEventKind, title string, out progression.Outcome) ([]models.ProgressEvent, error) {
	var events []models.ProgressEvent
	add := func(kind models.ProgressEventKind, title string, payload interface{}) error {
		ev, err := newEvent(login, kind, title, payload)
		if err != nil {
			return err
		}
		events = append(events, ev)
		return nil
	}

	if err := add(kind, title, out.Summary); err != nil {
		return nil, err
	}
	for _, a := range out.Summary.Artifacts {
		if err := add(models.EventArtifactGranted, a.Title, a); err != nil {
			return nil, err
		}
	}
	if out.RankUp != nil {
		if err := add(models.EventRankUp, out.RankUp.To.Name, out.RankUp); err != nil {
			return nil, err
		}
	}
	return events, nil
}

// record stores events inside the caller's transaction.
func (s *ProgressEventService) record(tx *gorm.DB, events []models.ProgressEvent) error {
	if len(events) == 0 {
		return nil
	}
	if err := tx.Create(&events).Error; err != nil {
		return fmt.Errorf("store progress events: %w", err)
	}
	return nil
}

// List returns a pilot's events, newest first.
func (s *ProgressEventService) List(ctx context.Context, login string, unviewedOnly bool, limit int) ([]models.ProgressEvent, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	q := s.DB.WithContext(ctx).Where("pilot_login = ?", login)
	if unviewedOnly {
		q = q.Where("viewed = ?", false)
	}
	var events []models.ProgressEvent
	err := q.Order("seq DESC").Limit(limit).Find(&events).Error
	return events, err
}

// Since returns events recorded after the cursor sequence, oldest first.
// Events of one pilot are written under that pilot's write lock, so they
// commit in sequence order.
func (s *ProgressEventService) Since(ctx context.Context, login string, cursor uint64) ([]models.ProgressEvent, error) {
	var events []models.ProgressEvent
	err := s.DB.WithContext(ctx).
		Where("pilot_login = ? AND seq > ?", login, cursor).
		Order("seq ASC").
		Find(&events).Error
	return events, err
}

// Latest returns the sequence of the pilot's newest event, zero if none.
func (s *ProgressEventService) Latest(ctx context.Context, login string) (uint64, error) {
	var latest models.ProgressEvent
	err := s.DB.WithContext(ctx).
		Where("pilot_login = ?", login).
		Order("seq DESC").
		First(&latest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	return latest.Seq, err
}

func (s *ProgressEventService) MarkViewed(ctx context.Context, login, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrEventNotFound
	}
	res := s.DB.WithContext(ctx).
		Model(&models.ProgressEvent{}).
		Where("id = ? AND pilot_login = ?", id, login).
		Update("viewed", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (s *ProgressEventService) MarkAllViewed(ctx context.Context, login string) (int64, error) {
	res := s.DB.WithContext(ctx).
		Model(&models.ProgressEvent{}).
		Where("pilot_login = ? AND viewed = ?", login, false).
		Update("viewed", true)
	return res.RowsAffected, res.Error
}
