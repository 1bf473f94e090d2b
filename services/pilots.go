package services

import (
	"context"
	"strings"

	"pilot-progress-system/models"
)

// Profile is the HR profile data mirrored onto a pilot.
type Profile struct {
	Login     string
	FirstName string
	LastName  string
	Role      string
}

// UpdateProfile mirrors profile fields onto the pilot, creating the pilot at
// the lowest rank if needed. Progression fields are never touched.
func (s *ProgressionService) UpdateProfile(ctx context.Context, p Profile) error {
	unlock := s.lock(p.Login)
	defer unlock()

	if _, err := s.EnsurePilot(ctx, p.Login); err != nil {
		return err
	}
	return s.DB.WithContext(ctx).
		Model(&models.Pilot{}).
		Where("login = ?", p.Login).
		Updates(map[string]interface{}{
			"first_name": p.FirstName,
			"last_name":  p.LastName,
			"role":       p.Role,
		}).Error
}

// SearchPilots matches login or name, for admin tooling.
func (s *ProgressionService) SearchPilots(ctx context.Context, query string, limit int) ([]models.Pilot, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	db := s.DB.WithContext(ctx).Model(&models.Pilot{}).Order("login ASC").Limit(limit)
	if query = strings.TrimSpace(query); query != "" {
		term := "%" + strings.ToLower(query) + "%"
		db = db.Where(
			"LOWER(login) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?",
			term, term, term,
		)
	}
	var pilots []models.Pilot
	if err := db.Find(&pilots).Error; err != nil {
		return nil, err
	}
	return pilots, nil
}
