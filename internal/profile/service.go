package profile

import (
	"context"

	"github.com/vxvxzs/RaceSpace/internal/db"
)

type Service struct {
	db db.Querier
}

func NewService(q db.Querier) *Service {
	return &Service{db: q}
}

func (s *Service) Get(ctx context.Context, userID string) (Profile, error) {
	var p Profile
	row := s.db.QueryRow(ctx, `
		SELECT id, email, username, full_name, avatar_url, created_at
		FROM users WHERE id=$1
	`, userID)
	if err := row.Scan(&p.ID, &p.Email, &p.Username, &p.FullName, &p.AvatarURL, &p.CreatedAt); err != nil {
		return Profile{}, err
	}

	row = s.db.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(MIN(lap_seconds),0), COALESCE(MAX(top_speed),0)
		FROM analyses WHERE user_id=$1
	`, userID)
	if err := row.Scan(&p.Stats.Analyses, &p.Stats.BestLapSeconds, &p.Stats.TopSpeed); err != nil {
		return Profile{}, err
	}
	return p, nil
}

func (s *Service) Update(ctx context.Context, userID string, patch UpdateRequest) (Profile, error) {
	_, err := s.db.Exec(ctx, `
		UPDATE users
		SET full_name = COALESCE(NULLIF($2,''), full_name),
		    avatar_url = COALESCE(NULLIF($3,''), avatar_url),
		    updated_at = NOW()
		WHERE id=$1
	`, userID, patch.FullName, patch.AvatarURL)
	if err != nil {
		return Profile{}, err
	}
	return s.Get(ctx, userID)
}
