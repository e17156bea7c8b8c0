package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"platChallengesAPI/internal/achievement"
	"platChallengesAPI/internal/challenge"
	"platChallengesAPI/internal/logger"
	"platChallengesAPI/internal/notification"
)

// CompletedCounter counts a profile's completed challenges of one type.
type CompletedCounter interface {
	CompletedChallengeCount(ctx context.Context, profileID uuid.UUID, typ challenge.Type) (int, error)
}

type MilestoneService struct {
	db            *pgxpool.Pool
	challenges    CompletedCounter
	notifications *NotificationService
	log           *logger.Logger
}

func NewMilestoneService(db *pgxpool.Pool, challenges CompletedCounter, notifications *NotificationService, log *logger.Logger) *MilestoneService {
	return &MilestoneService{
		db:            db,
		challenges:    challenges,
		notifications: notifications,
		log:           log.With("service", "MilestoneService"),
	}
}

// EvaluateChallengeMilestones unlocks the achievements the profile has reached
// for typ. Unlocking is idempotent.
func (s *MilestoneService) EvaluateChallengeMilestones(ctx context.Context, profileID uuid.UUID, typ challenge.Type) error {
	completed, err := s.challenges.CompletedChallengeCount(ctx, profileID, typ)
	if err != nil {
		return fmt.Errorf("failed to evaluate %s milestones: %w", typ, err)
	}
	if err := s.unlockReached(ctx, profileID, achievement.ChallengeCriteria(typ), completed); err != nil {
		return err
	}

	if typ != challenge.TypeDay {
		return nil
	}
	var filled int
	err = s.db.QueryRow(ctx, `
		SELECT COALESCE(MAX(filled_count), 0) FROM challenges
		WHERE profile_id = $1 AND type = 'day' AND NOT is_deleted
	`, profileID).Scan(&filled)
	if err != nil {
		return fmt.Errorf("failed to count filled days: %w", err)
	}
	return s.unlockReached(ctx, profileID, achievement.CriteriaCalendarDaysFilled, filled)
}

// GetAchievements lists every achievement with the caller's unlock state.
func (s *MilestoneService) GetAchievements(ctx context.Context, clerkID string) ([]*achievement.AchievementWithStatus, error) {
	rows, err := s.db.Query(ctx, `
		SELECT a.id, a.name, a.description, a.icon, a.criteria_type, a.criteria_value, a.created_at,
		       pa.unlocked_at
		FROM achievements a
		CROSS JOIN (SELECT id FROM profiles WHERE clerk_id = $1) p
		LEFT JOIN profile_achievements pa ON pa.achievement_id = a.id AND pa.profile_id = p.id
		ORDER BY a.criteria_type, a.criteria_value
	`, clerkID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch achievements: %w", err)
	}
	defer rows.Close()

	achievements := []*achievement.AchievementWithStatus{}
	for rows.Next() {
		a := &achievement.AchievementWithStatus{}
		if err := rows.Scan(
			&a.ID, &a.Name, &a.Description, &a.Icon, &a.CriteriaType, &a.CriteriaValue, &a.CreatedAt,
			&a.UnlockedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan achievement: %w", err)
		}
		a.Unlocked = a.UnlockedAt != nil
		achievements = append(achievements, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read achievements: %w", err)
	}
	if len(achievements) == 0 {
		// Either no achievements are seeded or the profile is unknown.
		var exists bool
		if err := s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM profiles WHERE clerk_id = $1)`, clerkID).Scan(&exists); err != nil {
			return nil, fmt.Errorf("failed to resolve profile: %w", err)
		}
		if !exists {
			return nil, ErrProfileNotFound
		}
	}
	return achievements, nil
}

func (s *MilestoneService) unlockReached(ctx context.Context, profileID uuid.UUID, criteria achievement.CriteriaType, progress int) error {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, description, icon, criteria_type, criteria_value, created_at
		FROM achievements
		WHERE criteria_type = $1
		ORDER BY criteria_value ASC
	`, criteria)
	if err != nil {
		return fmt.Errorf("failed to fetch achievements: %w", err)
	}
	defer rows.Close()

	var reached []*achievement.Achievement
	for rows.Next() {
		a := &achievement.Achievement{}
		if err := rows.Scan(&a.ID, &a.Name, &a.Description, &a.Icon, &a.CriteriaType, &a.CriteriaValue, &a.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan achievement: %w", err)
		}
		if a.Reached(progress) {
			reached = append(reached, a)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read achievements: %w", err)
	}

	for _, a := range reached {
		tag, err := s.db.Exec(ctx, `
			INSERT INTO profile_achievements (profile_id, achievement_id)
			VALUES ($1, $2)
			ON CONFLICT (profile_id, achievement_id) DO NOTHING
		`, profileID, a.ID)
		if err != nil {
			return fmt.Errorf("failed to unlock achievement: %w", err)
		}
		if tag.RowsAffected() == 0 {
			continue
		}

		s.log.Info("Achievement unlocked", "profile_id", profileID, "achievement", a.Name)
		if s.notifications == nil {
			continue
		}
		_, err = s.notifications.CreateNotification(ctx, &notification.CreateNotificationRequest{
			ProfileID: profileID,
			Type:      notification.NotificationAchievement,
			Title:     "Achievement unlocked",
			Message:   a.Name,
			Data:      map[string]any{"achievement_id": a.ID.String(), "icon": a.Icon},
		})
		if err != nil {
			s.log.Warn("Failed to record achievement notification", "profile_id", profileID, "error", err)
		}
	}
	return nil
}
