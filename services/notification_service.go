package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"platChallengesAPI/internal/challenge"
	"platChallengesAPI/internal/notification"
)

// NotificationService records in-app notifications. Delivery to devices is
// handled elsewhere.
type NotificationService struct {
	db *pgxpool.Pool
}

func NewNotificationService(db *pgxpool.Pool) *NotificationService {
	return &NotificationService{db: db}
}

func (s *NotificationService) CreateNotification(ctx context.Context, req *notification.CreateNotificationRequest) (*notification.Notification, error) {
	dataJSON, err := json.Marshal(req.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode notification data: %w", err)
	}

	query := `
		INSERT INTO notifications (profile_id, type, title, message, data)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, profile_id, type, title, message, is_read, created_at
	`

	notif := &notification.Notification{Data: req.Data}
	err = s.db.QueryRow(ctx, query, req.ProfileID, req.Type, req.Title, req.Message, dataJSON).Scan(
		&notif.ID, &notif.ProfileID, &notif.Type, &notif.Title, &notif.Message, &notif.IsRead, &notif.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	return notif, nil
}

// GetNotifications pages through the caller's notifications, newest first.
func (s *NotificationService) GetNotifications(ctx context.Context, clerkID string, page, pageSize int, unreadOnly bool) (*notification.NotificationListResponse, error) {
	profileID, err := s.profileID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	offset := (page - 1) * pageSize
	rows, err := s.db.Query(ctx, `
		SELECT id, profile_id, type, title, message, data, is_read, created_at
		FROM notifications
		WHERE profile_id = $1 AND (NOT $2 OR NOT is_read)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`, profileID, unreadOnly, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch notifications: %w", err)
	}
	defer rows.Close()

	notifications := []*notification.Notification{}
	for rows.Next() {
		notif := &notification.Notification{}
		if err := rows.Scan(
			&notif.ID, &notif.ProfileID, &notif.Type, &notif.Title,
			&notif.Message, &notif.Data, &notif.IsRead, &notif.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, notif)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read notifications: %w", err)
	}

	resp := &notification.NotificationListResponse{
		Notifications: notifications,
		Page:          page,
		PageSize:      pageSize,
	}
	err = s.db.QueryRow(ctx, `
		SELECT COUNT(*) FILTER (WHERE NOT is_read), COUNT(*)
		FROM notifications
		WHERE profile_id = $1
	`, profileID).Scan(&resp.UnreadCount, &resp.TotalCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count notifications: %w", err)
	}
	return resp, nil
}

func (s *NotificationService) GetUnreadCount(ctx context.Context, clerkID string) (int, error) {
	var count int
	err := s.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM notifications n
		JOIN profiles p ON p.id = n.profile_id
		WHERE p.clerk_id = $1 AND NOT n.is_read
	`, clerkID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get unread count: %w", err)
	}
	return count, nil
}

// MarkAsRead marks one of the caller's notifications read. Notifications of
// other profiles are reported as not found.
func (s *NotificationService) MarkAsRead(ctx context.Context, notificationID uuid.UUID, clerkID string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE notifications n
		SET is_read = TRUE
		FROM profiles p
		WHERE n.id = $1 AND p.id = n.profile_id AND p.clerk_id = $2
	`, notificationID, clerkID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, clerkID string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE notifications n
		SET is_read = TRUE
		FROM profiles p
		WHERE p.id = n.profile_id AND p.clerk_id = $1 AND NOT n.is_read
	`, clerkID)
	if err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}

func (s *NotificationService) profileID(ctx context.Context, clerkID string) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM profiles WHERE clerk_id = $1`, clerkID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, ErrProfileNotFound
		}
		return uuid.Nil, fmt.Errorf("failed to resolve profile: %w", err)
	}
	return id, nil
}

// ChallengeCompleted records the completion event of ch.
func (s *NotificationService) ChallengeCompleted(ctx context.Context, ch *challenge.Challenge) error {
	_, err := s.CreateNotification(ctx, completionRequest(ch))
	return err
}

func completionRequest(ch *challenge.Challenge) *notification.CreateNotificationRequest {
	data := map[string]any{
		"challenge_id": ch.ID.String(),
		"type":         string(ch.Type),
		"name":         ch.Name,
		"total_items":  ch.TotalItems,
	}
	if ch.CompletedAt != nil {
		data["completed_at"] = ch.CompletedAt
	}
	return &notification.CreateNotificationRequest{
		ProfileID: ch.ProfileID,
		Type:      notification.NotificationChallengeCompleted,
		Title:     "Challenge complete!",
		Message:   fmt.Sprintf("You finished %s: all %d done.", ch.Name, ch.TotalItems),
		Data:      data,
	}
}
