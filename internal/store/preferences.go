package store

import (
	"context"

	"jobgate-appointment-api/internal/model"
)

// Preferences returns the user's preferences, creating the default row on
// first access.
func (s *Store) Preferences(ctx context.Context, userID string) (*model.UserPreferences, error) {
	d := model.DefaultPreferences(userID)
	if _, err := s.pool.Exec(ctx,
		`INSERT INTO user_preferences (user_id, email_reminders_enabled, reminder_24h_enabled,
		        reminder_1h_enabled, preferred_meeting_type, timezone, language, notification_preferences)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		 ON CONFLICT (user_id) DO NOTHING`,
		userID, d.EmailRemindersEnabled, d.Reminder24hEnabled, d.Reminder1hEnabled,
		d.PreferredMeetingType, d.Timezone, d.Language, d.NotificationPreferences,
	); err != nil {
		return nil, wrap("create preferences", err)
	}

	p := &model.UserPreferences{}
	err := s.pool.QueryRow(ctx,
		`SELECT user_id, email_reminders_enabled, reminder_24h_enabled, reminder_1h_enabled,
		        preferred_meeting_type, timezone, language, notification_preferences,
		        created_at, updated_at
		 FROM user_preferences WHERE user_id = $1`, userID,
	).Scan(&p.UserID, &p.EmailRemindersEnabled, &p.Reminder24hEnabled, &p.Reminder1hEnabled,
		&p.PreferredMeetingType, &p.Timezone, &p.Language, &p.NotificationPreferences,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, wrap("preferences", err)
	}
	if p.NotificationPreferences == nil {
		p.NotificationPreferences = map[string]any{}
	}
	return p, nil
}

func (s *Store) UpdatePreferences(ctx context.Context, p *model.UserPreferences) error {
	if p.NotificationPreferences == nil {
		p.NotificationPreferences = map[string]any{}
	}
	err := s.pool.QueryRow(ctx,
		`UPDATE user_preferences
		 SET email_reminders_enabled=$1, reminder_24h_enabled=$2, reminder_1h_enabled=$3,
		     preferred_meeting_type=$4, timezone=$5, language=$6, notification_preferences=$7,
		     updated_at=NOW()
		 WHERE user_id=$8
		 RETURNING updated_at`,
		p.EmailRemindersEnabled, p.Reminder24hEnabled, p.Reminder1hEnabled,
		p.PreferredMeetingType, p.Timezone, p.Language, p.NotificationPreferences, p.UserID,
	).Scan(&p.UpdatedAt)
	return wrap("update preferences", err)
}
