package repository

import (
	"context"
	"fmt"

	"github.com/studyplan/srs-backend/internal/models"
)

func (r *Postgres) GetTopic(ctx context.Context, topicID int64) (*models.StudyTopic, error) {
	query := `
		SELECT id, user_id, title, created_at
		FROM study_topics
		WHERE id = $1
	`

	var topic models.StudyTopic
	err := r.GetContext(ctx, &topic, query, topicID)
	if err == ErrNoRows {
		return nil, ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("get topic (topic_id: %d): %w", topicID, err)
	}

	return &topic, nil
}
