package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/loanpro/lending-system/internal/core/domain"
)

const collectionNotifications = "notifications"

// NotificationRepository implements ports.NotificationOutbox using MongoDB.
// Documents are inserted unsent; the external mailer marks them after delivery.
type NotificationRepository struct {
	col *mongo.Collection
}

func NewNotificationRepository(db *mongo.Database) *NotificationRepository {
	return &NotificationRepository{col: db.Collection(collectionNotifications)}
}

func (r *NotificationRepository) Enqueue(ctx context.Context, n *domain.StatusNotification) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := bson.M{
		"application_id": n.ApplicationID,
		"email":          n.Email,
		"old_status":     string(n.OldStatus),
		"new_status":     string(n.NewStatus),
		"comment":        n.Comment,
		"occurred_at":    n.OccurredAt.UTC(),
		"created_at":     time.Now().UTC(),
		"sent":           false,
	}

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}
