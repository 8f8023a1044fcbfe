package persistence

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"social-hub/domain/model"
	"social-hub/infrastructure/logger"
)

// AuditRepository appends publish outcomes to Mongo. A nil client disables
// auditing without affecting the publish path.
type AuditRepository struct {
	collection *mongo.Collection
}

func NewAuditRepository(client *mongo.Client, database string) *AuditRepository {
	if client == nil {
		return &AuditRepository{}
	}
	return &AuditRepository{collection: client.Database(database).Collection("publish_audits")}
}

func (r *AuditRepository) Append(ctx context.Context, audit *model.PublishAudit) error {
	if r.collection == nil {
		return nil
	}
	if audit.CreatedAt.IsZero() {
		audit.CreatedAt = time.Now().UTC()
	}
	if _, err := r.collection.InsertOne(ctx, audit); err != nil {
		logger.GetLogger().WithField("post_id", audit.PostID).WithError(err).Error("failed to append publish audit")
		return err
	}
	return nil
}
