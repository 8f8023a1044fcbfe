package repository

import (
	"context"

	"social-hub/domain/model"
)

// IEventPublisher broadcasts terminal post-status changes to interested
// systems. Implementations must tolerate missing transports.
type IEventPublisher interface {
	PublishStatus(ctx context.Context, event *model.PostStatusEvent) error
}

// IAuditTrail appends publish outcomes to an append-only log.
type IAuditTrail interface {
	Append(ctx context.Context, entry *model.PublishAudit) error
}
