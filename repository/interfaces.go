// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/xplorebytesolutions/growmycustomer-campaigns/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
}

// RetargetSubmissionRepository defines operations for retarget submissions
type RetargetSubmissionRepository interface {
	Repository[models.RetargetSubmission, models.RetargetSubmissionFilter]
	ByUUID(ctx context.Context, submissionUUID uuid.UUID) (*models.RetargetSubmission, error)
	ListBySourceCampaign(ctx context.Context, campaignID string, limit, offset int) ([]*models.RetargetSubmission, error)
	CountBySourceCampaign(ctx context.Context, campaignID string) (int64, error)
}

// AuditLogRepository defines operations for audit logs
type AuditLogRepository interface {
	Repository[models.AuditLog, models.AuditLogFilter]
	ListByCampaign(ctx context.Context, campaignID string, limit, offset int) ([]*models.AuditLog, error)
	ListByAction(ctx context.Context, action string, limit, offset int) ([]*models.AuditLog, error)
	ListFailedActions(ctx context.Context, limit, offset int) ([]*models.AuditLog, error)
}
