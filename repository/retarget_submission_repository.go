// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/xplorebytesolutions/growmycustomer-campaigns/models"
	"gorm.io/gorm"
)

// RetargetSubmissionRepositoryImpl implements RetargetSubmissionRepository interface
type RetargetSubmissionRepositoryImpl struct {
	*BaseRepository[models.RetargetSubmission, models.RetargetSubmissionFilter]
}

// NewRetargetSubmissionRepository creates a new retarget submission repository
func NewRetargetSubmissionRepository(db *gorm.DB) RetargetSubmissionRepository {
	return &RetargetSubmissionRepositoryImpl{
		BaseRepository: NewBaseRepository[models.RetargetSubmission, models.RetargetSubmissionFilter](db),
	}
}

// ByUUID retrieves a submission by its public UUID
func (r *RetargetSubmissionRepositoryImpl) ByUUID(ctx context.Context, submissionUUID uuid.UUID) (*models.RetargetSubmission, error) {
	db := r.getDB(ctx)

	var submission models.RetargetSubmission
	err := db.Where("uuid = ?", submissionUUID).First(&submission).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find submission by UUID %s: %w", submissionUUID, err)
	}

	return &submission, nil
}

// ListBySourceCampaign retrieves submissions created from a source campaign with pagination
func (r *RetargetSubmissionRepositoryImpl) ListBySourceCampaign(ctx context.Context, campaignID string, limit, offset int) ([]*models.RetargetSubmission, error) {
	db := r.getDB(ctx)

	var submissions []*models.RetargetSubmission
	err := db.Where("source_campaign_id = ?", campaignID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&submissions).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list submissions by source campaign: %w", err)
	}

	return submissions, nil
}

// CountBySourceCampaign counts submissions created from a source campaign
func (r *RetargetSubmissionRepositoryImpl) CountBySourceCampaign(ctx context.Context, campaignID string) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	err := db.Model(&models.RetargetSubmission{}).
		Where("source_campaign_id = ?", campaignID).
		Count(&count).Error

	if err != nil {
		return 0, fmt.Errorf("failed to count submissions by source campaign: %w", err)
	}

	return count, nil
}
