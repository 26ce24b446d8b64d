package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/rentcard-app/rentcard_backend/models"
)

// SharingHistoryRepo is the append-only audit log storage.
type SharingHistoryRepo interface {
	Insert(ctx context.Context, record *models.SharingHistoryRecord) error
	ListByTenant(ctx context.Context, tenantID primitive.ObjectID) ([]models.SharingHistoryRecord, error)
}

// SharingHistoryService records outbound share actions for audit and dedup.
// Pure append; nothing in the core ever reads these back for decisions.
type SharingHistoryService struct {
	history SharingHistoryRepo
	tokens  ShareTokenRepo
}

func NewSharingHistoryService(history SharingHistoryRepo, tokens ShareTokenRepo) *SharingHistoryService {
	return &SharingHistoryService{history: history, tokens: tokens}
}

// Record appends one share action. Validation stops at referential
// existence of the share token; the method recorded is the channel actually
// used, fallbacks included.
func (s *SharingHistoryService) Record(ctx context.Context, tenantID, contactID, shareTokenID primitive.ObjectID, templateID *primitive.ObjectID, messageUsed string, method models.ChannelType) (*models.SharingHistoryRecord, error) {
	token, err := s.tokens.FindByID(ctx, shareTokenID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{Resource: "share token"}
		}
		return nil, err
	}
	if token.TenantID != tenantID {
		return nil, &ForbiddenError{Message: "you do not own this share token"}
	}

	record := &models.SharingHistoryRecord{
		CorrelationID: uuid.NewString(),
		TenantID:      tenantID,
		ContactID:     contactID,
		ShareTokenID:  shareTokenID,
		TemplateID:    templateID,
		MessageUsed:   messageUsed,
		Method:        method,
		CreatedAt:     time.Now(),
	}
	if err := s.history.Insert(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// ListByTenant returns the tenant's audit trail, newest first.
func (s *SharingHistoryService) ListByTenant(ctx context.Context, tenantID primitive.ObjectID) ([]models.SharingHistoryRecord, error) {
	return s.history.ListByTenant(ctx, tenantID)
}
