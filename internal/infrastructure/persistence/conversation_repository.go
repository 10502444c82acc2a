package persistence

import (
	"context"
	"slices"

	"github.com/coretrack/backend/internal/domain/assistant"
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/coretrack/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormConversationRepository implements assistant.ConversationRepository using GORM
type GormConversationRepository struct {
	db *gorm.DB
}

// NewGormConversationRepository creates a new GormConversationRepository
func NewGormConversationRepository(db *gorm.DB) *GormConversationRepository {
	return &GormConversationRepository{db: db}
}

var _ assistant.ConversationRepository = (*GormConversationRepository)(nil)

// FindByID finds a conversation within a tenant
func (r *GormConversationRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*assistant.Conversation, error) {
	var model models.ConversationModel
	if err := first(dbFrom(ctx, r.db).Where("tenant_id = ? AND id = ?", tenantID, id), &model); err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByUser lists the conversations of a user, most recently active first by default
func (r *GormConversationRepository) FindByUser(ctx context.Context, tenantID, userID uuid.UUID, filter shared.Filter) ([]assistant.Conversation, int64, error) {
	where := func(q *gorm.DB) *gorm.DB {
		return q.Where("tenant_id = ? AND user_id = ?", tenantID, userID)
	}

	var rows []models.ConversationModel
	total, err := findPage(dbFrom(ctx, r.db), &models.ConversationModel{}, where, filter, ConversationSortFields, "updated_at", &rows)
	if err != nil {
		return nil, 0, err
	}
	conversations := make([]assistant.Conversation, len(rows))
	for i := range rows {
		conversations[i] = *rows[i].ToDomain()
	}
	return conversations, total, nil
}

// Save creates or updates a conversation
func (r *GormConversationRepository) Save(ctx context.Context, c *assistant.Conversation) error {
	return saveVersioned(dbFrom(ctx, r.db), c, func() any {
		return models.ConversationModelFromDomain(c)
	}, tenantScope(c.TenantID))
}

// AppendMessages stores messages in the given order
func (r *GormConversationRepository) AppendMessages(ctx context.Context, msgs ...*assistant.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	rows := make([]*models.MessageModel, len(msgs))
	for i, m := range msgs {
		rows[i] = models.MessageModelFromDomain(m)
	}
	return translateError(dbFrom(ctx, r.db).Create(&rows).Error)
}

// Messages returns the latest limit messages in chronological order
func (r *GormConversationRepository) Messages(ctx context.Context, tenantID, conversationID uuid.UUID, limit int) ([]assistant.Message, error) {
	query := dbFrom(ctx, r.db).
		Where("tenant_id = ? AND conversation_id = ?", tenantID, conversationID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []models.MessageModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	slices.Reverse(rows)
	messages := make([]assistant.Message, len(rows))
	for i := range rows {
		messages[i] = *rows[i].ToDomain()
	}
	return messages, nil
}
