package taskauth

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// SecurityEvents is the append-only audit trail. Records are never updated or
// deleted through this interface.
type SecurityEvents interface {
	repository.Repository[*SecurityEventRecord]

	Append(ctx context.Context, event SecurityEvent) (*SecurityEventRecord, error)
	AppendTx(ctx context.Context, tx bun.IDB, event SecurityEvent) (*SecurityEventRecord, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*SecurityEventRecord, error)
}

type securityEvents struct {
	repository.Repository[*SecurityEventRecord]
	db *bun.DB
}

var _ SecurityEvents = (*securityEvents)(nil)

func NewSecurityEventsRepository(db *bun.DB) SecurityEvents {
	repo := repository.NewRepository[*SecurityEventRecord](db, repository.ModelHandlers[*SecurityEventRecord]{
		NewRecord: func() *SecurityEventRecord { return &SecurityEventRecord{} },
		GetID: func(r *SecurityEventRecord) uuid.UUID {
			if r == nil {
				return uuid.Nil
			}
			return r.ID
		},
		SetID: func(r *SecurityEventRecord, id uuid.UUID) {
			if r != nil {
				r.ID = id
			}
		},
	})

	return &securityEvents{
		Repository: repo,
		db:         db,
	}
}

func (a *securityEvents) Append(ctx context.Context, event SecurityEvent) (*SecurityEventRecord, error) {
	return a.AppendTx(ctx, a.db, event)
}

func (a *securityEvents) AppendTx(ctx context.Context, tx bun.IDB, event SecurityEvent) (*SecurityEventRecord, error) {
	record := recordFromSecurityEvent(event)
	return a.Repository.CreateTx(ctx, tx, record)
}

func (a *securityEvents) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*SecurityEventRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	records := []*SecurityEventRecord{}
	err := a.db.NewSelect().
		Model(&records).
		Where("?TableAlias.user_id = ?", userID).
		OrderExpr("?TableAlias.created_at DESC").
		Limit(limit).
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}

// recordFromSecurityEvent converts the in-memory event into its persisted
// shape. A subject that is not a UUID is kept in the details rather than
// dropped.
func recordFromSecurityEvent(event SecurityEvent) *SecurityEventRecord {
	record := &SecurityEventRecord{
		ID:        uuid.New(),
		EventType: string(event.EventType),
		Severity:  string(event.Severity),
		IPAddress: event.IPAddress,
		Details:   map[string]any{},
	}

	for k, v := range event.Details {
		record.Details[k] = v
	}

	if event.Email != "" {
		record.Details["email"] = event.Email
	}

	if event.UserID != "" {
		if id, err := uuid.Parse(event.UserID); err == nil {
			record.UserID = &id
		} else {
			record.Details["subject"] = event.UserID
		}
	}

	if !event.OccurredAt.IsZero() {
		at := event.OccurredAt
		record.CreatedAt = &at
	} else {
		now := time.Now()
		record.CreatedAt = &now
	}

	return record
}

// NewSecurityEventRecorder adapts the repository to the SecurityRecorder
// interface used by the authenticator.
func NewSecurityEventRecorder(repo SecurityEvents) SecurityRecorder {
	return SecurityRecorderFunc(func(ctx context.Context, event SecurityEvent) error {
		_, err := repo.Append(ctx, event)
		return err
	})
}
