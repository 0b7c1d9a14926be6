// File: services/audit/audit.go
package audit

import (
	"context"
	"time"

	"dentaflow/models"
	"dentaflow/utils"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Recorder persists an audit trail of scheduling actions. Recording is
// fire-and-forget: a failed write is logged, never surfaced to the patient
// flow.
type Recorder interface {
	Record(ctx context.Context, rec models.AuditRecord)
}

// MongoRecorder appends audit records to a Mongo collection.
type MongoRecorder struct {
	coll *mongo.Collection
}

func NewMongoRecorder(coll *mongo.Collection) *MongoRecorder {
	return &MongoRecorder{coll: coll}
}

func (r *MongoRecorder) Record(ctx context.Context, rec models.AuditRecord) {
	if rec.At.IsZero() {
		rec.At = time.Now()
	}
	insertCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if _, err := r.coll.InsertOne(insertCtx, rec); err != nil {
		utils.GetLogger().Warn("audit record dropped",
			zap.String("action", rec.Action), zap.String("phone", rec.Phone), zap.Error(err))
	}
}

// Nop discards records. Used in tests and when no database is configured.
type Nop struct{}

func (Nop) Record(ctx context.Context, rec models.AuditRecord) {}
