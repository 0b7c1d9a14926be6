// File: services/assistant/service.go
package assistant

import (
	"context"
	"sync"
	"time"

	"dentaflow/config"
	"dentaflow/models"
	"dentaflow/services/booking"
	"dentaflow/services/intelligence"
	"dentaflow/services/session"
	"dentaflow/utils"

	"go.uber.org/zap"
)

// Service is the single entry point for conversation turns. It enforces the
// per-conversation turn discipline: one in-flight turn per conversation id,
// exactly one session load and one save per turn, with the whole turn
// operating on the in-memory session value in between.
type Service struct {
	Store      session.Store
	Classifier *intelligence.ResilientClassifier
	Router     *booking.ActionRouter

	// CollaboratorTimeout bounds each AI call so a hung collaborator cannot
	// block the conversation's turn queue indefinitely.
	CollaboratorTimeout time.Duration

	turnLocks sync.Map // conversationID -> *sync.Mutex
}

func NewService(store session.Store, classifier *intelligence.ResilientClassifier, router *booking.ActionRouter) *Service {
	timeout := time.Duration(config.AppConfig.CollaboratorTimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Service{
		Store:               store,
		Classifier:          classifier,
		Router:              router,
		CollaboratorTimeout: timeout,
	}
}

func (s *Service) lockConversation(conversationID string) *sync.Mutex {
	mu, _ := s.turnLocks.LoadOrStore(conversationID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// HandleMessage processes one turn and returns the reply text. Turns for the
// same conversation are serialized; distinct conversations run concurrently.
func (s *Service) HandleMessage(ctx context.Context, conversationID, phone, text string, now time.Time) (string, error) {
	logger := utils.GetLogger()

	mu := s.lockConversation(conversationID)
	mu.Lock()
	defer mu.Unlock()

	sess, err := s.Store.Load(ctx, conversationID, phone, now)
	if err != nil {
		logger.Error("session load failed", zap.String("conversation", conversationID), zap.Error(err))
		return "", err
	}

	classifyCtx, cancel := context.WithTimeout(ctx, s.CollaboratorTimeout)
	out := s.Classifier.Classify(classifyCtx, text, sess.History)
	cancel()

	mergeEntities(sess, out.Entities)
	sess.Intents = intelligence.ResolveIntents(out.Intents, sess.Intents)

	reply := s.Router.Route(ctx, sess, text, now)

	sess.AppendHistory("patient", text, now)
	sess.AppendHistory("assistant", reply, now)
	sess.LastActivityAt = now

	if err := s.Store.Save(ctx, conversationID, sess); err != nil {
		// The reply already reflects committed calendar state; losing the
		// session write costs conversational context, not the booking.
		logger.Error("session save failed", zap.String("conversation", conversationID), zap.Error(err))
	}
	return reply, nil
}

// mergeEntities folds newly extracted details into the session. A detail the
// patient restates wins over what was remembered.
func mergeEntities(sess *models.Session, ent models.ClassifierEntities) {
	if ent.PatientName != "" {
		sess.PatientName = ent.PatientName
	}
	if ent.TreatmentType != "" {
		sess.TreatmentType = ent.TreatmentType
	}
	if ent.DentistName != "" {
		sess.DentistName = ent.DentistName
	}
}
