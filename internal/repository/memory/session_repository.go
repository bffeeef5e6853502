package memory

import (
	"time"

	"github.com/patrickmn/go-cache"

	"docchat-be/internal/entity"
)

// SessionRepository keeps chat sessions in an expiring in-memory cache.
// Sessions are ephemeral conversational state, not persistence.
type SessionRepository struct {
	cache *cache.Cache
}

func NewSessionRepository(ttl time.Duration) *SessionRepository {
	// Purge expired sessions every 10 minutes
	c := cache.New(ttl, 10*time.Minute)
	return &SessionRepository{
		cache: c,
	}
}

func (r *SessionRepository) Save(session *entity.ChatSession) {
	r.cache.Set(session.Id.String(), session, cache.DefaultExpiration)
}

func (r *SessionRepository) Get(sessionId string) (*entity.ChatSession, bool) {
	if x, found := r.cache.Get(sessionId); found {
		return x.(*entity.ChatSession), true
	}
	return nil, false
}

func (r *SessionRepository) Delete(sessionId string) {
	r.cache.Delete(sessionId)
}
