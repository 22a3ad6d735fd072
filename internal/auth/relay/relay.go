// Package relay puentea flujos OAuth cuyo callback corre en otro contexto
// del browser (popup/tab). La ventana original hace polling por poll id; el
// callback deposita su resultado acá. Storage volátil a propósito: solo
// cubre un login en vuelo, perderlo en un restart es aceptable.
package relay

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dropDatabas3/plazita/internal/cache"
	"github.com/dropDatabas3/plazita/internal/observability/logger"
	tokens "github.com/dropDatabas3/plazita/internal/security/token"
	"github.com/dropDatabas3/plazita/internal/store/core"
)

const keyPrefix = "relay:poll:"

// Result es lo que la ventana callback deposita para la ventana original.
type Result struct {
	Success   bool       `json:"success"`
	SessionID string     `json:"session_id,omitempty"`
	User      *core.User `json:"user,omitempty"`
	Message   string     `json:"message,omitempty"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Store es el poll cache read-once. El barrido de vencidos corre en el
// janitor del cache, independiente de las lecturas, acotando memoria
// aunque la ventana original nunca haga poll (ej: tab cerrada).
type Store struct {
	cache cache.Client
	ttl   time.Duration
	now   func() time.Time
}

func New(c cache.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Store{cache: c, ttl: ttl, now: time.Now}
}

// GeneratePollID emite un poll id nuevo con su vencimiento. El registro en
// sí recién existe cuando el callback llama Put.
func (s *Store) GeneratePollID() (string, time.Time, error) {
	id, err := tokens.GenerateToken()
	if err != nil {
		return "", time.Time{}, err
	}
	return id, s.now().Add(s.ttl), nil
}

// Put deposita el resultado del callback bajo pollID.
func (s *Store) Put(ctx context.Context, pollID string, res Result) error {
	if res.CreatedAt.IsZero() {
		res.CreatedAt = s.now()
	}
	buf, err := json.Marshal(res)
	if err != nil {
		return err
	}
	if err := s.cache.Set(ctx, keyPrefix+pollID, buf, s.ttl); err != nil {
		return err
	}
	logger.From(ctx).Debug("relay result stored", logger.PollID(pollID))
	return nil
}

// Get retorna el resultado y lo borra (read-once): un segundo poller nunca
// puede reproducir un resultado viejo. (nil, nil) significa pending.
func (s *Store) Get(ctx context.Context, pollID string) (*Result, error) {
	if !tokens.IsToken(pollID) {
		return nil, nil
	}
	buf, err := s.cache.Take(ctx, keyPrefix+pollID)
	if err != nil {
		if cache.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	var res Result
	if err := json.Unmarshal(buf, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Close detiene el backend del cache (y su janitor).
func (s *Store) Close() error { return s.cache.Close() }

// SetNowForTests reemplaza el reloj del store.
func (s *Store) SetNowForTests(now func() time.Time) { s.now = now }
