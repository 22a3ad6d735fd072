package cache

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// memoryClient implementa Client sobre go-cache. El janitor propio de
// go-cache queda deshabilitado: el barrido corre en una goroutine nuestra
// con apagado explícito en Close, para que el ciclo de vida sea observable
// y no dependa del recolector.
type memoryClient struct {
	prefix string
	ttl    time.Duration

	// go-cache es thread-safe entrada por entrada, pero Take necesita
	// get-and-delete atómico: el mutex serializa Take contra Set/Delete
	// para que un Set concurrente nunca se pierda en el medio.
	mu sync.Mutex
	c  *gocache.Cache

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewMemory crea un cliente de cache en memoria y arranca su sweeper.
func NewMemory(cfg Config) *memoryClient {
	ttl := cfg.DefaultTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	sweep := cfg.SweepInterval
	if sweep <= 0 {
		sweep = 5 * time.Minute
	}
	m := &memoryClient{
		prefix: cfg.Prefix,
		ttl:    ttl,
		c:      gocache.New(ttl, 0), // sin janitor interno
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go m.sweeper(sweep)
	return m
}

// sweeper barre entradas vencidas a intervalo fijo hasta que Close lo pare,
// acotando memoria aunque nadie lea.
func (m *memoryClient) sweeper(every time.Duration) {
	defer close(m.done)
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-m.stop:
			return
		case <-t.C:
			m.c.DeleteExpired()
		}
	}
}

func (m *memoryClient) key(k string) string {
	if m.prefix == "" {
		return k
	}
	return m.prefix + ":" + k
}

func (m *memoryClient) Get(ctx context.Context, key string) ([]byte, error) {
	v, ok := m.c.Get(m.key(key))
	if !ok {
		return nil, ErrNotFound
	}
	b, _ := v.([]byte)
	return b, nil
}

func (m *memoryClient) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = m.ttl
	}
	m.mu.Lock()
	m.c.Set(m.key(key), value, ttl)
	m.mu.Unlock()
	return nil
}

func (m *memoryClient) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	m.c.Delete(m.key(key))
	m.mu.Unlock()
	return nil
}

func (m *memoryClient) Take(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := m.key(key)
	v, ok := m.c.Get(k)
	if !ok {
		return nil, ErrNotFound
	}
	m.c.Delete(k)
	b, _ := v.([]byte)
	return b, nil
}

func (m *memoryClient) Ping(ctx context.Context) error { return nil }

// Close detiene el sweeper y espera a que termine. Idempotente.
func (m *memoryClient) Close() error {
	m.stopOnce.Do(func() { close(m.stop) })
	<-m.done
	m.c.Flush()
	return nil
}

// Sweep fuerza una pasada del sweeper. Expuesto para tests.
func (m *memoryClient) Sweep() {
	m.c.DeleteExpired()
}
