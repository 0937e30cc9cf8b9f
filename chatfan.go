// Package chatfan implements the core of a real-time channel-based chat
// fan-out layer: the bidirectional subscription index between sessions
// and channels, message ingestion, the fan-out engine that turns posts
// and membership changes into deliveries, and the reactor that derives
// additional fan-out from the backing store's change feed.
//
// The engine is stateless between invocations: all shared state lives in
// the injected store.KeyedStore, and every entry point may be invoked
// concurrently and redundantly for the same logical event.
//
// Layers & Roles
//
//	transport (wshub or other) -> session lifetime + inbound actions
//	Engine                     -> subscription index, ingest, fan-out, reactor
//	store.KeyedStore           -> durability + change feed
package chatfan

import (
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/joeshaw/envdecode"

	"github.com/chatfan/chatfan-go/sanitize"
	"github.com/chatfan/chatfan-go/store"
	"github.com/chatfan/chatfan-go/transport"
)

// DefaultChannelID is the channel every new session is auto-joined to
// unless configured otherwise.
const DefaultChannelID = "General"

// reactorSeenSize bounds the cache of recently handled change-record
// cursors used to suppress immediate feed redeliveries.
const reactorSeenSize = 4096

// Config holds the environment-driven engine settings. Defaults can be
// loaded via envdecode.
type Config struct {
	// DefaultChannelID names the auto-join channel. ENV: CHATFAN_DEFAULT_CHANNEL
	DefaultChannelID string `env:"CHATFAN_DEFAULT_CHANNEL,default=General"`
}

// Engine is the chat core. Construct with New; the zero value is not
// usable.
type Engine struct {
	store          store.KeyedStore
	pusher         transport.Pusher
	sanitizer      sanitize.Sanitizer
	log            *slog.Logger
	now            func() time.Time
	defaultChannel string

	// seen suppresses immediate redeliveries from the at-least-once feed.
	// Best effort only: every reaction stays idempotent regardless.
	seen *lru.Cache[string, struct{}]
}

// Option configures an Engine.
type Option func(*Engine)

// WithSanitizer replaces the default message-content sanitizer.
func WithSanitizer(s sanitize.Sanitizer) Option {
	return func(e *Engine) { e.sanitizer = s }
}

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithDefaultChannel sets the channel new sessions are auto-joined to.
func WithDefaultChannel(id string) Option {
	return func(e *Engine) { e.defaultChannel = id }
}

// WithClock overrides the time source used for message ids.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New builds an Engine over the given store and pusher.
func New(st store.KeyedStore, p transport.Pusher, opts ...Option) *Engine {
	e := &Engine{
		store:          st,
		pusher:         p,
		sanitizer:      sanitize.HTML(),
		log:            slog.Default(),
		now:            time.Now,
		defaultChannel: DefaultChannelID,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.seen, _ = lru.New[string, struct{}](reactorSeenSize)
	return e
}

// NewFromEnv builds an Engine with Config populated via envdecode.
// Explicit options win over the environment.
func NewFromEnv(st store.KeyedStore, p transport.Pusher, opts ...Option) *Engine {
	var cfg Config
	_ = envdecode.Decode(&cfg)
	if cfg.DefaultChannelID == "" {
		cfg.DefaultChannelID = DefaultChannelID
	}
	return New(st, p, append([]Option{WithDefaultChannel(cfg.DefaultChannelID)}, opts...)...)
}
