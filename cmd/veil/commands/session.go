package commands

import (
	"context"
	"fmt"

	"github.com/dyluth/veil/internal/activation"
	"github.com/dyluth/veil/internal/config"
	"github.com/dyluth/veil/internal/printer"
	"github.com/dyluth/veil/pkg/identity"
	"github.com/dyluth/veil/pkg/presence"
	"github.com/dyluth/veil/pkg/redact"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Activation modes accepted by --activation.
const (
	activationAlways = "always"
	activationLink   = "link"
	activationNever  = "never"
)

// session bundles what a command needs to talk to one collaboration session.
type session struct {
	cfg      *config.VeilConfig
	store    *presence.RedisStore
	registry *identity.Registry
	active   bool
}

func (s *session) Close() error {
	return s.store.Close()
}

// collection returns the interceptor when redaction is active and the raw
// store otherwise.
func (s *session) collection() (presence.Collection, *redact.Interceptor, error) {
	if !s.active {
		return s.store, nil, nil
	}
	ic, err := redact.New(s.store, s.registry, s.cfg.Policy())
	if err != nil {
		return nil, nil, err
	}
	return ic, ic, nil
}

// decideActivation maps --activation and --url to an activation decision.
func decideActivation(mode, sessionURL string) (activation.Decision, error) {
	switch mode {
	case activationAlways:
		return activation.Decide(sessionURL, true)
	case activationLink:
		return activation.Decide(sessionURL, false)
	case activationNever:
		return activation.Decision{Reason: activation.ReasonInactive}, nil
	default:
		return activation.Decision{}, fmt.Errorf("invalid --activation %q (must be 'always', 'link' or 'never')", mode)
	}
}

// loadConfig reads --config, falling back to defaults when it does not exist.
func loadConfig() (*config.VeilConfig, error) {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, printer.Error(
			"invalid configuration",
			err.Error(),
			[]string{fmt.Sprintf("Fix %s, or regenerate it with:\n  veil init --force", configPath)},
		)
	}
	return cfg, nil
}

// sessionOrConfig returns --session if set, else the configured session.
func sessionOrConfig(cfg *config.VeilConfig) string {
	if sessionName != "" {
		return sessionName
	}
	return cfg.Session
}

// openSession loads configuration, connects to the hub and builds a fresh
// registry. A room link in the decision supplies the session name when none
// is configured explicitly.
func openSession(ctx context.Context, decision activation.Decision) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	name := sessionOrConfig(cfg)
	if sessionName == "" && decision.RoomID != "" {
		name = decision.RoomID
	}

	url := redisURL
	if url == "" {
		url = cfg.ResolveRedisURL()
	}
	if url == "" {
		return nil, printer.Error(
			"no presence hub configured",
			"Veil needs a Redis URL to reach the session's shared presence store.",
			[]string{
				"Start a local hub and use the printed URL:\n  veil up",
				fmt.Sprintf("Pass one explicitly:\n  veil --redis-url redis://localhost:6379 ...\n  or set %s", config.EnvRedisURL),
			},
		)
	}

	redisOpts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}

	store, err := presence.NewRedisStore(redisOpts, name)
	if err != nil {
		return nil, err
	}
	if err := store.Ping(ctx); err != nil {
		store.Close()
		return nil, printer.ErrorWithContext(
			"presence hub not reachable",
			err.Error(),
			map[string]string{"Redis": url, "Session": name},
			[]string{"Check the hub is running:\n  veil hubs"},
		)
	}

	registry, err := identity.NewRegistry(cfg.RegistryOptions())
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("invalid pseudonym settings: %w", err)
	}

	log.WithFields(log.Fields{
		"session":    name,
		"active":     decision.Active,
		"activation": decision.Reason,
	}).Debug("session opened")

	return &session{cfg: cfg, store: store, registry: registry, active: decision.Active}, nil
}
