package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/haven-social/sentinel/automod"
	"github.com/haven-social/sentinel/automod/escalation"
	"github.com/haven-social/sentinel/automod/platform"
	"github.com/haven-social/sentinel/automod/policycache"
	"github.com/haven-social/sentinel/automod/policystore"
	"github.com/haven-social/sentinel/automod/rules"
	"github.com/haven-social/sentinel/automod/windowstore"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Server struct {
	gatewayHost string
	logger      *slog.Logger
	engine      *automod.Engine
	store       policystore.PolicyStore
	rdb         *redis.Client
	lastSeq     int64

	// process-local stores that need periodic compaction; nil when redis is
	// carrying the windows
	memWindows     *windowstore.MemWindowStore
	memEscalations *escalation.MemTracker
}

type Config struct {
	GatewayHost      string
	PlatformHost     string
	PlatformToken    string
	RedisURL         string
	SlackWebhookURL  string
	RestrictDuration time.Duration
	Logger           *slog.Logger
}

func NewServer(db *gorm.DB, config Config) (*Server, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}

	gws := config.GatewayHost
	if !strings.HasPrefix(gws, "ws") {
		return nil, fmt.Errorf("specified gateway host must include 'ws://' or 'wss://'")
	}

	store, err := policystore.NewGormPolicyStore(db)
	if err != nil {
		return nil, fmt.Errorf("initializing policy store: %w", err)
	}

	var policies policycache.Provider
	var windows windowstore.WindowStore
	var rdb *redis.Client
	var memWindows *windowstore.MemWindowStore
	if config.RedisURL != "" {
		// generic client, for cursor state
		opt, err := redis.ParseURL(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis URL: %v", err)
		}
		rdb = redis.NewClient(opt)
		// check redis connection
		_, err = rdb.Ping(context.TODO()).Result()
		if err != nil {
			return nil, fmt.Errorf("redis ping failed: %v", err)
		}

		pc, err := policycache.NewRedisCache(store, config.RedisURL, policycache.DefaultTTL, logger)
		if err != nil {
			return nil, fmt.Errorf("initializing redis policy cache: %v", err)
		}
		policies = pc

		wnd, err := windowstore.NewRedisWindowStore(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("initializing redis window store: %v", err)
		}
		windows = wnd
	} else {
		policies = policycache.NewMemCache(store, policycache.DefaultTTL, logger)
		memWindows = windowstore.NewMemWindowStore()
		windows = memWindows
	}

	escalations := escalation.NewMemTracker()
	client := platform.NewClient(config.PlatformHost, config.PlatformToken)

	engine := automod.Engine{
		Logger:           logger,
		Rules:            rules.DefaultRules(),
		Policies:         policies,
		PolicyStore:      store,
		Windows:          windows,
		Escalations:      escalations,
		Platform:         client,
		Notifier:         automod.NewPlatformNotifier(client, policies, logger),
		SlackWebhookURL:  config.SlackWebhookURL,
		RestrictDuration: config.RestrictDuration,
	}

	s := &Server{
		gatewayHost:    config.GatewayHost,
		logger:         logger,
		engine:         &engine,
		store:          store,
		rdb:            rdb,
		memWindows:     memWindows,
		memEscalations: escalations,
	}

	return s, nil
}

func (s *Server) RunMetrics(listen string) error {
	http.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(listen, nil)
}

var cursorKey = "sentinel/seq"

func (s *Server) ReadLastCursor(ctx context.Context) (int64, error) {
	// if redis isn't configured, just skip
	if s.rdb == nil {
		s.logger.Info("redis not configured, skipping cursor read")
		return 0, nil
	}

	val, err := s.rdb.Get(ctx, cursorKey).Int64()
	if err == redis.Nil {
		s.logger.Info("no pre-existing cursor in redis")
		return 0, nil
	}
	s.logger.Info("successfully found prior subscription cursor seq in redis", "seq", val)
	return val, err
}

func (s *Server) PersistCursor(ctx context.Context) error {
	// if redis isn't configured, just skip
	if s.rdb == nil {
		return nil
	}
	if s.lastSeq <= 0 {
		return nil
	}
	err := s.rdb.Set(ctx, cursorKey, s.lastSeq, 14*24*time.Hour).Err()
	return err
}

// this method runs in a loop, persisting the current cursor state every 5 seconds
func (s *Server) RunPersistCursor(ctx context.Context) error {

	// if redis isn't configured, just skip
	if s.rdb == nil {
		return nil
	}
	ticker := time.NewTicker(5 * time.Second)
	for {
		select {
		case <-ctx.Done():
			if s.lastSeq >= 1 {
				s.logger.Info("persisting final cursor seq value", "seq", s.lastSeq)
				err := s.PersistCursor(ctx)
				if err != nil {
					s.logger.Error("failed to persist cursor", "err", err, "seq", s.lastSeq)
				}
			}
			return nil
		case <-ticker.C:
			if s.lastSeq >= 1 {
				err := s.PersistCursor(ctx)
				if err != nil {
					s.logger.Error("failed to persist cursor", "err", err, "seq", s.lastSeq)
				}
			}
		}
	}
}

// RunSweeper periodically drops idle in-memory window buffers and escalation
// counters. The longest detection window is the 1800s overage reset, so
// anything untouched for over an hour is dead weight.
func (s *Server) RunSweeper(ctx context.Context) error {
	ticker := time.NewTicker(10 * time.Minute)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			now := time.Now()
			var removed int
			if s.memWindows != nil {
				removed += s.memWindows.Sweep(now, time.Hour)
			}
			removed += s.memEscalations.Sweep(now, time.Hour)
			if removed > 0 {
				s.logger.Info("swept idle counter state", "removed", removed)
			}
		}
	}
}
