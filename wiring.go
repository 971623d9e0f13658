package main

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/zedemy/zedemy/backend/go-services/handlers"
	"github.com/zedemy/zedemy/backend/go-services/internal/certificates"
	"github.com/zedemy/zedemy/backend/go-services/internal/config"
	"github.com/zedemy/zedemy/backend/go-services/internal/database"
	"github.com/zedemy/zedemy/backend/go-services/internal/mailer"
	"github.com/zedemy/zedemy/backend/go-services/internal/notifications"
	"github.com/zedemy/zedemy/backend/go-services/internal/oidc"
	"github.com/zedemy/zedemy/backend/go-services/internal/posts"
	"github.com/zedemy/zedemy/backend/go-services/internal/progress"
	"github.com/zedemy/zedemy/backend/go-services/internal/sessions"
	"github.com/zedemy/zedemy/backend/go-services/internal/storage"
	"github.com/zedemy/zedemy/backend/go-services/internal/tokens"
	"github.com/zedemy/zedemy/backend/go-services/internal/users"
	"github.com/zedemy/zedemy/backend/go-services/pkg/logger"
)

const mongoConnectAttempts = 5

// app holds the explicitly constructed services shared by the handlers.
type app struct {
	mongo *mongo.Client
	redis *redis.Client

	users         *users.Service
	posts         *posts.Service
	sessions      *sessions.Service
	blacklist     *sessions.Blacklist
	tokens        *tokens.Manager
	certificates  *certificates.Service
	notifications *notifications.Service
	tracker       *progress.Tracker
	store         storage.ObjectStore
	notifier      *mailer.Notifier

	queue   mailer.Queue
	worker  *mailer.Worker
	workers int

	google oidc.Verifier
	flow   handlers.GoogleFlow
}

type repositories struct {
	users         users.UserRepository
	posts         posts.Repository
	certificates  certificates.Repository
	notifications notifications.Repository
	sessions      sessions.Repository
}

type indexer interface {
	EnsureIndexes(ctx context.Context) error
}

func build(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}

	rdb, err := database.ConnectRedis(ctx, cfg.Redis)
	if err != nil {
		logger.Warnf("redis unavailable, continuing without it: %v", err)
	} else if rdb != nil {
		logger.Infof("connected to Redis at %s", cfg.Redis.Addr())
		a.redis = rdb
	}

	repos, err := a.openRepositories(ctx, cfg)
	if err != nil {
		a.close()
		return nil, err
	}

	a.store, err = storage.New(ctx, cfg.Storage)
	if err != nil {
		if cfg.Server.Environment != "development" {
			a.close()
			return nil, fmt.Errorf("object storage: %w", err)
		}
		logger.Warnf("object storage unavailable (%v); using in-memory store", err)
		a.store = storage.NewMemoryStore("")
	}

	a.queue, a.workers = mailQueue(cfg.Mail, a.redis)
	a.notifier = mailer.NewNotifier(a.queue, cfg.Server.FrontendURL)
	a.worker = mailer.NewWorker(a.queue, mailer.NewSender(cfg.SMTP), cfg.Mail.MaxAttempts, cfg.Mail.RetryBase)

	a.tokens = tokens.NewManager(cfg.JWT)
	if a.redis != nil {
		a.blacklist = sessions.NewBlacklist(a.redis)
	}
	a.users = users.NewService(repos.users)
	a.posts = posts.NewService(repos.posts, cfg.Posts.CategoryPageSize)
	a.sessions = sessions.NewService(repos.sessions, cfg.JWT.RefreshTokenTTL)
	a.certificates = certificates.NewService(repos.certificates, certificates.NewGenerator(cfg.Certificate), a.store, a.notifier, cfg.Storage.PresignTTL)
	a.tracker = progress.NewTracker(a.users, a.posts, a.certificates)
	a.notifications = notifications.NewService(repos.notifications, a.users, a.notifier)

	a.openGoogle(ctx, cfg)
	return a, nil
}

// openRepositories prefers Mongo, keeps sessions in Redis when available and
// falls back to in-memory repositories when no database is configured.
func (a *app) openRepositories(ctx context.Context, cfg *config.Config) (*repositories, error) {
	var repos *repositories
	if cfg.MongoDB.URI == "" {
		repos = &repositories{
			users:         users.NewMemoryRepo(),
			posts:         posts.NewMemoryRepo(),
			certificates:  certificates.NewMemoryRepo(),
			notifications: notifications.NewMemoryRepo(),
			sessions:      sessions.NewMemoryRepository(),
		}
	} else {
		client, err := database.ConnectMongoWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, mongoConnectAttempts)
		if err != nil {
			return nil, fmt.Errorf("could not connect to MongoDB after %d attempts: %w", mongoConnectAttempts, err)
		}
		a.mongo = client
		db := client.Database(cfg.MongoDB.Database)
		mu := users.NewMongoUserRepository(db.Collection("users"))
		mp := posts.NewMongoRepo(db.Collection("posts"))
		mc := certificates.NewMongoRepo(db.Collection("certificates"))
		mn := notifications.NewMongoRepo(db.Collection("notifications"))
		ms := sessions.NewMongoRepository(db.Collection("sessions"))
		for _, ix := range []indexer{mu, mp, mc, mn, ms} {
			if err := ix.EnsureIndexes(ctx); err != nil {
				return nil, fmt.Errorf("ensure indexes: %w", err)
			}
		}
		repos = &repositories{users: mu, posts: mp, certificates: mc, notifications: mn, sessions: ms}
		logger.Infof("using MongoDB database %q", cfg.MongoDB.Database)
	}
	if a.redis != nil {
		repos.sessions = sessions.NewRedisRepository(a.redis, "")
		logger.Infof("using Redis for session storage")
	}
	return repos, nil
}

// mailQueue returns the queue and how many in-process workers should drain
// it. A Redis queue may be left entirely to cmd/mailworker (MAIL_WORKERS=0);
// an in-memory queue always needs at least one local worker.
func mailQueue(cfg config.MailConfig, rdb *redis.Client) (mailer.Queue, int) {
	if cfg.QueueDriver == "redis" {
		if rdb != nil {
			return mailer.NewRedisQueue(rdb, cfg.QueueKey), cfg.Workers
		}
		logger.Warnf("MAIL_QUEUE_DRIVER=redis but Redis is unavailable; using in-memory queue")
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return mailer.NewMemoryQueue(0), workers
}

func (a *app) openGoogle(ctx context.Context, cfg *config.Config) {
	switch {
	case cfg.Google.ClientID != "":
		g, err := oidc.NewGoogle(ctx, cfg.Google)
		if err != nil {
			logger.Warnf("google sign-in disabled: %v", err)
			return
		}
		a.google = g
		if cfg.Google.ClientSecret != "" && cfg.Google.RedirectURL != "" {
			a.flow = g
		}
	case cfg.Google.AllowInsecure && cfg.Server.Environment == "development":
		logger.Warn("enabling insecure Google ID token verifier (development only)")
		a.google = oidc.NewInsecureVerifier()
	}
}

func (a *app) userHandler(cfg *config.Config) *handlers.UserHandler {
	return &handlers.UserHandler{
		Users:       a.users,
		Sessions:    a.sessions,
		Tokens:      a.tokens,
		Blacklist:   a.blacklist,
		Google:      a.google,
		Flow:        a.flow,
		Mail:        a.notifier,
		FrontendURL: cfg.Server.FrontendURL,
	}
}

func (a *app) ready(ctx context.Context) map[string]bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	deps := map[string]bool{"storage": a.store != nil}
	if a.mongo != nil {
		deps["mongo"] = a.mongo.Ping(ctx, nil) == nil
	}
	if a.redis != nil {
		deps["redis"] = a.redis.Ping(ctx).Err() == nil
	}
	return deps
}

func (a *app) closeQueue() {
	if q, ok := a.queue.(*mailer.MemoryQueue); ok {
		q.Close()
	}
}

func (a *app) close() {
	if a.mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.mongo.Disconnect(ctx)
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}
