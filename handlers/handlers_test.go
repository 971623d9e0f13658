package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/zedemy/zedemy/backend/go-services/internal/certificates"
	"github.com/zedemy/zedemy/backend/go-services/internal/config"
	"github.com/zedemy/zedemy/backend/go-services/internal/mailer"
	"github.com/zedemy/zedemy/backend/go-services/internal/models"
	"github.com/zedemy/zedemy/backend/go-services/internal/notifications"
	"github.com/zedemy/zedemy/backend/go-services/internal/oidc"
	"github.com/zedemy/zedemy/backend/go-services/internal/posts"
	"github.com/zedemy/zedemy/backend/go-services/internal/progress"
	"github.com/zedemy/zedemy/backend/go-services/internal/sessions"
	"github.com/zedemy/zedemy/backend/go-services/internal/storage"
	"github.com/zedemy/zedemy/backend/go-services/internal/tokens"
	"github.com/zedemy/zedemy/backend/go-services/internal/users"
	"github.com/zedemy/zedemy/backend/go-services/pkg/middleware"
)

func init() { gin.SetMode(gin.TestMode) }

type testAPI struct {
	g        *gin.Engine
	users    *users.Service
	posts    *posts.Service
	certs    *certificates.MemoryRepo
	store    *storage.MemoryStore
	queue    *mailer.MemoryQueue
	tokens   *tokens.Manager
	redis    *miniredis.Miniredis
	notifier *mailer.Notifier
}

type fakeFlow struct{}

func (fakeFlow) AuthCodeURL(state string) string { return "https://accounts.example/auth?state=" + state }

func (fakeFlow) Exchange(ctx context.Context, code string) (*oidc.Profile, error) {
	return &oidc.Profile{Sub: "g-" + code, Email: code + "@gmail.com", Name: "Flow User"}, nil
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	userSvc := users.NewService(users.NewMemoryRepo())
	postSvc := posts.NewService(posts.NewMemoryRepo(), 2)
	store := storage.NewMemoryStore("https://cdn.example/zedemy")
	queue := mailer.NewMemoryQueue(100)
	notifier := mailer.NewNotifier(queue, "https://zedemy.example")
	certRepo := certificates.NewMemoryRepo()
	certSvc := certificates.NewService(certRepo, certificates.NewGenerator(config.CertificateConfig{VerifyBaseURL: "https://zedemy.example/certificate"}), store, notifier, 15*time.Minute)
	tracker := progress.NewTracker(userSvc, postSvc, certSvc)
	notes := notifications.NewService(notifications.NewMemoryRepo(), userSvc, notifier)
	tm := tokens.NewManager(config.JWTConfig{Secret: "handler-test-secret", AccessTokenTTL: time.Hour})
	blacklist := sessions.NewBlacklist(rdb)

	g := gin.New()
	api := g.Group("/api")
	auth := middleware.AuthMiddleware(tm, blacklist)
	(&UserHandler{
		Users:       userSvc,
		Sessions:    sessions.NewService(sessions.NewMemoryRepository(), 24*time.Hour),
		Tokens:      tm,
		Blacklist:   blacklist,
		Google:      oidc.NewInsecureVerifier(),
		Flow:        fakeFlow{},
		Mail:        notifier,
		FrontendURL: "https://zedemy.example",
	}).Register(api, auth)
	(&PostHandler{Posts: postSvc, Users: userSvc, Tracker: tracker, Notifications: notes}).Register(api, auth)
	(&CertificateHandler{Certificates: certSvc, Users: userSvc}).Register(api, auth)
	(&NotificationHandler{Notifications: notes}).Register(api, auth)
	(&UploadHandler{Store: store, MaxSize: 1 << 20}).Register(api, auth)

	return &testAPI{g: g, users: userSvc, posts: postSvc, certs: certRepo, store: store, queue: queue, tokens: tm, redis: mr, notifier: notifier}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.g.ServeHTTP(w, req)
	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

// register signs up a user and returns its access token and id.
func (a *testAPI) register(t *testing.T, name, email string) (string, string) {
	t.Helper()
	w, out := a.do(t, http.MethodPost, "/api/users/register", "", gin.H{
		"name": name, "email": email, "password": "secret123", "policyAccepted": true,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	user := out["user"].(map[string]any)
	return out["token"].(string), user["id"].(string)
}

func (a *testAPI) seedPost(t *testing.T, author *models.User, title, category string) *models.Post {
	t.Helper()
	p, err := a.posts.Create(context.Background(), author, posts.CreateInput{Title: title, Content: "body", Category: category})
	require.NoError(t, err)
	return p
}
