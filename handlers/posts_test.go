package handlers

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zedemy/zedemy/backend/go-services/internal/mailer"
	"github.com/zedemy/zedemy/backend/go-services/internal/models"
)

func jobKinds(jobs []mailer.Job) []mailer.Kind {
	out := make([]mailer.Kind, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, j.Kind)
	}
	return out
}

func TestPostLifecycleIssuesCertificate(t *testing.T) {
	a := newTestAPI(t)
	authorTok, _ := a.register(t, "Author", "author@example.com")
	learnerTok, learnerID := a.register(t, "Lena Learner", "lena@example.com")
	w, _ := a.do(t, http.MethodPut, "/api/users/follow-categories", learnerTok, gin.H{"categories": []string{"Go"}})
	require.Equal(t, http.StatusOK, w.Code)
	drain(t, a.queue)

	var ids []string
	for _, title := range []string{"Goroutines", "Channels"} {
		w, out := a.do(t, http.MethodPost, "/api/posts", authorTok, gin.H{"title": title, "content": "text", "category": "Go"})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		ids = append(ids, out["postId"].(string))
	}
	assert.Equal(t, []mailer.Kind{mailer.KindNewPost, mailer.KindNewPost}, jobKinds(drain(t, a.queue)))

	w, out := a.do(t, http.MethodPut, "/api/posts/complete/"+ids[0], learnerTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Post marked as completed", out["msg"])
	assert.NotContains(t, out, "certificateUrl")

	w, out = a.do(t, http.MethodPut, "/api/posts/complete/"+ids[0], learnerTok, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Post already marked as completed", out["msg"])

	w, out = a.do(t, http.MethodPut, "/api/posts/complete/"+ids[1], learnerTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Category completed! Certificate issued.", out["msg"])
	certURL := out["certificateUrl"].(string)
	uniqueID := out["uniqueId"].(string)
	assert.True(t, strings.HasPrefix(certURL, "https://cdn.example/zedemy/certificates/lena-learner_go_"), certURL)
	assert.Equal(t, 1, a.certs.Count())
	assert.Equal(t, []mailer.Kind{mailer.KindCertificate}, jobKinds(drain(t, a.queue)))

	key := strings.TrimPrefix(certURL, "https://cdn.example/zedemy/")
	obj, ok := a.store.Get(key)
	require.True(t, ok)
	assert.True(t, bytes.HasPrefix(obj.Data, []byte("%PDF")))

	w, out = a.do(t, http.MethodGet, "/api/certificates/"+uniqueID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Lena Learner", out["user"].(map[string]any)["name"])
	assert.Equal(t, learnerID, out["certificate"].(map[string]any)["userId"])

	w, out = a.do(t, http.MethodGet, "/api/certificates/"+uniqueID+"/download", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, out["url"], key)
	assert.EqualValues(t, 900, out["expiresIn"])

	w, out = a.do(t, http.MethodGet, "/api/certificates/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Certificate not found", out["msg"])

	w, _ = a.do(t, http.MethodGet, "/api/certificates/my-certificates", learnerTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, strings.Count(w.Body.String(), uniqueID))

	w, _ = a.do(t, http.MethodGet, "/api/posts/completed", learnerTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	for _, id := range ids {
		assert.Contains(t, w.Body.String(), id)
	}
}

func TestCompleteUnknownPost(t *testing.T) {
	a := newTestAPI(t)
	tok, _ := a.register(t, "Finn", "finn@example.com")
	w, out := a.do(t, http.MethodPut, "/api/posts/complete/does-not-exist", tok, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Post not found", out["msg"])
}

func TestCompleteWithDeletedAccount(t *testing.T) {
	a := newTestAPI(t)
	_, authorID := a.register(t, "Nia", "nia@example.com")
	author, err := a.users.Get(context.Background(), authorID)
	require.NoError(t, err)
	p := a.seedPost(t, author, "Pointers", "Go")

	// a valid token whose account is gone
	ghost := &models.User{ID: "ghost-user", Name: "Ghost", Email: "ghost@example.com", Role: models.RoleUser}
	tok, err := a.tokens.Generate(ghost)
	require.NoError(t, err)

	w, out := a.do(t, http.MethodPut, "/api/posts/complete/"+p.ID, tok, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "User not found", out["msg"])
}

func TestPublicPostQueries(t *testing.T) {
	a := newTestAPI(t)
	_, authorID := a.register(t, "Gus", "gus@example.com")
	author, err := a.users.Get(context.Background(), authorID)
	require.NoError(t, err)
	p := a.seedPost(t, author, "Intro to Docker", "DevOps")
	a.seedPost(t, author, "Kubernetes Basics", "DevOps")
	a.seedPost(t, author, "Slices", "Go")

	w, _ := a.do(t, http.MethodGet, "/api/posts", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, strings.Count(w.Body.String(), `"postId"`))

	w, _ = a.do(t, http.MethodGet, "/api/posts/category/DevOps", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, strings.Count(w.Body.String(), `"postId"`))

	w, _ = a.do(t, http.MethodGet, "/api/posts/search?query=docker", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), p.ID)
	assert.NotContains(t, w.Body.String(), "Slices")

	w, out := a.do(t, http.MethodGet, "/api/posts/slug/"+p.Slug, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, p.ID, out["postId"])

	w, out = a.do(t, http.MethodGet, "/api/posts/slug/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Post not found", out["msg"])
}

func TestCreatePostValidation(t *testing.T) {
	a := newTestAPI(t)
	tok, _ := a.register(t, "Hal", "hal@example.com")
	w, _ := a.do(t, http.MethodPost, "/api/posts", tok, gin.H{"title": "No category", "content": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = a.do(t, http.MethodPost, "/api/posts", "", gin.H{"title": "t", "content": "c", "category": "Go"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestNotifications(t *testing.T) {
	a := newTestAPI(t)
	authorTok, _ := a.register(t, "Ivy", "ivy@example.com")
	readerTok, _ := a.register(t, "Jon", "jon@example.com")
	otherTok, _ := a.register(t, "Kim", "kim@example.com")
	a.do(t, http.MethodPut, "/api/users/follow-categories", readerTok, gin.H{"categories": []string{"Rust"}})
	a.do(t, http.MethodPut, "/api/users/follow-categories", authorTok, gin.H{"categories": []string{"Rust"}})

	w, _ := a.do(t, http.MethodPost, "/api/posts", authorTok, gin.H{"title": "Ownership", "content": "c", "category": "Rust"})
	require.Equal(t, http.StatusCreated, w.Code)

	w, _ = a.do(t, http.MethodGet, "/api/notifications", authorTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w, _ = a.do(t, http.MethodGet, "/api/notifications", readerTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "New post in Rust: Ownership")
	body := w.Body.String()
	start := strings.Index(body, `"notificationId":"`) + len(`"notificationId":"`)
	id := body[start : start+strings.Index(body[start:], `"`)]

	w, _ = a.do(t, http.MethodPut, "/api/notifications/"+id+"/read", otherTok, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = a.do(t, http.MethodPut, "/api/notifications/"+id+"/read", readerTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = a.do(t, http.MethodGet, "/api/notifications", readerTok, nil)
	assert.Contains(t, w.Body.String(), `"read":true`)
}

func upload(t *testing.T, a *testAPI, token, filename string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/uploads", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	a.g.ServeHTTP(w, req)
	return w
}

func TestUpload(t *testing.T) {
	a := newTestAPI(t)
	tok, _ := a.register(t, "Lou", "lou@example.com")

	w := upload(t, a, tok, "My Diagram.PNG", []byte("\x89PNG\r\n\x1a\nfake"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "_my-diagram.png")
	assert.Len(t, a.store.Keys(), 1)
	obj, ok := a.store.Get(a.store.Keys()[0])
	require.True(t, ok)
	assert.Equal(t, "image/png", obj.ContentType)

	w = upload(t, a, tok, "script.sh", []byte("#!/bin/sh"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = upload(t, a, tok, "huge.png", make([]byte, 2<<20))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
