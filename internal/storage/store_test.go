package storage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zedemy/zedemy/backend/go-services/internal/apperr"
	"github.com/zedemy/zedemy/backend/go-services/internal/config"
)

func TestPublicBase(t *testing.T) {
	cases := []struct {
		name string
		cfg  config.StorageConfig
		want string
	}{
		{"explicit", config.StorageConfig{Driver: "s3", PublicURL: "https://cdn.zedemy.com/", Bucket: "b"}, "https://cdn.zedemy.com"},
		{"aws", config.StorageConfig{Driver: "s3", Bucket: "certs", Region: "ap-south-1"}, "https://certs.s3.ap-south-1.amazonaws.com"},
		{"s3 compatible", config.StorageConfig{Driver: "s3", Endpoint: "https://fsn1.example.com/", Bucket: "certs"}, "https://fsn1.example.com/certs"},
		{"minio", config.StorageConfig{Driver: "minio", Endpoint: "localhost:9000", Bucket: "certs"}, "http://localhost:9000/certs"},
		{"minio tls", config.StorageConfig{Driver: "minio", Endpoint: "minio.local", UseSSL: true, Bucket: "certs"}, "https://minio.local/certs"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, publicBase(tc.cfg))
		})
	}
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	_, err := New(context.Background(), config.StorageConfig{Driver: "ftp"})
	require.ErrorIs(t, err, apperr.ErrInvalid)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s, err := New(ctx, config.StorageConfig{Driver: "memory", Bucket: "certs"})
	require.NoError(t, err)
	m := s.(*MemoryStore)

	key := "certificates/a.pdf"
	require.NoError(t, m.Put(ctx, key, strings.NewReader("%PDF"), 4, "application/pdf"))
	obj, ok := m.Get(key)
	require.True(t, ok)
	assert.Equal(t, "application/pdf", obj.ContentType)
	assert.Equal(t, "memory://certs/certificates/a.pdf", m.PublicURL(key))

	u, err := m.PresignedURL(ctx, key, time.Hour)
	require.NoError(t, err)
	assert.Contains(t, u, "expires=3600")

	require.NoError(t, m.Delete(ctx, key))
	_, err = m.PresignedURL(ctx, key, time.Hour)
	require.ErrorIs(t, err, apperr.ErrNotFound)

	m.FailPut = errors.New("disk full")
	err = m.Put(ctx, key, strings.NewReader("x"), 1, "text/plain")
	require.ErrorIs(t, err, apperr.ErrUpstream)
}
