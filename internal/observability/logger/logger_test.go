package logger

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/revbox/internal/observability/context"
	"github.com/smallbiznis/revbox/internal/usercontext"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func TestWithContextAddsCorrelationFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	ctx := obscontext.WithRequestID(context.Background(), "req-1")
	ctx = usercontext.WithUserID(ctx, "user-9")

	WithContext(ctx, zap.New(core)).Info("hello")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "req-1", fields["request_id"])
		assert.Equal(t, "user-9", fields["user_id"])
		assert.Equal(t, "", fields["trace_id"])
	}
}

func TestOperationFromSQL(t *testing.T) {
	cases := map[string]string{
		"SELECT * FROM carriers":                        "SELECT",
		"  insert into uploads (id) values (1)":         "INSERT",
		"WITH x AS (SELECT 1) UPDATE payouts SET a=1":   "SELECT",
		"DELETE FROM record_fields WHERE record_id = 1": "DELETE",
		"": "UNKNOWN",
	}
	for sql, want := range cases {
		assert.Equal(t, want, operationFromSQL(sql), sql)
	}
}

func TestGormLoggerTraceLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	l := NewGormLogger(DefaultGormLoggerConfig())
	fc := func() (string, int64) { return "SELECT 1", 1 }

	l.Trace(context.Background(), time.Now(), fc, gormlogger.ErrRecordNotFound)
	assert.Equal(t, 0, logs.Len())

	l.Trace(context.Background(), time.Now(), fc, errors.New("boom"))
	l.Trace(context.Background(), time.Now().Add(-time.Second), fc, nil)

	entries := logs.All()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
		assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	}

	silent := l.LogMode(gormlogger.Silent)
	silent.Trace(context.Background(), time.Now(), fc, errors.New("ignored"))
	assert.Equal(t, 2, logs.Len())
}

func TestBuildConfigPresets(t *testing.T) {
	prod, err := buildConfig(Config{Production: true, Format: "CONSOLE"})
	if assert.NoError(t, err) {
		assert.NotNil(t, prod.Sampling)
		assert.False(t, prod.Development)
		assert.Equal(t, "console", prod.Encoding)
		assert.Equal(t, zapcore.InfoLevel, prod.Level.Level())
	}

	dev, err := buildConfig(Config{Level: "debug", Format: "xml"})
	if assert.NoError(t, err) {
		assert.Nil(t, dev.Sampling)
		assert.True(t, dev.Development)
		assert.Equal(t, "json", dev.Encoding)
		assert.Equal(t, zapcore.DebugLevel, dev.Level.Level())
	}

	_, err = buildConfig(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestGinMiddlewareLevels(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	r := gin.New()
	r.Use(GinMiddleware(MiddlewareConfig{QuietRoutes: []string{"/health"}}))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/api/uploads", func(c *gin.Context) {
		c.Set("carrier_id", "7")
		c.Status(http.StatusTooManyRequests)
	})

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/health", nil),
		httptest.NewRequest(http.MethodPost, "/api/uploads", nil),
	} {
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	entries := logs.All()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
		assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
		assert.Equal(t, "7", entries[1].ContextMap()["carrier_id"])
		assert.NotEmpty(t, entries[1].ContextMap()["request_id"])
	}
	assert.Equal(t, zapcore.ErrorLevel, requestLevel(http.StatusBadGateway, true))
	assert.Equal(t, zapcore.InfoLevel, requestLevel(http.StatusBadRequest, false))
}
