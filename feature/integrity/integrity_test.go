package integrity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"inventory-reconciler/core/database"
	"inventory-reconciler/core/storage/mocks"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_").Replace(t.Name())
	db, err := database.Connect(database.Config{
		Driver: "sqlite",
		Name:   fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
	})
	require.NoError(t, err)
	return db
}

func setupTestApp(t *testing.T, client *mocks.Client) (*fiber.App, *gorm.DB) {
	t.Helper()
	db := setupDB(t)
	var svc *Service
	if client != nil {
		svc = NewService(db, client, "reports", zap.NewNop())
	} else {
		svc = NewService(db, nil, "reports", nil)
	}
	app := fiber.New()
	require.NoError(t, NewFeature(svc).Load(app))
	return app, db
}

func getJSON(t *testing.T, app *fiber.App, path string) (int, map[string]any) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", path, nil))
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestService_Schema(t *testing.T) {
	svc := NewService(setupDB(t), nil, "", nil)
	ctx := context.Background()

	drift, err := svc.CheckSchema(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, drift)
	for _, d := range drift {
		assert.True(t, d.Absent, d.Table)
	}

	require.NoError(t, svc.FixSchema(ctx))
	drift, err = svc.CheckSchema(ctx)
	require.NoError(t, err)
	assert.Empty(t, drift)
}

func TestService_Bucket(t *testing.T) {
	ctx := context.Background()

	t.Run("Disabled", func(t *testing.T) {
		svc := NewService(nil, nil, "reports", nil)
		_, err := svc.CheckBucket(ctx)
		assert.ErrorIs(t, err, ErrArchiveDisabled)
		assert.ErrorIs(t, svc.FixBucket(ctx), ErrArchiveDisabled)
	})

	t.Run("Fix", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "reports").Return(false, nil)
		client.On("MakeBucket", mock.Anything, "reports", mock.Anything).Return(nil)

		svc := NewService(nil, client, "reports", nil)
		exists, err := svc.CheckBucket(ctx)
		require.NoError(t, err)
		assert.False(t, exists)
		require.NoError(t, svc.FixBucket(ctx))
		client.AssertExpectations(t)
	})
}

func TestHandleSchemaCheck(t *testing.T) {
	app, _ := setupTestApp(t, nil)

	status, body := getJSON(t, app, "/integrity/schema")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "checked", body["status"])
	assert.NotEmpty(t, body["drift"])

	status, body = getJSON(t, app, "/integrity/schema?fix=true")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "fixed", body["status"])

	_, body = getJSON(t, app, "/integrity/schema")
	assert.Equal(t, "checked", body["status"])
	assert.Empty(t, body["drift"])
}

func TestHandleBucketCheck(t *testing.T) {
	t.Run("Disabled", func(t *testing.T) {
		app, _ := setupTestApp(t, nil)
		status, body := getJSON(t, app, "/integrity/bucket")
		assert.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, "disabled", body["status"])
	})

	t.Run("Present", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "reports").Return(true, nil)
		app, _ := setupTestApp(t, client)

		_, body := getJSON(t, app, "/integrity/bucket?fix=true")
		assert.Equal(t, "checked", body["status"])
		assert.Equal(t, true, body["exists"])
		client.AssertNotCalled(t, "MakeBucket", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Fix", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "reports").Return(false, nil)
		client.On("MakeBucket", mock.Anything, "reports", mock.Anything).Return(nil)
		app, _ := setupTestApp(t, client)

		_, body := getJSON(t, app, "/integrity/bucket?fix=true")
		assert.Equal(t, "fixed", body["status"])
	})

	t.Run("Error", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "reports").Return(false, errors.New("connection refused"))
		app, _ := setupTestApp(t, client)

		status, body := getJSON(t, app, "/integrity/bucket")
		assert.Equal(t, fiber.StatusInternalServerError, status)
		assert.Equal(t, "connection refused", body["error"])
	})
}

func TestHandleIntegrityCheck(t *testing.T) {
	client := new(mocks.Client)
	client.On("BucketExists", mock.Anything, "reports").Return(true, nil)
	app, _ := setupTestApp(t, client)

	status, body := getJSON(t, app, "/integrity")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ok", body["schema"].(map[string]any)["status"])
	assert.Equal(t, true, body["bucket"].(map[string]any)["exists"])
}

func TestLoader(t *testing.T) {
	feature := NewFeature(NewService(nil, nil, "", nil))
	assert.Equal(t, "integrity", feature.Name())
	assert.True(t, feature.IsEnabled())
}
