package controller

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"ai-conversations-be/internal/dto"
	"ai-conversations-be/internal/pkg/logger"
	"ai-conversations-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

var _ logger.ILogger = nopLogger{}

type fakeQueueService struct {
	lastList *dto.ListJobsRequest
}

func (f *fakeQueueService) ListJobs(ctx context.Context, req *dto.ListJobsRequest) ([]*dto.JobResponse, error) {
	f.lastList = req
	return nil, nil
}
func (f *fakeQueueService) GetJob(ctx context.Context, id uuid.UUID) (*dto.JobResponse, error) {
	return nil, nil
}
func (f *fakeQueueService) Stats(ctx context.Context) (*dto.QueueStatsResponse, error) {
	return nil, nil
}
func (f *fakeQueueService) Health(ctx context.Context) (*dto.QueueHealthResponse, error) {
	return nil, nil
}
func (f *fakeQueueService) FlushProcessing(ctx context.Context) (*dto.FlushJobsResponse, error) {
	return nil, nil
}

type fakeConversationService struct {
	lastList *dto.ListConversationsRequest
}

func (f *fakeConversationService) Show(ctx context.Context, id uuid.UUID, withSegments bool) (*dto.ShowConversationResponse, error) {
	return nil, nil
}
func (f *fakeConversationService) List(ctx context.Context, req *dto.ListConversationsRequest) ([]*dto.ConversationResponse, error) {
	f.lastList = req
	return nil, nil
}
func (f *fakeConversationService) ListTranscriptVersions(ctx context.Context, conversationId uuid.UUID) ([]*dto.TranscriptVersionResponse, error) {
	return nil, nil
}
func (f *fakeConversationService) ListMemoryVersions(ctx context.Context, conversationId uuid.UUID) ([]*dto.MemoryVersionResponse, error) {
	return nil, nil
}
func (f *fakeConversationService) SearchMemories(ctx context.Context, req *dto.MemorySearchRequest) ([]*dto.MemorySearchResponse, error) {
	return nil, nil
}

type fakeIngestService struct {
	uploadedDevice string
	uploadedUser   string
}

func (f *fakeIngestService) Upload(ctx context.Context, deviceName, userID string, audioData []byte) (*dto.UploadResponse, error) {
	f.uploadedDevice = deviceName
	f.uploadedUser = userID
	return &dto.UploadResponse{ConversationId: uuid.New()}, nil
}
func (f *fakeIngestService) IngestFrame(clientId string, seq uint64, payload []byte) error {
	return nil
}
func (f *fakeIngestService) Disconnect(clientId string)        {}
func (f *fakeIngestService) CloseConversation(clientId string) {}
func (f *fakeIngestService) ClientId(deviceName, userID string) string {
	return deviceName + "_" + userID
}

var _ service.IIngestService = (*fakeIngestService)(nil)

func TestListJobsDefaultsLimitOnlyWhenAbsent(t *testing.T) {
	svc := &fakeQueueService{}
	app := fiber.New()
	NewQueueController(svc).RegisterRoutes(app.Group("/api"))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/queue/v1/jobs", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, svc.lastList)
	assert.Equal(t, 20, svc.lastList.Limit)

	// an explicit limit=0 must reach the service so it can be rejected there
	_, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/queue/v1/jobs?limit=0", nil))
	require.NoError(t, err)
	assert.Equal(t, 0, svc.lastList.Limit)

	_, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/queue/v1/jobs?limit=7", nil))
	require.NoError(t, err)
	assert.Equal(t, 7, svc.lastList.Limit)
}

func TestListConversationsDefaultsLimitOnlyWhenAbsent(t *testing.T) {
	svc := &fakeConversationService{}
	app := fiber.New()
	NewConversationController(svc, nil, nil).RegisterRoutes(app.Group("/api"))

	_, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/conversation/v1", nil))
	require.NoError(t, err)
	require.NotNil(t, svc.lastList)
	assert.Equal(t, 20, svc.lastList.Limit)

	_, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/conversation/v1?limit=0", nil))
	require.NoError(t, err)
	assert.Equal(t, 0, svc.lastList.Limit)
}

func uploadRequest(t *testing.T, userIDField string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("audio", "recording.wav")
	require.NoError(t, err)
	_, err = part.Write([]byte("not real audio, the fake service accepts anything"))
	require.NoError(t, err)
	require.NoError(t, writer.WriteField("device_name", "pendant"))
	if userIDField != "" {
		require.NoError(t, writer.WriteField("user_id", userIDField))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/ingest/v1/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestUploadPrefersAuthenticatedUserIdentity(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	svc := &fakeIngestService{}
	app := fiber.New()
	NewIngestController(svc, nopLogger{}).RegisterRoutes(app.Group("/api"))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": "token-user"})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	req := uploadRequest(t, "self-declared")
	req.Header.Set("Authorization", "Bearer "+signed)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "pendant", svc.uploadedDevice)
	assert.Equal(t, "token-user", svc.uploadedUser)
}

func TestUploadFallsBackToDeclaredUserForAnonymousDevices(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	svc := &fakeIngestService{}
	app := fiber.New()
	NewIngestController(svc, nopLogger{}).RegisterRoutes(app.Group("/api"))

	resp, err := app.Test(uploadRequest(t, "self-declared"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "self-declared", svc.uploadedUser)
}
