package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"ai-conversations-be/internal/entity"
	"ai-conversations-be/internal/repository/specification"
	"ai-conversations-be/internal/repository/unitofwork"
	"ai-conversations-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.ConversationRepository())
	assert.NotNil(t, uow.JobRepository())

	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)
	t.Log("Successfully connected to DB and initialized UnitOfWork Factory")

	t.Run("Check Conversation Repository", func(t *testing.T) {
		count, err := uow.ConversationRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("Conversation count: %d", count)
	})

	t.Run("Check Memory Embedding Repository", func(t *testing.T) {
		// search against an empty filter just proves the vector column exists
		_, err := uow.MemoryEmbeddingRepository().Search(context.Background(), make([]float32, 768), 1)
		assert.NoError(t, err)
	})
}

func TestConversationRoundtrip(t *testing.T) {
	_ = godotenv.Load("../../.env")
	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	require.NoError(t, err)
	uow := unitofwork.NewRepositoryFactory(gormDB).NewUnitOfWork(context.Background())
	ctx := context.Background()

	now := time.Now()
	conversation := &entity.Conversation{
		Id:          uuid.New(),
		ClientId:    "integration_test_" + uuid.NewString()[:8],
		EndReason:   entity.EndReasonExplicitClose,
		CreatedAt:   now,
		CompletedAt: &now,
	}
	require.NoError(t, uow.ConversationRepository().Create(ctx, conversation))

	found, err := uow.ConversationRepository().FindOne(ctx, specification.ByID{ID: conversation.Id})
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, conversation.ClientId, found.ClientId)
	assert.False(t, found.Open())

	// transcript versions enforce one version per producing job at the schema level
	jobId := uuid.New()
	version := &entity.TranscriptVersion{
		Id:             uuid.New(),
		ConversationId: conversation.Id,
		Segments:       []entity.Segment{{Start: 0, End: 1, Text: "integration", Confidence: 1}},
		SourceSegments: []entity.Segment{{Start: 0, End: 1, Text: "integration", Confidence: 1}},
		CreatedByJobId: jobId,
		CreatedAt:      time.Now(),
	}
	require.NoError(t, uow.TranscriptVersionRepository().Create(ctx, version))

	dup := *version
	dup.Id = uuid.New()
	assert.Error(t, uow.TranscriptVersionRepository().Create(ctx, &dup))

	require.NoError(t, uow.TranscriptVersionRepository().Delete(ctx, version.Id))
	require.NoError(t, gormDB.Exec("DELETE FROM conversations WHERE id = ?", conversation.Id).Error)
}
