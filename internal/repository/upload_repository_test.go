package repository_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"taskhub-go/internal/model"
	"taskhub-go/internal/repository"
	"taskhub-go/internal/testutil"
)

func TestUploadSessionRepository(t *testing.T) {
	ctx := context.Background()
	store := repository.NewStore(testutil.NewDB(t))
	sessions := store.UploadSessions()

	session := &model.UploadSession{ID: uuid.New(), FileName: "a.pdf", ObjectName: "sessions/x/a.pdf"}
	require.NoError(t, sessions.Create(ctx, session))

	require.NoError(t, sessions.UpsertChunk(ctx, &model.UploadChunk{SessionID: session.ID, ChunkNumber: 1, ObjectName: "c1", Size: 10}))
	require.NoError(t, sessions.UpsertChunk(ctx, &model.UploadChunk{SessionID: session.ID, ChunkNumber: 0, ObjectName: "c0", Size: 5}))
	// 重传同一分片只覆盖，不新增
	require.NoError(t, sessions.UpsertChunk(ctx, &model.UploadChunk{SessionID: session.ID, ChunkNumber: 1, ObjectName: "c1b", Size: 12}))

	count, err := sessions.CountChunks(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	chunks, err := sessions.FindChunks(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, 0, chunks[0].ChunkNumber)
	assert.Equal(t, "c1b", chunks[1].ObjectName)
	assert.Equal(t, int64(12), chunks[1].Size)

	require.NoError(t, sessions.DeleteChunks(ctx, session.ID))
	require.NoError(t, sessions.Delete(ctx, session.ID))
	// 删除不存在的会话不报错
	require.NoError(t, sessions.Delete(ctx, uuid.New()))

	_, err = sessions.FindByID(ctx, session.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestLibraryRepository(t *testing.T) {
	ctx := context.Background()
	library := repository.NewStore(testutil.NewDB(t)).Library()

	require.NoError(t, library.UpsertFolder(ctx, &model.LibraryFolder{FolderName: "Test", Unc: "/a", Http: "http://a"}))
	require.NoError(t, library.UpsertFolder(ctx, &model.LibraryFolder{FolderName: "Test", Unc: "/b", Http: "http://b"}))

	folders, err := library.FindFolders(ctx)
	require.NoError(t, err)
	require.Len(t, folders, 1)
	assert.Equal(t, "/b", folders[0].Unc)

	job := &model.UploadJob{JobOid: uuid.New(), FolderName: "Test", FilePath: "/b/x.pdf"}
	require.NoError(t, library.CreateUploadJob(ctx, job))

	got, err := library.FindUploadJob(ctx, job.JobOid)
	require.NoError(t, err)
	assert.Equal(t, model.UploadJobPending, got.Status)
}
