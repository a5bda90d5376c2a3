package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"taskhub-go/internal/model"
	"taskhub-go/internal/repository"
	"taskhub-go/internal/testutil"
	"taskhub-go/pkg/encrypt"
)

type taskFixture struct {
	db        *gorm.DB
	svc       *taskService
	store     repository.Store
	encryptor encrypt.Encryptor
	clock     time.Time
}

func newTaskFixture(t *testing.T) *taskFixture {
	t.Helper()
	db := testutil.NewDB(t)
	store := repository.NewStore(db)
	encryptor, err := encrypt.NewAESEncryptor("test-secret", 1000)
	require.NoError(t, err)

	f := &taskFixture{
		db:        db,
		store:     store,
		encryptor: encryptor,
		clock:     time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
	}
	svc := NewTaskService(store, encryptor).(*taskService)
	svc.now = func() time.Time { return f.clock }
	f.svc = svc
	return f
}

func (f *taskFixture) addAdmin(t *testing.T, email string) *model.User {
	t.Helper()
	user, err := f.svc.AddAdmin(context.Background(), AddAdminInput{UserName: "alice", Email: email, Password: "p@ssw0rd"})
	require.NoError(t, err)
	return user
}

func TestTaskService_AddAdmin(t *testing.T) {
	ctx := context.Background()

	t.Run("Should create user and admin with encrypted password", func(t *testing.T) {
		f := newTaskFixture(t)
		user := f.addAdmin(t, "alice@example.com")

		stored, err := f.store.Users().FindByID(ctx, user.UserOid)
		require.NoError(t, err)
		assert.Equal(t, model.AdminUserStatusID, stored.UserStatusID)
		assert.NotEqual(t, "p@ssw0rd", stored.Password)

		plain, err := f.encryptor.Decrypt(stored.Password, user.UserOid.String())
		require.NoError(t, err)
		assert.Equal(t, "p@ssw0rd", plain)

		admin, err := f.store.Admins().FindByUserID(ctx, user.UserOid)
		require.NoError(t, err)
		assert.Equal(t, user.UserOid, admin.UserOid)
	})

	t.Run("Should roll back on duplicate email", func(t *testing.T) {
		f := newTaskFixture(t)
		f.addAdmin(t, "dup@example.com")

		_, err := f.svc.AddAdmin(ctx, AddAdminInput{UserName: "bob", Email: "dup@example.com", Password: "x"})
		require.Error(t, err)

		var users, admins int64
		require.NoError(t, f.db.Model(&model.User{}).Count(&users).Error)
		require.NoError(t, f.db.Model(&model.Admin{}).Count(&admins).Error)
		assert.Equal(t, int64(1), users)
		assert.Equal(t, int64(1), admins)
	})
}

func TestTaskService_GetUserTasks(t *testing.T) {
	ctx := context.Background()
	f := newTaskFixture(t)
	user := f.addAdmin(t, "tasks@example.com")

	t.Run("Should return empty list for user without tasks", func(t *testing.T) {
		tasks, err := f.svc.GetUserTasks(ctx, uuid.New())
		require.NoError(t, err)
		assert.NotNil(t, tasks)
		assert.Empty(t, tasks)
	})

	t.Run("Should order by order number", func(t *testing.T) {
		for _, n := range []int{3, 1, 2, 1} {
			_, err := f.svc.AddOrUpdateTask(ctx, UserTaskInput{UserOid: user.UserOid, Name: "task", OrderNumber: n})
			require.NoError(t, err)
		}

		tasks, err := f.svc.GetUserTasks(ctx, user.UserOid)
		require.NoError(t, err)
		require.Len(t, tasks, 4)
		for i := 1; i < len(tasks); i++ {
			assert.LessOrEqual(t, tasks[i-1].OrderNumber, tasks[i].OrderNumber)
		}
		assert.Equal(t, "New", tasks[0].TaskStatus)
		assert.Equal(t, "", tasks[0].CompleteDate)
	})
}

func TestTaskService_GetUserTaskDetails(t *testing.T) {
	ctx := context.Background()
	f := newTaskFixture(t)

	details, err := f.svc.GetUserTaskDetails(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, details)
}

func TestTaskService_CompleteTask(t *testing.T) {
	ctx := context.Background()

	t.Run("Should ignore missing task", func(t *testing.T) {
		f := newTaskFixture(t)
		assert.NoError(t, f.svc.CompleteTask(ctx, uuid.New()))
	})

	t.Run("Should set status and complete date once", func(t *testing.T) {
		f := newTaskFixture(t)
		user := f.addAdmin(t, "complete@example.com")
		id, err := f.svc.AddOrUpdateTask(ctx, UserTaskInput{UserOid: user.UserOid, Name: "write report", OrderNumber: 1})
		require.NoError(t, err)

		require.NoError(t, f.svc.CompleteTask(ctx, id))
		task, err := f.store.UserTasks().FindByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, model.TaskStatusComplete, task.TaskStatusID)
		require.NotNil(t, task.CompleteDate)
		first := *task.CompleteDate

		f.clock = f.clock.Add(time.Hour)
		require.NoError(t, f.svc.CompleteTask(ctx, id))
		task, err = f.store.UserTasks().FindByID(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, task.CompleteDate)
		assert.True(t, first.Equal(*task.CompleteDate))

		details, err := f.svc.GetUserTaskDetails(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, details)
		assert.Equal(t, "2024-03-01 09:30:00", details.CompleteDate)
		assert.Equal(t, "Complete", details.TaskStatus)
	})
}

func TestTaskService_AddOrUpdateTask(t *testing.T) {
	ctx := context.Background()

	t.Run("Should reject empty name", func(t *testing.T) {
		f := newTaskFixture(t)
		_, err := f.svc.AddOrUpdateTask(ctx, UserTaskInput{UserOid: uuid.New(), Name: "  "})
		assert.ErrorIs(t, err, ErrInvalidTaskName)
	})

	t.Run("Should reject unknown user", func(t *testing.T) {
		f := newTaskFixture(t)
		_, err := f.svc.AddOrUpdateTask(ctx, UserTaskInput{UserOid: uuid.New(), Name: "orphan"})
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("Should reject update of unknown task", func(t *testing.T) {
		f := newTaskFixture(t)
		_, err := f.svc.AddOrUpdateTask(ctx, UserTaskInput{UserTaskOid: uuid.New(), Name: "ghost"})
		assert.ErrorIs(t, err, ErrUserTaskNotFound)
	})

	t.Run("Should update only name and order", func(t *testing.T) {
		f := newTaskFixture(t)
		user := f.addAdmin(t, "update@example.com")
		id, err := f.svc.AddOrUpdateTask(ctx, UserTaskInput{UserOid: user.UserOid, Name: "draft", OrderNumber: 5})
		require.NoError(t, err)
		require.NoError(t, f.svc.CompleteTask(ctx, id))
		before, err := f.store.UserTasks().FindByID(ctx, id)
		require.NoError(t, err)

		f.clock = f.clock.Add(24 * time.Hour)
		got, err := f.svc.AddOrUpdateTask(ctx, UserTaskInput{UserTaskOid: id, UserOid: user.UserOid, Name: "final", OrderNumber: 2})
		require.NoError(t, err)
		assert.Equal(t, id, got)

		after, err := f.store.UserTasks().FindByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "final", after.Name)
		assert.Equal(t, 2, after.OrderNumber)
		assert.Equal(t, before.TaskStatusID, after.TaskStatusID)
		assert.True(t, before.StartDate.Equal(after.StartDate))
		require.NotNil(t, after.CompleteDate)
		assert.True(t, before.CompleteDate.Equal(*after.CompleteDate))
	})
}

func TestTaskService_DeleteTask(t *testing.T) {
	ctx := context.Background()
	f := newTaskFixture(t)

	assert.NoError(t, f.svc.DeleteTask(ctx, uuid.New()))

	user := f.addAdmin(t, "delete@example.com")
	id, err := f.svc.AddOrUpdateTask(ctx, UserTaskInput{UserOid: user.UserOid, Name: "temp"})
	require.NoError(t, err)
	require.NoError(t, f.svc.DeleteTask(ctx, id))

	details, err := f.svc.GetUserTaskDetails(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, details)
}
