package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"taskhub-go/internal/model"
	"taskhub-go/internal/service"
)

type fakeTaskService struct {
	addAdminErr error
	details     *model.UserTaskDetails
	saveErr     error
	lastInput   service.UserTaskInput
	calls       int
}

func (f *fakeTaskService) AddAdmin(_ context.Context, in service.AddAdminInput) (*model.User, error) {
	f.calls++
	if f.addAdminErr != nil {
		return nil, f.addAdminErr
	}
	return &model.User{UserOid: uuid.New(), UserName: in.UserName, Email: in.Email}, nil
}

func (f *fakeTaskService) GetUserTasks(context.Context, uuid.UUID) ([]model.UserTaskDetails, error) {
	f.calls++
	return []model.UserTaskDetails{}, nil
}

func (f *fakeTaskService) GetUserTaskDetails(context.Context, uuid.UUID) (*model.UserTaskDetails, error) {
	f.calls++
	return f.details, nil
}

func (f *fakeTaskService) CompleteTask(context.Context, uuid.UUID) error {
	f.calls++
	return nil
}

func (f *fakeTaskService) AddOrUpdateTask(_ context.Context, in service.UserTaskInput) (uuid.UUID, error) {
	f.calls++
	f.lastInput = in
	if f.saveErr != nil {
		return uuid.Nil, f.saveErr
	}
	if in.UserTaskOid != uuid.Nil {
		return in.UserTaskOid, nil
	}
	return uuid.New(), nil
}

func (f *fakeTaskService) DeleteTask(context.Context, uuid.UUID) error {
	f.calls++
	return nil
}

type fakeSessionService struct {
	saveErr   error
	getErr    error
	saveCalls int
	lastChunk int
	lastIsEnd bool
	lastData  string
}

func (f *fakeSessionService) CreateUploadSession(_ context.Context, fileName string) (*model.UploadSession, error) {
	return &model.UploadSession{ID: uuid.New(), FileName: fileName}, nil
}

func (f *fakeSessionService) GetUploadSession(_ context.Context, id uuid.UUID) (*model.UploadSession, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &model.UploadSession{ID: id}, nil
}

func (f *fakeSessionService) DeleteUploadSession(context.Context, uuid.UUID) error {
	return nil
}

func (f *fakeSessionService) SaveChunk(_ context.Context, id uuid.UUID, chunkNumber int, part service.FilePart, isLast bool) (*model.UploadSession, error) {
	f.saveCalls++
	f.lastChunk = chunkNumber
	f.lastIsEnd = isLast
	r, err := part.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	data, _ := io.ReadAll(r)
	f.lastData = string(data)
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	return &model.UploadSession{ID: id, UploadedChunks: chunkNumber + 1, IsCompleted: isLast}, nil
}

type fakeFileService struct {
	err   error
	calls int
}

func (f *fakeFileService) SaveUpload(_ context.Context, part service.FilePart) (*service.UploadResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &service.UploadResult{FilePaths: []string{"/srv/" + part.Filename(), "http://files/" + part.Filename()}, FileUid: uuid.New()}, nil
}

func (f *fakeFileService) SupportedExtensions() []string {
	return []string{".pdf", ".txt"}
}

const testMaxChunks = 100

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newRouter(tasks service.TaskService, sessions service.UploadSessionService, files service.FileService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, NewTaskHandler(tasks), NewFileHandler(sessions, files, testMaxChunks))
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env
}

// multipartBody 生成包含给定文件的 multipart 请求体。
func multipartBody(t *testing.T, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range files {
		fw, err := mw.CreateFormFile("file_"+name, name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}
