package feed

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shuvam-shrestha/famnotify/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testFamilyCode = "4321"

type handlerTestSuite struct {
	router *gin.Engine
	store  *MockFeedStore
	engine *Engine
}

func setupHandlerTestSuite(t *testing.T) *handlerTestSuite {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ts := &handlerTestSuite{}
	ts.store = newMockFeedStore()
	ts.engine = NewEngine(ts.store, NewLocalStore(), 50, zap.NewNop())

	handler := NewHandler(ts.engine, zap.NewNop())
	gate := middleware.NewFamilyGate(testFamilyCode, zap.NewNop())

	ts.router = gin.New()
	handler.RegisterRoutes(ts.router.Group("/api/v1"), gate.Handler())
	return ts
}

func (ts *handlerTestSuite) do(t *testing.T, method, path string, body interface{}, familyCode string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if familyCode != "" {
		req.Header.Set(middleware.FamilyCodeHeader, familyCode)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func TestHandler_RingDoorbell(t *testing.T) {
	ts := setupHandlerTestSuite(t)
	ts.store.On("Append", mock.Anything, TypeDoorbell, mock.Anything).Return(nil).Once()

	w := ts.do(t, http.MethodPost, "/api/v1/doorbell", nil, "")

	assert.Equal(t, http.StatusAccepted, w.Code)
	ts.store.AssertExpectations(t)
}

func TestHandler_RingDoorbell_StoreUnavailable(t *testing.T) {
	ts := setupHandlerTestSuite(t)
	ts.store.On("Append", mock.Anything, TypeDoorbell, mock.Anything).
		Return(&PersistenceError{Op: "append", Err: errors.New("network down")}).Once()

	w := ts.do(t, http.MethodPost, "/api/v1/doorbell", nil, "")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHandler_SubmitCookingList(t *testing.T) {
	ts := setupHandlerTestSuite(t)
	ts.store.On("Append", mock.Anything, TypeCookingList, mock.MatchedBy(func(p Payload) bool {
		return assert.ObjectsAreEqual([]string{"Pasta", "Salad"}, p.Items)
	})).Return(nil).Once()

	w := ts.do(t, http.MethodPost, "/api/v1/cooking-list",
		gin.H{"items": []string{"  ", "Pasta", "", "Salad "}}, "")

	assert.Equal(t, http.StatusAccepted, w.Code)
	ts.store.AssertExpectations(t)
}

func TestHandler_SubmitCookingList_AllBlank(t *testing.T) {
	ts := setupHandlerTestSuite(t)

	w := ts.do(t, http.MethodPost, "/api/v1/cooking-list", gin.H{"items": []string{" ", ""}}, "")

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	ts.store.AssertNotCalled(t, "Append", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_SubmitCookingList_MissingItems(t *testing.T) {
	ts := setupHandlerTestSuite(t)

	w := ts.do(t, http.MethodPost, "/api/v1/cooking-list", gin.H{}, "")

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestHandler_PostSnapshotAndReadFeed(t *testing.T) {
	ts := setupHandlerTestSuite(t)

	w := ts.do(t, http.MethodPost, "/api/v1/snapshots",
		gin.H{"imageUrl": "data:image/png;base64,abc", "caption": "hello", "dataAiHint": "visitor selfie"}, "")
	require.Equal(t, http.StatusCreated, w.Code)

	w = ts.do(t, http.MethodGet, "/api/v1/notifications", nil, testFamilyCode)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data feedResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Notifications, 1)
	assert.Equal(t, TypeSnapshot, resp.Data.Notifications[0].Type)
	assert.Equal(t, 1, resp.Data.UnreadCount)
	assert.True(t, resp.Data.IsLoadingNotifications, "remote subscription not started in this test")
}

func TestHandler_PostSnapshot_MissingImageURL(t *testing.T) {
	ts := setupHandlerTestSuite(t)

	w := ts.do(t, http.MethodPost, "/api/v1/snapshots", gin.H{"caption": "no image"}, "")

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestHandler_FamilyRoutesRequireCode(t *testing.T) {
	ts := setupHandlerTestSuite(t)

	w := ts.do(t, http.MethodGet, "/api/v1/notifications", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(t, http.MethodGet, "/api/v1/notifications", nil, "wrong-code")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(t, http.MethodGet, "/api/v1/notifications/unread-count", nil, testFamilyCode)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandler_MarkNotificationAsRead_Local(t *testing.T) {
	ts := setupHandlerTestSuite(t)

	item := ts.engine.AddSnapshotAlert(Snapshot{ImageURL: "https://example.com/p.png"})

	w := ts.do(t, http.MethodPost, "/api/v1/notifications/"+item.ID+"/mark-read", nil, testFamilyCode)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, ts.engine.UnreadCount())
	ts.store.AssertNotCalled(t, "MarkRead", mock.Anything, mock.Anything)
}

func TestHandler_MarkNotificationAsRead_NotFound(t *testing.T) {
	ts := setupHandlerTestSuite(t)
	ts.store.On("MarkRead", mock.Anything, "ghost").Return(ErrNotFound).Once()

	w := ts.do(t, http.MethodPost, "/api/v1/notifications/ghost/mark-read", nil, testFamilyCode)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
