package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/xiebiao/storefront/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(handler gin.HandlerFunc) (*httptest.ResponseRecorder, Response) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	handler(c)

	var resp Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestErrorMapsKindToStatus(t *testing.T) {
	w, resp := perform(func(c *gin.Context) {
		Error(c, apperrors.New(apperrors.ErrCodeInsufficientStock, "库存不足"))
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apperrors.ErrCodeInsufficientStock, resp.Code)
	assert.Equal(t, "库存不足", resp.Message)

	w, resp = perform(func(c *gin.Context) {
		Error(c, apperrors.ErrForbidden)
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, apperrors.ErrCodeForbidden, resp.Code)
}

func TestErrorHidesInternalCause(t *testing.T) {
	w, resp := perform(func(c *gin.Context) {
		Error(c, errors.New("dial tcp 10.0.0.1:3306: connection refused"))
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, apperrors.ErrCodeInternal, resp.Code)
	assert.NotContains(t, resp.Message, "10.0.0.1")
}

func TestSuccessWithPage(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	SuccessWithPage(c, []int{1, 2, 3}, 21, 2, 10)

	var body struct {
		Data PageData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 3, body.Data.TotalPages)
	assert.Equal(t, int64(21), body.Data.Total)
	assert.Equal(t, 0, TotalPages(5, 0))
}
