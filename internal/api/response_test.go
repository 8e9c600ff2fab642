package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/askdsa/internal/domain"
)

func handle(t *testing.T, err error) (int, string) {
	t.Helper()
	w := httptest.NewRecorder()
	HandleError(w, err)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w.Code, resp.Error
}

func TestHandleError(t *testing.T) {
	t.Run("validation errors keep their message", func(t *testing.T) {
		status, message := handle(t, domain.ErrMissingQuestion)

		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "question is required", message)
	})

	t.Run("not found errors keep their message", func(t *testing.T) {
		status, message := handle(t, domain.ErrDocumentNotFound)

		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "source document not found", message)
	})

	t.Run("upstream failures collapse to the generic message", func(t *testing.T) {
		err := domain.ErrVectorStoreFailed.WithCause(errors.New("dial tcp 10.0.0.4: refused"))
		status, message := handle(t, err)

		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Equal(t, GenericErrorMessage, message)
		assert.NotContains(t, message, "10.0.0.4")
	})

	t.Run("plain errors collapse to the generic message", func(t *testing.T) {
		status, message := handle(t, errors.New("boom"))

		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Equal(t, GenericErrorMessage, message)
	})
}

func TestDomainErrorToHTTP(t *testing.T) {
	assert.Equal(t, http.StatusOK, DomainErrorToHTTP(nil))
	assert.Equal(t, http.StatusBadRequest, DomainErrorToHTTP(domain.ErrMissingSessionID))
	assert.Equal(t, http.StatusNotFound, DomainErrorToHTTP(domain.ErrDocumentNotFound))
	assert.Equal(t, http.StatusInternalServerError, DomainErrorToHTTP(domain.ErrGenerationFailed))
	assert.Equal(t, http.StatusInternalServerError, DomainErrorToHTTP(errors.New("boom")))
}
