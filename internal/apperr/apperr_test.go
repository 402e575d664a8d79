package apperr

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtensions(t *testing.T) {
	err := InvalidInput([]FieldError{{Message: "Email is invalid"}})

	ext := err.Extensions()
	assert.Equal(t, http.StatusUnprocessableEntity, ext["status"])
	assert.Equal(t, "InvalidInput", ext["kind"])
	assert.Equal(t, []FieldError{{Message: "Email is invalid"}}, ext["data"])

	_, ok := NotAuthorized().Extensions()["data"]
	assert.False(t, ok)
}

func TestKindThroughWrapping(t *testing.T) {
	err := fmt.Errorf("resolver failed, %w", NotFound("Post not found."))

	assert.True(t, IsKind(err, KindNotFound))
	assert.False(t, IsKind(err, KindConflict))
	assert.Equal(t, http.StatusNotFound, Status(err))
	assert.Equal(t, http.StatusInternalServerError, Status(fmt.Errorf("plain")))
}

func TestConflictKeepsDefaultStatus(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, Conflict("User exists already!").Status)
	assert.Equal(t, http.StatusForbidden, NotAuthenticated(http.StatusForbidden).Status)
}
