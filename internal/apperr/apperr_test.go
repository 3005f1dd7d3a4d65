package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPersistenceKeepsStoreMessage(t *testing.T) {
	err := Persistence("insert playlist item", errors.New(`duplicate key value violates unique constraint "playlist_items_pkey"`))
	assert.True(t, IsPersistence(err))
	assert.Equal(t, `duplicate key value violates unique constraint "playlist_items_pkey"`, err.Error())
}

func TestPersistencePassesNotFoundAndNil(t *testing.T) {
	assert.Nil(t, Persistence("get", nil))

	err := Persistence("get", fmt.Errorf("media: %w", ErrNotFound))
	assert.False(t, IsPersistence(err))
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestPersistenceDoesNotDoubleWrap(t *testing.T) {
	inner := Persistence("update", errors.New("boom"))
	outer := Persistence("append", inner)
	assert.Same(t, inner, outer)
}

func TestValidationInputError(t *testing.T) {
	err := Invalid("days_of_week", "at least one day is required")
	assert.True(t, IsValidation(err))
	assert.Equal(t, "days_of_week: at least one day is required", err.Error())

	assert.Equal(t, "bad", (&ValidationInputError{Message: "bad"}).Error())
	assert.False(t, IsValidation(errors.New("other")))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, 400, HTTPStatus(Invalid("days_of_week", "at least one day is required")))
	assert.Equal(t, 404, HTTPStatus(fmt.Errorf("asset: %w", ErrNotFound)))
	assert.Equal(t, 422, HTTPStatus(ErrMediaNotApproved))
	assert.Equal(t, 500, HTTPStatus(Persistence("insert", errors.New("connection reset"))))
}
