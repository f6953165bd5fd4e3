package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Commodity string  `json:"commodity" validate:"required"`
	AreaHa    float64 `json:"areaHa" validate:"gte=0.1,lte=1000"`
	Email     string  `json:"email,omitempty" validate:"omitempty,email"`
}

func TestValidateStruct(t *testing.T) {
	t.Run("valid struct passes", func(t *testing.T) {
		err := ValidateStruct(&sampleRequest{Commodity: "Padi", AreaHa: 1})
		assert.NoError(t, err)
	})

	t.Run("reports json field names", func(t *testing.T) {
		err := ValidateStruct(&sampleRequest{AreaHa: 0})
		require.Error(t, err)

		var reqErr *RequestValidationError
		require.True(t, errors.As(err, &reqErr))
		require.Len(t, reqErr.Fields, 2)
		assert.Equal(t, "commodity", reqErr.Fields[0].Field)
		assert.Equal(t, "required", reqErr.Fields[0].Tag)
		assert.Equal(t, "areaHa", reqErr.Fields[1].Field)
		assert.Equal(t, "areaHa must be at least 0.1", reqErr.Fields[1].Message)
	})

	t.Run("upper bound", func(t *testing.T) {
		err := ValidateStruct(&sampleRequest{Commodity: "Padi", AreaHa: 5000})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "areaHa must be at most 1000")
	})

	t.Run("optional email is checked only when present", func(t *testing.T) {
		assert.NoError(t, ValidateStruct(&sampleRequest{Commodity: "Padi", AreaHa: 1, Email: ""}))

		err := ValidateStruct(&sampleRequest{Commodity: "Padi", AreaHa: 1, Email: "not-an-email"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "email must be a valid email address")
	})
}

func TestGinValidator(t *testing.T) {
	v := GinValidator{}

	assert.NoError(t, v.ValidateStruct(nil))
	assert.NoError(t, v.ValidateStruct([]int{1}))
	assert.NoError(t, v.ValidateStruct((*sampleRequest)(nil)))
	assert.NoError(t, v.ValidateStruct(&sampleRequest{Commodity: "Padi", AreaHa: 2}))

	err := v.ValidateStruct(&sampleRequest{AreaHa: 2})
	var reqErr *RequestValidationError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, "commodity", reqErr.Fields[0].Field)

	assert.Same(t, GetValidator(), v.Engine())
}
