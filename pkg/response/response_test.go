package response

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

func TestSuccessResponse(t *testing.T) {
	t.Run("without data", func(t *testing.T) {
		resp := SuccessResponse("done")

		assert.Equal(t, StatusSuccess, resp.Status)
		assert.Equal(t, "done", resp.Message)
		assert.Nil(t, resp.Data)
	})

	t.Run("with data", func(t *testing.T) {
		resp := SuccessResponse("done", map[string]string{"short_id": "abc123"})

		assert.Equal(t, StatusSuccess, resp.Status)
		assert.NotNil(t, resp.Data)
	})
}

func TestErrorResponse(t *testing.T) {
	resp := ErrorResponse("Conflict", "already in use")

	assert.Equal(t, StatusError, resp.Status)
	assert.Equal(t, "Conflict", resp.Error)
	assert.Equal(t, "already in use", resp.Message)
}

func TestValidationErrorResponse(t *testing.T) {
	type req struct {
		LongURL string `json:"long_url" validate:"required,url"`
	}

	validate := validator.New()
	err := validate.Struct(req{LongURL: "not a url"})

	resp := ValidationErrorResponse(err)

	assert.Equal(t, StatusError, resp.Status)
	assert.Equal(t, "Validation Error", resp.Error)
	if assert.Len(t, resp.Errors, 1) {
		assert.Equal(t, "invalid url", resp.Errors[0].Message)
	}
}
