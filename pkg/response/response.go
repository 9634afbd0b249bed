package response

import "github.com/go-playground/validator/v10"

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Response is the JSON envelope every API handler renders.
type Response struct {
	Status  string            `json:"status"`
	Error   string            `json:"error,omitempty"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
	Data    any               `json:"data,omitempty"`
}

// ValidationError describes a single failed request field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var EmptyRequestBodyResponse = Response{
	Status:  StatusError,
	Error:   "Empty Request Body",
	Message: "Request body is empty. Please provide necessary data.",
}

var BadRequestResponse = Response{
	Status:  StatusError,
	Error:   "Bad Request",
	Message: "Request body is invalid. Please check the data format.",
}

var ResourceNotFoundResponse = Response{
	Status:  StatusError,
	Error:   "Resource Not Found",
	Message: "The requested resource was not found.",
}

var ServerErrorResponse = Response{
	Status:  StatusError,
	Error:   "Server Error",
	Message: "An internal server error occurred. Please try again later.",
}

var ServiceUnavailableResponse = Response{
	Status:  StatusError,
	Error:   "Service Unavailable",
	Message: "Service temporarily unavailable. Please try again later.",
}

func SuccessResponse(msg string, data ...any) Response {
	resp := Response{
		Status:  StatusSuccess,
		Message: msg,
	}

	if len(data) > 0 {
		resp.Data = data[0]
	}

	return resp
}

func ErrorResponse(err, msg string, data ...any) Response {
	resp := Response{
		Status:  StatusError,
		Error:   err,
		Message: msg,
	}

	if len(data) > 0 {
		resp.Data = data[0]
	}

	return resp
}

// ValidationErrorResponse flattens validator errors into per-field messages.
func ValidationErrorResponse(err error) Response {
	return Response{
		Status:  StatusError,
		Error:   "Validation Error",
		Message: "The request contains invalid fields.",
		Errors:  getValidationErrors(err),
	}
}

func messageForTag(tag string) string {
	switch tag {
	case "required":
		return "this field is required"
	case "url":
		return "invalid url"
	case "max":
		return "value is too long"
	default:
		return "invalid value"
	}
}

func getValidationErrors(err error) []ValidationError {
	var validationErrs []ValidationError

	errs, ok := err.(validator.ValidationErrors)
	if ok {
		for _, e := range errs {
			validationErrs = append(validationErrs, ValidationError{
				Field:   e.Field(),
				Message: messageForTag(e.Tag()),
			})
		}
	}

	return validationErrs
}
