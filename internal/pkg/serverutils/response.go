package serverutils

// GenericErrorMessage is all a client ever sees of an internal failure.
const GenericErrorMessage = "An error occurred during processing."

type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type ErrorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func SuccessResponse(message string, data interface{}) Response {
	return Response{Success: true, Message: message, Data: data}
}

func ErrorResponse(message string) ErrorBody {
	return ErrorBody{Error: message}
}
