package models

const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"

	UserContextKey = "user"
)

// APIResponse is the envelope every endpoint answers with.
type APIResponse struct {
	StatusCode int         `json:"statusCode"`
	Data       interface{} `json:"data"`
	Message    string      `json:"message"`
	Success    bool        `json:"success"`
}

func NewAPIResponse(statusCode int, data interface{}, message string) *APIResponse {
	return &APIResponse{
		StatusCode: statusCode,
		Data:       data,
		Message:    message,
		Success:    statusCode < 400,
	}
}
