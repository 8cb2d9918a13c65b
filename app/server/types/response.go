package types

// Response is the envelope of every successful answer.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse is the envelope of every failed answer. Error holds one of
// the categories in the constants package.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type Pagination struct {
	Current int64 `json:"current"`
	Pages   int64 `json:"pages"`
	Total   int64 `json:"total"`
	Limit   int64 `json:"limit"`
}

type UserList struct {
	Users      any        `json:"users"`
	Pagination Pagination `json:"pagination"`
}

// UserWithToken is answered by registration and login.
type UserWithToken struct {
	User  any    `json:"user"`
	Token string `json:"token"`
}
