package model

// AuthResult is the response body of every auth endpoint. On success Token
// and RefreshToken are set; on failure Errors carries user-facing messages.
type AuthResult struct {
	Token        string   `json:"token"`
	RefreshToken string   `json:"refreshToken"`
	IsSuccess    bool     `json:"isSuccess"`
	Errors       []string `json:"errors"`
}

// Failed builds an unsuccessful AuthResult.
func Failed(messages ...string) AuthResult {
	return AuthResult{IsSuccess: false, Errors: messages}
}
