package types

// UserData is the session and profile snapshot returned by the backend.
type UserData struct {
	ID         string `json:"id" yaml:"id"`
	Email      string `json:"email" yaml:"email"`
	Name       string `json:"name" yaml:"name"`
	Plan       string `json:"plan" yaml:"plan"`
	APIVersion string `json:"api_version" yaml:"api_version"`
}
