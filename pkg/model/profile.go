package model

// DefaultProfileName is used when no profile has been saved yet
const DefaultProfileName = "Gardener"

// UserProfile is the single user record. Avatar is an encoded image or nil.
type UserProfile struct {
	Name   string  `json:"name" yaml:"name"`
	Avatar *string `json:"avatar" yaml:"avatar,omitempty"`
}

// DefaultProfile returns the profile used before the user saves one
func DefaultProfile() *UserProfile {
	return &UserProfile{Name: DefaultProfileName}
}
