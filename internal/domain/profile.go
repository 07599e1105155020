package domain

// Profile is the user data returned by the profile endpoint
type Profile struct {
	UserID            string `json:"userId" yaml:"userId"`
	Name              string `json:"name" yaml:"name"`
	Email             string `json:"email" yaml:"email"`
	IsAccountVerified bool   `json:"isAccountVerified" yaml:"isAccountVerified"`
}
