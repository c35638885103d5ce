package model

type Account struct {
	Provider Provider `json:"provider"`
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Email    string   `json:"email,omitempty"`
}
