package domain

import "time"

// Account groups the trades of one user.
type Account struct {
	ID        int64
	UserID    int64  `validate:"gt=0"`
	Name      string `validate:"required,max=64"`
	CreatedAt time.Time
}

// Validate checks the account before it is stored.
func (a *Account) Validate() error {
	return validateStruct(a)
}

// Actor identifies on whose behalf an operation runs.
// It is passed explicitly through every journal call.
type Actor struct {
	AccountID int64
}
