package domain

// Account status constants (shared with the user module's users table)
const (
	AccountStatusActive    = 1
	AccountStatusSuspended = 2
	AccountStatusBanned    = 3
)

// Account is the wallet's view of a player: the authoritative balance and
// an active flag. Identity fields live in the user module; both map onto
// the same users table.
type Account struct {
	UserID  int64 `json:"user_id" gorm:"primaryKey;column:user_id"`
	Balance int64 `json:"balance" gorm:"column:balance;not null;default:0"`
	Status  int   `json:"status" gorm:"column:status;default:1"`
}

// TableName maps Account onto the users table
func (Account) TableName() string {
	return "users"
}

// IsActive checks whether the account may move money
func (a *Account) IsActive() bool {
	return a.Status == AccountStatusActive
}
