package domain

import (
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
)

// ActionKind classifies a balance mutation. Bet and blind debit; win and
// refund credit. These four are the only monetary actions in the system.
type ActionKind string

const (
	ActionBet    ActionKind = "bet"
	ActionBlind  ActionKind = "blind"
	ActionWin    ActionKind = "win"
	ActionRefund ActionKind = "refund"
)

// Entry is one immutable ledger record. It is written together with the
// balance mutation it describes and is never updated or deleted.
type Entry struct {
	EntryID       int64      `json:"entry_id" gorm:"primaryKey;column:entry_id"`
	GameID        int64      `json:"game_id" gorm:"column:game_id;index"`
	UserID        int64      `json:"user_id" gorm:"column:user_id;index"`
	Action        ActionKind `json:"action" gorm:"column:action;not null"`
	Amount        int64      `json:"amount" gorm:"column:amount;not null"`
	BalanceBefore int64      `json:"balance_before" gorm:"column:balance_before;not null"`
	BalanceAfter  int64      `json:"balance_after" gorm:"column:balance_after;not null"`
	Description   string     `json:"description" gorm:"column:description"`
	CreatedAt     time.Time  `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

// TableName maps Entry to the ledger_entries table
func (Entry) TableName() string {
	return "ledger_entries"
}

var (
	node *snowflake.Node
	once sync.Once
)

// InitSnowflake fixes the generator node. Call once at startup, before
// any ID is generated; a distributed deployment must give each instance
// a unique node.
func InitSnowflake(nodeID int64) error {
	var err error
	once.Do(func() {
		node, err = snowflake.NewNode(nodeID)
	})
	return err
}

// NewID generates a snowflake ID for entries, games and matches.
// Defaults to node 1 when InitSnowflake was not called.
func NewID() int64 {
	once.Do(func() {
		var err error
		node, err = snowflake.NewNode(1)
		if err != nil {
			panic(err)
		}
	})
	return node.Generate().Int64()
}

// NewEntry creates an unsaved entry. BalanceBefore/After are filled by the
// repository inside the same atomic commit as the balance mutation.
func NewEntry(gameID, userID int64, action ActionKind, amount int64, description string) *Entry {
	return &Entry{
		EntryID:     NewID(),
		GameID:      gameID,
		UserID:      userID,
		Action:      action,
		Amount:      amount,
		Description: description,
		CreatedAt:   time.Now(),
	}
}
