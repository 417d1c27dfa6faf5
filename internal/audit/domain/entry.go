package domain

import "time"

const (
	ActionOrderCreated       = "ORDER_CREATED"
	ActionOrderStatusUpdated = "ORDER_STATUS_UPDATED"
	ActionUserRegistered     = "USER_REGISTERED"

	EntityOrder = "ORDER"
	EntityUser  = "USER"
)

type Entry struct {
	ID         int64
	UserID     int64
	Action     string
	EntityType string
	EntityID   int64
	Details    string
	CreatedAt  time.Time
}

func NewEntry(userID int64, action, entityType string, entityID int64, details string) Entry {
	return Entry{
		UserID:     userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
		CreatedAt:  time.Now().UTC(),
	}
}
