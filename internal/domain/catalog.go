package domain

import "time"

// Carrier is an external telecom partner that reports maintenance tasks.
// Resolved by name on demand and created transparently when absent.
type Carrier struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"type:text;uniqueIndex" json:"name"`
}

// TableName returns the database table name for Carrier.
func (Carrier) TableName() string {
	return "carriers"
}

// Client owns services and receives maintenance notices. Recipients is the
// default notification list; CarrierRecipients overrides it per carrier.
type Client struct {
	ID                uint         `gorm:"primaryKey" json:"id"`
	Name              string       `gorm:"type:text;uniqueIndex" json:"name"`
	Recipients        StringArray  `gorm:"type:text" json:"recipients,omitempty"`
	CarrierRecipients RecipientMap `gorm:"type:text" json:"carrier_recipients,omitempty"`
}

// TableName returns the database table name for Client.
func (Client) TableName() string {
	return "clients"
}

// Conversation stores one chat exchange handled by the assistant.
type Conversation struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"type:text;index" json:"user_id"`
	Message   string    `gorm:"type:text" json:"message"`
	Reply     string    `gorm:"type:text" json:"reply"`
	Mode      string    `gorm:"type:text" json:"mode"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName returns the database table name for Conversation.
func (Conversation) TableName() string {
	return "conversations"
}
