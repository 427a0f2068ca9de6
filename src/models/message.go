package models

import "pbs/src/types"

// Message is a direct, group or support message. A nil RecipientID with a nil
// GroupID means the message goes to support staff.
type Message struct {
	ID          uint   `gorm:"primarykey" json:"id"`
	SenderID    uint   `gorm:"index" json:"sender_id,omitempty"`
	RecipientID *uint  `gorm:"index" json:"recipient_id,omitempty"`
	GroupID     *uint  `gorm:"index" json:"group_id,omitempty"`
	Content     string `json:"content,omitempty"`
	IsRead      bool   `gorm:"default:false" json:"is_read"`

	Sender    *User         `gorm:"foreignKey:sender_id" json:"sender,omitempty"`
	Recipient *User         `gorm:"foreignKey:recipient_id" json:"recipient,omitempty"`
	Group     *MessageGroup `gorm:"foreignKey:group_id" json:"group,omitempty"`

	types.Timestamps
}

type MessageGroup struct {
	ID          uint    `gorm:"primarykey" json:"id"`
	Name        string  `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	CreatorID   uint    `json:"creator_id,omitempty"`
	IsPrivate   bool    `gorm:"default:true" json:"is_private"`

	Creator  *User     `gorm:"foreignKey:creator_id" json:"creator,omitempty"`
	Members  []*User   `gorm:"many2many:group_memberships;" json:"members,omitempty"`
	Messages []Message `gorm:"foreignKey:group_id" json:"messages,omitempty"`

	types.Timestamps
}
