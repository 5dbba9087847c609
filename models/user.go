package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type Settings struct {
	PushEnabled  bool `bson:"pushEnabled" json:"pushEnabled"`
	ReminderHour int  `bson:"reminderHour" json:"reminderHour"` // local hour 0-23 for check-in reminders
}

type User struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Email        string               `bson:"email" json:"email"`
	Username     string               `bson:"username" json:"username"`
	DisplayName  string               `bson:"displayName" json:"displayName"`
	Avatar       string               `bson:"avatar" json:"avatar"`
	PasswordHash *string              `bson:"passwordHash,omitempty" json:"-"`
	Groups       []primitive.ObjectID `bson:"groups" json:"groups"` // ordered by join time, most recent last
	Logs         []primitive.ObjectID `bson:"logs" json:"logs"`
	Settings     Settings             `bson:"settings" json:"settings"`
	Credits      int                  `bson:"credits" json:"credits"`
	Pledges      []bool               `bson:"pledges" json:"pledges"` // 7 flags, Monday first
	ResetCode    string               `bson:"resetCode,omitempty" json:"-"`
	CreatedAt    int64                `bson:"createdAt" json:"createdAt"`
	LastSeen     int64                `bson:"lastSeen" json:"lastSeen"`
}
