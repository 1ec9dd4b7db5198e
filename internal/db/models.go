package db

import "time"

// MergeDecision maps atlas.merge_decisions. Rows are stored with
// group_a < group_b; the gateway canonicalizes orientation before insert so
// existence checks are simple equality lookups.
type MergeDecision struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	DecisionUUID string    `gorm:"column:decision_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	GroupA       string    `gorm:"column:group_a;type:text;not null"`
	GroupB       string    `gorm:"column:group_b;type:text;not null"`
	Verdict      string    `gorm:"column:verdict;type:text;not null"`
	UserAgent    string    `gorm:"column:user_agent;type:text;not null;default:''"`
	ReceivedAt   time.Time `gorm:"column:received_at;type:timestamptz;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (MergeDecision) TableName() string { return "atlas.merge_decisions" }

// Correction maps atlas.corrections. has_coordinates is stored explicitly so
// historical rows keep their meaning even if lat/lon columns later gain
// anomalous values.
type Correction struct {
	ID             int64     `gorm:"column:id;primaryKey;autoIncrement"`
	CorrectionUUID string    `gorm:"column:correction_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	XID            string    `gorm:"column:xid;type:text;not null"`
	GroupKey       *string   `gorm:"column:group_key;type:text"`
	Lat            *float64  `gorm:"column:lat;type:double precision"`
	Lon            *float64  `gorm:"column:lon;type:double precision"`
	HasCoordinates bool      `gorm:"column:has_coordinates;type:boolean;not null;default:false"`
	Verdict        string    `gorm:"column:verdict;type:text;not null"`
	Message        string    `gorm:"column:message;type:text;not null;default:''"`
	Email          *string   `gorm:"column:email;type:text"`
	UserAgent      string    `gorm:"column:user_agent;type:text;not null;default:''"`
	ReceivedAt     time.Time `gorm:"column:received_at;type:timestamptz;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (Correction) TableName() string { return "atlas.corrections" }

func autoMigrateModels() []any {
	return []any{
		&MergeDecision{},
		&Correction{},
	}
}
