package campaign

import (
	"time"

	"artisan-marketplace/services/moderation"

	"github.com/shopspring/decimal"
)

// Campaign carries denormalized funding counters. CurrentAmount and
// BackersCount are written only by RecordDonation, always through guarded
// expressions, so they stay consistent with the donations table.
type Campaign struct {
	ID               string          `gorm:"column:id;primaryKey"`
	OrganizerID      string          `gorm:"column:organizer_id;index;not null"`
	Title            string          `gorm:"column:title;type:varchar(255);not null"`
	Description      string          `gorm:"column:description;type:text"`
	GoalAmount       decimal.Decimal `gorm:"column:goal_amount;type:decimal(12,2);not null"`
	CurrentAmount    decimal.Decimal `gorm:"column:current_amount;type:decimal(12,2);not null;default:0"`
	BackersCount     int64           `gorm:"column:backers_count;not null;default:0"`
	moderation.State `gorm:"embedded"`
	EndDate          *time.Time `gorm:"column:end_date"`
	CreatedAt        time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Campaign) TableName() string {
	return "campaigns"
}

// Donation is append-only. DonorID is always populated for accounting;
// read paths blank it when IsAnonymous is set.
type Donation struct {
	ID          string          `gorm:"column:id;primaryKey"`
	Code        string          `gorm:"column:code;type:varchar(50);uniqueIndex"`
	CampaignID  string          `gorm:"column:campaign_id;index;not null"`
	DonorID     *string         `gorm:"column:donor_id;index"`
	Amount      decimal.Decimal `gorm:"column:amount;type:decimal(12,2);not null"`
	IsAnonymous bool            `gorm:"column:is_anonymous;not null;default:false"`
	Message     string          `gorm:"column:message;type:text"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (Donation) TableName() string {
	return "donations"
}
