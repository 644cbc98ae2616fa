package moderation

import (
	"fmt"
	"time"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// ParseStatus resolves a review-queue filter. Empty input selects the
// pending queue.
func ParseStatus(raw string) (Status, error) {
	if raw == "" {
		return StatusPending, nil
	}
	s := Status(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown moderation status %q", raw)
	}
	return s, nil
}

// State is the shared moderation value embedded in every moderated content
// model (Product, Campaign, Story). RejectionReason is set only while the
// row is rejected and cleared on re-approval.
type State struct {
	Status          Status `gorm:"column:moderation_status;type:varchar(20);not null;default:'pending';index" json:"moderation_status"`
	RejectionReason string `gorm:"column:rejection_reason;type:text" json:"rejection_reason,omitempty"`
}

// PubliclyVisible reports whether the moderation state alone allows the row
// in public listings. Story layers its own published flag on top.
func (s State) PubliclyVisible() bool {
	return s.Status == StatusApproved
}

// Kind identifies which content type a gate operation targets.
type Kind string

const (
	KindProduct  Kind = "product"
	KindCampaign Kind = "campaign"
	KindStory    Kind = "story"
)

func ParseKind(raw string) (Kind, error) {
	k := Kind(raw)
	switch k {
	case KindProduct, KindCampaign, KindStory:
		return k, nil
	}
	return "", fmt.Errorf("unknown content kind %q", raw)
}

// ReviewItem is a review-queue row: the content row joined with its
// creator's display name.
type ReviewItem struct {
	ID          string    `json:"id"`
	Kind        Kind      `json:"kind"`
	Title       string    `json:"title"`
	Status      Status    `json:"moderation_status"`
	CreatorID   string    `json:"creator_id"`
	CreatorName string    `json:"creator_name"`
	CreatedAt   time.Time `json:"created_at"`
}
