package campaign

import (
	"context"
	"time"

	"artisan-marketplace/pkg/authz"
	dbpkg "artisan-marketplace/pkg/db"
	"artisan-marketplace/pkg/db/option"
	"artisan-marketplace/pkg/db/pagination"
	"artisan-marketplace/pkg/errutil"
	"artisan-marketplace/pkg/repository"
	"artisan-marketplace/pkg/sequence"
	"artisan-marketplace/services/moderation"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service is the funding ledger: campaign counters move only through
// RecordDonation, one transaction per donation.
type Service struct {
	db       *gorm.DB
	node     *snowflake.Node
	seq      sequence.Generator
	gate     *moderation.Gate
	enforcer *authz.Enforcer

	campaigns repository.Repository[Campaign]
	donations repository.Repository[Donation]
}

type ServiceParams struct {
	fx.In

	DB       *gorm.DB
	Node     *snowflake.Node
	Seq      sequence.Generator
	Gate     *moderation.Gate
	Enforcer *authz.Enforcer
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:        p.DB,
		node:      p.Node,
		seq:       p.Seq,
		gate:      p.Gate,
		enforcer:  p.Enforcer,
		campaigns: repository.ProvideStore[Campaign](p.DB),
		donations: repository.ProvideStore[Donation](p.DB),
	}
}

type CreateCampaignInput struct {
	Title       string
	Description string
	GoalAmount  decimal.Decimal
	EndDate     *time.Time
}

func (s *Service) CreateCampaign(ctx context.Context, p authz.Principal, in CreateCampaignInput) (*Campaign, error) {
	if !s.enforcer.Can(p, authz.ObjectContent, authz.ActionCreate) {
		return nil, errutil.Forbidden("not allowed to create campaigns", nil)
	}
	if in.Title == "" {
		return nil, errutil.ValidationFailed("title is required", nil)
	}
	if !in.GoalAmount.IsPositive() {
		return nil, errutil.ValidationFailed("goal_amount must be greater than zero", nil)
	}

	c := &Campaign{
		ID:            s.node.Generate().String(),
		OrganizerID:   p.ID,
		Title:         in.Title,
		Description:   in.Description,
		GoalAmount:    in.GoalAmount,
		CurrentAmount: decimal.Zero,
		State:         moderation.State{Status: s.gate.InitialStatus(p)},
		EndDate:       in.EndDate,
	}

	if err := s.campaigns.Create(ctx, c); err != nil {
		zap.L().Error("failed to create campaign", zap.Error(err))
		return nil, err
	}

	return c, nil
}

type RecordDonationInput struct {
	CampaignID  string
	Amount      decimal.Decimal
	IsAnonymous bool
	Message     string
}

// RecordDonation appends the donation row and bumps the campaign counters
// in one transaction. The campaign row is locked first so concurrent
// donations to the same campaign serialize; the counter updates are
// guarded expressions, never read-modify-write.
func (s *Service) RecordDonation(ctx context.Context, p authz.Principal, in RecordDonationInput) (*Donation, error) {
	if !s.enforcer.Can(p, authz.ObjectDonation, authz.ActionRecord) {
		return nil, errutil.Forbidden("not allowed to donate", nil)
	}
	if in.CampaignID == "" {
		return nil, errutil.ValidationFailed("campaign_id is required", nil)
	}
	if !in.Amount.IsPositive() {
		return nil, errutil.ValidationFailed("amount must be greater than zero", nil)
	}

	var recorded *Donation
	err := dbpkg.RunInTransaction(s.db, func(tx *gorm.DB) error {
		c, err := s.campaigns.WithTrx(tx).FindOne(ctx, &Campaign{ID: in.CampaignID}, option.WithLockingUpdate())
		if err != nil {
			return err
		}
		if c == nil || !c.PubliclyVisible() {
			return errutil.NotFound("campaign not found", nil)
		}

		code, err := s.seq.NextDonationCode(ctx)
		if err != nil {
			return err
		}

		donorID := p.ID
		d := &Donation{
			ID:          s.node.Generate().String(),
			Code:        code,
			CampaignID:  c.ID,
			DonorID:     &donorID,
			Amount:      in.Amount,
			IsAnonymous: in.IsAnonymous,
			Message:     in.Message,
		}
		if err := s.donations.WithTrx(tx).Create(ctx, d); err != nil {
			return err
		}

		res := tx.Model(&Campaign{}).Where("id = ?", c.ID).Updates(map[string]any{
			"current_amount": gorm.Expr("current_amount + ?", in.Amount),
			"backers_count":  gorm.Expr("backers_count + ?", 1),
			"updated_at":     time.Now(),
		})
		if res.Error != nil {
			return res.Error
		}

		recorded = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("donation recorded",
		zap.String("donation_id", recorded.ID),
		zap.String("campaign_id", recorded.CampaignID),
		zap.String("amount", recorded.Amount.String()),
	)
	return recorded, nil
}

type Totals struct {
	CurrentAmount decimal.Decimal `json:"current_amount"`
	BackersCount  int64           `json:"backers_count"`
}

// visibleCampaign loads one campaign for a read path. A campaign that is
// not approved stays hidden from everyone but its organizer and
// administrators.
func (s *Service) visibleCampaign(ctx context.Context, p authz.Principal, id string) (*Campaign, error) {
	c, err := s.campaigns.FindOne(ctx, &Campaign{ID: id})
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, errutil.NotFound("campaign not found", nil)
	}
	if !c.PubliclyVisible() && c.OrganizerID != p.ID && !p.IsAdmin() {
		return nil, errutil.NotFound("campaign not found", nil)
	}
	return c, nil
}

// GetCampaignTotals reads the denormalized counters. No aggregation query;
// RecordDonation keeps them exact.
func (s *Service) GetCampaignTotals(ctx context.Context, p authz.Principal, id string) (*Totals, error) {
	c, err := s.visibleCampaign(ctx, p, id)
	if err != nil {
		return nil, err
	}
	return &Totals{CurrentAmount: c.CurrentAmount, BackersCount: c.BackersCount}, nil
}

func (s *Service) GetCampaign(ctx context.Context, p authz.Principal, id string) (*Campaign, error) {
	return s.visibleCampaign(ctx, p, id)
}

// ListDonations returns a campaign's donations newest-first. Anonymous
// donations keep their accounting row but the donor never leaves this
// method.
func (s *Service) ListDonations(ctx context.Context, p authz.Principal, campaignID string, page pagination.Pagination) ([]*Donation, error) {
	if _, err := s.visibleCampaign(ctx, p, campaignID); err != nil {
		return nil, err
	}

	limit := page.Limit
	if limit <= 0 {
		limit = 10
	}

	donations, err := s.donations.Find(ctx, &Donation{CampaignID: campaignID},
		option.WithSortBy(option.QuerySortBy{SortBy: "created_at", OrderBy: "desc"}),
		option.WithLimit(limit),
	)
	if err != nil {
		return nil, err
	}

	for _, d := range donations {
		if d.IsAnonymous {
			d.DonorID = nil
		}
	}
	return donations, nil
}

// ListPublic returns approved campaigns, newest first.
func (s *Service) ListPublic(ctx context.Context, page pagination.Pagination) ([]*Campaign, *pagination.PageInfo, error) {
	limit := page.Limit
	if limit <= 0 {
		limit = 10
	}

	opts := []option.QueryOption{
		option.ApplyOperator(option.Condition{Field: "moderation_status", Operator: option.EQ, Value: moderation.StatusApproved}),
		option.WithSortBy(option.QuerySortBy{SortBy: "created_at", OrderBy: "desc"}),
		option.WithLimit(limit + 1),
	}
	if page.Cursor != "" {
		cursor, err := pagination.DecodeCursor(page.Cursor)
		if err != nil {
			return nil, nil, errutil.ValidationFailed("invalid cursor", err)
		}
		opts = append(opts, option.ApplyOperator(option.Condition{
			Field: "created_at", Operator: option.LT, Value: cursor.CreatedAt,
		}))
	}

	campaigns, err := s.campaigns.Find(ctx, &Campaign{}, opts...)
	if err != nil {
		return nil, nil, err
	}

	campaigns, info := pagination.BuildCursorPageInfo(campaigns, limit, func(c *Campaign) string {
		cur, _ := pagination.EncodeCursor(pagination.Cursor{CreatedAt: c.CreatedAt.UTC().Format(time.RFC3339Nano), ID: c.ID})
		return cur
	})

	return campaigns, info, nil
}
