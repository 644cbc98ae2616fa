package story

import (
	"context"
	"time"

	"artisan-marketplace/pkg/authz"
	"artisan-marketplace/pkg/db/option"
	"artisan-marketplace/pkg/db/pagination"
	"artisan-marketplace/pkg/errutil"
	"artisan-marketplace/pkg/repository"
	"artisan-marketplace/services/moderation"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db       *gorm.DB
	node     *snowflake.Node
	gate     *moderation.Gate
	enforcer *authz.Enforcer

	stories repository.Repository[Story]
}

type ServiceParams struct {
	fx.In

	DB       *gorm.DB
	Node     *snowflake.Node
	Gate     *moderation.Gate
	Enforcer *authz.Enforcer
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:       p.DB,
		node:     p.Node,
		gate:     p.Gate,
		enforcer: p.Enforcer,
		stories:  repository.ProvideStore[Story](p.DB),
	}
}

type CreateStoryInput struct {
	Title string
	Body  string
}

func (s *Service) CreateStory(ctx context.Context, p authz.Principal, in CreateStoryInput) (*Story, error) {
	if !s.enforcer.Can(p, authz.ObjectContent, authz.ActionCreate) {
		return nil, errutil.Forbidden("not allowed to create stories", nil)
	}
	if in.Title == "" {
		return nil, errutil.ValidationFailed("title is required", nil)
	}

	st := &Story{
		ID:       s.node.Generate().String(),
		AuthorID: p.ID,
		Title:    in.Title,
		Body:     in.Body,
		State:    moderation.State{Status: s.gate.InitialStatus(p)},
	}

	if err := s.stories.Create(ctx, st); err != nil {
		zap.L().Error("failed to create story", zap.Error(err))
		return nil, err
	}

	return st, nil
}

type UpdateStoryInput struct {
	Title *string
	Body  *string
}

func (s *Service) UpdateStory(ctx context.Context, p authz.Principal, id string, in UpdateStoryInput) (*Story, error) {
	st, err := s.stories.FindOne(ctx, &Story{ID: id})
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, errutil.NotFound("story not found", nil)
	}
	if st.AuthorID != p.ID && !p.IsAdmin() {
		return nil, errutil.Forbidden("not the story author", nil)
	}

	if in.Title != nil {
		if *in.Title == "" {
			return nil, errutil.ValidationFailed("title must not be empty", nil)
		}
		st.Title = *in.Title
	}
	if in.Body != nil {
		st.Body = *in.Body
	}

	st.State = s.gate.OnContentEdited(st.State)

	updates := map[string]any{
		"title":             st.Title,
		"body":              st.Body,
		"moderation_status": st.Status,
		"rejection_reason":  st.RejectionReason,
		"updated_at":        time.Now(),
	}
	if err := s.stories.Update(ctx, st.ID, updates); err != nil {
		zap.L().Error("failed to update story", zap.Error(err), zap.String("story_id", id))
		return nil, err
	}

	return st, nil
}

// SetPublished toggles the author's publish flag. Moderation state is not
// touched; an approved but unpublished story stays private.
func (s *Service) SetPublished(ctx context.Context, p authz.Principal, id string, published bool) (*Story, error) {
	st, err := s.stories.FindOne(ctx, &Story{ID: id})
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, errutil.NotFound("story not found", nil)
	}
	if st.AuthorID != p.ID && !p.IsAdmin() {
		return nil, errutil.Forbidden("not the story author", nil)
	}

	if err := s.stories.Update(ctx, st.ID, map[string]any{
		"is_published": published,
		"updated_at":   time.Now(),
	}); err != nil {
		return nil, err
	}

	st.IsPublished = published
	return st, nil
}

// GetStory returns one story. A story that is not both approved and
// published stays hidden from everyone but its author and administrators.
func (s *Service) GetStory(ctx context.Context, p authz.Principal, id string) (*Story, error) {
	st, err := s.stories.FindOne(ctx, &Story{ID: id})
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, errutil.NotFound("story not found", nil)
	}
	if !st.Visible() && st.AuthorID != p.ID && !p.IsAdmin() {
		return nil, errutil.NotFound("story not found", nil)
	}
	return st, nil
}

// ListPublic returns approved, published stories, newest first.
func (s *Service) ListPublic(ctx context.Context, page pagination.Pagination) ([]*Story, *pagination.PageInfo, error) {
	limit := page.Limit
	if limit <= 0 {
		limit = 10
	}

	opts := []option.QueryOption{
		option.ApplyOperator(option.Condition{Field: "moderation_status", Operator: option.EQ, Value: moderation.StatusApproved}),
		option.ApplyOperator(option.Condition{Field: "is_published", Operator: option.EQ, Value: true}),
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

	stories, err := s.stories.Find(ctx, &Story{}, opts...)
	if err != nil {
		return nil, nil, err
	}

	stories, info := pagination.BuildCursorPageInfo(stories, limit, func(st *Story) string {
		c, _ := pagination.EncodeCursor(pagination.Cursor{CreatedAt: st.CreatedAt.UTC().Format(time.RFC3339Nano), ID: st.ID})
		return c
	})

	return stories, info, nil
}
