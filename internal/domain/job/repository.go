package job

import (
	"context"

	"jobportal/internal/common"
)

type Repository interface {
	Create(ctx context.Context, job Job) (*Job, error)
	// Update persists j when it is owned by j.PostedBy.ID.
	Update(ctx context.Context, job Job) (*Job, error)
	GetByID(ctx context.Context, id common.UUID) (*Job, error)
	List(ctx context.Context, filter Filter, page common.Page) ([]Job, int, error)
	ListByPoster(ctx context.Context, posterID common.UUID) ([]Job, error)
	IncrementViews(ctx context.Context, id common.UUID) error
	// DeleteOwned removes the job and returns it, or a not_found error when the
	// job does not exist or is owned by someone else.
	DeleteOwned(ctx context.Context, id, posterID common.UUID) (*Job, error)
}
