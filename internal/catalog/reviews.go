package catalog

import (
	"context"
	"strings"
	"time"

	"egadget-storefront/internal/models"
	"egadget-storefront/internal/resilience"
)

const reviewDelay = time.Second

type ReviewPoster interface {
	AddReview(ctx context.Context, id string, rating int, comment string) (models.Product, error)
}

type Reviews struct {
	api        ReviewPoster
	policy     *resilience.DualPath
	delayScale float64
}

func NewReviews(api ReviewPoster, policy *resilience.DualPath, delayScale float64) *Reviews {
	return &Reviews{api: api, policy: policy, delayScale: delayScale}
}

// Submit posts a review. When the API cannot take it the submission is
// acknowledged after a short simulated delay.
func (r *Reviews) Submit(ctx context.Context, productID string, rating int, comment string) error {
	if rating < 1 || rating > 5 {
		return models.Invalid("rating must be between 1 and 5")
	}
	if strings.TrimSpace(comment) == "" {
		return models.Invalid("comment is required")
	}

	return r.policy.Run(ctx, "catalog.review",
		func(ctx context.Context) error {
			_, err := r.api.AddReview(ctx, productID, rating, comment)
			return err
		},
		func() error {
			return resilience.Pause(ctx, resilience.Scale(reviewDelay, r.delayScale))
		},
	)
}
