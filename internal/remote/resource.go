package remote

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pot-code/learnforge-gateway/internal/domain"
)

var _ domain.ResourceRepository = &Client{}

func (cl *Client) GetLessonResources(ctx context.Context, lessonID int) ([]*domain.ResourceModel, error) {
	var resources []*domain.ResourceModel
	if err := cl.do(ctx, http.MethodGet, fmt.Sprintf("/resources/lesson/%d", lessonID), nil, &resources); err != nil {
		return nil, err
	}
	return resources, nil
}

// AutoFetchLessonResources ask the backend to scrape practice links for the lesson, the answer body is ignored
func (cl *Client) AutoFetchLessonResources(ctx context.Context, lessonID int) error {
	return cl.do(ctx, http.MethodPost, fmt.Sprintf("/resources/lesson/%d/auto-fetch", lessonID), nil, nil)
}
