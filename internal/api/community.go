package api

import (
	"context"
	"net/http"

	"github.com/codenestai/client/internal/models"
)

// PostListOptions filters the community feed.
type PostListOptions struct {
	PageOptions
	// Type restricts results to DISCUSSION, QUESTION or SHOWCASE when set.
	Type string
}

// PostInput carries the editable fields of a post.
type PostInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Type    string `json:"type"`
}

type commentInput struct {
	Content string `json:"content"`
}

// CommunityService covers community posts and comments.
type CommunityService struct {
	client *Client
}

// Posts returns a page of the community feed.
func (s *CommunityService) Posts(ctx context.Context, opts PostListOptions) (*models.Page[models.Post], error) {
	q := opts.query(defaultSize)
	if opts.Type != "" {
		q.Set("type", opts.Type)
	}

	var page models.Page[models.Post]
	if err := s.client.do(ctx, http.MethodGet, withQuery("/community/posts", q), nil, false, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Post returns a single post.
func (s *CommunityService) Post(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	if err := s.client.do(ctx, http.MethodGet, "/community/posts/"+segment(id), nil, false, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// Create publishes a post as the authenticated user.
func (s *CommunityService) Create(ctx context.Context, in PostInput) (*models.Post, error) {
	var post models.Post
	if err := s.client.do(ctx, http.MethodPost, "/community/posts", in, true, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// Update edits a post owned by the authenticated user.
func (s *CommunityService) Update(ctx context.Context, id string, in PostInput) (*models.Post, error) {
	var post models.Post
	if err := s.client.do(ctx, http.MethodPut, "/community/posts/"+segment(id), in, true, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// Like increments a post's like count. It does not require authentication.
func (s *CommunityService) Like(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	if err := s.client.do(ctx, http.MethodPost, "/community/posts/"+segment(id)+"/like", emptyBody, false, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// AddComment comments on a post as the authenticated user.
func (s *CommunityService) AddComment(ctx context.Context, postID, content string) (*models.PostComment, error) {
	var comment models.PostComment
	path := "/community/posts/" + segment(postID) + "/comments"
	if err := s.client.do(ctx, http.MethodPost, path, commentInput{Content: content}, true, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

// DeletePost removes a post.
func (s *CommunityService) DeletePost(ctx context.Context, id string) error {
	return s.client.do(ctx, http.MethodDelete, "/community/posts/"+segment(id), nil, true, nil)
}

// DeleteComment removes a comment.
func (s *CommunityService) DeleteComment(ctx context.Context, id string) error {
	return s.client.do(ctx, http.MethodDelete, "/community/comments/"+segment(id), nil, true, nil)
}
