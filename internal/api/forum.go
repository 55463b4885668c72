package api

import (
	"context"
	"net/http"

	"github.com/codenestai/client/internal/models"
)

type threadInput struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type replyInput struct {
	Content string `json:"content"`
}

// ForumService covers forum categories, threads and replies.
type ForumService struct {
	client *Client
}

// Categories lists every forum category.
func (s *ForumService) Categories(ctx context.Context) ([]models.ForumCategory, error) {
	var categories []models.ForumCategory
	if err := s.client.do(ctx, http.MethodGet, "/forum/categories", nil, false, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// Threads returns a page of threads in the category identified by slug.
func (s *ForumService) Threads(ctx context.Context, slug string, opts PageOptions) (*models.Page[models.ForumThread], error) {
	var page models.Page[models.ForumThread]
	path := withQuery("/forum/categories/"+segment(slug)+"/threads", opts.query(defaultSize))
	if err := s.client.do(ctx, http.MethodGet, path, nil, false, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Thread returns a single thread.
func (s *ForumService) Thread(ctx context.Context, id string) (*models.ForumThread, error) {
	var thread models.ForumThread
	if err := s.client.do(ctx, http.MethodGet, "/forum/threads/"+segment(id), nil, false, &thread); err != nil {
		return nil, err
	}
	return &thread, nil
}

// CreateThread opens a thread in the category identified by slug.
func (s *ForumService) CreateThread(ctx context.Context, slug, title, body string) (*models.ForumThread, error) {
	var thread models.ForumThread
	path := "/forum/categories/" + segment(slug) + "/threads"
	if err := s.client.do(ctx, http.MethodPost, path, threadInput{Title: title, Body: body}, true, &thread); err != nil {
		return nil, err
	}
	return &thread, nil
}

// DeleteThread removes a thread.
func (s *ForumService) DeleteThread(ctx context.Context, id string) error {
	return s.client.do(ctx, http.MethodDelete, "/forum/threads/"+segment(id), nil, true, nil)
}

// LockThread closes a thread to new replies. Admin only.
func (s *ForumService) LockThread(ctx context.Context, id string) error {
	return s.client.do(ctx, http.MethodPost, "/forum/threads/"+segment(id)+"/lock", emptyBody, true, nil)
}

// PinThread pins a thread to the top of its category. Admin only.
func (s *ForumService) PinThread(ctx context.Context, id string) error {
	return s.client.do(ctx, http.MethodPost, "/forum/threads/"+segment(id)+"/pin", emptyBody, true, nil)
}

// Replies returns a page of replies to a thread. The default page size is 50.
func (s *ForumService) Replies(ctx context.Context, threadID string, opts PageOptions) (*models.Page[models.ForumReply], error) {
	var page models.Page[models.ForumReply]
	path := withQuery("/forum/threads/"+segment(threadID)+"/replies", opts.query(defaultReplySize))
	if err := s.client.do(ctx, http.MethodGet, path, nil, false, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Reply answers a thread as the authenticated user.
func (s *ForumService) Reply(ctx context.Context, threadID, content string) (*models.ForumReply, error) {
	var reply models.ForumReply
	path := "/forum/threads/" + segment(threadID) + "/replies"
	if err := s.client.do(ctx, http.MethodPost, path, replyInput{Content: content}, true, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// AcceptReply marks a reply as the accepted answer.
func (s *ForumService) AcceptReply(ctx context.Context, replyID string) (*models.ForumReply, error) {
	var reply models.ForumReply
	if err := s.client.do(ctx, http.MethodPost, "/forum/replies/"+segment(replyID)+"/accept", emptyBody, true, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// DeleteReply removes a reply.
func (s *ForumService) DeleteReply(ctx context.Context, replyID string) error {
	return s.client.do(ctx, http.MethodDelete, "/forum/replies/"+segment(replyID), nil, true, nil)
}
