package mockapi

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/codenestai/client/internal/models"
)

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates the attempted write would violate a uniqueness constraint.
	ErrConflict = errors.New("record conflict")
	// ErrForbidden indicates the caller may not modify the record.
	ErrForbidden = errors.New("not authorised")
	// ErrLocked indicates the thread no longer accepts replies.
	ErrLocked = errors.New("thread is locked")
)

type account struct {
	user         models.User
	passwordHash []byte
}

type enrollmentRecord struct {
	enrollment models.Enrollment
	userID     string
	completed  []string
}

type commentRecord struct {
	comment models.PostComment
	postID  string
}

type replyRecord struct {
	reply    models.ForumReply
	threadID string
}

// Store is the in-memory state of the mock backend. All methods are safe for concurrent use.
type Store struct {
	mu sync.RWMutex

	accounts map[string]*account
	emails   map[string]string

	courses     []*models.Course
	lessons     map[string][]models.Lesson
	enrollments map[string]*enrollmentRecord

	posts    []*models.Post
	comments map[string]*commentRecord

	categories []models.ForumCategory
	threads    []*models.ForumThread
	replies    []*replyRecord

	now func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		accounts:    make(map[string]*account),
		emails:      make(map[string]string),
		lessons:     make(map[string][]models.Lesson),
		enrollments: make(map[string]*enrollmentRecord),
		comments:    make(map[string]*commentRecord),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) timestamp() string {
	return s.now().Format(time.RFC3339)
}

// CreateUser registers an account. Emails are unique, case-insensitively.
func (s *Store) CreateUser(user models.User, passwordHash []byte) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(user.Email))
	if _, exists := s.emails[email]; exists {
		return models.User{}, ErrConflict
	}

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Role == "" {
		user.Role = models.RoleStudent
	}
	user.Email = email
	user.CreatedAt = s.timestamp()

	s.accounts[user.ID] = &account{user: user, passwordHash: passwordHash}
	s.emails[email] = user.ID
	return user, nil
}

// FindByEmail returns the user and password hash registered under email.
func (s *Store) FindByEmail(email string) (models.User, []byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emails[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return models.User{}, nil, ErrNotFound
	}
	acc := s.accounts[id]
	return acc.user, acc.passwordHash, nil
}

// User returns the user with the given id.
func (s *Store) User(id string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.accounts[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return acc.user, nil
}

// UpdateUser applies the non-nil fields of req to the user.
func (s *Store) UpdateUser(id string, req models.UpdateProfileRequest) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	if req.FirstName != nil {
		acc.user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		acc.user.LastName = *req.LastName
	}
	if req.Bio != nil {
		bio := *req.Bio
		acc.user.Bio = &bio
	}
	if req.AvatarURL != nil {
		avatar := *req.AvatarURL
		acc.user.AvatarURL = &avatar
	}
	return acc.user, nil
}

// AddCourse stores a course and its lessons.
func (s *Store) AddCourse(course models.Course, lessons []models.Lesson) models.Course {
	s.mu.Lock()
	defer s.mu.Unlock()

	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	for i := range lessons {
		if lessons[i].ID == "" {
			lessons[i].ID = uuid.NewString()
		}
		lessons[i].OrderIndex = i
	}
	course.TotalLessons = len(lessons)

	stored := course
	s.courses = append(s.courses, &stored)
	s.lessons[course.ID] = lessons
	return course
}

// Courses returns the published courses, optionally filtered by level.
func (s *Store) Courses(level string) []models.Course {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Course
	for _, c := range s.courses {
		if c.Status != "PUBLISHED" {
			continue
		}
		if level != "" && !strings.EqualFold(c.Level, level) {
			continue
		}
		out = append(out, *c)
	}
	return out
}

// CourseByRef resolves a course by slug or by id.
func (s *Store) CourseByRef(ref string) (models.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := s.courseLocked(ref)
	if c == nil {
		return models.Course{}, ErrNotFound
	}
	return *c, nil
}

func (s *Store) courseLocked(ref string) *models.Course {
	for _, c := range s.courses {
		if c.ID == ref || c.Slug == ref {
			return c
		}
	}
	return nil
}

// Lessons returns the lessons of a course identified by id or slug.
func (s *Store) Lessons(ref string) ([]models.Lesson, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := s.courseLocked(ref)
	if c == nil {
		return nil, ErrNotFound
	}
	return append([]models.Lesson(nil), s.lessons[c.ID]...), nil
}

// InstructorCourses returns every course taught by userID.
func (s *Store) InstructorCourses(userID string) []models.Course {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Course{}
	for _, c := range s.courses {
		if c.Instructor.ID == userID {
			out = append(out, *c)
		}
	}
	return out
}

// Enroll enrolls userID in the course. Enrolling twice is a conflict.
func (s *Store) Enroll(userID, courseID string) (models.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.courseLocked(courseID)
	if c == nil {
		return models.Enrollment{}, ErrNotFound
	}
	for _, rec := range s.enrollments {
		if rec.userID == userID && rec.enrollment.Course.ID == c.ID && rec.enrollment.Status != "CANCELLED" {
			return models.Enrollment{}, ErrConflict
		}
	}

	rec := &enrollmentRecord{
		userID: userID,
		enrollment: models.Enrollment{
			ID:         uuid.NewString(),
			Course:     *c,
			Status:     "ACTIVE",
			EnrolledAt: s.timestamp(),
		},
	}
	s.enrollments[rec.enrollment.ID] = rec
	return rec.enrollment, nil
}

// Enrollments lists the enrollments of userID ordered by enrollment time.
func (s *Store) Enrollments(userID string) []models.Enrollment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Enrollment{}
	for _, rec := range s.enrollments {
		if rec.userID == userID {
			out = append(out, rec.enrollment)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EnrolledAt < out[j].EnrolledAt })
	return out
}

// IsEnrolled reports whether userID holds an active enrollment in the course.
func (s *Store) IsEnrolled(userID, courseID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := s.courseLocked(courseID)
	if c == nil {
		return false, ErrNotFound
	}
	for _, rec := range s.enrollments {
		if rec.userID == userID && rec.enrollment.Course.ID == c.ID && rec.enrollment.Status != "CANCELLED" {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) ownEnrollmentLocked(userID, enrollmentID string) (*enrollmentRecord, error) {
	rec, ok := s.enrollments[enrollmentID]
	if !ok || rec.userID != userID {
		return nil, ErrNotFound
	}
	return rec, nil
}

// Progress reports lesson completion for one of userID's enrollments.
func (s *Store) Progress(userID, enrollmentID string) (models.Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.ownEnrollmentLocked(userID, enrollmentID)
	if err != nil {
		return models.Progress{}, err
	}
	return s.progressLocked(rec), nil
}

func (s *Store) progressLocked(rec *enrollmentRecord) models.Progress {
	percent := 0
	if total := rec.enrollment.Course.TotalLessons; total > 0 {
		percent = len(rec.completed) * 100 / total
	}
	if percent == 100 && rec.enrollment.CompletedAt == nil {
		completedAt := s.timestamp()
		rec.enrollment.CompletedAt = &completedAt
		rec.enrollment.Status = "COMPLETED"
	}
	return models.Progress{
		CompletionPercent: float64(percent),
		CompletedLessons:  append([]string{}, rec.completed...),
		Status:            rec.enrollment.Status,
	}
}

// CompleteLesson marks a lesson of the enrolled course as completed. Repeats are no-ops.
func (s *Store) CompleteLesson(userID, enrollmentID, lessonID string) (models.Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.ownEnrollmentLocked(userID, enrollmentID)
	if err != nil {
		return models.Progress{}, err
	}

	found := false
	for _, l := range s.lessons[rec.enrollment.Course.ID] {
		if l.ID == lessonID {
			found = true
			break
		}
	}
	if !found {
		return models.Progress{}, ErrNotFound
	}

	for _, done := range rec.completed {
		if done == lessonID {
			return s.progressLocked(rec), nil
		}
	}
	rec.completed = append(rec.completed, lessonID)
	return s.progressLocked(rec), nil
}

// CancelEnrollment cancels an enrollment owned by the caller, or any enrollment for admins.
func (s *Store) CancelEnrollment(caller models.User, enrollmentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.enrollments[enrollmentID]
	if !ok {
		return ErrNotFound
	}
	if rec.userID != caller.ID && caller.Role != models.RoleAdmin {
		return ErrForbidden
	}
	rec.enrollment.Status = "CANCELLED"
	return nil
}

// CreatePost publishes a post authored by author.
func (s *Store) CreatePost(author models.User, title, content, postType string) models.Post {
	s.mu.Lock()
	defer s.mu.Unlock()

	post := &models.Post{
		ID:        uuid.NewString(),
		Title:     title,
		Content:   content,
		Type:      postType,
		Author:    author,
		CreatedAt: s.timestamp(),
	}
	s.posts = append(s.posts, post)
	return *post
}

// Posts returns posts newest first, optionally filtered by type.
func (s *Store) Posts(postType string) []models.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Post
	for i := len(s.posts) - 1; i >= 0; i-- {
		p := s.posts[i]
		if postType != "" && !strings.EqualFold(p.Type, postType) {
			continue
		}
		out = append(out, *p)
	}
	return out
}

func (s *Store) postLocked(id string) (int, *models.Post) {
	for i, p := range s.posts {
		if p.ID == id {
			return i, p
		}
	}
	return -1, nil
}

// Post returns a single post.
func (s *Store) Post(id string) (models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, p := s.postLocked(id)
	if p == nil {
		return models.Post{}, ErrNotFound
	}
	return *p, nil
}

// UpdatePost edits a post owned by the caller.
func (s *Store) UpdatePost(caller models.User, id, title, content, postType string) (models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, p := s.postLocked(id)
	if p == nil {
		return models.Post{}, ErrNotFound
	}
	if p.Author.ID != caller.ID && caller.Role != models.RoleAdmin {
		return models.Post{}, ErrForbidden
	}
	if title != "" {
		p.Title = title
	}
	if content != "" {
		p.Content = content
	}
	if postType != "" {
		p.Type = postType
	}
	return *p, nil
}

// LikePost increments the like count.
func (s *Store) LikePost(id string) (models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, p := s.postLocked(id)
	if p == nil {
		return models.Post{}, ErrNotFound
	}
	p.LikeCount++
	return *p, nil
}

// DeletePost removes a post and its comments.
func (s *Store) DeletePost(caller models.User, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, p := s.postLocked(id)
	if p == nil {
		return ErrNotFound
	}
	if p.Author.ID != caller.ID && caller.Role != models.RoleAdmin {
		return ErrForbidden
	}
	s.posts = append(s.posts[:i], s.posts[i+1:]...)
	for cid, c := range s.comments {
		if c.postID == id {
			delete(s.comments, cid)
		}
	}
	return nil
}

// AddComment comments on a post.
func (s *Store) AddComment(author models.User, postID, content string) (models.PostComment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, p := s.postLocked(postID); p == nil {
		return models.PostComment{}, ErrNotFound
	}
	c := models.PostComment{
		ID:        uuid.NewString(),
		Content:   content,
		Author:    author,
		CreatedAt: s.timestamp(),
	}
	s.comments[c.ID] = &commentRecord{comment: c, postID: postID}
	return c, nil
}

// DeleteComment removes a comment written by the caller.
func (s *Store) DeleteComment(caller models.User, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[id]
	if !ok {
		return ErrNotFound
	}
	if c.comment.Author.ID != caller.ID && caller.Role != models.RoleAdmin {
		return ErrForbidden
	}
	delete(s.comments, id)
	return nil
}

// AddCategory stores a forum category.
func (s *Store) AddCategory(category models.ForumCategory) models.ForumCategory {
	s.mu.Lock()
	defer s.mu.Unlock()

	if category.ID == "" {
		category.ID = uuid.NewString()
	}
	category.OrderIndex = len(s.categories)
	s.categories = append(s.categories, category)
	return category
}

// Categories lists forum categories in display order.
func (s *Store) Categories() []models.ForumCategory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.ForumCategory{}, s.categories...)
}

func (s *Store) categoryLocked(slug string) (models.ForumCategory, bool) {
	for _, c := range s.categories {
		if c.Slug == slug {
			return c, true
		}
	}
	return models.ForumCategory{}, false
}

// CreateThread opens a thread in the category identified by slug.
func (s *Store) CreateThread(author models.User, slug, title, body string) (models.ForumThread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	category, ok := s.categoryLocked(slug)
	if !ok {
		return models.ForumThread{}, ErrNotFound
	}
	now := s.timestamp()
	thread := &models.ForumThread{
		ID:             uuid.NewString(),
		Title:          title,
		Body:           body,
		Author:         author,
		Category:       category,
		CreatedAt:      now,
		LastActivityAt: now,
	}
	s.threads = append(s.threads, thread)
	return *thread, nil
}

// Threads lists a category's threads, pinned first and then by latest activity.
func (s *Store) Threads(slug string) ([]models.ForumThread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.categoryLocked(slug); !ok {
		return nil, ErrNotFound
	}
	var out []models.ForumThread
	for _, t := range s.threads {
		if t.Category.Slug == slug {
			out = append(out, *t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsPinned != out[j].IsPinned {
			return out[i].IsPinned
		}
		return out[i].LastActivityAt > out[j].LastActivityAt
	})
	return out, nil
}

func (s *Store) threadLocked(id string) (int, *models.ForumThread) {
	for i, t := range s.threads {
		if t.ID == id {
			return i, t
		}
	}
	return -1, nil
}

// ViewThread returns a thread and counts the view.
func (s *Store) ViewThread(id string) (models.ForumThread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, t := s.threadLocked(id)
	if t == nil {
		return models.ForumThread{}, ErrNotFound
	}
	t.ViewCount++
	return *t, nil
}

// DeleteThread removes a thread and its replies.
func (s *Store) DeleteThread(caller models.User, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, t := s.threadLocked(id)
	if t == nil {
		return ErrNotFound
	}
	if t.Author.ID != caller.ID && caller.Role != models.RoleAdmin {
		return ErrForbidden
	}
	s.threads = append(s.threads[:i], s.threads[i+1:]...)

	kept := s.replies[:0]
	for _, r := range s.replies {
		if r.threadID != id {
			kept = append(kept, r)
		}
	}
	s.replies = kept
	return nil
}

// SetThreadFlags locks and/or pins a thread.
func (s *Store) SetThreadFlags(id string, lock, pin bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, t := s.threadLocked(id)
	if t == nil {
		return ErrNotFound
	}
	if lock {
		t.IsLocked = true
	}
	if pin {
		t.IsPinned = true
	}
	return nil
}

// AddReply answers an unlocked thread.
func (s *Store) AddReply(author models.User, threadID, content string) (models.ForumReply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, t := s.threadLocked(threadID)
	if t == nil {
		return models.ForumReply{}, ErrNotFound
	}
	if t.IsLocked {
		return models.ForumReply{}, ErrLocked
	}

	reply := models.ForumReply{
		ID:        uuid.NewString(),
		Content:   content,
		Author:    author,
		CreatedAt: s.timestamp(),
	}
	s.replies = append(s.replies, &replyRecord{reply: reply, threadID: threadID})
	t.ReplyCount++
	t.LastActivityAt = reply.CreatedAt
	return reply, nil
}

// Replies lists a thread's replies oldest first.
func (s *Store) Replies(threadID string) ([]models.ForumReply, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, t := s.threadLocked(threadID); t == nil {
		return nil, ErrNotFound
	}
	var out []models.ForumReply
	for _, r := range s.replies {
		if r.threadID == threadID {
			out = append(out, r.reply)
		}
	}
	return out, nil
}

func (s *Store) replyLocked(id string) (int, *replyRecord) {
	for i, r := range s.replies {
		if r.reply.ID == id {
			return i, r
		}
	}
	return -1, nil
}

// AcceptReply marks a reply as the accepted answer. Only the thread author or an admin may
// accept.
func (s *Store) AcceptReply(caller models.User, replyID string) (models.ForumReply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, r := s.replyLocked(replyID)
	if r == nil {
		return models.ForumReply{}, ErrNotFound
	}
	_, t := s.threadLocked(r.threadID)
	if t == nil {
		return models.ForumReply{}, ErrNotFound
	}
	if t.Author.ID != caller.ID && caller.Role != models.RoleAdmin {
		return models.ForumReply{}, ErrForbidden
	}
	r.reply.IsAccepted = true
	return r.reply, nil
}

// DeleteReply removes a reply written by the caller.
func (s *Store) DeleteReply(caller models.User, replyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, r := s.replyLocked(replyID)
	if r == nil {
		return ErrNotFound
	}
	if r.reply.Author.ID != caller.ID && caller.Role != models.RoleAdmin {
		return ErrForbidden
	}
	s.replies = append(s.replies[:i], s.replies[i+1:]...)
	if _, t := s.threadLocked(r.threadID); t != nil && t.ReplyCount > 0 {
		t.ReplyCount--
	}
	return nil
}
