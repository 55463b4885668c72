package models

// Role enumerates the platform roles a user can hold.
type Role string

const (
	RoleStudent    Role = "STUDENT"
	RoleInstructor Role = "INSTRUCTOR"
	RoleAdmin      Role = "ADMIN"
)

// User represents an account on the CodeNest platform.
type User struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	AvatarURL *string `json:"avatarUrl"`
	Bio       *string `json:"bio"`
	Role      Role    `json:"role"`
	CreatedAt string  `json:"createdAt"`
}

// AuthResponse is returned by every endpoint that issues credentials.
type AuthResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	User         User   `json:"user"`
}

// UpdateProfileRequest carries the editable profile fields. Nil fields are left untouched.
type UpdateProfileRequest struct {
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Bio       *string `json:"bio,omitempty"`
	AvatarURL *string `json:"avatarUrl,omitempty"`
}

// Course is a published learning track.
type Course struct {
	ID               string  `json:"id"`
	Title            string  `json:"title"`
	Slug             string  `json:"slug"`
	Description      string  `json:"description"`
	ShortDescription string  `json:"shortDescription"`
	ThumbnailURL     *string `json:"thumbnailUrl"`
	Price            float64 `json:"price"`
	Currency         string  `json:"currency"`
	Level            string  `json:"level"`
	Status           string  `json:"status"`
	DurationMinutes  int     `json:"durationMinutes"`
	TotalLessons     int     `json:"totalLessons"`
	Instructor       User    `json:"instructor"`
}

// Lesson is a single unit within a course.
type Lesson struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Slug            string  `json:"slug"`
	Content         string  `json:"content"`
	VideoURL        *string `json:"videoUrl"`
	DurationMinutes int     `json:"durationMinutes"`
	OrderIndex      int     `json:"orderIndex"`
	IsFreePreview   bool    `json:"isFreePreview"`
}

// Enrollment links a user to a course.
type Enrollment struct {
	ID          string  `json:"id"`
	Course      Course  `json:"course"`
	Status      string  `json:"status"`
	EnrolledAt  string  `json:"enrolledAt"`
	CompletedAt *string `json:"completedAt"`
}

// EnrollmentStatus reports whether the current user is enrolled in a course.
type EnrollmentStatus struct {
	Enrolled bool `json:"enrolled"`
}

// Progress summarises lesson completion for an enrollment.
type Progress struct {
	CompletionPercent float64  `json:"completionPercent"`
	CompletedLessons  []string `json:"completedLessons"`
	Status            string   `json:"status"`
}

// Post types accepted by the community feed.
const (
	PostTypeDiscussion = "DISCUSSION"
	PostTypeQuestion   = "QUESTION"
	PostTypeShowcase   = "SHOWCASE"
)

// Post is a community feed entry.
type Post struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Type      string `json:"type"`
	LikeCount int    `json:"likeCount"`
	Author    User   `json:"author"`
	CreatedAt string `json:"createdAt"`
}

// PostComment is a reply to a community post.
type PostComment struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	LikeCount int    `json:"likeCount"`
	Author    User   `json:"author"`
	CreatedAt string `json:"createdAt"`
}

// ForumCategory groups forum threads.
type ForumCategory struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Description string  `json:"description"`
	IconURL     *string `json:"iconUrl"`
	OrderIndex  int     `json:"orderIndex"`
}

// ForumThread is a discussion started within a category.
type ForumThread struct {
	ID             string        `json:"id"`
	Title          string        `json:"title"`
	Body           string        `json:"body"`
	IsPinned       bool          `json:"isPinned"`
	IsLocked       bool          `json:"isLocked"`
	ViewCount      int           `json:"viewCount"`
	ReplyCount     int           `json:"replyCount"`
	Author         User          `json:"author"`
	Category       ForumCategory `json:"category"`
	CreatedAt      string        `json:"createdAt"`
	LastActivityAt string        `json:"lastActivityAt"`
}

// ForumReply is an answer posted to a thread.
type ForumReply struct {
	ID         string `json:"id"`
	Content    string `json:"content"`
	IsAccepted bool   `json:"isAccepted"`
	LikeCount  int    `json:"likeCount"`
	Author     User   `json:"author"`
	CreatedAt  string `json:"createdAt"`
}

// Page is the paginated envelope returned by list endpoints.
type Page[T any] struct {
	Content       []T  `json:"content"`
	TotalElements int  `json:"totalElements"`
	TotalPages    int  `json:"totalPages"`
	Number        int  `json:"number"`
	Size          int  `json:"size"`
	Last          bool `json:"last"`
}
