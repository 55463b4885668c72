package mockapi

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/codenestai/client/internal/models"
)

// Seeded accounts. The passwords are for local use only.
const (
	AdminEmail         = "admin@codenest.dev"
	AdminPassword      = "admin-password"
	InstructorEmail    = "instructor@codenest.dev"
	InstructorPassword = "instructor-password"
	StudentEmail       = "student@codenest.dev"
	StudentPassword    = "student-password"
)

type seedAccount struct {
	email     string
	password  string
	firstName string
	lastName  string
	role      models.Role
}

var seedAccounts = []seedAccount{
	{AdminEmail, AdminPassword, "Ada", "Admin", models.RoleAdmin},
	{InstructorEmail, InstructorPassword, "Ines", "Instructor", models.RoleInstructor},
	{StudentEmail, StudentPassword, "Sam", "Student", models.RoleStudent},
}

// Seed populates store with accounts, a course catalogue, forum categories and a first
// post. cost is the bcrypt cost used for the seeded passwords.
func Seed(store *Store, cost int) error {
	users := make(map[models.Role]models.User, len(seedAccounts))
	for _, acc := range seedAccounts {
		hash, err := bcrypt.GenerateFromPassword([]byte(acc.password), cost)
		if err != nil {
			return fmt.Errorf("hash seed password: %w", err)
		}
		user, err := store.CreateUser(models.User{
			Email:     acc.email,
			FirstName: acc.firstName,
			LastName:  acc.lastName,
			Role:      acc.role,
		}, hash)
		if err != nil {
			return fmt.Errorf("seed user %s: %w", acc.email, err)
		}
		users[acc.role] = user
	}

	instructor := users[models.RoleInstructor]
	store.AddCourse(models.Course{
		Title:            "Go Fundamentals",
		Slug:             "go-fundamentals",
		Description:      "Types, functions, packages and the standard toolchain.",
		ShortDescription: "Start writing Go.",
		Currency:         "USD",
		Level:            "BEGINNER",
		Status:           "PUBLISHED",
		DurationMinutes:  90,
		Instructor:       instructor,
	}, []models.Lesson{
		{Title: "Hello, Go", Slug: "hello-go", Content: "Install Go and run your first program.", DurationMinutes: 15, IsFreePreview: true},
		{Title: "Types and Values", Slug: "types-and-values", Content: "Basic types, structs and slices.", DurationMinutes: 35},
		{Title: "Packages", Slug: "packages", Content: "Modules, packages and visibility.", DurationMinutes: 40},
	})
	store.AddCourse(models.Course{
		Title:            "Concurrency Patterns",
		Slug:             "concurrency-patterns",
		Description:      "Goroutines, channels, contexts and synchronisation.",
		ShortDescription: "Structure concurrent programs.",
		Price:            49,
		Currency:         "USD",
		Level:            "INTERMEDIATE",
		Status:           "PUBLISHED",
		DurationMinutes:  120,
		Instructor:       instructor,
	}, []models.Lesson{
		{Title: "Goroutines", Slug: "goroutines", Content: "Starting and stopping work.", DurationMinutes: 40, IsFreePreview: true},
		{Title: "Channels", Slug: "channels", Content: "Communicating between goroutines.", DurationMinutes: 40},
		{Title: "Context", Slug: "context", Content: "Cancellation and deadlines.", DurationMinutes: 40},
		{Title: "sync", Slug: "sync", Content: "Mutexes, once and wait groups.", DurationMinutes: 30},
	})
	store.AddCourse(models.Course{
		Title:           "Distributed Systems",
		Slug:            "distributed-systems",
		Description:     "Consensus, replication and failure.",
		Currency:        "USD",
		Level:           "ADVANCED",
		Status:          "DRAFT",
		DurationMinutes: 240,
		Instructor:      instructor,
	}, nil)

	for _, category := range []models.ForumCategory{
		{Name: "General", Slug: "general", Description: "Anything about learning on CodeNest."},
		{Name: "Go", Slug: "go", Description: "Questions about the Go courses."},
		{Name: "Careers", Slug: "careers", Description: "Jobs, interviews and portfolios."},
	} {
		store.AddCategory(category)
	}
	if _, err := store.CreateThread(users[models.RoleAdmin], "general", "Welcome", "Introduce yourself here."); err != nil {
		return fmt.Errorf("seed thread: %w", err)
	}

	store.CreatePost(instructor, "New course: Concurrency Patterns", "Enrollment is open.", models.PostTypeDiscussion)
	return nil
}
