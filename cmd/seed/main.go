package main

import (
	"context"
	"fmt"
	"log"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"bloggiz/internal/config"
	"bloggiz/internal/db"
	"bloggiz/internal/model"
	"bloggiz/internal/repository"
)

const sampleDraftCount = 3

func main() {
	log.Println("Starting seed script...")

	cfg := config.Load()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	if err := gormDB.AutoMigrate(&model.User{}, &model.Post{}); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	ctx := context.Background()
	userRepo := repository.NewUserRepository(gormDB)
	postRepo := repository.NewPostRepository(gormDB)

	admin, err := seedAdmin(ctx, gormDB, userRepo, cfg.SeedAdminEmail, cfg.SeedAdminPassword)
	if err != nil {
		log.Fatalf("Failed to seed admin user: %v", err)
	}
	log.Printf("Admin user ready: %s", admin.Email)

	created, skipped, err := seedPosts(ctx, postRepo, admin)
	if err != nil {
		log.Fatalf("Failed to seed posts: %v", err)
	}

	log.Printf("Seed completed successfully!")
	log.Printf("  - Posts created: %d", created)
	log.Printf("  - Posts already present: %d", skipped)
}

// seedAdmin creates the administrator, or resets its credentials when it
// already exists, so the configured password always applies.
func seedAdmin(ctx context.Context, gormDB *gorm.DB, users repository.UserRepository, email, password string) (*model.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	if existing, err := users.FindByEmail(ctx, email); err == nil {
		log.Printf("Admin user %s already exists, resetting credentials", email)
		existing.PasswordHash = string(hashed)
		existing.Role = model.RoleAdmin
		if err := gormDB.WithContext(ctx).Save(existing).Error; err != nil {
			return nil, err
		}
		return existing, nil
	}

	admin := &model.User{
		Name:         "Admin User",
		Email:        email,
		PasswordHash: string(hashed),
		Role:         model.RoleAdmin,
	}
	if err := users.Create(ctx, admin); err != nil {
		return nil, err
	}
	return admin, nil
}

func seedPosts(ctx context.Context, posts repository.PostRepository, admin *model.User) (created, skipped int, err error) {
	samples := []model.Post{
		{
			Title: "Welcome to Bloggiz",
			Content: "# Welcome to Bloggiz\n\nThis is your first blog post! Bloggiz is a small blogging " +
				"platform: visitors read published posts, administrators manage them from the dashboard.\n\n" +
				"Happy blogging!",
			Excerpt:   "Welcome to Bloggiz - a blogging platform with authentication and role-based access control.",
			Slug:      "welcome-to-bloggiz",
			Published: true,
		},
		{
			Title: "Understanding Authentication in Modern Web Apps",
			Content: "# Understanding Authentication in Modern Web Apps\n\nBloggiz issues session tokens at " +
				"login and checks the administrator role before every mutating operation. Passwords are " +
				"hashed with bcrypt and sessions can be revoked server-side at logout.",
			Excerpt:   "A look at how authentication and role-based access control work in Bloggiz.",
			Slug:      "understanding-authentication-modern-web-apps",
			Published: true,
		},
	}

	// A few generated drafts so the admin dashboard has unpublished content
	// to work with out of the box.
	for i := 0; i < sampleDraftCount; i++ {
		samples = append(samples, model.Post{
			Title:     gofakeit.Sentence(4),
			Content:   gofakeit.Paragraph(3, 4, 12, "\n\n"),
			Excerpt:   gofakeit.Sentence(10),
			Slug:      fmt.Sprintf("draft-%s-%s", gofakeit.Word(), gofakeit.DigitN(4)),
			Published: false,
		})
	}

	for i := range samples {
		exists, err := posts.ExistsBySlug(ctx, samples[i].Slug)
		if err != nil {
			return created, skipped, err
		}
		if exists {
			log.Printf("Post already exists: %s", samples[i].Title)
			skipped++
			continue
		}
		samples[i].AuthorID = admin.ID
		if err := posts.Create(ctx, &samples[i]); err != nil {
			return created, skipped, err
		}
		log.Printf("Created post: %s", samples[i].Title)
		created++
	}

	return created, skipped, nil
}
