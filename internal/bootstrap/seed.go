package bootstrap

import (
	"log"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"learn2b.app/ieltsbackend/internal/model"
)

// Migrate creates or updates the schema for every model.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Course{},
		&model.Lesson{},
		&model.Enrollment{},
		&model.LessonCompletion{},
		&model.Assignment{},
		&model.Submission{},
		&model.Post{},
		&model.PostLike{},
		&model.Comment{},
		&model.Badge{},
		&model.UserBadge{},
		&model.Notification{},
	)
}

// SeedBadges inserts the default badge definitions. Existing badges
// are left untouched so criteria edits in the database survive
// restarts.
func SeedBadges(db *gorm.DB) error {
	defaults := []model.Badge{
		{
			Name:        "First Steps",
			Description: "Complete your first lesson",
			Category:    model.BadgeCategoryCompletion,
			Criteria:    datatypes.JSON(`{"type":"lessons","count":1}`),
		},
		{
			Name:        "Dedicated Learner",
			Description: "Complete 10 lessons",
			Category:    model.BadgeCategoryCompletion,
			Criteria:    datatypes.JSON(`{"type":"lessons","count":10}`),
		},
		{
			Name:        "Week Warrior",
			Description: "Keep a 7-day study streak",
			Category:    model.BadgeCategoryStreak,
			Criteria:    datatypes.JSON(`{"type":"streak","days":7}`),
		},
		{
			Name:        "Unstoppable",
			Description: "Keep a 30-day study streak",
			Category:    model.BadgeCategoryStreak,
			Criteria:    datatypes.JSON(`{"type":"streak","days":30}`),
		},
		{
			Name:        "Community Voice",
			Description: "Create 5 community posts",
			Category:    model.BadgeCategoryCommunity,
			Criteria:    datatypes.JSON(`{"type":"posts","count":5}`),
		},
		{
			Name:        "Band 7 Club",
			Description: "Score 7.0 or higher on a graded assignment",
			Category:    model.BadgeCategoryScore,
			Criteria:    datatypes.JSON(`{"type":"score","min":7}`),
		},
	}

	for _, badge := range defaults {
		var count int64
		if err := db.Model(&model.Badge{}).
			Where("name = ?", badge.Name).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			if err := db.Create(&badge).Error; err != nil {
				return err
			}
		}
	}

	return nil
}

// SeedAdminUser creates a development admin account if none exists.
func SeedAdminUser(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.User{}).
		Where("email = ?", "admin@learn2b.app").
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Println("admin user already exists, skipping seed")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := model.User{
		Email:        "admin@learn2b.app",
		PasswordHash: string(hash),
		FullName:     "Administrator",
		Role:         model.RoleAdmin,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	log.Println("admin user seeded successfully")
	return nil
}
