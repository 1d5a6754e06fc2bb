package server

import (
	"log"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"
	"learn2b.app/ieltsbackend/internal/config"
	"learn2b.app/ieltsbackend/internal/handler"
	"learn2b.app/ieltsbackend/internal/middleware"
	"learn2b.app/ieltsbackend/internal/repository"
	"learn2b.app/ieltsbackend/internal/service"
	"learn2b.app/ieltsbackend/pkg/storage"
)

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
}

func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *Server {
	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	postRepo := repository.NewPostRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	badgeRepo := repository.NewBadgeRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	fileStorage, err := storage.NewCloudinaryStorage()
	if err != nil {
		log.Printf("cloudinary unavailable, uploads disabled: %v", err)
		fileStorage = nil
	}

	meiliHost := cfg.MeiliSearchHost
	if !strings.HasPrefix(meiliHost, "http") {
		meiliHost = "http://" + meiliHost + ":7700"
	}
	meiliClient := meilisearch.New(meiliHost, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
	searchSvc := service.NewSearchService(meiliClient)

	notificationSvc := service.NewNotificationService(notificationRepo, redisClient)
	badgeSvc := service.NewBadgeService(badgeRepo, lessonRepo, postRepo, notificationSvc)
	gamificationSvc := service.NewGamificationService(userRepo, lessonRepo, likeRepo, commentRepo, postRepo, badgeSvc)

	var googleConfig *oauth2.Config
	if cfg.GoogleClientID != "" {
		googleConfig = &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		}
	}

	authSvc := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTTTL, cfg.TeacherSecret, googleConfig)
	courseSvc := service.NewCourseService(courseRepo, lessonRepo, gamificationSvc, searchSvc)
	assignmentSvc := service.NewAssignmentService(assignmentRepo, submissionRepo, gamificationSvc, badgeSvc, notificationSvc, fileStorage)
	postSvc := service.NewPostService(postRepo, commentRepo, gamificationSvc, badgeSvc, notificationSvc, searchSvc, redisClient, cfg.RateLimitPost, cfg.RateLimitComment)
	profileSvc := service.NewProfileService(userRepo, lessonRepo, submissionRepo, badgeSvc, fileStorage, redisClient)
	adminSvc := service.NewAdminService(userRepo, courseRepo, postRepo, commentRepo, submissionRepo, badgeRepo, gamificationSvc, searchSvc)

	authHandler := handler.NewAuthHandler(authSvc, cfg.FrontendURL)
	courseHandler := handler.NewCourseHandler(courseSvc)
	assignmentHandler := handler.NewAssignmentHandler(assignmentSvc)
	postHandler := handler.NewPostHandler(postSvc)
	profileHandler := handler.NewProfileHandler(profileSvc)
	adminHandler := handler.NewAdminHandler(adminSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc, redisClient)
	searchHandler := handler.NewSearchHandler(searchSvc)

	router := gin.New()
	setupCORS(router, cfg.AllowedOrigins)
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	authMiddleware := middleware.NewAuthMiddleware(userRepo, cfg.JWTSecret)

	api := router.Group("/api")

	// Public routes (no auth required)
	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.GET("/google/login", authHandler.GoogleLogin)
		auth.GET("/google/callback", authHandler.GoogleCallback)
	}

	api.GET("/courses", courseHandler.GetCourses)
	api.GET("/courses/slug/:slug", courseHandler.GetCourseBySlug)
	api.GET("/search/posts", searchHandler.SearchPosts)
	api.GET("/search/courses", searchHandler.SearchCourses)

	// Protected routes
	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	protected.Use(middleware.GlobalWriteLimit(redisClient, cfg.RateLimitGlobal))
	{
		// Learning
		protected.POST("/courses/:id/enroll", courseHandler.Enroll)
		protected.GET("/courses/:id/progress", courseHandler.GetProgress)
		protected.GET("/enrollments", courseHandler.GetMyEnrollments)
		protected.POST("/lessons/:id/complete", courseHandler.CompleteLesson)

		// Assignments
		protected.GET("/assignments", assignmentHandler.GetAssignments)
		protected.GET("/assignments/:id", assignmentHandler.GetAssignment)
		protected.POST("/assignments/:id/submit", assignmentHandler.Submit)
		protected.GET("/submissions/me", assignmentHandler.GetMySubmissions)

		// Community
		protected.GET("/posts", postHandler.GetPosts)
		protected.GET("/posts/:id", postHandler.GetPost)
		protected.POST("/posts", postHandler.CreatePost)
		protected.PUT("/posts/:id", postHandler.UpdatePost)
		protected.DELETE("/posts/:id", postHandler.DeletePost)
		protected.POST("/posts/:id/like", postHandler.ToggleLike)
		protected.GET("/posts/:id/comments", postHandler.GetComments)
		protected.POST("/posts/:id/comments", postHandler.CreateComment)
		protected.DELETE("/comments/:id", postHandler.DeleteComment)

		// Profile and gamification
		protected.GET("/profile/me", profileHandler.GetMe)
		protected.PUT("/profile/me", profileHandler.UpdateMe)
		protected.GET("/profile/me/stats", profileHandler.GetStats)
		protected.POST("/profile/me/avatar", profileHandler.UploadAvatar)
		protected.GET("/profile/me/badges", profileHandler.GetMyBadges)
		protected.GET("/users/:id/badges", profileHandler.GetUserBadges)
		protected.GET("/leaderboard", profileHandler.Leaderboard)

		// Notifications
		protected.GET("/notifications", notificationHandler.GetNotifications)
		protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		protected.PUT("/notifications/:id/read", notificationHandler.MarkAsRead)
		protected.PUT("/notifications/read-all", notificationHandler.MarkAllAsRead)
		protected.GET("/notifications/ws", notificationHandler.HandleWebSocket)

		// Teacher routes
		teacherGroup := protected.Group("/teach")
		teacherGroup.Use(authMiddleware.RequireTeacher())
		{
			teacherGroup.POST("/courses", courseHandler.CreateCourse)
			teacherGroup.PUT("/courses/:id", courseHandler.UpdateCourse)
			teacherGroup.GET("/courses", courseHandler.GetAllCourses)
			teacherGroup.POST("/lessons", courseHandler.CreateLesson)
			teacherGroup.POST("/assignments", assignmentHandler.CreateAssignment)
			teacherGroup.GET("/assignments/:id/submissions", assignmentHandler.GetSubmissions)
			teacherGroup.POST("/submissions/:id/grade", assignmentHandler.Grade)
		}

		// Admin routes
		adminGroup := protected.Group("/admin")
		adminGroup.Use(authMiddleware.RequireAdmin())
		{
			adminGroup.GET("/dashboard", adminHandler.GetDashboard)
			adminGroup.GET("/users", adminHandler.GetUsers)
			adminGroup.PUT("/users/:id/role", adminHandler.UpdateUserRole)
			adminGroup.PUT("/posts/:id/hidden", adminHandler.SetPostHidden)
			adminGroup.PUT("/posts/:id/pinned", adminHandler.SetPostPinned)
			adminGroup.PUT("/comments/:id/hidden", adminHandler.SetCommentHidden)
			adminGroup.POST("/badges", adminHandler.CreateBadge)
		}
	}

	return &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
	}
}

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

// Engine exposes the router for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func setupCORS(router *gin.Engine, allowedOrigins string) {
	var origins []string
	if allowedOrigins != "" {
		origins = strings.Split(allowedOrigins, ",")
	} else {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
