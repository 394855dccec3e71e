package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/maplequest/maplequest-backend/internal/handlers"
)

func SetupRoutes(r *chi.Mux) {
	// Auth routes
	r.Post("/api/auth/signup", handlers.Signup)
	r.Post("/api/auth/signin", handlers.Signin)
	r.Get("/api/auth/me", handlers.GetMe)
	r.Post("/api/auth/signout", handlers.Signout)

	// Friendship routes
	r.Post("/api/friends/requests", handlers.ProposeFriendship)
	r.Get("/api/friends/requests", handlers.ListFriendRequests)
	r.Post("/api/friends/requests/{id}/accept", handlers.AcceptFriendRequest)
	r.Post("/api/friends/requests/{id}/reject", handlers.RejectFriendRequest)
	r.Get("/api/friends", handlers.ListFriends)
	r.Delete("/api/friends/{userID}", handlers.Unfriend)

	// Landmark catalog
	r.Get("/api/locations", handlers.ListLocations)
	r.Get("/api/locations/{id}", handlers.GetLocation)

	// Visits and visit media
	r.Post("/api/visits", handlers.RecordVisit)
	r.Get("/api/visits", handlers.ListVisits)
	r.Get("/api/visits/{id}", handlers.GetVisit)
	r.Post("/api/images/{id}/like", handlers.LikeImage)

	// File upload routes
	r.Post("/api/upload", handlers.UploadImage)

	// Activity feed
	r.Get("/api/feed", handlers.GetFeed)
	r.Get("/ws/feed", handlers.FeedWebSocket)

	// Achievements
	r.Get("/api/achievements", handlers.ListAchievements)

	// Admin routes
	r.Post("/api/admin/signin", handlers.AdminSignin)
	r.Get("/api/admin/users", handlers.AdminListUsers)
	r.Delete("/api/admin/users/{id}", handlers.AdminDeleteUser)
	r.Put("/api/admin/users/points", handlers.AdminAdjustPoints)
	r.Get("/api/admin/friend-requests", handlers.AdminListFriendRequests)
	r.Get("/api/admin/visits", handlers.AdminListVisits)
	r.Delete("/api/admin/visits/{id}", handlers.AdminDeleteVisit)
	r.Post("/api/admin/locations", handlers.AdminCreateLocation)
	r.Put("/api/admin/locations/{id}", handlers.AdminUpdateLocation)
	r.Delete("/api/admin/locations/{id}", handlers.AdminDeleteLocation)
	r.Post("/api/admin/achievements", handlers.AdminCreateAchievement)
	r.Delete("/api/admin/achievements/{id}", handlers.AdminDeleteAchievement)
}
