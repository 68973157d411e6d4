package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"backend/internal/config"
	"backend/internal/database"
	"backend/internal/handlers"
	"backend/internal/middleware"
	"backend/internal/orders"
	"backend/internal/store"
)

func main() {
	config.Load()

	client, err := database.Connect(config.AppEnv.MongoURI)
	if err != nil {
		log.Fatal(err)
	}

	db := client.Database(config.AppEnv.DBName)

	log.Println("MongoDB connected to:", db.Name())

	if err := database.EnsureProductIndexes(db); err != nil {
		log.Printf("product index warning: %v", err)
	}
	if err := database.EnsureCategoryIndexes(db); err != nil {
		log.Printf("category index warning: %v", err)
	}
	if err := database.EnsureUserIndexes(db); err != nil {
		log.Printf("user index warning: %v", err)
	}
	if err := database.EnsureOrderIndexes(db); err != nil {
		log.Printf("order index warning: %v", err)
	}

	st := store.NewMongoStore(db)
	orderService := orders.NewService(st, st, config.AppEnv.OrderTimeout)

	secret := config.AppEnv.JWTSecret
	accessTTL := config.AppEnv.AccessTokenTTL
	refreshTTL := config.AppEnv.RefreshTokenTTL

	r := gin.Default()
	r.Static("/uploads", config.AppEnv.UploadDir)

	api := r.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/register", handlers.Register(db, secret, accessTTL, refreshTTL))
		auth.POST("/login", handlers.Login(db, secret, accessTTL, refreshTTL))
		auth.POST("/refresh", handlers.Refresh(db, secret, accessTTL, refreshTTL))
		auth.POST("/logout", handlers.Logout(db))
		auth.GET("/me", middleware.UserAuth(secret), handlers.GetMe(db))
	}

	products := api.Group("/products")
	{
		products.GET("", handlers.GetProducts(st))
		products.GET("/:idOrSlug", handlers.GetProduct(st))
		products.POST("", middleware.AdminAuth(secret), handlers.CreateProduct(st))
		products.PUT("/:id", middleware.AdminAuth(secret), handlers.UpdateProduct(st))
		products.DELETE("/:id", middleware.AdminAuth(secret), handlers.DeleteProduct(st))
	}

	categories := api.Group("/categories")
	{
		categories.GET("", handlers.GetCategories(db))
		categories.POST("", middleware.AdminAuth(secret), handlers.CreateCategory(db))
		categories.PUT("/:id", middleware.AdminAuth(secret), handlers.UpdateCategory(db))
		categories.DELETE("/:id", middleware.AdminAuth(secret), handlers.DeleteCategory(db))
	}

	orderRoutes := api.Group("/orders")
	{
		orderRoutes.POST("", middleware.OptionalUser(secret), handlers.CreateOrder(orderService))
		orderRoutes.GET("/myorders", middleware.UserAuth(secret), handlers.GetMyOrders(st))
		orderRoutes.GET("", middleware.AdminAuth(secret), handlers.GetOrders(st))
		orderRoutes.PUT("/:id/deliver", middleware.AdminAuth(secret), handlers.DeliverOrder(st))
	}

	users := api.Group("/users")
	{
		users.GET("", middleware.AdminAuth(secret), handlers.GetUsers(db))
		users.PUT("/profile", middleware.UserAuth(secret), handlers.UpdateProfile(db))
		users.DELETE("/:id", middleware.AdminAuth(secret), handlers.DeleteUser(db))
	}

	// Address routes live under /user to keep the :id wildcard above from
	// clashing with a static "addresses" segment in the same method tree.
	addresses := api.Group("/user/addresses", middleware.UserAuth(secret))
	{
		addresses.GET("", handlers.GetUserAddresses(db))
		addresses.POST("", handlers.CreateUserAddress(db))
		addresses.PUT("/:id", handlers.UpdateUserAddress(db))
		addresses.DELETE("/:id", handlers.DeleteUserAddress(db))
	}

	settings := api.Group("/settings")
	{
		settings.GET("", handlers.GetSettings(db))
		settings.PUT("", middleware.AdminAuth(secret), handlers.UpdateSettings(db))
	}

	api.POST("/upload", middleware.AdminAuth(secret), handlers.UploadImage(config.AppEnv.UploadDir))

	port := os.Getenv("PORT")
	if port == "" {
		port = "5000"
	}
	r.Run(":" + port)
}
