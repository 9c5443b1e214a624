package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"municipio/models"
	"municipio/pkg/apperr"
	"municipio/pkg/approval"
	"municipio/pkg/assets"
	"municipio/pkg/cascade"
	"municipio/pkg/mailer"
	"municipio/pkg/otp"
)

// Services wired in main and shared by the handlers.
var (
	store    assets.Store
	uploader *assets.Coordinator
	deleter  *cascade.Orchestrator
	workflow *approval.Workflow
	recovery *otp.StateMachine
	notifier mailer.Notifier
)

const adminRole = "administrator"

func setupRoutes(r *gin.Engine) {
	r.POST("/register", registerHandler)
	r.POST("/login", loginHandler)
	r.POST("/refresh", refreshHandler)
	r.POST("/revoke_refresh", revokeRefreshHandler)

	r.POST("/password/recovery", requestRecoveryHandler)
	r.POST("/password/validate", validateRecoveryHandler)
	r.POST("/password/change", changePasswordHandler)

	r.GET("/categories", listCategoriesHandler)
	r.GET("/parishes", listParishesHandler)
	r.GET("/public/businesses", publicBusinessesHandler)
	r.GET("/public/businesses/:id", publicBusinessDetailHandler)
	r.GET("/public/promos", publicPromosHandler)
	r.GET("/public/events", listEventsHandler)
	r.GET("/public/events/:id", getEventHandler)

	authGroup := r.Group("")
	authGroup.Use(jwtAuthMiddleware())
	authGroup.GET("/me", meHandler)
	authGroup.PUT("/me", updateUserHandler)
	authGroup.GET("/me/dashboard", userDashboardHandler)

	authGroup.POST("/businesses", createBusinessHandler)
	authGroup.GET("/businesses", myBusinessesHandler)
	authGroup.PUT("/businesses/:id", updateBusinessHandler)
	authGroup.POST("/businesses/:id/deletion-request", requestDeletionHandler)

	authGroup.POST("/businesses/:id/promos", createPromoHandler)
	authGroup.GET("/businesses/:id/promos", businessPromosHandler)
	authGroup.PUT("/promos/:id", updatePromoHandler)
	authGroup.DELETE("/promos/:id", deletePromoHandler)

	adminGroup := authGroup.Group("/admin")
	adminGroup.Use(adminOnlyMiddleware())
	adminGroup.GET("/users/pending", pendingUsersHandler)
	adminGroup.PUT("/users/:id/decision", decideUserHandler)
	adminGroup.GET("/users/:id/documents", listUserDocumentsHandler)
	adminGroup.GET("/documents/:id/download", downloadDocumentHandler)
	adminGroup.GET("/businesses/pending", pendingBusinessesHandler)
	adminGroup.PUT("/businesses/:id/decision", decideBusinessHandler)
	adminGroup.GET("/businesses/search", searchBusinessesHandler)
	adminGroup.GET("/stats", adminStatsHandler)
	adminGroup.GET("/deletion-requests", listDeletionRequestsHandler)
	adminGroup.PUT("/deletion-requests/:id/decision", decideDeletionHandler)
	adminGroup.POST("/events", createEventHandler)
	adminGroup.DELETE("/events/:id", deleteEventHandler)
}

func jwtAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || len(authHeader) < 8 || authHeader[:7] != "Bearer " {
			c.JSON(http.StatusUnauthorized, envelope(false, "cabecera Authorization ausente o inválida", nil))
			c.Abort()
			return
		}
		tokenString := authHeader[7:]
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrInvalidKeyType
			}
			return jwtSecret, nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, envelope(false, "token inválido", nil))
			c.Abort()
			return
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, envelope(false, "token inválido", nil))
			c.Abort()
			return
		}
		username, _ := claims["username"].(string)
		role, _ := claims["role"].(string)
		c.Set("username", username)
		if role != "" {
			c.Set("role", role)
		}
		c.Next()
	}
}

func adminOnlyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if role, _ := c.Get("role"); role != adminRole {
			c.JSON(http.StatusForbidden, envelope(false, "acceso restringido a administradores", nil))
			c.Abort()
			return
		}
		c.Next()
	}
}

// getUserFromContext fetches the authenticated user behind the username claim.
func getUserFromContext(c *gin.Context) (*models.AppUser, bool) {
	unameVal, _ := c.Get("username")
	if unameVal == nil {
		return nil, false
	}
	uname := unameVal.(string)
	var user models.AppUser
	if err := db.Where("username = ?", uname).First(&user).Error; err != nil {
		return nil, false
	}
	return &user, true
}

func isAdmin(c *gin.Context) bool {
	role, _ := c.Get("role")
	return role == adminRole
}

// envelope is the uniform response body shape.
func envelope(success bool, message string, data any) gin.H {
	return gin.H{"success": success, "message": message, "data": data}
}

func respondOK(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, envelope(true, message, data))
}

func respondCreated(c *gin.Context, message string, data any) {
	c.JSON(http.StatusCreated, envelope(true, message, data))
}

// respondErr maps the error taxonomy onto HTTP statuses while keeping the
// envelope shape.
func respondErr(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch apperr.KindOf(err) {
	case apperr.KindClient:
		status = http.StatusBadRequest
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindStore:
		status = http.StatusBadGateway
	}
	c.JSON(status, envelope(false, err.Error(), nil))
}

func meHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, envelope(false, "usuario no encontrado", nil))
		return
	}
	respondOK(c, "", gin.H{
		"id":       user.ID,
		"username": user.Username,
		"name":     user.Name,
		"lastname": user.Lastname,
		"email":    user.Email,
		"phone":    user.Phone,
		"address":  user.Address,
		"role":     roleNameOf(user),
	})
}
