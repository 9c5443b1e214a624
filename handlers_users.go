package main

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"municipio/models"
	"municipio/pkg/assets"
	"municipio/pkg/mailer"
)

// The four documents every registration must carry, in upload order.
var registrationDocs = []struct {
	Field  string
	Folder string
	Role   string
}{
	{"identification_document", "identificaciones", models.RoleIdentityDoc},
	{"certificate_document", "certificados", models.RoleCertificate},
	{"signed_document", "documentos-firmados", models.RoleSignedDoc},
	{"payment_receipt", "comprobantes-pago", models.RolePaymentReceipt},
}

// readFormFile loads a multipart file into an upload input. A missing or
// empty part yields a zero-content input so the coordinator can apply its
// required/optional policy.
func readFormFile(c *gin.Context, field, folder, role string, required bool) (assets.Input, error) {
	in := assets.Input{Folder: folder, Role: role, Required: required}
	fh, err := c.FormFile(field)
	if err != nil {
		return in, nil
	}
	in.Filename = fh.Filename
	in.ContentType = fh.Header.Get("Content-Type")
	content, err := readAll(fh)
	if err != nil {
		return in, err
	}
	in.Content = content
	return in, nil
}

func readAll(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func registerHandler(c *gin.Context) {
	name := c.PostForm("name")
	lastname := c.PostForm("lastname")
	phone := c.PostForm("phone")
	address := c.PostForm("address")
	username := c.PostForm("username")
	password := c.PostForm("password")
	email := c.PostForm("email")
	idType := c.PostForm("id_type")
	identification := c.PostForm("identification")

	if name == "" || lastname == "" || username == "" || email == "" || identification == "" {
		c.JSON(http.StatusBadRequest, envelope(false, "faltan campos obligatorios", nil))
		return
	}
	if err := validatePassword(password); err != nil {
		c.JSON(http.StatusBadRequest, envelope(false, err.Error(), nil))
		return
	}

	var count int64
	db.Model(&models.AppUser{}).Where("username = ?", username).Count(&count)
	if count > 0 {
		c.JSON(http.StatusConflict, envelope(false, "el nombre de usuario ya está registrado", nil))
		return
	}
	db.Model(&models.AppUser{}).Where("email = ?", email).Count(&count)
	if count > 0 {
		c.JSON(http.StatusConflict, envelope(false, "el correo ya está registrado", nil))
		return
	}
	db.Model(&models.AppUser{}).Where("identification = ?", identification).Count(&count)
	if count > 0 {
		c.JSON(http.StatusConflict, envelope(false, "la identificación ya está registrada", nil))
		return
	}

	// resolve the role before touching the store so a half-seeded database
	// fails with zero side effects
	var userRole models.Role
	if err := db.Where("name = ?", "user").First(&userRole).Error; err != nil {
		logger.Error("user role missing, seed the database first", zap.Error(err))
		c.JSON(http.StatusInternalServerError, envelope(false, "no se pudo completar el registro", nil))
		return
	}

	inputs := make([]assets.Input, 0, len(registrationDocs))
	for _, doc := range registrationDocs {
		in, err := readFormFile(c, doc.Field, doc.Folder, doc.Role, true)
		if err != nil {
			c.JSON(http.StatusBadRequest, envelope(false, "no se pudo leer el archivo "+doc.Field, nil))
			return
		}
		inputs = append(inputs, in)
	}

	descs, err := uploader.UploadAll(c.Request.Context(), inputs)
	if err != nil {
		respondErr(c, err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		uploader.Compensate(c.Request.Context(), descs)
		c.JSON(http.StatusInternalServerError, envelope(false, "error codificando la clave", nil))
		return
	}

	user := models.AppUser{
		Name:           name,
		Lastname:       lastname,
		Phone:          phone,
		Address:        address,
		Username:       username,
		HashedPassword: hash,
		Email:          email,
		IDType:         idType,
		Identification: identification,
		Enabled:        false,
		RoleID:         &userRole.ID,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		for _, d := range descs {
			asset := models.Asset{
				URL:       d.URL,
				PublicID:  d.PublicID,
				FileType:  d.ResourceType,
				Role:      d.Role,
				OwnerType: models.OwnerUser,
				OwnerID:   user.ID,
			}
			if err := tx.Create(&asset).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		// the remote uploads have no surviving rows, undo them
		uploader.Compensate(c.Request.Context(), descs)
		// a concurrent registration can slip past the pre-checks and land on
		// the unique columns instead
		if isUniqueConstraintError(err) {
			c.JSON(http.StatusConflict, envelope(false, "el usuario, correo o identificación ya está registrado", nil))
			return
		}
		logger.Error("registration persistence failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, envelope(false, "no se pudo completar el registro", nil))
		return
	}

	if err := notifier.Send(email, mailer.RegistrationReceivedSubject(), mailer.RegistrationReceivedMessage(name)); err != nil {
		logger.Warn("registration email failed", zap.Error(err))
	}
	respondCreated(c, "registro recibido, pendiente de aprobación", gin.H{"id": user.ID, "username": user.Username})
}

func loginHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, envelope(false, err.Error(), nil))
		return
	}
	user, err := Authenticate(req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, envelope(false, err.Error(), nil))
		return
	}
	roleName := roleNameOf(&user)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": user.Username,
		"role":     roleName,
		"exp":      time.Now().Add(time.Hour * 24).Unix(),
	})
	tokenString, err := token.SignedString(jwtSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, envelope(false, "no se pudo generar el token", nil))
		return
	}
	refreshToken, err := createAndStoreRefreshToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, envelope(false, "no se pudo generar el token de refresco", nil))
		return
	}
	respondOK(c, "inicio de sesión exitoso", gin.H{
		"token":         tokenString,
		"refresh_token": refreshToken,
		"role":          roleName,
	})
}

func refreshHandler(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, envelope(false, err.Error(), nil))
		return
	}
	rt, err := findRefreshTokenByRaw(req.RefreshToken)
	if err != nil || rt.Revoked || time.Now().After(rt.ExpiresAt) {
		c.JSON(http.StatusUnauthorized, envelope(false, "token de refresco inválido o expirado", nil))
		return
	}
	var user models.AppUser
	if err := db.First(&user, rt.UserID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, envelope(false, "usuario no encontrado", nil))
		return
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": user.Username,
		"role":     roleNameOf(&user),
		"exp":      time.Now().Add(15 * time.Minute).Unix(),
	})
	tokenString, err := token.SignedString(jwtSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, envelope(false, "no se pudo generar el token", nil))
		return
	}
	// rotate: revoke the presented token, issue a fresh one
	db.Model(&models.RefreshToken{}).Where("id = ?", rt.ID).Update("revoked", true)
	newRT, err := createAndStoreRefreshToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, envelope(false, "no se pudo rotar el token de refresco", nil))
		return
	}
	respondOK(c, "", gin.H{"token": tokenString, "refresh_token": newRT})
}

func revokeRefreshHandler(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, envelope(false, err.Error(), nil))
		return
	}
	rt, err := findRefreshTokenByRaw(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusNotFound, envelope(false, "token de refresco no encontrado", nil))
		return
	}
	rt.Revoked = true
	if err := db.Save(rt).Error; err != nil {
		c.JSON(http.StatusInternalServerError, envelope(false, "no se pudo revocar el token", nil))
		return
	}
	respondOK(c, "token de refresco revocado", nil)
}

func updateUserHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, envelope(false, "usuario no encontrado", nil))
		return
	}
	var req struct {
		Name     string `json:"name"`
		Lastname string `json:"lastname"`
		Phone    string `json:"phone"`
		Address  string `json:"address"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, envelope(false, err.Error(), nil))
		return
	}
	updates := map[string]any{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Lastname != "" {
		updates["lastname"] = req.Lastname
	}
	if req.Phone != "" {
		updates["phone"] = req.Phone
	}
	if req.Address != "" {
		updates["address"] = req.Address
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, envelope(false, "nada que actualizar", nil))
		return
	}
	if err := db.Model(user).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, envelope(false, "no se pudo actualizar el usuario", nil))
		return
	}
	respondOK(c, "usuario actualizado", nil)
}

func userDashboardHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, envelope(false, "usuario no encontrado", nil))
		return
	}
	var total, validated, pending, rejected int64
	db.Model(&models.Business{}).Where("user_id = ?", user.ID).Count(&total)
	db.Model(&models.Business{}).Where("user_id = ? AND validation_status = ?", user.ID, models.ValidationValidated).Count(&validated)
	db.Model(&models.Business{}).Where("user_id = ? AND validation_status = ?", user.ID, models.ValidationPending).Count(&pending)
	db.Model(&models.Business{}).Where("user_id = ? AND validation_status = ?", user.ID, models.ValidationRejected).Count(&rejected)
	respondOK(c, "", gin.H{
		"businesses": gin.H{
			"total":     total,
			"validated": validated,
			"pending":   pending,
			"rejected":  rejected,
		},
	})
}

func pendingUsersHandler(c *gin.Context) {
	var users []models.AppUser
	if err := db.Where("enabled = ?", false).Order("id").Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, envelope(false, "no se pudieron cargar los usuarios", nil))
		return
	}
	out := make([]gin.H, 0, len(users))
	for _, u := range users {
		out = append(out, gin.H{
			"id":             u.ID,
			"name":           u.Name,
			"lastname":       u.Lastname,
			"username":       u.Username,
			"email":          u.Email,
			"id_type":        u.IDType,
			"identification": u.Identification,
		})
	}
	respondOK(c, "", out)
}

func decideUserHandler(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, envelope(false, "id inválido", nil))
		return
	}
	var req struct {
		Approve         bool   `json:"approve"`
		RejectionReason string `json:"rejection_reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, envelope(false, err.Error(), nil))
		return
	}
	if err := workflow.DecideUser(c.Request.Context(), uint(id), req.Approve, req.RejectionReason); err != nil {
		respondErr(c, err)
		return
	}
	if req.Approve {
		respondOK(c, "usuario aprobado", nil)
		return
	}
	respondOK(c, "usuario rechazado y eliminado", nil)
}

func listUserDocumentsHandler(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, envelope(false, "id inválido", nil))
		return
	}
	var docs []models.Asset
	if err := db.Where("owner_type = ? AND owner_id = ?", models.OwnerUser, uint(id)).Find(&docs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, envelope(false, "no se pudieron cargar los documentos", nil))
		return
	}
	out := make([]gin.H, 0, len(docs))
	for _, d := range docs {
		out = append(out, gin.H{"id": d.ID, "role": d.Role, "url": d.URL, "file_type": d.FileType})
	}
	respondOK(c, "", out)
}

// downloadDocumentHandler proxies a stored document through the server so
// admins can fetch non-public objects.
func downloadDocumentHandler(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, envelope(false, "id inválido", nil))
		return
	}
	var doc models.Asset
	if err := db.First(&doc, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, envelope(false, "documento no encontrado", nil))
		return
	}
	content, err := store.Download(c.Request.Context(), doc.URL)
	if err != nil {
		respondErr(c, err)
		return
	}
	contentType := "application/octet-stream"
	if doc.FileType == models.ResourceImage {
		contentType = "image/jpeg"
	} else if doc.FileType == models.ResourceRaw {
		contentType = "application/pdf"
	}
	c.Header("Content-Disposition", "attachment; filename="+strconv.FormatUint(uint64(doc.ID), 10))
	c.Data(http.StatusOK, contentType, content)
}
