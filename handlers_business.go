package main

import (
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"municipio/models"
	"municipio/pkg/assets"
	"municipio/pkg/mailer"
)

const maxCarouselPhotos = 5

var whatsappRE = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

func listCategoriesHandler(c *gin.Context) {
	var cats []models.BusinessCategory
	if err := db.Order("name").Find(&cats).Error; err != nil {
		c.JSON(http.StatusInternalServerError, envelope(false, "no se pudieron cargar las categorías", nil))
		return
	}
	respondOK(c, "", cats)
}

func listParishesHandler(c *gin.Context) {
	var parishes []models.Parish
	if err := db.Order("name").Find(&parishes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, envelope(false, "no se pudieron cargar las parroquias", nil))
		return
	}
	respondOK(c, "", parishes)
}

// parseBusinessForm reads the shared multipart fields of create and full
// update into b. Returns a user-facing message on invalid input.
func parseBusinessForm(c *gin.Context, b *models.Business) string {
	b.CommercialName = c.PostForm("commercial_name")
	if b.CommercialName == "" {
		return "el nombre comercial es obligatorio"
	}
	catID, err := strconv.ParseUint(c.PostForm("category_id"), 10, 32)
	if err != nil {
		return "categoría inválida"
	}
	parishID, err := strconv.ParseUint(c.PostForm("parish_id"), 10, 32)
	if err != nil {
		return "parroquia inválida"
	}
	b.CategoryID = uint(catID)
	b.ParishID = uint(parishID)
	b.Description = c.PostForm("description")
	b.ParishCommunitySector = c.PostForm("parish_community_sector")
	b.Facebook = c.PostForm("facebook")
	b.Instagram = c.PostForm("instagram")
	b.Tiktok = c.PostForm("tiktok")
	b.Website = c.PostForm("website")
	b.Phone = c.PostForm("phone")
	b.AcceptsWhatsappOrders = c.PostForm("accepts_whatsapp_orders") == "true"
	b.WhatsappNumber = c.PostForm("whatsapp_number")
	b.DeliveryService = c.PostForm("delivery_service")
	b.SalePlace = c.PostForm("sale_place")
	b.ReceivedUdelSupport = c.PostForm("received_udel_support") == "true"
	b.Address = c.PostForm("address")
	b.GoogleMapsCoordinates = c.PostForm("google_maps_coordinates")
	b.Schedules = c.PostForm("schedules")

	if rd := c.PostForm("registration_date"); rd != "" {
		t, err := time.Parse("2006-01-02", rd)
		if err != nil {
			return "fecha de registro inválida, use AAAA-MM-DD"
		}
		b.RegistrationDate = &t
	}
	if b.AcceptsWhatsappOrders && !whatsappRE.MatchString(b.WhatsappNumber) {
		return "número de WhatsApp inválido, use formato internacional"
	}
	return ""
}

// readBusinessPhotos builds the upload batch of create / full update: one
// required logo plus up to maxCarouselPhotos optional carousel photos.
func readBusinessPhotos(c *gin.Context) ([]assets.Input, string) {
	logo, err := readFormFile(c, "logo", "business/logos", models.RoleLogo, true)
	if err != nil {
		return nil, "no se pudo leer el logo"
	}
	inputs := []assets.Input{logo}

	form, err := c.MultipartForm()
	if err != nil {
		return inputs, ""
	}
	files := form.File["carousel_photos"]
	if len(files) > maxCarouselPhotos {
		return nil, "máximo " + strconv.Itoa(maxCarouselPhotos) + " fotos de carrusel"
	}
	for _, fh := range files {
		content, err := readAll(fh)
		if err != nil {
			return nil, "no se pudo leer una foto del carrusel"
		}
		inputs = append(inputs, assets.Input{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Content:     content,
			Folder:      "business/carrousel",
			Role:        models.RoleSlide,
		})
	}
	return inputs, ""
}

func createBusinessHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, envelope(false, "usuario no encontrado", nil))
		return
	}

	var biz models.Business
	if msg := parseBusinessForm(c, &biz); msg != "" {
		c.JSON(http.StatusBadRequest, envelope(false, msg, nil))
		return
	}
	biz.UserID = user.ID
	biz.ValidationStatus = models.ValidationPending

	inputs, msg := readBusinessPhotos(c)
	if msg != "" {
		c.JSON(http.StatusBadRequest, envelope(false, msg, nil))
		return
	}

	descs, err := uploader.UploadAll(c.Request.Context(), inputs)
	if err != nil {
		respondErr(c, err)
		return
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&biz).Error; err != nil {
			return err
		}
		return createAssetRows(tx, descs, models.OwnerBusiness, biz.ID)
	})
	if err != nil {
		uploader.Compensate(c.Request.Context(), descs)
		logger.Error("business creation persistence failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, envelope(false, "no se pudo registrar el negocio", nil))
		return
	}
	respondCreated(c, "negocio registrado, pendiente de validación", gin.H{"id": biz.ID})
}

func createAssetRows(tx *gorm.DB, descs []assets.Descriptor, ownerType string, ownerID uint) error {
	for _, d := range descs {
		asset := models.Asset{
			URL:       d.URL,
			PublicID:  d.PublicID,
			FileType:  d.ResourceType,
			Role:      d.Role,
			OwnerType: ownerType,
			OwnerID:   ownerID,
		}
		if err := tx.Create(&asset).Error; err != nil {
			return err
		}
	}
	return nil
}

func businessAssetURLs(bizID uint, role string) []string {
	var rows []models.Asset
	db.Where("owner_type = ? AND owner_id = ? AND role = ?", models.OwnerBusiness, bizID, role).Find(&rows)
	urls := make([]string, 0, len(rows))
	for _, a := range rows {
		urls = append(urls, a.URL)
	}
	return urls
}

func businessSummary(b models.Business) gin.H {
	logo := ""
	if urls := businessAssetURLs(b.ID, models.RoleLogo); len(urls) > 0 {
		logo = urls[0]
	}
	return gin.H{
		"id":              b.ID,
		"commercial_name": b.CommercialName,
		"category":        b.Category.Name,
		"parish":          b.Parish.Name,
		"phone":           b.Phone,
		"logo_url":        logo,
		"status":          b.ValidationStatus,
	}
}

func businessDetail(b models.Business) gin.H {
	out := businessSummary(b)
	out["description"] = b.Description
	out["parish_community_sector"] = b.ParishCommunitySector
	out["facebook"] = b.Facebook
	out["instagram"] = b.Instagram
	out["tiktok"] = b.Tiktok
	out["website"] = b.Website
	out["accepts_whatsapp_orders"] = b.AcceptsWhatsappOrders
	out["whatsapp_number"] = b.WhatsappNumber
	out["delivery_service"] = b.DeliveryService
	out["sale_place"] = b.SalePlace
	out["address"] = b.Address
	out["google_maps_coordinates"] = b.GoogleMapsCoordinates
	out["schedules"] = b.Schedules
	out["carousel_urls"] = businessAssetURLs(b.ID, models.RoleSlide)
	return out
}

func myBusinessesHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, envelope(false, "usuario no encontrado", nil))
		return
	}
	var bizs []models.Business
	if err := db.Preload("Category").Preload("Parish").
		Where("user_id = ?", user.ID).Order("id").Find(&bizs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, envelope(false, "no se pudieron cargar los negocios", nil))
		return
	}
	out := make([]gin.H, 0, len(bizs))
	for _, b := range bizs {
		row := businessSummary(b)
		row["rejection_reason"] = b.RejectionReason
		out = append(out, row)
	}
	respondOK(c, "", out)
}

func publicBusinessesHandler(c *gin.Context) {
	q := db.Preload("Category").Preload("Parish").
		Where("validation_status = ?", models.ValidationValidated)
	if cat := c.Query("category_id"); cat != "" {
		q = q.Where("category_id = ?", cat)
	}
	if parish := c.Query("parish_id"); parish != "" {
		q = q.Where("parish_id = ?", parish)
	}
	var bizs []models.Business
	if err := q.Order("commercial_name").Find(&bizs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, envelope(false, "no se pudieron cargar los negocios", nil))
		return
	}
	out := make([]gin.H, 0, len(bizs))
	for _, b := range bizs {
		out = append(out, businessSummary(b))
	}
	respondOK(c, "", out)
}

func publicBusinessDetailHandler(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, envelope(false, "id inválido", nil))
		return
	}
	var biz models.Business
	if err := db.Preload("Category").Preload("Parish").First(&biz, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, envelope(false, "negocio no encontrado", nil))
		return
	}
	// unvalidated businesses are invisible to the public
	if biz.ValidationStatus != models.ValidationValidated {
		c.JSON(http.StatusNotFound, envelope(false, "negocio no encontrado", nil))
		return
	}
	respondOK(c, "", businessDetail(biz))
}

// updateBusinessHandler applies the status-dependent update rules: a
// VALIDATED business only changes contact and text fields, a REJECTED one is
// fully resubmitted (photos replaced, status back to PENDING), and a PENDING
// one cannot be touched while an admin reviews it.
func updateBusinessHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, envelope(false, "usuario no encontrado", nil))
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, envelope(false, "id inválido", nil))
		return
	}
	var biz models.Business
	if err := db.First(&biz, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, envelope(false, "negocio no encontrado", nil))
		return
	}
	if biz.UserID != user.ID && !isAdmin(c) {
		c.JSON(http.StatusForbidden, envelope(false, "el negocio no le pertenece", nil))
		return
	}

	switch biz.ValidationStatus {
	case models.ValidationPending:
		c.JSON(http.StatusBadRequest, envelope(false, "no se puede actualizar un negocio pendiente de validación", nil))
	case models.ValidationValidated:
		restrictedBusinessUpdate(c, &biz)
	case models.ValidationRejected:
		fullBusinessUpdate(c, &biz)
	default:
		c.JSON(http.StatusInternalServerError, envelope(false, "estado de validación desconocido", nil))
	}
}

func restrictedBusinessUpdate(c *gin.Context, biz *models.Business) {
	var req struct {
		Description           *string `json:"description"`
		Facebook              *string `json:"facebook"`
		Instagram             *string `json:"instagram"`
		Tiktok                *string `json:"tiktok"`
		Website               *string `json:"website"`
		Phone                 *string `json:"phone"`
		AcceptsWhatsappOrders *bool   `json:"accepts_whatsapp_orders"`
		WhatsappNumber        *string `json:"whatsapp_number"`
		DeliveryService       *string `json:"delivery_service"`
		SalePlace             *string `json:"sale_place"`
		Address               *string `json:"address"`
		GoogleMapsCoordinates *string `json:"google_maps_coordinates"`
		Schedules             *string `json:"schedules"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, envelope(false, err.Error(), nil))
		return
	}
	updates := map[string]any{}
	setIf := func(col string, v *string) {
		if v != nil {
			updates[col] = *v
		}
	}
	setIf("description", req.Description)
	setIf("facebook", req.Facebook)
	setIf("instagram", req.Instagram)
	setIf("tiktok", req.Tiktok)
	setIf("website", req.Website)
	setIf("phone", req.Phone)
	setIf("whatsapp_number", req.WhatsappNumber)
	setIf("delivery_service", req.DeliveryService)
	setIf("sale_place", req.SalePlace)
	setIf("address", req.Address)
	setIf("google_maps_coordinates", req.GoogleMapsCoordinates)
	setIf("schedules", req.Schedules)
	if req.AcceptsWhatsappOrders != nil {
		updates["accepts_whatsapp_orders"] = *req.AcceptsWhatsappOrders
	}

	acceptsWA := biz.AcceptsWhatsappOrders
	if req.AcceptsWhatsappOrders != nil {
		acceptsWA = *req.AcceptsWhatsappOrders
	}
	waNumber := biz.WhatsappNumber
	if req.WhatsappNumber != nil {
		waNumber = *req.WhatsappNumber
	}
	if acceptsWA && !whatsappRE.MatchString(waNumber) {
		c.JSON(http.StatusBadRequest, envelope(false, "número de WhatsApp inválido, use formato internacional", nil))
		return
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, envelope(false, "nada que actualizar", nil))
		return
	}
	if err := db.Model(biz).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, envelope(false, "no se pudo actualizar el negocio", nil))
		return
	}
	respondOK(c, "negocio actualizado", nil)
}

// fullBusinessUpdate resubmits a rejected business: every field is replaced,
// the photos are re-uploaded and the business goes back to PENDING. The old
// remote photos are only removed after the new state is committed; a
// persistence failure instead compensates the fresh uploads.
func fullBusinessUpdate(c *gin.Context, biz *models.Business) {
	updated := models.Business{}
	if msg := parseBusinessForm(c, &updated); msg != "" {
		c.JSON(http.StatusBadRequest, envelope(false, msg, nil))
		return
	}

	inputs, msg := readBusinessPhotos(c)
	if msg != "" {
		c.JSON(http.StatusBadRequest, envelope(false, msg, nil))
		return
	}

	var oldAssets []models.Asset
	db.Where("owner_type = ? AND owner_id = ?", models.OwnerBusiness, biz.ID).Find(&oldAssets)

	descs, err := uploader.UploadAll(c.Request.Context(), inputs)
	if err != nil {
		respondErr(c, err)
		return
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{
			"category_id":             updated.CategoryID,
			"parish_id":               updated.ParishID,
			"commercial_name":         updated.CommercialName,
			"description":             updated.Description,
			"parish_community_sector": updated.ParishCommunitySector,
			"facebook":                updated.Facebook,
			"instagram":               updated.Instagram,
			"tiktok":                  updated.Tiktok,
			"website":                 updated.Website,
			"phone":                   updated.Phone,
			"accepts_whatsapp_orders": updated.AcceptsWhatsappOrders,
			"whatsapp_number":         updated.WhatsappNumber,
			"delivery_service":        updated.DeliveryService,
			"sale_place":              updated.SalePlace,
			"received_udel_support":   updated.ReceivedUdelSupport,
			"registration_date":       updated.RegistrationDate,
			"address":                 updated.Address,
			"google_maps_coordinates": updated.GoogleMapsCoordinates,
			"schedules":               updated.Schedules,
			"validation_status":       models.ValidationPending,
			"rejection_reason":        "",
		}
		if err := tx.Model(&models.Business{}).Where("id = ?", biz.ID).Updates(updates).Error; err != nil {
			return err
		}
		if err := tx.Where("owner_type = ? AND owner_id = ?", models.OwnerBusiness, biz.ID).
			Delete(&models.Asset{}).Error; err != nil {
			return err
		}
		return createAssetRows(tx, descs, models.OwnerBusiness, biz.ID)
	})
	if err != nil {
		uploader.Compensate(c.Request.Context(), descs)
		logger.Error("business resubmission persistence failed", zap.Uint("business_id", biz.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, envelope(false, "no se pudo actualizar el negocio", nil))
		return
	}

	oldDescs := make([]assets.Descriptor, 0, len(oldAssets))
	for _, a := range oldAssets {
		oldDescs = append(oldDescs, assets.Descriptor{PublicID: a.PublicID, ResourceType: a.FileType})
	}
	uploader.Compensate(c.Request.Context(), oldDescs)

	respondOK(c, "negocio actualizado, pendiente de validación", nil)
}

func pendingBusinessesHandler(c *gin.Context) {
	var bizs []models.Business
	if err := db.Preload("Category").Preload("Parish").Preload("User").
		Where("validation_status = ?", models.ValidationPending).Order("id").Find(&bizs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, envelope(false, "no se pudieron cargar los negocios", nil))
		return
	}
	out := make([]gin.H, 0, len(bizs))
	for _, b := range bizs {
		row := businessDetail(b)
		row["owner"] = gin.H{"id": b.User.ID, "name": b.User.Name, "lastname": b.User.Lastname, "email": b.User.Email}
		out = append(out, row)
	}
	respondOK(c, "", out)
}

func decideBusinessHandler(c *gin.Context) {
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
	if err := workflow.DecideBusiness(c.Request.Context(), uint(id), req.Approve, req.RejectionReason); err != nil {
		respondErr(c, err)
		return
	}
	if req.Approve {
		respondOK(c, "negocio validado", nil)
		return
	}
	respondOK(c, "negocio rechazado", nil)
}

func searchBusinessesHandler(c *gin.Context) {
	q := db.Preload("Category").Preload("Parish")
	if term := c.Query("q"); term != "" {
		like := "%" + term + "%"
		q = q.Where("commercial_name ILIKE ? OR description ILIKE ?", like, like)
	}
	if status := c.Query("status"); status != "" {
		q = q.Where("validation_status = ?", status)
	}
	var bizs []models.Business
	if err := q.Order("commercial_name").Limit(100).Find(&bizs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, envelope(false, "no se pudo ejecutar la búsqueda", nil))
		return
	}
	out := make([]gin.H, 0, len(bizs))
	for _, b := range bizs {
		out = append(out, businessSummary(b))
	}
	respondOK(c, "", out)
}

func adminStatsHandler(c *gin.Context) {
	var totalBiz, validated, pendingBiz, rejected int64
	db.Model(&models.Business{}).Count(&totalBiz)
	db.Model(&models.Business{}).Where("validation_status = ?", models.ValidationValidated).Count(&validated)
	db.Model(&models.Business{}).Where("validation_status = ?", models.ValidationPending).Count(&pendingBiz)
	db.Model(&models.Business{}).Where("validation_status = ?", models.ValidationRejected).Count(&rejected)

	var totalUsers, pendingUsers int64
	db.Model(&models.AppUser{}).Count(&totalUsers)
	db.Model(&models.AppUser{}).Where("enabled = ?", false).Count(&pendingUsers)

	var pendingDeletions int64
	db.Model(&models.BusinessDeletionRequest{}).Where("status = ?", models.DeletionPending).Count(&pendingDeletions)

	respondOK(c, "", gin.H{
		"businesses": gin.H{
			"total":     totalBiz,
			"validated": validated,
			"pending":   pendingBiz,
			"rejected":  rejected,
		},
		"users": gin.H{
			"total":   totalUsers,
			"pending": pendingUsers,
		},
		"deletion_requests_pending": pendingDeletions,
	})
}

func requestDeletionHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, envelope(false, "usuario no encontrado", nil))
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, envelope(false, "id inválido", nil))
		return
	}
	var biz models.Business
	if err := db.Preload("User").First(&biz, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, envelope(false, "negocio no encontrado", nil))
		return
	}
	byAdmin := isAdmin(c)
	if biz.UserID != user.ID && !byAdmin {
		c.JSON(http.StatusForbidden, envelope(false, "el negocio no le pertenece", nil))
		return
	}
	var req struct {
		Motive        string `json:"motive" binding:"required"`
		Justification string `json:"justification"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, envelope(false, err.Error(), nil))
		return
	}

	dr := models.BusinessDeletionRequest{
		BusinessID:    biz.ID,
		RequesterID:   user.ID,
		Motive:        req.Motive,
		Justification: req.Justification,
		Status:        models.DeletionPending,
	}
	// the partial unique index turns a concurrent duplicate into an error
	if err := db.Create(&dr).Error; err != nil {
		if isUniqueConstraintError(err) {
			c.JSON(http.StatusConflict, envelope(false, "ya existe una solicitud de eliminación pendiente para este negocio", nil))
			return
		}
		c.JSON(http.StatusInternalServerError, envelope(false, "no se pudo registrar la solicitud", nil))
		return
	}

	if err := notifier.Send(biz.User.Email, mailer.DeletionRequestedSubject(),
		mailer.DeletionRequestedMessage(byAdmin, biz.CommercialName, req.Motive, req.Justification)); err != nil {
		logger.Warn("deletion request email failed", zap.Error(err))
	}
	respondCreated(c, "solicitud de eliminación registrada", gin.H{"id": dr.ID})
}

func listDeletionRequestsHandler(c *gin.Context) {
	q := db.Model(&models.BusinessDeletionRequest{})
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	var reqs []models.BusinessDeletionRequest
	if err := q.Order("id").Find(&reqs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, envelope(false, "no se pudieron cargar las solicitudes", nil))
		return
	}
	out := make([]gin.H, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, gin.H{
			"id":            r.ID,
			"business_id":   r.BusinessID,
			"requester_id":  r.RequesterID,
			"motive":        r.Motive,
			"justification": r.Justification,
			"status":        r.Status,
			"decided_at":    r.DecidedAt,
		})
	}
	respondOK(c, "", out)
}

// decideDeletionHandler resolves a pending request. Approval cascades the
// business (remote objects, asset rows, promos and the request itself) in one
// orchestrated delete; rejection just closes the request.
func decideDeletionHandler(c *gin.Context) {
	admin, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, envelope(false, "usuario no encontrado", nil))
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, envelope(false, "id inválido", nil))
		return
	}
	var req struct {
		Approve bool   `json:"approve"`
		Note    string `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, envelope(false, err.Error(), nil))
		return
	}

	var dr models.BusinessDeletionRequest
	if err := db.First(&dr, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, envelope(false, "solicitud no encontrada", nil))
		return
	}
	if dr.Status != models.DeletionPending {
		c.JSON(http.StatusBadRequest, envelope(false, "la solicitud ya fue procesada", nil))
		return
	}
	var biz models.Business
	if err := db.Preload("User").First(&biz, dr.BusinessID).Error; err != nil {
		c.JSON(http.StatusNotFound, envelope(false, "negocio no encontrado", nil))
		return
	}
	ownerEmail := biz.User.Email
	ownerName := biz.CommercialName

	if req.Approve {
		// the cascade removes the request row together with the business
		if _, err := deleter.Delete(c.Request.Context(), models.OwnerBusiness, biz.ID); err != nil {
			respondErr(c, err)
			return
		}
	} else {
		now := time.Now()
		updates := map[string]any{
			"status":        models.DeletionRejected,
			"decided_by_id": admin.ID,
			"decided_at":    &now,
		}
		if err := db.Model(&dr).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, envelope(false, "no se pudo actualizar la solicitud", nil))
			return
		}
	}

	if err := notifier.Send(ownerEmail, mailer.DeletionDecidedSubject(req.Approve),
		mailer.DeletionDecidedMessage(req.Approve, ownerName, dr.Motive, dr.Justification, req.Note)); err != nil {
		logger.Warn("deletion decision email failed", zap.Error(err))
	}
	if req.Approve {
		respondOK(c, "negocio eliminado", nil)
		return
	}
	respondOK(c, "solicitud de eliminación rechazada", nil)
}
