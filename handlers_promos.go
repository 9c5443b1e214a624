package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"municipio/models"
	"municipio/pkg/assets"
)

const promoFolder = "promociones"

var promoTypes = map[string]bool{
	models.PromoDiscount:     true,
	models.PromoTwoForOne:    true,
	models.PromoFreeShipping: true,
	models.PromoOther:        true,
}

func parsePromoDates(start, end string) (time.Time, time.Time, string) {
	s, err := time.Parse("2006-01-02", start)
	if err != nil {
		return time.Time{}, time.Time{}, "fecha de inicio inválida, use AAAA-MM-DD"
	}
	e, err := time.Parse("2006-01-02", end)
	if err != nil {
		return time.Time{}, time.Time{}, "fecha de fin inválida, use AAAA-MM-DD"
	}
	if e.Before(s) {
		return time.Time{}, time.Time{}, "la fecha de fin no puede ser anterior a la de inicio"
	}
	return s, e, ""
}

func promoView(p models.BusinessPromo) gin.H {
	photo := ""
	var a models.Asset
	if err := db.Where("owner_type = ? AND owner_id = ?", models.OwnerPromo, p.ID).First(&a).Error; err == nil {
		photo = a.URL
	}
	return gin.H{
		"id":          p.ID,
		"business_id": p.BusinessID,
		"promo_type":  p.PromoType,
		"title":       p.Title,
		"start_date":  p.StartDate.Format("2006-01-02"),
		"end_date":    p.EndDate.Format("2006-01-02"),
		"conditions":  p.Conditions,
		"photo_url":   photo,
	}
}

func createPromoHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, envelope(false, "usuario no encontrado", nil))
		return
	}
	bizID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, envelope(false, "id inválido", nil))
		return
	}
	var biz models.Business
	if err := db.First(&biz, uint(bizID)).Error; err != nil {
		c.JSON(http.StatusNotFound, envelope(false, "negocio no encontrado", nil))
		return
	}
	if biz.UserID != user.ID && !isAdmin(c) {
		c.JSON(http.StatusForbidden, envelope(false, "el negocio no le pertenece", nil))
		return
	}
	if biz.ValidationStatus != models.ValidationValidated {
		c.JSON(http.StatusBadRequest, envelope(false, "solo los negocios validados pueden publicar promociones", nil))
		return
	}

	promoType := c.PostForm("promo_type")
	if !promoTypes[promoType] {
		c.JSON(http.StatusBadRequest, envelope(false, "tipo de promoción inválido", nil))
		return
	}
	title := c.PostForm("title")
	if title == "" {
		c.JSON(http.StatusBadRequest, envelope(false, "el título es obligatorio", nil))
		return
	}
	start, end, msg := parsePromoDates(c.PostForm("start_date"), c.PostForm("end_date"))
	if msg != "" {
		c.JSON(http.StatusBadRequest, envelope(false, msg, nil))
		return
	}

	photo, err := readFormFile(c, "photo", promoFolder, models.RolePromotionPhoto, false)
	if err != nil {
		c.JSON(http.StatusBadRequest, envelope(false, "no se pudo leer la foto", nil))
		return
	}
	descs, err := uploader.UploadAll(c.Request.Context(), []assets.Input{photo})
	if err != nil {
		respondErr(c, err)
		return
	}

	promo := models.BusinessPromo{
		BusinessID: biz.ID,
		PromoType:  promoType,
		Title:      title,
		StartDate:  start,
		EndDate:    end,
		Conditions: c.PostForm("conditions"),
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&promo).Error; err != nil {
			return err
		}
		return createAssetRows(tx, descs, models.OwnerPromo, promo.ID)
	})
	if err != nil {
		uploader.Compensate(c.Request.Context(), descs)
		logger.Error("promo persistence failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, envelope(false, "no se pudo registrar la promoción", nil))
		return
	}
	respondCreated(c, "promoción registrada", gin.H{"id": promo.ID})
}

func businessPromosHandler(c *gin.Context) {
	bizID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, envelope(false, "id inválido", nil))
		return
	}
	var promos []models.BusinessPromo
	if err := db.Where("business_id = ?", uint(bizID)).Order("start_date").Find(&promos).Error; err != nil {
		c.JSON(http.StatusInternalServerError, envelope(false, "no se pudieron cargar las promociones", nil))
		return
	}
	out := make([]gin.H, 0, len(promos))
	for _, p := range promos {
		out = append(out, promoView(p))
	}
	respondOK(c, "", out)
}

// publicPromosHandler lists currently active promotions of validated
// businesses.
func publicPromosHandler(c *gin.Context) {
	today := time.Now().Format("2006-01-02")
	q := db.Joins("JOIN businesses ON businesses.id = business_promos.business_id").
		Where("businesses.validation_status = ?", models.ValidationValidated).
		Where("business_promos.start_date <= ? AND business_promos.end_date >= ?", today, today)
	if promoType := c.Query("promo_type"); promoType != "" {
		q = q.Where("business_promos.promo_type = ?", promoType)
	}
	var promos []models.BusinessPromo
	if err := q.Order("business_promos.end_date").Find(&promos).Error; err != nil {
		c.JSON(http.StatusInternalServerError, envelope(false, "no se pudieron cargar las promociones", nil))
		return
	}
	out := make([]gin.H, 0, len(promos))
	for _, p := range promos {
		out = append(out, promoView(p))
	}
	respondOK(c, "", out)
}

// loadOwnedPromo resolves the promo and checks it belongs to the caller.
func loadOwnedPromo(c *gin.Context) (*models.BusinessPromo, bool) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, envelope(false, "usuario no encontrado", nil))
		return nil, false
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, envelope(false, "id inválido", nil))
		return nil, false
	}
	var promo models.BusinessPromo
	if err := db.First(&promo, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, envelope(false, "promoción no encontrada", nil))
		return nil, false
	}
	var biz models.Business
	if err := db.First(&biz, promo.BusinessID).Error; err != nil {
		c.JSON(http.StatusNotFound, envelope(false, "negocio no encontrado", nil))
		return nil, false
	}
	if biz.UserID != user.ID && !isAdmin(c) {
		c.JSON(http.StatusForbidden, envelope(false, "la promoción no le pertenece", nil))
		return nil, false
	}
	return &promo, true
}

// updatePromoHandler edits a promotion; a new photo replaces the old one,
// whose remote object is removed after the change is committed.
func updatePromoHandler(c *gin.Context) {
	promo, ok := loadOwnedPromo(c)
	if !ok {
		return
	}

	updates := map[string]any{}
	if promoType := c.PostForm("promo_type"); promoType != "" {
		if !promoTypes[promoType] {
			c.JSON(http.StatusBadRequest, envelope(false, "tipo de promoción inválido", nil))
			return
		}
		updates["promo_type"] = promoType
	}
	if title := c.PostForm("title"); title != "" {
		updates["title"] = title
	}
	if conditions := c.PostForm("conditions"); conditions != "" {
		updates["conditions"] = conditions
	}
	startStr := c.PostForm("start_date")
	endStr := c.PostForm("end_date")
	if startStr != "" || endStr != "" {
		if startStr == "" {
			startStr = promo.StartDate.Format("2006-01-02")
		}
		if endStr == "" {
			endStr = promo.EndDate.Format("2006-01-02")
		}
		start, end, msg := parsePromoDates(startStr, endStr)
		if msg != "" {
			c.JSON(http.StatusBadRequest, envelope(false, msg, nil))
			return
		}
		updates["start_date"] = start
		updates["end_date"] = end
	}

	photo, err := readFormFile(c, "photo", promoFolder, models.RolePromotionPhoto, false)
	if err != nil {
		c.JSON(http.StatusBadRequest, envelope(false, "no se pudo leer la foto", nil))
		return
	}

	var newDescs []assets.Descriptor
	var oldAssets []models.Asset
	if len(photo.Content) > 0 {
		db.Where("owner_type = ? AND owner_id = ?", models.OwnerPromo, promo.ID).Find(&oldAssets)
		newDescs, err = uploader.UploadAll(c.Request.Context(), []assets.Input{photo})
		if err != nil {
			respondErr(c, err)
			return
		}
	}
	if len(updates) == 0 && len(newDescs) == 0 {
		c.JSON(http.StatusBadRequest, envelope(false, "nada que actualizar", nil))
		return
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&models.BusinessPromo{}).Where("id = ?", promo.ID).Updates(updates).Error; err != nil {
				return err
			}
		}
		if len(newDescs) > 0 {
			if err := tx.Where("owner_type = ? AND owner_id = ?", models.OwnerPromo, promo.ID).
				Delete(&models.Asset{}).Error; err != nil {
				return err
			}
			return createAssetRows(tx, newDescs, models.OwnerPromo, promo.ID)
		}
		return nil
	})
	if err != nil {
		uploader.Compensate(c.Request.Context(), newDescs)
		logger.Error("promo update persistence failed", zap.Uint("promo_id", promo.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, envelope(false, "no se pudo actualizar la promoción", nil))
		return
	}

	if len(oldAssets) > 0 {
		oldDescs := make([]assets.Descriptor, 0, len(oldAssets))
		for _, a := range oldAssets {
			oldDescs = append(oldDescs, assets.Descriptor{PublicID: a.PublicID, ResourceType: a.FileType})
		}
		uploader.Compensate(c.Request.Context(), oldDescs)
	}
	respondOK(c, "promoción actualizada", nil)
}

func deletePromoHandler(c *gin.Context) {
	promo, ok := loadOwnedPromo(c)
	if !ok {
		return
	}
	if _, err := deleter.Delete(c.Request.Context(), models.OwnerPromo, promo.ID); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "promoción eliminada", nil)
}
