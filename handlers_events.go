package main

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"municipio/models"
	"municipio/pkg/assets"
)

func eventImageFolder(eventID uint) string {
	return "events/" + strconv.FormatUint(uint64(eventID), 10)
}

func eventView(e models.Event) gin.H {
	var images []models.Asset
	db.Where("owner_type = ? AND owner_id = ?", models.OwnerEvent, e.ID).Find(&images)
	urls := make([]string, 0, len(images))
	for _, a := range images {
		urls = append(urls, a.URL)
	}
	contacts := make([]gin.H, 0, len(e.Contacts))
	for _, ct := range e.Contacts {
		contacts = append(contacts, gin.H{"type": ct.Type, "description": ct.Description})
	}
	services := make([]string, 0, len(e.Services))
	for _, s := range e.Services {
		services = append(services, s.Service)
	}
	return gin.H{
		"id":          e.ID,
		"title":       e.Title,
		"description": e.Description,
		"location":    e.Location,
		"date_start":  e.DateStart.Format("2006-01-02"),
		"date_end":    e.DateEnd.Format("2006-01-02"),
		"contacts":    contacts,
		"services":    services,
		"image_urls":  urls,
	}
}

// createEventHandler registers a municipal event. The event row is written
// first so its images land under events/<id>; if the uploads or the asset
// rows fail the fresh uploads are compensated but the event stays.
func createEventHandler(c *gin.Context) {
	title := c.PostForm("title")
	if title == "" {
		c.JSON(http.StatusBadRequest, envelope(false, "el título es obligatorio", nil))
		return
	}
	dateStart, err := time.Parse("2006-01-02", c.PostForm("date_start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, envelope(false, "fecha de inicio inválida, use AAAA-MM-DD", nil))
		return
	}
	dateEnd, err := time.Parse("2006-01-02", c.PostForm("date_end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, envelope(false, "fecha de fin inválida, use AAAA-MM-DD", nil))
		return
	}
	if dateEnd.Before(dateStart) {
		c.JSON(http.StatusBadRequest, envelope(false, "la fecha de fin no puede ser anterior a la de inicio", nil))
		return
	}

	event := models.Event{
		Title:       title,
		Description: c.PostForm("description"),
		Location:    c.PostForm("location"),
		DateStart:   dateStart,
		DateEnd:     dateEnd,
	}
	if raw := c.PostForm("contacts"); raw != "" {
		var contacts []struct {
			Type        string `json:"type"`
			Description string `json:"description"`
		}
		if err := json.Unmarshal([]byte(raw), &contacts); err != nil {
			c.JSON(http.StatusBadRequest, envelope(false, "contactos inválidos", nil))
			return
		}
		for _, ct := range contacts {
			event.Contacts = append(event.Contacts, models.EventContact{Type: ct.Type, Description: ct.Description})
		}
	}
	if raw := c.PostForm("services"); raw != "" {
		var services []string
		if err := json.Unmarshal([]byte(raw), &services); err != nil {
			c.JSON(http.StatusBadRequest, envelope(false, "servicios inválidos", nil))
			return
		}
		for _, s := range services {
			event.Services = append(event.Services, models.EventService{Service: s})
		}
	}

	if err := db.Create(&event).Error; err != nil {
		c.JSON(http.StatusInternalServerError, envelope(false, "no se pudo registrar el evento", nil))
		return
	}

	var inputs []assets.Input
	if form, err := c.MultipartForm(); err == nil {
		for _, fh := range form.File["images"] {
			content, err := readAll(fh)
			if err != nil {
				c.JSON(http.StatusBadRequest, envelope(false, "no se pudo leer una imagen", nil))
				return
			}
			inputs = append(inputs, assets.Input{
				Filename:    fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Content:     content,
				Folder:      eventImageFolder(event.ID),
				Role:        models.RoleEventImage,
			})
		}
	}
	if len(inputs) > 0 {
		descs, err := uploader.UploadAll(c.Request.Context(), inputs)
		if err != nil {
			respondErr(c, err)
			return
		}
		// all image rows commit together, so compensating every upload on
		// failure never orphans a committed row
		err = db.Transaction(func(tx *gorm.DB) error {
			return createAssetRows(tx, descs, models.OwnerEvent, event.ID)
		})
		if err != nil {
			uploader.Compensate(c.Request.Context(), descs)
			logger.Error("event image persistence failed", zap.Uint("event_id", event.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, envelope(false, "no se pudieron guardar las imágenes", nil))
			return
		}
	}
	respondCreated(c, "evento registrado", gin.H{"id": event.ID})
}

func listEventsHandler(c *gin.Context) {
	q := db.Preload("Contacts").Preload("Services")
	if c.Query("upcoming") == "true" {
		q = q.Where("date_end >= ?", time.Now().Format("2006-01-02"))
	}
	var events []models.Event
	if err := q.Order("date_start").Find(&events).Error; err != nil {
		c.JSON(http.StatusInternalServerError, envelope(false, "no se pudieron cargar los eventos", nil))
		return
	}
	out := make([]gin.H, 0, len(events))
	for _, e := range events {
		out = append(out, eventView(e))
	}
	respondOK(c, "", out)
}

func getEventHandler(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, envelope(false, "id inválido", nil))
		return
	}
	var event models.Event
	if err := db.Preload("Contacts").Preload("Services").First(&event, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, envelope(false, "evento no encontrado", nil))
		return
	}
	respondOK(c, "", eventView(event))
}

func deleteEventHandler(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, envelope(false, "id inválido", nil))
		return
	}
	var event models.Event
	if err := db.First(&event, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, envelope(false, "evento no encontrado", nil))
		return
	}
	if _, err := deleter.Delete(c.Request.Context(), models.OwnerEvent, event.ID); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "evento eliminado", nil)
}
