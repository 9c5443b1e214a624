package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func requestRecoveryHandler(c *gin.Context) {
	var req struct {
		Identifier string `json:"identifier" binding:"required"` // username or email
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, envelope(false, err.Error(), nil))
		return
	}
	handle, err := recovery.RequestCode(c.Request.Context(), req.Identifier)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "código de recuperación enviado al correo registrado", gin.H{"uuid": handle})
}

func validateRecoveryHandler(c *gin.Context) {
	var req struct {
		UUID string `json:"uuid" binding:"required"`
		Otp  string `json:"otp" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, envelope(false, err.Error(), nil))
		return
	}
	userID, err := recovery.ValidateCode(c.Request.Context(), req.UUID, req.Otp)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "código validado", gin.H{"user_id": userID})
}

func changePasswordHandler(c *gin.Context) {
	var req struct {
		UserID      uint   `json:"user_id" binding:"required"`
		NewPassword string `json:"new_password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, envelope(false, err.Error(), nil))
		return
	}
	if err := recovery.ChangePassword(c.Request.Context(), req.UserID, req.NewPassword); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "contraseña actualizada", nil)
}
