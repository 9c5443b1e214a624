package main

import (
	"context"

	"gorm.io/gorm"

	"municipio/models"
	"municipio/pkg/apperr"
	"municipio/pkg/approval"
	"municipio/pkg/cascade"
	"municipio/pkg/otp"
)

// gormTx adapts gorm transactions to the cascade orchestrator's contract.
type gormTx struct{ db *gorm.DB }

func (g gormTx) InTx(ctx context.Context, fn func(cascade.Repos) error) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(cascadeRepos{tx})
	})
}

// cascadeRepos implements cascade.Repos over gorm. A business transitively
// owns its promotions' photos, so asset lookups for a business include the
// promo-owned rows.
type cascadeRepos struct{ tx *gorm.DB }

func (r cascadeRepos) assetQuery(ownerType string, ownerID uint) *gorm.DB {
	q := r.tx.Model(&models.Asset{})
	if ownerType == models.OwnerBusiness {
		promoIDs := r.tx.Model(&models.BusinessPromo{}).Select("id").Where("business_id = ?", ownerID)
		return q.Where("(owner_type = ? AND owner_id = ?) OR (owner_type = ? AND owner_id IN (?))",
			models.OwnerBusiness, ownerID, models.OwnerPromo, promoIDs)
	}
	return q.Where("owner_type = ? AND owner_id = ?", ownerType, ownerID)
}

func (r cascadeRepos) AssetsByOwner(ownerType string, ownerID uint) ([]cascade.AssetRow, error) {
	var rows []models.Asset
	if err := r.assetQuery(ownerType, ownerID).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]cascade.AssetRow, 0, len(rows))
	for _, a := range rows {
		out = append(out, cascade.AssetRow{ID: a.ID, PublicID: a.PublicID, ResourceType: a.FileType})
	}
	return out, nil
}

func (r cascadeRepos) DeleteAssets(ownerType string, ownerID uint) error {
	return r.assetQuery(ownerType, ownerID).Delete(&models.Asset{}).Error
}

func (r cascadeRepos) DeleteDependents(ownerType string, ownerID uint) error {
	switch ownerType {
	case models.OwnerBusiness:
		if err := r.tx.Where("business_id = ?", ownerID).Delete(&models.BusinessPromo{}).Error; err != nil {
			return err
		}
		return r.tx.Where("business_id = ?", ownerID).Delete(&models.BusinessDeletionRequest{}).Error
	case models.OwnerUser:
		if err := r.tx.Where("user_id = ?", ownerID).Delete(&models.RefreshToken{}).Error; err != nil {
			return err
		}
		return r.tx.Where("user_id = ?", ownerID).Delete(&models.OtpRecovery{}).Error
	case models.OwnerEvent:
		if err := r.tx.Where("event_id = ?", ownerID).Delete(&models.EventContact{}).Error; err != nil {
			return err
		}
		return r.tx.Where("event_id = ?", ownerID).Delete(&models.EventService{}).Error
	}
	return nil
}

func (r cascadeRepos) DeleteOwner(ownerType string, ownerID uint) error {
	switch ownerType {
	case models.OwnerBusiness:
		return r.tx.Delete(&models.Business{}, ownerID).Error
	case models.OwnerPromo:
		return r.tx.Delete(&models.BusinessPromo{}, ownerID).Error
	case models.OwnerUser:
		return r.tx.Delete(&models.AppUser{}, ownerID).Error
	case models.OwnerEvent:
		return r.tx.Delete(&models.Event{}, ownerID).Error
	}
	return nil
}

func (r cascadeRepos) OwnerExists(ownerType string, ownerID uint) (bool, error) {
	var cnt int64
	var err error
	switch ownerType {
	case models.OwnerBusiness:
		err = r.tx.Model(&models.Business{}).Where("id = ?", ownerID).Count(&cnt).Error
	case models.OwnerPromo:
		err = r.tx.Model(&models.BusinessPromo{}).Where("id = ?", ownerID).Count(&cnt).Error
	case models.OwnerUser:
		err = r.tx.Model(&models.AppUser{}).Where("id = ?", ownerID).Count(&cnt).Error
	case models.OwnerEvent:
		err = r.tx.Model(&models.Event{}).Where("id = ?", ownerID).Count(&cnt).Error
	}
	return cnt > 0, err
}

// approvalRepo implements approval.Repo over gorm.
type approvalRepo struct{ db *gorm.DB }

func (r approvalRepo) FindBusiness(id uint) (approval.BusinessView, error) {
	var b models.Business
	if err := r.db.Preload("User").First(&b, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return approval.BusinessView{}, apperr.NotFound("negocio no encontrado")
		}
		return approval.BusinessView{}, apperr.Persistence(err, "error cargando negocio %d", id)
	}
	return approval.BusinessView{
		ID:             b.ID,
		CommercialName: b.CommercialName,
		Status:         b.ValidationStatus,
		OwnerName:      b.User.Name,
		OwnerEmail:     b.User.Email,
	}, nil
}

func (r approvalRepo) SetBusinessStatus(id uint, status, rejectionReason string) error {
	return r.db.Model(&models.Business{}).Where("id = ?", id).
		Updates(map[string]any{"validation_status": status, "rejection_reason": rejectionReason}).Error
}

func (r approvalRepo) FindUser(id uint) (approval.UserView, error) {
	var u models.AppUser
	if err := r.db.First(&u, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return approval.UserView{}, apperr.NotFound("usuario no encontrado")
		}
		return approval.UserView{}, apperr.Persistence(err, "error cargando usuario %d", id)
	}
	return approval.UserView{ID: u.ID, Name: u.Name, Email: u.Email, Enabled: u.Enabled}, nil
}

func (r approvalRepo) EnableUser(id uint) error {
	return r.db.Model(&models.AppUser{}).Where("id = ?", id).Update("enabled", true).Error
}

// otpRepo implements otp.Repo over gorm.
type otpRepo struct{ db *gorm.DB }

func (r otpRepo) FindUserByLogin(identifier string) (otp.UserRef, error) {
	var u models.AppUser
	if err := r.db.Where("username = ? OR email = ?", identifier, identifier).First(&u).Error; err != nil {
		return otp.UserRef{}, err
	}
	return otp.UserRef{ID: u.ID, Username: u.Username, Email: u.Email}, nil
}

func (r otpRepo) FindUserByID(id uint) (otp.UserRef, error) {
	var u models.AppUser
	if err := r.db.First(&u, id).Error; err != nil {
		return otp.UserRef{}, err
	}
	return otp.UserRef{ID: u.ID, Username: u.Username, Email: u.Email}, nil
}

func (r otpRepo) DeleteRecoveriesByUser(userID uint) error {
	return r.db.Where("user_id = ?", userID).Delete(&models.OtpRecovery{}).Error
}

func (r otpRepo) SaveRecovery(rec otp.Recovery) error {
	return r.db.Create(&models.OtpRecovery{
		UUID:      rec.Handle,
		UserID:    rec.UserID,
		Otp:       rec.Code,
		Validated: rec.Validated,
	}).Error
}

func (r otpRepo) FindRecovery(handle string) (otp.Recovery, error) {
	var rec models.OtpRecovery
	if err := r.db.Where("uuid = ?", handle).First(&rec).Error; err != nil {
		return otp.Recovery{}, err
	}
	return otp.Recovery{Handle: rec.UUID, UserID: rec.UserID, Code: rec.Otp, Validated: rec.Validated}, nil
}

func (r otpRepo) MarkValidated(handle string) error {
	return r.db.Model(&models.OtpRecovery{}).Where("uuid = ?", handle).Update("validated", true).Error
}

func (r otpRepo) FindRecoveryByUser(userID uint) (otp.Recovery, error) {
	var rec models.OtpRecovery
	if err := r.db.Where("user_id = ?", userID).First(&rec).Error; err != nil {
		return otp.Recovery{}, err
	}
	return otp.Recovery{Handle: rec.UUID, UserID: rec.UserID, Code: rec.Otp, Validated: rec.Validated}, nil
}

func (r otpRepo) DeleteRecovery(handle string) error {
	return r.db.Where("uuid = ?", handle).Delete(&models.OtpRecovery{}).Error
}

func (r otpRepo) UpdatePassword(userID uint, hash []byte) error {
	return r.db.Model(&models.AppUser{}).Where("id = ?", userID).Update("hashed_password", hash).Error
}
