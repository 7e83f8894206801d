package controllers

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/propflow/lead-intake/models"
	"github.com/propflow/lead-intake/utils"
)

const magicLinkTTL = 15 * time.Minute

type AuthController struct {
	DB *gorm.DB
}

func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{DB: db}
}

// RequestMagicLink upserts the user by email and mints a one-shot login
// token. Only the bcrypt hash is stored; the link itself is handed to the
// mail delivery side (logged here, delivery is out of scope).
func (ac *AuthController) RequestMagicLink(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	if err := ac.DB.Where("email = ?", email).First(&user).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			respondServiceError(c, err)
			return
		}
		user = models.User{Email: email, Name: strings.SplitN(email, "@", 2)[0]}
		if err := ac.DB.Create(&user).Error; err != nil {
			respondServiceError(c, err)
			return
		}
	}

	secretBytes := make([]byte, 32)
	if _, err := rand.Read(secretBytes); err != nil {
		respondServiceError(c, err)
		return
	}
	secret := base64.RawURLEncoding.EncodeToString(secretBytes)

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	link := models.MagicLink{
		ID:        uuid.New().String(),
		Email:     email,
		TokenHash: string(hash),
		ExpiresAt: time.Now().Add(magicLinkTTL),
	}
	if err := ac.DB.Create(&link).Error; err != nil {
		respondServiceError(c, err)
		return
	}

	baseURL := os.Getenv("APP_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	utils.InfoLogger.Printf("magic link for %s: %s/auth/verify?token=%s.%s", email, baseURL, link.ID, secret)

	utils.RespondJSON(c, http.StatusOK, "Magic link sent", nil)
}

// VerifyMagicLink trades a valid, unexpired, unused magic-link token for a
// session JWT. The first successful login stamps the user as verified.
func (ac *AuthController) VerifyMagicLink(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	invalid := errors.New("invalid or expired magic link")

	parts := strings.SplitN(req.Token, ".", 2)
	if len(parts) != 2 {
		utils.RespondError(c, http.StatusUnauthorized, invalid)
		return
	}

	var link models.MagicLink
	if err := ac.DB.First(&link, "id = ?", parts[0]).Error; err != nil {
		utils.RespondError(c, http.StatusUnauthorized, invalid)
		return
	}
	if link.ConsumedAt != nil || time.Now().After(link.ExpiresAt) {
		utils.RespondError(c, http.StatusUnauthorized, invalid)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(link.TokenHash), []byte(parts[1])); err != nil {
		utils.RespondError(c, http.StatusUnauthorized, invalid)
		return
	}

	now := time.Now()
	link.ConsumedAt = &now
	if err := ac.DB.Save(&link).Error; err != nil {
		respondServiceError(c, err)
		return
	}

	var user models.User
	if err := ac.DB.Where("email = ?", link.Email).First(&user).Error; err != nil {
		respondServiceError(c, err)
		return
	}
	if user.VerifiedAt == nil {
		user.VerifiedAt = &now
		if err := ac.DB.Save(&user).Error; err != nil {
			respondServiceError(c, err)
			return
		}
	}

	token, err := utils.GenerateToken(user.ID, user.Email)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.InfoLogger.Printf("login via magic link: %s", user.Email)
	utils.RespondJSON(c, http.StatusOK, "Login successful", gin.H{
		"token": token,
		"user":  user,
	})
}

// GetProfile
func (ac *AuthController) GetProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("user id not found in context"))
		return
	}

	var user models.User
	if err := ac.DB.First(&user, userID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("user not found"))
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Profile", user)
}
