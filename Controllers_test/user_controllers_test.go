package Controllers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/Manuekle/gymratplus-sub004/controllers"
	"github.com/Manuekle/gymratplus-sub004/models"
	"github.com/Manuekle/gymratplus-sub004/utils"
)

func setupUserRouter(t *testing.T) *gin.Engine {
	utils.InitLogger()
	db := setupTestDB(t)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	userCtrl := controllers.NewUserController(db)
	router.POST("/register", userCtrl.Register)
	router.POST("/login", userCtrl.Login)
	return router
}

func TestRegisterAndLogin(t *testing.T) {
	router := setupUserRouter(t)

	body, _ := json.Marshal(map[string]string{
		"name":     "Ana",
		"email":    "Ana@Example.com",
		"password": "secret1234",
		"role":     "student",
	})
	req, _ := http.NewRequest("POST", "/register", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)

	// Email disimpan lowercase, login case-insensitive
	body, _ = json.Marshal(map[string]string{
		"email":    "ana@example.com",
		"password": "secret1234",
	})
	req, _ = http.NewRequest("POST", "/login", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Token string      `json:"token"`
			User  models.User `json:"user"`
		} `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Data.Token)
	assert.Equal(t, "ana@example.com", resp.Data.User.Email)

	claims, err := utils.ValidateToken(resp.Data.Token)
	assert.NoError(t, err)
	assert.Equal(t, "student", claims.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	router := setupUserRouter(t)

	body, _ := json.Marshal(map[string]string{
		"name":     "Luis",
		"email":    "luis@example.com",
		"password": "secret1234",
		"role":     "instructor",
	})
	req, _ := http.NewRequest("POST", "/register", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)

	body, _ = json.Marshal(map[string]string{
		"email":    "luis@example.com",
		"password": "wrong-password",
	})
	req, _ = http.NewRequest("POST", "/login", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	router := setupUserRouter(t)

	body, _ := json.Marshal(map[string]string{
		"name":     "Eva",
		"email":    "eva@example.com",
		"password": "secret1234",
		"role":     "admin",
	})
	req, _ := http.NewRequest("POST", "/register", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
