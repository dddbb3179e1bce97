package api

import (
	"net/http"

	"physioplan/server/internal/domain"
	"physioplan/server/internal/service"

	"github.com/gin-gonic/gin"
)

// AuthHandler holds the auth service dependency.
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// --- DTOs ---

// RegisterRequest defines the expected JSON for registration.
type RegisterRequest struct {
	Name     string      `json:"name" binding:"required"`
	Email    string      `json:"email" binding:"required,email"`
	Password string      `json:"password" binding:"required,min=8"`
	Role     domain.Role `json:"role" binding:"required,oneof=coach client"`
}

// LoginRequest defines the expected JSON for login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UserResponse is the DTO for returning account details.
type UserResponse struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	PatientID string      `json:"patientId,omitempty"`
}

// LoginResponse bundles the session token with the account.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// MapUserToResponse converts a domain.User to UserResponse DTO.
func MapUserToResponse(u *domain.User) UserResponse {
	if u == nil {
		return UserResponse{}
	}
	resp := UserResponse{
		ID:    u.ID.Hex(),
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	}
	if u.PatientID != nil {
		resp.PatientID = u.PatientID.Hex()
	}
	return resp
}

// --- Handler Methods ---

// Register godoc
// @Summary Register a new account
// @Description Creates a coach or client account.
// @Tags Auth
// @Accept json
// @Produce json
// @Param account body RegisterRequest true "Account details"
// @Success 201 {object} UserResponse "Account created"
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 409 {object} gin.H "Email already registered"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	user, err := h.authService.Register(c.Request.Context(), req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapUserToResponse(user))
}

// Login godoc
// @Summary Log in
// @Description Verifies credentials and returns a session token.
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Credentials"
// @Success 200 {object} LoginResponse "Session token and account"
// @Failure 401 {object} gin.H "Invalid credentials"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	token, user, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, LoginResponse{
		Token: token,
		User:  MapUserToResponse(user),
	})
}

// Me godoc
// @Summary Get the authenticated account
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UserResponse
// @Failure 401 {object} gin.H "Not authenticated"
// @Router /me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	principal, err := principalFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	user, err := h.authService.CurrentUser(c.Request.Context(), principal.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(user))
}
