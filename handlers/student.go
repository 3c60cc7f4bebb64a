package handlers

import (
	"log"
	"net/http"
	"regexp"
	"strconv"

	"unipark/models"
	"unipark/services"

	"github.com/gin-gonic/gin"
)

// 電子郵件驗證 regex
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// 電話驗證字串 (例如：10 位數)
var phoneRegex = regexp.MustCompile(`^[0-9]{10}$`)

// RegisterStudent 註冊學生帳號
func RegisterStudent(c *gin.Context) {
	var student models.Student
	if err := c.ShouldBindJSON(&student); err != nil {
		log.Printf("Invalid input data: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "無效的輸入資料", err.Error())
		return
	}

	if student.Email == "" || !emailRegex.MatchString(student.Email) {
		ErrorResponse(c, http.StatusBadRequest, "請提供有效的電子郵件地址", "invalid email")
		return
	}

	if student.Phone != "" && !phoneRegex.MatchString(student.Phone) {
		ErrorResponse(c, http.StatusBadRequest, "請提供有效的電話號碼（10位數字）", "invalid phone")
		return
	}

	// 密碼至少 8 個字元，包含字母和數字
	if len(student.Password) < 8 ||
		!regexp.MustCompile(`[a-zA-Z]`).MatchString(student.Password) ||
		!regexp.MustCompile(`[0-9]`).MatchString(student.Password) {
		ErrorResponse(c, http.StatusBadRequest, "密碼必須至少8個字符，包含字母和數字", "weak password")
		return
	}

	// 角色由系統指派，註冊一律是 student；owner/admin 由管理員開通
	student.Role = models.RoleStudent

	if err := services.RegisterStudent(&student); err != nil {
		log.Printf("Failed to register student with email %s: %v", student.Email, err)
		ServiceErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "註冊成功，請查收驗證碼完成信箱驗證", student.ToSimpleResponse())
}

// LoginStudent 學生登入，成功回傳 JWT
func LoginStudent(c *gin.Context) {
	var loginData struct {
		Email    string `json:"email"`
		Phone    string `json:"phone"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&loginData); err != nil {
		log.Printf("Invalid input data: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "無效的輸入資料", err.Error())
		return
	}

	// 確保至少提供 email 或 phone
	identifier := loginData.Email
	if identifier == "" {
		identifier = loginData.Phone
	}
	if identifier == "" {
		ErrorResponse(c, http.StatusBadRequest, "必須提供電子郵件或電話", "missing identifier")
		return
	}

	token, student, err := services.LoginStudent(identifier, loginData.Password)
	if err != nil {
		log.Printf("Login failed for %s: %v", identifier, err)
		ServiceErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "登入成功", gin.H{
		"token":   token,
		"student": student.ToSimpleResponse(),
	})
}

// VerifyEmail 驗證信箱
func VerifyEmail(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
		Code  string `json:"code" binding:"required,len=6"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的輸入資料", err.Error())
		return
	}

	if err := services.VerifyEmail(req.Email, req.Code); err != nil {
		log.Printf("Email verification failed for %s: %v", req.Email, err)
		ServiceErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "信箱驗證成功", nil)
}

// ResendVerification 重發驗證碼
func ResendVerification(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的輸入資料", err.Error())
		return
	}

	if err := services.ResendVerification(req.Email); err != nil {
		ServiceErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "驗證碼已重新寄出", nil)
}

// GetProfile 查自己的帳號資料
func GetProfile(c *gin.Context) {
	studentID := c.GetInt("student_id")

	student, err := services.GetStudentByID(studentID)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "查詢成功", student.ToSimpleResponse())
}

// UpdateProfile 更新自己的帳號資料
func UpdateProfile(c *gin.Context) {
	studentID := c.GetInt("student_id")

	var req services.UpdateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的輸入資料", err.Error())
		return
	}

	if req.Phone != nil && *req.Phone != "" && !phoneRegex.MatchString(*req.Phone) {
		ErrorResponse(c, http.StatusBadRequest, "請提供有效的電話號碼（10位數字）", "invalid phone")
		return
	}

	student, err := services.UpdateStudent(studentID, &req)
	if err != nil {
		log.Printf("Failed to update student %d: %v", studentID, err)
		ServiceErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "更新成功", student.ToSimpleResponse())
}

// UpdateStudentRole 管理員調整帳號角色（student/owner/admin）
func UpdateStudentRole(c *gin.Context) {
	targetID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的學生 ID", err.Error())
		return
	}

	var req struct {
		Role string `json:"role" binding:"required,oneof=student owner admin"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的輸入資料", err.Error())
		return
	}

	student, err := services.GetStudentByID(targetID)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}

	if err := services.UpdateStudentRole(student.StudentID, req.Role); err != nil {
		ServiceErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "角色更新成功", nil)
}
