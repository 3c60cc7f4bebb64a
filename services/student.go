package services

import (
	"errors"
	"fmt"
	"log"
	"math/rand"

	"unipark/database"
	"unipark/models"
	"unipark/utils"

	"gorm.io/gorm"
)

// newVerificationCode 產生 6 位數驗證碼
func newVerificationCode() string {
	return fmt.Sprintf("%06d", rand.Intn(1000000))
}

// RegisterStudent 註冊學生帳號。email 與電話都不能重複；
// 密碼以 bcrypt 雜湊後入庫，明碼不落地
func RegisterStudent(student *models.Student) error {
	var count int64
	if err := database.DB.Model(&models.Student{}).
		Where("email = ?", student.Email).
		Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check email: %w", err)
	}
	if count > 0 {
		return ErrEmailTaken
	}

	if student.Phone != "" {
		if err := database.DB.Model(&models.Student{}).
			Where("phone = ?", student.Phone).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check phone: %w", err)
		}
		if count > 0 {
			return ErrPhoneTaken
		}
	}

	hashed, err := utils.HashPassword(student.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	student.Password = hashed

	if student.Role == "" {
		student.Role = models.RoleStudent
	}
	student.EmailVerified = false
	student.VerificationCode = newVerificationCode()

	if err := database.DB.Create(student).Error; err != nil {
		log.Printf("Failed to register student: %v", err)
		return fmt.Errorf("failed to register student: %w", err)
	}

	// TODO: 接上郵件服務後改寄信，目前先記 log 方便開發環境驗證
	log.Printf("Student %d registered, verification code for %s: %s", student.StudentID, student.Email, student.VerificationCode)
	return nil
}

// LoginStudent 以 email 或電話登入，成功時回傳 JWT。
// email 未驗證的帳號不發 token
func LoginStudent(identifier, password string) (string, *models.Student, error) {
	var student models.Student
	if err := database.DB.
		Where("email = ? OR phone = ?", identifier, identifier).
		First(&student).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("failed to query student: %w", err)
	}

	if !utils.CheckPasswordHash(password, student.Password) {
		return "", nil, ErrInvalidCredentials
	}

	if !student.EmailVerified {
		return "", nil, ErrEmailNotVerified
	}

	token, err := utils.GenerateToken(student.StudentID, student.Role)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}

	log.Printf("Student %d logged in", student.StudentID)
	return token, &student, nil
}

// VerifyEmail 核對驗證碼並標記 email 已驗證
func VerifyEmail(email, code string) error {
	var student models.Student
	if err := database.DB.Where("email = ?", email).First(&student).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStudentNotFound
		}
		return fmt.Errorf("failed to query student: %w", err)
	}

	if student.EmailVerified {
		return nil // 已驗證過，冪等
	}
	if student.VerificationCode == "" || student.VerificationCode != code {
		return ErrVerificationCodeInvalid
	}

	if err := database.DB.Model(&student).Updates(map[string]interface{}{
		"email_verified":    true,
		"verification_code": "",
	}).Error; err != nil {
		return fmt.Errorf("failed to mark email verified: %w", err)
	}

	log.Printf("Student %d verified email %s", student.StudentID, email)
	return nil
}

// ResendVerification 重發驗證碼（換新碼，舊碼立即失效）
func ResendVerification(email string) error {
	var student models.Student
	if err := database.DB.Where("email = ?", email).First(&student).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStudentNotFound
		}
		return fmt.Errorf("failed to query student: %w", err)
	}

	if student.EmailVerified {
		return nil
	}

	code := newVerificationCode()
	if err := database.DB.Model(&student).
		Update("verification_code", code).Error; err != nil {
		return fmt.Errorf("failed to update verification code: %w", err)
	}

	log.Printf("Resent verification code for %s: %s", email, code)
	return nil
}

// UpdateStudentRole 調整帳號角色（限管理員呼叫）
func UpdateStudentRole(studentID int, role string) error {
	result := database.DB.Model(&models.Student{}).
		Where("student_id = ?", studentID).
		Update("role", role)
	if result.Error != nil {
		return fmt.Errorf("failed to update role: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrStudentNotFound
	}
	log.Printf("Student %d role changed to %s", studentID, role)
	return nil
}

// GetStudentByID 查學生資料
func GetStudentByID(studentID int) (*models.Student, error) {
	var student models.Student
	if err := database.DB.First(&student, studentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("failed to get student %d: %w", studentID, err)
	}
	return &student, nil
}

// UpdateStudentRequest 學生資料更新請求
type UpdateStudentRequest struct {
	Name     *string `json:"name" binding:"omitempty,max=50"`
	Phone    *string `json:"phone" binding:"omitempty,max=20"`
	Password *string `json:"password" binding:"omitempty,min=8"`
}

// UpdateStudent 更新學生資料；換電話時檢查重複，換密碼時重新雜湊
func UpdateStudent(studentID int, req *UpdateStudentRequest) (*models.Student, error) {
	student, err := GetStudentByID(studentID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Phone != nil && *req.Phone != student.Phone {
		var count int64
		if err := database.DB.Model(&models.Student{}).
			Where("phone = ? AND student_id != ?", *req.Phone, studentID).
			Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to check phone: %w", err)
		}
		if count > 0 {
			return nil, ErrPhoneTaken
		}
		updates["phone"] = *req.Phone
	}
	if req.Password != nil {
		hashed, err := utils.HashPassword(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		updates["password"] = hashed
	}

	if len(updates) == 0 {
		return student, nil
	}

	if err := database.DB.Model(student).Updates(updates).Error; err != nil {
		log.Printf("Failed to update student %d: %v", studentID, err)
		return nil, fmt.Errorf("failed to update student: %w", err)
	}

	if err := database.DB.First(student, studentID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload student: %w", err)
	}
	return student, nil
}
