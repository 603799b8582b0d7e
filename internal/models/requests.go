package models

// SignupRequest тело запроса регистрации.
type SignupRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=50,personname"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,password"`
	Role     string `json:"role,omitempty" validate:"omitempty,oneof=student instructor"`
}

// SigninRequest тело запроса входа.
type SigninRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileRequest поля профиля. Аватар передаётся отдельной частью multipart-формы.
type UpdateProfileRequest struct {
	Name string `json:"name" validate:"omitempty,min=2,max=50,personname"`
	Bio  string `json:"bio" validate:"max=200"`
}

// ChangePasswordRequest смена пароля авторизованным пользователем.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,password,nefield=CurrentPassword"`
}

// ForgotPasswordRequest запрос письма для сброса пароля.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest новый пароль по токену из письма.
type ResetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=8,password"`
}

// CreateCourseRequest тело запроса создания курса.
type CreateCourseRequest struct {
	Title       string  `json:"title" validate:"required,max=100"`
	Subtitle    string  `json:"subtitle" validate:"required,max=200"`
	Description string  `json:"description" validate:"required,max=500"`
	Category    string  `json:"category" validate:"required"`
	Level       string  `json:"level" validate:"required,oneof=beginner intermediate advanced"`
	Price       float64 `json:"price" validate:"gte=0"`
}

// UpdateCourseRequest частичное обновление курса, отсутствующие поля не меняются.
type UpdateCourseRequest struct {
	Title       *string  `json:"title" validate:"omitempty,min=1,max=100"`
	Subtitle    *string  `json:"subtitle" validate:"omitempty,min=1,max=200"`
	Description *string  `json:"description" validate:"omitempty,min=1,max=500"`
	Category    *string  `json:"category" validate:"omitempty,min=1"`
	Level       *string  `json:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
	IsPublished *bool    `json:"isPublished"`
}

// ToUpdate переводит запрос в модель частичного обновления.
func (r UpdateCourseRequest) ToUpdate() CourseUpdate {
	return CourseUpdate{
		Title:       r.Title,
		Subtitle:    r.Subtitle,
		Description: r.Description,
		Category:    r.Category,
		Level:       r.Level,
		Price:       r.Price,
		IsPublished: r.IsPublished,
	}
}

// CreateLectureRequest тело запроса добавления лекции.
// VideoURL и PublicID берутся из ответа загрузки видео.
type CreateLectureRequest struct {
	Title       string  `json:"title" validate:"required,max=100"`
	Description string  `json:"description" validate:"required,max=500"`
	IsPreview   bool    `json:"isPreview"`
	VideoURL    string  `json:"videoUrl" validate:"omitempty,url"`
	PublicID    string  `json:"publicId"`
	Duration    float64 `json:"duration" validate:"gte=0"`
}

// CourseIDRequest тело запросов на оплату курса.
type CourseIDRequest struct {
	CourseID string `json:"courseId" validate:"required,uuid"`
}

// VerifyPaymentRequest данные, которые виджет Razorpay возвращает клиенту после оплаты.
type VerifyPaymentRequest struct {
	OrderID   string `json:"razorpay_order_id" validate:"required"`
	PaymentID string `json:"razorpay_payment_id" validate:"required"`
	Signature string `json:"razorpay_signature" validate:"required"`
}
