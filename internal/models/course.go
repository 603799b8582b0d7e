package models

import "time"

// Уровни сложности курса.
const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
)

// Course описывает курс, созданный преподавателем.
type Course struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Subtitle         string    `json:"subtitle"`
	Description      string    `json:"description"`
	Category         string    `json:"category"`
	Level            string    `json:"level"`
	Price            float64   `json:"price"`
	Thumbnail        string    `json:"thumbnail"`
	InstructorUID    string    `json:"instructor"`
	IsPublished      bool      `json:"isPublished"`
	TotalLectures    int       `json:"totalLectures"`
	TotalDuration    float64   `json:"totalDuration"`
	EnrolledStudents int       `json:"enrolledStudents"`
	Lectures         []Lecture `json:"lectures,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// CourseUpdate частичное обновление курса, nil-поля не меняются.
type CourseUpdate struct {
	Title       *string
	Subtitle    *string
	Description *string
	Category    *string
	Level       *string
	Price       *float64
	IsPublished *bool
}

// CourseFilter параметры поиска по каталогу опубликованных курсов.
type CourseFilter struct {
	Query    string
	Category string
	Level    string
	PriceMin *float64
	PriceMax *float64
	// SortBy одно из: newest, price-low, price-high, title.
	SortBy string
	Limit  int
	Offset int
}

// Lecture лекция курса. VideoURL пуст, если у пользователя нет доступа.
type Lecture struct {
	ID          string    `json:"id"`
	CourseID    string    `json:"courseId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	VideoURL    string    `json:"videoUrl,omitempty"`
	PublicID    string    `json:"-"`
	Duration    float64   `json:"duration"`
	IsPreview   bool      `json:"isPreview"`
	Order       int       `json:"order"`
	CreatedAt   time.Time `json:"createdAt"`
}

// VisibleTo сообщает, виден ли курс пользователю. Черновик виден только автору.
func (c *Course) VisibleTo(userUID string) bool {
	return c.IsPublished || (userUID != "" && c.InstructorUID == userUID)
}

// HasFullAccess сообщает, доступны ли пользователю все лекции курса:
// автору курса и купившим его. Остальным открыты только лекции-превью.
func (c *Course) HasFullAccess(userUID string, purchased bool) bool {
	return purchased || (userUID != "" && c.InstructorUID == userUID)
}

// RedactLectures возвращает копию списка, в которой у закрытых лекций убраны ссылки на видео.
func RedactLectures(lectures []Lecture, fullAccess bool) []Lecture {
	out := make([]Lecture, len(lectures))
	copy(out, lectures)
	if fullAccess {
		return out
	}
	for i := range out {
		if !out[i].IsPreview {
			out[i].VideoURL = ""
		}
	}
	return out
}
