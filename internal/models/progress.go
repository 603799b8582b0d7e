package models

import "time"

// CourseProgress прогресс пользователя по курсу.
type CourseProgress struct {
	ID              string            `json:"id"`
	UserUID         string            `json:"userId"`
	CourseID        string            `json:"courseId"`
	IsCompleted     bool              `json:"isCompleted"`
	LectureProgress []LectureProgress `json:"lectureProgress"`
	LastAccessed    time.Time         `json:"lastAccessed"`
}

// LectureProgress отметка о прохождении одной лекции.
type LectureProgress struct {
	LectureID   string    `json:"lectureId"`
	IsCompleted bool      `json:"isCompleted"`
	WatchTime   int       `json:"watchTime"`
	LastWatched time.Time `json:"lastWatched"`
}

// CompletedCount число пройденных лекций.
func (p *CourseProgress) CompletedCount() int {
	n := 0
	for _, lp := range p.LectureProgress {
		if lp.IsCompleted {
			n++
		}
	}
	return n
}
