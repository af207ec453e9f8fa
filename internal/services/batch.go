package services

import "fmt"

// UserError - ошибка обработки одного пользователя внутри пакетной задачи
type UserError struct {
	UserID int64
	Err    error
}

func (e UserError) Error() string {
	return fmt.Sprintf("user %d: %v", e.UserID, e.Err)
}

// BatchResult - итог пакетной задачи. Ошибка одного пользователя не
// прерывает остальных: она копится здесь, а обход идет дальше.
type BatchResult struct {
	Succeeded int
	Failures  []UserError
}

func (r *BatchResult) ok() {
	r.Succeeded++
}

func (r *BatchResult) fail(userID int64, err error) {
	r.Failures = append(r.Failures, UserError{UserID: userID, Err: err})
}

func (r *BatchResult) Failed() int {
	return len(r.Failures)
}
