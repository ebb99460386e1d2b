package response

import (
	"github.com/gofiber/fiber/v2"
)

// Envelope : 프런트와 주고받는 공통 응답 형식
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type Ext struct {
	*fiber.Ctx
}

// Ok : 성공(200) 응답
func (ext Ext) Ok(data interface{}) error {
	return ext.Status(fiber.StatusOK).JSON(Envelope{Success: true, Data: data})
}

// Error : 에러 응답. 기본 400, statusCode로 덮어쓸 수 있음
func (ext Ext) Error(err error, statusCode ...int) error {
	status := fiber.StatusBadRequest
	if len(statusCode) > 0 {
		status = statusCode[0]
	}
	return ext.Status(status).JSON(Envelope{Success: false, Error: err.Error()})
}

// NotFound : 대상 없음 (세션이 없는 상태에서의 제어 요청 등)
func (ext Ext) NotFound(err error) error {
	return ext.Error(err, fiber.StatusNotFound)
}
