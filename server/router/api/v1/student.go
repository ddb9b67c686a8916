package v1

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v4"

	"github.com/misciohq/miscio/store"
)

type createStudentRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

type studentResponse struct {
	UID       string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

// CreateStudent adds an outreach recipient.
// POST /api/v1/students
func (s *APIV1Service) CreateStudent(c echo.Context) error {
	ctx := c.Request().Context()

	var req createStudentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "malformed request"})
	}
	if req.FirstName == "" || req.Phone == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "first_name and phone are required"})
	}

	student, err := s.Store.CreateStudent(ctx, &store.Student{
		UID:       shortuuid.New(),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		CreatedTs: time.Now().Unix(),
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to create student"})
	}

	return c.JSON(http.StatusOK, studentResponse{
		UID:       student.UID,
		FirstName: student.FirstName,
		LastName:  student.LastName,
		Phone:     student.Phone,
	})
}

// ListStudents returns all outreach recipients.
// GET /api/v1/students
func (s *APIV1Service) ListStudents(c echo.Context) error {
	students, err := s.Store.ListStudents(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to list students"})
	}

	out := make([]studentResponse, 0, len(students))
	for _, student := range students {
		out = append(out, studentResponse{
			UID:       student.UID,
			FirstName: student.FirstName,
			LastName:  student.LastName,
			Phone:     student.Phone,
		})
	}
	return c.JSON(http.StatusOK, map[string]any{"students": out})
}
