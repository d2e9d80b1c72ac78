package handlers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/knightquest/kq-api/internal/middleware"
	"github.com/knightquest/kq-api/internal/services"
	"github.com/knightquest/kq-api/internal/utils"
	"github.com/rs/zerolog"
)

// ModuleHandler handles teacher module authoring, assignment and the
// student-facing assignment list.
type ModuleHandler struct {
	Modules *services.ModuleService
	Logger  zerolog.Logger
}

// Create handles POST /modules
// @Summary Create a module
// @Description Creates a question module owned by the authenticated teacher.
// @Tags Modules
// @Accept json
// @Produce json
// @Param body body object true "Module with questions"
// @Success 201 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Router /modules [post]
func (h *ModuleHandler) Create(c *fiber.Ctx) error {
	teacherID := middleware.UserID(c)

	var body struct {
		Name      string                   `json:"name"`
		Grade     string                   `json:"grade"`
		Subject   string                   `json:"subject"`
		Questions []services.QuestionInput `json:"questions"`
	}
	if err := c.BodyParser(&body); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_INPUT")
	}

	module, err := h.Modules.Create(teacherID, body.Name, body.Grade, body.Subject, body.Questions)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			return utils.Error(c, fiber.StatusBadRequest, "Module name and question text are required", "INVALID_INPUT")
		}
		h.Logger.Error().Err(err).Uint64("teacher_id", teacherID).Msg("module creation failed")
		return utils.Internal(c, "MODULE_CREATE_FAILED")
	}

	return utils.Success(c, fiber.StatusCreated, "Module created", module)
}

// List handles GET /modules
// @Summary List the teacher's modules
// @Description Returns every module owned by the authenticated teacher with its questions and assigned student IDs.
// @Tags Modules
// @Produce json
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Router /modules [get]
func (h *ModuleHandler) List(c *fiber.Ctx) error {
	teacherID := middleware.UserID(c)

	modules, err := h.Modules.ListForTeacher(teacherID)
	if err != nil {
		h.Logger.Error().Err(err).Uint64("teacher_id", teacherID).Msg("module list failed")
		return utils.Internal(c, "MODULE_LIST_FAILED")
	}

	return utils.Success(c, fiber.StatusOK, "Modules retrieved", modules)
}

// Assign handles POST /modules/assign
// @Summary Assign a module to students
// @Description Assigns to the named student IDs, or to every currently linked student when assignToAll is set. Unknown student IDs reject the whole request; nothing is assigned partially.
// @Tags Modules
// @Accept json
// @Produce json
// @Param body body object true "Assignment request"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Router /modules/assign [post]
func (h *ModuleHandler) Assign(c *fiber.Ctx) error {
	teacherID := middleware.UserID(c)

	var body struct {
		ModuleID    uint64   `json:"moduleId"`
		StudentIDs  []string `json:"studentIds"`
		AssignToAll bool     `json:"assignToAll"`
	}
	if err := c.BodyParser(&body); err != nil || body.ModuleID == 0 {
		return utils.Error(c, fiber.StatusBadRequest, "moduleId is required", "INVALID_INPUT")
	}

	var (
		count int
		err   error
	)
	if body.AssignToAll {
		count, err = h.Modules.AssignToAllCurrentStudents(body.ModuleID, teacherID)
	} else {
		count, err = h.Modules.AssignExplicit(body.ModuleID, body.StudentIDs)
	}
	if err != nil {
		var notFound *services.StudentsNotFoundError
		switch {
		case errors.As(err, &notFound):
			return utils.Error(c, fiber.StatusBadRequest, notFound.Error(), "STUDENTS_NOT_FOUND")
		case errors.Is(err, services.ErrNoStudentsLinked):
			return utils.Error(c, fiber.StatusBadRequest, "No students linked to this teacher", "NO_STUDENTS")
		case errors.Is(err, services.ErrValidation):
			return utils.Error(c, fiber.StatusBadRequest, "studentIds is required unless assignToAll is set", "INVALID_INPUT")
		default:
			h.Logger.Error().Err(err).Uint64("module_id", body.ModuleID).Msg("module assignment failed")
			return utils.Internal(c, "MODULE_ASSIGN_FAILED")
		}
	}

	return utils.Success(c, fiber.StatusOK,
		fmt.Sprintf("Module assigned to %d student(s)", count),
		fiber.Map{"assignedCount": count})
}

// Mine handles GET /modules/mine
// @Summary List modules assigned to the authenticated student
// @Description Each entry carries an assignmentType of "specific" or "all". The classification reflects the teacher's current roster coverage at the time of the request.
// @Tags Modules
// @Produce json
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Router /modules/mine [get]
func (h *ModuleHandler) Mine(c *fiber.Ctx) error {
	studentID := middleware.UserID(c)

	modules, err := h.Modules.EffectiveAssignmentsForStudent(studentID)
	if err != nil {
		h.Logger.Error().Err(err).Uint64("student_id", studentID).Msg("assignment list failed")
		return utils.Internal(c, "MODULE_LIST_FAILED")
	}
	if modules == nil {
		modules = []services.AssignedModule{}
	}

	return utils.Success(c, fiber.StatusOK, "Assigned modules retrieved", modules)
}
