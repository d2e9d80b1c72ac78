package handlers

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/knightquest/kq-api/internal/middleware"
	"github.com/knightquest/kq-api/internal/models"
	"github.com/knightquest/kq-api/internal/services"
	"github.com/knightquest/kq-api/internal/utils"
	"github.com/rs/zerolog"
)

// SaveHandler handles the per-user save document routes. All routes operate on
// the authenticated user's own save; there is no cross-user access.
type SaveHandler struct {
	Saves  *services.SaveService
	Logger zerolog.Logger
}

// Get handles GET /save
// @Summary Get the current save document
// @Description Returns the authenticated user's save, or null when none exists yet.
// @Tags Save
// @Produce json
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 401 {object} utils.ErrorResponseStruct
// @Router /save [get]
func (h *SaveHandler) Get(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	save, err := h.Saves.Get(userID)
	if err != nil {
		h.Logger.Error().Err(err).Uint64("user_id", userID).Msg("save load failed")
		return utils.Internal(c, "SAVE_LOAD_FAILED")
	}
	if save == nil {
		return utils.Success(c, fiber.StatusOK, "No save data found", nil)
	}

	return utils.Success(c, fiber.StatusOK, "Save data retrieved", save.Data)
}

// Put handles PUT /save
// @Summary Replace the save document
// @Description Overwrites the whole document with the request body. Fails with 404 when no save exists; the save must be created through a login flow first.
// @Tags Save
// @Accept json
// @Produce json
// @Param body body object true "Complete save document"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /save [put]
func (h *SaveHandler) Put(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	body := c.Body()
	if len(body) == 0 || !json.Valid(body) {
		return utils.Error(c, fiber.StatusBadRequest, "Request body must be a valid JSON document", "INVALID_INPUT")
	}

	save, err := h.Saves.Replace(userID, models.NewJSON(body))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return utils.NotFound(c, "No save data found for this user", "SAVE_NOT_FOUND")
		}
		h.Logger.Error().Err(err).Uint64("user_id", userID).Msg("save update failed")
		return utils.Internal(c, "SAVE_UPDATE_FAILED")
	}

	return utils.Success(c, fiber.StatusOK, "Save data updated", save.Data)
}

// Delete handles DELETE /save
// @Summary Reset the save document to defaults
// @Description Replaces the stored document with the default skeleton. Idempotent.
// @Tags Save
// @Produce json
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /save [delete]
func (h *SaveHandler) Delete(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	if err := h.Saves.Reset(userID); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return utils.NotFound(c, "No save data found for this user", "SAVE_NOT_FOUND")
		}
		h.Logger.Error().Err(err).Uint64("user_id", userID).Msg("save reset failed")
		return utils.Internal(c, "SAVE_RESET_FAILED")
	}

	return utils.Success(c, fiber.StatusOK, "Save data reset to default", nil)
}
