package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/gigconnect/backend/internal/models"
)

// GigHandler is listing glue: the negotiation core only references gigs by
// id, the client needs something to browse and link proposals to.
type GigHandler struct {
	DB *gorm.DB
}

func NewGigHandler(db *gorm.DB) *GigHandler {
	return &GigHandler{DB: db}
}

func (h *GigHandler) ListPublic(c *fiber.Ctx) error {
	var gigs []models.Gig
	q := h.DB.Where("status = ?", "published").Order("created_at DESC")
	if seller := c.Query("seller_id"); seller != "" {
		sellerUUID, err := uuid.Parse(seller)
		if err != nil {
			return fail(c, fiber.StatusBadRequest, "Invalid seller ID")
		}
		q = q.Where("seller_id = ?", sellerUUID)
	}
	if err := q.Find(&gigs).Error; err != nil {
		log.Println("Error fetching gigs:", err)
		return fail(c, fiber.StatusInternalServerError, "Failed to fetch gigs")
	}
	return c.JSON(fiber.Map{"success": true, "data": gigs})
}

func (h *GigHandler) GetDetail(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid gig ID")
	}

	var gig models.Gig
	if err := h.DB.First(&gig, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fail(c, fiber.StatusNotFound, "Gig not found")
		}
		return fail(c, fiber.StatusInternalServerError, "Something went wrong")
	}
	return c.JSON(fiber.Map{"success": true, "data": gig})
}

type createGigReq struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	BasePrice   int64          `json:"base_price"`
	Tags        datatypes.JSON `json:"tags"`
	Packages    datatypes.JSON `json:"packages"`
}

func (h *GigHandler) Create(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req createGigReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Title == "" {
		return fail(c, fiber.StatusBadRequest, "Title is required")
	}

	gig := models.Gig{
		SellerID:    userUUID,
		Title:       req.Title,
		Description: req.Description,
		BasePrice:   req.BasePrice,
		Tags:        req.Tags,
		Packages:    req.Packages,
		Status:      "published",
	}
	if err := h.DB.Create(&gig).Error; err != nil {
		log.Println("Error creating gig:", err)
		return fail(c, fiber.StatusInternalServerError, "Failed to create gig")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": gig})
}
