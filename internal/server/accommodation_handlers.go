package server

import (
	"io"
	"strings"

	"wayfare/internal/models"
	"wayfare/internal/repository"
	"wayfare/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListAccommodations handles GET /api/accommodations
// Supports filtering by country, city, type, price range, guest count and
// stay dates, plus free-text search and sorting.
func (s *Server) ListAccommodations(c *fiber.Ctx) error {
	page := parsePagination(c, 20)

	filter := repository.AccommodationFilter{
		Country:  strings.TrimSpace(c.Query("country")),
		City:     strings.TrimSpace(c.Query("city")),
		MinPrice: int64(c.QueryInt("min_price", 0)),
		MaxPrice: int64(c.QueryInt("max_price", 0)),
		Guests:   c.QueryInt("guests", 0),
		CheckIn:  parseDateQuery(c, "check_in"),
		CheckOut: parseDateQuery(c, "check_out"),
		Sort:     strings.TrimSpace(c.Query("sort")),
		Search:   strings.TrimSpace(c.Query("q")),
	}
	if raw := strings.TrimSpace(c.Query("type")); raw != "" {
		t := models.AccommodationType(strings.ToUpper(raw))
		if !t.Valid() {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid accommodation type"))
		}
		filter.Type = t
	}

	accs, err := s.accSvc.List(c.Context(), filter, page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(accs)
}

// GetAccommodation handles GET /api/accommodations/:id
// Unapproved listings are only visible to their supplier and admins.
func (s *Server) GetAccommodation(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	viewerID, _ := s.optionalUserID(c)

	acc, err := s.accSvc.Get(c.Context(), id, viewerID)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(acc)
}

// GetMyAccommodations handles GET /api/accommodations/mine
func (s *Server) GetMyAccommodations(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	page := parsePagination(c, 20)

	accs, err := s.accSvc.ListMine(c.Context(), userID, page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(accs)
}

type accommodationRequest struct {
	Type           string   `json:"type"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Country        string   `json:"country"`
	City           string   `json:"city"`
	Address        string   `json:"address"`
	Latitude       float64  `json:"latitude"`
	Longitude      float64  `json:"longitude"`
	BasePriceCents int64    `json:"base_price_cents"`
	Currency       string   `json:"currency"`
	MaxGuests      int      `json:"max_guests"`
	Bedrooms       int      `json:"bedrooms"`
	Beds           int      `json:"beds"`
	MinimumNights  int      `json:"minimum_nights"`
	MaximumNights  int      `json:"maximum_nights"`
	InstantBook    *bool    `json:"instant_book"`
	Amenities      []string `json:"amenities"`
}

// CreateAccommodation handles POST /api/accommodations
func (s *Server) CreateAccommodation(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req accommodationRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	instantBook := false
	if req.InstantBook != nil {
		instantBook = *req.InstantBook
	}

	acc, err := s.accSvc.Create(c.Context(), service.CreateAccommodationInput{
		SupplierID:     userID,
		Type:           models.AccommodationType(strings.ToUpper(req.Type)),
		Title:          req.Title,
		Description:    req.Description,
		Country:        req.Country,
		City:           req.City,
		Address:        req.Address,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		BasePriceCents: req.BasePriceCents,
		Currency:       req.Currency,
		MaxGuests:      req.MaxGuests,
		Bedrooms:       req.Bedrooms,
		Beds:           req.Beds,
		MinimumNights:  req.MinimumNights,
		MaximumNights:  req.MaximumNights,
		InstantBook:    instantBook,
		Amenities:      req.Amenities,
	})
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.Status(fiber.StatusCreated).JSON(acc)
}

// UpdateAccommodation handles PUT /api/accommodations/:id
func (s *Server) UpdateAccommodation(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req accommodationRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	acc, err := s.accSvc.Update(c.Context(), service.UpdateAccommodationInput{
		AccommodationID: id,
		SupplierID:      userID,
		Title:           req.Title,
		Description:     req.Description,
		Address:         req.Address,
		BasePriceCents:  req.BasePriceCents,
		MaxGuests:       req.MaxGuests,
		MinimumNights:   req.MinimumNights,
		MaximumNights:   req.MaximumNights,
		InstantBook:     req.InstantBook,
		Amenities:       req.Amenities,
	})
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(acc)
}

// DeleteAccommodation handles DELETE /api/accommodations/:id
func (s *Server) DeleteAccommodation(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.accSvc.Delete(c.Context(), id, userID); err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(fiber.Map{
		"message": "Accommodation deleted",
	})
}

// UploadAccommodationPhoto handles POST /api/accommodations/:id/photos
func (s *Server) UploadAccommodationPhoto(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	file, err := c.FormFile("photo")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("No file uploaded"))
	}

	src, err := file.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unable to read uploaded file"))
	}
	defer func() { _ = src.Close() }()

	content, err := io.ReadAll(src)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unable to read uploaded file"))
	}

	img, err := s.accSvc.UploadPhoto(c.UserContext(), service.UploadAccommodationPhotoInput{
		AccommodationID: id,
		SupplierID:      userID,
		Filename:        file.Filename,
		ContentType:     file.Header.Get("Content-Type"),
		Content:         content,
		Caption:         c.FormValue("caption"),
		Position:        c.QueryInt("position", 0),
	})
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.Status(fiber.StatusCreated).JSON(img)
}

// DeleteAccommodationPhoto handles DELETE /api/accommodations/:id/photos/:imageId
func (s *Server) DeleteAccommodationPhoto(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	imageID, err := s.parseID(c, "imageId")
	if err != nil {
		return nil
	}

	if err := s.accSvc.DeletePhoto(c.Context(), id, imageID, userID); err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(fiber.Map{
		"message": "Photo deleted",
	})
}

// GetAvailability handles GET /api/accommodations/:id/availability
// Returns booked ranges so clients can grey out unavailable dates.
func (s *Server) GetAvailability(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	bookings, err := s.bookingSvc.Availability(c.Context(), id)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	type bookedRange struct {
		CheckIn  string `json:"check_in"`
		CheckOut string `json:"check_out"`
	}
	ranges := make([]bookedRange, 0, len(bookings))
	for _, b := range bookings {
		ranges = append(ranges, bookedRange{
			CheckIn:  b.CheckIn.Format(dateLayout),
			CheckOut: b.CheckOut.Format(dateLayout),
		})
	}

	return c.JSON(fiber.Map{
		"accommodation_id": id,
		"booked":           ranges,
	})
}

// GetQuote handles GET /api/accommodations/:id/quote
func (s *Server) GetQuote(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	checkIn := parseDateQuery(c, "check_in")
	checkOut := parseDateQuery(c, "check_out")
	if checkIn.IsZero() || checkOut.IsZero() {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("check_in and check_out are required (YYYY-MM-DD)"))
	}

	quote, err := s.bookingSvc.GetQuote(c.Context(), service.QuoteInput{
		AccommodationID: id,
		CheckIn:         checkIn,
		CheckOut:        checkOut,
		Adults:          c.QueryInt("adults", 1),
		Children:        c.QueryInt("children", 0),
	})
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(quote)
}
