package handlers

import (
	"spiceexport/internal/middleware"
	"spiceexport/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service  *services.OrderService
	validate *validator.Validate
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the order routes. router must already require authentication.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Post("/", h.HandleCreateOrder)
	orderRoutes.Get("/mine", h.HandleGetMyOrders)
	orderRoutes.Get("/", middleware.AdminRequired(), h.HandleGetOrders)
	orderRoutes.Get("/analytics", middleware.AdminRequired(), h.HandleAnalytics)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Put("/:id/status", middleware.AdminRequired(), h.HandleUpdateStatus)
	orderRoutes.Put("/:id/pricing", middleware.AdminRequired(), h.HandleUpdatePricing)
	orderRoutes.Put("/:id/notes", middleware.AdminRequired(), h.HandleUpdateNotes)
	orderRoutes.Put("/:id/products", h.HandleModifyProducts)
}

// HandleCreateOrder submits a quotation request for the caller.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var in services.CreateOrderInput
	if ok, err := parseBody(c, h.validate, &in); !ok {
		return err
	}
	buyerID, _ := actor(c)
	order, err := h.service.CreateOrder(c.UserContext(), buyerID, in)
	if err != nil {
		return respondError(c, err, "Could not create order")
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

// HandleGetMyOrders lists the caller's orders, newest first.
func (h *OrderHandler) HandleGetMyOrders(c *fiber.Ctx) error {
	buyerID, _ := actor(c)
	orders, err := h.service.ListMyOrders(c.UserContext(), buyerID)
	if err != nil {
		return respondError(c, err, "Could not retrieve orders")
	}
	return c.JSON(orders)
}

// HandleGetOrders lists every order with its buyer.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	orders, err := h.service.ListAllOrders(c.UserContext())
	if err != nil {
		return respondError(c, err, "Could not retrieve orders")
	}
	return c.JSON(orders)
}

// HandleAnalytics returns ordered quantity per product in kilograms.
func (h *OrderHandler) HandleAnalytics(c *fiber.Ctx) error {
	demand, err := h.service.ProductAnalytics(c.UserContext())
	if err != nil {
		return respondError(c, err, "Could not compute analytics")
	}
	return c.JSON(demand)
}

// HandleGetOrderByID returns one order to its buyer or an admin.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	actorID, role := actor(c)
	order, err := h.service.GetOrder(c.UserContext(), c.Params("id"), actorID, role)
	if err != nil {
		return respondError(c, err, "Could not retrieve order")
	}
	return c.JSON(order)
}

// HandleUpdateStatus applies an admin status transition.
func (h *OrderHandler) HandleUpdateStatus(c *fiber.Ctx) error {
	var in services.StatusInput
	if ok, err := parseBody(c, h.validate, &in); !ok {
		return err
	}
	order, err := h.service.UpdateStatus(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return respondError(c, err, "Could not update order status")
	}
	return c.JSON(order)
}

// HandleUpdatePricing records an admin quotation or re-pricing.
func (h *OrderHandler) HandleUpdatePricing(c *fiber.Ctx) error {
	var in services.PricingInput
	if ok, err := parseBody(c, h.validate, &in); !ok {
		return err
	}
	order, err := h.service.UpdatePricing(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return respondError(c, err, "Could not update pricing")
	}
	return c.JSON(order)
}

// HandleUpdateNotes replaces the admin notes without changing status.
func (h *OrderHandler) HandleUpdateNotes(c *fiber.Ctx) error {
	var in services.NotesInput
	if ok, err := parseBody(c, h.validate, &in); !ok {
		return err
	}
	order, err := h.service.UpdateNotes(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return respondError(c, err, "Could not update notes")
	}
	return c.JSON(order)
}

// HandleModifyProducts lets the owning buyer edit a pending order.
func (h *OrderHandler) HandleModifyProducts(c *fiber.Ctx) error {
	var in services.ModifyProductsInput
	if ok, err := parseBody(c, h.validate, &in); !ok {
		return err
	}
	buyerID, _ := actor(c)
	order, err := h.service.ModifyProducts(c.UserContext(), c.Params("id"), buyerID, in)
	if err != nil {
		return respondError(c, err, "Could not modify order")
	}
	return c.JSON(order)
}
