package http

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/traslados-api/internal/application/dto"
	"github.com/jhoicas/traslados-api/internal/application/transfer"
	"github.com/jhoicas/traslados-api/internal/domain/entity"
)

// HeaderIdempotencyKey evita crear dos veces el mismo traslado por reintentos del cliente.
const HeaderIdempotencyKey = "Idempotency-Key"

// TransferHandler maneja las peticiones HTTP de traslados entre sedes (protegido).
type TransferHandler struct {
	uc       *transfer.TransferUseCase
	validate *validator.Validate
	log      zerolog.Logger
}

// NewTransferHandler construye el handler.
func NewTransferHandler(uc *transfer.TransferUseCase, log zerolog.Logger) *TransferHandler {
	return &TransferHandler{uc: uc, validate: newValidator(), log: log}
}

// Create godoc
// @Summary      Crear traslado
// @Description  Descuenta el stock de origen de todas las líneas (todo o nada) y deja el traslado pendiente.
//
//	Con payment se registra además la venta entre sedes.
//
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string                     false  "clave para reintentos seguros"
// @Param        body             body    dto.CreateTransferRequest  true   "sedes, líneas y pago opcional"
// @Success      201  {object}  dto.TransferResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/transfers [post]
func (h *TransferHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateTransferRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if !validateRequest(c, h.validate, &req) {
		return nil
	}
	if !canAccessStore(c, req.FromStoreID) && !canAccessStore(c, req.ToStoreID) {
		return forbiddenStore(c)
	}

	in := transfer.CreateTransferInput{
		FromStoreID:    req.FromStoreID,
		ToStoreID:      req.ToStoreID,
		Description:    req.Description,
		Items:          make([]transfer.TransferLineInput, 0, len(req.Items)),
		ActorID:        GetUserID(c),
		ActorName:      GetUserName(c),
		IdempotencyKey: c.Get(HeaderIdempotencyKey),
	}
	for _, it := range req.Items {
		in.Items = append(in.Items, transfer.TransferLineInput{
			ProductID:       it.ProductID,
			Quantity:        it.Quantity,
			FromSubLocation: entity.SubLocation(it.FromSubLocation),
			UnitPrice:       it.UnitPrice,
		})
	}
	if req.Payment != nil {
		in.Payment = &transfer.PaymentInput{Cash: req.Payment.Cash, Transfer: req.Payment.Transfer}
	}

	t, err := h.uc.Create(c.UserContext(), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromTransfer(t))
}

// List godoc
// @Summary      Listar traslados
// @Description  Traslados donde la sede es origen o destino, más recientes primero.
//
//	Sin store_id se usa la sede del usuario.
//
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        store_id   query  string  false  "sede (origen o destino)"
// @Param        status     query  string  false  "pending | in_transit | received | partially_received | cancelled"
// @Param        page       query  int     false  "página desde 1"
// @Param        page_size  query  int     false  "tamaño de página (máx. 100)"
// @Success      200  {object}  dto.TransferListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/transfers [get]
func (h *TransferHandler) List(c *fiber.Ctx) error {
	req := dto.ListTransfersRequest{
		PageRequest: dto.PageRequest{
			Page:     c.QueryInt("page", 0),
			PageSize: c.QueryInt("page_size", 0),
		},
		StoreID: c.Query("store_id"),
		Status:  c.Query("status"),
	}
	if !validateRequest(c, h.validate, &req) {
		return nil
	}
	if req.StoreID == "" && GetRole(c) != RoleAdmin {
		req.StoreID = GetStoreID(c)
	}
	if !canAccessStore(c, req.StoreID) {
		return forbiddenStore(c)
	}

	page, err := h.uc.List(c.UserContext(), transfer.ListTransfersInput{
		StoreID:  req.StoreID,
		Status:   entity.TransferStatus(req.Status),
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := dto.TransferListResponse{
		PageResponse: dto.PageResponse{
			Page:     page.Page,
			PageSize: page.PageSize,
			Total:    page.Total,
			HasMore:  page.HasMore,
		},
		Items: make([]dto.TransferResponse, 0, len(page.Items)),
	}
	for _, t := range page.Items {
		out.Items = append(out.Items, dto.FromTransfer(t))
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener traslado
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del traslado"
// @Success      200  {object}  dto.TransferResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id} [get]
func (h *TransferHandler) GetByID(c *fiber.Ctx) error {
	t, err := h.authorized(c)
	if t == nil {
		return err
	}
	return c.JSON(dto.FromTransfer(t))
}

// Dispatch godoc
// @Summary      Despachar traslado
// @Description  pending → in_transit. No mueve stock.
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del traslado"
// @Success      200  {object}  dto.TransferResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/dispatch [post]
func (h *TransferHandler) Dispatch(c *fiber.Ctx) error {
	if t, err := h.authorized(c); t == nil {
		return err
	}
	t, err := h.uc.Dispatch(c.UserContext(), c.Params("id"), GetUserID(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.FromTransfer(t))
}

// Receive godoc
// @Summary      Recibir traslado
// @Description  Suma lo recibido en la sede destino. Las líneas omitidas se reciben completas;
//
//	recibir menos de lo solicitado deja el traslado como partially_received.
//
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                      true  "ID del traslado"
// @Param        body  body  dto.ReceiveTransferRequest  true  "cantidades recibidas por línea"
// @Success      200  {object}  dto.TransferResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/receive [post]
func (h *TransferHandler) Receive(c *fiber.Ctx) error {
	var req dto.ReceiveTransferRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badBody(c)
		}
	}
	if !validateRequest(c, h.validate, &req) {
		return nil
	}
	current, err := h.authorized(c)
	if current == nil {
		return err
	}
	if !canAccessStore(c, current.ToStoreID) {
		return forbiddenStore(c)
	}

	in := transfer.ReceiveTransferInput{
		TransferID:  current.ID,
		SubLocation: entity.SubLocation(req.SubLocation),
		Items:       make([]transfer.ReceivedItemInput, 0, len(req.Items)),
		ActorID:     GetUserID(c),
		ActorName:   GetUserName(c),
	}
	for _, it := range req.Items {
		in.Items = append(in.Items, transfer.ReceivedItemInput{
			ItemID:           it.ItemID,
			QuantityReceived: it.QuantityReceived,
			Note:             it.Note,
			SubLocation:      entity.SubLocation(it.SubLocation),
		})
	}
	t, err := h.uc.Receive(c.UserContext(), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.FromTransfer(t))
}

// Cancel godoc
// @Summary      Cancelar traslado
// @Description  Devuelve lo solicitado a la sede origen y reembolsa los pagos de la venta asociada.
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                     true  "ID del traslado"
// @Param        body  body  dto.CancelTransferRequest  true  "motivo"
// @Success      200  {object}  dto.CancelTransferResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/cancel [post]
func (h *TransferHandler) Cancel(c *fiber.Ctx) error {
	var req dto.CancelTransferRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if !validateRequest(c, h.validate, &req) {
		return nil
	}
	if t, err := h.authorized(c); t == nil {
		return err
	}
	res, err := h.uc.Cancel(c.UserContext(), c.Params("id"), req.Reason, GetUserID(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.CancelTransferResponse{
		Success:     res.Success,
		TotalRefund: res.TotalRefund,
		Transfer:    dto.FromTransfer(res.Transfer),
	})
}

// authorized carga el traslado de la ruta y verifica que el usuario pertenezca a una de sus sedes.
// Si devuelve nil el error ya fue escrito en la respuesta.
func (h *TransferHandler) authorized(c *fiber.Ctx) (*entity.Transfer, error) {
	t, err := h.uc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return nil, writeError(c, h.log, err)
	}
	if !canAccessStore(c, t.FromStoreID) && !canAccessStore(c, t.ToStoreID) {
		return nil, forbiddenStore(c)
	}
	return t, nil
}

func forbiddenStore(c *fiber.Ctx) error {
	return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "no tiene acceso a la sede"})
}
