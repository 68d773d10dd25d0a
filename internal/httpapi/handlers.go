package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/pos/internal/domain"
	"github.com/vladislavdragonenkov/pos/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/pos/internal/service/auth"
	"github.com/vladislavdragonenkov/pos/internal/service/checkout"
	"github.com/vladislavdragonenkov/pos/internal/service/pricing"
	"github.com/vladislavdragonenkov/pos/internal/service/report"
)

// Handler связывает HTTP-слой с доменными сервисами и репозиториями.
type Handler struct {
	checkout checkout.Coordinator
	catalog  domain.CatalogRepository
	stock    domain.StockRepository
	members  domain.MemberRepository
	idem     domain.IdempotencyRepository
	outbox   domain.OutboxRepository
	auth     *auth.Service
	reports  *report.Service
	pricer   *pricing.Engine
	logger   *log.Entry
}

// NewHandler конструирует HTTP-обработчики с зависимостями.
func NewHandler(
	coordinator checkout.Coordinator,
	catalog domain.CatalogRepository,
	stock domain.StockRepository,
	members domain.MemberRepository,
	idem domain.IdempotencyRepository,
	outbox domain.OutboxRepository,
	authSvc *auth.Service,
	reports *report.Service,
	pricer *pricing.Engine,
	logger *log.Entry,
) *Handler {
	if logger == nil {
		logger = log.WithField("component", "httpapi")
	}
	return &Handler{
		checkout: coordinator,
		catalog:  catalog,
		stock:    stock,
		members:  members,
		idem:     idem,
		outbox:   outbox,
		auth:     authSvc,
		reports:  reports,
		pricer:   pricer,
		logger:   logger,
	}
}

type orderLineDTO struct {
	ProductID string `json:"product_id"`
	Size      string `json:"size"`
	Qty       int32  `json:"qty"`
}

type placeOrderRequest struct {
	MemberID      string         `json:"member_id,omitempty"`
	CustomerRef   string         `json:"customer_ref"`
	PaymentMethod string         `json:"payment_method"`
	Lines         []orderLineDTO `json:"lines"`
}

type placeOrderResponse struct {
	TransactionID         string `json:"transaction_id"`
	Subtotal              string `json:"subtotal"`
	Discount              string `json:"discount"`
	Total                 string `json:"total"`
	MemberDiscountApplied bool   `json:"member_discount_applied"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDomainError переводит доменные ошибки в HTTP-статусы.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsValidation(err):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case domain.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case domain.IsInsufficientStock(err):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrAccountLocked):
		writeJSON(w, http.StatusLocked, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrIdempotencyHashMismatch):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	h.withIdempotency(w, r, func() (int, any) {
		var req placeOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return http.StatusBadRequest, errorResponse{Error: "invalid json"}
		}

		order := domain.OrderRequest{
			MemberID:      req.MemberID,
			CustomerRef:   req.CustomerRef,
			PaymentMethod: req.PaymentMethod,
			Lines:         make([]domain.OrderLineRequest, 0, len(req.Lines)),
		}
		for _, line := range req.Lines {
			order.Lines = append(order.Lines, domain.OrderLineRequest{
				ProductID: line.ProductID,
				Size:      line.Size,
				Qty:       line.Qty,
			})
		}

		result, err := h.checkout.PlaceOrder(&order)
		if err != nil {
			return statusForError(err), errorResponse{Error: err.Error()}
		}

		return http.StatusCreated, placeOrderResponse{
			TransactionID:         result.TransactionID,
			Subtotal:              result.Subtotal.StringFixed(2),
			Discount:              result.Discount.StringFixed(2),
			Total:                 result.Total.StringFixed(2),
			MemberDiscountApplied: result.MemberDiscountApplied,
		}
	})
}

func statusForError(err error) int {
	switch {
	case domain.IsValidation(err):
		return http.StatusBadRequest
	case domain.IsNotFound(err):
		return http.StatusNotFound
	case domain.IsInsufficientStock(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

type transactionHeaderDTO struct {
	ID            string `json:"id"`
	CreatedAt     string `json:"created_at"`
	MemberID      string `json:"member_id,omitempty"`
	CustomerRef   string `json:"customer_ref"`
	Total         string `json:"total"`
	PaymentMethod string `json:"payment_method"`
}

type transactionLineDTO struct {
	LineNo    int32  `json:"line_no"`
	ProductID string `json:"product_id"`
	Size      string `json:"size"`
	Qty       int32  `json:"qty"`
	UnitPrice string `json:"unit_price"`
}

func headerDTO(h domain.TransactionHeader) transactionHeaderDTO {
	return transactionHeaderDTO{
		ID:            h.ID,
		CreatedAt:     h.CreatedAt.Format(time.RFC3339Nano),
		MemberID:      h.MemberID,
		CustomerRef:   h.CustomerRef,
		Total:         h.Total.StringFixed(2),
		PaymentMethod: h.PaymentMethod,
	}
}

func (h *Handler) listOrders(w http.ResponseWriter, _ *http.Request) {
	headers, err := h.reports.AllHeaders()
	if err != nil {
		writeDomainError(w, err)
		return
	}

	result := make([]transactionHeaderDTO, 0, len(headers))
	for _, header := range headers {
		result = append(result, headerDTO(header))
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	header, lines, err := h.reports.Transaction(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	lineDTOs := make([]transactionLineDTO, 0, len(lines))
	for _, line := range lines {
		lineDTOs = append(lineDTOs, transactionLineDTO{
			LineNo:    line.LineNo,
			ProductID: line.ProductID,
			Size:      line.Size,
			Qty:       line.Qty,
			UnitPrice: line.UnitPrice.StringFixed(2),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"header": headerDTO(header),
		"lines":  lineDTOs,
	})
}

type productDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	UnitPrice string `json:"unit_price"`
	Active    bool   `json:"active"`
}

func (h *Handler) listProducts(w http.ResponseWriter, _ *http.Request) {
	products, err := h.catalog.List()
	if err != nil {
		writeDomainError(w, err)
		return
	}

	result := make([]productDTO, 0, len(products))
	for _, p := range products {
		result = append(result, productDTO{
			ID:        p.ID,
			Name:      p.Name,
			Category:  p.Category,
			UnitPrice: p.UnitPrice.StringFixed(2),
			Active:    p.Active,
		})
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.FindByID(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, productDTO{
		ID:        product.ID,
		Name:      product.Name,
		Category:  product.Category,
		UnitPrice: product.UnitPrice.StringFixed(2),
		Active:    product.Active,
	})
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req productDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json"})
		return
	}

	price, err := decimal.NewFromString(req.UnitPrice)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid unit_price"})
		return
	}

	now := time.Now().UTC()
	product := domain.Product{
		ID:        req.ID,
		Name:      req.Name,
		Category:  req.Category,
		UnitPrice: price,
		Active:    req.Active,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if errs := product.ValidateInvariants(); len(errs) > 0 {
		writeDomainError(w, errs[0])
		return
	}
	if err := h.catalog.Create(product); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": domain.NormalizeProductID(req.ID)})
}

type stockAdjustRequest struct {
	Qty int32 `json:"qty"`
}

func (h *Handler) getStock(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")

	total, err := h.stock.TotalQuantity(productID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := map[string]any{"product_id": domain.NormalizeProductID(productID), "total": total}
	if size := r.URL.Query().Get("size"); size != "" {
		qty, err := h.stock.Quantity(productID, size)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		resp["size"] = size
		resp["qty"] = qty
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) setStock(w http.ResponseWriter, r *http.Request) {
	var req stockAdjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json"})
		return
	}

	productID, size := chi.URLParam(r, "productID"), chi.URLParam(r, "size")
	if err := h.stock.SetQuantity(productID, size, req.Qty); err != nil {
		writeDomainError(w, err)
		return
	}

	h.emitStockEvent(kafka.EventTypeStockAdjusted, productID, size, req.Qty)
	writeJSON(w, http.StatusOK, map[string]int32{"qty": req.Qty})
}

func (h *Handler) increaseStock(w http.ResponseWriter, r *http.Request) {
	var req stockAdjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json"})
		return
	}

	productID, size := chi.URLParam(r, "productID"), chi.URLParam(r, "size")
	if err := h.stock.Increase(productID, size, req.Qty); err != nil {
		writeDomainError(w, err)
		return
	}

	qty, err := h.stock.Quantity(productID, size)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.emitStockEvent(kafka.EventTypeStockRestocked, productID, size, req.Qty)
	writeJSON(w, http.StatusOK, map[string]int32{"qty": qty})
}

// emitStockEvent кладёт событие изменения остатка в outbox.
// Сбой публикации не отменяет уже применённое изменение.
func (h *Handler) emitStockEvent(eventType kafka.EventType, productID, size string, qty int32) {
	if h.outbox == nil {
		return
	}

	productID = domain.NormalizeProductID(productID)
	payload, err := json.Marshal(kafka.NewStockEvent(eventType, productID, size, qty))
	if err != nil {
		h.logger.WithError(err).Error("marshal stock event failed")
		return
	}

	msg := domain.OutboxMessage{
		AggregateType: "stock",
		AggregateID:   productID,
		EventType:     string(eventType),
		Payload:       payload,
	}
	if _, err := h.outbox.Enqueue(msg); err != nil {
		h.logger.WithError(err).WithField("product_id", productID).Error("enqueue stock event failed")
	}
}

type memberDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
}

func (h *Handler) createMember(w http.ResponseWriter, r *http.Request) {
	var req memberDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json"})
		return
	}

	member := domain.Member{ID: req.ID, Name: req.Name, Phone: req.Phone, JoinedAt: time.Now().UTC()}
	if err := h.members.Create(member); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (h *Handler) listMembers(w http.ResponseWriter, _ *http.Request) {
	members, err := h.members.List()
	if err != nil {
		writeDomainError(w, err)
		return
	}

	result := make([]memberDTO, 0, len(members))
	for _, m := range members {
		result = append(result, memberDTO{ID: m.ID, Name: m.Name, Phone: m.Phone})
	}
	writeJSON(w, http.StatusOK, result)
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json"})
		return
	}

	employee, err := h.auth.Login(req.Login, req.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"id":    employee.ID,
		"login": employee.Login,
		"name":  employee.Name,
		"role":  string(employee.Role),
	})
}

func (h *Handler) reportSummary(w http.ResponseWriter, r *http.Request) {
	from, to, err := parsePeriod(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	summary, err := h.reports.Summary(from, to)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"transactions": summary.Transactions,
		"revenue":      summary.Revenue.StringFixed(2),
		"member_sales": summary.MemberSales,
	})
}

func (h *Handler) reportProducts(w http.ResponseWriter, r *http.Request) {
	from, to, err := parsePeriod(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	sales, err := h.reports.ByProduct(from, to)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	result := make([]map[string]any, 0, len(sales))
	for _, entry := range sales {
		result = append(result, map[string]any{
			"product_id": entry.ProductID,
			"qty":        entry.Qty,
			"revenue":    entry.Revenue.StringFixed(2),
		})
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) discountRate(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"discount_rate": h.pricer.DiscountRate().String()})
}

func parsePeriod(r *http.Request) (time.Time, time.Time, error) {
	var from, to time.Time
	if v := r.URL.Query().Get("from"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("invalid from timestamp")
		}
		from = parsed
	}
	if v := r.URL.Query().Get("to"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("invalid to timestamp")
		}
		to = parsed
	}
	return from, to, nil
}
