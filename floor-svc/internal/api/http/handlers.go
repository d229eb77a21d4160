package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"floor-manager/floor-svc/internal/domain"
	"floor-manager/floor-svc/internal/service"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	Tables   service.TableServiceInterface
	Orders   service.OrderServiceInterface
	Statuses service.StatusServiceInterface
	Log      logrus.FieldLogger
}

func NewHandler(tableSvc service.TableServiceInterface, orderSvc service.OrderServiceInterface, statusSvc service.StatusServiceInterface, log logrus.FieldLogger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{
		Tables:   tableSvc,
		Orders:   orderSvc,
		Statuses: statusSvc,
		Log:      log,
	}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.healthCheck).Methods("GET")

	r.HandleFunc("/api/orders", h.createOrder).Methods("POST")
	r.HandleFunc("/api/orders/active", h.activeOrders).Methods("GET")
	r.HandleFunc("/api/orders/{id:[0-9]+}", h.getOrder).Methods("GET")
	r.HandleFunc("/api/orders/{id:[0-9]+}/status", h.transitionOrder).Methods("PATCH")
	r.HandleFunc("/api/order-items/{id:[0-9]+}/status", h.transitionItem).Methods("PATCH")

	r.HandleFunc("/api/tables", h.createTable).Methods("POST")
	r.HandleFunc("/api/tables", h.listTables).Methods("GET")
	r.HandleFunc("/api/tables/{id:[0-9]+}", h.getTable).Methods("GET")
	r.HandleFunc("/api/tables/{id:[0-9]+}", h.deleteTable).Methods("DELETE")
	r.HandleFunc("/api/tables/{id:[0-9]+}/availability", h.setAvailability).Methods("PATCH")
	r.HandleFunc("/api/tables/{id:[0-9]+}/calling-staff", h.setCallingStaff).Methods("PATCH")
	r.HandleFunc("/api/tables/{id:[0-9]+}/close", h.closeTable).Methods("POST")
	r.HandleFunc("/api/tables/{id:[0-9]+}/bill", h.openBill).Methods("GET")
	r.HandleFunc("/api/tables/{id:[0-9]+}/qrcode", h.tableQRCode).Methods("GET")
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := domain.Code(err)
	status := http.StatusInternalServerError
	message := "internal error"
	switch code {
	case "not_found":
		status, message = http.StatusNotFound, err.Error()
	case "validation_error":
		status, message = http.StatusBadRequest, err.Error()
	case "conflict":
		status, message = http.StatusConflict, err.Error()
	default:
		h.Log.WithError(err).WithField("path", r.URL.Path).Error("request failed")
	}
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}

func (h *Handler) badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: "validation_error", Message: message})
}

func pathID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	return id, err == nil && id > 0
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   "floor-svc",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, "Invalid JSON format: "+err.Error())
		return
	}
	order, err := h.Orders.CreateOrder(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (h *Handler) activeOrders(w http.ResponseWriter, r *http.Request) {
	var statuses []domain.Status
	for _, raw := range r.URL.Query()["status"] {
		for _, part := range strings.Split(raw, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			status, err := domain.ParseStatus(part)
			if err != nil {
				h.writeError(w, r, err)
				return
			}
			statuses = append(statuses, status)
		}
	}
	orders, err := h.Orders.ActiveOrders(r.Context(), statuses)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.badRequest(w, "invalid order id")
		return
	}
	order, err := h.Orders.GetOrder(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) decodeStatus(w http.ResponseWriter, r *http.Request) (domain.Status, bool) {
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, "Invalid JSON format: "+err.Error())
		return "", false
	}
	status, err := domain.ParseStatus(req.Status)
	if err != nil {
		h.writeError(w, r, err)
		return "", false
	}
	return status, true
}

func (h *Handler) transitionOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.badRequest(w, "invalid order id")
		return
	}
	status, ok := h.decodeStatus(w, r)
	if !ok {
		return
	}
	order, err := h.Statuses.TransitionOrder(r.Context(), id, status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) transitionItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.badRequest(w, "invalid order item id")
		return
	}
	status, ok := h.decodeStatus(w, r)
	if !ok {
		return
	}
	change, err := h.Statuses.TransitionItem(r.Context(), id, status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, change)
}

type createTableRequest struct {
	Name string `json:"name"`
}

func (h *Handler) createTable(w http.ResponseWriter, r *http.Request) {
	var req createTableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, "Invalid JSON format: "+err.Error())
		return
	}
	table, err := h.Tables.Create(r.Context(), req.Name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, table)
}

func (h *Handler) listTables(w http.ResponseWriter, r *http.Request) {
	tables, err := h.Tables.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tables)
}

func (h *Handler) getTable(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.badRequest(w, "invalid table id")
		return
	}
	table, err := h.Tables.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, table)
}

func (h *Handler) deleteTable(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.badRequest(w, "invalid table id")
		return
	}
	if err := h.Tables.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type flagRequest struct {
	Value *bool `json:"value"`
}

func (h *Handler) decodeFlag(w http.ResponseWriter, r *http.Request) (bool, bool) {
	var req flagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, "Invalid JSON format: "+err.Error())
		return false, false
	}
	if req.Value == nil {
		h.badRequest(w, "value is required")
		return false, false
	}
	return *req.Value, true
}

func (h *Handler) setAvailability(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.badRequest(w, "invalid table id")
		return
	}
	available, ok := h.decodeFlag(w, r)
	if !ok {
		return
	}
	table, err := h.Tables.SetAvailability(r.Context(), id, available)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, table)
}

func (h *Handler) setCallingStaff(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.badRequest(w, "invalid table id")
		return
	}
	calling, ok := h.decodeFlag(w, r)
	if !ok {
		return
	}
	table, err := h.Tables.SetCallingStaff(r.Context(), id, calling)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, table)
}

type closeTableRequest struct {
	PaymentMethod *string `json:"payment_method"`
}

func (h *Handler) closeTable(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.badRequest(w, "invalid table id")
		return
	}
	var req closeTableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.badRequest(w, "Invalid JSON format: "+err.Error())
		return
	}
	result, err := h.Orders.CloseTable(r.Context(), id, req.PaymentMethod)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) openBill(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.badRequest(w, "invalid table id")
		return
	}
	bill, err := h.Orders.OpenBill(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bill)
}

func (h *Handler) tableQRCode(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.badRequest(w, "invalid table id")
		return
	}
	png, err := h.Tables.QRCode(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
