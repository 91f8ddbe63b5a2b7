package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gartstein/shopper/internal/shopper/controller"
	"github.com/gartstein/shopper/internal/shopper/db"
	e "github.com/gartstein/shopper/internal/shopper/errors"
	"github.com/gartstein/shopper/internal/shopper/metrics"
	"github.com/gartstein/shopper/internal/shopper/validation"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"go.uber.org/zap"
	"google.golang.org/grpc/status"
)

// RequestIDHeader is echoed back, or generated when the caller sent none.
const RequestIDHeader = "X-Request-Id"

// HTTPHandler serves the REST routes. They are mounted on the gateway mux
// and call the services directly.
type HTTPHandler struct {
	companies CompanyController
	products  ProductController
	metrics   *metrics.Metrics
	logger    *zap.Logger
	marshaler runtime.Marshaler
}

func NewHTTPHandler(companies CompanyController, products ProductController, m *metrics.Metrics, logger *zap.Logger) *HTTPHandler {
	return &HTTPHandler{
		companies: companies,
		products:  products,
		metrics:   m,
		logger:    logger.Named("http_handler"),
		marshaler: &runtime.JSONBuiltin{},
	}
}

type errorBody struct {
	Error   string                  `json:"error"`
	Details []validation.FieldError `json:"details,omitempty"`
}

type route struct {
	method  string
	pattern string
	fn      runtime.HandlerFunc
}

// Register mounts the REST routes on mux.
func (h *HTTPHandler) Register(mux *runtime.ServeMux) error {
	routes := []route{
		{http.MethodGet, "/v1/companies", h.listCompanies},
		{http.MethodPost, "/v1/companies", h.createCompany},
		{http.MethodGet, "/v1/companies/{id}", h.getCompany},
		{http.MethodPut, "/v1/companies/{id}", h.updateCompany},
		{http.MethodDelete, "/v1/companies/{id}", h.deleteCompany},
		{http.MethodGet, "/v1/products", h.listProducts},
		{http.MethodPost, "/v1/products", h.createProduct},
		{http.MethodGet, "/v1/products/{id}", h.getProduct},
		{http.MethodPut, "/v1/products/{id}", h.updateProduct},
		{http.MethodDelete, "/v1/products/{id}", h.deleteProduct},
	}
	for _, r := range routes {
		if err := mux.HandlePath(r.method, r.pattern, h.instrument(r.method, r.pattern, r.fn)); err != nil {
			return fmt.Errorf("failed to register %s %s: %w", r.method, r.pattern, err)
		}
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.code = code
	s.ResponseWriter.WriteHeader(code)
}

func (h *HTTPHandler) instrument(method, pattern string, fn runtime.HandlerFunc) runtime.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, params map[string]string) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)

		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		fn(rec, r, params)

		h.metrics.IncHTTPRequest(method, pattern, rec.code)
		h.logger.Debug("Request served",
			zap.String("request_id", requestID),
			zap.String("method", method),
			zap.String("route", pattern),
			zap.Int("status", rec.code),
		)
	}
}

func (h *HTTPHandler) respond(w http.ResponseWriter, code int, v any) {
	if v == nil {
		w.WriteHeader(code)
		return
	}
	body, err := h.marshaler.Marshal(v)
	if err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", h.marshaler.ContentType(v))
	w.WriteHeader(code)
	if _, err := w.Write(body); err != nil {
		h.logger.Warn("Failed to write response", zap.Error(err))
	}
}

func (h *HTTPHandler) fail(w http.ResponseWriter, err error) {
	st := status.Convert(mapServiceError(h.logger, err))
	body := errorBody{Error: st.Message()}
	if fields, ok := controller.IsValidation(err); ok {
		body.Error = e.ErrValidationFailed.Error()
		body.Details = fields
	}
	h.respond(w, runtime.HTTPStatusFromCode(st.Code()), body)
}

func (h *HTTPHandler) decode(r *http.Request, v any) error {
	if err := h.marshaler.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: malformed body: %v", e.ErrInvalidInput, err)
	}
	return nil
}

func pathID(params map[string]string) (uint, error) {
	id, err := strconv.ParseUint(params["id"], 10, 0)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: id must be a positive integer", e.ErrInvalidInput)
	}
	return uint(id), nil
}

func listFilter(r *http.Request) (db.ListFilter, error) {
	q := r.URL.Query()
	filter := db.ListFilter{Name: q.Get("name")}

	ints := []struct {
		key string
		dst *int
	}{{"limit", &filter.Limit}, {"offset", &filter.Offset}}
	for _, p := range ints {
		if raw := q.Get(p.key); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				return db.ListFilter{}, fmt.Errorf("%w: %s must be a non-negative integer", e.ErrInvalidInput, p.key)
			}
			*p.dst = n
		}
	}
	if raw := q.Get("company_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 0)
		if err != nil || id == 0 {
			return db.ListFilter{}, fmt.Errorf("%w: company_id must be a positive integer", e.ErrInvalidInput)
		}
		filter.CompanyID = uint(id)
	}
	return filter, nil
}

func (h *HTTPHandler) listCompanies(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	filter, err := listFilter(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	companies, err := h.companies.ListCompanies(r.Context(), filter)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.respond(w, http.StatusOK, CompanyList{Companies: companiesFromModels(companies)})
}

func (h *HTTPHandler) getCompany(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, err := pathID(params)
	if err != nil {
		h.fail(w, err)
		return
	}
	company, err := h.companies.GetCompany(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.respond(w, http.StatusOK, companyFromModel(company))
}

func (h *HTTPHandler) createCompany(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var dto CompanyDTO
	if err := h.decode(r, &dto); err != nil {
		h.fail(w, err)
		return
	}
	created, err := h.companies.CreateCompany(r.Context(), companyToModel(&dto))
	if err != nil {
		h.fail(w, err)
		return
	}
	h.respond(w, http.StatusCreated, companyFromModel(created))
}

func (h *HTTPHandler) updateCompany(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, err := pathID(params)
	if err != nil {
		h.fail(w, err)
		return
	}
	var dto CompanyDTO
	if err := h.decode(r, &dto); err != nil {
		h.fail(w, err)
		return
	}
	if dto.ID != 0 && dto.ID != id {
		h.fail(w, fmt.Errorf("%w: body id %d does not match path id %d", e.ErrInvalidInput, dto.ID, id))
		return
	}
	dto.ID = id

	updated, err := h.companies.UpdateCompany(r.Context(), companyToModel(&dto))
	if err != nil {
		h.fail(w, err)
		return
	}
	h.respond(w, http.StatusOK, companyFromModel(updated))
}

func (h *HTTPHandler) deleteCompany(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, err := pathID(params)
	if err != nil {
		h.fail(w, err)
		return
	}
	if err := h.companies.DeleteCompany(r.Context(), id); err != nil {
		h.fail(w, err)
		return
	}
	h.respond(w, http.StatusNoContent, nil)
}

func (h *HTTPHandler) listProducts(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	filter, err := listFilter(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	products, err := h.products.ListProducts(r.Context(), filter)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.respond(w, http.StatusOK, ProductList{Products: productsFromModels(products)})
}

func (h *HTTPHandler) getProduct(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, err := pathID(params)
	if err != nil {
		h.fail(w, err)
		return
	}
	product, err := h.products.GetProduct(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.respond(w, http.StatusOK, productFromModel(product))
}

func (h *HTTPHandler) createProduct(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var dto ProductDTO
	if err := h.decode(r, &dto); err != nil {
		h.fail(w, err)
		return
	}
	created, err := h.products.CreateProduct(r.Context(), productToModel(&dto))
	if err != nil {
		h.fail(w, err)
		return
	}
	h.respond(w, http.StatusCreated, productFromModel(created))
}

func (h *HTTPHandler) updateProduct(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, err := pathID(params)
	if err != nil {
		h.fail(w, err)
		return
	}
	var dto ProductDTO
	if err := h.decode(r, &dto); err != nil {
		h.fail(w, err)
		return
	}
	if dto.ID != 0 && dto.ID != id {
		h.fail(w, fmt.Errorf("%w: body id %d does not match path id %d", e.ErrInvalidInput, dto.ID, id))
		return
	}
	dto.ID = id

	updated, err := h.products.UpdateProduct(r.Context(), productToModel(&dto))
	if err != nil {
		h.fail(w, err)
		return
	}
	h.respond(w, http.StatusOK, productFromModel(updated))
}

func (h *HTTPHandler) deleteProduct(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, err := pathID(params)
	if err != nil {
		h.fail(w, err)
		return
	}
	if err := h.products.DeleteProduct(r.Context(), id); err != nil {
		h.fail(w, err)
		return
	}
	h.respond(w, http.StatusNoContent, nil)
}
