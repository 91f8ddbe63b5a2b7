package handlers

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/gartstein/shopper/internal/shopper/db"
	e "github.com/gartstein/shopper/internal/shopper/errors"
	"github.com/gartstein/shopper/internal/shopper/models"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/status"
)

// ServiceName is the fully qualified gRPC service. Messages travel with the
// "json" content subtype.
const ServiceName = "shopper.v1.ShopperService"

// CompanyController defines the business logic interface that the gRPC and
// HTTP handlers invoke for companies.
type CompanyController interface {
	ListCompanies(ctx context.Context, filter db.ListFilter) ([]models.Company, error)
	GetCompany(ctx context.Context, id uint) (*models.Company, error)
	CreateCompany(ctx context.Context, company *models.Company) (*models.Company, error)
	UpdateCompany(ctx context.Context, company *models.Company) (*models.Company, error)
	DeleteCompany(ctx context.Context, id uint) error
}

// ProductController is the product counterpart of CompanyController.
type ProductController interface {
	ListProducts(ctx context.Context, filter db.ListFilter) ([]models.Product, error)
	GetProduct(ctx context.Context, id uint) (*models.Product, error)
	CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	UpdateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	DeleteProduct(ctx context.Context, id uint) error
}

type IDRequest struct {
	ID uint `json:"id"`
}

type ListRequest struct {
	Name      string `json:"name,omitempty"`
	CompanyID uint   `json:"company_id,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	Offset    int    `json:"offset,omitempty"`
}

func (r *ListRequest) filter() db.ListFilter {
	return db.ListFilter{Name: r.Name, CompanyID: r.CompanyID, Limit: r.Limit, Offset: r.Offset}
}

type CompanyMessage struct {
	Company *CompanyDTO `json:"company"`
}

type CompanyList struct {
	Companies []CompanyDTO `json:"companies"`
}

type ProductMessage struct {
	Product *ProductDTO `json:"product"`
}

type ProductList struct {
	Products []ProductDTO `json:"products"`
}

type Empty struct{}

// ShopperServer is the server API of ServiceName.
type ShopperServer interface {
	ListCompanies(context.Context, *ListRequest) (*CompanyList, error)
	GetCompany(context.Context, *IDRequest) (*CompanyMessage, error)
	CreateCompany(context.Context, *CompanyMessage) (*CompanyMessage, error)
	UpdateCompany(context.Context, *CompanyMessage) (*CompanyMessage, error)
	DeleteCompany(context.Context, *IDRequest) (*Empty, error)
	ListProducts(context.Context, *ListRequest) (*ProductList, error)
	GetProduct(context.Context, *IDRequest) (*ProductMessage, error)
	CreateProduct(context.Context, *ProductMessage) (*ProductMessage, error)
	UpdateProduct(context.Context, *ProductMessage) (*ProductMessage, error)
	DeleteProduct(context.Context, *IDRequest) (*Empty, error)
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                       { return "json" }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

func unary[Req, Resp any](name string, call func(ShopperServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, status.Error(codes.InvalidArgument, err.Error())
			}
			if interceptor == nil {
				return call(srv.(ShopperServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(ShopperServer), ctx, req.(*Req))
			})
		},
	}
}

// ServiceDesc describes ShopperServer for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ShopperServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("ListCompanies", ShopperServer.ListCompanies),
		unary("GetCompany", ShopperServer.GetCompany),
		unary("CreateCompany", ShopperServer.CreateCompany),
		unary("UpdateCompany", ShopperServer.UpdateCompany),
		unary("DeleteCompany", ShopperServer.DeleteCompany),
		unary("ListProducts", ShopperServer.ListProducts),
		unary("GetProduct", ShopperServer.GetProduct),
		unary("CreateProduct", ShopperServer.CreateProduct),
		unary("UpdateProduct", ShopperServer.UpdateProduct),
		unary("DeleteProduct", ShopperServer.DeleteProduct),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "shopper/v1/shopper.json",
}

// ShopperHandler serves ShopperServer on top of the services.
type ShopperHandler struct {
	companies CompanyController
	products  ProductController
	logger    *zap.Logger
}

func NewShopperHandler(companies CompanyController, products ProductController, logger *zap.Logger) *ShopperHandler {
	return &ShopperHandler{
		companies: companies,
		products:  products,
		logger:    logger.Named("grpc_handler"),
	}
}

func (h *ShopperHandler) ListCompanies(ctx context.Context, req *ListRequest) (*CompanyList, error) {
	companies, err := h.companies.ListCompanies(ctx, req.filter())
	if err != nil {
		return nil, mapServiceError(h.logger, err)
	}
	return &CompanyList{Companies: companiesFromModels(companies)}, nil
}

func (h *ShopperHandler) GetCompany(ctx context.Context, req *IDRequest) (*CompanyMessage, error) {
	company, err := h.companies.GetCompany(ctx, req.ID)
	if err != nil {
		return nil, mapServiceError(h.logger, err)
	}
	dto := companyFromModel(company)
	return &CompanyMessage{Company: &dto}, nil
}

func (h *ShopperHandler) CreateCompany(ctx context.Context, req *CompanyMessage) (*CompanyMessage, error) {
	if req.Company == nil {
		return nil, status.Error(codes.InvalidArgument, "company data required")
	}
	created, err := h.companies.CreateCompany(ctx, companyToModel(req.Company))
	if err != nil {
		return nil, mapServiceError(h.logger, err)
	}
	dto := companyFromModel(created)
	return &CompanyMessage{Company: &dto}, nil
}

func (h *ShopperHandler) UpdateCompany(ctx context.Context, req *CompanyMessage) (*CompanyMessage, error) {
	if req.Company == nil {
		return nil, status.Error(codes.InvalidArgument, "company data required")
	}
	updated, err := h.companies.UpdateCompany(ctx, companyToModel(req.Company))
	if err != nil {
		return nil, mapServiceError(h.logger, err)
	}
	dto := companyFromModel(updated)
	return &CompanyMessage{Company: &dto}, nil
}

func (h *ShopperHandler) DeleteCompany(ctx context.Context, req *IDRequest) (*Empty, error) {
	if err := h.companies.DeleteCompany(ctx, req.ID); err != nil {
		return nil, mapServiceError(h.logger, err)
	}
	return &Empty{}, nil
}

func (h *ShopperHandler) ListProducts(ctx context.Context, req *ListRequest) (*ProductList, error) {
	products, err := h.products.ListProducts(ctx, req.filter())
	if err != nil {
		return nil, mapServiceError(h.logger, err)
	}
	return &ProductList{Products: productsFromModels(products)}, nil
}

func (h *ShopperHandler) GetProduct(ctx context.Context, req *IDRequest) (*ProductMessage, error) {
	product, err := h.products.GetProduct(ctx, req.ID)
	if err != nil {
		return nil, mapServiceError(h.logger, err)
	}
	dto := productFromModel(product)
	return &ProductMessage{Product: &dto}, nil
}

func (h *ShopperHandler) CreateProduct(ctx context.Context, req *ProductMessage) (*ProductMessage, error) {
	if req.Product == nil {
		return nil, status.Error(codes.InvalidArgument, "product data required")
	}
	created, err := h.products.CreateProduct(ctx, productToModel(req.Product))
	if err != nil {
		return nil, mapServiceError(h.logger, err)
	}
	dto := productFromModel(created)
	return &ProductMessage{Product: &dto}, nil
}

func (h *ShopperHandler) UpdateProduct(ctx context.Context, req *ProductMessage) (*ProductMessage, error) {
	if req.Product == nil {
		return nil, status.Error(codes.InvalidArgument, "product data required")
	}
	updated, err := h.products.UpdateProduct(ctx, productToModel(req.Product))
	if err != nil {
		return nil, mapServiceError(h.logger, err)
	}
	dto := productFromModel(updated)
	return &ProductMessage{Product: &dto}, nil
}

func (h *ShopperHandler) DeleteProduct(ctx context.Context, req *IDRequest) (*Empty, error) {
	if err := h.products.DeleteProduct(ctx, req.ID); err != nil {
		return nil, mapServiceError(h.logger, err)
	}
	return &Empty{}, nil
}

// mapServiceError maps domain or repository errors to gRPC status codes.
// The HTTP surface derives its status from the same code.
func mapServiceError(logger *zap.Logger, err error) error {
	switch {
	case errors.Is(err, e.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, e.ErrValidationFailed),
		errors.Is(err, e.ErrInvalidInput),
		errors.Is(err, e.ErrInvalidValue):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, e.ErrDuplicateName),
		errors.Is(err, e.ErrPersistenceConflict):
		return status.Error(codes.AlreadyExists, err.Error())
	default:
		logger.Error("Internal server error", zap.Error(err))
		return status.Error(codes.Internal, "internal server error")
	}
}
