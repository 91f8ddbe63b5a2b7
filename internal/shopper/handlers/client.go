package handlers

import (
	"context"

	"google.golang.org/grpc"
)

// Client calls ServiceName over an existing connection.
type Client struct {
	conn grpc.ClientConnInterface
}

func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

func (c *Client) invoke(ctx context.Context, method string, in, out any, opts ...grpc.CallOption) error {
	opts = append(opts, grpc.CallContentSubtype(jsonCodec{}.Name()))
	return c.conn.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...)
}

func (c *Client) ListCompanies(ctx context.Context, in *ListRequest, opts ...grpc.CallOption) (*CompanyList, error) {
	out := new(CompanyList)
	return out, c.invoke(ctx, "ListCompanies", in, out, opts...)
}

func (c *Client) GetCompany(ctx context.Context, in *IDRequest, opts ...grpc.CallOption) (*CompanyMessage, error) {
	out := new(CompanyMessage)
	return out, c.invoke(ctx, "GetCompany", in, out, opts...)
}

func (c *Client) CreateCompany(ctx context.Context, in *CompanyMessage, opts ...grpc.CallOption) (*CompanyMessage, error) {
	out := new(CompanyMessage)
	return out, c.invoke(ctx, "CreateCompany", in, out, opts...)
}

func (c *Client) UpdateCompany(ctx context.Context, in *CompanyMessage, opts ...grpc.CallOption) (*CompanyMessage, error) {
	out := new(CompanyMessage)
	return out, c.invoke(ctx, "UpdateCompany", in, out, opts...)
}

func (c *Client) DeleteCompany(ctx context.Context, in *IDRequest, opts ...grpc.CallOption) (*Empty, error) {
	out := new(Empty)
	return out, c.invoke(ctx, "DeleteCompany", in, out, opts...)
}

func (c *Client) ListProducts(ctx context.Context, in *ListRequest, opts ...grpc.CallOption) (*ProductList, error) {
	out := new(ProductList)
	return out, c.invoke(ctx, "ListProducts", in, out, opts...)
}

func (c *Client) GetProduct(ctx context.Context, in *IDRequest, opts ...grpc.CallOption) (*ProductMessage, error) {
	out := new(ProductMessage)
	return out, c.invoke(ctx, "GetProduct", in, out, opts...)
}

func (c *Client) CreateProduct(ctx context.Context, in *ProductMessage, opts ...grpc.CallOption) (*ProductMessage, error) {
	out := new(ProductMessage)
	return out, c.invoke(ctx, "CreateProduct", in, out, opts...)
}

func (c *Client) UpdateProduct(ctx context.Context, in *ProductMessage, opts ...grpc.CallOption) (*ProductMessage, error) {
	out := new(ProductMessage)
	return out, c.invoke(ctx, "UpdateProduct", in, out, opts...)
}

func (c *Client) DeleteProduct(ctx context.Context, in *IDRequest, opts ...grpc.CallOption) (*Empty, error) {
	out := new(Empty)
	return out, c.invoke(ctx, "DeleteProduct", in, out, opts...)
}
