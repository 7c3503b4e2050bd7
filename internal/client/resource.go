package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/example/retail-pos/internal/auth"
	"github.com/example/retail-pos/internal/command"
	"github.com/example/retail-pos/internal/domain/product"
	"github.com/example/retail-pos/internal/domain/supplier"
	"github.com/example/retail-pos/internal/query"
	"github.com/example/retail-pos/internal/readmodel"
)

// Messages are the defaults shown when the server gives no message of its own.
type Messages struct {
	List   string
	Get    string
	Delete string
	Search string
}

// Resource is the CRUD controller of one REST collection. T is what the server
// returns, R is what create and update send.
type Resource[T, R any] struct {
	c    *Client
	path string
	msgs Messages
}

func NewResource[T, R any](c *Client, path string, msgs Messages) *Resource[T, R] {
	return &Resource[T, R]{c: c, path: path, msgs: msgs}
}

func pageQuery(page query.PageRequest) url.Values {
	v := url.Values{}
	v.Set("page", fmt.Sprint(page.Page))
	if page.Size > 0 {
		v.Set("size", fmt.Sprint(page.Size))
	}
	return v
}

func (r *Resource[T, R]) GetAll(ctx context.Context, page query.PageRequest) Result[query.Page[T]] {
	var out query.Page[T]
	if err := r.c.do(ctx, http.MethodGet, r.path+"?"+pageQuery(page).Encode(), nil, &out); err != nil {
		return fail[query.Page[T]](err, r.msgs.List)
	}
	return succeed(out)
}

func (r *Resource[T, R]) GetByID(ctx context.Context, id string) Result[T] {
	var out T
	if err := r.c.do(ctx, http.MethodGet, r.path+"/"+url.PathEscape(id), nil, &out); err != nil {
		return fail[T](err, r.msgs.Get)
	}
	return succeed(out)
}

// Search filters by name.
func (r *Resource[T, R]) Search(ctx context.Context, term string, page query.PageRequest) Result[query.Page[T]] {
	v := pageQuery(page)
	v.Set("name", term)
	var out query.Page[T]
	if err := r.c.do(ctx, http.MethodGet, r.path+"?"+v.Encode(), nil, &out); err != nil {
		return fail[query.Page[T]](err, r.msgs.Search)
	}
	return succeed(out)
}

func (r *Resource[T, R]) Create(ctx context.Context, in R) Result[T] {
	var out T
	if err := r.c.do(ctx, http.MethodPost, r.path, in, &out); err != nil {
		return failAll[T](err)
	}
	return succeed(out)
}

func (r *Resource[T, R]) Update(ctx context.Context, id string, in R) Result[T] {
	var out T
	if err := r.c.do(ctx, http.MethodPut, r.path+"/"+url.PathEscape(id), in, &out); err != nil {
		return failAll[T](err)
	}
	return succeed(out)
}

// Delete deactivates the entry; the server never removes records that history points to.
func (r *Resource[T, R]) Delete(ctx context.Context, id string) Result[struct{}] {
	if err := r.c.do(ctx, http.MethodDelete, r.path+"/"+url.PathEscape(id), nil, nil); err != nil {
		return fail[struct{}](err, r.msgs.Delete)
	}
	return succeed(struct{}{})
}

func (r *Resource[T, R]) Activate(ctx context.Context, id string) Result[struct{}] {
	if err := r.c.do(ctx, http.MethodPost, r.path+"/"+url.PathEscape(id)+"/activate", nil, nil); err != nil {
		return fail[struct{}](err, msgInternal)
	}
	return succeed(struct{}{})
}

// Active lists the active entries, for select boxes.
func (r *Resource[T, R]) Active(ctx context.Context) Result[[]T] {
	var out []T
	if err := r.c.do(ctx, http.MethodGet, r.path+"/active", nil, &out); err != nil {
		return fail[[]T](err, r.msgs.List)
	}
	return succeed(out)
}

// ============================================
// Collections
// ============================================

type (
	Product   = readmodel.ProductReadModel
	Lookups   = Resource[readmodel.LookupReadModel, command.SaveLookup]
	Suppliers = Resource[readmodel.SupplierReadModel, supplier.Contact]
	Users     = Resource[User, UserInput]
)

// UserInput creates or updates a user. Login and password are ignored on update.
type UserInput struct {
	Login    string    `json:"login,omitempty"`
	Email    string    `json:"email"`
	Password string    `json:"password,omitempty"`
	Name     string    `json:"name"`
	Role     auth.Role `json:"role"`
}

func NewCategories(c *Client) *Lookups {
	return NewResource[readmodel.LookupReadModel, command.SaveLookup](c, "/api/categories", Messages{
		List:   "Erro ao carregar categorias",
		Get:    "Categoria não encontrada",
		Delete: "Erro ao excluir categoria",
		Search: "Erro ao buscar categorias",
	})
}

func NewDepartments(c *Client) *Lookups {
	return NewResource[readmodel.LookupReadModel, command.SaveLookup](c, "/api/departments", Messages{
		List:   "Erro ao carregar departamentos",
		Get:    "Departamento não encontrado",
		Delete: "Erro ao excluir departamento",
		Search: "Erro ao buscar departamentos",
	})
}

func NewSuppliers(c *Client) *Suppliers {
	return NewResource[readmodel.SupplierReadModel, supplier.Contact](c, "/api/suppliers", Messages{
		List:   "Erro ao carregar fornecedores",
		Get:    "Fornecedor não encontrado",
		Delete: "Erro ao excluir fornecedor",
		Search: "Erro ao buscar fornecedores",
	})
}

func NewUsers(c *Client) *Users {
	return NewResource[User, UserInput](c, "/api/users", Messages{
		List:   "Erro ao carregar usuários",
		Get:    "Usuário não encontrado",
		Delete: "Erro ao excluir usuário",
		Search: "Erro ao buscar usuários",
	})
}

// Products adds the barcode lookup and stock views to the generic controller.
type Products struct {
	*Resource[readmodel.ProductReadModel, product.Details]
}

func NewProducts(c *Client) *Products {
	return &Products{NewResource[readmodel.ProductReadModel, product.Details](c, "/api/products", Messages{
		List:   "Erro ao carregar produtos",
		Get:    "Produto não encontrado",
		Delete: "Erro ao excluir produto",
		Search: "Erro ao buscar produtos",
	})}
}

// ByCode resolves a scanned barcode or SKU.
func (p *Products) ByCode(ctx context.Context, code string) Result[readmodel.ProductReadModel] {
	var out readmodel.ProductReadModel
	if err := p.c.do(ctx, http.MethodGet, p.path+"/barcode/"+url.PathEscape(code), nil, &out); err != nil {
		return fail[readmodel.ProductReadModel](err, "Produto não encontrado")
	}
	return succeed(out)
}

// All is the unpaginated active list.
func (p *Products) All(ctx context.Context) Result[[]readmodel.ProductReadModel] {
	var out []readmodel.ProductReadModel
	if err := p.c.do(ctx, http.MethodGet, p.path+"/all", nil, &out); err != nil {
		return fail[[]readmodel.ProductReadModel](err, p.msgs.List)
	}
	return succeed(out)
}

func (p *Products) Movements(ctx context.Context, productID string, page query.PageRequest) Result[query.Page[readmodel.MovementReadModel]] {
	path := p.path + "/" + url.PathEscape(productID) + "/movements?" + pageQuery(page).Encode()
	var out query.Page[readmodel.MovementReadModel]
	if err := p.c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return fail[query.Page[readmodel.MovementReadModel]](err, "Erro ao carregar movimentações")
	}
	return succeed(out)
}
