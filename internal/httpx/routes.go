package httpx

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/umdsoft/bunyodoptom-backend/internal/auth"
	"github.com/umdsoft/bunyodoptom-backend/internal/catalog"
	kafkax "github.com/umdsoft/bunyodoptom-backend/internal/kafka"
	"github.com/umdsoft/bunyodoptom-backend/internal/orders"
	"github.com/umdsoft/bunyodoptom-backend/internal/uploads"
	"github.com/umdsoft/bunyodoptom-backend/internal/users"
)

type API struct {
	Log     *zap.Logger
	Users   *users.Repo
	Catalog *catalog.Repo
	Orders  *orders.Repo
	Storage *uploads.Storage
	Redis   *redis.Client

	OrderProducer   *kafkax.Producer // order.created
	PaymentProducer *kafkax.Producer // order.payment.settled

	Service   string
	JWTSecret string
	JWTTTL    time.Duration
	MaxFiles  int
}

func (a *API) Register(r *chi.Mux) {
	authed := auth.RequireAuth(a.JWTSecret)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/signup", a.signup)
			r.Post("/login", a.login)
			r.Group(func(r chi.Router) {
				r.Use(authed)
				r.Get("/me", a.me)
				r.Put("/me", a.updateMe)
				r.Put("/me/password", a.changePassword)
				r.With(auth.AdminOnly).Get("/", a.listUsers)
			})
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", a.listCategories)
			r.Group(func(r chi.Router) {
				r.Use(authed, auth.AdminOnly)
				r.Post("/", a.createCategory)
				r.Put("/{id}", a.updateCategory)
				r.Delete("/{id}", a.deleteCategory)
			})
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", a.listProducts)
			r.Get("/{id}", a.getProduct)
			r.Group(func(r chi.Router) {
				r.Use(authed, auth.AdminOnly)
				r.Post("/", a.createProduct)
				r.Put("/{id}", a.updateProduct)
				r.Delete("/{id}", a.deleteProduct)
			})
		})

		r.Route("/addresses", func(r chi.Router) {
			r.Use(authed)
			r.Get("/", a.listAddresses)
			r.Post("/", a.createAddress)
			r.Put("/{id}", a.updateAddress)
			r.Delete("/{id}", a.deleteAddress)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(authed)
			r.Get("/", a.listOrders)
			r.Post("/checkout", a.checkout)
			r.Get("/{id}", a.getOrder)
			r.Post("/{id}/cancel", a.cancelOrder)
			r.With(auth.AdminOnly).Put("/{id}/status", a.updateOrderStatus)
		})

		r.Route("/payments", func(r chi.Router) {
			r.With(authed).Post("/create", a.createPayment)
			// the provider calls back unauthenticated
			r.Post("/callback/{provider}", a.paymentCallback)
		})

		r.Route("/uploads", func(r chi.Router) {
			r.Use(authed, auth.AdminOnly)
			r.Post("/products/{productId}", a.uploadProductImages)
			r.Delete("/products/{productId}/{imageId}", a.deleteProductImage)
			r.Put("/products/{productId}/reorder", a.reorderProductImages)
		})
	})
}
