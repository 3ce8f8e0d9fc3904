package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/pawclinic-backend/internal/http/middleware"
	"github.com/yungbote/pawclinic-backend/internal/platform/apierr"
	"github.com/yungbote/pawclinic-backend/internal/platform/ctxutil"
	"github.com/yungbote/pawclinic-backend/internal/platform/logger"
	"github.com/yungbote/pawclinic-backend/internal/services"
)

const featuredProducts = 8

type WebHandlerDeps struct {
	Log          *logger.Logger
	Auth         services.AuthService
	Users        services.UserService
	Catalog      services.CatalogService
	Orders       services.OrderService
	Pets         services.PetService
	Appointments services.AppointmentService
	Hotel        services.HotelService
	CookieSecure bool
}

// WebHandler renders the HTML pages. Templates are installed on the engine by the router.
type WebHandler struct {
	deps WebHandlerDeps
	log  *logger.Logger
}

func NewWebHandler(deps WebHandlerDeps) *WebHandler {
	return &WebHandler{deps: deps, log: deps.Log.With("handler", "WebHandler")}
}

func signedIn(c *gin.Context) bool {
	rd := ctxutil.GetRequestData(c.Request.Context())
	return rd != nil && rd.UserID != uuid.Nil
}

func (h *WebHandler) render(c *gin.Context, status int, page string, data gin.H) {
	data["SignedIn"] = signedIn(c)
	c.HTML(status, page, data)
}

func (h *WebHandler) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	var ae *apierr.Error
	if errors.As(err, &ae) && ae.Status != 0 {
		status = ae.Status
	}
	if status >= http.StatusInternalServerError {
		h.log.Error("page render failed", "path", c.Request.URL.Path, "error", err)
	}
	c.String(status, http.StatusText(status))
}

// GET /
func (h *WebHandler) Home(c *gin.Context) {
	ctx := c.Request.Context()
	products, err := h.deps.Catalog.ListProducts(ctx, services.ProductQuery{Page: services.Page{PageSize: featuredProducts}})
	if err != nil {
		h.fail(c, err)
		return
	}
	clinicServices, err := h.deps.Appointments.ListServices(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK, "home.html", gin.H{
		"Products": products.Items,
		"Services": clinicServices,
	})
}

// GET /shop?q=&category=&page=
func (h *WebHandler) Shop(c *gin.Context) {
	ctx := c.Request.Context()
	q := strings.TrimSpace(c.Query("q"))
	category := strings.TrimSpace(c.Query("category"))
	page, err := h.deps.Catalog.ListProducts(ctx, services.ProductQuery{Query: q, CategorySlug: category, Page: pageFromQuery(c)})
	if err != nil {
		h.fail(c, err)
		return
	}
	cats, err := h.deps.Catalog.ListCategories(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	prev, next := 0, 0
	if page.Page > 1 {
		prev = page.Page - 1
	}
	if int64(page.Page*page.PageSize) < page.Total {
		next = page.Page + 1
	}
	h.render(c, http.StatusOK, "shop.html", gin.H{
		"Title":      "Shop",
		"Query":      q,
		"Category":   category,
		"Categories": cats,
		"Page":       page,
		"PrevPage":   prev,
		"NextPage":   next,
	})
}

// GET /shop/:slug
func (h *WebHandler) Product(c *gin.Context) {
	p, err := h.deps.Catalog.GetProductBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK, "product.html", gin.H{"Title": p.Name, "Product": p})
}

// GET /login
func (h *WebHandler) LoginPage(c *gin.Context) {
	if signedIn(c) {
		c.Redirect(http.StatusSeeOther, "/account")
		return
	}
	h.render(c, http.StatusOK, "login.html", gin.H{"Title": "Sign in"})
}

// POST /login
func (h *WebHandler) Login(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("email"))
	password := c.PostForm("password")
	tokens, err := h.deps.Auth.Login(c.Request.Context(), email, password, c.ClientIP())
	if err != nil {
		status, msg := http.StatusInternalServerError, "Something went wrong. Please try again."
		var ae *apierr.Error
		if errors.As(err, &ae) {
			switch ae.Status {
			case http.StatusTooManyRequests:
				status, msg = ae.Status, "Too many sign-in attempts. Please wait and try again."
				if ae.RetryAfter > 0 {
					c.Header("Retry-After", strconv.Itoa(int(math.Ceil(ae.RetryAfter.Seconds()))))
				}
			case http.StatusUnauthorized, http.StatusBadRequest:
				status, msg = http.StatusUnauthorized, "Invalid email or password."
			}
		}
		h.render(c, status, "login.html", gin.H{"Title": "Sign in", "Error": msg, "Email": email})
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, tokens.AccessToken, tokens.ExpiresIn, "/", "", h.deps.CookieSecure, true)
	c.Redirect(http.StatusSeeOther, "/account")
}

// POST /logout
func (h *WebHandler) Logout(c *gin.Context) {
	if signedIn(c) {
		if err := h.deps.Auth.Logout(c.Request.Context()); err != nil {
			h.log.Warn("logout failed", "error", err)
		}
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", h.deps.CookieSecure, true)
	c.Redirect(http.StatusSeeOther, "/")
}

// GET /account
func (h *WebHandler) Account(c *gin.Context) {
	if !signedIn(c) {
		c.Redirect(http.StatusSeeOther, "/login")
		return
	}
	ctx := c.Request.Context()
	me, err := h.deps.Users.GetMe(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	orders, err := h.deps.Orders.ListMyOrders(ctx, services.Page{PageSize: 10})
	if err != nil {
		h.fail(c, err)
		return
	}
	pets, err := h.deps.Pets.ListMyPets(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	appts, err := h.deps.Appointments.ListMyAppointments(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	stays, err := h.deps.Hotel.ListMyReservations(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK, "account.html", gin.H{
		"Title":        "My account",
		"Me":           me,
		"Orders":       orders.Items,
		"Pets":         pets,
		"Appointments": appts,
		"Reservations": stays,
	})
}
