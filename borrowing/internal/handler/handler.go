package handler

import (
	"net/http"
	"strconv"

	md "github.com/bookhive/borrowing-service/pkg/middleware"

	"github.com/bookhive/borrowing-service/borrowing/internal/errs"
	"github.com/bookhive/borrowing-service/borrowing/internal/model"
	"github.com/bookhive/borrowing-service/pkg/auth"
	"github.com/bookhive/borrowing-service/pkg/validate"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Handler struct {
	borrowingSvc BorrowingService
	log          *zap.Logger
}

func New(borrowingSrv BorrowingService, log *zap.Logger) *Handler {
	h := &Handler{
		borrowingSvc: borrowingSrv,
		log:          log,
	}
	return h
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	}))

	base := e.Group("", md.NewRateLimiter(baseRPS))
	base.GET("/manage/health", h.Health)

	e.Validator = validate.NewCustomValidator()
	api := e.Group("/api/v1",
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig()),
		middleware.RequestID(),
		md.NewRateLimiter(apiRPS),
	)

	// catalog is openly readable
	api.GET("/books", h.ListBooks)
	api.GET("/books/:id", h.GetBook)

	brw := api.Group("/borrowings", auth.JwtAuthentication)
	brw.GET("", h.ListBorrowings)
	brw.POST("", h.CreateBorrowing)
	brw.GET("/:borrowingUid", h.GetBorrowing)
	brw.POST("/:borrowingUid/return", h.ReturnBorrowing)

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (h *Handler) CreateBorrowing(c echo.Context) error {
	var req model.CreateBorrowingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	caller, err := auth.CallerFromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	req.UserID = caller.UserID

	if err := c.Validate(req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	resp, err := h.borrowingSvc.CreateBorrowing(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrExpectedDate), errors.Is(err, errs.ErrNoInventory):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, errs.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusCreated, resp)
}

func (h *Handler) ReturnBorrowing(c echo.Context) error {
	ctx := c.Request().Context()
	caller, err := auth.CallerFromContext(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	borrowingUid := c.Param("borrowingUid")
	if borrowingUid == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "borrowingUid is empty")
	}
	resp, err := h.borrowingSvc.ReturnBorrowing(ctx, caller, borrowingUid)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrAlreadyReturned):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, errs.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) GetBorrowing(c echo.Context) error {
	ctx := c.Request().Context()
	caller, err := auth.CallerFromContext(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	borrowingUid := c.Param("borrowingUid")
	if borrowingUid == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "borrowingUid is empty")
	}
	resp, err := h.borrowingSvc.GetBorrowing(ctx, caller, borrowingUid)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) ListBorrowings(c echo.Context) error {
	ctx := c.Request().Context()
	caller, err := auth.CallerFromContext(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}

	var filter model.ListFilter
	// any value ParseBool takes as true means active-only
	if isActive := c.QueryParam("is_active"); isActive != "" {
		active, err := strconv.ParseBool(isActive)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, errors.New("is_active is invalid"))
		}
		filter.ActiveOnly = active
	}
	if userID := c.QueryParam("user_id"); userID != "" {
		id, err := strconv.Atoi(userID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, errors.New("user_id is invalid"))
		}
		filter.UserID = id
	}

	items, err := h.borrowingSvc.ListBorrowings(ctx, caller, filter)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GetBook(c echo.Context) error {
	bookID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.New("id is invalid"))
	}
	book, err := h.borrowingSvc.GetBook(c.Request().Context(), bookID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, book)
}

func (h *Handler) ListBooks(c echo.Context) error {
	books, err := h.borrowingSvc.ListBooks(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, books)
}
