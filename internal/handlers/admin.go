package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yukikurage/taskboard-web/internal/dto"
	apierrors "github.com/yukikurage/taskboard-web/internal/errors"
	"github.com/yukikurage/taskboard-web/internal/gateway"
	"github.com/yukikurage/taskboard-web/internal/logger"
	"github.com/yukikurage/taskboard-web/internal/middleware"
	"github.com/yukikurage/taskboard-web/internal/models"
	"github.com/yukikurage/taskboard-web/internal/utils"
)

// AdminHandler serves the admin dashboard.
type AdminHandler struct {
	gateway *gateway.Client
	logger  *zap.Logger
}

func NewAdminHandler(gw *gateway.Client, log *zap.Logger) *AdminHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AdminHandler{gateway: gw, logger: log}
}

// Dashboard fetches the users and products tables concurrently and returns
// one page of each. Query parameters users_page, users_limit, products_page
// and products_limit select the pages.
func (h *AdminHandler) Dashboard(c *gin.Context) {
	client := h.gateway.WithToken(middleware.GetSession(c).Token())

	var (
		users    []models.User
		products []models.Product
	)
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		var err error
		users, err = client.Users(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		products, err = client.Products(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		logger.WithRequestID(c.Request.Context(), h.logger).Error("load admin dashboard",
			zap.String("kind", string(apierrors.KindOf(err))),
			zap.Error(err),
		)
		apierrors.RespondWithMessage(c, err, "Error loading dashboard data")
		return
	}

	userDTOs := make([]dto.UserDTO, len(users))
	for i, u := range users {
		userDTOs[i] = dto.ToUserDTO(u)
	}

	c.JSON(http.StatusOK, dto.AdminDashboard{
		Users:    page(userDTOs, utils.GetPrefixedPaginationParams(c, "users_")),
		Products: page(products, utils.GetPrefixedPaginationParams(c, "products_")),
	})
}

func page[T any](items []T, p utils.PaginationParams) dto.Page[T] {
	return dto.Page[T]{
		Items:      utils.Paginate(items, p),
		Page:       p.Page,
		PageSize:   p.Limit,
		TotalCount: len(items),
		TotalPages: p.TotalPages(len(items)),
	}
}
