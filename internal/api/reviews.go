package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/infinitepl/infinite/internal/access"
	"github.com/infinitepl/infinite/internal/domain"
	"github.com/infinitepl/infinite/internal/view"
	"github.com/infinitepl/infinite/internal/webserver"
)

const duplicateReviewMessage = "You have already reviewed this product."

type reviewPayload struct {
	Product *int64 `json:"product" validate:"required,gt=0"`
	Rating  *int   `json:"rating" validate:"required,gte=1,lte=5"`
	Comment string `json:"comment"`
}

type reviewPatchPayload struct {
	Product *int64  `json:"product" validate:"omitempty,gt=0"`
	Rating  *int    `json:"rating" validate:"omitempty,gte=1,lte=5"`
	Comment *string `json:"comment"`
}

func registerReviewRoutes() {
	webserver.ApiGET("/reviews/product_reviews", productReviews, require(access.Reviews, access.List))
	webserver.ApiGET("/reviews", listReviews, require(access.Reviews, access.List))
	webserver.ApiGET("/reviews/:id", getReview, require(access.Reviews, access.Retrieve))
	webserver.ApiPOST("/reviews", createReview, require(access.Reviews, access.Create))
	webserver.ApiPUT("/reviews/:id", updateReview, require(access.Reviews, access.Update))
	webserver.ApiPATCH("/reviews/:id", patchReview, require(access.Reviews, access.PartialUpdate))
	webserver.ApiDELETE("/reviews/:id", deleteReview, require(access.Reviews, access.Destroy))
}

func newestReviews(db *gorm.DB) *gorm.DB {
	return db.Preload("User").Order("created_at DESC, id DESC")
}

func listReviews(c echo.Context) error {
	return findList(c, GetDB(c).Model(&domain.Review{}), "reviews", func(rows []domain.Review) interface{} {
		return view.NewReviews(rows)
	}, newestReviews)
}

// productReviews lists the reviews of one product, newest first
func productReviews(c echo.Context) error {
	// a missing or malformed product_id answers an empty list with 400
	productID, err := strconv.ParseInt(strings.TrimSpace(c.QueryParam("product_id")), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, []view.Review{})
	}
	q := GetDB(c).Model(&domain.Review{}).Where("product_id = ?", productID)
	return findList(c, q, "reviews", func(rows []domain.Review) interface{} {
		return view.NewReviews(rows)
	}, newestReviews)
}

func getReview(c echo.Context) error {
	var rv domain.Review
	if found, err := loadRecord(c, &rv, "REVIEW_NOT_FOUND", "Review", withUser); !found {
		return err
	}
	return ok(c, view.NewReview(rv))
}

// checkReviewTarget validates the product reference and the one-review-per-product rule
func checkReviewTarget(c echo.Context, productID, userID, exceptID int64) (FieldErrors, error) {
	var count int64
	if err := GetDB(c).Model(&domain.Product{}).Where("id = ?", productID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return FieldErrors{"product": {"Invalid pk \"" + strconv.FormatInt(productID, 10) + "\" - object does not exist."}}, nil
	}
	q := GetDB(c).Model(&domain.Review{}).Where("product_id = ? AND user_id = ?", productID, userID)
	if exceptID > 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return FieldErrors{"non_field_errors": {duplicateReviewMessage}}, nil
	}
	return nil, nil
}

// saveReview persists rv, turning a lost uniqueness race into a validation error
func saveReview(c echo.Context, rv *domain.Review, status int) error {
	var err error
	if rv.ID == 0 {
		err = GetDB(c).Omit("User").Create(rv).Error
	} else {
		err = GetDB(c).Omit("User").Save(rv).Error
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return validationFail(c, FieldErrors{"non_field_errors": {duplicateReviewMessage}})
	}
	if err != nil {
		return databaseFail(c, "Failed to save review", err)
	}
	if err := GetDB(c).Scopes(withUser).Where("id = ?", rv.ID).First(rv).Error; err != nil {
		return databaseFail(c, "Failed to query review", err)
	}
	return c.JSON(status, view.NewReview(*rv))
}

func createReview(c echo.Context) error {
	var payload reviewPayload
	if valid, err := bindPayload(c, &payload); !valid {
		return err
	}
	principal := webserver.GetPrincipal(c)
	fe, err := checkReviewTarget(c, *payload.Product, principal.UserID, 0)
	if err != nil {
		return databaseFail(c, "Failed to validate review", err)
	}
	if fe != nil {
		return validationFail(c, fe)
	}
	rv := domain.Review{
		ProductID: *payload.Product,
		UserID:    principal.UserID,
		Rating:    *payload.Rating,
		Comment:   payload.Comment,
	}
	if err := saveReview(c, &rv, http.StatusCreated); err != nil {
		return err
	}
	zap.L().Info("review created", zap.Int64("id", rv.ID), zap.Int64("product_id", rv.ProductID), zap.Int64("user_id", rv.UserID))
	return nil
}

// loadOwnReview fetches a review the caller may modify
func loadOwnReview(c echo.Context, rv *domain.Review) (bool, error) {
	if found, err := loadRecord(c, rv, "REVIEW_NOT_FOUND", "Review"); !found {
		return false, err
	}
	if err := access.CanModify(webserver.GetPrincipal(c), rv.UserID); err != nil {
		return false, accessFail(c, err)
	}
	return true, nil
}

func updateReview(c echo.Context) error {
	var rv domain.Review
	if found, err := loadOwnReview(c, &rv); !found {
		return err
	}
	var payload reviewPayload
	if valid, err := bindPayload(c, &payload); !valid {
		return err
	}
	return applyReviewChange(c, &rv, payload.Product, payload.Rating, &payload.Comment)
}

func patchReview(c echo.Context) error {
	var rv domain.Review
	if found, err := loadOwnReview(c, &rv); !found {
		return err
	}
	var payload reviewPatchPayload
	if valid, err := bindPayload(c, &payload); !valid {
		return err
	}
	return applyReviewChange(c, &rv, payload.Product, payload.Rating, payload.Comment)
}

func applyReviewChange(c echo.Context, rv *domain.Review, product *int64, rating *int, comment *string) error {
	if product != nil && *product != rv.ProductID {
		fe, err := checkReviewTarget(c, *product, rv.UserID, rv.ID)
		if err != nil {
			return databaseFail(c, "Failed to validate review", err)
		}
		if fe != nil {
			return validationFail(c, fe)
		}
		rv.ProductID = *product
	}
	if rating != nil {
		rv.Rating = *rating
	}
	if comment != nil {
		rv.Comment = *comment
	}
	return saveReview(c, rv, http.StatusOK)
}

func deleteReview(c echo.Context) error {
	var rv domain.Review
	if found, err := loadOwnReview(c, &rv); !found {
		return err
	}
	if err := GetDB(c).Delete(&rv).Error; err != nil {
		return databaseFail(c, "Failed to delete review", err)
	}
	zap.L().Info("review deleted", zap.Int64("id", rv.ID))
	return c.NoContent(http.StatusNoContent)
}
