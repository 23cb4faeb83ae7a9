package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"go-storefront/internal/model"
	"go-storefront/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// buildCategorySlug derives the slug from the category's name plus its
// parent chain, root last.
func buildCategorySlug(tx *gorm.DB, name string, parentID *uint) (string, error) {
	parts := []string{name}
	for parentID != nil {
		var parent model.Category
		if err := tx.First(&parent, *parentID).Error; err != nil {
			return "", err
		}
		parts = append(parts, parent.Name)
		parentID = parent.ParentID
	}
	return slug.Make(strings.Join(parts, "-")), nil
}

// categoryCycleCheck rejects a parent link that would make the category its
// own ancestor.
func categoryCycleCheck(tx *gorm.DB, id uint, parentID *uint) error {
	for parentID != nil {
		if *parentID == id {
			return &apiError{status: http.StatusBadRequest, detail: "Category cannot be its own ancestor"}
		}
		var parent model.Category
		if err := tx.First(&parent, *parentID).Error; err != nil {
			return &apiError{status: http.StatusBadRequest, detail: "Parent category does not exist"}
		}
		parentID = parent.ParentID
	}
	return nil
}

// refreshSubtreeSlugs recomputes slugs for every descendant of id. Called
// after a rename or re-parent so the whole chain stays derived.
func refreshSubtreeSlugs(tx *gorm.DB, id uint) error {
	var children []model.Category
	if err := tx.Where("parent_id = ?", id).Find(&children).Error; err != nil {
		return err
	}
	for i := range children {
		s, err := buildCategorySlug(tx, children[i].Name, children[i].ParentID)
		if err != nil {
			return err
		}
		if err := tx.Model(&children[i]).Update("slug", s).Error; err != nil {
			return err
		}
		if err := refreshSubtreeSlugs(tx, children[i].ID); err != nil {
			return err
		}
	}
	return nil
}

// collectSubtreeIDs gathers id and every descendant id.
func collectSubtreeIDs(tx *gorm.DB, id uint) ([]uint, error) {
	ids := []uint{id}
	var childIDs []uint
	if err := tx.Model(&model.Category{}).Where("parent_id = ?", id).Pluck("id", &childIDs).Error; err != nil {
		return nil, err
	}
	for _, cid := range childIDs {
		sub, err := collectSubtreeIDs(tx, cid)
		if err != nil {
			return nil, err
		}
		ids = append(ids, sub...)
	}
	return ids, nil
}

// ListCategories returns all categories with their genres, hiding the
// internal "deals" category used by the home views.
func (h *Handler) ListCategories(ctx *gin.Context) {
	var categories []model.Category
	err := h.db.Preload("Genres").
		Where("name NOT LIKE ?", "%deals%").
		Order("id").
		Find(&categories).Error
	if err != nil {
		log.Printf("categories: list: %v", err)
		response.Internal(ctx)
		return
	}
	response.OK(ctx, categories)
}

// CreateCategory adds a node to the tree. Admin only.
func (h *Handler) CreateCategory(ctx *gin.Context) {
	var req struct {
		Name   string `json:"name" binding:"required"`
		Parent *uint  `json:"parent"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}

	category := model.Category{Name: req.Name, ParentID: req.Parent}
	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := categoryCycleCheck(tx, 0, req.Parent); err != nil {
			return err
		}
		s, err := buildCategorySlug(tx, req.Name, req.Parent)
		if err != nil {
			return err
		}
		category.Slug = s
		return tx.Create(&category).Error
	})
	if err != nil {
		respondError(ctx, err, "categories: create")
		return
	}
	response.Created(ctx, category)
}

// UpdateCategory renames or re-parents a node and recomputes slugs for the
// whole affected subtree. An omitted "parent" key keeps the existing link;
// an explicit null moves the node to the root.
func (h *Handler) UpdateCategory(ctx *gin.Context) {
	raw, err := ctx.GetRawData()
	if err != nil {
		response.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}
	var req struct {
		Name   string `json:"name"`
		Parent *uint  `json:"parent"`
	}
	if err := json.Unmarshal(raw, &req); err != nil {
		response.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		response.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}
	_, reparent := fields["parent"]

	var category model.Category
	if err := h.db.First(&category, ctx.Param("id")).Error; err != nil {
		response.Error(ctx, http.StatusNotFound, "Category does not exist")
		return
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if req.Name != "" {
			category.Name = req.Name
		}
		if reparent {
			category.ParentID = req.Parent
		}
		if err := categoryCycleCheck(tx, category.ID, category.ParentID); err != nil {
			return err
		}
		s, err := buildCategorySlug(tx, category.Name, category.ParentID)
		if err != nil {
			return err
		}
		category.Slug = s
		if err := tx.Save(&category).Error; err != nil {
			return err
		}
		return refreshSubtreeSlugs(tx, category.ID)
	})
	if err != nil {
		respondError(ctx, err, "categories: update")
		return
	}
	response.OK(ctx, category)
}

// DeleteCategory removes the node and its whole subtree. Genres under the
// subtree lose their category; product links are cleaned up.
func (h *Handler) DeleteCategory(ctx *gin.Context) {
	var category model.Category
	if err := h.db.First(&category, ctx.Param("id")).Error; err != nil {
		response.Error(ctx, http.StatusNotFound, "Category does not exist")
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		ids, err := collectSubtreeIDs(tx, category.ID)
		if err != nil {
			return err
		}
		if err := tx.Model(&model.Genre{}).Where("category_id IN ?", ids).Update("category_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM product_categories WHERE category_id IN ?", ids).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Category{}, ids).Error
	})
	if err != nil {
		respondError(ctx, err, "categories: delete")
		return
	}
	ctx.Status(http.StatusNoContent)
}
