package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wyfcoding/ecommerce/internal/common"
)

// Category 商品分类聚合根，ParentID 为空时是顶级分类
type Category struct {
	ID          string
	Name        string
	Description string
	ImageURL    string
	ParentID    *string
	IsActive    bool
	// Version 乐观锁版本，由仓储维护
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewCategory 创建启用状态的分类
func NewCategory(name, description string, parentID *string, imageURL string) (*Category, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: category name is required", common.ErrValidationFailed)
	}
	if parentID != nil && *parentID == "" {
		parentID = nil
	}
	now := time.Now()
	return &Category{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		ImageURL:    imageURL,
		ParentID:    parentID,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// UpdateDetails 修改名称与描述
func (c *Category) UpdateDetails(name, description string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: category name is required", common.ErrValidationFailed)
	}
	c.Name = name
	c.Description = description
	c.touch()
	return nil
}

// UpdateImage 修改分类图片
func (c *Category) UpdateImage(imageURL string) {
	c.ImageURL = imageURL
	c.touch()
}

func (c *Category) Activate() {
	c.IsActive = true
	c.touch()
}

// Deactivate 停用后不能再被商品引用，已引用的商品不受影响
func (c *Category) Deactivate() {
	c.IsActive = false
	c.touch()
}

func (c *Category) touch() {
	c.UpdatedAt = time.Now()
}
