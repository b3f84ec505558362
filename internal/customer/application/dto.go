package application

import (
	"time"

	"github.com/wyfcoding/ecommerce/internal/customer/domain"
	"github.com/wyfcoding/ecommerce/pkg/utils"
)

// CustomerDTO 客户视图
type CustomerDTO struct {
	ID               string    `json:"id"`
	FirstName        string    `json:"first_name"`
	LastName         string    `json:"last_name"`
	FullName         string    `json:"full_name"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone,omitempty"`
	IsActive         bool      `json:"is_active"`
	RegistrationDate time.Time `json:"registration_date"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// CustomerListDTO 客户分页结果
type CustomerListDTO struct {
	Items      []CustomerDTO     `json:"items"`
	Pagination *utils.Pagination `json:"pagination"`
}

func toCustomerDTO(c *domain.Customer) CustomerDTO {
	return CustomerDTO{
		ID:               c.ID,
		FirstName:        c.FirstName,
		LastName:         c.LastName,
		FullName:         c.FullName(),
		Email:            c.Email,
		Phone:            c.Phone,
		IsActive:         c.IsActive,
		RegistrationDate: c.RegistrationDate,
		UpdatedAt:        c.UpdatedAt,
	}
}
