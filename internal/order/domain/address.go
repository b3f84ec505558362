package domain

import (
	"fmt"
	"strings"

	"github.com/wyfcoding/ecommerce/internal/common"
)

// Address 地址值对象，按值比较
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`
	Country string `json:"country"`
}

// NewAddress 创建地址，州/省可为空
func NewAddress(street, city, state, zipCode, country string) (Address, error) {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"street", street}, {"city", city}, {"zip code", zipCode}, {"country", country},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return Address{}, fmt.Errorf("%w: address %s is required", common.ErrValidationFailed, strings.Join(missing, ", "))
	}
	return Address{Street: street, City: city, State: state, ZipCode: zipCode, Country: country}, nil
}

// IsZero 未设置
func (a Address) IsZero() bool {
	return a == Address{}
}

func (a Address) String() string {
	return fmt.Sprintf("%s, %s, %s %s, %s", a.Street, a.City, a.State, a.ZipCode, a.Country)
}
