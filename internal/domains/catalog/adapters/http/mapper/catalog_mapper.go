package mapper

import (
	catalogdomain "github.com/Apurer/foodcourt-server/internal/domains/catalog/domain"
)

type Vendor struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	StallNo string `json:"stallNo"`
}

type MenuItem struct {
	ID       int64  `json:"id"`
	VendorID int64  `json:"vendorId"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Active   bool   `json:"active"`
}

func FromDomainVendors(vendors []*catalogdomain.Vendor) []Vendor {
	out := make([]Vendor, 0, len(vendors))
	for _, v := range vendors {
		out = append(out, Vendor{ID: v.ID, Name: v.Name, StallNo: v.StallNo})
	}
	return out
}

func FromDomainMenu(items []*catalogdomain.Item) []MenuItem {
	out := make([]MenuItem, 0, len(items))
	for _, item := range items {
		out = append(out, MenuItem{
			ID:       item.ID,
			VendorID: item.VendorID,
			Name:     item.Name,
			Price:    item.Price.StringFixed(2),
			Active:   item.Active,
		})
	}
	return out
}
