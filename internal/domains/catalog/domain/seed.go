package domain

import "github.com/shopspring/decimal"

// SeedVendor is a vendor plus its menu, used to bootstrap empty catalogs.
type SeedVendor struct {
	Vendor Vendor
	Items  []Item
}

// DemoCatalog returns the three-stall menu used for local runs and tests.
func DemoCatalog() []SeedVendor {
	price := decimal.RequireFromString
	return []SeedVendor{
		{
			Vendor: Vendor{ID: 1, Name: "Pizza Hub", StallNo: "A1"},
			Items: []Item{
				{ID: 1, VendorID: 1, Name: "Margherita", Price: price("199"), Active: true},
				{ID: 2, VendorID: 1, Name: "Farmhouse", Price: price("279"), Active: true},
			},
		},
		{
			Vendor: Vendor{ID: 2, Name: "Biryani Bay", StallNo: "B4"},
			Items: []Item{
				{ID: 3, VendorID: 2, Name: "Chicken Biryani", Price: price("249"), Active: true},
				{ID: 4, VendorID: 2, Name: "Veg Biryani", Price: price("199"), Active: true},
			},
		},
		{
			Vendor: Vendor{ID: 3, Name: "Chaat Corner", StallNo: "C2"},
			Items: []Item{
				{ID: 5, VendorID: 3, Name: "Pani Puri", Price: price("59"), Active: true},
				{ID: 6, VendorID: 3, Name: "Dahi Puri", Price: price("79"), Active: true},
			},
		},
	}
}
