package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Apurer/foodcourt-server/internal/domains/catalog/domain"
	"github.com/Apurer/foodcourt-server/internal/domains/catalog/ports"
)

var _ ports.Lookup = (*Catalog)(nil)

// Catalog is an in-memory catalog. Entries are validated on write and cloned on read.
type Catalog struct {
	mu      sync.RWMutex
	vendors map[int64]domain.Vendor
	items   map[int64]domain.Item
}

func NewCatalog() *Catalog {
	return &Catalog{vendors: map[int64]domain.Vendor{}, items: map[int64]domain.Item{}}
}

// NewSeededCatalog returns a catalog preloaded with seed.
func NewSeededCatalog(seed []domain.SeedVendor) (*Catalog, error) {
	c := NewCatalog()
	for _, sv := range seed {
		if err := c.PutVendor(sv.Vendor); err != nil {
			return nil, err
		}
		for _, item := range sv.Items {
			if err := c.PutItem(item); err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}

// PutVendor inserts or replaces a vendor.
func (c *Catalog) PutVendor(v domain.Vendor) error {
	if err := v.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vendors[v.ID] = v
	return nil
}

// PutItem inserts or replaces a menu item. The vendor must already exist.
func (c *Catalog) PutItem(item domain.Item) error {
	if err := item.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.vendors[item.VendorID]; !ok {
		return ports.ErrVendorNotFound
	}
	c.items[item.ID] = item
	return nil
}

// SetActive toggles availability of an item.
func (c *Catalog) SetActive(itemID int64, active bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	item, ok := c.items[itemID]
	if !ok {
		return ports.ErrItemNotFound
	}
	item.Active = active
	c.items[itemID] = item
	return nil
}

// RemoveVendor deletes a vendor together with its menu.
func (c *Catalog) RemoveVendor(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.vendors, id)
	for itemID, item := range c.items {
		if item.VendorID == id {
			delete(c.items, itemID)
		}
	}
}

func (c *Catalog) GetVendor(_ context.Context, id int64) (*domain.Vendor, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.vendors[id]
	if !ok {
		return nil, ports.ErrVendorNotFound
	}
	return &v, nil
}

func (c *Catalog) VendorByName(_ context.Context, name string) (*domain.Vendor, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, v := range c.vendors {
		if v.Name == name {
			clone := v
			return &clone, nil
		}
	}
	return nil, ports.ErrVendorNotFound
}

func (c *Catalog) ListVendors(_ context.Context) ([]*domain.Vendor, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	list := make([]*domain.Vendor, 0, len(c.vendors))
	for _, v := range c.vendors {
		clone := v
		list = append(list, &clone)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (c *Catalog) Menu(_ context.Context, vendorID int64, activeOnly bool) ([]*domain.Item, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, ok := c.vendors[vendorID]; !ok {
		return nil, ports.ErrVendorNotFound
	}
	list := make([]*domain.Item, 0)
	for _, item := range c.items {
		if item.VendorID != vendorID || (activeOnly && !item.Active) {
			continue
		}
		clone := item
		list = append(list, &clone)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Name != list[j].Name {
			return list[i].Name < list[j].Name
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}

func (c *Catalog) GetItem(_ context.Context, id int64) (*domain.Item, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	item, ok := c.items[id]
	if !ok {
		return nil, ports.ErrItemNotFound
	}
	return &item, nil
}
