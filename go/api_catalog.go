package foodcourtserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	cataloghttpmapper "github.com/Apurer/foodcourt-server/internal/domains/catalog/adapters/http/mapper"
	catalogports "github.com/Apurer/foodcourt-server/internal/domains/catalog/ports"
	apierrors "github.com/Apurer/foodcourt-server/internal/shared/errors"
)

// CatalogAPI serves the read-only vendor and menu listings.
type CatalogAPI struct {
	catalog catalogports.Lookup
}

func NewCatalogAPI(catalog catalogports.Lookup) CatalogAPI {
	return CatalogAPI{catalog: catalog}
}

// Get /v1/catalog/vendors
// Lists every stall
func (api *CatalogAPI) ListVendors(c *gin.Context) {
	vendors, err := api.catalog.ListVendors(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cataloghttpmapper.FromDomainVendors(vendors))
}

// Get /v1/catalog/menus
// Lists a vendor's active items ordered by name
func (api *CatalogAPI) GetMenu(c *gin.Context) {
	vendorID, ok := bindQueryInt(c, "vendorId", 0)
	if !ok {
		return
	}
	if vendorID <= 0 {
		responder.BadRequest(c, "vendorId is required")
		return
	}
	items, err := api.catalog.Menu(c.Request.Context(), int64(vendorID), true)
	if errors.Is(err, catalogports.ErrVendorNotFound) {
		responder.Respond(c, apierrors.NewNotFoundProblem("VendorNotFound", "vendor", vendorID))
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cataloghttpmapper.FromDomainMenu(items))
}
