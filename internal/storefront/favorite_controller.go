package storefront

import (
	"context"

	"go.uber.org/zap"
)

// FavoriteController toggles favorites optimistically; a failed toggle is undone by toggling back
type FavoriteController struct {
	api     FavoriteAPI
	creds   Credentials
	catalog *Catalog
	set     *FavoriteSet
	logger  *zap.Logger
}

func NewFavoriteController(api FavoriteAPI, creds Credentials, catalog *Catalog, set *FavoriteSet, logger *zap.Logger) *FavoriteController {
	return &FavoriteController{api: api, creds: creds, catalog: catalog, set: set, logger: logger}
}

// Products returns the favorited products known to the catalog
func (c *FavoriteController) Products() []Product {
	return c.catalog.Lookup(c.set.IDs())
}

func (c *FavoriteController) IsFavorite(productID string) bool {
	return c.set.Has(productID)
}

// Load replaces the set with the server's favorites
func (c *FavoriteController) Load(ctx context.Context) error {
	if !signedIn(c.creds) {
		return ErrNotSignedIn
	}

	payloads, err := c.api.Favorites(ctx)
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(payloads))
	for _, p := range payloads {
		product := NormalizeProduct(p)
		c.catalog.Upsert(product)
		ids = append(ids, product.ID)
	}
	c.set.Replace(ids)
	return nil
}

// Toggle flips productID and reports whether it ends up favorited
func (c *FavoriteController) Toggle(ctx context.Context, productID string) (bool, error) {
	if !signedIn(c.creds) {
		return false, ErrNotSignedIn
	}

	var favorited bool
	err := Run(ctx, Command{
		Name: "favorite.toggle",
		Apply: func() {
			favorited = c.set.Toggle(productID)
		},
		Commit: func(ctx context.Context) error {
			fav, err := c.api.ToggleFavorite(ctx, productID)
			if err != nil {
				return err
			}
			// the server's answer wins when it disagrees with the local guess
			c.set.Set(productID, fav)
			favorited = fav
			return nil
		},
		Compensate: func(ctx context.Context, cause error) {
			c.logger.Warn("Favorite toggle failed, reverting", zap.String("product_id", productID), zap.Error(cause))
			c.set.Toggle(productID)
		},
	})
	if err != nil {
		return c.set.Has(productID), err
	}
	return favorited, nil
}
