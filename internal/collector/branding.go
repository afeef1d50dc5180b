package collector

import (
	"context"
	"fmt"

	"prestaboost/internal/models"

	"go.uber.org/zap"
)

// CollectBrandingData copies the first shop's logo, favicon and theme color
// onto the boutique. Missing fields leave the boutique's values untouched.
func (c *Collector) CollectBrandingData(ctx context.Context, b *models.Boutique) BrandingResult {
	log := c.logger.With(boutiqueField(b))

	shops, err := c.clients(b).ListShops(ctx)
	if err != nil {
		log.Warn("failed to fetch shop branding", zap.Error(err))
		return BrandingResult{Error: err.Error()}
	}
	if len(shops) == 0 {
		return BrandingResult{Error: "no shop returned by webservice"}
	}

	shop := shops[0]
	data := map[string]string{}
	if v := shop.Logo.OrEmpty(); v != nil {
		b.Logo = v
		data["logo"] = *v
	}
	if v := shop.Favicon.OrEmpty(); v != nil {
		b.Favicon = v
		data["favicon"] = *v
	}
	if v := shop.ThemeColor.OrEmpty(); v != nil {
		b.ThemeColor = v
		data["theme_color"] = *v
	}

	if len(data) > 0 {
		if err := c.boutiques.Update(ctx, b); err != nil {
			log.Error("failed to save branding", zap.Error(err))
			return BrandingResult{Error: fmt.Sprintf("failed to save branding: %v", err)}
		}
	}

	log.Info("branding collected", zap.Int("fields", len(data)))
	return BrandingResult{Success: true, Data: data}
}
