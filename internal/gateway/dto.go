package gateway

import "github.com/storevia/storefront/internal/domain"

// cartLineDTO mirrors the remote service's cart line shape. The legacy PHP
// backend is loose with numeric fields (string-or-number, alternate names),
// so every numeric reads through domain.FlexNumber and normalization
// happens here, once, on ingestion.
type cartLineDTO struct {
	ID            string            `json:"id"`
	ProductID     domain.FlexNumber `json:"product_id"`
	Name          string            `json:"name"`
	StoreName     string            `json:"store_name"`
	Category      string            `json:"category"`
	Image         string            `json:"image"`
	Price         domain.FlexNumber `json:"price"`
	OriginalPrice domain.FlexNumber `json:"original_price"`
	CODFee        domain.FlexNumber `json:"cod_fee"`
	DeliveryFee   domain.FlexNumber `json:"delivery_fee"` // legacy name for cod_fee
	Quantity      domain.FlexNumber `json:"quantity"`
	Stock         domain.FlexNumber `json:"stock"`
	SelectedColor string            `json:"selected_color"`
	SelectedSize  string            `json:"selected_size"`
	Selected      bool              `json:"selected"`
}

func (d cartLineDTO) toDomain() domain.CartLineItem {
	stock := d.Stock.Int(0)
	if stock < 0 {
		stock = 0
	}
	price := d.Price.Or(0)
	if price < 0 {
		price = 0
	}
	return domain.CartLineItem{
		ID:                d.ID,
		ProductID:         int64(d.ProductID.Int(0)),
		Name:              d.Name,
		StoreName:         d.StoreName,
		Category:          d.Category,
		ImageRef:          d.Image,
		UnitPrice:         price,
		OriginalUnitPrice: d.OriginalPrice.Or(0),
		CODFee:            domain.ResolveCODFee(d.CODFee, d.DeliveryFee),
		Quantity:          domain.ClampQuantity(d.Quantity.Int(domain.MinQuantity)),
		StockAvailable:    stock,
		SelectedColor:     d.SelectedColor,
		SelectedSize:      d.SelectedSize,
		Selected:          d.Selected,
	}
}

type productDTO struct {
	ID        domain.FlexNumber `json:"id"`
	Name      string            `json:"name"`
	StoreName string            `json:"store_name"`
	Category  string            `json:"category"`
	Image     string            `json:"image"`
	Price     domain.FlexNumber `json:"price"`
}

func (d productDTO) toDomain() domain.Product {
	return domain.Product{
		ID:        int64(d.ID.Int(0)),
		Name:      d.Name,
		StoreName: d.StoreName,
		Category:  d.Category,
		ImageRef:  d.Image,
		Price:     d.Price.Or(0),
	}
}
